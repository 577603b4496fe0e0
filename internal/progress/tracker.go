package progress

import (
	"sync"
	"time"
)

// Status is the run lifecycle state
type Status string

const (
	StatusIdle      Status = "idle"
	StatusRunning   Status = "running"
	StatusCompleted Status = "completed"
	StatusFailed    Status = "failed"
)

// Snapshot is a point-in-time copy of run progress, safe to serialize
type Snapshot struct {
	Status          Status     `json:"status"`
	Stage           string     `json:"stage"`
	StageIndex      int        `json:"stage_index"`
	TotalStages     int        `json:"total_stages"`
	TickersDone     int        `json:"tickers_done"`
	TickersTotal    int        `json:"tickers_total"`
	PercentComplete float64    `json:"percent_complete"`
	Message         string     `json:"message,omitempty"`
	Error           string     `json:"error,omitempty"`
	StartedAt       *time.Time `json:"started_at,omitempty"`
	FinishedAt      *time.Time `json:"finished_at,omitempty"`
	LastUpdatedAt   time.Time  `json:"last_updated_at"`
	ScoringMethod   string     `json:"scoring_method,omitempty"`
	UniverseSize    int        `json:"universe_size,omitempty"`
}

// Tracker is the single shared source of run progress.
// ⭐ SSOT: all progress reads and writes go through this mutex.
type Tracker struct {
	mu sync.Mutex

	status       Status
	stage        string
	stageIndex   int
	totalStages  int
	tickersDone  int
	tickersTotal int
	message      string
	errMsg       string
	startedAt    *time.Time
	finishedAt   *time.Time
	updatedAt    time.Time

	scoringMethod string
	universeSize  int

	subscribers []chan Snapshot
}

func NewTracker(totalStages int) *Tracker {
	if totalStages <= 0 {
		totalStages = 1
	}
	return &Tracker{
		status:      StatusIdle,
		totalStages: totalStages,
		updatedAt:   time.Now(),
	}
}

// TryStart transitions idle/completed/failed into a fresh running state.
// Returns false when a run is already active; the caller treats that as
// a no-op request, not an error.
func (t *Tracker) TryStart() bool {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.status == StatusRunning {
		return false
	}

	now := time.Now()
	t.status = StatusRunning
	t.stage = ""
	t.stageIndex = 0
	t.tickersDone = 0
	t.tickersTotal = 0
	t.message = ""
	t.errMsg = ""
	t.startedAt = &now
	t.finishedAt = nil
	t.scoringMethod = ""
	t.universeSize = 0
	t.touchLocked()
	return true
}

// SetStage enters a named stage. stageIndex is zero-based; ticker counts
// reset so per-stage fractions start from zero.
func (t *Tracker) SetStage(stageIndex int, name string, tickersTotal int) {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.stageIndex = stageIndex
	t.stage = name
	t.tickersDone = 0
	t.tickersTotal = tickersTotal
	t.touchLocked()
}

// IncrementTickers adds n to the completed ticker count for the current
// stage. Counted per attempted ticker, failed batches included, so the
// bar always reaches 100% of the stage.
func (t *Tracker) IncrementTickers(n int) {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.tickersDone += n
	if t.tickersTotal > 0 && t.tickersDone > t.tickersTotal {
		t.tickersDone = t.tickersTotal
	}
	t.touchLocked()
}

// SetMessage records a human-readable progress note
func (t *Tracker) SetMessage(msg string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.message = msg
	t.touchLocked()
}

// SetScoringMethod records which scoring path the run bound to
func (t *Tracker) SetScoringMethod(method string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.scoringMethod = method
	t.touchLocked()
}

// SetUniverseSize records the resolved universe size
func (t *Tracker) SetUniverseSize(n int) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.universeSize = n
	t.touchLocked()
}

// Complete marks the run finished successfully
func (t *Tracker) Complete(msg string) {
	t.mu.Lock()
	defer t.mu.Unlock()

	now := time.Now()
	t.status = StatusCompleted
	t.stageIndex = t.totalStages
	t.message = msg
	t.finishedAt = &now
	t.touchLocked()
}

// Fail marks the run failed with a terminal reason
func (t *Tracker) Fail(reason string) {
	t.mu.Lock()
	defer t.mu.Unlock()

	now := time.Now()
	t.status = StatusFailed
	t.errMsg = reason
	t.finishedAt = &now
	t.touchLocked()
}

// Running reports whether a run is active
func (t *Tracker) Running() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.status == StatusRunning
}

// Snapshot returns a consistent copy of the current state
func (t *Tracker) Snapshot() Snapshot {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.snapshotLocked()
}

// Subscribe registers a progress channel; every state change pushes a
// snapshot. Slow consumers drop updates rather than block the run.
func (t *Tracker) Subscribe() (<-chan Snapshot, func()) {
	t.mu.Lock()
	defer t.mu.Unlock()

	ch := make(chan Snapshot, 16)
	t.subscribers = append(t.subscribers, ch)

	unsubscribe := func() {
		t.mu.Lock()
		defer t.mu.Unlock()
		for i, sub := range t.subscribers {
			if sub == ch {
				t.subscribers = append(t.subscribers[:i], t.subscribers[i+1:]...)
				close(ch)
				return
			}
		}
	}
	return ch, unsubscribe
}

func (t *Tracker) snapshotLocked() Snapshot {
	return Snapshot{
		Status:          t.status,
		Stage:           t.stage,
		StageIndex:      t.stageIndex,
		TotalStages:     t.totalStages,
		TickersDone:     t.tickersDone,
		TickersTotal:    t.tickersTotal,
		PercentComplete: t.percentLocked(),
		Message:         t.message,
		Error:           t.errMsg,
		StartedAt:       t.startedAt,
		FinishedAt:      t.finishedAt,
		LastUpdatedAt:   t.updatedAt,
		ScoringMethod:   t.scoringMethod,
		UniverseSize:    t.universeSize,
	}
}

// percentLocked maps (completed stages + in-stage fraction) onto [0,100]
func (t *Tracker) percentLocked() float64 {
	if t.status == StatusCompleted {
		return 100
	}
	frac := 0.0
	if t.tickersTotal > 0 {
		frac = float64(t.tickersDone) / float64(t.tickersTotal)
	}
	pct := (float64(t.stageIndex) + frac) / float64(t.totalStages) * 100
	if pct < 0 {
		return 0
	}
	if pct > 100 {
		return 100
	}
	return pct
}

func (t *Tracker) touchLocked() {
	t.updatedAt = time.Now()
	snap := t.snapshotLocked()
	for _, ch := range t.subscribers {
		select {
		case ch <- snap:
		default:
		}
	}
}
