package progress

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTracker_TryStart_SingleFlight(t *testing.T) {
	tracker := NewTracker(6)

	require.True(t, tracker.TryStart())
	assert.False(t, tracker.TryStart(), "second start while running must be rejected")

	snap := tracker.Snapshot()
	assert.Equal(t, StatusRunning, snap.Status)

	tracker.Complete("done")
	assert.True(t, tracker.TryStart(), "completed run can be restarted")
}

func TestTracker_ConcurrentIncrements(t *testing.T) {
	tracker := NewTracker(6)
	tracker.TryStart()

	const workers = 10
	const perWorker = 100
	tracker.SetStage(1, "prices", workers*perWorker)

	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := 0; i < perWorker; i++ {
				tracker.IncrementTickers(1)
			}
		}()
	}
	wg.Wait()

	snap := tracker.Snapshot()
	assert.Equal(t, workers*perWorker, snap.TickersDone, "no lost updates under concurrency")
	assert.Equal(t, workers*perWorker, snap.TickersTotal)
}

func TestTracker_PercentComplete(t *testing.T) {
	tracker := NewTracker(6)
	tracker.TryStart()

	// stage 0, nothing done
	tracker.SetStage(0, "universe", 0)
	assert.InDelta(t, 0.0, tracker.Snapshot().PercentComplete, 0.01)

	// stage 1 half done: (1 + 0.5) / 6 = 25%
	tracker.SetStage(1, "prices", 100)
	tracker.IncrementTickers(50)
	assert.InDelta(t, 25.0, tracker.Snapshot().PercentComplete, 0.01)

	// overshoot is clamped to the stage total
	tracker.IncrementTickers(1000)
	snap := tracker.Snapshot()
	assert.Equal(t, 100, snap.TickersDone)
	assert.LessOrEqual(t, snap.PercentComplete, 100.0)

	tracker.Complete("done")
	assert.InDelta(t, 100.0, tracker.Snapshot().PercentComplete, 0.01)
}

func TestTracker_TerminalStates(t *testing.T) {
	tracker := NewTracker(6)
	tracker.TryStart()
	tracker.SetStage(2, "fundamentals", 10)

	tracker.Fail("cancelled")
	snap := tracker.Snapshot()
	assert.Equal(t, StatusFailed, snap.Status)
	assert.Equal(t, "cancelled", snap.Error)
	require.NotNil(t, snap.FinishedAt)
	assert.False(t, tracker.Running())

	// a fresh start clears the previous failure
	require.True(t, tracker.TryStart())
	snap = tracker.Snapshot()
	assert.Equal(t, StatusRunning, snap.Status)
	assert.Empty(t, snap.Error)
	assert.Nil(t, snap.FinishedAt)
}

func TestTracker_SubscribePushesUpdates(t *testing.T) {
	tracker := NewTracker(6)
	updates, unsubscribe := tracker.Subscribe()
	defer unsubscribe()

	tracker.TryStart()

	snap := <-updates
	assert.Equal(t, StatusRunning, snap.Status)
}
