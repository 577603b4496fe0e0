package scoring

import (
	"fmt"
	"time"

	"github.com/jdemuth17/market-analysis/internal/contracts"
)

// neutral sub-scores used when no data exists for a component
const (
	neutralTechnical   = 20.0
	neutralFundamental = 30.0
	neutralSentiment   = 50.0

	signalWindow = 7 * 24 * time.Hour
)

// sentiment source reliability weights; news is editorially filtered,
// forum posts are the noisiest
var sourceReliability = map[contracts.SentimentSource]float64{
	contracts.SourceNews:   1.5,
	contracts.SourceSocial: 1.0,
	contracts.SourceForum:  0.8,
}

// technicalScore computes the legacy technical sub-score from signals
// detected in the trailing 7 days.
func technicalScore(cat contracts.Category, signals []contracts.TechnicalSignal, now time.Time, reasons *contracts.LegacyReasoning) float64 {
	var recent []contracts.TechnicalSignal
	for _, s := range signals {
		if now.Sub(s.DetectedDate) <= signalWindow {
			recent = append(recent, s)
		}
	}
	reasons.SignalCount = len(recent)
	if len(recent) == 0 {
		return neutralTechnical
	}

	var bullish, bearish int
	var best contracts.TechnicalSignal
	for _, s := range recent {
		switch s.Direction {
		case contracts.DirectionBullish:
			bullish++
		case contracts.DirectionBearish:
			bearish++
		}
		if s.Confidence > best.Confidence {
			best = s
		}
	}
	reasons.BullishCount = bullish
	reasons.BearishCount = bearish
	reasons.BestConfidence = best.Confidence

	score := best.Confidence / 100 * 40
	addCriterion(reasons, "best pattern %s at %.0f%% confidence", best.PatternType, best.Confidence)

	if bullish > bearish {
		score += 20
		addCriterion(reasons, "bullish signal majority (%d vs %d)", bullish, bearish)
	} else {
		score += 10
	}

	score += categoryBonus(cat, recent, best, reasons)
	return clamp(score)
}

// categoryBonus rewards the signal shape each horizon cares about
func categoryBonus(cat contracts.Category, recent []contracts.TechnicalSignal, best contracts.TechnicalSignal, reasons *contracts.LegacyReasoning) float64 {
	var bonus float64
	switch cat {
	case contracts.CategoryDayTrade:
		if len(recent) >= 3 {
			bonus += 10
			addCriterion(reasons, "high signal activity (%d recent signals)", len(recent))
		}
		if best.Confidence > 70 {
			bonus += 10
			addCriterion(reasons, "high confidence signal (>70)")
		}
	case contracts.CategorySwingTrade:
		for _, s := range recent {
			if s.Status == contracts.StatusForming {
				bonus += 10
				addCriterion(reasons, "pattern still forming (%s)", s.PatternType)
				break
			}
		}
	case contracts.CategoryShortTermHold:
		for _, s := range recent {
			if s.Status == contracts.StatusConfirmed {
				bonus += 10
				addCriterion(reasons, "confirmed pattern (%s)", s.PatternType)
				break
			}
		}
	case contracts.CategoryLongTermHold:
		var bullish int
		for _, s := range recent {
			if s.Direction == contracts.DirectionBullish {
				bullish++
			}
		}
		if bullish >= 2 {
			bonus += 10
			addCriterion(reasons, "sustained bullish signals (%d)", bullish)
		}
	}
	return bonus
}

// fundamentalScore reweights the stored composite by trading horizon
func fundamentalScore(cat contracts.Category, snap *contracts.FundamentalSnapshot, reasons *contracts.LegacyReasoning) float64 {
	if snap == nil {
		return neutralFundamental
	}

	switch cat {
	case contracts.CategoryDayTrade:
		// intraday trades do not care about fundamentals
		return 50
	case contracts.CategorySwingTrade:
		// compress toward the 30-100 band so weak fundamentals do not
		// sink an otherwise strong swing setup
		return clamp(30 + snap.CompositeScore*0.7)
	case contracts.CategoryLongTermHold:
		score := 0.30*snap.ValueScore + 0.25*snap.QualityScore + 0.20*snap.GrowthScore + 0.25*snap.SafetyScore
		addCriterion(reasons, "long-hold fundamental blend %.1f (value %.0f, quality %.0f)", score, snap.ValueScore, snap.QualityScore)
		return clamp(score)
	default: // short-term hold
		return clamp(snap.CompositeScore)
	}
}

// sentimentScore maps the sample- and source-weighted (positive - negative)
// average from [-1,1] onto [0,100].
func sentimentScore(scores []contracts.SentimentScore, minSamples int, reasons *contracts.LegacyReasoning) float64 {
	totalSamples := 0
	for _, s := range scores {
		totalSamples += s.SampleSize
	}
	reasons.SampleSize = totalSamples
	if len(scores) == 0 || totalSamples < minSamples {
		return neutralSentiment
	}

	var weightedSum, weightTotal float64
	for _, s := range scores {
		reliability, ok := sourceReliability[s.Source]
		if !ok {
			reliability = 1.0
		}
		w := float64(s.SampleSize) * reliability
		weightedSum += (s.Positive - s.Negative) * w
		weightTotal += w
	}
	if weightTotal == 0 {
		return neutralSentiment
	}

	avg := weightedSum / weightTotal // [-1, 1]
	score := (avg + 1) / 2 * 100
	if score > 65 {
		addCriterion(reasons, "positive sentiment across %d samples", totalSamples)
	}
	return clamp(score)
}

func addCriterion(r *contracts.LegacyReasoning, format string, args ...interface{}) {
	r.MatchedCriteria = append(r.MatchedCriteria, fmt.Sprintf(format, args...))
}

func clamp(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 100 {
		return 100
	}
	return v
}
