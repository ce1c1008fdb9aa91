package domain

import "math"

const (
	MaxHearts          = 5.0
	achievedFiveHearts = 4.5
	heartsQuantum      = 0.25
)

// QuantizeHearts clamps v to [0, 5] and rounds to the nearest quarter.
func QuantizeHearts(v float64) float64 {
	if math.IsNaN(v) {
		return 0
	}
	clamped := math.Max(0, math.Min(MaxHearts, v))
	return math.Round(clamped/heartsQuantum) * heartsQuantum
}

// MaxPositiveHeartsDelta is the diminishing-returns cap for a day that has
// already banked pomoBlocks completions.
func MaxPositiveHeartsDelta(pomoBlocks int) float64 {
	switch {
	case pomoBlocks <= 0:
		return 0.5
	case pomoBlocks == 1:
		return 0.25
	default:
		return 0
	}
}

// HeartsAccrual is the outcome of applying a requested hearts value.
type HeartsAccrual struct {
	Hearts       float64
	CountedBlock bool
	AchievedFive bool
}

// AccrueHearts applies a requested absolute hearts value against the stored
// one. Positive deltas are capped by the day's usage; a used reset blocks them.
func AccrueHearts(stored, requested float64, usage FamiliarUsage) HeartsAccrual {
	delta := requested - stored
	result := HeartsAccrual{}

	if delta > 0 {
		allowed := MaxPositiveHeartsDelta(usage.PomoBlocks)
		if usage.ResetUsed {
			allowed = 0
		}
		delta = math.Min(delta, allowed)
	}

	result.Hearts = QuantizeHearts(stored + delta)
	// Only a gain that survives quantisation spends a block.
	result.CountedBlock = delta > 0 && result.Hearts > QuantizeHearts(stored)
	result.AchievedFive = result.Hearts >= achievedFiveHearts
	return result
}
