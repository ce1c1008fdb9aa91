package domain

import (
	"fmt"
	"math"
	"time"
)

type CycleMode string

const (
	CycleIdle      CycleMode = "idle"
	CycleFocus     CycleMode = "focus"
	CycleBreak     CycleMode = "break"
	CycleLongBreak CycleMode = "long_break"
)

func ParseCycleMode(raw string) (CycleMode, error) {
	switch mode := CycleMode(raw); mode {
	case CycleIdle, CycleFocus, CycleBreak, CycleLongBreak:
		return mode, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownCycleMode, raw)
	}
}

// DefaultLength is used when a start request carries no explicit length.
func (m CycleMode) DefaultLength() time.Duration {
	switch m {
	case CycleFocus:
		return 25 * time.Minute
	case CycleBreak:
		return 5 * time.Minute
	case CycleLongBreak:
		return 15 * time.Minute
	default:
		return 0
	}
}

// Cycle is the persisted focus/break state. Deadlines are absolute so
// clients can compute the remainder without syncing clocks.
type Cycle struct {
	Mode      CycleMode  `json:"mode"`
	StartedAt *time.Time `json:"started_at"`
	EndsAt    *time.Time `json:"ends_at"`
	LengthMS  int64      `json:"length_ms"`
	Familiar  FamiliarID `json:"familiar,omitempty"`
}

func IdleCycle() Cycle {
	return Cycle{Mode: CycleIdle}
}

// StartCycle enters mode at now. Negative lengths are treated as zero.
func StartCycle(mode CycleMode, length time.Duration, now time.Time, familiar FamiliarID) (Cycle, error) {
	if mode == CycleIdle {
		return Cycle{}, fmt.Errorf("%w: cannot start %q", ErrUnknownCycleMode, mode)
	}
	if _, err := ParseCycleMode(string(mode)); err != nil {
		return Cycle{}, err
	}
	if length < 0 {
		length = 0
	}

	started := now
	ends := now.Add(length)
	return Cycle{
		Mode:      mode,
		StartedAt: &started,
		EndsAt:    &ends,
		LengthMS:  length.Milliseconds(),
		Familiar:  familiar,
	}, nil
}

// Remaining is max(0, ends_at - now) rounded to the millisecond.
func (c Cycle) Remaining(now time.Time) time.Duration {
	if c.Mode == CycleIdle || c.EndsAt == nil {
		return 0
	}
	ms := math.Round(float64(c.EndsAt.Sub(now)) / float64(time.Millisecond))
	if ms <= 0 {
		return 0
	}
	return time.Duration(ms) * time.Millisecond
}

type CycleStatus struct {
	Cycle
	RemainingMS int64 `json:"remaining_ms"`
}

func (c Cycle) Status(now time.Time) CycleStatus {
	if c.Mode == "" {
		c = IdleCycle()
	}
	return CycleStatus{Cycle: c, RemainingMS: c.Remaining(now).Milliseconds()}
}

// Snapshot captures the cycle for a user turn.
func (c Cycle) Snapshot(now time.Time) CycleSnapshot {
	status := c.Status(now)
	return CycleSnapshot{
		CycleMode:        status.Mode,
		CycleLengthMS:    status.LengthMS,
		CycleRemainingMS: status.RemainingMS,
		CycleStartedAt:   status.StartedAt,
		CycleEndsAt:      status.EndsAt,
	}
}
