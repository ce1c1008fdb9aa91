package application

import (
	"context"
	"testing"
	"time"

	"github.com/bnema/familiar-bridge/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCycleServiceStartFocusMinutes(t *testing.T) {
	h := newHarness(t, nil)
	ctx := context.Background()

	_, err := h.cycles.Start(ctx, StartCycleCommand{Mode: domain.CycleFocus, Minutes: float64Ptr(25)})
	require.NoError(t, err)

	status, err := h.cycles.Status(ctx)
	require.NoError(t, err)
	assert.Equal(t, domain.CycleFocus, status.Mode)
	assert.Equal(t, int64(1_500_000), status.LengthMS)
	assert.GreaterOrEqual(t, status.RemainingMS, int64(1_499_000))
	assert.LessOrEqual(t, status.RemainingMS, int64(1_500_000))
}

func TestCycleServiceRequestedLength(t *testing.T) {
	tests := []struct {
		name string
		cmd  StartCycleCommand
		want int64
	}{
		{name: "length_ms wins over minutes", cmd: StartCycleCommand{Mode: domain.CycleBreak, LengthMS: int64Ptr(90_000), Minutes: float64Ptr(10)}, want: 90_000},
		{name: "fractional minutes", cmd: StartCycleCommand{Mode: domain.CycleBreak, Minutes: float64Ptr(0.5)}, want: 30_000},
		{name: "break default", cmd: StartCycleCommand{Mode: domain.CycleBreak}, want: 300_000},
		{name: "long break default", cmd: StartCycleCommand{Mode: domain.CycleLongBreak}, want: 900_000},
		{name: "negative clamps to zero", cmd: StartCycleCommand{Mode: domain.CycleFocus, LengthMS: int64Ptr(-5)}, want: 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := newHarness(t, nil)
			status, err := h.cycles.Start(context.Background(), tt.cmd)
			require.NoError(t, err)
			assert.Equal(t, tt.want, status.LengthMS)
			assert.Equal(t, tt.want, status.RemainingMS)
		})
	}
}

func TestCycleServiceRemainingNeverNegative(t *testing.T) {
	h := newHarness(t, nil)
	ctx := context.Background()

	_, err := h.cycles.Start(ctx, StartCycleCommand{Mode: domain.CycleBreak, Minutes: float64Ptr(5), Familiar: "ada"})
	require.NoError(t, err)
	h.clock.Advance(7 * time.Minute)

	status, err := h.cycles.Status(ctx)
	require.NoError(t, err)
	assert.Equal(t, domain.CycleBreak, status.Mode, "the server never transitions on its own")
	assert.Equal(t, int64(0), status.RemainingMS)
	assert.Equal(t, domain.FamiliarID("ada"), status.Familiar)
}

func TestCycleServiceStopResetsToIdle(t *testing.T) {
	h := newHarness(t, nil)
	ctx := context.Background()

	_, err := h.cycles.Start(ctx, StartCycleCommand{Mode: domain.CycleFocus})
	require.NoError(t, err)
	_, err = h.cycles.Stop(ctx)
	require.NoError(t, err)

	status, err := h.cycles.Status(ctx)
	require.NoError(t, err)
	assert.Equal(t, domain.CycleStatus{Cycle: domain.IdleCycle()}, status)
}

func TestCycleServiceRejectsIdleAndUnknownModes(t *testing.T) {
	h := newHarness(t, nil)

	_, err := h.cycles.Start(context.Background(), StartCycleCommand{Mode: domain.CycleIdle})
	require.ErrorIs(t, err, domain.ErrUnknownCycleMode)

	_, err = h.cycles.Start(context.Background(), StartCycleCommand{Mode: "nap"})
	require.ErrorIs(t, err, domain.ErrUnknownCycleMode)
}
