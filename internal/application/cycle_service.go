package application

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"time"

	"github.com/bnema/familiar-bridge/internal/domain"
	"github.com/bnema/familiar-bridge/internal/ports"
)

type CycleService struct {
	repo   ports.CycleRepository
	clock  ports.Clock
	logger *slog.Logger
}

func NewCycleService(repo ports.CycleRepository, clock ports.Clock, logger *slog.Logger) *CycleService {
	if clock == nil {
		clock = ports.SystemClock{}
	}
	if logger == nil {
		logger = discardLogger()
	}

	return &CycleService{repo: repo, clock: clock, logger: logger}
}

// Start enters a non-idle mode. The server never transitions on its own;
// the deadline is advisory.
func (s *CycleService) Start(ctx context.Context, cmd StartCycleCommand) (domain.CycleStatus, error) {
	if cmd.Familiar != "" {
		if err := cmd.Familiar.Validate(); err != nil {
			return domain.CycleStatus{}, err
		}
	}

	now := s.clock.Now()
	cycle, err := domain.StartCycle(cmd.Mode, requestedLength(cmd), now, cmd.Familiar)
	if err != nil {
		return domain.CycleStatus{}, err
	}
	if err := s.repo.Save(ctx, cycle); err != nil {
		return domain.CycleStatus{}, fmt.Errorf("save focus cycle: %w", err)
	}

	s.logger.Debug("cycle started", "mode", cycle.Mode, "length_ms", cycle.LengthMS, "familiar", cycle.Familiar)
	return cycle.Status(now), nil
}

func (s *CycleService) Stop(ctx context.Context) (domain.CycleStatus, error) {
	cycle := domain.IdleCycle()
	if err := s.repo.Save(ctx, cycle); err != nil {
		return domain.CycleStatus{}, fmt.Errorf("save focus cycle: %w", err)
	}

	s.logger.Debug("cycle stopped")
	return cycle.Status(s.clock.Now()), nil
}

func (s *CycleService) Status(ctx context.Context) (domain.CycleStatus, error) {
	cycle, err := s.repo.Load(ctx)
	if err != nil {
		return domain.CycleStatus{}, fmt.Errorf("load focus cycle: %w", err)
	}
	return cycle.Status(s.clock.Now()), nil
}

// Snapshot is the cycle context stamped onto a new user turn.
func (s *CycleService) Snapshot(ctx context.Context) (domain.CycleSnapshot, error) {
	cycle, err := s.repo.Load(ctx)
	if err != nil {
		return domain.CycleSnapshot{}, fmt.Errorf("load focus cycle: %w", err)
	}
	return cycle.Snapshot(s.clock.Now()), nil
}

func requestedLength(cmd StartCycleCommand) time.Duration {
	switch {
	case cmd.LengthMS != nil:
		return time.Duration(*cmd.LengthMS) * time.Millisecond
	case cmd.Minutes != nil && !math.IsNaN(*cmd.Minutes):
		return time.Duration(math.Round(*cmd.Minutes * float64(time.Minute)))
	default:
		return cmd.Mode.DefaultLength()
	}
}
