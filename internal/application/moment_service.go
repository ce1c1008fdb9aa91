package application

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/bnema/familiar-bridge/internal/domain"
	"github.com/bnema/familiar-bridge/internal/ports"
)

const recentPoseWindow = domain.DefaultRecentPoseHours * time.Hour

type MomentService struct {
	usage     ports.UsageRepository
	settings  ports.SettingsRepository
	familiars *FamiliarService
	assets    ports.Assets
	clock     ports.Clock
	rng       ports.Random
	logger    *slog.Logger
}

func NewMomentService(
	usage ports.UsageRepository,
	settings ports.SettingsRepository,
	familiars *FamiliarService,
	assets ports.Assets,
	clock ports.Clock,
	rng ports.Random,
	logger *slog.Logger,
) *MomentService {
	if clock == nil {
		clock = ports.SystemClock{}
	}
	if rng == nil {
		rng = ports.SystemRandom{}
	}
	if logger == nil {
		logger = discardLogger()
	}

	return &MomentService{
		usage:     usage,
		settings:  settings,
		familiars: familiars,
		assets:    assets,
		clock:     clock,
		rng:       rng,
		logger:    logger,
	}
}

// StartBreak plans the cameos for a break that starts now. Chosen poses
// are marked used and a non-empty plan starts the cooldown.
func (s *MomentService) StartBreak(ctx context.Context, id domain.FamiliarID) ([]domain.Cameo, error) {
	if err := s.familiars.Require(ctx, id); err != nil {
		return nil, err
	}
	settings, err := s.settings.Load(ctx)
	if err != nil {
		return nil, fmt.Errorf("load settings: %w", err)
	}
	state, err := s.familiars.loadState(ctx, id, settings)
	if err != nil {
		return nil, err
	}
	away, err := s.familiars.Away(ctx, id, settings)
	if err != nil {
		return nil, err
	}
	catalog := s.assets.Poses(ctx, id)

	now := s.clock.Now()
	var cameos []domain.Cameo
	if err := s.usage.Update(ctx, func(ledger *domain.UsageLedger) error {
		lastCameoAt, _ := ledger.LastCameoAt(id)
		moment := domain.MomentContext{
			Now:         now,
			Settings:    settings,
			Away:        away,
			Hearts:      state.Hearts,
			Today:       ledger.Today(now, id),
			LastCameoAt: lastCameoAt,
		}
		cameos = domain.PlanCameos(moment, catalog, ledger.RecentPoses(now, id, recentPoseWindow), s.rng)
		for _, cameo := range cameos {
			ledger.MarkPoseUsed(now, id, cameo.Pose)
		}
		if len(cameos) > 0 {
			ledger.StampCameo(now, id)
		}
		return nil
	}); err != nil {
		return nil, fmt.Errorf("schedule moments: %w", err)
	}

	s.logger.Debug("cameos scheduled", "familiar", id, "count", len(cameos), "away", away)
	return cameos, nil
}

// Commit records a cameo the UI actually showed. Focus-phase kinds count
// as cameos, everything else as moments.
func (s *MomentService) Commit(ctx context.Context, cmd CommitMomentCommand) error {
	if err := s.familiars.Require(ctx, cmd.Familiar); err != nil {
		return err
	}
	kind := strings.ToLower(strings.TrimSpace(cmd.Kind))

	now := s.clock.Now()
	if err := s.usage.Update(ctx, func(ledger *domain.UsageLedger) error {
		if domain.CommitCountsAsCameo(kind) {
			ledger.IncrementCameoCount(now, cmd.Familiar)
		} else {
			ledger.IncrementMomentCount(now, cmd.Familiar)
		}
		ledger.StampCameo(now, cmd.Familiar)
		ledger.SetPomoIndexAtLastCameo(now, cmd.Familiar, ledger.PomoBlocks(now, cmd.Familiar))
		if cmd.Pose != "" {
			ledger.MarkPoseUsed(now, cmd.Familiar, cmd.Pose)
		}
		return nil
	}); err != nil {
		return fmt.Errorf("commit moment: %w", err)
	}

	s.logger.Debug("moment committed", "familiar", cmd.Familiar, "kind", kind, "pose", cmd.Pose)
	return nil
}
