package application

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"maps"

	"github.com/bnema/familiar-bridge/internal/domain"
	"github.com/bnema/familiar-bridge/internal/ports"
)

type FamiliarService struct {
	familiars ports.FamiliarRepository
	assets    ports.Assets
	usage     ports.UsageRepository
	settings  ports.SettingsRepository
	journeys  ports.JourneyRepository
	clock     ports.Clock
	logger    *slog.Logger
}

func NewFamiliarService(
	familiars ports.FamiliarRepository,
	assets ports.Assets,
	usage ports.UsageRepository,
	settings ports.SettingsRepository,
	journeys ports.JourneyRepository,
	clock ports.Clock,
	logger *slog.Logger,
) *FamiliarService {
	if clock == nil {
		clock = ports.SystemClock{}
	}
	if logger == nil {
		logger = discardLogger()
	}

	return &FamiliarService{
		familiars: familiars,
		assets:    assets,
		usage:     usage,
		settings:  settings,
		journeys:  journeys,
		clock:     clock,
		logger:    logger,
	}
}

// Require fails unless id names an existing familiar directory.
func (s *FamiliarService) Require(ctx context.Context, id domain.FamiliarID) error {
	if err := id.Validate(); err != nil {
		return err
	}
	ok, err := s.familiars.Exists(ctx, id)
	if err != nil {
		return fmt.Errorf("check familiar %s: %w", id, err)
	}
	if !ok {
		return fmt.Errorf("%w: %s", domain.ErrFamiliarNotFound, id)
	}
	return nil
}

func (s *FamiliarService) List(ctx context.Context) ([]domain.FamiliarSummary, error) {
	ids, err := s.familiars.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list familiars: %w", err)
	}

	summaries := make([]domain.FamiliarSummary, 0, len(ids))
	for _, id := range ids {
		name := s.assets.Meta(ctx, id).Name
		if name == "" {
			name = string(id)
		}
		summaries = append(summaries, domain.FamiliarSummary{ID: id, Name: name})
	}
	return summaries, nil
}

func (s *FamiliarService) Meta(ctx context.Context, id domain.FamiliarID) (domain.Meta, error) {
	if err := s.Require(ctx, id); err != nil {
		return domain.Meta{}, err
	}
	meta := s.assets.Meta(ctx, id)
	if meta.Emotions == nil {
		meta.Emotions = []string{}
	}
	return meta, nil
}

func (s *FamiliarService) Activities(ctx context.Context, id domain.FamiliarID) (domain.ActivityList, error) {
	if err := s.Require(ctx, id); err != nil {
		return domain.ActivityList{}, err
	}
	return s.assets.Activities(ctx, id), nil
}

func (s *FamiliarService) Catalog(ctx context.Context, id domain.FamiliarID) (domain.Catalog, error) {
	if err := s.Require(ctx, id); err != nil {
		return domain.Catalog{}, err
	}
	return domain.Catalog{
		Poses:       s.assets.Poses(ctx, id),
		Backgrounds: s.assets.Backgrounds(ctx, id),
	}, nil
}

func (s *FamiliarService) Layout(ctx context.Context, id domain.FamiliarID, req ports.LayoutRequest) (domain.Layout, error) {
	if err := s.Require(ctx, id); err != nil {
		return domain.Layout{}, err
	}
	return s.assets.ResolveLayout(ctx, id, req), nil
}

// SeasonalDefault is the familiar's default background after the December
// substitution.
func (s *FamiliarService) SeasonalDefault(ctx context.Context, id domain.FamiliarID) string {
	base := s.assets.Meta(ctx, id).DefaultBackground
	return domain.SeasonalBackground(base, s.clock.Now(), func(rel string) bool {
		return s.assets.BackgroundExists(ctx, id, rel)
	})
}

// State loads the familiar's state with defaults filled in. The dev
// override reports full hearts.
func (s *FamiliarService) State(ctx context.Context, id domain.FamiliarID) (domain.State, error) {
	if err := s.Require(ctx, id); err != nil {
		return domain.State{}, err
	}
	settings, err := s.settings.Load(ctx)
	if err != nil {
		return domain.State{}, fmt.Errorf("load settings: %w", err)
	}
	return s.loadState(ctx, id, settings)
}

func (s *FamiliarService) loadState(ctx context.Context, id domain.FamiliarID, settings domain.Settings) (domain.State, error) {
	state, found, err := s.familiars.LoadState(ctx, id)
	if err != nil {
		return domain.State{}, fmt.Errorf("load state for %s: %w", id, err)
	}
	if !found || state.Avatar == "" {
		state.Avatar = s.assets.Meta(ctx, id).DefaultAvatar
	}
	if state.Location == "" {
		state.Location = s.SeasonalDefault(ctx, id)
	}
	if settings.DevNSFWOverride {
		state.Hearts = domain.MaxHearts
	}
	return state, nil
}

// UpdateState applies a partial update. A hearts value goes through the
// day's accrual rules and reset_hearts locks positive gains until tomorrow.
func (s *FamiliarService) UpdateState(ctx context.Context, id domain.FamiliarID, patch domain.StatePatch) (domain.State, error) {
	if err := s.Require(ctx, id); err != nil {
		return domain.State{}, err
	}
	settings, err := s.settings.Load(ctx)
	if err != nil {
		return domain.State{}, fmt.Errorf("load settings: %w", err)
	}
	// State is read, patched and written under the usage ledger lock.
	var state domain.State
	if err := s.usage.Update(ctx, func(ledger *domain.UsageLedger) error {
		var err error
		state, err = s.loadState(ctx, id, settings)
		if err != nil {
			return err
		}
		s.applyPatch(&state, patch, settings, ledger, id)
		if err := s.familiars.SaveState(ctx, id, state); err != nil {
			return fmt.Errorf("save state for %s: %w", id, err)
		}
		return nil
	}); err != nil {
		return domain.State{}, fmt.Errorf("update state for %s: %w", id, err)
	}
	state.Hearts = domain.QuantizeHearts(state.Hearts)
	return state, nil
}

func (s *FamiliarService) applyPatch(state *domain.State, patch domain.StatePatch, settings domain.Settings, ledger *domain.UsageLedger, id domain.FamiliarID) {
	if patch.Avatar != nil {
		state.Avatar = *patch.Avatar
	}
	if patch.Location != nil {
		state.Location = *patch.Location
	}
	if patch.Activity != nil {
		state.Activity = *patch.Activity
	}

	now := s.clock.Now()
	switch {
	case settings.DevNSFWOverride:
		state.Hearts = domain.MaxHearts
	case patch.ResetHearts:
		state.Hearts = 0
		ledger.MarkResetUsed(now, id)
	case patch.Hearts != nil:
		accrual := domain.AccrueHearts(state.Hearts, *patch.Hearts, ledger.Today(now, id))
		state.Hearts = accrual.Hearts
		if accrual.CountedBlock {
			blocks := ledger.IncrementPomoBlocks(now, id)
			s.logger.Debug("pomodoro block counted", "familiar", id, "pomo_blocks", blocks)
		}
		if accrual.AchievedFive {
			ledger.MarkAchievedFive(now, id)
		}
	}
}

// ApplyActivity moves the familiar into activity: its avatar, its id and
// its background, or the seasonal default when it names none.
func (s *FamiliarService) ApplyActivity(ctx context.Context, id domain.FamiliarID, activityID string) (domain.Activity, error) {
	activity, ok := s.assets.Activities(ctx, id).Find(activityID)
	if !ok {
		return domain.Activity{}, fmt.Errorf("%w: %s for %s", domain.ErrActivityNotFound, activityID, id)
	}

	location := activity.Background
	if location == "" {
		location = s.SeasonalDefault(ctx, id)
	}
	patch := domain.StatePatch{Location: &location, Activity: &activity.ID}
	if activity.Avatar != "" {
		patch.Avatar = &activity.Avatar
	}
	if _, err := s.UpdateState(ctx, id, patch); err != nil {
		return domain.Activity{}, err
	}
	return activity, nil
}

func (s *FamiliarService) Profile(ctx context.Context, id domain.FamiliarID) (map[string]any, error) {
	if err := s.Require(ctx, id); err != nil {
		return nil, err
	}
	profile, err := s.familiars.LoadProfile(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("load profile for %s: %w", id, err)
	}
	return profile, nil
}

// MergeProfile shallow-merges patch into profile.json.
func (s *FamiliarService) MergeProfile(ctx context.Context, id domain.FamiliarID, patch map[string]any) (map[string]any, error) {
	profile, err := s.Profile(ctx, id)
	if err != nil {
		return nil, err
	}
	maps.Copy(profile, patch)
	if err := s.familiars.SaveProfile(ctx, id, profile); err != nil {
		return nil, fmt.Errorf("save profile for %s: %w", id, err)
	}
	return profile, nil
}

func (s *FamiliarService) Journey(ctx context.Context, id domain.FamiliarID) (JourneyView, error) {
	if err := s.Require(ctx, id); err != nil {
		return JourneyView{}, err
	}
	settings, err := s.settings.Load(ctx)
	if err != nil {
		return JourneyView{}, fmt.Errorf("load settings: %w", err)
	}
	journey, err := s.journeys.Get(ctx, id)
	if err != nil {
		return JourneyView{}, fmt.Errorf("load journey for %s: %w", id, err)
	}
	return JourneyView{Journey: journey, Active: s.away(journey, settings)}, nil
}

// Away reports whether the familiar is on a journey right now.
func (s *FamiliarService) Away(ctx context.Context, id domain.FamiliarID, settings domain.Settings) (bool, error) {
	journey, err := s.journeys.Get(ctx, id)
	if err != nil {
		return false, fmt.Errorf("load journey for %s: %w", id, err)
	}
	return s.away(journey, settings), nil
}

func (s *FamiliarService) away(journey domain.Journey, settings domain.Settings) bool {
	if settings.DevInstantJourneyReturn {
		return false
	}
	return journey.AwayAt(s.clock.Now())
}

// ResetLocations moves every familiar back to its seasonal default
// background. Failures are collected so one broken familiar does not stop
// the rest.
func (s *FamiliarService) ResetLocations(ctx context.Context) error {
	ids, err := s.familiars.List(ctx)
	if err != nil {
		return fmt.Errorf("list familiars: %w", err)
	}

	var errs error
	for _, id := range ids {
		location := s.SeasonalDefault(ctx, id)
		if location == "" {
			continue
		}
		if err := s.usage.Update(ctx, func(*domain.UsageLedger) error {
			state, found, err := s.familiars.LoadState(ctx, id)
			if err != nil {
				return fmt.Errorf("load state for %s: %w", id, err)
			}
			if !found {
				state.Avatar = s.assets.Meta(ctx, id).DefaultAvatar
			}
			state.Location = location
			return s.familiars.SaveState(ctx, id, state)
		}); err != nil {
			errs = errors.Join(errs, fmt.Errorf("reset location for %s: %w", id, err))
			continue
		}
		s.logger.Debug("location reset", "familiar", id, "location", location)
	}
	return errs
}
