package application

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/bnema/familiar-bridge/internal/domain"
	"github.com/bnema/familiar-bridge/internal/ports"
)

type SettingsService struct {
	repo   ports.SettingsRepository
	clock  ports.Clock
	logger *slog.Logger
}

func NewSettingsService(repo ports.SettingsRepository, clock ports.Clock, logger *slog.Logger) *SettingsService {
	if clock == nil {
		clock = ports.SystemClock{}
	}
	if logger == nil {
		logger = discardLogger()
	}

	return &SettingsService{repo: repo, clock: clock, logger: logger}
}

func (s *SettingsService) Get(ctx context.Context) (SettingsView, error) {
	settings, err := s.repo.Load(ctx)
	if err != nil {
		return SettingsView{}, fmt.Errorf("load settings: %w", err)
	}
	return s.view(settings), nil
}

// Update applies the fields present in patch and persists the result.
func (s *SettingsService) Update(ctx context.Context, patch domain.SettingsPatch) (SettingsView, error) {
	settings, err := s.repo.Load(ctx)
	if err != nil {
		return SettingsView{}, fmt.Errorf("load settings: %w", err)
	}

	settings = settings.Apply(patch)
	if settings.DailyNSFWCap < 0 {
		return SettingsView{}, fmt.Errorf("%w: daily_nsfw_cap must not be negative", domain.ErrInvalidInput)
	}
	if err := s.repo.Save(ctx, settings); err != nil {
		return SettingsView{}, fmt.Errorf("save settings: %w", err)
	}

	s.logger.Debug("settings updated", "nsfw_enabled", settings.NSFWEnabled, "dev_nsfw_override", settings.DevNSFWOverride)
	return s.view(settings), nil
}

func (s *SettingsService) view(settings domain.Settings) SettingsView {
	return SettingsView{
		Settings:       settings,
		NSFWAllowedNow: settings.NSFWAllowedAt(s.clock.Now()),
	}
}
