package cmd

import (
	"fmt"
	"log/slog"
	"os"
	"sync"

	"github.com/spf13/viper"

	"github.com/bnema/familiar-bridge/internal/adapters/assets"
	"github.com/bnema/familiar-bridge/internal/adapters/config"
	"github.com/bnema/familiar-bridge/internal/adapters/httpapi"
	statusadapter "github.com/bnema/familiar-bridge/internal/adapters/render/status"
	"github.com/bnema/familiar-bridge/internal/adapters/repo/jsonfile"
	"github.com/bnema/familiar-bridge/internal/adapters/watcher"
	"github.com/bnema/familiar-bridge/internal/application"
	"github.com/bnema/familiar-bridge/internal/ports"
)

type app struct {
	cfg            config.Config
	logger         *slog.Logger
	conversationDB *jsonfile.ConversationRepository
	conversations  *application.ConversationService
	familiars      *application.FamiliarService
	cycles         *application.CycleService
	moments        *application.MomentService
	settings       *application.SettingsService
	overview       *application.OverviewService
	statusRenderer func(application.Overview) (string, error)
}

// appLoader wires the app once, on first use.
type appLoader struct {
	once sync.Once
	wire func() (*app, error)
	app  *app
	err  error
}

func (l *appLoader) get() (*app, error) {
	l.once.Do(func() {
		l.app, l.err = l.wire()
	})
	return l.app, l.err
}

func wireApp() (*app, error) {
	cfg, err := config.Load(viper.New(), "")
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}

	logger := cfg.Log.NewLogger(os.Stderr)
	clock := ports.SystemClock{}
	sharedTemp := cfg.Paths.SharedTemp

	store := assets.NewStore(cfg.Paths.Familiars, logger)
	conversationRepo := jsonfile.NewConversationRepository(sharedTemp)
	settingsRepo := jsonfile.NewSettingsRepository(sharedTemp)
	usageRepo := jsonfile.NewUsageRepository(sharedTemp)

	familiars := application.NewFamiliarService(
		jsonfile.NewFamiliarRepository(cfg.Paths.Familiars),
		store,
		usageRepo,
		settingsRepo,
		jsonfile.NewJourneyRepository(sharedTemp),
		clock,
		logger,
	)
	cycles := application.NewCycleService(jsonfile.NewCycleRepository(sharedTemp), clock, logger)
	settings := application.NewSettingsService(settingsRepo, clock, logger)
	conversations := application.NewConversationService(
		conversationRepo,
		familiars,
		cycles,
		settingsRepo,
		watcher.NewHeartbeatFileReader(sharedTemp),
		watcher.NewSentinelSignaler(sharedTemp),
		clock,
		logger,
		application.WithHeartbeatTTL(cfg.HeartbeatTTL()),
	)

	return &app{
		cfg:            cfg,
		logger:         logger,
		conversationDB: conversationRepo,
		conversations:  conversations,
		familiars:      familiars,
		cycles:         cycles,
		moments:        application.NewMomentService(usageRepo, settingsRepo, familiars, store, clock, ports.SystemRandom{}, logger),
		settings:       settings,
		overview:       application.NewOverviewService(familiars, cycles, conversations, settings, usageRepo, clock),
		statusRenderer: statusadapter.Render,
	}, nil
}

func (a *app) services() httpapi.Services {
	return httpapi.Services{
		Conversations: a.conversations,
		Familiars:     a.familiars,
		Cycles:        a.cycles,
		Moments:       a.moments,
		Settings:      a.settings,
	}
}
