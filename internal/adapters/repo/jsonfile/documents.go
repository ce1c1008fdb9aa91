package jsonfile

import (
	"context"
	"fmt"
	"path/filepath"
	"sync"

	"github.com/bnema/familiar-bridge/internal/domain"
	"github.com/bnema/familiar-bridge/internal/ports"
)

const (
	conversationFile = "conversation.json"
	usageFile        = "usage.json"
	settingsFile     = "settings.json"
	cycleFile        = "focus_cycle.json"
	journeysFile     = "journeys.json"
)

type ConversationRepository struct {
	path string
	mu   *sync.RWMutex
}

var _ ports.ConversationRepository = (*ConversationRepository)(nil)

func NewConversationRepository(sharedTemp string) *ConversationRepository {
	path := filepath.Join(sharedTemp, conversationFile)
	return &ConversationRepository{path: path, mu: lockForPath(path)}
}

func (r *ConversationRepository) Path() string {
	return r.path
}

func (r *ConversationRepository) Load(ctx context.Context) (domain.Conversation, error) {
	if err := ctx.Err(); err != nil {
		return domain.Conversation{}, err
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	return r.read()
}

func (r *ConversationRepository) Update(ctx context.Context, fn func(*domain.Conversation) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	conv, err := r.read()
	if err != nil {
		return err
	}
	if err := fn(&conv); err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	return Write(r.path, conv)
}

func (r *ConversationRepository) read() (domain.Conversation, error) {
	conv, err := ReadStrict(r.path, domain.NewConversation())
	if err != nil {
		return domain.Conversation{}, fmt.Errorf("load conversation: %w", err)
	}
	if conv.Turns == nil {
		conv.Turns = []domain.Turn{}
	}
	if conv.Version == 0 {
		conv.Version = domain.ConversationVersion
	}
	return conv, nil
}

type UsageRepository struct {
	path string
	mu   *sync.RWMutex
}

var _ ports.UsageRepository = (*UsageRepository)(nil)

func NewUsageRepository(sharedTemp string) *UsageRepository {
	path := filepath.Join(sharedTemp, usageFile)
	return &UsageRepository{path: path, mu: lockForPath(path)}
}

func (r *UsageRepository) Load(ctx context.Context) (domain.UsageLedger, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	return r.read()
}

func (r *UsageRepository) Update(ctx context.Context, fn func(*domain.UsageLedger) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	ledger, err := r.read()
	if err != nil {
		return err
	}
	if err := fn(&ledger); err != nil {
		return err
	}

	return Write(r.path, ledger)
}

func (r *UsageRepository) read() (domain.UsageLedger, error) {
	ledger, err := ReadStrict(r.path, domain.UsageLedger{})
	if err != nil {
		return nil, fmt.Errorf("load usage ledger: %w", err)
	}
	if ledger == nil {
		ledger = domain.UsageLedger{}
	}
	return ledger, nil
}

type SettingsRepository struct {
	path string
	mu   *sync.RWMutex
}

var _ ports.SettingsRepository = (*SettingsRepository)(nil)

func NewSettingsRepository(sharedTemp string) *SettingsRepository {
	path := filepath.Join(sharedTemp, settingsFile)
	return &SettingsRepository{path: path, mu: lockForPath(path)}
}

// Load overlays the stored document on the defaults, so keys absent from
// the file keep their default value.
func (r *SettingsRepository) Load(ctx context.Context) (domain.Settings, error) {
	if err := ctx.Err(); err != nil {
		return domain.Settings{}, err
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	return Read(r.path, domain.DefaultSettings()), nil
}

func (r *SettingsRepository) Save(ctx context.Context, settings domain.Settings) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if err := Write(r.path, settings); err != nil {
		return fmt.Errorf("save settings: %w", err)
	}
	return nil
}

type CycleRepository struct {
	path string
	mu   *sync.RWMutex
}

var _ ports.CycleRepository = (*CycleRepository)(nil)

func NewCycleRepository(sharedTemp string) *CycleRepository {
	path := filepath.Join(sharedTemp, cycleFile)
	return &CycleRepository{path: path, mu: lockForPath(path)}
}

func (r *CycleRepository) Load(ctx context.Context) (domain.Cycle, error) {
	if err := ctx.Err(); err != nil {
		return domain.Cycle{}, err
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	cycle := Read(r.path, domain.IdleCycle())
	if _, err := domain.ParseCycleMode(string(cycle.Mode)); err != nil {
		return domain.IdleCycle(), nil
	}
	return cycle, nil
}

func (r *CycleRepository) Save(ctx context.Context, cycle domain.Cycle) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if err := Write(r.path, cycle); err != nil {
		return fmt.Errorf("save focus cycle: %w", err)
	}
	return nil
}

type JourneyRepository struct {
	path string
}

var _ ports.JourneyRepository = (*JourneyRepository)(nil)

func NewJourneyRepository(sharedTemp string) *JourneyRepository {
	return &JourneyRepository{path: filepath.Join(sharedTemp, journeysFile)}
}

func (r *JourneyRepository) Get(ctx context.Context, id domain.FamiliarID) (domain.Journey, error) {
	if err := ctx.Err(); err != nil {
		return domain.Journey{}, err
	}

	journeys := Read(r.path, domain.Journeys{})
	return journeys[id], nil
}
