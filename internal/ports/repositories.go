package ports

import (
	"context"

	"github.com/bnema/familiar-bridge/internal/domain"
)

// ConversationRepository owns conversation.json. Update runs fn under the
// single-writer lock and persists the result only when fn succeeds.
type ConversationRepository interface {
	Load(ctx context.Context) (domain.Conversation, error)
	Update(ctx context.Context, fn func(*domain.Conversation) error) error
}

type UsageRepository interface {
	Load(ctx context.Context) (domain.UsageLedger, error)
	Update(ctx context.Context, fn func(*domain.UsageLedger) error) error
}

type SettingsRepository interface {
	Load(ctx context.Context) (domain.Settings, error)
	Save(ctx context.Context, settings domain.Settings) error
}

type CycleRepository interface {
	Load(ctx context.Context) (domain.Cycle, error)
	Save(ctx context.Context, cycle domain.Cycle) error
}

type JourneyRepository interface {
	Get(ctx context.Context, id domain.FamiliarID) (domain.Journey, error)
}

// FamiliarRepository owns the mutable per-familiar documents.
type FamiliarRepository interface {
	Exists(ctx context.Context, id domain.FamiliarID) (bool, error)
	List(ctx context.Context) ([]domain.FamiliarID, error)
	LoadState(ctx context.Context, id domain.FamiliarID) (domain.State, bool, error)
	SaveState(ctx context.Context, id domain.FamiliarID, state domain.State) error
	LoadProfile(ctx context.Context, id domain.FamiliarID) (map[string]any, error)
	SaveProfile(ctx context.Context, id domain.FamiliarID, profile map[string]any) error
}
