package application

import (
	"context"
	"fmt"

	"github.com/bnema/familiar-bridge/internal/domain"
	"github.com/bnema/familiar-bridge/internal/ports"
)

// OverviewService assembles the read-only picture `fam status` renders.
type OverviewService struct {
	familiars     *FamiliarService
	cycles        *CycleService
	conversations *ConversationService
	settings      *SettingsService
	usage         ports.UsageRepository
	clock         ports.Clock
}

func NewOverviewService(
	familiars *FamiliarService,
	cycles *CycleService,
	conversations *ConversationService,
	settings *SettingsService,
	usage ports.UsageRepository,
	clock ports.Clock,
) *OverviewService {
	if clock == nil {
		clock = ports.SystemClock{}
	}

	return &OverviewService{
		familiars:     familiars,
		cycles:        cycles,
		conversations: conversations,
		settings:      settings,
		usage:         usage,
		clock:         clock,
	}
}

// Overview reads every familiar, or only id when it is set.
func (s *OverviewService) Overview(ctx context.Context, id domain.FamiliarID) (Overview, error) {
	settings, err := s.settings.Get(ctx)
	if err != nil {
		return Overview{}, err
	}
	cycle, err := s.cycles.Status(ctx)
	if err != nil {
		return Overview{}, err
	}
	ledger, err := s.usage.Load(ctx)
	if err != nil {
		return Overview{}, fmt.Errorf("load usage ledger: %w", err)
	}

	var summaries []domain.FamiliarSummary
	if id != "" {
		meta, err := s.familiars.Meta(ctx, id)
		if err != nil {
			return Overview{}, err
		}
		name := meta.Name
		if name == "" {
			name = string(id)
		}
		summaries = []domain.FamiliarSummary{{ID: id, Name: name}}
	} else if summaries, err = s.familiars.List(ctx); err != nil {
		return Overview{}, err
	}

	now := s.clock.Now()
	rows := make([]FamiliarStatus, 0, len(summaries))
	for _, summary := range summaries {
		state, err := s.familiars.loadState(ctx, summary.ID, settings.Settings)
		if err != nil {
			return Overview{}, err
		}
		away, err := s.familiars.Away(ctx, summary.ID, settings.Settings)
		if err != nil {
			return Overview{}, err
		}
		rows = append(rows, FamiliarStatus{
			ID:    summary.ID,
			Name:  summary.Name,
			State: state,
			Usage: ledger.Today(now, summary.ID),
			Away:  away,
		})
	}

	return Overview{
		Familiars: rows,
		Cycle:     cycle,
		Heartbeat: s.conversations.Heartbeat(ctx),
		Settings:  settings,
		At:        now,
	}, nil
}
