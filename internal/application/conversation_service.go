package application

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/bnema/familiar-bridge/internal/domain"
	"github.com/bnema/familiar-bridge/internal/ports"
	"github.com/google/uuid"
)

const DefaultHeartbeatTTL = 20 * time.Second

type ConversationService struct {
	conversations ports.ConversationRepository
	familiars     *FamiliarService
	cycles        *CycleService
	settings      ports.SettingsRepository
	heartbeat     ports.Heartbeat
	signaler      ports.CancelSignaler
	clock         ports.Clock
	logger        *slog.Logger
	heartbeatTTL  time.Duration
	newID         func() string
}

type ConversationServiceOption func(*ConversationService)

func WithHeartbeatTTL(ttl time.Duration) ConversationServiceOption {
	return func(s *ConversationService) {
		if ttl > 0 {
			s.heartbeatTTL = ttl
		}
	}
}

// WithTurnIDs replaces the UUID generator.
func WithTurnIDs(next func() string) ConversationServiceOption {
	return func(s *ConversationService) {
		if next != nil {
			s.newID = next
		}
	}
}

func NewConversationService(
	conversations ports.ConversationRepository,
	familiars *FamiliarService,
	cycles *CycleService,
	settings ports.SettingsRepository,
	heartbeat ports.Heartbeat,
	signaler ports.CancelSignaler,
	clock ports.Clock,
	logger *slog.Logger,
	opts ...ConversationServiceOption,
) *ConversationService {
	if clock == nil {
		clock = ports.SystemClock{}
	}
	if logger == nil {
		logger = discardLogger()
	}

	s := &ConversationService{
		conversations: conversations,
		familiars:     familiars,
		cycles:        cycles,
		settings:      settings,
		heartbeat:     heartbeat,
		signaler:      signaler,
		clock:         clock,
		logger:        logger,
		heartbeatTTL:  DefaultHeartbeatTTL,
		newID:         uuid.NewString,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Chat appends a pending user turn carrying the current cycle snapshot.
func (s *ConversationService) Chat(ctx context.Context, cmd ChatCommand) (string, error) {
	if err := s.familiars.Require(ctx, cmd.Familiar); err != nil {
		return "", err
	}
	message := strings.TrimSpace(cmd.Message)
	if message == "" && batchEmpty(cmd.Batch) {
		return "", fmt.Errorf("%w: message is required", domain.ErrInvalidInput)
	}
	if cmd.Committee != nil {
		for _, guest := range cmd.Committee.Guests {
			if err := guest.Validate(); err != nil {
				return "", err
			}
		}
	}

	fields := domain.UserTurn{
		Kind:           cmd.Kind,
		IncludeMemory:  cmd.IncludeMemory,
		Immersive:      cmd.Immersive,
		Committee:      cmd.Committee,
		InviteFamiliar: cmd.InviteFamiliar,
		BreakKind:      cmd.BreakKind,
		Batch:          cmd.Batch,
		PoseTags:       cmd.PoseTags,
	}
	return s.appendUserTurn(ctx, cmd.Familiar, message, fields, cmd.Extras)
}

// Greet asks the watcher for an opening line. Memory and immersion default
// to the global settings; an activity moves the familiar into it first.
func (s *ConversationService) Greet(ctx context.Context, cmd GreetCommand) (string, error) {
	if err := s.familiars.Require(ctx, cmd.Familiar); err != nil {
		return "", err
	}
	settings, err := s.settings.Load(ctx)
	if err != nil {
		return "", fmt.Errorf("load settings: %w", err)
	}

	includeMemory := settings.IncludeMemory
	if cmd.IncludeMemory != nil {
		includeMemory = *cmd.IncludeMemory
	}
	immersive := settings.Immersive
	if cmd.Immersive != nil {
		immersive = *cmd.Immersive
	}

	fields := domain.UserTurn{
		Kind:          domain.KindGreet,
		IncludeMemory: &includeMemory,
		Immersive:     &immersive,
	}
	if cmd.Activity != "" {
		activity, err := s.familiars.ApplyActivity(ctx, cmd.Familiar, cmd.Activity)
		if err != nil {
			return "", err
		}
		fields.Activity = activity.ID
	}

	return s.appendUserTurn(ctx, cmd.Familiar, "", fields, nil)
}

func (s *ConversationService) appendUserTurn(ctx context.Context, familiar domain.FamiliarID, text string, fields domain.UserTurn, extras map[string]json.RawMessage) (string, error) {
	snapshot, err := s.cycles.Snapshot(ctx)
	if err != nil {
		return "", err
	}

	id := s.newID()
	now := s.clock.Now()
	turn := domain.NewUserTurn(id, familiar, text, now, snapshot, fields, extras)
	if err := s.conversations.Update(ctx, func(conv *domain.Conversation) error {
		return conv.Append(turn, now)
	}); err != nil {
		return "", fmt.Errorf("append user turn: %w", err)
	}

	s.logger.Debug("turn appended", "turn_id", id, "familiar", familiar, "kind", fields.Kind)
	return id, nil
}

// Status reports where a user turn stands. A cancelled turn stays
// cancelled even when a late reply exists.
func (s *ConversationService) Status(ctx context.Context, familiar domain.FamiliarID, turnID string) (TurnStatusView, error) {
	if familiar != "" {
		if err := familiar.Validate(); err != nil {
			return TurnStatusView{}, err
		}
	}
	if strings.TrimSpace(turnID) == "" {
		return TurnStatusView{}, fmt.Errorf("%w: turn_id is required", domain.ErrInvalidInput)
	}

	conv, err := s.conversations.Load(ctx)
	if err != nil {
		return TurnStatusView{}, fmt.Errorf("load conversation: %w", err)
	}
	status, err := conv.TurnStatus(turnID)
	if err != nil {
		return TurnStatusView{}, err
	}

	view := TurnStatusView{TurnID: turnID, Status: status}
	if status != domain.TurnResponded {
		return view, nil
	}

	turn, _ := conv.FindTurn(turnID)
	reply, _ := conv.FindReply(turnID)
	if familiar == "" {
		familiar = turn.Familiar
	}

	committee := turn.CommitteeRecord()
	parsed := domain.ParseReply(reply.Text, committee != nil)
	view.Reply = parsed.Text
	view.Emotion = parsed.Emotion
	view.State = parsed.Emotion
	view.Prompts = parsed.Prompts
	view.Background = parsed.Background

	if committee != nil {
		view.Committee = committee
		view.RawReply = strings.TrimSpace(reply.Text)
	} else if parsed.Pose != "" {
		hearts := 0.0
		if state, err := s.familiars.State(ctx, familiar); err == nil {
			hearts = state.Hearts
		} else {
			s.logger.Warn("state unavailable for pose guard", "familiar", familiar, "error", err)
		}
		view.Pose = domain.GuardPose(parsed.Pose, hearts)
	}

	if view.Background == "" && turn.Kind() == domain.KindGreet && isFirstReply(conv, turnID, reply) {
		view.Background = s.greetBackground(ctx, familiar, turn)
	}
	return view, nil
}

// greetBackground is the background a greet reply without a tag shows: the
// greet's activity background when it has one, else the seasonal default.
func (s *ConversationService) greetBackground(ctx context.Context, familiar domain.FamiliarID, greet domain.Turn) string {
	if activityID := greet.UserTurn.Activity; activityID != "" {
		activities, err := s.familiars.Activities(ctx, familiar)
		if err == nil {
			if activity, ok := activities.Find(activityID); ok && activity.Background != "" {
				return activity.Background
			}
		}
	}
	return s.familiars.SeasonalDefault(ctx, familiar)
}

// Cancel flips the turn to cancelled and drops the sentinel the watcher
// polls for. Stopping the work is up to the watcher.
func (s *ConversationService) Cancel(ctx context.Context, familiar domain.FamiliarID, turnID string) error {
	if familiar != "" {
		if err := familiar.Validate(); err != nil {
			return err
		}
	}
	if strings.TrimSpace(turnID) == "" {
		return fmt.Errorf("%w: turn_id is required", domain.ErrInvalidInput)
	}

	now := s.clock.Now()
	if err := s.conversations.Update(ctx, func(conv *domain.Conversation) error {
		return conv.Cancel(turnID, now)
	}); err != nil {
		return fmt.Errorf("cancel turn %s: %w", turnID, err)
	}
	if err := s.signaler.SignalCancel(ctx, turnID); err != nil {
		return err
	}

	s.logger.Debug("turn cancelled", "turn_id", turnID, "familiar", familiar)
	return nil
}

func (s *ConversationService) Heartbeat(ctx context.Context) HeartbeatView {
	lastSeen, ok := s.heartbeat.LastSeen(ctx)
	view := HeartbeatView{Active: domain.WatcherActive(lastSeen, ok, s.clock.Now(), s.heartbeatTTL)}
	if ok {
		view.LastSeen = &lastSeen
	}
	return view
}

func isFirstReply(conv domain.Conversation, turnID string, reply domain.Turn) bool {
	first, ok := conv.FirstReply(turnID)
	return ok && first.ID == reply.ID
}

func batchEmpty(batch json.RawMessage) bool {
	trimmed := bytes.TrimSpace(batch)
	return len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null"))
}
