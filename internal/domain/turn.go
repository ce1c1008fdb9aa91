package domain

import (
	"encoding/json"
	"fmt"
	"time"
)

type Role string

const (
	RoleUser Role = "user"
	RoleCLI  Role = "cli"
)

type TurnStatus string

const (
	TurnPending   TurnStatus = "pending"
	TurnCancelled TurnStatus = "cancelled"
	// TurnResponded is never stored; it is implied by a matching cli reply.
	TurnResponded TurnStatus = "responded"
)

const KindGreet = "greet"

type CycleSnapshot struct {
	CycleMode        CycleMode  `json:"cycle_mode"`
	CycleLengthMS    int64      `json:"cycle_length_ms"`
	CycleRemainingMS int64      `json:"cycle_remaining_ms"`
	CycleStartedAt   *time.Time `json:"cycle_started_at"`
	CycleEndsAt      *time.Time `json:"cycle_ends_at"`
}

type Committee struct {
	Guests []FamiliarID `json:"guests"`
}

// UserTurn holds the fields only user turns carry.
type UserTurn struct {
	CycleSnapshot
	Kind           string          `json:"kind,omitempty"`
	IncludeMemory  *bool           `json:"include_memory,omitempty"`
	Immersive      *bool           `json:"immersive,omitempty"`
	Activity       string          `json:"activity,omitempty"`
	Committee      *Committee      `json:"committee,omitempty"`
	InviteFamiliar string          `json:"invite_familiar,omitempty"`
	BreakKind      string          `json:"break_kind,omitempty"`
	Batch          json.RawMessage `json:"batch,omitempty"`
	PoseTags       []string        `json:"pose_tags,omitempty"`
}

// ReplyTurn holds the fields only cli turns carry.
type ReplyTurn struct {
	InReplyTo string `json:"in_reply_to"`
}

// Turn is one entry of the conversation log. Exactly one of UserTurn and
// ReplyTurn is set, selected by Role. Extras keeps keys this server does not
// model so a round trip never drops what the watcher or UI wrote.
type Turn struct {
	ID       string     `json:"id"`
	Role     Role       `json:"role"`
	Familiar FamiliarID `json:"familiar"`
	Text     string     `json:"text"`
	At       time.Time  `json:"at"`
	Status   TurnStatus `json:"status,omitempty"`
	*UserTurn
	*ReplyTurn
	Extras map[string]json.RawMessage `json:"-"`
}

var knownTurnKeys = []string{
	"id", "role", "familiar", "text", "at", "status",
	"cycle_mode", "cycle_length_ms", "cycle_remaining_ms", "cycle_started_at", "cycle_ends_at",
	"kind", "include_memory", "immersive", "activity", "committee", "invite_familiar",
	"break_kind", "batch", "pose_tags", "in_reply_to",
}

type turnAlias Turn

func (t Turn) MarshalJSON() ([]byte, error) {
	base, err := json.Marshal(turnAlias(t))
	if err != nil {
		return nil, err
	}
	if len(t.Extras) == 0 {
		return base, nil
	}

	var merged map[string]json.RawMessage
	if err := json.Unmarshal(base, &merged); err != nil {
		return nil, err
	}
	for key, value := range t.Extras {
		if _, ok := merged[key]; !ok {
			merged[key] = value
		}
	}
	return json.Marshal(merged)
}

func (t *Turn) UnmarshalJSON(data []byte) error {
	var alias turnAlias
	if err := json.Unmarshal(data, &alias); err != nil {
		return err
	}

	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	for _, key := range knownTurnKeys {
		delete(raw, key)
	}

	*t = Turn(alias)
	t.Extras = nil
	if len(raw) > 0 {
		t.Extras = raw
	}
	return nil
}

func (t Turn) IsUser() bool {
	return t.Role == RoleUser
}

func (t Turn) InReplyTo() string {
	if t.ReplyTurn == nil {
		return ""
	}
	return t.ReplyTurn.InReplyTo
}

func (t Turn) Kind() string {
	if t.UserTurn == nil {
		return ""
	}
	return t.UserTurn.Kind
}

func (t Turn) CommitteeRecord() *Committee {
	if t.UserTurn == nil {
		return nil
	}
	return t.UserTurn.Committee
}

// NewUserTurn builds a pending user turn. Extras may not override id or role.
func NewUserTurn(id string, familiar FamiliarID, text string, at time.Time, snapshot CycleSnapshot, fields UserTurn, extras map[string]json.RawMessage) Turn {
	fields.CycleSnapshot = snapshot

	var kept map[string]json.RawMessage
	for key, value := range extras {
		if key == "id" || key == "role" {
			continue
		}
		if kept == nil {
			kept = map[string]json.RawMessage{}
		}
		kept[key] = value
	}

	return Turn{
		ID:       id,
		Role:     RoleUser,
		Familiar: familiar,
		Text:     text,
		At:       at.UTC(),
		Status:   TurnPending,
		UserTurn: &fields,
		Extras:   kept,
	}
}

// NewReplyTurn builds a cli reply to the user turn inReplyTo.
func NewReplyTurn(id string, familiar FamiliarID, text string, at time.Time, inReplyTo string) Turn {
	return Turn{
		ID:        id,
		Role:      RoleCLI,
		Familiar:  familiar,
		Text:      text,
		At:        at.UTC(),
		ReplyTurn: &ReplyTurn{InReplyTo: inReplyTo},
	}
}

func (t Turn) validate() error {
	if t.ID == "" {
		return fmt.Errorf("%w: turn id is required", ErrInvalidInput)
	}
	switch t.Role {
	case RoleUser:
		if t.ReplyTurn != nil && t.ReplyTurn.InReplyTo != "" {
			return fmt.Errorf("%w: user turn %s carries in_reply_to", ErrInvalidInput, t.ID)
		}
	case RoleCLI:
		if t.InReplyTo() == "" {
			return fmt.Errorf("%w: cli turn %s has no in_reply_to", ErrInvalidInput, t.ID)
		}
	default:
		return fmt.Errorf("%w: unknown role %q", ErrInvalidInput, t.Role)
	}
	return nil
}
