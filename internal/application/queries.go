package application

import (
	"time"

	"github.com/bnema/familiar-bridge/internal/domain"
)

// TurnStatusView is what a polling client sees for one user turn. Reply
// fields are set only once the turn is responded.
type TurnStatusView struct {
	TurnID     string            `json:"turn_id"`
	Status     domain.TurnStatus `json:"status"`
	Reply      string            `json:"reply,omitempty"`
	Emotion    string            `json:"emotion,omitempty"`
	State      string            `json:"state,omitempty"`
	Pose       string            `json:"pose,omitempty"`
	Background string            `json:"background,omitempty"`
	Prompts    []string          `json:"prompts,omitempty"`
	Committee  *domain.Committee `json:"committee,omitempty"`
	RawReply   string            `json:"raw_reply,omitempty"`
}

type HeartbeatView struct {
	Active   bool       `json:"active"`
	LastSeen *time.Time `json:"last_seen"`
}

type SettingsView struct {
	domain.Settings
	NSFWAllowedNow bool `json:"nsfw_allowed_now"`
}

type JourneyView struct {
	domain.Journey
	Active bool `json:"active"`
}

// FamiliarStatus is the per-familiar row of the terminal status screen.
type FamiliarStatus struct {
	ID    domain.FamiliarID    `json:"id"`
	Name  string               `json:"name"`
	State domain.State         `json:"state"`
	Usage domain.FamiliarUsage `json:"usage"`
	Away  bool                 `json:"away"`
}

// Overview is everything the status screen renders in one read.
type Overview struct {
	Familiars []FamiliarStatus   `json:"familiars"`
	Cycle     domain.CycleStatus `json:"cycle"`
	Heartbeat HeartbeatView      `json:"heartbeat"`
	Settings  SettingsView       `json:"settings"`
	At        time.Time          `json:"at"`
}
