package application

import (
	"encoding/json"

	"github.com/bnema/familiar-bridge/internal/domain"
)

// ChatCommand enqueues a user turn. Extras carries open-ended keys the UI
// sent alongside the well-known ones.
type ChatCommand struct {
	Familiar       domain.FamiliarID
	Message        string
	Kind           string
	Committee      *domain.Committee
	InviteFamiliar string
	BreakKind      string
	Batch          json.RawMessage
	PoseTags       []string
	IncludeMemory  *bool
	Immersive      *bool
	Extras         map[string]json.RawMessage
}

type GreetCommand struct {
	Familiar      domain.FamiliarID
	IncludeMemory *bool
	Immersive     *bool
	Activity      string
}

// StartCycleCommand carries an optional explicit length. LengthMS wins
// over Minutes; with neither the mode default applies.
type StartCycleCommand struct {
	Mode     domain.CycleMode
	LengthMS *int64
	Minutes  *float64
	Familiar domain.FamiliarID
}

type CommitMomentCommand struct {
	Familiar domain.FamiliarID
	Pose     string
	Kind     string
}
