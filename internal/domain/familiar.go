package domain

import (
	"fmt"
	"strings"
)

type FamiliarID string

// Validate rejects ids that could escape the familiars directory.
func (id FamiliarID) Validate() error {
	trimmed := strings.TrimSpace(string(id))
	if trimmed == "" {
		return fmt.Errorf("%w: familiar is required", ErrInvalidInput)
	}
	if trimmed != string(id) || trimmed == "." || trimmed == ".." ||
		strings.ContainsAny(trimmed, `/\`) || strings.HasPrefix(trimmed, "..") {
		return fmt.Errorf("%w: %q", ErrInvalidFamiliarID, string(id))
	}

	return nil
}

type Meta struct {
	Name              string   `json:"name"`
	DefaultAvatar     string   `json:"default_avatar"`
	DefaultBackground string   `json:"default_background"`
	Emotions          []string `json:"emotions"`
}

type FamiliarSummary struct {
	ID   FamiliarID `json:"id"`
	Name string     `json:"name"`
}

type Activity struct {
	ID         string `json:"id"`
	Label      string `json:"label"`
	Avatar     string `json:"avatar"`
	Background string `json:"background"`
}

type ActivityList struct {
	Activities []Activity `json:"activities"`
}

func (l ActivityList) Find(id string) (Activity, bool) {
	for _, activity := range l.Activities {
		if activity.ID == id {
			return activity, true
		}
	}
	return Activity{}, false
}

// State is the mutable per-familiar presentation state.
type State struct {
	Avatar   string  `json:"avatar"`
	Location string  `json:"location"`
	Hearts   float64 `json:"hearts"`
	Activity string  `json:"activity"`
}

// StatePatch carries a partial state update; nil fields are left untouched.
type StatePatch struct {
	Avatar      *string  `json:"avatar,omitempty"`
	Location    *string  `json:"location,omitempty"`
	Hearts      *float64 `json:"hearts,omitempty"`
	Activity    *string  `json:"activity,omitempty"`
	ResetHearts bool     `json:"reset_hearts,omitempty"`
}
