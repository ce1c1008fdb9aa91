package domain

import "time"

// Journey is supplied externally; this system only reads it.
type Journey struct {
	Away  bool       `json:"away"`
	Until *time.Time `json:"until,omitempty"`
}

func (j Journey) AwayAt(now time.Time) bool {
	if !j.Away {
		return false
	}
	return j.Until == nil || now.Before(*j.Until)
}

type Journeys map[FamiliarID]Journey
