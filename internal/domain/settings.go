package domain

import (
	"strconv"
	"strings"
	"time"
)

const DefaultDailyNSFWCap = 4

type QuietHours struct {
	Start string `json:"start"`
	End   string `json:"end"`
}

type Settings struct {
	NSFWEnabled             bool       `json:"nsfw_enabled"`
	DevNSFWOverride         bool       `json:"dev_nsfw_override"`
	DevInstantJourneyReturn bool       `json:"dev_instant_journey_return"`
	DailyNSFWCap            int        `json:"daily_nsfw_cap"`
	QuietHours              QuietHours `json:"quiet_hours"`
	IncludeMemory           bool       `json:"include_memory"`
	Immersive               bool       `json:"immersive"`
}

func DefaultSettings() Settings {
	return Settings{
		DailyNSFWCap:  DefaultDailyNSFWCap,
		IncludeMemory: true,
	}
}

// SettingsPatch is a partial settings update; nil fields are left untouched.
type SettingsPatch struct {
	NSFWEnabled             *bool       `json:"nsfw_enabled,omitempty"`
	DevNSFWOverride         *bool       `json:"dev_nsfw_override,omitempty"`
	DevInstantJourneyReturn *bool       `json:"dev_instant_journey_return,omitempty"`
	DailyNSFWCap            *int        `json:"daily_nsfw_cap,omitempty"`
	QuietHours              *QuietHours `json:"quiet_hours,omitempty"`
	IncludeMemory           *bool       `json:"include_memory,omitempty"`
	Immersive               *bool       `json:"immersive,omitempty"`
}

func (s Settings) Apply(p SettingsPatch) Settings {
	if p.NSFWEnabled != nil {
		s.NSFWEnabled = *p.NSFWEnabled
	}
	if p.DevNSFWOverride != nil {
		s.DevNSFWOverride = *p.DevNSFWOverride
	}
	if p.DevInstantJourneyReturn != nil {
		s.DevInstantJourneyReturn = *p.DevInstantJourneyReturn
	}
	if p.DailyNSFWCap != nil {
		s.DailyNSFWCap = *p.DailyNSFWCap
	}
	if p.QuietHours != nil {
		s.QuietHours = *p.QuietHours
	}
	if p.IncludeMemory != nil {
		s.IncludeMemory = *p.IncludeMemory
	}
	if p.Immersive != nil {
		s.Immersive = *p.Immersive
	}
	return s
}

// MomentCap is the daily moment limit, falling back to the default when unset.
func (s Settings) MomentCap() int {
	if s.DailyNSFWCap <= 0 {
		return DefaultDailyNSFWCap
	}
	return s.DailyNSFWCap
}

// NSFWAllowedAt reports whether gated content may be shown at the given
// local wall-clock time.
func (s Settings) NSFWAllowedAt(now time.Time) bool {
	if s.DevNSFWOverride {
		return true
	}
	return s.NSFWEnabled && !s.QuietHours.Contains(now)
}

// Contains reports whether now falls inside [start, end). A window with
// start after end wraps past midnight. Unparsable or empty bounds disable it.
func (q QuietHours) Contains(now time.Time) bool {
	start, ok := parseClock(q.Start)
	if !ok {
		return false
	}
	end, ok := parseClock(q.End)
	if !ok || start == end {
		return false
	}

	minute := now.Hour()*60 + now.Minute()
	if start < end {
		return minute >= start && minute < end
	}
	return minute >= start || minute < end
}

func parseClock(raw string) (int, bool) {
	hh, mm, found := strings.Cut(strings.TrimSpace(raw), ":")
	if !found {
		return 0, false
	}
	hour, err := strconv.Atoi(hh)
	if err != nil || hour < 0 || hour > 23 {
		return 0, false
	}
	minute, err := strconv.Atoi(mm)
	if err != nil || minute < 0 || minute > 59 {
		return 0, false
	}
	return hour*60 + minute, true
}
