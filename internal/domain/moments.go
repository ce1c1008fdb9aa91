package domain

import "time"

const (
	MomentCooldown    = 45 * time.Minute
	cameoDurationMS   = 2000
	cameoSpacingMS    = 30000
	maxCameosPerBreak = 2
)

var momentPreferTags = []string{"yoga", "stretch", "balance", "calm", "warm", "supportive"}

type Cameo struct {
	Pose              string `json:"pose"`
	DurationMS        int64  `json:"duration_ms"`
	SuggestedOffsetMS int64  `json:"suggested_offset_ms"`
}

// MomentContext is everything the break-start gates read.
type MomentContext struct {
	Now         time.Time
	Settings    Settings
	Away        bool
	Hearts      float64
	Today       FamiliarUsage
	LastCameoAt time.Time
}

// MomentsAllowed applies the hard gates. The dev override bypasses them.
func MomentsAllowed(c MomentContext) bool {
	if c.Settings.DevNSFWOverride {
		return true
	}
	if !c.Settings.NSFWAllowedAt(c.Now) || c.Away {
		return false
	}
	if c.Today.MomentCountToday >= c.Settings.MomentCap() {
		return false
	}
	if !c.LastCameoAt.IsZero() && c.Now.Sub(c.LastCameoAt) < MomentCooldown {
		return false
	}
	return true
}

// RollCameoCount decides how many cameos a break gets.
func RollCameoCount(hearts float64, devOverride bool, rng Rand) int {
	if devOverride {
		return maxCameosPerBreak
	}

	switch {
	case hearts >= 4.5:
		if rng.Float64() < 0.40 {
			return 2
		}
		return 1
	case hearts >= 4.0:
		if rng.Float64() >= 0.40 {
			return 0
		}
		if rng.Float64() < 0.25 {
			return 2
		}
		return 1
	default:
		return 0
	}
}

// PlanCameos gates, rolls and selects the cameos for a break. Each pick is
// treated as recent for the following picks.
func PlanCameos(c MomentContext, catalog []Pose, recent map[string]struct{}, rng Rand) []Cameo {
	cameos := []Cameo{}
	if !MomentsAllowed(c) {
		return cameos
	}

	count := RollCameoCount(c.Hearts, c.Settings.DevNSFWOverride, rng)
	seen := make(map[string]struct{}, len(recent)+count)
	for id := range recent {
		seen[id] = struct{}{}
	}

	for i := 0; i < count; i++ {
		pose, ok := ChoosePose(catalog, []PoseCategory{PoseNSFW}, momentPreferTags, seen, rng)
		if !ok {
			break
		}
		seen[pose.ID] = struct{}{}
		cameos = append(cameos, Cameo{
			Pose:              pose.ID,
			DurationMS:        cameoDurationMS,
			SuggestedOffsetMS: int64(cameoSpacingMS * i),
		})
	}
	return cameos
}

// CommitCountsAsCameo reports whether a committed moment kind belongs to the
// focus-phase cameo counter rather than the moment counter.
func CommitCountsAsCameo(kind string) bool {
	switch kind {
	case "focus", "thinking":
		return true
	default:
		return false
	}
}
