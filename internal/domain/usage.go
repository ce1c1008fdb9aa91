package domain

import "time"

const dayKeyLayout = "2006-01-02"

// FamiliarUsage is one familiar's counters for one local calendar day.
type FamiliarUsage struct {
	PomoBlocks           int                  `json:"pomo_blocks"`
	CameoCountToday      int                  `json:"cameo_count_today"`
	MomentCountToday     int                  `json:"moment_count_today"`
	LastNSFWMomentAt     *time.Time           `json:"last_nsfw_moment_at,omitempty"`
	PomoIndexAtLastCameo *int                 `json:"pomo_index_at_last_cameo,omitempty"`
	ResetUsed            bool                 `json:"reset_used"`
	AchievedFiveToday    bool                 `json:"achieved_5_today"`
	PosesUsed48h         map[string]time.Time `json:"poses_used_48h,omitempty"`
}

// UsageLedger is keyed by local day then familiar. Past days are kept and
// simply stop being read as "today".
type UsageLedger map[string]map[FamiliarID]FamiliarUsage

func DayKey(now time.Time) string {
	return now.Format(dayKeyLayout)
}

func (l UsageLedger) Today(now time.Time, id FamiliarID) FamiliarUsage {
	return l[DayKey(now)][id]
}

func (l *UsageLedger) update(now time.Time, id FamiliarID, fn func(*FamiliarUsage)) {
	if *l == nil {
		*l = UsageLedger{}
	}
	key := DayKey(now)
	day := (*l)[key]
	if day == nil {
		day = map[FamiliarID]FamiliarUsage{}
		(*l)[key] = day
	}
	usage := day[id]
	fn(&usage)
	day[id] = usage
}

func (l *UsageLedger) IncrementPomoBlocks(now time.Time, id FamiliarID) int {
	var blocks int
	l.update(now, id, func(u *FamiliarUsage) {
		u.PomoBlocks++
		blocks = u.PomoBlocks
	})
	return blocks
}

func (l UsageLedger) PomoBlocks(now time.Time, id FamiliarID) int {
	return l.Today(now, id).PomoBlocks
}

func (l *UsageLedger) IncrementCameoCount(now time.Time, id FamiliarID) {
	l.update(now, id, func(u *FamiliarUsage) { u.CameoCountToday++ })
}

func (l *UsageLedger) IncrementMomentCount(now time.Time, id FamiliarID) {
	l.update(now, id, func(u *FamiliarUsage) { u.MomentCountToday++ })
}

func (l *UsageLedger) StampCameo(now time.Time, id FamiliarID) {
	l.update(now, id, func(u *FamiliarUsage) {
		stamped := now
		u.LastNSFWMomentAt = &stamped
	})
}

// LastCameoAt returns the most recent cameo timestamp across every stored
// day, so a cooldown can span midnight.
func (l UsageLedger) LastCameoAt(id FamiliarID) (time.Time, bool) {
	var latest time.Time
	for _, day := range l {
		usage, ok := day[id]
		if !ok || usage.LastNSFWMomentAt == nil {
			continue
		}
		if usage.LastNSFWMomentAt.After(latest) {
			latest = *usage.LastNSFWMomentAt
		}
	}
	return latest, !latest.IsZero()
}

func (l *UsageLedger) MarkPoseUsed(now time.Time, id FamiliarID, pose string) {
	l.update(now, id, func(u *FamiliarUsage) {
		if u.PosesUsed48h == nil {
			u.PosesUsed48h = map[string]time.Time{}
		}
		u.PosesUsed48h[pose] = now
	})
}

// RecentPoses returns pose ids used within window of now. Older entries are
// left in place and filtered here instead of being collected.
func (l UsageLedger) RecentPoses(now time.Time, id FamiliarID, window time.Duration) map[string]struct{} {
	cutoff := now.Add(-window)
	recent := map[string]struct{}{}
	for _, day := range l {
		for pose, usedAt := range day[id].PosesUsed48h {
			if !usedAt.Before(cutoff) {
				recent[pose] = struct{}{}
			}
		}
	}
	return recent
}

func (l *UsageLedger) MarkAchievedFive(now time.Time, id FamiliarID) {
	l.update(now, id, func(u *FamiliarUsage) { u.AchievedFiveToday = true })
}

func (l UsageLedger) PomoIndexAtLastCameo(now time.Time, id FamiliarID) (int, bool) {
	index := l.Today(now, id).PomoIndexAtLastCameo
	if index == nil {
		return 0, false
	}
	return *index, true
}

func (l *UsageLedger) SetPomoIndexAtLastCameo(now time.Time, id FamiliarID, index int) {
	l.update(now, id, func(u *FamiliarUsage) { u.PomoIndexAtLastCameo = &index })
}

func (l *UsageLedger) MarkResetUsed(now time.Time, id FamiliarID) {
	l.update(now, id, func(u *FamiliarUsage) { u.ResetUsed = true })
}
