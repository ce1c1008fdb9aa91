package status

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bnema/familiar-bridge/internal/application"
	"github.com/bnema/familiar-bridge/internal/domain"
)

func timePtr(v time.Time) *time.Time {
	return &v
}

func TestRenderSingleFamiliarOverview(t *testing.T) {
	now := time.Date(2026, 10, 17, 11, 0, 0, 0, time.UTC)
	started := now.Add(-13 * time.Minute)
	ends := now.Add(12 * time.Minute)

	output, err := Render(application.Overview{
		At: now,
		Familiars: []application.FamiliarStatus{
			{
				ID:    "ada",
				Name:  "Ada",
				State: domain.State{Avatar: "idle.png", Location: "forest.png", Hearts: 3, Activity: "reading"},
				Usage: domain.FamiliarUsage{PomoBlocks: 2, CameoCountToday: 1},
			},
		},
		Cycle: domain.CycleStatus{
			Cycle: domain.Cycle{
				Mode:      domain.CycleFocus,
				StartedAt: &started,
				EndsAt:    &ends,
				LengthMS:  (25 * time.Minute).Milliseconds(),
			},
			RemainingMS: (12 * time.Minute).Milliseconds(),
		},
		Heartbeat: application.HeartbeatView{Active: true, LastSeen: timePtr(now.Add(-5 * time.Second))},
		Settings:  application.SettingsView{Settings: domain.DefaultSettings()},
	})

	require.NoError(t, err)
	assert.Contains(t, output, "familiars: 1")
	assert.Contains(t, output, "Ada (ada)")
	assert.Contains(t, output, "[♥♥♥♡♡]")
	assert.Contains(t, output, "3.0/5")
	assert.Contains(t, output, "pose: idle.png  location: forest.png")
	assert.Contains(t, output, "activity: reading")
	assert.Contains(t, output, "today: 2 focus blocks, 1 cameo, 0 moments")
	assert.Contains(t, output, "watcher: online (seen 5 seconds ago)")
	assert.Contains(t, output, "focus")
	assert.Contains(t, output, "12 minutes left")
	assert.Contains(t, output, "nsfw: off")
	assert.Contains(t, output, "cap 4/day")
	assert.NotContains(t, output, "away")
}

func TestRenderMultiFamiliarOverview(t *testing.T) {
	now := time.Date(2026, 10, 17, 11, 0, 0, 0, time.UTC)

	output, err := Render(application.Overview{
		At: now,
		Familiars: []application.FamiliarStatus{
			{ID: "ada", Name: "Ada", State: domain.State{Hearts: 5}},
			{ID: "bea", Name: "bea", State: domain.State{Hearts: 0}, Away: true},
		},
		Cycle:    domain.IdleCycle().Status(now),
		Settings: application.SettingsView{Settings: domain.DefaultSettings()},
	})

	require.NoError(t, err)
	assert.Contains(t, output, "familiars: 2")
	assert.Contains(t, output, "Ada (ada)")
	assert.Contains(t, output, "[♥♥♥♥♥]")
	assert.Contains(t, output, "[♡♡♡♡♡]")
	assert.Contains(t, output, "pose: none  location: none")
	assert.Contains(t, output, "[away on a journey]")
	assert.Contains(t, output, "cycle: idle")
	assert.Contains(t, output, "watcher: offline (never seen)")
	assert.NotContains(t, output, "bea (bea)")
}

func TestRenderMarksStaleWatcherOffline(t *testing.T) {
	now := time.Date(2026, 10, 17, 11, 0, 0, 0, time.UTC)

	output, err := Render(application.Overview{
		At:        now,
		Familiars: []application.FamiliarStatus{{ID: "ada"}},
		Heartbeat: application.HeartbeatView{Active: false, LastSeen: timePtr(now.Add(-3 * time.Minute))},
		Settings:  application.SettingsView{Settings: domain.DefaultSettings()},
	})

	require.NoError(t, err)
	assert.Contains(t, output, "watcher: offline (seen 3 minutes ago)")
}

func TestRenderShowsNSFWGating(t *testing.T) {
	tests := []struct {
		name     string
		settings application.SettingsView
		want     []string
	}{
		{
			name: "allowed",
			settings: application.SettingsView{
				Settings:       domain.Settings{NSFWEnabled: true, DailyNSFWCap: 2},
				NSFWAllowedNow: true,
			},
			want: []string{"nsfw: on (allowed now)", "cap 2/day"},
		},
		{
			name: "quiet hours",
			settings: application.SettingsView{
				Settings: domain.Settings{
					NSFWEnabled:  true,
					DailyNSFWCap: 4,
					QuietHours:   domain.QuietHours{Start: "22:00", End: "07:00"},
				},
			},
			want: []string{"nsfw: on (quiet hours)", "quiet 22:00-07:00"},
		},
		{
			name: "dev override",
			settings: application.SettingsView{
				Settings:       domain.Settings{DevNSFWOverride: true},
				NSFWAllowedNow: true,
			},
			want: []string{"[dev override]"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			output, err := Render(application.Overview{Settings: tt.settings})
			require.NoError(t, err)
			for _, want := range tt.want {
				assert.Contains(t, output, want)
			}
		})
	}
}

func TestRenderWithoutFamiliars(t *testing.T) {
	output, err := Render(application.Overview{})

	require.NoError(t, err)
	assert.Contains(t, output, "familiars: 0")
	assert.Contains(t, output, "No familiars found.")
	assert.Contains(t, output, "cycle: idle")
}
