package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func localAt(hour, minute int) time.Time {
	return time.Date(2026, 10, 17, hour, minute, 0, 0, time.Local)
}

func TestNSFWAllowedQuietHoursWrap(t *testing.T) {
	settings := Settings{
		NSFWEnabled: true,
		QuietHours:  QuietHours{Start: "23:00", End: "07:00"},
	}

	tests := []struct {
		name string
		at   time.Time
		want bool
	}{
		{name: "late evening inside window", at: localAt(23, 30), want: false},
		{name: "early morning inside window", at: localAt(6, 30), want: false},
		{name: "end is exclusive", at: localAt(7, 0), want: true},
		{name: "morning outside window", at: localAt(8, 0), want: true},
		{name: "evening outside window", at: localAt(22, 0), want: true},
		{name: "start is inclusive", at: localAt(23, 0), want: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, settings.NSFWAllowedAt(tt.at))
		})
	}
}

func TestNSFWAllowedNonWrappingWindow(t *testing.T) {
	settings := Settings{
		NSFWEnabled: true,
		QuietHours:  QuietHours{Start: "09:00", End: "17:30"},
	}

	assert.False(t, settings.NSFWAllowedAt(localAt(12, 0)))
	assert.True(t, settings.NSFWAllowedAt(localAt(17, 30)))
	assert.True(t, settings.NSFWAllowedAt(localAt(8, 59)))
}

func TestNSFWAllowedFlags(t *testing.T) {
	quiet := QuietHours{Start: "00:00", End: "23:59"}

	assert.False(t, Settings{}.NSFWAllowedAt(localAt(12, 0)))
	assert.False(t, Settings{NSFWEnabled: true, QuietHours: quiet}.NSFWAllowedAt(localAt(12, 0)))
	assert.True(t, Settings{DevNSFWOverride: true, QuietHours: quiet}.NSFWAllowedAt(localAt(12, 0)))
}

func TestQuietHoursIgnoresMalformedBounds(t *testing.T) {
	tests := []QuietHours{
		{},
		{Start: "23:00"},
		{Start: "25:00", End: "07:00"},
		{Start: "ab:cd", End: "07:00"},
		{Start: "07:00", End: "07:00"},
	}

	for _, quiet := range tests {
		assert.False(t, quiet.Contains(localAt(3, 0)), "%+v", quiet)
	}
}

func TestSettingsApplyPatch(t *testing.T) {
	enabled := true
	limit := 2
	patched := DefaultSettings().Apply(SettingsPatch{NSFWEnabled: &enabled, DailyNSFWCap: &limit})

	assert.True(t, patched.NSFWEnabled)
	assert.Equal(t, 2, patched.MomentCap())
	assert.True(t, patched.IncludeMemory)
	assert.Equal(t, DefaultDailyNSFWCap, Settings{}.MomentCap())
}

func TestSeasonalBackground(t *testing.T) {
	december := time.Date(2026, 12, 3, 10, 0, 0, 0, time.Local)
	october := time.Date(2026, 10, 3, 10, 0, 0, 0, time.Local)
	exists := func(rel string) bool { return rel == "christmas/bedroom.png" }

	assert.Equal(t, "christmas/bedroom.png", SeasonalBackground("bedroom.png", december, exists))
	assert.Equal(t, "bedroom.png", SeasonalBackground("bedroom.png", october, exists))
	assert.Equal(t, "cafe.png", SeasonalBackground("cafe.png", december, exists))
	assert.Equal(t, "beach.png", SeasonalBackground("beach.png", december, exists))
}
