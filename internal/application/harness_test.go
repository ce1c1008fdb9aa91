package application

import (
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/bnema/familiar-bridge/internal/adapters/assets"
	"github.com/bnema/familiar-bridge/internal/adapters/repo/jsonfile"
	"github.com/bnema/familiar-bridge/internal/adapters/watcher"
	"github.com/bnema/familiar-bridge/internal/ports"
	"github.com/stretchr/testify/require"
)

type testClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *testClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *testClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

func (c *testClock) Set(now time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = now
}

var fixtureFiles = map[string]string{
	"ada/meta.json": `{"name": "Ada", "default_avatar": "calm.png", "default_background": "bedroom.png", "emotions": ["calm", "warm", "shy"]}`,
	"ada/activities.json": `{"activities": [
		{"id": "reading", "label": "Reading", "avatar": "activities/reading.png", "background": "library.png"},
		{"id": "napping", "label": "Napping", "avatar": "sleepy.png"}
	]}`,
	"ada/avatar/calm.png":                 "x",
	"ada/avatar/activities/reading.png":   "x",
	"ada/avatar/nsfw/yoga_stretch.png":    "x",
	"ada/avatar/nsfw/warm_towel.png":      "x",
	"ada/locations/bedroom.png":           "x",
	"ada/locations/christmas/bedroom.png": "x",
	"ada/locations/library.png":           "x",
	"bea/meta.json":                       `{"default_avatar": "calm.png", "default_background": "park.png"}`,
}

type harness struct {
	familiarsRoot string
	sharedTemp    string
	clock         *testClock

	usageRepo        *jsonfile.UsageRepository
	conversationRepo *jsonfile.ConversationRepository
	familiarRepo     *jsonfile.FamiliarRepository

	settings      *SettingsService
	familiars     *FamiliarService
	cycles        *CycleService
	conversations *ConversationService
	moments       *MomentService
	overview      *OverviewService
}

func newHarness(t *testing.T, rng ports.Random) *harness {
	t.Helper()

	base := t.TempDir()
	h := &harness{
		familiarsRoot: filepath.Join(base, "familiars"),
		sharedTemp:    filepath.Join(base, "shared"),
		clock:         &testClock{now: time.Date(2026, 10, 17, 9, 0, 0, 0, time.Local)},
	}
	for rel, content := range fixtureFiles {
		full := filepath.Join(h.familiarsRoot, filepath.FromSlash(rel))
		require.NoError(t, os.MkdirAll(filepath.Dir(full), 0o755))
		require.NoError(t, os.WriteFile(full, []byte(content), 0o644))
	}

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	store := assets.NewStore(h.familiarsRoot, logger)
	settingsRepo := jsonfile.NewSettingsRepository(h.sharedTemp)
	cycleRepo := jsonfile.NewCycleRepository(h.sharedTemp)
	h.usageRepo = jsonfile.NewUsageRepository(h.sharedTemp)
	h.conversationRepo = jsonfile.NewConversationRepository(h.sharedTemp)
	h.familiarRepo = jsonfile.NewFamiliarRepository(h.familiarsRoot)

	var ids int
	nextID := func() string {
		ids++
		return "T" + string(rune('0'+ids))
	}

	h.settings = NewSettingsService(settingsRepo, h.clock, logger)
	h.familiars = NewFamiliarService(h.familiarRepo, store, h.usageRepo, settingsRepo, jsonfile.NewJourneyRepository(h.sharedTemp), h.clock, logger)
	h.cycles = NewCycleService(cycleRepo, h.clock, logger)
	h.conversations = NewConversationService(
		h.conversationRepo,
		h.familiars,
		h.cycles,
		settingsRepo,
		watcher.NewHeartbeatFileReader(h.sharedTemp),
		watcher.NewSentinelSignaler(h.sharedTemp),
		h.clock,
		logger,
		WithTurnIDs(nextID),
	)
	h.moments = NewMomentService(h.usageRepo, settingsRepo, h.familiars, store, h.clock, rng, logger)
	h.overview = NewOverviewService(h.familiars, h.cycles, h.conversations, h.settings, h.usageRepo, h.clock)
	return h
}

func boolPtr(v bool) *bool          { return &v }
func intPtr(v int) *int             { return &v }
func int64Ptr(v int64) *int64       { return &v }
func float64Ptr(v float64) *float64 { return &v }
func stringPtr(v string) *string    { return &v }

func writeJourney(t *testing.T, h *harness, document string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(h.sharedTemp, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(h.sharedTemp, "journeys.json"), []byte(document), 0o644))
}
