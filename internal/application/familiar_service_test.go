package application

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/bnema/familiar-bridge/internal/domain"
	"github.com/bnema/familiar-bridge/internal/ports"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFamiliarServiceHeartsDiminishingReturns(t *testing.T) {
	h := newHarness(t, nil)
	ctx := context.Background()

	wantHearts := []float64{0.5, 0.75, 0.75, 0.75}
	wantBlocks := []int{1, 2, 2, 2}
	for i := range wantHearts {
		state, err := h.familiars.UpdateState(ctx, "ada", domain.StatePatch{Hearts: float64Ptr(float64(i + 1))})
		require.NoError(t, err)
		assert.Equal(t, wantHearts[i], state.Hearts, "post %d", i+1)

		ledger, err := h.usageRepo.Load(ctx)
		require.NoError(t, err)
		assert.Equal(t, wantBlocks[i], ledger.PomoBlocks(h.clock.Now(), "ada"), "post %d", i+1)
	}
}

func TestFamiliarServiceRepeatedFullHeartsPosts(t *testing.T) {
	h := newHarness(t, nil)
	ctx := context.Background()

	var got []float64
	for i := 0; i < 3; i++ {
		state, err := h.familiars.UpdateState(ctx, "ada", domain.StatePatch{Hearts: float64Ptr(5)})
		require.NoError(t, err)
		got = append(got, state.Hearts)
	}

	assert.Equal(t, []float64{0.5, 0.75, 0.75}, got)
	ledger, err := h.usageRepo.Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, ledger.PomoBlocks(h.clock.Now(), "ada"))

	stored, found, err := h.familiarRepo.LoadState(ctx, "ada")
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, 0.75, stored.Hearts)
}

func TestFamiliarServiceConcurrentHeartsPostsShareTheDay(t *testing.T) {
	h := newHarness(t, nil)
	ctx := context.Background()

	var wg sync.WaitGroup
	errs := make([]error, 2)
	for i := range errs {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = h.familiars.UpdateState(ctx, "ada", domain.StatePatch{Hearts: float64Ptr(5)})
		}(i)
	}
	wg.Wait()
	for _, err := range errs {
		require.NoError(t, err)
	}

	stored, found, err := h.familiarRepo.LoadState(ctx, "ada")
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, 0.75, stored.Hearts)

	ledger, err := h.usageRepo.Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, ledger.PomoBlocks(h.clock.Now(), "ada"))
}

func TestFamiliarServiceResetLocksPositiveGainsForTheDay(t *testing.T) {
	h := newHarness(t, nil)
	ctx := context.Background()

	_, err := h.familiars.UpdateState(ctx, "ada", domain.StatePatch{Hearts: float64Ptr(1)})
	require.NoError(t, err)

	state, err := h.familiars.UpdateState(ctx, "ada", domain.StatePatch{ResetHearts: true})
	require.NoError(t, err)
	assert.Equal(t, 0.0, state.Hearts)

	for i := 0; i < 3; i++ {
		h.clock.Advance(time.Hour)
		state, err = h.familiars.UpdateState(ctx, "ada", domain.StatePatch{Hearts: float64Ptr(5)})
		require.NoError(t, err)
		assert.Equal(t, 0.0, state.Hearts)
	}

	h.clock.Advance(24 * time.Hour)
	state, err = h.familiars.UpdateState(ctx, "ada", domain.StatePatch{Hearts: float64Ptr(5)})
	require.NoError(t, err)
	assert.Equal(t, 0.5, state.Hearts, "a new day lifts the lock")
}

func TestFamiliarServiceNegativeDeltaPassesThrough(t *testing.T) {
	h := newHarness(t, nil)
	ctx := context.Background()
	require.NoError(t, h.familiarRepo.SaveState(ctx, "ada", domain.State{Hearts: 4}))

	state, err := h.familiars.UpdateState(ctx, "ada", domain.StatePatch{Hearts: float64Ptr(1.1)})
	require.NoError(t, err)
	assert.Equal(t, 1.0, state.Hearts)

	ledger, err := h.usageRepo.Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, 0, ledger.PomoBlocks(h.clock.Now(), "ada"))
}

func TestFamiliarServiceLatchesAchievedFive(t *testing.T) {
	h := newHarness(t, nil)
	ctx := context.Background()
	require.NoError(t, h.familiarRepo.SaveState(ctx, "ada", domain.State{Hearts: 4.25}))

	_, err := h.familiars.UpdateState(ctx, "ada", domain.StatePatch{Hearts: float64Ptr(5)})
	require.NoError(t, err)

	ledger, err := h.usageRepo.Load(ctx)
	require.NoError(t, err)
	assert.True(t, ledger.Today(h.clock.Now(), "ada").AchievedFiveToday)
}

func TestFamiliarServiceDevOverrideForcesFullHearts(t *testing.T) {
	h := newHarness(t, nil)
	ctx := context.Background()
	_, err := h.settings.Update(ctx, domain.SettingsPatch{DevNSFWOverride: boolPtr(true)})
	require.NoError(t, err)

	state, err := h.familiars.State(ctx, "ada")
	require.NoError(t, err)
	assert.Equal(t, 5.0, state.Hearts)

	state, err = h.familiars.UpdateState(ctx, "ada", domain.StatePatch{Hearts: float64Ptr(1)})
	require.NoError(t, err)
	assert.Equal(t, 5.0, state.Hearts)
}

func TestFamiliarServiceStateDefaults(t *testing.T) {
	h := newHarness(t, nil)
	ctx := context.Background()

	state, err := h.familiars.State(ctx, "ada")
	require.NoError(t, err)
	assert.Equal(t, domain.State{Avatar: "calm.png", Location: "bedroom.png"}, state)

	h.clock.Set(time.Date(2026, 12, 20, 9, 0, 0, 0, time.Local))
	state, err = h.familiars.State(ctx, "ada")
	require.NoError(t, err)
	assert.Equal(t, "christmas/bedroom.png", state.Location)

	state, err = h.familiars.State(ctx, "bea")
	require.NoError(t, err)
	assert.Equal(t, "park.png", state.Location, "variant missing on disk keeps the base")
}

func TestFamiliarServicePartialUpdateKeepsOtherFields(t *testing.T) {
	h := newHarness(t, nil)
	ctx := context.Background()

	_, err := h.familiars.UpdateState(ctx, "ada", domain.StatePatch{Location: stringPtr("library.png"), Activity: stringPtr("reading")})
	require.NoError(t, err)
	state, err := h.familiars.UpdateState(ctx, "ada", domain.StatePatch{Avatar: stringPtr("warm.png")})
	require.NoError(t, err)

	assert.Equal(t, domain.State{Avatar: "warm.png", Location: "library.png", Activity: "reading"}, state)
}

func TestFamiliarServiceRejectsUnknownFamiliar(t *testing.T) {
	h := newHarness(t, nil)
	ctx := context.Background()

	_, err := h.familiars.State(ctx, "zed")
	require.ErrorIs(t, err, domain.ErrFamiliarNotFound)

	_, err = h.familiars.State(ctx, "../ada")
	require.ErrorIs(t, err, domain.ErrInvalidFamiliarID)
}

func TestFamiliarServiceListUsesMetaNames(t *testing.T) {
	h := newHarness(t, nil)

	familiars, err := h.familiars.List(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []domain.FamiliarSummary{{ID: "ada", Name: "Ada"}, {ID: "bea", Name: "bea"}}, familiars)
}

func TestFamiliarServiceProfileMerge(t *testing.T) {
	h := newHarness(t, nil)
	ctx := context.Background()

	_, err := h.familiars.MergeProfile(ctx, "ada", map[string]any{"nickname": "A", "likes": "tea"})
	require.NoError(t, err)
	profile, err := h.familiars.MergeProfile(ctx, "ada", map[string]any{"likes": "coffee"})
	require.NoError(t, err)

	assert.Equal(t, map[string]any{"nickname": "A", "likes": "coffee"}, profile)
}

func TestFamiliarServiceJourney(t *testing.T) {
	h := newHarness(t, nil)
	ctx := context.Background()
	until := h.clock.Now().Add(2 * time.Hour).UTC().Format(time.RFC3339)
	writeJourney(t, h, `{"ada": {"away": true, "until": "`+until+`"}}`)

	view, err := h.familiars.Journey(ctx, "ada")
	require.NoError(t, err)
	assert.True(t, view.Away)
	assert.True(t, view.Active)

	h.clock.Advance(3 * time.Hour)
	view, err = h.familiars.Journey(ctx, "ada")
	require.NoError(t, err)
	assert.False(t, view.Active, "journey is over once until passes")

	h.clock.Advance(-3 * time.Hour)
	_, err = h.settings.Update(ctx, domain.SettingsPatch{DevInstantJourneyReturn: boolPtr(true)})
	require.NoError(t, err)
	view, err = h.familiars.Journey(ctx, "ada")
	require.NoError(t, err)
	assert.False(t, view.Active)
}

func TestFamiliarServiceResetLocations(t *testing.T) {
	h := newHarness(t, nil)
	ctx := context.Background()
	require.NoError(t, h.familiarRepo.SaveState(ctx, "ada", domain.State{Avatar: "warm.png", Location: "library.png", Hearts: 2}))

	require.NoError(t, h.familiars.ResetLocations(ctx))

	ada, _, err := h.familiarRepo.LoadState(ctx, "ada")
	require.NoError(t, err)
	assert.Equal(t, domain.State{Avatar: "warm.png", Location: "bedroom.png", Hearts: 2}, ada)

	bea, found, err := h.familiarRepo.LoadState(ctx, "bea")
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, "park.png", bea.Location)
	assert.Equal(t, "calm.png", bea.Avatar)
}

func TestFamiliarServiceLayout(t *testing.T) {
	h := newHarness(t, nil)

	layout, err := h.familiars.Layout(context.Background(), "ada", ports.LayoutRequest{Pose: "calm.png"})
	require.NoError(t, err)
	assert.Equal(t, domain.DefaultLayout(), layout)

	catalog, err := h.familiars.Catalog(context.Background(), "ada")
	require.NoError(t, err)
	assert.Len(t, catalog.Poses, 4)
	assert.Len(t, catalog.Backgrounds, 3)
}
