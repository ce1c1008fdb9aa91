package assets

import (
	"context"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/bnema/familiar-bridge/internal/domain"
	"github.com/bnema/familiar-bridge/internal/ports"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFixture(t *testing.T, root string, files map[string]string) {
	t.Helper()
	for rel, content := range files {
		full := filepath.Join(root, filepath.FromSlash(rel))
		require.NoError(t, os.MkdirAll(filepath.Dir(full), 0o755))
		require.NoError(t, os.WriteFile(full, []byte(content), 0o644))
	}
}

func newTestStore(t *testing.T, files map[string]string) *Store {
	t.Helper()
	root := t.TempDir()
	writeFixture(t, root, files)
	return NewStore(root, slog.New(slog.NewTextHandler(io.Discard, nil)))
}

func TestResolveLayoutFoldsLayersInOrder(t *testing.T) {
	t.Parallel()

	store := newTestStore(t, map[string]string{
		"ada/avatar/layout.json":      `{"scale": 1.0}`,
		"ada/avatar/nsfw/layout.json": `{"overrides": {"bikini.png": {"scale": 1.2}}}`,
		"ada/locations/layout.json":   `{"beach.png": {"bikini.png": {"y": "10px"}}}`,
	})

	got := store.ResolveLayout(context.Background(), "ada", ports.LayoutRequest{
		Pose:       "nsfw/bikini.png",
		Background: "beach.png",
	})

	assert.Equal(t, domain.Layout{
		Scale:           1.2,
		X:               "0px",
		Y:               "10px",
		Mirror:          false,
		TransformOrigin: "bottom center",
	}, got)
}

func TestResolveLayoutOverrideKeys(t *testing.T) {
	t.Parallel()

	store := newTestStore(t, map[string]string{
		"ada/avatar/layout.json": `{
			// authored by hand
			"x": 4,
			"overrides": {
				"nsfw/wave.png": {"mirror": true},
				"wave.png": {"scale": 0.5},
			},
		}`,
	})

	tests := []struct {
		name string
		pose string
		want domain.Layout
	}{
		{
			name: "full path wins over bare filename",
			pose: "nsfw/wave.png",
			want: domain.Layout{Scale: 1.0, X: "4px", Y: "0px", Mirror: true, TransformOrigin: "bottom center"},
		},
		{
			name: "bare filename fallback",
			pose: "casual/wave.png",
			want: domain.Layout{Scale: 0.5, X: "4px", Y: "0px", TransformOrigin: "bottom center"},
		},
		{
			name: "no override",
			pose: "calm.png",
			want: domain.Layout{Scale: 1.0, X: "4px", Y: "0px", TransformOrigin: "bottom center"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := store.ResolveLayout(context.Background(), "ada", ports.LayoutRequest{Pose: tt.pose})
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestResolveLayoutCommitteeOverlayOnlyWhenRequested(t *testing.T) {
	t.Parallel()

	store := newTestStore(t, map[string]string{
		"ada/avatar/layout.json":              `{"scale": 1.0}`,
		"ada/avatar/committee_layout.json":    `{"scale": 0.8, "transform_origin": "bottom left"}`,
		"ada/locations/committee_layout.json": `{"cafe.png": {"calm.png": {"x": "-20px"}}}`,
	})

	solo := store.ResolveLayout(context.Background(), "ada", ports.LayoutRequest{Pose: "calm.png", Background: "cafe.png"})
	assert.Equal(t, domain.DefaultLayout(), solo)

	committee := store.ResolveLayout(context.Background(), "ada", ports.LayoutRequest{
		Pose:       "calm.png",
		Background: "cafe.png",
		Committee:  true,
	})
	assert.Equal(t, domain.Layout{Scale: 0.8, X: "-20px", Y: "0px", TransformOrigin: "bottom left"}, committee)
}

func TestResolveLayoutNeverFails(t *testing.T) {
	t.Parallel()

	store := newTestStore(t, map[string]string{
		"ada/avatar/layout.json": `{"scale": "large"`,
	})

	assert.Equal(t, domain.DefaultLayout(), store.ResolveLayout(context.Background(), "ada", ports.LayoutRequest{Pose: "calm.png"}))
	assert.Equal(t, domain.DefaultLayout(), store.ResolveLayout(context.Background(), "ada", ports.LayoutRequest{Pose: "../../etc/passwd"}))
	assert.Equal(t, domain.DefaultLayout(), store.ResolveLayout(context.Background(), "nobody", ports.LayoutRequest{Pose: "calm.png"}))
}

func TestPosesScanClassifiesAndTags(t *testing.T) {
	t.Parallel()

	store := newTestStore(t, map[string]string{
		"ada/avatar/calm.png":               "x",
		"ada/avatar/layout.json":            "{}",
		"ada/avatar/nsfw/Yoga-Stretch.PNG":  "x",
		"ada/avatar/activities/reading.jpg": "x",
		"ada/avatar/notes.txt":              "x",
	})

	poses := store.Poses(context.Background(), "ada")

	assert.Equal(t, []domain.Pose{
		{ID: "activities/reading.jpg", Category: domain.PoseActivity, Tags: []string{"reading"}},
		{ID: "calm.png", Category: domain.PoseBase, Tags: []string{"calm"}},
		{ID: "nsfw/Yoga-Stretch.PNG", Category: domain.PoseNSFW, Tags: []string{"yoga", "stretch"}},
	}, poses)
}

func TestPosesPreferAvatarList(t *testing.T) {
	t.Parallel()

	store := newTestStore(t, map[string]string{
		"ada/avatar/calm.png": "x",
		"ada/avatar_list.json": `{"avatars": [
			"nsfw/warm_towel.png",
			{"id": "wave.png", "category": "activity", "tags": ["hello"]},
			{"file": "sleepy.png"}
		]}`,
	})

	poses := store.Poses(context.Background(), "ada")

	assert.Equal(t, []domain.Pose{
		{ID: "nsfw/warm_towel.png", Category: domain.PoseNSFW, Tags: []string{"warm", "towel"}},
		{ID: "wave.png", Category: domain.PoseActivity, Tags: []string{"hello"}},
		{ID: "sleepy.png", Category: domain.PoseBase, Tags: []string{"sleepy"}},
	}, poses)
}

func TestBackgroundsFromMarkdown(t *testing.T) {
	t.Parallel()

	store := newTestStore(t, map[string]string{
		"ada/locations/ignored.png": "x",
		"ada/docs/backgrounds.md": "# Backgrounds\n\n" +
			"- `bedroom.png`: Cozy bedroom at *night*\n" +
			"- `christmas/cafe.png`: Cafe with lights\n" +
			"- mentions `park.png` mid-sentence\n\n" +
			"`beach.png`: Sunny beach\n",
	})

	backgrounds := store.Backgrounds(context.Background(), "ada")

	assert.Equal(t, []domain.Background{
		{ID: "bedroom.png", Description: "Cozy bedroom at night", Tags: []string{"bedroom"}},
		{ID: "christmas/cafe.png", Description: "Cafe with lights", Tags: []string{"cafe"}},
		{ID: "beach.png", Description: "Sunny beach", Tags: []string{"beach"}},
	}, backgrounds)
}

func TestBackgroundsScanFallback(t *testing.T) {
	t.Parallel()

	store := newTestStore(t, map[string]string{
		"ada/locations/park_day.png":          "x",
		"ada/locations/christmas/bedroom.png": "x",
		"ada/locations/layout.json":           "{}",
	})

	backgrounds := store.Backgrounds(context.Background(), "ada")

	assert.Equal(t, []domain.Background{
		{ID: "christmas/bedroom.png", Tags: []string{"bedroom"}},
		{ID: "park_day.png", Tags: []string{"park", "day"}},
	}, backgrounds)
	assert.True(t, store.BackgroundExists(context.Background(), "ada", "christmas/bedroom.png"))
	assert.False(t, store.BackgroundExists(context.Background(), "ada", "christmas/park.png"))
	assert.False(t, store.BackgroundExists(context.Background(), "ada", "../ada/locations/park_day.png"))
}

func TestMetaAndActivitiesAreBestEffort(t *testing.T) {
	t.Parallel()

	store := newTestStore(t, map[string]string{
		"ada/meta.json":       `{"name": "Ada", "default_background": "bedroom.png", "emotions": ["calm", "warm"],}`,
		"ada/activities.json": `{"activities": [{"id": "reading", "label": "Reading", "avatar": "activities/reading.png", "background": "library.png"}]}`,
		"bea/meta.json":       `not json`,
	})

	meta := store.Meta(context.Background(), "ada")
	assert.Equal(t, "Ada", meta.Name)
	assert.Equal(t, []string{"calm", "warm"}, meta.Emotions)

	activity, ok := store.Activities(context.Background(), "ada").Find("reading")
	require.True(t, ok)
	assert.Equal(t, "library.png", activity.Background)

	assert.Equal(t, domain.Meta{}, store.Meta(context.Background(), "bea"))
	assert.Empty(t, store.Activities(context.Background(), "bea").Activities)
	assert.Empty(t, store.Poses(context.Background(), "bea"))
}
