package jsonfile

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/bnema/familiar-bridge/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFamiliarRepositoryMigratesLegacyEmotion(t *testing.T) {
	t.Parallel()

	root := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(root, "ada"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(root, "ada", "state.json"), []byte(`{"emotion":"happy","hearts":2.1}`), 0o644))
	repo := NewFamiliarRepository(root)

	state, found, err := repo.LoadState(context.Background(), "ada")
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, "happy.png", state.Avatar)
	assert.Equal(t, 2.0, state.Hearts)

	require.NoError(t, repo.SaveState(context.Background(), "ada", state))

	data, err := os.ReadFile(filepath.Join(root, "ada", "state.json"))
	require.NoError(t, err)
	var raw map[string]any
	require.NoError(t, json.Unmarshal(data, &raw))
	assert.NotContains(t, raw, "emotion")
	assert.Equal(t, "happy.png", raw["avatar"])
}

func TestFamiliarRepositoryQuantisesHeartsOnWrite(t *testing.T) {
	t.Parallel()

	root := t.TempDir()
	repo := NewFamiliarRepository(root)

	require.NoError(t, repo.SaveState(context.Background(), "ada", domain.State{Hearts: 9.9}))
	state, _, err := repo.LoadState(context.Background(), "ada")
	require.NoError(t, err)
	assert.Equal(t, 5.0, state.Hearts)

	require.NoError(t, repo.SaveState(context.Background(), "ada", domain.State{Hearts: 1.3}))
	state, _, err = repo.LoadState(context.Background(), "ada")
	require.NoError(t, err)
	assert.Equal(t, 1.25, state.Hearts)
}

func TestFamiliarRepositoryListAndExists(t *testing.T) {
	t.Parallel()

	root := t.TempDir()
	for _, name := range []string{"bea", "ada", ".cache"} {
		require.NoError(t, os.MkdirAll(filepath.Join(root, name), 0o755))
	}
	require.NoError(t, os.WriteFile(filepath.Join(root, "notes.txt"), []byte("x"), 0o644))
	repo := NewFamiliarRepository(root)

	ids, err := repo.List(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []domain.FamiliarID{"ada", "bea"}, ids)

	ok, err := repo.Exists(context.Background(), "ada")
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = repo.Exists(context.Background(), "zed")
	require.NoError(t, err)
	assert.False(t, ok)

	_, err = repo.Exists(context.Background(), "../escape")
	assert.ErrorIs(t, err, domain.ErrInvalidFamiliarID)
}

func TestFamiliarRepositoryMissingStateAndProfile(t *testing.T) {
	t.Parallel()

	repo := NewFamiliarRepository(t.TempDir())

	_, found, err := repo.LoadState(context.Background(), "ada")
	require.NoError(t, err)
	assert.False(t, found)

	profile, err := repo.LoadProfile(context.Background(), "ada")
	require.NoError(t, err)
	assert.Empty(t, profile)

	require.NoError(t, repo.SaveProfile(context.Background(), "ada", map[string]any{"nickname": "A"}))
	profile, err = repo.LoadProfile(context.Background(), "ada")
	require.NoError(t, err)
	assert.Equal(t, "A", profile["nickname"])
}
