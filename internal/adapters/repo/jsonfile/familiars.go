package jsonfile

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"github.com/bnema/familiar-bridge/internal/domain"
	"github.com/bnema/familiar-bridge/internal/ports"
)

const (
	stateFile   = "state.json"
	profileFile = "profile.json"
)

type FamiliarRepository struct {
	root string
}

var _ ports.FamiliarRepository = (*FamiliarRepository)(nil)

func NewFamiliarRepository(root string) *FamiliarRepository {
	return &FamiliarRepository{root: filepath.Clean(root)}
}

// storedState is the on-disk state, including the legacy emotion field.
type storedState struct {
	domain.State
	Emotion string `json:"emotion,omitempty"`
}

func (r *FamiliarRepository) Exists(ctx context.Context, id domain.FamiliarID) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}

	dir, err := r.dirFor(id)
	if err != nil {
		return false, err
	}

	info, err := os.Stat(dir)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return false, nil
		}
		return false, fmt.Errorf("stat familiar %s: %w", id, err)
	}
	return info.IsDir(), nil
}

func (r *FamiliarRepository) List(ctx context.Context) ([]domain.FamiliarID, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	entries, err := os.ReadDir(r.root)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return []domain.FamiliarID{}, nil
		}
		return nil, fmt.Errorf("list familiars: %w", err)
	}

	ids := make([]domain.FamiliarID, 0, len(entries))
	for _, entry := range entries {
		id := domain.FamiliarID(entry.Name())
		if !entry.IsDir() || id.Validate() != nil || entry.Name()[0] == '.' {
			continue
		}
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids, nil
}

// LoadState reads state.json, migrating a legacy emotion into the avatar.
// The boolean reports whether a readable document was found.
func (r *FamiliarRepository) LoadState(ctx context.Context, id domain.FamiliarID) (domain.State, bool, error) {
	if err := ctx.Err(); err != nil {
		return domain.State{}, false, err
	}

	dir, err := r.dirFor(id)
	if err != nil {
		return domain.State{}, false, err
	}

	stored, err := ReadStrict(filepath.Join(dir, stateFile), storedState{})
	if err != nil {
		return domain.State{}, false, nil
	}
	if stored == (storedState{}) {
		return domain.State{}, false, nil
	}

	state := stored.State
	if state.Avatar == "" && stored.Emotion != "" {
		state.Avatar = stored.Emotion + ".png"
	}
	state.Hearts = domain.QuantizeHearts(state.Hearts)
	return state, true, nil
}

// SaveState writes state.json without the legacy emotion key. Hearts are
// clamped and quantised on every write.
func (r *FamiliarRepository) SaveState(ctx context.Context, id domain.FamiliarID, state domain.State) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	dir, err := r.dirFor(id)
	if err != nil {
		return err
	}

	state.Hearts = domain.QuantizeHearts(state.Hearts)
	if err := Write(filepath.Join(dir, stateFile), state); err != nil {
		return fmt.Errorf("save state for %s: %w", id, err)
	}
	return nil
}

func (r *FamiliarRepository) LoadProfile(ctx context.Context, id domain.FamiliarID) (map[string]any, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	dir, err := r.dirFor(id)
	if err != nil {
		return nil, err
	}

	profile := Read(filepath.Join(dir, profileFile), map[string]any{})
	if profile == nil {
		profile = map[string]any{}
	}
	return profile, nil
}

func (r *FamiliarRepository) SaveProfile(ctx context.Context, id domain.FamiliarID, profile map[string]any) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	dir, err := r.dirFor(id)
	if err != nil {
		return err
	}

	if err := Write(filepath.Join(dir, profileFile), profile); err != nil {
		return fmt.Errorf("save profile for %s: %w", id, err)
	}
	return nil
}

func (r *FamiliarRepository) dirFor(id domain.FamiliarID) (string, error) {
	if err := id.Validate(); err != nil {
		return "", err
	}
	return filepath.Join(r.root, string(id)), nil
}
