// Package assets reads the hand-authored files under a familiar directory:
// metadata, activities, the pose and background catalogs, and the layered
// layout documents. Every read is best-effort.
package assets

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/bnema/familiar-bridge/internal/domain"
	"github.com/bnema/familiar-bridge/internal/ports"
	"github.com/tidwall/jsonc"
)

const (
	metaFile        = "meta.json"
	activitiesFile  = "activities.json"
	avatarListFile  = "avatar_list.json"
	avatarDir       = "avatar"
	locationsDir    = "locations"
	backgroundsDoc  = "docs/backgrounds.md"
	layoutFile      = "layout.json"
	committeeLayout = "committee_layout.json"
)

var imageExtensions = map[string]struct{}{
	".png":  {},
	".jpg":  {},
	".jpeg": {},
	".webp": {},
	".gif":  {},
}

type Store struct {
	root   string
	logger *slog.Logger
}

var _ ports.Assets = (*Store)(nil)

func NewStore(root string, logger *slog.Logger) *Store {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Store{root: filepath.Clean(root), logger: logger}
}

func (s *Store) Meta(ctx context.Context, id domain.FamiliarID) domain.Meta {
	var meta domain.Meta
	if dir, ok := s.familiarDir(ctx, id); ok {
		s.readTolerant(filepath.Join(dir, metaFile), &meta)
	}
	return meta
}

func (s *Store) Activities(ctx context.Context, id domain.FamiliarID) domain.ActivityList {
	var list domain.ActivityList
	if dir, ok := s.familiarDir(ctx, id); ok {
		s.readTolerant(filepath.Join(dir, activitiesFile), &list)
	}
	if list.Activities == nil {
		list.Activities = []domain.Activity{}
	}
	return list
}

// BackgroundExists reports whether locations/<rel> is a regular file.
func (s *Store) BackgroundExists(ctx context.Context, id domain.FamiliarID, rel string) bool {
	dir, ok := s.familiarDir(ctx, id)
	if !ok {
		return false
	}
	full, ok := within(filepath.Join(dir, locationsDir), rel)
	if !ok {
		return false
	}
	info, err := os.Stat(full)
	return err == nil && info.Mode().IsRegular()
}

func (s *Store) familiarDir(ctx context.Context, id domain.FamiliarID) (string, bool) {
	if ctx.Err() != nil || id.Validate() != nil {
		return "", false
	}
	return filepath.Join(s.root, string(id)), true
}

// readTolerant decodes a JSON document that may carry comments or trailing
// commas. It reports false when the file is missing or malformed.
func (s *Store) readTolerant(file string, v any) bool {
	data, err := os.ReadFile(file)
	if err != nil {
		if !errors.Is(err, fs.ErrNotExist) {
			s.logger.Warn("asset read failed", "file", file, "error", err)
		}
		return false
	}
	if err := json.Unmarshal(jsonc.ToJSON(data), v); err != nil {
		s.logger.Warn("asset document malformed", "file", file, "error", err)
		return false
	}
	return true
}

// within joins rel under base, rejecting absolute paths and escapes.
func within(base, rel string) (string, bool) {
	rel = strings.ReplaceAll(rel, `\`, "/")
	if rel == "" || path.IsAbs(rel) {
		return "", false
	}
	cleaned := path.Clean(rel)
	if cleaned == "." || cleaned == ".." || strings.HasPrefix(cleaned, "../") {
		return "", false
	}
	return filepath.Join(base, filepath.FromSlash(cleaned)), true
}

func isImage(name string) bool {
	_, ok := imageExtensions[strings.ToLower(filepath.Ext(name))]
	return ok
}
