package assets

import (
	"context"
	"path"
	"path/filepath"
	"strings"

	"github.com/bnema/familiar-bridge/internal/domain"
	"github.com/bnema/familiar-bridge/internal/ports"
)

// ResolveLayout folds the layout layers for a pose over the defaults:
// avatar/<doc>, each outfit directory's <doc> from shallow to deep, then
// locations/<doc> keyed by background. The committee documents are a second
// pass over the same layers.
func (s *Store) ResolveLayout(ctx context.Context, id domain.FamiliarID, req ports.LayoutRequest) domain.Layout {
	dir, ok := s.familiarDir(ctx, id)
	if !ok {
		return domain.DefaultLayout()
	}
	rel := strings.ReplaceAll(req.Pose, `\`, "/")
	if _, ok := within(filepath.Join(dir, avatarDir), rel); !ok {
		return domain.DefaultLayout()
	}
	rel = path.Clean(rel)

	patches := s.layoutPatches(dir, layoutFile, rel, req.Background)
	if req.Committee {
		patches = append(patches, s.layoutPatches(dir, committeeLayout, rel, req.Background)...)
	}
	return domain.FoldLayout(patches...)
}

func (s *Store) layoutPatches(dir, doc, rel, background string) []domain.LayoutPatch {
	var patches []domain.LayoutPatch

	for _, layerDir := range layerDirs(rel) {
		var layer domain.LayoutLayer
		file := filepath.Join(dir, avatarDir, filepath.FromSlash(layerDir), doc)
		if s.readTolerant(file, &layer) {
			patches = append(patches, layer.Patches(rel)...)
		}
	}

	var byLocation domain.LocationLayout
	if s.readTolerant(filepath.Join(dir, locationsDir, doc), &byLocation) {
		if patch, ok := byLocation.Patch(background, rel); ok {
			patches = append(patches, patch)
		}
	}
	return patches
}

// layerDirs lists the avatar root followed by each directory on the way to
// rel, so "nsfw/beach/a.png" yields ".", "nsfw", "nsfw/beach".
func layerDirs(rel string) []string {
	dirs := []string{"."}
	parent := path.Dir(rel)
	if parent == "." {
		return dirs
	}
	segments := strings.Split(parent, "/")
	for i := range segments {
		dirs = append(dirs, strings.Join(segments[:i+1], "/"))
	}
	return dirs
}
