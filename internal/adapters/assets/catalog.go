package assets

import (
	"bytes"
	"context"
	"encoding/json"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/bnema/familiar-bridge/internal/domain"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/text"
)

// avatarListEntry accepts either a bare path string or an object.
type avatarListEntry struct {
	ID       string              `json:"id"`
	File     string              `json:"file"`
	Path     string              `json:"path"`
	Category domain.PoseCategory `json:"category"`
	Tags     []string            `json:"tags"`
}

func (e *avatarListEntry) UnmarshalJSON(data []byte) error {
	var bare string
	if err := json.Unmarshal(data, &bare); err == nil {
		*e = avatarListEntry{ID: bare}
		return nil
	}
	type plain avatarListEntry
	return json.Unmarshal(data, (*plain)(e))
}

func (e avatarListEntry) pose() (domain.Pose, bool) {
	id := firstNonEmpty(e.ID, e.File, e.Path)
	if id == "" {
		return domain.Pose{}, false
	}
	id = strings.ReplaceAll(id, `\`, "/")

	pose := domain.Pose{ID: id, Category: e.Category, Tags: e.Tags}
	switch pose.Category {
	case domain.PoseBase, domain.PoseNSFW, domain.PoseActivity:
	default:
		pose.Category = domain.ClassifyPose(id)
	}
	if pose.Tags == nil {
		pose.Tags = domain.FilenameTags(id)
	}
	return pose, true
}

// Poses returns avatar_list.json when present, otherwise a scan of avatar/.
func (s *Store) Poses(ctx context.Context, id domain.FamiliarID) []domain.Pose {
	dir, ok := s.familiarDir(ctx, id)
	if !ok {
		return []domain.Pose{}
	}

	if entries, ok := s.readAvatarList(filepath.Join(dir, avatarListFile)); ok {
		poses := make([]domain.Pose, 0, len(entries))
		for _, entry := range entries {
			if pose, ok := entry.pose(); ok {
				poses = append(poses, pose)
			}
		}
		return poses
	}

	files := s.scanImages(filepath.Join(dir, avatarDir))
	poses := make([]domain.Pose, 0, len(files))
	for _, rel := range files {
		poses = append(poses, domain.Pose{
			ID:       rel,
			Category: domain.ClassifyPose(rel),
			Tags:     domain.FilenameTags(rel),
		})
	}
	return poses
}

func (s *Store) readAvatarList(file string) ([]avatarListEntry, bool) {
	var raw json.RawMessage
	if !s.readTolerant(file, &raw) {
		return nil, false
	}

	var list []avatarListEntry
	if err := json.Unmarshal(raw, &list); err == nil {
		return list, true
	}
	var wrapped struct {
		Avatars []avatarListEntry `json:"avatars"`
	}
	if err := json.Unmarshal(raw, &wrapped); err != nil {
		s.logger.Warn("avatar list malformed", "file", file, "error", err)
		return nil, false
	}
	return wrapped.Avatars, true
}

// Backgrounds returns the docs/backgrounds.md entries when the document
// lists any, otherwise a scan of locations/.
func (s *Store) Backgrounds(ctx context.Context, id domain.FamiliarID) []domain.Background {
	dir, ok := s.familiarDir(ctx, id)
	if !ok {
		return []domain.Background{}
	}

	if data, err := os.ReadFile(filepath.Join(dir, filepath.FromSlash(backgroundsDoc))); err == nil {
		if backgrounds := parseBackgroundsDoc(data); len(backgrounds) > 0 {
			return backgrounds
		}
	}

	files := s.scanImages(filepath.Join(dir, locationsDir))
	backgrounds := make([]domain.Background, 0, len(files))
	for _, rel := range files {
		backgrounds = append(backgrounds, domain.Background{ID: rel, Tags: domain.FilenameTags(rel)})
	}
	return backgrounds
}

// scanImages lists image files below root as sorted slash paths.
func (s *Store) scanImages(root string) []string {
	var files []string
	err := filepath.WalkDir(root, func(current string, entry fs.DirEntry, err error) error {
		if err != nil {
			if current == root {
				return err
			}
			return nil
		}
		if entry.IsDir() || !isImage(entry.Name()) {
			return nil
		}
		rel, err := filepath.Rel(root, current)
		if err != nil {
			return nil
		}
		files = append(files, filepath.ToSlash(rel))
		return nil
	})
	if err != nil && !os.IsNotExist(err) {
		s.logger.Warn("asset scan failed", "dir", root, "error", err)
	}
	sort.Strings(files)
	return files
}

// parseBackgroundsDoc collects "`file`: description" entries. The code span
// must open its line or list item and be followed by a colon.
func parseBackgroundsDoc(source []byte) []domain.Background {
	document := goldmark.New().Parser().Parse(text.NewReader(source))

	var backgrounds []domain.Background
	seen := map[string]struct{}{}
	_ = ast.Walk(document, func(node ast.Node, entering bool) (ast.WalkStatus, error) {
		if !entering || node.Kind() != ast.KindCodeSpan {
			return ast.WalkContinue, nil
		}
		if previous := node.PreviousSibling(); previous != nil && !endsLine(previous) {
			return ast.WalkSkipChildren, nil
		}

		file := strings.TrimSpace(inlineText(node, source))
		rest := trailingLine(node, source)
		if file == "" || !strings.HasPrefix(rest, ":") {
			return ast.WalkSkipChildren, nil
		}
		if _, dup := seen[file]; dup {
			return ast.WalkSkipChildren, nil
		}
		seen[file] = struct{}{}

		backgrounds = append(backgrounds, domain.Background{
			ID:          file,
			Description: strings.TrimSpace(strings.TrimPrefix(rest, ":")),
			Tags:        domain.FilenameTags(file),
		})
		return ast.WalkSkipChildren, nil
	})
	return backgrounds
}

// trailingLine returns the inline text after node up to the next line break.
func trailingLine(node ast.Node, source []byte) string {
	var buf bytes.Buffer
	for sibling := node.NextSibling(); sibling != nil; sibling = sibling.NextSibling() {
		buf.WriteString(inlineText(sibling, source))
		if endsLine(sibling) {
			break
		}
	}
	return buf.String()
}

func endsLine(node ast.Node) bool {
	t, ok := node.(*ast.Text)
	return ok && (t.SoftLineBreak() || t.HardLineBreak())
}

func inlineText(node ast.Node, source []byte) string {
	switch n := node.(type) {
	case *ast.Text:
		return string(n.Segment.Value(source))
	case *ast.String:
		return string(n.Value)
	}
	var buf bytes.Buffer
	for child := node.FirstChild(); child != nil; child = child.NextSibling() {
		buf.WriteString(inlineText(child, source))
	}
	return buf.String()
}

func firstNonEmpty(values ...string) string {
	for _, value := range values {
		if value != "" {
			return value
		}
	}
	return ""
}
