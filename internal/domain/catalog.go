package domain

import (
	"path"
	"strings"
	"unicode"
)

type PoseCategory string

const (
	PoseBase     PoseCategory = "base"
	PoseNSFW     PoseCategory = "nsfw"
	PoseActivity PoseCategory = "activity"
)

const DefaultRecentPoseHours = 48

type Pose struct {
	ID       string       `json:"id"`
	Category PoseCategory `json:"category"`
	Tags     []string     `json:"tags"`
}

type Background struct {
	ID          string   `json:"id"`
	Description string   `json:"description,omitempty"`
	Tags        []string `json:"tags"`
}

type Catalog struct {
	Poses       []Pose       `json:"poses"`
	Backgrounds []Background `json:"backgrounds"`
}

// Rand is the randomness a selection needs.
type Rand interface {
	Float64() float64
	IntN(n int) int
}

// ClassifyPose derives a category from a pose path relative to the avatar
// directory.
func ClassifyPose(rel string) PoseCategory {
	for _, segment := range strings.Split(path.Dir(rel), "/") {
		switch strings.ToLower(segment) {
		case "nsfw":
			return PoseNSFW
		case "activities":
			return PoseActivity
		}
	}
	return PoseBase
}

// FilenameTags splits the lowercased file stem on non-alphanumerics.
func FilenameTags(name string) []string {
	base := path.Base(strings.ReplaceAll(name, `\`, "/"))
	stem := strings.TrimSuffix(base, path.Ext(base))
	fields := strings.FieldsFunc(strings.ToLower(stem), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})

	tags := make([]string, 0, len(fields))
	seen := make(map[string]struct{}, len(fields))
	for _, field := range fields {
		if _, ok := seen[field]; ok {
			continue
		}
		seen[field] = struct{}{}
		tags = append(tags, field)
	}
	return tags
}

// ChoosePose picks uniformly among poses in categories, preferring tagged
// and non-recent ones. It falls back to recent poses as a last resort.
func ChoosePose(catalog []Pose, categories []PoseCategory, preferTags []string, recent map[string]struct{}, rng Rand) (Pose, bool) {
	if len(categories) == 0 {
		return Pose{}, false
	}

	wanted := make(map[PoseCategory]struct{}, len(categories))
	for _, category := range categories {
		wanted[category] = struct{}{}
	}
	prefer := make(map[string]struct{}, len(preferTags))
	for _, tag := range preferTags {
		prefer[strings.ToLower(tag)] = struct{}{}
	}

	var all, fresh, preferred []Pose
	for _, pose := range catalog {
		if _, ok := wanted[pose.Category]; !ok {
			continue
		}
		all = append(all, pose)
		if _, used := recent[pose.ID]; used {
			continue
		}
		fresh = append(fresh, pose)
		if hasAnyTag(pose.Tags, prefer) {
			preferred = append(preferred, pose)
		}
	}

	for _, pool := range [][]Pose{preferred, fresh, all} {
		if len(pool) > 0 {
			return pool[rng.IntN(len(pool))], true
		}
	}
	return Pose{}, false
}

func hasAnyTag(tags []string, wanted map[string]struct{}) bool {
	for _, tag := range tags {
		if _, ok := wanted[strings.ToLower(tag)]; ok {
			return true
		}
	}
	return false
}
