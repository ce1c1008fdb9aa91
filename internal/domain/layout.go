package domain

import (
	"encoding/json"
	"path"
	"strconv"
)

// Length is a CSS length. Bare JSON numbers are read as pixels.
type Length string

func (l *Length) UnmarshalJSON(data []byte) error {
	var text string
	if err := json.Unmarshal(data, &text); err == nil {
		*l = Length(text)
		return nil
	}
	var number float64
	if err := json.Unmarshal(data, &number); err != nil {
		return err
	}
	*l = Length(strconv.FormatFloat(number, 'f', -1, 64) + "px")
	return nil
}

type Layout struct {
	Scale           float64 `json:"scale"`
	X               Length  `json:"x"`
	Y               Length  `json:"y"`
	Mirror          bool    `json:"mirror"`
	TransformOrigin string  `json:"transform_origin"`
}

func DefaultLayout() Layout {
	return Layout{
		Scale:           1.0,
		X:               "0px",
		Y:               "0px",
		TransformOrigin: "bottom center",
	}
}

// LayoutPatch sets only the fields present in its source document.
type LayoutPatch struct {
	Scale           *float64 `json:"scale,omitempty"`
	X               *Length  `json:"x,omitempty"`
	Y               *Length  `json:"y,omitempty"`
	Mirror          *bool    `json:"mirror,omitempty"`
	TransformOrigin *string  `json:"transform_origin,omitempty"`
}

func (l Layout) Apply(p LayoutPatch) Layout {
	if p.Scale != nil {
		l.Scale = *p.Scale
	}
	if p.X != nil {
		l.X = *p.X
	}
	if p.Y != nil {
		l.Y = *p.Y
	}
	if p.Mirror != nil {
		l.Mirror = *p.Mirror
	}
	if p.TransformOrigin != nil {
		l.TransformOrigin = *p.TransformOrigin
	}
	return l
}

// FoldLayout applies patches in order over the defaults.
func FoldLayout(patches ...LayoutPatch) Layout {
	layout := DefaultLayout()
	for _, patch := range patches {
		layout = layout.Apply(patch)
	}
	return layout
}

// LayoutLayer is one layout.json: top-level defaults plus per-file overrides.
type LayoutLayer struct {
	LayoutPatch
	Overrides map[string]LayoutPatch `json:"overrides,omitempty"`
}

// Patches returns the layer defaults followed by the override for rel,
// matched by full relative path before bare filename.
func (l LayoutLayer) Patches(rel string) []LayoutPatch {
	patches := []LayoutPatch{l.LayoutPatch}
	if override, ok := lookupByPath(l.Overrides, rel); ok {
		patches = append(patches, override)
	}
	return patches
}

// LocationLayout is keyed by background, then by pose file.
type LocationLayout map[string]map[string]LayoutPatch

func (l LocationLayout) Patch(background, rel string) (LayoutPatch, bool) {
	if background == "" {
		return LayoutPatch{}, false
	}
	byPose, ok := lookupByPath(l, background)
	if !ok {
		return LayoutPatch{}, false
	}
	return lookupByPath(byPose, rel)
}

func lookupByPath[V any](entries map[string]V, rel string) (V, bool) {
	if value, ok := entries[rel]; ok {
		return value, true
	}
	value, ok := entries[path.Base(rel)]
	return value, ok
}
