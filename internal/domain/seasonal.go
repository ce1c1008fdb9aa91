package domain

import "time"

var christmasBackgrounds = map[string]string{
	"bedroom.png":     "christmas/bedroom.png",
	"living_room.png": "christmas/living_room.png",
	"cafe.png":        "christmas/cafe.png",
	"park.png":        "christmas/park.png",
	"street.png":      "christmas/street.png",
	"kitchen.png":     "christmas/kitchen.png",
}

// SeasonalBackground substitutes the December variant of base when one is
// mapped and exists reports it present for the familiar.
func SeasonalBackground(base string, now time.Time, exists func(string) bool) string {
	if now.Month() != time.December {
		return base
	}
	variant, ok := christmasBackgrounds[base]
	if !ok || exists == nil || !exists(variant) {
		return base
	}
	return variant
}
