package ports

import (
	"context"

	"github.com/bnema/familiar-bridge/internal/domain"
)

// LayoutRequest selects the layers a layout resolution folds.
type LayoutRequest struct {
	Pose       string
	Background string
	Committee  bool
}

// Assets reads the files a familiar's author maintains. Reads are
// best-effort: missing or unreadable files yield empty values.
type Assets interface {
	Meta(ctx context.Context, id domain.FamiliarID) domain.Meta
	Activities(ctx context.Context, id domain.FamiliarID) domain.ActivityList
	Poses(ctx context.Context, id domain.FamiliarID) []domain.Pose
	Backgrounds(ctx context.Context, id domain.FamiliarID) []domain.Background
	BackgroundExists(ctx context.Context, id domain.FamiliarID, rel string) bool
	ResolveLayout(ctx context.Context, id domain.FamiliarID, req LayoutRequest) domain.Layout
}
