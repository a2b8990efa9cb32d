package dataset

import "context"

// Store persists the weekly feature and label files.
type Store interface {
	CapturedGameweeks(ctx context.Context) ([]int, error)
	FeaturesExist(ctx context.Context, gameweek int) (bool, error)
	// ReadFeatures returns ok=false when no feature set exists for the gameweek.
	ReadFeatures(ctx context.Context, gameweek int) (rows []FeatureRow, ok bool, err error)
	WriteFeatures(ctx context.Context, gameweek int, rows []FeatureRow) error
	WriteLabels(ctx context.Context, gameweek int, rows []LabelRow) error
}

// Archive mirrors written rows into a queryable store.
type Archive interface {
	SaveFeatures(ctx context.Context, runID string, rows []FeatureRow) error
	SaveLabels(ctx context.Context, runID string, rows []LabelRow) error
}
