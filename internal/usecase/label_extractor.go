package usecase

import (
	"context"
	"fmt"

	"github.com/cockroachdb/errors"

	"github.com/riskibarqy/fpl-oracle/internal/domain/dataset"
	"github.com/riskibarqy/fpl-oracle/internal/domain/playerstats"
	"github.com/riskibarqy/fpl-oracle/internal/platform/logging"
	"go.opentelemetry.io/otel/attribute"
)

// LabelExtractor reads back the realized points for players that were in a
// gameweek's feature set.
type LabelExtractor struct {
	fantasy FantasyProvider
	store   dataset.Store
	workers int
	logger  *logging.Logger
}

func NewLabelExtractor(fantasy FantasyProvider, store dataset.Store, workers int, logger *logging.Logger) *LabelExtractor {
	if logger == nil {
		logger = logging.Default()
	}
	return &LabelExtractor{
		fantasy: fantasy,
		store:   store,
		workers: workers,
		logger:  logger,
	}
}

// labelTarget is one feature row to label. playerID is 0 when the row had
// no id and its name is no longer in the player pool.
type labelTarget struct {
	playerID int64
	fullName string
}

// Extract returns one label per feature row of the gameweek. A player with
// no record for that round scores 0, including players removed from the
// game or no longer in the pool. When the gameweek has no feature set it
// returns ErrMissingFeatureFile and no rows.
func (e *LabelExtractor) Extract(ctx context.Context, gameweek int) ([]dataset.LabelRow, []EntityOutcome, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.LabelExtractor.Extract", attribute.Int("gameweek", gameweek))
	defer span.End()

	if gameweek <= 0 {
		return nil, nil, fmt.Errorf("%w: gameweek must be positive", ErrInvalidInput)
	}

	features, ok, err := e.store.ReadFeatures(ctx, gameweek)
	if err != nil {
		recordSpanError(span, err)
		return nil, nil, fmt.Errorf("read features for gameweek %d: %w", gameweek, err)
	}
	if !ok {
		return nil, nil, fmt.Errorf("%w: gameweek %d", ErrMissingFeatureFile, gameweek)
	}

	targets, err := e.resolveTargets(ctx, features)
	if err != nil {
		recordSpanError(span, err)
		return nil, nil, err
	}

	ids := make([]int64, 0, len(targets))
	for _, t := range targets {
		if t.playerID > 0 {
			ids = append(ids, t.playerID)
		}
	}
	results, err := fanOut(ctx, "label_history", e.workers, ids, func(ctx context.Context, id int64) (int, error) {
		history, err := e.fantasy.PlayerHistory(ctx, id)
		if errors.Is(err, ErrNotFound) {
			return 0, nil
		}
		if err != nil {
			return 0, err
		}
		return playerstats.PointsInRound(history, gameweek), nil
	})
	if err != nil {
		recordSpanError(span, err)
		return nil, nil, err
	}
	byID := make(map[int64]fanoutResult[int], len(results))
	for i, res := range results {
		byID[ids[i]] = res
	}

	labels := make([]dataset.LabelRow, 0, len(targets))
	var skipped []EntityOutcome
	unresolved := 0
	for _, t := range targets {
		points := 0
		if t.playerID > 0 {
			res := byID[t.playerID]
			if res.outcome.Status != entityStatusSuccess {
				skipped = append(skipped, res.outcome)
				continue
			}
			points = res.value
		} else {
			unresolved++
		}
		labels = append(labels, dataset.LabelRow{
			PlayerID: t.playerID,
			FullName: t.fullName,
			Gameweek: gameweek,
			GWPoints: points,
		})
	}

	e.logger.InfoContext(ctx, "labels extracted",
		"gameweek", gameweek,
		"feature_rows", len(features),
		"labels", len(labels),
		"not_in_pool", unresolved,
		"skipped", len(skipped),
	)
	return labels, skipped, nil
}

// resolveTargets takes player ids from the feature rows. Rows written
// without an id are resolved by full name against the current player pool.
func (e *LabelExtractor) resolveTargets(ctx context.Context, features []dataset.FeatureRow) ([]labelTarget, error) {
	targets := make([]labelTarget, 0, len(features))
	seenID := make(map[int64]struct{}, len(features))
	seenName := make(map[string]struct{})
	var byName map[string]int64

	for _, row := range features {
		id := row.PlayerID
		if id <= 0 {
			if byName == nil {
				players, err := e.fantasy.ListPlayers(ctx)
				if err != nil {
					return nil, fmt.Errorf("list players for label lookup: %w", err)
				}
				byName = make(map[string]int64, len(players))
				for _, p := range players {
					if _, exists := byName[p.FullName()]; !exists {
						byName[p.FullName()] = p.ID
					}
				}
			}
			id = byName[row.FullName]
		}
		if id <= 0 {
			if _, dup := seenName[row.FullName]; dup {
				continue
			}
			seenName[row.FullName] = struct{}{}
			targets = append(targets, labelTarget{fullName: row.FullName})
			continue
		}
		if _, dup := seenID[id]; dup {
			continue
		}
		seenID[id] = struct{}{}
		targets = append(targets, labelTarget{playerID: id, fullName: row.FullName})
	}
	return targets, nil
}
