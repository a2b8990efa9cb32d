package postgres

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/riskibarqy/fpl-oracle/internal/domain/dataset"
	"github.com/riskibarqy/fpl-oracle/internal/domain/rawdata"
	qb "github.com/riskibarqy/fpl-oracle/internal/platform/querybuilder"
)

// Postgres caps a statement at 65535 bind parameters; the widest model has
// 23 columns.
const insertChunkSize = 500

var (
	_ dataset.Archive    = (*DatasetArchive)(nil)
	_ rawdata.Repository = (*RawDataRepository)(nil)
)

var (
	featureUpsertSuffix = qb.UpsertSuffix(
		[]string{"gameweek", "player_id"},
		[]string{
			"run_id", "full_name", "team_name", "player_position", "current_fpl_cost",
			"playing_time_min_percentage", "xg_per_90", "xag_per_90", "yellows_per_90", "reds_per_90",
			"clearances_blocks_interceptions_per_90", "tackles_per_90", "team_xg_per_90", "team_xg_against_per_90",
			"opponent_team", "opponent_xg_per_90", "opponent_xg_against_per_90", "opponent_league_position",
			"is_at_home", "team_league_position", "fixtures_in_gameweek",
		},
	) + ", updated_at = NOW()"

	labelUpsertSuffix = qb.UpsertSuffix(
		[]string{"gameweek", "player_id"},
		[]string{"run_id", "full_name", "gw_points"},
	) + ", updated_at = NOW()"

	rawDataUpsertSuffix = qb.UpsertSuffix(
		[]string{"source", "entity_type", "entity_key"},
		[]string{"run_id", "payload", "payload_hash", "fetched_at"},
	) + ", ingested_at = NOW()"
)

// DatasetArchive mirrors written feature and label rows into Postgres.
// Re-running a gameweek overwrites its rows.
type DatasetArchive struct {
	db *sqlx.DB
}

func NewDatasetArchive(db *sqlx.DB) *DatasetArchive {
	return &DatasetArchive{db: db}
}

func (a *DatasetArchive) SaveFeatures(ctx context.Context, runID string, rows []dataset.FeatureRow) error {
	models := make([]featureRowInsertModel, 0, len(rows))
	for _, r := range rows {
		models = append(models, toFeatureModel(runID, r))
	}
	return upsertInTx(ctx, a.db, "feature_rows", models, featureUpsertSuffix)
}

func (a *DatasetArchive) SaveLabels(ctx context.Context, runID string, rows []dataset.LabelRow) error {
	models := make([]labelRowInsertModel, 0, len(rows))
	for _, r := range rows {
		models = append(models, toLabelModel(runID, r))
	}
	return upsertInTx(ctx, a.db, "label_rows", models, labelUpsertSuffix)
}

type RawDataRepository struct {
	db *sqlx.DB
}

func NewRawDataRepository(db *sqlx.DB) *RawDataRepository {
	return &RawDataRepository{db: db}
}

func (r *RawDataRepository) UpsertMany(ctx context.Context, runID string, items []rawdata.Payload) error {
	// One payload per conflict key per statement, or Postgres rejects the
	// batch; the latest fetch wins.
	latest := make(map[string]int, len(items))
	models := make([]rawDataPayloadInsertModel, 0, len(items))
	for _, item := range items {
		key := item.Source + "\x00" + item.EntityType + "\x00" + item.EntityKey
		if idx, ok := latest[key]; ok {
			models[idx] = toRawDataModel(runID, item)
			continue
		}
		latest[key] = len(models)
		models = append(models, toRawDataModel(runID, item))
	}
	return upsertInTx(ctx, r.db, "raw_data_payloads", models, rawDataUpsertSuffix)
}

func upsertInTx[T any](ctx context.Context, db *sqlx.DB, table string, models []T, suffix string) error {
	if len(models) == 0 {
		return nil
	}

	tx, err := db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx upsert %s: %w", table, err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	for _, chunk := range chunks(models, insertChunkSize) {
		query, args, err := qb.InsertModels(table, chunk, suffix)
		if err != nil {
			return fmt.Errorf("build upsert %s query: %w", table, err)
		}
		if _, err := tx.ExecContext(ctx, query, args...); err != nil {
			return fmt.Errorf("upsert %s rows=%d: %w", table, len(chunk), err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit upsert %s tx: %w", table, err)
	}
	return nil
}

func chunks[T any](items []T, size int) [][]T {
	if size <= 0 {
		size = len(items)
	}
	out := make([][]T, 0, (len(items)+size-1)/max(size, 1))
	for start := 0; start < len(items); start += size {
		end := min(start+size, len(items))
		out = append(out, items[start:end])
	}
	return out
}
