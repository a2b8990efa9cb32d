package filestore

import (
	"context"
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strconv"

	crerr "github.com/cockroachdb/errors"
	"github.com/valyala/bytebufferpool"

	"github.com/riskibarqy/fpl-oracle/internal/domain/dataset"
	"github.com/riskibarqy/fpl-oracle/internal/platform/logging"
)

var featureFilePattern = regexp.MustCompile(`^X_(\d+)\.csv$`)

var _ dataset.Store = (*Store)(nil)

// Store keeps X_<gw>.csv feature files and y_<gw>.csv label files in one
// directory. Files are written to a temp name and renamed into place, so a
// reader never sees a partial file.
type Store struct {
	dir    string
	logger *logging.Logger
}

func NewStore(dir string, logger *logging.Logger) (*Store, error) {
	if dir == "" {
		return nil, fmt.Errorf("data dir is required")
	}
	if logger == nil {
		logger = logging.Default()
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, crerr.Wrapf(err, "create data dir %s", dir)
	}
	return &Store{dir: dir, logger: logger}, nil
}

func FeaturePath(dir string, gameweek int) string {
	return filepath.Join(dir, fmt.Sprintf("X_%d.csv", gameweek))
}

func LabelPath(dir string, gameweek int) string {
	return filepath.Join(dir, fmt.Sprintf("y_%d.csv", gameweek))
}

// CapturedGameweeks lists gameweeks with a feature file, ascending.
func (s *Store) CapturedGameweeks(ctx context.Context) ([]int, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		return nil, crerr.Wrapf(err, "list data dir %s", s.dir)
	}

	out := make([]int, 0, len(entries))
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		m := featureFilePattern.FindStringSubmatch(e.Name())
		if m == nil {
			continue
		}
		gw, err := strconv.Atoi(m[1])
		if err != nil || gw <= 0 {
			continue
		}
		out = append(out, gw)
	}
	sort.Ints(out)
	return out, nil
}

func (s *Store) FeaturesExist(ctx context.Context, gameweek int) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}
	_, err := os.Stat(FeaturePath(s.dir, gameweek))
	switch {
	case err == nil:
		return true, nil
	case os.IsNotExist(err):
		return false, nil
	default:
		return false, crerr.Wrapf(err, "stat feature file gameweek=%d", gameweek)
	}
}

func (s *Store) ReadFeatures(ctx context.Context, gameweek int) ([]dataset.FeatureRow, bool, error) {
	if err := ctx.Err(); err != nil {
		return nil, false, err
	}
	path := FeaturePath(s.dir, gameweek)
	f, err := os.Open(path)
	if os.IsNotExist(err) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, crerr.Wrapf(err, "open %s", path)
	}
	defer f.Close()

	records, err := csv.NewReader(f).ReadAll()
	if err != nil {
		return nil, true, crerr.Wrapf(err, "read %s", path)
	}
	rows, err := decodeFeatures(records)
	if err != nil {
		return nil, true, crerr.Wrapf(err, "decode %s", path)
	}
	return rows, true, nil
}

func (s *Store) WriteFeatures(ctx context.Context, gameweek int, rows []dataset.FeatureRow) error {
	records := make([][]string, 0, len(rows))
	for _, row := range rows {
		records = append(records, encodeFeature(row))
	}
	if err := s.writeAtomic(ctx, FeaturePath(s.dir, gameweek), dataset.FeatureColumns, records); err != nil {
		return err
	}
	s.logger.InfoContext(ctx, "feature file written", "gameweek", gameweek, "rows", len(rows))
	return nil
}

func (s *Store) WriteLabels(ctx context.Context, gameweek int, rows []dataset.LabelRow) error {
	records := make([][]string, 0, len(rows))
	for _, row := range rows {
		records = append(records, encodeLabel(row))
	}
	if err := s.writeAtomic(ctx, LabelPath(s.dir, gameweek), dataset.LabelColumns, records); err != nil {
		return err
	}
	s.logger.InfoContext(ctx, "label file written", "gameweek", gameweek, "rows", len(rows))
	return nil
}

func (s *Store) writeAtomic(ctx context.Context, path string, header []string, records [][]string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	buf := bytebufferpool.Get()
	defer bytebufferpool.Put(buf)

	w := csv.NewWriter(buf)
	if err := w.Write(header); err != nil {
		return crerr.Wrap(err, "encode csv header")
	}
	if err := w.WriteAll(records); err != nil {
		return crerr.Wrap(err, "encode csv rows")
	}

	tmp, err := os.CreateTemp(s.dir, "."+filepath.Base(path)+".*.tmp")
	if err != nil {
		return crerr.Wrapf(err, "create temp file for %s", path)
	}
	tmpName := tmp.Name()
	committed := false
	defer func() {
		if !committed {
			_ = os.Remove(tmpName)
		}
	}()

	if _, err := tmp.Write(buf.B); err != nil {
		_ = tmp.Close()
		return crerr.Wrapf(err, "write %s", tmpName)
	}
	if err := tmp.Sync(); err != nil {
		_ = tmp.Close()
		return crerr.Wrapf(err, "sync %s", tmpName)
	}
	if err := tmp.Close(); err != nil {
		return crerr.Wrapf(err, "close %s", tmpName)
	}
	if err := os.Rename(tmpName, path); err != nil {
		return crerr.Wrapf(err, "rename %s to %s", tmpName, path)
	}
	committed = true
	return nil
}
