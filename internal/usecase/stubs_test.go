package usecase

import (
	"context"
	"slices"
	"sync"

	"github.com/stretchr/testify/mock"

	"github.com/riskibarqy/fpl-oracle/internal/domain/dataset"
	"github.com/riskibarqy/fpl-oracle/internal/domain/fixture"
	"github.com/riskibarqy/fpl-oracle/internal/domain/player"
	"github.com/riskibarqy/fpl-oracle/internal/domain/playerstats"
	"github.com/riskibarqy/fpl-oracle/internal/domain/team"
)

type stubFantasy struct {
	players    []player.Player
	standings  []team.Standing
	fixtures   []fixture.Fixture
	finished   []fixture.Fixture
	next       int
	histories  map[int64][]playerstats.RoundHistory
	historyErr map[int64]error
}

func (s *stubFantasy) ListPlayers(context.Context) ([]player.Player, error) {
	return slices.Clone(s.players), nil
}

func (s *stubFantasy) ListTeamsWithStanding(context.Context) ([]team.Standing, error) {
	return slices.Clone(s.standings), nil
}

func (s *stubFantasy) NextGameweek(context.Context) (int, error) {
	if s.next == 0 {
		return 0, ErrNotFound
	}
	return s.next, nil
}

func (s *stubFantasy) ListFixtures(_ context.Context, gameweek int) ([]fixture.Fixture, error) {
	var out []fixture.Fixture
	for _, f := range s.fixtures {
		if f.Gameweek == gameweek {
			out = append(out, f)
		}
	}
	return out, nil
}

func (s *stubFantasy) ListFinishedFixtures(context.Context) ([]fixture.Fixture, error) {
	return slices.Clone(s.finished), nil
}

func (s *stubFantasy) PlayerHistory(_ context.Context, playerID int64) ([]playerstats.RoundHistory, error) {
	if err := s.historyErr[playerID]; err != nil {
		return nil, err
	}
	return s.histories[playerID], nil
}

type stubStats struct {
	source  string
	records []playerstats.SeasonRecord
	dropped []playerstats.DroppedRow
}

func (s stubStats) Source() string { return s.source }

func (s stubStats) PlayerSeasonStats(context.Context, string) (playerstats.SeasonStats, error) {
	return playerstats.SeasonStats{Records: slices.Clone(s.records), Dropped: slices.Clone(s.dropped)}, nil
}

type stubTeams struct {
	source  string
	matches map[string][]team.Match
	errs    map[string]error
}

func (s stubTeams) Source() string { return s.source }

func (s stubTeams) ListTeams(context.Context, string) ([]string, error) {
	names := make([]string, 0, len(s.matches)+len(s.errs))
	for name := range s.matches {
		names = append(names, name)
	}
	for name := range s.errs {
		names = append(names, name)
	}
	slices.Sort(names)
	return names, nil
}

func (s stubTeams) TeamMatchHistory(_ context.Context, name, _ string) ([]team.Match, error) {
	if err := s.errs[name]; err != nil {
		return nil, err
	}
	return s.matches[name], nil
}

// memStore keeps written files in memory.
type memStore struct {
	mu       sync.Mutex
	features map[int][]dataset.FeatureRow
	labels   map[int][]dataset.LabelRow
}

func newMemStore() *memStore {
	return &memStore{features: map[int][]dataset.FeatureRow{}, labels: map[int][]dataset.LabelRow{}}
}

func (m *memStore) CapturedGameweeks(context.Context) ([]int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]int, 0, len(m.features))
	for gw := range m.features {
		out = append(out, gw)
	}
	slices.Sort(out)
	return out, nil
}

func (m *memStore) FeaturesExist(_ context.Context, gameweek int) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.features[gameweek]
	return ok, nil
}

func (m *memStore) ReadFeatures(_ context.Context, gameweek int) ([]dataset.FeatureRow, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	rows, ok := m.features[gameweek]
	return rows, ok, nil
}

func (m *memStore) WriteFeatures(_ context.Context, gameweek int, rows []dataset.FeatureRow) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.features[gameweek] = rows
	return nil
}

func (m *memStore) WriteLabels(_ context.Context, gameweek int, rows []dataset.LabelRow) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.labels[gameweek] = rows
	return nil
}

type mockStore struct {
	mock.Mock
}

func (m *mockStore) CapturedGameweeks(ctx context.Context) ([]int, error) {
	args := m.Called(ctx)
	return args.Get(0).([]int), args.Error(1)
}

func (m *mockStore) FeaturesExist(ctx context.Context, gameweek int) (bool, error) {
	args := m.Called(ctx, gameweek)
	return args.Bool(0), args.Error(1)
}

func (m *mockStore) ReadFeatures(ctx context.Context, gameweek int) ([]dataset.FeatureRow, bool, error) {
	args := m.Called(ctx, gameweek)
	return args.Get(0).([]dataset.FeatureRow), args.Bool(1), args.Error(2)
}

func (m *mockStore) WriteFeatures(ctx context.Context, gameweek int, rows []dataset.FeatureRow) error {
	return m.Called(ctx, gameweek, rows).Error(0)
}

func (m *mockStore) WriteLabels(ctx context.Context, gameweek int, rows []dataset.LabelRow) error {
	return m.Called(ctx, gameweek, rows).Error(0)
}
