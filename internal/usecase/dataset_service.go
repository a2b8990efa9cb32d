package usecase

import (
	"context"
	"fmt"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/sourcegraph/conc/iter"
	"github.com/sourcegraph/conc/panics"
	"go.opentelemetry.io/otel/attribute"

	"github.com/riskibarqy/fpl-oracle/internal/domain/alias"
	"github.com/riskibarqy/fpl-oracle/internal/domain/dataset"
	"github.com/riskibarqy/fpl-oracle/internal/domain/fixture"
	"github.com/riskibarqy/fpl-oracle/internal/domain/playerstats"
	"github.com/riskibarqy/fpl-oracle/internal/domain/rawdata"
	"github.com/riskibarqy/fpl-oracle/internal/domain/team"
	"github.com/riskibarqy/fpl-oracle/internal/platform/logging"
)

type DatasetConfig struct {
	// StatSeason and TeamSeason are in the format each provider expects.
	StatSeason            string
	TeamSeason            string
	MatchThreshold        int
	PlayingTimeThreshold  float64
	DefensiveStatsEnabled bool
	FetchMaxWorkers       int
}

// DatasetDeps wires providers and sinks. Teams, Archive, RawData and
// Recorder are optional.
type DatasetDeps struct {
	Fantasy  FantasyProvider
	Stats    PlayerStatProvider
	Teams    TeamStatProvider
	Aliases  *alias.Table
	Store    dataset.Store
	Archive  dataset.Archive
	RawData  rawdata.Repository
	Recorder *rawdata.Recorder
}

// DatasetService produces the weekly feature file and the previous
// gameweek's labels.
type DatasetService struct {
	cfg      DatasetConfig
	deps     DatasetDeps
	matcher  EntityMatcher
	labels   *LabelExtractor
	validate *validator.Validate
	logger   *logging.Logger
	now      func() time.Time
	newRunID func() string
}

func NewDatasetService(cfg DatasetConfig, deps DatasetDeps, logger *logging.Logger) *DatasetService {
	if logger == nil {
		logger = logging.Default()
	}
	if cfg.FetchMaxWorkers < 1 {
		cfg.FetchMaxWorkers = 1
	}

	return &DatasetService{
		cfg:      cfg,
		deps:     deps,
		matcher:  NewEntityMatcher(cfg.MatchThreshold),
		labels:   NewLabelExtractor(deps.Fantasy, deps.Store, cfg.FetchMaxWorkers, logger),
		validate: validator.New(validator.WithRequiredStructEnabled()),
		logger:   logger,
		now:      time.Now,
		newRunID: func() string { return uuid.NewString() },
	}
}

// ResolveGameweek returns override when set, otherwise the next unplayed
// gameweek announced by the fantasy game.
func (s *DatasetService) ResolveGameweek(ctx context.Context, override int) (int, error) {
	if override > 0 {
		return override, nil
	}
	if override < 0 {
		return 0, fmt.Errorf("%w: gameweek must be positive, got %d", ErrInvalidInput, override)
	}
	gw, err := s.deps.Fantasy.NextGameweek(ctx)
	if err != nil {
		return 0, fmt.Errorf("resolve next gameweek: %w", err)
	}
	return gw, nil
}

func (s *DatasetService) CapturedGameweeks(ctx context.Context) ([]int, error) {
	return s.deps.Store.CapturedGameweeks(ctx)
}

// Run builds X_<gameweek> and y_<gameweek-1> and writes them only after
// both were built. A gameweek that is already captured is left untouched
// and ErrAlreadyCaptured is returned with the report.
func (s *DatasetService) Run(ctx context.Context, gameweek int) (report RunReport, err error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.DatasetService.Run", attribute.Int("gameweek", gameweek))
	defer span.End()

	start := s.now()
	report = RunReport{RunID: s.newRunID(), Gameweek: gameweek}
	logger := s.logger.With("run_id", report.RunID, "gameweek", gameweek)
	defer func() { report.DurationMs = s.now().Sub(start).Milliseconds() }()

	if gameweek <= 0 {
		return report, fmt.Errorf("%w: gameweek must be positive, got %d", ErrInvalidInput, gameweek)
	}

	exists, err := s.deps.Store.FeaturesExist(ctx, gameweek)
	if err != nil {
		recordSpanError(span, err)
		return report, fmt.Errorf("check captured gameweek: %w", err)
	}
	if exists {
		report.AlreadyCaptured = true
		logger.InfoContext(ctx, "gameweek already captured, nothing to do")
		return report, ErrAlreadyCaptured
	}

	rows, err := s.BuildFeatures(ctx, gameweek, &report, logger)
	if err != nil {
		recordSpanError(span, err)
		return report, err
	}
	for i := range rows {
		if err := s.validate.StructCtx(ctx, rows[i]); err != nil {
			return report, fmt.Errorf("feature row for player %d failed validation: %w", rows[i].PlayerID, err)
		}
	}

	var (
		labels     []dataset.LabelRow
		haveLabels bool
	)
	if gameweek > 1 {
		labels, haveLabels, err = s.prepareLabels(ctx, gameweek-1, &report, logger)
		if err != nil {
			recordSpanError(span, err)
			return report, err
		}
	}

	if err := s.deps.Store.WriteFeatures(ctx, gameweek, rows); err != nil {
		recordSpanError(span, err)
		return report, fmt.Errorf("write features for gameweek %d: %w", gameweek, err)
	}
	report.FeatureRows = len(rows)
	logger.InfoContext(ctx, "feature set written", "rows", len(rows))

	if haveLabels {
		// X is committed; a failed label write is recoverable with -mode labels.
		if err := s.deps.Store.WriteLabels(ctx, gameweek-1, labels); err != nil {
			report.LabelsSkipped = "label write failed"
			logger.ErrorContext(ctx, "write labels failed", "label_gameweek", gameweek-1, "error", err)
			labels = nil
		} else {
			report.LabelRows = len(labels)
		}
	}

	s.archive(ctx, &report, rows, labels, logger)
	return report, nil
}

// ExtractLabels writes y_<gameweek> for an already captured gameweek.
func (s *DatasetService) ExtractLabels(ctx context.Context, gameweek int) (RunReport, error) {
	report := RunReport{RunID: s.newRunID(), Gameweek: gameweek}
	logger := s.logger.With("run_id", report.RunID, "label_gameweek", gameweek)
	labels, ok, err := s.prepareLabels(ctx, gameweek, &report, logger)
	if err != nil || !ok {
		return report, err
	}
	if err := s.deps.Store.WriteLabels(ctx, gameweek, labels); err != nil {
		return report, fmt.Errorf("write labels for gameweek %d: %w", gameweek, err)
	}
	report.LabelRows = len(labels)
	s.archive(ctx, &report, nil, labels, logger)
	return report, nil
}

// prepareLabels extracts and validates y_<gameweek> without writing it.
// ok is false when the gameweek has no feature set.
func (s *DatasetService) prepareLabels(ctx context.Context, gameweek int, report *RunReport, logger *logging.Logger) (labels []dataset.LabelRow, ok bool, err error) {
	report.LabelGameweek = gameweek
	labels, skipped, err := s.labels.Extract(ctx, gameweek)
	if errors.Is(err, ErrMissingFeatureFile) {
		report.LabelsSkipped = "no feature set captured"
		logger.WarnContext(ctx, "skip labels: no feature set for gameweek", "label_gameweek", gameweek)
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("extract labels for gameweek %d: %w", gameweek, err)
	}
	report.Skipped = append(report.Skipped, skipped...)

	for i := range labels {
		if err := s.validate.StructCtx(ctx, labels[i]); err != nil {
			return nil, false, fmt.Errorf("label row for %q failed validation: %w", labels[i].FullName, err)
		}
	}
	return labels, true, nil
}

// BuildFeatures fetches every source, canonicalizes names, derives
// metrics, matches players and assembles the feature rows. Nothing is
// written; any fatal error leaves no partial output.
func (s *DatasetService) BuildFeatures(ctx context.Context, gameweek int, report *RunReport, logger *logging.Logger) ([]dataset.FeatureRow, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.DatasetService.BuildFeatures")
	defer span.End()

	players, err := s.deps.Fantasy.ListPlayers(ctx)
	if err != nil {
		return nil, fmt.Errorf("list players: %w", err)
	}
	for i := range players {
		players[i].TeamName = s.canonicalTeam(alias.SourceFPL, players[i].TeamName)
	}
	report.PlayersFetched = len(players)

	standings, err := s.resolveStandings(ctx, report, logger)
	if err != nil {
		return nil, err
	}

	fixtures, err := s.deps.Fantasy.ListFixtures(ctx, gameweek)
	if err != nil {
		return nil, fmt.Errorf("list fixtures for gameweek %d: %w", gameweek, err)
	}
	if len(fixtures) == 0 {
		return nil, fmt.Errorf("%w: no fixtures scheduled for gameweek %d", ErrNotFound, gameweek)
	}
	s.canonicalFixtures(fixtures)

	stats, err := s.deps.Stats.PlayerSeasonStats(ctx, s.cfg.StatSeason)
	if err != nil {
		return nil, fmt.Errorf("fetch %s player stats: %w", s.deps.Stats.Source(), err)
	}
	for _, d := range stats.Dropped {
		report.Skipped = append(report.Skipped, EntityOutcome{Stage: "stat_rows", Key: d.Name, Status: entityStatusSkipped, Reason: d.Reason})
	}
	records := stats.Records
	statSource := alias.Source(s.deps.Stats.Source())
	for i := range records {
		records[i].Name = s.deps.Aliases.Normalize(statSource, alias.EntityPlayer, records[i].Name)
	}
	report.StatRecords = len(records)

	eligible, excluded := FilterEligible(records, s.cfg.PlayingTimeThreshold)
	report.EligibleStats = len(eligible)
	report.ExcludedByPlayingTime = excluded

	matched := s.matcher.MatchPlayers(players, eligible)
	report.MatchedPlayers = len(matched.Matched)
	report.MatchCollisionsDropped = matched.CollisionsDropped
	for _, u := range matched.Unmatched {
		report.UnmatchedPlayers = append(report.UnmatchedPlayers, u.Query)
	}
	logger.InfoContext(ctx, "players matched to stat records",
		"stat_source", statSource,
		"matched", report.MatchedPlayers,
		"unmatched", len(matched.Unmatched),
		"collisions_dropped", matched.CollisionsDropped,
		"excluded_by_playing_time", excluded,
	)
	logger.DebugContext(ctx, "unmatched players", "names", report.UnmatchedPlayers)

	var defensive map[int64]playerstats.DefensiveTotals
	if s.cfg.DefensiveStatsEnabled {
		defensive, err = s.defensiveTotals(ctx, matched.Matched, gameweek, report)
		if err != nil {
			return nil, err
		}
	}

	aggregates, err := s.teamAggregates(ctx, standings, fixtures, report, logger)
	if err != nil {
		return nil, err
	}

	rows, assembly := AssembleFeatures(AssemblyInput{
		Gameweek:       gameweek,
		Matches:        matched.Matched,
		Standings:      standings,
		Fixtures:       fixtures,
		TeamAggregates: aggregates,
		Defensive:      defensive,
	})
	report.Assembly = assembly
	if assembly.WithoutFixture > 0 || assembly.WithoutTeam > 0 {
		logger.InfoContext(ctx, "players dropped during assembly",
			"without_fixture", assembly.WithoutFixture,
			"without_team", assembly.WithoutTeam,
		)
	}
	return rows, nil
}

func (s *DatasetService) resolveStandings(ctx context.Context, report *RunReport, logger *logging.Logger) ([]team.Standing, error) {
	provided, err := s.deps.Fantasy.ListTeamsWithStanding(ctx)
	if err != nil {
		return nil, fmt.Errorf("list standings: %w", err)
	}
	for i := range provided {
		provided[i].Name = s.canonicalTeam(alias.SourceFPL, provided[i].Name)
	}
	if err := team.ValidatePositions(provided); err == nil {
		return provided, nil
	}

	finished, err := s.deps.Fantasy.ListFinishedFixtures(ctx)
	if err != nil {
		return nil, fmt.Errorf("list finished fixtures for standings: %w", err)
	}
	s.canonicalFixtures(finished)

	standings, _, validationErr := ResolveStandings(provided, finished)
	if len(standings) != len(provided) {
		return nil, errors.Wrapf(ErrInvalidStandings, "provider standings: %v", validationErr)
	}
	if err := team.ValidatePositions(standings); err != nil {
		return nil, errors.Wrapf(ErrInvalidStandings, "rebuilt standings: %v", err)
	}
	report.StandingsRebuilt = true
	logger.WarnContext(ctx, "provider standings invalid, rebuilt from finished fixtures",
		"reason", validationErr,
		"finished_fixtures", len(finished),
	)
	return standings, nil
}

func (s *DatasetService) defensiveTotals(ctx context.Context, matches []PlayerMatch, gameweek int, report *RunReport) (map[int64]playerstats.DefensiveTotals, error) {
	ids := make([]int64, len(matches))
	for i, m := range matches {
		ids[i] = m.Player.ID
	}

	results, err := fanOut(ctx, "player_history", s.cfg.FetchMaxWorkers, ids, func(ctx context.Context, id int64) (playerstats.DefensiveTotals, error) {
		history, err := s.deps.Fantasy.PlayerHistory(ctx, id)
		if err != nil {
			return playerstats.DefensiveTotals{}, err
		}
		return playerstats.SumDefensive(history, gameweek-1), nil
	})
	if err != nil {
		return nil, err
	}

	out := make(map[int64]playerstats.DefensiveTotals, len(results))
	for i, res := range results {
		if res.outcome.Status != entityStatusSuccess {
			report.Skipped = append(report.Skipped, res.outcome)
			continue
		}
		out[ids[i]] = res.value
	}
	return out, nil
}

type teamAggregateOutcome struct {
	aggregate team.Aggregate
	ok        bool
	outcome   EntityOutcome
	fatal     error
}

// teamAggregates computes per-club expected goals from matches played
// before the gameweek's first kickoff.
func (s *DatasetService) teamAggregates(
	ctx context.Context,
	standings []team.Standing,
	fixtures []fixture.Fixture,
	report *RunReport,
	logger *logging.Logger,
) (map[string]team.Aggregate, error) {
	out := make(map[string]team.Aggregate)
	if s.deps.Teams == nil {
		return out, nil
	}

	names, err := s.deps.Teams.ListTeams(ctx, s.cfg.TeamSeason)
	if err != nil {
		return nil, fmt.Errorf("list %s teams: %w", s.deps.Teams.Source(), err)
	}

	asOf := s.now()
	for _, f := range fixtures {
		if !f.KickoffAt.IsZero() && f.KickoffAt.Before(asOf) {
			asOf = f.KickoffAt
		}
	}

	known := make(map[string]struct{}, len(standings))
	for _, st := range standings {
		known[st.Name] = struct{}{}
	}
	source := alias.Source(s.deps.Teams.Source())

	mapper := iter.Mapper[string, teamAggregateOutcome]{MaxGoroutines: s.cfg.FetchMaxWorkers}
	outcomes := mapper.Map(names, func(name *string) teamAggregateOutcome {
		providerName := *name
		canonical := s.canonicalTeam(source, providerName)
		res := teamAggregateOutcome{outcome: EntityOutcome{Stage: "team_history", Key: canonical, Status: entityStatusSuccess}}
		if _, ok := known[canonical]; !ok {
			res.outcome.Status = entityStatusSkipped
			res.outcome.Reason = fmt.Sprintf("no canonical club for %q", providerName)
			return res
		}
		if ctx.Err() != nil {
			res.outcome.Status = entityStatusSkipped
			res.outcome.Reason = "cancelled"
			return res
		}

		var (
			matches  []team.Match
			fetchErr error
		)
		if recovered := panics.Try(func() {
			matches, fetchErr = s.deps.Teams.TeamMatchHistory(ctx, providerName, s.cfg.TeamSeason)
		}); recovered != nil {
			fetchErr = errors.Newf("panic: %v", recovered.Value)
		}
		if fetchErr != nil {
			res.outcome.Status = entityStatusSkipped
			res.outcome.Reason = fetchErr.Error()
			if isFatal(fetchErr) {
				res.fatal = errors.Wrapf(fetchErr, "team history %s", providerName)
			}
			return res
		}

		res.aggregate, res.ok = team.AggregateMatches(canonical, matches, asOf)
		if !res.ok {
			res.outcome.Status = entityStatusSkipped
			res.outcome.Reason = "no completed matches"
		}
		return res
	})

	for _, res := range outcomes {
		if res.fatal != nil {
			return nil, res.fatal
		}
		if !res.ok {
			if _, isKnown := known[res.outcome.Key]; !isKnown {
				report.UnresolvedTeams = append(report.UnresolvedTeams, res.outcome.Key)
			}
			report.Skipped = append(report.Skipped, res.outcome)
			continue
		}
		out[res.aggregate.Name] = res.aggregate
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	report.TeamAggregates = len(out)
	if len(report.UnresolvedTeams) > 0 {
		logger.WarnContext(ctx, "team stat clubs without canonical name", "teams", report.UnresolvedTeams)
	}
	return out, nil
}

func (s *DatasetService) archive(ctx context.Context, report *RunReport, features []dataset.FeatureRow, labels []dataset.LabelRow, logger *logging.Logger) {
	if s.deps.Archive != nil {
		if len(features) > 0 {
			if err := s.deps.Archive.SaveFeatures(ctx, report.RunID, features); err != nil {
				report.ArchiveFailed = true
				logger.ErrorContext(ctx, "archive feature rows failed", "error", err)
			}
		}
		// The archive is keyed by player id.
		labels = identifiedLabels(labels)
		if len(labels) > 0 {
			if err := s.deps.Archive.SaveLabels(ctx, report.RunID, labels); err != nil {
				report.ArchiveFailed = true
				logger.ErrorContext(ctx, "archive label rows failed", "error", err)
			}
		}
	}

	payloads := s.deps.Recorder.Drain()
	if s.deps.RawData == nil || len(payloads) == 0 {
		return
	}
	if err := s.deps.RawData.UpsertMany(ctx, report.RunID, payloads); err != nil {
		report.ArchiveFailed = true
		logger.ErrorContext(ctx, "archive raw payloads failed", "error", err, "payloads", len(payloads))
		return
	}
	report.PayloadsArchived = len(payloads)
}

func identifiedLabels(labels []dataset.LabelRow) []dataset.LabelRow {
	out := make([]dataset.LabelRow, 0, len(labels))
	for _, l := range labels {
		if l.PlayerID > 0 {
			out = append(out, l)
		}
	}
	return out
}

func (s *DatasetService) canonicalTeam(source alias.Source, name string) string {
	return s.deps.Aliases.Normalize(source, alias.EntityTeam, name)
}

func (s *DatasetService) canonicalFixtures(fixtures []fixture.Fixture) {
	for i := range fixtures {
		fixtures[i].HomeTeam = s.canonicalTeam(alias.SourceFPL, fixtures[i].HomeTeam)
		fixtures[i].AwayTeam = s.canonicalTeam(alias.SourceFPL, fixtures[i].AwayTeam)
	}
}
