package app

import (
	"context"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/riskibarqy/fpl-oracle/external/fbref"
	"github.com/riskibarqy/fpl-oracle/external/fpl"
	"github.com/riskibarqy/fpl-oracle/external/understat"
	"github.com/riskibarqy/fpl-oracle/internal/config"
	"github.com/riskibarqy/fpl-oracle/internal/domain/rawdata"
	"github.com/riskibarqy/fpl-oracle/internal/infrastructure/aliasfile"
	"github.com/riskibarqy/fpl-oracle/internal/infrastructure/repository/filestore"
	"github.com/riskibarqy/fpl-oracle/internal/infrastructure/repository/postgres"
	"github.com/riskibarqy/fpl-oracle/internal/observability"
	"github.com/riskibarqy/fpl-oracle/internal/platform/logging"
	"github.com/riskibarqy/fpl-oracle/internal/platform/resilience"
	"github.com/riskibarqy/fpl-oracle/internal/usecase"
)

// Pipeline is the fully wired dataset service plus the resources it owns.
type Pipeline struct {
	Service *usecase.DatasetService
	Metrics *observability.RunMetrics

	cfg    config.Config
	db     *sqlx.DB
	logger *logging.Logger
}

func NewPipeline(ctx context.Context, cfg config.Config, logger *logging.Logger) (*Pipeline, error) {
	if logger == nil {
		logger = logging.Default()
	}

	aliases, err := aliasfile.Load(ctx, cfg.AliasFile, logger)
	if err != nil {
		return nil, err
	}

	store, err := filestore.NewStore(cfg.DataDir, logger)
	if err != nil {
		return nil, err
	}

	breaker := resilience.BreakerConfig{
		Enabled:          cfg.ProviderCircuitEnabled,
		FailureThreshold: cfg.ProviderCircuitFailureCount,
		OpenTimeout:      cfg.ProviderCircuitOpenTimeout,
		HalfOpenProbes:   cfg.ProviderCircuitHalfOpenMaxReq,
	}

	p := &Pipeline{
		Metrics: observability.NewRunMetrics(),
		cfg:     cfg,
		logger:  logger,
	}

	deps := usecase.DatasetDeps{
		Aliases: aliases,
		Store:   store,
	}

	if cfg.DBEnabled {
		db, err := openDB(ctx, cfg)
		if err != nil {
			return nil, err
		}
		p.db = db
		deps.Archive = postgres.NewDatasetArchive(db)
		deps.RawData = postgres.NewRawDataRepository(db)
		deps.Recorder = rawdata.NewRecorder()
		logger.Info("dataset archive enabled", "db", dbNameFromURL(cfg.DBURL))
	}

	deps.Fantasy = fpl.NewClient(fpl.ClientConfig{
		BaseURL:        cfg.FPLBaseURL,
		UserAgent:      cfg.FPLUserAgent,
		Timeout:        cfg.FPLTimeout,
		MaxRetries:     cfg.FPLMaxRetries,
		Logger:         logger,
		CircuitBreaker: breaker,
		Recorder:       deps.Recorder,
	})

	var understatClient *understat.Client
	newUnderstat := func() *understat.Client {
		if understatClient == nil {
			understatClient = understat.NewClient(understat.ClientConfig{
				BaseURL:        cfg.UnderstatBaseURL,
				League:         cfg.UnderstatLeague,
				UserAgent:      cfg.FPLUserAgent,
				Timeout:        cfg.UnderstatTimeout,
				MaxRetries:     cfg.UnderstatMaxRetries,
				Logger:         logger,
				CircuitBreaker: breaker,
				Recorder:       deps.Recorder,
			})
		}
		return understatClient
	}

	switch cfg.StatSource {
	case config.StatSourceFBref:
		deps.Stats = fbref.NewClient(fbref.ClientConfig{
			BaseURL:        cfg.FBrefBaseURL,
			CompetitionID:  cfg.FBrefCompetitionID,
			UserAgent:      cfg.FPLUserAgent,
			Timeout:        cfg.FBrefTimeout,
			MaxRetries:     cfg.FBrefMaxRetries,
			Logger:         logger,
			CircuitBreaker: breaker,
			Recorder:       deps.Recorder,
		})
	default:
		deps.Stats = newUnderstat()
	}
	if cfg.TeamStatSource == config.TeamStatSourceUnderstat {
		deps.Teams = newUnderstat()
	}

	p.Service = usecase.NewDatasetService(usecase.DatasetConfig{
		StatSeason:            cfg.StatSeason(),
		TeamSeason:            cfg.Season,
		MatchThreshold:        cfg.MatchThreshold,
		PlayingTimeThreshold:  cfg.PlayingTimeThreshold,
		DefensiveStatsEnabled: cfg.DefensiveStatsEnabled,
		FetchMaxWorkers:       cfg.FetchMaxWorkers,
	}, deps, logger)

	logger.Info("pipeline wired",
		"stat_source", cfg.StatSource,
		"team_stat_source", cfg.TeamStatSource,
		"stat_season", cfg.StatSeason(),
		"data_dir", cfg.DataDir,
	)
	return p, nil
}

// PublishMetrics records the report and pushes it when a gateway is set.
// Push failures are logged only.
func (p *Pipeline) PublishMetrics(ctx context.Context, report usecase.RunReport) {
	p.Metrics.Record(report, time.Now())
	if p.cfg.MetricsPushgatewayURL == "" {
		return
	}
	if err := p.Metrics.Push(ctx, p.cfg.MetricsPushgatewayURL, p.cfg.MetricsJobName, report.Gameweek); err != nil {
		p.logger.WarnContext(ctx, "push run metrics failed", "error", err)
	}
}

func (p *Pipeline) Close() error {
	if p == nil || p.db == nil {
		return nil
	}
	return p.db.Close()
}
