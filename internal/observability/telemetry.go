package observability

import (
	"context"

	crerr "github.com/cockroachdb/errors"
	"github.com/grafana/pyroscope-go"
	"github.com/uptrace/uptrace-go/uptrace"
	"go.opentelemetry.io/otel/attribute"

	"github.com/riskibarqy/fpl-oracle/internal/config"
	"github.com/riskibarqy/fpl-oracle/internal/platform/logging"
)

// Setup starts tracing and profiling for one pipeline run. The returned func
// flushes spans and stops the profiler; it is safe to call when both are off.
func Setup(cfg config.Config, logger *logging.Logger) (func(context.Context) error, error) {
	if logger == nil {
		logger = logging.Default()
	}

	flushTraces := startTracing(cfg, logger)
	stopProfiler, err := startProfiling(cfg, logger)
	if err != nil {
		_ = flushTraces(context.Background())
		return nil, crerr.Wrap(err, "start pyroscope")
	}

	return func(ctx context.Context) error {
		return crerr.CombineErrors(flushTraces(ctx), stopProfiler())
	}, nil
}

func startTracing(cfg config.Config, logger *logging.Logger) func(context.Context) error {
	if !cfg.UptraceEnabled || cfg.UptraceDSN == "" {
		logger.Debug("uptrace disabled")
		return func(context.Context) error { return nil }
	}

	uptrace.ConfigureOpentelemetry(
		uptrace.WithDSN(cfg.UptraceDSN),
		uptrace.WithServiceName(cfg.ServiceName),
		uptrace.WithServiceVersion(cfg.ServiceVersion),
		uptrace.WithDeploymentEnvironment(cfg.AppEnv),
		uptrace.WithLoggingEnabled(cfg.UptraceLogsEnabled),
		uptrace.WithResourceAttributes(
			attribute.String("fpl.stat_source", cfg.StatSource),
			attribute.String("fpl.team_stat_source", cfg.TeamStatSource),
		),
	)
	logger.Info("uptrace enabled", "service_name", cfg.ServiceName, "environment", cfg.AppEnv)
	return uptrace.Shutdown
}

// Runs are short, so block and mutex profiles are left out.
func startProfiling(cfg config.Config, logger *logging.Logger) (func() error, error) {
	if !cfg.PyroscopeEnabled {
		logger.Debug("pyroscope disabled")
		return func() error { return nil }, nil
	}

	profiler, err := pyroscope.Start(pyroscope.Config{
		ApplicationName:   cfg.PyroscopeAppName,
		ServerAddress:     cfg.PyroscopeServerAddress,
		AuthToken:         cfg.PyroscopeAuthToken,
		BasicAuthUser:     cfg.PyroscopeBasicAuthUser,
		BasicAuthPassword: cfg.PyroscopeBasicAuthPassword,
		UploadRate:        cfg.PyroscopeUploadRate,
		Tags: map[string]string{
			"env":         cfg.AppEnv,
			"stat_source": cfg.StatSource,
		},
		ProfileTypes: []pyroscope.ProfileType{
			pyroscope.ProfileCPU,
			pyroscope.ProfileAllocObjects,
			pyroscope.ProfileAllocSpace,
			pyroscope.ProfileInuseSpace,
			pyroscope.ProfileGoroutines,
		},
	})
	if err != nil {
		return nil, err
	}

	logger.Info("pyroscope enabled", "server_address", cfg.PyroscopeServerAddress, "application", cfg.PyroscopeAppName)
	return profiler.Stop, nil
}
