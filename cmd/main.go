package main

import (
	"context"
	"os"
	"os/signal"
	"path/filepath"
	"sort"
	"syscall"

	"github.com/fitarena/fitpipe/internal/adapters/artifact"
	"github.com/fitarena/fitpipe/internal/adapters/sink"
	"github.com/fitarena/fitpipe/internal/adapters/source"
	app "github.com/fitarena/fitpipe/internal/app"
	"github.com/fitarena/fitpipe/internal/config"
	"github.com/fitarena/fitpipe/internal/domain/anomaly"
	"github.com/fitarena/fitpipe/internal/domain/feature"
	"github.com/fitarena/fitpipe/internal/domain/scoring"
	"github.com/fitarena/fitpipe/internal/domain/types"
	"github.com/fitarena/fitpipe/internal/domain/validate"
	"github.com/fitarena/fitpipe/pkg/logger"
)

func main() {
	// Initialize logging first; everything else reports through it.
	if err := logger.Init(); err != nil {
		os.Stderr.WriteString("failed to initialize logging: " + err.Error() + "\n")
		return
	}
	log := logger.Get()

	// Root context with cancel on SIGINT/SIGTERM.
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Load configuration (defaults -> optional file -> env)
	cfg, err := config.Load(ctx)
	if err != nil {
		os.Stderr.WriteString("failed to load config: " + err.Error() + "\n")
		return
	}

	// Apply configured log level (fallback to info on invalid input)
	if err := logger.SetLevelString(cfg.LogLevel); err != nil {
		log.Warn(ctx, "invalid log_level; falling back to info", logger.String("log_level", cfg.LogLevel), logger.Error(err))
		_ = logger.SetLevelString("info")
	}

	svc, err := buildService(ctx, cfg, log)
	if err != nil {
		log.Error(ctx, "failed to build pipeline", logger.Error(err))
		return
	}

	sources, err := discoverSources(cfg.InputDir)
	if err != nil {
		log.Error(ctx, "failed to discover input files", logger.Error(err))
		return
	}
	if len(sources) == 0 {
		log.Error(ctx, "no CSV files found", logger.String("inputDir", cfg.InputDir))
		return
	}

	res, err := svc.Run(ctx, sources)
	if err != nil {
		log.Error(ctx, "pipeline run failed", logger.Error(err))
		return
	}
	for name, srcErr := range res.SourceErrors {
		log.Warn(ctx, "source skipped", logger.String("source", name), logger.Error(srcErr))
	}

	if err := writeOutputs(cfg.OutputDir, res); err != nil {
		log.Error(ctx, "failed to write outputs", logger.Error(err))
		return
	}

	log.Info(ctx, "run complete",
		logger.String("runID", res.RunID),
		logger.Int("datasets", len(res.Reports)),
		logger.Int("vectors", len(res.Vectors)),
		logger.Int("predictions", len(res.Predictions)),
		logger.Int("recommendations", len(res.Recommendations)),
		logger.String("outputDir", cfg.OutputDir),
	)
}

// buildService assembles the pipeline from configuration.
func buildService(ctx context.Context, cfg *config.Config, log logger.Logger) (*app.Service, error) {
	granularity, err := types.ParseGranularity(cfg.TargetGranularity)
	if err != nil {
		return nil, err
	}

	ranges := make(map[types.Metric]validate.Range, len(cfg.MetricRanges))
	for name, bounds := range cfg.MetricRanges {
		m, err := types.ParseMetric(name)
		if err != nil || len(bounds) != 2 {
			log.Warn(ctx, "ignoring malformed metric range", logger.String("metric", name))
			continue
		}
		ranges[m] = validate.Range{Min: bounds[0], Max: bounds[1]}
	}

	classifierDoc := artifact.DefaultClassifier()
	if cfg.ClassifierArtifact != "" {
		if classifierDoc, err = artifact.Load(cfg.ClassifierArtifact); err != nil {
			return nil, err
		}
	}
	forecasterDoc := artifact.DefaultForecaster()
	if cfg.ForecasterArtifact != "" {
		if forecasterDoc, err = artifact.Load(cfg.ForecasterArtifact); err != nil {
			return nil, err
		}
	}
	classifier, err := scoring.NewClassifier(classifierDoc)
	if err != nil {
		return nil, err
	}
	forecaster, err := scoring.NewForecaster(forecasterDoc, scoring.WithHorizon(cfg.ForecastHorizon))
	if err != nil {
		return nil, err
	}

	return app.New(
		app.WithLogger(log),
		app.WithWorkerCount(cfg.WorkerCount),
		app.WithValidator(validate.New(
			validate.WithRanges(ranges),
			validate.WithWeights(cfg.MissingWeight, cfg.DuplicateWeight, cfg.RangeWeight),
			validate.WithCaps(cfg.MissingCap, cfg.DuplicateCap, cfg.RangeCap),
		)),
		app.WithEngineer(feature.New(feature.WithTargetGranularity(granularity))),
		app.WithDetector(anomaly.New(
			anomaly.WithThreshold(cfg.ZScoreThreshold),
			anomaly.WithIQRMultiplier(cfg.IQRMultiplier),
			anomaly.WithMinHistory(cfg.MinHistory),
		)),
		app.WithClassifier(classifier),
		app.WithForecaster(forecaster),
	), nil
}

// discoverSources lists the CSV files in the input directory in name order.
func discoverSources(dir string) ([]source.Source, error) {
	paths, err := filepath.Glob(filepath.Join(dir, "*.csv"))
	if err != nil {
		return nil, err
	}
	sort.Strings(paths)
	sources := make([]source.Source, 0, len(paths))
	for _, p := range paths {
		src, err := source.FromFile(p)
		if err != nil {
			return nil, err
		}
		sources = append(sources, src)
	}
	return sources, nil
}

// writeOutputs lands every batch artifact in the output directory.
func writeOutputs(dir string, res app.Result) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}
	if err := sink.WriteFeaturesCSV(filepath.Join(dir, "features.csv"), res.Vectors); err != nil {
		return err
	}
	if err := sink.WritePredictionsJSON(filepath.Join(dir, "predictions.json"), res.Predictions); err != nil {
		return err
	}
	if err := sink.WriteRecommendationsJSON(filepath.Join(dir, "recommendations.json"), res.Recommendations); err != nil {
		return err
	}
	return sink.WriteQualityJSON(filepath.Join(dir, "quality.json"), res.Reports)
}
