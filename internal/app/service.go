// Package service wires the pipeline stages together: sources are loaded and
// validated, each subject's features are engineered and scored on a bounded
// worker pool, and the composer turns the results into recommendations.
// Subjects share no mutable state, so the final sorted collections are
// identical whether subjects ran sequentially or in parallel.
package service

import (
	"context"
	"runtime"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/fitarena/fitpipe/internal/adapters/artifact"
	"github.com/fitarena/fitpipe/internal/adapters/source"
	"github.com/fitarena/fitpipe/internal/domain/anomaly"
	"github.com/fitarena/fitpipe/internal/domain/feature"
	"github.com/fitarena/fitpipe/internal/domain/model"
	"github.com/fitarena/fitpipe/internal/domain/recommend"
	"github.com/fitarena/fitpipe/internal/domain/scoring"
	"github.com/fitarena/fitpipe/internal/domain/validate"
	"github.com/fitarena/fitpipe/pkg/logger"
	"github.com/fitarena/fitpipe/pkg/metrics"
)

// Result is everything one pipeline run produced. A failed source shows up
// in SourceErrors; it never aborts the rest of the run.
type Result struct {
	RunID           string
	Reports         []model.QualityReport
	SourceErrors    map[string]error
	Vectors         []model.FeatureVector
	Predictions     []model.Prediction
	Recommendations []model.Recommendation
}

// Service runs the batch pipeline.
type Service struct {
	workerCount int

	loader     *source.Loader
	validator  *validate.Validator
	engineer   *feature.Engineer
	detector   *anomaly.Detector
	classifier scoring.Scorer
	forecaster scoring.Scorer
	composer   *recommend.Composer

	logger logger.Logger
}

// Option applies a configuration option to the Service.
type Option func(*Service)

// WithWorkerCount sets the number of per-subject workers.
func WithWorkerCount(count int) Option {
	return func(s *Service) {
		if count > 0 {
			s.workerCount = count
		}
	}
}

// WithLoader replaces the source loader.
func WithLoader(l *source.Loader) Option {
	return func(s *Service) {
		if l != nil {
			s.loader = l
		}
	}
}

// WithValidator replaces the validator.
func WithValidator(v *validate.Validator) Option {
	return func(s *Service) {
		if v != nil {
			s.validator = v
		}
	}
}

// WithEngineer replaces the feature engineer.
func WithEngineer(e *feature.Engineer) Option {
	return func(s *Service) {
		if e != nil {
			s.engineer = e
		}
	}
}

// WithDetector replaces the anomaly detector.
func WithDetector(d *anomaly.Detector) Option {
	return func(s *Service) {
		if d != nil {
			s.detector = d
		}
	}
}

// WithClassifier replaces the classifier scorer.
func WithClassifier(c scoring.Scorer) Option {
	return func(s *Service) {
		if c != nil {
			s.classifier = c
		}
	}
}

// WithForecaster replaces the forecaster scorer.
func WithForecaster(f scoring.Scorer) Option {
	return func(s *Service) {
		if f != nil {
			s.forecaster = f
		}
	}
}

// WithComposer replaces the recommendation composer.
func WithComposer(c *recommend.Composer) Option {
	return func(s *Service) {
		if c != nil {
			s.composer = c
		}
	}
}

// WithLogger sets a custom logger for the service.
func WithLogger(l logger.Logger) Option {
	return func(s *Service) {
		if l != nil {
			s.logger = l
		}
	}
}

// New constructs a Service with default components.
func New(opts ...Option) *Service {
	s := &Service{
		workerCount: runtime.NumCPU(),
		loader:      source.New(),
		validator:   validate.New(),
		engineer:    feature.New(),
		detector:    anomaly.New(),
		composer:    recommend.New(),
		logger:      logger.Named("service"),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// scorers fills in the built-in models for any scorer left unset.
func (s *Service) scorers() error {
	if s.classifier == nil {
		c, err := scoring.NewClassifier(artifact.DefaultClassifier())
		if err != nil {
			return err
		}
		s.classifier = c
	}
	if s.forecaster == nil {
		f, err := scoring.NewForecaster(artifact.DefaultForecaster())
		if err != nil {
			return err
		}
		s.forecaster = f
	}
	return nil
}

// Run executes the full pipeline over the given sources. A source that fails
// to load is recorded in the result and skipped; the run continues with the
// rest. Run only errors when no usable records remain at all.
func (s *Service) Run(ctx context.Context, sources []source.Source) (Result, error) {
	res := Result{
		RunID:        uuid.NewString(),
		SourceErrors: make(map[string]error),
	}
	if err := s.scorers(); err != nil {
		return res, err
	}
	s.logger.Info(ctx, "pipeline run starting",
		logger.String("runID", res.RunID),
		logger.Int("sources", len(sources)),
		logger.Int("workers", s.workerCount),
	)
	metrics.UpdateWorkerCount(s.workerCount)

	records := s.loadAndValidate(ctx, sources, &res)
	if len(records) == 0 {
		return res, validate.ErrEmptyDataset
	}

	vectors, preds := s.engineerAndScore(ctx, records)
	res.Vectors = vectors

	start := time.Now()
	anomalies := s.detector.Detect(ctx, vectors)
	metrics.ObserveStageLatency("anomaly", time.Since(start).Seconds())
	preds = append(preds, anomalies...)
	sortPredictions(preds)
	res.Predictions = preds

	start = time.Now()
	res.Recommendations = s.composer.Compose(ctx, vectors, preds)
	metrics.ObserveStageLatency("recommend", time.Since(start).Seconds())

	s.logger.Info(ctx, "pipeline run finished",
		logger.String("runID", res.RunID),
		logger.Int("vectors", len(res.Vectors)),
		logger.Int("predictions", len(res.Predictions)),
		logger.Int("recommendations", len(res.Recommendations)),
		logger.Int("failedSources", len(res.SourceErrors)),
	)
	return res, nil
}

// loadAndValidate loads every source, validates each as its own dataset, and
// merges the cleaned records with cross-source duplicates dropped first-wins.
func (s *Service) loadAndValidate(ctx context.Context, sources []source.Source, res *Result) []model.Record {
	var merged []model.Record
	seen := make(map[model.RecordKey]bool)
	for _, src := range sources {
		start := time.Now()
		recs, err := s.loader.Load(ctx, src)
		metrics.ObserveStageLatency("load", time.Since(start).Seconds())
		if err != nil {
			s.logger.Error(ctx, "source failed, continuing without it",
				logger.String("source", src.Name),
				logger.Error(err),
			)
			res.SourceErrors[src.Name] = err
			continue
		}

		start = time.Now()
		cleaned, report, err := s.validator.Validate(ctx, src.Name, recs)
		metrics.ObserveStageLatency("validate", time.Since(start).Seconds())
		if err != nil {
			res.SourceErrors[src.Name] = err
			continue
		}
		res.Reports = append(res.Reports, report)
		for _, r := range cleaned {
			key := r.Key()
			if seen[key] {
				continue
			}
			seen[key] = true
			merged = append(merged, r)
		}
	}
	return merged
}

// subjectOutput is one worker's result for a single subject.
type subjectOutput struct {
	vectors []model.FeatureVector
	preds   []model.Prediction
}

// engineerAndScore fans subjects out over the worker pool. Each worker
// builds one subject's vectors and runs both scorers on them; the merged
// output is sorted afterwards so worker scheduling cannot leak into the
// result.
func (s *Service) engineerAndScore(ctx context.Context, records []model.Record) ([]model.FeatureVector, []model.Prediction) {
	bySubject := make(map[string][]model.Record)
	for _, r := range records {
		bySubject[r.SubjectID] = append(bySubject[r.SubjectID], r)
	}
	subjects := make([]string, 0, len(bySubject))
	for subj := range bySubject {
		subjects = append(subjects, subj)
	}
	sort.Strings(subjects)
	metrics.UpdateSubjects(len(subjects))

	start := time.Now()
	var (
		mu      sync.Mutex
		outputs = make(map[string]subjectOutput, len(subjects))
		wg      sync.WaitGroup
		work    = make(chan string)
	)
	workers := s.workerCount
	if workers > len(subjects) {
		workers = len(subjects)
	}
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for subj := range work {
				out := s.scoreSubject(ctx, bySubject[subj])
				mu.Lock()
				outputs[subj] = out
				mu.Unlock()
			}
		}()
	}
	for _, subj := range subjects {
		work <- subj
	}
	close(work)
	wg.Wait()
	metrics.ObserveStageLatency("feature", time.Since(start).Seconds())

	var vectors []model.FeatureVector
	var preds []model.Prediction
	for _, subj := range subjects {
		vectors = append(vectors, outputs[subj].vectors...)
		preds = append(preds, outputs[subj].preds...)
	}
	return vectors, preds
}

func (s *Service) scoreSubject(ctx context.Context, records []model.Record) subjectOutput {
	var out subjectOutput
	vectors, err := s.engineer.Build(ctx, records)
	if err != nil {
		s.logger.Error(ctx, "feature build failed for subject", logger.Error(err))
		return out
	}
	out.vectors = vectors

	if preds, err := s.classifier.Score(ctx, vectors); err == nil {
		out.preds = append(out.preds, preds...)
	} else {
		s.logger.Warn(ctx, "classifier skipped subject", logger.Error(err))
	}
	if preds, err := s.forecaster.Score(ctx, vectors); err == nil {
		out.preds = append(out.preds, preds...)
	} else {
		s.logger.Warn(ctx, "forecaster skipped subject", logger.Error(err))
	}
	return out
}

// sortPredictions orders predictions by subject, timestamp, model, metric so
// output files are stable run to run.
func sortPredictions(preds []model.Prediction) {
	sort.SliceStable(preds, func(i, j int) bool {
		a, b := preds[i], preds[j]
		if a.SubjectID != b.SubjectID {
			return a.SubjectID < b.SubjectID
		}
		if !a.Timestamp.Equal(b.Timestamp) {
			return a.Timestamp.Before(b.Timestamp)
		}
		if a.ModelKind != b.ModelKind {
			return a.ModelKind < b.ModelKind
		}
		return a.Metric < b.Metric
	})
}
