// Package source loads heterogeneous tabular batch files into the common
// record schema. A source that cannot be parsed is rejected whole; cell-level
// noise (an unreadable number) becomes a NaN-valued record for the validator
// to count, never an error.
package source

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"math"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/spf13/cast"

	"github.com/fitarena/fitpipe/internal/domain/model"
	"github.com/fitarena/fitpipe/internal/domain/types"
	"github.com/fitarena/fitpipe/pkg/logger"
	"github.com/fitarena/fitpipe/pkg/metrics"
)

// Source is one tabular batch to load.
type Source struct {
	// Name identifies the batch (usually the filename); it also drives
	// column disambiguation for bare "value" headers.
	Name string

	// Granularity tags every record produced from this source.
	Granularity types.Granularity

	// Reader supplies the CSV content.
	Reader io.Reader
}

// FromFile builds a Source for a CSV file on disk, inferring granularity
// from the filename convention. The caller owns closing nothing; the file is
// read eagerly at load time.
func FromFile(path string) (Source, error) {
	f, err := os.Open(path)
	if err != nil {
		return Source{}, fmt.Errorf("%w: %w", ErrLoad, err)
	}
	name := filepath.Base(path)
	return Source{Name: name, Granularity: GranularityFromName(name), Reader: f}, nil
}

// Loader reads sources into ordered record sequences.
type Loader struct {
	logger logger.Logger
}

// Option applies a configuration option to the Loader.
type Option func(*Loader)

// WithLogger sets a custom logger for the loader.
func WithLogger(l logger.Logger) Option {
	return func(ld *Loader) {
		if l != nil {
			ld.logger = l
		}
	}
}

// New creates a Loader.
func New(opts ...Option) *Loader {
	l := &Loader{logger: logger.Named("source")}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Load parses one source into records sorted by (subject_id, timestamp),
// stable within a key so duplicate handling downstream keeps the first
// occurrence in input order. The whole source is rejected on structural
// failure: non-tabular content, a missing subject or timestamp column, or a
// timestamp no accepted layout can parse. A row with a blank subject cell is
// skipped, not an error.
func (l *Loader) Load(ctx context.Context, src Source) ([]model.Record, error) {
	if c, ok := src.Reader.(io.Closer); ok {
		defer c.Close()
	}

	r := csv.NewReader(src.Reader)
	r.TrimLeadingSpace = true

	header, err := r.Read()
	if err != nil {
		metrics.RecordLoadError()
		return nil, fmt.Errorf("%w: %s", ErrNotTabular, src.Name)
	}

	cols, err := resolveColumns(header, src.Name)
	if err != nil {
		metrics.RecordLoadError()
		return nil, fmt.Errorf("%w (%s)", err, src.Name)
	}

	var records []model.Record
	rows := 0
	blankSubjects := 0
	for {
		row, err := r.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			metrics.RecordLoadError()
			return nil, fmt.Errorf("%w: %s: %v", ErrNotTabular, src.Name, err)
		}
		rows++

		// A row without a subject cannot be attributed to anyone; skipping
		// it beats inventing a phantom "" subject downstream.
		subject := strings.TrimSpace(row[cols.subject])
		if subject == "" {
			blankSubjects++
			continue
		}

		ts, ok := parseTimestamp(row[cols.timestamp])
		if !ok {
			metrics.RecordLoadError()
			return nil, fmt.Errorf("%w: %s row %d: %q", ErrBadTimestamp, src.Name, rows, row[cols.timestamp])
		}

		// Intensity buckets are summed into a single active_minutes reading.
		if len(cols.activeParts) > 0 {
			total, readable := 0.0, false
			for _, idx := range cols.activeParts {
				if v, err := cast.ToFloat64E(row[idx]); err == nil {
					total += v
					readable = true
				}
			}
			v := math.NaN()
			if readable {
				v = total
			}
			records = append(records, model.Record{
				SubjectID:   subject,
				Timestamp:   ts,
				Metric:      types.MetricActiveMinutes,
				Value:       v,
				Granularity: src.Granularity,
			})
		}

		for _, mc := range cols.metrics {
			v, err := cast.ToFloat64E(row[mc.index])
			if err != nil {
				v = math.NaN()
			}
			records = append(records, model.Record{
				SubjectID:   subject,
				Timestamp:   ts,
				Metric:      mc.metric,
				Value:       v,
				Granularity: src.Granularity,
			})
		}
	}

	if rows == 0 {
		metrics.RecordLoadError()
		return nil, fmt.Errorf("%w: %s has no rows", ErrNotTabular, src.Name)
	}

	sort.SliceStable(records, func(i, j int) bool {
		if records[i].SubjectID != records[j].SubjectID {
			return records[i].SubjectID < records[j].SubjectID
		}
		return records[i].Timestamp.Before(records[j].Timestamp)
	})

	metrics.RecordSourceLoaded()
	metrics.RecordRecordsLoaded(len(records))
	if blankSubjects > 0 {
		l.logger.Warn(ctx, "rows without a subject id skipped",
			logger.String("source", src.Name),
			logger.Int("rows", blankSubjects),
		)
	}
	l.logger.Info(ctx, "source loaded",
		logger.String("source", src.Name),
		logger.Int("rows", rows),
		logger.Int("records", len(records)),
		logger.String("granularity", string(src.Granularity)),
	)

	return records, nil
}

// metricColumn pairs a column index with its resolved metric.
type metricColumn struct {
	index  int
	metric types.Metric
}

// columnLayout is the resolved positional layout of one source.
type columnLayout struct {
	subject     int
	timestamp   int
	metrics     []metricColumn
	activeParts []int
}

// resolveColumns maps the header row onto the common schema.
func resolveColumns(header []string, sourceName string) (columnLayout, error) {
	cols := columnLayout{subject: -1, timestamp: -1}

	for i, h := range header {
		switch {
		case isSubjectColumn(h):
			if cols.subject == -1 {
				cols.subject = i
			}
		case isTimestampColumn(h):
			if cols.timestamp == -1 {
				cols.timestamp = i
			}
		case activePartColumns[normalize(h)]:
			cols.activeParts = append(cols.activeParts, i)
		default:
			if m, ok := metricForColumn(h, sourceName); ok {
				cols.metrics = append(cols.metrics, metricColumn{index: i, metric: m})
			}
		}
	}

	if cols.subject == -1 {
		return cols, fmt.Errorf("%w: subject id", ErrMissingColumn)
	}
	if cols.timestamp == -1 {
		return cols, fmt.Errorf("%w: timestamp", ErrMissingColumn)
	}
	if len(cols.metrics) == 0 && len(cols.activeParts) == 0 {
		return cols, fmt.Errorf("%w: no metric columns", ErrMissingColumn)
	}
	return cols, nil
}
