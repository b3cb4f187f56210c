// Package sink writes pipeline outputs as batch artifacts: the feature table
// as CSV, predictions and recommendations as JSON. Column and element order
// is stable so reruns on identical input produce identical files.
package sink

import (
	"encoding/csv"
	"fmt"
	"math"
	"os"
	"sort"
	"strconv"
	"time"

	json "github.com/goccy/go-json"

	"github.com/fitarena/fitpipe/internal/domain/model"
	"github.com/fitarena/fitpipe/internal/domain/types"
)

// WriteFeaturesCSV writes the feature table. The header is subject_id,
// timestamp, granularity, then every feature name in sorted order; sentinel
// values become empty cells.
func WriteFeaturesCSV(path string, vectors []model.FeatureVector) error {
	names := make(map[string]bool)
	for _, v := range vectors {
		for n := range v.Features {
			names[n] = true
		}
	}
	columns := make([]string, 0, len(names))
	for n := range names {
		columns = append(columns, n)
	}
	sort.Strings(columns)

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("%w: %s: %v", ErrWrite, path, err)
	}
	defer f.Close()

	w := csv.NewWriter(f)
	header := append([]string{"subject_id", "timestamp", "granularity"}, columns...)
	if err := w.Write(header); err != nil {
		return fmt.Errorf("%w: %s: %v", ErrWrite, path, err)
	}
	row := make([]string, len(header))
	for _, v := range vectors {
		row[0] = v.SubjectID
		row[1] = v.Timestamp.UTC().Format(time.RFC3339)
		row[2] = string(v.Granularity)
		for i, name := range columns {
			cell := ""
			if val, ok := v.Features[name]; ok && !math.IsNaN(val) {
				cell = strconv.FormatFloat(val, 'g', -1, 64)
			}
			row[3+i] = cell
		}
		if err := w.Write(row); err != nil {
			return fmt.Errorf("%w: %s: %v", ErrWrite, path, err)
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return fmt.Errorf("%w: %s: %v", ErrWrite, path, err)
	}
	return nil
}

// predictionDoc is the JSON shape of one prediction.
type predictionDoc struct {
	SubjectID    string  `json:"subject_id"`
	Timestamp    string  `json:"timestamp"`
	Model        string  `json:"model"`
	Metric       string  `json:"metric,omitempty"`
	Value        float64 `json:"value"`
	Label        string  `json:"label,omitempty"`
	Confidence   float64 `json:"confidence"`
	IntervalLow  float64 `json:"interval_low,omitempty"`
	IntervalHigh float64 `json:"interval_high,omitempty"`
	Severity     float64 `json:"severity,omitempty"`
	Status       string  `json:"status"`
}

// WritePredictionsJSON writes the prediction batch in input order.
func WritePredictionsJSON(path string, preds []model.Prediction) error {
	docs := make([]predictionDoc, len(preds))
	for i, p := range preds {
		docs[i] = predictionDoc{
			SubjectID:    p.SubjectID,
			Timestamp:    p.Timestamp.UTC().Format(time.RFC3339),
			Model:        string(p.ModelKind),
			Metric:       string(p.Metric),
			Value:        p.Value,
			Label:        p.Label,
			Confidence:   p.Confidence,
			IntervalLow:  p.IntervalLow,
			IntervalHigh: p.IntervalHigh,
			Severity:     p.Severity,
			Status:       string(p.Status),
		}
	}
	return writeJSON(path, docs)
}

// recommendationDoc is the JSON shape of one recommendation.
type recommendationDoc struct {
	SubjectID   string   `json:"subject_id"`
	RuleID      string   `json:"rule_id"`
	Category    string   `json:"category"`
	Priority    string   `json:"priority"`
	Title       string   `json:"title"`
	Description string   `json:"description"`
	ActionItems []string `json:"action_items"`
	Confidence  float64  `json:"confidence"`
	GeneratedAt string   `json:"generated_at"`
}

// WriteRecommendationsJSON writes the recommendation batch in input order.
func WriteRecommendationsJSON(path string, recs []model.Recommendation) error {
	docs := make([]recommendationDoc, len(recs))
	for i, r := range recs {
		docs[i] = recommendationDoc{
			SubjectID:   r.SubjectID,
			RuleID:      r.RuleID,
			Category:    string(r.Category),
			Priority:    string(r.Priority),
			Title:       r.Title,
			Description: r.Description,
			ActionItems: r.ActionItems,
			Confidence:  r.Confidence,
			GeneratedAt: r.GeneratedAt.UTC().Format(time.RFC3339),
		}
	}
	return writeJSON(path, docs)
}

// qualityDoc is the JSON shape of one dataset quality report.
type qualityDoc struct {
	Dataset            string               `json:"dataset"`
	TotalRows          int                  `json:"total_rows"`
	DuplicateRows      int                  `json:"duplicate_rows"`
	MissingByMetric    map[types.Metric]int `json:"missing_by_metric"`
	OutOfRangeByMetric map[types.Metric]int `json:"out_of_range_by_metric"`
	Score              float64              `json:"score"`
}

// WriteQualityJSON writes the per-dataset quality reports in input order.
func WriteQualityJSON(path string, reports []model.QualityReport) error {
	docs := make([]qualityDoc, len(reports))
	for i, r := range reports {
		docs[i] = qualityDoc{
			Dataset:            r.Dataset,
			TotalRows:          r.TotalRows,
			DuplicateRows:      r.DuplicateRows,
			MissingByMetric:    r.MissingByMetric,
			OutOfRangeByMetric: r.OutOfRangeByMetric,
			Score:              r.Score,
		}
	}
	return writeJSON(path, docs)
}

func writeJSON(path string, v any) error {
	raw, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("%w: %s: %v", ErrWrite, path, err)
	}
	if err := os.WriteFile(path, raw, 0o644); err != nil {
		return fmt.Errorf("%w: %s: %v", ErrWrite, path, err)
	}
	return nil
}
