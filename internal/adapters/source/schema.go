package source

import (
	"strings"
	"time"

	"github.com/fitarena/fitpipe/internal/domain/types"
)

// Column conventions follow the Fitbase-style exports the pipeline ingests.
// Matching is case-insensitive on the trimmed header name.

// subjectColumns are accepted subject-identifier headers.
var subjectColumns = []string{"id", "subject_id", "subjectid", "athlete_id"}

// timestampColumns are accepted timestamp headers.
var timestampColumns = []string{
	"activitydate", "activityhour", "activityminute",
	"time", "date", "sleepday", "timestamp",
}

// timestampLayouts are tried in order; all values are interpreted as UTC.
var timestampLayouts = []string{
	"2006-01-02",
	"2006-01-02 15:04:05",
	"1/2/2006",
	"1/2/2006 15:04:05",
	"1/2/2006 3:04:05 PM",
	time.RFC3339,
}

// activePartColumns are the intensity buckets summed into active_minutes.
var activePartColumns = map[string]bool{
	"veryactiveminutes":    true,
	"fairlyactiveminutes":  true,
	"lightlyactiveminutes": true,
}

// metricColumns maps unambiguous headers to metrics.
var metricColumns = map[string]types.Metric{
	"totalsteps":         types.MetricSteps,
	"steptotal":          types.MetricSteps,
	"steps":              types.MetricSteps,
	"calories":           types.MetricCalories,
	"totaldistance":      types.MetricDistance,
	"distance":           types.MetricDistance,
	"heartrate":          types.MetricHeartRate,
	"heart_rate":         types.MetricHeartRate,
	"activeminutes":      types.MetricActiveMinutes,
	"active_minutes":     types.MetricActiveMinutes,
	"totalminutesasleep": types.MetricSleepMinutes,
	"sleep_minutes":      types.MetricSleepMinutes,
	"weightkg":           types.MetricWeight,
	"weight":             types.MetricWeight,
}

// normalize lowercases and trims a header cell.
func normalize(h string) string {
	return strings.ToLower(strings.TrimSpace(strings.TrimPrefix(h, "\uFEFF")))
}

// isSubjectColumn reports whether the header identifies the subject.
func isSubjectColumn(h string) bool {
	h = normalize(h)
	for _, c := range subjectColumns {
		if h == c {
			return true
		}
	}
	return false
}

// isTimestampColumn reports whether the header identifies the timestamp.
func isTimestampColumn(h string) bool {
	h = normalize(h)
	for _, c := range timestampColumns {
		if h == c {
			return true
		}
	}
	return false
}

// metricForColumn resolves a header to a metric. The bare "value" header is
// ambiguous in the source exports: heart-rate files and minute-sleep files
// both use it, so the source name decides.
func metricForColumn(header, sourceName string) (types.Metric, bool) {
	h := normalize(header)
	if m, ok := metricColumns[h]; ok {
		return m, true
	}
	if h == "value" {
		name := strings.ToLower(sourceName)
		switch {
		case strings.Contains(name, "heart"):
			return types.MetricHeartRate, true
		case strings.Contains(name, "sleep"):
			return types.MetricSleepMinutes, true
		}
	}
	return "", false
}

// GranularityFromName infers a source's granularity from its filename
// convention; callers may override it on the Source.
func GranularityFromName(name string) types.Granularity {
	n := strings.ToLower(name)
	switch {
	case strings.Contains(n, "minute"), strings.Contains(n, "second"):
		return types.GranularityMinute
	case strings.Contains(n, "hour"):
		return types.GranularityHour
	default:
		return types.GranularityDay
	}
}

// parseTimestamp tries every accepted layout, in UTC.
func parseTimestamp(s string) (time.Time, bool) {
	s = strings.TrimSpace(s)
	for _, layout := range timestampLayouts {
		if ts, err := time.ParseInLocation(layout, s, time.UTC); err == nil {
			return ts, true
		}
	}
	return time.Time{}, false
}
