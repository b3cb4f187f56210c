package validate_test

import (
	"context"
	"errors"
	"math"
	"testing"
	"time"

	model "github.com/fitarena/fitpipe/internal/domain/model"
	types "github.com/fitarena/fitpipe/internal/domain/types"
	validate "github.com/fitarena/fitpipe/internal/domain/validate"
	"github.com/fitarena/fitpipe/pkg/logger"
	. "github.com/smartystreets/goconvey/convey"
)

func TestMain(m *testing.M) {
	if err := logger.Init(); err != nil {
		panic(err)
	}
	m.Run()
}

func day(d int) time.Time {
	return time.Date(2016, 4, d, 0, 0, 0, 0, time.UTC)
}

func stepsRecord(subject string, d int, v float64) model.Record {
	return model.Record{
		SubjectID:   subject,
		Timestamp:   day(d),
		Metric:      types.MetricSteps,
		Value:       v,
		Granularity: types.GranularityDay,
	}
}

func TestValidateDuplicates(t *testing.T) {
	Convey("Given records with a duplicate key", t, func() {
		recs := []model.Record{
			stepsRecord("s1", 12, 5000),
			stepsRecord("s1", 13, 15000),
			stepsRecord("s1", 13, 9999), // duplicate key, different value
			stepsRecord("s1", 14, 5200),
		}
		v := validate.New()

		Convey("When validating", func() {
			cleaned, report, err := v.Validate(context.Background(), "steps", recs)
			So(err, ShouldBeNil)

			Convey("Then the first occurrence wins in input order", func() {
				So(len(cleaned), ShouldEqual, 3)
				So(cleaned[1].Value, ShouldEqual, 15000)
			})

			Convey("And the report counts one dropped duplicate", func() {
				So(report.DuplicateRows, ShouldEqual, 1)
				So(report.DuplicateFraction, ShouldEqual, 0.25)
			})

			Convey("And the quality score drops below 100", func() {
				So(report.Score, ShouldBeLessThan, 100)
			})
		})
	})
}

func TestValidateOutOfRange(t *testing.T) {
	Convey("Given a heart-rate reading outside the plausible range", t, func() {
		recs := []model.Record{
			{SubjectID: "s1", Timestamp: day(12), Metric: types.MetricHeartRate, Value: 75, Granularity: types.GranularityDay},
			{SubjectID: "s1", Timestamp: day(13), Metric: types.MetricHeartRate, Value: 300, Granularity: types.GranularityDay},
		}
		v := validate.New()

		Convey("When validating", func() {
			cleaned, report, err := v.Validate(context.Background(), "hr", recs)
			So(err, ShouldBeNil)

			Convey("Then the value is flagged but retained verbatim", func() {
				So(report.OutOfRangeByMetric[types.MetricHeartRate], ShouldEqual, 1)
				So(cleaned[1].Value, ShouldEqual, 300)
			})
		})

		Convey("When a custom range is configured", func() {
			strict := validate.New(validate.WithRanges(map[types.Metric]validate.Range{
				types.MetricHeartRate: {Min: 60, Max: 80},
			}))
			_, report, err := strict.Validate(context.Background(), "hr", recs)
			So(err, ShouldBeNil)

			Convey("Then the custom bounds apply", func() {
				So(report.OutOfRangeByMetric[types.MetricHeartRate], ShouldEqual, 1)
			})
		})
	})
}

func TestValidateMissing(t *testing.T) {
	Convey("Given a series with a gap and a NaN reading", t, func() {
		recs := []model.Record{
			stepsRecord("s1", 12, 5000),
			// day 13 missing entirely
			stepsRecord("s1", 14, math.NaN()),
			stepsRecord("s1", 15, 5200),
		}
		v := validate.New()

		Convey("When validating", func() {
			cleaned, report, err := v.Validate(context.Background(), "steps", recs)
			So(err, ShouldBeNil)

			Convey("Then both the gap and the NaN count as missing", func() {
				So(report.MissingByMetric[types.MetricSteps], ShouldEqual, 2)
			})

			Convey("And nothing is imputed", func() {
				So(len(cleaned), ShouldEqual, 3)
				So(math.IsNaN(cleaned[1].Value), ShouldBeTrue)
			})
		})
	})
}

func TestValidateAllUnreadable(t *testing.T) {
	Convey("Given a batch where every reading is unreadable", t, func() {
		recs := []model.Record{
			stepsRecord("s1", 12, math.NaN()),
			stepsRecord("s1", 13, math.NaN()),
			stepsRecord("s1", 14, math.NaN()),
			stepsRecord("s1", 15, math.NaN()),
			stepsRecord("s1", 16, math.NaN()),
		}
		v := validate.New()

		Convey("When validating", func() {
			_, report, err := v.Validate(context.Background(), "steps", recs)
			So(err, ShouldBeNil)

			Convey("Then the whole span counts as missing", func() {
				So(report.MissingByMetric[types.MetricSteps], ShouldEqual, 5)
				So(report.MissingFraction, ShouldEqual, 1)
			})

			Convey("And the score takes the full missing penalty", func() {
				So(report.Score, ShouldEqual, 80)
			})
		})
	})
}

func TestValidateFractionDenominators(t *testing.T) {
	Convey("Given a batch with one duplicate and one implausible value", t, func() {
		recs := []model.Record{
			{SubjectID: "s1", Timestamp: day(12), Metric: types.MetricHeartRate, Value: 75, Granularity: types.GranularityDay},
			{SubjectID: "s1", Timestamp: day(12), Metric: types.MetricHeartRate, Value: 75, Granularity: types.GranularityDay},
			{SubjectID: "s1", Timestamp: day(13), Metric: types.MetricHeartRate, Value: 300, Granularity: types.GranularityDay},
			{SubjectID: "s1", Timestamp: day(14), Metric: types.MetricHeartRate, Value: 80, Granularity: types.GranularityDay},
		}
		v := validate.New()

		Convey("When validating", func() {
			_, report, err := v.Validate(context.Background(), "hr", recs)
			So(err, ShouldBeNil)

			Convey("Then both row fractions share the total-rows denominator", func() {
				So(report.DuplicateFraction, ShouldEqual, 0.25)
				So(report.OutOfRangeFraction, ShouldEqual, 0.25)
			})

			Convey("And the score stacks the capped penalties", func() {
				So(report.Score, ShouldEqual, 70)
			})
		})
	})
}

func TestValidateScoreWeights(t *testing.T) {
	Convey("Given a batch where half the rows are duplicates", t, func() {
		recs := []model.Record{
			stepsRecord("s1", 12, 5000),
			stepsRecord("s1", 12, 5000),
		}

		Convey("When the duplicate weight is zero", func() {
			v := validate.New(validate.WithWeights(1, 0, 1))
			_, report, err := v.Validate(context.Background(), "steps", recs)
			So(err, ShouldBeNil)

			Convey("Then duplicates cost nothing", func() {
				So(report.Score, ShouldEqual, 100)
			})
		})

		Convey("When the duplicate penalty cap is tightened", func() {
			v := validate.New(validate.WithCaps(20, 5, 20))
			_, report, err := v.Validate(context.Background(), "steps", recs)
			So(err, ShouldBeNil)

			Convey("Then the penalty saturates at the cap", func() {
				So(report.Score, ShouldEqual, 95)
			})
		})
	})
}

func TestValidateEmpty(t *testing.T) {
	Convey("Given an empty dataset", t, func() {
		v := validate.New()

		Convey("When validating", func() {
			_, _, err := v.Validate(context.Background(), "empty", nil)

			Convey("Then it is the one structural error the validator raises", func() {
				So(errors.Is(err, validate.ErrEmptyDataset), ShouldBeTrue)
			})
		})
	})
}
