package feature_test

import (
	"context"
	"errors"
	"math"
	"reflect"
	"testing"
	"time"

	feature "github.com/fitarena/fitpipe/internal/domain/feature"
	model "github.com/fitarena/fitpipe/internal/domain/model"
	types "github.com/fitarena/fitpipe/internal/domain/types"
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

func record(subject string, ts time.Time, m types.Metric, v float64, g types.Granularity) model.Record {
	return model.Record{SubjectID: subject, Timestamp: ts, Metric: m, Value: v, Granularity: g}
}

func steps(subject string, d int, v float64) model.Record {
	return record(subject, day(d), types.MetricSteps, v, types.GranularityDay)
}

func vectorAt(vectors []model.FeatureVector, subject string, ts time.Time) (model.FeatureVector, bool) {
	for _, v := range vectors {
		if v.SubjectID == subject && v.Timestamp.Equal(ts) {
			return v, true
		}
	}
	return model.FeatureVector{}, false
}

// featuresEqual compares feature maps treating NaN values as equal, which
// reflect.DeepEqual does not.
func featuresEqual(a, b map[string]float64) bool {
	if len(a) != len(b) {
		return false
	}
	for k, av := range a {
		bv, ok := b[k]
		if !ok {
			return false
		}
		if math.IsNaN(av) && math.IsNaN(bv) {
			continue
		}
		if av != bv {
			return false
		}
	}
	return true
}

func TestBuildRollingWindows(t *testing.T) {
	Convey("Given three consecutive days of step counts", t, func() {
		recs := []model.Record{
			steps("s1", 12, 5000),
			steps("s1", 13, 15000),
			steps("s1", 14, 5200),
		}
		eng := feature.New()

		Convey("When building features", func() {
			vectors, err := eng.Build(context.Background(), recs)
			So(err, ShouldBeNil)
			So(len(vectors), ShouldEqual, 3)
			last, ok := vectorAt(vectors, "s1", day(14))
			So(ok, ShouldBeTrue)

			Convey("Then the 3-day rolling mean covers exactly the window", func() {
				mean, ok := last.Get("steps_rolling_mean_3")
				So(ok, ShouldBeTrue)
				So(mean, ShouldAlmostEqual, 8400)
			})

			Convey("And a wider window shrinks to the available history", func() {
				mean, ok := last.Get("steps_rolling_mean_7")
				So(ok, ShouldBeTrue)
				So(mean, ShouldAlmostEqual, 8400)
			})

			Convey("And the rolling deviation is the sample deviation", func() {
				std, ok := last.Get("steps_rolling_std_3")
				So(ok, ShouldBeTrue)
				So(std, ShouldAlmostEqual, math.Sqrt(32680000), 0.01)
			})
		})
	})
}

func TestBuildLagsAndChange(t *testing.T) {
	Convey("Given three consecutive days of step counts", t, func() {
		recs := []model.Record{
			steps("s1", 12, 5000),
			steps("s1", 13, 15000),
			steps("s1", 14, 5200),
		}
		vectors, err := feature.New().Build(context.Background(), recs)
		So(err, ShouldBeNil)

		Convey("Then lag features look back exact period offsets", func() {
			last, _ := vectorAt(vectors, "s1", day(14))
			lag1, ok := last.Get("steps_lag_1")
			So(ok, ShouldBeTrue)
			So(lag1, ShouldEqual, 15000)
			_, ok = last.Get("steps_lag_7")
			So(ok, ShouldBeFalse)
		})

		Convey("And change features compare against the prior period", func() {
			mid, _ := vectorAt(vectors, "s1", day(13))
			change, ok := mid.Get("steps_change")
			So(ok, ShouldBeTrue)
			So(change, ShouldEqual, 10000)
			pct, ok := mid.Get("steps_pct_change")
			So(ok, ShouldBeTrue)
			So(pct, ShouldAlmostEqual, 200)
		})

		Convey("And the first period has no change", func() {
			first, _ := vectorAt(vectors, "s1", day(12))
			_, ok := first.Get("steps_change")
			So(ok, ShouldBeFalse)
		})
	})
}

func TestBuildGridAndGaps(t *testing.T) {
	Convey("Given a series with a hole in the middle", t, func() {
		recs := []model.Record{
			steps("s1", 12, 5000),
			steps("s1", 15, 5200),
		}
		vectors, err := feature.New().Build(context.Background(), recs)
		So(err, ShouldBeNil)

		Convey("Then every period in the observed span gets a vector", func() {
			So(len(vectors), ShouldEqual, 4)
		})

		Convey("And the hole carries the sentinel, listed as a gap", func() {
			mid, ok := vectorAt(vectors, "s1", day(13))
			So(ok, ShouldBeTrue)
			So(math.IsNaN(mid.Features["steps"]), ShouldBeTrue)
			So(mid.Gaps, ShouldContain, "steps")
		})
	})
}

func TestBuildResampling(t *testing.T) {
	Convey("Given hourly readings inside one day", t, func() {
		morning := time.Date(2016, 4, 12, 8, 0, 0, 0, time.UTC)
		evening := time.Date(2016, 4, 12, 20, 0, 0, 0, time.UTC)
		recs := []model.Record{
			record("s1", morning, types.MetricSteps, 3000, types.GranularityHour),
			record("s1", evening, types.MetricSteps, 4000, types.GranularityHour),
			record("s1", morning, types.MetricHeartRate, 60, types.GranularityHour),
			record("s1", evening, types.MetricHeartRate, 80, types.GranularityHour),
		}
		vectors, err := feature.New().Build(context.Background(), recs)
		So(err, ShouldBeNil)
		So(len(vectors), ShouldEqual, 1)

		Convey("Then count metrics sum over the period", func() {
			v, ok := vectors[0].Get("steps")
			So(ok, ShouldBeTrue)
			So(v, ShouldEqual, 7000)
		})

		Convey("And rate metrics average over the period", func() {
			v, ok := vectors[0].Get("heart_rate")
			So(ok, ShouldBeTrue)
			So(v, ShouldEqual, 70)
		})
	})
}

func TestBuildTemporal(t *testing.T) {
	Convey("Given one weekday and one weekend reading", t, func() {
		recs := []model.Record{
			steps("s1", 12, 5000), // Tuesday
			steps("s1", 16, 7000), // Saturday
		}
		vectors, err := feature.New().Build(context.Background(), recs)
		So(err, ShouldBeNil)

		Convey("Then the calendar features index Monday as zero", func() {
			tue, _ := vectorAt(vectors, "s1", day(12))
			So(tue.Features["day_of_week"], ShouldEqual, 1)
			So(tue.Features["is_weekend"], ShouldEqual, 0)
			So(tue.Features["month"], ShouldEqual, 4)
			So(tue.Features["quarter"], ShouldEqual, 2)
		})

		Convey("And Saturday counts as the weekend", func() {
			sat, _ := vectorAt(vectors, "s1", day(16))
			So(sat.Features["day_of_week"], ShouldEqual, 5)
			So(sat.Features["is_weekend"], ShouldEqual, 1)
		})
	})
}

func TestBuildRatiosAndScore(t *testing.T) {
	Convey("Given a day hitting every performance target", t, func() {
		recs := []model.Record{
			steps("s1", 12, 15000),
			record("s1", day(12), types.MetricActiveMinutes, 60, types.GranularityDay),
			record("s1", day(12), types.MetricCalories, 3000, types.GranularityDay),
			record("s1", day(12), types.MetricDistance, 10, types.GranularityDay),
		}
		vectors, err := feature.New().Build(context.Background(), recs)
		So(err, ShouldBeNil)
		v := vectors[0]

		Convey("Then the performance score maxes out", func() {
			So(v.Features["performance_score"], ShouldAlmostEqual, 100)
		})

		Convey("And the ratios divide cleanly", func() {
			So(v.Features["calories_per_step"], ShouldAlmostEqual, 0.2)
			So(v.Features["steps_per_km"], ShouldAlmostEqual, 1500)
			So(v.Features["calories_per_active_minute"], ShouldAlmostEqual, 50)
			So(v.Features["active_ratio"], ShouldAlmostEqual, 60.0/1440.0)
		})
	})

	Convey("Given a day with a missing component and a zero denominator", t, func() {
		recs := []model.Record{
			steps("s1", 12, 7500),
			record("s1", day(12), types.MetricCalories, 1500, types.GranularityDay),
			record("s1", day(12), types.MetricDistance, 0, types.GranularityDay),
		}
		vectors, err := feature.New().Build(context.Background(), recs)
		So(err, ShouldBeNil)
		v := vectors[0]

		Convey("Then the missing component contributes nothing", func() {
			So(v.Features["performance_score"], ShouldAlmostEqual, 35)
		})

		Convey("And the zero denominator yields the sentinel, not infinity", func() {
			_, ok := v.Get("steps_per_km")
			So(ok, ShouldBeFalse)
			So(v.Gaps, ShouldContain, "steps_per_km")
		})
	})
}

func TestBuildCausality(t *testing.T) {
	Convey("Given a subject's history up to a cutoff", t, func() {
		base := []model.Record{
			steps("s1", 12, 5000),
			steps("s1", 13, 15000),
			steps("s1", 14, 5200),
		}
		extended := append(append([]model.Record{}, base...), steps("s1", 20, 90000))
		eng := feature.New()

		Convey("When features are built with and without future records", func() {
			baseVecs, err := eng.Build(context.Background(), base)
			So(err, ShouldBeNil)
			extVecs, err := eng.Build(context.Background(), extended)
			So(err, ShouldBeNil)

			Convey("Then vectors before the cutoff are unchanged", func() {
				for _, want := range baseVecs {
					got, ok := vectorAt(extVecs, want.SubjectID, want.Timestamp)
					So(ok, ShouldBeTrue)
					So(featuresEqual(got.Features, want.Features), ShouldBeTrue)
				}
			})
		})
	})
}

func TestBuildSubjectIsolation(t *testing.T) {
	Convey("Given two subjects in one batch", t, func() {
		s1 := []model.Record{
			steps("s1", 12, 5000),
			steps("s1", 13, 15000),
		}
		both := append(append([]model.Record{}, s1...),
			steps("s2", 12, 400),
			steps("s2", 13, 90000),
		)
		eng := feature.New()

		Convey("When building together and alone", func() {
			aloneVecs, err := eng.Build(context.Background(), s1)
			So(err, ShouldBeNil)
			bothVecs, err := eng.Build(context.Background(), both)
			So(err, ShouldBeNil)

			Convey("Then the first subject's vectors are identical", func() {
				for _, want := range aloneVecs {
					got, ok := vectorAt(bothVecs, "s1", want.Timestamp)
					So(ok, ShouldBeTrue)
					So(featuresEqual(got.Features, want.Features), ShouldBeTrue)
				}
			})
		})
	})
}

func TestBuildDeterminism(t *testing.T) {
	Convey("Given the same records twice", t, func() {
		recs := []model.Record{
			steps("s1", 12, 5000),
			steps("s2", 12, 8000),
			steps("s1", 13, 15000),
		}
		eng := feature.New()

		Convey("When building twice", func() {
			a, err := eng.Build(context.Background(), recs)
			So(err, ShouldBeNil)
			b, err := eng.Build(context.Background(), recs)
			So(err, ShouldBeNil)

			Convey("Then the outputs match vector for vector", func() {
				So(len(a), ShouldEqual, len(b))
				for i := range a {
					So(a[i].SubjectID, ShouldEqual, b[i].SubjectID)
					So(a[i].Timestamp.Equal(b[i].Timestamp), ShouldBeTrue)
					So(featuresEqual(a[i].Features, b[i].Features), ShouldBeTrue)
					So(reflect.DeepEqual(a[i].Gaps, b[i].Gaps), ShouldBeTrue)
				}
			})
		})
	})
}

func TestBuildEmpty(t *testing.T) {
	Convey("Given no records", t, func() {
		_, err := feature.New().Build(context.Background(), nil)

		Convey("Then the engineer refuses", func() {
			So(errors.Is(err, feature.ErrNoRecords), ShouldBeTrue)
		})
	})
}
