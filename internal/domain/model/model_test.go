package model_test

import (
	"math"
	"testing"
	"time"

	model "github.com/fitarena/fitpipe/internal/domain/model"
	types "github.com/fitarena/fitpipe/internal/domain/types"
	. "github.com/smartystreets/goconvey/convey"
)

func TestPeriodStart(t *testing.T) {
	Convey("Given a timestamp with sub-day precision", t, func() {
		ts := time.Date(2016, 4, 12, 14, 35, 22, 0, time.UTC)

		Convey("When truncating to day granularity", func() {
			So(model.PeriodStart(ts, types.GranularityDay), ShouldEqual,
				time.Date(2016, 4, 12, 0, 0, 0, 0, time.UTC))
		})

		Convey("When truncating to hour granularity", func() {
			So(model.PeriodStart(ts, types.GranularityHour), ShouldEqual,
				time.Date(2016, 4, 12, 14, 0, 0, 0, time.UTC))
		})

		Convey("When truncating to minute granularity", func() {
			So(model.PeriodStart(ts, types.GranularityMinute), ShouldEqual,
				time.Date(2016, 4, 12, 14, 35, 0, 0, time.UTC))
		})

		Convey("When the input is not UTC", func() {
			loc := time.FixedZone("UTC+5", 5*3600)
			local := time.Date(2016, 4, 12, 2, 0, 0, 0, loc)

			Convey("Then the period is computed in UTC", func() {
				So(model.PeriodStart(local, types.GranularityDay), ShouldEqual,
					time.Date(2016, 4, 11, 0, 0, 0, 0, time.UTC))
			})
		})
	})
}

func TestRecordKey(t *testing.T) {
	Convey("Given two records with the same identity", t, func() {
		ts := time.Date(2016, 4, 12, 0, 0, 0, 0, time.UTC)
		a := model.Record{SubjectID: "s1", Timestamp: ts, Metric: types.MetricSteps, Value: 100}
		b := model.Record{SubjectID: "s1", Timestamp: ts, Metric: types.MetricSteps, Value: 200}

		Convey("Then their keys compare equal regardless of value", func() {
			So(a.Key(), ShouldResemble, b.Key())
		})

		Convey("And a different metric yields a different key", func() {
			c := model.Record{SubjectID: "s1", Timestamp: ts, Metric: types.MetricCalories}
			So(a.Key(), ShouldNotResemble, c.Key())
		})
	})
}

func TestFeatureVectorGet(t *testing.T) {
	Convey("Given a feature vector with a sentinel value", t, func() {
		v := model.FeatureVector{Features: map[string]float64{
			"steps":       5000,
			"steps_lag_7": math.NaN(),
		}}

		Convey("Then present features are returned", func() {
			f, ok := v.Get("steps")
			So(ok, ShouldBeTrue)
			So(f, ShouldEqual, 5000)
		})

		Convey("And sentinel features read as absent", func() {
			_, ok := v.Get("steps_lag_7")
			So(ok, ShouldBeFalse)
		})

		Convey("And unknown features read as absent", func() {
			_, ok := v.Get("calories")
			So(ok, ShouldBeFalse)
		})
	})
}
