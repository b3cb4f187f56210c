package testdata_test

import (
	"context"
	"path/filepath"
	"testing"

	source "github.com/fitarena/fitpipe/internal/adapters/source"
	testdata "github.com/fitarena/fitpipe/internal/testdata"
	"github.com/fitarena/fitpipe/pkg/logger"
	. "github.com/smartystreets/goconvey/convey"
)

func TestMain(m *testing.M) {
	if err := logger.Init(); err != nil {
		panic(err)
	}
	m.Run()
}

func TestGenerateLoadable(t *testing.T) {
	Convey("Given a generated synthetic batch", t, func() {
		dir := t.TempDir()
		cfg := testdata.Config{
			Subjects:      3,
			Days:          7,
			Seed:          42,
			OutputDir:     dir,
			DuplicateRate: 0.2,
			OutlierRate:   0.1,
		}
		So(testdata.Generate(context.Background(), cfg), ShouldBeNil)

		Convey("When loading the activity file", func() {
			src, err := source.FromFile(filepath.Join(dir, "dailyActivity.csv"))
			So(err, ShouldBeNil)
			recs, err := source.New().Load(context.Background(), src)
			So(err, ShouldBeNil)

			Convey("Then every subject's span parsed into records", func() {
				// 4 records per row: steps, distance, calories, and the
				// active minutes summed from the intensity buckets.
				So(len(recs), ShouldBeGreaterThanOrEqualTo, 3*7*4)
			})
		})

		Convey("When loading the sleep file", func() {
			src, err := source.FromFile(filepath.Join(dir, "sleepDay.csv"))
			So(err, ShouldBeNil)
			recs, err := source.New().Load(context.Background(), src)
			So(err, ShouldBeNil)

			Convey("Then sleep records survive the deliberate gaps", func() {
				So(len(recs), ShouldBeGreaterThan, 0)
				So(len(recs), ShouldBeLessThanOrEqualTo, 3*7)
			})
		})

		Convey("Given an impossible configuration", func() {
			err := testdata.Generate(context.Background(), testdata.Config{OutputDir: dir})

			Convey("Then generation refuses", func() {
				So(err, ShouldNotBeNil)
			})
		})
	})
}
