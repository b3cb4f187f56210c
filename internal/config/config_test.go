package config_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	config "github.com/fitarena/fitpipe/internal/config"
	. "github.com/smartystreets/goconvey/convey"
)

func TestDefaults(t *testing.T) {
	Convey("Given a default config", t, func() {
		cfg := config.New()

		Convey("Then it should carry sane pipeline defaults", func() {
			So(cfg.LogLevel, ShouldEqual, "info")
			So(cfg.TargetGranularity, ShouldEqual, "day")
			So(cfg.ZScoreThreshold, ShouldEqual, 2.5)
			So(cfg.IQRMultiplier, ShouldEqual, 1.5)
			So(cfg.ForecastHorizon, ShouldEqual, 1)
			So(cfg.WorkerCount, ShouldBeGreaterThan, 0)
		})

		Convey("And the plausible ranges cover every metric", func() {
			for _, name := range []string{"heart_rate", "steps", "calories", "distance", "active_minutes", "sleep_minutes", "weight"} {
				bounds, ok := cfg.MetricRanges[name]
				So(ok, ShouldBeTrue)
				So(len(bounds), ShouldEqual, 2)
				So(bounds[0], ShouldBeLessThanOrEqualTo, bounds[1])
			}
		})
	})
}

func TestLoad(t *testing.T) {
	Convey("Given the environment", t, func() {
		// Isolate from ambient env vars.
		os.Unsetenv("FITPIPE_CONFIG")
		os.Unsetenv("FITPIPE_LOG_LEVEL")
		os.Unsetenv("FITPIPE_WORKER_COUNT")

		Convey("When loading with no overrides", func() {
			cfg, err := config.Load(context.Background())
			So(err, ShouldBeNil)
			So(cfg.TargetGranularity, ShouldEqual, "day")
		})

		Convey("When an env var overrides a default", func() {
			os.Setenv("FITPIPE_LOG_LEVEL", "debug")
			defer os.Unsetenv("FITPIPE_LOG_LEVEL")

			cfg, err := config.Load(context.Background())
			So(err, ShouldBeNil)
			So(cfg.LogLevel, ShouldEqual, "debug")
		})

		Convey("When a YAML file overrides defaults", func() {
			dir := t.TempDir()
			path := filepath.Join(dir, "fitpipe.yaml")
			So(os.WriteFile(path, []byte("zscore_threshold: 3.0\nworker_count: 2\n"), 0o600), ShouldBeNil)
			os.Setenv("FITPIPE_CONFIG", path)
			defer os.Unsetenv("FITPIPE_CONFIG")

			cfg, err := config.Load(context.Background())
			So(err, ShouldBeNil)
			So(cfg.ZScoreThreshold, ShouldEqual, 3.0)
			So(cfg.WorkerCount, ShouldEqual, 2)
		})

		Convey("When the config is invalid", func() {
			os.Setenv("FITPIPE_TARGET_GRANULARITY", "week")
			defer os.Unsetenv("FITPIPE_TARGET_GRANULARITY")

			_, err := config.Load(context.Background())
			So(err, ShouldNotBeNil)
		})
	})
}
