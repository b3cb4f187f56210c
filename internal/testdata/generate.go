// Package testdata generates synthetic activity exports in the column
// conventions the loader understands. It exists for local runs and load
// experiments: the generated files include deliberate duplicates and
// outliers so the validator and anomaly detector have something to find.
package testdata

import (
	"context"
	"encoding/csv"
	"fmt"
	"math/rand"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/google/uuid"

	"github.com/fitarena/fitpipe/pkg/logger"
)

// Config controls the generated batch.
type Config struct {
	// Subjects is how many synthetic athletes to generate.
	Subjects int

	// Days is the span of daily records per subject.
	Days int

	// Seed makes the generated values reproducible.
	Seed int64

	// OutputDir receives dailyActivity.csv and sleepDay.csv.
	OutputDir string

	// DuplicateRate is the chance a day's activity row is written twice.
	DuplicateRate float64

	// OutlierRate is the chance a day's step count is replaced with an
	// implausible spike.
	OutlierRate float64
}

// Generate writes the synthetic export files.
func Generate(ctx context.Context, cfg Config) error {
	if cfg.Subjects <= 0 || cfg.Days <= 0 {
		return fmt.Errorf("need positive subjects and days, got %d and %d", cfg.Subjects, cfg.Days)
	}
	if err := os.MkdirAll(cfg.OutputDir, 0o755); err != nil {
		return err
	}
	rng := rand.New(rand.NewSource(cfg.Seed))
	start := time.Date(2016, 4, 12, 0, 0, 0, 0, time.UTC)

	subjects := make([]string, cfg.Subjects)
	for i := range subjects {
		subjects[i] = uuid.NewString()
	}

	if err := writeActivity(cfg, rng, start, subjects); err != nil {
		return err
	}
	if err := writeSleep(cfg, rng, start, subjects); err != nil {
		return err
	}

	logger.Named("testdata").Info(ctx, "synthetic export written",
		logger.Int("subjects", cfg.Subjects),
		logger.Int("days", cfg.Days),
		logger.String("outputDir", cfg.OutputDir),
	)
	return nil
}

func writeActivity(cfg Config, rng *rand.Rand, start time.Time, subjects []string) error {
	f, err := os.Create(filepath.Join(cfg.OutputDir, "dailyActivity.csv"))
	if err != nil {
		return err
	}
	defer f.Close()

	w := csv.NewWriter(f)
	header := []string{
		"Id", "ActivityDate", "TotalSteps", "TotalDistance", "Calories",
		"VeryActiveMinutes", "FairlyActiveMinutes", "LightlyActiveMinutes",
	}
	if err := w.Write(header); err != nil {
		return err
	}

	for _, subj := range subjects {
		// Each athlete gets a personal baseline so subjects are
		// distinguishable downstream.
		baseSteps := 4000 + rng.Float64()*8000
		for d := 0; d < cfg.Days; d++ {
			date := start.AddDate(0, 0, d).Format("1/2/2006")
			steps := baseSteps * (0.7 + rng.Float64()*0.6)
			if rng.Float64() < cfg.OutlierRate {
				steps *= 8
			}
			distance := steps / 1300
			calories := 1200 + steps*0.1 + rng.Float64()*300
			very := rng.Intn(40)
			fairly := rng.Intn(40)
			lightly := 60 + rng.Intn(180)

			row := []string{
				subj, date,
				strconv.Itoa(int(steps)),
				strconv.FormatFloat(distance, 'f', 2, 64),
				strconv.Itoa(int(calories)),
				strconv.Itoa(very),
				strconv.Itoa(fairly),
				strconv.Itoa(lightly),
			}
			if err := w.Write(row); err != nil {
				return err
			}
			if rng.Float64() < cfg.DuplicateRate {
				if err := w.Write(row); err != nil {
					return err
				}
			}
		}
	}
	w.Flush()
	return w.Error()
}

func writeSleep(cfg Config, rng *rand.Rand, start time.Time, subjects []string) error {
	f, err := os.Create(filepath.Join(cfg.OutputDir, "sleepDay.csv"))
	if err != nil {
		return err
	}
	defer f.Close()

	w := csv.NewWriter(f)
	if err := w.Write([]string{"Id", "SleepDay", "TotalMinutesAsleep"}); err != nil {
		return err
	}
	for _, subj := range subjects {
		for d := 0; d < cfg.Days; d++ {
			// Sleep trackers miss nights; leave some holes.
			if rng.Float64() < 0.15 {
				continue
			}
			date := start.AddDate(0, 0, d).Format("1/2/2006")
			minutes := 330 + rng.Intn(210)
			if err := w.Write([]string{subj, date, strconv.Itoa(minutes)}); err != nil {
				return err
			}
		}
	}
	w.Flush()
	return w.Error()
}
