package main

import (
	"context"
	"flag"
	"os"

	"github.com/fitarena/fitpipe/internal/testdata"
	"github.com/fitarena/fitpipe/pkg/logger"
)

// Default generation parameters.
const (
	defaultSubjects  = 10
	defaultDays      = 30
	defaultSeed      = 1
	defaultDupRate   = 0.05
	defaultOutlierPc = 0.02
)

func main() {
	var (
		subjects = flag.Int("subjects", defaultSubjects, "Number of synthetic athletes")
		days     = flag.Int("days", defaultDays, "Days of history per athlete")
		seed     = flag.Int64("seed", defaultSeed, "Random seed for reproducible batches")
		outDir   = flag.String("out", "./data", "Output directory for the CSV files")
		dupRate  = flag.Float64("duplicates", defaultDupRate, "Chance a row is duplicated")
		outliers = flag.Float64("outliers", defaultOutlierPc, "Chance a step count spikes implausibly")
	)
	flag.Parse()

	if err := logger.Init(); err != nil {
		os.Stderr.WriteString("failed to initialize logging: " + err.Error() + "\n")
		return
	}

	cfg := testdata.Config{
		Subjects:      *subjects,
		Days:          *days,
		Seed:          *seed,
		OutputDir:     *outDir,
		DuplicateRate: *dupRate,
		OutlierRate:   *outliers,
	}
	if err := testdata.Generate(context.Background(), cfg); err != nil {
		os.Stderr.WriteString("generation failed: " + err.Error() + "\n")
		return
	}
}
