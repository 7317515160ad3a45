package main

import (
	"context"
	"flag"
	"os"

	"github.com/joho/godotenv"

	"ofiflow/config"
	"ofiflow/logger"
	"ofiflow/pipeline"
)

func main() {
	log := logger.GetLogger()

	// Load environment variables from .env if present
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		log.WithError(err).Warn("Error loading .env file")
	}

	configPath := flag.String("config", "config/config.yml", "Path to configuration file")
	csvPath := flag.String("csv", "", "Override input CSV path")
	levels := flag.Int("levels", 0, "Override number of book levels")
	horizon := flag.Int("horizon", 0, "Override forward return horizon")
	weighting := flag.String("weighting", "", "Override level weighting scheme (equal, level-decay, pca)")

	flag.Parse()

	cfg, err := config.LoadConfig(*configPath)
	if err != nil {
		log.WithError(err).Error("Failed to load configuration")
		os.Exit(1)
	}

	// Apply CLI overrides on top of the file configuration.
	if *csvPath != "" {
		cfg.Data.CSVPath = *csvPath
	}
	if *levels > 0 {
		cfg.Analysis.Levels = *levels
	}
	if *horizon > 0 {
		cfg.Analysis.Horizon = *horizon
	}
	if *weighting != "" {
		cfg.Analysis.Weighting = *weighting
	}
	if err := config.Validate(cfg); err != nil {
		log.WithError(err).Error("Invalid configuration override")
		os.Exit(1)
	}

	if err := log.Configure(cfg.Logging.Level, cfg.Logging.Format, cfg.Logging.Output, cfg.Logging.MaxAge); err != nil {
		log.WithError(err).Error("Failed to configure logger")
		os.Exit(1)
	}

	log.WithFields(logger.Fields{
		"service": cfg.Ofiflow.Name,
		"version": cfg.Ofiflow.Version,
	}).Info("starting ofiflow")

	report, err := pipeline.NewRunner(cfg).Run(context.Background())
	if err != nil {
		log.WithError(err).Error("run failed")
		os.Exit(1)
	}

	log.WithFields(logger.Fields{
		"run_id":         report.RunID,
		"beta":           report.Regression.Beta,
		"alpha":          report.Regression.Alpha,
		"r_squared":      report.Regression.RSquared,
		"samples":        report.Regression.Samples,
		"skipped_rows":   report.MalformedRows,
		"skipped_pairs":  report.InsufficientLevels,
		"skipped_prices": report.InvalidPrices,
		"artifacts":      report.Artifacts,
	}).Info("ofiflow finished")
}
