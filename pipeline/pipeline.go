package pipeline

import (
	"context"
	"time"

	"github.com/google/uuid"

	appconfig "ofiflow/config"
	"ofiflow/logger"
	"ofiflow/models"
	"ofiflow/processor"
	"ofiflow/reader"
	"ofiflow/writer"
)

// Runner executes one full analysis pass: load rows, reconstruct
// snapshots, compute OFI and forward returns, fit the regression, and
// write result artifacts. Everything runs sequentially over the
// in-memory series; per-timestamp problems are skipped and counted,
// pipeline-level problems abort.
type Runner struct {
	config *appconfig.Config
	log    *logger.Log
}

func NewRunner(cfg *appconfig.Config) *Runner {
	return &Runner{
		config: cfg,
		log:    logger.GetLogger(),
	}
}

func (r *Runner) Run(ctx context.Context) (*models.RunReport, error) {
	log := r.log.WithComponent("pipeline")

	report := &models.RunReport{
		RunID:     uuid.New().String(),
		StartedAt: time.Now().UTC(),
	}

	log.WithFields(logger.Fields{
		"run_id":    report.RunID,
		"csv_path":  r.config.Data.CSVPath,
		"levels":    r.config.Analysis.Levels,
		"horizon":   r.config.Analysis.Horizon,
		"weighting": r.config.Analysis.Weighting,
	}).Info("starting run")

	rows, brokenRows, err := reader.NewCSVReader(r.config).Load()
	if err != nil {
		return nil, err
	}
	report.RowsRead = len(rows) + brokenRows

	snaps, badRows := processor.NewReconstructor(r.config).Series(rows)
	report.MalformedRows = brokenRows + badRows
	report.Snapshots = len(snaps)

	ofi, skippedPairs := processor.NewEngine(r.config).Series(snaps)
	report.InsufficientLevels = skippedPairs
	report.OFIPoints = len(ofi)

	rets, badPrices := processor.NewReturnCalculator(r.config).Series(snaps)
	report.InvalidPrices = badPrices
	report.ReturnPoints = len(rets)

	samples := processor.Align(ofi, rets)
	report.AlignedSamples = len(samples)

	result, err := processor.NewEvaluator(r.config).Fit(samples)
	if err != nil {
		return report, err
	}
	report.Regression = result

	if err := r.writeArtifacts(ctx, report, ofi, samples, result); err != nil {
		return report, err
	}

	report.FinishedAt = time.Now().UTC()

	log.WithFields(logger.Fields{
		"run_id":              report.RunID,
		"rows_read":           report.RowsRead,
		"malformed_rows":      report.MalformedRows,
		"insufficient_levels": report.InsufficientLevels,
		"invalid_prices":      report.InvalidPrices,
		"aligned_samples":     report.AlignedSamples,
		"beta":                result.Beta,
		"alpha":               result.Alpha,
		"r_squared":           result.RSquared,
		"duration_ms":         report.FinishedAt.Sub(report.StartedAt).Milliseconds(),
	}).Info("run complete")

	return report, nil
}

func (r *Runner) writeArtifacts(ctx context.Context, report *models.RunReport, ofi []models.OFIEntry, samples []models.AlignedSample, result models.RegressionResult) error {
	results := writer.NewResultsWriter(r.config)

	if r.config.Output.Formats.CSV {
		path, err := results.WriteSeriesCSV(report.RunID, ofi, samples)
		if err != nil {
			return err
		}
		report.Artifacts = append(report.Artifacts, path)

		path, err = results.WriteRegressionCSV(report.RunID, result)
		if err != nil {
			return err
		}
		report.Artifacts = append(report.Artifacts, path)
	}

	if r.config.Output.Formats.Parquet.Enabled {
		path, err := results.WriteParquet(report.RunID, samples)
		if err != nil {
			return err
		}
		report.Artifacts = append(report.Artifacts, path)
	}

	path, err := writer.NewFigureWriter(r.config).Scatter(report.RunID, samples, result)
	if err != nil {
		return err
	}
	report.Artifacts = append(report.Artifacts, path)

	if r.config.Storage.S3.Enabled {
		uploader, err := writer.NewUploader(r.config)
		if err != nil {
			return err
		}
		if err := uploader.Upload(ctx, report.Artifacts); err != nil {
			return err
		}
	}

	return nil
}
