package writer

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	appconfig "ofiflow/config"
	"ofiflow/logger"
	"ofiflow/models"
)

// ResultsWriter renders the OFI/return series and the regression summary
// into the results directory.
type ResultsWriter struct {
	config *appconfig.Config
	log    *logger.Log
}

func NewResultsWriter(cfg *appconfig.Config) *ResultsWriter {
	return &ResultsWriter{
		config: cfg,
		log:    logger.GetLogger(),
	}
}

// WriteSeriesCSV writes one row per aligned timestamp: the per-level OFI
// breakdown, the aggregated OFI, and the forward return.
func (w *ResultsWriter) WriteSeriesCSV(runID string, ofi []models.OFIEntry, samples []models.AlignedSample) (string, error) {
	levels := w.config.Analysis.Levels
	horizon := w.config.Analysis.Horizon

	returns := make(map[int64]float64, len(samples))
	for _, s := range samples {
		returns[s.Timestamp.UnixNano()] = s.Return
	}

	var sb strings.Builder

	sb.WriteString("timestamp")
	for i := 0; i < levels; i++ {
		fmt.Fprintf(&sb, ",ofi_level_%d", i)
	}
	fmt.Fprintf(&sb, ",ofi,future_ret_%d\n", horizon)

	for _, entry := range ofi {
		ret, ok := returns[entry.Timestamp.UnixNano()]
		if !ok {
			continue
		}
		sb.WriteString(entry.Timestamp.UTC().Format(time.RFC3339Nano))
		for _, lvl := range entry.Levels {
			fmt.Fprintf(&sb, ",%.10g", lvl)
		}
		fmt.Fprintf(&sb, ",%.10g,%.10g\n", entry.Aggregated, ret)
	}

	path := filepath.Join(w.config.Output.ResultsDir, fmt.Sprintf("ofi_returns_%s.csv", runID))
	if err := w.writeFile(path, sb.String()); err != nil {
		return "", err
	}

	w.log.WithComponent("results_writer").WithFields(logger.Fields{
		"path": path,
		"rows": len(samples),
	}).Info("series table written")

	return path, nil
}

// WriteRegressionCSV writes the fitted coefficients and fit statistics.
func (w *ResultsWriter) WriteRegressionCSV(runID string, result models.RegressionResult) (string, error) {
	var sb strings.Builder
	sb.WriteString("beta,alpha,r_squared,samples,levels,horizon,weighting\n")
	fmt.Fprintf(&sb, "%.10g,%.10g,%.10g,%d,%d,%d,%s\n",
		result.Beta,
		result.Alpha,
		result.RSquared,
		result.Samples,
		result.Levels,
		result.Horizon,
		result.Weighting,
	)

	path := filepath.Join(w.config.Output.ResultsDir, fmt.Sprintf("regression_%s.csv", runID))
	if err := w.writeFile(path, sb.String()); err != nil {
		return "", err
	}

	w.log.WithComponent("results_writer").WithFields(logger.Fields{
		"path": path,
	}).Info("regression table written")

	return path, nil
}

func (w *ResultsWriter) writeFile(path, content string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create results directory: %w", err)
	}
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	return nil
}
