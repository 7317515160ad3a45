package pipeline

import (
	"context"
	"errors"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"strings"
	"testing"

	appconfig "ofiflow/config"
	"ofiflow/processor"
)

func pipelineConfig(t *testing.T, csv string) *appconfig.Config {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "book.csv")
	if err := os.WriteFile(path, []byte(csv), 0o644); err != nil {
		t.Fatalf("write csv: %v", err)
	}

	cfg := appconfig.Default()
	cfg.Data.CSVPath = path
	cfg.Data.TimestampColumn = "system_time"
	cfg.Analysis.Levels = 2
	cfg.Output.ResultsDir = filepath.Join(dir, "results")
	cfg.Output.FiguresDir = filepath.Join(dir, "results", "figures")
	return cfg
}

func syntheticCSV(rows int) string {
	var sb strings.Builder
	sb.WriteString("system_time,midpoint")
	for i := 0; i < 2; i++ {
		fmt.Fprintf(&sb, ",bid%d_distance,bid%d_notional,ask%d_distance,ask%d_notional", i, i, i, i)
	}
	sb.WriteString("\n")

	for i := 0; i < rows; i++ {
		mid := 100.0 + 0.1*float64(i)
		bidSize := 1.0 + float64(i%3)
		fmt.Fprintf(&sb, "2021-04-07T11:%02d:00Z,%.2f,0.5,%.1f,0.5,1.0,1.5,%.1f,1.5,1.0\n",
			i, mid, bidSize, bidSize/2)
	}
	return sb.String()
}

func TestRunEndToEnd(t *testing.T) {
	cfg := pipelineConfig(t, syntheticCSV(12))

	report, err := NewRunner(cfg).Run(context.Background())
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}

	if report.RowsRead != 12 {
		t.Errorf("rows read: got %d want 12", report.RowsRead)
	}
	if report.MalformedRows != 0 {
		t.Errorf("malformed rows: got %d want 0", report.MalformedRows)
	}
	if report.Snapshots != 12 {
		t.Errorf("snapshots: got %d want 12", report.Snapshots)
	}
	if report.OFIPoints != 11 {
		t.Errorf("ofi points: got %d want 11", report.OFIPoints)
	}
	// Horizon 1 drops the last timestamp.
	if report.ReturnPoints != 11 {
		t.Errorf("return points: got %d want 11", report.ReturnPoints)
	}
	// OFI starts at t=1, returns end at t=10.
	if report.AlignedSamples != 10 {
		t.Errorf("aligned samples: got %d want 10", report.AlignedSamples)
	}
	if report.Regression.Samples != report.AlignedSamples {
		t.Errorf("regression sample count mismatch: %d vs %d", report.Regression.Samples, report.AlignedSamples)
	}
	if math.IsNaN(report.Regression.Beta) {
		t.Errorf("beta is NaN")
	}

	// Series CSV, regression CSV, figure.
	if len(report.Artifacts) != 3 {
		t.Fatalf("expected 3 artifacts, got %d: %v", len(report.Artifacts), report.Artifacts)
	}
	for _, path := range report.Artifacts {
		if _, err := os.Stat(path); err != nil {
			t.Errorf("artifact missing: %v", err)
		}
	}
}

func TestRunWithParquet(t *testing.T) {
	cfg := pipelineConfig(t, syntheticCSV(12))
	cfg.Output.Formats.Parquet.Enabled = true
	cfg.Output.Formats.Parquet.Compression = "snappy"

	report, err := NewRunner(cfg).Run(context.Background())
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if len(report.Artifacts) != 4 {
		t.Fatalf("expected 4 artifacts, got %d: %v", len(report.Artifacts), report.Artifacts)
	}
}

func TestRunSkipsMalformedRowsAndSucceeds(t *testing.T) {
	csv := syntheticCSV(12) +
		"2021-04-07T12:00:00Z,not-a-number,0.5,1,0.5,1,1.5,1,1.5,1\n"
	cfg := pipelineConfig(t, csv)

	report, err := NewRunner(cfg).Run(context.Background())
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if report.MalformedRows != 1 {
		t.Errorf("malformed rows: got %d want 1", report.MalformedRows)
	}
}

func TestRunInsufficientData(t *testing.T) {
	cfg := pipelineConfig(t, syntheticCSV(2))

	report, err := NewRunner(cfg).Run(context.Background())
	if !errors.Is(err, processor.ErrInsufficientData) {
		t.Fatalf("expected ErrInsufficientData, got %v", err)
	}
	if report == nil || report.AlignedSamples != 0 {
		t.Errorf("unexpected report: %+v", report)
	}
}

func TestRunMissingColumnAborts(t *testing.T) {
	cfg := pipelineConfig(t, "system_time,midpoint\n2021-04-07T11:00:00Z,100\n")

	if _, err := NewRunner(cfg).Run(context.Background()); err == nil {
		t.Fatalf("expected error for missing columns")
	}
}
