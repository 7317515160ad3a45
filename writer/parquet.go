package writer

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/xitongsys/parquet-go-source/local"
	"github.com/xitongsys/parquet-go/parquet"
	pqwriter "github.com/xitongsys/parquet-go/writer"

	"ofiflow/logger"
	"ofiflow/models"
)

// ParquetRecord represents the structure of the parquet results file.
type ParquetRecord struct {
	Timestamp    int64   `parquet:"name=timestamp, type=INT64"`
	OFI          float64 `parquet:"name=ofi, type=DOUBLE"`
	FutureReturn float64 `parquet:"name=future_return, type=DOUBLE"`
	Horizon      int32   `parquet:"name=horizon, type=INT32"`
}

// WriteParquet writes the aligned series as a parquet file in the
// results directory.
func (w *ResultsWriter) WriteParquet(runID string, samples []models.AlignedSample) (string, error) {
	log := w.log.WithComponent("results_writer").WithFields(logger.Fields{
		"entries_count": len(samples),
		"operation":     "write_parquet",
	})

	path := filepath.Join(w.config.Output.ResultsDir, fmt.Sprintf("ofi_returns_%s.parquet", runID))
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return "", fmt.Errorf("failed to create results directory: %w", err)
	}

	fw, err := local.NewLocalFileWriter(path)
	if err != nil {
		return "", fmt.Errorf("failed to create parquet file: %w", err)
	}

	pw, err := pqwriter.NewParquetWriter(fw, new(ParquetRecord), 4)
	if err != nil {
		fw.Close()
		return "", fmt.Errorf("failed to create parquet writer: %w", err)
	}

	// Set compression
	switch w.config.Output.Formats.Parquet.Compression {
	case "snappy":
		pw.CompressionType = parquet.CompressionCodec_SNAPPY
	case "gzip":
		pw.CompressionType = parquet.CompressionCodec_GZIP
	default:
		pw.CompressionType = parquet.CompressionCodec_UNCOMPRESSED
	}

	horizon := int32(w.config.Analysis.Horizon)
	for _, s := range samples {
		rec := ParquetRecord{
			Timestamp:    s.Timestamp.UnixMilli(),
			OFI:          s.OFI,
			FutureReturn: s.Return,
			Horizon:      horizon,
		}
		if err := pw.Write(rec); err != nil {
			fw.Close()
			return "", fmt.Errorf("failed to write parquet record: %w", err)
		}
	}

	if err := pw.WriteStop(); err != nil {
		fw.Close()
		return "", fmt.Errorf("failed to finalize parquet file: %w", err)
	}
	if err := fw.Close(); err != nil {
		return "", fmt.Errorf("failed to close parquet file: %w", err)
	}

	log.WithFields(logger.Fields{"path": path}).Info("parquet table written")

	return path, nil
}
