package writer

import (
	"fmt"
	"os"
	"path/filepath"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"

	appconfig "ofiflow/config"
	"ofiflow/logger"
	"ofiflow/models"
)

// FigureWriter renders the scatter/fit figure into the figures
// directory.
type FigureWriter struct {
	config *appconfig.Config
	log    *logger.Log
}

func NewFigureWriter(cfg *appconfig.Config) *FigureWriter {
	return &FigureWriter{
		config: cfg,
		log:    logger.GetLogger(),
	}
}

// Scatter plots aggregated OFI against forward returns with the fitted
// regression line overlaid.
func (w *FigureWriter) Scatter(runID string, samples []models.AlignedSample, result models.RegressionResult) (string, error) {
	if len(samples) == 0 {
		return "", fmt.Errorf("no samples to plot")
	}

	p := plot.New()
	p.Title.Text = fmt.Sprintf("BTC future returns (horizon=%d) vs. aggregated OFI", result.Horizon)
	p.X.Label.Text = "aggregated OFI"
	p.Y.Label.Text = fmt.Sprintf("future return (horizon=%d)", result.Horizon)

	pts := make(plotter.XYs, len(samples))
	minX, maxX := samples[0].OFI, samples[0].OFI
	for i, s := range samples {
		pts[i].X = s.OFI
		pts[i].Y = s.Return
		if s.OFI < minX {
			minX = s.OFI
		}
		if s.OFI > maxX {
			maxX = s.OFI
		}
	}

	scatter, err := plotter.NewScatter(pts)
	if err != nil {
		return "", fmt.Errorf("failed to build scatter: %w", err)
	}
	scatter.GlyphStyle.Radius = vg.Points(1.5)

	fit, err := plotter.NewLine(plotter.XYs{
		{X: minX, Y: result.Alpha + result.Beta*minX},
		{X: maxX, Y: result.Alpha + result.Beta*maxX},
	})
	if err != nil {
		return "", fmt.Errorf("failed to build fit line: %w", err)
	}
	fit.LineStyle.Width = vg.Points(1.5)

	p.Add(scatter, fit)

	path := filepath.Join(w.config.Output.FiguresDir,
		fmt.Sprintf("ofi_vs_returns_h%d_%s.png", result.Horizon, runID))
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return "", fmt.Errorf("failed to create figures directory: %w", err)
	}
	if err := p.Save(7*vg.Inch, 5*vg.Inch, path); err != nil {
		return "", fmt.Errorf("failed to save figure: %w", err)
	}

	w.log.WithComponent("figure_writer").WithFields(logger.Fields{
		"path":    path,
		"samples": len(samples),
	}).Info("figure written")

	return path, nil
}
