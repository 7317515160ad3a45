package processor

import (
	"fmt"

	"gonum.org/v1/gonum/stat"

	appconfig "ofiflow/config"
	"ofiflow/logger"
	"ofiflow/models"
)

// Evaluator fits the linear model return ≈ β·OFI + α over the
// timestamp-aligned OFI and forward return series.
type Evaluator struct {
	config *appconfig.Config
	log    *logger.Log
}

func NewEvaluator(cfg *appconfig.Config) *Evaluator {
	return &Evaluator{
		config: cfg,
		log:    logger.GetLogger(),
	}
}

// Align inner-joins the OFI and return series by timestamp: only
// timestamps present in both survive. Input order follows the OFI
// series, which is chronological.
func Align(ofi []models.OFIEntry, rets []models.ReturnEntry) []models.AlignedSample {
	byTime := make(map[int64]float64, len(rets))
	for _, r := range rets {
		byTime[r.Timestamp.UnixNano()] = r.Return
	}

	samples := make([]models.AlignedSample, 0, len(ofi))
	for _, o := range ofi {
		ret, ok := byTime[o.Timestamp.UnixNano()]
		if !ok {
			continue
		}
		samples = append(samples, models.AlignedSample{
			Timestamp: o.Timestamp,
			OFI:       o.Aggregated,
			Return:    ret,
		})
	}
	return samples
}

// Fit runs ordinary least squares on the aligned samples. Fewer than two
// points is a degenerate fit and fails with ErrInsufficientData.
func (e *Evaluator) Fit(samples []models.AlignedSample) (models.RegressionResult, error) {
	log := e.log.WithComponent("regression")

	if len(samples) < 2 {
		return models.RegressionResult{}, fmt.Errorf("%w: %d aligned points, need at least 2",
			ErrInsufficientData, len(samples))
	}

	xs := make([]float64, len(samples))
	ys := make([]float64, len(samples))
	for i, s := range samples {
		xs[i] = s.OFI
		ys[i] = s.Return
	}

	alpha, beta := stat.LinearRegression(xs, ys, nil, false)
	r2 := stat.RSquared(xs, ys, nil, alpha, beta)

	result := models.RegressionResult{
		Beta:      beta,
		Alpha:     alpha,
		RSquared:  r2,
		Samples:   len(samples),
		Horizon:   e.config.Analysis.Horizon,
		Levels:    e.config.Analysis.Levels,
		Weighting: e.config.Analysis.Weighting,
	}

	log.WithFields(logger.Fields{
		"beta":      result.Beta,
		"alpha":     result.Alpha,
		"r_squared": result.RSquared,
		"samples":   result.Samples,
		"horizon":   result.Horizon,
	}).Info("regression fitted")

	return result, nil
}
