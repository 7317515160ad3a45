package processor

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat"

	appconfig "ofiflow/config"
	"ofiflow/logger"
	"ofiflow/models"
)

// Engine computes multi-level order flow imbalance over adjacent
// snapshot pairs. It is a pure transform: identical snapshot pairs always
// produce identical OFI values.
type Engine struct {
	config *appconfig.Config
	log    *logger.Log
}

func NewEngine(cfg *appconfig.Config) *Engine {
	return &Engine{
		config: cfg,
		log:    logger.GetLogger(),
	}
}

// bidContribution follows the standard multi-level OFI formulation: a bid
// price improvement contributes the full new size, a retreat removes the
// full previous size, and an unchanged price contributes the size delta.
func bidContribution(prev, cur models.BookLevel) float64 {
	switch {
	case cur.Price > prev.Price:
		return cur.Size
	case cur.Price < prev.Price:
		return -prev.Size
	default:
		return cur.Size - prev.Size
	}
}

// askContribution mirrors bidContribution. Improvement on the ask side is
// a lower price.
func askContribution(prev, cur models.BookLevel) float64 {
	switch {
	case cur.Price < prev.Price:
		return cur.Size
	case cur.Price > prev.Price:
		return -prev.Size
	default:
		return cur.Size - prev.Size
	}
}

// Pair computes the OFI entry for time t from the snapshot pair
// (t-1, t). A pair missing any of the configured levels on either side
// fails with ErrInsufficientLevels.
func (e *Engine) Pair(prev, cur models.BookSnapshot) (models.OFIEntry, error) {
	levels := e.config.Analysis.Levels

	for i := 0; i < levels; i++ {
		if !prev.HasLevel(i) || !cur.HasLevel(i) {
			return models.OFIEntry{}, fmt.Errorf("%w: level %d absent at %s",
				ErrInsufficientLevels, i, cur.Timestamp.Format("2006-01-02T15:04:05.999999999Z07:00"))
		}
	}

	entry := models.OFIEntry{
		Timestamp: cur.Timestamp,
		Levels:    make([]float64, levels),
	}

	weights := e.weights()
	for i := 0; i < levels; i++ {
		levelOFI := bidContribution(prev.Bids[i], cur.Bids[i]) - askContribution(prev.Asks[i], cur.Asks[i])
		entry.Levels[i] = levelOFI
		entry.Aggregated += weights[i] * levelOFI
	}

	return entry, nil
}

// weights returns the per-level aggregation weights. The pca scheme
// aggregates over the whole series instead, so per-pair aggregation falls
// back to unit weights there.
func (e *Engine) weights() []float64 {
	levels := e.config.Analysis.Levels
	w := make([]float64, levels)
	for i := range w {
		if e.config.Analysis.Weighting == appconfig.WeightingLevelDecay {
			w[i] = math.Pow(2, -float64(i))
		} else {
			w[i] = 1
		}
	}
	return w
}

// Series computes the OFI series over consecutive surviving snapshots.
// Timestamps whose pair misses a required level are skipped, not fatal;
// the skip count is returned alongside the series.
func (e *Engine) Series(snaps []models.BookSnapshot) ([]models.OFIEntry, int) {
	log := e.log.WithComponent("ofi_engine")

	entries := make([]models.OFIEntry, 0, len(snaps))
	skipped := 0
	for t := 1; t < len(snaps); t++ {
		entry, err := e.Pair(snaps[t-1], snaps[t])
		if err != nil {
			skipped++
			log.WithError(err).WithFields(logger.Fields{
				"timestamp": snaps[t].Timestamp,
			}).Debug("skipping timestamp")
			continue
		}
		entries = append(entries, entry)
	}

	if e.config.Analysis.Weighting == appconfig.WeightingPCA {
		if err := e.aggregatePCA(entries); err != nil {
			log.WithError(err).Warn("pca aggregation failed, keeping equal-weight sums")
		}
	}

	log.WithFields(logger.Fields{
		"snapshots":  len(snaps),
		"ofi_points": len(entries),
		"skipped":    skipped,
		"weighting":  e.config.Analysis.Weighting,
	}).Info("ofi series computed")

	return entries, skipped
}

// aggregatePCA replaces each aggregated value with the projection of the
// per-level OFI vector onto the first principal component of the series.
func (e *Engine) aggregatePCA(entries []models.OFIEntry) error {
	levels := e.config.Analysis.Levels
	n := len(entries)
	if n <= levels {
		return fmt.Errorf("%w: %d points for %d levels", ErrInsufficientData, n, levels)
	}

	m := mat.NewDense(n, levels, nil)
	for i, entry := range entries {
		m.SetRow(i, entry.Levels)
	}

	var pc stat.PC
	if ok := pc.PrincipalComponents(m, nil); !ok {
		return fmt.Errorf("principal component decomposition failed")
	}
	var vecs mat.Dense
	pc.VectorsTo(&vecs)

	// Project mean-centered level vectors onto the first component.
	means := make([]float64, levels)
	for j := 0; j < levels; j++ {
		means[j] = stat.Mean(mat.Col(nil, j, m), nil)
	}
	for i := range entries {
		score := 0.0
		for j := 0; j < levels; j++ {
			score += (m.At(i, j) - means[j]) * vecs.At(j, 0)
		}
		entries[i].Aggregated = score
	}

	return nil
}
