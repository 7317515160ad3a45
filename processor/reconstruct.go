package processor

import (
	"fmt"
	"math"

	appconfig "ofiflow/config"
	"ofiflow/logger"
	"ofiflow/models"
)

// Reconstructor decodes raw distance/notional rows into absolute
// per-level prices and sizes. Ask prices sit above the midpoint by their
// distance, bid prices below. Level index is trusted as ground truth:
// distances that are not monotonically increasing are kept in place, not
// re-sorted.
type Reconstructor struct {
	config *appconfig.Config
	log    *logger.Log
}

func NewReconstructor(cfg *appconfig.Config) *Reconstructor {
	return &Reconstructor{
		config: cfg,
		log:    logger.GetLogger(),
	}
}

// Snapshot reconstructs one book snapshot from a raw row. A row with a
// missing timestamp or midpoint, missing levels, or NaN/negative
// distance or notional values fails with ErrMalformedRow.
func (r *Reconstructor) Snapshot(row models.RawBookRow) (models.BookSnapshot, error) {
	levels := r.config.Analysis.Levels

	if row.Timestamp.IsZero() {
		return models.BookSnapshot{}, fmt.Errorf("%w: missing timestamp", ErrMalformedRow)
	}
	// A non-positive midpoint is not malformed here; the return
	// calculator rejects it as an invalid price where it matters.
	if math.IsNaN(row.Midpoint) {
		return models.BookSnapshot{}, fmt.Errorf("%w: missing midpoint", ErrMalformedRow)
	}
	if len(row.BidDistance) < levels || len(row.BidNotional) < levels ||
		len(row.AskDistance) < levels || len(row.AskNotional) < levels {
		return models.BookSnapshot{}, fmt.Errorf("%w: fewer than %d levels", ErrMalformedRow, levels)
	}

	snap := models.BookSnapshot{
		Timestamp: row.Timestamp,
		Midpoint:  row.Midpoint,
		Bids:      make([]models.BookLevel, levels),
		Asks:      make([]models.BookLevel, levels),
	}

	for i := 0; i < levels; i++ {
		bid, err := r.level(row.Midpoint, row.BidDistance[i], row.BidNotional[i], -1)
		if err != nil {
			return models.BookSnapshot{}, fmt.Errorf("bid level %d: %w", i, err)
		}
		ask, err := r.level(row.Midpoint, row.AskDistance[i], row.AskNotional[i], +1)
		if err != nil {
			return models.BookSnapshot{}, fmt.Errorf("ask level %d: %w", i, err)
		}
		snap.Bids[i] = bid
		snap.Asks[i] = ask
	}

	return snap, nil
}

func (r *Reconstructor) level(midpoint, distance, notional float64, sign float64) (models.BookLevel, error) {
	if math.IsNaN(distance) || distance < 0 {
		return models.BookLevel{}, fmt.Errorf("%w: bad distance %v", ErrMalformedRow, distance)
	}
	if math.IsNaN(notional) || notional < 0 {
		return models.BookLevel{}, fmt.Errorf("%w: bad notional %v", ErrMalformedRow, notional)
	}

	price := midpoint + sign*distance
	size := notional
	if r.config.Analysis.NotionalToSize && price > 0 {
		size = notional / price
	}

	return models.BookLevel{Price: price, Size: size}, nil
}

// Series reconstructs a snapshot per raw row, excluding malformed rows.
// It returns the surviving snapshots and the number of rows skipped.
func (r *Reconstructor) Series(rows []models.RawBookRow) ([]models.BookSnapshot, int) {
	log := r.log.WithComponent("reconstructor")

	snaps := make([]models.BookSnapshot, 0, len(rows))
	skipped := 0
	for i, row := range rows {
		snap, err := r.Snapshot(row)
		if err != nil {
			skipped++
			log.WithError(err).WithFields(logger.Fields{
				"row":       i,
				"timestamp": row.Timestamp,
			}).Debug("skipping malformed row")
			continue
		}
		snaps = append(snaps, snap)
	}

	if skipped > 0 {
		log.WithFields(logger.Fields{
			"rows_in":   len(rows),
			"snapshots": len(snaps),
			"skipped":   skipped,
		}).Warn("malformed rows excluded from reconstruction")
	}

	return snaps, skipped
}
