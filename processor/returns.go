package processor

import (
	appconfig "ofiflow/config"
	"ofiflow/logger"
	"ofiflow/models"
)

// ReturnCalculator computes forward midpoint returns at the configured
// horizon: ret(t) = midpoint(t+h)/midpoint(t) - 1.
type ReturnCalculator struct {
	config *appconfig.Config
	log    *logger.Log
}

func NewReturnCalculator(cfg *appconfig.Config) *ReturnCalculator {
	return &ReturnCalculator{
		config: cfg,
		log:    logger.GetLogger(),
	}
}

// Series computes the forward return per timestamp. The last h
// timestamps have no forward return and are excluded, not zero-filled.
// A non-positive denominator midpoint fails that timestamp with the
// InvalidPrice condition; it is excluded and counted.
func (c *ReturnCalculator) Series(snaps []models.BookSnapshot) ([]models.ReturnEntry, int) {
	log := c.log.WithComponent("return_calculator")
	h := c.config.Analysis.Horizon

	entries := make([]models.ReturnEntry, 0, len(snaps))
	skipped := 0
	for t := 0; t+h < len(snaps); t++ {
		mid := snaps[t].Midpoint
		if mid <= 0 {
			skipped++
			log.WithError(ErrInvalidPrice).WithFields(logger.Fields{
				"timestamp": snaps[t].Timestamp,
				"midpoint":  mid,
			}).Debug("skipping timestamp")
			continue
		}
		entries = append(entries, models.ReturnEntry{
			Timestamp: snaps[t].Timestamp,
			Return:    snaps[t+h].Midpoint/mid - 1,
		})
	}

	log.WithFields(logger.Fields{
		"snapshots":     len(snaps),
		"return_points": len(entries),
		"skipped":       skipped,
		"horizon":       h,
	}).Info("forward returns computed")

	return entries, skipped
}
