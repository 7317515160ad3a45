package models

import "time"

// RawBookRow represents one encoded row of the input file: per level and
// side, a distance from the midpoint and a notional value. Slice index is
// the book level, 0 = best.
type RawBookRow struct {
	Timestamp   time.Time
	Midpoint    float64
	BidDistance []float64
	BidNotional []float64
	AskDistance []float64
	AskNotional []float64
}

// BookLevel represents a single reconstructed price level.
type BookLevel struct {
	Price float64 `json:"price"`
	Size  float64 `json:"size"`
}

// BookSnapshot represents the reconstructed order book state at one
// timestamp. Bids and Asks always hold exactly the configured number of
// levels; an absent level carries a zero size sentinel, never a shorter
// slice. Levels are documented by position, not by sorted price: the
// reconstructor trusts the level index of the input encoding and does
// not reorder out-of-order distances.
type BookSnapshot struct {
	Timestamp time.Time   `json:"timestamp"`
	Midpoint  float64     `json:"midpoint"`
	Bids      []BookLevel `json:"bids"`
	Asks      []BookLevel `json:"asks"`
}

// HasLevel reports whether level i is populated on both sides. A zero
// size is the sentinel for a missing level.
func (s BookSnapshot) HasLevel(i int) bool {
	if i >= len(s.Bids) || i >= len(s.Asks) {
		return false
	}
	return s.Bids[i].Size != 0 && s.Asks[i].Size != 0
}
