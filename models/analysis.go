package models

import "time"

// OFIEntry represents the order flow imbalance at one timestamp, derived
// from the snapshot pair (t-1, t). Immutable once computed.
type OFIEntry struct {
	Timestamp  time.Time `json:"timestamp"`
	Aggregated float64   `json:"ofi"`
	Levels     []float64 `json:"ofi_levels"`
}

// ReturnEntry represents the forward return at one timestamp, computed
// from two midpoints separated by the configured horizon.
type ReturnEntry struct {
	Timestamp time.Time `json:"timestamp"`
	Return    float64   `json:"future_return"`
}

// AlignedSample is one inner-joined observation used by the regression:
// the OFI at a timestamp together with the forward return at the same
// timestamp.
type AlignedSample struct {
	Timestamp time.Time `json:"timestamp"`
	OFI       float64   `json:"ofi"`
	Return    float64   `json:"future_return"`
}

// RegressionResult holds the fitted linear model return ≈ Beta·OFI + Alpha.
type RegressionResult struct {
	Beta      float64 `json:"beta"`
	Alpha     float64 `json:"alpha"`
	RSquared  float64 `json:"r_squared"`
	Samples   int     `json:"samples"`
	Horizon   int     `json:"horizon"`
	Levels    int     `json:"levels"`
	Weighting string  `json:"weighting"`
}

// RunReport summarizes one pipeline run: how many rows survived each
// stage, how many were skipped and why, and the regression outcome.
type RunReport struct {
	RunID              string           `json:"run_id"`
	RowsRead           int              `json:"rows_read"`
	MalformedRows      int              `json:"malformed_rows"`
	InsufficientLevels int              `json:"insufficient_levels"`
	InvalidPrices      int              `json:"invalid_prices"`
	Snapshots          int              `json:"snapshots"`
	OFIPoints          int              `json:"ofi_points"`
	ReturnPoints       int              `json:"return_points"`
	AlignedSamples     int              `json:"aligned_samples"`
	Regression         RegressionResult `json:"regression"`
	Artifacts          []string         `json:"artifacts"`
	StartedAt          time.Time        `json:"started_at"`
	FinishedAt         time.Time        `json:"finished_at"`
}
