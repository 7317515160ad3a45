package processor

import (
	"errors"
	"math"
	"testing"
	"time"

	appconfig "ofiflow/config"
	"ofiflow/models"
)

func testConfig(levels, horizon int, weighting string) *appconfig.Config {
	cfg := appconfig.Default()
	cfg.Analysis.Levels = levels
	cfg.Analysis.Horizon = horizon
	if weighting != "" {
		cfg.Analysis.Weighting = weighting
	}
	return cfg
}

func ts(sec int) time.Time {
	return time.Unix(int64(sec), 0).UTC()
}

func TestSnapshotRoundTrip(t *testing.T) {
	r := NewReconstructor(testConfig(3, 1, ""))

	row := models.RawBookRow{
		Timestamp:   ts(1),
		Midpoint:    100,
		BidDistance: []float64{0, 1, 2},
		BidNotional: []float64{1, 1, 1},
		AskDistance: []float64{0, 1, 2},
		AskNotional: []float64{1, 1, 1},
	}

	snap, err := r.Snapshot(row)
	if err != nil {
		t.Fatalf("Snapshot failed: %v", err)
	}

	wantBids := []float64{100, 99, 98}
	wantAsks := []float64{100, 101, 102}
	for i := 0; i < 3; i++ {
		if snap.Bids[i].Price != wantBids[i] {
			t.Errorf("bid price level %d: got %v want %v", i, snap.Bids[i].Price, wantBids[i])
		}
		if snap.Asks[i].Price != wantAsks[i] {
			t.Errorf("ask price level %d: got %v want %v", i, snap.Asks[i].Price, wantAsks[i])
		}
		if snap.Bids[i].Size != 1 || snap.Asks[i].Size != 1 {
			t.Errorf("level %d sizes: got %v/%v want 1/1", i, snap.Bids[i].Size, snap.Asks[i].Size)
		}
	}
}

func TestSnapshotBookDoesNotInvertAtBest(t *testing.T) {
	r := NewReconstructor(testConfig(2, 1, ""))

	row := models.RawBookRow{
		Timestamp:   ts(1),
		Midpoint:    50000,
		BidDistance: []float64{0.5, 1.5},
		BidNotional: []float64{2, 3},
		AskDistance: []float64{0.5, 1.5},
		AskNotional: []float64{2, 3},
	}

	snap, err := r.Snapshot(row)
	if err != nil {
		t.Fatalf("Snapshot failed: %v", err)
	}
	if snap.Asks[0].Price < snap.Bids[0].Price {
		t.Errorf("book inverted at best level: ask %v < bid %v", snap.Asks[0].Price, snap.Bids[0].Price)
	}
}

func TestSnapshotTrustsLevelIndex(t *testing.T) {
	// Out-of-order distances are kept in place, never re-sorted.
	r := NewReconstructor(testConfig(3, 1, ""))

	row := models.RawBookRow{
		Timestamp:   ts(1),
		Midpoint:    100,
		BidDistance: []float64{2, 1, 0},
		BidNotional: []float64{1, 1, 1},
		AskDistance: []float64{0, 0, 0},
		AskNotional: []float64{1, 1, 1},
	}

	snap, err := r.Snapshot(row)
	if err != nil {
		t.Fatalf("Snapshot failed: %v", err)
	}
	want := []float64{98, 99, 100}
	for i, lvl := range snap.Bids {
		if lvl.Price != want[i] {
			t.Errorf("bid level %d: got %v want %v", i, lvl.Price, want[i])
		}
	}
}

func TestSnapshotMalformed(t *testing.T) {
	r := NewReconstructor(testConfig(2, 1, ""))

	valid := models.RawBookRow{
		Timestamp:   ts(1),
		Midpoint:    100,
		BidDistance: []float64{0, 1},
		BidNotional: []float64{1, 1},
		AskDistance: []float64{0, 1},
		AskNotional: []float64{1, 1},
	}

	cases := []struct {
		name   string
		mutate func(*models.RawBookRow)
	}{
		{"missing timestamp", func(r *models.RawBookRow) { r.Timestamp = time.Time{} }},
		{"nan midpoint", func(r *models.RawBookRow) { r.Midpoint = math.NaN() }},
		{"negative distance", func(r *models.RawBookRow) { r.BidDistance[0] = -1 }},
		{"nan distance", func(r *models.RawBookRow) { r.AskDistance[1] = math.NaN() }},
		{"negative notional", func(r *models.RawBookRow) { r.AskNotional[0] = -5 }},
		{"nan notional", func(r *models.RawBookRow) { r.BidNotional[1] = math.NaN() }},
		{"too few levels", func(r *models.RawBookRow) { r.BidDistance = r.BidDistance[:1] }},
	}

	for _, tc := range cases {
		row := valid
		row.BidDistance = append([]float64(nil), valid.BidDistance...)
		row.BidNotional = append([]float64(nil), valid.BidNotional...)
		row.AskDistance = append([]float64(nil), valid.AskDistance...)
		row.AskNotional = append([]float64(nil), valid.AskNotional...)
		tc.mutate(&row)

		if _, err := r.Snapshot(row); !errors.Is(err, ErrMalformedRow) {
			t.Errorf("%s: expected ErrMalformedRow, got %v", tc.name, err)
		}
	}
}

func TestSnapshotNotionalToSize(t *testing.T) {
	cfg := testConfig(1, 1, "")
	cfg.Analysis.NotionalToSize = true
	r := NewReconstructor(cfg)

	row := models.RawBookRow{
		Timestamp:   ts(1),
		Midpoint:    100,
		BidDistance: []float64{0},
		BidNotional: []float64{200},
		AskDistance: []float64{0},
		AskNotional: []float64{50},
	}

	snap, err := r.Snapshot(row)
	if err != nil {
		t.Fatalf("Snapshot failed: %v", err)
	}
	if snap.Bids[0].Size != 2 {
		t.Errorf("bid size: got %v want 2", snap.Bids[0].Size)
	}
	if snap.Asks[0].Size != 0.5 {
		t.Errorf("ask size: got %v want 0.5", snap.Asks[0].Size)
	}
}

func TestSeriesSkipsMalformedRows(t *testing.T) {
	r := NewReconstructor(testConfig(1, 1, ""))

	rows := []models.RawBookRow{
		{Timestamp: ts(1), Midpoint: 100, BidDistance: []float64{0}, BidNotional: []float64{1}, AskDistance: []float64{0}, AskNotional: []float64{1}},
		{Timestamp: ts(2), Midpoint: 100, BidDistance: []float64{-1}, BidNotional: []float64{1}, AskDistance: []float64{0}, AskNotional: []float64{1}},
		{Timestamp: ts(3), Midpoint: 100, BidDistance: []float64{0}, BidNotional: []float64{1}, AskDistance: []float64{0}, AskNotional: []float64{1}},
	}

	snaps, skipped := r.Series(rows)
	if len(snaps) != 2 {
		t.Errorf("expected 2 snapshots, got %d", len(snaps))
	}
	if skipped != 1 {
		t.Errorf("expected 1 skipped row, got %d", skipped)
	}
}
