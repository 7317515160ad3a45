package reader

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"sort"
	"strconv"
	"strings"
	"time"

	appconfig "ofiflow/config"
	"ofiflow/logger"
	"ofiflow/models"
)

// CSVReader loads the encoded order-book file: one row per timestamp
// with {side}{level}_distance and {side}{level}_notional columns plus
// midpoint and timestamp columns.
type CSVReader struct {
	config *appconfig.Config
	log    *logger.Log
}

func NewCSVReader(cfg *appconfig.Config) *CSVReader {
	return &CSVReader{
		config: cfg,
		log:    logger.GetLogger(),
	}
}

// timestampLayouts are tried in order when parsing the timestamp column.
var timestampLayouts = []string{
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02 15:04:05.999999999Z07:00",
	"2006-01-02 15:04:05.999999999",
	"2006-01-02 15:04:05",
}

// Load reads all rows, sorted chronologically. Structurally broken rows
// (wrong field count) are excluded and counted; cell-level problems are
// carried as NaN for the reconstructor to reject, so every malformed row
// is counted exactly once downstream. A missing required column aborts
// the run.
func (r *CSVReader) Load() ([]models.RawBookRow, int, error) {
	log := r.log.WithComponent("csv_reader")
	levels := r.config.Analysis.Levels
	path := r.config.Data.CSVPath

	f, err := os.Open(path)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to open input file: %w", err)
	}
	defer f.Close()

	csvr := csv.NewReader(f)
	csvr.ReuseRecord = true

	header, err := csvr.Read()
	if err != nil {
		return nil, 0, fmt.Errorf("failed to read header: %w", err)
	}

	cols := make(map[string]int, len(header))
	for i, name := range header {
		cols[strings.TrimSpace(name)] = i
	}

	layout, err := resolveColumns(cols, r.config.Data.TimestampColumn, r.config.Data.MidpointColumn, levels)
	if err != nil {
		return nil, 0, err
	}

	rows := make([]models.RawBookRow, 0, 1024)
	malformed := 0
	for {
		record, err := csvr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			if errors.Is(err, csv.ErrFieldCount) {
				malformed++
				continue
			}
			return nil, 0, fmt.Errorf("failed to read input file: %w", err)
		}
		rows = append(rows, layout.row(record, levels))
	}

	// Chronological order is assumed by every downstream component.
	sort.SliceStable(rows, func(i, j int) bool {
		return rows[i].Timestamp.Before(rows[j].Timestamp)
	})

	log.WithFields(logger.Fields{
		"path":      path,
		"rows":      len(rows),
		"malformed": malformed,
		"levels":    levels,
	}).Info("input file loaded")

	return rows, malformed, nil
}

// columnLayout holds the resolved column indexes for one run.
type columnLayout struct {
	timestamp int
	midpoint  int
	bidDist   []int
	bidNot    []int
	askDist   []int
	askNot    []int
}

func resolveColumns(cols map[string]int, tsCol, midCol string, levels int) (*columnLayout, error) {
	layout := &columnLayout{
		bidDist: make([]int, levels),
		bidNot:  make([]int, levels),
		askDist: make([]int, levels),
		askNot:  make([]int, levels),
	}

	var ok bool
	if layout.timestamp, ok = cols[tsCol]; !ok {
		return nil, fmt.Errorf("missing required column '%s'", tsCol)
	}
	if layout.midpoint, ok = cols[midCol]; !ok {
		return nil, fmt.Errorf("missing required column '%s'", midCol)
	}

	for i := 0; i < levels; i++ {
		for _, c := range []struct {
			name string
			dst  *int
		}{
			{fmt.Sprintf("bid%d_distance", i), &layout.bidDist[i]},
			{fmt.Sprintf("bid%d_notional", i), &layout.bidNot[i]},
			{fmt.Sprintf("ask%d_distance", i), &layout.askDist[i]},
			{fmt.Sprintf("ask%d_notional", i), &layout.askNot[i]},
		} {
			if *c.dst, ok = cols[c.name]; !ok {
				return nil, fmt.Errorf("missing required column '%s'", c.name)
			}
		}
	}

	return layout, nil
}

func (l *columnLayout) row(record []string, levels int) models.RawBookRow {
	row := models.RawBookRow{
		Timestamp:   parseTimestamp(record[l.timestamp]),
		Midpoint:    parseFloat(record[l.midpoint]),
		BidDistance: make([]float64, levels),
		BidNotional: make([]float64, levels),
		AskDistance: make([]float64, levels),
		AskNotional: make([]float64, levels),
	}
	for i := 0; i < levels; i++ {
		row.BidDistance[i] = parseFloat(record[l.bidDist[i]])
		row.BidNotional[i] = parseFloat(record[l.bidNot[i]])
		row.AskDistance[i] = parseFloat(record[l.askDist[i]])
		row.AskNotional[i] = parseFloat(record[l.askNot[i]])
	}
	return row
}

// parseTimestamp returns the zero time for unparseable values; the
// reconstructor treats that as a malformed row.
func parseTimestamp(s string) time.Time {
	s = strings.TrimSpace(s)
	for _, layout := range timestampLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t
		}
	}
	if sec, err := strconv.ParseFloat(s, 64); err == nil && sec > 0 {
		return time.Unix(0, int64(sec*float64(time.Second))).UTC()
	}
	return time.Time{}
}

// parseFloat returns NaN for empty or unparseable cells; the
// reconstructor treats NaN as a malformed field.
func parseFloat(s string) float64 {
	v, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil {
		return math.NaN()
	}
	return v
}
