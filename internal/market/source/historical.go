package source

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/gocarina/gocsv"
	"github.com/zappabad/marketsim/internal/market"
)

// DateLayout is the day format used in CSV files and as the series key.
const DateLayout = "2006-01-02"

// ErrNoSeries is returned when a symbol has no rows on disk.
var ErrNoSeries = errors.New("no historical series")

type csvRow struct {
	Date   string  `csv:"Date"`
	Open   float64 `csv:"Open"`
	High   float64 `csv:"High"`
	Low    float64 `csv:"Low"`
	Close  float64 `csv:"Close"`
	Volume int64   `csv:"Volume"`
}

// Historical serves daily bars that were fetched ahead of time.
type Historical struct {
	series map[string][]market.Bar
	byDay  map[string]map[string]int
	dates  []time.Time
}

// NewHistorical indexes the given per-symbol bars. Bars are sorted by time;
// duplicate days keep the last row.
func NewHistorical(series map[string][]market.Bar) *Historical {
	h := &Historical{
		series: make(map[string][]market.Bar, len(series)),
		byDay:  make(map[string]map[string]int, len(series)),
	}

	seen := make(map[string]time.Time)
	for sym, bars := range series {
		sorted := make([]market.Bar, len(bars))
		copy(sorted, bars)
		sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].Time.Before(sorted[j].Time) })

		idx := make(map[string]int, len(sorted))
		dedup := sorted[:0]
		for _, b := range sorted {
			key := b.Time.Format(DateLayout)
			if i, ok := idx[key]; ok {
				dedup[i] = b
				continue
			}
			idx[key] = len(dedup)
			dedup = append(dedup, b)
			if _, ok := seen[key]; !ok {
				seen[key] = dayStart(b.Time)
			}
		}
		h.series[sym] = dedup
		h.byDay[sym] = idx
	}

	h.dates = make([]time.Time, 0, len(seen))
	for _, d := range seen {
		h.dates = append(h.dates, d)
	}
	sort.Slice(h.dates, func(i, j int) bool { return h.dates[i].Before(h.dates[j]) })
	return h
}

// Get returns the bar for symbol on the day of at. Change fields are
// measured against the previous available close, or against the open for
// the first bar of a series.
func (h *Historical) Get(_ context.Context, symbol string, at time.Time) (market.Quote, bool) {
	idx, ok := h.byDay[symbol][at.Format(DateLayout)]
	if !ok {
		return market.Quote{}, false
	}
	bars := h.series[symbol]
	bar := bars[idx]

	ref := bar.Open
	if idx > 0 {
		ref = bars[idx-1].Close
	}
	q := market.Quote{
		Open:  bar.Open,
		High:  bar.High,
		Low:   bar.Low,
		Close: bar.Close,
		Time:  bar.Time,
	}
	if ref > 0 {
		q.Change = bar.Close - ref
		q.ChangePct = q.Change / ref * 100
	}
	return q, q.Valid()
}

// Dates returns every day that at least one symbol has data for, ascending.
func (h *Historical) Dates() []time.Time {
	out := make([]time.Time, len(h.dates))
	copy(out, h.dates)
	return out
}

// Symbols returns the symbols with loaded data, sorted.
func (h *Historical) Symbols() []string {
	out := make([]string, 0, len(h.series))
	for sym := range h.series {
		out = append(out, sym)
	}
	sort.Strings(out)
	return out
}

// Bars returns a copy of the full series for symbol.
func (h *Historical) Bars(symbol string) []market.Bar {
	bars := h.series[symbol]
	out := make([]market.Bar, len(bars))
	copy(out, bars)
	return out
}

// LoadDir reads <dir>/<SYMBOL>.csv for each symbol. Symbols without a file
// are skipped; they are expected to run on a synthetic model instead.
func LoadDir(dir string, symbols []string) (*Historical, error) {
	series := make(map[string][]market.Bar, len(symbols))
	for _, sym := range symbols {
		path := filepath.Join(dir, strings.ToUpper(sym)+".csv")
		f, err := os.Open(path)
		if errors.Is(err, os.ErrNotExist) {
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("source: open %s: %w", path, err)
		}
		bars, err := ReadCSV(f)
		f.Close()
		if err != nil {
			return nil, fmt.Errorf("source: read %s: %w", path, err)
		}
		if len(bars) == 0 {
			continue
		}
		series[sym] = bars
	}
	if len(series) == 0 {
		return nil, ErrNoSeries
	}
	return NewHistorical(series), nil
}

// ReadCSV parses Date,Open,High,Low,Close,Volume rows.
func ReadCSV(r io.Reader) ([]market.Bar, error) {
	var rows []*csvRow
	if err := gocsv.Unmarshal(r, &rows); err != nil {
		return nil, err
	}
	bars := make([]market.Bar, 0, len(rows))
	for i, row := range rows {
		t, err := time.Parse(DateLayout, strings.TrimSpace(row.Date))
		if err != nil {
			return nil, fmt.Errorf("row %d: %w", i+1, err)
		}
		if row.Close <= 0 {
			continue
		}
		bars = append(bars, market.Bar{
			Time: t,
			OHLC: market.OHLC{Open: row.Open, High: row.High, Low: row.Low, Close: row.Close},
		})
	}
	return bars, nil
}

// WriteCSV writes bars in the format ReadCSV understands.
func WriteCSV(w io.Writer, bars []market.Bar) error {
	rows := make([]*csvRow, 0, len(bars))
	for _, b := range bars {
		rows = append(rows, &csvRow{
			Date:  b.Time.Format(DateLayout),
			Open:  b.Open,
			High:  b.High,
			Low:   b.Low,
			Close: b.Close,
		})
	}
	return gocsv.Marshal(rows, w)
}

func dayStart(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}
