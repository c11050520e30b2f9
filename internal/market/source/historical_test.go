package source

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/zappabad/marketsim/internal/market"
)

const sampleCSV = `Date,Open,High,Low,Close,Volume
2024-01-03,102,106,101,105,1200
2024-01-02,100,103,99,102,1000
2024-01-04,105,107,96,98,900
`

func day(s string) time.Time {
	t, _ := time.Parse(DateLayout, s)
	return t
}

func TestReadCSV(t *testing.T) {
	bars, err := ReadCSV(strings.NewReader(sampleCSV))
	if err != nil {
		t.Fatalf("ReadCSV: %v", err)
	}
	if len(bars) != 3 {
		t.Fatalf("expected 3 bars, got %d", len(bars))
	}
	if bars[0].Close != 105 || bars[0].High != 106 {
		t.Errorf("expected first row close 105 high 106, got %+v", bars[0])
	}
}

func TestReadCSVBadDate(t *testing.T) {
	_, err := ReadCSV(strings.NewReader("Date,Open,High,Low,Close,Volume\nyesterday,1,1,1,1,0\n"))
	if err == nil {
		t.Fatal("expected error for unparseable date")
	}
}

func TestHistoricalGet(t *testing.T) {
	bars, err := ReadCSV(strings.NewReader(sampleCSV))
	if err != nil {
		t.Fatalf("ReadCSV: %v", err)
	}
	h := NewHistorical(map[string][]market.Bar{"AAPL": bars})
	ctx := context.Background()

	q, ok := h.Get(ctx, "AAPL", day("2024-01-03").Add(15*time.Hour))
	if !ok {
		t.Fatal("expected quote for 2024-01-03")
	}
	// measured against the 2024-01-02 close of 102
	if q.Change != 3 {
		t.Errorf("expected change 3, got %v", q.Change)
	}
	if pct := q.ChangePct; pct < 2.94 || pct > 2.95 {
		t.Errorf("expected change pct ~2.94, got %v", pct)
	}

	first, ok := h.Get(ctx, "AAPL", day("2024-01-02"))
	if !ok {
		t.Fatal("expected quote for first day")
	}
	if first.Change != 2 {
		t.Errorf("expected first bar change measured from open (2), got %v", first.Change)
	}

	if _, ok := h.Get(ctx, "AAPL", day("2024-01-05")); ok {
		t.Error("expected no quote past the series")
	}
	if _, ok := h.Get(ctx, "MSFT", day("2024-01-02")); ok {
		t.Error("expected no quote for unknown symbol")
	}
}

func TestHistoricalDatesUnion(t *testing.T) {
	a, _ := ReadCSV(strings.NewReader(sampleCSV))
	b, _ := ReadCSV(strings.NewReader("Date,Open,High,Low,Close,Volume\n2024-01-05,10,11,9,10,5\n2024-01-02,10,11,9,10,5\n"))
	h := NewHistorical(map[string][]market.Bar{"AAPL": a, "NBRU": b})

	dates := h.Dates()
	want := []string{"2024-01-02", "2024-01-03", "2024-01-04", "2024-01-05"}
	if len(dates) != len(want) {
		t.Fatalf("expected %d dates, got %d", len(want), len(dates))
	}
	for i, d := range dates {
		if d.Format(DateLayout) != want[i] {
			t.Errorf("date %d: expected %s, got %s", i, want[i], d.Format(DateLayout))
		}
	}
	if syms := h.Symbols(); len(syms) != 2 || syms[0] != "AAPL" {
		t.Errorf("expected sorted symbols [AAPL NBRU], got %v", syms)
	}
}

func TestLoadDir(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "AAPL.csv"), []byte(sampleCSV), 0o644); err != nil {
		t.Fatal(err)
	}

	h, err := LoadDir(dir, []string{"AAPL", "MSFT"})
	if err != nil {
		t.Fatalf("LoadDir: %v", err)
	}
	if len(h.Bars("AAPL")) != 3 {
		t.Errorf("expected 3 AAPL bars, got %d", len(h.Bars("AAPL")))
	}
	if len(h.Bars("MSFT")) != 0 {
		t.Errorf("expected missing MSFT file to be skipped")
	}

	if _, err := LoadDir(t.TempDir(), []string{"AAPL"}); !errors.Is(err, ErrNoSeries) {
		t.Errorf("expected ErrNoSeries, got %v", err)
	}
}

func TestWriteCSVReadable(t *testing.T) {
	bars, _ := ReadCSV(strings.NewReader(sampleCSV))
	var buf bytes.Buffer
	if err := WriteCSV(&buf, bars); err != nil {
		t.Fatalf("WriteCSV: %v", err)
	}
	if !strings.HasPrefix(buf.String(), "Date,Open,High,Low,Close,Volume") {
		t.Errorf("expected CSV header, got %q", strings.SplitN(buf.String(), "\n", 2)[0])
	}
	back, err := ReadCSV(&buf)
	if err != nil {
		t.Fatalf("ReadCSV: %v", err)
	}
	if len(back) != len(bars) {
		t.Errorf("expected %d bars, got %d", len(bars), len(back))
	}
}
