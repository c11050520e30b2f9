package source

import (
	"testing"
	"time"

	"github.com/zappabad/marketsim/internal/randsrc"
)

func TestPumpDumpStepRanges(t *testing.T) {
	p := DefaultPumpDump()

	// base draw only: 0.75 -> +5%, no pump (0.75 >= 0.01), no dump
	quiet := &randsrc.Scripted{Floats: []float64{0.75, 0.75, 0.75}}
	if got := p.Step(quiet); got < 4.999 || got > 5.001 {
		t.Errorf("expected +5%%, got %v", got)
	}

	// base 0.5 -> 0, pump fires (0.0) with draw 0.5 -> +65, dump skipped
	pump := &randsrc.Scripted{Floats: []float64{0.5, 0.0, 0.5, 0.9}}
	if got := p.Step(pump); got < 64.999 || got > 65.001 {
		t.Errorf("expected +65%% pump, got %v", got)
	}
}

func TestGenerateSeriesFloorsAndLinks(t *testing.T) {
	p := DefaultPumpDump()
	p.DumpProbability = 1
	dates := TradingDays(time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC), 200)

	bars := GenerateSeries(randsrc.New(42), p, 1, 0.01, dates)
	if len(bars) != len(dates) {
		t.Fatalf("expected %d bars, got %d", len(dates), len(bars))
	}
	for i, b := range bars {
		if b.Close < 0.01 {
			t.Fatalf("bar %d: close %v below floor", i, b.Close)
		}
		if b.High < b.Open || b.High < b.Close || b.Low > b.Open || b.Low > b.Close {
			t.Fatalf("bar %d: wicks do not contain body: %+v", i, b.OHLC)
		}
		if i > 0 && b.Open != bars[i-1].Close {
			t.Fatalf("bar %d: open %v does not continue prior close %v", i, b.Open, bars[i-1].Close)
		}
	}
}

func TestTradingDaysSkipsWeekends(t *testing.T) {
	// 2024-01-06 is a Saturday
	days := TradingDays(time.Date(2024, 1, 6, 10, 0, 0, 0, time.UTC), 3)
	want := []string{"2024-01-08", "2024-01-09", "2024-01-10"}
	for i, d := range days {
		if d.Format(DateLayout) != want[i] {
			t.Errorf("day %d: expected %s, got %s", i, want[i], d.Format(DateLayout))
		}
	}
}
