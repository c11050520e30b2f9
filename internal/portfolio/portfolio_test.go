package portfolio

import (
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"
)

var at = time.Date(2024, 1, 1, 9, 0, 0, 0, time.UTC)

func d(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func prices(m map[string]string) PriceLookup {
	return func(sym string) (decimal.Decimal, bool) {
		v, ok := m[sym]
		if !ok {
			return decimal.Zero, false
		}
		return d(v), true
	}
}

func TestBuyThenSellRestoresCash(t *testing.T) {
	p := New(d("10000"))
	if _, err := p.Buy("AAPL", 10, d("150.25"), at); err != nil {
		t.Fatalf("Buy: %v", err)
	}
	if !p.Cash().Equal(d("8497.5")) {
		t.Errorf("expected cash 8497.5, got %s", p.Cash())
	}
	if _, err := p.Sell("AAPL", 10, d("150.25"), at); err != nil {
		t.Fatalf("Sell: %v", err)
	}
	if !p.Cash().Equal(d("10000")) {
		t.Errorf("expected cash restored to 10000, got %s", p.Cash())
	}
	if _, ok := p.Position("AAPL"); ok {
		t.Error("expected position removed at zero shares")
	}
	if len(p.Trades()) != 2 {
		t.Errorf("expected 2 trades, got %d", len(p.Trades()))
	}
}

func TestWeightedAverageCost(t *testing.T) {
	p := New(d("10000"))
	if _, err := p.Buy("MSFT", 10, d("100"), at); err != nil {
		t.Fatal(err)
	}
	if _, err := p.Buy("MSFT", 30, d("200"), at); err != nil {
		t.Fatal(err)
	}
	pos, _ := p.Position("MSFT")
	// (10*100 + 30*200) / 40 = 175
	if !pos.AvgCost.Equal(d("175")) || pos.Shares != 40 {
		t.Errorf("expected 40 @ 175, got %d @ %s", pos.Shares, pos.AvgCost)
	}

	if _, err := p.Sell("MSFT", 15, d("300"), at); err != nil {
		t.Fatal(err)
	}
	pos, _ = p.Position("MSFT")
	if !pos.AvgCost.Equal(d("175")) || pos.Shares != 25 {
		t.Errorf("expected sell to keep avg cost, got %d @ %s", pos.Shares, pos.AvgCost)
	}
}

func TestBuyRejectedWithoutCash(t *testing.T) {
	p := New(d("100"))
	_, err := p.Buy("X", 10, d("11"), at)
	if !errors.Is(err, ErrInsufficientCash) {
		t.Fatalf("expected ErrInsufficientCash, got %v", err)
	}
	if !p.Cash().Equal(d("100")) || len(p.Positions()) != 0 || len(p.Trades()) != 0 {
		t.Error("expected no mutation after rejected buy")
	}

	if _, err := p.Buy("X", 10, d("10"), at); err != nil {
		t.Errorf("expected exact-cash buy to succeed, got %v", err)
	}
	if !p.Cash().IsZero() {
		t.Errorf("expected zero cash, got %s", p.Cash())
	}
}

func TestSellRejections(t *testing.T) {
	p := New(d("1000"))
	if _, err := p.Buy("X", 5, d("10"), at); err != nil {
		t.Fatal(err)
	}
	before := p.State()

	if _, err := p.Sell("X", 6, d("10"), at); !errors.Is(err, ErrInsufficientShares) {
		t.Errorf("expected ErrInsufficientShares, got %v", err)
	}
	if _, err := p.Sell("Y", 1, d("10"), at); !errors.Is(err, ErrNoPosition) {
		t.Errorf("expected ErrNoPosition, got %v", err)
	}

	after := p.State()
	if !after.Cash.Equal(before.Cash) || len(after.Trades) != len(before.Trades) || after.Positions[0].Shares != 5 {
		t.Error("expected no mutation after rejected sells")
	}
}

func TestInvalidInputs(t *testing.T) {
	p := New(d("1000"))
	if _, err := p.Buy("X", 0, d("10"), at); !errors.Is(err, ErrInvalidShares) {
		t.Errorf("expected ErrInvalidShares, got %v", err)
	}
	if _, err := p.Buy("X", -3, d("10"), at); !errors.Is(err, ErrInvalidShares) {
		t.Errorf("expected ErrInvalidShares, got %v", err)
	}
	if _, err := p.Buy("X", 1, d("0"), at); !errors.Is(err, ErrInvalidPrice) {
		t.Errorf("expected ErrInvalidPrice, got %v", err)
	}
	if _, err := p.Sell("X", 1, d("-1"), at); !errors.Is(err, ErrInvalidPrice) {
		t.Errorf("expected ErrInvalidPrice, got %v", err)
	}
	if _, err := p.Buy("", 1, d("1"), at); !errors.Is(err, ErrInvalidSymbol) {
		t.Errorf("expected ErrInvalidSymbol, got %v", err)
	}
}

func TestTotalAssetsAndProfitLoss(t *testing.T) {
	p := New(d("10000"))
	lookup := prices(map[string]string{"A": "100"})

	if !p.TotalAssets(lookup).Equal(d("10000")) {
		t.Errorf("expected total assets equal to initial cash at start, got %s", p.TotalAssets(lookup))
	}
	if abs, pct := p.ProfitLoss(lookup); !abs.IsZero() || !pct.IsZero() {
		t.Errorf("expected break-even, got %s / %s%%", abs, pct)
	}

	if _, err := p.Buy("A", 100, d("100"), at); err != nil {
		t.Fatal(err)
	}
	abs, pct := p.ProfitLoss(prices(map[string]string{"A": "120"}))
	if !abs.Equal(d("2000")) || !pct.Equal(d("20")) {
		t.Errorf("expected +2000 / +20%%, got %s / %s%%", abs, pct)
	}
}

func TestInsolvencyBoundaryInclusive(t *testing.T) {
	p := New(d("10000"))
	if _, err := p.Buy("A", 100, d("100"), at); err != nil {
		t.Fatal(err)
	}
	ratio := d("0.3")

	if !p.Insolvent(prices(map[string]string{"A": "30"}), ratio) {
		t.Error("expected exactly 30% of initial cash to be insolvent")
	}
	if p.Insolvent(prices(map[string]string{"A": "30.01"}), ratio) {
		t.Error("expected 30.01% of initial cash to be solvent")
	}
}

func TestSummarySkipsUnknownAndSorts(t *testing.T) {
	p := New(d("10000"))
	for _, sym := range []string{"TSLA", "AAPL", "GONE"} {
		if _, err := p.Buy(sym, 2, d("50"), at); err != nil {
			t.Fatal(err)
		}
	}
	rows := p.Summary(prices(map[string]string{"AAPL": "60", "TSLA": "40"}))
	if len(rows) != 2 {
		t.Fatalf("expected 2 rows, got %d", len(rows))
	}
	if rows[0].Symbol != "AAPL" || rows[1].Symbol != "TSLA" {
		t.Errorf("expected AAPL then TSLA, got %s then %s", rows[0].Symbol, rows[1].Symbol)
	}
	if !rows[0].ProfitLoss.Equal(d("20")) || !rows[0].ProfitLossPct.Equal(d("20")) {
		t.Errorf("expected AAPL +20 / +20%%, got %s / %s", rows[0].ProfitLoss, rows[0].ProfitLossPct)
	}
	if !rows[1].ProfitLossPct.Equal(d("-20")) {
		t.Errorf("expected TSLA -20%%, got %s", rows[1].ProfitLossPct)
	}
}

func TestFromStateRoundTrip(t *testing.T) {
	p := New(d("5000"))
	if _, err := p.Buy("A", 3, d("10"), at); err != nil {
		t.Fatal(err)
	}
	q, err := FromState(p.State())
	if err != nil {
		t.Fatalf("FromState: %v", err)
	}
	if !q.Cash().Equal(p.Cash()) || len(q.Trades()) != 1 {
		t.Errorf("expected restored cash %s and 1 trade, got %s and %d", p.Cash(), q.Cash(), len(q.Trades()))
	}

	bad := p.State()
	bad.Cash = d("-1")
	if _, err := FromState(bad); err == nil {
		t.Error("expected negative cash to be rejected")
	}
	dup := p.State()
	dup.Positions = append(dup.Positions, dup.Positions[0])
	if _, err := FromState(dup); err == nil {
		t.Error("expected duplicate position to be rejected")
	}
}

func TestParseSide(t *testing.T) {
	if s, err := ParseSide(" BUY "); err != nil || s != Buy {
		t.Errorf("expected buy, got %q %v", s, err)
	}
	if _, err := ParseSide("hold"); err == nil {
		t.Error("expected error for unknown side")
	}
}
