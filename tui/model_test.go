package tui

import (
	"context"
	"strings"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/shopspring/decimal"

	"github.com/zappabad/marketsim/internal/engine"
	"github.com/zappabad/marketsim/internal/game"
	"github.com/zappabad/marketsim/internal/market"
	"github.com/zappabad/marketsim/internal/news"
	newsview "github.com/zappabad/marketsim/internal/news/view"
	"github.com/zappabad/marketsim/internal/portfolio"
	"github.com/zappabad/marketsim/tui/panels"
)

type fakeSession struct {
	advanced int
	traded   int
	outcome  engine.Outcome
	events   chan newsview.NewsEvent
}

func newFakeSession() *fakeSession {
	return &fakeSession{events: make(chan newsview.NewsEvent, 1)}
}

func (s *fakeSession) Quotes() []game.QuoteRow {
	return []game.QuoteRow{{Ticker: market.Ticker{Symbol: "AAA", Decimals: 2}, Price: 10}}
}
func (s *fakeSession) History(string) ([]market.Bar, error) { return nil, nil }
func (s *fakeSession) Summary() []portfolio.SummaryRow { return nil }
func (s *fakeSession) Cash() decimal.Decimal { return decimal.NewFromInt(1000) }
func (s *fakeSession) TotalAssets() decimal.Decimal { return decimal.NewFromInt(1000) }
func (s *fakeSession) Trades() []portfolio.Trade { return nil }
func (s *fakeSession) News(int) []news.NewsItem { return nil }
func (s *fakeSession) NewsEvents() <-chan newsview.NewsEvent { return s.events }
func (s *fakeSession) Now() time.Time { return time.Date(2024, 1, 2, 9, 0, 0, 0, time.UTC) }
func (s *fakeSession) TickCount() int { return s.advanced }

func (s *fakeSession) ProfitLoss() (decimal.Decimal, decimal.Decimal) {
	return decimal.Zero, decimal.Zero
}

func (s *fakeSession) Trade(_ context.Context, symbol string, side portfolio.Side, shares int64) (portfolio.Trade, error) {
	if s.outcome.Terminal() {
		return portfolio.Trade{}, game.ErrGameOver
	}
	s.traded++
	return portfolio.NewTrade(side, symbol, shares, decimal.NewFromInt(10), s.Now())
}

func (s *fakeSession) Advance(_ context.Context, n int) (engine.TurnReport, error) {
	rep := engine.TurnReport{Requested: n}
	for i := 0; i < n; i++ {
		s.advanced++
		rep.Ticks = append(rep.Ticks, engine.TickReport{Tick: s.advanced})
	}
	rep.Outcome = s.outcome
	return rep, nil
}

func (s *fakeSession) Over() (engine.Outcome, bool) { return s.outcome, s.outcome.Terminal() }

func TestNextTurnAdvancesAndSaves(t *testing.T) {
	s := newFakeSession()
	saves := 0
	m := NewModel(s, Options{TicksPerTurn: 3, AutoSave: true, Save: func() error { saves++; return nil }})

	cmd := m.nextTurn()
	if cmd == nil {
		t.Fatal("expected a turn command")
	}
	if again := m.nextTurn(); again != nil {
		t.Error("expected no second turn while one is running")
	}

	msg := cmd()
	if s.advanced != 3 {
		t.Errorf("expected 3 ticks, got %d", s.advanced)
	}
	if saves != 1 {
		t.Errorf("expected 1 autosave, got %d", saves)
	}

	m.Update(msg)
	if m.busy {
		t.Error("expected busy cleared after the turn")
	}
	if !strings.Contains(m.statusMsg, "Advanced 3") {
		t.Errorf("expected status to report the turn, got %q", m.statusMsg)
	}
}

func TestNextTurnAfterGameOver(t *testing.T) {
	s := newFakeSession()
	s.outcome = engine.Bankrupt
	m := NewModel(s, Options{})

	if cmd := m.nextTurn(); cmd != nil {
		t.Fatal("expected no turn once the game is over")
	}
	if !strings.Contains(m.statusMsg, "BANKRUPT") {
		t.Errorf("expected bankrupt status, got %q", m.statusMsg)
	}
}

func TestTradeSubmitReportsResult(t *testing.T) {
	s := newFakeSession()
	m := NewModel(s, Options{})

	_, cmd := m.Update(panels.TradeSubmitMsg{Ticker: market.Ticker{Symbol: "AAA"}, Side: portfolio.Buy, Shares: 5})
	if cmd == nil {
		t.Fatal("expected a trade command")
	}
	m.Update(m.submitTrade(panels.TradeSubmitMsg{Ticker: market.Ticker{Symbol: "AAA"}, Side: portfolio.Buy, Shares: 5})())
	if s.traded != 1 {
		t.Errorf("expected 1 trade, got %d", s.traded)
	}
	if !strings.HasPrefix(m.statusMsg, "✓") {
		t.Errorf("expected success status, got %q", m.statusMsg)
	}

	s.outcome = engine.DataEnd
	m.Update(m.submitTrade(panels.TradeSubmitMsg{Ticker: market.Ticker{Symbol: "AAA"}, Side: portfolio.Buy, Shares: 5})())
	if !strings.Contains(m.statusMsg, "the game is over") {
		t.Errorf("expected game over rejection, got %q", m.statusMsg)
	}
}

func TestQuitKeys(t *testing.T) {
	m := NewModel(newFakeSession(), Options{})

	m.focusedPanel = FocusTrade
	if _, cmd := m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'q'}}); cmd != nil {
		t.Error("expected q to stay with the trade form")
	}

	m.focusedPanel = FocusMarket
	_, cmd := m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'q'}})
	if cmd == nil {
		t.Fatal("expected quit command")
	}
	if _, quit := cmd().(tea.QuitMsg); !quit {
		t.Error("expected q to quit outside the trade form")
	}
}

func TestSaveDisabled(t *testing.T) {
	m := NewModel(newFakeSession(), Options{})
	if cmd := m.save(); cmd != nil {
		t.Error("expected no save command without a save func")
	}
	if m.statusMsg != "Saving is disabled" {
		t.Errorf("expected disabled status, got %q", m.statusMsg)
	}
}
