package tui

import (
	"context"
	"errors"
	"fmt"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/shopspring/decimal"

	"github.com/zappabad/marketsim/internal/engine"
	"github.com/zappabad/marketsim/internal/game"
	"github.com/zappabad/marketsim/internal/market"
	"github.com/zappabad/marketsim/internal/news"
	newsview "github.com/zappabad/marketsim/internal/news/view"
	"github.com/zappabad/marketsim/internal/portfolio"
	"github.com/zappabad/marketsim/internal/refresh"
	"github.com/zappabad/marketsim/tui/panels"
	"github.com/zappabad/marketsim/tui/styles"
)

// PanelFocus represents which panel is currently focused.
type PanelFocus int

const (
	FocusMarket    PanelFocus = 0
	FocusPortfolio PanelFocus = 1
	FocusChart     PanelFocus = 2
	FocusNews      PanelFocus = 3
	FocusTrade     PanelFocus = 4

	panelCount = 5
)

// Session is the part of *game.Game the TUI drives.
type Session interface {
	Quotes() []game.QuoteRow
	History(symbol string) ([]market.Bar, error)
	Summary() []portfolio.SummaryRow
	Cash() decimal.Decimal
	TotalAssets() decimal.Decimal
	ProfitLoss() (decimal.Decimal, decimal.Decimal)
	Trades() []portfolio.Trade
	News(n int) []news.NewsItem
	NewsEvents() <-chan newsview.NewsEvent
	Trade(ctx context.Context, symbol string, side portfolio.Side, shares int64) (portfolio.Trade, error)
	Advance(ctx context.Context, n int) (engine.TurnReport, error)
	Now() time.Time
	TickCount() int
	Over() (engine.Outcome, bool)
}

// Options tune the TUI.
type Options struct {
	// TicksPerTurn is how many ticks one "next turn" runs.
	TicksPerTurn int
	// Save persists the session; nil disables saving.
	Save func() error
	// AutoSave saves after every turn.
	AutoSave bool
	// Refresh streams reference-quote updates; nil when offline.
	Refresh <-chan refresh.Event
}

// Model is the main TUI application model.
type Model struct {
	session Session
	opts    Options

	// Panels
	marketPanel    *panels.MarketPanel
	portfolioPanel *panels.PortfolioPanel
	chartPanel     *panels.CandlestickPanel
	newsPanel      *panels.NewsPanel
	tradePanel     *panels.TradePanel

	// Focus management
	focusedPanel PanelFocus

	// Window dimensions
	width  int
	height int

	// Status
	statusMsg string
	busy      bool
	ready     bool
}

// NewModel creates a new TUI model.
func NewModel(session Session, opts Options) *Model {
	if opts.TicksPerTurn <= 0 {
		opts.TicksPerTurn = 1
	}

	rows := session.Quotes()
	tickers := make([]market.Ticker, 0, len(rows))
	for _, r := range rows {
		tickers = append(tickers, r.Ticker)
	}

	m := &Model{
		session:        session,
		opts:           opts,
		marketPanel:    panels.NewMarketPanel(),
		portfolioPanel: panels.NewPortfolioPanel(),
		chartPanel:     panels.NewCandlestickPanel(),
		newsPanel:      panels.NewNewsPanel(),
		tradePanel:     panels.NewTradePanel(tickers),
		focusedPanel:   FocusMarket,
	}
	if len(tickers) > 0 {
		m.chartPanel.SetTicker(tickers[0])
	}
	m.updateAllData()
	return m
}

// Init initializes the model.
func (m *Model) Init() tea.Cmd {
	return tea.Batch(
		m.marketPanel.Init(),
		m.portfolioPanel.Init(),
		m.newsPanel.Init(),
		m.tradePanel.Init(),
		m.chartPanel.Init(),
		m.listenNewsEvents(),
		m.listenRefreshEvents(),
	)
}

// Update handles messages.
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmds []tea.Cmd

	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c":
			return m, tea.Quit

		case "q":
			// q is a letter in the trade form
			if m.focusedPanel != FocusTrade {
				return m, tea.Quit
			}

		case "tab":
			m.cycleFocus()
			return m, nil

		case "shift+tab":
			m.focusedPanel = (m.focusedPanel + panelCount - 1) % panelCount
			return m, nil

		case "f1":
			m.setFocus(FocusMarket)
		case "f2":
			m.setFocus(FocusPortfolio)
		case "f3":
			m.setFocus(FocusChart)
		case "f4":
			m.setFocus(FocusNews)
		case "f5":
			m.setFocus(FocusTrade)

		case "ctrl+n", "f6":
			cmds = append(cmds, m.nextTurn())
		case "ctrl+s", "f7":
			cmds = append(cmds, m.save())
		}

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.ready = true

	case panels.TickerSelectedMsg:
		m.selectTicker(msg.Ticker)

	case panels.TradeSubmitMsg:
		cmds = append(cmds, m.submitTrade(msg))

	case panels.TradeInvalidMsg:
		m.statusMsg = "✗ " + msg.Reason

	case tradeResultMsg:
		m.statusMsg = msg.message
		m.updateAllData()

	case turnResultMsg:
		m.busy = false
		m.statusMsg = msg.message
		m.updateAllData()

	case saveResultMsg:
		m.statusMsg = msg.message

	case newsMsg:
		m.newsPanel.AddNews(msg.item)
		cmds = append(cmds, m.listenNewsEvents())

	case refreshMsg:
		if msg.ev.Type == refresh.EventQuote {
			m.marketPanel.SetRows(m.session.Quotes())
		}
		cmds = append(cmds, m.listenRefreshEvents())
	}

	m.updateFocusedPanel(msg, &cmds)

	return m, tea.Batch(cmds...)
}

func (m *Model) updateFocusedPanel(msg tea.Msg, cmds *[]tea.Cmd) {
	var cmd tea.Cmd

	switch m.focusedPanel {
	case FocusMarket:
		m.marketPanel, cmd = m.marketPanel.Update(msg)
	case FocusPortfolio:
		m.portfolioPanel, cmd = m.portfolioPanel.Update(msg)
	case FocusNews:
		m.newsPanel, cmd = m.newsPanel.Update(msg)
	case FocusTrade:
		m.tradePanel, cmd = m.tradePanel.Update(msg)
	case FocusChart:
		m.chartPanel, cmd = m.chartPanel.Update(msg)
	}

	if cmd != nil {
		*cmds = append(*cmds, cmd)
	}
}

// View renders the UI.
func (m *Model) View() string {
	if !m.ready {
		return "Initializing..."
	}

	m.marketPanel.SetFocus(m.focusedPanel == FocusMarket)
	m.portfolioPanel.SetFocus(m.focusedPanel == FocusPortfolio)
	m.newsPanel.SetFocus(m.focusedPanel == FocusNews)
	m.tradePanel.SetFocus(m.focusedPanel == FocusTrade)
	m.chartPanel.SetFocus(m.focusedPanel == FocusChart)

	// Layout:
	// ┌─────────────────────────────────────────────┐
	// │     Market        │  Portfolio  │   Chart   │
	// │                   │             │           │
	// ├───────────────────┼─────────────┴───────────┤
	// │      News         │         Trade           │
	// └───────────────────┴─────────────────────────┘

	leftWidth := m.width * 2 / 5
	middleWidth := m.width * 3 / 10
	rightWidth := m.width - leftWidth - middleWidth

	topHeight := (m.height - 3) * 3 / 5
	bottomHeight := m.height - topHeight - 3

	m.marketPanel.SetSize(leftWidth, topHeight)
	m.portfolioPanel.SetSize(middleWidth, topHeight)
	m.chartPanel.SetSize(rightWidth, topHeight)

	topRow := lipgloss.JoinHorizontal(lipgloss.Top,
		m.marketPanel.View(),
		m.portfolioPanel.View(),
		m.chartPanel.View(),
	)

	m.newsPanel.SetSize(leftWidth+middleWidth, bottomHeight)
	m.tradePanel.SetSize(rightWidth, bottomHeight)

	bottomRow := lipgloss.JoinHorizontal(lipgloss.Top,
		m.newsPanel.View(),
		m.tradePanel.View(),
	)

	return lipgloss.JoinVertical(lipgloss.Left, topRow, bottomRow, m.renderStatusBar())
}

func (m *Model) renderStatusBar() string {
	help := lipgloss.JoinHorizontal(lipgloss.Center,
		styles.StatusBarKeyStyle.Render("F1-F5")+styles.StatusBarDescStyle.Render(" panels"),
		" │ ",
		styles.StatusBarKeyStyle.Render("^N/F6")+styles.StatusBarDescStyle.Render(" next turn"),
		" │ ",
		styles.StatusBarKeyStyle.Render("^S/F7")+styles.StatusBarDescStyle.Render(" save"),
		" │ ",
		styles.StatusBarKeyStyle.Render("q")+styles.StatusBarDescStyle.Render(" quit"),
	)

	clock := fmt.Sprintf(" │ %s tick %d", m.session.Now().Format("2006-01-02 15:04"), m.session.TickCount())

	if outcome, over := m.session.Over(); over {
		clock += " │ " + styles.GameOverStyle.Render(gameOverText(outcome))
	}

	status := ""
	if m.statusMsg != "" {
		status = " │ " + m.statusMsg
	}

	return styles.StatusBarStyle.Width(m.width).Render(help + clock + status)
}

func gameOverText(o engine.Outcome) string {
	switch o {
	case engine.Bankrupt:
		return "BANKRUPT"
	case engine.DataEnd:
		return "END OF DATA"
	default:
		return "GAME OVER"
	}
}

func (m *Model) setFocus(panel PanelFocus) {
	m.focusedPanel = panel
}

func (m *Model) cycleFocus() {
	m.focusedPanel = (m.focusedPanel + 1) % panelCount
}

func (m *Model) selectTicker(t market.Ticker) {
	m.chartPanel.SetTicker(t)
	m.tradePanel.SetTicker(t)
	m.updateChart()
}

func (m *Model) updateAllData() {
	rows := m.session.Quotes()
	m.marketPanel.SetRows(rows)

	pl, pct := m.session.ProfitLoss()
	m.portfolioPanel.SetSnapshot(panels.AccountSnapshot{
		Cash:          m.session.Cash(),
		TotalAssets:   m.session.TotalAssets(),
		ProfitLoss:    pl,
		ProfitLossPct: pct,
		Holdings:      m.session.Summary(),
		Trades:        m.session.Trades(),
	})

	m.newsPanel.SetNews(m.session.News(50))
	m.updateChart()

	sel := m.chartPanel.Ticker().Symbol
	for _, r := range rows {
		if r.Ticker.Symbol == sel {
			m.tradePanel.SetPrice(r.Price)
		}
	}
}

func (m *Model) updateChart() {
	sym := m.chartPanel.Ticker().Symbol
	if sym == "" {
		return
	}
	bars, err := m.session.History(sym)
	if err != nil {
		return
	}
	m.chartPanel.SetBars(bars)
}

func (m *Model) submitTrade(t panels.TradeSubmitMsg) tea.Cmd {
	return func() tea.Msg {
		trade, err := m.session.Trade(context.Background(), t.Ticker.Symbol, t.Side, t.Shares)
		if err != nil {
			return tradeResultMsg{message: "✗ Trade failed: " + tradeError(err)}
		}
		return tradeResultMsg{message: fmt.Sprintf("✓ %s %d %s @ %s",
			trade.Side, trade.Shares, trade.Symbol, trade.Price.StringFixed(2))}
	}
}

func tradeError(err error) string {
	switch {
	case errors.Is(err, portfolio.ErrInsufficientCash):
		return "not enough cash"
	case errors.Is(err, portfolio.ErrInsufficientShares), errors.Is(err, portfolio.ErrNoPosition):
		return "not enough shares"
	case errors.Is(err, game.ErrGameOver):
		return "the game is over"
	default:
		return err.Error()
	}
}

func (m *Model) nextTurn() tea.Cmd {
	if m.busy {
		return nil
	}
	if outcome, over := m.session.Over(); over {
		m.statusMsg = "Game over: " + gameOverText(outcome)
		return nil
	}
	m.busy = true
	n := m.opts.TicksPerTurn
	return func() tea.Msg {
		rep, err := m.session.Advance(context.Background(), n)
		if err != nil {
			return turnResultMsg{message: "✗ Turn interrupted: " + err.Error()}
		}
		msg := fmt.Sprintf("Advanced %d tick(s)", rep.Ran())
		if rep.Outcome.Terminal() {
			msg = "Game over: " + gameOverText(rep.Outcome)
		}
		if m.opts.AutoSave && m.opts.Save != nil {
			if err := m.opts.Save(); err != nil {
				msg += " (save failed: " + err.Error() + ")"
			}
		}
		return turnResultMsg{message: msg}
	}
}

func (m *Model) save() tea.Cmd {
	if m.opts.Save == nil {
		m.statusMsg = "Saving is disabled"
		return nil
	}
	save := m.opts.Save
	return func() tea.Msg {
		if err := save(); err != nil {
			return saveResultMsg{message: "✗ Save failed: " + err.Error()}
		}
		return saveResultMsg{message: "✓ Saved"}
	}
}

func (m *Model) listenNewsEvents() tea.Cmd {
	events := m.session.NewsEvents()
	return func() tea.Msg {
		ev, ok := <-events
		if !ok {
			return nil
		}
		return newsMsg{item: ev.Item}
	}
}

func (m *Model) listenRefreshEvents() tea.Cmd {
	if m.opts.Refresh == nil {
		return nil
	}
	events := m.opts.Refresh
	return func() tea.Msg {
		ev, ok := <-events
		if !ok {
			return nil
		}
		return refreshMsg{ev: ev}
	}
}

type tradeResultMsg struct {
	message string
}

type turnResultMsg struct {
	message string
}

type saveResultMsg struct {
	message string
}

type newsMsg struct {
	item news.NewsItem
}

type refreshMsg struct {
	ev refresh.Event
}
