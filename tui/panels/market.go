package panels

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/zappabad/marketsim/internal/game"
	"github.com/zappabad/marketsim/internal/market"
	"github.com/zappabad/marketsim/tui/styles"
)

// MarketPanel displays current prices for all instruments.
type MarketPanel struct {
	rows          []game.QuoteRow
	selectedIndex int
	focused       bool
	width         int
	height        int
}

// NewMarketPanel creates a new market panel.
func NewMarketPanel() *MarketPanel {
	return &MarketPanel{}
}

// Init initializes the panel.
func (p *MarketPanel) Init() tea.Cmd {
	return nil
}

// Update handles messages for the panel.
func (p *MarketPanel) Update(msg tea.Msg) (*MarketPanel, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		if !p.focused {
			return p, nil
		}
		prev := p.selectedIndex
		switch {
		case key.Matches(msg, key.NewBinding(key.WithKeys("up", "k"))):
			if p.selectedIndex > 0 {
				p.selectedIndex--
			}
		case key.Matches(msg, key.NewBinding(key.WithKeys("down", "j"))):
			if p.selectedIndex < len(p.rows)-1 {
				p.selectedIndex++
			}
		}
		if prev != p.selectedIndex {
			selected := p.SelectedTicker()
			return p, func() tea.Msg { return TickerSelectedMsg{Ticker: selected} }
		}
	}
	return p, nil
}

// View renders the panel.
func (p *MarketPanel) View() string {
	var content strings.Builder

	header := fmt.Sprintf("%-6s %10s %9s %8s  %-10s %10s",
		"Symbol", "Price", "Change", "Chg%", "Rating", "Live")
	content.WriteString(styles.HeaderStyle.Render(header))
	content.WriteString("\n")

	for i, row := range p.rows {
		content.WriteString(p.renderRow(i, row))
		if i < len(p.rows)-1 {
			content.WriteString("\n")
		}
	}

	panelStyle := styles.PanelStyle
	if p.focused {
		panelStyle = styles.FocusedPanelStyle
	}

	title := styles.RenderTitle("📈 Market", p.focused)
	panel := lipgloss.JoinVertical(lipgloss.Left, title, content.String())

	return panelStyle.Width(p.width - 2).Height(p.height - 2).Render(panel)
}

func (p *MarketPanel) renderRow(i int, row game.QuoteRow) string {
	dec := row.Ticker.Decimals
	price, change, pct := "-", "-", "-"
	if row.Price > 0 {
		price = styles.FormatPrice(row.Price, dec)
		change = fmt.Sprintf("%+.*f", int(dec), row.Change)
		pct = styles.FormatPct(row.ChangePct)
	}
	live := "-"
	if row.HasReference {
		live = styles.FormatPrice(row.Reference.Close, dec)
	}

	move := styles.ChangeStyle(row.Change)
	line := fmt.Sprintf("%-6s %10s %s %s  %s %10s",
		row.Ticker.Symbol,
		price,
		move.Render(fmt.Sprintf("%9s", change)),
		move.Render(fmt.Sprintf("%8s", pct)),
		styles.RecommendationStyle(row.Recommendation).Render(fmt.Sprintf("%-10s", row.Recommendation)),
		live,
	)

	if i == p.selectedIndex && p.focused {
		return styles.SelectedRowStyle.Render(line)
	}
	return styles.RowStyle.Render(line)
}

// SetFocus sets the focus state of the panel.
func (p *MarketPanel) SetFocus(focused bool) {
	p.focused = focused
}

// SetSize sets the panel dimensions.
func (p *MarketPanel) SetSize(width, height int) {
	p.width = width
	p.height = height
}

// SetRows replaces the market table.
func (p *MarketPanel) SetRows(rows []game.QuoteRow) {
	p.rows = rows
	if p.selectedIndex >= len(rows) {
		p.selectedIndex = len(rows) - 1
	}
	if p.selectedIndex < 0 {
		p.selectedIndex = 0
	}
}

// SelectedTicker returns the currently selected ticker.
func (p *MarketPanel) SelectedTicker() market.Ticker {
	if p.selectedIndex >= 0 && p.selectedIndex < len(p.rows) {
		return p.rows[p.selectedIndex].Ticker
	}
	return market.Ticker{}
}

// TickerSelectedMsg is sent when a ticker is selected.
type TickerSelectedMsg struct {
	Ticker market.Ticker
}
