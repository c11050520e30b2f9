package panels

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/shopspring/decimal"

	"github.com/zappabad/marketsim/internal/portfolio"
	"github.com/zappabad/marketsim/tui/styles"
)

// AccountSnapshot is everything the portfolio panel shows.
type AccountSnapshot struct {
	Cash          decimal.Decimal
	TotalAssets   decimal.Decimal
	ProfitLoss    decimal.Decimal
	ProfitLossPct decimal.Decimal
	Holdings      []portfolio.SummaryRow
	Trades        []portfolio.Trade
}

// PortfolioPanel displays cash, holdings and recent trades.
type PortfolioPanel struct {
	snap          AccountSnapshot
	selectedIndex int
	focused       bool
	width         int
	height        int
}

// NewPortfolioPanel creates a new portfolio panel.
func NewPortfolioPanel() *PortfolioPanel {
	return &PortfolioPanel{}
}

// Init initializes the panel.
func (p *PortfolioPanel) Init() tea.Cmd {
	return nil
}

// Update handles messages for the panel.
func (p *PortfolioPanel) Update(msg tea.Msg) (*PortfolioPanel, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		if !p.focused {
			return p, nil
		}
		switch {
		case key.Matches(msg, key.NewBinding(key.WithKeys("up", "k"))):
			if p.selectedIndex > 0 {
				p.selectedIndex--
			}
		case key.Matches(msg, key.NewBinding(key.WithKeys("down", "j"))):
			if p.selectedIndex < len(p.snap.Holdings)-1 {
				p.selectedIndex++
			}
		}
	}
	return p, nil
}

// View renders the panel.
func (p *PortfolioPanel) View() string {
	var content strings.Builder

	pl := p.snap.ProfitLoss.InexactFloat64()
	content.WriteString(fmt.Sprintf("%s %s   %s %s\n",
		styles.LabelStyle.Render("Cash"), styles.PriceStyle.Render(styles.FormatMoney(p.snap.Cash)),
		styles.LabelStyle.Render("Total"), styles.PriceStyle.Render(styles.FormatMoney(p.snap.TotalAssets))))
	content.WriteString(fmt.Sprintf("%s %s\n\n",
		styles.LabelStyle.Render("P/L "),
		styles.ChangeStyle(pl).Render(fmt.Sprintf("%s (%s%%)", styles.FormatMoney(p.snap.ProfitLoss), p.snap.ProfitLossPct.StringFixed(2)))))

	header := fmt.Sprintf("%-6s %7s %10s %10s %11s %8s", "Symbol", "Shares", "AvgCost", "Price", "Value", "P/L%")
	content.WriteString(styles.HeaderStyle.Render(header))
	content.WriteString("\n")

	if len(p.snap.Holdings) == 0 {
		content.WriteString(lipgloss.NewStyle().Foreground(styles.TextMutedColor).Render("No positions"))
	}
	for i, h := range p.snap.Holdings {
		pct := h.ProfitLossPct.InexactFloat64()
		line := fmt.Sprintf("%-6s %7d %10s %10s %11s %s",
			h.Symbol, h.Shares,
			h.AvgCost.StringFixed(2), h.Price.StringFixed(2), h.MarketValue.StringFixed(2),
			styles.ChangeStyle(pct).Render(fmt.Sprintf("%8s", styles.FormatPct(pct))))
		if i == p.selectedIndex && p.focused {
			line = styles.SelectedRowStyle.Render(line)
		}
		content.WriteString(line)
		content.WriteString("\n")
	}

	// Most recent trades fill the remaining rows
	room := p.height - 9 - len(p.snap.Holdings)
	if room > 0 && len(p.snap.Trades) > 0 {
		content.WriteString("\n")
		content.WriteString(styles.HeaderStyle.Render("Recent trades"))
		for i := len(p.snap.Trades) - 1; i >= 0 && room > 1; i-- {
			t := p.snap.Trades[i]
			side := styles.BuyStyle.Render("BUY ")
			if t.Side == portfolio.Sell {
				side = styles.SellStyle.Render("SELL")
			}
			content.WriteString(fmt.Sprintf("\n%s %s %-6s %5d @ %s",
				styles.TimeStyle.Render(t.Time.Format("01-02 15:04")), side, t.Symbol, t.Shares, t.Price.StringFixed(2)))
			room--
		}
	}

	panelStyle := styles.PanelStyle
	if p.focused {
		panelStyle = styles.FocusedPanelStyle
	}

	title := styles.RenderTitle("💼 Portfolio", p.focused)
	panel := lipgloss.JoinVertical(lipgloss.Left, title, content.String())

	return panelStyle.Width(p.width - 2).Height(p.height - 2).Render(panel)
}

// SetFocus sets the focus state of the panel.
func (p *PortfolioPanel) SetFocus(focused bool) {
	p.focused = focused
}

// SetSize sets the panel dimensions.
func (p *PortfolioPanel) SetSize(width, height int) {
	p.width = width
	p.height = height
}

// SetSnapshot replaces the account data.
func (p *PortfolioPanel) SetSnapshot(snap AccountSnapshot) {
	p.snap = snap
	if p.selectedIndex >= len(snap.Holdings) {
		p.selectedIndex = len(snap.Holdings) - 1
	}
	if p.selectedIndex < 0 {
		p.selectedIndex = 0
	}
}

// SelectedSymbol returns the highlighted holding, if any.
func (p *PortfolioPanel) SelectedSymbol() string {
	if p.selectedIndex >= 0 && p.selectedIndex < len(p.snap.Holdings) {
		return p.snap.Holdings[p.selectedIndex].Symbol
	}
	return ""
}
