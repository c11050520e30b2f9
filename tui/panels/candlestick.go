package panels

import (
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/zappabad/marketsim/internal/market"
	"github.com/zappabad/marketsim/tui/styles"
)

// CandlestickPanel displays a candlestick chart of an instrument's
// history.
type CandlestickPanel struct {
	ticker market.Ticker
	bars   []market.Bar

	focused bool
	width   int
	height  int
}

// NewCandlestickPanel creates a new candlestick chart panel.
func NewCandlestickPanel() *CandlestickPanel {
	return &CandlestickPanel{}
}

// Init initializes the panel.
func (p *CandlestickPanel) Init() tea.Cmd {
	return nil
}

// Update handles messages for the panel.
func (p *CandlestickPanel) Update(msg tea.Msg) (*CandlestickPanel, tea.Cmd) {
	return p, nil
}

// View renders the panel.
func (p *CandlestickPanel) View() string {
	tickerName := "No ticker"
	if p.ticker.Symbol != "" {
		tickerName = p.ticker.Symbol
	}

	var content strings.Builder

	chartWidth := p.width - 4
	chartHeight := p.height - 4
	if chartHeight < 5 {
		chartHeight = 5
	}

	if len(p.bars) == 0 {
		content.WriteString(lipgloss.NewStyle().Foreground(styles.TextMutedColor).Render("No price history yet..."))
	} else {
		content.WriteString(p.renderChart(chartWidth, chartHeight, p.bars))
	}

	panelStyle := styles.PanelStyle
	if p.focused {
		panelStyle = styles.FocusedPanelStyle
	}

	title := styles.RenderTitle(fmt.Sprintf("📉 Chart - %s", tickerName), p.focused)
	panel := lipgloss.JoinVertical(lipgloss.Left, title, content.String())

	return panelStyle.Width(p.width - 2).Height(p.height - 2).Render(panel)
}

func (p *CandlestickPanel) renderChart(width, height int, bars []market.Bar) string {
	// Reserve space: 10 chars for price axis, 1 for separator
	chartWidth := width - 11
	if chartWidth < 10 {
		chartWidth = 10
	}

	// Each candle takes 2 columns: candle, space
	toShow := chartWidth / 2
	if toShow < 1 {
		toShow = 1
	}
	display := bars
	if len(display) > toShow {
		display = display[len(display)-toShow:]
	}

	minPrice, maxPrice := display[0].Low, display[0].High
	for _, b := range display {
		if b.Low < minPrice {
			minPrice = b.Low
		}
		if b.High > maxPrice {
			maxPrice = b.High
		}
	}

	// 10% padding; flat series get a band around the price
	spread := maxPrice - minPrice
	if spread <= 0 {
		spread = maxPrice * 0.02
		if spread <= 0 {
			spread = 1
		}
	}
	minPrice -= spread * 0.1
	maxPrice += spread * 0.1

	// Reserve 2 rows for the time axis
	rows := height - 3
	if rows < 5 {
		rows = 5
	}

	var result strings.Builder
	for row := 0; row < rows; row++ {
		price := yToPrice(row, minPrice, maxPrice, rows)
		label := styles.FormatPrice(price, p.ticker.Decimals)
		result.WriteString(styles.ChartAxisStyle.Render(fmt.Sprintf("%9s │", label)))

		for _, b := range display {
			style := styles.CandleUpStyle
			if b.Close < b.Open {
				style = styles.CandleDownStyle
			}
			result.WriteString(style.Render(string(candleChar(b, row, minPrice, maxPrice, rows))))
			result.WriteString(" ")
		}
		result.WriteString("\n")
	}

	result.WriteString(styles.ChartAxisStyle.Render("──────────┴"))
	for range display {
		result.WriteString(styles.ChartAxisStyle.Render("──"))
	}
	result.WriteString("\n")

	// Day-of-month labels on the first candle and every fifth after it
	result.WriteString(styles.ChartAxisStyle.Render("           "))
	for i, b := range display {
		if i%5 == 0 {
			result.WriteString(styles.ChartLabelStyle.Render(b.Time.Format("02")))
			continue
		}
		if i%5 == 1 {
			// the label above took this column
			continue
		}
		result.WriteString("  ")
	}

	return result.String()
}

// candleChar returns the character to draw for a bar at a given row.
func candleChar(b market.Bar, row int, minPrice, maxPrice float64, height int) rune {
	rowPrice := yToPrice(row, minPrice, maxPrice, height)

	bodyTop, bodyBottom := b.Open, b.Close
	if b.Close > b.Open {
		bodyTop, bodyBottom = b.Close, b.Open
	}

	// Half a row of tolerance maps continuous prices onto discrete rows
	tol := (maxPrice - minPrice) / float64(height*2)

	switch {
	case rowPrice <= bodyTop+tol && rowPrice >= bodyBottom-tol:
		return '┃'
	case rowPrice <= b.High+tol && rowPrice > bodyTop:
		return '│'
	case rowPrice >= b.Low-tol && rowPrice < bodyBottom:
		return '│'
	}
	return ' '
}

func yToPrice(y int, minPrice, maxPrice float64, height int) float64 {
	if height <= 1 {
		return minPrice
	}
	ratio := float64(y) / float64(height-1)
	return maxPrice - ratio*(maxPrice-minPrice)
}

// SetFocus sets the focus state of the panel.
func (p *CandlestickPanel) SetFocus(focused bool) {
	p.focused = focused
}

// SetSize sets the panel dimensions.
func (p *CandlestickPanel) SetSize(width, height int) {
	p.width = width
	p.height = height
}

// SetTicker sets the ticker to chart and clears the old bars.
func (p *CandlestickPanel) SetTicker(ticker market.Ticker) {
	p.ticker = ticker
	p.bars = nil
}

// SetBars replaces the charted history.
func (p *CandlestickPanel) SetBars(bars []market.Bar) {
	p.bars = bars
}

// Ticker returns the current ticker.
func (p *CandlestickPanel) Ticker() market.Ticker {
	return p.ticker
}
