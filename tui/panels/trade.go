package panels

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/zappabad/marketsim/internal/market"
	"github.com/zappabad/marketsim/internal/portfolio"
	"github.com/zappabad/marketsim/tui/styles"
)

// TradeField represents the currently focused input field.
type TradeField int

const (
	FieldTicker TradeField = iota
	FieldSide
	FieldShares
	FieldSubmit
)

// TradePanel handles trade entry with symbol autocomplete. Trades execute
// at the instrument's current simulated price.
type TradePanel struct {
	tickers     []market.Ticker
	tickerInput textinput.Model
	sharesInput textinput.Model

	// Dropdown state
	showDropdown     bool
	dropdownItems    []string
	dropdownFiltered []string
	dropdownIndex    int

	// Side dropdown
	sideOptions []string
	sideIndex   int

	// Current field
	currentField TradeField

	// Selected values
	selectedTicker *market.Ticker
	price          float64

	focused bool
	width   int
	height  int
}

// NewTradePanel creates a new trade panel.
func NewTradePanel(tickers []market.Ticker) *TradePanel {
	symbols := make([]string, len(tickers))
	for i, t := range tickers {
		symbols[i] = t.Symbol
	}

	tickerInput := textinput.New()
	tickerInput.Placeholder = "Search symbol..."
	tickerInput.Width = 15
	tickerInput.CharLimit = 10

	sharesInput := textinput.New()
	sharesInput.Placeholder = "Shares"
	sharesInput.Width = 10
	sharesInput.CharLimit = 12

	return &TradePanel{
		tickers:          tickers,
		tickerInput:      tickerInput,
		sharesInput:      sharesInput,
		dropdownItems:    symbols,
		dropdownFiltered: symbols,
		sideOptions:      []string{"BUY", "SELL"},
		currentField:     FieldTicker,
	}
}

// Init initializes the panel.
func (p *TradePanel) Init() tea.Cmd {
	return textinput.Blink
}

// Update handles messages for the panel.
func (p *TradePanel) Update(msg tea.Msg) (*TradePanel, tea.Cmd) {
	if !p.focused {
		return p, nil
	}

	var cmd tea.Cmd

	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch {
		// down arrow to next field
		case key.Matches(msg, key.NewBinding(key.WithKeys("down"))):
			p.nextField()
			return p, nil

		// up arrow to previous field
		case key.Matches(msg, key.NewBinding(key.WithKeys("up"))):
			p.prevField()
			return p, nil

		// Enter to submit or select dropdown
		case key.Matches(msg, key.NewBinding(key.WithKeys("enter"))):
			if p.currentField == FieldSubmit {
				return p, p.submitTrade()
			}
			if p.showDropdown && p.currentField == FieldTicker {
				p.selectDropdownItem()
				p.showDropdown = false
				p.nextField()
				return p, nil
			}
			p.nextField()
			return p, nil

		// Escape to close dropdown
		case key.Matches(msg, key.NewBinding(key.WithKeys("esc"))):
			p.showDropdown = false
			return p, nil

		// Arrow keys for dropdown navigation
		case key.Matches(msg, key.NewBinding(key.WithKeys("left"))):
			if p.showDropdown {
				if p.dropdownIndex > 0 {
					p.dropdownIndex--
				}
				return p, nil
			}
			if p.currentField == FieldSide {
				if p.sideIndex > 0 {
					p.sideIndex--
				}
				return p, nil
			}

		case key.Matches(msg, key.NewBinding(key.WithKeys("right"))):
			if p.showDropdown {
				if p.dropdownIndex < len(p.dropdownFiltered)-1 {
					p.dropdownIndex++
				}
				return p, nil
			}
			if p.currentField == FieldSide {
				if p.sideIndex < len(p.sideOptions)-1 {
					p.sideIndex++
				}
				return p, nil
			}
		}
	}

	// Update the appropriate text input
	switch p.currentField {
	case FieldTicker:
		p.tickerInput, cmd = p.tickerInput.Update(msg)
		p.filterDropdown(p.tickerInput.Value())
		p.showDropdown = len(p.tickerInput.Value()) > 0

	case FieldShares:
		p.sharesInput, cmd = p.sharesInput.Update(msg)
	}

	return p, cmd
}

// View renders the panel.
func (p *TradePanel) View() string {
	var content strings.Builder

	// Ticker field with dropdown
	content.WriteString(p.renderField("Symbol", FieldTicker, p.renderTickerField()))
	content.WriteString("\n")

	// Side field
	content.WriteString(p.renderField("Side", FieldSide, p.renderSideField()))
	content.WriteString("\n")

	// Shares field
	content.WriteString(p.renderField("Shares", FieldShares, p.sharesInput.View()))
	content.WriteString("\n\n")

	// Submit button
	submitStyle := styles.InputStyle
	if p.currentField == FieldSubmit && p.focused {
		submitStyle = styles.FocusedInputStyle.Bold(true).Foreground(styles.PrimaryColor)
	}
	content.WriteString(submitStyle.Render("  [Execute Trade]  "))

	// Trade summary
	content.WriteString("\n\n")
	content.WriteString(p.renderSummary())

	// Apply panel styling
	panelStyle := styles.PanelStyle
	if p.focused {
		panelStyle = styles.FocusedPanelStyle
	}

	title := styles.RenderTitle("📝 Trade", p.focused)
	panel := lipgloss.JoinVertical(lipgloss.Left, title, content.String())

	return panelStyle.Width(p.width - 2).Height(p.height - 2).Render(panel)
}

func (p *TradePanel) renderField(label string, field TradeField, inputView string) string {
	labelStyle := styles.LabelStyle
	if p.currentField == field && p.focused {
		labelStyle = labelStyle.Foreground(styles.PrimaryColor)
	}
	labelStr := labelStyle.Render(fmt.Sprintf("%-8s", label))
	return labelStr + inputView
}

func (p *TradePanel) renderTickerField() string {
	var result strings.Builder

	// Render input
	inputStyle := styles.InputStyle
	if p.currentField == FieldTicker && p.focused {
		inputStyle = styles.FocusedInputStyle
		p.tickerInput.Focus()
	} else {
		p.tickerInput.Blur()
	}

	result.WriteString(inputStyle.Render(p.tickerInput.View()))

	// Render dropdown if showing
	if p.showDropdown && len(p.dropdownFiltered) > 0 {
		result.WriteString("\n")
		maxShow := 5
		if len(p.dropdownFiltered) < maxShow {
			maxShow = len(p.dropdownFiltered)
		}

		for i := 0; i < maxShow; i++ {
			item := p.dropdownFiltered[i]
			style := styles.DropdownItemStyle
			if i == p.dropdownIndex {
				style = styles.DropdownSelectedStyle
			}

			// Highlight matching characters
			highlighted := p.highlightMatch(item, p.tickerInput.Value())
			result.WriteString("         " + style.Render(highlighted))
			if i < maxShow-1 {
				result.WriteString("\n")
			}
		}
	}

	return result.String()
}

func (p *TradePanel) renderSideField() string {
	var items []string
	for i, opt := range p.sideOptions {
		style := styles.DropdownItemStyle
		if i == p.sideIndex {
			if p.currentField == FieldSide && p.focused {
				style = styles.DropdownSelectedStyle
			} else {
				style = styles.DropdownItemStyle.Bold(true)
			}
		}

		// Color code buy/sell
		if opt == "BUY" && i == p.sideIndex {
			style = style.Foreground(styles.BuyColor)
		} else if opt == "SELL" && i == p.sideIndex {
			style = style.Foreground(styles.SellColor)
		}

		items = append(items, style.Render(opt))
	}
	return strings.Join(items, " | ")
}

func (p *TradePanel) renderSummary() string {
	var parts []string

	ticker := p.tickerInput.Value()
	if p.selectedTicker != nil {
		ticker = p.selectedTicker.Symbol
	}
	if ticker == "" {
		ticker = "---"
	}

	side := p.sideOptions[p.sideIndex]
	sideStyle := styles.BuyStyle
	if side == "SELL" {
		sideStyle = styles.SellStyle
	}
	parts = append(parts, sideStyle.Render(side))

	shares := p.sharesInput.Value()
	if shares == "" {
		shares = "0"
	}
	parts = append(parts, shares, ticker)

	if p.selectedTicker != nil && p.price > 0 {
		parts = append(parts, "@ "+styles.FormatPrice(p.price, p.selectedTicker.Decimals))
	}

	return styles.HeaderStyle.Render("Trade: ") + strings.Join(parts, " ")
}

func (p *TradePanel) filterDropdown(query string) {
	query = strings.ToUpper(query)
	p.dropdownFiltered = nil
	p.dropdownIndex = 0

	for i, item := range p.dropdownItems {
		name := strings.ToUpper(p.tickers[i].Name)
		if strings.Contains(strings.ToUpper(item), query) || strings.Contains(name, query) {
			p.dropdownFiltered = append(p.dropdownFiltered, item)
		}
	}
}

func (p *TradePanel) highlightMatch(item, query string) string {
	if query == "" {
		return item
	}

	upper := strings.ToUpper(item)
	queryUpper := strings.ToUpper(query)
	idx := strings.Index(upper, queryUpper)
	if idx == -1 {
		return item
	}

	before := item[:idx]
	match := item[idx : idx+len(query)]
	after := item[idx+len(query):]

	return before + styles.DropdownMatchStyle.Render(match) + after
}

func (p *TradePanel) selectDropdownItem() {
	if p.dropdownIndex < len(p.dropdownFiltered) {
		selected := p.dropdownFiltered[p.dropdownIndex]
		p.tickerInput.SetValue(selected)

		// Find and set the actual ticker
		for i, t := range p.tickers {
			if t.Symbol == selected {
				p.selectedTicker = &p.tickers[i]
				break
			}
		}
	}
}

func (p *TradePanel) nextField() {
	p.showDropdown = false
	switch p.currentField {
	case FieldTicker:
		p.selectDropdownItem()
		p.currentField = FieldSide
		p.tickerInput.Blur()
	case FieldSide:
		p.currentField = FieldShares
		p.sharesInput.Focus()
	case FieldShares:
		p.currentField = FieldSubmit
		p.sharesInput.Blur()
	case FieldSubmit:
		p.currentField = FieldTicker
		p.tickerInput.Focus()
	}
}

func (p *TradePanel) prevField() {
	p.showDropdown = false
	switch p.currentField {
	case FieldTicker:
		p.currentField = FieldSubmit
		p.tickerInput.Blur()
	case FieldSide:
		p.currentField = FieldTicker
		p.tickerInput.Focus()
	case FieldShares:
		p.currentField = FieldSide
		p.sharesInput.Blur()
	case FieldSubmit:
		p.currentField = FieldShares
		p.sharesInput.Focus()
	}
}

func (p *TradePanel) submitTrade() tea.Cmd {
	if p.selectedTicker == nil {
		return func() tea.Msg { return TradeInvalidMsg{Reason: "pick a symbol first"} }
	}

	shares, err := strconv.ParseInt(strings.TrimSpace(p.sharesInput.Value()), 10, 64)
	if err != nil || shares <= 0 {
		return func() tea.Msg { return TradeInvalidMsg{Reason: "shares must be a positive whole number"} }
	}

	side := portfolio.Buy
	if p.sideIndex == 1 {
		side = portfolio.Sell
	}

	ticker := *p.selectedTicker
	return func() tea.Msg {
		return TradeSubmitMsg{Ticker: ticker, Side: side, Shares: shares}
	}
}

// SetFocus sets the focus state of the panel.
func (p *TradePanel) SetFocus(focused bool) {
	p.focused = focused
	if focused {
		switch p.currentField {
		case FieldTicker:
			p.tickerInput.Focus()
		case FieldShares:
			p.sharesInput.Focus()
		}
	} else {
		p.tickerInput.Blur()
		p.sharesInput.Blur()
	}
}

// SetSize sets the panel dimensions.
func (p *TradePanel) SetSize(width, height int) {
	p.width = width
	p.height = height
}

// SetTicker pre-fills the ticker field.
func (p *TradePanel) SetTicker(ticker market.Ticker) {
	p.tickerInput.SetValue(ticker.Symbol)
	p.selectedTicker = &ticker
}

// SetPrice shows the current price of the selected ticker in the summary.
func (p *TradePanel) SetPrice(price float64) {
	p.price = price
}

// Reset clears the input fields.
func (p *TradePanel) Reset() {
	p.tickerInput.SetValue("")
	p.sharesInput.SetValue("")
	p.selectedTicker = nil
	p.currentField = FieldTicker
	p.sideIndex = 0
	p.showDropdown = false
}

// TradeSubmitMsg is sent when a trade is submitted.
type TradeSubmitMsg struct {
	Ticker market.Ticker
	Side   portfolio.Side
	Shares int64
}

// TradeInvalidMsg is sent when the form cannot be submitted.
type TradeInvalidMsg struct {
	Reason string
}
