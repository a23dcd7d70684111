package dashboard

import (
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/pvz-iot/pvz/internal/device"
	"github.com/pvz-iot/pvz/internal/ui"
)

// Card layout constants
const (
	cardWidth       = 26
	cardMarginWidth = 3 // margin + border slack between cards
)

// renderDeviceCards renders the roster as a grid of cards in backend order.
func (m *Model) renderDeviceCards() string {
	roster, _ := m.roster.Value()
	if len(roster) == 0 {
		return LabelStyle.Render(" No devices reported for " + m.opts.Env + "/" + m.opts.Tenant)
	}

	selected := m.tracker.Selected()
	cards := make([]string, 0, len(roster))
	for _, d := range roster {
		cards = append(cards, m.renderCard(d, cardWidth, d.ID == selected))
	}
	return m.layoutCards(cards)
}

// renderCard renders one device. Offline devices are dimmed; the selected
// device gets the accent border.
func (m *Model) renderCard(d device.Snapshot, width int, selected bool) string {
	online := d.Online()

	style := CardStyle
	switch {
	case selected:
		style = CardSelectedStyle
	case !online:
		style = CardOfflineStyle
	}
	style = style.Width(width)

	innerWidth := width - 2
	text := ValueStyle
	if !online {
		text = MutedStyle
	}

	lines := []string{
		m.renderDeviceLine(d, selected),
		text.Render(truncateWithEllipsis(readingLine(d.Reading), innerWidth)),
	}

	seen := "never reported"
	if last, ok := d.LastSeen(); ok {
		seen = "seen " + m.since(last)
	}
	if !online {
		seen = "offline · " + seen
	}
	lines = append(lines, MutedStyle.Render(truncateWithEllipsis(seen, innerWidth)))

	return style.Render(strings.Join(lines, "\n"))
}

// renderDeviceLine renders the status dot and device id.
func (m *Model) renderDeviceLine(d device.Snapshot, selected bool) string {
	dot := StatusOnlineStyle.Render(ui.SymbolComplete)
	if !d.Online() {
		dot = StatusOfflineStyle.Render(ui.SymbolOffline)
	}

	name := DeviceNameStyle.Render(d.ID)
	if selected {
		name = lipgloss.NewStyle().Foreground(ColorAccent).Bold(true).Render(d.ID)
	} else if !d.Online() {
		name = MutedStyle.Render(d.ID)
	}
	return dot + " " + name
}

// readingLine summarizes temperature and humidity, or says there is nothing.
func readingLine(r device.Reading) string {
	if r.Temperature == nil && r.Humidity == nil {
		return "no readings"
	}
	return "T " + formatFloat(r.Temperature, 1, "°C") + "  H " + formatFloat(r.Humidity, 0, "%")
}

// layoutCards arranges cards in rows based on terminal width.
func (m *Model) layoutCards(cards []string) string {
	if len(cards) == 0 {
		return ""
	}

	perRow := 1
	if m.width > 0 {
		perRow = m.width / (cardWidth + cardMarginWidth)
		if perRow < 1 {
			perRow = 1
		}
	} else {
		perRow = 3
	}

	var rows []string
	for i := 0; i < len(cards); i += perRow {
		end := i + perRow
		if end > len(cards) {
			end = len(cards)
		}
		rows = append(rows, lipgloss.JoinHorizontal(lipgloss.Top, cards[i:end]...))
	}
	return lipgloss.JoinVertical(lipgloss.Left, rows...)
}

// truncateWithEllipsis truncates a string to maxLen runes, adding an ellipsis if needed.
func truncateWithEllipsis(s string, maxLen int) string {
	if maxLen <= 3 {
		return s
	}
	r := []rune(s)
	if len(r) > maxLen {
		return string(r[:maxLen-3]) + "..."
	}
	return s
}
