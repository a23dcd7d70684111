package ui

import (
	"strings"

	"github.com/charmbracelet/bubbles/table"
	"github.com/charmbracelet/lipgloss"
)

// TableColumn defines a table column with name and width.
type TableColumn struct {
	Title string
	Width int
}

// NewTable creates a new Bubbles table with default styling.
func NewTable(columns []TableColumn, rows []table.Row) table.Model {
	cols := make([]table.Column, len(columns))
	for i, c := range columns {
		cols[i] = table.Column{
			Title: c.Title,
			Width: c.Width,
		}
	}

	t := table.New(
		table.WithColumns(cols),
		table.WithRows(rows),
		table.WithFocused(false),
		table.WithHeight(len(rows)+1), // +1 for header
	)

	s := table.DefaultStyles()
	s.Header = s.Header.
		BorderStyle(lipgloss.NormalBorder()).
		BorderForeground(ColorMuted).
		BorderBottom(true).
		Bold(true).
		Foreground(ColorPrimary)
	s.Cell = s.Cell.
		Foreground(ColorPrimary)
	// Nothing is focused in CLI output, so the selected row looks like any other.
	s.Selected = s.Cell

	t.SetStyles(s)
	return t
}

// RenderSimpleTable renders a non-interactive table string.
func RenderSimpleTable(columns []TableColumn, rows [][]string) string {
	if len(rows) == 0 {
		return ""
	}

	tableRows := make([]table.Row, len(rows))
	for i, row := range rows {
		tableRows[i] = table.Row(row)
	}

	t := NewTable(columns, tableRows)
	return t.View()
}

// DeviceTableRow is one device in the snapshot table.
type DeviceTableRow struct {
	ID          string
	Online      bool
	Temperature string
	Humidity    string
	LastSeen    string
}

// RenderDeviceTable renders the roster with a status dot per device and a
// marker on the selected one.
func RenderDeviceTable(rows []DeviceTableRow, selected string) string {
	if len(rows) == 0 {
		return MutedStyle().Render("No devices reported")
	}

	successStyle := SuccessStyle()
	offlineStyle := MutedStyle()
	selectedStyle := lipgloss.NewStyle().Bold(true).Foreground(ColorNeonPink)

	headerStyle := lipgloss.NewStyle().
		Bold(true).
		Foreground(ColorPrimary).
		BorderStyle(lipgloss.NormalBorder()).
		BorderBottom(true).
		BorderForeground(ColorMuted)

	var b strings.Builder
	b.WriteString(headerStyle.Render("    " + padRight("DEVICE", 16) + padRight("TEMP", 10) + padRight("HUMIDITY", 11) + "LAST SEEN"))
	b.WriteString("\n")

	for _, row := range rows {
		marker := "  "
		id := row.ID
		if row.ID == selected {
			marker = selectedStyle.Render(SymbolSelected) + " "
			id = selectedStyle.Render(row.ID)
		}

		status := successStyle.Render(SymbolComplete)
		lastSeen := row.LastSeen
		if !row.Online {
			status = offlineStyle.Render(SymbolOffline)
			lastSeen = offlineStyle.Render(row.LastSeen)
		}

		b.WriteString(marker + status + " " +
			padRight(id, 16) +
			padRight(row.Temperature, 10) +
			padRight(row.Humidity, 11) +
			lastSeen)
		b.WriteString("\n")
	}

	return b.String()
}

// padRight pads a string to the specified visible width.
func padRight(s string, width int) string {
	visibleLen := lipgloss.Width(s)
	if visibleLen >= width {
		return s
	}
	return s + strings.Repeat(" ", width-visibleLen)
}
