package dashboard

import (
	"strings"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/stretchr/testify/assert"

	"github.com/pvz-iot/pvz/internal/device"
)

func TestFormatHelpers(t *testing.T) {
	assert.Equal(t, "-", formatFloat(nil, 1, "%"))
	assert.Equal(t, "42.5%", formatFloat(ptr(42.46), 1, "%"))
	assert.Equal(t, "-", formatInt(nil))
	assert.Equal(t, "7", formatInt(ptr(7)))

	assert.Equal(t, "12h", formatDays(0.5))
	assert.Equal(t, "60d", formatDays(60))

	assert.Equal(t, "1h", formatWindow(time.Hour))
	assert.Equal(t, "15m", formatWindow(15*time.Minute))
	assert.Equal(t, "90s", formatWindow(90*time.Second))
	assert.Equal(t, "window", formatWindow(0))
}

func TestDroughtThreshold(t *testing.T) {
	assert.Equal(t, 30.0, droughtThreshold(nil))
	assert.Equal(t, 25.0, droughtThreshold(ptr(25.0)))
}

func TestTruncateWithEllipsis(t *testing.T) {
	assert.Equal(t, "short", truncateWithEllipsis("short", 10))
	assert.Equal(t, "device-...", truncateWithEllipsis("device-00042", 10))
	assert.Equal(t, "°C°C°...", truncateWithEllipsis("°C°C°C°C°C", 8), "counts runes")
	assert.Equal(t, "abcdef", truncateWithEllipsis("abcdef", 3))
}

func TestReadingLine(t *testing.T) {
	assert.Equal(t, "no readings", readingLine(device.Reading{}))
	assert.Equal(t, "T 21.5°C  H 48%", readingLine(device.Reading{
		Temperature: ptr(21.5),
		Humidity:    ptr(48.2),
	}))
	assert.Equal(t, "T -  H 30%", readingLine(device.Reading{Humidity: ptr(30.0)}))
}

func TestRenderCard(t *testing.T) {
	m := newTestModel(fleet())

	online := m.renderCard(snap("device-001", true, 55), cardWidth, false)
	assert.Contains(t, online, "● device-001")
	assert.Contains(t, online, "T 21.5°C  H 55%")
	assert.Contains(t, online, "seen 1m ago")

	offline := m.renderCard(snap("device-003", false, 12), cardWidth, false)
	assert.Contains(t, offline, "◌ device-003")
	assert.Contains(t, offline, "offline · seen 1m ago")

	silent := m.renderCard(device.Snapshot{ID: "device-007"}, cardWidth, false)
	assert.Contains(t, silent, "no readings")
	assert.Contains(t, silent, "never reported")
}

func TestLayoutCards(t *testing.T) {
	m := newTestModel(fleet())
	cards := []string{"a", "b", "c", "d"}

	m.width = 2 * (cardWidth + cardMarginWidth)
	assert.Len(t, strings.Split(m.layoutCards(cards), "\n"), 2)

	m.width = 10
	assert.Len(t, strings.Split(m.layoutCards(cards), "\n"), 4, "one per row when narrow")

	assert.Empty(t, m.layoutCards(nil))
}

func TestView_Loading(t *testing.T) {
	m := newTestModel(fleet())

	assert.Contains(t, m.View(), "Loading fleet for prod/acme...")
}

func TestView_ListDashboard(t *testing.T) {
	m := newTestModel(fleet())
	settle(t, m, m.Init())

	view := m.View()
	assert.Contains(t, view, "pvz monitor")
	assert.Contains(t, view, "prod/acme | 3 devices | 2 online")
	assert.Contains(t, view, "last 1h")
	assert.Contains(t, view, "DROUGHT BAD")
	assert.Contains(t, view, "1 device below 30%, longest 60d (device-003)")
	assert.Contains(t, view, "device-002")
	assert.Contains(t, view, "b bucket: hour")

	// Selected section for device-001.
	assert.Contains(t, view, "drought OK no drought")
	assert.Contains(t, view, "humidity ")
}

func TestView_SelectedSectionHiddenWhenShort(t *testing.T) {
	m := newTestModel(fleet())
	settle(t, m, m.Init())
	m.Update(tea.WindowSizeMsg{Width: 120, Height: HeightShowDetail - 1})

	assert.NotContains(t, m.View(), "drought OK")
}

func TestSectionLines(t *testing.T) {
	header := SectionHeader("device-001", "hour", 40)
	assert.Equal(t, 40, lipgloss.Width(header))
	assert.True(t, strings.HasPrefix(header, "╭─ device-001"))

	line := SectionContentLine("hello", 40)
	assert.Equal(t, 40, lipgloss.Width(line))

	assert.Equal(t, 40, lipgloss.Width(SectionFooter(40)))
}

func TestLevelColor(t *testing.T) {
	assert.Equal(t, ColorHealthy, LevelColor(device.DroughtOK))
	assert.Equal(t, ColorWarning, LevelColor(device.DroughtWarn))
	assert.Equal(t, ColorCritical, LevelColor(device.DroughtBad))
}
