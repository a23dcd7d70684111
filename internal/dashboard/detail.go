package dashboard

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/pvz-iot/pvz/internal/device"
	"github.com/pvz-iot/pvz/internal/errors"
	"github.com/pvz-iot/pvz/internal/poll"
	"github.com/pvz-iot/pvz/internal/ui"
)

// Detail view graph heights, in rows of 4 braille dots.
const (
	humidityGraphHeight    = 4
	temperatureGraphHeight = 3
)

var detailSectionStyle = lipgloss.NewStyle().
	Border(lipgloss.RoundedBorder()).
	BorderForeground(ColorBorder).
	Padding(0, 1).
	MarginRight(1)

// renderSelectedSection renders the compact panel under the cards for the
// selected device: drought streak and a humidity sparkline.
func (m *Model) renderSelectedSection(width int) string {
	d, ok := m.tracker.Current()
	if !ok {
		return ""
	}

	lines := []string{
		SectionHeader(d.ID, string(m.bucket), width),
		SectionContentLine(m.renderStreakLine(), width),
	}

	series := m.renderSeriesStatus()
	if s, ok := m.series.Value(); ok {
		spark := ui.RenderSparkline(s.Humidity(), width-16, ui.HumidityColor(m.threshold()))
		if spark == "" {
			spark = MutedStyle.Render("no humidity points")
		}
		series = LabelStyle.Render("humidity ") + spark + m.staleMark(m.series.State())
	}
	lines = append(lines, SectionContentLine(series, width), SectionFooter(width))
	return strings.Join(lines, "\n")
}

// renderDetailContent renders the scrollable full-screen device detail.
func (m *Model) renderDetailContent() string {
	d, ok := m.tracker.Current()
	if !ok {
		return LabelStyle.Render("No device selected")
	}

	width := m.width - 4
	if width < 40 {
		width = 40
	}

	var b strings.Builder
	b.WriteString(m.renderDetailTitle(d))
	b.WriteString("\n\n")

	readings := m.renderReadingsSection(d)
	drought := m.renderDroughtSection()
	if m.width >= BreakpointTwoColumn {
		b.WriteString(lipgloss.JoinHorizontal(lipgloss.Top, readings, drought))
	} else {
		b.WriteString(readings)
		b.WriteString("\n")
		b.WriteString(drought)
	}
	b.WriteString("\n")
	b.WriteString(m.renderSeriesSection(width))
	return b.String()
}

// renderDetailTitle renders the device id and online state.
func (m *Model) renderDetailTitle(d device.Snapshot) string {
	title := lipgloss.NewStyle().Foreground(ColorAccent).Bold(true).Render(d.ID)
	state := StatusOnlineStyle.Render(ui.SymbolComplete + " online")
	if !d.Online() {
		state = StatusOfflineStyle.Render(ui.SymbolOffline + " offline")
		if d.OnlineState == nil {
			state = StatusOfflineStyle.Render(ui.SymbolOffline + " state unknown")
		}
	}
	return " " + title + "  " + state
}

func (m *Model) renderReadingsSection(d device.Snapshot) string {
	r := d.Reading
	rows := [][2]string{
		{"Temperature", formatFloat(r.Temperature, 1, " °C")},
		{"Humidity", formatFloat(r.Humidity, 1, " %")},
		{"RSSI", formatFloat(r.RSSI, 0, " dBm")},
		{"SNR", formatFloat(r.SNR, 1, " dB")},
		{"Battery", formatFloat(r.Battery, 2, " V")},
	}
	if d.Position != nil {
		rows = append(rows, [2]string{"Position", fmt.Sprintf("%.4f, %.4f", d.Position.Lat, d.Position.Lon)})
	}
	if r.TakenAt != nil {
		rows = append(rows, [2]string{"Reading", m.since(*r.TakenAt)})
	}
	if d.StateChangedAt != nil {
		rows = append(rows, [2]string{"State since", m.since(*d.StateChangedAt)})
	}
	return detailSectionStyle.Render(titled("Readings", rows))
}

func (m *Model) renderDroughtSection() string {
	s, ok := m.streak.Value()
	if !ok {
		return detailSectionStyle.Render(sectionTitle("Drought") + "\n" + m.renderStreakLine())
	}

	level := device.ClassifyStreak(s.StreakDays)
	streak := "none"
	if s.StreakDays != nil && *s.StreakDays > 0 {
		streak = formatDays(*s.StreakDays)
	}
	rows := [][2]string{
		{"Level", LevelStyle(level).Render(strings.ToUpper(level.String()))},
		{"Streak", streak},
		{"Threshold", formatFloat(s.Threshold, 0, " %")},
		{"Last humidity", formatFloat(s.LastHumidity, 1, " %")},
	}
	if s.LastAt != nil {
		rows = append(rows, [2]string{"Last reading", m.since(*s.LastAt)})
	}
	if s.LastOKAt != nil {
		rows = append(rows, [2]string{"Last above", m.since(*s.LastOKAt)})
	}
	out := titled("Drought", rows)
	if mark := m.staleMark(m.streak.State()); mark != "" {
		out += "\n" + StaleStyle.Render(ui.SymbolWarning+" "+errors.Summary(m.streak.Err()))
	}
	return detailSectionStyle.Render(out)
}

// renderSeriesSection renders braille graphs of the metrics series.
func (m *Model) renderSeriesSection(width int) string {
	header := SectionHeader("Metrics", "bucket "+string(m.bucket), width)
	s, ok := m.series.Value()
	if !ok {
		return header + "\n " + m.renderSeriesStatus() + "\n" + SectionFooter(width)
	}

	graphWidth := width - 4
	lines := []string{header}

	humidity := s.Humidity()
	lines = append(lines, " "+LabelStyle.Render("Humidity ")+MutedStyle.Render(seriesRange(humidity, "%")))
	if g := RenderBrailleGraph(humidity, graphWidth, humidityGraphHeight, HumidityRange, ui.HumidityColor(m.threshold())); g != "" {
		lines = append(lines, indent(g))
	}

	temperature := s.Temperature()
	lines = append(lines, " "+LabelStyle.Render("Temperature ")+MutedStyle.Render(seriesRange(temperature, "°C")))
	if g := RenderBrailleGraph(temperature, graphWidth, temperatureGraphHeight, GraphRange{}, nil); g != "" {
		lines = append(lines, indent(g))
	}

	footer := fmt.Sprintf(" %d points", len(s.Points))
	if !m.series.UpdatedAt().IsZero() {
		footer += ", updated " + m.since(m.series.UpdatedAt())
	}
	lines = append(lines, MutedStyle.Render(footer)+m.staleMark(m.series.State()), SectionFooter(width))
	return strings.Join(lines, "\n")
}

// renderStreakLine summarizes the selected device's drought streak.
func (m *Model) renderStreakLine() string {
	switch m.streak.State() {
	case poll.Empty:
		return MutedStyle.Render("drought: loading...")
	case poll.Failed:
		return ErrorStyle.Render("drought: " + ui.SymbolFail + " " + errors.Summary(m.streak.Err()))
	}

	s, _ := m.streak.Value()
	level := device.ClassifyStreak(s.StreakDays)
	text := "no drought"
	if level != device.DroughtOK {
		text = formatDays(*s.StreakDays) + " below " + formatFloat(s.Threshold, 0, "%")
	}
	if s.LastHumidity != nil {
		text += ", last " + formatFloat(s.LastHumidity, 1, "%")
	}
	return LabelStyle.Render("drought ") + LevelStyle(level).Render(strings.ToUpper(level.String())) + " " +
		ValueStyle.Render(text) + m.staleMark(m.streak.State())
}

// renderSeriesStatus describes a metrics series with nothing to draw yet.
func (m *Model) renderSeriesStatus() string {
	switch m.series.State() {
	case poll.Failed:
		return ErrorStyle.Render("metrics: " + ui.SymbolFail + " " + errors.Summary(m.series.Err()))
	case poll.Empty:
		return m.spinner.View() + MutedStyle.Render(" loading "+string(m.bucket)+" series...")
	}
	return ""
}

// staleMark flags a view showing retained data after a failed refresh.
func (m *Model) staleMark(state poll.ViewState) string {
	if state != poll.Stale {
		return ""
	}
	return StaleStyle.Render(" " + ui.SymbolWarning + " stale")
}

// threshold returns the drought threshold from the freshest source.
func (m *Model) threshold() float64 {
	if s, ok := m.streak.Value(); ok && s.Threshold != nil {
		return *s.Threshold
	}
	if s, ok := m.summary.Value(); ok {
		return droughtThreshold(s.Drought.Threshold)
	}
	return droughtThreshold(nil)
}

func sectionTitle(title string) string {
	return lipgloss.NewStyle().Foreground(ColorAccent).Bold(true).Render(title)
}

// titled renders a section title over aligned label/value rows.
func titled(title string, rows [][2]string) string {
	lines := []string{sectionTitle(title)}
	for _, r := range rows {
		lines = append(lines, LabelStyle.Width(14).Render(r[0])+ValueStyle.Render(r[1]))
	}
	return strings.Join(lines, "\n")
}

// seriesRange formats min, max and last of a series.
func seriesRange(data []float64, unit string) string {
	if len(data) == 0 {
		return "no data"
	}
	minVal, maxVal := data[0], data[0]
	for _, v := range data {
		if v < minVal {
			minVal = v
		}
		if v > maxVal {
			maxVal = v
		}
	}
	return fmt.Sprintf("min %.1f%s  max %.1f%s  last %.1f%s", minVal, unit, maxVal, unit, data[len(data)-1], unit)
}

func indent(block string) string {
	return " " + strings.ReplaceAll(block, "\n", "\n ")
}
