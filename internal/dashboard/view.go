package dashboard

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"

	"github.com/pvz-iot/pvz/internal/errors"
	"github.com/pvz-iot/pvz/internal/poll"
	"github.com/pvz-iot/pvz/internal/ui"
	"github.com/pvz-iot/pvz/internal/util"
)

// trendWidth is the number of summary refreshes shown in the overview trend.
const trendWidth = 24

// renderDashboard renders the complete dashboard view.
func (m *Model) renderDashboard() string {
	if m.showHelp {
		return m.renderHelpOverlay()
	}

	switch m.roster.State() {
	case poll.Empty:
		return m.renderLoading()
	case poll.Failed:
		return m.renderBlockingError()
	}

	if m.viewMode == ViewDetail {
		return m.renderHeader() + "\n" + m.detailView.View() + "\n" + m.renderFooter()
	}

	var b strings.Builder
	b.WriteString(m.renderHeader())
	b.WriteString("\n\n")
	b.WriteString(m.renderOverview())
	b.WriteString("\n")
	b.WriteString(m.renderDroughtBadge())
	b.WriteString("\n")
	if warnings := m.renderWarnings(); warnings != "" {
		b.WriteString(warnings)
		b.WriteString("\n")
	}
	b.WriteString("\n")
	b.WriteString(m.renderDeviceCards())
	b.WriteString("\n")

	if m.height == 0 || m.height >= HeightShowDetail {
		if section := m.renderSelectedSection(m.sectionWidth()); section != "" {
			b.WriteString("\n")
			b.WriteString(section)
			b.WriteString("\n")
		}
	}

	b.WriteString("\n")
	b.WriteString(m.renderFooter())
	return b.String()
}

// renderHeader renders the title bar with fleet counts.
func (m *Model) renderHeader() string {
	roster, _ := m.roster.Value()

	title := lipgloss.NewStyle().
		Foreground(ColorAccent).
		Bold(true).
		Render("pvz monitor")

	stats := lipgloss.NewStyle().
		Foreground(ColorTextSecondary).
		Render(fmt.Sprintf(" | %s/%s | %s | %d online | updated %s",
			m.opts.Env, m.opts.Tenant, util.Count(len(roster), "device"), m.OnlineCount(), m.since(m.roster.UpdatedAt())))

	return HeaderStyle.Render(title + stats)
}

// renderLoading is shown until the first roster result arrives.
func (m *Model) renderLoading() string {
	msg := m.spinner.View() + " " + LabelStyle.Render(fmt.Sprintf("Loading fleet for %s/%s...", m.opts.Env, m.opts.Tenant))
	return m.place(msg)
}

// renderBlockingError replaces the dashboard while the roster has never
// loaded. The roster subscription keeps retrying on its normal cadence.
func (m *Model) renderBlockingError() string {
	err := m.roster.Err()

	lines := []string{
		ErrorStyle.Bold(true).Render(ui.SymbolFail + " Can't load the device roster"),
		"",
		ValueStyle.Render(errors.Summary(err)),
	}
	if status := errors.StatusOf(err); status != 0 {
		lines = append(lines, MutedStyle.Render(fmt.Sprintf("HTTP %d", status)))
	}
	lines = append(lines,
		"",
		LabelStyle.Render(fmt.Sprintf("Retrying every %s, last attempt %s", m.opts.DevicesInterval, m.since(m.roster.TriedAt()))),
		MutedStyle.Render("r retry now | q quit"),
	)

	box := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(ColorCritical).
		Padding(1, 2).
		Render(strings.Join(lines, "\n"))
	return m.place(box)
}

// place centers content when the terminal size is known.
func (m *Model) place(content string) string {
	if m.width == 0 || m.height == 0 {
		return content
	}
	return lipgloss.Place(m.width, m.height, lipgloss.Center, lipgloss.Center, content)
}

// renderOverview renders the recent summary strip.
func (m *Model) renderOverview() string {
	s, ok := m.summary.Value()
	if !ok {
		if m.summary.State() == poll.Failed {
			return ErrorStyle.Render(ui.SymbolFail + " summary unavailable: " + errors.Summary(m.summary.Err()))
		}
		return m.spinner.View() + " " + MutedStyle.Render("Loading summary...")
	}

	r := s.Recent
	parts := []string{
		LabelStyle.Render("last " + formatWindow(r.Window())),
		StatusOnlineStyle.Render(ui.SymbolComplete) + " " + ValueStyle.Render(formatInt(r.Online)) + LabelStyle.Render(" online"),
		StatusOfflineStyle.Render(ui.SymbolOffline) + " " + ValueStyle.Render(formatInt(r.Offline)) + LabelStyle.Render(" offline"),
		LabelStyle.Render("T ") + ValueStyle.Render(formatFloat(r.AvgTemperature, 1, "°C")),
		LabelStyle.Render("H ") + ValueStyle.Render(formatFloat(r.AvgHumidity, 1, "%")),
	}

	if trend := m.history.Humidity(trendWidth); len(trend) > 1 {
		parts = append(parts, LabelStyle.Render("trend ")+ui.RenderSparkline(trend, trendWidth, ui.HumidityColor(droughtThreshold(s.Drought.Threshold))))
	}

	return " " + strings.Join(parts, MutedStyle.Render("  ·  "))
}

// renderDroughtBadge renders the fleet drought level and its counters.
func (m *Model) renderDroughtBadge() string {
	s, ok := m.summary.Value()
	if !ok {
		return ""
	}

	badge := lipgloss.NewStyle().
		Foreground(ColorDarkBg).
		Background(LevelColor(s.Level)).
		Bold(true).
		Padding(0, 1).
		Render("DROUGHT " + strings.ToUpper(s.Level.String()))

	d := s.Drought
	text := util.Count(d.DevicesInDrought, "device") + " below " + formatFloat(d.Threshold, 0, "%")
	if d.MaxStreakDays != nil && d.DevicesInDrought > 0 {
		text += ", longest " + formatDays(*d.MaxStreakDays)
		if d.MaxDeviceID != "" {
			text += " (" + d.MaxDeviceID + ")"
		}
	}

	return " " + badge + " " + LevelStyle(s.Level).UnsetBold().Render(text)
}

// renderWarnings lists views that are showing retained data after a failed
// refresh.
func (m *Model) renderWarnings() string {
	var lines []string
	add := func(name string, err error, updated time.Time) {
		lines = append(lines, StaleStyle.Render(fmt.Sprintf(" %s %s: %s (showing data from %s)",
			ui.SymbolWarning, name, errors.Summary(err), m.since(updated))))
	}
	if m.roster.State() == poll.Stale {
		add("roster", m.roster.Err(), m.roster.UpdatedAt())
	}
	if m.summary.State() == poll.Stale {
		add("summary", m.summary.Err(), m.summary.UpdatedAt())
	}
	return strings.Join(lines, "\n")
}

// renderFooter renders the keyboard help footer.
func (m *Model) renderFooter() string {
	hints := []string{"q quit", "r refresh"}
	if m.viewMode == ViewDetail {
		hints = append(hints, "esc back", "↑↓ device", "pgup/pgdn scroll")
	} else {
		hints = append(hints, "↑↓ select", "enter detail")
	}
	hints = append(hints, "b bucket: "+string(m.bucket), "? help")
	return FooterStyle.Render(strings.Join(hints, " | "))
}

func (m *Model) sectionWidth() int {
	if m.width == 0 {
		return 80
	}
	return m.width - 2
}

// droughtThreshold returns the backend threshold or the default of 30%.
func droughtThreshold(t *float64) float64 {
	if t == nil {
		return 30
	}
	return *t
}

func formatFloat(v *float64, prec int, unit string) string {
	if v == nil {
		return "-"
	}
	return fmt.Sprintf("%.*f%s", prec, *v, unit)
}

func formatInt(v *int) string {
	if v == nil {
		return "-"
	}
	return fmt.Sprintf("%d", *v)
}

func formatDays(days float64) string {
	if days < 1 {
		return formatUnit(days*24, "h")
	}
	return formatUnit(days, "d")
}

func formatWindow(d time.Duration) string {
	if d <= 0 {
		return "window"
	}
	if d%time.Hour == 0 {
		return fmt.Sprintf("%dh", int(d.Hours()))
	}
	if d%time.Minute == 0 {
		return fmt.Sprintf("%dm", int(d.Minutes()))
	}
	return fmt.Sprintf("%ds", int(d.Seconds()))
}

// formatUnit truncates v to a whole number of unit, e.g. "3h".
func formatUnit(v float64, unit string) string {
	return fmt.Sprintf("%d%s", int(v), unit)
}
