package ui

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// Sparkline block characters representing 8 vertical levels (lowest to highest).
const sparklineBlocks = "▁▂▃▄▅▆▇█"

// sparklineBlockRunes provides indexed access to block characters.
var sparklineBlockRunes = []rune(sparklineBlocks)

// ColorFunc picks a color for the latest value of a series.
type ColorFunc func(last float64) lipgloss.Color

// RenderSparkline creates a sparkline from the most recent width values.
// Values are mapped to 8 vertical levels over the series' own min/max range.
// colorFor picks the color from the last value; nil renders in ColorInfo.
func RenderSparkline(data []float64, width int, colorFor ColorFunc) string {
	if len(data) == 0 || width <= 0 {
		return ""
	}

	// Use only the most recent 'width' data points
	if len(data) > width {
		data = data[len(data)-width:]
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

	var sb strings.Builder
	sb.Grow(len(data) * 4)

	numLevels := len(sparklineBlockRunes)
	valueRange := maxVal - minVal

	for _, v := range data {
		var level int
		if valueRange == 0 {
			// Flat series sits in the middle
			level = numLevels / 2
		} else {
			normalized := (v - minVal) / valueRange
			level = int(normalized * float64(numLevels-1))
			if level < 0 {
				level = 0
			} else if level >= numLevels {
				level = numLevels - 1
			}
		}
		sb.WriteRune(sparklineBlockRunes[level])
	}

	color := ColorInfo
	if colorFor != nil {
		color = colorFor(data[len(data)-1])
	}
	return lipgloss.NewStyle().Foreground(color).Render(sb.String())
}

// HumidityColor returns a ColorFunc for humidity against the drought
// threshold: red at or below it, amber within 10 points above, green otherwise.
func HumidityColor(threshold float64) ColorFunc {
	return func(h float64) lipgloss.Color {
		switch {
		case h <= threshold:
			return ColorError
		case h <= threshold+10:
			return ColorWarning
		default:
			return ColorSuccess
		}
	}
}
