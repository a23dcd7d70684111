package dashboard

import (
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/pvz-iot/pvz/internal/ui"
)

// Braille character rendering for high-resolution terminal graphs.
//
// Braille patterns use a 2x4 dot matrix per character:
//
//	  Col 0  Col 1
//	Row 0:   ⠁      ⠈     (dots 1, 4)
//	Row 1:   ⠂      ⠐     (dots 2, 5)
//	Row 2:   ⠄      ⠠     (dots 3, 6)
//	Row 3:   ⡀      ⢀     (dots 7, 8)
//
// Unicode braille starts at U+2800 (empty) and uses bit patterns:
// bit 0 = dot 1, bit 1 = dot 2, bit 2 = dot 3, bit 3 = dot 4,
// bit 4 = dot 5, bit 5 = dot 6, bit 6 = dot 7, bit 7 = dot 8

const brailleBase = '⠀'

// brailleDots maps [row][col] to the bit offset of that dot.
var brailleDots = [4][2]uint8{
	{0, 3},
	{1, 4},
	{2, 5},
	{6, 7},
}

// GraphRange fixes the vertical scale of a graph. A zero range means the
// series' own min and max.
type GraphRange struct {
	Min, Max float64
}

// HumidityRange scales humidity graphs to the full 0-100% range so a dry
// device looks dry regardless of its neighbours.
var HumidityRange = GraphRange{Min: 0, Max: 100}

func (r GraphRange) bounds(data []float64) (float64, float64) {
	if r.Max > r.Min {
		return r.Min, r.Max
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
	return minVal, maxVal
}

// normalizeValue converts a value to the 0-1 range given min/max bounds.
func normalizeValue(val, minVal, maxVal float64) float64 {
	if maxVal > minVal {
		n := (val - minVal) / (maxVal - minVal)
		if n < 0 {
			return 0
		}
		if n > 1 {
			return 1
		}
		return n
	}
	return 0.5
}

// clampInt clamps an integer to [0, maxVal].
func clampInt(val, maxVal int) int {
	if val < 0 {
		return 0
	}
	if val > maxVal {
		return maxVal
	}
	return val
}

// RenderBrailleGraph plots a series with braille characters: each character
// holds 2 points horizontally and 4 levels vertically per row. Series
// shorter than the graph are right-aligned so the newest point is always at
// the right edge. Each column is colored by colorFor applied to its lowest
// value, so a dip below the drought threshold stays visible after
// downsampling.
func RenderBrailleGraph(data []float64, width, height int, scale GraphRange, colorFor ui.ColorFunc) string {
	if len(data) == 0 || width <= 0 || height <= 0 {
		return ""
	}

	minVal, maxVal := scale.bounds(data)
	totalDots := height * 4
	targetPoints := width * 2

	points := data
	if len(data) > targetPoints {
		points = resampleData(data, targetPoints)
	}

	grid := make([][]rune, height)
	for i := range grid {
		grid[i] = make([]rune, width)
		for j := range grid[i] {
			grid[i][j] = brailleBase
		}
	}

	colMin := make([]float64, width)
	colSeen := make([]bool, width)

	horizOffset := targetPoints - len(points)
	if horizOffset < 0 {
		horizOffset = 0
	}

	for i, val := range points {
		charCol := (i + horizOffset) / 2
		if charCol >= width {
			continue
		}
		if !colSeen[charCol] || val < colMin[charCol] {
			colMin[charCol] = val
			colSeen[charCol] = true
		}

		// At least one dot so a zero reading is still drawn.
		dotHeight := clampInt(int(normalizeValue(val, minVal, maxVal)*float64(totalDots)), totalDots)
		if dotHeight == 0 {
			dotHeight = 1
		}

		subCol := (i + horizOffset) % 2
		for dot := 0; dot < dotHeight; dot++ {
			row := height - 1 - (dot / 4)
			if row < 0 {
				continue
			}
			subRow := 3 - (dot % 4)
			grid[row][charCol] |= rune(1 << brailleDots[subRow][subCol])
		}
	}

	lines := make([]string, 0, height)
	for _, row := range grid {
		var line strings.Builder
		for col, char := range row {
			color := ColorGraph
			if colorFor != nil && colSeen[col] {
				color = colorFor(colMin[col])
			}
			line.WriteString(lipgloss.NewStyle().Foreground(color).Render(string(char)))
		}
		lines = append(lines, line.String())
	}
	return strings.Join(lines, "\n")
}

// resampleData shrinks data to targetSize by averaging each bucket. Series
// that already fit are returned unchanged.
func resampleData(data []float64, targetSize int) []float64 {
	if len(data) == 0 || targetSize <= 0 {
		return nil
	}
	if len(data) <= targetSize {
		return data
	}

	result := make([]float64, targetSize)
	bucketSize := float64(len(data)) / float64(targetSize)
	for i := 0; i < targetSize; i++ {
		start := int(float64(i) * bucketSize)
		end := int(float64(i+1) * bucketSize)
		if end > len(data) {
			end = len(data)
		}
		if start >= end {
			start = end - 1
		}

		var sum float64
		for _, v := range data[start:end] {
			sum += v
		}
		result[i] = sum / float64(end-start)
	}
	return result
}
