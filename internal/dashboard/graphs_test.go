package dashboard

import (
	"strings"
	"testing"

	"github.com/charmbracelet/lipgloss"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalizeValue(t *testing.T) {
	tests := []struct {
		name     string
		val      float64
		min, max float64
		want     float64
	}{
		{"middle", 50, 0, 100, 0.5},
		{"at min", 0, 0, 100, 0},
		{"at max", 100, 0, 100, 1},
		{"below range clamps", -10, 0, 100, 0},
		{"above range clamps", 150, 0, 100, 1},
		{"flat range", 7, 7, 7, 0.5},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.want, normalizeValue(tt.val, tt.min, tt.max), 1e-9)
		})
	}
}

func TestGraphRange_Bounds(t *testing.T) {
	data := []float64{12, -3, 40}

	minVal, maxVal := GraphRange{}.bounds(data)
	assert.Equal(t, -3.0, minVal)
	assert.Equal(t, 40.0, maxVal)

	minVal, maxVal = HumidityRange.bounds(data)
	assert.Equal(t, 0.0, minVal)
	assert.Equal(t, 100.0, maxVal)
}

func TestResampleData(t *testing.T) {
	data := []float64{1, 3, 5, 7, 9, 11}

	assert.Equal(t, []float64{2, 6, 10}, resampleData(data, 3))
	assert.Equal(t, data, resampleData(data, 10), "fits already")
	assert.Nil(t, resampleData(nil, 3))
	assert.Nil(t, resampleData(data, 0))
}

func TestRenderBrailleGraph_Empty(t *testing.T) {
	assert.Empty(t, RenderBrailleGraph(nil, 10, 2, GraphRange{}, nil))
	assert.Empty(t, RenderBrailleGraph([]float64{1}, 0, 2, GraphRange{}, nil))
	assert.Empty(t, RenderBrailleGraph([]float64{1}, 10, 0, GraphRange{}, nil))
}

func TestRenderBrailleGraph_Dimensions(t *testing.T) {
	graph := RenderBrailleGraph([]float64{10, 20, 30, 40, 50}, 8, 3, HumidityRange, nil)

	lines := strings.Split(graph, "\n")
	require.Len(t, lines, 3)
	for _, line := range lines {
		assert.Equal(t, 8, lipgloss.Width(line))
	}
}

func TestRenderBrailleGraph_RightAligned(t *testing.T) {
	// Two points fill exactly the last character column.
	graph := RenderBrailleGraph([]float64{100, 100}, 4, 1, HumidityRange, nil)

	runes := []rune(graph)
	require.Len(t, runes, 4)
	assert.Equal(t, brailleBase, runes[0])
	assert.Equal(t, brailleBase, runes[2])
	assert.Equal(t, '⣿', runes[3], "full height in both sub-columns")
}

func TestRenderBrailleGraph_ZeroStillDrawn(t *testing.T) {
	graph := RenderBrailleGraph([]float64{0}, 1, 1, HumidityRange, nil)

	// A single point lands in the right sub-column, bottom dot only.
	assert.Equal(t, string(brailleBase|1<<7), graph)
}

func TestRenderBrailleGraph_Downsamples(t *testing.T) {
	data := make([]float64, 100)
	for i := range data {
		data[i] = float64(i)
	}

	graph := RenderBrailleGraph(data, 5, 2, GraphRange{}, nil)
	for _, line := range strings.Split(graph, "\n") {
		assert.Equal(t, 5, lipgloss.Width(line))
	}
}
