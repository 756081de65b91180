package render

import (
	"context"
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/TFMV/liquiditymap/models"
	"github.com/TFMV/liquiditymap/physics"
)

func testFrame() *Frame {
	g := controllerGraph()
	g.Edges = []models.Edge{
		{Source: "on-1", Target: "jp-1", Strength: 0.4},
		{Source: "on-1", Target: "missing", Strength: 0.4},
	}
	snap := physics.Snapshot{
		Tick:     12,
		Alpha:    0.2,
		State:    "running",
		Viewport: physics.DefaultViewport,
		Nodes: []physics.NodeState{
			{ID: "on-1", X: 300, Y: 300, Radius: physics.Radius(9, 1200), Group: models.GroupOnshore},
			{ID: "jp-1", X: 800, Y: 300, Radius: physics.Radius(10, 1200), Group: models.GroupOffshore},
			{ID: "policy-swap", X: 600, Y: 500, Radius: physics.Radius(6, 1200), Group: models.GroupFed},
		},
	}
	return &Frame{Graph: g, Snapshot: snap, SelectedID: "jp-1", Options: NewDefaultOptions("svg")}
}

func TestGetRenderer(t *testing.T) {
	for _, format := range []string{"svg", "SVG", "ascii", "json", "dot"} {
		r, err := GetRenderer(format)
		require.NoError(t, err, format)
		assert.NotEmpty(t, r.Name())
		assert.NotEmpty(t, r.Description())
	}

	_, err := GetRenderer("webgl")
	assert.ErrorIs(t, err, ErrUnknownFormat)
	assert.Equal(t, []string{"ascii", "dot", "json", "svg"}, Formats())
}

func TestSVGRenderer(t *testing.T) {
	out, err := (&SVGRenderer{}).Render(testFrame())
	require.NoError(t, err)
	svg := string(out)

	assert.True(t, strings.HasPrefix(svg, "<?xml"))
	assert.True(t, strings.HasSuffix(svg, "</svg>"))
	assert.Contains(t, svg, `fill="#0F1115"`)
	assert.Equal(t, 1, strings.Count(svg, "<line "), "edges to unknown nodes are not drawn")
	assert.Contains(t, svg, `x1="300.00" y1="300.00" x2="800.00" y2="300.00"`)
	assert.Equal(t, 3, strings.Count(svg, `class="node"`))

	// unselected onshore, selected offshore, fed policy node
	assert.Contains(t, svg, `r="75.50" fill="#1e3a8a" stroke="#60A5FA"`)
	assert.Contains(t, svg, `r="80.00" fill="#b45309" stroke="#FBBF24"`)
	assert.Contains(t, svg, `fill="#065f46" stroke="#34D399"`)

	assert.Contains(t, svg, ">TGA</text>")
	assert.Contains(t, svg, ">725.4 $B</text>")
	assert.Contains(t, svg, `font-size="14.00"`)
	assert.Contains(t, svg, ">Onshore</text>")
	assert.Contains(t, svg, ">Fed</text>")
	assert.Contains(t, svg, `data-id="policy-swap" transform="translate(600.00,500.00)" cursor="default"`)
}

func TestSVGEscapesLabels(t *testing.T) {
	f := testFrame()
	f.Graph.Nodes[0].Code = "A<B"
	out, err := (&SVGRenderer{}).Render(f)
	require.NoError(t, err)
	assert.Contains(t, string(out), ">A&lt;B</text>")
}

func TestASCIIRenderer(t *testing.T) {
	f := testFrame()
	f.Options = NewDefaultOptions("ascii")
	out, err := (&ASCIIRenderer{}).Render(f)
	require.NoError(t, err)
	text := string(out)

	assert.Contains(t, text, "Liquidity Map")
	assert.Contains(t, text, "Onshore | Offshore | Fed | selected: jp-1")
	assert.Contains(t, text, "TGA")
	assert.Contains(t, text, "USDJPY")
	assert.Contains(t, text, string(linkRune))
	assert.Contains(t, text, "142.5 ¥")
}

func TestRasterizeRoundTrip(t *testing.T) {
	grid := Rasterize(testFrame(), 120, 60)
	assert.Equal(t, 120, grid.Cols)
	assert.Equal(t, 60, grid.Rows)

	col, row := grid.ToCell(300, 300)
	cell, ok := grid.At(col, row)
	require.True(t, ok)
	assert.Equal(t, "on-1", cell.NodeID)

	x, y := grid.ToWorld(col, row)
	assert.InDelta(t, 300, x, 10)
	assert.InDelta(t, 300, y, 10)

	col, row = grid.ToCell(800, 300)
	cell, _ = grid.At(col, row)
	assert.True(t, cell.Selected)
	assert.Equal(t, models.GroupOffshore, cell.Group)

	_, ok = grid.At(-1, 0)
	assert.False(t, ok)
	assert.Len(t, strings.Split(strings.TrimSuffix(grid.String(), "\n"), "\n"), 60)
}

func TestJSONRenderer(t *testing.T) {
	out, err := (&JSONRenderer{}).Render(testFrame())
	require.NoError(t, err)

	var doc struct {
		Nodes []struct {
			ID       string  `json:"id"`
			Code     string  `json:"code"`
			X        float64 `json:"x"`
			Fill     string  `json:"fill"`
			Selected bool    `json:"selected"`
		} `json:"nodes"`
		Links []struct {
			Source string `json:"source"`
			Target string `json:"target"`
		} `json:"links"`
		Metadata map[string]any `json:"metadata"`
	}
	require.NoError(t, json.Unmarshal(out, &doc))
	require.Len(t, doc.Nodes, 3)
	require.Len(t, doc.Links, 1)
	assert.Equal(t, "TGA", doc.Nodes[0].Code)
	assert.Equal(t, 300.0, doc.Nodes[0].X)
	assert.True(t, doc.Nodes[1].Selected)
	assert.Equal(t, "#b45309", doc.Nodes[1].Fill)
	assert.Equal(t, "jp-1", doc.Metadata["selected"])
	assert.EqualValues(t, 12, doc.Metadata["tick"])
}

func TestDOTRenderer(t *testing.T) {
	out, err := (&DOTRenderer{}).Render(testFrame())
	require.NoError(t, err)
	dot := string(out)

	assert.True(t, strings.HasPrefix(dot, "graph liquidity {"))
	assert.Contains(t, dot, `"on-1" -- "jp-1"`)
	assert.NotContains(t, dot, `"missing"`)
	assert.Contains(t, dot, `pos="300.00,300.00!"`)
	assert.Contains(t, dot, `pos="600.00,100.00!"`)
}

func TestGenerateLaysOutAndRenders(t *testing.T) {
	g := controllerGraph()
	g.Edges = []models.Edge{{Source: "on-1", Target: "jp-1", Strength: 0.4}}

	opts := NewDefaultOptions("json")
	out, err := Generate(context.Background(), g, physics.DefaultConfig(), 1000, opts)
	require.NoError(t, err)
	assert.Contains(t, string(out), `"state": "running"`)
	assert.Contains(t, string(out), `"code": "USDJPY"`)

	_, err = Generate(context.Background(), g, physics.DefaultConfig(), 10, NewDefaultOptions("png"))
	assert.ErrorIs(t, err, ErrUnknownFormat)
}

func TestPaletteFor(t *testing.T) {
	assert.Equal(t, Palette{Fill: "#1e3a8a", Stroke: "#60A5FA"}, PaletteFor(models.GroupOnshore, false))
	assert.Equal(t, Palette{Fill: "#4c1d95", Stroke: "#C084FC"}, PaletteFor(models.GroupOffshore, false))
	assert.Equal(t, selectedPalette, PaletteFor(models.GroupFed, true))
	assert.Equal(t, ".txt", Extension("ascii"))
}
