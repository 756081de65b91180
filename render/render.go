// Package render draws layout snapshots and turns pointer input into engine calls.
package render

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/TFMV/liquiditymap/models"
	"github.com/TFMV/liquiditymap/physics"
)

// ErrUnknownFormat is returned for an output format with no registered renderer
var ErrUnknownFormat = errors.New("unsupported output format")

// OutputOptions defines rendering configuration options
type OutputOptions struct {
	Format     string // Output format (svg, ascii, json, dot)
	Background string // Background color
	Title      string // Optional heading drawn by text renderers
	Timestamp  bool   // Include timestamp in the output
	ShowLegend bool   // Draw the group legend
	ShowValues bool   // Draw the value label under each code
	Columns    int    // Character cells across (ascii)
	Rows       int    // Character cells down (ascii)
}

// NewDefaultOptions creates a default set of output options
func NewDefaultOptions(format string) *OutputOptions {
	return &OutputOptions{
		Format:     format,
		Background: "#0F1115",
		Title:      "Liquidity Map",
		ShowLegend: true,
		ShowValues: true,
		Columns:    120,
		Rows:       36,
	}
}

// Frame is everything a renderer needs for one picture: the domain graph, the
// positions at one tick and the host's current selection.
type Frame struct {
	Graph      *models.Graph
	Snapshot   physics.Snapshot
	SelectedID string
	Options    *OutputOptions
}

// NewFrame creates a frame with default options
func NewFrame(g *models.Graph, snap physics.Snapshot, selectedID string) *Frame {
	return &Frame{Graph: g, Snapshot: snap, SelectedID: selectedID, Options: NewDefaultOptions("svg")}
}

func (f *Frame) options() *OutputOptions {
	if f.Options == nil {
		return NewDefaultOptions("")
	}
	return f.Options
}

// Renderer interface defines methods that all rendering backends must implement
type Renderer interface {
	// Render draws one frame
	Render(frame *Frame) ([]byte, error)

	// Name returns the name of the renderer
	Name() string

	// Description returns a description of the renderer
	Description() string
}

var renderers = map[string]func() Renderer{
	"svg":   func() Renderer { return &SVGRenderer{} },
	"ascii": func() Renderer { return &ASCIIRenderer{} },
	"json":  func() Renderer { return &JSONRenderer{} },
	"dot":   func() Renderer { return &DOTRenderer{} },
}

// GetRenderer returns the appropriate renderer based on format
func GetRenderer(format string) (Renderer, error) {
	ctor, ok := renderers[strings.ToLower(format)]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownFormat, format)
	}
	return ctor(), nil
}

// Formats lists the registered output formats
func Formats() []string {
	out := make([]string, 0, len(renderers))
	for f := range renderers {
		out = append(out, f)
	}
	sort.Strings(out)
	return out
}

// Extension returns the conventional file extension for a format
func Extension(format string) string {
	switch strings.ToLower(format) {
	case "ascii":
		return ".txt"
	case "json":
		return ".json"
	case "dot":
		return ".dot"
	default:
		return ".svg"
	}
}

// Generate lays out a graph offline until it settles and renders the result
func Generate(ctx context.Context, g *models.Graph, cfg physics.Config, maxTicks int, options *OutputOptions) ([]byte, error) {
	if options == nil {
		options = NewDefaultOptions("svg")
	}
	renderer, err := GetRenderer(options.Format)
	if err != nil {
		return nil, err
	}

	sim := physics.NewSimulation(g, cfg)
	defer sim.Stop()
	if _, err := physics.Settle(ctx, sim, maxTicks); err != nil {
		return nil, fmt.Errorf("failed to lay out graph: %w", err)
	}

	output, err := renderer.Render(&Frame{Graph: g, Snapshot: sim.Snapshot(), Options: options})
	if err != nil {
		return nil, fmt.Errorf("rendering failed: %w", err)
	}
	return output, nil
}

// Palette is the fill and stroke of a bubble
type Palette struct {
	Fill   string
	Stroke string
}

var (
	groupPalettes = map[models.Group]Palette{
		models.GroupOnshore:  {Fill: "#1e3a8a", Stroke: "#60A5FA"},
		models.GroupOffshore: {Fill: "#4c1d95", Stroke: "#C084FC"},
		models.GroupFed:      {Fill: "#065f46", Stroke: "#34D399"},
	}
	selectedPalette = Palette{Fill: "#b45309", Stroke: "#FBBF24"}
)

const (
	linkColor      = "#374151"
	linkOpacity    = 0.6
	codeLabelColor = "#ffffff"
	valueColor     = "#cbd5e1"
)

// PaletteFor returns the colours of a node, taking the selection into account
func PaletteFor(group models.Group, selected bool) Palette {
	if selected {
		return selectedPalette
	}
	if p, ok := groupPalettes[group]; ok {
		return p
	}
	return groupPalettes[models.GroupOnshore]
}

// GroupLabel is the legend text for a group
func GroupLabel(group models.Group) string {
	switch group {
	case models.GroupOnshore:
		return "Onshore"
	case models.GroupOffshore:
		return "Offshore"
	case models.GroupFed:
		return "Fed"
	}
	return string(group)
}

// nodeInfo joins a snapshot entry with its domain node
type nodeInfo struct {
	state physics.NodeState
	node  *models.Node
}

func (f *Frame) nodes() []nodeInfo {
	out := make([]nodeInfo, 0, len(f.Snapshot.Nodes))
	for _, ns := range f.Snapshot.Nodes {
		info := nodeInfo{state: ns}
		if f.Graph != nil {
			if n, ok := f.Graph.NodeByID(ns.ID); ok {
				info.node = n
			}
		}
		out = append(out, info)
	}
	return out
}

func (n nodeInfo) code() string {
	if n.node != nil && n.node.Code != "" {
		return n.node.Code
	}
	return n.state.ID
}

func (n nodeInfo) value() string {
	if n.node == nil {
		return ""
	}
	return n.node.Indicator.DisplayValue()
}

// edgeEnds resolves an edge's endpoints against the frame snapshot
func (f *Frame) edgeEnds(e models.Edge) (physics.NodeState, physics.NodeState, bool) {
	s, ok := f.Snapshot.Node(e.Source)
	if !ok {
		return physics.NodeState{}, physics.NodeState{}, false
	}
	t, ok := f.Snapshot.Node(e.Target)
	if !ok {
		return physics.NodeState{}, physics.NodeState{}, false
	}
	return s, t, true
}

func (f *Frame) edges() []models.Edge {
	if f.Graph == nil {
		return nil
	}
	return f.Graph.Edges
}

// groupsPresent lists the groups with at least one node, in display order
func (f *Frame) groupsPresent() []models.Group {
	seen := make(map[models.Group]bool)
	for _, n := range f.Snapshot.Nodes {
		seen[n.Group] = true
	}
	var out []models.Group
	for _, g := range models.Groups {
		if seen[g] {
			out = append(out, g)
		}
	}
	return out
}

func timestamp() string {
	return time.Now().Format("2006-01-02 15:04:05")
}
