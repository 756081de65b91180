package render

import (
	"bytes"
	"encoding/json"
	"fmt"
	"time"

	"github.com/TFMV/liquiditymap/models"
)

// JSONRenderer outputs a D3-style nodes/links document
type JSONRenderer struct{}

// Name returns the name of the renderer
func (r *JSONRenderer) Name() string {
	return "JSON Renderer"
}

// Description returns a description of the renderer
func (r *JSONRenderer) Description() string {
	return "Renders positions and relationships as JSON for custom front ends"
}

type jsonNode struct {
	ID       string       `json:"id"`
	Code     string       `json:"code"`
	Group    models.Group `json:"group"`
	Weight   float64      `json:"weight"`
	Value    string       `json:"value,omitempty"`
	X        float64      `json:"x"`
	Y        float64      `json:"y"`
	Radius   float64      `json:"radius"`
	Fill     string       `json:"fill"`
	Stroke   string       `json:"stroke"`
	Pinned   bool         `json:"pinned,omitempty"`
	Selected bool         `json:"selected,omitempty"`
}

type jsonLink struct {
	Source   string  `json:"source"`
	Target   string  `json:"target"`
	Strength float64 `json:"strength"`
}

type jsonDocument struct {
	Nodes    []jsonNode     `json:"nodes"`
	Links    []jsonLink     `json:"links"`
	Metadata map[string]any `json:"metadata"`
}

// Render creates a JSON representation of the frame
func (r *JSONRenderer) Render(frame *Frame) ([]byte, error) {
	if frame == nil {
		return nil, fmt.Errorf("nil frame")
	}
	options := frame.options()

	doc := jsonDocument{
		Nodes: make([]jsonNode, 0, len(frame.Snapshot.Nodes)),
		Links: make([]jsonLink, 0, len(frame.edges())),
		Metadata: map[string]any{
			"width":      frame.Snapshot.Viewport.Width,
			"height":     frame.Snapshot.Viewport.Height,
			"tick":       frame.Snapshot.Tick,
			"alpha":      frame.Snapshot.Alpha,
			"state":      frame.Snapshot.State,
			"background": options.Background,
			"selected":   frame.SelectedID,
		},
	}
	if options.Timestamp {
		doc.Metadata["timestamp"] = time.Now().Format(time.RFC3339)
	}

	for _, n := range frame.nodes() {
		selected := n.state.ID == frame.SelectedID
		p := PaletteFor(n.state.Group, selected)
		jn := jsonNode{
			ID:       n.state.ID,
			Code:     n.code(),
			Group:    n.state.Group,
			Value:    n.value(),
			X:        n.state.X,
			Y:        n.state.Y,
			Radius:   n.state.Radius,
			Fill:     p.Fill,
			Stroke:   p.Stroke,
			Pinned:   n.state.Pinned,
			Selected: selected,
		}
		if n.node != nil {
			jn.Weight = n.node.Weight
		}
		doc.Nodes = append(doc.Nodes, jn)
	}

	for _, e := range frame.edges() {
		if _, _, ok := frame.edgeEnds(e); !ok {
			continue
		}
		doc.Links = append(doc.Links, jsonLink{Source: e.Source, Target: e.Target, Strength: e.Strength})
	}

	return json.MarshalIndent(doc, "", "  ")
}

// DOTRenderer outputs Graphviz DOT format
type DOTRenderer struct{}

// Name returns the name of the renderer
func (r *DOTRenderer) Name() string {
	return "DOT Renderer"
}

// Description returns a description of the renderer
func (r *DOTRenderer) Description() string {
	return "Renders the bubble map in Graphviz DOT format with fixed positions for neato -n"
}

// Render creates a DOT representation of the frame
func (r *DOTRenderer) Render(frame *Frame) ([]byte, error) {
	if frame == nil {
		return nil, fmt.Errorf("nil frame")
	}
	options := frame.options()
	vp := frame.Snapshot.Viewport

	var buf bytes.Buffer
	buf.WriteString("graph liquidity {\n")
	fmt.Fprintf(&buf, "  graph [bgcolor=\"%s\", size=\"%.2f,%.2f\"];\n",
		options.Background, vp.Width/72.0, vp.Height/72.0)
	buf.WriteString("  node [shape=circle, style=filled, fontname=\"Inter\", fontcolor=\"#ffffff\", penwidth=3];\n")
	fmt.Fprintf(&buf, "  edge [color=\"%s\"];\n", linkColor)

	for _, n := range frame.nodes() {
		p := PaletteFor(n.state.Group, n.state.ID == frame.SelectedID)
		// DOT's y axis points up
		fmt.Fprintf(&buf, "  %q [label=%q, fillcolor=%q, color=%q, width=%.3f, fixedsize=true, pos=\"%.2f,%.2f!\"];\n",
			n.state.ID, n.code(), p.Fill, p.Stroke, 2*n.state.Radius/72.0, n.state.X, vp.Height-n.state.Y)
	}

	for _, e := range frame.edges() {
		if _, _, ok := frame.edgeEnds(e); !ok {
			continue
		}
		fmt.Fprintf(&buf, "  %q -- %q [penwidth=%.2f];\n", e.Source, e.Target, 0.5+e.Strength)
	}

	buf.WriteString("}\n")
	return buf.Bytes(), nil
}
