package render

import (
	"bytes"
	"fmt"
	"html"

	"github.com/TFMV/liquiditymap/physics"
)

// SVGRenderer outputs SVG format
type SVGRenderer struct{}

// Name returns the name of the renderer
func (r *SVGRenderer) Name() string {
	return "SVG Renderer"
}

// Description returns a description of the renderer
func (r *SVGRenderer) Description() string {
	return "Renders the bubble map as Scalable Vector Graphics for browsers and reports"
}

// Render creates an SVG representation of the frame
func (r *SVGRenderer) Render(frame *Frame) ([]byte, error) {
	if frame == nil {
		return nil, fmt.Errorf("nil frame")
	}
	options := frame.options()
	vp := frame.Snapshot.Viewport
	if !vp.Valid() {
		vp = physics.DefaultViewport
	}

	var buf bytes.Buffer
	fmt.Fprintf(&buf, `<?xml version="1.0" encoding="UTF-8" standalone="no"?>
<svg width="%.0f" height="%.0f" viewBox="0 0 %.0f %.0f" xmlns="http://www.w3.org/2000/svg">
<rect width="100%%" height="100%%" fill="%s"/>
`, vp.Width, vp.Height, vp.Width, vp.Height, options.Background)

	// Links are drawn first so bubbles cover their ends
	fmt.Fprintf(&buf, `<g class="links" stroke="%s" stroke-opacity="%.1f">
`, linkColor, linkOpacity)
	for _, e := range frame.edges() {
		s, t, ok := frame.edgeEnds(e)
		if !ok {
			continue
		}
		fmt.Fprintf(&buf, `<line x1="%.2f" y1="%.2f" x2="%.2f" y2="%.2f" stroke-width="1"/>
`, s.X, s.Y, t.X, t.Y)
	}
	buf.WriteString("</g>\n")

	buf.WriteString(`<g class="nodes">` + "\n")
	for _, n := range frame.nodes() {
		selected := n.state.ID == frame.SelectedID
		palette := PaletteFor(n.state.Group, selected)
		codeSize, valueSize := physics.LabelSizes(n.state.Radius)
		cursor := "default"
		if n.node == nil || n.node.Selectable {
			cursor = "pointer"
		}

		fmt.Fprintf(&buf, `<g class="node" data-id="%s" transform="translate(%.2f,%.2f)" cursor="%s">
`, html.EscapeString(n.state.ID), n.state.X, n.state.Y, cursor)
		fmt.Fprintf(&buf, `<circle r="%.2f" fill="%s" stroke="%s" stroke-width="3" stroke-opacity="0.9"/>
`, n.state.Radius, palette.Fill, palette.Stroke)
		fmt.Fprintf(&buf, `<text text-anchor="middle" dy="-0.2em" fill="%s" font-weight="600" font-family="Inter, sans-serif" font-size="%.2f" pointer-events="none">%s</text>
`, codeLabelColor, codeSize, html.EscapeString(n.code()))
		if v := n.value(); options.ShowValues && v != "" {
			fmt.Fprintf(&buf, `<text text-anchor="middle" dy="1.2em" fill="%s" font-size="%.2f" pointer-events="none">%s</text>
`, valueColor, valueSize, html.EscapeString(v))
		}
		buf.WriteString("</g>\n")
	}
	buf.WriteString("</g>\n")

	if options.ShowLegend {
		x := 16.0
		for _, g := range frame.groupsPresent() {
			p := PaletteFor(g, false)
			label := GroupLabel(g)
			fmt.Fprintf(&buf, `<g class="legend"><circle cx="%.0f" cy="22" r="6" fill="%s"/><text x="%.0f" y="26" fill="#e5e7eb" font-family="Inter, sans-serif" font-size="12">%s</text></g>
`, x+6, p.Stroke, x+18, label)
			x += 30 + float64(len(label))*7
		}
	}

	if options.Timestamp {
		fmt.Fprintf(&buf, `<text x="5" y="%.0f" font-family="sans-serif" font-size="8" fill="#6b7280">%s</text>
`, vp.Height-5, timestamp())
	}

	buf.WriteString(`</svg>`)
	return buf.Bytes(), nil
}
