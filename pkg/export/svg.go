// Package export renders entity tree diagrams to files and serves the
// interactive browser rendition: static SVG, rasterized PNG, self-contained
// HTML, a markdown outline, and a live-reloading preview server.
package export

import (
	"fmt"
	"io"
	"strings"

	svg "github.com/ajstarks/svgo"

	"treescope/pkg/diagram"
)

// Marker fills distinguish collapsed nodes from expanded ones and leaves.
const (
	fillCollapsed = "lightsteelblue"
	fillExpanded  = "#fff"
	strokeColor   = "steelblue"
	linkColor     = "#ccc"
	labelColor    = "#333"
)

// SVGOptions configures the static SVG renderer.
type SVGOptions struct {
	Title string

	// Animate emits SMIL elements replaying the latest update's entering
	// transitions, so opening the file shows nodes growing out of their
	// source.
	Animate bool
	Frame   *diagram.Frame
}

// WriteSVG draws the diagram's settled state as a standalone SVG document.
// Nodes carrying a navigation URL become links; descriptions become
// <title> tooltips.
func WriteSVG(w io.Writer, d *diagram.Diagram, snap diagram.Snapshot, opts SVGOptions) error {
	cfg := d.Cfg
	width := int(snap.AreaW + cfg.Margin.Left + cfg.Margin.Right)
	height := int(snap.AreaH + cfg.Margin.Top + cfg.Margin.Bottom)
	ox, oy := cfg.Margin.Left, cfg.Margin.Top

	canvas := svg.New(w)
	canvas.Start(width, height)
	if opts.Title != "" {
		canvas.Title(opts.Title)
	}

	canvas.Group(fmt.Sprintf(`fill="none" stroke="%s" stroke-width="1.5"`, linkColor))
	for _, l := range snap.Links {
		if l.Opacity <= 0 {
			continue
		}
		canvas.Path(diagonal(ox+l.X1, oy+l.Y1, ox+l.X2, oy+l.Y2))
	}
	canvas.Gend()

	entering := map[int]bool{}
	if opts.Animate && opts.Frame != nil {
		for _, c := range opts.Frame.Nodes {
			if c.Phase == diagram.PhaseEnter {
				entering[c.ID] = true
			}
		}
	}

	for _, n := range snap.Nodes {
		if n.Opacity <= 0 {
			continue
		}
		fill := fillExpanded
		if n.HasHidden {
			fill = fillCollapsed
		}

		canvas.Group(fmt.Sprintf(`id="node-%d"`, n.ID))
		if n.URL != "" {
			canvas.Link(n.URL, n.Name)
		}
		canvas.Circle(int(ox+n.X), int(oy+n.Y), int(n.Radius),
			fmt.Sprintf(`id="circle-%d" fill="%s" stroke="%s" stroke-width="1.5"`, n.ID, fill, strokeColor))
		if tip := d.Tree.Node(n.ID).Tooltip(); tip != "" {
			fmt.Fprintf(w, "<title>%s</title>\n", escapeXML(tip))
		}

		// Leaves label to the right of the marker, internal nodes to the
		// left, matching the interactive viewer.
		anchor := "start"
		tx := int(ox + n.X + n.Radius + 3)
		if !n.IsLeaf {
			anchor = "end"
			tx = int(ox + n.X - n.Radius - 3)
		}
		for k, line := range n.Label {
			canvas.Text(tx, int(oy+n.Y+cfg.LineOffsetPx(k))+int(cfg.FontSizePx/3), line,
				fmt.Sprintf(`text-anchor="%s" font-size="%dpx" font-family="sans-serif" fill="%s"`,
					anchor, int(cfg.FontSizePx), labelColor))
		}
		if n.URL != "" {
			canvas.LinkEnd()
		}
		canvas.Gend()

		if entering[n.ID] {
			canvas.Animate(fmt.Sprintf("#circle-%d", n.ID), "r", 0, int(n.Radius),
				d.Duration().Seconds(), 1)
		}
	}

	canvas.End()
	return nil
}

// diagonal builds the cubic horizontal connector between a parent and a
// child marker.
func diagonal(x1, y1, x2, y2 float64) string {
	mx := (x1 + x2) / 2
	return fmt.Sprintf("M%.1f,%.1f C%.1f,%.1f %.1f,%.1f %.1f,%.1f",
		x1, y1, mx, y1, mx, y2, x2, y2)
}

var xmlEscaper = strings.NewReplacer(
	"&", "&amp;",
	"<", "&lt;",
	">", "&gt;",
	`"`, "&quot;",
)

func escapeXML(s string) string {
	return xmlEscaper.Replace(s)
}
