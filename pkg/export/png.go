package export

import (
	"fmt"
	"io"

	"git.sr.ht/~sbinet/gg"
	"golang.org/x/image/font"
	"golang.org/x/image/font/gofont/goregular"
	"golang.org/x/image/font/opentype"

	"treescope/pkg/diagram"
)

// WritePNG rasterizes the diagram's settled state. The geometry matches the
// SVG renderer so both exports of the same document line up.
func WritePNG(w io.Writer, d *diagram.Diagram, snap diagram.Snapshot) error {
	cfg := d.Cfg
	width := int(snap.AreaW + cfg.Margin.Left + cfg.Margin.Right)
	height := int(snap.AreaH + cfg.Margin.Top + cfg.Margin.Bottom)
	ox, oy := cfg.Margin.Left, cfg.Margin.Top

	dc := gg.NewContext(width, height)
	dc.SetRGB(1, 1, 1)
	dc.Clear()

	face, err := labelFace(cfg.FontSizePx)
	if err != nil {
		return fmt.Errorf("load label font: %w", err)
	}
	dc.SetFontFace(face)

	// Links first so markers draw on top of them.
	dc.SetRGB(0.8, 0.8, 0.8)
	dc.SetLineWidth(1.5)
	for _, l := range snap.Links {
		if l.Opacity <= 0 {
			continue
		}
		mx := (l.X1 + l.X2) / 2
		dc.MoveTo(ox+l.X1, oy+l.Y1)
		dc.CubicTo(ox+mx, oy+l.Y1, ox+mx, oy+l.Y2, ox+l.X2, oy+l.Y2)
		dc.Stroke()
	}

	for _, n := range snap.Nodes {
		if n.Opacity <= 0 {
			continue
		}
		dc.DrawCircle(ox+n.X, oy+n.Y, n.Radius)
		if n.HasHidden {
			dc.SetRGB255(176, 196, 222) // lightsteelblue
		} else {
			dc.SetRGB(1, 1, 1)
		}
		dc.FillPreserve()
		dc.SetRGB255(70, 130, 180) // steelblue
		dc.SetLineWidth(1.5)
		dc.Stroke()

		dc.SetRGB255(51, 51, 51)
		for k, line := range n.Label {
			y := oy + n.Y + cfg.LineOffsetPx(k) + cfg.FontSizePx/3
			if n.IsLeaf {
				dc.DrawString(line, ox+n.X+n.Radius+3, y)
			} else {
				lw, _ := dc.MeasureString(line)
				dc.DrawString(line, ox+n.X-n.Radius-3-lw, y)
			}
		}
	}

	return dc.EncodePNG(w)
}

func labelFace(sizePx float64) (font.Face, error) {
	f, err := opentype.Parse(goregular.TTF)
	if err != nil {
		return nil, err
	}
	return opentype.NewFace(f, &opentype.FaceOptions{
		Size:    sizePx,
		DPI:     72,
		Hinting: font.HintingFull,
	})
}
