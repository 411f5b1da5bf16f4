package export

import (
	"bytes"
	"image/png"
	"testing"
)

func TestWritePNG(t *testing.T) {
	d, snap, _ := settledDiagram(t)

	var buf bytes.Buffer
	if err := WritePNG(&buf, d, snap); err != nil {
		t.Fatalf("WritePNG() error = %v", err)
	}

	img, err := png.Decode(&buf)
	if err != nil {
		t.Fatalf("output is not a valid PNG: %v", err)
	}

	cfg := d.Cfg
	wantW := int(snap.AreaW + cfg.Margin.Left + cfg.Margin.Right)
	wantH := int(snap.AreaH + cfg.Margin.Top + cfg.Margin.Bottom)
	b := img.Bounds()
	if b.Dx() != wantW || b.Dy() != wantH {
		t.Errorf("image is %dx%d, want %dx%d", b.Dx(), b.Dy(), wantW, wantH)
	}
}
