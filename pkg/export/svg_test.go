package export

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"treescope/pkg/diagram"
	"treescope/pkg/layout"
	"treescope/pkg/model"
)

var exportEpoch = time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)

func sampleEntity() *model.Entity {
	return &model.Entity{
		Name:        "Root",
		Description: "top level",
		Children: []*model.Entity{
			{Name: "A"},
			{Name: "B", URL: "https://example.com", Children: []*model.Entity{
				{Name: "C"},
			}},
		},
	}
}

func settledDiagram(t *testing.T) (*diagram.Diagram, diagram.Snapshot, diagram.Frame) {
	t.Helper()
	d := diagram.New(sampleEntity(), 800, 600, layout.DefaultConfig())
	frame := d.Update(0, exportEpoch)
	snap := d.Settled(exportEpoch)
	return d, snap, frame
}

func TestWriteSVG(t *testing.T) {
	d, snap, _ := settledDiagram(t)

	var buf bytes.Buffer
	if err := WriteSVG(&buf, d, snap, SVGOptions{Title: "sample"}); err != nil {
		t.Fatalf("WriteSVG() error = %v", err)
	}
	out := buf.String()

	for _, want := range []string{
		"<svg",
		"</svg>",
		"<title>sample</title>",
		// B is collapsed with a hidden child, so it gets the collapsed fill.
		`fill="lightsteelblue"`,
		// B carries a navigation URL.
		`https://example.com`,
		// Root's description becomes a tooltip.
		"<title>top level</title>",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("SVG output missing %q", want)
		}
	}

	// C is hidden; its label must not appear.
	if strings.Contains(out, ">C</text>") {
		t.Error("hidden node C was rendered")
	}
}

func TestWriteSVGAnimate(t *testing.T) {
	d, snap, frame := settledDiagram(t)

	var buf bytes.Buffer
	err := WriteSVG(&buf, d, snap, SVGOptions{Animate: true, Frame: &frame})
	if err != nil {
		t.Fatalf("WriteSVG() error = %v", err)
	}
	if !strings.Contains(buf.String(), "<animate") {
		t.Error("animate option produced no SMIL elements")
	}
}

func TestDiagonal(t *testing.T) {
	got := diagonal(0, 0, 100, 50)
	if !strings.HasPrefix(got, "M0.0,0.0 C50.0,0.0 50.0,50.0 100.0,50.0") {
		t.Errorf("diagonal() = %q", got)
	}
}

func TestEscapeXML(t *testing.T) {
	if got := escapeXML(`a <b> & "c"`); got != "a &lt;b&gt; &amp; &quot;c&quot;" {
		t.Errorf("escapeXML() = %q", got)
	}
}

func TestWriteSVGAnimateUsesConfiguredDuration(t *testing.T) {
	d := diagram.New(sampleEntity(), 800, 600, layout.DefaultConfig())
	d.SetDuration(100 * time.Millisecond)
	frame := d.Update(0, exportEpoch)
	snap := d.Settled(exportEpoch)

	var buf bytes.Buffer
	if err := WriteSVG(&buf, d, snap, SVGOptions{Animate: true, Frame: &frame}); err != nil {
		t.Fatalf("WriteSVG() error = %v", err)
	}
	out := buf.String()
	if !strings.Contains(out, `dur="0.1s"`) {
		t.Error("configured duration missing from SMIL output")
	}
	if strings.Contains(out, `dur="0.75s"`) {
		t.Error("default duration leaked into SMIL output")
	}
}
