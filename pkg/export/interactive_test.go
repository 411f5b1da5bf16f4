package export

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"treescope/pkg/layout"
)

func TestGenerateInteractiveHTML(t *testing.T) {
	out := filepath.Join(t.TempDir(), "tree")
	path, err := GenerateInteractiveHTML(InteractiveOptions{
		Root: sampleEntity(),
		Path: out,
	})
	if err != nil {
		t.Fatalf("GenerateInteractiveHTML() error = %v", err)
	}
	if !strings.HasSuffix(path, ".html") {
		t.Errorf("output path %q missing .html extension", path)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	html := string(data)

	for _, want := range []string{
		"<!DOCTYPE html>",
		"const DATA = ",
		`"name":"Root"`,
		`"url":"https://example.com"`,
		// The viewer geometry must match the Go layout defaults.
		`"levelSpacing":180`,
		`"radius":10`,
		`"duration":750`,
	} {
		if !strings.Contains(html, want) {
			t.Errorf("viewer HTML missing %q", want)
		}
	}
}

func TestGenerateInteractiveHTMLAppliesOverrides(t *testing.T) {
	cfg := layout.DefaultConfig()
	cfg.LevelSpacing = 240
	cfg.NodeRadius = 6

	out := filepath.Join(t.TempDir(), "tree.html")
	path, err := GenerateInteractiveHTML(InteractiveOptions{
		Root:     sampleEntity(),
		Path:     out,
		Layout:   cfg,
		Duration: 100 * time.Millisecond,
	})
	if err != nil {
		t.Fatalf("GenerateInteractiveHTML() error = %v", err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	html := string(data)

	for _, want := range []string{
		`"levelSpacing":240`,
		`"radius":6`,
		`"duration":100`,
	} {
		if !strings.Contains(html, want) {
			t.Errorf("viewer HTML missing override %q", want)
		}
	}
	if strings.Contains(html, `"levelSpacing":180`) {
		t.Error("default spacing still present despite override")
	}
}

func TestGenerateInteractiveHTMLNilRoot(t *testing.T) {
	if _, err := GenerateInteractiveHTML(InteractiveOptions{}); err == nil {
		t.Error("expected an error for a nil document")
	}
}

func TestViewerHTMLNullData(t *testing.T) {
	html := ViewerHTML("t", "null", layout.DefaultConfig(), 750*time.Millisecond)
	if !strings.Contains(html, "const DATA = null;") {
		t.Error("null payload not embedded verbatim")
	}
	if !strings.Contains(html, "/data/tree.json") {
		t.Error("viewer does not reference the fetch path")
	}
}

func TestViewerHTMLEscapesTitle(t *testing.T) {
	html := ViewerHTML(`<script>"x"`, "null", layout.DefaultConfig(), 750*time.Millisecond)
	if strings.Contains(html, "<script>\"x\"") {
		t.Error("title not escaped")
	}
}
