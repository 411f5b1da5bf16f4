package export

import (
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/goccy/go-json"

	"treescope/pkg/diagram"
	"treescope/pkg/layout"
	"treescope/pkg/model"
)

func writeDocument(t *testing.T, root *model.Entity) string {
	t.Helper()
	data, err := json.Marshal(root)
	if err != nil {
		t.Fatal(err)
	}
	path := filepath.Join(t.TempDir(), "tree.json")
	if err := os.WriteFile(path, data, 0644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestServerHandlers(t *testing.T) {
	path := writeDocument(t, sampleEntity())
	s, err := NewServer("127.0.0.1:0", path, "", layout.DefaultConfig(), 0)
	if err != nil {
		t.Fatalf("NewServer() error = %v", err)
	}
	if s.Title != "Root" {
		t.Errorf("title defaulted to %q, want the root name", s.Title)
	}
	if s.Duration != diagram.DefaultDuration {
		t.Errorf("duration defaulted to %v, want %v", s.Duration, diagram.DefaultDuration)
	}

	t.Run("index serves viewer with reload script", func(t *testing.T) {
		rec := httptest.NewRecorder()
		s.handleIndex(rec, httptest.NewRequest("GET", "/", nil))

		body := rec.Body.String()
		if !strings.Contains(body, "const DATA = null;") {
			t.Error("served page should fetch instead of embedding")
		}
		if !strings.Contains(body, EventsPath) {
			t.Error("reload script not injected")
		}
		if !strings.Contains(rec.Header().Get("Content-Type"), "text/html") {
			t.Errorf("content type = %q", rec.Header().Get("Content-Type"))
		}
	})

	t.Run("unknown path is 404", func(t *testing.T) {
		rec := httptest.NewRecorder()
		s.handleIndex(rec, httptest.NewRequest("GET", "/nope", nil))
		if rec.Code != 404 {
			t.Errorf("status = %d, want 404", rec.Code)
		}
	})

	t.Run("data endpoint serves the document", func(t *testing.T) {
		rec := httptest.NewRecorder()
		s.handleData(rec, httptest.NewRequest("GET", "/data/tree.json", nil))

		var got model.Entity
		if err := json.Unmarshal(rec.Body.Bytes(), &got); err != nil {
			t.Fatalf("data endpoint returned invalid JSON: %v", err)
		}
		if got.Name != "Root" || len(got.Children) != 2 {
			t.Errorf("unexpected document: %+v", got)
		}
	})
}

func TestServerReloadKeepsLastGoodTree(t *testing.T) {
	path := writeDocument(t, sampleEntity())
	s, err := NewServer("127.0.0.1:0", path, "", layout.DefaultConfig(), 0)
	if err != nil {
		t.Fatal(err)
	}

	// A broken intermediate save must not clobber the served tree.
	if err := os.WriteFile(path, []byte("{broken"), 0644); err != nil {
		t.Fatal(err)
	}
	s.reload()
	s.mu.RLock()
	name := s.root.Name
	s.mu.RUnlock()
	if name != "Root" {
		t.Errorf("broken save replaced the tree with %q", name)
	}

	// A valid save takes effect.
	if err := os.WriteFile(path, []byte(`{"name":"New"}`), 0644); err != nil {
		t.Fatal(err)
	}
	s.reload()
	s.mu.RLock()
	name = s.root.Name
	s.mu.RUnlock()
	if name != "New" {
		t.Errorf("reload did not pick up the new tree, got %q", name)
	}
}

func TestInjectBeforeBodyClose(t *testing.T) {
	got := injectBeforeBodyClose("<body>x</body></html>", "<s>")
	if got != "<body>x<s></body></html>" {
		t.Errorf("injectBeforeBodyClose() = %q", got)
	}
	// No body tag: append at the end.
	if got := injectBeforeBodyClose("plain", "<s>"); got != "plain<s>" {
		t.Errorf("injectBeforeBodyClose() = %q", got)
	}
}

func TestReloadHubClients(t *testing.T) {
	path := writeDocument(t, sampleEntity())
	hub, err := NewReloadHub(path, nil)
	if err != nil {
		t.Fatalf("NewReloadHub() error = %v", err)
	}
	defer hub.Stop()

	if got := hub.ClientCount(); got != 0 {
		t.Errorf("fresh hub has %d clients", got)
	}
}
