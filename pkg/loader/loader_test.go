package loader

import (
	"context"
	"database/sql"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
)

const sampleJSON = `{
  "name": "Root",
  "children": [
    {"name": "A"},
    {"name": "B", "url": "https://example.com", "children": [{"name": "C"}]}
  ]
}`

func TestLoadFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "tree.json")
	if err := os.WriteFile(path, []byte(sampleJSON), 0644); err != nil {
		t.Fatal(err)
	}

	root, err := LoadFile(path)
	if err != nil {
		t.Fatalf("LoadFile() error = %v", err)
	}
	if root.Name != "Root" || len(root.Children) != 2 {
		t.Errorf("got root %q with %d children, want Root with 2", root.Name, len(root.Children))
	}
	if root.Children[1].URL != "https://example.com" {
		t.Errorf("B url = %q", root.Children[1].URL)
	}
}

func TestLoadFileMissing(t *testing.T) {
	if _, err := LoadFile(filepath.Join(t.TempDir(), "nope.json")); err == nil {
		t.Error("expected an error for a missing file")
	}
}

func TestLoadFileMalformed(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "tree.json")
	if err := os.WriteFile(path, []byte("{not json"), 0644); err != nil {
		t.Fatal(err)
	}
	if _, err := LoadFile(path); err == nil {
		t.Error("expected a decode error")
	}
}

func TestFetch(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(sampleJSON))
	}))
	defer srv.Close()

	root, err := Fetch(context.Background(), srv.URL)
	if err != nil {
		t.Fatalf("Fetch() error = %v", err)
	}
	if root.Name != "Root" {
		t.Errorf("got root %q", root.Name)
	}
}

func TestFetchNon2xx(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.NotFound(w, r)
	}))
	defer srv.Close()

	if _, err := Fetch(context.Background(), srv.URL); err == nil {
		t.Error("expected an error for a 404 response")
	}
}

func TestDiscoverWalksUp(t *testing.T) {
	root := t.TempDir()
	docDir := filepath.Join(root, ".treescope")
	if err := os.MkdirAll(docDir, 0755); err != nil {
		t.Fatal(err)
	}
	doc := filepath.Join(docDir, "tree.json")
	if err := os.WriteFile(doc, []byte(sampleJSON), 0644); err != nil {
		t.Fatal(err)
	}
	nested := filepath.Join(root, "a", "b")
	if err := os.MkdirAll(nested, 0755); err != nil {
		t.Fatal(err)
	}

	found, err := Discover(nested)
	if err != nil {
		t.Fatalf("Discover() error = %v", err)
	}
	if found != doc {
		t.Errorf("Discover() = %q, want %q", found, doc)
	}
}

func TestDiscoverNotFound(t *testing.T) {
	if _, err := Discover(t.TempDir()); err == nil {
		t.Error("expected an error when no document exists")
	}
}

func writeTestDB(t *testing.T, rows [][6]any) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "entities.db")
	db, err := sql.Open("sqlite", path)
	if err != nil {
		t.Fatal(err)
	}
	defer db.Close()

	if _, err := db.Exec(`CREATE TABLE entities (
		id INTEGER PRIMARY KEY,
		parent_id INTEGER,
		name TEXT NOT NULL,
		description TEXT,
		url TEXT,
		position INTEGER
	)`); err != nil {
		t.Fatal(err)
	}
	for _, r := range rows {
		if _, err := db.Exec(
			`INSERT INTO entities (id, parent_id, name, description, url, position) VALUES (?, ?, ?, ?, ?, ?)`,
			r[0], r[1], r[2], r[3], r[4], r[5]); err != nil {
			t.Fatal(err)
		}
	}
	return path
}

func TestLoadSQLite(t *testing.T) {
	path := writeTestDB(t, [][6]any{
		{1, nil, "Root", "top", nil, 0},
		{2, 1, "B", nil, "https://example.com", 1},
		{3, 1, "A", nil, nil, 0},
		{4, 2, "C", nil, nil, 0},
	})

	root, err := LoadSQLite(path)
	if err != nil {
		t.Fatalf("LoadSQLite() error = %v", err)
	}
	if root.Name != "Root" {
		t.Fatalf("root = %q", root.Name)
	}
	if len(root.Children) != 2 || root.Children[0].Name != "A" || root.Children[1].Name != "B" {
		t.Fatalf("children not ordered by position: %+v", root.Children)
	}
	if len(root.Children[1].Children) != 1 || root.Children[1].Children[0].Name != "C" {
		t.Errorf("B should have child C")
	}
	if root.Children[1].URL != "https://example.com" {
		t.Errorf("B url = %q", root.Children[1].URL)
	}
}

func TestLoadSQLiteDanglingParent(t *testing.T) {
	path := writeTestDB(t, [][6]any{
		{1, nil, "Root", nil, nil, 0},
		{2, 99, "Orphan", nil, nil, 0},
	})

	root, err := LoadSQLite(path)
	if err != nil {
		t.Fatalf("LoadSQLite() error = %v", err)
	}
	// Two effective roots get a synthetic parent.
	if root.Name != "entities" || len(root.Children) != 2 {
		t.Fatalf("expected synthetic root adopting the orphan, got %q with %d children",
			root.Name, len(root.Children))
	}
}

func TestLoadSQLiteCycle(t *testing.T) {
	path := writeTestDB(t, [][6]any{
		{1, nil, "Root", nil, nil, 0},
		{2, 3, "X", nil, nil, 0},
		{3, 2, "Y", nil, nil, 0},
	})

	root, err := LoadSQLite(path)
	if err != nil {
		t.Fatalf("LoadSQLite() error = %v", err)
	}
	total := root.Count()
	// Root plus both cycle members plus the synthetic parent.
	if total != 4 {
		t.Errorf("cycle members lost: tree has %d entities, want 4", total)
	}
}

func TestLoadSQLiteEmpty(t *testing.T) {
	path := writeTestDB(t, nil)
	if _, err := LoadSQLite(path); err == nil {
		t.Error("expected an error for an empty entities table")
	}
}
