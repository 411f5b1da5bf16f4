package export

import (
	"context"
	"fmt"
	"log"
	"net"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/goccy/go-json"
	"golang.org/x/sync/errgroup"

	"treescope/pkg/diagram"
	"treescope/pkg/layout"
	"treescope/pkg/loader"
	"treescope/pkg/model"
)

// Server is the local preview server: it serves the interactive viewer at
// /, the current document at /data/tree.json, and reloads connected
// browsers when the document file changes.
type Server struct {
	Addr     string
	Document string // path of the tree JSON file
	Title    string

	// Layout and Duration are handed to the served viewer so it renders
	// the same geometry and timing as the static exports.
	Layout   layout.Config
	Duration time.Duration

	mu   sync.RWMutex
	root *model.Entity
}

// NewServer loads the document and prepares the server.
func NewServer(addr, document, title string, cfg layout.Config, duration time.Duration) (*Server, error) {
	root, err := loader.LoadFile(document)
	if err != nil {
		return nil, err
	}
	if title == "" {
		title = root.Name
	}
	if cfg == (layout.Config{}) {
		cfg = layout.DefaultConfig()
	}
	if duration <= 0 {
		duration = diagram.DefaultDuration
	}
	return &Server{
		Addr:     addr,
		Document: document,
		Title:    title,
		Layout:   cfg,
		Duration: duration,
		root:     root,
	}, nil
}

// Run serves until ctx is cancelled. The HTTP listener and the file
// watcher run as one errgroup; either failing brings the server down.
func (s *Server) Run(ctx context.Context) error {
	hub, err := NewReloadHub(s.Document, s.reload)
	if err != nil {
		return err
	}
	if err := hub.Start(); err != nil {
		return err
	}
	defer hub.Stop()

	mux := http.NewServeMux()
	mux.HandleFunc("/", s.handleIndex)
	mux.HandleFunc("/data/tree.json", s.handleData)
	mux.HandleFunc(EventsPath, hub.SSEHandler())

	ln, err := net.Listen("tcp", s.Addr)
	if err != nil {
		return fmt.Errorf("listen on %s: %w", s.Addr, err)
	}
	srv := &http.Server{Handler: mux}

	log.Printf("preview server listening on http://%s", ln.Addr())

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		if err := srv.Serve(ln); err != nil && err != http.ErrServerClosed {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})
	return g.Wait()
}

// reload re-reads the document after a file change. A broken intermediate
// save keeps the last good tree and logs a warning.
func (s *Server) reload() {
	root, err := loader.LoadFile(s.Document)
	if err != nil {
		log.Printf("warning: reload %s: %v", s.Document, err)
		return
	}
	s.mu.Lock()
	s.root = root
	s.mu.Unlock()
}

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		http.NotFound(w, r)
		return
	}
	// The served page always fetches /data/tree.json; no document is
	// embedded, so a reload picks up the latest file.
	page := ViewerHTML(s.Title, "null", s.Layout, s.Duration)
	page = injectBeforeBodyClose(page, ReloadScript)
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	fmt.Fprint(w, page)
}

func (s *Server) handleData(w http.ResponseWriter, r *http.Request) {
	s.mu.RLock()
	root := s.root
	s.mu.RUnlock()

	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Cache-Control", "no-cache")
	if err := json.NewEncoder(w).Encode(root); err != nil {
		log.Printf("warning: encode tree: %v", err)
	}
}

func injectBeforeBodyClose(page, script string) string {
	if idx := strings.LastIndex(page, "</body>"); idx >= 0 {
		return page[:idx] + script + page[idx:]
	}
	return page + script
}
