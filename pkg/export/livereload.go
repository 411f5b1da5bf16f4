// Live reload for the preview server via Server-Sent Events. When the tree
// document changes on disk, connected browsers receive a reload event.
package export

import (
	"context"
	"fmt"
	"net/http"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
)

// EventsPath is the SSE endpoint the reload script connects to.
const EventsPath = "/__preview__/events"

// ReloadHub manages SSE connections and watches the tree document.
type ReloadHub struct {
	document string
	watcher  *fsnotify.Watcher

	mu      sync.RWMutex
	clients map[chan struct{}]struct{}

	ctx    context.Context
	cancel context.CancelFunc

	// debounce rapid saves from editors
	lastEvent time.Time
	debounce  time.Duration

	// onChange runs before clients are notified, so the server can reload
	// the document first.
	onChange func()
}

// NewReloadHub creates a hub watching the given document path.
func NewReloadHub(document string, onChange func()) (*ReloadHub, error) {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("create fsnotify watcher: %w", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	return &ReloadHub{
		document: document,
		watcher:  watcher,
		clients:  make(map[chan struct{}]struct{}),
		ctx:      ctx,
		cancel:   cancel,
		debounce: 200 * time.Millisecond,
		onChange: onChange,
	}, nil
}

// Start begins watching. The document's directory is watched rather than
// the file itself, because editors replace files on save.
func (h *ReloadHub) Start() error {
	dir := filepath.Dir(h.document)
	if err := h.watcher.Add(dir); err != nil {
		return fmt.Errorf("watch %s: %w", dir, err)
	}
	go h.watchLoop()
	return nil
}

// Stop shuts down the hub and disconnects all clients.
func (h *ReloadHub) Stop() {
	h.cancel()
	h.watcher.Close()

	h.mu.Lock()
	defer h.mu.Unlock()
	for ch := range h.clients {
		close(ch)
	}
	h.clients = make(map[chan struct{}]struct{})
}

// ClientCount returns the number of connected clients.
func (h *ReloadHub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

func (h *ReloadHub) watchLoop() {
	base := filepath.Base(h.document)
	for {
		select {
		case <-h.ctx.Done():
			return

		case event, ok := <-h.watcher.Events:
			if !ok {
				return
			}
			if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) == 0 {
				continue
			}
			if filepath.Base(event.Name) != base {
				continue
			}

			now := time.Now()
			if now.Sub(h.lastEvent) < h.debounce {
				continue
			}
			h.lastEvent = now

			if h.onChange != nil {
				h.onChange()
			}
			h.notifyClients()

		case _, ok := <-h.watcher.Errors:
			if !ok {
				return
			}
			// Watcher errors don't stop the loop.
		}
	}
}

func (h *ReloadHub) notifyClients() {
	h.mu.RLock()
	defer h.mu.RUnlock()

	for ch := range h.clients {
		select {
		case ch <- struct{}{}:
		default:
			// Client not ready, skip.
		}
	}
}

// SSEHandler returns the handler for the events endpoint.
func (h *ReloadHub) SSEHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/event-stream")
		w.Header().Set("Cache-Control", "no-cache")
		w.Header().Set("Connection", "keep-alive")

		flusher, ok := w.(http.Flusher)
		if !ok {
			http.Error(w, "SSE not supported", http.StatusInternalServerError)
			return
		}

		clientCh := make(chan struct{}, 1)
		h.mu.Lock()
		h.clients[clientCh] = struct{}{}
		h.mu.Unlock()

		defer func() {
			h.mu.Lock()
			delete(h.clients, clientCh)
			h.mu.Unlock()
		}()

		fmt.Fprintf(w, "event: connected\ndata: {\"status\":\"connected\"}\n\n")
		flusher.Flush()

		for {
			select {
			case <-r.Context().Done():
				return
			case <-h.ctx.Done():
				return
			case _, ok := <-clientCh:
				if !ok {
					return
				}
				fmt.Fprintf(w, "event: reload\ndata: {\"action\":\"reload\"}\n\n")
				flusher.Flush()
			}
		}
	}
}

// ReloadScript is injected into the viewer page by the preview server.
const ReloadScript = `<script>
(function() {
  if (typeof(EventSource) === 'undefined') return;
  var reconnectDelay = 1000;
  var maxReconnectDelay = 30000;

  function connect() {
    var es = new EventSource('` + EventsPath + `');

    es.addEventListener('connected', function() {
      console.log('[treescope] Live reload connected');
      reconnectDelay = 1000;
    });

    es.addEventListener('reload', function() {
      console.log('[treescope] Reloading...');
      location.reload();
    });

    es.onerror = function() {
      es.close();
      setTimeout(connect, reconnectDelay);
      reconnectDelay = Math.min(reconnectDelay * 2, maxReconnectDelay);
    };
  }

  connect();
})();
</script>`
