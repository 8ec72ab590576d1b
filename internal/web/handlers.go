package web

import (
	"encoding/json"
	"fmt"
	"io/fs"
	"net/http"
	"sync"

	"github.com/cjeanneret/SentryGo/internal/logic/loop"
)

// Handlers holds dependencies for HTTP handlers.
type Handlers struct {
	Broadcaster *Broadcaster

	snapMu   sync.RWMutex
	snapshot loop.Snapshot
	haveSnap bool

	staticFS fs.FS
}

// NewHandlers creates handlers with the given dependencies.
func NewHandlers(broadcaster *Broadcaster, staticFS fs.FS) *Handlers {
	return &Handlers{
		Broadcaster: broadcaster,
		staticFS:    staticFS,
	}
}

// SetSnapshot stores the latest controller snapshot. Wired to the control
// loop's status callback; safe to call from the loop goroutine.
func (h *Handlers) SetSnapshot(s loop.Snapshot) {
	h.snapMu.Lock()
	h.snapshot = s
	h.haveSnap = true
	h.snapMu.Unlock()
}

// HandleStatus returns the latest controller snapshot as JSON.
func (h *Handlers) HandleStatus(w http.ResponseWriter, r *http.Request) {
	h.snapMu.RLock()
	snap, ok := h.snapshot, h.haveSnap
	h.snapMu.RUnlock()

	if !ok {
		http.Error(w, "no status yet", http.StatusServiceUnavailable)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(snap)
}

// ServeIndex serves the main HTML page (root path only).
func (h *Handlers) ServeIndex(w http.ResponseWriter, r *http.Request) {
	data, err := fs.ReadFile(h.staticFS, "index.html")
	if err != nil {
		http.Error(w, "not found", http.StatusNotFound)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Write(data)
}

// HandleLogStream streams debug output to the client as Server-Sent Events.
func (h *Handlers) HandleLogStream(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "streaming unsupported", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")

	ch, unsub := h.Broadcaster.Subscribe()
	defer unsub()

	for {
		select {
		case <-r.Context().Done():
			return
		case msg, open := <-ch:
			if !open {
				return
			}
			fmt.Fprintf(w, "data: %s\n\n", msg)
			flusher.Flush()
		}
	}
}
