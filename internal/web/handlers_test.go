package web

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"testing/fstest"
	"time"

	"github.com/cjeanneret/SentryGo/internal/logic/loop"
)

func newTestHandlers() *Handlers {
	staticFS := fstest.MapFS{
		"index.html": &fstest.MapFile{Data: []byte("<html>test</html>")},
	}
	return NewHandlers(NewBroadcaster(), staticFS)
}

func testSnapshot() loop.Snapshot {
	return loop.Snapshot{
		State:     "TRACKING",
		PanDeg:    -12.5,
		TiltDeg:   8,
		Direction: "LEFT",
		Top:       "INACTIVE",
		Bottom:    "INACTIVE",
		Left:      "ACTIVE",
		Right:     "INACTIVE",
	}
}

// ---------- HandleStatus ----------

func TestHandleStatus_BeforeFirstSnapshot(t *testing.T) {
	h := newTestHandlers()
	req := httptest.NewRequest(http.MethodGet, "/status", nil)
	w := httptest.NewRecorder()

	h.HandleStatus(w, req)

	if w.Code != http.StatusServiceUnavailable {
		t.Errorf("status = %d, want %d", w.Code, http.StatusServiceUnavailable)
	}
}

func TestHandleStatus_ReturnsLatestSnapshot(t *testing.T) {
	h := newTestHandlers()
	h.SetSnapshot(testSnapshot())

	req := httptest.NewRequest(http.MethodGet, "/status", nil)
	w := httptest.NewRecorder()

	h.HandleStatus(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", w.Code, http.StatusOK)
	}
	if ct := w.Header().Get("Content-Type"); ct != "application/json" {
		t.Errorf("Content-Type = %q, want application/json", ct)
	}

	var snap loop.Snapshot
	if err := json.NewDecoder(w.Body).Decode(&snap); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if snap.State != "TRACKING" {
		t.Errorf("state = %q, want TRACKING", snap.State)
	}
	if snap.PanDeg != -12.5 {
		t.Errorf("pan_deg = %v, want -12.5", snap.PanDeg)
	}
	if snap.Left != "ACTIVE" {
		t.Errorf("left = %q, want ACTIVE", snap.Left)
	}
}

func TestHandleStatus_SnapshotOverwritten(t *testing.T) {
	h := newTestHandlers()
	h.SetSnapshot(testSnapshot())

	next := testSnapshot()
	next.State = "SEARCHING"
	next.Direction = "NONE"
	h.SetSnapshot(next)

	req := httptest.NewRequest(http.MethodGet, "/status", nil)
	w := httptest.NewRecorder()
	h.HandleStatus(w, req)

	var snap loop.Snapshot
	if err := json.NewDecoder(w.Body).Decode(&snap); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if snap.State != "SEARCHING" {
		t.Errorf("state = %q, want the latest snapshot (SEARCHING)", snap.State)
	}
}

// ---------- ServeIndex ----------

func TestServeIndex(t *testing.T) {
	h := newTestHandlers()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	w := httptest.NewRecorder()

	h.ServeIndex(w, req)

	if w.Code != http.StatusOK {
		t.Errorf("status = %d, want %d", w.Code, http.StatusOK)
	}
	if ct := w.Header().Get("Content-Type"); ct != "text/html; charset=utf-8" {
		t.Errorf("Content-Type = %q, want text/html; charset=utf-8", ct)
	}
	if !strings.Contains(w.Body.String(), "<html>") {
		t.Error("body should contain HTML content")
	}
}

func TestServeIndex_MissingFile(t *testing.T) {
	h := NewHandlers(NewBroadcaster(), fstest.MapFS{})
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	w := httptest.NewRecorder()

	h.ServeIndex(w, req)

	if w.Code != http.StatusNotFound {
		t.Errorf("status = %d, want %d", w.Code, http.StatusNotFound)
	}
}

// ---------- HandleLogStream ----------

func TestHandleLogStream_StreamsBroadcasts(t *testing.T) {
	h := newTestHandlers()

	req := httptest.NewRequest(http.MethodGet, "/log/stream", nil)
	ctx, cancel := context.WithCancel(req.Context())
	req = req.WithContext(ctx)
	w := httptest.NewRecorder()

	done := make(chan struct{})
	go func() {
		h.HandleLogStream(w, req)
		close(done)
	}()

	// Give the handler time to subscribe, then publish and disconnect.
	time.Sleep(50 * time.Millisecond)
	h.Broadcaster.BroadcastMsg("stream me")
	time.Sleep(50 * time.Millisecond)
	cancel()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("handler did not return after context cancellation")
	}

	body := w.Body.String()
	if !strings.Contains(body, "data: ") {
		t.Errorf("body = %q, want SSE-framed data", body)
	}
	if !strings.Contains(body, "stream me") {
		t.Errorf("body = %q, want broadcast message", body)
	}
	if ct := w.Header().Get("Content-Type"); ct != "text/event-stream" {
		t.Errorf("Content-Type = %q, want text/event-stream", ct)
	}
}
