package server

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"runtime"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"github.com/jpalmerr/sitepatch/internal/store"
)

// --- SSE ---

func TestHandleSSE_ReplaysRecent(t *testing.T) {
	ts := newTestSite(t, testDocument, Config{})
	ts.hub.Publish(store.SaveEvent{ID: "first", Count: 1})
	ts.hub.Publish(store.SaveEvent{ID: "second", Count: 2})

	ctx, cancel := context.WithTimeout(context.Background(), 200*time.Millisecond)
	defer cancel()

	req := httptest.NewRequest(http.MethodGet, EventsPath, nil).WithContext(ctx)
	rec := httptest.NewRecorder()

	ts.srv.handleSSE(rec, req)

	body := rec.Body.String()
	first := strings.Index(body, "first")
	second := strings.Index(body, "second")
	if first < 0 || second < 0 {
		t.Fatalf("response should contain replayed events, got: %s", body)
	}
	if first > second {
		t.Errorf("replayed events should be oldest first, got: %s", body)
	}
}

func TestHandleSSE_StreamsSaves(t *testing.T) {
	ts := newTestSite(t, testDocument, Config{})

	ctx, cancel := context.WithCancel(context.Background())
	req := httptest.NewRequest(http.MethodGet, EventsPath, nil).WithContext(ctx)
	rec := httptest.NewRecorder()

	done := make(chan struct{})
	go func() {
		ts.srv.handleSSE(rec, req)
		close(done)
	}()

	// give handler time to subscribe
	time.Sleep(50 * time.Millisecond)

	save := ts.do(http.MethodPost, SavePath, `{"projects":[{"a":1}]}`)
	id := save.Header().Get(RequestIDHeader)

	// give time for the event to be written
	time.Sleep(50 * time.Millisecond)
	cancel()

	select {
	case <-done:
	case <-time.After(1 * time.Second):
		t.Fatal("handler did not exit after context cancellation")
	}

	body := rec.Body.String()
	if !strings.Contains(body, id) {
		t.Errorf("response should contain streamed save %s, got: %s", id, body)
	}
}

func TestHandleSSE_EventFormat(t *testing.T) {
	ts := newTestSite(t, testDocument, Config{})
	ts.hub.Publish(store.SaveEvent{
		ID:           "req-1",
		Document:     "/site/index.html",
		Count:        4,
		Bytes:        512,
		TitleUpdated: true,
		SavedAt:      time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
	})

	ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
	defer cancel()

	req := httptest.NewRequest(http.MethodGet, EventsPath, nil).WithContext(ctx)
	rec := httptest.NewRecorder()

	ts.srv.handleSSE(rec, req)

	body := rec.Body.String()
	if !strings.Contains(body, "event: save\n") {
		t.Errorf("response should name the event type, got: %s", body)
	}

	var jsonData string
	for _, line := range strings.Split(body, "\n") {
		if strings.HasPrefix(line, "data: ") {
			jsonData = strings.TrimPrefix(line, "data: ")
			break
		}
	}
	if jsonData == "" {
		t.Fatalf("no data line found in: %s", body)
	}

	var got store.SaveEvent
	if err := json.Unmarshal([]byte(jsonData), &got); err != nil {
		t.Fatalf("failed to parse event JSON: %v", err)
	}
	if got.ID != "req-1" || got.Count != 4 || got.Bytes != 512 || !got.TitleUpdated {
		t.Errorf("event = %+v", got)
	}
	if !got.SavedAt.Equal(time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)) {
		t.Errorf("SavedAt = %v", got.SavedAt)
	}
}

func TestHandleSSE_Headers(t *testing.T) {
	ts := newTestSite(t, testDocument, Config{})

	ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
	defer cancel()

	req := httptest.NewRequest(http.MethodGet, EventsPath, nil).WithContext(ctx)
	rec := httptest.NewRecorder()

	ts.srv.ServeHTTP(rec, req)

	expectedHeaders := map[string]string{
		"Content-Type":                "text/event-stream",
		"Cache-Control":               "no-cache",
		"Connection":                  "keep-alive",
		"Access-Control-Allow-Origin": "*",
	}
	for key, expected := range expectedHeaders {
		if got := rec.Header().Get(key); got != expected {
			t.Errorf("header %s = %q, want %q", key, got, expected)
		}
	}
}

func TestHandleSSE_ServerShutdown(t *testing.T) {
	ts := newTestSite(t, testDocument, Config{})

	// when calling handleSSE directly the request context stands in for the
	// server context that BaseContext provides in production
	serverCtx, serverCancel := context.WithCancel(context.Background())

	numClients := 10
	var wg sync.WaitGroup
	var startedCount atomic.Int32
	started := make(chan struct{})

	for i := 0; i < numClients; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()

			req := httptest.NewRequest(http.MethodGet, EventsPath, nil).WithContext(serverCtx)
			rec := httptest.NewRecorder()

			if startedCount.Add(1) == int32(numClients) {
				close(started)
			}
			ts.srv.handleSSE(rec, req)
		}()
	}

	select {
	case <-started:
	case <-time.After(2 * time.Second):
		t.Fatal("clients did not start in time")
	}

	// give handlers time to subscribe
	time.Sleep(100 * time.Millisecond)
	serverCancel()

	done := make(chan struct{})
	go func() {
		wg.Wait()
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(3 * time.Second):
		t.Fatal("not all handlers exited after shutdown")
	}

	if n := ts.hub.Subscribers(); n != 0 {
		t.Errorf("Subscribers() = %d after shutdown, want 0", n)
	}
}

func TestHandleSSE_NoGoroutineLeaks(t *testing.T) {
	ts := newTestSite(t, testDocument, Config{})

	runtime.GC()
	time.Sleep(100 * time.Millisecond)
	before := runtime.NumGoroutine()

	var wg sync.WaitGroup
	for i := 0; i < 5; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
			defer cancel()

			req := httptest.NewRequest(http.MethodGet, EventsPath, nil).WithContext(ctx)
			ts.srv.handleSSE(httptest.NewRecorder(), req)
		}()
	}
	wg.Wait()

	runtime.GC()
	time.Sleep(200 * time.Millisecond)

	after := runtime.NumGoroutine()
	if after > before+2 { // small tolerance for runtime variance
		t.Errorf("potential goroutine leak: before=%d, after=%d", before, after)
	}
}

func TestHandleSSE_SSENotSupported(t *testing.T) {
	ts := newTestSite(t, testDocument, Config{})

	w := &nonFlushWriter{header: make(http.Header)}
	ts.srv.handleSSE(w, httptest.NewRequest(http.MethodGet, EventsPath, nil))

	if w.statusCode != http.StatusInternalServerError {
		t.Errorf("expected status %d, got %d", http.StatusInternalServerError, w.statusCode)
	}
}

type nonFlushWriter struct {
	header     http.Header
	statusCode int
	body       []byte
}

func (n *nonFlushWriter) Header() http.Header {
	return n.header
}

func (n *nonFlushWriter) Write(b []byte) (int, error) {
	n.body = append(n.body, b...)
	return len(b), nil
}

func (n *nonFlushWriter) WriteHeader(statusCode int) {
	n.statusCode = statusCode
}

// --- WebSocket ---

func dialSocket(t *testing.T, httpURL string, header http.Header) (*websocket.Conn, *http.Response, error) {
	t.Helper()
	u := "ws" + strings.TrimPrefix(httpURL, "http") + SocketPath
	return websocket.DefaultDialer.Dial(u, header)
}

func TestHandleWebSocket_ReceivesSaves(t *testing.T) {
	ts := newTestSite(t, testDocument, Config{})
	httpSrv := httptest.NewServer(ts.srv)
	defer httpSrv.Close()

	conn, _, err := dialSocket(t, httpSrv.URL, nil)
	if err != nil {
		t.Fatalf("Dial() error = %v", err)
	}
	defer conn.Close()

	// wait for the handler to subscribe before saving
	deadline := time.Now().Add(time.Second)
	for ts.hub.Subscribers() == 0 && time.Now().Before(deadline) {
		time.Sleep(10 * time.Millisecond)
	}

	resp, err := http.Post(httpSrv.URL+SavePath, "application/json",
		strings.NewReader(`{"projects":[{"a":1},{"b":2}]}`))
	if err != nil {
		t.Fatalf("POST error = %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("save status = %d", resp.StatusCode)
	}

	_ = conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	var got store.SaveEvent
	if err := conn.ReadJSON(&got); err != nil {
		t.Fatalf("ReadJSON() error = %v", err)
	}
	if got.Count != 2 {
		t.Errorf("event Count = %d, want 2", got.Count)
	}
	if got.ID != resp.Header.Get(RequestIDHeader) {
		t.Errorf("event ID = %q, want %q", got.ID, resp.Header.Get(RequestIDHeader))
	}
}

func TestHandleWebSocket_ReplaysRecent(t *testing.T) {
	ts := newTestSite(t, testDocument, Config{})
	ts.hub.Publish(store.SaveEvent{ID: "earlier", Count: 7})

	httpSrv := httptest.NewServer(ts.srv)
	defer httpSrv.Close()

	conn, _, err := dialSocket(t, httpSrv.URL, nil)
	if err != nil {
		t.Fatalf("Dial() error = %v", err)
	}
	defer conn.Close()

	_ = conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	var got store.SaveEvent
	if err := conn.ReadJSON(&got); err != nil {
		t.Fatalf("ReadJSON() error = %v", err)
	}
	if got.ID != "earlier" || got.Count != 7 {
		t.Errorf("event = %+v, want replayed event", got)
	}
}

func TestHandleWebSocket_OriginCheck(t *testing.T) {
	ts := newTestSite(t, testDocument, Config{AllowedOrigin: "http://editor.local"})
	httpSrv := httptest.NewServer(ts.srv)
	defer httpSrv.Close()

	_, resp, err := dialSocket(t, httpSrv.URL, http.Header{"Origin": {"http://evil.local"}})
	if err == nil {
		t.Fatal("Dial() should fail for a foreign origin")
	}
	if resp == nil || resp.StatusCode != http.StatusForbidden {
		t.Errorf("handshake response = %v, want 403", resp)
	}

	conn, _, err := dialSocket(t, httpSrv.URL, http.Header{"Origin": {"http://editor.local"}})
	if err != nil {
		t.Fatalf("Dial() with allowed origin error = %v", err)
	}
	conn.Close()
}

func TestHandleWebSocket_ClientCloseUnsubscribes(t *testing.T) {
	ts := newTestSite(t, testDocument, Config{})
	httpSrv := httptest.NewServer(ts.srv)
	defer httpSrv.Close()

	conn, _, err := dialSocket(t, httpSrv.URL, nil)
	if err != nil {
		t.Fatalf("Dial() error = %v", err)
	}

	deadline := time.Now().Add(time.Second)
	for ts.hub.Subscribers() == 0 && time.Now().Before(deadline) {
		time.Sleep(10 * time.Millisecond)
	}
	if ts.hub.Subscribers() != 1 {
		t.Fatalf("Subscribers() = %d, want 1", ts.hub.Subscribers())
	}

	conn.Close()

	deadline = time.Now().Add(2 * time.Second)
	for ts.hub.Subscribers() != 0 && time.Now().Before(deadline) {
		time.Sleep(10 * time.Millisecond)
	}
	if ts.hub.Subscribers() != 0 {
		t.Errorf("Subscribers() = %d after close, want 0", ts.hub.Subscribers())
	}
}
