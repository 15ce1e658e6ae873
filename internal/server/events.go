package server

import (
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/gorilla/websocket"

	"github.com/jpalmerr/sitepatch/internal/store"
)

const (
	// streamWriteTimeout is the maximum time allowed for a single SSE or
	// websocket write. It stops a slow or vanished client from pinning its
	// handler goroutine past shutdown.
	streamWriteTimeout = 5 * time.Second
)

// handleSSE streams save events via Server-Sent Events.
//
// Events retained by the hub are replayed first, then new events follow as
// they are published. The handler uses write deadlines so a blocked write
// cannot keep it from noticing cancellation.
func (s *Server) handleSSE(w http.ResponseWriter, r *http.Request) {
	if _, ok := w.(http.Flusher); !ok {
		http.Error(w, "SSE not supported", http.StatusInternalServerError)
		return
	}

	logger := s.requestLogger(r)
	rc := http.NewResponseController(w)

	// track if write deadlines are supported (they are not for httptest recorders)
	deadlinesSupported := true

	writeAndFlush := func(data []byte) error {
		if deadlinesSupported {
			if err := rc.SetWriteDeadline(time.Now().Add(streamWriteTimeout)); err != nil {
				logger.Debug("sse write deadlines not supported", "error", err)
				deadlinesSupported = false
			}
		}

		if _, err := fmt.Fprintf(w, "event: save\ndata: %s\n\n", data); err != nil {
			return err
		}
		return rc.Flush()
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")

	recent, ch := s.hub.SubscribeWithRecent()
	defer s.hub.Unsubscribe(ch)

	// an initial comment commits the headers even when there is nothing to replay
	if _, err := fmt.Fprint(w, ": connected\n\n"); err != nil {
		return
	}
	if err := rc.Flush(); err != nil {
		return
	}

	for _, event := range recent {
		data, err := json.Marshal(event)
		if err != nil {
			continue
		}
		if err := writeAndFlush(data); err != nil {
			return
		}
	}

	for {
		select {
		case event, ok := <-ch:
			if !ok {
				return
			}
			data, err := json.Marshal(event)
			if err != nil {
				continue
			}
			if err := writeAndFlush(data); err != nil {
				return
			}

		case <-r.Context().Done():
			// request context is derived from server context via BaseContext,
			// so this fires on both client disconnect AND server shutdown
			return
		}
	}
}

// handleWebSocket streams save events as JSON text messages.
//
// Incoming messages are read and discarded; reading is what lets the
// connection notice a close frame from the client.
func (s *Server) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	logger := s.requestLogger(r)

	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		// Upgrade has already replied with an HTTP error
		logger.Warn("failed to upgrade websocket connection", "error", err)
		return
	}
	defer conn.Close()

	recent, ch := s.hub.SubscribeWithRecent()
	defer s.hub.Unsubscribe(ch)

	logger.Debug("websocket client connected")

	closed := make(chan struct{})
	go func() {
		defer close(closed)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
					logger.Debug("websocket read error", "error", err)
				}
				return
			}
		}
	}()

	send := func(event store.SaveEvent) error {
		if err := conn.SetWriteDeadline(time.Now().Add(streamWriteTimeout)); err != nil {
			return err
		}
		return conn.WriteJSON(event)
	}

	for _, event := range recent {
		if err := send(event); err != nil {
			return
		}
	}

	for {
		select {
		case event, ok := <-ch:
			if !ok {
				return
			}
			if err := send(event); err != nil {
				logger.Debug("websocket write failed", "error", err)
				return
			}

		case <-closed:
			logger.Debug("websocket client disconnected")
			return

		case <-r.Context().Done():
			msg := websocket.FormatCloseMessage(websocket.CloseGoingAway, "server shutting down")
			_ = conn.WriteControl(websocket.CloseMessage, msg, time.Now().Add(time.Second))
			return
		}
	}
}
