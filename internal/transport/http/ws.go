package http

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/gorilla/websocket"

	"github.com/nadzzz/voxmate/internal/message"
	"github.com/nadzzz/voxmate/internal/metrics"
	"github.com/nadzzz/voxmate/internal/transport"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin:     func(r *http.Request) bool { return true },
}

// handleWebSocket serves GET /ws. Every text frame is one utterance, either
// a JSON Message or bare text, and is answered with one JSON DispatchResult.
// The ?source= query parameter names the sender for frames that omit it, so
// a connection naturally keeps one session.
func (t *Transport) handleWebSocket(w http.ResponseWriter, r *http.Request, handler transport.Handler) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		slog.Error("websocket upgrade failed", "error", err)
		return
	}
	defer conn.Close()

	conn.SetReadLimit(maxBodyBytes)
	source := r.URL.Query().Get("source")
	logger := slog.With("source", source, "remote", r.RemoteAddr)
	logger.Debug("websocket connected")

	for {
		kind, data, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				logger.Warn("websocket read failed", "error", err)
			}
			return
		}
		if kind != websocket.TextMessage {
			continue
		}

		msg := decodeFrame(data)
		if msg.Source == "" {
			msg.Source = source
		}

		var result *message.DispatchResult
		if !t.limiter.allow(limitKey(r)) {
			metrics.RequestsTotal.WithLabelValues("ws", "rejected").Inc()
			result = &message.DispatchResult{MessageID: msg.ID, Source: msg.Source, Error: "rate limit exceeded"}
		} else if result, err = handler(r.Context(), msg); err != nil {
			metrics.RequestsTotal.WithLabelValues("ws", "error").Inc()
			result = &message.DispatchResult{MessageID: msg.ID, Source: msg.Source, Error: err.Error()}
		} else {
			metrics.RequestsTotal.WithLabelValues("ws", "ok").Inc()
		}

		if err := conn.WriteJSON(result); err != nil {
			logger.Warn("websocket write failed", "error", err)
			return
		}
	}
}

// decodeFrame reads a JSON Message, treating anything that is not a JSON
// object as the utterance itself.
func decodeFrame(data []byte) *message.Message {
	var msg message.Message
	if err := json.Unmarshal(data, &msg); err != nil {
		return &message.Message{Text: string(data)}
	}
	return &msg
}
