// Package http implements the HTTP/WebSocket transport for voxmate.
//
// This transport exposes a REST API for one-shot utterances and a WebSocket
// endpoint for a conversation carried over a single connection. It is best
// suited for web clients, phones, and services that prefer HTTP-based
// communication.
package http

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"mime"
	"net/http"
	"strings"
	"time"

	httpSwagger "github.com/swaggo/http-swagger/v2"

	_ "github.com/nadzzz/voxmate/docs" // registers the OpenAPI document served under /swagger/
	"github.com/nadzzz/voxmate/internal/config"
	"github.com/nadzzz/voxmate/internal/message"
	"github.com/nadzzz/voxmate/internal/metrics"
	"github.com/nadzzz/voxmate/internal/transport"
)

// SourceHeader carries the sender identifier for text/plain requests.
const SourceHeader = "X-Voxmate-Source"

const maxBodyBytes = 1 << 20

// Transport implements transport.Transport over HTTP and WebSocket.
type Transport struct {
	port    int
	limiter *clientLimiter
	client  *http.Client
	server  *http.Server
}

// New creates a new HTTP transport from its config section.
func New(cfg config.HTTPConfig) *Transport {
	return &Transport{
		port:    cfg.Port,
		limiter: newClientLimiter(cfg.RateLimit, cfg.Burst),
		client:  &http.Client{Timeout: 10 * time.Second},
	}
}

// Name returns the transport identifier.
func (t *Transport) Name() string { return "http" }

// Handler builds the HTTP routes served by the transport.
func (t *Transport) Handler(handler transport.Handler) http.Handler {
	mux := http.NewServeMux()

	// POST /dispatch, accepts a JSON message or a plain-text utterance.
	mux.HandleFunc("POST /dispatch", func(w http.ResponseWriter, r *http.Request) {
		t.handleDispatch(w, r, handler)
	})

	// GET /ws, one JSON message (or bare utterance) per text frame.
	mux.HandleFunc("GET /ws", func(w http.ResponseWriter, r *http.Request) {
		t.handleWebSocket(w, r, handler)
	})

	// Swagger UI, serves the generated OpenAPI docs.
	mux.Handle("GET /swagger/", httpSwagger.Handler(
		httpSwagger.URL("/swagger/doc.json"),
	))

	return mux
}

// Listen starts the HTTP server and routes incoming requests to the handler.
func (t *Transport) Listen(ctx context.Context, handler transport.Handler) error {
	t.server = &http.Server{
		Addr:              fmt.Sprintf(":%d", t.port),
		Handler:           t.Handler(handler),
		ReadHeaderTimeout: 10 * time.Second,
	}

	slog.Info("http transport listening", "port", t.port)

	go func() {
		<-ctx.Done()
		slog.Info("http transport shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = t.server.Shutdown(shutdownCtx)
	}()

	if err := t.server.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("http listen: %w", err)
	}
	return nil
}

// handleDispatch processes a POST /dispatch request.
//
// @Summary     Interpret a Spanish utterance
// @Description Accepts a JSON message, or a bare utterance sent as text/plain with the sender in
// @Description the X-Voxmate-Source header. The utterance is interpreted with the sender's session
// @Description and the reply is returned, and also routed to any requested targets.
// @Tags        dispatch
// @Accept      json
// @Accept      plain
// @Produce     json
// @Param       message         body    message.Message  true   "Dispatch request"
// @Param       X-Voxmate-Source  header  string           false  "Sender identifier (text/plain requests)"
// @Success     200  {object}  message.DispatchResult  "Assistant reply"
// @Failure     400  {string}  string  "Invalid request body"
// @Failure     415  {string}  string  "Unsupported content type"
// @Failure     429  {string}  string  "Rate limit exceeded for this client"
// @Failure     500  {string}  string  "Internal processing error"
// @Router      /dispatch [post]
func (t *Transport) handleDispatch(w http.ResponseWriter, r *http.Request, handler transport.Handler) {
	var msg message.Message

	body := http.MaxBytesReader(w, r.Body, maxBodyBytes)
	mediaType, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
	switch mediaType {
	case "application/json":
		if err := json.NewDecoder(body).Decode(&msg); err != nil {
			metrics.RequestsTotal.WithLabelValues("http", "error").Inc()
			http.Error(w, "invalid json: "+err.Error(), http.StatusBadRequest)
			return
		}
	case "text/plain":
		text, err := io.ReadAll(body)
		if err != nil {
			metrics.RequestsTotal.WithLabelValues("http", "error").Inc()
			http.Error(w, "reading body: "+err.Error(), http.StatusBadRequest)
			return
		}
		msg.Text = string(text)
		msg.Source = r.Header.Get(SourceHeader)
	default:
		metrics.RequestsTotal.WithLabelValues("http", "error").Inc()
		http.Error(w, "unsupported content type: "+mediaType, http.StatusUnsupportedMediaType)
		return
	}

	if !t.limiter.allow(limitKey(r)) {
		metrics.RequestsTotal.WithLabelValues("http", "rejected").Inc()
		http.Error(w, "rate limit exceeded", http.StatusTooManyRequests)
		return
	}

	result, err := handler(r.Context(), &msg)
	if err != nil {
		metrics.RequestsTotal.WithLabelValues("http", "error").Inc()
		slog.Error("dispatch failed", "error", err)
		http.Error(w, "dispatch error: "+err.Error(), http.StatusInternalServerError)
		return
	}

	metrics.RequestsTotal.WithLabelValues("http", "ok").Inc()
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(result)
}

// Send delivers a payload to an HTTP target via POST.
func (t *Transport) Send(ctx context.Context, target message.Target, payload []byte) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, target.Endpoint, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("http send: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := t.client.Do(req)
	if err != nil {
		return fmt.Errorf("http send: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return fmt.Errorf("http send: status %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}

	slog.Debug("http send success", "target", target.Endpoint, "status", resp.StatusCode)
	return nil
}

// Close gracefully shuts down the HTTP server.
func (t *Transport) Close() error {
	if t.server != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return t.server.Shutdown(ctx)
	}
	return nil
}
