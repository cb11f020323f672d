// Package nats implements the NATS transport for voxmate.
//
// NATS suits IoT devices and lightweight request/reply messaging. This
// transport queue-subscribes to a configurable subject, answers each
// request on its reply inbox, and publishes routed results to target
// subjects. It can optionally run an embedded NATS server so a single
// binary needs no external broker.
package nats

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/nats-io/nats-server/v2/server"
	"github.com/nats-io/nats.go"

	"github.com/nadzzz/voxmate/internal/config"
	"github.com/nadzzz/voxmate/internal/message"
	"github.com/nadzzz/voxmate/internal/metrics"
	"github.com/nadzzz/voxmate/internal/transport"
)

// SourceHeader names the sender for bare-text requests.
const SourceHeader = "Voxmate-Source"

// Transport implements transport.Transport over NATS.
type Transport struct {
	url      string
	subject  string
	queue    string
	embedded bool

	mu     sync.Mutex
	conn   *nats.Conn
	server *server.Server
}

// New creates a new NATS transport from its config section.
func New(cfg config.NATSConfig) *Transport {
	return &Transport{
		url:      cfg.URL,
		subject:  cfg.Subject,
		queue:    cfg.Queue,
		embedded: cfg.Embedded,
	}
}

// Name returns the transport identifier.
func (t *Transport) Name() string { return "nats" }

// Listen connects (starting the embedded server if configured), subscribes
// to the subject and serves requests until ctx is cancelled.
func (t *Transport) Listen(ctx context.Context, handler transport.Handler) error {
	nc, err := t.connect()
	if err != nil {
		return err
	}

	sub, err := nc.QueueSubscribe(t.subject, t.queue, func(m *nats.Msg) {
		t.handle(ctx, handler, m)
	})
	if err != nil {
		return fmt.Errorf("nats subscribe: %w", err)
	}

	slog.Info("nats transport listening", "url", nc.ConnectedUrl(), "subject", t.subject, "queue", t.queue)
	<-ctx.Done()

	slog.Info("nats transport shutting down")
	_ = sub.Drain()
	return t.Close()
}

func (t *Transport) connect() (*nats.Conn, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.conn != nil {
		return t.conn, nil
	}

	url := t.url
	if t.embedded {
		ns, err := server.NewServer(&server.Options{
			Host:   "127.0.0.1",
			Port:   server.RANDOM_PORT,
			NoLog:  true,
			NoSigs: true,
		})
		if err != nil {
			return nil, fmt.Errorf("create embedded nats server: %w", err)
		}
		go ns.Start()
		if !ns.ReadyForConnections(5 * time.Second) {
			ns.Shutdown()
			return nil, errors.New("embedded nats server failed to start")
		}
		t.server = ns
		url = ns.ClientURL()
	}

	nc, err := nats.Connect(url,
		nats.Name("voxmate"),
		nats.MaxReconnects(-1),
		nats.DisconnectErrHandler(func(_ *nats.Conn, err error) {
			if err != nil {
				slog.Warn("nats disconnected", "error", err)
			}
		}),
		nats.ReconnectHandler(func(c *nats.Conn) {
			slog.Info("nats reconnected", "url", c.ConnectedUrl())
		}),
	)
	if err != nil {
		if t.server != nil {
			t.server.Shutdown()
			t.server = nil
		}
		return nil, fmt.Errorf("connect to nats: %w", err)
	}
	t.conn = nc
	return nc, nil
}

// ConnectedURL reports the broker URL once Listen has connected, or "".
func (t *Transport) ConnectedURL() string {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.conn == nil {
		return ""
	}
	return t.conn.ConnectedUrl()
}

func (t *Transport) handle(ctx context.Context, handler transport.Handler, m *nats.Msg) {
	source := m.Header.Get(SourceHeader)
	if source == "" {
		source = m.Subject
	}

	reply := respond(ctx, handler, m.Data, source)
	if m.Reply == "" {
		return
	}
	if err := m.Respond(reply); err != nil {
		slog.Warn("nats respond failed", "subject", m.Reply, "error", err)
	}
}

// respond decodes one request, runs it through the handler and encodes the
// result. A payload that is not a JSON object is taken as the utterance,
// and defaultSource fills in a missing Source.
func respond(ctx context.Context, handler transport.Handler, data []byte, defaultSource string) []byte {
	var msg message.Message
	if err := json.Unmarshal(data, &msg); err != nil {
		msg = message.Message{Text: string(data)}
	}
	if msg.Source == "" {
		msg.Source = defaultSource
	}

	result, err := handler(ctx, &msg)
	if err != nil {
		metrics.RequestsTotal.WithLabelValues("nats", "error").Inc()
		result = &message.DispatchResult{MessageID: msg.ID, Source: msg.Source, Error: err.Error()}
	} else {
		metrics.RequestsTotal.WithLabelValues("nats", "ok").Inc()
	}

	out, err := json.Marshal(result)
	if err != nil {
		out, _ = json.Marshal(message.DispatchResult{MessageID: msg.ID, Error: "marshalling result: " + err.Error()})
	}
	return out
}

// Send publishes a payload to the target endpoint, taken as a subject.
func (t *Transport) Send(_ context.Context, target message.Target, payload []byte) error {
	t.mu.Lock()
	nc := t.conn
	t.mu.Unlock()

	if nc == nil {
		return fmt.Errorf("nats send: %w", transport.ErrNotListening)
	}
	if err := nc.Publish(target.Endpoint, payload); err != nil {
		return fmt.Errorf("nats send: %w", err)
	}

	slog.Debug("nats send success", "subject", target.Endpoint, "bytes", len(payload))
	return nil
}

// Close disconnects from NATS and stops the embedded server, if any.
func (t *Transport) Close() error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.conn != nil {
		t.conn.Close()
		t.conn = nil
	}
	if t.server != nil {
		t.server.Shutdown()
		t.server = nil
	}
	return nil
}
