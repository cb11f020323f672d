// Package dispatch implements the core message routing engine.
//
// The dispatcher receives messages from transports, runs the utterance
// through the assistant with the sender's session, then routes the
// resulting reply to any target services. The sender always receives the
// response, this is an architectural invariant.
package dispatch

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/sony/gobreaker"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/nadzzz/voxmate/internal/assistant"
	"github.com/nadzzz/voxmate/internal/message"
	"github.com/nadzzz/voxmate/internal/metrics"
	"github.com/nadzzz/voxmate/internal/session"
	"github.com/nadzzz/voxmate/internal/transport"
)

// AnonymousSource is the session key used when a message carries no Source.
const AnonymousSource = "anonymous"

const tracerName = "github.com/nadzzz/voxmate/internal/dispatch"

// Interpreter turns an utterance and a session into a reply.
// *assistant.Assistant is the production implementation.
type Interpreter interface {
	Process(sess assistant.Session, text string) assistant.Reply
}

// Option configures a Dispatcher.
type Option func(*Dispatcher)

// WithDefaultTargets sets the targets used when a message names none.
func WithDefaultTargets(targets []message.Target) Option {
	return func(d *Dispatcher) { d.defaultTargets = targets }
}

// WithTracerProvider replaces the global tracer provider.
func WithTracerProvider(tp trace.TracerProvider) Option {
	return func(d *Dispatcher) { d.tracer = tp.Tracer(tracerName) }
}

// Dispatcher is the central routing engine.
type Dispatcher struct {
	interpreter    Interpreter
	sessions       *session.Store
	transports     map[string]transport.Transport
	defaultTargets []message.Target
	tracer         trace.Tracer

	mu       sync.Mutex
	breakers map[string]*gobreaker.CircuitBreaker
}

// New creates a new Dispatcher with the given interpreter, session store and transports.
func New(interp Interpreter, sessions *session.Store, transports []transport.Transport, opts ...Option) *Dispatcher {
	tm := make(map[string]transport.Transport, len(transports))
	for _, t := range transports {
		tm[t.Name()] = t
	}
	d := &Dispatcher{
		interpreter: interp,
		sessions:    sessions,
		transports:  tm,
		tracer:      otel.Tracer(tracerName),
		breakers:    make(map[string]*gobreaker.CircuitBreaker),
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Handle processes a single message through the full pipeline.
// This function is passed as the transport.Handler to each transport.
// It never returns an error: problems are reported in result.Error.
func (d *Dispatcher) Handle(ctx context.Context, msg *message.Message) (*message.DispatchResult, error) {
	start := time.Now()
	if msg.ID == "" {
		msg.ID = uuid.NewString()
	}
	if msg.Timestamp.IsZero() {
		msg.Timestamp = start
	}
	source := msg.Source
	if source == "" {
		source = AnonymousSource
	}

	ctx, span := d.tracer.Start(ctx, "dispatch.Handle", trace.WithAttributes(
		attribute.String("message.id", msg.ID),
		attribute.String("message.source", source),
	))
	defer span.End()

	logger := slog.With("message_id", msg.ID, "source", source)
	logger.Debug("dispatch started")

	result := &message.DispatchResult{
		MessageID:  msg.ID,
		Source:     source,
		Transcript: msg.Text,
	}

	// Step 1: Interpret the utterance against the sender's session.
	var reply assistant.Reply
	d.sessions.Update(source, func(sess assistant.Session) assistant.Session {
		reply = d.interpreter.Process(sess, msg.Text)
		return reply.Session
	})
	metrics.ActiveSessions.Set(float64(d.sessions.Len()))

	result.Intent = string(reply.Intent)
	result.ResponseText = reply.Text
	if reply.Intent == assistant.IntentEmpty {
		result.Error = "message has no text"
	}
	metrics.IntentsTotal.WithLabelValues(result.Intent).Inc()
	span.SetAttributes(attribute.String("assistant.intent", result.Intent))
	logger.Info("interpretation complete", "intent", result.Intent)

	// Step 2: Route the result to target services.
	targets := msg.Targets
	if len(targets) == 0 {
		targets = d.defaultTargets
	}
	if len(targets) > 0 {
		payload, err := json.Marshal(result)
		if err != nil {
			result.Error = fmt.Sprintf("marshalling result: %v", err)
			span.SetStatus(codes.Error, result.Error)
			return result, nil
		}
		for _, target := range targets {
			if err := d.route(ctx, target, payload); err != nil {
				logger.Error("failed to send to target", "target", target.ServiceName, "protocol", target.Protocol, "error", err)
				continue
			}
			result.RoutedTo = append(result.RoutedTo, target.ServiceName)
			logger.Info("routed to target", "target", target.ServiceName)
		}
	}

	elapsed := time.Since(start)
	metrics.DispatchSeconds.Observe(elapsed.Seconds())
	logger.Info("dispatch complete", "intent", result.Intent, "duration", elapsed, "routed_to", len(result.RoutedTo))

	// The result is always returned to the sender via the transport that received the message.
	return result, nil
}

func (d *Dispatcher) route(ctx context.Context, target message.Target, payload []byte) error {
	t, ok := d.transports[target.Protocol]
	if !ok {
		metrics.RoutedTotal.WithLabelValues(target.Protocol, "no_transport").Inc()
		return fmt.Errorf("no transport for protocol %q", target.Protocol)
	}

	_, err := d.breaker(target).Execute(func() (interface{}, error) {
		return nil, t.Send(ctx, target, payload)
	})
	switch {
	case errors.Is(err, gobreaker.ErrOpenState), errors.Is(err, gobreaker.ErrTooManyRequests):
		metrics.RoutedTotal.WithLabelValues(target.Protocol, "open").Inc()
	case err != nil:
		metrics.RoutedTotal.WithLabelValues(target.Protocol, "error").Inc()
	default:
		metrics.RoutedTotal.WithLabelValues(target.Protocol, "ok").Inc()
	}
	return err
}

// breaker returns the circuit breaker guarding one target endpoint.
func (d *Dispatcher) breaker(target message.Target) *gobreaker.CircuitBreaker {
	key := target.Protocol + "|" + target.Endpoint

	d.mu.Lock()
	defer d.mu.Unlock()

	if cb, ok := d.breakers[key]; ok {
		return cb
	}
	cb := gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        key,
		MaxRequests: 3,
		Interval:    time.Minute,
		Timeout:     30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			failureRatio := float64(counts.TotalFailures) / float64(counts.Requests)
			return counts.Requests >= 3 && failureRatio >= 0.6
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			slog.Warn("circuit breaker state changed", "target", name, "from", from.String(), "to", to.String())
		},
	})
	d.breakers[key] = cb
	return cb
}
