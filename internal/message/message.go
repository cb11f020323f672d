// Package message defines the core data types flowing through the voxmate pipeline.
package message

import "time"

// Message represents an incoming utterance from any transport.
type Message struct {
	// ID is a unique identifier for this message (UUID). Assigned on receipt
	// when empty.
	ID string `json:"id"`

	// Source identifies the speaker (e.g., "kitchen-speaker", "phone-alice").
	// Sessions are keyed by it.
	Source string `json:"source"`

	// Text is the utterance to interpret.
	Text string `json:"text"`

	// Targets lists extra services that should receive the result.
	// The original sender always receives the response regardless of this list.
	Targets []Target `json:"targets,omitempty"`

	// Timestamp is when the message was received by voxmate.
	Timestamp time.Time `json:"timestamp"`
}

// Target defines a downstream service that should receive results.
type Target struct {
	// ServiceName is a human-readable identifier (e.g., "display", "logger").
	ServiceName string `json:"service_name"`

	// Endpoint is the address to reach this target: a URL for http, a
	// host:port for grpc, a subject for nats.
	Endpoint string `json:"endpoint"`

	// Protocol is the transport to use ("http", "grpc", "nats").
	Protocol string `json:"protocol"`
}

// DispatchResult is the outcome of processing a message through the pipeline.
type DispatchResult struct {
	// MessageID is the original message ID.
	MessageID string `json:"message_id"`

	// Source is the session key the message was processed under.
	Source string `json:"source"`

	// Transcript is the utterance as received.
	Transcript string `json:"transcript"`

	// Intent names the rule that produced the reply.
	Intent string `json:"intent"`

	// ResponseText is the assistant's reply, in Spanish.
	ResponseText string `json:"response_text"`

	// RoutedTo lists the targets that received the result.
	RoutedTo []string `json:"routed_to"`

	// Error is set if processing failed at any stage.
	Error string `json:"error,omitempty"`
}
