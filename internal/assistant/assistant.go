// Package assistant implements VoxMate's rule-based command interpreter.
//
// An utterance is normalized, then run through a fixed, ordered table of
// intent rules. The first rule that matches produces the reply; if none does,
// a fallback message is returned. The only state that survives between calls
// is the Session, which the caller passes in and gets back with every reply.
package assistant

import (
	"log/slog"
	"math/rand/v2"
	"strings"
	"sync"
	"time"
)

// Name is the assistant's fixed name.
const Name = "VoxMate"

const (
	msgNoText       = "No se ha detectado texto para procesar."
	msgUnrecognized = "No he reconocido el comando."
)

// Session is the per-user memory carried between calls.
type Session struct {
	// UserName is set by a "me llamo ..." style utterance and never cleared.
	UserName string `json:"user_name,omitempty"`
}

// Reply is the outcome of processing one utterance.
type Reply struct {
	Text    string
	Intent  Intent
	Session Session
}

// Rand is the source of presentation randomness (jokes, goodbyes, number
// picks). Implementations must be safe for concurrent use if the Assistant
// is shared.
type Rand interface {
	// IntN returns a uniformly distributed int in [0, n).
	IntN(n int) int
}

type globalRand struct{}

func (globalRand) IntN(n int) int { return rand.IntN(n) }

// Option configures an Assistant.
type Option func(*Assistant)

// WithClock overrides the wall clock used for time, date and greetings.
func WithClock(now func() time.Time) Option {
	return func(a *Assistant) { a.now = now }
}

// WithLocation sets the time zone the clock is read in.
func WithLocation(loc *time.Location) Option {
	return func(a *Assistant) { a.loc = loc }
}

// WithRand replaces the random source.
func WithRand(r Rand) Option {
	return func(a *Assistant) { a.rng = r }
}

// WithPhrasebook replaces the built-in text pools.
func WithPhrasebook(pb *Phrasebook) Option {
	return func(a *Assistant) { a.phrases = pb }
}

// WithLogger sets the logger used for debug tracing of matched intents.
func WithLogger(l *slog.Logger) Option {
	return func(a *Assistant) { a.logger = l }
}

// Assistant interprets utterances. It holds no per-user state and is safe
// for concurrent use as long as its Rand is.
type Assistant struct {
	phrases *Phrasebook
	now     func() time.Time
	loc     *time.Location
	rng     Rand
	logger  *slog.Logger
	rules   []rule
}

// New creates an Assistant with the default phrasebook, the local clock and
// a shared pseudo-random source.
func New(opts ...Option) *Assistant {
	a := &Assistant{
		now:    time.Now,
		loc:    time.Local,
		rng:    globalRand{},
		logger: slog.Default(),
		rules:  ruleTable,
	}
	for _, opt := range opts {
		opt(a)
	}
	if a.phrases == nil {
		a.phrases = DefaultPhrasebook()
	}
	return a
}

// Process interprets one utterance against a session and returns the reply
// together with the session to use for the next call. It never fails: empty
// input and unknown commands get fixed messages.
func (a *Assistant) Process(sess Session, text string) Reply {
	if strings.TrimSpace(text) == "" {
		return Reply{Text: msgNoText, Intent: IntentEmpty, Session: sess}
	}

	t := &turn{
		a:    a,
		u:    Normalize(text),
		sess: sess,
		now:  a.now().In(a.loc),
	}
	for _, r := range a.rules {
		if out, ok := r.match(t); ok {
			a.logger.Debug("intent matched", "intent", r.intent)
			return Reply{Text: out, Intent: r.intent, Session: t.sess}
		}
	}

	a.logger.Debug("no intent matched")
	return Reply{Text: msgUnrecognized, Intent: IntentUnrecognized, Session: sess}
}

func (a *Assistant) pick(pool []string) string {
	return pool[a.rng.IntN(len(pool))]
}

// Conversation binds one Session to an Assistant for single-user callers
// such as the interactive CLI. Calls are serialized.
type Conversation struct {
	mu        sync.Mutex
	assistant *Assistant
	session   Session
}

// NewConversation starts a conversation with an empty session.
func NewConversation(a *Assistant) *Conversation {
	return &Conversation{assistant: a}
}

// Process answers text and remembers the updated session.
func (c *Conversation) Process(text string) string {
	c.mu.Lock()
	defer c.mu.Unlock()

	reply := c.assistant.Process(c.session, text)
	c.session = reply.Session
	return reply.Text
}

// Session returns a copy of the current session.
func (c *Conversation) Session() Session {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.session
}
