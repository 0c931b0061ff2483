package flow

import (
	"context"

	"github.com/avetikov/flowgram/internal/session"
)

// Event is the read-only projection of an incoming update the engine
// consumes. Implementations adapt the platform's wire schema; the engine
// never parses it itself.
type Event interface {
	// CallbackData returns the opaque callback identifier and whether the
	// event is a callback-style interaction at all.
	CallbackData() (string, bool)
	// Text returns the free-text content of the event, empty when absent.
	Text() string
	// SenderID identifies the user the conversation belongs to.
	SenderID() int64
}

// Transport delivers render payloads to the chat of the current event. All
// calls are implicitly scoped to that chat and message; the engine never
// passes explicit identifiers.
type Transport interface {
	Send(ctx context.Context, text string, markup any) error
	Edit(ctx context.Context, text string, markup any) error
	Ack(ctx context.Context, text string) error
}

// Payload is what a view produces: message text plus optional markup
// (keyboards and the like), delivered as-is to the transport.
type Payload struct {
	Text   string
	Markup any
}

// ViewFunc renders a state. Data is the entry query result, or an empty
// map when the state has no entry query.
type ViewFunc func(data any) Payload

// Context bundles everything one inbound event carries through the engine.
// It is created per event and discarded afterwards; only Session survives,
// persisted by the caller.
type Context struct {
	// Event is the immutable inbound event projection.
	Event Event
	// Session is the conversation record loaded before dispatch.
	Session *session.Record
	// Scratch holds per-event values, discarded after handling.
	Scratch map[string]any
	// Params holds captures from the most recent successful pattern match.
	Params map[string]string
	// Transport is bound to the chat of the current event.
	Transport Transport
}

// NewContext builds a per-event Context around the given event, session
// record and transport binding.
func NewContext(event Event, record *session.Record, transport Transport) *Context {
	return &Context{
		Event:     event,
		Session:   record,
		Scratch:   make(map[string]any),
		Params:    make(map[string]string),
		Transport: transport,
	}
}
