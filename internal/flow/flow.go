// Package flow implements the conversation state machine: declarative flow
// definitions whose states pair a view with pattern-routed transition rules,
// executed against a per-event context.
package flow

import (
	"context"
	"log/slog"
	"regexp"

	"github.com/avetikov/flowgram/internal/apperr"
)

// Rule describes what happens when an input pattern matches: the unit to
// run and the state-change policy. Exactly one outcome applies per
// execution, decided by precedence: Refresh, then a next-state selector,
// then flow exit.
type Rule struct {
	// Do is the command executed for the matched input.
	Do Unit
	// Next names the target state literally.
	Next string
	// NextFunc derives the target state from the command result. It takes
	// precedence over Next when both are set.
	NextFunc func(result any) string
	// Refresh re-renders the current state instead of transitioning.
	Refresh bool
}

// Route binds one pattern to one transition rule. Routes are kept in
// declaration order and matched first-match-wins.
type Route struct {
	Pattern *Pattern
	Rule    Rule
}

// On builds a Route from a template pattern.
func On(template string, rule Rule) Route {
	return Route{Pattern: MustCompile(template), Rule: rule}
}

// OnRegexp builds a Route from a raw regular expression.
func OnRegexp(re *regexp.Regexp, rule Rule) Route {
	return Route{Pattern: Regexp(re), Rule: rule}
}

// State is one node of a flow.
type State struct {
	// View renders the state. Required; must accept an empty data map
	// when OnEnter is absent.
	View ViewFunc
	// OnEnter optionally fetches render data before View is invoked.
	OnEnter Unit
	// OnAction routes callback-event identifiers.
	OnAction []Route
	// OnText routes free-text messages.
	OnText []Route
}

// Messages are the fixed user-facing failure strings. The same string is
// shown for contract violations and execution failures on purpose; the
// cause is only distinguished internally.
type Messages struct {
	ActionFailed string
	RenderFailed string
}

// DefaultMessages are used when a flow is built without WithMessages.
var DefaultMessages = Messages{
	ActionFailed: "Something went wrong. Please try again.",
	RenderFailed: "Could not display this screen. Please try again.",
}

// Flow is a named, immutable finite state machine. All per-conversation
// state lives in the session record carried by the Context; a Flow itself
// is safe for concurrent use once built.
type Flow struct {
	name     string
	states   map[string]*State
	log      *slog.Logger
	errs     *apperr.Handler
	messages Messages
}

// Option customizes a Flow at construction time.
type Option func(*Flow)

// WithLogger sets the structured logger used for diagnostics.
func WithLogger(log *slog.Logger) Option {
	return func(f *Flow) { f.log = log }
}

// WithErrorHandler routes engine failures through the centralized handler
// in addition to the flow's own logging.
func WithErrorHandler(h *apperr.Handler) Option {
	return func(f *Flow) { f.errs = h }
}

// WithMessages overrides the fixed user-facing failure strings.
func WithMessages(m Messages) Option {
	return func(f *Flow) { f.messages = m }
}

// New builds a flow from its state map. The map is captured as-is and must
// not be mutated afterwards.
func New(name string, states map[string]*State, opts ...Option) *Flow {
	f := &Flow{
		name:     name,
		states:   states,
		log:      slog.Default(),
		messages: DefaultMessages,
	}

	for _, opt := range opts {
		opt(f)
	}

	return f
}

// Name returns the flow identity stored in session records.
func (f *Flow) Name() string {
	return f.name
}

// Start enters the flow at the given state and renders it. It is meant to
// be called by stateless handlers (commands, menu callbacks) that launch
// the conversation.
func (f *Flow) Start(ctx context.Context, fc *Context, stateName string) error {
	if _, ok := f.states[stateName]; !ok {
		err := apperr.NewConfigError(f.name, stateName)
		f.report(ctx, err)
		return err
	}

	fc.Session.EnterFlow(f.name, stateName)
	eventsRecorder(f.name, "enter")
	return f.render(ctx, stateName, fc)
}

// Handle processes one inbound event. It returns false when the
// conversation is not inside this flow, leaving the session untouched so
// the caller can try stateless routes. Once the event is claimed the flow
// always consumes it: a matched pattern executes its rule, anything else
// re-renders the current state. The returned error carries only transport
// failures; business-logic failures are absorbed here.
func (f *Flow) Handle(ctx context.Context, fc *Context) (bool, error) {
	flowName, stateName, ok := fc.Session.Active()
	if !ok || flowName != f.name {
		return false, nil
	}

	st, found := f.states[stateName]
	if !found {
		// The session points at a state this flow no longer has. Exit the
		// flow so the conversation is not stuck, and let stateless routes
		// see the event.
		f.report(ctx, apperr.NewConfigError(f.name, stateName))
		fc.Session.ExitFlow()
		eventsRecorder(f.name, "self_heal")
		return false, nil
	}

	if data, isCallback := fc.Event.CallbackData(); isCallback && data != "" {
		for _, route := range st.OnAction {
			if params, matched := route.Pattern.Match(data); matched {
				fc.Params = params
				return true, f.execute(ctx, route.Rule, fc)
			}
		}
	}

	if text := fc.Event.Text(); text != "" {
		for _, route := range st.OnText {
			if params, matched := route.Pattern.Match(text); matched {
				fc.Params = params
				return true, f.execute(ctx, route.Rule, fc)
			}
		}
	}

	// Unmatched input inside a flow never falls through to the outer
	// router; re-display the current screen instead.
	eventsRecorder(f.name, "rerender")
	return true, f.render(ctx, stateName, fc)
}

func (f *Flow) report(ctx context.Context, err error) {
	if f.errs != nil {
		f.errs.Handle(ctx, err)
		return
	}

	f.log.Error("flow error", slog.String("flow", f.name), slog.Any("error", err))
}
