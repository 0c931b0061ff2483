package bot

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"

	telebot "gopkg.in/telebot.v3"

	"github.com/avetikov/flowgram/internal/flow"
	"github.com/avetikov/flowgram/internal/session"
	"github.com/avetikov/flowgram/pkg/logger"
)

// Handler processes one prepared update.
type Handler func(ctx context.Context, fc *flow.Context) error

// Middleware wraps handlers with additional behavior.
type Middleware func(Handler) Handler

type route struct {
	pattern *flow.Pattern
	handler Handler
}

// Router owns the mounted flows and the stateless route tables. Every
// update is first offered to the conversation's active flow; stateless
// command, callback and text routes only see it when no flow claims it.
// At most one handler executes per update.
type Router struct {
	mu             sync.RWMutex
	flows          map[string]*flow.Flow
	commands       map[string]Handler
	callbacks      []route
	texts          []route
	defaultHandler Handler
	middlewares    []Middleware
	sessions       session.Store
	log            *slog.Logger
}

// NewRouter builds a Router bound to the given session store.
func NewRouter(sessions session.Store, log *slog.Logger) *Router {
	if log == nil {
		log = slog.Default()
	}

	return &Router{
		flows:    make(map[string]*flow.Flow),
		commands: make(map[string]Handler),
		sessions: sessions,
		log:      log,
	}
}

// Mount registers a flow by its name.
func (r *Router) Mount(f *flow.Flow) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.flows[f.Name()] = f
}

// HandleCommand registers a handler for an exact bot command.
func (r *Router) HandleCommand(cmd string, h Handler) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.commands[cmd] = h
}

// HandleCallback registers a pattern-routed handler for callback data.
// Routes match in registration order, first match wins.
func (r *Router) HandleCallback(template string, h Handler) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.callbacks = append(r.callbacks, route{pattern: flow.MustCompile(template), handler: h})
}

// HandleText registers a pattern-routed handler for free text.
func (r *Router) HandleText(template string, h Handler) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.texts = append(r.texts, route{pattern: flow.MustCompile(template), handler: h})
}

// SetDefault sets the fallback handler for unmatched updates.
func (r *Router) SetDefault(h Handler) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.defaultHandler = h
}

// Use appends a middleware to the chain.
func (r *Router) Use(mw Middleware) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.middlewares = append(r.middlewares, mw)
}

// Route is the telebot entry point. It loads the conversation's session
// record, runs the dispatch chain, and persists the record afterwards.
// Failures surface here only as logs; the update is dropped from the
// user's perspective.
func (r *Router) Route(c telebot.Context) error {
	if c == nil {
		return nil
	}

	event := telebotEvent{c}
	if event.SenderID() == 0 {
		r.log.Warn("update without sender, skipping")
		return nil
	}

	ctx, correlationID := logger.WithCorrelationID(context.Background())
	key := sessionKey(event.SenderID())

	record, err := r.sessions.Get(ctx, key)
	switch {
	case err == nil:
	case errors.Is(err, session.ErrNotFound):
		record = session.New()
	default:
		r.log.Error("failed to load session",
			slog.String("key", key),
			slog.String("correlation_id", correlationID),
			slog.Any("error", err),
		)
		return nil
	}

	fc := flow.NewContext(event, record, telebotTransport{c})

	handler := r.applyMiddlewares(r.dispatch)
	if err := handler(ctx, fc); err != nil {
		r.log.Error("update handling failed",
			slog.Int64("user_id", event.SenderID()),
			slog.String("correlation_id", correlationID),
			slog.Any("error", err),
		)
	}

	r.persist(ctx, key, record)
	return nil
}

// dispatch implements the routing order: active flow first, then the
// stateless tables.
func (r *Router) dispatch(ctx context.Context, fc *flow.Context) error {
	if flowName, _, ok := fc.Session.Active(); ok {
		if f := r.flowByName(flowName); f != nil {
			handled, err := f.Handle(ctx, fc)
			if err != nil {
				return err
			}
			if handled {
				return nil
			}
		} else {
			r.log.Warn("session references unknown flow", slog.String("flow", flowName))
			fc.Session.ExitFlow()
		}
	}

	if data, isCallback := fc.Event.CallbackData(); isCallback {
		for _, rt := range r.callbackRoutes() {
			if params, matched := rt.pattern.Match(data); matched {
				fc.Params = params
				return rt.handler(ctx, fc)
			}
		}
		return nil
	}

	text := fc.Event.Text()
	if strings.HasPrefix(text, "/") {
		if h := r.commandHandler(commandName(text)); h != nil {
			return h(ctx, fc)
		}
	}

	for _, rt := range r.textRoutes() {
		if params, matched := rt.pattern.Match(text); matched {
			fc.Params = params
			return rt.handler(ctx, fc)
		}
	}

	if h := r.getDefaultHandler(); h != nil {
		return h(ctx, fc)
	}

	return nil
}

func (r *Router) persist(ctx context.Context, key string, record *session.Record) {
	var err error
	if record.Empty() {
		err = r.sessions.Delete(ctx, key)
	} else {
		err = r.sessions.Set(ctx, key, record)
	}

	if err != nil {
		r.log.Error("failed to persist session", slog.String("key", key), slog.Any("error", err))
	}
}

func (r *Router) applyMiddlewares(h Handler) Handler {
	r.mu.RLock()
	middlewares := make([]Middleware, len(r.middlewares))
	copy(middlewares, r.middlewares)
	r.mu.RUnlock()

	wrapped := h
	for i := len(middlewares) - 1; i >= 0; i-- {
		wrapped = middlewares[i](wrapped)
	}

	return wrapped
}

func (r *Router) flowByName(name string) *flow.Flow {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.flows[name]
}

func (r *Router) commandHandler(cmd string) Handler {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.commands[cmd]
}

func (r *Router) callbackRoutes() []route {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.callbacks
}

func (r *Router) textRoutes() []route {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.texts
}

func (r *Router) getDefaultHandler() Handler {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.defaultHandler
}

func commandName(text string) string {
	if fields := strings.Fields(text); len(fields) > 0 {
		return fields[0]
	}
	return text
}

func sessionKey(userID int64) string {
	return fmt.Sprintf("user:%d", userID)
}
