package bot

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/avetikov/flowgram/internal/flow"
	"github.com/avetikov/flowgram/internal/session"
)

type stubEvent struct {
	callback   string
	isCallback bool
	text       string
	sender     int64
}

func (e stubEvent) CallbackData() (string, bool) { return e.callback, e.isCallback }
func (e stubEvent) Text() string                 { return e.text }
func (e stubEvent) SenderID() int64              { return e.sender }

type stubDelivery struct {
	text   string
	markup any
}

type stubTransport struct {
	sent   []stubDelivery
	edited []stubDelivery
	acks   int
}

func (t *stubTransport) Send(_ context.Context, text string, markup any) error {
	t.sent = append(t.sent, stubDelivery{text: text, markup: markup})
	return nil
}

func (t *stubTransport) Edit(_ context.Context, text string, markup any) error {
	t.edited = append(t.edited, stubDelivery{text: text, markup: markup})
	return nil
}

func (t *stubTransport) Ack(_ context.Context, _ string) error {
	t.acks++
	return nil
}

// stubTranslator echoes keys so assertions can match on catalog paths.
type stubTranslator struct{}

func (stubTranslator) T(key string) string { return key }
func (stubTranslator) Lang() string        { return "en" }

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newTestRouter() *Router {
	return NewRouter(session.NewMemoryStore(), discardLogger())
}

func contextFor(event stubEvent, record *session.Record) (*flow.Context, *stubTransport) {
	transport := &stubTransport{}
	return flow.NewContext(event, record, transport), transport
}

func noopFlow(t *testing.T, name string) *flow.Flow {
	t.Helper()

	states := map[string]*flow.State{
		"home": {View: func(_ any) flow.Payload { return flow.Payload{Text: name + " home"} }},
	}
	return flow.New(name, states, flow.WithLogger(discardLogger()))
}

func TestRouter_ActiveFlowClaimsEvent(t *testing.T) {
	r := newTestRouter()
	r.Mount(noopFlow(t, "survey"))

	commandCalled := false
	r.HandleCommand("/start", func(_ context.Context, _ *flow.Context) error {
		commandCalled = true
		return nil
	})

	record := session.New()
	record.EnterFlow("survey", "home")
	fc, transport := contextFor(stubEvent{text: "/start", sender: 1}, record)

	require.NoError(t, r.dispatch(context.Background(), fc))

	// The flow re-renders on unmatched input; the stateless command never
	// sees the update.
	assert.False(t, commandCalled)
	require.Len(t, transport.sent, 1)
	assert.Equal(t, "survey home", transport.sent[0].text)
}

func TestRouter_UnknownFlowFallsThrough(t *testing.T) {
	r := newTestRouter()

	defaultCalled := false
	r.SetDefault(func(_ context.Context, _ *flow.Context) error {
		defaultCalled = true
		return nil
	})

	record := session.New()
	record.EnterFlow("removed", "home")
	fc, _ := contextFor(stubEvent{text: "hello", sender: 1}, record)

	require.NoError(t, r.dispatch(context.Background(), fc))

	assert.True(t, defaultCalled)
	assert.False(t, record.InFlow())
}

func TestRouter_CallbackRoutesFirstMatchWins(t *testing.T) {
	r := newTestRouter()

	var hits []string
	r.HandleCallback("open::page", func(_ context.Context, fc *flow.Context) error {
		hits = append(hits, "pattern:"+fc.Params["page"])
		return nil
	})
	r.HandleCallback("open:settings", func(_ context.Context, _ *flow.Context) error {
		hits = append(hits, "exact")
		return nil
	})

	fc, _ := contextFor(stubEvent{callback: "open:settings", isCallback: true, sender: 1}, session.New())
	require.NoError(t, r.dispatch(context.Background(), fc))

	assert.Equal(t, []string{"pattern:settings"}, hits)
}

func TestRouter_UnmatchedCallbackIsDropped(t *testing.T) {
	r := newTestRouter()

	defaultCalled := false
	r.SetDefault(func(_ context.Context, _ *flow.Context) error {
		defaultCalled = true
		return nil
	})

	fc, _ := contextFor(stubEvent{callback: "stale_button", isCallback: true, sender: 1}, session.New())
	require.NoError(t, r.dispatch(context.Background(), fc))

	// Stale callbacks never reach the text default.
	assert.False(t, defaultCalled)
}

func TestRouter_CommandIgnoresArguments(t *testing.T) {
	r := newTestRouter()

	called := false
	r.HandleCommand("/order", func(_ context.Context, _ *flow.Context) error {
		called = true
		return nil
	})

	fc, _ := contextFor(stubEvent{text: "/order large latte", sender: 1}, session.New())
	require.NoError(t, r.dispatch(context.Background(), fc))

	assert.True(t, called)
}

func TestRouter_TextRouteCapturesParams(t *testing.T) {
	r := newTestRouter()

	var got string
	r.HandleText("find :query", func(_ context.Context, fc *flow.Context) error {
		got = fc.Params["query"]
		return nil
	})

	fc, _ := contextFor(stubEvent{text: "find oat milk", sender: 1}, session.New())
	require.NoError(t, r.dispatch(context.Background(), fc))

	assert.Equal(t, "oat milk", got)
}

func TestRouter_DefaultHandler(t *testing.T) {
	r := newTestRouter()

	called := false
	r.SetDefault(func(_ context.Context, _ *flow.Context) error {
		called = true
		return nil
	})

	fc, _ := contextFor(stubEvent{text: "gibberish", sender: 1}, session.New())
	require.NoError(t, r.dispatch(context.Background(), fc))

	assert.True(t, called)
}

func TestRouter_MiddlewareOrder(t *testing.T) {
	r := newTestRouter()

	var order []string
	mw := func(name string) Middleware {
		return func(next Handler) Handler {
			return func(ctx context.Context, fc *flow.Context) error {
				order = append(order, name)
				return next(ctx, fc)
			}
		}
	}
	r.Use(mw("outer"))
	r.Use(mw("inner"))

	handler := r.applyMiddlewares(func(_ context.Context, _ *flow.Context) error {
		order = append(order, "handler")
		return nil
	})

	fc, _ := contextFor(stubEvent{text: "x", sender: 1}, session.New())
	require.NoError(t, handler(context.Background(), fc))

	assert.Equal(t, []string{"outer", "inner", "handler"}, order)
}

func TestRouter_PersistDeletesEmptyRecords(t *testing.T) {
	ctx := context.Background()
	store := session.NewMemoryStore()
	r := NewRouter(store, discardLogger())

	record := session.New()
	record.EnterFlow("order", "menu")
	r.persist(ctx, "user:1", record)

	_, err := store.Get(ctx, "user:1")
	require.NoError(t, err)

	record.ExitFlow()
	r.persist(ctx, "user:1", record)

	_, err = store.Get(ctx, "user:1")
	assert.ErrorIs(t, err, session.ErrNotFound)
}

func TestErrorHandlingMiddleware_WithoutHandlerPassesThrough(t *testing.T) {
	boom := errors.New("boom")
	handler := ErrorHandlingMiddleware(nil)(func(_ context.Context, _ *flow.Context) error {
		return boom
	})

	fc, _ := contextFor(stubEvent{text: "x", sender: 1}, session.New())
	assert.ErrorIs(t, handler(context.Background(), fc), boom)
}

func TestRecoveryMiddleware_AbsorbsPanic(t *testing.T) {
	handler := RecoveryMiddleware(discardLogger(), nil)(func(_ context.Context, _ *flow.Context) error {
		panic("kaboom")
	})

	fc, transport := contextFor(stubEvent{text: "x", sender: 1}, session.New())
	require.NoError(t, handler(context.Background(), fc))

	require.Len(t, transport.sent, 1)
	assert.Equal(t, flow.DefaultMessages.ActionFailed, transport.sent[0].text)
}
