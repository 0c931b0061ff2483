package apperr

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConstructors(t *testing.T) {
	cause := errors.New("root cause")

	testCases := []struct {
		name      string
		err       *AppError
		kind      Kind
		code      string
		retryable bool
		wrapped   bool
	}{
		{name: "config", err: NewConfigError("order", "gone"), kind: KindConfig, code: "E100"},
		{name: "input contract", err: NewInputContractError("order.add_item", cause), kind: KindInputContract, code: "E200", wrapped: true},
		{name: "output contract", err: NewOutputContractError("order.place", cause), kind: KindOutputContract, code: "E201", wrapped: true},
		{name: "execution", err: NewExecutionError("order.place", cause), kind: KindExecution, code: "E300", retryable: true, wrapped: true},
		{name: "transport", err: NewTransportError("send_message", cause), kind: KindTransport, code: "E400", retryable: true, wrapped: true},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.kind, tc.err.Kind)
			assert.Equal(t, tc.code, tc.err.Code)
			assert.Equal(t, tc.retryable, tc.err.Retryable)
			assert.NotEmpty(t, tc.err.Error())

			if tc.wrapped {
				assert.ErrorIs(t, tc.err, cause)
			}
		})
	}
}

func TestConfigErrorNamesFlowAndState(t *testing.T) {
	err := NewConfigError("order", "gone")
	assert.Contains(t, err.Error(), "order")
	assert.Contains(t, err.Error(), "gone")
}

func TestHandler_Handle(t *testing.T) {
	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	h := NewHandler(log, false)

	t.Run("nil error", func(t *testing.T) {
		msg, retryable := h.Handle(context.Background(), nil)
		assert.Empty(t, msg)
		assert.False(t, retryable)
	})

	t.Run("app error returns user message and retryability", func(t *testing.T) {
		appErr := NewExecutionError("order.place", errors.New("boom"))
		appErr.UserMessage = "Please try again."

		msg, retryable := h.Handle(context.Background(), appErr)
		assert.Equal(t, "Please try again.", msg)
		assert.True(t, retryable)
	})

	t.Run("wrapped app error is unwrapped", func(t *testing.T) {
		wrapped := NewInputContractError("order.add_item", errors.New("missing item"))

		msg, retryable := h.Handle(context.Background(), wrapErr{wrapped})
		assert.Empty(t, msg)
		assert.False(t, retryable)
	})

	t.Run("plain error", func(t *testing.T) {
		msg, retryable := h.Handle(context.Background(), errors.New("plain"))
		assert.Empty(t, msg)
		assert.False(t, retryable)
	})

	t.Run("nil context tolerated", func(t *testing.T) {
		msg, retryable := h.Handle(nil, errors.New("plain")) //nolint:staticcheck
		assert.Empty(t, msg)
		assert.False(t, retryable)
	})
}

type wrapErr struct{ inner error }

func (w wrapErr) Error() string { return "wrapped: " + w.inner.Error() }
func (w wrapErr) Unwrap() error { return w.inner }

func TestNilAppError(t *testing.T) {
	var err *AppError
	assert.Empty(t, err.Error())
	require.NoError(t, err.Unwrap())
}
