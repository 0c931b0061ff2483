package flow

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/avetikov/flowgram/internal/apperr"
	"github.com/avetikov/flowgram/internal/session"
)

type echoInput struct {
	Item string `mapstructure:"item" validate:"required"`
	Qty  int    `mapstructure:"qty" validate:"min=1"`
}

type echoOutput struct {
	Item string `validate:"required"`
}

func testContext() *Context {
	return NewContext(fakeEvent{}, session.New(), &fakeTransport{})
}

func TestCommand_Execute(t *testing.T) {
	cmd := NewCommand("echo", func(_ context.Context, in echoInput, _ *Context) (echoOutput, error) {
		return echoOutput{Item: in.Item}, nil
	})

	result, err := cmd.Execute(context.Background(), map[string]any{"item": "latte", "qty": "2"}, testContext())
	require.NoError(t, err)

	out, ok := result.(echoOutput)
	require.True(t, ok)
	assert.Equal(t, "latte", out.Item)
}

func TestCommand_InputContractViolation(t *testing.T) {
	cmd := NewCommand("echo", func(_ context.Context, in echoInput, _ *Context) (echoOutput, error) {
		return echoOutput{Item: in.Item}, nil
	})

	testCases := []struct {
		name  string
		input map[string]any
	}{
		{name: "missing required field", input: map[string]any{"qty": 1}},
		{name: "below minimum", input: map[string]any{"item": "latte", "qty": 0}},
		{name: "undecodable value", input: map[string]any{"item": "latte", "qty": "not-a-number"}},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := cmd.Execute(context.Background(), tc.input, testContext())
			require.Error(t, err)

			var appErr *apperr.AppError
			require.ErrorAs(t, err, &appErr)
			assert.Equal(t, apperr.KindInputContract, appErr.Kind)
		})
	}
}

func TestCommand_ExecutionFailure(t *testing.T) {
	boom := errors.New("boom")
	cmd := NewCommand("failing", func(_ context.Context, _ struct{}, _ *Context) (struct{}, error) {
		return struct{}{}, boom
	})

	_, err := cmd.Execute(context.Background(), map[string]any{}, testContext())
	require.Error(t, err)

	var appErr *apperr.AppError
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, apperr.KindExecution, appErr.Kind)
	assert.ErrorIs(t, err, boom)
}

func TestCommand_OutputContractViolation(t *testing.T) {
	cmd := NewCommand("bad-output", func(_ context.Context, _ struct{}, _ *Context) (echoOutput, error) {
		return echoOutput{}, nil
	})

	_, err := cmd.Execute(context.Background(), map[string]any{}, testContext())
	require.Error(t, err)

	var appErr *apperr.AppError
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, apperr.KindOutputContract, appErr.Kind)
}

func TestQuery_IgnoresInput(t *testing.T) {
	q := NewQuery("count", func(_ context.Context, _ *Context) (int, error) {
		return 7, nil
	})

	result, err := q.Execute(context.Background(), map[string]any{"garbage": true}, testContext())
	require.NoError(t, err)
	assert.Equal(t, 7, result)
}

func TestQuery_ExecutionFailure(t *testing.T) {
	q := NewQuery("broken", func(_ context.Context, _ *Context) (int, error) {
		return 0, errors.New("no data")
	})

	_, err := q.Execute(context.Background(), nil, testContext())
	require.Error(t, err)

	var appErr *apperr.AppError
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, apperr.KindExecution, appErr.Kind)
}

func TestCommand_Name(t *testing.T) {
	cmd := NewCommand("named", func(_ context.Context, _ struct{}, _ *Context) (struct{}, error) {
		return struct{}{}, nil
	})
	assert.Equal(t, "named", cmd.Name())
}
