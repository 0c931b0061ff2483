package flow

import (
	"context"
	"reflect"

	"github.com/go-playground/validator/v10"
	"github.com/mitchellh/mapstructure"

	"github.com/avetikov/flowgram/internal/apperr"
)

// validate enforces input and output contracts at the trust boundary.
var validate = validator.New(validator.WithRequiredStructEnabled())

// Unit is the execution contract shared by commands and queries. A command
// denotes a mutating operation, a query a read; the distinction is
// conventional. Implementations decode and validate the raw input, run the
// business logic, and validate the result, returning typed apperr failures.
type Unit interface {
	Name() string
	Execute(ctx context.Context, input map[string]any, fc *Context) (any, error)
}

// Command is a business-logic unit with typed input and output. The raw
// event-derived map is decoded into I and checked against its validate
// tags before run is invoked; the result is checked the same way.
type Command[I any, O any] struct {
	name string
	run  func(ctx context.Context, input I, fc *Context) (O, error)
}

// NewCommand declares a named command with the given execution function.
func NewCommand[I any, O any](name string, run func(ctx context.Context, input I, fc *Context) (O, error)) *Command[I, O] {
	return &Command[I, O]{name: name, run: run}
}

// Name returns the unit name used for diagnostics and log correlation.
func (c *Command[I, O]) Name() string {
	return c.name
}

// Execute decodes and validates the input, runs the command, and validates
// the result.
func (c *Command[I, O]) Execute(ctx context.Context, input map[string]any, fc *Context) (any, error) {
	var in I
	if err := decodeInput(input, &in); err != nil {
		return nil, apperr.NewInputContractError(c.name, err)
	}

	if err := checkContract(in); err != nil {
		return nil, apperr.NewInputContractError(c.name, err)
	}

	out, err := c.run(ctx, in, fc)
	if err != nil {
		return nil, apperr.NewExecutionError(c.name, err)
	}

	if err := checkContract(out); err != nil {
		return nil, apperr.NewOutputContractError(c.name, err)
	}

	return out, nil
}

// Query is a read-only unit. It takes no caller-supplied input: it reads
// whatever it needs from the context and session.
type Query[O any] struct {
	name string
	run  func(ctx context.Context, fc *Context) (O, error)
}

// NewQuery declares a named query with the given execution function.
func NewQuery[O any](name string, run func(ctx context.Context, fc *Context) (O, error)) *Query[O] {
	return &Query[O]{name: name, run: run}
}

// Name returns the unit name used for diagnostics and log correlation.
func (q *Query[O]) Name() string {
	return q.name
}

// Execute runs the query, ignoring any caller-supplied input, and validates
// the result.
func (q *Query[O]) Execute(ctx context.Context, _ map[string]any, fc *Context) (any, error) {
	out, err := q.run(ctx, fc)
	if err != nil {
		return nil, apperr.NewExecutionError(q.name, err)
	}

	if err := checkContract(out); err != nil {
		return nil, apperr.NewOutputContractError(q.name, err)
	}

	return out, nil
}

// decodeInput maps the raw params+text map onto the typed input. Weak
// typing lets numeric captures like ":qty" land in integer fields.
func decodeInput(raw map[string]any, target any) error {
	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:           target,
		WeaklyTypedInput: true,
	})
	if err != nil {
		return err
	}

	return dec.Decode(raw)
}

// checkContract validates struct values against their validate tags.
// Non-struct values carry no declared contract and always pass.
func checkContract(v any) error {
	rv := reflect.ValueOf(v)
	for rv.Kind() == reflect.Pointer {
		if rv.IsNil() {
			return nil
		}
		rv = rv.Elem()
	}

	if rv.Kind() != reflect.Struct {
		return nil
	}

	return validate.Struct(rv.Interface())
}
