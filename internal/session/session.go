// Package session manages the per-conversation record that survives
// between incoming updates.
package session

import (
	"context"
	"errors"
	"time"
)

// ErrNotFound indicates that no session record exists for the key.
var ErrNotFound = errors.New("session record not found")

// Status discriminates the two shapes a conversation can be in.
type Status string

const (
	// StatusIdle indicates that the conversation is outside of any flow.
	StatusIdle Status = "idle"
	// StatusInFlow indicates that the conversation is inside a flow state.
	StatusInFlow Status = "in_flow"
)

// Record is the persisted conversation state. FlowName and StateName are
// meaningful only while Status is StatusInFlow; the mutators below are the
// only way to change them, which keeps the pair consistent by construction.
type Record struct {
	Status    Status         `json:"status"`
	FlowName  string         `json:"flow_name,omitempty"`
	StateName string         `json:"state_name,omitempty"`
	Bag       map[string]any `json:"bag,omitempty"`
	UpdatedAt time.Time      `json:"updated_at"`
}

// New returns an idle record with an empty bag.
func New() *Record {
	return &Record{
		Status: StatusIdle,
		Bag:    make(map[string]any),
	}
}

// InFlow reports whether the conversation is currently inside a flow.
func (r *Record) InFlow() bool {
	return r != nil && r.Status == StatusInFlow
}

// Active returns the flow and state names when the conversation is in a flow.
func (r *Record) Active() (flowName, stateName string, ok bool) {
	if !r.InFlow() {
		return "", "", false
	}
	return r.FlowName, r.StateName, true
}

// EnterFlow marks the conversation as being in the given flow state.
func (r *Record) EnterFlow(flowName, stateName string) {
	r.Status = StatusInFlow
	r.FlowName = flowName
	r.StateName = stateName
}

// SetStateName moves the conversation to another state of the active flow.
// It is a no-op for idle records.
func (r *Record) SetStateName(stateName string) {
	if !r.InFlow() {
		return
	}
	r.StateName = stateName
}

// ExitFlow returns the conversation to the idle shape, dropping both the
// flow and state names together.
func (r *Record) ExitFlow() {
	r.Status = StatusIdle
	r.FlowName = ""
	r.StateName = ""
}

// Get returns a value from the conversation bag.
func (r *Record) Get(key string) (any, bool) {
	if r == nil || r.Bag == nil {
		return nil, false
	}
	v, ok := r.Bag[key]
	return v, ok
}

// Set stores a value in the conversation bag.
func (r *Record) Set(key string, value any) {
	if r.Bag == nil {
		r.Bag = make(map[string]any)
	}
	r.Bag[key] = value
}

// Delete removes a value from the conversation bag.
func (r *Record) Delete(key string) {
	if r.Bag == nil {
		return
	}
	delete(r.Bag, key)
}

// Empty reports whether the record carries nothing worth persisting.
func (r *Record) Empty() bool {
	return r == nil || (!r.InFlow() && len(r.Bag) == 0)
}

// Store defines the persistence contract for session records. Callers load
// the record before dispatch and persist (or delete, when Empty) after the
// whole handler chain completes. The store does not serialize concurrent
// events for the same key; that is the caller's responsibility.
type Store interface {
	// Get returns the record for the key or ErrNotFound when absent.
	Get(ctx context.Context, key string) (*Record, error)
	// Set saves the record under the key.
	Set(ctx context.Context, key string, record *Record) error
	// Delete removes the record for the key.
	Delete(ctx context.Context, key string) error
}
