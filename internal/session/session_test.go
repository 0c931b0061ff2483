package session

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRecord_FlowLifecycle(t *testing.T) {
	r := New()

	assert.Equal(t, StatusIdle, r.Status)
	assert.False(t, r.InFlow())

	_, _, ok := r.Active()
	assert.False(t, ok)

	r.EnterFlow("order", "menu")
	flowName, stateName, ok := r.Active()
	require.True(t, ok)
	assert.Equal(t, "order", flowName)
	assert.Equal(t, "menu", stateName)

	r.SetStateName("confirm")
	_, stateName, _ = r.Active()
	assert.Equal(t, "confirm", stateName)

	r.ExitFlow()
	assert.False(t, r.InFlow())
	assert.Empty(t, r.FlowName)
	assert.Empty(t, r.StateName)
}

func TestRecord_SetStateNameRequiresActiveFlow(t *testing.T) {
	r := New()
	r.SetStateName("menu")

	assert.Equal(t, StatusIdle, r.Status)
	assert.Empty(t, r.StateName)
}

func TestRecord_Bag(t *testing.T) {
	r := New()

	_, ok := r.Get("cart")
	assert.False(t, ok)

	r.Set("cart", map[string]int{"latte": 2})
	v, ok := r.Get("cart")
	require.True(t, ok)
	assert.Equal(t, map[string]int{"latte": 2}, v)

	r.Delete("cart")
	_, ok = r.Get("cart")
	assert.False(t, ok)
}

func TestRecord_BagSurvivesFlowExit(t *testing.T) {
	r := New()
	r.EnterFlow("order", "menu")
	r.Set("cart", 1)

	r.ExitFlow()

	v, ok := r.Get("cart")
	require.True(t, ok)
	assert.Equal(t, 1, v)
}

func TestRecord_Empty(t *testing.T) {
	var nilRecord *Record
	assert.True(t, nilRecord.Empty())

	r := New()
	assert.True(t, r.Empty())

	r.Set("cart", 1)
	assert.False(t, r.Empty())

	r.Delete("cart")
	r.EnterFlow("order", "menu")
	assert.False(t, r.Empty())

	r.ExitFlow()
	assert.True(t, r.Empty())
}

func TestRecord_JSONRoundTrip(t *testing.T) {
	r := New()
	r.EnterFlow("order", "menu")
	r.Set("note", "no sugar")

	data, err := json.Marshal(r)
	require.NoError(t, err)

	var decoded Record
	require.NoError(t, json.Unmarshal(data, &decoded))

	assert.Equal(t, StatusInFlow, decoded.Status)
	assert.Equal(t, "order", decoded.FlowName)
	assert.Equal(t, "menu", decoded.StateName)

	note, ok := decoded.Get("note")
	require.True(t, ok)
	assert.Equal(t, "no sugar", note)
}

func TestRecord_IdleOmitsFlowFields(t *testing.T) {
	data, err := json.Marshal(New())
	require.NoError(t, err)

	assert.NotContains(t, string(data), "flow_name")
	assert.NotContains(t, string(data), "state_name")
}
