package timer

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestState_Transitions(t *testing.T) {
	s := newState("task_0", 3)
	assert.Equal(t, Running, s.Status())
	assert.Equal(t, uint32(3), s.Seconds())

	assert.False(t, s.transition(Paused, Running))
	assert.True(t, s.transition(Running, Paused))
	assert.Equal(t, Paused, s.Status())

	assert.Equal(t, Paused, s.finish())
	assert.Equal(t, Finished, s.finish())
}

func TestState_SignalsDoNotBlock(t *testing.T) {
	s := newState("task_0", 1)

	s.signalWake()
	s.signalWake()
	s.signalDone()
	s.signalDone()

	select {
	case <-s.done:
	default:
		t.Fatal("done not closed")
	}
	assert.Len(t, s.wake, 1)
}

func TestSnapshot_JSON(t *testing.T) {
	data, err := json.Marshal(Snapshot{Key: "task_7", Seconds: 42, Status: Paused})
	require.NoError(t, err)
	assert.JSONEq(t, `{"key":"task_7","seconds":42,"status":"paused"}`, string(data))

	var snap Snapshot
	require.NoError(t, json.Unmarshal([]byte(`{"key":"task_1","seconds":0,"status":"finished"}`), &snap))
	assert.Equal(t, Finished, snap.Status)

	err = json.Unmarshal([]byte(`{"status":"exploded"}`), &snap)
	assert.ErrorIs(t, err, ErrUnknownStatus)
}
