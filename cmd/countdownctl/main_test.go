package main

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseCommand(t *testing.T) {
	tests := []struct {
		name        string
		line        string
		wantType    string
		wantPayload string
	}{
		{name: "Start", line: "start 90", wantType: "start_timer", wantPayload: `{"request_id":"c1","seconds":90}`},
		{name: "Pause", line: "pause task_0", wantType: "pause_timer", wantPayload: `{"request_id":"c1","key":"task_0"}`},
		{name: "Resume", line: "resume task_0", wantType: "resume_timer", wantPayload: `{"request_id":"c1","key":"task_0"}`},
		{name: "Stop", line: "stop task_3", wantType: "stop_timer", wantPayload: `{"request_id":"c1","key":"task_3"}`},
		{name: "Get", line: "get countList", wantType: "get_store_value", wantPayload: `{"request_id":"c1","key":"countList"}`},
		{name: "Set", line: `set theme {"dark": true}`, wantType: "set_store_value", wantPayload: `{"request_id":"c1","key":"theme","value":{"dark":true}}`},
		{name: "Notify", line: "notify Tea is ready", wantType: "send_notification", wantPayload: `{"request_id":"c1","title":"Tea","body":"is ready"}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			event, err := parseCommand(tt.line, "c1")
			require.NoError(t, err)

			assert.Equal(t, tt.wantType, event.Type)
			assert.JSONEq(t, tt.wantPayload, string(event.Payload))
		})
	}
}

func TestParseCommand_Quit(t *testing.T) {
	event, err := parseCommand("quit", "c1")
	require.NoError(t, err)

	assert.Equal(t, "quit", event.Type)
	assert.Empty(t, event.Payload)
}

func TestParseCommand_Errors(t *testing.T) {
	for _, line := range []string{"start", "start soon", "start -1", "pause", "set theme", "notify", "jump"} {
		_, err := parseCommand(line, "c1")
		assert.Error(t, err, line)
	}

	_, err := parseCommand("set theme {not json", "c1")
	var marshalErr *json.MarshalerError
	assert.ErrorAs(t, err, &marshalErr)
}
