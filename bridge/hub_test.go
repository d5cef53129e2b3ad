package bridge

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/michaelgov-ctrl/countdown/timer"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var errMissing = errors.New("missing")

type memoryStore struct {
	mu     sync.Mutex
	values map[string]json.RawMessage
}

func (s *memoryStore) Get(_ context.Context, key string) (json.RawMessage, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	v, ok := s.values[key]
	if !ok {
		return nil, errMissing
	}
	return v, nil
}

func (s *memoryStore) Set(_ context.Context, key string, value json.RawMessage) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.values[key] = value
	return nil
}

type recordingNotifier struct {
	mu    sync.Mutex
	sent  []string
	fails error
}

func (n *recordingNotifier) SendContext(_ context.Context, title, body string) error {
	if n.fails != nil {
		return n.fails
	}

	n.mu.Lock()
	defer n.mu.Unlock()
	n.sent = append(n.sent, title+": "+body)
	return nil
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newTestHub(t *testing.T, opts ...HubOption) (*Hub, *httptest.Server) {
	ctx, cancel := context.WithCancel(context.Background())

	hub := NewHub(ctx, append([]HubOption{WithLogger(discardLogger())}, opts...)...)
	srv := httptest.NewServer(http.HandlerFunc(hub.ServeWS))

	t.Cleanup(func() {
		hub.Close()
		srv.Close()
		cancel()
	})

	return hub, srv
}

func dial(t *testing.T, srv *httptest.Server, header http.Header) *websocket.Conn {
	t.Helper()

	url := "ws" + strings.TrimPrefix(srv.URL, "http")
	conn, _, err := websocket.DefaultDialer.Dial(url, header)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })

	return conn
}

func send(t *testing.T, conn *websocket.Conn, eventType string, payload any) {
	t.Helper()

	event, err := timer.NewOutgoingEvent(eventType, payload)
	require.NoError(t, err)
	require.NoError(t, conn.WriteJSON(event))
}

func read(t *testing.T, conn *websocket.Conn) Event {
	t.Helper()

	require.NoError(t, conn.SetReadDeadline(time.Now().Add(3*time.Second)))

	var event Event
	require.NoError(t, conn.ReadJSON(&event))
	return event
}

func readUntil(t *testing.T, conn *websocket.Conn, eventType string) Event {
	t.Helper()

	for {
		event := read(t, conn)
		if event.Type == eventType {
			return event
		}
	}
}

func TestHub_Emit_NoClients(t *testing.T) {
	hub, _ := newTestHub(t)

	err := hub.Emit(Event{Type: timer.EventTimeTick})
	assert.ErrorIs(t, err, timer.ErrEmissionFailure)
}

func TestHub_StartTimer_StreamsTicks(t *testing.T) {
	hub, srv := newTestHub(t)

	ctx, cancel := context.WithCancel(context.Background())
	manager := timer.NewManager(ctx,
		timer.WithLogger(discardLogger()),
		timer.WithEventSink(hub),
		timer.WithTickInterval(10*time.Millisecond),
	)
	t.Cleanup(func() {
		cancel()
		manager.Wait()
	})
	hub.HandleTimers(manager)

	conn := dial(t, srv, nil)
	send(t, conn, EventStartTimer, map[string]any{"request_id": "r1", "seconds": 2})

	var (
		started timer.Key
		ticks   []timer.Snapshot
	)
	for {
		event := read(t, conn)

		switch event.Type {
		case EventTimerStarted:
			var reply TimerStartedEvent
			require.NoError(t, json.Unmarshal(event.Payload, &reply))
			assert.Equal(t, "r1", reply.RequestID)
			started = reply.Key
		case timer.EventTimeTick:
			var snap timer.Snapshot
			require.NoError(t, json.Unmarshal(event.Payload, &snap))
			ticks = append(ticks, snap)
		}

		if n := len(ticks); n > 0 && ticks[n-1].Status == timer.Finished {
			break
		}
	}

	require.NotEmpty(t, started)
	require.Len(t, ticks, 3)
	for i, want := range []uint32{2, 1, 0} {
		assert.Equal(t, started, ticks[i].Key)
		assert.Equal(t, want, ticks[i].Seconds)
	}

	_, ok := manager.Lookup(started)
	assert.False(t, ok)
}

func TestHub_PauseUnknownTimer(t *testing.T) {
	hub, srv := newTestHub(t)

	manager := timer.NewManager(context.Background(), timer.WithLogger(discardLogger()))
	hub.HandleTimers(manager)

	conn := dial(t, srv, nil)
	send(t, conn, EventPauseTimer, map[string]any{"request_id": "r2", "key": "task_9"})

	event := readUntil(t, conn, EventCommandError)

	var reply CommandErrorEvent
	require.NoError(t, json.Unmarshal(event.Payload, &reply))
	assert.Equal(t, "r2", reply.RequestID)
	assert.Equal(t, EventPauseTimer, reply.Command)
	assert.Equal(t, "task_not_found", reply.Kind)
}

func TestHub_UnknownEvent(t *testing.T) {
	_, srv := newTestHub(t)

	conn := dial(t, srv, nil)
	send(t, conn, "launch_rocket", map[string]any{"request_id": "r3"})

	event := readUntil(t, conn, EventCommandError)

	var reply CommandErrorEvent
	require.NoError(t, json.Unmarshal(event.Payload, &reply))
	assert.Equal(t, "bad_request", reply.Kind)
	assert.Equal(t, "r3", reply.RequestID)
}

func TestHub_Store(t *testing.T) {
	hub, srv := newTestHub(t)
	hub.HandleStore(&memoryStore{values: map[string]json.RawMessage{}}, errMissing)

	conn := dial(t, srv, nil)

	send(t, conn, EventGetStoreValue, map[string]any{"key": "countList"})
	event := readUntil(t, conn, EventStoreValue)

	var missing StoreValueEvent
	require.NoError(t, json.Unmarshal(event.Payload, &missing))
	assert.False(t, missing.Found)

	send(t, conn, EventSetStoreValue, map[string]any{"key": "countList", "value": []int{60, 90}})
	readUntil(t, conn, EventCommandOK)

	send(t, conn, EventGetStoreValue, map[string]any{"key": "countList"})
	event = readUntil(t, conn, EventStoreValue)

	var found StoreValueEvent
	require.NoError(t, json.Unmarshal(event.Payload, &found))
	assert.True(t, found.Found)
	assert.JSONEq(t, `[60,90]`, string(found.Value))
}

func TestHub_Notifications(t *testing.T) {
	hub, srv := newTestHub(t)
	notifier := &recordingNotifier{}
	hub.HandleNotifications(notifier)

	conn := dial(t, srv, nil)
	send(t, conn, EventSendNotification, map[string]any{"title": "Time's up", "body": "tea"})
	readUntil(t, conn, EventCommandOK)

	notifier.mu.Lock()
	defer notifier.mu.Unlock()
	assert.Equal(t, []string{"Time's up: tea"}, notifier.sent)
}

func TestHub_Quit(t *testing.T) {
	quit := make(chan struct{})
	var once sync.Once

	_, srv := newTestHub(t, WithQuit(func() {
		once.Do(func() { close(quit) })
	}))

	conn := dial(t, srv, nil)
	send(t, conn, EventQuit, struct{}{})

	select {
	case <-quit:
	case <-time.After(3 * time.Second):
		t.Fatal("quit was not called")
	}
}

func TestHub_CheckOrigin(t *testing.T) {
	_, srv := newTestHub(t, WithAllowedOrigins([]string{"http://localhost:1420"}))

	url := "ws" + strings.TrimPrefix(srv.URL, "http")

	_, resp, err := websocket.DefaultDialer.Dial(url, http.Header{"Origin": []string{"http://evil.example"}})
	require.Error(t, err)
	if resp != nil {
		assert.Equal(t, http.StatusForbidden, resp.StatusCode)
	}

	conn := dial(t, srv, http.Header{"Origin": []string{"http://localhost:1420"}})
	assert.NotNil(t, conn)
}

func TestHub_Emit_FansOut(t *testing.T) {
	hub, srv := newTestHub(t)

	a := dial(t, srv, nil)
	b := dial(t, srv, nil)

	require.Eventually(t, func() bool {
		return hub.Clients() == 2
	}, 3*time.Second, time.Millisecond)

	event, err := timer.NewOutgoingEvent(timer.EventTimeTick, timer.Snapshot{Key: "task_0", Seconds: 5, Status: timer.Running})
	require.NoError(t, err)
	require.NoError(t, hub.Emit(event))

	for _, conn := range []*websocket.Conn{a, b} {
		got := read(t, conn)
		assert.Equal(t, timer.EventTimeTick, got.Type)
		assert.JSONEq(t, string(event.Payload), string(got.Payload))
	}
}
