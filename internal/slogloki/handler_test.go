package slogloki

import (
	"encoding/json"
	"errors"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/prometheus/common/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type entry struct {
	labels model.LabelSet
	line   map[string]any
}

type fakePusher struct {
	mu      sync.Mutex
	entries []entry
}

func (f *fakePusher) Handle(labels model.LabelSet, _ time.Time, line string) error {
	var fields map[string]any
	if err := json.Unmarshal([]byte(line), &fields); err != nil {
		return err
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	f.entries = append(f.entries, entry{labels: labels, line: fields})

	return nil
}

func TestLokiHandler_Handle(t *testing.T) {
	pusher := &fakePusher{}
	logger := slog.New(Option{Level: slog.LevelInfo, Client: pusher}.NewLokiHandler())

	logger.Debug("ignored")
	logger.With("key", "task_1").WithGroup("tick").Info("dropped tick",
		"seconds", 4,
		"error", errors.New("no connected clients"),
	)

	require.Len(t, pusher.entries, 1)
	e := pusher.entries[0]

	assert.Equal(t, model.LabelValue("INFO"), e.labels["level"])
	assert.Equal(t, "dropped tick", e.line["msg"])
	assert.Equal(t, "task_1", e.line["key"])

	tick, ok := e.line["tick"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, float64(4), tick["seconds"])

	errField, ok := tick["error"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "no connected clients", errField["error"])
}

func TestLokiHandler_AddSource(t *testing.T) {
	pusher := &fakePusher{}
	logger := slog.New(Option{Level: slog.LevelDebug, Client: pusher, AddSource: true}.NewLokiHandler())

	logger.Warn("with source")

	require.Len(t, pusher.entries, 1)
	src, ok := pusher.entries[0].line["source"].(map[string]any)
	require.True(t, ok)
	assert.NotEmpty(t, src["function"])
}

func TestAttrsToMap_MergesGroups(t *testing.T) {
	m := attrsToMap([]slog.Attr{
		slog.Group("timer", slog.String("key", "task_1")),
		slog.Group("timer", slog.Int("seconds", 3)),
		slog.Duration("tick", time.Second),
	})

	assert.Equal(t, map[string]any{
		"timer": map[string]any{"key": "task_1", "seconds": int64(3)},
		"tick":  "1s",
	}, m)
}
