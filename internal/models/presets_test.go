package models

import (
	"context"
	"path/filepath"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/michaelgov-ctrl/countdown/internal/store"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestModel(t *testing.T) *PresetModel {
	t.Helper()

	db, err := store.Open(context.Background(), store.Config{Path: filepath.Join(t.TempDir(), "store.db")})
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	return &PresetModel{KV: db}
}

func TestPresetModel_Empty(t *testing.T) {
	m := newTestModel(t)

	presets, err := m.All(context.Background())
	require.NoError(t, err)
	assert.Empty(t, presets)
}

func TestPresetModel_InsertGetDelete(t *testing.T) {
	ctx := context.Background()
	m := newTestModel(t)

	tea, err := m.Insert(ctx, "tea", 180, false)
	require.NoError(t, err)
	_, err = uuid.Parse(tea.ID)
	assert.NoError(t, err)

	_, err = m.Insert(ctx, "pomodoro", 1500, true)
	require.NoError(t, err)

	got, err := m.Get(ctx, tea.ID)
	require.NoError(t, err)
	assert.Equal(t, tea, got)

	require.NoError(t, m.Delete(ctx, tea.ID))
	assert.ErrorIs(t, m.Delete(ctx, tea.ID), ErrNoRecord)

	presets, err := m.All(ctx)
	require.NoError(t, err)
	require.Len(t, presets, 1)
	assert.Equal(t, "pomodoro", presets[0].Name)
	assert.True(t, presets[0].Loop)
}

func TestPresetModel_ConcurrentInserts(t *testing.T) {
	ctx := context.Background()
	m := newTestModel(t)

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := m.Insert(ctx, "t", 60, false)
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	presets, err := m.All(ctx)
	require.NoError(t, err)
	assert.Len(t, presets, 20)
}
