package models

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"

	"github.com/google/uuid"
	"github.com/michaelgov-ctrl/countdown/internal/store"
)

// PresetsKey is the store key the UI reads its countdown list from.
const PresetsKey = "countList"

var ErrNoRecord = errors.New("no matching preset")

type Preset struct {
	ID      string `json:"localKey"`
	Name    string `json:"name"`
	Seconds uint32 `json:"seconds"`
	Loop    bool   `json:"loop"`
}

type KV interface {
	Get(ctx context.Context, key string) (json.RawMessage, error)
	Set(ctx context.Context, key string, value json.RawMessage) error
}

// PresetModel keeps the whole list under one store key, writes are
// serialised so concurrent inserts do not lose each other.
type PresetModel struct {
	KV KV
	mu sync.Mutex
}

func (m *PresetModel) All(ctx context.Context) ([]Preset, error) {
	raw, err := m.KV.Get(ctx, PresetsKey)
	if errors.Is(err, store.ErrNotFound) {
		return []Preset{}, nil
	}
	if err != nil {
		return nil, err
	}

	presets := []Preset{}
	if err := json.Unmarshal(raw, &presets); err != nil {
		return nil, fmt.Errorf("decode %s: %w", PresetsKey, err)
	}

	return presets, nil
}

func (m *PresetModel) Get(ctx context.Context, id string) (Preset, error) {
	presets, err := m.All(ctx)
	if err != nil {
		return Preset{}, err
	}

	for _, p := range presets {
		if p.ID == id {
			return p, nil
		}
	}

	return Preset{}, fmt.Errorf("%w: %s", ErrNoRecord, id)
}

func (m *PresetModel) Insert(ctx context.Context, name string, seconds uint32, loop bool) (Preset, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	presets, err := m.All(ctx)
	if err != nil {
		return Preset{}, err
	}

	p := Preset{
		ID:      uuid.NewString(),
		Name:    name,
		Seconds: seconds,
		Loop:    loop,
	}

	if err := m.save(ctx, append(presets, p)); err != nil {
		return Preset{}, err
	}

	return p, nil
}

func (m *PresetModel) Delete(ctx context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	presets, err := m.All(ctx)
	if err != nil {
		return err
	}

	kept := presets[:0]
	for _, p := range presets {
		if p.ID != id {
			kept = append(kept, p)
		}
	}

	if len(kept) == len(presets) {
		return fmt.Errorf("%w: %s", ErrNoRecord, id)
	}

	return m.save(ctx, kept)
}

func (m *PresetModel) save(ctx context.Context, presets []Preset) error {
	data, err := json.Marshal(presets)
	if err != nil {
		return err
	}

	return m.KV.Set(ctx, PresetsKey, data)
}
