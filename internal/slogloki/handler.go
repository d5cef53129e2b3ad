package slogloki

import (
	"context"
	"encoding/json"
	"log/slog"
	"slices"
	"time"

	"github.com/prometheus/common/model"
)

// Pusher is the part of the loki client the handler needs.
type Pusher interface {
	Handle(labels model.LabelSet, t time.Time, line string) error
}

type Option struct {
	Level     slog.Leveler
	Client    Pusher
	AddSource bool
}

func (o Option) NewLokiHandler() slog.Handler {
	if o.Level == nil {
		o.Level = slog.LevelDebug
	}

	return &LokiHandler{option: o}
}

// LokiHandler writes each record as one JSON line labelled with its level.
type LokiHandler struct {
	option Option
	attrs  []slog.Attr
	groups []string
}

func (h *LokiHandler) Enabled(_ context.Context, level slog.Level) bool {
	return level >= h.option.Level.Level()
}

func (h *LokiHandler) Handle(_ context.Context, record slog.Record) error {
	attrs := slices.Clone(h.attrs)
	record.Attrs(func(a slog.Attr) bool {
		attrs = append(attrs, inGroups(h.groups, a))
		return true
	})

	if h.option.AddSource && record.PC != 0 {
		attrs = append(attrs, source(record.PC))
	}

	fields := attrsToMap(attrs)
	fields[slog.MessageKey] = record.Message

	line, err := json.Marshal(fields)
	if err != nil {
		return err
	}

	labels := model.LabelSet{
		"level": model.LabelValue(record.Level.String()),
	}

	return h.option.Client.Handle(labels, record.Time, string(line))
}

func (h *LokiHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	next := h.clone()
	for _, a := range attrs {
		next.attrs = append(next.attrs, inGroups(h.groups, a))
	}

	return next
}

func (h *LokiHandler) WithGroup(name string) slog.Handler {
	if name == "" {
		return h
	}

	next := h.clone()
	next.groups = append(next.groups, name)

	return next
}

func (h *LokiHandler) clone() *LokiHandler {
	return &LokiHandler{
		option: h.option,
		attrs:  slices.Clone(h.attrs),
		groups: slices.Clone(h.groups),
	}
}
