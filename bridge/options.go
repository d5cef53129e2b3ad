package bridge

import (
	"log/slog"

	"github.com/prometheus/client_golang/prometheus"
)

type HubOptions struct {
	logger         *slog.Logger
	registry       *prometheus.Registry
	allowedOrigins []string
	quit           func()
}

type HubOption func(*HubOptions)

func WithLogger(logger *slog.Logger) HubOption {
	return func(h *HubOptions) {
		h.logger = logger
	}
}

func WithMetricsRegistry(registry *prometheus.Registry) HubOption {
	return func(h *HubOptions) {
		h.registry = registry
	}
}

// WithAllowedOrigins restricts websocket upgrades to the given origins.
// An empty list accepts any origin.
func WithAllowedOrigins(origins []string) HubOption {
	return func(h *HubOptions) {
		h.allowedOrigins = origins
	}
}

// WithQuit enables the quit event, the tray menu's only action.
func WithQuit(fn func()) HubOption {
	return func(h *HubOptions) {
		h.quit = fn
	}
}
