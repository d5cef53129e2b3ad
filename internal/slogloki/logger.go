package slogloki

import (
	"fmt"
	"log/slog"

	"github.com/grafana/loki-client-go/loki"
	"github.com/grafana/loki-client-go/pkg/labelutil"
	"github.com/prometheus/common/model"
)

// NewLokiLogger returns a logger shipping to lokiUrl and a stop func that
// flushes buffered entries.
func NewLokiLogger(serviceName string, lokiUrl string, logLevel slog.Level) (*slog.Logger, func(), error) {
	config, err := loki.NewDefaultConfig(lokiUrl)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create new loki config: %w", err)
	}

	config.ExternalLabels = labelutil.LabelSet{
		LabelSet: model.LabelSet{
			"service_name": model.LabelValue(serviceName),
		},
	}

	client, err := loki.New(config)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create new loki client for %s: %w", lokiUrl, err)
	}

	handler := Option{Level: logLevel, Client: client, AddSource: true}.NewLokiHandler()

	return slog.New(handler), client.Stop, nil
}
