package main

import (
	"flag"
	"io"
	"strings"
	"time"

	fileconfig "github.com/michaelgov-ctrl/countdown/internal/config"
)

type config struct {
	port     int
	logLevel string
	cors     struct {
		trustedOrigins []string
	}
	tls struct {
		certFile string
		keyFile  string
	}
	db     string
	timers struct {
		tickInterval  time.Duration
		pausedBackoff time.Duration
	}
	notifyCommand string
	updateURL     string
	loki          struct {
		url         string
		serviceName string
	}
	showVersion bool
}

// parseConfig layers explicitly set flags over the -config file, which is
// itself layered over the defaults.
func parseConfig(args []string, output io.Writer) (config, error) {
	var (
		cfg        config
		configFile string
		origins    []string
		defaults   = fileconfig.DefaultConfig()
	)

	fs := flag.NewFlagSet("countdown", flag.ContinueOnError)
	fs.SetOutput(output)

	fs.IntVar(&cfg.port, "port", defaults.Server.Port, "API server port")
	fs.StringVar(&cfg.logLevel, "log-level", defaults.Server.LogLevel, "Logging level (trace|debug|info|warning|error)")

	fs.Func("cors-trusted-origins", "Trusted CORS origins (space seperated)", func(val string) error {
		origins = strings.Fields(val)
		return nil
	})

	fs.StringVar(&cfg.tls.certFile, "tls-cert", "", "TLS certificate file")
	fs.StringVar(&cfg.tls.keyFile, "tls-key", "", "TLS key file")
	fs.StringVar(&cfg.db, "db", defaults.Store.Path, "SQLite store path")
	fs.StringVar(&configFile, "config", "", "YAML config file")
	fs.StringVar(&cfg.notifyCommand, "notify-command", defaults.Notifications.Command, "Desktop notification command, e.g. notify-send")
	fs.StringVar(&cfg.updateURL, "update-url", defaults.Updater.ManifestURL, "Update manifest URL")
	fs.StringVar(&cfg.loki.url, "loki-url", defaults.Loki.URL, "Grafana Loki push URL")
	fs.BoolVar(&cfg.showVersion, "version", false, "Display version and exit")

	if err := fs.Parse(args); err != nil {
		return config{}, err
	}

	cfg.cors.trustedOrigins = origins
	cfg.timers.tickInterval = defaults.Timers.TickInterval
	cfg.timers.pausedBackoff = defaults.Timers.PausedBackoff
	cfg.loki.serviceName = defaults.Loki.ServiceName

	if configFile == "" {
		return cfg, nil
	}

	file, err := fileconfig.Load(configFile)
	if err != nil {
		return config{}, err
	}

	set := make(map[string]bool)
	fs.Visit(func(f *flag.Flag) {
		set[f.Name] = true
	})

	if !set["port"] {
		cfg.port = file.Server.Port
	}
	if !set["log-level"] {
		cfg.logLevel = file.Server.LogLevel
	}
	if !set["cors-trusted-origins"] {
		cfg.cors.trustedOrigins = file.Server.TrustedOrigins
	}
	if !set["db"] {
		cfg.db = file.Store.Path
	}
	if !set["notify-command"] {
		cfg.notifyCommand = file.Notifications.Command
	}
	if !set["update-url"] {
		cfg.updateURL = file.Updater.ManifestURL
	}
	if !set["loki-url"] {
		cfg.loki.url = file.Loki.URL
	}

	cfg.timers.tickInterval = file.Timers.TickInterval
	cfg.timers.pausedBackoff = file.Timers.PausedBackoff
	cfg.loki.serviceName = file.Loki.ServiceName

	return cfg, nil
}
