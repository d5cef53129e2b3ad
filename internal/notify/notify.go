package notify

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"strings"
	"time"

	"github.com/michaelgov-ctrl/countdown/timer"
)

var ErrEmptyTitle = errors.New("notification title is empty")

const (
	EventNotification = "notification"

	commandTimeout = 5 * time.Second
)

type NotificationEvent struct {
	Title  string    `json:"title"`
	Body   string    `json:"body"`
	SentAt time.Time `json:"sent_at"`
}

// Service delivers notifications to the UI through the event sink and,
// when a command is configured, to the desktop (e.g. notify-send).
type Service struct {
	sink    timer.EventSink
	logger  *slog.Logger
	command string
}

type Option func(*Service)

func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) {
		s.logger = logger
	}
}

// WithCommand runs name with the title and body as its two arguments.
func WithCommand(name string) Option {
	return func(s *Service) {
		s.command = strings.TrimSpace(name)
	}
}

func New(sink timer.EventSink, opts ...Option) *Service {
	s := &Service{
		sink:   sink,
		logger: slog.New(slog.NewTextHandler(os.Stdout, nil)),
	}

	for _, opt := range opts {
		opt(s)
	}

	return s
}

// Send is fire and forget, failures are logged and never returned.
func (s *Service) Send(title, body string) {
	ctx, cancel := context.WithTimeout(context.Background(), commandTimeout)
	defer cancel()

	if err := s.SendContext(ctx, title, body); err != nil {
		s.logger.Warn("failed to send notification", "title", title, "error", err)
	}
}

// SendContext reports the first delivery failure. Both deliveries are
// attempted regardless.
func (s *Service) SendContext(ctx context.Context, title, body string) error {
	if strings.TrimSpace(title) == "" {
		return ErrEmptyTitle
	}

	var errs []error

	event, err := timer.NewOutgoingEvent(EventNotification, NotificationEvent{
		Title:  title,
		Body:   body,
		SentAt: time.Now().UTC(),
	})
	if err != nil {
		return err
	}

	if err := s.sink.Emit(event); err != nil {
		errs = append(errs, fmt.Errorf("ui delivery: %w", err))
	}

	if s.command != "" {
		cctx, cancel := context.WithTimeout(ctx, commandTimeout)
		defer cancel()

		if out, err := exec.CommandContext(cctx, s.command, title, body).CombinedOutput(); err != nil {
			errs = append(errs, fmt.Errorf("desktop delivery: %w: %s", err, strings.TrimSpace(string(out))))
		}
	}

	s.logger.Debug("notification sent", "title", title, "failures", len(errs))

	return errors.Join(errs...)
}
