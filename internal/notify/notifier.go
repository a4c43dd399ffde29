package notify

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"runtime"
	"time"

	"github.com/gen2brain/beeep"
)

// Notifier delivers a notification to the user.
type Notifier interface {
	Notify(ctx context.Context, req Request) error
}

// AppName is shown as the notification source.
const AppName = "scenariowatch"

const deliverTimeout = 5 * time.Second

// Desktop delivers notifications through the OS notification center.
// High priority requests are sent as alerts, which also play a sound.
type Desktop struct {
	// Icons maps image tags to icon files. Tags without an entry show no icon.
	Icons map[string]string
	// Fallback receives requests the notification center rejected.
	Fallback Notifier

	notify func(title, message string, icon any) error
	alert  func(title, message string, icon any) error
}

// NewDesktop creates a Desktop notifier backed by beeep.
func NewDesktop(fallback Notifier) *Desktop {
	beeep.AppName = AppName
	return &Desktop{Fallback: fallback, notify: beeep.Notify, alert: beeep.Alert}
}

// Notify sends req and waits for the notification center to accept it.
func (d *Desktop) Notify(ctx context.Context, req Request) error {
	ctx, cancel := context.WithTimeout(ctx, deliverTimeout)
	defer cancel()

	send := d.notify
	if req.Priority >= PriorityHigh {
		send = d.alert
	}

	done := make(chan error, 1)
	go func() {
		done <- send(req.Title, req.Body, d.Icons[req.Image])
	}()

	var err error
	select {
	case err = <-done:
	case <-ctx.Done():
		err = ctx.Err()
	}
	if err == nil {
		return nil
	}
	if d.Fallback != nil {
		return d.Fallback.Notify(ctx, req)
	}
	return fmt.Errorf("desktop notification failed: %w", err)
}

// Log writes notifications to a logger. It is the fallback when no desktop
// notification command is available.
type Log struct {
	Logger *slog.Logger
}

// Notify logs the request.
func (l *Log) Notify(ctx context.Context, req Request) error {
	logger := l.Logger
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	level := slog.LevelInfo
	if req.Priority >= PriorityHigh {
		level = slog.LevelWarn
	}
	logger.Log(ctx, level, "notification", "title", req.Title, "body", req.Body)
	return nil
}

// Detect returns a Desktop notifier on platforms with a notification center,
// otherwise a Log notifier. Desktop falls back to logging when delivery fails.
func Detect(logger *slog.Logger) Notifier {
	fallback := &Log{Logger: logger}
	switch runtime.GOOS {
	case "darwin", "windows", "linux", "freebsd", "openbsd", "netbsd":
		return NewDesktop(fallback)
	}
	if logger != nil {
		logger.Debug("no desktop notifications on this platform, logging notifications instead")
	}
	return fallback
}

// Deliver sends every request, logging and skipping failures so one broken
// notification does not suppress the rest.
func Deliver(ctx context.Context, n Notifier, reqs []Request, logger *slog.Logger) {
	if n == nil {
		return
	}
	for _, req := range reqs {
		if err := n.Notify(ctx, req); err != nil && logger != nil {
			logger.Warn("notification failed", "title", req.Title, "error", err)
		}
	}
}
