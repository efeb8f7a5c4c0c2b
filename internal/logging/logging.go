// Package logging builds the process logger and turns request and store
// events into log lines.
package logging

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"strings"

	eventbus "github.com/hanpama/socialgraph/internal/eventbus"
	events "github.com/hanpama/socialgraph/internal/events"
	reqid "github.com/hanpama/socialgraph/internal/reqid"
)

// ParseLevel maps debug, info, warn and error to slog levels.
func ParseLevel(level string) (slog.Level, error) {
	switch strings.ToLower(level) {
	case "debug":
		return slog.LevelDebug, nil
	case "", "info":
		return slog.LevelInfo, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	}
	return 0, fmt.Errorf("unknown log level %q", level)
}

// New returns a JSON or text logger writing to w at level.
func New(w io.Writer, level, format string) (*slog.Logger, error) {
	lvl, err := ParseLevel(level)
	if err != nil {
		return nil, err
	}
	opts := &slog.HandlerOptions{
		Level:     lvl,
		AddSource: lvl == slog.LevelDebug,
	}

	var handler slog.Handler
	switch strings.ToLower(format) {
	case "", "json":
		handler = slog.NewJSONHandler(w, opts)
	case "text":
		handler = slog.NewTextHandler(w, opts)
	default:
		return nil, fmt.Errorf("unknown log format %q", format)
	}
	return slog.New(handler).With("service", "socialgraph"), nil
}

// Attach logs one line per finished HTTP request and one per failed store
// call. It returns a function that removes the subscriptions.
func Attach(bus *eventbus.Bus, logger *slog.Logger) (detach func()) {
	offs := []func(){
		eventbus.On(bus, func(ctx context.Context, e events.HTTPFinish) {
			rid, _ := reqid.FromContext(ctx)
			level := slog.LevelInfo
			if e.Status >= 500 {
				level = slog.LevelError
			}
			logger.LogAttrs(ctx, level, "http request",
				slog.String("method", e.Request.Method),
				slog.String("path", e.Request.URL.Path),
				slog.Int("status", e.Status),
				slog.Duration("duration", e.Duration),
				slog.String("request_id", rid),
			)
		}),
		eventbus.On(bus, func(ctx context.Context, e events.StoreFinish) {
			if e.Err == nil {
				return
			}
			rid, _ := reqid.FromContext(ctx)
			logger.LogAttrs(ctx, slog.LevelError, "store operation failed",
				slog.String("collection", e.Collection),
				slog.String("operation", e.Operation),
				slog.String("error", e.Err.Error()),
				slog.String("request_id", rid),
			)
		}),
	}
	return func() {
		for _, off := range offs {
			off()
		}
	}
}
