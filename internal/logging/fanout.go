package logging

import (
	"context"
	"errors"
	"log/slog"
)

// journalFloor keeps debug records out of journald. Debug output of a
// library loaded into another process belongs on its stderr and in the
// ring buffer, not in the system log.
const journalFloor = slog.LevelInfo

// sink is one log destination. Records below floor are dropped before the
// handler sees them, on top of the handler's own level.
type sink struct {
	handler slog.Handler
	floor   slog.Level
	gated   bool
}

func (s sink) accepts(ctx context.Context, level slog.Level) bool {
	if s.gated && level < s.floor {
		return false
	}
	return s.handler.Enabled(ctx, level)
}

// fanoutHandler sends each record to every sink that accepts its level.
type fanoutHandler struct {
	sinks []sink
}

// newFanout returns the single handler unchanged when there is nothing to
// fan out or gate.
func newFanout(sinks ...sink) slog.Handler {
	if len(sinks) == 1 && !sinks[0].gated {
		return sinks[0].handler
	}
	return &fanoutHandler{sinks: sinks}
}

func (f *fanoutHandler) Enabled(ctx context.Context, level slog.Level) bool {
	for _, s := range f.sinks {
		if s.accepts(ctx, level) {
			return true
		}
	}
	return false
}

// Handle writes r to every accepting sink and reports all sink errors.
func (f *fanoutHandler) Handle(ctx context.Context, r slog.Record) error {
	var errs []error
	for _, s := range f.sinks {
		if !s.accepts(ctx, r.Level) {
			continue
		}
		if err := s.handler.Handle(ctx, r.Clone()); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func (f *fanoutHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	return f.derive(func(h slog.Handler) slog.Handler { return h.WithAttrs(attrs) })
}

func (f *fanoutHandler) WithGroup(name string) slog.Handler {
	return f.derive(func(h slog.Handler) slog.Handler { return h.WithGroup(name) })
}

func (f *fanoutHandler) derive(fn func(slog.Handler) slog.Handler) slog.Handler {
	sinks := make([]sink, len(f.sinks))
	for i, s := range f.sinks {
		s.handler = fn(s.handler)
		sinks[i] = s
	}
	return &fanoutHandler{sinks: sinks}
}
