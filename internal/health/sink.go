package health

import (
	"context"
	"errors"
	"fmt"
)

// Logger is the logging interface used by the fan-out.
type Logger interface {
	Debug(msg string, args ...any)
	Warn(msg string, args ...any)
}

type noopLogger struct{}

func (noopLogger) Debug(string, ...any) {}
func (noopLogger) Warn(string, ...any)  {}

// Sink receives connection reports.
type Sink interface {
	Name() string
	Record(ctx context.Context, r *Report) error
}

// FanOut delivers each report to every sink in order.
type FanOut struct {
	sinks  []Sink
	logger Logger
}

// NewFanOut returns a fan-out over sinks. Nil sinks are ignored.
func NewFanOut(sinks ...Sink) *FanOut {
	f := &FanOut{logger: noopLogger{}}
	for _, s := range sinks {
		f.Add(s)
	}
	return f
}

// SetLogger sets the logger used for sink failures.
func (f *FanOut) SetLogger(logger Logger) {
	f.logger = logger
}

// Add appends a sink.
func (f *FanOut) Add(s Sink) {
	if s != nil {
		f.sinks = append(f.sinks, s)
	}
}

// Sinks returns the configured sink names.
func (f *FanOut) Sinks() []string {
	out := make([]string, len(f.sinks))
	for i, s := range f.sinks {
		out[i] = s.Name()
	}
	return out
}

// Publish records r in every sink. Each failure is logged; the joined
// failures are returned for callers that want them.
func (f *FanOut) Publish(ctx context.Context, r *Report) error {
	var errs []error
	for _, s := range f.sinks {
		if err := s.Record(ctx, r); err != nil {
			f.logger.Warn("report sink failed",
				"sink", s.Name(),
				"run_id", r.RunID.String(),
				"error", err,
			)
			errs = append(errs, fmt.Errorf("%s: %w", s.Name(), err))
			continue
		}
		f.logger.Debug("report recorded", "sink", s.Name(), "run_id", r.RunID.String())
	}
	return errors.Join(errs...)
}
