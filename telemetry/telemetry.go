// Package telemetry collects hierarchical timing data for ledger
// processing phases.
//
// Collectors travel through context so instrumentation never changes a
// function signature: code under measurement calls FromContext and gets
// either the installed collector or a no-op one with zero overhead.
//
//	collector := telemetry.NewTimingCollector()
//	ctx := telemetry.WithCollector(context.Background(), collector)
//
//	timer := telemetry.FromContext(ctx).Start("Load ledger")
//	defer timer.End()
package telemetry

import (
	"context"
	"io"

	"github.com/NateJackDev/beancount/output"
)

// Collector gathers timing data for a processing run.
type Collector interface {
	// Start begins timing a top-level operation. End the returned timer
	// when the operation completes.
	Start(name string) Timer

	// Report writes the collected timings. Styling is optional.
	Report(w io.Writer, styles *output.Styles)
}

// Timer tracks one operation. Nested operations are timed with Child.
type Timer interface {
	End()
	Child(name string) Timer
}

type contextKey struct{}

// WithCollector installs a collector in the context.
func WithCollector(ctx context.Context, collector Collector) context.Context {
	return context.WithValue(ctx, contextKey{}, collector)
}

// FromContext returns the installed collector, or a no-op collector when
// none is present.
func FromContext(ctx context.Context) Collector {
	if collector, ok := ctx.Value(contextKey{}).(Collector); ok {
		return collector
	}
	return noopCollector{}
}

type noopCollector struct{}

func (noopCollector) Start(name string) Timer              { return noopTimer{} }
func (noopCollector) Report(w io.Writer, _ *output.Styles) {}

type noopTimer struct{}

func (noopTimer) End()                    {}
func (noopTimer) Child(name string) Timer { return noopTimer{} }
