// Package simerr defines the typed error kinds surfaced at configuration
// time, per the fatal/non-fatal split described in the error handling
// design: setup errors abort before the first tick, runtime conditions
// are counted and surfaced in the evaluator summary instead.
package simerr

import "fmt"

// Kind enumerates the fatal ConfigError categories.
type Kind string

const (
	KindUnknownNode      Kind = "unknown_node"
	KindUnknownSegment   Kind = "unknown_segment"
	KindDuplicateEdge    Kind = "duplicate_edge"
	KindZeroLengthItin   Kind = "zero_length_itinerary"
	KindBadSegmentChain  Kind = "bad_segment_chain"
	KindMissingColumn    Kind = "missing_column"
	KindBadValue         Kind = "bad_value"
	KindDuplicateSegment Kind = "duplicate_segment_name"
)

// ConfigError is a fatal setup-time error. It is never raised once the
// first tick has run.
type ConfigError struct {
	Kind   Kind
	Detail string
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("config error (%s): %s", e.Kind, e.Detail)
}

// NewConfigError builds a ConfigError with a formatted detail message.
func NewConfigError(kind Kind, format string, args ...any) *ConfigError {
	return &ConfigError{Kind: kind, Detail: fmt.Sprintf(format, args...)}
}

// NonConvergenceWarning is returned (never panicked) by the gravity
// model when Furness balancing fails to reach the convergence tolerance
// within max_iter iterations. It is non-fatal: callers proceed with the
// best current matrix and log the warning.
type NonConvergenceWarning struct {
	Iterations  int
	MaxRowError float64
	MaxColError float64
}

func (w *NonConvergenceWarning) Error() string {
	return fmt.Sprintf("gravity model did not converge after %d iterations (max row err %.6f, max col err %.6f)",
		w.Iterations, w.MaxRowError, w.MaxColError)
}
