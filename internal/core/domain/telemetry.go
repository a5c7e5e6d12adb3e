package domain

import "strings"

// BuildOutcome is how a product request ended.
type BuildOutcome string

const (
	// OutcomeBuilt means the actions ran and the outputs were reconciled.
	OutcomeBuilt BuildOutcome = "built"
	// OutcomeCached means a build record matched and no action ran.
	OutcomeCached BuildOutcome = "cached"
	// OutcomeFailed means an action, the sandbox guard or reconciliation failed.
	OutcomeFailed BuildOutcome = "failed"
	// OutcomeCancelled means the build was invalidated while in flight.
	OutcomeCancelled BuildOutcome = "cancelled"
	// OutcomeSkipped means a prerequisite failed so the product was never started.
	OutcomeSkipped BuildOutcome = "skipped"
)

// Succeeded reports whether the outputs are usable.
func (o BuildOutcome) Succeeded() bool {
	return o == OutcomeBuilt || o == OutcomeCached
}

// NormalizeBuildOutcome converts a string to a BuildOutcome, defaulting to failed if unknown.
func NormalizeBuildOutcome(s string) BuildOutcome {
	switch o := BuildOutcome(strings.ToLower(s)); o {
	case OutcomeBuilt, OutcomeCached, OutcomeFailed, OutcomeCancelled, OutcomeSkipped:
		return o
	default:
		return OutcomeFailed
	}
}

// LogLevel represents the severity of a log message, mirroring the standard slog levels.
type LogLevel int

const (
	// LogLevelDebug represents debug-level verbosity.
	LogLevelDebug LogLevel = -4
	// LogLevelInfo represents informational verbosity.
	LogLevelInfo LogLevel = 0
	// LogLevelWarn represents warning verbosity.
	LogLevelWarn LogLevel = 4
	// LogLevelError represents error verbosity.
	LogLevelError LogLevel = 8
)

// String returns the string representation of the LogLevel.
func (l LogLevel) String() string {
	switch l {
	case LogLevelDebug:
		return "DEBUG"
	case LogLevelWarn:
		return "WARN"
	case LogLevelError:
		return "ERROR"
	default:
		return "INFO"
	}
}
