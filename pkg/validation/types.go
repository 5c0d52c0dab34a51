// Package validation runs an ordered set of independent validators over a
// final environment-variable map and aggregates their findings.
package validation

// Severity is the severity of a validation finding.
type Severity string

const (
	// SeverityWarning is a non-blocking finding; the run proceeds.
	SeverityWarning Severity = "warning"

	// SeverityError is blocking for the specific variable. Whether the whole
	// run halts is the orchestrator's policy, not this package's.
	SeverityError Severity = "error"
)

// Finding is a single validation finding against one environment variable.
type Finding struct {
	// Key is the offending environment variable name.
	Key string `json:"key"`

	// Message is a human-readable explanation naming the value and the rule.
	Message string `json:"message"`

	// Severity is warning or error.
	Severity Severity `json:"severity"`

	// Strategy is the name of the strategy that produced this finding.
	Strategy string `json:"strategy"`
}

// Result aggregates findings from all strategies that ran.
type Result struct {
	// Warnings holds the non-blocking findings, in strategy order.
	Warnings []Finding `json:"warnings"`

	// Errors holds the blocking findings, in strategy order.
	Errors []Finding `json:"errors"`

	// StrategiesUsed lists the strategies that actually executed, in order.
	StrategiesUsed []string `json:"strategiesUsed"`
}

// Options controls which strategies execute.
type Options struct {
	// Enabled gates the whole engine. When false no strategy executes at
	// all and the result is empty.
	Enabled bool

	// UseKnownFlags enables the known-flags registry strategy.
	UseKnownFlags bool

	// UseCommunityReports enables the community reports strategy.
	UseCommunityReports bool
}

// Strategy is an independent unit of validation logic. Implementations are
// registered into the Engine at construction time and run in registration
// order; they must be deterministic and must not depend on one another.
type Strategy interface {
	// Name identifies the strategy in findings and StrategiesUsed.
	Name() string

	// Enabled reports whether the strategy should run under the given
	// options.
	Enabled(opts Options) bool

	// Validate inspects the full env-var map for the given framework and
	// version and returns its warnings and errors.
	Validate(framework, version string, envVars map[string]string) (warnings, errors []Finding)
}
