package validation

import (
	"github.com/rs/zerolog"
)

// Engine runs registered strategies in fixed order and aggregates findings.
type Engine struct {
	strategies []Strategy
	logger     zerolog.Logger
}

// NewEngine creates a validation engine with the given strategies. Order is
// significant: strategies run, and report, in the order given here.
func NewEngine(logger zerolog.Logger, strategies ...Strategy) *Engine {
	return &Engine{
		strategies: strategies,
		logger:     logger.With().Str("component", "validation-engine").Logger(),
	}
}

// NewDefaultEngine creates an engine with the built-in strategies in their
// declared order: known-flags registry first, community reports second.
func NewDefaultEngine(logger zerolog.Logger) (*Engine, error) {
	knownFlags, err := NewKnownFlagsValidator()
	if err != nil {
		return nil, err
	}
	community, err := NewCommunityReportsValidator()
	if err != nil {
		return nil, err
	}
	return NewEngine(logger, knownFlags, community), nil
}

// Register appends a strategy after the ones already registered.
func (e *Engine) Register(s Strategy) {
	e.strategies = append(e.strategies, s)
}

// ValidateEnvironmentVariables runs every enabled strategy over the env-var
// map. When opts.Enabled is false it returns immediately with an empty
// result; no strategy executes. Findings keep strategy registration order,
// and StrategiesUsed records exactly the strategies that ran.
func (e *Engine) ValidateEnvironmentVariables(framework, version string, envVars map[string]string, opts Options) Result {
	result := Result{
		Warnings:       []Finding{},
		Errors:         []Finding{},
		StrategiesUsed: []string{},
	}

	if !opts.Enabled {
		return result
	}

	for _, strategy := range e.strategies {
		if !strategy.Enabled(opts) {
			continue
		}

		warnings, errors := strategy.Validate(framework, version, envVars)
		result.Warnings = append(result.Warnings, warnings...)
		result.Errors = append(result.Errors, errors...)
		result.StrategiesUsed = append(result.StrategiesUsed, strategy.Name())

		e.logger.Debug().
			Str("strategy", strategy.Name()).
			Int("warnings", len(warnings)).
			Int("errors", len(errors)).
			Msg("Validation strategy completed")
	}

	return result
}
