package stores

import "time"

// RunRecord is one persisted configuration run. Parameters are stored as a
// JSON document so the schema does not chase the parameter set.
type RunRecord struct {
	// ID is the run's unique identifier (UUID).
	ID string

	// ProjectDir is the absolute project directory the run configured. It is
	// the lookup key for prior-run resolution.
	ProjectDir string

	// Parameters is the resolved parameter map, JSON-encoded.
	Parameters string

	// CreatedAt is when the run was persisted.
	CreatedAt time.Time
}
