// Package stores persists configuration runs between invocations. The
// SQLite-backed store records every run's resolved parameters keyed by
// project directory, so a later run over the same project can offer the
// previous answers as defaults.
//
// The store is an optional collaborator: every engine failure mode around it
// degrades to a fresh run rather than an error.
package stores
