package registry

import (
	"errors"
	"fmt"
)

// errDuplicateKey reports two entries claiming the same unique key.
var errDuplicateKey = errors.New("duplicate registry key")

// SchemaError reports a registry entry that failed structural validation at
// load time. It is fatal: registries that do not satisfy their schema abort
// startup.
type SchemaError struct {
	// Table is the registry table ("frameworks", "models", "instances").
	Table string

	// Key identifies the offending entry within the table.
	Key string

	// Err is the underlying validation failure.
	Err error
}

func (e *SchemaError) Error() string {
	return fmt.Sprintf("registry schema violation in %s entry %q: %v", e.Table, e.Key, e.Err)
}

func (e *SchemaError) Unwrap() error {
	return e.Err
}
