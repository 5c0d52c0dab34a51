package validation

import "embed"

// dataFS carries the known-flags registry and community reports shipped with
// the binary.
//
//go:embed data/*.yaml
var dataFS embed.FS
