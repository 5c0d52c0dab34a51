package registry

import "embed"

// builtinFS carries the registry content shipped with the binary.
//
//go:embed data/*.yaml
var builtinFS embed.FS
