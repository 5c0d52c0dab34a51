// Package engine orchestrates a configuration run: it sequences the
// configuration phases, resolves each parameter from ranked sources,
// consults the registries, checks instance compatibility, and runs the
// validation strategy pipeline over the final environment-variable map.
//
// Phases run strictly sequentially; each phase's answers become inputs to
// the next. The engine never writes to the console: it emits structured
// events through an injected telemetry.Sink, and it returns business-rule
// violations as structured results rather than errors. The only fatal
// conditions are malformed registries (caught at load, before the engine
// exists) and an explicit user decline at a blocking finding, which halts
// the run before any generation step.
package engine
