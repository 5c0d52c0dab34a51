// Package telemetry provides observability instrumentation for the container
// creator.
//
// Two pillars:
//
//  1. Structured Logging - context-aware logging with zerolog
//  2. Event Publishing - a structured info/warn/error sink that decouples the
//     configuration engine from console presentation
//
// The engine emits Events through a Sink; hosts decide how to render them.
// The default subscriber forwards events to the zerolog logger so a bare CLI
// run still produces readable output.
//
// Initialize at application startup:
//
//	logger, err := telemetry.NewLogger(telemetry.LoggingConfig{Level: "info", Format: "console", Output: "stderr"})
//	if err != nil {
//	    ...
//	}
//	sink := telemetry.NewPublisher(telemetry.EventsConfig{Enabled: true})
//	sink.Subscribe(telemetry.LogSubscriber(logger))
package telemetry
