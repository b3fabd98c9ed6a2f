// Package nlog provides nopea's structured logging: a slog-backed,
// subsystem-tagged logger shared by the CLI, the HTTP API, the JSON-RPC
// tool server, and every internal subsystem (memory, orchestrator,
// agents, drift engine).
//
// CLI invocations write human-readable text via InitForCLI; the "serve"
// command writes JSON lines via InitForServer so deploy and agent events
// can be shipped to a log aggregator. Both modes share the same
// Debug/Info/Warn/Error(subsystem, format, args...) call sites.
package nlog
