// Package orchestrator wires together the K8s collaborator, the
// strategy and drift engines, the memory service, the cache, the
// occurrence artifact builder, telemetry, and CDEvents into a single
// deploy lifecycle: Run(spec) -> result. It is the one package that is
// allowed to know about every other subsystem.
package orchestrator
