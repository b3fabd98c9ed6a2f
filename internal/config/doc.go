// Package config loads and validates NopeaConfig: the environment- and
// YAML-driven knobs that tune the orchestrator, memory service, and
// external adapters without a rebuild.
package config
