// Package cache implements nopea's four in-memory, process-wide keyed
// tables: deployments, service_state, a graph_snapshot singleton, and
// last_applied. Reads are non-blocking and return (value, ok); writes
// are unconditional. The orchestrator writes last_applied, the agent
// runtime writes service_state, and the memory service writes
// graph_snapshot; deployments is written by both the orchestrator and
// the agent runtime (the agent stores each finished or crashed run's
// result). All four tables are safe for concurrent read/write from any
// goroutine.
package cache
