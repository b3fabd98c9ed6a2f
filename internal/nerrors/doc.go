// Package nerrors defines nopea's stable error taxonomy: typed errors
// for conditions the orchestrator, agent runtime, and drift engine must
// distinguish (queue_full, worker_crash, no_deployment_found, and the
// K8s-collaborator passthrough classifications), plus a Tag helper that
// renders any of them to the short string tag used in occurrence
// artifacts and JSON-RPC error payloads.
package nerrors
