// Package agentrt implements nopea's per-service agent runtime: one
// long-lived goroutine per live service that serializes concurrent
// deploys, bounds its waiter queue, recovers from a crashed deploy
// worker with a cooldown, and idle-expires when there is nothing left
// to do. A Registry keyed by service name starts and reuses agents.
package agentrt
