// Package telemetry registers nopea's Prometheus counters and
// histograms: deploy throughput/latency, graph size, and decay
// shrinkage, exposed through a single process-wide registry.
package telemetry
