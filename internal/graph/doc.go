// Package graph implements nopea's knowledge graph: a content-addressed,
// weighted, directed graph of nodes (services, namespaces, error
// classes) and relationships (deployed_to, breaks, depends_on)
// reinforced by exponential weighted moving averages and pruned by time
// decay.
//
// Graph is a plain, non-concurrent data structure — the memory service
// (internal/memory) is its single owner and serializes all access
// through its own goroutine rather than with locks here.
package graph
