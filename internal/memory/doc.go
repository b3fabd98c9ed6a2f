// Package memory implements nopea's single-owner knowledge-graph
// service: an ingestor that converts deploy outcomes into graph
// mutations, a query surface for context-aware scheduling, periodic
// decay, and snapshot persistence. The live graph is mutated only by
// the goroutine running Service.Run; every other component reaches it
// through RecordDeploy/GetDeployContext.
package memory
