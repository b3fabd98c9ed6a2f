package memory

import (
	"time"

	"github.com/false-systems/nopea/internal/cache"
	"github.com/false-systems/nopea/internal/graph"
	"github.com/false-systems/nopea/internal/ident"
	"github.com/false-systems/nopea/internal/nlog"
	"github.com/false-systems/nopea/internal/telemetry"
)

const subsystem = "memory"

// submissionQueueDepth bounds the shared job mailbox. It is sized
// generously rather than exactly 10 like an agent's waiter queue:
// record_deploy is documented as never blocking and never failing
// observably, so a burst of ingestions queues rather than drops.
const submissionQueueDepth = 1024

// job is a closure the owning goroutine runs with exclusive access to
// the live graph — the "single background task with an mpsc input
// channel" design noted for languages without per-process mailboxes.
// mutating marks jobs whose effect should be persisted to the cache
// once applied; query jobs leave it false.
type job struct {
	run      func(g *graph.Graph)
	mutating bool
}

// Service is nopea's single-owner memory service. The live graph is
// mutated only inside the goroutine started by Run; every other
// caller reaches it through RecordDeploy (fire-and-forget) or
// GetDeployContext (synchronous).
type Service struct {
	cache *cache.Cache
	ids   *ident.Generator

	decayInterval time.Duration
	decayFactor   float64

	// jobs is the single mailbox for both ingestion and queries: every
	// caller, blocking or not, enqueues here so the owning goroutine
	// drains them in the order they arrived rather than letting select
	// pick pseudo-randomly between two ready channels.
	jobs chan job
	stop chan struct{}
}

// New constructs a Service backed by c, with markers drawn from ids.
// Call Run to start the owning goroutine.
func New(c *cache.Cache, ids *ident.Generator, decayInterval time.Duration) *Service {
	return &Service{
		cache:         c,
		ids:           ids,
		decayInterval: decayInterval,
		decayFactor:   0.98,
		jobs:          make(chan job, submissionQueueDepth),
		stop:          make(chan struct{}),
	}
}

// Run is the owning goroutine's loop and blocks until Stop is called.
// Callers launch it with `go svc.Run()`.
func (s *Service) Run() {
	g := s.restore()
	ticker := time.NewTicker(s.decayInterval)
	defer ticker.Stop()

	for {
		select {
		case j := <-s.jobs:
			j.run(g)
			if j.mutating {
				s.persist(g)
			}
		case <-ticker.C:
			prunedNodes, prunedRels := g.DecayAll(s.decayFactor)
			nlog.Info(subsystem, "decay tick: nodes=%d relationships=%d pruned_nodes=%d pruned_relationships=%d",
				g.NodeCount(), g.RelationshipCount(), prunedNodes, prunedRels)
			telemetry.GraphDecayTotal.Inc()
			telemetry.GraphNodes.Set(float64(g.NodeCount()))
			telemetry.GraphRelationships.Set(float64(g.RelationshipCount()))
			s.persist(g)
		case <-s.stop:
			return
		}
	}
}

// Stop shuts the owning goroutine down.
func (s *Service) Stop() {
	close(s.stop)
}

func (s *Service) restore() *graph.Graph {
	encoded, ok := s.cache.Snapshot()
	if !ok {
		return graph.New()
	}
	g, err := DecodeSnapshot(encoded)
	if err != nil {
		nlog.Warn(subsystem, "snapshot restore failed, starting with empty graph: %s", err)
		return graph.New()
	}
	return g
}

func (s *Service) persist(g *graph.Graph) {
	encoded, err := EncodeSnapshot(g)
	if err != nil {
		nlog.Warn(subsystem, "snapshot encode failed: %s", err)
		return
	}
	s.cache.PutSnapshot(encoded)
}

// RecordDeploy submits outcome for ingestion. It never blocks: if the
// mailbox is momentarily full, the outcome is dropped and a warning is
// logged rather than stalling the caller.
func (s *Service) RecordDeploy(outcome Outcome) {
	marker := s.ids.Next()
	j := job{
		mutating: true,
		run: func(g *graph.Graph) {
			if err := ingest(g, outcome, marker); err != nil {
				nlog.Warn(subsystem, "ingest failed for service=%s: %s", outcome.Service, err)
			}
		},
	}
	select {
	case s.jobs <- j:
	default:
		nlog.Warn(subsystem, "submission queue full, dropping record_deploy for service=%s", outcome.Service)
	}
}

// GetDeployContext synchronously computes the context the orchestrator
// consults before selecting a strategy. Blocking (rather than a
// non-blocking send, as RecordDeploy uses) keeps it ordered relative
// to every ingestion already queued ahead of it.
func (s *Service) GetDeployContext(service, namespace string) Context {
	result := make(chan Context, 1)
	s.jobs <- job{run: func(g *graph.Graph) {
		serviceID := graph.NodeID(graph.KindConcept, service)
		_, known := g.GetNode(serviceID)

		patterns := failurePatterns(g, serviceID)
		result <- Context{
			Service:         service,
			Namespace:       namespace,
			Known:           known,
			FailurePatterns: patterns,
			Dependencies:    dependencies(g, serviceID),
			Recommendations: recommendations(patterns),
		}
	}}
	return <-result
}

// NodeCount returns the live node count.
func (s *Service) NodeCount() int {
	result := make(chan int, 1)
	s.jobs <- job{run: func(g *graph.Graph) { result <- g.NodeCount() }}
	return <-result
}

// RelationshipCount returns the live relationship count.
func (s *Service) RelationshipCount() int {
	result := make(chan int, 1)
	s.jobs <- job{run: func(g *graph.Graph) { result <- g.RelationshipCount() }}
	return <-result
}
