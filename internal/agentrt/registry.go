package agentrt

import (
	"sync"
	"time"

	"github.com/false-systems/nopea/internal/cache"
	"github.com/false-systems/nopea/internal/deploy"
	"github.com/false-systems/nopea/internal/nerrors"
)

// defaults, used whenever a Registry is constructed with a zero value
// for the corresponding field.
const (
	DefaultQueueCapacity = 10
	DefaultCrashCooldown = 2 * time.Second
)

// Registry owns the set of live per-service agents and starts one
// lazily the first time a service is deployed to or queried.
type Registry struct {
	mu            sync.Mutex
	agents        map[string]*Agent
	runner        Runner
	cache         *cache.Cache
	queueCapacity int
	crashCooldown time.Duration
	idleTimeout   time.Duration
}

// NewRegistry builds a Registry. idleTimeout <= 0 disables idle expiry
// (an agent then runs for the lifetime of the process).
func NewRegistry(runner Runner, c *cache.Cache, queueCapacity int, crashCooldown, idleTimeout time.Duration) *Registry {
	if queueCapacity <= 0 {
		queueCapacity = DefaultQueueCapacity
	}
	if crashCooldown <= 0 {
		crashCooldown = DefaultCrashCooldown
	}
	return &Registry{
		agents:        make(map[string]*Agent),
		runner:        runner,
		cache:         c,
		queueCapacity: queueCapacity,
		crashCooldown: crashCooldown,
		idleTimeout:   idleTimeout,
	}
}

// EnsureStarted returns the live agent for service, starting one (and
// restoring its last known state from cache) if none is running —
// whether because this is the first deploy for the service, or because
// a prior agent idle-expired.
func (r *Registry) EnsureStarted(service string) *Agent {
	r.mu.Lock()
	defer r.mu.Unlock()

	if a, ok := r.agents[service]; ok {
		select {
		case <-a.stopped:
			// expired; fall through and start a fresh one
		default:
			return a
		}
	}

	a := newAgent(service, r.runner, r.cache, r.queueCapacity, r.crashCooldown, r.idleTimeout)
	r.agents[service] = a
	go a.run()
	return a
}

// Deploy submits spec to service's agent and blocks for the result.
func (r *Registry) Deploy(service string, spec *deploy.Spec) *deploy.Result {
	a := r.EnsureStarted(service)
	reply := make(chan *deploy.Result, 1)
	a.deployRequests <- waiter{spec: spec, reply: reply}
	return <-reply
}

// Status returns the current status of service's agent, or an error if
// no agent is running for it (it never started, or it idle-expired).
func (r *Registry) Status(service string) (Status, error) {
	r.mu.Lock()
	a, ok := r.agents[service]
	r.mu.Unlock()
	if !ok {
		return Status{}, nerrors.NewNotFoundError("service", service)
	}

	select {
	case <-a.stopped:
		return Status{}, nerrors.NewNotFoundError("service", service)
	default:
	}

	reply := make(chan Status, 1)
	select {
	case a.statusRequests <- statusRequest{reply: reply}:
		return <-reply, nil
	case <-a.stopped:
		return Status{}, nerrors.NewNotFoundError("service", service)
	}
}

// Health returns the status of every agent that is currently live,
// pruning any that have idle-expired from the registry.
func (r *Registry) Health() []Status {
	r.mu.Lock()
	services := make([]string, 0, len(r.agents))
	for svc, a := range r.agents {
		select {
		case <-a.stopped:
			delete(r.agents, svc)
		default:
			services = append(services, svc)
		}
	}
	r.mu.Unlock()

	statuses := make([]Status, 0, len(services))
	for _, svc := range services {
		if st, err := r.Status(svc); err == nil {
			statuses = append(statuses, st)
		}
	}
	return statuses
}

// Stop signals every live agent to shut down. It does not wait for
// them to finish; callers that need that should select on each
// agent's stopped channel.
func (r *Registry) Stop() {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, a := range r.agents {
		select {
		case <-a.stopped:
		default:
			close(a.stop)
		}
	}
}
