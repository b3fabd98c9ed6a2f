package agentrt

import (
	"context"
	"fmt"
	"time"

	"github.com/false-systems/nopea/internal/cache"
	"github.com/false-systems/nopea/internal/deploy"
	"github.com/false-systems/nopea/internal/nerrors"
	"github.com/false-systems/nopea/internal/nlog"
	"github.com/false-systems/nopea/internal/telemetry"
)

const subsystem = "agentrt"

// Runner executes one deploy to completion. It is supplied by the
// orchestrator so this package never needs to know about strategies,
// the K8s client, or Memory.
type Runner func(ctx context.Context, spec *deploy.Spec) *deploy.Result

// Status is a point-in-time snapshot of one agent.
type Status struct {
	Service     string
	State       string // idle | deploying
	DeployCount int
	QueueLength int
	LastResult  *deploy.Result
}

type agentState int

const (
	stateIdle agentState = iota
	stateDeploying
)

func (s agentState) String() string {
	if s == stateDeploying {
		return "deploying"
	}
	return "idle"
}

type waiter struct {
	spec  *deploy.Spec
	reply chan *deploy.Result
}

type workerResult struct {
	correlationID string
	result        *deploy.Result
}

type workerCrash struct {
	correlationID string
	reason        string
	startedAt     time.Time
}

type statusRequest struct {
	reply chan Status
}

// Agent is the long-lived worker for one service. Construct via
// Registry.EnsureStarted; do not use directly.
type Agent struct {
	service       string
	queueCapacity int
	crashCooldown time.Duration
	idleTimeout   time.Duration
	runner        Runner
	cache         *cache.Cache

	deployRequests chan waiter
	results        chan workerResult
	crashes        chan workerCrash
	statusRequests chan statusRequest
	cooldownFired  chan struct{}
	stop           chan struct{}
	stopped        chan struct{}
}

func newAgent(service string, runner Runner, c *cache.Cache, queueCapacity int, crashCooldown, idleTimeout time.Duration) *Agent {
	return &Agent{
		service:        service,
		queueCapacity:  queueCapacity,
		crashCooldown:  crashCooldown,
		idleTimeout:    idleTimeout,
		runner:         runner,
		cache:          c,
		deployRequests: make(chan waiter),
		results:        make(chan workerResult, 1),
		crashes:        make(chan workerCrash, 1),
		statusRequests: make(chan statusRequest),
		cooldownFired:  make(chan struct{}, 1),
		stop:           make(chan struct{}),
		stopped:        make(chan struct{}),
	}
}

// run is the agent's message loop. Call with `go agent.run()`.
func (a *Agent) run() {
	defer close(a.stopped)

	state := stateIdle
	queue := make([]waiter, 0, a.queueCapacity)
	deployCount := 0
	var lastResult *deploy.Result
	var current *waiter
	var currentCorrelationID string

	hasIdleTimeout := a.idleTimeout > 0
	idleTimer := time.NewTimer(a.idleTimeout)
	if !hasIdleTimeout {
		if !idleTimer.Stop() {
			<-idleTimer.C
		}
	}
	defer idleTimer.Stop()

	if state0, ok := a.cache.ServiceState.Get(a.service); ok && state0.LastDeployID != "" {
		if cached, ok := a.cache.Deployments.Get(cache.DeploymentKey(a.service, state0.LastDeployID)); ok {
			lastResult = cached
		}
	}

	startWorker := func(w waiter) {
		state = stateDeploying
		current = &w
		currentCorrelationID = newCorrelationID(w.spec)
		go a.runWorker(w.spec, currentCorrelationID)
	}

	dequeueNext := func() {
		if state != stateIdle || len(queue) == 0 {
			return
		}
		next := queue[0]
		queue = queue[1:]
		startWorker(next)
	}

	for {
		select {
		case req := <-a.deployRequests:
			switch state {
			case stateIdle:
				startWorker(req)
			case stateDeploying:
				if len(queue) >= a.queueCapacity {
					telemetry.AgentQueueFullTotal.WithLabelValues(a.service).Inc()
					req.reply <- &deploy.Result{
						Service: a.service, Status: deploy.StatusFailed,
						Error: deploy.NewError(nerrors.ErrQueueFull), Timestamp: time.Now(),
					}
					continue
				}
				queue = append(queue, req)
			}

		case res := <-a.results:
			if res.correlationID != currentCorrelationID {
				continue // stale
			}
			deployCount++
			lastResult = res.result
			a.cache.Deployments.Put(cache.DeploymentKey(a.service, res.result.DeployID), res.result)
			a.cache.ServiceState.Put(a.service, cache.ServiceState{Running: true, LastDeployID: res.result.DeployID})
			if current != nil {
				current.reply <- res.result
			}
			current = nil
			state = stateIdle
			dequeueNext()

		case c := <-a.crashes:
			if c.correlationID != currentCorrelationID {
				continue // stale
			}
			telemetry.AgentCrashTotal.WithLabelValues(a.service).Inc()
			crashResult := &deploy.Result{
				Service: a.service, Status: deploy.StatusFailed,
				Error:      deploy.NewError(&nerrors.WorkerCrashError{Reason: c.reason}),
				DurationMs: time.Since(c.startedAt).Milliseconds(),
				Timestamp:  time.Now(),
			}
			nlog.Audit(nlog.AuditEvent{Action: "agent_worker_crash", Outcome: "failure", Target: a.service, Details: c.reason})
			deployCount++
			lastResult = crashResult
			a.cache.Deployments.Put(cache.DeploymentKey(a.service, c.correlationID), crashResult)
			a.cache.ServiceState.Put(a.service, cache.ServiceState{Running: true, LastDeployID: c.correlationID})
			if current != nil {
				current.reply <- crashResult
			}
			current = nil
			state = stateIdle

			if len(queue) > 0 {
				cooldown := a.crashCooldown
				go func() {
					time.Sleep(cooldown)
					select {
					case a.cooldownFired <- struct{}{}:
					default:
					}
				}()
			}

		case <-a.cooldownFired:
			dequeueNext()

		case req := <-a.statusRequests:
			req.reply <- Status{
				Service: a.service, State: state.String(),
				DeployCount: deployCount, QueueLength: len(queue), LastResult: lastResult,
			}

		case <-idleTimer.C:
			if state == stateIdle && len(queue) == 0 {
				return
			}

		case <-a.stop:
			return
		}

		if hasIdleTimeout {
			if !idleTimer.Stop() {
				select {
				case <-idleTimer.C:
				default:
				}
			}
			idleTimer.Reset(a.idleTimeout)
		}
	}
}

func (a *Agent) runWorker(spec *deploy.Spec, correlationID string) {
	startedAt := time.Now()
	defer func() {
		if r := recover(); r != nil {
			select {
			case a.crashes <- workerCrash{correlationID: correlationID, reason: fmt.Sprintf("%v", r), startedAt: startedAt}:
			default:
			}
		}
	}()

	ctx := context.Background()
	if spec.TimeoutMs > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, time.Duration(spec.TimeoutMs)*time.Millisecond)
		defer cancel()
	}

	result := a.runner(ctx, spec)
	a.results <- workerResult{correlationID: correlationID, result: result}
}

// newCorrelationID produces a short-lived token used only to match a
// worker's result or crash back to the waiter that started it. It has
// no relation to the deploy.Result.DeployID the orchestrator assigns;
// a crashed run, which never got such an id, is cached and recorded as
// the service's LastDeployID under its correlation id instead.
func newCorrelationID(spec *deploy.Spec) string {
	return fmt.Sprintf("%s-%d", spec.Service, time.Now().UnixNano())
}
