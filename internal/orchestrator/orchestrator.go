package orchestrator

import (
	"context"
	"os"
	"time"

	"github.com/false-systems/nopea/internal/cache"
	"github.com/false-systems/nopea/internal/cdevents"
	"github.com/false-systems/nopea/internal/deploy"
	"github.com/false-systems/nopea/internal/drift"
	"github.com/false-systems/nopea/internal/ident"
	"github.com/false-systems/nopea/internal/k8s"
	"github.com/false-systems/nopea/internal/memory"
	"github.com/false-systems/nopea/internal/nlog"
	"github.com/false-systems/nopea/internal/occurrence"
	"github.com/false-systems/nopea/internal/strategy"
	"github.com/false-systems/nopea/internal/telemetry"
)

const subsystem = "orchestrator"

// Orchestrator runs one deploy to completion (internal/agentrt.Runner
// is satisfied by its Run method), wiring every other subsystem
// together. It holds no per-deploy state; it is safe to call Run
// concurrently for different services, and the caller (normally an
// agentrt.Registry) is responsible for per-service serialization.
type Orchestrator struct {
	client             k8s.Client
	cache              *cache.Cache
	memory             *memory.Service
	ids                *ident.Generator
	emitter            *cdevents.Emitter
	autoCanaryThreshold float64
	workDir            string
}

// New builds an Orchestrator. memSvc and emitter may be nil: a nil
// memSvc yields a null context on every deploy and skips ingestion; a
// nil emitter makes CDEvents emission a no-op (cdevents.Emitter.Emit
// tolerates a nil receiver).
func New(client k8s.Client, c *cache.Cache, memSvc *memory.Service, emitter *cdevents.Emitter, autoCanaryThreshold float64) *Orchestrator {
	workDir, err := os.Getwd()
	if err != nil {
		workDir = "."
	}
	return &Orchestrator{
		client:              client,
		cache:               c,
		memory:              memSvc,
		ids:                 ident.New(),
		emitter:             emitter,
		autoCanaryThreshold: autoCanaryThreshold,
		workDir:             workDir,
	}
}

// Run executes spec.normalize()'s deploy lifecycle end to end: assign
// an id, consult Memory, select a strategy, execute it, verify the
// result against the live cluster, record the outcome, and persist the
// occurrence artifact. It never returns a nil *deploy.Result.
func (o *Orchestrator) Run(ctx context.Context, spec *deploy.Spec) *deploy.Result {
	spec.Normalize()
	deployID := o.ids.Next()
	started := time.Now()

	memCtx := o.fetchContext(spec.Service, spec.Namespace)
	strat := o.selectStrategy(spec, memCtx)
	spec.Strategy = strat

	o.emitter.Emit(cdevents.TypeDeploymentStarted, deployID, spec.Service, nil)
	nlog.Info(subsystem, "deploy.start id=%s service=%s namespace=%s strategy=%s", deployID, spec.Service, spec.Namespace, strat)

	applied, err := strategy.Execute(ctx, o.client, spec)

	result := &deploy.Result{
		DeployID:      deployID,
		Service:       spec.Service,
		Namespace:     spec.Namespace,
		Strategy:      strat,
		ManifestCount: len(spec.Manifests),
		Timestamp:     started,
	}

	if err != nil {
		result.Status = deploy.StatusFailed
		result.Error = deploy.NewError(err)
	} else {
		result.Status = deploy.StatusCompleted
		result.AppliedResources = applied
		for _, m := range applied {
			kind, _ := m["kind"].(string)
			name := ""
			if metadata, ok := m["metadata"].(map[string]interface{}); ok {
				name, _ = metadata["name"].(string)
			}
			o.cache.LastApplied.Put(cache.ResourceKey(spec.Service, kind, spec.Namespace, name), m)
		}
		result.Verified = o.verify(ctx, spec, applied)
	}
	result.DurationMs = time.Since(started).Milliseconds()

	o.recordOutcome(spec, result)
	o.cache.Deployments.Put(cache.DeploymentKey(spec.Service, deployID), result)

	artifact := occurrence.Build(result, memCtx)
	occurrence.Persist(o.workDir, artifact)

	o.emitOutcome(result)
	telemetry.DeployTotal.WithLabelValues(string(result.Status), string(result.Strategy)).Inc()
	telemetry.DeployDurationSeconds.WithLabelValues(string(result.Status), string(result.Strategy)).Observe(time.Since(started).Seconds())

	nlog.Info(subsystem, "deploy.stop id=%s service=%s status=%s verified=%t duration_ms=%d",
		deployID, spec.Service, result.Status, result.Verified, result.DurationMs)

	return result
}

// RecordExternalOutcome folds a deploy result nopea did not itself
// execute into Memory and the occurrence log — the hook for the
// rolledback case: nopea has no automatic rollback path (spec's Open
// Question iii), so an external rollback mechanism reports its outcome
// back through here rather than through Run.
func (o *Orchestrator) RecordExternalOutcome(result *deploy.Result, memCtx memory.Context) {
	o.recordOutcome(&deploy.Spec{Service: result.Service, Namespace: result.Namespace}, result)
	o.cache.Deployments.Put(cache.DeploymentKey(result.Service, result.DeployID), result)
	artifact := occurrence.Build(result, memCtx)
	occurrence.Persist(o.workDir, artifact)
	o.emitOutcome(result)
}

func (o *Orchestrator) fetchContext(service, namespace string) memory.Context {
	if o.memory == nil {
		return memory.Context{Service: service, Namespace: namespace}
	}
	return o.memory.GetDeployContext(service, namespace)
}

// selectStrategy implements the spec's step 3: an explicit, recognized
// strategy wins; otherwise a failure pattern above threshold forces
// canary; otherwise direct. An unrecognized explicit value is coerced
// to direct and logged.
func (o *Orchestrator) selectStrategy(spec *deploy.Spec, memCtx memory.Context) deploy.Strategy {
	if spec.Strategy != deploy.StrategyUnset {
		coerced := deploy.Coerce(string(spec.Strategy))
		if coerced != spec.Strategy {
			nlog.Warn(subsystem, "unknown strategy %q for service=%s, coercing to %s", spec.Strategy, spec.Service, coerced)
		}
		return coerced
	}

	for _, pattern := range memCtx.FailurePatterns {
		if pattern.Confidence > o.autoCanaryThreshold {
			return deploy.StrategyCanary
		}
	}
	return deploy.StrategyDirect
}

// verify runs post-deploy verification over every applied manifest.
// Any error is treated as "not verified", never as a deploy failure.
func (o *Orchestrator) verify(ctx context.Context, spec *deploy.Spec, applied []deploy.Manifest) bool {
	for _, manifest := range applied {
		result, err := drift.VerifyManifest(ctx, o.client, o.cache, spec.Service, spec.Namespace, manifest)
		if err != nil {
			nlog.Warn(subsystem, "post-deploy verification error for service=%s: %s", spec.Service, err)
			return false
		}
		if !result.Verified() {
			return false
		}
	}
	return true
}

func (o *Orchestrator) recordOutcome(spec *deploy.Spec, result *deploy.Result) {
	if o.memory == nil {
		return
	}
	var errPayload interface{}
	if result.Error != nil {
		errPayload = result.Error.Tag
	}
	o.memory.RecordDeploy(memory.Outcome{
		Service:   spec.Service,
		Namespace: spec.Namespace,
		Status:    string(result.Status),
		Error:     errPayload,
	})
}

func (o *Orchestrator) emitOutcome(result *deploy.Result) {
	custom := map[string]interface{}{
		"strategy": string(result.Strategy),
		"verified": result.Verified,
	}
	switch result.Status {
	case deploy.StatusCompleted:
		o.emitter.Emit(cdevents.TypeDeploymentCompleted, result.DeployID, result.Service, custom)
	case deploy.StatusFailed:
		if result.Error != nil {
			custom["error"] = result.Error.Tag
		}
		o.emitter.Emit(cdevents.TypeDeploymentFailed, result.DeployID, result.Service, custom)
	case deploy.StatusRolledback:
		o.emitter.Emit(cdevents.TypeDeploymentRolledback, result.DeployID, result.Service, custom)
	}
}
