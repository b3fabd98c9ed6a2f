package cmd

import (
	"fmt"

	ctrl "sigs.k8s.io/controller-runtime"

	"github.com/false-systems/nopea/internal/agentrt"
	"github.com/false-systems/nopea/internal/cache"
	"github.com/false-systems/nopea/internal/cdevents"
	"github.com/false-systems/nopea/internal/config"
	"github.com/false-systems/nopea/internal/ident"
	"github.com/false-systems/nopea/internal/k8s"
	"github.com/false-systems/nopea/internal/k8s/k8stest"
	"github.com/false-systems/nopea/internal/memory"
	"github.com/false-systems/nopea/internal/orchestrator"
)

// app bundles everything a CLI command needs once configuration and
// the collaborator set are assembled. Memory's owning goroutine is
// already running; callers should defer app.Close().
type app struct {
	cfg          config.NopeaConfig
	cache        *cache.Cache
	memory       *memory.Service
	orchestrator *orchestrator.Orchestrator
	registry     *agentrt.Registry
}

// newApp loads configuration, builds every collaborator, and starts
// the memory service's owning goroutine.
func newApp() (*app, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, fmt.Errorf("loading config: %w", err)
	}

	client, err := newK8sClient(cfg)
	if err != nil {
		return nil, fmt.Errorf("building k8s client: %w", err)
	}

	c := cache.New()
	memSvc := memory.New(c, ident.New(), cfg.DecayInterval)
	go memSvc.Run()

	emitter := cdevents.New(cfg.CDEventsEndpoint)
	orch := orchestrator.New(client, c, memSvc, emitter, cfg.AutoCanaryThreshold)

	registry := agentrt.NewRegistry(orch.Run, c, cfg.QueueCapacity, cfg.CrashCooldown, cfg.IdleTimeout)

	return &app{cfg: cfg, cache: c, memory: memSvc, orchestrator: orch, registry: registry}, nil
}

// Close stops the memory service and every live agent.
func (a *app) Close() {
	a.registry.Stop()
	a.memory.Stop()
}

// newK8sClient selects the K8s collaborator implementation named by
// cfg.K8sModule. "fake" is a test-injection hook for running the CLI
// against the in-memory double with no cluster available; anything
// else uses a real controller-runtime client against the ambient
// kubeconfig / in-cluster config.
func newK8sClient(cfg config.NopeaConfig) (k8s.Client, error) {
	if cfg.K8sModule == "fake" {
		return k8stest.NewFake(), nil
	}

	restCfg, err := ctrl.GetConfig()
	if err != nil {
		return nil, fmt.Errorf("resolving kubeconfig: %w", err)
	}
	return k8s.NewControllerRuntimeClient(restCfg)
}
