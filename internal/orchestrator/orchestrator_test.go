package orchestrator

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/false-systems/nopea/internal/cache"
	"github.com/false-systems/nopea/internal/deploy"
	"github.com/false-systems/nopea/internal/ident"
	"github.com/false-systems/nopea/internal/k8s/k8stest"
	"github.com/false-systems/nopea/internal/memory"
)

func deploymentManifest(name string) deploy.Manifest {
	return deploy.Manifest{
		"apiVersion": "apps/v1",
		"kind":       "Deployment",
		"metadata":   map[string]interface{}{"name": name},
		"spec":       map[string]interface{}{"replicas": float64(3)},
	}
}

func newTestOrchestrator(t *testing.T, client *k8stest.Fake) (*Orchestrator, *memory.Service) {
	t.Helper()
	c := cache.New()
	memSvc := memory.New(c, ident.New(), time.Hour)
	go memSvc.Run()
	t.Cleanup(memSvc.Stop)

	o := New(client, c, memSvc, nil, 0.15)
	return o, memSvc
}

func TestRun_DirectStrategyCompletes(t *testing.T) {
	client := k8stest.NewFake()
	o, _ := newTestOrchestrator(t, client)

	spec := &deploy.Spec{
		Service: "checkout", Namespace: "default",
		Manifests: []deploy.Manifest{deploymentManifest("checkout")},
		Strategy:  deploy.StrategyDirect,
	}

	result := o.Run(context.Background(), spec)

	assert.Equal(t, deploy.StatusCompleted, result.Status)
	assert.NotEmpty(t, result.DeployID)
	assert.True(t, result.Verified)
	assert.Len(t, result.AppliedResources, 1)
}

func TestRun_UnknownStrategyCoercesToDirect(t *testing.T) {
	client := k8stest.NewFake()
	o, _ := newTestOrchestrator(t, client)

	spec := &deploy.Spec{
		Service: "checkout", Namespace: "default",
		Manifests: []deploy.Manifest{deploymentManifest("checkout")},
		Strategy:  deploy.Strategy("bogus"),
	}

	result := o.Run(context.Background(), spec)
	assert.Equal(t, deploy.StrategyDirect, result.Strategy)
	assert.Equal(t, deploy.StatusCompleted, result.Status)
}

func TestRun_ApplyFailureYieldsFailedResult(t *testing.T) {
	client := k8stest.NewFake()
	client.ApplyErr = assertError{"boom"}
	o, _ := newTestOrchestrator(t, client)

	spec := &deploy.Spec{
		Service: "checkout", Namespace: "default",
		Manifests: []deploy.Manifest{deploymentManifest("checkout")},
		Strategy:  deploy.StrategyDirect,
	}

	result := o.Run(context.Background(), spec)
	assert.Equal(t, deploy.StatusFailed, result.Status)
	require.NotNil(t, result.Error)
	assert.False(t, result.Verified)
}

func TestRun_FailurePatternAboveThresholdAutoSelectsCanary(t *testing.T) {
	client := k8stest.NewFake()
	o, memSvc := newTestOrchestrator(t, client)

	for i := 0; i < 3; i++ {
		memSvc.RecordDeploy(memory.Outcome{Service: "risky", Namespace: "default", Status: "failed", Error: "apply_failed"})
	}
	require.Eventually(t, func() bool {
		ctx := memSvc.GetDeployContext("risky", "default")
		return len(ctx.FailurePatterns) > 0 && ctx.FailurePatterns[0].Confidence > 0.15
	}, time.Second, 5*time.Millisecond)

	spec := &deploy.Spec{
		Service: "risky", Namespace: "default",
		Manifests: []deploy.Manifest{deploymentManifest("risky")},
	}
	result := o.Run(context.Background(), spec)
	assert.Equal(t, deploy.StrategyCanary, result.Strategy)
}

type assertError struct{ msg string }

func (e assertError) Error() string { return e.msg }
