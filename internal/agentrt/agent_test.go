package agentrt

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/false-systems/nopea/internal/cache"
	"github.com/false-systems/nopea/internal/deploy"
)

func completingRunner(d time.Duration) Runner {
	return func(ctx context.Context, spec *deploy.Spec) *deploy.Result {
		time.Sleep(d)
		return &deploy.Result{
			Service: spec.Service, Namespace: spec.Namespace,
			Status: deploy.StatusCompleted, Verified: true, Timestamp: time.Now(),
		}
	}
}

func TestAgent_SingleDeployCompletes(t *testing.T) {
	c := cache.New()
	a := newAgent("checkout", completingRunner(10*time.Millisecond), c, 10, 2*time.Second, 0)
	go a.run()
	defer close(a.stop)

	reply := make(chan *deploy.Result, 1)
	a.deployRequests <- waiter{spec: &deploy.Spec{Service: "checkout"}, reply: reply}

	result := <-reply
	assert.Equal(t, deploy.StatusCompleted, result.Status)
}

// TestAgent_PreservesRunnerAssignedDeployID guards against the agent's
// internal correlation token (used only to match a worker back to its
// waiter) leaking into the public Result or the cache in place of the
// id the runner itself assigned.
func TestAgent_PreservesRunnerAssignedDeployID(t *testing.T) {
	c := cache.New()
	runner := func(ctx context.Context, spec *deploy.Spec) *deploy.Result {
		return &deploy.Result{
			DeployID: "01HQZZZZZZZZZZZZZZZZZZZZZZ",
			Service:  spec.Service, Status: deploy.StatusCompleted, Timestamp: time.Now(),
		}
	}
	a := newAgent("checkout", runner, c, 10, 2*time.Second, 0)
	go a.run()
	defer close(a.stop)

	reply := make(chan *deploy.Result, 1)
	a.deployRequests <- waiter{spec: &deploy.Spec{Service: "checkout"}, reply: reply}

	result := <-reply
	assert.Equal(t, "01HQZZZZZZZZZZZZZZZZZZZZZZ", result.DeployID)

	cached, ok := c.Deployments.Get(cache.DeploymentKey("checkout", "01HQZZZZZZZZZZZZZZZZZZZZZZ"))
	require.True(t, ok)
	assert.Equal(t, result, cached)

	state, ok := c.ServiceState.Get("checkout")
	require.True(t, ok)
	assert.Equal(t, "01HQZZZZZZZZZZZZZZZZZZZZZZ", state.LastDeployID)
}

func TestAgent_QueueFullRejectsExtraWaiters(t *testing.T) {
	c := cache.New()
	a := newAgent("checkout", completingRunner(200*time.Millisecond), c, 1, 2*time.Second, 0)
	go a.run()
	defer close(a.stop)

	first := make(chan *deploy.Result, 1)
	a.deployRequests <- waiter{spec: &deploy.Spec{Service: "checkout"}, reply: first}

	second := make(chan *deploy.Result, 1)
	a.deployRequests <- waiter{spec: &deploy.Spec{Service: "checkout"}, reply: second}

	third := make(chan *deploy.Result, 1)
	a.deployRequests <- waiter{spec: &deploy.Spec{Service: "checkout"}, reply: third}

	result := <-third
	require.NotNil(t, result.Error)
	assert.Equal(t, "queue_full", result.Error.Tag)

	<-first
	<-second
}

func TestAgent_CrashIsIsolatedAndQueueDrainsAfterCooldown(t *testing.T) {
	c := cache.New()
	crashOnce := true
	runner := func(ctx context.Context, spec *deploy.Spec) *deploy.Result {
		if crashOnce {
			crashOnce = false
			panic("boom")
		}
		return &deploy.Result{Service: spec.Service, Status: deploy.StatusCompleted, Timestamp: time.Now()}
	}
	a := newAgent("checkout", runner, c, 10, 30*time.Millisecond, 0)
	go a.run()
	defer close(a.stop)

	first := make(chan *deploy.Result, 1)
	a.deployRequests <- waiter{spec: &deploy.Spec{Service: "checkout"}, reply: first}

	second := make(chan *deploy.Result, 1)
	a.deployRequests <- waiter{spec: &deploy.Spec{Service: "checkout"}, reply: second}

	crashResult := <-first
	require.NotNil(t, crashResult.Error)
	assert.Equal(t, "worker_crash", crashResult.Error.Tag)

	select {
	case result := <-second:
		assert.Equal(t, deploy.StatusCompleted, result.Status)
	case <-time.After(2 * time.Second):
		t.Fatal("queued deploy never drained after crash cooldown")
	}
}

func TestAgent_IdleTimeoutStopsAgent(t *testing.T) {
	c := cache.New()
	a := newAgent("checkout", completingRunner(time.Millisecond), c, 10, 2*time.Second, 20*time.Millisecond)
	go a.run()

	select {
	case <-a.stopped:
	case <-time.After(time.Second):
		t.Fatal("agent did not idle-expire")
	}
}

func TestAgent_StatusReflectsLastResult(t *testing.T) {
	c := cache.New()
	a := newAgent("checkout", completingRunner(5*time.Millisecond), c, 10, 2*time.Second, 0)
	go a.run()
	defer close(a.stop)

	reply := make(chan *deploy.Result, 1)
	a.deployRequests <- waiter{spec: &deploy.Spec{Service: "checkout"}, reply: reply}
	<-reply

	statusReply := make(chan Status, 1)
	a.statusRequests <- statusRequest{reply: statusReply}
	st := <-statusReply

	assert.Equal(t, "idle", st.State)
	assert.Equal(t, 1, st.DeployCount)
	require.NotNil(t, st.LastResult)
	assert.Equal(t, deploy.StatusCompleted, st.LastResult.Status)
}
