package memory

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/false-systems/nopea/internal/cache"
	"github.com/false-systems/nopea/internal/ident"
)

func newTestService(t *testing.T) (*Service, *cache.Cache) {
	t.Helper()
	c := cache.New()
	svc := New(c, ident.New(), time.Hour)
	go svc.Run()
	t.Cleanup(svc.Stop)
	return svc, c
}

func TestService_RecordThenContextObservesIt(t *testing.T) {
	svc, _ := newTestService(t)

	svc.RecordDeploy(Outcome{Service: "test-svc", Namespace: "default", Status: "completed"})

	require.Eventually(t, func() bool {
		return svc.GetDeployContext("test-svc", "default").Known
	}, 500*time.Millisecond, 5*time.Millisecond)
}

func TestService_UnknownServiceContextIsNotKnown(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := svc.GetDeployContext("never-seen", "default")
	assert.False(t, ctx.Known)
	assert.Empty(t, ctx.FailurePatterns)
}

func TestService_RecordDeployNeverBlocks(t *testing.T) {
	svc, _ := newTestService(t)
	done := make(chan struct{})
	go func() {
		for i := 0; i < 50; i++ {
			svc.RecordDeploy(Outcome{Service: "checkout", Namespace: "default", Status: "completed"})
		}
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("RecordDeploy blocked")
	}
}

func TestService_PersistsSnapshotAfterRecord(t *testing.T) {
	svc, c := newTestService(t)
	svc.RecordDeploy(Outcome{Service: "checkout", Namespace: "default", Status: "completed"})

	require.Eventually(t, func() bool {
		_, ok := c.Snapshot()
		return ok
	}, 500*time.Millisecond, 5*time.Millisecond)
}

func TestService_RestoresFromExistingSnapshot(t *testing.T) {
	c := cache.New()
	svc1 := New(c, ident.New(), time.Hour)
	go svc1.Run()
	svc1.RecordDeploy(Outcome{Service: "checkout", Namespace: "default", Status: "completed"})
	require.Eventually(t, func() bool {
		return svc1.NodeCount() >= 2
	}, 500*time.Millisecond, 5*time.Millisecond)
	svc1.Stop()

	svc2 := New(c, ident.New(), time.Hour)
	go svc2.Run()
	defer svc2.Stop()

	assert.Eventually(t, func() bool {
		return svc2.NodeCount() >= 2
	}, 500*time.Millisecond, 5*time.Millisecond)
}
