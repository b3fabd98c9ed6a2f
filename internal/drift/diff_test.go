package drift

import (
	"context"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/false-systems/nopea/internal/cache"
	"github.com/false-systems/nopea/internal/deploy"
	"github.com/false-systems/nopea/internal/k8s/k8stest"
)

func simpleManifest(image string) deploy.Manifest {
	return deploy.Manifest{
		"apiVersion": "apps/v1",
		"kind":       "Deployment",
		"metadata":   map[string]interface{}{"name": "drifted-svc"},
		"spec": map[string]interface{}{
			"template": map[string]interface{}{
				"spec": map[string]interface{}{
					"containers": []interface{}{
						map[string]interface{}{"name": "app", "image": image},
					},
				},
			},
		},
	}
}

func TestThreeWayDiff_IdenticalIsNoDrift(t *testing.T) {
	m := simpleManifest("v1")
	r, err := ThreeWayDiff(m, m, m)
	require.NoError(t, err)
	assert.Equal(t, OutcomeNoDrift, r.Outcome)
	assert.True(t, r.Verified())
}

func TestThreeWayDiff_GitChangeOnly(t *testing.T) {
	last := simpleManifest("v1")
	desired := simpleManifest("v2")
	r, err := ThreeWayDiff(last, desired, last)
	require.NoError(t, err)
	assert.Equal(t, OutcomeGitChange, r.Outcome)

	if diff := cmp.Diff(last, r.From); diff != "" {
		t.Errorf("Result.From mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff(desired, r.To); diff != "" {
		t.Errorf("Result.To mismatch (-want +got):\n%s", diff)
	}
}

func TestThreeWayDiff_ManualDriftDetected(t *testing.T) {
	last := simpleManifest("v1")
	live := simpleManifest("drifted-svc:hacked")
	r, err := ThreeWayDiff(last, last, live)
	require.NoError(t, err)
	assert.Equal(t, OutcomeManualDrift, r.Outcome)
	assert.False(t, r.Verified())
}

func TestThreeWayDiff_ConflictWhenBothChanged(t *testing.T) {
	last := simpleManifest("v1")
	desired := simpleManifest("v2")
	live := simpleManifest("v3")
	r, err := ThreeWayDiff(last, desired, live)
	require.NoError(t, err)
	assert.Equal(t, OutcomeConflict, r.Outcome)
}

func TestVerifyManifest_BothAbsentIsNewResource(t *testing.T) {
	c := cache.New()
	fake := k8stest.NewFake()
	r, err := VerifyManifest(context.Background(), fake, c, "drifted-svc", "default", simpleManifest("v1"))
	require.NoError(t, err)
	assert.Equal(t, OutcomeNewResource, r.Outcome)
}

func TestVerifyManifest_LiveOnlyNeedsApply(t *testing.T) {
	c := cache.New()
	fake := k8stest.NewFake()
	fake.Seed(simpleManifest("v1"), "default")

	r, err := VerifyManifest(context.Background(), fake, c, "drifted-svc", "default", simpleManifest("v1"))
	require.NoError(t, err)
	assert.Equal(t, OutcomeNeedsApply, r.Outcome)
}

func TestVerifyManifest_BothPresentRunsThreeWayDiff(t *testing.T) {
	c := cache.New()
	fake := k8stest.NewFake()
	last := simpleManifest("v1")
	c.LastApplied.Put(cache.ResourceKey("drifted-svc", "Deployment", "default", "drifted-svc"), last)
	fake.Seed(simpleManifest("drifted-svc:hacked"), "default")

	r, err := VerifyManifest(context.Background(), fake, c, "drifted-svc", "default", last)
	require.NoError(t, err)
	assert.Equal(t, OutcomeManualDrift, r.Outcome)
}
