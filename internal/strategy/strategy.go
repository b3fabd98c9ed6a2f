package strategy

import (
	"context"

	"github.com/false-systems/nopea/internal/deploy"
	"github.com/false-systems/nopea/internal/k8s"
	"github.com/false-systems/nopea/internal/nerrors"
)

// Execute runs spec.Strategy against client, returning the sequence of
// manifests actually applied.
func Execute(ctx context.Context, client k8s.Client, spec *deploy.Spec) ([]deploy.Manifest, error) {
	switch spec.Strategy {
	case deploy.StrategyCanary, deploy.StrategyBlueGreen:
		return executeRollout(ctx, client, spec)
	default:
		return client.ApplyManifests(ctx, spec.Manifests, spec.Namespace)
	}
}

func executeRollout(ctx context.Context, client k8s.Client, spec *deploy.Spec) ([]deploy.Manifest, error) {
	rollout, err := BuildRolloutManifest(spec)
	if err != nil {
		return nil, err
	}
	applied, err := client.ApplyManifest(ctx, rollout, spec.Namespace)
	if err != nil {
		return nil, err
	}
	return []deploy.Manifest{applied}, nil
}

// BuildRolloutManifest translates spec into the single "Rollout"
// envelope canary/blue_green hand off to an external progressive
// -delivery collaborator (spec §4.7).
func BuildRolloutManifest(spec *deploy.Spec) (deploy.Manifest, error) {
	deployment := findDeployment(spec.Manifests)
	if deployment == nil {
		return nil, nerrors.ErrNoDeploymentFound
	}

	depSpec, _ := (*deployment)["spec"].(map[string]interface{})

	rolloutSpec := map[string]interface{}{
		"replicas": depSpec["replicas"],
		"selector": depSpec["selector"],
		"template": depSpec["template"],
	}

	switch spec.Strategy {
	case deploy.StrategyCanary:
		rolloutSpec["strategy"] = map[string]interface{}{
			"canary": map[string]interface{}{
				"steps":         canarySteps(spec.Options.CanarySteps),
				"canaryService": spec.Service + "-canary",
				"stableService": spec.Service,
			},
		}
	case deploy.StrategyBlueGreen:
		rolloutSpec["strategy"] = map[string]interface{}{
			"blueGreen": map[string]interface{}{
				"activeService":  spec.Service,
				"previewService": spec.Service + "-preview",
			},
		}
	}

	return deploy.Manifest{
		"apiVersion": "kulta.io/v1alpha1",
		"kind":       "Rollout",
		"metadata": map[string]interface{}{
			"name":      spec.Service,
			"namespace": spec.Namespace,
			"labels": map[string]interface{}{
				"app.kubernetes.io/managed-by": "nopea",
			},
		},
		"spec": rolloutSpec,
	}, nil
}

func canarySteps(weights []int) []interface{} {
	steps := make([]interface{}, len(weights))
	for i, w := range weights {
		steps[i] = map[string]interface{}{"setWeight": w}
	}
	return steps
}

func findDeployment(manifests []deploy.Manifest) *deploy.Manifest {
	for i, m := range manifests {
		if kind, _ := m["kind"].(string); kind == "Deployment" {
			return &manifests[i]
		}
	}
	return nil
}
