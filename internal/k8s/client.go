package k8s

import (
	"context"

	"github.com/false-systems/nopea/internal/deploy"
)

// Client is the collaborator nopea's orchestrator and drift engine
// depend on. Implementations are selected by configuration
// (config.NopeaConfig.K8sModule); a fake may be substituted wholesale
// for tests.
type Client interface {
	// ApplyManifests server-side applies a batch of manifests into
	// namespace, returning the applied sequence in the same order.
	ApplyManifests(ctx context.Context, manifests []deploy.Manifest, namespace string) ([]deploy.Manifest, error)
	// ApplyManifest server-side applies a single manifest.
	ApplyManifest(ctx context.Context, manifest deploy.Manifest, namespace string) (deploy.Manifest, error)
	// GetResource fetches one resource by coordinates. A not-found
	// result is reported via nerrors.NotFoundError, not a bool.
	GetResource(ctx context.Context, apiVersion, kind, name, namespace string) (deploy.Manifest, error)
	// DeleteResource deletes one resource by coordinates.
	DeleteResource(ctx context.Context, apiVersion, kind, name, namespace string) error
}
