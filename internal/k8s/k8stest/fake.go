// Package k8stest provides an in-memory k8s.Client test double so
// orchestrator, strategy, and drift tests never need a real cluster.
package k8stest

import (
	"context"
	"fmt"
	"sync"

	"github.com/false-systems/nopea/internal/deploy"
	"github.com/false-systems/nopea/internal/nerrors"
)

// Fake is a concurrency-safe, in-memory k8s.Client. Resources are
// keyed by apiVersion/kind/namespace/name; ApplyManifest upserts,
// GetResource/DeleteResource read or remove by the same key.
type Fake struct {
	mu        sync.Mutex
	resources map[string]deploy.Manifest
	// ApplyErr, when set, is returned from every Apply* call instead
	// of mutating state — used to simulate a broken K8s client.
	ApplyErr error
}

// NewFake returns an empty Fake.
func NewFake() *Fake {
	return &Fake{resources: make(map[string]deploy.Manifest)}
}

func key(apiVersion, kind, namespace, name string) string {
	return fmt.Sprintf("%s/%s/%s/%s", apiVersion, kind, namespace, name)
}

func manifestKey(m deploy.Manifest, namespace string) string {
	apiVersion, _ := m["apiVersion"].(string)
	kind, _ := m["kind"].(string)
	name := ""
	if metadata, ok := m["metadata"].(map[string]interface{}); ok {
		name, _ = metadata["name"].(string)
	}
	return key(apiVersion, kind, namespace, name)
}

func (f *Fake) ApplyManifest(_ context.Context, manifest deploy.Manifest, namespace string) (deploy.Manifest, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.ApplyErr != nil {
		return nil, f.ApplyErr
	}
	f.resources[manifestKey(manifest, namespace)] = manifest
	return manifest, nil
}

func (f *Fake) ApplyManifests(ctx context.Context, manifests []deploy.Manifest, namespace string) ([]deploy.Manifest, error) {
	applied := make([]deploy.Manifest, 0, len(manifests))
	for _, m := range manifests {
		a, err := f.ApplyManifest(ctx, m, namespace)
		if err != nil {
			return nil, err
		}
		applied = append(applied, a)
	}
	return applied, nil
}

func (f *Fake) GetResource(_ context.Context, apiVersion, kind, name, namespace string) (deploy.Manifest, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	m, ok := f.resources[key(apiVersion, kind, namespace, name)]
	if !ok {
		return nil, nerrors.NewNotFoundError("resource", name)
	}
	return m, nil
}

func (f *Fake) DeleteResource(_ context.Context, apiVersion, kind, name, namespace string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	k := key(apiVersion, kind, namespace, name)
	if _, ok := f.resources[k]; !ok {
		return nerrors.NewNotFoundError("resource", name)
	}
	delete(f.resources, k)
	return nil
}

// Seed directly installs a resource, bypassing Apply, for building
// "live" cluster state in tests without going through the apply path.
func (f *Fake) Seed(manifest deploy.Manifest, namespace string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.resources[manifestKey(manifest, namespace)] = manifest
}
