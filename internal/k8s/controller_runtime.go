package k8s

import (
	"context"
	"fmt"

	apierrors "k8s.io/apimachinery/pkg/api/errors"
	"k8s.io/apimachinery/pkg/apis/meta/v1/unstructured"
	"k8s.io/apimachinery/pkg/runtime"
	"k8s.io/client-go/rest"
	crclient "sigs.k8s.io/controller-runtime/pkg/client"

	"github.com/false-systems/nopea/internal/deploy"
	"github.com/false-systems/nopea/internal/nerrors"
)

// fieldOwner is the server-side apply field manager nopea identifies
// itself as, so conflicting managers (kubectl, a GitOps controller)
// are visible in managedFields rather than silently overwritten.
const fieldOwner = "nopea"

// ControllerRuntimeClient implements Client against a real cluster via
// sigs.k8s.io/controller-runtime. Manifests travel as
// unstructured.Unstructured so arbitrary resource kinds can be applied
// without a compiled Go type or scheme registration for each one.
type ControllerRuntimeClient struct {
	inner crclient.Client
}

// NewControllerRuntimeClient builds a ControllerRuntimeClient from a
// REST config. No scheme registration is required: every manifest is
// handled as unstructured data.
func NewControllerRuntimeClient(cfg *rest.Config) (*ControllerRuntimeClient, error) {
	c, err := crclient.New(cfg, crclient.Options{Scheme: runtime.NewScheme()})
	if err != nil {
		return nil, fmt.Errorf("building controller-runtime client: %w", err)
	}
	return &ControllerRuntimeClient{inner: c}, nil
}

func toUnstructured(m deploy.Manifest) *unstructured.Unstructured {
	return &unstructured.Unstructured{Object: map[string]interface{}(m)}
}

func fromUnstructured(u *unstructured.Unstructured) deploy.Manifest {
	return deploy.Manifest(u.Object)
}

func (c *ControllerRuntimeClient) ApplyManifest(ctx context.Context, manifest deploy.Manifest, namespace string) (deploy.Manifest, error) {
	u := toUnstructured(manifest)
	u.SetNamespace(namespace)

	if err := c.inner.Patch(ctx, u, crclient.Apply, crclient.FieldOwner(fieldOwner), crclient.ForceOwnership); err != nil {
		return nil, classify(err)
	}
	return fromUnstructured(u), nil
}

func (c *ControllerRuntimeClient) ApplyManifests(ctx context.Context, manifests []deploy.Manifest, namespace string) ([]deploy.Manifest, error) {
	applied := make([]deploy.Manifest, 0, len(manifests))
	for _, m := range manifests {
		a, err := c.ApplyManifest(ctx, m, namespace)
		if err != nil {
			return nil, err
		}
		applied = append(applied, a)
	}
	return applied, nil
}

func (c *ControllerRuntimeClient) GetResource(ctx context.Context, apiVersion, kind, name, namespace string) (deploy.Manifest, error) {
	u := &unstructured.Unstructured{}
	u.SetAPIVersion(apiVersion)
	u.SetKind(kind)

	err := c.inner.Get(ctx, crclient.ObjectKey{Name: name, Namespace: namespace}, u)
	if err != nil {
		return nil, classify(err)
	}
	return fromUnstructured(u), nil
}

func (c *ControllerRuntimeClient) DeleteResource(ctx context.Context, apiVersion, kind, name, namespace string) error {
	u := &unstructured.Unstructured{}
	u.SetAPIVersion(apiVersion)
	u.SetKind(kind)
	u.SetName(name)
	u.SetNamespace(namespace)

	if err := c.inner.Delete(ctx, u); err != nil {
		return classify(err)
	}
	return nil
}

// classify maps apimachinery errors onto nopea's stable error
// taxonomy (spec §7) so callers above this package never need to know
// about apierrors.
func classify(err error) error {
	switch {
	case apierrors.IsNotFound(err):
		return nerrors.NewNotFoundError("resource", err.Error())
	case apierrors.IsForbidden(err):
		return nerrors.ErrForbidden
	case apierrors.IsTimeout(err), apierrors.IsServerTimeout(err):
		return nerrors.ErrTimeout
	default:
		return &nerrors.ApplyFailedError{Msg: err.Error()}
	}
}
