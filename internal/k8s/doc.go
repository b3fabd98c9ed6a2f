// Package k8s defines the Kubernetes collaborator interface nopea's
// orchestrator and drift engine depend on, plus a controller-runtime
// backed implementation. The interface is intentionally narrow: server
// side apply, single-resource apply, get, delete. Manifest YAML
// parsing and cluster bootstrap are out of scope; callers already hold
// structured manifests by the time they reach this package.
package k8s
