package cache

import (
	"fmt"
	"strings"

	"github.com/false-systems/nopea/internal/deploy"
)

// snapshotKey is the single key under which the current graph snapshot
// lives; GraphSnapshot has exactly one entry at a time.
const snapshotKey = "current"

// ServiceState is the agent-runtime's view of one service: whether an
// agent has recorded a run for it (the runtime only ever sets Running
// to true; nothing clears it), and the deploy_id of its most recent run.
type ServiceState struct {
	Running      bool
	LastDeployID string
}

// Cache bundles the four process-wide tables nopea shares across its
// subsystems. Every table tolerates concurrent readers and writers
// from anywhere.
type Cache struct {
	Deployments   *Table[*deploy.Result]
	ServiceState  *Table[ServiceState]
	GraphSnapshot *Table[[]byte]
	LastApplied   *Table[deploy.Manifest]
}

// New returns an empty, ready-to-use Cache.
func New() *Cache {
	return &Cache{
		Deployments:   NewTable[*deploy.Result](),
		ServiceState:  NewTable[ServiceState](),
		GraphSnapshot: NewTable[[]byte](),
		LastApplied:   NewTable[deploy.Manifest](),
	}
}

// DeploymentKey builds the Deployments table key for one run.
func DeploymentKey(service, deployID string) string {
	return fmt.Sprintf("%s/%s", service, deployID)
}

// ResourceKey builds the LastApplied table key for one resource.
func ResourceKey(service, kind, namespace, name string) string {
	return fmt.Sprintf("%s|%s/%s/%s", service, kind, namespace, name)
}

// PutSnapshot stores the encoded graph snapshot bytes produced by
// memory.EncodeSnapshot.
func (c *Cache) PutSnapshot(encoded []byte) {
	c.GraphSnapshot.Put(snapshotKey, encoded)
}

// Snapshot returns the current encoded graph snapshot, if one has been
// taken.
func (c *Cache) Snapshot() ([]byte, bool) {
	return c.GraphSnapshot.Get(snapshotKey)
}

// ListDeployments returns every cached deploy.Result for service,
// ordered newest-first by DeployID (monotonic identifiers sort
// lexicographically by creation time).
func (c *Cache) ListDeployments(service string) []*deploy.Result {
	prefix := service + "/"
	out := make([]*deploy.Result, 0)
	for _, key := range c.Deployments.Keys() {
		if !strings.HasPrefix(key, prefix) {
			continue
		}
		if r, ok := c.Deployments.Get(key); ok {
			out = append(out, r)
		}
	}
	sortResultsDescending(out)
	return out
}

// ListServices returns the distinct service names with at least one
// cached deployment.
func (c *Cache) ListServices() []string {
	seen := make(map[string]struct{})
	for _, key := range c.Deployments.Keys() {
		service, _, ok := strings.Cut(key, "/")
		if !ok {
			continue
		}
		seen[service] = struct{}{}
	}
	out := make([]string, 0, len(seen))
	for s := range seen {
		out = append(out, s)
	}
	return out
}

// Available reports whether every table has been initialized. A Cache
// built via New is always available; the zero value is not, which
// lets the HTTP readiness probe detect a Server wired up without a
// properly constructed Cache.
func (c *Cache) Available() bool {
	return c.Deployments != nil && c.ServiceState != nil && c.GraphSnapshot != nil && c.LastApplied != nil
}

func sortResultsDescending(results []*deploy.Result) {
	for i := 1; i < len(results); i++ {
		j := i
		for j > 0 && results[j-1].DeployID < results[j].DeployID {
			results[j-1], results[j] = results[j], results[j-1]
			j--
		}
	}
}
