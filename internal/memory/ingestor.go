package memory

import (
	"fmt"
	"strings"
	"time"

	"github.com/false-systems/nopea/internal/graph"
)

// Outcome is the input the ingestor maps onto graph mutations: the
// result of one deploy, reduced to the fields the graph cares about.
type Outcome struct {
	Service          string
	Namespace        string
	Status           string // completed | failed | rolledback
	Error            interface{}
	ConcurrentDeploys []string
}

// confidence maps a deploy status onto the node/relationship
// confidence the ingestor reinforces with.
func confidenceFor(status string) float64 {
	switch status {
	case "completed":
		return 0.9
	case "failed":
		return 0.8
	case "rolledback":
		return 0.7
	default:
		return 0.5
	}
}

// ingest applies outcome's mapping rules to g using marker as the
// first_seen/last_seen identifier for every node/relationship touched.
// Malformed outcomes (missing service) leave g unchanged.
func ingest(g *graph.Graph, outcome Outcome, marker string) error {
	if outcome.Service == "" {
		return fmt.Errorf("ingest: outcome missing required field service")
	}

	confidence := confidenceFor(outcome.Status)

	serviceNode := g.UpsertNode(graph.KindConcept, outcome.Service, confidence, marker)
	nsNode := g.UpsertNode(graph.KindConcept, "namespace:"+outcome.Namespace, 0.5, marker)

	evidence := fmt.Sprintf("deploy %s at %s", outcome.Status, time.Now().UTC().Format(time.RFC3339))
	g.UpsertRelationship(serviceNode.ID, graph.RelationDeployedTo, nsNode.ID, confidence, marker, evidence)

	if outcome.Status == "failed" && outcome.Error != nil {
		tag, ok := normalizeErrorTag(outcome.Error)
		if ok {
			errNode := g.UpsertNode(graph.KindError, tag, 0.8, marker)
			breakEvidence := fmt.Sprintf("deploy failed: %s", tag)
			g.UpsertRelationship(serviceNode.ID, graph.RelationBreaks, errNode.ID, 0.8, marker, breakEvidence)
		}
	}

	for _, name := range outcome.ConcurrentDeploys {
		g.UpsertNode(graph.KindConcept, name, 0.5, marker)
	}

	return nil
}

// normalizeErrorTag reduces an arbitrary error value to a short
// printable lowercase tag: a string is lowercased directly, a Stringer
// or error via its text, anything else is rendered with fmt first.
func normalizeErrorTag(v interface{}) (string, bool) {
	switch val := v.(type) {
	case nil:
		return "", false
	case string:
		if val == "" {
			return "", false
		}
		return strings.ToLower(val), true
	case fmt.Stringer:
		return strings.ToLower(val.String()), true
	case error:
		return strings.ToLower(val.Error()), true
	default:
		return strings.ToLower(fmt.Sprintf("%v", val)), true
	}
}
