package memory

import (
	"fmt"
	"sort"

	"github.com/false-systems/nopea/internal/graph"
)

// FailurePattern is one outgoing "breaks" relationship from a service
// node, ready for display or threshold comparison.
type FailurePattern struct {
	Error        string
	Confidence   float64
	Observations int
	Evidence     []string
}

// Dependency is one outgoing "depends_on" relationship from a service
// node.
type Dependency struct {
	TargetName   string
	Weight       float64
	Observations int
}

// Context is the synchronous read nopea's orchestrator consults before
// selecting a strategy, and the CLI/HTTP surfaces expose verbatim.
type Context struct {
	Service         string
	Namespace       string
	Known           bool
	FailurePatterns []FailurePattern
	Dependencies    []Dependency
	Recommendations []string
}

// failurePatterns returns g's outgoing "breaks" edges from the node
// identified by serviceID, sorted by confidence descending.
func failurePatterns(g *graph.Graph, serviceID string) []FailurePattern {
	rels := g.Neighbors(serviceID, graph.Outgoing)
	out := make([]FailurePattern, 0, len(rels))
	for _, rel := range rels {
		if rel.Relation != graph.RelationBreaks {
			continue
		}
		target, ok := g.GetNode(rel.TargetID)
		if !ok {
			continue
		}
		out = append(out, FailurePattern{
			Error:        target.Name,
			Confidence:   rel.Weight,
			Observations: rel.Observations,
			Evidence:     rel.Evidence,
		})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Confidence > out[j].Confidence })
	return out
}

// dependencies returns g's outgoing "depends_on" edges from serviceID.
func dependencies(g *graph.Graph, serviceID string) []Dependency {
	rels := g.Neighbors(serviceID, graph.Outgoing)
	out := make([]Dependency, 0, len(rels))
	for _, rel := range rels {
		if rel.Relation != graph.RelationDependsOn {
			continue
		}
		target, ok := g.GetNode(rel.TargetID)
		if !ok {
			continue
		}
		out = append(out, Dependency{TargetName: target.Name, Weight: rel.Weight, Observations: rel.Observations})
	}
	return out
}

// recommendations turns high-confidence, well-observed failure
// patterns into human-readable canary suggestions.
func recommendations(patterns []FailurePattern) []string {
	out := make([]string, 0)
	for _, p := range patterns {
		if p.Confidence > 0.7 && p.Observations >= 2 {
			out = append(out, fmt.Sprintf(
				"%s has failed %d times with %.0f%% confidence; consider a canary rollout",
				p.Error, p.Observations, p.Confidence*100))
		}
	}
	return out
}
