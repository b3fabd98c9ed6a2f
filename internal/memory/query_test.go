package memory

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/false-systems/nopea/internal/graph"
)

func TestFailurePatterns_SortedByConfidenceDescending(t *testing.T) {
	g := graph.New()
	svc := g.UpsertNode(graph.KindConcept, "checkout", 0.5, "m0")
	errA := g.UpsertNode(graph.KindError, "timeout", 0.5, "m0")
	errB := g.UpsertNode(graph.KindError, "oom", 0.5, "m0")
	g.UpsertRelationship(svc.ID, graph.RelationBreaks, errA.ID, 0.6, "m1", "e1")
	g.UpsertRelationship(svc.ID, graph.RelationBreaks, errB.ID, 0.95, "m1", "e2")

	patterns := failurePatterns(g, svc.ID)
	require.Len(t, patterns, 2)
	assert.Equal(t, "oom", patterns[0].Error)
	assert.Equal(t, "timeout", patterns[1].Error)
}

func TestDependencies_OnlyDependsOnRelation(t *testing.T) {
	g := graph.New()
	svc := g.UpsertNode(graph.KindConcept, "checkout", 0.5, "m0")
	dep := g.UpsertNode(graph.KindConcept, "billing", 0.5, "m0")
	errNode := g.UpsertNode(graph.KindError, "timeout", 0.5, "m0")
	g.UpsertRelationship(svc.ID, graph.RelationDependsOn, dep.ID, 0.6, "m1", "")
	g.UpsertRelationship(svc.ID, graph.RelationBreaks, errNode.ID, 0.6, "m1", "")

	deps := dependencies(g, svc.ID)
	require.Len(t, deps, 1)
	assert.Equal(t, "billing", deps[0].TargetName)
}

func TestRecommendations_OnlyHighConfidenceRepeatedFailures(t *testing.T) {
	patterns := []FailurePattern{
		{Error: "timeout", Confidence: 0.8, Observations: 2},
		{Error: "oom", Confidence: 0.8, Observations: 1},
		{Error: "crash", Confidence: 0.5, Observations: 5},
	}
	out := recommendations(patterns)
	require.Len(t, out, 1)
	assert.Contains(t, out[0], "timeout")
}
