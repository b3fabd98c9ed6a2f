package memory

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/false-systems/nopea/internal/graph"
)

func TestIngest_CompletedDeployUpsertsServiceAndNamespace(t *testing.T) {
	g := graph.New()
	err := ingest(g, Outcome{Service: "checkout", Namespace: "prod", Status: "completed"}, "m1")
	require.NoError(t, err)

	svcID := graph.NodeID(graph.KindConcept, "checkout")
	svc, ok := g.GetNode(svcID)
	require.True(t, ok)
	assert.Equal(t, 0.5, svc.Relevance)

	nsID := graph.NodeID(graph.KindConcept, "namespace:prod")
	_, ok = g.GetNode(nsID)
	assert.True(t, ok)

	rels := g.Neighbors(svcID, graph.Outgoing)
	require.Len(t, rels, 1)
	assert.Equal(t, graph.RelationDeployedTo, rels[0].Relation)
}

func TestIngest_FailedWithErrorCreatesBreaksRelationship(t *testing.T) {
	g := graph.New()
	err := ingest(g, Outcome{Service: "risky-svc", Namespace: "prod", Status: "failed", Error: "CRASH"}, "m1")
	require.NoError(t, err)

	svcID := graph.NodeID(graph.KindConcept, "risky-svc")
	breaks := g.Neighbors(svcID, graph.Outgoing)

	found := false
	for _, r := range breaks {
		if r.Relation == graph.RelationBreaks {
			found = true
			target, ok := g.GetNode(r.TargetID)
			require.True(t, ok)
			assert.Equal(t, "crash", target.Name)
		}
	}
	assert.True(t, found)
}

func TestIngest_MissingServiceLeavesGraphUnchanged(t *testing.T) {
	g := graph.New()
	err := ingest(g, Outcome{Namespace: "prod", Status: "completed"}, "m1")
	assert.Error(t, err)
	assert.Equal(t, 0, g.NodeCount())
}

func TestIngest_ConcurrentDeploysUpsertConceptNodes(t *testing.T) {
	g := graph.New()
	err := ingest(g, Outcome{Service: "checkout", Namespace: "prod", Status: "completed", ConcurrentDeploys: []string{"billing", "cart"}}, "m1")
	require.NoError(t, err)

	_, ok := g.GetNode(graph.NodeID(graph.KindConcept, "billing"))
	assert.True(t, ok)
	_, ok = g.GetNode(graph.NodeID(graph.KindConcept, "cart"))
	assert.True(t, ok)
}

func TestIngest_AutoCanaryThresholdCrossedAfterOneFailure(t *testing.T) {
	g := graph.New()
	require.NoError(t, ingest(g, Outcome{Service: "risky-svc", Namespace: "prod", Status: "failed", Error: "crash"}, "m1"))

	svcID := graph.NodeID(graph.KindConcept, "risky-svc")
	patterns := failurePatterns(g, svcID)
	require.Len(t, patterns, 1)
	assert.Greater(t, patterns[0].Confidence, 0.15)
}
