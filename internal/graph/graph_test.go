package graph

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUpsertNode_CreatesWithDefaults(t *testing.T) {
	g := New()
	n := g.UpsertNode(KindConcept, "checkout", 0.9, "m1")

	assert.Equal(t, 0.5, n.Relevance)
	assert.Equal(t, 1, n.Observations)
	assert.Equal(t, "m1", n.FirstSeen)
	assert.Equal(t, "m1", n.LastSeen)
	assert.Equal(t, 1, g.NodeCount())
}

func TestUpsertNode_SameKindAndNameCollapsesToOneNode(t *testing.T) {
	g := New()
	g.UpsertNode(KindConcept, "checkout", 0.9, "m1")
	g.UpsertNode(KindConcept, "checkout", 0.8, "m2")
	g.UpsertNode(KindConcept, "checkout", 0.7, "m3")

	assert.Equal(t, 1, g.NodeCount())
	n, ok := g.GetNode(NodeID(KindConcept, "checkout"))
	require.True(t, ok)
	assert.Equal(t, 3, n.Observations)
	assert.Equal(t, "m3", n.LastSeen)
	assert.Equal(t, "m1", n.FirstSeen)
}

func TestUpsertNode_EWMARecurrence(t *testing.T) {
	g := New()
	g.UpsertNode(KindConcept, "svc", 0.9, "m1") // relevance = 0.5
	n := g.UpsertNode(KindConcept, "svc", 0.8, "m2")

	want := 0.3*0.8 + 0.7*0.5
	assert.InDelta(t, want, n.Relevance, 1e-9)
}

func TestUpsertNode_ErrorNamesLowercased(t *testing.T) {
	g := New()
	n1 := g.UpsertNode(KindError, "CrashLoopBackOff", 0.8, "m1")
	n2 := g.UpsertNode(KindError, "crashloopbackoff", 0.8, "m2")

	assert.Equal(t, n1.ID, n2.ID)
	assert.Equal(t, "crashloopbackoff", n1.Name)
}

func TestUpsertNode_ConceptNamesPreservedVerbatim(t *testing.T) {
	g := New()
	n := g.UpsertNode(KindConcept, "MixedCase-Service", 0.5, "m1")
	assert.Equal(t, "MixedCase-Service", n.Name)
}

func TestUpsertRelationship_CreatesAndReinforces(t *testing.T) {
	g := New()
	rel := g.UpsertRelationship("a", RelationDeployedTo, "b", 0.9, "m1", "first")
	assert.Equal(t, 0.5, rel.Weight)
	assert.Equal(t, []string{"first"}, rel.Evidence)

	rel2 := g.UpsertRelationship("a", RelationDeployedTo, "b", 0.8, "m2", "second")
	assert.Same(t, rel, rel2)
	assert.Equal(t, 2, rel2.Observations)
	assert.Equal(t, []string{"first", "second"}, rel2.Evidence)
	want := 0.3*0.8 + 0.7*0.5
	assert.InDelta(t, want, rel2.Weight, 1e-9)
}

func TestNeighbors_FiltersByDirection(t *testing.T) {
	g := New()
	g.UpsertRelationship("a", RelationDeployedTo, "b", 0.9, "m1", "")
	g.UpsertRelationship("c", RelationDeployedTo, "a", 0.9, "m1", "")

	out := g.Neighbors("a", Outgoing)
	require.Len(t, out, 1)
	assert.Equal(t, "b", out[0].TargetID)

	in := g.Neighbors("a", Incoming)
	require.Len(t, in, 1)
	assert.Equal(t, "c", in[0].SourceID)
}

func TestDecayAll_PrunesLowWeightRelationshipsAndOrphanedNodes(t *testing.T) {
	g := New()
	n1 := g.UpsertNode(KindConcept, "svc", 0.5, "m1")
	n2 := g.UpsertNode(KindConcept, "ns", 0.5, "m1")
	g.UpsertRelationship(n1.ID, RelationDeployedTo, n2.ID, 0.5, "m1", "e")

	g.DecayAll(0)

	assert.Equal(t, 0, g.NodeCount())
	assert.Equal(t, 0, g.RelationshipCount())
}

func TestDecayAll_KeepsNodesWithIncidentRelationship(t *testing.T) {
	g := New()
	n1 := g.UpsertNode(KindConcept, "svc", 1.0, "m1")
	n2 := g.UpsertNode(KindConcept, "ns", 1.0, "m1")
	g.UpsertRelationship(n1.ID, RelationDeployedTo, n2.ID, 1.0, "m1", "e")

	// A light decay keeps the weight well above the relationship
	// threshold, so the relationship and both of its nodes survive.
	g.DecayAll(0.99)

	assert.Equal(t, 2, g.NodeCount())
	assert.Equal(t, 1, g.RelationshipCount())
}

func TestDecayAll_ValuesStayInUnitInterval(t *testing.T) {
	g := New()
	n := g.UpsertNode(KindConcept, "svc", 1.0, "m1")
	rel := g.UpsertRelationship(n.ID, RelationDependsOn, n.ID, 1.0, "m1", "e")

	for i := 0; i < 5; i++ {
		g.DecayAll(0.98)
	}
	if node, ok := g.GetNode(n.ID); ok {
		assert.GreaterOrEqual(t, node.Relevance, 0.0)
		assert.LessOrEqual(t, node.Relevance, 1.0)
	}
	if g.RelationshipCount() > 0 {
		assert.GreaterOrEqual(t, rel.Weight, 0.0)
		assert.LessOrEqual(t, rel.Weight, 1.0)
	}
}

func TestNodeID_DeterministicAndKindSensitive(t *testing.T) {
	id1 := NodeID(KindConcept, "foo")
	id2 := NodeID(KindConcept, "foo")
	id3 := NodeID(KindError, "foo")

	assert.Equal(t, id1, id2)
	assert.NotEqual(t, id1, id3)
	assert.Len(t, id1, 32) // 16 bytes hex-encoded
}
