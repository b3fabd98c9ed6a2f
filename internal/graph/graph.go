package graph

import (
	"encoding/hex"
	"strings"

	"golang.org/x/crypto/blake2b"
)

// alpha is the EWMA learning rate fixed by the spec; it is never a
// runtime knob, tests pin exact reinforcement trajectories against it.
const alpha = 0.3

// NodeKind classifies a knowledge-graph node.
type NodeKind string

const (
	KindConcept NodeKind = "concept"
	KindError   NodeKind = "error"
)

// RelationType names a directed edge between two nodes. The deploy
// memory ingestor produces deployed_to and breaks; depends_on is read
// by the dependency query but written by no component. The type is a
// plain string so new relations need no change to the graph core.
type RelationType string

const (
	RelationBreaks     RelationType = "breaks"
	RelationDeployedTo RelationType = "deployed_to"
	RelationDependsOn  RelationType = "depends_on"
)

// Direction selects which end of a relationship Neighbors filters on.
type Direction int

const (
	Outgoing Direction = iota
	Incoming
)

// Node is a content-addressed knowledge-graph vertex.
type Node struct {
	ID           string
	Kind         NodeKind
	Name         string // canonicalized per Kind
	Relevance    float64
	Observations int
	FirstSeen    string
	LastSeen     string
}

// Relationship is a directed, typed, weighted edge between two nodes.
type Relationship struct {
	SourceID     string
	Relation     RelationType
	TargetID     string
	Weight       float64
	Observations int
	FirstSeen    string
	LastSeen     string
	Evidence     []string
}

// Graph is a mapping from node id to node, plus a mapping from
// relationship key to relationship.
type Graph struct {
	Nodes         map[string]*Node
	Relationships map[string]*Relationship
}

// New returns an empty graph.
func New() *Graph {
	return &Graph{
		Nodes:         make(map[string]*Node),
		Relationships: make(map[string]*Relationship),
	}
}

// canonicalize applies the kind-specific name normalization: error names
// are lowercased, concept names are preserved verbatim.
func canonicalize(kind NodeKind, name string) string {
	if kind == KindError {
		return strings.ToLower(name)
	}
	return name
}

// NodeID computes the content-addressed identifier for a (kind,
// canonical name) pair: a 16-byte BLAKE2b digest, hex-encoded.
func NodeID(kind NodeKind, name string) string {
	canonical := canonicalize(kind, name)
	h, err := blake2b.New(16, nil)
	if err != nil {
		// blake2b.New only errors on an invalid key or out-of-range
		// size; both are compile-time-fixed here, so this is
		// unreachable in practice.
		panic("graph: blake2b init: " + err.Error())
	}
	h.Write([]byte(string(kind) + ":" + canonical))
	return hex.EncodeToString(h.Sum(nil))
}

func relationshipKey(sourceID string, relation RelationType, targetID string) string {
	return sourceID + "\x00" + string(relation) + "\x00" + targetID
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}

func ewma(confidence, prior float64) float64 {
	return clamp01(alpha*confidence + (1-alpha)*prior)
}

// UpsertNode creates the node for (kind, name) if absent (relevance 0.5,
// observations 1), or reinforces it via EWMA otherwise. marker is an
// opaque, sortable identifier string (typically an ident.Generator
// value) recorded as last_seen (and first_seen, on creation).
func (g *Graph) UpsertNode(kind NodeKind, name string, confidence float64, marker string) *Node {
	canonical := canonicalize(kind, name)
	id := NodeID(kind, canonical)

	if existing, ok := g.Nodes[id]; ok {
		existing.Relevance = ewma(confidence, existing.Relevance)
		existing.Observations++
		existing.LastSeen = marker
		return existing
	}

	node := &Node{
		ID:           id,
		Kind:         kind,
		Name:         canonical,
		Relevance:    0.5,
		Observations: 1,
		FirstSeen:    marker,
		LastSeen:     marker,
	}
	g.Nodes[id] = node
	return node
}

// GetNode looks up a node by id.
func (g *Graph) GetNode(id string) (*Node, bool) {
	n, ok := g.Nodes[id]
	return n, ok
}

// UpsertRelationship creates the (source, relation, target) edge if
// absent (weight 0.5, observations 1), or reinforces it via EWMA
// otherwise. evidence is always appended, never overwritten.
func (g *Graph) UpsertRelationship(sourceID string, relation RelationType, targetID string, confidence float64, marker, evidence string) *Relationship {
	key := relationshipKey(sourceID, relation, targetID)

	if existing, ok := g.Relationships[key]; ok {
		existing.Weight = ewma(confidence, existing.Weight)
		existing.Observations++
		existing.LastSeen = marker
		if evidence != "" {
			existing.Evidence = append(existing.Evidence, evidence)
		}
		return existing
	}

	rel := &Relationship{
		SourceID:     sourceID,
		Relation:     relation,
		TargetID:     targetID,
		Weight:       0.5,
		Observations: 1,
		FirstSeen:    marker,
		LastSeen:     marker,
	}
	if evidence != "" {
		rel.Evidence = []string{evidence}
	}
	g.Relationships[key] = rel
	return rel
}

// Neighbors returns the relationships incident to nodeID in the given
// direction.
func (g *Graph) Neighbors(nodeID string, direction Direction) []*Relationship {
	var out []*Relationship
	for _, rel := range g.Relationships {
		switch direction {
		case Outgoing:
			if rel.SourceID == nodeID {
				out = append(out, rel)
			}
		case Incoming:
			if rel.TargetID == nodeID {
				out = append(out, rel)
			}
		}
	}
	return out
}

// DecayAll multiplies every node's relevance and every relationship's
// weight by factor (0 <= factor <= 1), then prunes: relationships below
// weight 0.05 are dropped, followed by nodes below relevance 0.01 that
// have no remaining incident relationship. Pruning is monotone: a
// decayed-away entity never reappears without fresh ingestion.
func (g *Graph) DecayAll(factor float64) (prunedNodes, prunedRelationships int) {
	for _, n := range g.Nodes {
		n.Relevance = clamp01(n.Relevance * factor)
	}
	for _, r := range g.Relationships {
		r.Weight = clamp01(r.Weight * factor)
	}

	for key, r := range g.Relationships {
		if r.Weight < 0.05 {
			delete(g.Relationships, key)
			prunedRelationships++
		}
	}

	incident := make(map[string]bool, len(g.Nodes))
	for _, r := range g.Relationships {
		incident[r.SourceID] = true
		incident[r.TargetID] = true
	}

	for id, n := range g.Nodes {
		if n.Relevance < 0.01 && !incident[id] {
			delete(g.Nodes, id)
			prunedNodes++
		}
	}

	return prunedNodes, prunedRelationships
}

// NodeCount returns the number of live nodes.
func (g *Graph) NodeCount() int { return len(g.Nodes) }

// RelationshipCount returns the number of live relationships.
func (g *Graph) RelationshipCount() int { return len(g.Relationships) }
