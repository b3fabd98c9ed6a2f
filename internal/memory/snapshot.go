package memory

import (
	"bytes"
	"encoding/gob"
	"fmt"

	"github.com/false-systems/nopea/internal/graph"
)

// snapshotSchemaVersion is bumped whenever nodeRecord/relationshipRecord
// change shape; EncodeSnapshot always writes the current version and
// DecodeSnapshot rejects anything else rather than guess at a migration.
const snapshotSchemaVersion = 1

type nodeRecord struct {
	ID           string
	Kind         graph.NodeKind
	Name         string
	Relevance    float64
	Observations int
	FirstSeen    string
	LastSeen     string
}

type relationshipRecord struct {
	SourceID     string
	Relation     graph.RelationType
	TargetID     string
	Weight       float64
	Observations int
	FirstSeen    string
	LastSeen     string
	Evidence     []string
}

type envelope struct {
	SchemaVersion int
	Nodes         []nodeRecord
	Relationships []relationshipRecord
}

// EncodeSnapshot serializes g into nopea's opaque binary snapshot
// format. Only this package encodes or decodes the format.
func EncodeSnapshot(g *graph.Graph) ([]byte, error) {
	env := envelope{SchemaVersion: snapshotSchemaVersion}
	for _, n := range g.Nodes {
		env.Nodes = append(env.Nodes, nodeRecord{
			ID: n.ID, Kind: n.Kind, Name: n.Name, Relevance: n.Relevance,
			Observations: n.Observations, FirstSeen: n.FirstSeen, LastSeen: n.LastSeen,
		})
	}
	for _, r := range g.Relationships {
		env.Relationships = append(env.Relationships, relationshipRecord{
			SourceID: r.SourceID, Relation: r.Relation, TargetID: r.TargetID, Weight: r.Weight,
			Observations: r.Observations, FirstSeen: r.FirstSeen, LastSeen: r.LastSeen, Evidence: r.Evidence,
		})
	}

	var buf bytes.Buffer
	if err := gob.NewEncoder(&buf).Encode(env); err != nil {
		return nil, fmt.Errorf("encoding graph snapshot: %w", err)
	}
	return buf.Bytes(), nil
}

// DecodeSnapshot reconstructs a graph.Graph from a snapshot previously
// produced by EncodeSnapshot. A schema mismatch or malformed payload
// is reported as an error; callers fall back to an empty graph.
func DecodeSnapshot(data []byte) (*graph.Graph, error) {
	var env envelope
	if err := gob.NewDecoder(bytes.NewReader(data)).Decode(&env); err != nil {
		return nil, fmt.Errorf("decoding graph snapshot: %w", err)
	}
	if env.SchemaVersion != snapshotSchemaVersion {
		return nil, fmt.Errorf("graph snapshot schema version %d unsupported (want %d)", env.SchemaVersion, snapshotSchemaVersion)
	}

	g := graph.New()
	for _, n := range env.Nodes {
		g.Nodes[n.ID] = &graph.Node{
			ID: n.ID, Kind: n.Kind, Name: n.Name, Relevance: n.Relevance,
			Observations: n.Observations, FirstSeen: n.FirstSeen, LastSeen: n.LastSeen,
		}
	}
	for _, r := range env.Relationships {
		key := r.SourceID + "\x00" + string(r.Relation) + "\x00" + r.TargetID
		g.Relationships[key] = &graph.Relationship{
			SourceID: r.SourceID, Relation: r.Relation, TargetID: r.TargetID, Weight: r.Weight,
			Observations: r.Observations, FirstSeen: r.FirstSeen, LastSeen: r.LastSeen, Evidence: r.Evidence,
		}
	}
	return g, nil
}
