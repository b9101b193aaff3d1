package models

import "fmt"

// MindMapNode is a single concept node. Content is markdown.
type MindMapNode struct {
	NodeID      string `json:"node_id"`
	NodeContent string `json:"node_content"`
	NodeType    string `json:"node_type,omitempty"`
}

// MindMapEdge connects two nodes by id, optionally labelled.
type MindMapEdge struct {
	EdgeID      string `json:"edge_id"`
	Source      string `json:"source"`
	Target      string `json:"target"`
	EdgeContent string `json:"edge_content,omitempty"`
}

// MindMap is the graph representation of a solution's reasoning structure.
// It is stored as a jsonb column on problems (reference map) and solutions
// (the user's evolving map), never as a standalone row.
type MindMap struct {
	Nodes []MindMapNode `json:"nodes"`
	Edges []MindMapEdge `json:"edges"`
}

// EmptyMindMap returns a graph with allocated, zero-length node and edge
// slices so it serializes as {"nodes":[],"edges":[]} rather than nulls.
func EmptyMindMap() MindMap {
	return MindMap{Nodes: []MindMapNode{}, Edges: []MindMapEdge{}}
}

// IsEmpty reports whether the graph carries no nodes. Edges without nodes
// are meaningless, so a graph with edges but zero nodes still counts as empty.
func (m MindMap) IsEmpty() bool {
	return len(m.Nodes) == 0
}

// Validate checks that every edge endpoint references a node present in the
// graph. Model output is validated with this before it is persisted.
func (m MindMap) Validate() error {
	ids := make(map[string]struct{}, len(m.Nodes))
	for _, n := range m.Nodes {
		if n.NodeID == "" {
			return fmt.Errorf("node with empty node_id")
		}
		ids[n.NodeID] = struct{}{}
	}
	for _, e := range m.Edges {
		if _, ok := ids[e.Source]; !ok {
			return fmt.Errorf("edge %s: unknown source node %q", e.EdgeID, e.Source)
		}
		if _, ok := ids[e.Target]; !ok {
			return fmt.Errorf("edge %s: unknown target node %q", e.EdgeID, e.Target)
		}
	}
	return nil
}
