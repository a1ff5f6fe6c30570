// Package graph provides the dependency graph used to order catalog objects:
// tables before the tables and views that reference them.
package graph

import (
	"github.com/elliotchance/orderedmap/v2"
)

// Node is one catalog object in the dependency graph.
type Node struct {
	Name string
	Kind string // "table" or "view", informational only
}

// Edge is a dependency relationship: To depends on From.
type Edge struct {
	From string
	To   string
}

// Graph is a directed dependency graph. Nodes keep their insertion order so
// every traversal is deterministic and mirrors declaration order.
type Graph struct {
	nodes      *orderedmap.OrderedMap[string, *Node]
	dependents map[string][]string // node -> nodes depending on it (outgoing edges)
	deps       map[string][]string // node -> nodes it depends on (incoming edges)
}

// NewGraph creates an empty graph.
func NewGraph() *Graph {
	return &Graph{
		nodes:      orderedmap.NewOrderedMap[string, *Node](),
		dependents: make(map[string][]string),
		deps:       make(map[string][]string),
	}
}

// AddNode adds a node. Adding an existing name replaces its metadata but
// keeps its original position.
func (g *Graph) AddNode(name, kind string) {
	g.nodes.Set(name, &Node{Name: name, Kind: kind})
}

// AddEdge records that dependent depends on dependency. Duplicate edges and
// self references are ignored; endpoints must already be nodes.
func (g *Graph) AddEdge(dependency, dependent string) {
	if dependency == dependent {
		return
	}
	for _, d := range g.dependents[dependency] {
		if d == dependent {
			return
		}
	}
	g.dependents[dependency] = append(g.dependents[dependency], dependent)
	g.deps[dependent] = append(g.deps[dependent], dependency)
}

// Dependents returns the direct dependents of name in edge insertion order.
func (g *Graph) Dependents(name string) []string {
	return g.dependents[name]
}

// Dependencies returns the nodes name directly depends on.
func (g *Graph) Dependencies(name string) []string {
	return g.deps[name]
}

// Node returns the node for name, or nil.
func (g *Graph) Node(name string) *Node {
	n, _ := g.nodes.Get(name)
	return n
}

// HasNode reports whether name is a node of the graph.
func (g *Graph) HasNode(name string) bool {
	_, ok := g.nodes.Get(name)
	return ok
}

// NodeCount returns the number of nodes.
func (g *Graph) NodeCount() int {
	return g.nodes.Len()
}

// EdgeCount returns the number of edges.
func (g *Graph) EdgeCount() int {
	count := 0
	for _, d := range g.dependents {
		count += len(d)
	}
	return count
}

// Names returns every node name in insertion order.
func (g *Graph) Names() []string {
	return g.nodes.Keys()
}

// AllEdges returns every edge, grouped by dependency in node order.
func (g *Graph) AllEdges() []Edge {
	var edges []Edge
	for _, from := range g.nodes.Keys() {
		for _, to := range g.dependents[from] {
			edges = append(edges, Edge{From: from, To: to})
		}
	}
	return edges
}

// InDegree returns the number of dependencies of name.
func (g *Graph) InDegree(name string) int {
	return len(g.deps[name])
}

// OutDegree returns the number of dependents of name.
func (g *Graph) OutDegree(name string) int {
	return len(g.dependents[name])
}
