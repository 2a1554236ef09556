// Package dag provides directed graph operations for table lineage.
// It supports self-loops, cycle detection with the offending path,
// topological sorting and ancestor/descendant queries.
//
// Nodes and adjacency lists keep insertion order so that every query is
// deterministic.
package dag

import (
	"fmt"
	"slices"
	"strings"
)

// Node represents a node in the graph.
type Node struct {
	// ID is the unique identifier (table key)
	ID string
	// Data holds arbitrary node data
	Data any
}

// Graph represents a directed graph. Self-loops are allowed and kept apart
// from the other edges so that acyclicity checks can ignore them.
type Graph struct {
	order     []string
	nodes     map[string]*Node
	edges     map[string][]string // parent -> children
	parents   map[string][]string // child -> parents
	selfLoops map[string]bool
}

// NewGraph creates a new empty graph.
func NewGraph() *Graph {
	return &Graph{
		nodes:     make(map[string]*Node),
		edges:     make(map[string][]string),
		parents:   make(map[string][]string),
		selfLoops: make(map[string]bool),
	}
}

// Clone returns a copy of the graph that shares node data but no
// structure with g.
func (g *Graph) Clone() *Graph {
	c := &Graph{
		order:     slices.Clone(g.order),
		nodes:     make(map[string]*Node, len(g.nodes)),
		edges:     make(map[string][]string, len(g.edges)),
		parents:   make(map[string][]string, len(g.parents)),
		selfLoops: make(map[string]bool, len(g.selfLoops)),
	}
	for id, n := range g.nodes {
		cp := *n
		c.nodes[id] = &cp
	}
	for id, children := range g.edges {
		c.edges[id] = slices.Clone(children)
	}
	for id, parents := range g.parents {
		c.parents[id] = slices.Clone(parents)
	}
	for id := range g.selfLoops {
		c.selfLoops[id] = true
	}
	return c
}

// AddNode adds a node to the graph, or updates its data if it exists.
func (g *Graph) AddNode(id string, data any) {
	if n, exists := g.nodes[id]; exists {
		if data != nil {
			n.Data = data
		}
		return
	}
	g.nodes[id] = &Node{ID: id, Data: data}
	g.order = append(g.order, id)
}

// HasNode reports whether id is a node.
func (g *Graph) HasNode(id string) bool {
	_, ok := g.nodes[id]
	return ok
}

// AddEdge adds a directed edge from parent to child (data flows from parent
// into child). Duplicate edges are ignored.
func (g *Graph) AddEdge(parentID, childID string) error {
	if _, exists := g.nodes[parentID]; !exists {
		return fmt.Errorf("parent node %q does not exist", parentID)
	}
	if _, exists := g.nodes[childID]; !exists {
		return fmt.Errorf("child node %q does not exist", childID)
	}

	if parentID == childID {
		g.selfLoops[parentID] = true
		return nil
	}

	if !slices.Contains(g.edges[parentID], childID) {
		g.edges[parentID] = append(g.edges[parentID], childID)
	}
	if !slices.Contains(g.parents[childID], parentID) {
		g.parents[childID] = append(g.parents[childID], parentID)
	}
	return nil
}

// GetNode returns a node by ID.
func (g *Graph) GetNode(id string) (*Node, bool) {
	node, exists := g.nodes[id]
	return node, exists
}

// GetParents returns the parents of a node, excluding a self-loop.
func (g *Graph) GetParents(id string) []string {
	return g.parents[id]
}

// GetChildren returns the children of a node, excluding a self-loop.
func (g *Graph) GetChildren(id string) []string {
	return g.edges[id]
}

// GetAllNodes returns all nodes in insertion order.
func (g *Graph) GetAllNodes() []*Node {
	nodes := make([]*Node, 0, len(g.order))
	for _, id := range g.order {
		nodes = append(nodes, g.nodes[id])
	}
	return nodes
}

// NodeCount returns the number of nodes in the graph.
func (g *Graph) NodeCount() int {
	return len(g.nodes)
}

// EdgeCount returns the number of edges in the graph, self-loops included.
func (g *Graph) EdgeCount() int {
	count := len(g.selfLoops)
	for _, children := range g.edges {
		count += len(children)
	}
	return count
}

// CycleError reports a cycle between distinct nodes.
type CycleError struct {
	// Path is the ordered cycle, starting and ending at the same node,
	// e.g. [a, b, a].
	Path []string
}

func (e *CycleError) Error() string {
	return fmt.Sprintf("cycle detected: %s", strings.Join(e.Path, " -> "))
}

// FindCycle returns a cycle between distinct nodes, if any. Self-loops are
// not cycles.
func (g *Graph) FindCycle() ([]string, bool) {
	const (
		unvisited = iota
		inStack
		done
	)
	state := make(map[string]int, len(g.nodes))
	var stack []string
	var cyclePath []string

	var dfs func(id string) bool
	dfs = func(id string) bool {
		state[id] = inStack
		stack = append(stack, id)

		for _, childID := range g.edges[id] {
			switch state[childID] {
			case unvisited:
				if dfs(childID) {
					return true
				}
			case inStack:
				start := slices.Index(stack, childID)
				cyclePath = append(slices.Clone(stack[start:]), childID)
				return true
			}
		}

		stack = stack[:len(stack)-1]
		state[id] = done
		return false
	}

	for _, id := range g.order {
		if state[id] == unvisited && dfs(id) {
			return cyclePath, true
		}
	}
	return nil, false
}

// TopologicalSort returns node IDs with every parent before its children.
// Ties keep insertion order. It returns a *CycleError if the graph has a
// cycle other than a self-loop.
func (g *Graph) TopologicalSort() ([]string, error) {
	if path, ok := g.FindCycle(); ok {
		return nil, &CycleError{Path: path}
	}

	visited := make(map[string]bool, len(g.nodes))
	result := make([]string, 0, len(g.nodes))

	var visit func(id string)
	visit = func(id string) {
		if visited[id] {
			return
		}
		visited[id] = true
		for _, parentID := range g.parents[id] {
			visit(parentID)
		}
		result = append(result, id)
	}

	for _, id := range g.order {
		visit(id)
	}
	return result, nil
}

// Descendants returns every node reachable from id, in breadth-first
// order. id itself is included only if it lies on a cycle or self-loop.
func (g *Graph) Descendants(id string) []string {
	return g.reach(id, g.edges)
}

// Ancestors returns every node that reaches id, in breadth-first order.
func (g *Graph) Ancestors(id string) []string {
	return g.reach(id, g.parents)
}

func (g *Graph) reach(id string, next map[string][]string) []string {
	seen := make(map[string]bool)
	var result []string
	if g.selfLoops[id] {
		seen[id] = true
		result = append(result, id)
	}

	queue := []string{id}
	for len(queue) > 0 {
		cur := queue[0]
		queue = queue[1:]
		for _, n := range next[cur] {
			if !seen[n] {
				seen[n] = true
				result = append(result, n)
				queue = append(queue, n)
			}
		}
	}
	return result
}
