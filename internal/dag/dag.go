package dag

import (
	"fmt"
)

// New creates and returns an initialized, empty Graph.
func New() *Graph {
	return &Graph{
		nodes: make(map[string]*node),
	}
}

// AddNode adds a new node with the given ID to the graph. If a node with
// the same ID already exists, the function does nothing.
func (g *Graph) AddNode(id string) {
	g.mutex.Lock()
	defer g.mutex.Unlock()

	if _, ok := g.nodes[id]; ok {
		return
	}

	g.nodes[id] = &node{id: id}
	g.order = append(g.order, id)
}

// AddEdge creates a directed edge from the `fromID` node to the `toID` node.
// This signifies that `toID` has a dependency on `fromID`. Edges are kept in
// the order they are added; adding the same edge twice is a no-op. An error
// is returned if either node does not exist or if the edge would create a
// self-reference.
func (g *Graph) AddEdge(fromID, toID string) error {
	if fromID == toID {
		return fmt.Errorf("self-referential edge not allowed: %s -> %s", fromID, fromID)
	}

	g.mutex.Lock()
	defer g.mutex.Unlock()

	fromNode, ok := g.nodes[fromID]
	if !ok {
		return fmt.Errorf("source node not found: %s", fromID)
	}

	toNode, ok := g.nodes[toID]
	if !ok {
		return fmt.Errorf("destination node not found: %s", toID)
	}

	if toNode.hasDep(fromID) {
		return nil
	}
	toNode.deps = append(toNode.deps, fromNode)
	fromNode.dependents = append(fromNode.dependents, toNode)

	return nil
}

// Has reports whether a node with the given ID exists.
func (g *Graph) Has(id string) bool {
	g.mutex.RLock()
	defer g.mutex.RUnlock()
	_, ok := g.nodes[id]
	return ok
}

// Nodes returns all node IDs in insertion order.
func (g *Graph) Nodes() []string {
	g.mutex.RLock()
	defer g.mutex.RUnlock()
	return append([]string(nil), g.order...)
}

// Dependencies returns the IDs the given node depends on, in declaration order.
func (g *Graph) Dependencies(id string) ([]string, error) {
	g.mutex.RLock()
	defer g.mutex.RUnlock()

	n, ok := g.nodes[id]
	if !ok {
		return nil, unknownNode(id)
	}

	deps := make([]string, 0, len(n.deps))
	for _, d := range n.deps {
		deps = append(deps, d.id)
	}
	return deps, nil
}

// Dependents returns the IDs of nodes that depend on the given node.
func (g *Graph) Dependents(id string) ([]string, error) {
	g.mutex.RLock()
	defer g.mutex.RUnlock()

	n, ok := g.nodes[id]
	if !ok {
		return nil, unknownNode(id)
	}

	dependents := make([]string, 0, len(n.dependents))
	for _, d := range n.dependents {
		dependents = append(dependents, d.id)
	}
	return dependents, nil
}

// Closure returns the node and all of its transitive prerequisites in the
// order a depth-first, declaration-ordered walk would finish them. Each ID
// appears once and the requested node is always last. The graph must be
// acyclic.
func (g *Graph) Closure(id string) ([]string, error) {
	g.mutex.RLock()
	defer g.mutex.RUnlock()

	root, ok := g.nodes[id]
	if !ok {
		return nil, unknownNode(id)
	}

	var order []string
	seen := make(map[string]bool)
	var visit func(n *node)
	visit = func(n *node) {
		if seen[n.id] {
			return
		}
		seen[n.id] = true
		for _, d := range n.deps {
			visit(d)
		}
		order = append(order, n.id)
	}
	visit(root)
	return order, nil
}

// DetectCycles checks the graph for any cycles. It returns a *GraphError
// wrapping ErrCycleFound with the offending path if one is found.
func (g *Graph) DetectCycles() error {
	g.mutex.RLock()
	defer g.mutex.RUnlock()

	// Classic depth-first search with three colours: unvisited (absent),
	// on the current path (temporary), and finished (permanent).
	temporary := make(map[string]bool)
	permanent := make(map[string]bool)
	var path []string

	var visit func(n *node) error
	visit = func(n *node) error {
		if permanent[n.id] {
			return nil
		}
		if temporary[n.id] {
			start := 0
			for i, p := range path {
				if p == n.id {
					start = i
					break
				}
			}
			cycle := append(append([]string(nil), path[start:]...), n.id)
			return cycleError(cycle)
		}

		temporary[n.id] = true
		path = append(path, n.id)

		for _, dep := range n.deps {
			if err := visit(dep); err != nil {
				return err
			}
		}

		path = path[:len(path)-1]
		delete(temporary, n.id)
		permanent[n.id] = true
		return nil
	}

	// Iterate in insertion order so the reported cycle is deterministic.
	for _, id := range g.order {
		if err := visit(g.nodes[id]); err != nil {
			return err
		}
	}
	return nil
}
