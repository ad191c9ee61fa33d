package dag

import (
	"fmt"
)

// New creates and returns an initialized, empty Graph.
func New[K comparable]() *Graph[K] {
	return &Graph[K]{
		nodes: make(map[K]*node[K]),
	}
}

func (g *Graph[K]) get(id K) *node[K] {
	n, ok := g.nodes[id]
	if !ok {
		n = &node[K]{id: id, out: make(map[K]int)}
		g.nodes[id] = n
	}
	return n
}

// AddEdge records one edge from -> to. Self edges are refused.
func (g *Graph[K]) AddEdge(from, to K) error {
	if from == to {
		return fmt.Errorf("self-referential edge not allowed: %v -> %v", from, from)
	}

	g.mutex.Lock()
	defer g.mutex.Unlock()

	g.get(from).out[to]++
	g.get(to).in++
	return nil
}

// RemoveEdge drops one copy of from -> to. Nodes left without edges are
// forgotten.
func (g *Graph[K]) RemoveEdge(from, to K) {
	g.mutex.Lock()
	defer g.mutex.Unlock()

	fromNode, ok := g.nodes[from]
	if !ok || fromNode.out[to] == 0 {
		return
	}
	fromNode.out[to]--
	if fromNode.out[to] == 0 {
		delete(fromNode.out, to)
	}
	toNode := g.nodes[to]
	toNode.in--

	g.prune(fromNode)
	g.prune(toNode)
}

func (g *Graph[K]) prune(n *node[K]) {
	if len(n.out) == 0 && n.in == 0 {
		delete(g.nodes, n.id)
	}
}

// Successors returns the nodes id has an edge to.
func (g *Graph[K]) Successors(id K) []K {
	g.mutex.RLock()
	defer g.mutex.RUnlock()

	n, ok := g.nodes[id]
	if !ok {
		return nil
	}
	out := make([]K, 0, len(n.out))
	for to := range n.out {
		out = append(out, to)
	}
	return out
}

// Len returns the number of nodes that currently have an edge.
func (g *Graph[K]) Len() int {
	g.mutex.RLock()
	defer g.mutex.RUnlock()
	return len(g.nodes)
}

// Path returns a path from -> ... -> to following edges, including both
// ends, or nil when to is not reachable. A node is reachable from itself.
func (g *Graph[K]) Path(from, to K) []K {
	g.mutex.RLock()
	defer g.mutex.RUnlock()

	if from == to {
		return []K{from}
	}

	// Classic depth-first search; visited nodes are never expanded twice.
	visited := make(map[K]bool)
	var stack []K

	var visit func(id K) bool
	visit = func(id K) bool {
		if visited[id] {
			return false
		}
		visited[id] = true
		stack = append(stack, id)
		if id == to {
			return true
		}
		if n, ok := g.nodes[id]; ok {
			for next := range n.out {
				if visit(next) {
					return true
				}
			}
		}
		stack = stack[:len(stack)-1]
		return false
	}

	if visit(from) {
		return stack
	}
	return nil
}
