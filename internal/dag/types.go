package dag

import "sync"

// Graph is a directed graph over comparable keys. Edges are counted, so the
// same edge may be added several times and is only gone once every copy has
// been removed. All operations on the graph are concurrency-safe.
type Graph[K comparable] struct {
	// mutex protects the nodes map during concurrent access.
	mutex sync.RWMutex
	// nodes stores every node that currently has an edge.
	nodes map[K]*node[K]
}

// node is a single vertex. It is un-exported to enforce interaction with the
// graph via keys.
type node[K comparable] struct {
	id K
	// out counts the edges leaving this node, by destination.
	out map[K]int
	// in is the number of edges arriving at this node.
	in int
}
