// Copyright (c) 2024-2025 Six After, Inc
//
// This source code is licensed under the Apache 2.0 License found in the
// LICENSE file in the root directory of this source tree.

package graph

// DAG is a Graph that additionally refuses any edge that would close a
// cycle. It embeds Graph and shadows AddEdge with the tightened check;
// every other Graph method is promoted unchanged.
type DAG[T comparable] struct {
	*Graph[T]
}

// NewDAG returns an empty DAG.
func NewDAG[T comparable]() *DAG[T] {
	return &DAG[T]{Graph: New[T]()}
}

// AddEdge inserts a directed edge from source to target, in addition to
// the Graph-level checks, rejecting the edge with a *CycleError if target
// can already reach source (which would close a cycle once the edge is
// added).
func (d *DAG[T]) AddEdge(source, target T) error {
	if err := d.Graph.validateNewEdge(source, target); err != nil {
		return err
	}
	if ok, path := d.Graph.reachable(target, source); ok {
		return &CycleError[T]{Source: source, Target: target, Path: path}
	}
	d.Graph.insertEdge(source, target)
	return nil
}

// TopologicalGroups partitions the DAG's nodes into layers such that every
// node in layer i has all of its predecessors in layers 0..i-1, and no
// node could be moved to an earlier layer. Layer 0 holds the roots. This
// is the longest-path-from-root grouping: a node's layer index equals the
// length of the longest path from any root to it.
func (d *DAG[T]) TopologicalGroups() [][]T {
	depth := make(map[T]int, d.Order())
	order := d.kahnOrder()
	for _, node := range order {
		d0 := 0
		for _, pred := range d.Predecessors(node) {
			if depth[pred]+1 > d0 {
				d0 = depth[pred] + 1
			}
		}
		depth[node] = d0
	}
	var groups [][]T
	for _, node := range order {
		layer := depth[node]
		for len(groups) <= layer {
			groups = append(groups, nil)
		}
		groups[layer] = append(groups[layer], node)
	}
	return groups
}

// kahnOrder returns the nodes in a topological order using Kahn's
// algorithm. Because DAG.AddEdge refuses cycle-closing edges, this always
// consumes every node.
func (d *DAG[T]) kahnOrder() []T {
	inDegree := make(map[T]int, d.Order())
	var frontier []T
	for _, n := range d.Nodes() {
		inDegree[n] = d.InDegree(n)
		if inDegree[n] == 0 {
			frontier = append(frontier, n)
		}
	}
	order := make([]T, 0, d.Order())
	for len(frontier) > 0 {
		node := frontier[0]
		frontier = frontier[1:]
		order = append(order, node)
		for _, next := range d.Successors(node) {
			inDegree[next]--
			if inDegree[next] == 0 {
				frontier = append(frontier, next)
			}
		}
	}
	return order
}
