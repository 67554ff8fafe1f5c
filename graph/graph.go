// Copyright (c) 2024-2025 Six After, Inc
//
// This source code is licensed under the Apache 2.0 License found in the
// LICENSE file in the root directory of this source tree.

// Package graph implements the layered directed-graph kernel that the
// hierarchy and dependency graphs are built on: a bare Graph of comparable
// nodes, a DAG layer that rejects edges which would close a cycle, and a
// ReducedDAG layer that additionally rejects edges made redundant by an
// existing path. Each layer embeds the one below it and shadows the
// methods whose validation it tightens.
package graph

// Graph is a simple directed graph over comparable node values. It allows
// parallel structure in both directions (A -> B and B -> A may coexist)
// and places no constraint on cycles; those constraints are added by the
// DAG and ReducedDAG layers.
//
// A Graph is not safe for concurrent use; callers needing concurrent
// access must serialize it externally.
type Graph[T comparable] struct {
	nodes map[T]struct{}
	succ  map[T]map[T]struct{}
	pred  map[T]map[T]struct{}
}

// New returns an empty Graph.
func New[T comparable]() *Graph[T] {
	return &Graph[T]{
		nodes: make(map[T]struct{}),
		succ:  make(map[T]map[T]struct{}),
		pred:  make(map[T]map[T]struct{}),
	}
}

// AddNode inserts node into the graph. It returns ErrNodeAlreadyExists if
// the node is already present.
func (g *Graph[T]) AddNode(node T) error {
	if _, ok := g.nodes[node]; ok {
		return ErrNodeAlreadyExists
	}
	g.nodes[node] = struct{}{}
	g.succ[node] = make(map[T]struct{})
	g.pred[node] = make(map[T]struct{})
	return nil
}

// RemoveNode deletes node and every edge incident to it. It returns
// ErrNodeNotFound if the node is absent.
func (g *Graph[T]) RemoveNode(node T) error {
	if _, ok := g.nodes[node]; !ok {
		return ErrNodeNotFound
	}
	for succ := range g.succ[node] {
		delete(g.pred[succ], node)
	}
	for pred := range g.pred[node] {
		delete(g.succ[pred], node)
	}
	delete(g.succ, node)
	delete(g.pred, node)
	delete(g.nodes, node)
	return nil
}

// RemoveIsolatedNode deletes node only if it has no incident edges. It
// returns ErrNodeHasNeighbours if the node has any successors or
// predecessors, and ErrNodeNotFound if the node is absent.
func (g *Graph[T]) RemoveIsolatedNode(node T) error {
	if _, ok := g.nodes[node]; !ok {
		return ErrNodeNotFound
	}
	if len(g.succ[node]) > 0 || len(g.pred[node]) > 0 {
		return ErrNodeHasNeighbours
	}
	delete(g.succ, node)
	delete(g.pred, node)
	delete(g.nodes, node)
	return nil
}

// HasNode reports whether node is present in the graph.
func (g *Graph[T]) HasNode(node T) bool {
	_, ok := g.nodes[node]
	return ok
}

// Nodes returns every node in the graph, in no particular order.
func (g *Graph[T]) Nodes() []T {
	out := make([]T, 0, len(g.nodes))
	for n := range g.nodes {
		out = append(out, n)
	}
	return out
}

// Order returns the number of nodes in the graph.
func (g *Graph[T]) Order() int {
	return len(g.nodes)
}

// validateNewEdge runs the checks common to every layer: both endpoints
// must exist, the edge must not be a self-loop, and it must not already
// be present.
func (g *Graph[T]) validateNewEdge(source, target T) error {
	if !g.HasNode(source) || !g.HasNode(target) {
		return ErrNodeNotFound
	}
	if source == target {
		return ErrSelfLoop
	}
	if g.HasEdge(source, target) {
		return ErrEdgeAlreadyExists
	}
	return nil
}

// insertEdge records the edge without running any validation. Layers call
// this once their own checks have passed.
func (g *Graph[T]) insertEdge(source, target T) {
	g.succ[source][target] = struct{}{}
	g.pred[target][source] = struct{}{}
}

// AddEdge inserts a directed edge from source to target. It returns
// ErrNodeNotFound if either endpoint is missing, ErrSelfLoop if source
// equals target, and ErrEdgeAlreadyExists if the edge is already present.
func (g *Graph[T]) AddEdge(source, target T) error {
	if err := g.validateNewEdge(source, target); err != nil {
		return err
	}
	g.insertEdge(source, target)
	return nil
}

// RemoveEdge deletes the edge from source to target. It returns
// ErrEdgeNotFound if the edge is not present.
func (g *Graph[T]) RemoveEdge(source, target T) error {
	if !g.HasEdge(source, target) {
		return ErrEdgeNotFound
	}
	delete(g.succ[source], target)
	delete(g.pred[target], source)
	return nil
}

// HasEdge reports whether a directed edge from source to target exists.
func (g *Graph[T]) HasEdge(source, target T) bool {
	targets, ok := g.succ[source]
	if !ok {
		return false
	}
	_, ok = targets[target]
	return ok
}

// Successors returns the nodes that source has a direct edge to.
func (g *Graph[T]) Successors(source T) []T {
	return sortedKeys(g.succ[source])
}

// Predecessors returns the nodes that have a direct edge to target.
func (g *Graph[T]) Predecessors(target T) []T {
	return sortedKeys(g.pred[target])
}

// OutDegree returns the number of direct successors of node.
func (g *Graph[T]) OutDegree(node T) int {
	return len(g.succ[node])
}

// InDegree returns the number of direct predecessors of node.
func (g *Graph[T]) InDegree(node T) int {
	return len(g.pred[node])
}

// Edge is a directed pair of nodes.
type Edge[T comparable] struct {
	Source T
	Target T
}

// Edges returns every edge in the graph, in no particular order.
func (g *Graph[T]) Edges() []Edge[T] {
	out := make([]Edge[T], 0)
	for s, targets := range g.succ {
		for t := range targets {
			out = append(out, Edge[T]{Source: s, Target: t})
		}
	}
	return out
}

// Roots returns the nodes with no predecessors.
func (g *Graph[T]) Roots() []T {
	out := make([]T, 0)
	for n := range g.nodes {
		if len(g.pred[n]) == 0 {
			out = append(out, n)
		}
	}
	return out
}

// Leaves returns the nodes with no successors.
func (g *Graph[T]) Leaves() []T {
	out := make([]T, 0)
	for n := range g.nodes {
		if len(g.succ[n]) == 0 {
			out = append(out, n)
		}
	}
	return out
}

// reachable reports whether a directed path from source to target exists,
// and if so returns one such path, source first and target last.
func (g *Graph[T]) reachable(source, target T) (bool, []T) {
	if source == target {
		return true, []T{source}
	}
	visited := map[T]struct{}{source: {}}
	parent := map[T]T{}
	queue := []T{source}
	for len(queue) > 0 {
		node := queue[0]
		queue = queue[1:]
		for next := range g.succ[node] {
			if _, seen := visited[next]; seen {
				continue
			}
			visited[next] = struct{}{}
			parent[next] = node
			if next == target {
				return true, buildPath(parent, source, target)
			}
			queue = append(queue, next)
		}
	}
	return false, nil
}

func buildPath[T comparable](parent map[T]T, source, target T) []T {
	path := []T{target}
	cur := target
	for cur != source {
		cur = parent[cur]
		path = append([]T{cur}, path...)
	}
	return path
}

// Reachable reports whether a directed path from source to target exists
// and, if so, returns one such path, source first and target last. It is
// exported for domain wrappers (hierarchy, dependency, network) that need
// to run their own reachability-based checks ahead of or instead of
// AddEdge's built-in ones, so they can control check ordering and build
// their own witnesses.
func (g *Graph[T]) Reachable(source, target T) (bool, []T) {
	return g.reachable(source, target)
}

// Descendants returns every node reachable from node by following edges
// forward, not including node itself.
func (g *Graph[T]) Descendants(node T) []T {
	visited := map[T]struct{}{node: {}}
	queue := []T{node}
	out := make([]T, 0)
	for len(queue) > 0 {
		cur := queue[0]
		queue = queue[1:]
		for next := range g.succ[cur] {
			if _, ok := visited[next]; ok {
				continue
			}
			visited[next] = struct{}{}
			out = append(out, next)
			queue = append(queue, next)
		}
	}
	return out
}

// Ancestors returns every node that can reach node by following edges
// forward, not including node itself.
func (g *Graph[T]) Ancestors(node T) []T {
	visited := map[T]struct{}{node: {}}
	queue := []T{node}
	out := make([]T, 0)
	for len(queue) > 0 {
		cur := queue[0]
		queue = queue[1:]
		for prev := range g.pred[cur] {
			if _, ok := visited[prev]; ok {
				continue
			}
			visited[prev] = struct{}{}
			out = append(out, prev)
			queue = append(queue, prev)
		}
	}
	return out
}

// Subgraph returns a new Graph containing exactly the given nodes and
// every edge of the receiver whose endpoints are both in that set. It is
// used to build minimal witness subgraphs for structural-violation errors.
func (g *Graph[T]) Subgraph(nodes []T) *Graph[T] {
	sub := New[T]()
	set := make(map[T]struct{}, len(nodes))
	for _, n := range nodes {
		set[n] = struct{}{}
		_ = sub.AddNode(n)
	}
	for s := range set {
		for t := range g.succ[s] {
			if _, ok := set[t]; ok {
				_ = sub.AddEdge(s, t)
			}
		}
	}
	return sub
}
