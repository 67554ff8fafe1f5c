// Copyright (c) 2024-2025 Six After, Inc
//
// This source code is licensed under the Apache 2.0 License found in the
// LICENSE file in the root directory of this source tree.

package graph

// DescendantSubgraph returns the subgraph induced by node and every node
// reachable from it.
func (g *Graph[T]) DescendantSubgraph(node T) *Graph[T] {
	nodes := append([]T{node}, g.Descendants(node)...)
	return g.Subgraph(nodes)
}

// AncestorSubgraph returns the subgraph induced by node and every node
// that can reach it.
func (g *Graph[T]) AncestorSubgraph(node T) *Graph[T] {
	nodes := append([]T{node}, g.Ancestors(node)...)
	return g.Subgraph(nodes)
}

// ConnectingSubgraph returns the subgraph induced by every node that lies
// on some directed path from source to target: the intersection of
// source's descendants with target's ancestors, plus the two endpoints.
// It is the minimal witness naming every edge implicated in a
// reachability-based rejection, equivalent to graft's use of
// nx.all_simple_paths to report the routes a HasPathError is raised over,
// but stored as a graph rather than an enumerated path list. It returns
// *NoConnectingSubgraphError[T] when target is unreachable from source,
// rather than an empty graph, since an empty subgraph would be
// indistinguishable from a caller passing two unrelated isolated nodes.
func (g *Graph[T]) ConnectingSubgraph(source, target T) (*Graph[T], error) {
	if source == target {
		return g.Subgraph([]T{source}), nil
	}
	descOfSource := make(map[T]struct{})
	for _, n := range g.Descendants(source) {
		descOfSource[n] = struct{}{}
	}
	if _, ok := descOfSource[target]; !ok {
		return nil, &NoConnectingSubgraphError[T]{Source: source, Target: target}
	}
	ancOfTarget := make(map[T]struct{})
	for _, n := range g.Ancestors(target) {
		ancOfTarget[n] = struct{}{}
	}
	nodes := []T{source, target}
	for n := range descOfSource {
		if _, ok := ancOfTarget[n]; ok {
			nodes = append(nodes, n)
		}
	}
	return g.Subgraph(nodes), nil
}
