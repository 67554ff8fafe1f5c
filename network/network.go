// Copyright (c) 2024-2025 Six After, Inc
//
// This source code is licensed under the Apache 2.0 License found in the
// LICENSE file in the root directory of this source tree.

// Package network is the hardest validator in the engine: it owns one
// hierarchy graph and one dependency graph over the same task set and
// enforces the cross-graph invariants (X1-X3) that neither graph can
// enforce alone (the X4 importance rule is enforced by the task package),
// following
// original_source/graft/task_network.py's TaskNetwork class.
package network

import (
	"errors"

	"github.com/sixafter/tasknet/dependency"
	"github.com/sixafter/tasknet/graph"
	"github.com/sixafter/tasknet/hierarchy"
	"github.com/sixafter/tasknet/taskid"
)

var (
	ErrTaskAlreadyExists = errors.New("network: task already exists")
	ErrTaskDoesNotExist  = errors.New("network: task does not exist")
)

// HasNeighboursError reports that a task cannot be removed because it is
// not isolated in one or both graphs.
type HasNeighboursError struct {
	UID            taskid.UID
	Supertasks     []taskid.UID
	Subtasks       []taskid.UID
	DependeeTasks  []taskid.UID
	DependentTasks []taskid.UID
}

func (e *HasNeighboursError) Error() string {
	return "network: task still has hierarchy or dependency neighbours"
}

// Direction distinguishes which endpoint of a rejected dependency a
// witness hierarchy path runs toward.
type Direction int

const (
	DependeeToDependent Direction = iota
	DependentToDependee
)

// HierarchyPathAlreadyExistsError reports X2: a hierarchy path already
// connects the dependency's two endpoints, so the dependency would
// duplicate existing containment.
type HierarchyPathAlreadyExistsError struct {
	Dependee  taskid.UID
	Dependent taskid.UID
	Direction Direction
	Subgraph  *graph.Graph[taskid.UID]
}

func (e *HierarchyPathAlreadyExistsError) Error() string {
	return "network: a hierarchy path already exists between dependee and dependent"
}

// DependencyPathAlreadyExistsError reports X2 from the hierarchy side: a
// dependency path already connects the hierarchy edge's two endpoints.
type DependencyPathAlreadyExistsError struct {
	Supertask taskid.UID
	Subtask   taskid.UID
	Direction Direction
	Subgraph  *graph.Graph[taskid.UID]
}

func (e *DependencyPathAlreadyExistsError) Error() string {
	return "network: a dependency path already exists between supertask and subtask"
}

// StreamCycleError reports X3: the mutation would close a cycle in the
// stream graph (dependency-forward, hierarchy-up, hierarchy-down edges
// combined). Subgraph is the pre-existing stream path back to the origin.
type StreamCycleError struct {
	Source   taskid.UID
	Target   taskid.UID
	Subgraph *graph.Graph[taskid.UID]
}

func (e *StreamCycleError) Error() string {
	return "network: edge would introduce a stream cycle"
}

// StreamPathFromInferiorOfDependentError reports that a hierarchy
// descendant of the proposed dependent is already stream-upstream of the
// proposed dependee, which the new dependency would turn into a cycle
// once the dependent's inferior tasks are considered.
type StreamPathFromInferiorOfDependentError struct {
	Dependee  taskid.UID
	Dependent taskid.UID
	Inferior  taskid.UID
	Subgraph  *graph.Graph[taskid.UID]
}

func (e *StreamPathFromInferiorOfDependentError) Error() string {
	return "network: an inferior of dependent is already stream-upstream of dependee"
}

// StreamPathToInferiorOfDependeeError reports the symmetric case: the
// proposed dependent is already stream-upstream of a hierarchy descendant
// of the proposed dependee.
type StreamPathToInferiorOfDependeeError struct {
	Dependee  taskid.UID
	Dependent taskid.UID
	Inferior  taskid.UID
	Subgraph  *graph.Graph[taskid.UID]
}

func (e *StreamPathToInferiorOfDependeeError) Error() string {
	return "network: dependent is already stream-upstream of an inferior of dependee"
}

// HierarchyClashError reports X2/X4's extended form: dependee and
// dependent already share a hierarchy ancestor, so the dependency would
// duplicate containment that already orders the two tasks.
type HierarchyClashError struct {
	Dependee       taskid.UID
	Dependent      taskid.UID
	CommonAncestor taskid.UID
	Subgraph       *graph.Graph[taskid.UID]
}

func (e *HierarchyClashError) Error() string {
	return "network: dependency clashes with existing hierarchy containment"
}

// Network composes a hierarchy graph and a dependency graph over the same
// task set.
type Network struct {
	Hierarchy  *hierarchy.Graph
	Dependency *dependency.Graph
}

// New returns an empty network.
func New() *Network {
	return &Network{
		Hierarchy:  hierarchy.New(),
		Dependency: dependency.New(),
	}
}

// AddTask inserts uid into both graphs.
func (n *Network) AddTask(uid taskid.UID) error {
	if n.Hierarchy.HasTask(uid) || n.Dependency.HasTask(uid) {
		return ErrTaskAlreadyExists
	}
	if err := n.Hierarchy.AddTask(uid); err != nil {
		return err
	}
	if err := n.Dependency.AddTask(uid); err != nil {
		return err
	}
	return nil
}

// Tasks returns the shared task UID set both graphs are built over.
// Hierarchy.Kernel().Nodes() and Dependency.Kernel().Nodes() always
// agree, since AddTask/RemoveTask insert and delete in both graphs
// together; this method relies on that and reads only one of them.
func (n *Network) Tasks() []taskid.UID {
	return n.Hierarchy.Kernel().Nodes()
}

// RemoveTask deletes uid, succeeding only when it is isolated in both
// graphs.
func (n *Network) RemoveTask(uid taskid.UID) error {
	if !n.Hierarchy.HasTask(uid) || !n.Dependency.HasTask(uid) {
		return ErrTaskDoesNotExist
	}
	supertasks := n.Hierarchy.Supertasks(uid)
	subtasks := n.Hierarchy.Subtasks(uid)
	dependees := n.Dependency.DependeeTasks(uid)
	dependents := n.Dependency.DependentTasks(uid)
	if len(supertasks) > 0 || len(subtasks) > 0 || len(dependees) > 0 || len(dependents) > 0 {
		return &HasNeighboursError{
			UID:            uid,
			Supertasks:     supertasks,
			Subtasks:       subtasks,
			DependeeTasks:  dependees,
			DependentTasks: dependents,
		}
	}
	_ = n.Hierarchy.RemoveTask(uid)
	_ = n.Dependency.RemoveTask(uid)
	return nil
}

// streamStep is one hop in the stream graph, tagged with whether it
// crossed a dependency-forward edge as opposed to a hierarchy-up or
// hierarchy-down edge.
type streamStep struct {
	Node       taskid.UID
	Dependency bool
}

// streamSuccessors returns the nodes reachable from uid via one stream
// step: dependency-forward, hierarchy-up, or hierarchy-down.
func (n *Network) streamSuccessors(uid taskid.UID) []streamStep {
	steps := make([]streamStep, 0, 4)
	for _, next := range n.Dependency.DependentTasks(uid) {
		steps = append(steps, streamStep{Node: next, Dependency: true})
	}
	for _, next := range n.Hierarchy.Supertasks(uid) {
		steps = append(steps, streamStep{Node: next})
	}
	for _, next := range n.Hierarchy.Subtasks(uid) {
		steps = append(steps, streamStep{Node: next})
	}
	return steps
}

// streamState is one node of the stream-cycle search, tagged with whether
// the path reaching it has already crossed a dependency-forward edge.
// Per spec.md §4.5.1, a stream cycle requires at least one dependency
// step; a path built from hierarchy-up/hierarchy-down steps alone — e.g.
// two siblings joined only through a common supertask — is an ordinary
// hierarchy relationship, not a stream cycle, and must not be reported as
// one.
type streamState struct {
	node       taskid.UID
	dependency bool
}

// streamReaches reports whether target is reachable from source by
// following stream steps that include at least one dependency-forward
// edge, and if so returns the path, source first.
func (n *Network) streamReaches(source, target taskid.UID) (bool, []taskid.UID) {
	start := streamState{node: source}
	visited := map[streamState]bool{start: true}
	parent := map[streamState]streamState{}
	queue := []streamState{start}
	for len(queue) > 0 {
		cur := queue[0]
		queue = queue[1:]
		for _, step := range n.streamSuccessors(cur.node) {
			next := streamState{node: step.Node, dependency: cur.dependency || step.Dependency}
			if visited[next] {
				continue
			}
			visited[next] = true
			parent[next] = cur
			if next.node == target && next.dependency {
				path := []taskid.UID{next.node}
				for walk := next; walk != start; {
					walk = parent[walk]
					path = append([]taskid.UID{walk.node}, path...)
				}
				return true, path
			}
			queue = append(queue, next)
		}
	}
	return false, nil
}

// streamWitness builds a witness subgraph from a stream path, using
// whichever of the hierarchy or dependency graphs actually carries each
// consecutive edge.
func (n *Network) streamWitness(path []taskid.UID) *graph.Graph[taskid.UID] {
	g := graph.New[taskid.UID]()
	for _, node := range path {
		if !g.HasNode(node) {
			_ = g.AddNode(node)
		}
	}
	for i := 0; i+1 < len(path); i++ {
		a, b := path[i], path[i+1]
		if n.Dependency.HasDependency(a, b) || n.Hierarchy.HasHierarchy(a, b) || n.Hierarchy.HasHierarchy(b, a) {
			_ = g.AddEdge(a, b)
		}
	}
	return g
}

// AddHierarchy adds a hierarchy edge. It replicates hierarchy.Graph's own
// H1-H6 checks inline — cheapest structural rejections first (self-loop,
// duplicate, inverse), then same-graph path checks (H5 path-already-exists,
// H6 superior-subtask clash, H4 cycle) — exactly mirroring the order
// AddDependency already applies for D1-D4, before falling through to the
// cross-graph checks X2 (dependency path already exists) and X3 (stream
// cycle). Same-graph checks must run first: they are cheaper, and letting
// a cross-graph check run ahead of them means an ordinary hierarchy
// relationship (e.g. a duplicate edge, or t already a transitive subtask
// of s) gets misreported as a cross-graph violation instead of its own
// hierarchy-layer error.
func (n *Network) AddHierarchy(supertask, subtask taskid.UID) error {
	if !n.Hierarchy.HasTask(supertask) || !n.Hierarchy.HasTask(subtask) {
		return ErrTaskDoesNotExist
	}
	if supertask == subtask {
		return hierarchy.ErrLoop
	}
	if n.Hierarchy.HasHierarchy(supertask, subtask) {
		return hierarchy.ErrAlreadyExists
	}
	if n.Hierarchy.HasHierarchy(subtask, supertask) {
		return hierarchy.ErrInverseExists
	}

	// H5: a hierarchy path already connecting the two endpoints makes the
	// new edge redundant.
	if ok, path := n.Hierarchy.Kernel().Reachable(supertask, subtask); ok {
		return &hierarchy.PathAlreadyExistsError{
			Supertask: supertask,
			Subtask:   subtask,
			Subgraph:  n.Hierarchy.Kernel().Subgraph(path),
		}
	}

	// H6: subtask is already reachable as a subtask of one of supertask's
	// ancestors.
	if ancestors := n.Hierarchy.Kernel().PredecessorsThatAreAncestorsOf(supertask, subtask); len(ancestors) > 0 {
		nodes := append([]taskid.UID{supertask, subtask}, ancestors...)
		return &hierarchy.SubtaskIsAlreadySubtaskOfSuperiorError{
			Supertask: supertask,
			Subtask:   subtask,
			Ancestors: ancestors,
			Subgraph:  n.Hierarchy.Kernel().Subgraph(nodes),
		}
	}

	// H4: would subtask already reach supertask, closing a cycle.
	if ok, path := n.Hierarchy.Kernel().Reachable(subtask, supertask); ok {
		return &hierarchy.CycleError{
			Supertask: supertask,
			Subtask:   subtask,
			Subgraph:  n.Hierarchy.Kernel().Subgraph(path),
		}
	}

	// X2: a dependency path already connects the two endpoints.
	if ok, path := n.Dependency.Kernel().Reachable(supertask, subtask); ok {
		return &DependencyPathAlreadyExistsError{
			Supertask: supertask,
			Subtask:   subtask,
			Direction: DependeeToDependent,
			Subgraph:  n.Dependency.Kernel().Subgraph(path),
		}
	}
	if ok, path := n.Dependency.Kernel().Reachable(subtask, supertask); ok {
		return &DependencyPathAlreadyExistsError{
			Supertask: supertask,
			Subtask:   subtask,
			Direction: DependentToDependee,
			Subgraph:  n.Dependency.Kernel().Subgraph(path),
		}
	}

	// X3: would the new edge close a stream cycle?
	if ok, path := n.streamReaches(subtask, supertask); ok {
		return &StreamCycleError{
			Source:   supertask,
			Target:   subtask,
			Subgraph: n.streamWitness(path),
		}
	}

	return n.Hierarchy.AddHierarchy(supertask, subtask)
}

// RemoveHierarchy delegates to the hierarchy graph.
func (n *Network) RemoveHierarchy(supertask, subtask taskid.UID) error {
	return n.Hierarchy.RemoveHierarchy(supertask, subtask)
}

// AddDependency adds a dependency edge, enforcing D1-D4 via the
// dependency graph plus the cross-graph checks X1-X3 in the priority
// order fixed by task_network.py's add_dependency: hierarchy-path clash,
// then stream cycle, then the two inferior-task stream checks, then the
// hierarchy-clash check.
func (n *Network) AddDependency(dependee, dependent taskid.UID) error {
	if !n.Dependency.HasTask(dependee) || !n.Dependency.HasTask(dependent) {
		return ErrTaskDoesNotExist
	}
	if dependee == dependent {
		return dependency.ErrLoop
	}
	if n.Dependency.HasDependency(dependee, dependent) {
		return dependency.ErrAlreadyExists
	}
	if n.Dependency.HasDependency(dependent, dependee) {
		return dependency.ErrInverseExists
	}
	if ok, path := n.Dependency.Kernel().Reachable(dependent, dependee); ok {
		return &dependency.CycleError{
			Dependee:  dependee,
			Dependent: dependent,
			Subgraph:  n.Dependency.Kernel().Subgraph(path),
		}
	}

	// X1/X2: a hierarchy path already links the two endpoints directly.
	if ok, path := n.Hierarchy.Kernel().Reachable(dependee, dependent); ok {
		return &HierarchyPathAlreadyExistsError{
			Dependee:  dependee,
			Dependent: dependent,
			Direction: DependeeToDependent,
			Subgraph:  n.Hierarchy.Kernel().Subgraph(path),
		}
	}
	if ok, path := n.Hierarchy.Kernel().Reachable(dependent, dependee); ok {
		return &HierarchyPathAlreadyExistsError{
			Dependee:  dependee,
			Dependent: dependent,
			Direction: DependentToDependee,
			Subgraph:  n.Hierarchy.Kernel().Subgraph(path),
		}
	}

	// X3: would the new edge dependee -> dependent close a stream cycle?
	if ok, path := n.streamReaches(dependent, dependee); ok {
		return &StreamCycleError{
			Source:   dependee,
			Target:   dependent,
			Subgraph: n.streamWitness(path),
		}
	}

	// Is an inferior of dependent already stream-upstream of dependee?
	for _, inferior := range n.Hierarchy.InferiorTasks(dependent) {
		if ok, path := n.streamReaches(inferior, dependee); ok {
			return &StreamPathFromInferiorOfDependentError{
				Dependee:  dependee,
				Dependent: dependent,
				Inferior:  inferior,
				Subgraph:  n.streamWitness(path),
			}
		}
	}

	// Is dependent already stream-upstream of an inferior of dependee?
	for _, inferior := range n.Hierarchy.InferiorTasks(dependee) {
		if ok, path := n.streamReaches(dependent, inferior); ok {
			return &StreamPathToInferiorOfDependeeError{
				Dependee:  dependee,
				Dependent: dependent,
				Inferior:  inferior,
				Subgraph:  n.streamWitness(path),
			}
		}
	}

	// X4-adjacent hierarchy clash: do dependee and dependent already
	// share a hierarchy ancestor? This is the simplified reading of the
	// ambiguous source predicate, documented in DESIGN.md.
	dependeeAncestors := taskid.NewSet(n.Hierarchy.SuperiorTasks(dependee)...)
	for _, ancestor := range n.Hierarchy.SuperiorTasks(dependent) {
		if dependeeAncestors.Contains(ancestor) {
			nodes := []taskid.UID{dependee, dependent, ancestor}
			return &HierarchyClashError{
				Dependee:       dependee,
				Dependent:      dependent,
				CommonAncestor: ancestor,
				Subgraph:       n.Hierarchy.Kernel().Subgraph(nodes),
			}
		}
	}

	return n.Dependency.AddDependency(dependee, dependent)
}

// RemoveDependency delegates to the dependency graph.
func (n *Network) RemoveDependency(dependee, dependent taskid.UID) error {
	return n.Dependency.RemoveDependency(dependee, dependent)
}
