// Copyright (c) 2024-2025 Six After, Inc
//
// This source code is licensed under the Apache 2.0 License found in the
// LICENSE file in the root directory of this source tree.

// Package hierarchy wraps a graph.ReducedDAG of task UIDs with the
// containment vocabulary (supertask/subtask) and retranslates the kernel's
// generic errors into hierarchy-specific ones, following
// original_source/graft/constrained_graph.py's ConstrainedGraph and the
// hierarchy-facing wrapper in graft/task_network.py.
package hierarchy

import (
	"errors"

	"github.com/sixafter/tasknet/graph"
	"github.com/sixafter/tasknet/taskid"
)

// Sentinel errors. See CycleError and PathAlreadyExistsError for the
// witness-carrying variants.
var (
	ErrTaskAlreadyExists = errors.New("hierarchy: task already exists")
	ErrTaskDoesNotExist  = errors.New("hierarchy: task does not exist")
	ErrLoop              = errors.New("hierarchy: self-hierarchy is not permitted")
	ErrAlreadyExists     = errors.New("hierarchy: hierarchy edge already exists")
	ErrInverseExists     = errors.New("hierarchy: inverse hierarchy edge already exists")
	ErrDoesNotExist      = errors.New("hierarchy: hierarchy edge does not exist")
	ErrHasNeighbours     = errors.New("hierarchy: task still has supertasks or subtasks")
)

// CycleError reports that a hierarchy edge would introduce a cycle.
// Subgraph is the minimal witness: the existing path from target back to
// source.
type CycleError struct {
	Supertask taskid.UID
	Subtask   taskid.UID
	Subgraph  *graph.Graph[taskid.UID]
}

func (e *CycleError) Error() string {
	return "hierarchy: edge would introduce a cycle"
}

// PathAlreadyExistsError reports that a hierarchy path already connects
// the two endpoints, making the new edge redundant (H5). Subgraph is the
// connecting path that already exists.
type PathAlreadyExistsError struct {
	Supertask taskid.UID
	Subtask   taskid.UID
	Subgraph  *graph.Graph[taskid.UID]
}

func (e *PathAlreadyExistsError) Error() string {
	return "hierarchy: path already exists between supertask and subtask"
}

// SubtaskIsAlreadySubtaskOfSuperiorError reports H6: the proposed subtask
// is already reachable as a subtask of one of the proposed supertask's
// ancestors, so the new edge would duplicate an existing containment
// route. Subgraph names the offending ancestors.
type SubtaskIsAlreadySubtaskOfSuperiorError struct {
	Supertask taskid.UID
	Subtask   taskid.UID
	Ancestors []taskid.UID
	Subgraph  *graph.Graph[taskid.UID]
}

func (e *SubtaskIsAlreadySubtaskOfSuperiorError) Error() string {
	return "hierarchy: subtask is already a subtask of a superior of supertask"
}

// Graph is the hierarchy graph: a reduced DAG of task UIDs, named
// add_task/remove_task/add_hierarchy/remove_hierarchy per the task-network
// vocabulary rather than the kernel's generic node/edge vocabulary.
type Graph struct {
	g *graph.ReducedDAG[taskid.UID]
}

// New returns an empty hierarchy graph.
func New() *Graph {
	return &Graph{g: graph.NewReducedDAG[taskid.UID]()}
}

// AddTask inserts uid as an isolated node.
func (h *Graph) AddTask(uid taskid.UID) error {
	if err := h.g.AddNode(uid); err != nil {
		return ErrTaskAlreadyExists
	}
	return nil
}

// RemoveTask deletes uid. Callers must ensure uid is isolated first; this
// mirrors the kernel's RemoveIsolatedNode rather than cascading removal,
// since the task system is responsible for the HasNeighbours check with
// a combined hierarchy+dependency witness.
func (h *Graph) RemoveTask(uid taskid.UID) error {
	if err := h.g.RemoveIsolatedNode(uid); err != nil {
		if errors.Is(err, graph.ErrNodeHasNeighbours) {
			return ErrHasNeighbours
		}
		return ErrTaskDoesNotExist
	}
	return nil
}

// HasTask reports whether uid is present.
func (h *Graph) HasTask(uid taskid.UID) bool {
	return h.g.HasNode(uid)
}

// AddHierarchy records that subtask is contained within supertask,
// enforcing H1-H6. The check order follows
// ConstrainedGraph.add_edge: existence, self-loop, duplicate, inverse,
// path-already-exists (H5), superior-subtask clash (H6), cycle.
func (h *Graph) AddHierarchy(supertask, subtask taskid.UID) error {
	if !h.g.HasNode(supertask) || !h.g.HasNode(subtask) {
		return ErrTaskDoesNotExist
	}
	if supertask == subtask {
		return ErrLoop
	}
	if h.g.HasEdge(supertask, subtask) {
		return ErrAlreadyExists
	}
	if h.g.HasEdge(subtask, supertask) {
		return ErrInverseExists
	}

	// H5: a hierarchy path already connecting the two endpoints makes the
	// new edge redundant. Checked ahead of H6 per
	// task_network.py's add_hierarchy ordering (joining-subgraph check
	// before the superior-predecessors check).
	if ok, path := h.g.Reachable(supertask, subtask); ok {
		return &PathAlreadyExistsError{
			Supertask: supertask,
			Subtask:   subtask,
			Subgraph:  h.g.Subgraph(path),
		}
	}

	// H6: subtask is already reachable as a subtask of one of supertask's
	// ancestors.
	if ancestors := h.g.PredecessorsThatAreAncestorsOf(supertask, subtask); len(ancestors) > 0 {
		nodes := append([]taskid.UID{supertask, subtask}, ancestors...)
		return &SubtaskIsAlreadySubtaskOfSuperiorError{
			Supertask: supertask,
			Subtask:   subtask,
			Ancestors: ancestors,
			Subgraph:  h.g.Subgraph(nodes),
		}
	}

	// H4: would subtask already reach supertask, closing a cycle.
	if ok, path := h.g.Reachable(subtask, supertask); ok {
		return &CycleError{
			Supertask: supertask,
			Subtask:   subtask,
			Subgraph:  h.g.Subgraph(path),
		}
	}

	if err := h.g.AddEdge(supertask, subtask); err != nil {
		// Defensive: the checks above already rule out every rejection
		// AddEdge itself can return.
		return err
	}
	return nil
}

// RemoveHierarchy deletes the edge from supertask to subtask.
func (h *Graph) RemoveHierarchy(supertask, subtask taskid.UID) error {
	if err := h.g.RemoveEdge(supertask, subtask); err != nil {
		return ErrDoesNotExist
	}
	return nil
}

// Supertasks returns the direct supertasks of uid.
func (h *Graph) Supertasks(uid taskid.UID) []taskid.UID {
	return h.g.Predecessors(uid)
}

// Subtasks returns the direct subtasks of uid.
func (h *Graph) Subtasks(uid taskid.UID) []taskid.UID {
	return h.g.Successors(uid)
}

// SuperiorTasks returns every transitive hierarchy-ancestor of uid.
func (h *Graph) SuperiorTasks(uid taskid.UID) []taskid.UID {
	return h.g.Ancestors(uid)
}

// InferiorTasks returns every transitive hierarchy-descendant of uid.
func (h *Graph) InferiorTasks(uid taskid.UID) []taskid.UID {
	return h.g.Descendants(uid)
}

// IsConcrete reports whether uid has no subtasks.
func (h *Graph) IsConcrete(uid taskid.UID) bool {
	return h.g.OutDegree(uid) == 0
}

// ConcreteTasks returns every task with no subtasks.
func (h *Graph) ConcreteTasks() []taskid.UID {
	return h.g.Leaves()
}

// HasHierarchy reports whether a direct edge from supertask to subtask
// exists.
func (h *Graph) HasHierarchy(supertask, subtask taskid.UID) bool {
	return h.g.HasEdge(supertask, subtask)
}

// Kernel exposes the underlying reduced DAG for read-only traversal by
// the network layer (stream-cycle detection needs raw hierarchy-up and
// hierarchy-down steps alongside the dependency graph).
func (h *Graph) Kernel() *graph.ReducedDAG[taskid.UID] {
	return h.g
}
