// Copyright (c) 2024-2025 Six After, Inc
//
// This source code is licensed under the Apache 2.0 License found in the
// LICENSE file in the root directory of this source tree.

// Package dependency wraps a graph.DAG of task UIDs with the
// must-complete-before vocabulary (dependee/dependent) and retranslates
// the kernel's generic errors into dependency-specific ones. Unlike
// hierarchy, multiple dependency paths between two tasks are permitted
// (D4 only forbids cycles, not redundancy), so this wraps graph.DAG
// rather than graph.ReducedDAG.
package dependency

import (
	"errors"

	"github.com/sixafter/tasknet/graph"
	"github.com/sixafter/tasknet/taskid"
)

var (
	ErrTaskAlreadyExists = errors.New("dependency: task already exists")
	ErrTaskDoesNotExist  = errors.New("dependency: task does not exist")
	ErrLoop              = errors.New("dependency: self-dependency is not permitted")
	ErrAlreadyExists     = errors.New("dependency: dependency edge already exists")
	ErrInverseExists     = errors.New("dependency: inverse dependency edge already exists")
	ErrDoesNotExist      = errors.New("dependency: dependency edge does not exist")
	ErrHasNeighbours     = errors.New("dependency: task still has dependees or dependents")
)

// CycleError reports that a dependency edge would introduce a cycle.
// Subgraph is the pre-existing path from dependent back to dependee.
type CycleError struct {
	Dependee  taskid.UID
	Dependent taskid.UID
	Subgraph  *graph.Graph[taskid.UID]
}

func (e *CycleError) Error() string {
	return "dependency: edge would introduce a cycle"
}

// Graph is the dependency graph: a cycle-preventing DAG of task UIDs,
// named add_task/remove_task/add_dependency/remove_dependency per the
// task-network vocabulary.
type Graph struct {
	g *graph.DAG[taskid.UID]
}

// New returns an empty dependency graph.
func New() *Graph {
	return &Graph{g: graph.NewDAG[taskid.UID]()}
}

// AddTask inserts uid as an isolated node.
func (d *Graph) AddTask(uid taskid.UID) error {
	if err := d.g.AddNode(uid); err != nil {
		return ErrTaskAlreadyExists
	}
	return nil
}

// RemoveTask deletes uid. Callers must ensure uid is isolated first.
func (d *Graph) RemoveTask(uid taskid.UID) error {
	if err := d.g.RemoveIsolatedNode(uid); err != nil {
		if errors.Is(err, graph.ErrNodeHasNeighbours) {
			return ErrHasNeighbours
		}
		return ErrTaskDoesNotExist
	}
	return nil
}

// HasTask reports whether uid is present.
func (d *Graph) HasTask(uid taskid.UID) bool {
	return d.g.HasNode(uid)
}

// AddDependency records that dependent may not start until dependee is
// COMPLETED, enforcing D1-D4.
func (d *Graph) AddDependency(dependee, dependent taskid.UID) error {
	if !d.g.HasNode(dependee) || !d.g.HasNode(dependent) {
		return ErrTaskDoesNotExist
	}
	if dependee == dependent {
		return ErrLoop
	}
	if d.g.HasEdge(dependee, dependent) {
		return ErrAlreadyExists
	}
	if d.g.HasEdge(dependent, dependee) {
		return ErrInverseExists
	}
	if err := d.g.AddEdge(dependee, dependent); err != nil {
		var cycleErr *graph.CycleError[taskid.UID]
		if errors.As(err, &cycleErr) {
			return &CycleError{
				Dependee:  dependee,
				Dependent: dependent,
				Subgraph:  d.g.Subgraph(cycleErr.Path),
			}
		}
		return err
	}
	return nil
}

// RemoveDependency deletes the edge from dependee to dependent.
func (d *Graph) RemoveDependency(dependee, dependent taskid.UID) error {
	if err := d.g.RemoveEdge(dependee, dependent); err != nil {
		return ErrDoesNotExist
	}
	return nil
}

// DependeeTasks returns the direct dependees of uid (tasks uid depends
// on).
func (d *Graph) DependeeTasks(uid taskid.UID) []taskid.UID {
	return d.g.Predecessors(uid)
}

// DependentTasks returns the direct dependents of uid (tasks that depend
// on uid).
func (d *Graph) DependentTasks(uid taskid.UID) []taskid.UID {
	return d.g.Successors(uid)
}

// HasDependency reports whether a direct edge from dependee to dependent
// exists.
func (d *Graph) HasDependency(dependee, dependent taskid.UID) bool {
	return d.g.HasEdge(dependee, dependent)
}

// Dependencies returns every dependency edge in the graph.
func (d *Graph) Dependencies() []graph.Edge[taskid.UID] {
	return d.g.Edges()
}

// Kernel exposes the underlying DAG for read-only traversal by the
// network layer.
func (d *Graph) Kernel() *graph.DAG[taskid.UID] {
	return d.g
}
