// Copyright (c) 2024-2025 Six After, Inc
//
// This source code is licensed under the Apache 2.0 License found in the
// LICENSE file in the root directory of this source tree.

package hierarchy

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/sixafter/tasknet/taskid"
)

func newTasks(t *testing.T, h *Graph, uids ...taskid.UID) {
	t.Helper()
	for _, u := range uids {
		if err := h.AddTask(u); err != nil {
			t.Fatalf("AddTask(%d): %v", u, err)
		}
	}
}

func TestAddHierarchyBasics(t *testing.T) {
	t.Parallel()
	is := assert.New(t)

	h := New()
	newTasks(t, h, 0, 1, 2)

	is.NoError(h.AddHierarchy(0, 1))
	is.NoError(h.AddHierarchy(1, 2))

	is.ElementsMatch([]taskid.UID{1}, h.Subtasks(0))
	is.ElementsMatch([]taskid.UID{1, 2}, h.InferiorTasks(0))
	is.ElementsMatch([]taskid.UID{0, 1}, h.SuperiorTasks(2))
	is.False(h.IsConcrete(0))
	is.True(h.IsConcrete(2))
}

func TestAddHierarchySelfLoop(t *testing.T) {
	t.Parallel()
	is := assert.New(t)

	h := New()
	newTasks(t, h, 0)
	is.ErrorIs(h.AddHierarchy(0, 0), ErrLoop)
}

func TestAddHierarchyDuplicateAndInverse(t *testing.T) {
	t.Parallel()
	is := assert.New(t)

	h := New()
	newTasks(t, h, 0, 1)
	is.NoError(h.AddHierarchy(0, 1))
	is.ErrorIs(h.AddHierarchy(0, 1), ErrAlreadyExists)
	is.ErrorIs(h.AddHierarchy(1, 0), ErrInverseExists)
}

func TestAddHierarchyRejectsRedundantPath(t *testing.T) {
	t.Parallel()
	is := assert.New(t)

	h := New()
	newTasks(t, h, 0, 1, 2)
	is.NoError(h.AddHierarchy(0, 1))
	is.NoError(h.AddHierarchy(1, 2))

	err := h.AddHierarchy(0, 2)
	var pathErr *PathAlreadyExistsError
	is.ErrorAs(err, &pathErr)
	is.True(pathErr.Subgraph.HasEdge(0, 1))
	is.True(pathErr.Subgraph.HasEdge(1, 2))
}

func TestAddHierarchyRejectsCycle(t *testing.T) {
	t.Parallel()
	is := assert.New(t)

	h := New()
	newTasks(t, h, 0, 1)
	is.NoError(h.AddHierarchy(0, 1))

	err := h.AddHierarchy(1, 0)
	// The inverse-edge check fires first since 1 -> 0 would also be a
	// direct inverse of the existing 0 -> 1 edge.
	is.ErrorIs(err, ErrInverseExists)
}

func TestRemoveTaskRequiresIsolation(t *testing.T) {
	t.Parallel()
	is := assert.New(t)

	h := New()
	newTasks(t, h, 0, 1)
	is.NoError(h.AddHierarchy(0, 1))

	is.ErrorIs(h.RemoveTask(0), ErrHasNeighbours)
	is.NoError(h.RemoveHierarchy(0, 1))
	is.NoError(h.RemoveTask(0))
	is.False(h.HasTask(0))
}

func TestConcreteTasks(t *testing.T) {
	t.Parallel()
	is := assert.New(t)

	h := New()
	newTasks(t, h, 0, 1, 2, 3)
	is.NoError(h.AddHierarchy(0, 1))
	is.NoError(h.AddHierarchy(0, 2))

	is.ElementsMatch([]taskid.UID{1, 2, 3}, h.ConcreteTasks())
}
