// Copyright (c) 2024-2025 Six After, Inc
//
// This source code is licensed under the Apache 2.0 License found in the
// LICENSE file in the root directory of this source tree.

package dependency

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/sixafter/tasknet/taskid"
)

func newTasks(t *testing.T, d *Graph, uids ...taskid.UID) {
	t.Helper()
	for _, u := range uids {
		if err := d.AddTask(u); err != nil {
			t.Fatalf("AddTask(%d): %v", u, err)
		}
	}
}

func TestAddDependencyBasics(t *testing.T) {
	t.Parallel()
	is := assert.New(t)

	d := New()
	newTasks(t, d, 0, 1)

	is.NoError(d.AddDependency(0, 1))
	is.ElementsMatch([]taskid.UID{0}, d.DependeeTasks(1))
	is.ElementsMatch([]taskid.UID{1}, d.DependentTasks(0))
}

func TestAddDependencyAllowsMultiplePaths(t *testing.T) {
	t.Parallel()
	is := assert.New(t)

	d := New()
	newTasks(t, d, 0, 1, 2)
	is.NoError(d.AddDependency(0, 1))
	is.NoError(d.AddDependency(1, 2))
	// Unlike hierarchy, a redundant direct edge is permitted.
	is.NoError(d.AddDependency(0, 2))
}

func TestAddDependencyRejectsCycle(t *testing.T) {
	t.Parallel()
	is := assert.New(t)

	d := New()
	newTasks(t, d, 0, 1, 2)
	is.NoError(d.AddDependency(0, 1))
	is.NoError(d.AddDependency(1, 2))

	err := d.AddDependency(2, 0)
	var cycleErr *CycleError
	is.ErrorAs(err, &cycleErr)
}

func TestAddDependencyDuplicateAndInverse(t *testing.T) {
	t.Parallel()
	is := assert.New(t)

	d := New()
	newTasks(t, d, 0, 1)
	is.NoError(d.AddDependency(0, 1))
	is.ErrorIs(d.AddDependency(0, 1), ErrAlreadyExists)
	is.ErrorIs(d.AddDependency(1, 0), ErrInverseExists)
}

func TestRemoveTaskRequiresIsolation(t *testing.T) {
	t.Parallel()
	is := assert.New(t)

	d := New()
	newTasks(t, d, 0, 1)
	is.NoError(d.AddDependency(0, 1))

	is.ErrorIs(d.RemoveTask(0), ErrHasNeighbours)
	is.NoError(d.RemoveDependency(0, 1))
	is.NoError(d.RemoveTask(0))
}
