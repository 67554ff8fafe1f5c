// Copyright (c) 2024-2025 Six After, Inc
//
// This source code is licensed under the Apache 2.0 License found in the
// LICENSE file in the root directory of this source tree.

package graph

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestReducedDAGRejectsRedundantEdge(t *testing.T) {
	t.Parallel()
	is := assert.New(t)

	r := NewReducedDAG[int]()
	for _, n := range []int{1, 2, 3} {
		_ = r.AddNode(n)
	}
	is.NoError(r.AddEdge(1, 2))
	is.NoError(r.AddEdge(2, 3))

	err := r.AddEdge(1, 3)
	var redundantErr *RedundantEdgeError[int]
	is.ErrorAs(err, &redundantErr)
	is.Equal([]int{1, 2, 3}, redundantErr.Path)
}

func TestReducedDAGRejectsCycle(t *testing.T) {
	t.Parallel()
	is := assert.New(t)

	r := NewReducedDAG[int]()
	for _, n := range []int{1, 2} {
		_ = r.AddNode(n)
	}
	is.NoError(r.AddEdge(1, 2))

	err := r.AddEdge(2, 1)
	var cycleErr *CycleError[int]
	is.ErrorAs(err, &cycleErr)
}

func TestPredecessorsThatAreAncestorsOf(t *testing.T) {
	t.Parallel()
	is := assert.New(t)

	r := NewReducedDAG[int]()
	for _, n := range []int{1, 2, 3, 5} {
		_ = r.AddNode(n)
	}
	// 5 -> 1 -> 2 (source's predecessor chain), 5 -> 3 (target) directly.
	is.NoError(r.AddEdge(5, 1))
	is.NoError(r.AddEdge(1, 2))
	is.NoError(r.AddEdge(5, 3))

	found := r.PredecessorsThatAreAncestorsOf(2, 3)
	is.ElementsMatch([]int{5}, found, "5 is an ancestor of 2 with a direct edge into 3")
}
