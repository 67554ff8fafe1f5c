// Copyright (c) 2024-2025 Six After, Inc
//
// This source code is licensed under the Apache 2.0 License found in the
// LICENSE file in the root directory of this source tree.

package priority

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/sixafter/tasknet/attributes"
	"github.com/sixafter/tasknet/task"
	"github.com/sixafter/tasknet/taskid"
	"github.com/sixafter/tasknet/uidsource"
)

// newSystem creates n tasks and returns the system along with their UIDs in
// creation order. taskid.Zero is reserved as the invalid-UID sentinel, so
// the first created task is UID 1, not 0.
func newSystem(t *testing.T, n int) (*task.System, []taskid.UID) {
	t.Helper()
	s := task.NewSystem(uidsource.NewMonotonicSource())
	uids := make([]taskid.UID, 0, n)
	for i := 0; i < n; i++ {
		uid, err := s.CreateTask()
		if err != nil {
			t.Fatalf("CreateTask: %v", err)
		}
		uids = append(uids, uid)
	}
	return s, uids
}

func TestRankOrdersByImportanceThenUID(t *testing.T) {
	t.Parallel()
	is := assert.New(t)

	s, u := newSystem(t, 4)
	high := attributes.High
	low := attributes.Low
	is.NoError(s.SetImportance(u[0], &high))
	is.NoError(s.SetImportance(u[2], &low))

	ranked := Rank(s)
	got := make([]taskid.UID, 0, len(ranked))
	for _, r := range ranked {
		got = append(got, r.UID)
	}
	is.Equal([]taskid.UID{u[0], u[2], u[1], u[3]}, got)
}

func TestRankExcludesCompletedTasks(t *testing.T) {
	t.Parallel()
	is := assert.New(t)

	s, u := newSystem(t, 2)
	is.NoError(s.SetTaskProgress(u[0], attributes.Completed))

	ranked := Rank(s)
	is.Len(ranked, 1)
	is.Equal(u[1], ranked[0].UID)
}

func TestRankExcludesNotStartedWithIncompleteDependee(t *testing.T) {
	t.Parallel()
	is := assert.New(t)

	s, u := newSystem(t, 2)
	is.NoError(s.AddTaskDependency(u[0], u[1]))

	ranked := Rank(s)
	got := make([]taskid.UID, 0, len(ranked))
	for _, r := range ranked {
		got = append(got, r.UID)
	}
	is.ElementsMatch([]taskid.UID{u[0]}, got, "the dependent is not yet active because its dependee has not started")
}

func TestRankIncludesNotStartedOnceDependeeCompletes(t *testing.T) {
	t.Parallel()
	is := assert.New(t)

	s, u := newSystem(t, 2)
	is.NoError(s.AddTaskDependency(u[0], u[1]))
	is.NoError(s.SetTaskProgress(u[0], attributes.Completed))

	ranked := Rank(s)
	got := make([]taskid.UID, 0, len(ranked))
	for _, r := range ranked {
		got = append(got, r.UID)
	}
	is.ElementsMatch([]taskid.UID{u[1]}, got)
}
