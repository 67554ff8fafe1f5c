// Copyright (c) 2024-2025 Six After, Inc
//
// This source code is licensed under the Apache 2.0 License found in the
// LICENSE file in the root directory of this source tree.

// Package priority is a pure function over a task.System view, producing
// active concrete tasks in descending priority order. It performs no
// mutation and holds no state beyond the memoization caches scoped to a
// single Rank call, following §4.7 and §9's memoization note (progress
// rollup, importance propagation, and upstream-completeness are each
// computed once per task per call).
package priority

import (
	"sort"

	"github.com/sixafter/tasknet/attributes"
	"github.com/sixafter/tasknet/task"
	"github.com/sixafter/tasknet/taskid"
)

// Task is one ranked entry: the task UID together with the importance
// figures that decided its rank, exposed so callers (and tests) can
// inspect why a task sorted where it did.
type Task struct {
	UID                         taskid.UID
	OwnImportance               *attributes.Importance
	HighestDownstreamImportance *attributes.Importance
	CombinedImportance          *attributes.Importance
	Progress                    attributes.Progress
}

// ranker holds the per-call memoization caches described in §9.
type ranker struct {
	system               *task.System
	progress             map[taskid.UID]attributes.Progress
	ownImportance        map[taskid.UID]*attributes.Importance
	downstreamImportance map[taskid.UID]*attributes.Importance
	upstreamComplete     map[taskid.UID]bool
}

// Rank returns every active concrete task in descending priority order.
func Rank(s *task.System) []Task {
	r := &ranker{
		system:               s,
		progress:             make(map[taskid.UID]attributes.Progress),
		ownImportance:        make(map[taskid.UID]*attributes.Importance),
		downstreamImportance: make(map[taskid.UID]*attributes.Importance),
		upstreamComplete:     make(map[taskid.UID]bool),
	}

	var active []Task
	for _, uid := range s.Tasks() {
		if !s.IsConcrete(uid) {
			continue
		}
		progress := r.taskProgress(uid)
		if progress == attributes.Completed {
			continue
		}
		if progress == attributes.NotStarted && !r.isUpstreamComplete(uid) {
			continue
		}
		own := r.taskOwnImportance(uid)
		downstream := r.taskDownstreamImportance(uid)
		combined := maxImportance(own, downstream)
		active = append(active, Task{
			UID:                         uid,
			OwnImportance:               own,
			HighestDownstreamImportance: downstream,
			CombinedImportance:          combined,
			Progress:                    progress,
		})
	}

	sort.SliceStable(active, func(i, j int) bool {
		a, b := active[i], active[j]
		if c := compareImportance(a.CombinedImportance, b.CombinedImportance); c != 0 {
			return c > 0
		}
		if c := compareImportance(a.OwnImportance, b.OwnImportance); c != 0 {
			return c > 0
		}
		if c := compareProgress(a.Progress, b.Progress); c != 0 {
			return c > 0
		}
		return a.UID < b.UID
	})
	return active
}

func (r *ranker) taskProgress(uid taskid.UID) attributes.Progress {
	if p, ok := r.progress[uid]; ok {
		return p
	}
	p, _ := r.system.GetProgress(uid)
	r.progress[uid] = p
	return p
}

func (r *ranker) taskOwnImportance(uid taskid.UID) *attributes.Importance {
	if imp, ok := r.ownImportance[uid]; ok {
		return imp
	}
	imp, _, _ := r.system.GetImportance(uid)
	r.ownImportance[uid] = imp
	return imp
}

// isUpstreamComplete reports whether every dependee of uid, and every
// dependee of any hierarchy-ancestor of uid, has derived progress
// COMPLETED.
func (r *ranker) isUpstreamComplete(uid taskid.UID) bool {
	if v, ok := r.upstreamComplete[uid]; ok {
		return v
	}
	net := r.system.Network()
	check := func(u taskid.UID) bool {
		for _, dependee := range net.Dependency.DependeeTasks(u) {
			if r.taskProgress(dependee) != attributes.Completed {
				return false
			}
		}
		return true
	}
	ok := check(uid)
	if ok {
		for _, ancestor := range net.Hierarchy.SuperiorTasks(uid) {
			if !check(ancestor) {
				ok = false
				break
			}
		}
	}
	r.upstreamComplete[uid] = ok
	return ok
}

// taskDownstreamImportance walks dependency-forward and hierarchy-up
// edges from uid to find the highest own/inferred importance among
// reachable tasks, propagating importance toward dependency sinks.
func (r *ranker) taskDownstreamImportance(uid taskid.UID) *attributes.Importance {
	if imp, ok := r.downstreamImportance[uid]; ok {
		return imp
	}
	// Mark visited before recursing so a reentrant call during
	// memoization (there should be none, given the DAG invariants) finds
	// a safe default rather than looping.
	r.downstreamImportance[uid] = nil

	net := r.system.Network()
	visited := map[taskid.UID]struct{}{uid: {}}
	queue := append(net.Dependency.DependentTasks(uid), net.Hierarchy.Supertasks(uid)...)
	var best *attributes.Importance
	for len(queue) > 0 {
		node := queue[0]
		queue = queue[1:]
		if _, ok := visited[node]; ok {
			continue
		}
		visited[node] = struct{}{}

		if imp := r.taskOwnImportance(node); imp != nil {
			best = maxImportance(best, imp)
			if best != nil && *best == attributes.High {
				r.downstreamImportance[uid] = best
				return best
			}
		}
		queue = append(queue, net.Dependency.DependentTasks(node)...)
		queue = append(queue, net.Hierarchy.Supertasks(node)...)
	}
	r.downstreamImportance[uid] = best
	return best
}

func maxImportance(a, b *attributes.Importance) *attributes.Importance {
	if a == nil {
		return b
	}
	if b == nil {
		return a
	}
	if *a >= *b {
		return a
	}
	return b
}

// compareImportance returns >0 if a outranks b, <0 if b outranks a, 0 if
// equal. A nil importance sorts last (lowest).
func compareImportance(a, b *attributes.Importance) int {
	av, bv := -1, -1
	if a != nil {
		av = int(*a)
	}
	if b != nil {
		bv = int(*b)
	}
	return av - bv
}

// compareProgress ranks IN_PROGRESS above NOT_STARTED; COMPLETED never
// reaches this comparison since it is filtered out of the active set.
func compareProgress(a, b attributes.Progress) int {
	rank := func(p attributes.Progress) int {
		if p == attributes.InProgress {
			return 1
		}
		return 0
	}
	return rank(a) - rank(b)
}
