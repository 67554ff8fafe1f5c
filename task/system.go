// Copyright (c) 2024-2025 Six After, Inc
//
// This source code is licensed under the Apache 2.0 License found in the
// LICENSE file in the root directory of this source tree.

// Package task is the public contract of the engine: System ties one
// attributes register and one network graph together, derives progress,
// importance, and concreteness, and enforces the progress-gating and
// importance-chain rules that original_source/graft/task_network.py's
// TaskNetwork applies on top of its two constituent graphs.
package task

import (
	"errors"

	"github.com/sixafter/tasknet/attributes"
	"github.com/sixafter/tasknet/graph"
	"github.com/sixafter/tasknet/network"
	"github.com/sixafter/tasknet/persistence"
	"github.com/sixafter/tasknet/taskid"
	"github.com/sixafter/tasknet/uidsource"
)

var (
	ErrTaskDoesNotExist = errors.New("task: task does not exist")
	ErrNotConcreteTask  = errors.New("task: operation is only valid on a concrete task")
)

// TaskProgress pairs a task with its derived progress, used as witness
// entries on the progress-gating errors below.
type TaskProgress struct {
	UID      taskid.UID
	Progress attributes.Progress
}

// StartedDependentTasksError reports that a COMPLETED concrete task
// cannot move back to an incomplete progress because one of its direct
// dependents has already started.
type StartedDependentTasksError struct {
	UID     taskid.UID
	Witness []TaskProgress
}

func (e *StartedDependentTasksError) Error() string {
	return "task: cannot un-complete a task with started dependents"
}

// StartedDependentTasksOfSuperiorTasksError is the same rejection lifted
// through the task's hierarchy-ancestors.
type StartedDependentTasksOfSuperiorTasksError struct {
	UID     taskid.UID
	Witness []TaskProgress
}

func (e *StartedDependentTasksOfSuperiorTasksError) Error() string {
	return "task: cannot un-complete a task whose superior tasks have started dependents"
}

// IncompleteDependeeTasksError reports that a NOT_STARTED concrete task
// cannot move to a started progress because one of its direct dependees
// has not completed.
type IncompleteDependeeTasksError struct {
	UID     taskid.UID
	Witness []TaskProgress
}

func (e *IncompleteDependeeTasksError) Error() string {
	return "task: cannot start a task with incomplete dependees"
}

// IncompleteDependeeTasksOfSuperiorTasksError is the same rejection
// lifted through the task's hierarchy-ancestors.
type IncompleteDependeeTasksOfSuperiorTasksError struct {
	UID     taskid.UID
	Witness []TaskProgress
}

func (e *IncompleteDependeeTasksOfSuperiorTasksError) Error() string {
	return "task: cannot start a task whose superior tasks have incomplete dependees"
}

// SupertaskHasImportanceError reports the immediate-parent case of the
// X4 chain-conflict rejection.
type SupertaskHasImportanceError struct {
	UID       taskid.UID
	Supertask taskid.UID
	Existing  attributes.Importance
}

func (e *SupertaskHasImportanceError) Error() string {
	return "task: immediate supertask already has an explicit importance"
}

// SubtaskHasImportanceError reports the immediate-child case.
type SubtaskHasImportanceError struct {
	UID      taskid.UID
	Subtask  taskid.UID
	Existing attributes.Importance
}

func (e *SubtaskHasImportanceError) Error() string {
	return "task: immediate subtask already has an explicit importance"
}

// SuperiorTaskHasImportanceError reports the transitive-ancestor case.
type SuperiorTaskHasImportanceError struct {
	UID      taskid.UID
	Superior taskid.UID
	Existing attributes.Importance
}

func (e *SuperiorTaskHasImportanceError) Error() string {
	return "task: a superior task already has an explicit importance"
}

// InferiorTaskHasImportanceError reports the transitive-descendant case.
type InferiorTaskHasImportanceError struct {
	UID      taskid.UID
	Inferior taskid.UID
	Existing attributes.Importance
}

func (e *InferiorTaskHasImportanceError) Error() string {
	return "task: an inferior task already has an explicit importance"
}

// System holds one attributes register and one network graph, and is the
// module's single public entry point.
type System struct {
	attributes *attributes.Register
	network    *network.Network
	uids       uidsource.Source
}

// NewSystem returns an empty System allocating UIDs from uids.
func NewSystem(uids uidsource.Source) *System {
	return &System{
		attributes: attributes.NewRegister(),
		network:    network.New(),
		uids:       uids,
	}
}

// CreateTask allocates a fresh UID, inserts it into the attributes
// register and network graph, and only then marks the UID used so a
// failed insert never burns an allocation.
func (s *System) CreateTask() (taskid.UID, error) {
	uid := s.uids.Next()
	if err := s.network.AddTask(uid); err != nil {
		return taskid.Zero, err
	}
	if err := s.attributes.Add(uid); err != nil {
		return taskid.Zero, err
	}
	s.uids.MarkUsed(uid)
	return uid, nil
}

// DeleteTask removes uid, succeeding only when it is isolated in both
// graphs (network.RemoveTask enforces this).
func (s *System) DeleteTask(uid taskid.UID) error {
	if err := s.network.RemoveTask(uid); err != nil {
		return err
	}
	return s.attributes.Remove(uid)
}

// SetName updates uid's name.
func (s *System) SetName(uid taskid.UID, name string) error {
	return s.attributes.UpdateName(uid, name)
}

// SetDescription updates uid's description.
func (s *System) SetDescription(uid taskid.UID, description string) error {
	return s.attributes.UpdateDescription(uid, description)
}

// SetImportance sets uid's explicit importance, enforcing X4: at most one
// explicit importance per hierarchy chain. Passing nil always succeeds.
func (s *System) SetImportance(uid taskid.UID, importance *attributes.Importance) error {
	if !s.attributes.Has(uid) {
		return ErrTaskDoesNotExist
	}
	if importance != nil {
		for _, supertask := range s.network.Hierarchy.Supertasks(uid) {
			if existing := s.explicitImportance(supertask); existing != nil {
				return &SupertaskHasImportanceError{UID: uid, Supertask: supertask, Existing: *existing}
			}
		}
		for _, subtask := range s.network.Hierarchy.Subtasks(uid) {
			if existing := s.explicitImportance(subtask); existing != nil {
				return &SubtaskHasImportanceError{UID: uid, Subtask: subtask, Existing: *existing}
			}
		}
		for _, superior := range s.network.Hierarchy.SuperiorTasks(uid) {
			if existing := s.explicitImportance(superior); existing != nil {
				return &SuperiorTaskHasImportanceError{UID: uid, Superior: superior, Existing: *existing}
			}
		}
		for _, inferior := range s.network.Hierarchy.InferiorTasks(uid) {
			if existing := s.explicitImportance(inferior); existing != nil {
				return &InferiorTaskHasImportanceError{UID: uid, Inferior: inferior, Existing: *existing}
			}
		}
	}
	return s.attributes.UpdateImportance(uid, importance)
}

func (s *System) explicitImportance(uid taskid.UID) *attributes.Importance {
	a, err := s.attributes.Get(uid)
	if err != nil {
		return nil
	}
	return a.Importance
}

// AddTaskHierarchy adds a hierarchy edge via the network graph.
func (s *System) AddTaskHierarchy(supertask, subtask taskid.UID) error {
	return s.network.AddHierarchy(supertask, subtask)
}

// RemoveTaskHierarchy removes a hierarchy edge via the network graph.
func (s *System) RemoveTaskHierarchy(supertask, subtask taskid.UID) error {
	return s.network.RemoveHierarchy(supertask, subtask)
}

// AddTaskDependency adds a dependency edge via the network graph.
func (s *System) AddTaskDependency(dependee, dependent taskid.UID) error {
	return s.network.AddDependency(dependee, dependent)
}

// RemoveTaskDependency removes a dependency edge via the network graph.
func (s *System) RemoveTaskDependency(dependee, dependent taskid.UID) error {
	return s.network.RemoveDependency(dependee, dependent)
}

var startedSet = map[attributes.Progress]bool{attributes.InProgress: true, attributes.Completed: true}
var incompleteSet = map[attributes.Progress]bool{attributes.NotStarted: true, attributes.InProgress: true}

// SetTaskProgress sets uid's explicit progress, valid only on a concrete
// task, gated by the dependency-driven rules in §4.6.1.
func (s *System) SetTaskProgress(uid taskid.UID, p attributes.Progress) error {
	a, err := s.attributes.Get(uid)
	if err != nil {
		return ErrTaskDoesNotExist
	}
	if !s.network.Hierarchy.IsConcrete(uid) {
		return ErrNotConcreteTask
	}

	cache := make(map[taskid.UID]attributes.Progress)
	current := a.Progress

	if current == attributes.Completed && incompleteSet[p] {
		if witness := s.startedDependentsOf(uid, cache); len(witness) > 0 {
			return &StartedDependentTasksError{UID: uid, Witness: witness}
		}
		var witness []TaskProgress
		for _, superior := range s.network.Hierarchy.SuperiorTasks(uid) {
			witness = append(witness, s.startedDependentsOf(superior, cache)...)
		}
		if len(witness) > 0 {
			return &StartedDependentTasksOfSuperiorTasksError{UID: uid, Witness: witness}
		}
	}

	if current == attributes.NotStarted && startedSet[p] {
		if witness := s.incompleteDependeesOf(uid, cache); len(witness) > 0 {
			return &IncompleteDependeeTasksError{UID: uid, Witness: witness}
		}
		var witness []TaskProgress
		for _, superior := range s.network.Hierarchy.SuperiorTasks(uid) {
			witness = append(witness, s.incompleteDependeesOf(superior, cache)...)
		}
		if len(witness) > 0 {
			return &IncompleteDependeeTasksOfSuperiorTasksError{UID: uid, Witness: witness}
		}
	}

	return s.attributes.UpdateProgress(uid, p)
}

func (s *System) startedDependentsOf(uid taskid.UID, cache map[taskid.UID]attributes.Progress) []TaskProgress {
	var out []TaskProgress
	for _, dependent := range s.network.Dependency.DependentTasks(uid) {
		dp := s.derivedProgress(dependent, cache)
		if startedSet[dp] {
			out = append(out, TaskProgress{UID: dependent, Progress: dp})
		}
	}
	return out
}

func (s *System) incompleteDependeesOf(uid taskid.UID, cache map[taskid.UID]attributes.Progress) []TaskProgress {
	var out []TaskProgress
	for _, dependee := range s.network.Dependency.DependeeTasks(uid) {
		dp := s.derivedProgress(dependee, cache)
		if incompleteSet[dp] {
			out = append(out, TaskProgress{UID: dependee, Progress: dp})
		}
	}
	return out
}

// GetProgress returns uid's explicit progress if concrete, otherwise the
// recursive rollup over its subtasks.
func (s *System) GetProgress(uid taskid.UID) (attributes.Progress, error) {
	if !s.attributes.Has(uid) {
		return 0, ErrTaskDoesNotExist
	}
	cache := make(map[taskid.UID]attributes.Progress)
	return s.derivedProgress(uid, cache), nil
}

// derivedProgress computes uid's effective progress, memoizing within
// cache to keep repeated rollups over a shared DAG linear rather than
// exponential (per §9's memoization note).
func (s *System) derivedProgress(uid taskid.UID, cache map[taskid.UID]attributes.Progress) attributes.Progress {
	if p, ok := cache[uid]; ok {
		return p
	}
	if s.network.Hierarchy.IsConcrete(uid) {
		a, _ := s.attributes.Get(uid)
		cache[uid] = a.Progress
		return a.Progress
	}

	subtasks := s.network.Hierarchy.Subtasks(uid)
	sawNotStarted, sawInProgress, sawCompleted := false, false, false
	for _, sub := range subtasks {
		switch s.derivedProgress(sub, cache) {
		case attributes.NotStarted:
			sawNotStarted = true
		case attributes.InProgress:
			sawInProgress = true
		case attributes.Completed:
			sawCompleted = true
		}
	}

	var result attributes.Progress
	switch {
	case sawInProgress || (sawNotStarted && sawCompleted):
		result = attributes.InProgress
	case sawCompleted && !sawNotStarted:
		result = attributes.Completed
	default:
		result = attributes.NotStarted
	}
	cache[uid] = result
	return result
}

// GetImportance returns uid's explicit importance if set, otherwise the
// maximum explicit importance among its hierarchy-ancestors. The second
// return value reports whether the importance was inferred rather than
// explicit.
func (s *System) GetImportance(uid taskid.UID) (*attributes.Importance, bool, error) {
	a, err := s.attributes.Get(uid)
	if err != nil {
		return nil, false, ErrTaskDoesNotExist
	}
	if a.Importance != nil {
		return a.Importance, false, nil
	}
	var best *attributes.Importance
	for _, ancestor := range s.network.Hierarchy.SuperiorTasks(uid) {
		if ia := s.explicitImportance(ancestor); ia != nil && (best == nil || *ia > *best) {
			best = ia
		}
	}
	return best, best != nil, nil
}

// IsConcrete reports whether uid has no subtasks.
func (s *System) IsConcrete(uid taskid.UID) bool {
	return s.network.Hierarchy.IsConcrete(uid)
}

// Tasks returns every task UID currently in the system.
func (s *System) Tasks() []taskid.UID {
	return attributes.NewView(s.attributes).UIDs()
}

// AttributesView returns a read-only view of the attributes register.
func (s *System) AttributesView() attributes.View {
	return attributes.NewView(s.attributes)
}

// Network returns the underlying network graph for read-only traversal
// (used by the priority package and by persistence).
func (s *System) Network() *network.Network {
	return s.network
}

// Save writes the system's current state to dir via env, per spec §6's
// atomic group-save.
func (s *System) Save(dir string, env *persistence.Envelope) error {
	return env.SaveAll(dir, persistence.SaveAllInput{
		Attributes:      s.AttributesView(),
		HierarchyTasks:  s.network.Hierarchy.Kernel().Nodes(),
		HierarchyEdges:  edgePairs(s.network.Hierarchy.Kernel().Edges()),
		DependencyTasks: s.network.Dependency.Kernel().Nodes(),
		DependencyEdges: edgePairs(s.network.Dependency.Kernel().Edges()),
		NextUID:         s.uids.Next(),
	})
}

// Load rebuilds a System from the artifacts saved under dir via env. The
// returned system's uid source is marked used through every UID the
// artifacts name plus whatever next-UID value was recorded, so allocation
// resumes exactly where the saved system left off.
func Load(dir string, env *persistence.Envelope, uids uidsource.Source) (*System, error) {
	out, err := env.LoadAll(dir)
	if err != nil {
		return nil, err
	}

	s := NewSystem(uids)
	seen := make(map[taskid.UID]struct{})
	insert := func(uid taskid.UID) error {
		if _, ok := seen[uid]; ok {
			return nil
		}
		seen[uid] = struct{}{}
		if err := s.network.AddTask(uid); err != nil {
			return err
		}
		return s.attributes.Add(uid)
	}
	for _, uid := range out.HierarchyTasks {
		if err := insert(uid); err != nil {
			return nil, err
		}
	}
	for _, uid := range out.DependencyTasks {
		if err := insert(uid); err != nil {
			return nil, err
		}
	}

	for _, e := range out.HierarchyEdges {
		if err := s.network.AddHierarchy(e[0], e[1]); err != nil {
			return nil, err
		}
	}
	for _, e := range out.DependencyEdges {
		if err := s.network.AddDependency(e[0], e[1]); err != nil {
			return nil, err
		}
	}

	if err := env.ReadAttributesFile(dir, s.attributes); err != nil {
		return nil, err
	}

	for uid := range seen {
		s.uids.MarkUsed(uid)
	}
	s.uids.MarkUsed(out.NextUID - 1)
	return s, nil
}

func edgePairs(edges []graph.Edge[taskid.UID]) [][2]taskid.UID {
	out := make([][2]taskid.UID, 0, len(edges))
	for _, e := range edges {
		out = append(out, [2]taskid.UID{e.Source, e.Target})
	}
	return out
}

// Group identifies a bucket in the progress-by-concreteness grouping.
type Group struct {
	Progress attributes.Progress
	Concrete bool
}

// GroupTasks partitions every task by derived progress crossed with
// concreteness.
func (s *System) GroupTasks() map[Group][]taskid.UID {
	out := make(map[Group][]taskid.UID)
	cache := make(map[taskid.UID]attributes.Progress)
	for _, uid := range s.Tasks() {
		g := Group{
			Progress: s.derivedProgress(uid, cache),
			Concrete: s.network.Hierarchy.IsConcrete(uid),
		}
		out[g] = append(out[g], uid)
	}
	return out
}
