// Copyright (c) 2024-2025 Six After, Inc
//
// This source code is licensed under the Apache 2.0 License found in the
// LICENSE file in the root directory of this source tree.

// Package attributes holds the per-task attribute register: name,
// description, importance, and explicit progress, keyed by task UID. It
// performs no cross-task validation; the network and task-system layers
// are responsible for importance-chain and progress-gating checks before
// delegating here.
package attributes

import (
	"errors"
	"sync"

	"github.com/sixafter/tasknet/taskid"
)

// Importance is an ordered task importance level.
type Importance int

const (
	Low Importance = iota
	Medium
	High
)

// String renders the importance level for logs and error messages.
func (i Importance) String() string {
	switch i {
	case Low:
		return "LOW"
	case Medium:
		return "MEDIUM"
	case High:
		return "HIGH"
	default:
		return "UNKNOWN"
	}
}

// Progress is the explicit progress state of a concrete task.
type Progress int

const (
	NotStarted Progress = iota
	InProgress
	Completed
)

// String renders the progress state for logs and error messages.
func (p Progress) String() string {
	switch p {
	case NotStarted:
		return "NOT_STARTED"
	case InProgress:
		return "IN_PROGRESS"
	case Completed:
		return "COMPLETED"
	default:
		return "UNKNOWN"
	}
}

// Attributes holds the optional fields a task may carry. Pointer fields
// are nil when unset; Progress is only meaningful for concrete tasks and
// defaults to NotStarted on creation.
type Attributes struct {
	Name        string
	Description string
	Importance  *Importance
	Progress    Progress
}

// Sentinel errors returned by Register.
var (
	ErrTaskAlreadyExists = errors.New("attributes: task already exists")
	ErrTaskDoesNotExist  = errors.New("attributes: task does not exist")
)

// Register is the mapping from task UID to Attributes. Mutations follow a
// single-writer contract enforced by the task system above it; the
// sync.RWMutex here exists only so a View held by one goroutine can safely
// read while another goroutine calls a write method, e.g. a long UIDs()
// scan must not panic if it races a concurrent Add.
type Register struct {
	mu      sync.RWMutex
	entries map[taskid.UID]*Attributes
}

// NewRegister returns an empty Register.
func NewRegister() *Register {
	return &Register{entries: make(map[taskid.UID]*Attributes)}
}

// Add inserts a fresh, empty Attributes for uid. It returns
// ErrTaskAlreadyExists if uid is already present.
func (r *Register) Add(uid taskid.UID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.entries[uid]; ok {
		return ErrTaskAlreadyExists
	}
	r.entries[uid] = &Attributes{Progress: NotStarted}
	return nil
}

// Remove deletes uid's attributes. It returns ErrTaskDoesNotExist if uid
// is absent.
func (r *Register) Remove(uid taskid.UID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.entries[uid]; !ok {
		return ErrTaskDoesNotExist
	}
	delete(r.entries, uid)
	return nil
}

// Has reports whether uid is present in the register.
func (r *Register) Has(uid taskid.UID) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.entries[uid]
	return ok
}

// Get returns a copy of uid's attributes. It returns ErrTaskDoesNotExist
// if uid is absent.
func (r *Register) Get(uid taskid.UID) (Attributes, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	a, ok := r.entries[uid]
	if !ok {
		return Attributes{}, ErrTaskDoesNotExist
	}
	return *a, nil
}

// UpdateName sets uid's name. It returns ErrTaskDoesNotExist if uid is
// absent.
func (r *Register) UpdateName(uid taskid.UID, name string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	a, ok := r.entries[uid]
	if !ok {
		return ErrTaskDoesNotExist
	}
	a.Name = name
	return nil
}

// UpdateDescription sets uid's description. It returns
// ErrTaskDoesNotExist if uid is absent.
func (r *Register) UpdateDescription(uid taskid.UID, description string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	a, ok := r.entries[uid]
	if !ok {
		return ErrTaskDoesNotExist
	}
	a.Description = description
	return nil
}

// UpdateImportance sets uid's explicit importance. Passing nil clears it.
// It returns ErrTaskDoesNotExist if uid is absent. Callers (the network
// and task-system layers) are responsible for the X4 chain-conflict check
// before calling this.
func (r *Register) UpdateImportance(uid taskid.UID, importance *Importance) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	a, ok := r.entries[uid]
	if !ok {
		return ErrTaskDoesNotExist
	}
	a.Importance = importance
	return nil
}

// UpdateProgress sets uid's explicit progress. It returns
// ErrTaskDoesNotExist if uid is absent. Callers (the task-system layer)
// are responsible for the concreteness and dependency-gating checks
// before calling this.
func (r *Register) UpdateProgress(uid taskid.UID, progress Progress) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	a, ok := r.entries[uid]
	if !ok {
		return ErrTaskDoesNotExist
	}
	a.Progress = progress
	return nil
}

// Len returns the number of tasks in the register.
func (r *Register) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.entries)
}

// UIDs returns every UID currently in the register, in no particular
// order.
func (r *Register) UIDs() []taskid.UID {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]taskid.UID, 0, len(r.entries))
	for uid := range r.entries {
		out = append(out, uid)
	}
	return out
}

// View is a read-only snapshot accessor over a Register, handed to
// callers that should inspect but not mutate attributes directly (the
// task system's public query surface).
type View struct {
	register *Register
}

// NewView wraps register for read-only access.
func NewView(register *Register) View {
	return View{register: register}
}

// Get returns a copy of uid's attributes.
func (v View) Get(uid taskid.UID) (Attributes, error) {
	return v.register.Get(uid)
}

// Has reports whether uid is present.
func (v View) Has(uid taskid.UID) bool {
	return v.register.Has(uid)
}

// Len returns the number of tasks in the register.
func (v View) Len() int {
	return v.register.Len()
}

// UIDs returns every UID currently in the register, in no particular
// order.
func (v View) UIDs() []taskid.UID {
	return v.register.UIDs()
}
