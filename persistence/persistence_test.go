// Copyright (c) 2024-2025 Six After, Inc
//
// This source code is licensed under the Apache 2.0 License found in the
// LICENSE file in the root directory of this source tree.

package persistence_test

import (
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sixafter/tasknet/attributes"
	"github.com/sixafter/tasknet/persistence"
	"github.com/sixafter/tasknet/task"
	"github.com/sixafter/tasknet/uidsource"
)

func TestSaveAllThenLoadAllRoundTrips(t *testing.T) {
	t.Parallel()
	is := assert.New(t)
	req := require.New(t)

	s := task.NewSystem(uidsource.NewMonotonicSource())
	u1, err := s.CreateTask()
	req.NoError(err)
	u2, err := s.CreateTask()
	req.NoError(err)
	u3, err := s.CreateTask()
	req.NoError(err)

	req.NoError(s.AddTaskHierarchy(u1, u2))
	req.NoError(s.AddTaskDependency(u2, u3))

	high := attributes.High
	req.NoError(s.SetImportance(u1, &high))
	req.NoError(s.SetName(u3, "ship it"))

	dir := t.TempDir()
	env := persistence.NewEnvelope()
	req.NoError(s.Save(dir, env))

	loaded, err := task.Load(dir, env, uidsource.NewMonotonicSource())
	req.NoError(err)

	is.ElementsMatch(s.Tasks(), loaded.Tasks())
	is.True(loaded.Network().Hierarchy.HasHierarchy(u1, u2))
	is.True(loaded.Network().Dependency.HasDependency(u2, u3))

	imp, inferred, err := loaded.GetImportance(u1)
	is.NoError(err)
	is.False(inferred)
	req.NotNil(imp)
	is.Equal(attributes.High, *imp)

	attrs, err := loaded.AttributesView().Get(u3)
	is.NoError(err)
	is.Equal("ship it", attrs.Name)

	next, err := loaded.CreateTask()
	is.NoError(err)
	is.Greater(int(next), int(u3), "allocation must resume past every loaded UID")
}

func TestSaveAllLeavesOriginalsOnFailure(t *testing.T) {
	t.Parallel()
	is := assert.New(t)
	req := require.New(t)

	s := task.NewSystem(uidsource.NewMonotonicSource())
	_, err := s.CreateTask()
	req.NoError(err)

	dir := t.TempDir()
	env := persistence.NewEnvelope()
	req.NoError(s.Save(dir, env))

	original, err := os.ReadFile(persistence.DefaultFilenames(dir).NextUID)
	req.NoError(err)

	// Make the next-UID path unwritable by replacing it with a directory,
	// forcing os.Create to fail for that artifact's temp file.
	names := persistence.DefaultFilenames(dir)
	req.NoError(os.MkdirAll(names.NextUID+".tmp", 0o755))

	err = s.Save(dir, env)
	is.Error(err)

	after, err := os.ReadFile(persistence.DefaultFilenames(dir).NextUID)
	req.NoError(err)
	is.Equal(original, after, "a failed save must not touch the original artifact")

	// The three artifacts that did write their temp file successfully
	// before the NextUID artifact failed must have their temp files
	// cleaned up rather than left behind.
	is.NoFileExists(names.Attributes + ".tmp")
	is.NoFileExists(names.Hierarchy + ".tmp")
	is.NoFileExists(names.Dependency + ".tmp")
}
