// Copyright (c) 2024-2025 Six After, Inc
//
// This source code is licensed under the Apache 2.0 License found in the
// LICENSE file in the root directory of this source tree.

package attributes

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/sixafter/tasknet/taskid"
)

func TestRegisterAddRemove(t *testing.T) {
	t.Parallel()
	is := assert.New(t)

	r := NewRegister()
	is.NoError(r.Add(1))
	is.ErrorIs(r.Add(1), ErrTaskAlreadyExists)
	is.True(r.Has(1))

	is.NoError(r.Remove(1))
	is.False(r.Has(1))
	is.ErrorIs(r.Remove(1), ErrTaskDoesNotExist)
}

func TestRegisterUpdates(t *testing.T) {
	t.Parallel()
	is := assert.New(t)

	r := NewRegister()
	_ = r.Add(1)

	is.NoError(r.UpdateName(1, "Ship release"))
	is.NoError(r.UpdateDescription(1, "cut the tag and publish"))

	high := High
	is.NoError(r.UpdateImportance(1, &high))

	is.NoError(r.UpdateProgress(1, InProgress))

	got, err := r.Get(1)
	is.NoError(err)
	is.Equal("Ship release", got.Name)
	is.Equal("cut the tag and publish", got.Description)
	is.NotNil(got.Importance)
	is.Equal(High, *got.Importance)
	is.Equal(InProgress, got.Progress)

	is.NoError(r.UpdateImportance(1, nil))
	got, _ = r.Get(1)
	is.Nil(got.Importance)
}

func TestRegisterMissingTask(t *testing.T) {
	t.Parallel()
	is := assert.New(t)

	r := NewRegister()
	is.ErrorIs(r.UpdateName(99, "x"), ErrTaskDoesNotExist)
	is.ErrorIs(r.UpdateDescription(99, "x"), ErrTaskDoesNotExist)
	is.ErrorIs(r.UpdateImportance(99, nil), ErrTaskDoesNotExist)
	is.ErrorIs(r.UpdateProgress(99, Completed), ErrTaskDoesNotExist)
	_, err := r.Get(99)
	is.ErrorIs(err, ErrTaskDoesNotExist)
}

func TestView(t *testing.T) {
	t.Parallel()
	is := assert.New(t)

	r := NewRegister()
	_ = r.Add(1)
	_ = r.Add(2)

	v := NewView(r)
	is.Equal(2, v.Len())
	is.True(v.Has(1))
	is.ElementsMatch([]taskid.UID{1, 2}, v.UIDs())
}
