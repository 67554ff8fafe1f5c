// Copyright (c) 2024-2025 Six After, Inc
//
// This source code is licensed under the Apache 2.0 License found in the
// LICENSE file in the root directory of this source tree.

package uidsource

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/sixafter/tasknet/taskid"
)

func TestMonotonicSource(t *testing.T) {
	t.Parallel()
	is := assert.New(t)

	s := NewMonotonicSource()
	first := s.Next()
	is.Equal(taskid.Zero+1, first)

	// Asking again before MarkUsed must not advance the counter.
	is.Equal(first, s.Next())

	s.MarkUsed(first)
	is.Equal(first+1, s.Next())
}

func TestMonotonicSourceNeverGoesBackward(t *testing.T) {
	t.Parallel()
	is := assert.New(t)

	s := NewMonotonicSource()
	s.MarkUsed(10)
	is.Equal(taskid.UID(11), s.Next())

	// Marking an earlier UID used (e.g. from a replayed load) must not
	// move the counter backward.
	s.MarkUsed(3)
	is.Equal(taskid.UID(11), s.Next())
}
