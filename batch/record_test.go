// Copyright 2025 The GeoDist Authors
//
// SPDX-License-Identifier: Apache-2.0

package batch

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/jcodagnone/geodist/table"
)

func TestRecordTransitions(t *testing.T) {
	r := &record{rec: table.Record{}}

	for _, s := range []State{Normalized, ResolvingPrimary, ResolvingSecondary, Computed} {
		r.advance(s)
		assert.Equal(t, s, r.state)
	}

	assert.True(t, r.state.Terminal())
	assert.Panics(t, func() { r.advance(Pending) })

	fresh := &record{}
	assert.Panics(t, func() { fresh.advance(Computed) })
	assert.NotPanics(t, func() { fresh.advance(Skipped) })
	assert.True(t, Skipped.Terminal())
	assert.False(t, Pending.Terminal())
}

func TestRecordStatus(t *testing.T) {
	tests := []struct {
		state       State
		primary     bool
		secondary   bool
		wantStatus  string
		hasDistance bool
	}{
		{Computed, true, true, StatusResolved, true},
		{PartiallyUnresolved, false, true, StatusUnresolvedPrimary, false},
		{PartiallyUnresolved, true, false, StatusUnresolvedSecondary, false},
		{PartiallyUnresolved, false, false, StatusUnresolvedBoth, false},
		{Skipped, false, false, StatusSkipped, false},
		{Cancelled, false, false, StatusCancelled, false},
	}

	for _, tc := range tests {
		t.Run(tc.wantStatus, func(t *testing.T) {
			r := &record{
				rec:         table.Record{},
				state:       tc.state,
				primaryOK:   tc.primary,
				secondaryOK: tc.secondary,
				hasDistance: tc.hasDistance,
				distance:    0.8305,
			}
			r.write("distance_miles")

			assert.Equal(t, tc.wantStatus, r.rec[StatusColumn])

			want := ""
			if tc.hasDistance {
				want = "0.83"
			}

			assert.Equal(t, want, r.rec["distance_miles"])
		})
	}
}

func TestStats(t *testing.T) {
	var s Stats

	assert.Zero(t, s.Snapshot().SuccessRate())

	assert.Equal(t, int64(1), s.finish(Computed))
	assert.Equal(t, int64(2), s.finish(PartiallyUnresolved))
	s.finish(Skipped)
	s.finish(Cancelled)
	s.address(true)
	s.address(false)

	snap := s.Snapshot()
	assert.Equal(t, int64(2), snap.Processed)
	assert.Equal(t, int64(1), snap.Succeeded)
	assert.Equal(t, int64(1), snap.Failed)
	assert.Equal(t, int64(4), snap.Done())
	assert.InDelta(t, 50.0, snap.SuccessRate(), 1e-9)
	assert.Equal(t, "partially_unresolved", PartiallyUnresolved.String())
}
