// Copyright 2025 The GeoDist Authors
//
// SPDX-License-Identifier: Apache-2.0

package batch

import "sync/atomic"

// Stats are the live counters of a run. They can be read through Snapshot
// at any time without blocking the workers.
type Stats struct {
	total               atomic.Int64
	processed           atomic.Int64
	succeeded           atomic.Int64
	failed              atomic.Int64
	skipped             atomic.Int64
	cancelled           atomic.Int64
	resolvedAddresses   atomic.Int64
	unresolvedAddresses atomic.Int64
	done                atomic.Int64
}

// Snapshot is a point in time copy of Stats.
type Snapshot struct {
	Total               int64 `json:"total"`
	Processed           int64 `json:"processed"`
	Succeeded           int64 `json:"succeeded"`
	Failed              int64 `json:"failed"`
	Skipped             int64 `json:"skipped"`
	Cancelled           int64 `json:"cancelled"`
	ResolvedAddresses   int64 `json:"resolved_addresses"`
	UnresolvedAddresses int64 `json:"unresolved_addresses"`
}

// Snapshot copies the counters.
func (s *Stats) Snapshot() Snapshot {
	return Snapshot{
		Total:               s.total.Load(),
		Processed:           s.processed.Load(),
		Succeeded:           s.succeeded.Load(),
		Failed:              s.failed.Load(),
		Skipped:             s.skipped.Load(),
		Cancelled:           s.cancelled.Load(),
		ResolvedAddresses:   s.resolvedAddresses.Load(),
		UnresolvedAddresses: s.unresolvedAddresses.Load(),
	}
}

// Done is the number of records that reached a terminal state.
func (s Snapshot) Done() int64 {
	return s.Processed + s.Skipped + s.Cancelled
}

// SuccessRate is the percentage of processed records with a distance.
func (s Snapshot) SuccessRate() float64 {
	if s.Processed == 0 {
		return 0
	}

	return float64(s.Succeeded) / float64(s.Processed) * 100
}

func (s *Stats) address(ok bool) {
	if ok {
		s.resolvedAddresses.Add(1)
	} else {
		s.unresolvedAddresses.Add(1)
	}
}

// finish counts a record in its terminal state and returns how many records
// are done.
func (s *Stats) finish(state State) int64 {
	switch state {
	case Computed:
		s.processed.Add(1)
		s.succeeded.Add(1)
	case PartiallyUnresolved:
		s.processed.Add(1)
		s.failed.Add(1)
	case Skipped:
		s.skipped.Add(1)
	case Cancelled:
		s.cancelled.Add(1)
	}

	return s.done.Add(1)
}
