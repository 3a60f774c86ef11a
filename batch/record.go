// Copyright 2025 The GeoDist Authors
//
// SPDX-License-Identifier: Apache-2.0

package batch

import (
	"fmt"
	"strconv"

	"github.com/jcodagnone/geodist/geocode"
	"github.com/jcodagnone/geodist/spatial"
	"github.com/jcodagnone/geodist/table"
)

// State is the position of a record in the enrichment pipeline.
type State int

const (
	Pending State = iota
	Normalized
	ResolvingPrimary
	ResolvingSecondary
	Computed
	PartiallyUnresolved
	Skipped
	Cancelled
)

var stateNames = [...]string{
	Pending:             "pending",
	Normalized:          "normalized",
	ResolvingPrimary:    "resolving_primary",
	ResolvingSecondary:  "resolving_secondary",
	Computed:            "computed",
	PartiallyUnresolved: "partially_unresolved",
	Skipped:             "skipped",
	Cancelled:           "cancelled",
}

func (s State) String() string {
	if s >= 0 && int(s) < len(stateNames) {
		return stateNames[s]
	}

	return fmt.Sprintf("State(%d)", int(s))
}

// Terminal reports whether no transition leaves s.
func (s State) Terminal() bool {
	return len(transitions[s]) == 0
}

var transitions = map[State][]State{
	Pending:            {Normalized, Skipped, Cancelled},
	Normalized:         {ResolvingPrimary},
	ResolvingPrimary:   {ResolvingSecondary},
	ResolvingSecondary: {Computed, PartiallyUnresolved},
}

// Status values written to the geocode_status column.
const (
	StatusResolved            = "resolved"
	StatusUnresolvedPrimary   = "unresolved_primary"
	StatusUnresolvedSecondary = "unresolved_secondary"
	StatusUnresolvedBoth      = "unresolved_both"
	StatusSkipped             = "skipped"
	StatusCancelled           = "cancelled"
)

// Output columns added after the translated ones.
const (
	CombinedAddressColumn = "combined_address"
	StatusColumn          = "geocode_status"
)

// DistanceColumn names the distance column for unit, e.g. distance_miles.
func DistanceColumn(unit spatial.Unit) string {
	return "distance_" + unit.String()
}

// record tracks one row through the state machine. Only the worker owning
// the record touches it.
type record struct {
	row   int
	rec   table.Record
	state State

	primary, secondary string
	primaryOutcome     geocode.Outcome
	secondaryOutcome   geocode.Outcome
	distance           float64
	hasDistance        bool
	primaryOK          bool
	secondaryOK        bool
}

// advance moves the record to state to. It panics on a transition the state
// machine does not allow.
func (r *record) advance(to State) {
	for _, next := range transitions[r.state] {
		if next == to {
			r.state = to

			return
		}
	}

	panic(fmt.Sprintf("row %d: illegal transition %s -> %s", r.row, r.state, to))
}

func (r *record) status() string {
	switch r.state {
	case Skipped:
		return StatusSkipped
	case Cancelled:
		return StatusCancelled
	}

	switch {
	case r.primaryOK && r.secondaryOK:
		return StatusResolved
	case !r.primaryOK && !r.secondaryOK:
		return StatusUnresolvedBoth
	case !r.primaryOK:
		return StatusUnresolvedPrimary
	default:
		return StatusUnresolvedSecondary
	}
}

// write stores the derived columns. The distance cell is empty unless both
// addresses resolved.
func (r *record) write(distanceColumn string) {
	r.rec[distanceColumn] = ""
	if r.hasDistance {
		r.rec[distanceColumn] = strconv.FormatFloat(r.distance, 'f', 2, 64)
	}

	r.rec[StatusColumn] = r.status()
}
