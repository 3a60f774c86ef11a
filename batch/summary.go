// Copyright 2025 The GeoDist Authors
//
// SPDX-License-Identifier: Apache-2.0

package batch

import (
	"log"
	"time"

	"github.com/jcodagnone/geodist/mapping"
	"github.com/jcodagnone/geodist/utils/textutils"
)

// Summary describes a finished run.
type Summary struct {
	RunID          string
	Provider       string
	Started        time.Time
	Elapsed        time.Duration
	Rows           int
	DistanceColumn string
	Coverage       []mapping.Coverage
	States         map[State]int
	Stats          Snapshot
	Interrupted    bool
}

// Log prints the summary through the standard logger.
func (s *Summary) Log() {
	log.Printf("Summary of run %s (%s rows in %s):", s.RunID, textutils.FormatInt(int64(s.Rows)), s.Elapsed.Round(time.Millisecond))

	for _, c := range s.Coverage {
		log.Printf("- Translated %s values: %s of %s rows (%s)",
			c.Field,
			textutils.FormatInt(int64(c.Translated)),
			textutils.FormatInt(int64(c.Total)),
			textutils.Percent(int64(c.Translated), int64(c.Total)),
		)
	}

	log.Printf("- Created %s column", CombinedAddressColumn)

	st := s.Stats
	if st.Processed > 0 {
		log.Printf("- Geocoded with %s: %s addresses resolved, %s unresolved",
			s.Provider, textutils.FormatInt(st.ResolvedAddresses), textutils.FormatInt(st.UnresolvedAddresses))
		log.Printf("- Calculated %s distances successfully, %s failed (%s)",
			textutils.FormatInt(st.Succeeded), textutils.FormatInt(st.Failed), textutils.Percent(st.Succeeded, st.Processed))
	}

	if st.Skipped > 0 {
		log.Printf("- Skipped resolution of %s rows", textutils.FormatInt(st.Skipped))
	}

	if st.Cancelled > 0 {
		log.Printf("- Cancelled %s rows", textutils.FormatInt(st.Cancelled))
	}

	if s.Interrupted {
		log.Print("Run was interrupted, output is partial")
	}
}
