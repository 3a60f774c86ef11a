// Copyright 2025 The GeoDist Authors
//
// SPDX-License-Identifier: Apache-2.0

// Package batch drives translation, address resolution and distance
// computation across every record of a table.
package batch

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"github.com/jcodagnone/geodist/address"
	"github.com/jcodagnone/geodist/geocode"
	"github.com/jcodagnone/geodist/mapping"
	"github.com/jcodagnone/geodist/spatial"
	"github.com/jcodagnone/geodist/table"
)

// ErrMissingColumn reports a configured column absent from the input.
var ErrMissingColumn = errors.New("missing column")

// verboseRows is how many leading rows get their addresses logged.
const verboseRows = 3

// Translation maps the coded values of Field through Table.
type Translation struct {
	Field string
	Table *mapping.Table
}

// Options configure a run.
type Options struct {
	// Translations are applied in order before resolution
	Translations []Translation

	// PrimaryFields are space-joined into the primary address
	PrimaryFields []string

	// SecondaryField holds the address the primary is measured against
	SecondaryField string

	// SampleSize resolves only the first N records; 0 resolves all
	SampleSize int

	// SkipResolution marks every record skipped
	SkipResolution bool

	// Workers is the number of records resolved concurrently, capped at the
	// provider's MaxConcurrency
	Workers int

	Unit       spatial.Unit
	Normalizer *address.Normalizer

	DisableProgressBar bool
	ProgressEvery      int
}

// Orchestrator enriches the records of one table. It is meant for a single
// Run; Stats can be read concurrently while it goes.
type Orchestrator struct {
	resolver   *geocode.Resolver
	opts       Options
	normalizer *address.Normalizer
	stats      *Stats
}

// New creates an orchestrator. resolver may be nil when resolution is
// skipped.
func New(resolver *geocode.Resolver, opts Options) *Orchestrator {
	if len(opts.PrimaryFields) == 0 {
		opts.PrimaryFields = address.DefaultPrimaryFields
	}

	if opts.SecondaryField == "" {
		opts.SecondaryField = address.DefaultSecondaryField
	}

	normalizer := opts.Normalizer
	if normalizer == nil {
		normalizer = address.NewNormalizer(address.DefaultOptions())
	}

	return &Orchestrator{
		resolver:   resolver,
		opts:       opts,
		normalizer: normalizer,
		stats:      &Stats{},
	}
}

// Stats returns the live counters.
func (o *Orchestrator) Stats() *Stats {
	return o.stats
}

func (o *Orchestrator) resolving() bool {
	return !o.opts.SkipResolution
}

// Validate checks the table has the configured columns. Missing primary
// columns are only a warning while at least one of them exists.
func (o *Orchestrator) Validate(t *table.Table) error {
	var errs []error

	for _, tr := range o.opts.Translations {
		if !t.HasColumn(tr.Field) {
			errs = append(errs, fmt.Errorf("%w: translated field %q", ErrMissingColumn, tr.Field))
		}
	}

	var present []string

	for _, f := range o.opts.PrimaryFields {
		if t.HasColumn(f) {
			present = append(present, f)
		} else {
			log.Printf("Warning: address field %q not found", f)
		}
	}

	if o.resolving() {
		if len(present) == 0 {
			errs = append(errs, fmt.Errorf("%w: none of the address fields %q", ErrMissingColumn, o.opts.PrimaryFields))
		}

		if !t.HasColumn(o.opts.SecondaryField) {
			errs = append(errs, fmt.Errorf("%w: secondary address field %q", ErrMissingColumn, o.opts.SecondaryField))
		}

		if o.resolver == nil {
			errs = append(errs, errors.New("no geocoder configured"))
		}
	}

	return errors.Join(errs...)
}

// workers returns the effective pool size.
func (o *Orchestrator) workers() int {
	w := max(o.opts.Workers, 1)

	if o.resolver != nil {
		policy := o.resolver.Provider().Policy()
		if policy.MaxConcurrency > 0 && w > policy.MaxConcurrency {
			log.Printf("Capping workers to %d, the %s limit", policy.MaxConcurrency, o.resolver.Provider().Name())

			w = policy.MaxConcurrency
		}
	}

	return w
}

// Run enriches t in place. Every record gets the derived columns, whatever
// happens to its resolution. Cancelling ctx stops dispatching: records
// already started finish, the rest are marked cancelled, and Run still
// returns the summary.
func (o *Orchestrator) Run(ctx context.Context, t *table.Table) (*Summary, error) {
	if err := o.Validate(t); err != nil {
		return nil, err
	}

	summary := &Summary{
		RunID:          uuid.NewString(),
		Started:        time.Now(),
		Rows:           t.Len(),
		DistanceColumn: DistanceColumn(o.opts.Unit),
	}

	if o.resolver != nil {
		summary.Provider = o.resolver.Provider().Name()
	}

	log.Printf("Run %s: %d rows", summary.RunID, summary.Rows)

	for _, tr := range o.opts.Translations {
		cov := mapping.TranslateField(t, tr.Field, tr.Table)
		summary.Coverage = append(summary.Coverage, cov)

		log.Printf("Translated %s: %d of %d rows changed (%d mappings)", cov.Field, cov.Translated, cov.Total, cov.Mappings)
	}

	t.AddColumn(CombinedAddressColumn)
	t.AddColumn(summary.DistanceColumn)
	t.AddColumn(StatusColumn)

	records := make([]*record, t.Len())
	for i, rec := range t.Records {
		rec[CombinedAddressColumn] = address.Combine(rec, o.opts.PrimaryFields)
		records[i] = &record{row: i, rec: rec}
	}

	o.stats.total.Store(int64(len(records)))
	o.dispatch(ctx, records, summary.DistanceColumn)

	summary.Elapsed = time.Since(summary.Started)
	summary.Stats = o.stats.Snapshot()
	summary.Interrupted = ctx.Err() != nil
	summary.States = make(map[State]int)

	for _, r := range records {
		summary.States[r.state]++
	}

	return summary, nil
}

func (o *Orchestrator) dispatch(ctx context.Context, records []*record, distanceColumn string) {
	limit := len(records)

	switch {
	case !o.resolving():
		limit = 0
	case o.opts.SampleSize > 0 && o.opts.SampleSize < limit:
		limit = o.opts.SampleSize
		log.Printf("Resolving a sample of %d rows", limit)
	}

	for _, r := range records[limit:] {
		o.terminate(r, Skipped, distanceColumn)
	}

	if limit == 0 {
		return
	}

	prog := newProgress(limit, o.stats, o.opts)
	defer prog.finish()

	var (
		wg       sync.WaitGroup
		resolved atomic.Int64
	)

	semaphore := make(chan struct{}, o.workers())
	detached := context.WithoutCancel(ctx)

	for i, r := range records[:limit] {
		if !acquire(ctx, semaphore) {
			log.Printf("Run cancelled, %d rows left unresolved", limit-i)

			for _, rest := range records[i:limit] {
				o.terminate(rest, Cancelled, distanceColumn)
			}

			break
		}

		wg.Add(1)

		go func(r *record) {
			defer wg.Done()
			defer func() { <-semaphore }()

			o.process(detached, r, distanceColumn)
			prog.add(resolved.Add(1))
		}(r)
	}

	wg.Wait()
}

// acquire takes a worker slot, unless ctx is done first.
func acquire(ctx context.Context, semaphore chan struct{}) bool {
	select {
	case <-ctx.Done():
		return false
	case semaphore <- struct{}{}:
	}

	if ctx.Err() != nil {
		<-semaphore

		return false
	}

	return true
}

// terminate ends a record that is never resolved.
func (o *Orchestrator) terminate(r *record, state State, distanceColumn string) {
	r.advance(state)
	r.write(distanceColumn)
	o.stats.finish(state)
}

// process walks a record through normalization, both resolutions and the
// distance computation.
func (o *Orchestrator) process(ctx context.Context, r *record, distanceColumn string) {
	r.primary = o.normalizer.Normalize(r.rec[CombinedAddressColumn])
	r.secondary = o.normalizer.Normalize(r.rec[o.opts.SecondaryField])
	r.advance(Normalized)

	r.advance(ResolvingPrimary)
	r.primaryOutcome = o.resolver.Resolve(ctx, r.primary)
	r.primaryOK = usable(r.primaryOutcome)
	o.stats.address(r.primaryOK)

	r.advance(ResolvingSecondary)
	r.secondaryOutcome = o.resolver.Resolve(ctx, r.secondary)
	r.secondaryOK = usable(r.secondaryOutcome)
	o.stats.address(r.secondaryOK)

	final := PartiallyUnresolved
	if r.primaryOK && r.secondaryOK {
		r.distance = spatial.Distance(r.primaryOutcome.Point, r.secondaryOutcome.Point, o.opts.Unit)
		r.hasDistance = true
		final = Computed
	}

	r.advance(final)
	r.write(distanceColumn)
	o.stats.finish(final)

	if r.row < verboseRows {
		log.Printf("Row %d: %q -> %s, %q -> %s: %s",
			r.row+1, r.primary, describe(r.primaryOutcome), r.secondary, describe(r.secondaryOutcome), r.status())
	}
}

// usable reports whether an outcome carries coordinates a distance can be
// computed from.
func usable(out geocode.Outcome) bool {
	return out.Resolved && out.Point.Valid()
}

func describe(out geocode.Outcome) string {
	switch {
	case usable(out):
		return out.Point.String()
	case out.Resolved:
		return "invalid coordinates " + out.Point.String()
	case out.Err != nil:
		return "unresolved (" + out.Err.Error() + ")"
	default:
		return "unresolved"
	}
}
