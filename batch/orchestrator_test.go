// Copyright 2025 The GeoDist Authors
//
// SPDX-License-Identifier: Apache-2.0

package batch

import (
	"context"
	"strconv"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jcodagnone/geodist/address"
	"github.com/jcodagnone/geodist/geocode"
	"github.com/jcodagnone/geodist/mapping"
	"github.com/jcodagnone/geodist/spatial"
	"github.com/jcodagnone/geodist/table"
)

var (
	reserve  = spatial.Point{Lat: 46.872, Lng: -113.994}
	broadway = spatial.Point{Lat: 46.860, Lng: -113.995}

	reserveQuery  = address.Normalize("3100 N Reserve St Missoula 59808")
	broadwayQuery = address.Normalize("1405 E Broadway St Missoula MT 59802")
	timeoutQuery  = address.Normalize("1 Timeout Rd Helena 59601")
)

// mapProvider resolves the queries it knows, times out on the ones listed
// and records the calls it gets.
type mapProvider struct {
	policy   geocode.Policy
	points   map[string]spatial.Point
	timeouts map[string]bool
	hook     func(query string)

	mu          sync.Mutex
	calls       []string
	inFlight    atomic.Int64
	maxInFlight atomic.Int64
}

func newMapProvider() *mapProvider {
	return &mapProvider{
		policy:   geocode.Policy{MaxConcurrency: 4},
		points:   map[string]spatial.Point{reserveQuery: reserve, broadwayQuery: broadway},
		timeouts: map[string]bool{timeoutQuery: true},
	}
}

func (p *mapProvider) Name() string           { return "map" }
func (p *mapProvider) Policy() geocode.Policy { return p.policy }

func (p *mapProvider) Geocode(_ context.Context, query string) (*geocode.GeocodingResult, error) {
	n := p.inFlight.Add(1)
	defer p.inFlight.Add(-1)

	for {
		m := p.maxInFlight.Load()
		if n <= m || p.maxInFlight.CompareAndSwap(m, n) {
			break
		}
	}

	p.mu.Lock()
	p.calls = append(p.calls, query)
	p.mu.Unlock()

	if p.hook != nil {
		p.hook(query)
	}

	if p.timeouts[query] {
		return nil, &geocode.GeocodingError{Type: geocode.ErrorTypeTimeout, Message: "timeout"}
	}

	if pt, ok := p.points[query]; ok {
		return &geocode.GeocodingResult{Latitude: pt.Lat, Longitude: pt.Lng, Provider: "map"}, nil
	}

	return nil, &geocode.GeocodingError{Type: geocode.ErrorTypeNotFound, Message: "not found"}
}

func (p *mapProvider) Calls() []string {
	p.mu.Lock()
	defer p.mu.Unlock()

	return append([]string(nil), p.calls...)
}

func newResolver(p geocode.Provider) *geocode.Resolver {
	return geocode.NewResolver(p, geocode.ResolverOptions{
		Sleep: func(context.Context, time.Duration) error { return nil },
	})
}

var header = []string{
	"id", "address1_line1", "address1_line2", "address1_city", "address1_postalcode",
	"lms_compositestorecontactdetails", "statuscode",
}

func row(values ...string) table.Record {
	rec := table.Record{}
	for i, v := range values {
		rec[header[i]] = v
	}

	return rec
}

func testTable() *table.Table {
	return &table.Table{
		Header: append([]string(nil), header...),
		Records: []table.Record{
			row("1", "3100 N Reserve St", "", "Missoula", "59808", "1405 E Broadway St Missoula MT 59802", "1"),
			row("2", "3100 N Reserve St", "", "Missoula", "59808", "Nowhere", "2"),
			row("3", "", "", "", "", "", "9"),
			row("4", "1 Timeout Rd", "", "Helena", "59601", "1405 E Broadway St Missoula MT 59802", "1"),
		},
	}
}

func statusTable() *mapping.Table {
	return mapping.NewTable([]mapping.Entry{{Code: "1", Label: "Open"}, {Code: "2", Label: "Closed"}})
}

func column(t *table.Table, name string) []string {
	var values []string
	for _, rec := range t.Records {
		values = append(values, rec[name])
	}

	return values
}

func TestRun(t *testing.T) {
	for _, workers := range []int{1, 4} {
		t.Run(strconv.Itoa(workers), func(t *testing.T) {
			p := newMapProvider()
			tbl := testTable()

			o := New(newResolver(p), Options{
				Translations:       []Translation{{Field: "statuscode", Table: statusTable()}},
				Workers:            workers,
				DisableProgressBar: true,
			})

			summary, err := o.Run(context.Background(), tbl)
			require.NoError(t, err)

			wantHeader := append(append([]string(nil), header...),
				"statuscode_translated", "combined_address", "distance_miles", "geocode_status")
			if diff := cmp.Diff(wantHeader, tbl.Header); diff != "" {
				t.Errorf("header mismatch (-want +got):\n%s", diff)
			}

			require.Equal(t, 4, tbl.Len())
			assert.Equal(t, []string{"1", "2", "3", "4"}, column(tbl, "id"))
			assert.Equal(t, []string{"1", "2", "9", "1"}, column(tbl, "statuscode"))
			assert.Equal(t, []string{"Open", "Closed", "9", "Open"}, column(tbl, "statuscode_translated"))
			assert.Equal(t, []string{
				"3100 N Reserve St Missoula 59808",
				"3100 N Reserve St Missoula 59808",
				"",
				"1 Timeout Rd Helena 59601",
			}, column(tbl, "combined_address"))

			want := strconv.FormatFloat(spatial.Distance(reserve, broadway, spatial.Miles), 'f', 2, 64)
			assert.Equal(t, []string{want, "", "", ""}, column(tbl, "distance_miles"))
			assert.Equal(t, []string{
				StatusResolved, StatusUnresolvedSecondary, StatusUnresolvedBoth, StatusUnresolvedPrimary,
			}, column(tbl, "geocode_status"))

			// three timeouts for the primary of row 4, nothing for the empty row
			calls := p.Calls()
			assert.Len(t, calls, 8)

			timeouts := 0

			for _, c := range calls {
				if c == timeoutQuery {
					timeouts++
				}
			}

			assert.Equal(t, 3, timeouts)

			assert.Equal(t, Snapshot{
				Total:               4,
				Processed:           4,
				Succeeded:           1,
				Failed:              3,
				ResolvedAddresses:   4,
				UnresolvedAddresses: 4,
			}, summary.Stats)
			assert.Equal(t, map[State]int{Computed: 1, PartiallyUnresolved: 3}, summary.States)
			assert.Equal(t, []mapping.Coverage{{Field: "statuscode", Translated: 3, Total: 4, Mappings: 2}}, summary.Coverage)
			assert.Equal(t, "map", summary.Provider)
			assert.NotEmpty(t, summary.RunID)
			assert.False(t, summary.Interrupted)
			assert.InDelta(t, 25.0, summary.Stats.SuccessRate(), 1e-9)

			summary.Log()
		})
	}
}

func TestRunSampling(t *testing.T) {
	p := newMapProvider()
	tbl := testTable()

	o := New(newResolver(p), Options{SampleSize: 1, DisableProgressBar: true})

	summary, err := o.Run(context.Background(), tbl)
	require.NoError(t, err)

	assert.Equal(t, []string{StatusResolved, StatusSkipped, StatusSkipped, StatusSkipped}, column(tbl, "geocode_status"))
	assert.Equal(t, "", tbl.Records[3]["distance_miles"])
	assert.Equal(t, "1 Timeout Rd Helena 59601", tbl.Records[3]["combined_address"])
	assert.Equal(t, []string{reserveQuery, broadwayQuery}, p.Calls())

	assert.Equal(t, int64(1), summary.Stats.Processed)
	assert.Equal(t, int64(3), summary.Stats.Skipped)
	assert.Zero(t, summary.Stats.Failed)
	assert.Equal(t, map[State]int{Computed: 1, Skipped: 3}, summary.States)
}

func TestRunSampleLargerThanTable(t *testing.T) {
	o := New(newResolver(newMapProvider()), Options{SampleSize: 100, DisableProgressBar: true})

	summary, err := o.Run(context.Background(), testTable())
	require.NoError(t, err)
	assert.Equal(t, int64(4), summary.Stats.Processed)
	assert.Zero(t, summary.Stats.Skipped)
}

func TestRunSkipResolution(t *testing.T) {
	tbl := testTable()
	tbl.Header = tbl.Header[:5] // no secondary column

	o := New(nil, Options{SkipResolution: true, Unit: spatial.Kilometers, DisableProgressBar: true})

	summary, err := o.Run(context.Background(), tbl)
	require.NoError(t, err)

	assert.True(t, tbl.HasColumn("distance_km"))
	assert.Equal(t, []string{StatusSkipped, StatusSkipped, StatusSkipped, StatusSkipped}, column(tbl, "geocode_status"))
	assert.Equal(t, []string{"", "", "", ""}, column(tbl, "distance_km"))
	assert.Equal(t, int64(4), summary.Stats.Skipped)
	assert.Empty(t, summary.Provider)
}

func TestRunInvalidCoordinates(t *testing.T) {
	p := newMapProvider()
	p.points[broadwayQuery] = spatial.Point{Lat: 123, Lng: 0}

	tbl := testTable()
	tbl.Records = tbl.Records[:1]

	summary, err := New(newResolver(p), Options{DisableProgressBar: true}).Run(context.Background(), tbl)
	require.NoError(t, err)

	assert.Equal(t, StatusUnresolvedSecondary, tbl.Records[0]["geocode_status"])
	assert.Equal(t, "", tbl.Records[0]["distance_miles"])
	assert.Equal(t, int64(1), summary.Stats.UnresolvedAddresses)
}

func TestRunAlreadyCancelled(t *testing.T) {
	p := newMapProvider()
	tbl := testTable()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	summary, err := New(newResolver(p), Options{DisableProgressBar: true}).Run(ctx, tbl)
	require.NoError(t, err)

	assert.Empty(t, p.Calls())
	assert.Equal(t, 4, tbl.Len())
	assert.Equal(t, []string{StatusCancelled, StatusCancelled, StatusCancelled, StatusCancelled}, column(tbl, "geocode_status"))
	assert.Equal(t, int64(4), summary.Stats.Cancelled)
	assert.True(t, summary.Interrupted)
}

func TestRunCancelledMidway(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	started := make(chan struct{})
	release := make(chan struct{})

	var once sync.Once

	p := newMapProvider()
	p.hook = func(string) {
		once.Do(func() {
			close(started)
			<-release
		})
	}

	go func() {
		<-started
		cancel()
		close(release)
	}()

	tbl := testTable()

	summary, err := New(newResolver(p), Options{Workers: 1, DisableProgressBar: true}).Run(ctx, tbl)
	require.NoError(t, err)

	// the record in flight completes, the others are never started
	assert.Equal(t, []string{StatusResolved, StatusCancelled, StatusCancelled, StatusCancelled}, column(tbl, "geocode_status"))
	assert.NotEmpty(t, tbl.Records[0]["distance_miles"])
	assert.Equal(t, []string{reserveQuery, broadwayQuery}, p.Calls())
	assert.Equal(t, int64(1), summary.Stats.Succeeded)
	assert.Equal(t, int64(3), summary.Stats.Cancelled)
	assert.True(t, summary.Interrupted)
}

func TestWorkersCappedByProvider(t *testing.T) {
	p := newMapProvider()
	p.policy.MaxConcurrency = 2
	p.hook = func(string) { time.Sleep(5 * time.Millisecond) }

	tbl := &table.Table{Header: append([]string(nil), header...)}
	for i := range 12 {
		tbl.Records = append(tbl.Records,
			row(strconv.Itoa(i), "3100 N Reserve St", "", "Missoula", "59808", "1405 E Broadway St Missoula MT 59802", ""))
	}

	o := New(newResolver(p), Options{Workers: 8, DisableProgressBar: true})
	assert.Equal(t, 2, o.workers())

	summary, err := o.Run(context.Background(), tbl)
	require.NoError(t, err)

	assert.Equal(t, int64(12), summary.Stats.Succeeded)
	assert.LessOrEqual(t, p.maxInFlight.Load(), int64(2))
}

func TestValidate(t *testing.T) {
	resolver := newResolver(newMapProvider())

	tests := []struct {
		name    string
		header  []string
		opts    Options
		res     *geocode.Resolver
		wantErr string
	}{
		{
			name:   "valid",
			header: header,
			opts:   Options{Translations: []Translation{{Field: "statuscode", Table: statusTable()}}},
			res:    resolver,
		},
		{
			name:    "missing translated field",
			header:  header,
			opts:    Options{Translations: []Translation{{Field: "lms_substatus", Table: statusTable()}}},
			res:     resolver,
			wantErr: `translated field "lms_substatus"`,
		},
		{
			name:    "missing secondary",
			header:  header[:5],
			res:     resolver,
			wantErr: `secondary address field "lms_compositestorecontactdetails"`,
		},
		{
			name:   "missing secondary but skipped",
			header: header[:5],
			opts:   Options{SkipResolution: true},
		},
		{
			name:   "some primary fields missing",
			header: []string{"address1_city", "lms_compositestorecontactdetails"},
			res:    resolver,
		},
		{
			name:    "no primary field",
			header:  []string{"id", "lms_compositestorecontactdetails"},
			res:     resolver,
			wantErr: "none of the address fields",
		},
		{
			name:    "no resolver",
			header:  header,
			wantErr: "no geocoder configured",
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			err := New(tc.res, tc.opts).Validate(&table.Table{Header: tc.header})
			if tc.wantErr == "" {
				assert.NoError(t, err)

				return
			}

			require.Error(t, err)
			assert.ErrorContains(t, err, tc.wantErr)

			if tc.wantErr != "no geocoder configured" {
				assert.ErrorIs(t, err, ErrMissingColumn)
			}
		})
	}
}

func TestRunValidationFailureLeavesTableUntouched(t *testing.T) {
	tbl := testTable()
	tbl.Header = tbl.Header[:5]

	_, err := New(newResolver(newMapProvider()), Options{}).Run(context.Background(), tbl)
	require.ErrorIs(t, err, ErrMissingColumn)
	assert.Equal(t, header[:5], tbl.Header)
}
