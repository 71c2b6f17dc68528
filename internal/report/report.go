//go:build linux

// Package report summarises the destinations found in a monitor log.
package report

import (
	"cmp"
	"errors"
	"fmt"
	"io"
	"slices"
	"time"

	"github.com/aws-samples/sample-lambda-network-monitor/internal/sockaddr"
	"github.com/aws-samples/sample-lambda-network-monitor/internal/trace"
)

// ErrNoEvents is returned by [Read] when a log has lines but none of them
// is a JSON monitor event, as with a log written in console format.
var ErrNoEvents = errors.New("no JSON monitor events (the report needs LNM_LOG_FORMAT=json)")

// Row aggregates the connects to one address under one hostname.
type Row struct {
	Hostname  string
	Address   string
	Connects  int
	Failures  int
	FirstSeen time.Time
	LastSeen  time.Time
}

type key struct {
	hostname string
	address  string
}

// Report accumulates events into rows.
type Report struct {
	rows map[key]*Row

	// Events counts the events seen.
	Events int

	// Lookups and LookupFailures count name resolutions.
	Lookups        int
	LookupFailures int

	// Skipped counts log lines that were not events.
	Skipped int
}

// New returns an empty Report.
func New() *Report {
	return &Report{rows: make(map[key]*Row)}
}

// Read builds a Report from a monitor log written in JSON format.
func Read(r io.Reader) (*Report, error) {
	rep := New()
	reader := trace.NewReader(r, trace.DefaultEnricher)
	for e := range reader.All() {
		rep.Add(e)
	}
	rep.Skipped = reader.Skipped
	if err := reader.Err(); err != nil {
		return nil, err
	}
	if rep.Events == 0 && rep.Skipped > 0 {
		return nil, fmt.Errorf("%w: %d lines skipped", ErrNoEvents, rep.Skipped)
	}
	return rep, nil
}

// Add accounts for one event. It expects events enriched with
// [trace.DefaultEnricher].
func (r *Report) Add(e *trace.Event) {
	r.Events++
	switch {
	case e.Tags.Has(trace.DNS) && e.Name != "resolved" && e.Name != "resolvedAdded" && e.Name != "getaddrinfoStart":
		r.Lookups++
		if e.Tags.Has(trace.Failure) {
			r.LookupFailures++
		}
	case e.Name == "connectDone":
		r.addConnect(e)
	}
}

func (r *Report) addConnect(e *trace.Event) {
	addr := e.Annotations.Get("addr")
	if addr == "" || addr == sockaddr.NotApplicable {
		return
	}
	k := key{hostname: e.Annotations.Get("node"), address: addr}
	row, found := r.rows[k]
	if !found {
		row = &Row{Hostname: k.hostname, Address: k.address, FirstSeen: e.Timestamp}
		r.rows[k] = row
	}
	row.Connects++
	if e.Tags.Has(trace.Failure) {
		row.Failures++
	}
	if e.Timestamp.Before(row.FirstSeen) {
		row.FirstSeen = e.Timestamp
	}
	if e.Timestamp.After(row.LastSeen) {
		row.LastSeen = e.Timestamp
	}
}

// Rows returns the rows ordered by hostname, then address.
func (r *Report) Rows() []Row {
	out := make([]Row, 0, len(r.rows))
	for _, row := range r.rows {
		out = append(out, *row)
	}
	slices.SortFunc(out, func(a, b Row) int {
		return cmp.Or(cmp.Compare(a.Hostname, b.Hostname), cmp.Compare(a.Address, b.Address))
	})
	return out
}

// Summary is the one-line trailer printed under the table.
func (r *Report) Summary() string {
	return fmt.Sprintf("%d destinations, %d events, %d lookups (%d failed), %d lines skipped",
		len(r.rows), r.Events, r.Lookups, r.LookupFailures, r.Skipped)
}
