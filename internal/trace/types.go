// Package trace reads the JSON event log written by the monitor.
package trace

import (
	"strconv"
	"strings"
	"time"
)

// Tag represents a trace event category.
// Tags are stored without # prefix; the prefix is added on rendering.
type Tag string

// Standard tags for trace events.
const (
	Socket  Tag = "socket"
	Connect Tag = "connect"
	DNS     Tag = "dns"
	Close   Tag = "close"
	Loader  Tag = "loader"
	Failure Tag = "failure"
)

// Tags is a collection of tags with helper methods.
type Tags []Tag

// Has returns true if the tag collection contains the given tag.
func (t Tags) Has(tag Tag) bool {
	for _, x := range t {
		if x == tag {
			return true
		}
	}
	return false
}

// Add adds a tag if not already present.
func (t *Tags) Add(tag Tag) {
	if !t.Has(tag) {
		*t = append(*t, tag)
	}
}

// Strings returns tags as strings with # prefix for display.
func (t Tags) Strings() []string {
	out := make([]string, len(t))
	for i, tag := range t {
		out[i] = "#" + string(tag)
	}
	return out
}

// Primary returns the first tag or empty string if none.
func (t Tags) Primary() Tag {
	if len(t) > 0 {
		return t[0]
	}
	return ""
}

// Annotations holds the event fields, rendered as text.
type Annotations map[string]string

// Get retrieves an annotation value.
func (a Annotations) Get(k string) string {
	return a[k]
}

// Has returns true if the annotation exists.
func (a Annotations) Has(k string) bool {
	_, ok := a[k]
	return ok
}

// Event is one line of the monitor log.
type Event struct {
	Timestamp   time.Time   // "ts"
	Level       string      // "level"
	Name        string      // "msg", e.g. "connectDone"
	Pid         int         // "pid"
	Tags        Tags        // Assigned by an [Enricher], first is primary
	Annotations Annotations // Every other field
}

// AddTag adds a tag to the event.
func (e *Event) AddTag(tag Tag) {
	e.Tags.Add(tag)
}

// PrimaryTag returns the primary (first) tag with # prefix.
func (e *Event) PrimaryTag() string {
	if len(e.Tags) > 0 {
		return "#" + string(e.Tags[0])
	}
	return ""
}

// Rv returns the "rv" field as an integer.
func (e *Event) Rv() (int, bool) {
	if !e.Annotations.Has("rv") {
		return 0, false
	}
	rv, err := strconv.Atoi(e.Annotations.Get("rv"))
	return rv, err == nil
}

// Failed reports whether the event records a failed call. A connect that
// returns EINPROGRESS is still underway, not failed.
func (e *Event) Failed() bool {
	if strings.HasSuffix(e.Name, "Failed") || strings.HasSuffix(e.Name, "Empty") {
		return true
	}
	if e.Name == "getaddrinfoDone" {
		return false
	}
	rv, ok := e.Rv()
	return ok && rv < 0 && e.Annotations.Get("errno") != "EINPROGRESS"
}

// Enricher enriches trace events based on their name.
type Enricher func(e *Event)

// DefaultEnricher tags events by the function they describe.
func DefaultEnricher(e *Event) {
	switch {
	case strings.HasPrefix(e.Name, "socket"):
		e.AddTag(Socket)
	case strings.HasPrefix(e.Name, "connect"):
		e.AddTag(Connect)
	case strings.HasPrefix(e.Name, "getaddrinfo"), strings.HasPrefix(e.Name, "resolved"):
		e.AddTag(DNS)
	case strings.HasPrefix(e.Name, "close"):
		e.AddTag(Close)
	case strings.HasPrefix(e.Name, "symbol"), strings.HasPrefix(e.Name, "bootstrap"),
		e.Name == "registered":
		e.AddTag(Loader)
	}
	if e.Failed() {
		e.AddTag(Failure)
	}
}
