package trace

import (
	"bufio"
	"bytes"
	"encoding/json"
	"errors"
	"io"
	"iter"
	"strconv"
	"time"
)

// ErrNotEvent is returned by [Parse] for lines that are not monitor events.
var ErrNotEvent = errors.New("not a monitor event")

// maxLine bounds a single log line.
const maxLine = 1 << 20

// Parse decodes one JSON log line.
func Parse(line []byte) (*Event, error) {
	line = bytes.TrimSpace(line)
	if len(line) == 0 || line[0] != '{' {
		return nil, ErrNotEvent
	}
	var fields map[string]any
	if err := json.Unmarshal(line, &fields); err != nil {
		return nil, errors.Join(ErrNotEvent, err)
	}
	name, ok := fields["msg"].(string)
	if !ok {
		return nil, ErrNotEvent
	}
	delete(fields, "msg")

	e := &Event{Name: name, Annotations: make(Annotations, len(fields))}
	if level, ok := fields["level"].(string); ok {
		e.Level = level
		delete(fields, "level")
	}
	if ts, ok := fields["ts"].(string); ok {
		if t, err := time.Parse("2006-01-02T15:04:05.000Z0700", ts); err == nil {
			e.Timestamp = t
		}
		delete(fields, "ts")
	}
	if pid, ok := fields["pid"].(float64); ok {
		e.Pid = int(pid)
		delete(fields, "pid")
	}
	for k, v := range fields {
		e.Annotations[k] = text(v)
	}
	return e, nil
}

func text(v any) string {
	switch v := v.(type) {
	case string:
		return v
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(v)
	case nil:
		return ""
	default:
		data, _ := json.Marshal(v)
		return string(data)
	}
}

// Reader yields the events of a log, skipping lines that are not events
// (application output sharing the stream, for instance).
type Reader struct {
	scanner  *bufio.Scanner
	enricher Enricher
	err      error

	// Skipped counts the lines that were not events.
	Skipped int
}

// NewReader returns a Reader over r enriching every event with enricher,
// which may be nil.
func NewReader(r io.Reader, enricher Enricher) *Reader {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), maxLine)
	return &Reader{scanner: scanner, enricher: enricher}
}

// All returns the events in log order. Check [Reader.Err] afterwards.
func (r *Reader) All() iter.Seq[*Event] {
	return func(yield func(*Event) bool) {
		for r.scanner.Scan() {
			e, err := Parse(r.scanner.Bytes())
			if err != nil {
				r.Skipped++
				continue
			}
			if r.enricher != nil {
				r.enricher(e)
			}
			if !yield(e) {
				return
			}
		}
		r.err = r.scanner.Err()
	}
}

// Err returns the first read error, if any.
func (r *Reader) Err() error {
	return r.err
}
