// Package reading defines the sensor reading data model shared by the parsers,
// the filter engine, the reader, and downstream visitors.
//
// A Reading is a flat mapping from column name to raw text value. Values are
// never interpreted while a reading moves through the pipeline: numbers,
// booleans, null and nested JSON structures are all kept as the text that
// appeared in the input. Interpretation is deferred to output time (see
// AppendJSON).
package reading

import (
	"sort"
	"strings"
)

// Separator bytes used by Key. They are ASCII unit and record separators,
// which do not appear in well-formed sensor logs.
const (
	KeyValueSeparator = '\x1f'
	PairSeparator     = '\x1e'
)

// Reading is one decoded sensor observation.
type Reading map[string]string

// Record is a reading together with where it came from.
type Record struct {
	Reading Reading
	// Line is the 1-based physical line number that started the record.
	Line int
	// Source identifies the input: the file path, or "stdin".
	Source string
}

// Visitor receives each reading that survives the reader's pre-filter (and,
// when driven through a pipeline, the full filter engine).
//
// Visitors used with the parallel processor are invoked from several
// goroutines and must not assume single-threaded invocation.
type Visitor func(r Reading, line int, source string)

// Get returns the value for column and whether it is present.
func (r Reading) Get(column string) (string, bool) {
	v, ok := r[column]
	return v, ok
}

// Keys returns the column names sorted lexicographically.
func (r Reading) Keys() []string {
	keys := make([]string, 0, len(r))
	for k := range r {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	return keys
}

// Clone returns an independent copy of r.
func (r Reading) Clone() Reading {
	if r == nil {
		return nil
	}
	out := make(Reading, len(r))
	for k, v := range r {
		out[k] = v
	}

	return out
}

// Key returns the canonical serialization of r used for duplicate detection.
//
// Pairs are sorted by column name; each pair is written as name, 0x1F, value
// and pairs are joined by 0x1E. Two readings with equal contents always
// produce the same key regardless of map iteration order.
func (r Reading) Key() string {
	keys := r.Keys()

	size := 0
	for _, k := range keys {
		size += len(k) + len(r[k]) + 2
	}

	var sb strings.Builder
	sb.Grow(size)
	for i, k := range keys {
		if i > 0 {
			sb.WriteByte(PairSeparator)
		}
		sb.WriteString(k)
		sb.WriteByte(KeyValueSeparator)
		sb.WriteString(r[k])
	}

	return sb.String()
}
