package parser

import (
	"strings"

	"github.com/arloliu/sensorpipe/reading"
)

// LineSource supplies further physical lines from the stream a CSV row was
// read from. NextLine returns the next line without its terminating '\n' and
// false once the stream is exhausted.
type LineSource interface {
	NextLine() (string, bool)
}

// SliceLines is a LineSource over an in-memory slice of lines.
type SliceLines struct {
	lines []string
	next  int
}

// NewSliceLines creates a LineSource that yields lines in order.
func NewSliceLines(lines ...string) *SliceLines {
	return &SliceLines{lines: lines}
}

// NextLine implements LineSource.
func (s *SliceLines) NextLine() (string, bool) {
	if s.next >= len(s.lines) {
		return "", false
	}
	line := s.lines[s.next]
	s.next++

	return line, true
}

// ParseCSVRow splits one logical CSV row into its field values.
//
// Quoted fields may contain commas and line breaks; a doubled quote inside a
// quoted field is a literal quote. When a quote is still open at the end of
// line, further lines are pulled from more (which may be nil) and joined with
// '\n' until the quote closes or the stream ends. A trailing '\r' outside
// quotes is dropped.
//
// Parameters:
//   - line: The physical line that starts the row, without its '\n'
//   - more: Source of continuation lines, or nil
//
// Returns:
//   - []string: The field values in column order (at least one element)
func ParseCSVRow(line string, more LineSource) []string {
	var (
		fields   []string
		field    strings.Builder
		inQuotes bool
		quoted   bool // current field started with a quote
	)

	for i := 0; ; i++ {
		if i >= len(line) {
			if !inQuotes {
				break
			}
			if more == nil {
				break
			}
			next, ok := more.NextLine()
			if !ok {
				break
			}
			field.WriteByte('\n')
			line = next
			i = -1

			continue
		}

		c := line[i]
		if inQuotes {
			if c == '"' {
				if i+1 < len(line) && line[i+1] == '"' {
					field.WriteByte('"')
					i++
				} else {
					inQuotes = false
				}

				continue
			}
			field.WriteByte(c)

			continue
		}

		switch c {
		case '"':
			if field.Len() == 0 && !quoted {
				inQuotes = true
				quoted = true
			} else {
				field.WriteByte(c)
			}
		case ',':
			fields = append(fields, field.String())
			field.Reset()
			quoted = false
		case '\r':
			if i != len(line)-1 {
				field.WriteByte(c)
			}
		default:
			field.WriteByte(c)
		}
	}

	return append(fields, field.String())
}

// Zip builds a reading by pairing header names with field values by position.
//
// Rows shorter than the header leave the trailing columns absent; values past
// the last header column are ignored. Returns nil when no column was set.
func Zip(header, fields []string) reading.Reading {
	n := min(len(header), len(fields))
	if n == 0 {
		return nil
	}

	r := make(reading.Reading, n)
	for i := 0; i < n; i++ {
		r[header[i]] = fields[i]
	}

	return r
}

// QuoteCSVField returns s quoted for CSV output when it contains a comma,
// quote, line break or leading/trailing space; otherwise s is returned as is.
func QuoteCSVField(s string) string {
	if !needsQuotes(s) {
		return s
	}

	return `"` + strings.ReplaceAll(s, `"`, `""`) + `"`
}

// AppendCSVRow appends fields as one CSV row (without a line terminator).
func AppendCSVRow(dst []byte, fields []string) []byte {
	for i, f := range fields {
		if i > 0 {
			dst = append(dst, ',')
		}
		dst = append(dst, QuoteCSVField(f)...)
	}

	return dst
}

func needsQuotes(s string) bool {
	if s == "" {
		return false
	}
	if s[0] == ' ' || s[0] == '\t' || s[len(s)-1] == ' ' || s[len(s)-1] == '\t' {
		return true
	}

	return strings.ContainsAny(s, ",\"\r\n")
}
