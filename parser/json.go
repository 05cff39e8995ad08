package parser

import (
	"iter"
	"strings"

	"github.com/arloliu/sensorpipe/reading"
)

// ParseJSONLine parses one input line into the readings it contains, in order.
//
// The line may hold a single object or an array of objects. Parsing the same
// line twice always yields identical readings.
func ParseJSONLine(line string) []reading.Reading {
	var out []reading.Reading
	scanJSON(line, func(r reading.Reading) bool {
		out = append(out, r)
		return true
	})

	return out
}

// JSONReadings returns an iterator over the readings in line.
//
// Example:
//
//	for r := range parser.JSONReadings(`[{"a":"1"},{"a":"2"}]`) {
//	    fmt.Println(r["a"])
//	}
func JSONReadings(line string) iter.Seq[reading.Reading] {
	return func(yield func(reading.Reading) bool) {
		scanJSON(line, yield)
	}
}

type jsonScanner struct {
	s   string
	pos int
}

func scanJSON(line string, yield func(reading.Reading) bool) {
	sc := jsonScanner{s: line}
	sc.skipSpace()
	if sc.eof() {
		return
	}

	switch sc.peek() {
	case '{':
		r, ok := sc.object()
		if ok && len(r) > 0 {
			yield(r)
		}
	case '[':
		sc.pos++
		for {
			sc.skipSpace()
			if sc.eof() || sc.peek() != '{' {
				return
			}
			r, ok := sc.object()
			if !ok {
				return
			}
			if len(r) > 0 && !yield(r) {
				return
			}
			sc.skipSpace()
			if sc.eof() {
				return
			}
			switch sc.peek() {
			case ',':
				sc.pos++
			default:
				// ']' or garbage: either way the array is done.
				return
			}
		}
	}
}

// object parses one {...} starting at the current '{'. It reports false when
// the object is truncated or malformed; the partial reading is discarded.
func (sc *jsonScanner) object() (reading.Reading, bool) {
	sc.pos++ // '{'
	r := make(reading.Reading)

	for {
		sc.skipSpace()
		if sc.eof() {
			return nil, false
		}
		switch sc.peek() {
		case '}':
			sc.pos++
			return r, true
		case ',':
			sc.pos++
			continue
		case '"':
		default:
			return nil, false
		}

		key, ok := sc.quoted()
		if !ok {
			return nil, false
		}
		sc.skipSpace()
		if sc.eof() || sc.peek() != ':' {
			return nil, false
		}
		sc.pos++
		sc.skipSpace()
		if sc.eof() {
			return nil, false
		}

		var val string
		switch sc.peek() {
		case '"':
			val, ok = sc.quoted()
		case '{', '[':
			val, ok = sc.nested()
		default:
			val, ok = sc.bare()
		}
		if !ok {
			return nil, false
		}
		r[key] = val

		sc.skipSpace()
		if sc.eof() {
			return nil, false
		}
		switch sc.peek() {
		case ',':
			sc.pos++
		case '}':
			sc.pos++
			return r, true
		default:
			return nil, false
		}
	}
}

// quoted reads a "..." string starting at the opening quote. A backslash
// consumes the next byte literally; the backslash itself is not kept.
func (sc *jsonScanner) quoted() (string, bool) {
	start := sc.pos + 1
	// Fast path: no escapes before the closing quote.
	for i := start; i < len(sc.s); i++ {
		switch sc.s[i] {
		case '"':
			sc.pos = i + 1
			return sc.s[start:i], true
		case '\\':
			return sc.quotedEscaped(start, i)
		}
	}

	return "", false
}

func (sc *jsonScanner) quotedEscaped(start, firstEscape int) (string, bool) {
	var sb strings.Builder
	sb.Grow(firstEscape - start + 16)
	sb.WriteString(sc.s[start:firstEscape])

	for i := firstEscape; i < len(sc.s); i++ {
		c := sc.s[i]
		switch c {
		case '\\':
			if i+1 >= len(sc.s) {
				return "", false
			}
			i++
			sb.WriteByte(sc.s[i])
		case '"':
			sc.pos = i + 1
			return sb.String(), true
		default:
			sb.WriteByte(c)
		}
	}

	return "", false
}

// nested captures a nested array or object verbatim, brackets included.
// Brackets inside quoted strings do not count towards the depth.
func (sc *jsonScanner) nested() (string, bool) {
	start := sc.pos
	depth := 0
	inString := false

	for i := start; i < len(sc.s); i++ {
		c := sc.s[i]
		if inString {
			switch c {
			case '\\':
				i++
			case '"':
				inString = false
			}

			continue
		}
		switch c {
		case '"':
			inString = true
		case '{', '[':
			depth++
		case '}', ']':
			depth--
			if depth == 0 {
				sc.pos = i + 1
				return sc.s[start:sc.pos], true
			}
		}
	}

	return "", false
}

// bare reads an unquoted value (number, true, false, null) up to the next
// ',', '}' or ']', trimming trailing whitespace.
func (sc *jsonScanner) bare() (string, bool) {
	i := strings.IndexAny(sc.s[sc.pos:], ",}]")
	if i < 0 {
		return "", false
	}
	val := strings.TrimRight(sc.s[sc.pos:sc.pos+i], " \t\r\n")
	sc.pos += i

	return val, true
}

func (sc *jsonScanner) skipSpace() {
	for sc.pos < len(sc.s) {
		switch sc.s[sc.pos] {
		case ' ', '\t', '\r', '\n':
			sc.pos++
		default:
			return
		}
	}
}

func (sc *jsonScanner) eof() bool { return sc.pos >= len(sc.s) }

func (sc *jsonScanner) peek() byte { return sc.s[sc.pos] }
