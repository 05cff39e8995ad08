package reading

import (
	"encoding/json"
	"strconv"
)

// AppendJSON appends r to dst as a single JSON object with keys in sorted order.
//
// Values are emitted bare when they already are valid JSON scalars or captured
// nested structures: numbers, true, false, null, and text starting with '{' or
// '['. Everything else is emitted as a JSON string.
func AppendJSON(dst []byte, r Reading) []byte {
	dst = append(dst, '{')
	for i, k := range r.Keys() {
		if i > 0 {
			dst = append(dst, ',')
		}
		dst = appendString(dst, k)
		dst = append(dst, ':')
		v := r[k]
		if IsBareValue(v) {
			dst = append(dst, v...)
		} else {
			dst = appendString(dst, v)
		}
	}

	return append(dst, '}')
}

// IsBareValue reports whether v can be written into JSON output without quoting.
func IsBareValue(v string) bool {
	switch v {
	case "":
		return false
	case "true", "false", "null":
		return true
	}
	switch v[0] {
	case '{', '[':
		return json.Valid([]byte(v))
	}
	if _, err := strconv.ParseFloat(v, 64); err != nil {
		return false
	}
	// ParseFloat accepts forms JSON does not (Inf, NaN, hex, leading '+', "1.").
	return json.Valid([]byte(v))
}

func appendString(dst []byte, s string) []byte {
	b, err := json.Marshal(s)
	if err != nil {
		return strconv.AppendQuote(dst, s)
	}

	return append(dst, b...)
}
