// Package parser turns raw input lines into sensor readings.
//
// Two hand-rolled line parsers are provided:
//
//   - JSON: a line holds either one object ({...}) or an array of objects
//     ([{...}, {...}]). Object boundaries are scanned directly in the line;
//     no intermediate tree is built. Nested arrays and objects are captured
//     verbatim as the value text.
//   - CSV: RFC4180-style rows where quoted fields may contain commas, doubled
//     quotes and newlines. An unclosed quote pulls further physical lines from
//     a LineSource until it closes.
//
// # Malformed Input
//
// Parsers never return errors. A malformed or truncated line yields the
// complete readings assembled before the first unexpected byte, which may be
// none. Objects without any key/value pair are dropped.
//
// # Thread Safety
//
// All functions are stateless and safe for concurrent use. A LineSource is
// owned by a single goroutine.
package parser
