// Package reader turns sensor log sources into a stream of readings.
//
// A source is a file path, or "-" for standard input. The input format is
// taken from WithFormat or detected from the file name (".csv" is CSV,
// anything else is line-delimited JSON), and compressed artifacts (".zst",
// ".s2", ".lz4", ".gz") are decompressed on the fly.
//
// Reading is line oriented. JSON sources carry one object, or an array of
// objects, per line. CSV sources start with a header row; quoted fields may
// span several physical lines. Each reading is handed to the visitor with the
// physical line number that started it and the source identifier.
//
// Tail mode (WithTail) replays only the last N lines. Plain files are scanned
// backwards from the end, so the cost is proportional to the window rather
// than the file; compressed files and stdin are read forward while keeping
// the last N lines. Follow mode (WithFollow) keeps polling for appended lines
// until the context is cancelled. Both can be combined: the window is replayed
// first and following starts at end of file.
//
// A Reader holds configuration only. Every Read call keeps its own state, so
// one Reader may serve several goroutines.
package reader
