package reader

import (
	"context"
	"errors"
	"fmt"
	"io"
	"iter"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/arloliu/sensorpipe/compress"
	"github.com/arloliu/sensorpipe/errs"
	"github.com/arloliu/sensorpipe/format"
	"github.com/arloliu/sensorpipe/internal/options"
	"github.com/arloliu/sensorpipe/parser"
	"github.com/arloliu/sensorpipe/reading"
)

// StdinSource is the source name that selects standard input.
const StdinSource = "-"

const (
	stdinID = "stdin"
	// ctxCheckInterval is how many lines are consumed between context checks.
	ctxCheckInterval = 1024
)

// Stats summarises one Read call.
type Stats struct {
	Lines     int // physical lines consumed, header included
	Readings  int // readings delivered to the visitor
	Skipped   int // readings dropped by the date range
	Oversized int // lines dropped for exceeding the maximum line size
}

// Reader reads sensor log sources. Create one with New.
type Reader struct {
	format       format.Format
	compression  format.CompressionType
	tail         int
	follow       bool
	pollInterval time.Duration
	dateRange    reading.DateRange
	stdin        io.Reader
	logger       *slog.Logger
	maxLineSize  int
}

// New creates a Reader. Invalid option values are reported as errors matching
// errs.ErrInvalidConfig.
func New(opts ...Option) (*Reader, error) {
	rd := &Reader{
		format:       format.Auto,
		compression:  format.CompressionAuto,
		pollInterval: DefaultPollInterval,
		stdin:        os.Stdin,
		logger:       slog.Default(),
		maxLineSize:  DefaultMaxLineSize,
	}
	if err := options.Apply(rd, opts...); err != nil {
		return nil, err
	}

	if rd.follow && rd.compression != format.CompressionAuto && rd.compression != format.CompressionNone {
		return nil, fmt.Errorf("%w: %w: %s input", errs.ErrInvalidConfig, errs.ErrFollowUnsupported, rd.compression)
	}

	return rd, nil
}

// SourceID returns the identifier reported for source: "stdin" for standard
// input, the path otherwise.
func SourceID(source string) string {
	if isStdin(source) {
		return stdinID
	}

	return source
}

func isStdin(source string) bool {
	return source == "" || source == StdinSource
}

// Read streams every reading of source to visit and returns when the source
// is exhausted. In follow mode it returns ctx.Err() once ctx is cancelled.
//
// A source that cannot be opened is logged at warn level and reported as an
// error matching errs.ErrSourceUnavailable; no reading is delivered. Malformed
// lines are skipped silently.
func (rd *Reader) Read(ctx context.Context, source string, visit reading.Visitor) (Stats, error) {
	return rd.read(ctx, source, func(rec reading.Record) bool {
		visit(rec.Reading, rec.Line, rec.Source)
		return true
	})
}

// All returns an iterator over the records of source. A failure is yielded
// once, as the final element, with a zero Record. Breaking out of the loop
// stops reading.
func (rd *Reader) All(ctx context.Context, source string) iter.Seq2[reading.Record, error] {
	return func(yield func(reading.Record, error) bool) {
		stopped := false
		_, err := rd.read(ctx, source, func(rec reading.Record) bool {
			if !yield(rec, nil) {
				stopped = true
				return false
			}

			return true
		})
		if err != nil && !stopped {
			yield(reading.Record{}, err)
		}
	}
}

func (rd *Reader) read(ctx context.Context, source string, emit func(reading.Record) bool) (Stats, error) {
	in, err := rd.open(source)
	if err != nil {
		return Stats{}, err
	}
	defer in.close()

	s := &session{
		ctx:  ctx,
		rd:   rd,
		in:   in,
		lr:   newLineReader(in.stream, rd.maxLineSize),
		emit: emit,
	}
	defer s.lr.release()

	err = s.run()

	return s.stats, err
}

// input is an opened source.
type input struct {
	id          string
	format      format.Format
	compression format.CompressionType
	file        *os.File // nil for stdin
	seekable    bool     // plain regular file: tail can scan backwards
	stream      io.Reader
	closers     []io.Closer
}

func (in *input) close() {
	for i := len(in.closers) - 1; i >= 0; i-- {
		_ = in.closers[i].Close()
	}
}

func (rd *Reader) open(source string) (*input, error) {
	in := &input{
		id:          SourceID(source),
		format:      rd.format,
		compression: rd.compression,
	}

	if isStdin(source) {
		in.stream = rd.stdin
		if in.format == format.Auto {
			in.format = format.JSON
		}
		if in.compression == format.CompressionAuto {
			in.compression = format.CompressionNone
		}
	} else {
		f, err := os.Open(source)
		if err != nil {
			return nil, rd.unavailable(source, err)
		}
		in.file = f
		in.stream = f
		in.closers = append(in.closers, f)

		if in.format == format.Auto {
			in.format = format.DetectFormat(source)
		}
		if in.compression == format.CompressionAuto {
			in.compression = format.DetectCompression(source)
		}
		if fi, err := f.Stat(); err == nil && fi.Mode().IsRegular() && in.compression == format.CompressionNone {
			in.seekable = true
		}
	}

	if rd.follow && in.compression != format.CompressionNone {
		in.close()
		return nil, fmt.Errorf("%w: %w: %s is %s-compressed", errs.ErrInvalidConfig, errs.ErrFollowUnsupported, in.id, in.compression)
	}

	if in.compression != format.CompressionNone {
		rc, err := compress.NewReader(in.stream, in.compression)
		if err != nil {
			in.close()
			return nil, rd.unavailable(source, err)
		}
		in.stream = rc
		in.closers = append(in.closers, rc)
	}

	return in, nil
}

func (rd *Reader) unavailable(source string, err error) error {
	rd.logger.Warn("source unavailable", slog.String("source", source), slog.Any("error", err))
	return fmt.Errorf("%w: %s: %w", errs.ErrSourceUnavailable, source, err)
}

// session is the state of one Read call.
type session struct {
	ctx     context.Context
	rd      *Reader
	in      *input
	lr      *lineReader
	emit    func(reading.Record) bool
	stats   Stats
	err     error // sticky: io.EOF, ctx.Err() or a read error
	stopped bool
}

func (s *session) run() error {
	var header []string
	if s.in.format == format.CSV {
		h, err := s.readHeader()
		if err != nil {
			return s.result(err)
		}
		header = h
	}

	if s.rd.tail > 0 {
		if err := s.positionTail(); err != nil {
			return s.result(err)
		}
	}

	for !s.stopped {
		line, err := s.nextLine()
		if err != nil {
			return s.result(err)
		}
		lineNo := s.lr.lineNo

		if s.in.format == format.CSV {
			s.csvLine(header, line, lineNo)
		} else {
			s.jsonLine(line, lineNo)
		}
	}

	return nil
}

func (s *session) result(err error) error {
	if errors.Is(err, io.EOF) {
		return nil
	}

	return err
}

// readHeader consumes the first non-blank CSV row.
func (s *session) readHeader() ([]string, error) {
	for {
		line, err := s.nextLine()
		if err != nil {
			return nil, err
		}
		if strings.TrimSpace(line) == "" {
			continue
		}

		return parser.ParseCSVRow(line, continuation{s}), nil
	}
}

// positionTail replaces the rest of the stream with its last tail lines.
// A CSV header already consumed is never part of the window.
func (s *session) positionTail() error {
	n := s.rd.tail

	if s.in.seekable {
		f := s.in.file
		fi, err := f.Stat()
		if err != nil {
			return fmt.Errorf("%s: %w", s.in.id, err)
		}
		floor, end := s.lr.offset, fi.Size()
		if s.rd.follow {
			if end, err = lastLineEnd(f, floor, end); err != nil {
				return fmt.Errorf("%s: %w", s.in.id, err)
			}
		}

		lines, err := tailLines(f, floor, end, n)
		if err != nil {
			return fmt.Errorf("%s: %w", s.in.id, err)
		}
		if _, err := f.Seek(end, io.SeekStart); err != nil {
			return fmt.Errorf("%s: %w", s.in.id, err)
		}
		s.lr.reset(f, end)
		s.lr.replay(lines)

		return nil
	}

	window := newRing(n)
	for consumed := 1; ; consumed++ {
		if consumed%ctxCheckInterval == 0 {
			if err := s.ctx.Err(); err != nil {
				return err
			}
		}

		line, err := s.lr.next()
		if errors.Is(err, errs.ErrLineTooLong) {
			s.oversized(err)
			continue
		}
		if errors.Is(err, io.EOF) {
			if !s.rd.follow {
				if line, ok := s.lr.flush(); ok {
					window.push(line)
				}
			}

			break
		}
		if err != nil {
			return fmt.Errorf("%s: %w", s.in.id, err)
		}
		window.push(line)
	}
	s.lr.replay(window.lines())

	return nil
}

// nextLine returns the next physical line. At end of stream it returns
// io.EOF, or in follow mode waits for more data until the context ends.
func (s *session) nextLine() (string, error) {
	if s.err != nil {
		return "", s.err
	}

	for {
		if s.stats.Lines%ctxCheckInterval == 0 {
			if err := s.ctx.Err(); err != nil {
				s.err = err
				return "", err
			}
		}

		line, err := s.lr.next()
		switch {
		case err == nil:
			s.stats.Lines++
			return line, nil
		case errors.Is(err, errs.ErrLineTooLong):
			s.oversized(err)
			continue
		case !errors.Is(err, io.EOF):
			s.err = fmt.Errorf("%s: %w", s.in.id, err)
			return "", s.err
		}

		if !s.rd.follow {
			if line, ok := s.lr.flush(); ok {
				s.stats.Lines++
				return line, nil
			}
			s.err = io.EOF

			return "", io.EOF
		}

		if err := s.wait(); err != nil {
			s.err = err
			return "", err
		}
		s.checkTruncated()
	}
}

// wait sleeps for the poll interval or until the context ends.
func (s *session) wait() error {
	timer := time.NewTimer(s.rd.pollInterval)
	defer timer.Stop()

	select {
	case <-s.ctx.Done():
		return s.ctx.Err()
	case <-timer.C:
		return nil
	}
}

// checkTruncated restarts a followed file from the beginning when it shrank
// below the read position, as after a copytruncate log rotation.
func (s *session) checkTruncated() {
	if !s.in.seekable {
		return
	}
	fi, err := s.in.file.Stat()
	if err != nil || fi.Size() >= s.lr.offset {
		return
	}
	if _, err := s.in.file.Seek(0, io.SeekStart); err != nil {
		return
	}

	s.rd.logger.Info("source truncated, reading from start", slog.String("source", s.in.id))
	s.lr.reset(s.in.file, 0)
}

func (s *session) oversized(err error) {
	s.stats.Oversized++
	s.rd.logger.Warn("skipping oversized line", slog.String("source", s.in.id), slog.Any("error", err))
}

func (s *session) jsonLine(line string, lineNo int) {
	for r := range parser.JSONReadings(line) {
		if !s.deliver(r, lineNo) {
			return
		}
	}
}

func (s *session) csvLine(header []string, line string, lineNo int) {
	if strings.TrimSpace(line) == "" {
		return
	}
	fields := parser.ParseCSVRow(line, continuation{s})
	if r := parser.Zip(header, fields); r != nil {
		s.deliver(r, lineNo)
	}
}

func (s *session) deliver(r reading.Reading, lineNo int) bool {
	if !s.rd.dateRange.Contains(r) {
		s.stats.Skipped++
		return true
	}

	s.stats.Readings++
	if !s.emit(reading.Record{Reading: r, Line: lineNo, Source: s.in.id}) {
		s.stopped = true
		return false
	}

	return true
}

// continuation feeds further physical lines to the CSV parser while a quoted
// field is open.
type continuation struct {
	s *session
}

func (c continuation) NextLine() (string, bool) {
	line, err := c.s.nextLine()
	return line, err == nil
}
