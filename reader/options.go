package reader

import (
	"fmt"
	"io"
	"log/slog"
	"slices"
	"time"

	"github.com/arloliu/sensorpipe/errs"
	"github.com/arloliu/sensorpipe/format"
	"github.com/arloliu/sensorpipe/internal/options"
)

const (
	// DefaultPollInterval is how long follow mode waits at end of file before retrying.
	DefaultPollInterval = 250 * time.Millisecond
	// DefaultMaxLineSize bounds a single physical line.
	DefaultMaxLineSize = 16 * 1024 * 1024
)

// Option configures a Reader.
type Option = options.Option[*Reader]

// WithFormat forces the input format instead of detecting it from the file name.
func WithFormat(f format.Format) Option {
	return options.New(func(r *Reader) error {
		switch f {
		case format.Auto, format.JSON, format.CSV:
			r.format = f
			return nil
		default:
			return fmt.Errorf("%w: %s", errs.ErrUnknownFormat, f)
		}
	})
}

// WithCompression forces the compression type instead of detecting it from
// the file suffix. It also applies to stdin, which is otherwise read as plain text.
func WithCompression(c format.CompressionType) Option {
	return options.New(func(r *Reader) error {
		switch c {
		case format.CompressionAuto, format.CompressionNone, format.CompressionZstd,
			format.CompressionS2, format.CompressionLZ4, format.CompressionGzip:
			r.compression = c
			return nil
		default:
			return fmt.Errorf("%w: %s", errs.ErrUnknownCompression, c)
		}
	})
}

// WithTail limits each source to its last n lines. Zero reads everything.
func WithTail(n int) Option {
	return options.New(func(r *Reader) error {
		if n < 0 {
			return fmt.Errorf("%w: %d", errs.ErrInvalidTailCount, n)
		}
		r.tail = n

		return nil
	})
}

// WithFollow keeps reading after end of file, like tail -f, until the
// context passed to Read is cancelled.
func WithFollow(follow bool) Option {
	return options.NoError(func(r *Reader) {
		r.follow = follow
	})
}

// WithPollInterval sets how often follow mode checks for new data.
func WithPollInterval(d time.Duration) Option {
	return options.New(func(r *Reader) error {
		if d <= 0 {
			return fmt.Errorf("%w: %s", errs.ErrInvalidInterval, d)
		}
		r.pollInterval = d

		return nil
	})
}

// WithDateRange drops readings outside [minTS, maxTS] (epoch seconds, zero
// for an open bound) before they reach the visitor. Readings without a usable
// timestamp are kept.
func WithDateRange(minTS, maxTS int64) Option {
	return options.New(func(r *Reader) error {
		if minTS != 0 && maxTS != 0 && minTS > maxTS {
			return fmt.Errorf("%w: %d > %d", errs.ErrInvalidDateRange, minTS, maxTS)
		}
		r.dateRange.Min = minTS
		r.dateRange.Max = maxTS

		return nil
	})
}

// WithTimestampColumns overrides the columns checked for a reading's time.
func WithTimestampColumns(columns ...string) Option {
	return options.NoError(func(r *Reader) {
		r.dateRange.Columns = slices.Clone(columns)
	})
}

// WithStdin replaces os.Stdin as the stream read for the "-" source.
func WithStdin(stdin io.Reader) Option {
	return options.NoError(func(r *Reader) {
		if stdin != nil {
			r.stdin = stdin
		}
	})
}

// WithLogger sets the logger. Defaults to slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return options.NoError(func(r *Reader) {
		if logger != nil {
			r.logger = logger
		}
	})
}

// WithMaxLineSize bounds a single physical line. Longer lines are skipped
// with a warning.
func WithMaxLineSize(n int) Option {
	return options.New(func(r *Reader) error {
		if n <= 0 {
			return fmt.Errorf("%w: max line size must be positive, got %d", errs.ErrInvalidConfig, n)
		}
		r.maxLineSize = n

		return nil
	})
}
