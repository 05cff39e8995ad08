// Package pipeline composes a reader and a filter engine: every reading a
// source yields is evaluated, transformed when accepted, and handed to the
// caller's visitor. Aggregate fans the same composition out over many
// sources with one reader per worker and a shared engine.
package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"runtime"
	"slices"
	"time"

	"github.com/arloliu/sensorpipe/errs"
	"github.com/arloliu/sensorpipe/filter"
	"github.com/arloliu/sensorpipe/internal/options"
	"github.com/arloliu/sensorpipe/parallel"
	"github.com/arloliu/sensorpipe/reader"
	"github.com/arloliu/sensorpipe/reading"
)

// Stats summarises one source run through the pipeline.
type Stats struct {
	reader.Stats
	Accepted int
	Rejected int // by the engine; readings outside the date range are in Skipped
}

// Pipeline is safe for concurrent use: each Run builds its own reader.
type Pipeline struct {
	engine     *filter.Engine
	readerOpts []reader.Option
	metrics    *Metrics
	logger     *slog.Logger
	workers    int
}

// Option configures a Pipeline.
type Option = options.Option[*Pipeline]

// WithMetrics records pipeline activity in m.
func WithMetrics(m *Metrics) Option {
	return options.NoError(func(p *Pipeline) {
		p.metrics = m
	})
}

// WithLogger sets the logger handed to readers and workers. Defaults to slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return options.NoError(func(p *Pipeline) {
		if logger != nil {
			p.logger = logger
		}
	})
}

// WithWorkers sets the worker count used by Aggregate. Defaults to runtime.GOMAXPROCS(0).
func WithWorkers(n int) Option {
	return options.New(func(p *Pipeline) error {
		if n < 1 {
			return fmt.Errorf("%w: %d", errs.ErrInvalidWorkerCount, n)
		}
		p.workers = n

		return nil
	})
}

// New creates a Pipeline. readerOpts are validated here so configuration
// errors surface before any source is opened. Unless the engine inverts its
// verdicts, the engine's date range is pushed down to the readers, so
// out-of-range readings are dropped before evaluation. An inverted engine
// accepts exactly those readings, so they must reach it.
func New(engine *filter.Engine, readerOpts []reader.Option, opts ...Option) (*Pipeline, error) {
	if engine == nil {
		return nil, fmt.Errorf("%w: pipeline needs a filter engine", errs.ErrInvalidConfig)
	}

	p := &Pipeline{
		engine:  engine,
		logger:  slog.Default(),
		workers: runtime.GOMAXPROCS(0),
	}
	if err := options.Apply(p, opts...); err != nil {
		return nil, err
	}

	cfg := engine.Config()
	var pushdown []reader.Option
	if dr := cfg.DateRange(); dr.Bounded() && !cfg.Invert() {
		pushdown = append(pushdown, reader.WithDateRange(dr.Min, dr.Max))
		if len(dr.Columns) > 0 {
			pushdown = append(pushdown, reader.WithTimestampColumns(dr.Columns...))
		}
	}
	p.readerOpts = slices.Concat(
		[]reader.Option{reader.WithLogger(p.logger)},
		pushdown,
		readerOpts,
	)

	if _, err := p.newReader(); err != nil {
		return nil, err
	}

	return p, nil
}

// Engine returns the filter engine shared by all runs.
func (p *Pipeline) Engine() *filter.Engine {
	return p.engine
}

func (p *Pipeline) newReader() (*reader.Reader, error) {
	return reader.New(p.readerOpts...)
}

// Run reads source and passes each accepted, transformed reading to visit.
func (p *Pipeline) Run(ctx context.Context, source string, visit reading.Visitor) (Stats, error) {
	rd, err := p.newReader()
	if err != nil {
		return Stats{}, err
	}

	return p.run(ctx, rd, source, visit)
}

func (p *Pipeline) run(ctx context.Context, rd *reader.Reader, source string, visit reading.Visitor) (Stats, error) {
	var stats Stats
	start := time.Now()

	rs, err := rd.Read(ctx, source, func(r reading.Reading, line int, src string) {
		v := p.engine.Evaluate(r)
		if !v.Accepted {
			stats.Rejected++
			p.metrics.rejected(v.Reason)

			return
		}

		p.engine.Apply(r)
		stats.Accepted++
		p.metrics.accepted()
		visit(r, line, src)
	})
	stats.Stats = rs
	p.metrics.sourceDone(stats, time.Since(start), err)

	return stats, err
}

// Aggregation folds accepted records into a result of type R.
type Aggregation[R any] struct {
	// Initial returns the identity value.
	Initial func() R
	// Visit folds one accepted record into acc.
	Visit func(acc R, rec reading.Record) R
	// Merge combines two partial results. It must be associative.
	Merge func(acc, part R) R
}

// Aggregate runs the pipeline over sources in parallel and merges the
// per-worker results. Source failures are joined into the returned error
// alongside the result of everything that was read.
func Aggregate[R any](ctx context.Context, p *Pipeline, sources []string, agg Aggregation[R]) (R, error) {
	if agg.Initial == nil || agg.Visit == nil || agg.Merge == nil {
		var zero R
		return zero, fmt.Errorf("%w: aggregation needs Initial, Visit and Merge", errs.ErrInvalidConfig)
	}

	job := parallel.Job[R]{
		Initial: agg.Initial,
		Merge:   agg.Merge,
		NewWorker: func() parallel.SourceFunc[R] {
			rd, err := p.newReader()

			return func(ctx context.Context, source string) (R, error) {
				acc := agg.Initial()
				if err != nil {
					return acc, err
				}
				_, runErr := p.run(ctx, rd, source, func(r reading.Reading, line int, src string) {
					acc = agg.Visit(acc, reading.Record{Reading: r, Line: line, Source: src})
				})

				return acc, runErr
			}
		},
	}

	return parallel.Run(ctx, sources, job,
		parallel.WithWorkers(p.workers),
		parallel.WithLogger(p.logger),
	)
}

// Count returns the number of readings accepted across sources.
func Count(ctx context.Context, p *Pipeline, sources []string) (int, error) {
	return Aggregate(ctx, p, sources, Aggregation[int]{
		Initial: func() int { return 0 },
		Visit:   func(acc int, _ reading.Record) int { return acc + 1 },
		Merge:   func(acc, part int) int { return acc + part },
	})
}
