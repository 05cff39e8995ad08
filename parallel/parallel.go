package parallel

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"runtime"

	"github.com/arloliu/sensorpipe/errs"
	"github.com/arloliu/sensorpipe/internal/options"
	"golang.org/x/sync/errgroup"
)

// MinParallelSources is the smallest source count processed concurrently.
const MinParallelSources = 4

// SourceFunc processes one source and returns its contribution. On failure it
// may still return what it gathered before the error; that part is merged.
type SourceFunc[R any] func(ctx context.Context, source string) (R, error)

// Job describes the work done per source and how results combine.
type Job[R any] struct {
	// Initial returns the identity accumulator. Called once per worker and
	// once for the combined result.
	Initial func() R
	// NewWorker returns the SourceFunc one worker uses for all its sources.
	NewWorker func() SourceFunc[R]
	// Merge folds part into acc and returns the result. It must be associative.
	Merge func(acc, part R) R
}

func (j Job[R]) validate() error {
	if j.Initial == nil || j.NewWorker == nil || j.Merge == nil {
		return fmt.Errorf("%w: job needs Initial, NewWorker and Merge", errs.ErrInvalidConfig)
	}

	return nil
}

type config struct {
	workers int
	logger  *slog.Logger
}

// Option configures Run.
type Option = options.Option[*config]

// WithWorkers sets the number of workers. Defaults to runtime.GOMAXPROCS(0).
func WithWorkers(n int) Option {
	return options.New(func(c *config) error {
		if n < 1 {
			return fmt.Errorf("%w: %d", errs.ErrInvalidWorkerCount, n)
		}
		c.workers = n

		return nil
	})
}

// WithLogger sets the logger for per-source failures. Defaults to slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return options.NoError(func(c *config) {
		if logger != nil {
			c.logger = logger
		}
	})
}

// Run processes sources and returns the merged result.
//
// A failing source does not stop the others: its error is logged and joined
// into the returned error, which accompanies the merged value of everything
// that was processed. Cancelling ctx stops workers before their next source.
func Run[R any](ctx context.Context, sources []string, job Job[R], opts ...Option) (R, error) {
	cfg := &config{
		workers: runtime.GOMAXPROCS(0),
		logger:  slog.Default(),
	}
	if err := options.Apply(cfg, opts...); err != nil {
		var zero R
		return zero, err
	}
	if err := job.validate(); err != nil {
		var zero R
		return zero, err
	}

	workers := min(cfg.workers, len(sources))
	if len(sources) < MinParallelSources || workers <= 1 {
		part, err := runChunk(ctx, sources, job, cfg.logger)
		return job.Merge(job.Initial(), part), err
	}

	chunks := Chunks(len(sources), workers)
	parts := make([]R, len(chunks))
	failures := make([]error, len(chunks))

	g, gctx := errgroup.WithContext(ctx)
	for i, c := range chunks {
		g.Go(func() error {
			parts[i], failures[i] = runChunk(gctx, sources[c[0]:c[1]], job, cfg.logger)
			return nil
		})
	}
	_ = g.Wait()

	acc := job.Initial()
	for _, part := range parts {
		acc = job.Merge(acc, part)
	}

	return acc, errors.Join(failures...)
}

// runChunk is one worker: it folds every source of chunk into a private accumulator.
func runChunk[R any](ctx context.Context, chunk []string, job Job[R], logger *slog.Logger) (R, error) {
	fn := job.NewWorker()
	acc := job.Initial()

	var failures []error
	for _, source := range chunk {
		if err := ctx.Err(); err != nil {
			failures = append(failures, err)
			break
		}

		part, err := fn(ctx, source)
		acc = job.Merge(acc, part)
		if err == nil {
			continue
		}

		failures = append(failures, fmt.Errorf("%s: %w", source, err))
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			break
		}
		if !errors.Is(err, errs.ErrSourceUnavailable) {
			// Unavailable sources are already reported by the reader.
			logger.Warn("source failed", slog.String("source", source), slog.Any("error", err))
		}
	}

	return acc, errors.Join(failures...)
}

// Chunks splits n items into at most workers contiguous [start, end) ranges.
// Sizes differ by at most one, larger ranges first, and none is empty.
func Chunks(n, workers int) [][2]int {
	if n <= 0 || workers <= 0 {
		return nil
	}
	workers = min(workers, n)

	size, rem := n/workers, n%workers
	chunks := make([][2]int, 0, workers)
	start := 0
	for i := range workers {
		end := start + size
		if i < rem {
			end++
		}
		chunks = append(chunks, [2]int{start, end})
		start = end
	}

	return chunks
}
