package filter

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/arloliu/sensorpipe/errs"
	"github.com/arloliu/sensorpipe/internal/options"
	"github.com/arloliu/sensorpipe/reading"
)

// Engine applies a Config to readings. It is safe for concurrent use.
type Engine struct {
	cfg    *Config
	dedup  *DedupSet
	shards int
	logger *slog.Logger
}

// Option configures an Engine.
type Option = options.Option[*Engine]

// WithLogger sets the logger used for per-reading rejection diagnostics,
// which are emitted at debug level. Defaults to slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return options.NoError(func(e *Engine) {
		if logger != nil {
			e.logger = logger
		}
	})
}

// WithDedupShards sets the number of deduplication shards.
func WithDedupShards(n int) Option {
	return options.New(func(e *Engine) error {
		if n < 1 {
			return fmt.Errorf("%w: dedup shards must be positive, got %d", errs.ErrInvalidConfig, n)
		}
		e.shards = n

		return nil
	})
}

// New validates cfg and builds an Engine from a private copy of it.
func New(cfg *Config, opts ...Option) (*Engine, error) {
	if cfg == nil {
		cfg = NewConfig()
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	e := &Engine{
		cfg:    cfg.clone(),
		shards: DefaultDedupShards,
		logger: slog.Default(),
	}
	if err := options.Apply(e, opts...); err != nil {
		return nil, err
	}
	e.dedup = NewDedupSet(e.shards)

	return e, nil
}

// ShouldInclude reports whether r is kept. In unique mode a true result also
// records r's canonical key, so the same reading is rejected next time.
func (e *Engine) ShouldInclude(r reading.Reading) bool {
	return e.Evaluate(r).Accepted
}

// Evaluate runs the checks in order (date range, not-empty, not-null,
// inclusion, exclusion, allow, sensor errors), applies inversion, and finally
// deduplicates readings that are still accepted.
func (e *Engine) Evaluate(r reading.Reading) Verdict {
	reason, column := e.check(r)
	accepted := reason == ReasonNone

	if e.cfg.invert {
		accepted = !accepted
		if accepted {
			reason, column = ReasonNone, ""
		} else {
			reason = ReasonInverted
		}
	}

	if accepted && e.cfg.unique && !e.dedup.Insert(r.Key()) {
		accepted, reason = false, ReasonDuplicate
	}

	if !accepted {
		e.logRejection(r, reason, column)
	}

	return Verdict{Accepted: accepted, Reason: reason, Column: column}
}

func (e *Engine) check(r reading.Reading) (Reason, string) {
	c := e.cfg

	if !c.dateRange.Contains(r) {
		return ReasonDateRange, ""
	}

	for _, col := range c.notEmpty {
		if r[col] == "" {
			return ReasonEmpty, col
		}
	}

	for _, col := range c.notNull {
		if v, ok := r[col]; ok && isNull(v) {
			return ReasonNull, col
		}
	}

	if col, ok := matchAll(c.only, r); !ok {
		return ReasonNotIncluded, col
	}

	for col, set := range c.excluded {
		if v, ok := r[col]; ok {
			if _, hit := set[v]; hit {
				return ReasonExcluded, col
			}
		}
	}

	if col, ok := matchAll(c.allowed, r); !ok {
		return ReasonNotAllowed, col
	}

	if c.removeErrors {
		if sensor, ok := e.sensorOf(r); ok {
			if def, hit := c.errorTable.Match(r, sensor); hit {
				return ReasonSensorError, def.Field
			}
		}
	}

	return ReasonNone, ""
}

// matchAll reports whether every column in sets is present in r with a member
// value. On failure it returns the first failing column.
func matchAll(sets valueSet, r reading.Reading) (string, bool) {
	for col, set := range sets {
		v, ok := r[col]
		if !ok {
			return col, false
		}
		if _, hit := set[v]; !hit {
			return col, false
		}
	}

	return "", true
}

func isNull(v string) bool {
	return v == "null" || strings.IndexByte(v, 0) >= 0
}

func (e *Engine) sensorOf(r reading.Reading) (string, bool) {
	for _, col := range e.cfg.sensorColumns {
		if v, ok := r[col]; ok && v != "" {
			return v, true
		}
	}

	return "", false
}

func (e *Engine) logRejection(r reading.Reading, reason Reason, column string) {
	if !e.logger.Enabled(context.Background(), slog.LevelDebug) {
		return
	}

	attrs := []any{slog.String("reason", reason.String())}
	if column != "" {
		attrs = append(attrs, slog.String("column", column), slog.String("value", r[column]))
	}
	e.logger.Debug("reading rejected", attrs...)
}

// Apply runs the update rules against r in order, modifying it in place.
// Each rule sees the effects of the rules before it.
func (e *Engine) Apply(r reading.Reading) {
	for _, rule := range e.cfg.updates {
		v, ok := r[rule.MatchColumn]
		if !ok || v != rule.MatchValue {
			continue
		}
		if rule.OnlyWhenEmpty && r[rule.TargetColumn] != "" {
			continue
		}
		r[rule.TargetColumn] = rule.NewValue
	}
}

// ResetDedup forgets every accepted key.
func (e *Engine) ResetDedup() {
	e.dedup.Reset()
}

// DedupSize returns the number of distinct keys accepted in unique mode.
func (e *Engine) DedupSize() int {
	return e.dedup.Len()
}

// Config returns a copy of the configuration the engine runs with.
func (e *Engine) Config() *Config {
	return e.cfg.clone()
}
