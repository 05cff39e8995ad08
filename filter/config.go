package filter

import (
	"errors"
	"fmt"
	"maps"
	"slices"

	"github.com/arloliu/sensorpipe/errdef"
	"github.com/arloliu/sensorpipe/errs"
	"github.com/arloliu/sensorpipe/reading"
)

// DefaultSensorColumns are the columns checked, in order, for the sensor type
// used by error detection.
var DefaultSensorColumns = []string{"sensor", "sensor_type", "type"}

// UpdateRule rewrites TargetColumn to NewValue when MatchColumn equals MatchValue.
//
// With OnlyWhenEmpty set, the rule fires only while the target column is
// absent or empty.
type UpdateRule struct {
	MatchColumn   string
	MatchValue    string
	TargetColumn  string
	NewValue      string
	OnlyWhenEmpty bool
}

// valueSet maps a column to the set of values accepted (or rejected) for it.
type valueSet map[string]map[string]struct{}

func (s *valueSet) add(column string, values []string) {
	if *s == nil {
		*s = make(valueSet)
	}
	set, ok := (*s)[column]
	if !ok {
		set = make(map[string]struct{}, len(values))
		(*s)[column] = set
	}
	for _, v := range values {
		set[v] = struct{}{}
	}
}

func (s valueSet) clone() valueSet {
	out := make(valueSet, len(s))
	for col, set := range s {
		out[col] = maps.Clone(set)
	}

	return out
}

// Config collects the filter and transform settings for an Engine.
//
// Setters return the receiver so calls can be chained. A Config may be reused
// after an Engine is built from it: New takes a deep copy.
type Config struct {
	dateRange     reading.DateRange
	notEmpty      []string
	notNull       []string
	only          valueSet
	excluded      valueSet
	allowed       valueSet
	invert        bool
	unique        bool
	updates       []UpdateRule
	removeErrors  bool
	errorTable    *errdef.Table
	sensorColumns []string
}

// NewConfig returns an empty Config that accepts every reading.
func NewConfig() *Config {
	return &Config{
		only:     make(valueSet),
		excluded: make(valueSet),
		allowed:  make(valueSet),
	}
}

// SetDateRange restricts readings to the inclusive window [minTS, maxTS] in epoch
// seconds. Zero leaves a bound open.
func (c *Config) SetDateRange(minTS, maxTS int64) *Config {
	c.dateRange.Min = minTS
	c.dateRange.Max = maxTS

	return c
}

// SetTimestampColumns overrides reading.DefaultTimestampColumns.
func (c *Config) SetTimestampColumns(columns ...string) *Config {
	c.dateRange.Columns = slices.Clone(columns)
	return c
}

// RequireNotEmpty rejects readings where any of columns is absent or empty.
func (c *Config) RequireNotEmpty(columns ...string) *Config {
	c.notEmpty = append(c.notEmpty, columns...)
	return c
}

// RequireNotNull rejects readings where any of columns holds the literal text
// "null" or a NUL character. An absent column passes.
func (c *Config) RequireNotNull(columns ...string) *Config {
	c.notNull = append(c.notNull, columns...)
	return c
}

// Include keeps only readings whose column is present and equal to one of values.
func (c *Config) Include(column string, values ...string) *Config {
	c.only.add(column, values)
	return c
}

// Exclude rejects readings whose column is present and equal to one of values.
func (c *Config) Exclude(column string, values ...string) *Config {
	c.excluded.add(column, values)
	return c
}

// Allow is an independent inclusion set evaluated after exclusion. It behaves
// like Include.
func (c *Config) Allow(column string, values ...string) *Config {
	c.allowed.add(column, values)
	return c
}

// SetInvert negates the combined predicate result.
func (c *Config) SetInvert(invert bool) *Config {
	c.invert = invert
	return c
}

// SetUnique drops readings whose canonical key was already accepted.
func (c *Config) SetUnique(unique bool) *Config {
	c.unique = unique
	return c
}

// AddUpdate appends a transform rule. Rules run in insertion order.
func (c *Config) AddUpdate(rule UpdateRule) *Config {
	c.updates = append(c.updates, rule)
	return c
}

// RemoveErrors enables sensor error detection against table.
// Passing nil disables it.
func (c *Config) RemoveErrors(table *errdef.Table) *Config {
	c.removeErrors = table != nil
	c.errorTable = table

	return c
}

// SetSensorColumns overrides DefaultSensorColumns.
func (c *Config) SetSensorColumns(columns ...string) *Config {
	c.sensorColumns = slices.Clone(columns)
	return c
}

// DateRange returns the configured time window.
func (c *Config) DateRange() reading.DateRange {
	return c.dateRange
}

// Unique reports whether deduplication is enabled.
func (c *Config) Unique() bool {
	return c.unique
}

// Invert reports whether the predicate result is negated.
func (c *Config) Invert() bool {
	return c.invert
}

// Validate reports contradictory or incomplete settings. Every returned error
// matches errs.ErrInvalidConfig.
func (c *Config) Validate() error {
	var problems []error

	d := c.dateRange
	if d.Min != 0 && d.Max != 0 && d.Min > d.Max {
		problems = append(problems, fmt.Errorf("%w: %d > %d", errs.ErrInvalidDateRange, d.Min, d.Max))
	}

	for _, col := range slices.Sorted(maps.Keys(c.excluded)) {
		for _, v := range slices.Sorted(maps.Keys(c.excluded[col])) {
			if _, ok := c.only[col][v]; ok {
				problems = append(problems, fmt.Errorf("%w: %s=%q in include and exclude", errs.ErrConflictingFilter, col, v))
			}
			if _, ok := c.allowed[col][v]; ok {
				problems = append(problems, fmt.Errorf("%w: %s=%q in allow and exclude", errs.ErrConflictingFilter, col, v))
			}
		}
	}

	for i, rule := range c.updates {
		if rule.MatchColumn == "" || rule.TargetColumn == "" {
			problems = append(problems, fmt.Errorf("%w: rule %d needs match and target columns", errs.ErrInvalidUpdateRule, i))
		}
	}

	if c.removeErrors && c.errorTable == nil {
		problems = append(problems, errs.ErrMissingErrorTable)
	}

	if len(problems) == 0 {
		return nil
	}

	return fmt.Errorf("%w: %w", errs.ErrInvalidConfig, errors.Join(problems...))
}

func (c *Config) clone() *Config {
	out := *c
	out.dateRange.Columns = slices.Clone(c.dateRange.Columns)
	out.notEmpty = slices.Clone(c.notEmpty)
	out.notNull = slices.Clone(c.notNull)
	out.only = c.only.clone()
	out.excluded = c.excluded.clone()
	out.allowed = c.allowed.clone()
	out.updates = slices.Clone(c.updates)
	out.sensorColumns = slices.Clone(c.sensorColumns)
	if len(out.sensorColumns) == 0 {
		out.sensorColumns = DefaultSensorColumns
	}

	return &out
}
