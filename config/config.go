// Package config loads a sensorpipe run description from YAML and turns it
// into filter, reader and pipeline settings.
//
//	input:
//	  format: csv
//	  compression: auto
//	  tail: 100
//	  follow: false
//	  poll_interval: 250ms
//	filter:
//	  date_range: { min: "2024-01-01T00:00:00Z", max: 0 }
//	  not_null: [value]
//	  exclude: { sensor: [test-rig] }
//	  unique: true
//	  remove_errors: true
//	  error_definitions: ./errors.d
//	  updates:
//	    - { match_column: sensor, match_value: t1, target_column: room, new_value: lab }
//	workers: 0
//	metrics:
//	  addr: ":9100"
package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/arloliu/sensorpipe/errdef"
	"github.com/arloliu/sensorpipe/errs"
	"github.com/arloliu/sensorpipe/filter"
	"github.com/arloliu/sensorpipe/format"
	"github.com/arloliu/sensorpipe/pipeline"
	"github.com/arloliu/sensorpipe/reader"
	"github.com/arloliu/sensorpipe/reading"
	"gopkg.in/yaml.v3"
)

// Config describes one sensorpipe run.
type Config struct {
	Input   InputConfig   `yaml:"input"`
	Filter  FilterConfig  `yaml:"filter"`
	Workers int           `yaml:"workers"`
	Metrics MetricsConfig `yaml:"metrics"`
	Log     LogConfig     `yaml:"log"`
}

// InputConfig selects the input format, compression and reading mode.
type InputConfig struct {
	Format       string        `yaml:"format"`
	Compression  string        `yaml:"compression"`
	Tail         int           `yaml:"tail"`
	Follow       bool          `yaml:"follow"`
	PollInterval time.Duration `yaml:"poll_interval"`
	MaxLineSize  int           `yaml:"max_line_size"`
}

// FilterConfig mirrors filter.Config. Column maps list the accepted or
// excluded values per column.
type FilterConfig struct {
	DateRange        DateRangeConfig     `yaml:"date_range"`
	TimestampColumns []string            `yaml:"timestamp_columns"`
	NotEmpty         []string            `yaml:"not_empty"`
	NotNull          []string            `yaml:"not_null"`
	Only             map[string][]string `yaml:"only"`
	Exclude          map[string][]string `yaml:"exclude"`
	Allowed          map[string][]string `yaml:"allowed"`
	Invert           bool                `yaml:"invert"`
	Unique           bool                `yaml:"unique"`
	RemoveErrors     bool                `yaml:"remove_errors"`
	ErrorDefinitions string              `yaml:"error_definitions"`
	SensorColumns    []string            `yaml:"sensor_columns"`
	Updates          []UpdateConfig      `yaml:"updates"`
}

// DateRangeConfig is an inclusive timestamp window; zero bounds are open.
type DateRangeConfig struct {
	Min Timestamp `yaml:"min"`
	Max Timestamp `yaml:"max"`
}

// UpdateConfig is one filter.UpdateRule.
type UpdateConfig struct {
	MatchColumn   string `yaml:"match_column"`
	MatchValue    string `yaml:"match_value"`
	TargetColumn  string `yaml:"target_column"`
	NewValue      string `yaml:"new_value"`
	OnlyWhenEmpty bool   `yaml:"only_when_empty"`
}

// MetricsConfig controls the Prometheus endpoint.
type MetricsConfig struct {
	// Addr is the listen address of the /metrics endpoint. Empty disables it.
	Addr      string `yaml:"addr"`
	Namespace string `yaml:"namespace"`
}

// LogConfig sets the slog level.
type LogConfig struct {
	Level string `yaml:"level"`
}

// Timestamp is an epoch-seconds bound that may be written in YAML as a number
// or as any date string reading.ParseTimestamp understands. Zero is unbounded.
type Timestamp int64

// UnmarshalYAML implements yaml.Unmarshaler.
func (t *Timestamp) UnmarshalYAML(value *yaml.Node) error {
	if value.Kind != yaml.ScalarNode {
		return fmt.Errorf("line %d: timestamp must be a scalar", value.Line)
	}
	ts, ok := reading.ParseTimestamp(value.Value)
	if !ok {
		return fmt.Errorf("line %d: unusable timestamp %q", value.Line, value.Value)
	}
	*t = Timestamp(ts)

	return nil
}

// DefaultErrorDefinitions is the rule directory used when remove_errors is
// set without error_definitions.
const DefaultErrorDefinitions = "errors.d"

// Default returns the configuration used when no file is given.
func Default() *Config {
	cfg := &Config{}
	cfg.applyDefaults()

	return cfg
}

// Load reads, parses and validates the YAML file at path.
func Load(path string) (*Config, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	cfg, err := Parse(raw)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}

	return cfg, nil
}

// Parse decodes and validates a YAML document. Unknown keys are rejected.
func Parse(raw []byte) (*Config, error) {
	var cfg Config

	dec := yaml.NewDecoder(bytes.NewReader(raw))
	dec.KnownFields(true)
	if err := dec.Decode(&cfg); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("%w: %w", errs.ErrInvalidConfig, err)
	}

	cfg.applyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

func (c *Config) applyDefaults() {
	if c.Input.PollInterval == 0 {
		c.Input.PollInterval = reader.DefaultPollInterval
	}
	if c.Input.MaxLineSize == 0 {
		c.Input.MaxLineSize = reader.DefaultMaxLineSize
	}
	if c.Filter.RemoveErrors && c.Filter.ErrorDefinitions == "" {
		c.Filter.ErrorDefinitions = DefaultErrorDefinitions
	}
	if c.Metrics.Namespace == "" {
		c.Metrics.Namespace = "sensorpipe"
	}
	if c.Log.Level == "" {
		c.Log.Level = "info"
	}
}

// Validate reports every inconsistent setting. The returned error matches
// errs.ErrInvalidConfig.
func (c *Config) Validate() error {
	var problems []error

	if _, err := format.ParseFormat(c.Input.Format); err != nil {
		problems = append(problems, fmt.Errorf("input.format: %w", err))
	}
	comp, err := format.ParseCompression(c.Input.Compression)
	if err != nil {
		problems = append(problems, fmt.Errorf("input.compression: %w", err))
	}
	if c.Input.Tail < 0 {
		problems = append(problems, fmt.Errorf("input.tail: %w: %d", errs.ErrInvalidTailCount, c.Input.Tail))
	}
	if c.Input.PollInterval < 0 {
		problems = append(problems, fmt.Errorf("input.poll_interval: %w: %s", errs.ErrInvalidInterval, c.Input.PollInterval))
	}
	if c.Input.MaxLineSize < 0 {
		problems = append(problems, fmt.Errorf("input.max_line_size: must be positive, got %d", c.Input.MaxLineSize))
	}
	if c.Input.Follow && comp != format.CompressionAuto && comp != format.CompressionNone {
		problems = append(problems, fmt.Errorf("input.follow: %w: %s input", errs.ErrFollowUnsupported, comp))
	}
	if c.Workers < 0 {
		problems = append(problems, fmt.Errorf("workers: %w: %d", errs.ErrInvalidWorkerCount, c.Workers))
	}
	if _, err := c.LogLevel(); err != nil {
		problems = append(problems, fmt.Errorf("log.level: %w", err))
	}
	if err := c.filterConfig(nil).Validate(); err != nil {
		problems = append(problems, fmt.Errorf("filter: %w", err))
	}

	if len(problems) == 0 {
		return nil
	}

	return fmt.Errorf("%w: %w", errs.ErrInvalidConfig, errors.Join(problems...))
}

// LogLevel parses log.level ("debug", "info", "warn", "error").
func (c *Config) LogLevel() (slog.Level, error) {
	var level slog.Level
	err := level.UnmarshalText([]byte(strings.TrimSpace(c.Log.Level)))

	return level, err
}

func (c *Config) filterConfig(table *errdef.Table) *filter.Config {
	f := c.Filter
	cfg := filter.NewConfig().
		SetDateRange(int64(f.DateRange.Min), int64(f.DateRange.Max)).
		RequireNotEmpty(f.NotEmpty...).
		RequireNotNull(f.NotNull...).
		SetInvert(f.Invert).
		SetUnique(f.Unique).
		RemoveErrors(table)

	if len(f.TimestampColumns) > 0 {
		cfg.SetTimestampColumns(f.TimestampColumns...)
	}
	if len(f.SensorColumns) > 0 {
		cfg.SetSensorColumns(f.SensorColumns...)
	}
	for col, vals := range f.Only {
		cfg.Include(col, vals...)
	}
	for col, vals := range f.Exclude {
		cfg.Exclude(col, vals...)
	}
	for col, vals := range f.Allowed {
		cfg.Allow(col, vals...)
	}
	for _, u := range f.Updates {
		cfg.AddUpdate(filter.UpdateRule{
			MatchColumn:   u.MatchColumn,
			MatchValue:    u.MatchValue,
			TargetColumn:  u.TargetColumn,
			NewValue:      u.NewValue,
			OnlyWhenEmpty: u.OnlyWhenEmpty,
		})
	}

	return cfg
}

// BuildFilter returns the filter configuration. With remove_errors set, the
// error definitions are loaded from error_definitions, falling back to the
// built-in set when that directory does not exist.
func (c *Config) BuildFilter(logger *slog.Logger) (*filter.Config, error) {
	var table *errdef.Table
	if c.Filter.RemoveErrors {
		t, err := errdef.Load(c.Filter.ErrorDefinitions, logger)
		if err != nil {
			return nil, err
		}
		table = t
	}

	cfg := c.filterConfig(table)
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// ReaderOptions returns the reader settings of the input section.
func (c *Config) ReaderOptions() ([]reader.Option, error) {
	f, err := format.ParseFormat(c.Input.Format)
	if err != nil {
		return nil, err
	}
	comp, err := format.ParseCompression(c.Input.Compression)
	if err != nil {
		return nil, err
	}

	return []reader.Option{
		reader.WithFormat(f),
		reader.WithCompression(comp),
		reader.WithTail(c.Input.Tail),
		reader.WithFollow(c.Input.Follow),
		reader.WithPollInterval(c.Input.PollInterval),
		reader.WithMaxLineSize(c.Input.MaxLineSize),
	}, nil
}

// PipelineOptions returns the pipeline settings. Zero workers keeps the
// GOMAXPROCS default.
func (c *Config) PipelineOptions() []pipeline.Option {
	var opts []pipeline.Option
	if c.Workers > 0 {
		opts = append(opts, pipeline.WithWorkers(c.Workers))
	}

	return opts
}
