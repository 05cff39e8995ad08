// Package errdef loads sensor error definitions: known bogus values a sensor
// reports when it malfunctions (for example a DS18B20 returning 85 after a
// power-on reset).
//
// Definitions are loaded once into an immutable Table that is passed to the
// filter engine at construction time. There is no process-wide state.
package errdef

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/arloliu/sensorpipe/errs"
	"github.com/arloliu/sensorpipe/reading"
)

// Definition describes one error condition for a sensor type.
type Definition struct {
	// SensorPattern is matched case-insensitively against the reading's sensor
	// name. Glob wildcards (*, ?, [...]) are allowed.
	SensorPattern string
	// Field is the column holding the suspicious value.
	Field string
	// Value is the exact text that signals the error.
	Value string
	// Description explains the condition for diagnostics.
	Description string
}

// Table is an immutable set of error definitions.
type Table struct {
	exact    map[string][]Definition // lower-cased literal pattern -> definitions
	literals []Definition            // literal definitions in input order
	globs    []Definition            // definitions whose pattern contains wildcards
	size     int
}

// NewTable builds a table from defs.
//
// Returns an error wrapping errs.ErrInvalidErrorRule if a definition has an
// empty pattern or field, or a malformed glob.
func NewTable(defs ...Definition) (*Table, error) {
	t := &Table{exact: make(map[string][]Definition)}
	for _, d := range defs {
		d.SensorPattern = strings.ToLower(strings.TrimSpace(d.SensorPattern))
		if d.SensorPattern == "" || d.Field == "" {
			return nil, fmt.Errorf("%w: sensor pattern and field are required: %+v", errs.ErrInvalidErrorRule, d)
		}
		if isGlob(d.SensorPattern) {
			if _, err := path.Match(d.SensorPattern, ""); err != nil {
				return nil, fmt.Errorf("%w: pattern %q: %w", errs.ErrInvalidErrorRule, d.SensorPattern, err)
			}
			t.globs = append(t.globs, d)
		} else {
			t.exact[d.SensorPattern] = append(t.exact[d.SensorPattern], d)
			t.literals = append(t.literals, d)
		}
		t.size++
	}

	return t, nil
}

// Len returns the number of definitions.
func (t *Table) Len() int {
	if t == nil {
		return 0
	}

	return t.size
}

// Match reports the first definition for sensor that r triggers, if any.
//
// The sensor name is compared case-insensitively. A definition triggers when
// r has its Field and the value equals the definition's Value exactly.
func (t *Table) Match(r reading.Reading, sensor string) (Definition, bool) {
	if t == nil || sensor == "" {
		return Definition{}, false
	}
	name := strings.ToLower(sensor)

	for _, d := range t.exact[name] {
		if v, ok := r[d.Field]; ok && v == d.Value {
			return d, true
		}
	}
	for _, d := range t.globs {
		if ok, _ := path.Match(d.SensorPattern, name); !ok {
			continue
		}
		if v, ok := r[d.Field]; ok && v == d.Value {
			return d, true
		}
	}

	return Definition{}, false
}

// Definitions returns a copy of all definitions, literal patterns first and
// each group in the order the definitions were given.
func (t *Table) Definitions() []Definition {
	if t == nil {
		return nil
	}
	out := make([]Definition, 0, t.size)
	out = append(out, t.literals...)

	return append(out, t.globs...)
}

// Load reads definitions from dir, falling back to the built-in set when dir
// does not exist. Any other failure is returned.
func Load(dir string, logger *slog.Logger) (*Table, error) {
	t, err := LoadDir(dir, logger)
	if errors.Is(err, fs.ErrNotExist) {
		if logger != nil {
			logger.Info("error definition directory not found, using built-in rules", slog.String("dir", dir))
		}

		return Builtin(), nil
	}

	return t, err
}

// LoadDir reads one rule file per sensor type from dir.
//
// The sensor pattern is the file name without its extension. Each line has the
// form "field:value:description"; the description may itself contain colons.
// Blank lines and lines starting with '#' are ignored, malformed lines are
// skipped with a warning. Sub-directories and hidden files are ignored.
func LoadDir(dir string, logger *slog.Logger) (*Table, error) {
	if logger == nil {
		logger = slog.Default()
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("reading error definitions: %w", err)
	}

	var defs []Definition
	for _, e := range entries {
		if e.IsDir() || strings.HasPrefix(e.Name(), ".") {
			continue
		}
		sensor := strings.TrimSuffix(e.Name(), filepath.Ext(e.Name()))
		fileDefs, err := loadFile(filepath.Join(dir, e.Name()), sensor, logger)
		if err != nil {
			return nil, err
		}
		defs = append(defs, fileDefs...)
	}

	return NewTable(defs...)
}

func loadFile(name, sensor string, logger *slog.Logger) ([]Definition, error) {
	f, err := os.Open(name)
	if err != nil {
		return nil, fmt.Errorf("opening error definitions %s: %w", name, err)
	}
	defer f.Close()

	return parseRules(f, sensor, name, logger)
}

func parseRules(r io.Reader, sensor, name string, logger *slog.Logger) ([]Definition, error) {
	var defs []Definition
	sc := bufio.NewScanner(r)
	lineNo := 0
	for sc.Scan() {
		lineNo++
		line := strings.TrimSpace(sc.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		parts := strings.SplitN(line, ":", 3)
		if len(parts) < 2 || strings.TrimSpace(parts[0]) == "" {
			logger.Warn("skipping malformed error definition", slog.String("file", name), slog.Int("line", lineNo))
			continue
		}
		d := Definition{
			SensorPattern: sensor,
			Field:         strings.TrimSpace(parts[0]),
			Value:         strings.TrimSpace(parts[1]),
		}
		if len(parts) == 3 {
			d.Description = strings.TrimSpace(parts[2])
		}
		defs = append(defs, d)
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("reading error definitions %s: %w", name, err)
	}

	return defs, nil
}

func isGlob(pattern string) bool {
	return strings.ContainsAny(pattern, "*?[")
}
