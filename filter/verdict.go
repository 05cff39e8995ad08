package filter

// Reason identifies the check that rejected a reading.
type Reason uint8

const (
	ReasonNone        Reason = iota // ReasonNone means the reading was accepted.
	ReasonDateRange                 // ReasonDateRange means the timestamp is outside the window.
	ReasonEmpty                     // ReasonEmpty means a required column is absent or empty.
	ReasonNull                      // ReasonNull means a column holds "null" or a NUL character.
	ReasonNotIncluded               // ReasonNotIncluded means an inclusion set did not match.
	ReasonExcluded                  // ReasonExcluded means an exclusion set matched.
	ReasonNotAllowed                // ReasonNotAllowed means an allow set did not match.
	ReasonSensorError               // ReasonSensorError means an error definition matched.
	ReasonInverted                  // ReasonInverted means every predicate passed but inversion is on.
	ReasonDuplicate                 // ReasonDuplicate means the canonical key was already accepted.
)

var reasonNames = [...]string{
	ReasonNone:        "none",
	ReasonDateRange:   "date_range",
	ReasonEmpty:       "empty",
	ReasonNull:        "null",
	ReasonNotIncluded: "not_included",
	ReasonExcluded:    "excluded",
	ReasonNotAllowed:  "not_allowed",
	ReasonSensorError: "sensor_error",
	ReasonInverted:    "inverted",
	ReasonDuplicate:   "duplicate",
}

// String returns the snake_case reason name used in logs and metric labels.
func (r Reason) String() string {
	if int(r) < len(reasonNames) {
		return reasonNames[r]
	}

	return "unknown"
}

// Reasons returns every rejection reason, for pre-registering metric labels.
func Reasons() []Reason {
	return []Reason{
		ReasonDateRange, ReasonEmpty, ReasonNull, ReasonNotIncluded, ReasonExcluded,
		ReasonNotAllowed, ReasonSensorError, ReasonInverted, ReasonDuplicate,
	}
}

// Verdict is the outcome of evaluating one reading.
type Verdict struct {
	Accepted bool
	Reason   Reason
	// Column is the column whose check failed, when the reason is column-specific.
	Column string
}
