package collision

// Tracker is a set of canonical reading keys indexed by their 64-bit hash.
//
// Keys are stored by hash with the full key kept for confirmation, so two
// distinct keys that share a hash are both retained: the second one goes to
// an overflow set and the collision is counted. Tracker is not safe for
// concurrent use; callers serialize access (see filter.DedupSet).
type Tracker struct {
	keys       map[uint64]string   // hash -> first key seen with that hash
	overflow   map[string]struct{} // keys whose hash was already taken by a different key
	count      int
	collisions int
}

// NewTracker creates a new empty tracker.
func NewTracker() *Tracker {
	return &Tracker{
		keys: make(map[uint64]string),
	}
}

// Insert adds key with hash h and reports whether it was not present before.
func (t *Tracker) Insert(key string, h uint64) bool {
	existing, ok := t.keys[h]
	if !ok {
		t.keys[h] = key
		t.count++

		return true
	}
	if existing == key {
		return false
	}

	// Different key, same hash.
	if t.overflow == nil {
		t.overflow = make(map[string]struct{})
	}
	if _, dup := t.overflow[key]; dup {
		return false
	}
	t.overflow[key] = struct{}{}
	t.count++
	t.collisions++

	return true
}

// Contains reports whether key with hash h has been inserted.
func (t *Tracker) Contains(key string, h uint64) bool {
	existing, ok := t.keys[h]
	if !ok {
		return false
	}
	if existing == key {
		return true
	}
	_, ok = t.overflow[key]

	return ok
}

// Count returns the number of distinct keys tracked.
func (t *Tracker) Count() int {
	return t.count
}

// Collisions returns how many keys landed on a hash already owned by another key.
func (t *Tracker) Collisions() int {
	return t.collisions
}

// Reset clears all keys while keeping the primary map's capacity.
func (t *Tracker) Reset() {
	clear(t.keys)
	t.overflow = nil
	t.count = 0
	t.collisions = 0
}
