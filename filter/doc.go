// Package filter decides which sensor readings are kept and rewrites the ones
// that are.
//
// A Config describes the predicates (date range, required columns, value
// inclusion and exclusion sets, sensor error definitions), the inversion and
// uniqueness modes, and an ordered list of UpdateRules. An Engine built from a
// Config is the only place where inclusion is decided:
//
//	cfg := filter.NewConfig().
//		RequireNotNull("value").
//		Exclude("sensor", "test-rig").
//		RemoveErrors(table).
//		SetUnique(true)
//
//	engine, err := filter.New(cfg)
//	if err != nil {
//		return err
//	}
//	if engine.ShouldInclude(r) {
//		engine.Apply(r)
//	}
//
// Predicates are evaluated in a fixed order and the first failure decides the
// verdict. Inversion is applied to the combined predicate result, and only
// readings that survive it are tested against the deduplication set, so a
// rejected reading never reserves a key.
//
// An Engine is safe for concurrent use. The deduplication set is the only state
// it mutates and is sharded with a mutex per shard.
package filter
