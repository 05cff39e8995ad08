// Package parallel runs a per-source job over many sources with a bounded
// number of workers and folds the results into one value.
//
// Sources are split into contiguous, roughly equal chunks, one per worker.
// Every worker builds its own SourceFunc (and with it any per-source state
// such as a reader) and folds its results into a private accumulator. The
// accumulators are merged in chunk order once all workers finish, so the
// combined result equals a sequential run whenever Merge is associative and
// Initial returns its identity.
//
// Small inputs are not worth the goroutines: fewer than MinParallelSources
// sources, or a single worker, run sequentially on the caller's goroutine.
package parallel
