// Package checkpoint persists the progress of chunked sync jobs between
// invocations.
//
// A Checkpoint carries the pagination sandbox (progress, max, per_page) plus
// the accumulated results and the last progress message. Stores:
//
// - MemoryStore for tests and single-process runs
// - RedisStore with optional TTL, so abandoned jobs expire on their own
// - SQLiteStore for a durable local file
//
// # Basic Usage
//
//	store, err := checkpoint.Open(ctx, "redis", "redis://localhost:6379/0", 24*time.Hour)
//	if err != nil {
//		return err
//	}
//	defer store.Close()
//
//	cp, err := store.Load(ctx, jobID)
//	if errors.Is(err, checkpoint.ErrNotFound) {
//		// unknown or expired job
//	}
//
//	cp.Sandbox = result.State
//	if err := store.Save(ctx, cp); err != nil {
//		return err
//	}
//
// # Metrics
//
// Operations and failures are counted per op ("load", "save", "delete"):
//
//	posts_sync_checkpoint_ops_total{op}
//	posts_sync_checkpoint_errors_total{op}
package checkpoint
