// Package resource implements the Controller that bounds the memory and IO
// used by a combiner.
//
//   - Memory: track and limit bytes held by in-memory documents and reduction
//     arenas (non-blocking, fail-fast)
//   - IO: rate-limit spill writes with a token bucket
//
// Memory example:
//
//	rc := resource.NewController(resource.Config{
//	    MemoryLimitBytes: 64 << 20,
//	})
//
//	if err := rc.AcquireMemory(n); err != nil {
//	    // ErrMemoryLimitExceeded: spill and retry
//	}
//	defer rc.ReleaseMemory(n)
//
// IO example:
//
//	w := resource.NewRateLimitedWriter(ctx, file, rc)
//
// # Nil Safety
//
// All methods handle a nil Controller gracefully - they become no-ops.
package resource
