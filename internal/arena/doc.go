// Package arena provides a bump allocator for reduction scratch values.
//
// An Arena is created for exactly one key group of a merge, backs every value
// and field slice produced while that group is reduced, and is freed once the
// reduced document has been handed to the consumer. Arenas are never shared
// across unrelated keys.
//
// # Memory Accounting
//
// Slabs are reserved from an optional MemoryAcquirer (typically the
// resource.Controller) and released by Free. An allocation that would exceed
// the acquirer's budget fails with the acquirer's error.
//
// # Concurrency Model
//
// An Arena is NOT safe for concurrent use.
package arena
