// Package testutil provides testing utilities for the combiner.
//
// This package is intended for use in tests and benchmarks only.
// It generates deterministic document streams and sorted runs, and computes
// the expected outcome of combining them with an append reduction.
//
// # Random Documents
//
//	rng := testutil.NewRNG(seed)
//	runs := rng.Runs(8, 60, 50, 2)  // 8 sorted runs over 50 keys and 2 bindings
//	docs := rng.Stream(1000, 50, 1) // unsorted stream
//
// # Expected Output
//
//	want := testutil.Appended(docs) // per (binding, key): "v" values in order
package testutil
