// Package fs provides the filesystem abstraction behind spill files.
//
// The package defines two key interfaces:
//
//   - [File]: an open file with read/write/seek capabilities
//   - [FileSystem]: creation and removal of files
//
// # Implementations
//
//   - [LocalFS]: production implementation using the standard os package
//   - [FaultyFS]: test utility that injects read and write errors
//
// Production code uses fs.Default:
//
//	f, err := fs.Default.CreateTemp("", "combine-spill-*")
//
// Tests inject [FaultyFS] to simulate failures:
//
//	ffs := fs.NewFaultyFS(nil)
//	ffs.SetFault(fs.Fault{FailAfterReadBytes: 128})
package fs
