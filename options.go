package combine

import (
	"log/slog"
	"os"

	"github.com/hupe1980/combine/internal/chunk"
	"github.com/hupe1980/combine/internal/fs"
	"github.com/hupe1980/combine/spill"
)

// Compression selects the spill chunk compression.
type Compression = chunk.Compression

const (
	// CompressionZstd is the default.
	CompressionZstd = chunk.Zstd
	// CompressionLZ4 trades ratio for speed.
	CompressionLZ4 = chunk.LZ4
)

// FileSystem abstracts the file operations used for the spill file.
type FileSystem = fs.FileSystem

type options struct {
	chunkSize        spill.ChunkSize
	compression      Compression
	spillDir         string
	memoryLimit      int64
	ioLimit          int64
	fs               FileSystem
	metricsCollector MetricsCollector
	logger           *Logger
}

// Option configures a Combiner.
type Option func(*options)

// WithChunkSize sets the target range [lo, hi) of a spill chunk's
// uncompressed size. Chunks are packed towards lo; only a chunk holding a
// single oversized document exceeds hi.
//
// Default: [64 KiB, 256 KiB).
func WithChunkSize(lo, hi int) Option {
	return func(o *options) {
		o.chunkSize = spill.ChunkSize{Lo: lo, Hi: hi}
	}
}

// WithCompression sets the spill chunk compression.
func WithCompression(c Compression) Option {
	return func(o *options) {
		o.compression = c
	}
}

// WithSpillDir sets the directory of the temporary spill file. It is
// created if missing. Default: os.TempDir().
func WithSpillDir(dir string) Option {
	return func(o *options) {
		o.spillDir = dir
	}
}

// WithMemoryLimit bounds the bytes of documents held in memory before a
// sorted run is spilled. 0 means unlimited: nothing is spilled until
// DrainWhile.
func WithMemoryLimit(bytes int64) Option {
	return func(o *options) {
		o.memoryLimit = bytes
	}
}

// WithIOLimit throttles spill writes to bytesPerSec. 0 means unlimited.
func WithIOLimit(bytesPerSec int64) Option {
	return func(o *options) {
		o.ioLimit = bytesPerSec
	}
}

// WithFileSystem replaces the file system used for the spill file.
func WithFileSystem(fsys FileSystem) Option {
	return func(o *options) {
		o.fs = fsys
	}
}

// WithMetricsCollector configures a metrics collector for monitoring operations.
// Pass nil to disable metrics collection.
//
// Example with BasicMetricsCollector:
//
//	metrics := &combine.BasicMetricsCollector{}
//	c, _ := combine.New(spec, combine.WithMetricsCollector(metrics))
//	// ... use c ...
//	stats := metrics.GetStats()
//	fmt.Printf("Spills: %d, bytes: %d\n", stats.SpillCount, stats.SpillBytes)
func WithMetricsCollector(mc MetricsCollector) Option {
	return func(o *options) {
		o.metricsCollector = mc
	}
}

// WithLogger configures structured logging for operations.
// Pass nil to disable logging.
func WithLogger(logger *Logger) Option {
	return func(o *options) {
		o.logger = logger
	}
}

// WithLogLevel creates a text logger with the specified level and sets it.
// Convenience wrapper for WithLogger(NewTextLogger(level)).
func WithLogLevel(level slog.Level) Option {
	return func(o *options) {
		o.logger = NewTextLogger(level)
	}
}

func applyOptions(optFns []Option) options {
	o := options{
		chunkSize:        spill.DefaultChunkSize,
		compression:      CompressionZstd,
		spillDir:         os.TempDir(),
		fs:               fs.Default,
		metricsCollector: NoopMetricsCollector{},
		logger:           NoopLogger(),
	}
	for _, fn := range optFns {
		if fn != nil {
			fn(&o)
		}
	}
	if o.metricsCollector == nil {
		o.metricsCollector = NoopMetricsCollector{}
	}
	if o.logger == nil {
		o.logger = NoopLogger()
	}
	if o.fs == nil {
		o.fs = fs.Default
	}
	return o
}
