package spill

import (
	"context"
	"log/slog"

	"github.com/hupe1980/combine/internal/arena"
	"github.com/hupe1980/combine/internal/chunk"
	"github.com/hupe1980/combine/internal/resource"
)

// ChunkSize is the target size range [Lo, Hi) of a chunk's encoded,
// pre-compression payload. The writer packs chunks towards Lo; a chunk of
// more than one document never exceeds Hi.
type ChunkSize struct {
	Lo int
	Hi int
}

// DefaultChunkSize is the chunk target used by the combiner.
var DefaultChunkSize = ChunkSize{Lo: 64 << 10, Hi: 256 << 10}

// Valid reports whether the range is usable.
func (c ChunkSize) Valid() bool { return c.Lo > 0 && c.Hi >= c.Lo }

// Options configures a Writer or Drainer.
type Options struct {
	// Compression of chunk payloads. Writer and Drainer of one spill file
	// must agree; the file does not record it.
	Compression chunk.Compression

	// Logger receives per-segment debug events. Nil disables logging.
	Logger *slog.Logger

	// Resources throttles spill writes. Nil means unlimited.
	Resources *resource.Controller

	// Memory accounts the reduction arenas of the Drainer. Nil means
	// unaccounted.
	Memory arena.MemoryAcquirer

	// Context bounds waits on the IO limiter.
	Context context.Context
}

// Option configures Options.
type Option func(*Options)

// DefaultOptions returns the default options.
func DefaultOptions() Options {
	return Options{
		Compression: chunk.Zstd,
		Context:     context.Background(),
	}
}

// WithCompression sets the chunk compression.
func WithCompression(c chunk.Compression) Option {
	return func(o *Options) { o.Compression = c }
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(o *Options) { o.Logger = l }
}

// WithResources sets the resource controller used to throttle writes.
func WithResources(rc *resource.Controller) Option {
	return func(o *Options) { o.Resources = rc }
}

// WithMemory sets the acquirer charged for reduction arenas.
func WithMemory(m arena.MemoryAcquirer) Option {
	return func(o *Options) { o.Memory = m }
}

// WithContext sets the context used while waiting for IO budget.
func WithContext(ctx context.Context) Option {
	return func(o *Options) { o.Context = ctx }
}

func buildOptions(opts []Option) Options {
	o := DefaultOptions()
	for _, fn := range opts {
		fn(&o)
	}
	if o.Context == nil {
		o.Context = context.Background()
	}
	if o.Logger == nil {
		o.Logger = slog.New(slog.DiscardHandler)
	}
	return o
}
