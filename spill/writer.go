package spill

import (
	"fmt"
	"io"
	"log/slog"

	"github.com/hupe1980/combine/doc"
	"github.com/hupe1980/combine/internal/chunk"
	"github.com/hupe1980/combine/internal/fs"
	"github.com/hupe1980/combine/internal/resource"
)

// Range is the [Begin, End) byte range of one segment in the spill file.
type Range struct {
	Begin int64
	End   int64
}

// Len returns the size of the range in bytes.
func (r Range) Len() int64 { return r.End - r.Begin }

// WriterStats counts the work done by a Writer.
type WriterStats struct {
	Segments int
	Chunks   int
	Retries  int
	Bytes    int64
}

// Writer appends sorted segments to a spill file.
type Writer struct {
	file   fs.File
	out    io.Writer
	offset int64
	ranges []Range
	opts   Options
	stats  WriterStats

	raw   []byte
	frame []byte
}

// NewWriter returns a Writer that owns file. Writing starts at offset 0;
// any previous content of a reused file is overwritten or left unreferenced.
func NewWriter(file fs.File, opts ...Option) (*Writer, error) {
	o := buildOptions(opts)
	if _, err := file.Seek(0, io.SeekStart); err != nil {
		return nil, ioError("seek", err)
	}
	var out io.Writer = file
	if o.Resources != nil {
		out = resource.NewRateLimitedWriter(o.Context, file, o.Resources)
	}
	return &Writer{file: file, out: out, opts: o}, nil
}

// WriteSegment writes docs, which must be sorted by (binding, key) with at
// most one document per key, as one segment. It returns the number of bytes
// written and records the segment's range. An empty docs is a no-op.
//
// Chunks are packed towards target.Lo using a running bytes-per-document
// estimate seeded from the first document. A candidate chunk of more than one
// document whose encoding exceeds target.Hi is discarded and retried with
// fewer documents. A single document is always accepted, however large.
func (w *Writer) WriteSegment(docs []doc.Document, target ChunkSize) (int64, error) {
	if len(docs) == 0 {
		return 0, nil
	}
	if !target.Valid() {
		return 0, fmt.Errorf("spill: invalid chunk size [%d, %d)", target.Lo, target.Hi)
	}

	first, err := docs[0].EncodedSize()
	if err != nil {
		return 0, err
	}
	perDoc := max(first, 1)

	begin := w.offset
	chunks, retries := 0, 0

	for len(docs) > 0 {
		n := min(max(target.Lo/perDoc, 1), len(docs))

		for {
			w.raw, err = chunk.AppendRaw(w.raw[:0], docs[:n])
			if err != nil {
				return 0, err
			}
			if len(w.raw) <= target.Hi || n == 1 {
				break
			}
			// Correct the estimate upward and retry with fewer documents.
			perDoc = ceilDiv(len(w.raw), n)
			n = min(max(target.Lo/perDoc, 1), n-1)
			retries++
		}

		w.frame, err = chunk.Compress(w.frame[:0], w.raw, w.opts.Compression)
		if err != nil {
			return 0, err
		}
		if err := w.write(w.frame); err != nil {
			return 0, err
		}

		perDoc = max(ceilDiv(len(w.raw), n), 1)
		docs = docs[n:]
		chunks++
	}

	written := w.offset - begin
	w.ranges = append(w.ranges, Range{Begin: begin, End: w.offset})

	w.stats.Segments++
	w.stats.Chunks += chunks
	w.stats.Retries += retries
	w.stats.Bytes += written

	w.opts.Logger.Debug("spill segment written",
		slog.Int64("begin", begin),
		slog.Int64("bytes", written),
		slog.Int("chunks", chunks),
		slog.Int("retries", retries),
	)
	return written, nil
}

func (w *Writer) write(p []byte) error {
	n, err := w.out.Write(p)
	w.offset += int64(n)
	if err != nil {
		return ioError("write", err)
	}
	if n != len(p) {
		return ioError("write", io.ErrShortWrite)
	}
	return nil
}

// Ranges returns the ranges of the segments written so far.
func (w *Writer) Ranges() []Range { return w.ranges }

// Stats returns the writer's counters.
func (w *Writer) Stats() WriterStats { return w.stats }

// IntoParts releases the spill file and the ranges table. The Writer must
// not be used afterwards.
func (w *Writer) IntoParts() (fs.File, []Range) {
	file, ranges := w.file, w.ranges
	w.file, w.out, w.ranges = nil, nil, nil
	return file, ranges
}

func ceilDiv(a, b int) int { return (a + b - 1) / b }
