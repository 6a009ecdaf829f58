package spill

import (
	"errors"
	"io"

	"github.com/hupe1980/combine/doc"
	"github.com/hupe1980/combine/internal/chunk"
)

// Segment is a cursor over one segment of a spill file. It holds one decoded
// chunk at a time.
type Segment struct {
	spec  *Spec
	begin int64 // segment start offset, the final ordering tie-break
	next  int64 // offset of the next undecoded chunk
	end   int64
	comp  chunk.Compression

	block *chunk.Block
	docs  []doc.Archived // undelivered documents of block
}

// NewSegment opens a cursor over rng of r and decodes its first chunk.
func NewSegment(spec *Spec, r io.ReaderAt, rng Range, c chunk.Compression) (*Segment, error) {
	if rng.Begin < 0 || rng.End <= rng.Begin {
		return nil, corruptError("empty or inverted segment range [%d, %d)", rng.Begin, rng.End)
	}
	s := &Segment{spec: spec, begin: rng.Begin, next: rng.Begin, end: rng.End, comp: c}
	if err := s.load(r); err != nil {
		return nil, err
	}
	return s, nil
}

// Head returns the first undelivered document. The view is only meaningful
// until the next call to Next.
func (s *Segment) Head() doc.Archived { return s.docs[0] }

// Begin returns the segment's start offset.
func (s *Segment) Begin() int64 { return s.begin }

// Next advances past the head. It returns s if documents remain, decoding
// the next chunk when the current one is exhausted, and nil at the end of
// the segment.
func (s *Segment) Next(r io.ReaderAt) (*Segment, error) {
	if len(s.docs) > 1 {
		s.docs = s.docs[1:]
		return s, nil
	}
	s.docs, s.block = nil, nil
	if s.next >= s.end {
		return nil, nil
	}
	if err := s.load(r); err != nil {
		return nil, err
	}
	return s, nil
}

func (s *Segment) load(r io.ReaderAt) error {
	if s.end-s.next < chunk.HeaderSize {
		return corruptError("%d trailing bytes at offset %d cannot hold a chunk header", s.end-s.next, s.next)
	}
	var hdr [chunk.HeaderSize]byte
	if err := readFull(r, hdr[:], s.next); err != nil {
		return err
	}
	h, err := chunk.ParseHeader(hdr[:])
	if err != nil {
		return err
	}
	next := s.next + h.Len()
	if next > s.end {
		return corruptError("chunk at offset %d ends at %d beyond segment end %d", s.next, next, s.end)
	}

	body := make([]byte, h.CompressedLen)
	if err := readFull(r, body, s.next+chunk.HeaderSize); err != nil {
		return err
	}
	block, err := chunk.DecodeBody(h, body, s.comp)
	if err != nil {
		return err
	}
	if block.Len() == 0 {
		return corruptError("empty chunk at offset %d", s.next)
	}

	s.block = block
	s.docs = block.Docs()
	s.next = next
	return nil
}

// readFull reads len(p) bytes at off. A file shorter than the recorded
// ranges is corruption, anything else an IO failure.
func readFull(r io.ReaderAt, p []byte, off int64) error {
	n, err := r.ReadAt(p, off)
	if n == len(p) {
		return nil
	}
	if err == nil || errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
		return corruptError("short read at offset %d: %d of %d bytes", off, n, len(p))
	}
	return ioError("read", err)
}
