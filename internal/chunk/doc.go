// Package chunk implements the spill chunk format.
//
// A chunk is a compressed, length-prefixed block holding one or more
// documents:
//
//	offset 0..4: u32 compressed length (bytes following the header)
//	offset 4..8: u32 raw length (decompressed size)
//	offset 8..:  compressed payload
//
// Header integers use the platform's native byte order; chunks are private to
// the process that wrote them.
//
// The decompressed payload is a uvarint document count followed by, per
// document, a u32 binding, a flags byte, a uvarint body length and the body
// (doc.AppendValue encoding). Decoding returns a [Block] that owns the
// decompressed buffer together with the doc.Archived views into it.
package chunk
