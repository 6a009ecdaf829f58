// Package doc provides the document model processed by the combine engine.
//
// A document is a tree of typed values with a binding index (which key and
// schema configuration it belongs to) and a flags byte.
//
// # Representations
//
// Two representations exist:
//
//   - [Document]: the mutable form, built in memory while a document is
//     constructed or reduced.
//   - [Archived]: the immutable form read back from a spill chunk. It borrows
//     the chunk's decompressed buffer and decodes lazily; key lookups walk the
//     encoding without materializing the whole tree.
//
// # Values
//
//	v := doc.Object(
//	    doc.F("key", doc.String("aaa")),
//	    doc.F("v", doc.Array(doc.String("apple"))),
//	)
//
// Object fields are kept sorted by name so that encoding is deterministic.
package doc
