// Package spill implements the spill-to-disk side of the combiner.
//
// A [Writer] appends sorted runs of documents ("segments") to a spill file as
// a sequence of compressed chunks and records the byte range of each segment.
// The ranges are the only index of the file. A [Drainer] later opens a
// [Segment] cursor per range and performs a k-way merge: documents sharing a
// (binding, key) are reduced left to right in the order their segments were
// written, re-validated, and handed to a caller-supplied sink one at a time.
//
// Basic usage:
//
//	w := spill.NewWriter(file)
//	for _, run := range runs {
//	    if _, err := w.WriteSegment(run, spill.DefaultChunkSize); err != nil {
//	        return err
//	    }
//	}
//	file, ranges := w.IntoParts()
//
//	d, err := spill.NewDrainer(spec, file, ranges)
//	if err != nil {
//	    return err
//	}
//	for {
//	    more, err := d.DrainWhile(func(binding uint32, doc doc.Document, reduced bool) (bool, error) {
//	        return true, emit(doc)
//	    })
//	    if err != nil || !more {
//	        return err
//	    }
//	}
//
// Writer, Segment and Drainer are not safe for concurrent use. Ownership of
// the spill file moves between them explicitly through IntoParts.
package spill
