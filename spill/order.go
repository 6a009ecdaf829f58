package spill

import "cmp"

// CompareSegments orders segment cursors by the (binding, key) of their
// heads and then by segment start offset. The offset tie-break puts the
// segment written first on top, so that tied documents are reduced left to
// right in write order.
func CompareSegments(a, b *Segment) (int, error) {
	c, err := a.spec.CompareArchived(a.Head(), b.Head())
	if err != nil || c != 0 {
		return c, err
	}
	return cmp.Compare(a.begin, b.begin), nil
}
