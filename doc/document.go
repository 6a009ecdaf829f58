package doc

// Flags annotate a document.
type Flags uint8

const (
	// FlagReduced marks a document that already results from at least one
	// prior reduction. A reduced document is the left operand of any further
	// reduction with a document that is not.
	FlagReduced Flags = 1 << iota
	// FlagCombined marks a document that folds several inputs in arrival
	// order without taking the left-operand precedence of FlagReduced.
	FlagCombined
)

// Has reports whether all bits of mask are set.
func (f Flags) Has(mask Flags) bool { return f&mask == mask }

// Document is the mutable, in-memory form of a document.
type Document struct {
	Binding uint32
	Flags   Flags
	Root    Value
}

// New returns a Document of the given binding with no flags set.
func New(binding uint32, root Value) Document {
	return Document{Binding: binding, Root: root}
}

// Reduced reports whether d results from a reduction, that is whether
// FlagReduced or FlagCombined is set.
func (d Document) Reduced() bool { return d.Flags&(FlagReduced|FlagCombined) != 0 }

// EncodedSize returns the size of the document root's binary encoding.
func (d Document) EncodedSize() (int, error) {
	b, err := AppendValue(nil, d.Root)
	if err != nil {
		return 0, err
	}
	return len(b), nil
}

// Archived is the immutable form of a document read from a spill chunk.
//
// It borrows body from the buffer it was decoded from. The buffer is owned by
// whoever produced the Archived (see the chunk Block type), and remains
// reachable for as long as any Archived referencing it is.
type Archived struct {
	Binding uint32
	Flags   Flags
	body    []byte
}

// NewArchived returns an Archived view over an encoded root value.
func NewArchived(binding uint32, flags Flags, body []byte) Archived {
	return Archived{Binding: binding, Flags: flags, body: body}
}

// Body returns the encoded root value. Callers must not modify it.
func (a Archived) Body() []byte { return a.body }

// Root decodes the full root value.
func (a Archived) Root() (Value, error) {
	v, rest, err := ParseValue(a.body)
	if err != nil {
		return Value{}, err
	}
	if len(rest) != 0 {
		return Value{}, ErrMalformed
	}
	return v, nil
}

// Lookup decodes only the value addressed by ptr.
func (a Archived) Lookup(ptr Pointer) (Value, bool, error) {
	return LookupEncoded(a.body, ptr)
}

// Document materializes the archived form into a mutable Document.
func (a Archived) Document() (Document, error) {
	root, err := a.Root()
	if err != nil {
		return Document{}, err
	}
	return Document{Binding: a.Binding, Flags: a.Flags, Root: root}, nil
}
