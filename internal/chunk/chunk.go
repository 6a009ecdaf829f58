package chunk

import (
	"encoding/binary"
	"errors"
	"fmt"
	"math"

	"github.com/hupe1980/combine/doc"
)

// HeaderSize is the fixed size of a chunk header.
const HeaderSize = 8

// ErrCorrupt is returned when a chunk fails to decode: a length mismatch,
// decompression failure or malformed document framing.
var ErrCorrupt = errors.New("corrupt chunk")

// Header is the fixed-size prefix of a chunk.
type Header struct {
	CompressedLen uint32
	RawLen        uint32
}

// Len returns the total encoded chunk length including the header.
func (h Header) Len() int64 { return HeaderSize + int64(h.CompressedLen) }

// ParseHeader decodes a chunk header.
func ParseHeader(b []byte) (Header, error) {
	if len(b) < HeaderSize {
		return Header{}, fmt.Errorf("%w: short header (%d bytes)", ErrCorrupt, len(b))
	}
	return Header{
		CompressedLen: binary.NativeEndian.Uint32(b[0:4]),
		RawLen:        binary.NativeEndian.Uint32(b[4:8]),
	}, nil
}

// AppendRaw appends the uncompressed payload encoding of docs to dst.
// Encoding is deterministic for identical input.
func AppendRaw(dst []byte, docs []doc.Document) ([]byte, error) {
	dst = binary.AppendUvarint(dst, uint64(len(docs)))
	var body []byte
	for i := range docs {
		var err error
		body, err = doc.AppendValue(body[:0], docs[i].Root)
		if err != nil {
			return nil, fmt.Errorf("encode document %d: %w", i, err)
		}
		dst = binary.LittleEndian.AppendUint32(dst, docs[i].Binding)
		dst = append(dst, byte(docs[i].Flags))
		dst = binary.AppendUvarint(dst, uint64(len(body)))
		dst = append(dst, body...)
	}
	return dst, nil
}

// Compress frames raw as a chunk: it appends the header and the compressed
// payload to dst.
func Compress(dst, raw []byte, c Compression) ([]byte, error) {
	if len(raw) > math.MaxUint32 {
		return nil, fmt.Errorf("chunk payload of %d bytes exceeds format limit", len(raw))
	}
	start := len(dst)
	dst = append(dst, make([]byte, HeaderSize)...)
	dst, err := compress(dst, raw, c)
	if err != nil {
		return nil, fmt.Errorf("compress chunk: %w", err)
	}
	compressed := len(dst) - start - HeaderSize
	if compressed > math.MaxUint32 {
		return nil, fmt.Errorf("compressed chunk of %d bytes exceeds format limit", compressed)
	}
	binary.NativeEndian.PutUint32(dst[start:], uint32(compressed))
	binary.NativeEndian.PutUint32(dst[start+4:], uint32(len(raw)))
	return dst, nil
}

// Encode produces a self-contained chunk holding docs.
func Encode(docs []doc.Document, c Compression) ([]byte, error) {
	raw, err := AppendRaw(nil, docs)
	if err != nil {
		return nil, err
	}
	return Compress(nil, raw, c)
}

// Block owns a decompressed chunk buffer and the archived documents that
// borrow from it. The documents stay valid for as long as the Block (or any
// document obtained from it) is reachable.
type Block struct {
	buf  []byte
	docs []doc.Archived
}

// Docs returns the archived documents in their original order.
func (b *Block) Docs() []doc.Archived { return b.docs }

// Len returns the number of documents.
func (b *Block) Len() int { return len(b.docs) }

// RawSize returns the decompressed payload size.
func (b *Block) RawSize() int { return len(b.buf) }

// Decode decodes a complete chunk (header included).
func Decode(frame []byte, c Compression) (*Block, error) {
	h, err := ParseHeader(frame)
	if err != nil {
		return nil, err
	}
	body := frame[HeaderSize:]
	if int64(len(body)) != int64(h.CompressedLen) {
		return nil, fmt.Errorf("%w: header says %d compressed bytes, have %d", ErrCorrupt, h.CompressedLen, len(body))
	}
	return DecodeBody(h, body, c)
}

// DecodeBody decompresses the payload described by h and parses its
// documents.
func DecodeBody(h Header, compressed []byte, c Compression) (*Block, error) {
	if int64(len(compressed)) != int64(h.CompressedLen) {
		return nil, fmt.Errorf("%w: header says %d compressed bytes, have %d", ErrCorrupt, h.CompressedLen, len(compressed))
	}
	buf, err := decompress(compressed, int(h.RawLen), c)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrCorrupt, err)
	}
	docs, err := parseRaw(buf)
	if err != nil {
		return nil, err
	}
	return &Block{buf: buf, docs: docs}, nil
}

func parseRaw(buf []byte) ([]doc.Archived, error) {
	n, k := binary.Uvarint(buf)
	if k <= 0 {
		return nil, fmt.Errorf("%w: invalid document count", ErrCorrupt)
	}
	data := buf[k:]
	// Each document occupies at least 7 bytes.
	if n == 0 || n > uint64(len(data)/7) {
		return nil, fmt.Errorf("%w: implausible document count %d", ErrCorrupt, n)
	}
	docs := make([]doc.Archived, n)
	for i := range docs {
		if len(data) < 5 {
			return nil, fmt.Errorf("%w: short document header", ErrCorrupt)
		}
		binding := binary.LittleEndian.Uint32(data)
		flags := doc.Flags(data[4])
		data = data[5:]

		size, k := binary.Uvarint(data)
		if k <= 0 || size > uint64(len(data)-k) {
			return nil, fmt.Errorf("%w: invalid document length", ErrCorrupt)
		}
		data = data[k:]
		docs[i] = doc.NewArchived(binding, flags, data[:size:size])
		data = data[size:]
	}
	if len(data) != 0 {
		return nil, fmt.Errorf("%w: %d trailing bytes", ErrCorrupt, len(data))
	}
	return docs, nil
}
