package chunk

import (
	"errors"
	"fmt"
	"sync"

	"github.com/klauspost/compress/zstd"
	"github.com/pierrec/lz4/v4"
)

// Compression selects the payload compression algorithm.
type Compression uint8

const (
	// Zstd compresses payloads with ZSTD (better ratio). It is the default.
	Zstd Compression = iota
	// LZ4 compresses payloads with LZ4 block compression (faster).
	LZ4
)

// String returns the algorithm name.
func (c Compression) String() string {
	switch c {
	case Zstd:
		return "zstd"
	case LZ4:
		return "lz4"
	default:
		return fmt.Sprintf("compression(%d)", uint8(c))
	}
}

// ZSTD encoder/decoder pools for efficiency
var (
	zstdEncoderPool sync.Pool
	zstdDecoderPool sync.Pool
)

func getZstdEncoder() *zstd.Encoder {
	if v := zstdEncoderPool.Get(); v != nil {
		return v.(*zstd.Encoder)
	}
	// Spill files are short-lived; favour speed.
	enc, _ := zstd.NewWriter(nil, zstd.WithEncoderLevel(zstd.SpeedFastest), zstd.WithEncoderConcurrency(1))
	return enc
}

func putZstdEncoder(enc *zstd.Encoder) {
	zstdEncoderPool.Put(enc)
}

func getZstdDecoder() *zstd.Decoder {
	if v := zstdDecoderPool.Get(); v != nil {
		return v.(*zstd.Decoder)
	}
	dec, _ := zstd.NewReader(nil, zstd.WithDecoderConcurrency(1))
	return dec
}

func putZstdDecoder(dec *zstd.Decoder) {
	zstdDecoderPool.Put(dec)
}

// compress appends the compressed form of raw to dst.
func compress(dst, raw []byte, c Compression) ([]byte, error) {
	switch c {
	case Zstd:
		enc := getZstdEncoder()
		defer putZstdEncoder(enc)
		return enc.EncodeAll(raw, dst), nil
	case LZ4:
		start := len(dst)
		dst = grow(dst, lz4.CompressBlockBound(len(raw)))
		n, err := lz4.CompressBlock(raw, dst[start:], nil)
		if err != nil {
			return nil, err
		}
		if n == 0 {
			return nil, errors.New("lz4: block not compressible into bound")
		}
		return dst[:start+n], nil
	default:
		return nil, fmt.Errorf("unknown compression %s", c)
	}
}

// decompress decodes src into a fresh buffer of exactly rawLen bytes.
func decompress(src []byte, rawLen int, c Compression) ([]byte, error) {
	switch c {
	case Zstd:
		dec := getZstdDecoder()
		defer putZstdDecoder(dec)
		out, err := dec.DecodeAll(src, make([]byte, 0, rawLen))
		if err != nil {
			return nil, err
		}
		if len(out) != rawLen {
			return nil, fmt.Errorf("decompressed %d bytes, header says %d", len(out), rawLen)
		}
		return out, nil
	case LZ4:
		out := make([]byte, rawLen)
		n, err := lz4.UncompressBlock(src, out)
		if err != nil {
			return nil, err
		}
		if n != rawLen {
			return nil, fmt.Errorf("decompressed %d bytes, header says %d", n, rawLen)
		}
		return out, nil
	default:
		return nil, fmt.Errorf("unknown compression %s", c)
	}
}

// grow extends dst by n bytes.
func grow(dst []byte, n int) []byte {
	if cap(dst)-len(dst) < n {
		next := make([]byte, len(dst), len(dst)+n)
		copy(next, dst)
		dst = next
	}
	return dst[:len(dst)+n]
}
