package spill

import (
	"errors"
	"fmt"

	"github.com/hupe1980/combine/doc"
	"github.com/hupe1980/combine/internal/chunk"
	"github.com/hupe1980/combine/schema"
)

var (
	// ErrSpillIO wraps read, write and seek failures on the spill file.
	ErrSpillIO = errors.New("spill io")

	// ErrCorruptChunk is returned when a chunk header disagrees with its
	// payload, decompression fails, or a chunk overruns its segment.
	ErrCorruptChunk = chunk.ErrCorrupt

	// ErrUnknownBinding is returned for a document whose binding has no
	// entry in the Spec.
	ErrUnknownBinding = errors.New("unknown binding")

	// ErrReleased is returned by a Drainer after IntoParts.
	ErrReleased = errors.New("drainer released")
)

// FailedValidationError reports a reduced document that does not conform to
// its binding's schema.
type FailedValidationError struct {
	Binding uint32
	Key     []doc.Value
	Outcome schema.Outcome
}

func (e *FailedValidationError) Error() string {
	return fmt.Sprintf("binding %d key %s: document failed validation: %s", e.Binding, formatKey(e.Key), e.Outcome)
}

// ReductionError reports a failure of the Reducer for a key group.
type ReductionError struct {
	Binding uint32
	Key     []doc.Value
	Err     error
}

func (e *ReductionError) Error() string {
	return fmt.Sprintf("binding %d key %s: %v", e.Binding, formatKey(e.Key), e.Err)
}

func (e *ReductionError) Unwrap() error { return e.Err }

func formatKey(key []doc.Value) string {
	b, err := doc.Array(key...).MarshalJSON()
	if err != nil {
		return fmt.Sprintf("%v", key)
	}
	return string(b)
}

func ioError(op string, err error) error {
	return fmt.Errorf("%w: %s: %w", ErrSpillIO, op, err)
}

func corruptError(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrCorruptChunk, fmt.Sprintf(format, args...))
}
