package combine

import (
	"errors"
	"fmt"

	"github.com/hupe1980/combine/internal/resource"
	"github.com/hupe1980/combine/schema"
	"github.com/hupe1980/combine/spill"
)

var (
	// ErrClosed is returned by operations on a closed Combiner.
	ErrClosed = errors.New("combiner is closed")

	// ErrDraining is returned by Add once DrainWhile has been called.
	ErrDraining = errors.New("combiner is draining")

	// ErrCorrupt indicates a spill chunk that failed to decode.
	ErrCorrupt = errors.New("spill file corrupt")

	// ErrIO indicates a read, write or seek failure on the spill file.
	ErrIO = errors.New("spill io failure")

	// ErrInvalidDocument indicates a document that does not conform to its
	// binding's schema.
	ErrInvalidDocument = errors.New("invalid document")

	// ErrReduction indicates that two documents sharing a key could not be
	// reduced.
	ErrReduction = errors.New("reduction failed")

	// ErrSchema indicates a schema that cannot be evaluated.
	ErrSchema = errors.New("schema error")

	// ErrInvalidChunkSize is returned by New for an unusable chunk range.
	ErrInvalidChunkSize = errors.New("invalid chunk size")

	// ErrUnknownBinding indicates a document whose binding has no entry in
	// the Spec.
	ErrUnknownBinding = spill.ErrUnknownBinding
)

func translateError(err error) error {
	if err == nil {
		return nil
	}

	if errors.Is(err, spill.ErrCorruptChunk) {
		return fmt.Errorf("%w: %w", ErrCorrupt, err)
	}
	if errors.Is(err, spill.ErrSpillIO) {
		return fmt.Errorf("%w: %w", ErrIO, err)
	}

	var fv *spill.FailedValidationError
	if errors.As(err, &fv) {
		return fmt.Errorf("%w: %w", ErrInvalidDocument, err)
	}
	var re *spill.ReductionError
	if errors.As(err, &re) {
		return fmt.Errorf("%w: %w", ErrReduction, err)
	}
	var se *schema.SchemaError
	if errors.As(err, &se) {
		return fmt.Errorf("%w: %w", ErrSchema, err)
	}

	return err
}

// isMemoryLimit reports whether err is a memory budget rejection.
func isMemoryLimit(err error) bool {
	return errors.Is(err, resource.ErrMemoryLimitExceeded)
}
