package encoder

import (
	"errors"
	"fmt"

	"github.com/viant/sparsemem/pattern"
)

// Encoder produces a sparse pattern from raw input. Implementations must
// be deterministic: identical input and configuration always yield the
// same pattern.
type Encoder interface {
	// Encode converts raw input into a pattern whose active-unit count
	// lies within the encoder's configured sparsity band. Input that
	// cannot produce such a pattern fails with an EncodingError.
	Encode(raw []byte) (pattern.Pattern, error)
}

// EncodingError reports raw input that cannot be encoded into a valid
// sparsity-band pattern. It is surfaced to the caller and never retried.
type EncodingError struct {
	Reason string
}

// Error implements the error interface.
func (e *EncodingError) Error() string {
	return fmt.Sprintf("encoder: %s", e.Reason)
}

// IsEncodingError reports whether err is (or wraps) an EncodingError.
func IsEncodingError(err error) bool {
	var ee *EncodingError
	return errors.As(err, &ee)
}

func encodingErrorf(format string, args ...interface{}) error {
	return &EncodingError{Reason: fmt.Sprintf(format, args...)}
}
