package memory

import (
	"errors"
	"fmt"
)

// ErrNotFound is returned by Get and Delete when no live record has the
// requested id. Absence is a normal, recoverable outcome.
var ErrNotFound = errors.New("memory: record not found")

// CapacityError reports that the configured capacity cannot provide the
// requested headroom even after evicting every record. It signals a
// configuration problem, not a transient condition, and is never retried
// internally.
type CapacityError struct {
	Capacity  int
	Requested int
}

// Error implements the error interface.
func (e *CapacityError) Error() string {
	return fmt.Sprintf("memory: capacity %d cannot provide headroom for %d record(s)", e.Capacity, e.Requested)
}

// IsCapacityError reports whether err is (or wraps) a CapacityError.
func IsCapacityError(err error) bool {
	var ce *CapacityError
	return errors.As(err, &ce)
}

// ConsistencyError reports divergence between the record table and the
// inverted index. It should never occur under a correct implementation;
// when raised it signals a programming bug and the failing operation is
// aborted rather than repaired.
type ConsistencyError struct {
	Detail string
}

// Error implements the error interface.
func (e *ConsistencyError) Error() string {
	return fmt.Sprintf("memory: index/store divergence: %s", e.Detail)
}

// IsConsistencyError reports whether err is (or wraps) a ConsistencyError.
func IsConsistencyError(err error) bool {
	var ce *ConsistencyError
	return errors.As(err, &ce)
}
