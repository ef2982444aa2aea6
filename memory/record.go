package memory

import (
	"time"

	"github.com/viant/sparsemem/pattern"
)

// Record is the caller-visible view of a stored pattern. Ids are allocated
// from a monotonic sequence, so ascending id order is insertion order.
type Record[T any] struct {
	ID           uint64
	Pattern      pattern.Pattern
	Payload      T
	CreatedAt    time.Time
	LastAccessed time.Time
	AccessCount  uint64
}

// record is the store-owned mutable form. Only Memory touches it; Get and
// Records hand out copies.
type record[T any] struct {
	id           uint64
	pattern      pattern.Pattern
	payload      T
	createdAt    time.Time
	lastAccessed time.Time
	accessCount  uint64
}

func (r *record[T]) view() Record[T] {
	return Record[T]{
		ID:           r.id,
		Pattern:      r.pattern,
		Payload:      r.payload,
		CreatedAt:    r.createdAt,
		LastAccessed: r.lastAccessed,
		AccessCount:  r.accessCount,
	}
}

// Match is a single retrieval hit: a record id and its Jaccard similarity
// to the query, in (0, 1].
type Match struct {
	ID    uint64
	Score float64
}

// Stats is a read-only snapshot of store shape for introspection.
type Stats struct {
	// Size is the number of live records.
	Size int
	// Capacity is the configured maximum number of live records.
	Capacity int
	// Universe is the code dimensionality N.
	Universe int
	// AverageSparsity is the mean active-unit count per live record, 0
	// when the store is empty.
	AverageSparsity float64
}
