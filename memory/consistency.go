package memory

import (
	"fmt"
	"sort"
)

// CheckConsistency verifies the bidirectional invariant between the
// record table and the inverted index: every (unit, id) pair implied by a
// live record has a posting entry, and no posting entry exists beyond
// those. It returns a ConsistencyError describing the first divergence
// found, or nil. Intended for tests and post-restore validation; it walks
// every record.
func (m *Memory[T]) CheckConsistency() error {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var implied int
	for id, rec := range m.records {
		for _, unit := range rec.pattern.Units() {
			list := m.idx.Postings(unit)
			pos := sort.Search(len(list), func(i int) bool { return list[i] >= id })
			if pos >= len(list) || list[pos] != id {
				return &ConsistencyError{Detail: fmt.Sprintf("record %d active in unit %d but absent from its posting list", id, unit)}
			}
		}
		implied += rec.pattern.Len()
	}
	if total := m.idx.Size(); total != implied {
		return &ConsistencyError{Detail: fmt.Sprintf("index holds %d posting entries, live records imply %d", total, implied)}
	}
	return nil
}
