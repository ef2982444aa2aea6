package memory

// ensureHeadroomLocked makes room for n new records, evicting the
// lowest-priority record until size+n fits the configured capacity.
// Eviction priority, lowest first: LastAccessed ascending, then
// AccessCount ascending, then CreatedAt ascending, then id ascending for
// determinism. Callers hold the write lock; evictions reuse the delete
// path so the record table and the index stay in step.
func (m *Memory[T]) ensureHeadroomLocked(n int) error {
	if m.cfg.Capacity < n {
		return &CapacityError{Capacity: m.cfg.Capacity, Requested: n}
	}
	for len(m.records)+n > m.cfg.Capacity {
		victim := m.evictionVictimLocked()
		m.log.Debug().
			Uint64("id", victim.id).
			Time("last_accessed", victim.lastAccessed).
			Msg("evicting record")
		if err := m.deleteLocked(victim.id); err != nil {
			return &ConsistencyError{Detail: "eviction victim vanished mid-transaction"}
		}
		m.metrics.recordEviction()
	}
	return nil
}

func (m *Memory[T]) evictionVictimLocked() *record[T] {
	var victim *record[T]
	for _, rec := range m.records {
		if victim == nil || evictBefore(rec, victim) {
			victim = rec
		}
	}
	return victim
}

func evictBefore[T any](a, b *record[T]) bool {
	if !a.lastAccessed.Equal(b.lastAccessed) {
		return a.lastAccessed.Before(b.lastAccessed)
	}
	if a.accessCount != b.accessCount {
		return a.accessCount < b.accessCount
	}
	if !a.createdAt.Equal(b.createdAt) {
		return a.createdAt.Before(b.createdAt)
	}
	return a.id < b.id
}
