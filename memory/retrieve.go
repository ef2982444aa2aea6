package memory

import (
	"fmt"
	"sort"
	"time"

	"github.com/viant/sparsemem/encoder"
	"github.com/viant/sparsemem/pattern"
)

// Query returns up to k matches for p, ranked by Jaccard similarity over
// active-unit sets. Ties rank the more recently accessed record first,
// then the earlier-inserted one (lower id). Each returned hit refreshes
// the record's LastAccessed and AccessCount, which feeds the eviction
// policy. An empty query, k <= 0, or no candidates returns an empty
// result and no error.
func (m *Memory[T]) Query(p pattern.Pattern, k int) ([]Match, error) {
	if k <= 0 || p.Len() == 0 {
		return nil, nil
	}

	type candidate struct {
		id           uint64
		score        float64
		lastAccessed time.Time
	}

	m.mu.RLock()
	overlap := m.idx.Candidates(p)
	candidates := make([]candidate, 0, len(overlap))
	for id, shared := range overlap {
		rec, ok := m.records[id]
		if !ok {
			m.mu.RUnlock()
			return nil, &ConsistencyError{Detail: fmt.Sprintf("posting lists reference id %d with no live record", id)}
		}
		union := p.UnionSize(rec.pattern)
		candidates = append(candidates, candidate{
			id:           id,
			score:        float64(shared) / float64(union),
			lastAccessed: rec.lastAccessed,
		})
	}
	m.mu.RUnlock()

	sort.Slice(candidates, func(i, j int) bool {
		a, b := candidates[i], candidates[j]
		if a.score != b.score {
			return a.score > b.score
		}
		if !a.lastAccessed.Equal(b.lastAccessed) {
			return a.lastAccessed.After(b.lastAccessed)
		}
		return a.id < b.id
	})
	if k > len(candidates) {
		k = len(candidates)
	}
	matches := make([]Match, k)
	ids := make([]uint64, k)
	for i := 0; i < k; i++ {
		matches[i] = Match{ID: candidates[i].id, Score: candidates[i].score}
		ids[i] = candidates[i].id
	}

	m.touch(ids)
	m.metrics.recordQuery(len(overlap))
	return matches, nil
}

// QueryRaw encodes raw with enc and queries with the result.
func (m *Memory[T]) QueryRaw(raw []byte, enc encoder.Encoder, k int) ([]Match, error) {
	p, err := enc.Encode(raw)
	if err != nil {
		return nil, err
	}
	return m.Query(p, k)
}

// touch refreshes recency state for returned hits. It runs after the read
// lock is released, so a record deleted in between is skipped rather than
// resurrected.
func (m *Memory[T]) touch(ids []uint64) {
	if len(ids) == 0 {
		return
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	now := m.now()
	for _, id := range ids {
		if rec, ok := m.records[id]; ok {
			rec.lastAccessed = now
			rec.accessCount++
		}
	}
}
