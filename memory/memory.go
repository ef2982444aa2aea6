package memory

import (
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"github.com/viant/sparsemem/encoder"
	"github.com/viant/sparsemem/index"
	"github.com/viant/sparsemem/pattern"
)

// DuplicatePolicy controls what happens when an inserted pattern is
// set-equal to one already stored.
type DuplicatePolicy int

const (
	// Merge updates the existing record's payload and access time and
	// returns its id instead of creating a duplicate. This is the
	// default.
	Merge DuplicatePolicy = iota
	// AllowDuplicates always creates a new record.
	AllowDuplicates
)

// Config parameterizes a Memory instance.
type Config struct {
	// Universe is the code dimensionality N: units are drawn from
	// [0, Universe).
	Universe int
	// KMin and KMax bound the active-unit count of every stored pattern.
	KMin int
	KMax int
	// Capacity is the maximum number of live records. Inserting past it
	// evicts least-recently-used records first.
	Capacity int
	// DuplicatePolicy defaults to Merge.
	DuplicatePolicy DuplicatePolicy
	// Logger receives structured events. The zero value is a disabled
	// logger.
	Logger zerolog.Logger
	// Clock supplies timestamps; defaults to time.Now. Tests inject a
	// fake clock to make access ordering explicit.
	Clock func() time.Time
	// Metrics, when non-nil, receives operation counters. See NewMetrics.
	Metrics *Metrics
}

// Memory is the associative store: it owns all pattern records and the
// inverted index, and serializes every mutation behind a single write
// lock so a partially applied insert, delete, or eviction is never
// observable. Retrieval reads share a read lock.
type Memory[T any] struct {
	mu      sync.RWMutex
	cfg     Config
	now     func() time.Time
	log     zerolog.Logger
	metrics *Metrics

	records map[uint64]*record[T]
	byPrint map[uint64][]uint64 // pattern fingerprint -> candidate ids
	idx     *index.Inverted
	nextID  uint64
}

// New validates cfg and returns an empty Memory.
func New[T any](cfg Config) (*Memory[T], error) {
	if cfg.Universe <= 0 {
		return nil, fmt.Errorf("memory: universe must be positive, got %d", cfg.Universe)
	}
	if cfg.KMin <= 0 || cfg.KMin > cfg.KMax || cfg.KMax > cfg.Universe {
		return nil, fmt.Errorf("memory: invalid sparsity band [%d, %d] for universe %d", cfg.KMin, cfg.KMax, cfg.Universe)
	}
	if cfg.Capacity < 0 {
		return nil, fmt.Errorf("memory: capacity must be non-negative, got %d", cfg.Capacity)
	}
	if cfg.Clock == nil {
		cfg.Clock = time.Now
	}
	m := &Memory[T]{
		cfg:     cfg,
		now:     cfg.Clock,
		log:     cfg.Logger,
		metrics: cfg.Metrics,
		records: make(map[uint64]*record[T]),
		byPrint: make(map[uint64][]uint64),
		idx:     index.NewInverted(),
		nextID:  1,
	}
	m.log.Info().
		Int("universe", cfg.Universe).
		Int("k_min", cfg.KMin).
		Int("k_max", cfg.KMax).
		Int("capacity", cfg.Capacity).
		Msg("memory initialized")
	return m, nil
}

// Insert stores p with payload and returns the record id. Under the Merge
// policy an identical live pattern is refreshed in place and its existing
// id returned. A genuinely new record first acquires headroom, evicting by
// policy when the store is full; Insert fails with a CapacityError only
// when eviction cannot free room.
func (m *Memory[T]) Insert(p pattern.Pattern, payload T) (uint64, error) {
	if err := m.validatePattern(p); err != nil {
		return 0, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.cfg.DuplicatePolicy == Merge {
		if id, ok := m.lookupLocked(p); ok {
			rec := m.records[id]
			rec.payload = payload
			rec.lastAccessed = m.now()
			m.log.Debug().Uint64("id", id).Msg("merged duplicate pattern")
			return id, nil
		}
	}

	if err := m.ensureHeadroomLocked(1); err != nil {
		return 0, err
	}

	id := m.nextID
	m.nextID++
	now := m.now()
	rec := &record[T]{
		id:           id,
		pattern:      p,
		payload:      payload,
		createdAt:    now,
		lastAccessed: now,
	}
	m.records[id] = rec
	fp := p.Fingerprint()
	m.byPrint[fp] = append(m.byPrint[fp], id)
	m.idx.Add(id, p)

	m.metrics.recordInsert(len(m.records))
	m.log.Debug().Uint64("id", id).Int("units", p.Len()).Msg("inserted record")
	return id, nil
}

// InsertRaw encodes raw with enc and inserts the result. Encoding
// failures surface as EncodingError and are not retried.
func (m *Memory[T]) InsertRaw(raw []byte, enc encoder.Encoder, payload T) (uint64, error) {
	p, err := enc.Encode(raw)
	if err != nil {
		return 0, err
	}
	return m.Insert(p, payload)
}

// Delete removes the record and its index postings in one transaction.
// Deleting an absent id returns ErrNotFound and changes nothing, so
// deletes are safely retryable.
func (m *Memory[T]) Delete(id uint64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.deleteLocked(id)
}

// Get returns a copy of the record, or ErrNotFound. Get does not count as
// a retrieval hit: timestamps and access counters stay untouched.
func (m *Memory[T]) Get(id uint64) (Record[T], error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	rec, ok := m.records[id]
	if !ok {
		return Record[T]{}, ErrNotFound
	}
	return rec.view(), nil
}

// Config returns a copy of the configuration the Memory was built with.
func (m *Memory[T]) Config() Config {
	return m.cfg
}

// Len returns the number of live records.
func (m *Memory[T]) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.records)
}

// Stats returns a read-only snapshot of store shape.
func (m *Memory[T]) Stats() Stats {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var totalUnits int
	for _, rec := range m.records {
		totalUnits += rec.pattern.Len()
	}
	s := Stats{
		Size:     len(m.records),
		Capacity: m.cfg.Capacity,
		Universe: m.cfg.Universe,
	}
	if len(m.records) > 0 {
		s.AverageSparsity = float64(totalUnits) / float64(len(m.records))
	}
	return s
}

// Records returns copies of all live records in ascending id order.
// Intended for persistence and diagnostics, not hot paths.
func (m *Memory[T]) Records() []Record[T] {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]Record[T], 0, len(m.records))
	for _, rec := range m.records {
		out = append(out, rec.view())
	}
	sortRecordsByID(out)
	return out
}

// Restore loads previously persisted records into an empty Memory,
// rebuilding the inverted index from the records alone. Ids, timestamps,
// and access counters are taken verbatim; the id sequence resumes past
// the largest restored id. Restore fails if the Memory is not empty, if a
// record violates the configured band, if ids repeat, or if the record
// count exceeds capacity.
func (m *Memory[T]) Restore(recs []Record[T]) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.records) != 0 {
		return fmt.Errorf("memory: Restore requires an empty store, have %d records", len(m.records))
	}
	if len(recs) > m.cfg.Capacity {
		return &CapacityError{Capacity: m.cfg.Capacity, Requested: len(recs)}
	}
	seen := make(map[uint64]struct{}, len(recs))
	for _, r := range recs {
		if err := m.validatePattern(r.Pattern); err != nil {
			return fmt.Errorf("memory: restore record %d: %w", r.ID, err)
		}
		if _, dup := seen[r.ID]; dup {
			return fmt.Errorf("memory: restore: duplicate record id %d", r.ID)
		}
		seen[r.ID] = struct{}{}
	}
	for _, r := range recs {
		rec := &record[T]{
			id:           r.ID,
			pattern:      r.Pattern,
			payload:      r.Payload,
			createdAt:    r.CreatedAt,
			lastAccessed: r.LastAccessed,
			accessCount:  r.AccessCount,
		}
		m.records[r.ID] = rec
		fp := r.Pattern.Fingerprint()
		m.byPrint[fp] = append(m.byPrint[fp], r.ID)
		m.idx.Add(r.ID, r.Pattern)
		if r.ID >= m.nextID {
			m.nextID = r.ID + 1
		}
	}
	m.metrics.setRecords(len(m.records))
	m.log.Info().Int("records", len(recs)).Msg("restored records")
	return nil
}

// deleteLocked removes a record and its postings. Callers hold the write
// lock.
func (m *Memory[T]) deleteLocked(id uint64) error {
	rec, ok := m.records[id]
	if !ok {
		return ErrNotFound
	}
	m.idx.Remove(id, rec.pattern)
	delete(m.records, id)
	m.dropFingerprintLocked(rec.pattern.Fingerprint(), id)
	m.metrics.setRecords(len(m.records))
	m.log.Debug().Uint64("id", id).Msg("deleted record")
	return nil
}

// lookupLocked finds a live record whose pattern is set-equal to p.
func (m *Memory[T]) lookupLocked(p pattern.Pattern) (uint64, bool) {
	for _, id := range m.byPrint[p.Fingerprint()] {
		if rec, ok := m.records[id]; ok && rec.pattern.Equal(p) {
			return id, true
		}
	}
	return 0, false
}

func (m *Memory[T]) dropFingerprintLocked(fp uint64, id uint64) {
	bucket := m.byPrint[fp]
	for i, candidate := range bucket {
		if candidate == id {
			bucket = append(bucket[:i], bucket[i+1:]...)
			break
		}
	}
	if len(bucket) == 0 {
		delete(m.byPrint, fp)
	} else {
		m.byPrint[fp] = bucket
	}
}

// validatePattern enforces the band and universe on patterns that may not
// have gone through pattern.New, e.g. pattern.FromSorted.
func (m *Memory[T]) validatePattern(p pattern.Pattern) error {
	if p.Len() < m.cfg.KMin || p.Len() > m.cfg.KMax {
		return fmt.Errorf("memory: pattern has %d active units, band is [%d, %d]", p.Len(), m.cfg.KMin, m.cfg.KMax)
	}
	units := p.Units()
	if last := units[len(units)-1]; int(last) >= m.cfg.Universe {
		return fmt.Errorf("memory: pattern unit %d outside universe [0, %d)", last, m.cfg.Universe)
	}
	return nil
}

func sortRecordsByID[T any](recs []Record[T]) {
	sort.Slice(recs, func(i, j int) bool { return recs[i].ID < recs[j].ID })
}
