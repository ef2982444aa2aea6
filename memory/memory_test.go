package memory

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/viant/sparsemem/pattern"
)

// fakeClock hands out strictly increasing timestamps, one second apart,
// so access ordering is explicit in tests.
type fakeClock struct {
	t time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{t: time.Unix(1_700_000_000, 0)}
}

func (c *fakeClock) Now() time.Time {
	c.t = c.t.Add(time.Second)
	return c.t
}

func newTestMemory(t *testing.T, capacity int) (*Memory[string], *fakeClock) {
	t.Helper()
	clock := newFakeClock()
	mem, err := New[string](Config{
		Universe: 1000,
		KMin:     1,
		KMax:     100,
		Capacity: capacity,
		Clock:    clock.Now,
	})
	require.NoError(t, err)
	return mem, clock
}

func pat(t *testing.T, units ...uint32) pattern.Pattern {
	t.Helper()
	p, err := pattern.New(units, 1000, 1, 100)
	require.NoError(t, err)
	return p
}

func TestNew_Validation(t *testing.T) {
	tests := []struct {
		name string
		cfg  Config
	}{
		{"zero universe", Config{Universe: 0, KMin: 1, KMax: 1, Capacity: 1}},
		{"zero kMin", Config{Universe: 10, KMin: 0, KMax: 5, Capacity: 1}},
		{"inverted band", Config{Universe: 10, KMin: 6, KMax: 5, Capacity: 1}},
		{"band above universe", Config{Universe: 10, KMin: 1, KMax: 11, Capacity: 1}},
		{"negative capacity", Config{Universe: 10, KMin: 1, KMax: 5, Capacity: -1}},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, err := New[string](tc.cfg)
			assert.Error(t, err)
		})
	}
}

func TestInsertGet(t *testing.T) {
	mem, _ := newTestMemory(t, 10)
	p := pat(t, 1, 2, 3)

	id, err := mem.Insert(p, "hello")
	require.NoError(t, err)

	rec, err := mem.Get(id)
	require.NoError(t, err)
	assert.Equal(t, id, rec.ID)
	assert.True(t, rec.Pattern.Equal(p))
	assert.Equal(t, "hello", rec.Payload)
	assert.Equal(t, uint64(0), rec.AccessCount)
	assert.Equal(t, rec.CreatedAt, rec.LastAccessed)

	_, err = mem.Get(id + 1)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestInsert_RejectsBandViolations(t *testing.T) {
	mem, err := New[string](Config{Universe: 1000, KMin: 3, KMax: 5, Capacity: 10})
	require.NoError(t, err)

	_, err = mem.Insert(pattern.FromSorted([]uint32{1, 2}), "too sparse")
	assert.Error(t, err)

	_, err = mem.Insert(pattern.FromSorted([]uint32{1, 2, 3, 4, 5, 6}), "too dense")
	assert.Error(t, err)

	_, err = mem.Insert(pattern.FromSorted([]uint32{1, 2, 1000}), "outside universe")
	assert.Error(t, err)

	assert.Equal(t, 0, mem.Len())
}

func TestInsert_MergePolicy(t *testing.T) {
	mem, _ := newTestMemory(t, 10)
	p := pat(t, 5, 6, 7)

	id1, err := mem.Insert(p, "first")
	require.NoError(t, err)
	id2, err := mem.Insert(p, "second")
	require.NoError(t, err)

	assert.Equal(t, id1, id2, "re-inserting an identical pattern must reuse the record")
	assert.Equal(t, 1, mem.Len())

	rec, err := mem.Get(id1)
	require.NoError(t, err)
	assert.Equal(t, "second", rec.Payload)
	assert.True(t, rec.LastAccessed.After(rec.CreatedAt), "merge must refresh the access time")
	require.NoError(t, mem.CheckConsistency())
}

func TestInsert_AllowDuplicates(t *testing.T) {
	clock := newFakeClock()
	mem, err := New[string](Config{
		Universe: 1000, KMin: 1, KMax: 100, Capacity: 10,
		DuplicatePolicy: AllowDuplicates,
		Clock:           clock.Now,
	})
	require.NoError(t, err)
	p := pat(t, 5, 6, 7)

	id1, err := mem.Insert(p, "first")
	require.NoError(t, err)
	id2, err := mem.Insert(p, "second")
	require.NoError(t, err)

	assert.NotEqual(t, id1, id2)
	assert.Equal(t, 2, mem.Len())
	require.NoError(t, mem.CheckConsistency())
}

func TestDelete_Idempotent(t *testing.T) {
	mem, _ := newTestMemory(t, 10)
	idA, err := mem.Insert(pat(t, 1, 2), "a")
	require.NoError(t, err)
	idB, err := mem.Insert(pat(t, 2, 3), "b")
	require.NoError(t, err)

	require.NoError(t, mem.Delete(idA))
	assert.Equal(t, 1, mem.Len())
	require.NoError(t, mem.CheckConsistency())

	// Second delete reports absence and changes nothing.
	assert.ErrorIs(t, mem.Delete(idA), ErrNotFound)
	assert.Equal(t, 1, mem.Len())
	require.NoError(t, mem.CheckConsistency())

	// Deleting an id that never existed is equally safe.
	assert.ErrorIs(t, mem.Delete(9999), ErrNotFound)

	_, err = mem.Get(idB)
	assert.NoError(t, err)
}

func TestDelete_ReusedPatternKeepsOtherRecord(t *testing.T) {
	clock := newFakeClock()
	mem, err := New[int](Config{
		Universe: 1000, KMin: 1, KMax: 100, Capacity: 10,
		DuplicatePolicy: AllowDuplicates,
		Clock:           clock.Now,
	})
	require.NoError(t, err)

	p := pat(t, 10, 20)
	id1, err := mem.Insert(p, 1)
	require.NoError(t, err)
	id2, err := mem.Insert(p, 2)
	require.NoError(t, err)

	require.NoError(t, mem.Delete(id1))

	// The surviving duplicate must still be findable and indexed.
	matches, err := mem.Query(p, 10)
	require.NoError(t, err)
	require.Len(t, matches, 1)
	assert.Equal(t, id2, matches[0].ID)
	require.NoError(t, mem.CheckConsistency())
}

func TestStats(t *testing.T) {
	mem, _ := newTestMemory(t, 5)

	s := mem.Stats()
	assert.Equal(t, Stats{Size: 0, Capacity: 5, Universe: 1000, AverageSparsity: 0}, s)

	_, err := mem.Insert(pat(t, 1, 2), "a")
	require.NoError(t, err)
	_, err = mem.Insert(pat(t, 1, 2, 3, 4), "b")
	require.NoError(t, err)

	s = mem.Stats()
	assert.Equal(t, 2, s.Size)
	assert.InDelta(t, 3.0, s.AverageSparsity, 1e-12)
}

func TestRecords_OrderedByID(t *testing.T) {
	mem, _ := newTestMemory(t, 10)
	var want []uint64
	for _, units := range [][]uint32{{1, 2}, {3, 4}, {5, 6}} {
		id, err := mem.Insert(pat(t, units...), "x")
		require.NoError(t, err)
		want = append(want, id)
	}

	recs := mem.Records()
	require.Len(t, recs, 3)
	for i, rec := range recs {
		assert.Equal(t, want[i], rec.ID)
	}
}

func TestRestore(t *testing.T) {
	mem, _ := newTestMemory(t, 10)
	idA, err := mem.Insert(pat(t, 1, 2, 3), "a")
	require.NoError(t, err)
	_, err = mem.Insert(pat(t, 4, 5, 6), "b")
	require.NoError(t, err)

	dump := mem.Records()

	restored, _ := newTestMemory(t, 10)
	require.NoError(t, restored.Restore(dump))
	require.NoError(t, restored.CheckConsistency())
	assert.Equal(t, 2, restored.Len())

	rec, err := restored.Get(idA)
	require.NoError(t, err)
	assert.Equal(t, "a", rec.Payload)

	// The id sequence resumes past the restored ids.
	idC, err := restored.Insert(pat(t, 7, 8, 9), "c")
	require.NoError(t, err)
	assert.Greater(t, idC, dump[len(dump)-1].ID)
}

func TestRestore_Errors(t *testing.T) {
	mem, _ := newTestMemory(t, 10)
	_, err := mem.Insert(pat(t, 1, 2), "a")
	require.NoError(t, err)

	// Not empty.
	assert.Error(t, mem.Restore(nil))

	// Over capacity.
	small, _ := newTestMemory(t, 1)
	dump := []Record[string]{
		{ID: 1, Pattern: pat(t, 1, 2)},
		{ID: 2, Pattern: pat(t, 3, 4)},
	}
	err = small.Restore(dump)
	require.Error(t, err)
	assert.True(t, IsCapacityError(err))

	// Duplicate ids.
	dup, _ := newTestMemory(t, 10)
	err = dup.Restore([]Record[string]{
		{ID: 1, Pattern: pat(t, 1, 2)},
		{ID: 1, Pattern: pat(t, 3, 4)},
	})
	assert.Error(t, err)
}
