package index

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/viant/sparsemem/pattern"
)

func mustPattern(t *testing.T, units ...uint32) pattern.Pattern {
	t.Helper()
	p, err := pattern.New(units, 1000, 1, 100)
	require.NoError(t, err)
	return p
}

func TestAdd_Idempotent(t *testing.T) {
	x := NewInverted()
	p := mustPattern(t, 1, 5, 9)

	x.Add(42, p)
	x.Add(42, p)

	for _, unit := range p.Units() {
		assert.Equal(t, []uint64{42}, x.Postings(unit), "unit %d", unit)
	}
	assert.Equal(t, 3, x.Units())
}

func TestPostings_Ordered(t *testing.T) {
	x := NewInverted()
	p := mustPattern(t, 7)

	x.Add(30, p)
	x.Add(10, p)
	x.Add(20, p)

	assert.Equal(t, []uint64{10, 20, 30}, x.Postings(7))
}

func TestRemove(t *testing.T) {
	x := NewInverted()
	a := mustPattern(t, 1, 2)
	b := mustPattern(t, 2, 3)

	x.Add(1, a)
	x.Add(2, b)
	x.Remove(1, a)

	assert.Nil(t, x.Postings(1), "emptied posting list must be dropped")
	assert.Equal(t, []uint64{2}, x.Postings(2))
	assert.Equal(t, []uint64{2}, x.Postings(3))
	assert.Equal(t, 2, x.Units())
}

func TestRemove_AbsentIsNoOp(t *testing.T) {
	x := NewInverted()
	p := mustPattern(t, 4, 5)

	x.Add(1, p)
	x.Remove(99, p)
	x.Remove(99, p)

	assert.Equal(t, []uint64{1}, x.Postings(4))
	assert.Equal(t, []uint64{1}, x.Postings(5))
}

func TestCandidates(t *testing.T) {
	x := NewInverted()
	x.Add(1, mustPattern(t, 1, 2, 3))
	x.Add(2, mustPattern(t, 3, 4, 5))
	x.Add(3, mustPattern(t, 900))

	got := x.Candidates(mustPattern(t, 2, 3, 4))

	assert.Equal(t, map[uint64]int{1: 2, 2: 2}, got)
}

func TestCandidates_EmptyQuery(t *testing.T) {
	x := NewInverted()
	x.Add(1, mustPattern(t, 1))

	got := x.Candidates(pattern.Pattern{})
	assert.Empty(t, got)
}

func TestReset(t *testing.T) {
	x := NewInverted()
	x.Add(1, mustPattern(t, 1, 2))
	x.Reset()

	assert.Equal(t, 0, x.Units())
	assert.Empty(t, x.Candidates(mustPattern(t, 1, 2)))
}
