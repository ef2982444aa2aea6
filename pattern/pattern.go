package pattern

import (
	"encoding/binary"
	"fmt"
	"sort"

	"github.com/cespare/xxhash/v2"
)

// Pattern is an immutable set of active unit indices within a fixed
// universe. The zero value is the empty pattern. Units are kept sorted
// ascending and de-duplicated, so set operations run as linear merges.
type Pattern struct {
	units []uint32
}

// New builds a Pattern from units, validating against the universe size and
// the sparsity band [kMin, kMax]. Input is copied, sorted, and
// de-duplicated before validation, so the band applies to distinct units.
func New(units []uint32, universe, kMin, kMax int) (Pattern, error) {
	if universe <= 0 {
		return Pattern{}, fmt.Errorf("pattern: universe must be positive, got %d", universe)
	}
	sorted := append([]uint32(nil), units...)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i] < sorted[j] })
	out := sorted[:0]
	var prev uint32
	for i, u := range sorted {
		if i > 0 && u == prev {
			continue
		}
		if int(u) >= universe {
			return Pattern{}, fmt.Errorf("pattern: unit %d outside universe [0, %d)", u, universe)
		}
		out = append(out, u)
		prev = u
	}
	if len(out) < kMin || len(out) > kMax {
		return Pattern{}, fmt.Errorf("pattern: %d active units outside sparsity band [%d, %d]", len(out), kMin, kMax)
	}
	return Pattern{units: out}, nil
}

// FromSorted wraps an already sorted, de-duplicated unit slice without
// validation. The caller must not mutate units afterwards. Intended for
// decode paths and internal reconstruction.
func FromSorted(units []uint32) Pattern {
	return Pattern{units: units}
}

// Len returns the number of active units.
func (p Pattern) Len() int { return len(p.units) }

// Units returns a copy of the active unit indices in ascending order.
func (p Pattern) Units() []uint32 {
	return append([]uint32(nil), p.units...)
}

// Contains reports whether unit is active in p.
func (p Pattern) Contains(unit uint32) bool {
	i := sort.Search(len(p.units), func(i int) bool { return p.units[i] >= unit })
	return i < len(p.units) && p.units[i] == unit
}

// Equal reports set equality of active units.
func (p Pattern) Equal(other Pattern) bool {
	if len(p.units) != len(other.units) {
		return false
	}
	for i := range p.units {
		if p.units[i] != other.units[i] {
			return false
		}
	}
	return true
}

// Overlap returns the number of units active in both patterns.
func (p Pattern) Overlap(other Pattern) int {
	var n, i, j int
	for i < len(p.units) && j < len(other.units) {
		switch {
		case p.units[i] == other.units[j]:
			n++
			i++
			j++
		case p.units[i] < other.units[j]:
			i++
		default:
			j++
		}
	}
	return n
}

// UnionSize returns the number of units active in either pattern.
func (p Pattern) UnionSize(other Pattern) int {
	return len(p.units) + len(other.units) - p.Overlap(other)
}

// Jaccard returns overlap divided by union size. Two empty patterns have
// similarity 0; identical non-empty patterns have similarity 1.
func (p Pattern) Jaccard(other Pattern) float64 {
	union := p.UnionSize(other)
	if union == 0 {
		return 0
	}
	return float64(p.Overlap(other)) / float64(union)
}

// Fingerprint returns a 64-bit hash of the sorted unit stream. Patterns
// with equal unit sets always share a fingerprint; collisions between
// distinct sets are possible and must be resolved with Equal.
func (p Pattern) Fingerprint() uint64 {
	h := xxhash.New()
	var buf [4]byte
	for _, u := range p.units {
		binary.LittleEndian.PutUint32(buf[:], u)
		_, _ = h.Write(buf[:])
	}
	return h.Sum64()
}

// String renders the pattern as a compact unit list for logs and tests.
func (p Pattern) String() string {
	return fmt.Sprintf("pattern%v", p.units)
}
