package encoder

import (
	"encoding/binary"
	"fmt"

	"github.com/cespare/xxhash/v2"
	"github.com/viant/sparsemem/pattern"
)

// Hash encodes opaque bytes into exactly k distinct units by seeded
// hashing: unit i is derived from xxhash64 of the input suffixed with a
// slot counter, re-hashing with the next counter on collision. The scheme
// needs no training and distributes units uniformly over the universe.
type Hash struct {
	universe int
	k        int
}

// NewHash builds a Hash encoder producing k active units in [0, universe).
func NewHash(universe, k int) (*Hash, error) {
	if universe <= 0 {
		return nil, fmt.Errorf("encoder: universe must be positive, got %d", universe)
	}
	if k <= 0 || k > universe {
		return nil, fmt.Errorf("encoder: k must be in [1, %d], got %d", universe, k)
	}
	return &Hash{universe: universe, k: k}, nil
}

// Encode derives k distinct units from raw. Empty input fails with an
// EncodingError.
func (h *Hash) Encode(raw []byte) (pattern.Pattern, error) {
	if len(raw) == 0 {
		return pattern.Pattern{}, encodingErrorf("empty input")
	}
	seen := make(map[uint32]struct{}, h.k)
	units := make([]uint32, 0, h.k)
	buf := make([]byte, len(raw)+8)
	copy(buf, raw)
	for slot := uint64(0); len(units) < h.k; slot++ {
		binary.LittleEndian.PutUint64(buf[len(raw):], slot)
		unit := uint32(xxhash.Sum64(buf) % uint64(h.universe))
		if _, dup := seen[unit]; dup {
			continue
		}
		seen[unit] = struct{}{}
		units = append(units, unit)
	}
	return pattern.New(units, h.universe, h.k, h.k)
}
