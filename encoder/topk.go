package encoder

import (
	"encoding/binary"
	"fmt"
	"math"
	"sort"

	"github.com/viant/sparsemem/pattern"
	"github.com/viant/vec/search"
)

// TopK encodes a dense float32 activation vector into a sparse pattern by
// winner-take-all selection: the units with the largest absolute
// activations become active. Raw input is the BLOB form of the vector
// (little-endian float32 sequence) and must cover the whole universe.
type TopK struct {
	universe int
	kMin     int
	kMax     int
}

// NewTopK builds a TopK encoder for the given universe and sparsity band.
func NewTopK(universe, kMin, kMax int) (*TopK, error) {
	if universe <= 0 {
		return nil, fmt.Errorf("encoder: universe must be positive, got %d", universe)
	}
	if kMin <= 0 || kMin > kMax || kMax > universe {
		return nil, fmt.Errorf("encoder: invalid sparsity band [%d, %d] for universe %d", kMin, kMax, universe)
	}
	return &TopK{universe: universe, kMin: kMin, kMax: kMax}, nil
}

// Encode decodes raw into activations, rejects degenerate input, and
// selects up to kMax units with the largest absolute activation. Ties are
// broken by lower unit index so encoding stays deterministic. Fewer than
// kMin non-zero activations fail with an EncodingError.
func (t *TopK) Encode(raw []byte) (pattern.Pattern, error) {
	activations, err := DecodeActivations(raw)
	if err != nil {
		return pattern.Pattern{}, err
	}
	if len(activations) != t.universe {
		return pattern.Pattern{}, encodingErrorf("activation vector has %d dimensions, universe is %d", len(activations), t.universe)
	}
	if search.Float32s(activations).Magnitude() == 0 {
		return pattern.Pattern{}, encodingErrorf("zero-magnitude activation vector")
	}
	eligible := make([]int, 0, len(activations))
	for i, v := range activations {
		if v != 0 {
			eligible = append(eligible, i)
		}
	}
	if len(eligible) < t.kMin {
		return pattern.Pattern{}, encodingErrorf("%d non-zero activations, need at least %d", len(eligible), t.kMin)
	}
	sort.SliceStable(eligible, func(a, b int) bool {
		va := math.Abs(float64(activations[eligible[a]]))
		vb := math.Abs(float64(activations[eligible[b]]))
		if va != vb {
			return va > vb
		}
		return eligible[a] < eligible[b]
	})
	k := t.kMax
	if len(eligible) < k {
		k = len(eligible)
	}
	units := make([]uint32, k)
	for i := 0; i < k; i++ {
		units[i] = uint32(eligible[i])
	}
	return pattern.New(units, t.universe, t.kMin, t.kMax)
}

// EncodeActivations encodes a dense activation vector into the BLOB form
// consumed by TopK.Encode: a little-endian sequence of IEEE 754 float32
// values without a length prefix.
func EncodeActivations(vec []float32) []byte {
	if len(vec) == 0 {
		return nil
	}
	b := make([]byte, len(vec)*4)
	for i, v := range vec {
		binary.LittleEndian.PutUint32(b[i*4:], math.Float32bits(v))
	}
	return b
}

// DecodeActivations decodes a BLOB produced by EncodeActivations back into
// a dense float32 vector.
func DecodeActivations(b []byte) ([]float32, error) {
	if len(b) == 0 {
		return nil, encodingErrorf("empty input")
	}
	if len(b)%4 != 0 {
		return nil, encodingErrorf("invalid activation blob length %d (not multiple of 4)", len(b))
	}
	n := len(b) / 4
	vec := make([]float32, n)
	for i := 0; i < n; i++ {
		vec[i] = math.Float32frombits(binary.LittleEndian.Uint32(b[i*4:]))
	}
	return vec, nil
}
