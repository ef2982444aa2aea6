package pattern

import (
	"encoding/binary"
	"fmt"
)

// Encode encodes the active units into a BLOB suitable for storage in
// SQLite. The encoding is a little-endian sequence of uint32 unit indices
// without a length prefix; the length is derived from the BLOB size on
// decode. An empty pattern encodes to nil.
func (p Pattern) Encode() []byte {
	if len(p.units) == 0 {
		return nil
	}
	b := make([]byte, len(p.units)*4)
	for i, u := range p.units {
		binary.LittleEndian.PutUint32(b[i*4:], u)
	}
	return b
}

// Decode decodes a BLOB produced by Encode back into a Pattern, verifying
// that units are strictly ascending and inside the universe.
func Decode(b []byte, universe int) (Pattern, error) {
	if len(b) == 0 {
		return Pattern{}, nil
	}
	if len(b)%4 != 0 {
		return Pattern{}, fmt.Errorf("pattern: invalid blob length %d (not multiple of 4)", len(b))
	}
	n := len(b) / 4
	units := make([]uint32, n)
	for i := 0; i < n; i++ {
		u := binary.LittleEndian.Uint32(b[i*4:])
		if int(u) >= universe {
			return Pattern{}, fmt.Errorf("pattern: decoded unit %d outside universe [0, %d)", u, universe)
		}
		if i > 0 && u <= units[i-1] {
			return Pattern{}, fmt.Errorf("pattern: decoded units not strictly ascending at offset %d", i)
		}
		units[i] = u
	}
	return Pattern{units: units}, nil
}
