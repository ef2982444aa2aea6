package snapshot

import (
	"database/sql"
	"database/sql/driver"
	"encoding/binary"
	"fmt"

	sqlite "modernc.org/sqlite"
)

// RegisterPatternFunctions registers pattern_jaccard and pattern_units
// with the driver so they are available on connections opened after this
// call. They operate on the pattern BLOBs stored in the records table,
// which makes stored snapshots inspectable with plain SQL.
// Note: existing open connections will not see new functions.
func RegisterPatternFunctions(_ *sql.DB) error {
	// Idempotent registration; the driver rejects duplicates and we ignore those errors.
	_ = sqlite.RegisterDeterministicScalarFunction("pattern_jaccard", 2, patternJaccardImpl)
	_ = sqlite.RegisterDeterministicScalarFunction("pattern_units", 1, patternUnitsImpl)
	return nil
}

func asUnits(arg driver.Value) ([]uint32, error) {
	switch v := arg.(type) {
	case nil:
		return nil, nil
	case []byte:
		return decodeUnits(v)
	default:
		return nil, fmt.Errorf("snapshot: unsupported argument type %T for pattern; want BLOB", arg)
	}
}

func patternJaccardImpl(_ *sqlite.FunctionContext, args []driver.Value) (driver.Value, error) {
	if len(args) != 2 {
		return nil, fmt.Errorf("pattern_jaccard: expected 2 arguments, got %d", len(args))
	}
	a, err := asUnits(args[0])
	if err != nil {
		return nil, err
	}
	b, err := asUnits(args[1])
	if err != nil {
		return nil, err
	}
	if a == nil && b == nil {
		return nil, nil
	}
	overlap := overlapCount(a, b)
	union := len(a) + len(b) - overlap
	if union == 0 {
		return 0.0, nil
	}
	return float64(overlap) / float64(union), nil
}

func patternUnitsImpl(_ *sqlite.FunctionContext, args []driver.Value) (driver.Value, error) {
	if len(args) != 1 {
		return nil, fmt.Errorf("pattern_units: expected 1 argument, got %d", len(args))
	}
	if args[0] == nil {
		return nil, nil
	}
	units, err := asUnits(args[0])
	if err != nil {
		return nil, err
	}
	return int64(len(units)), nil
}

// Local minimal helpers; SQL functions accept any well-formed blob
// without knowing the snapshot's universe.
func decodeUnits(b []byte) ([]uint32, error) {
	if len(b) == 0 {
		return nil, nil
	}
	if len(b)%4 != 0 {
		return nil, fmt.Errorf("snapshot: invalid pattern blob length %d", len(b))
	}
	n := len(b) / 4
	units := make([]uint32, n)
	for i := 0; i < n; i++ {
		u := binary.LittleEndian.Uint32(b[i*4:])
		if i > 0 && u <= units[i-1] {
			return nil, fmt.Errorf("snapshot: pattern blob units not strictly ascending at offset %d", i)
		}
		units[i] = u
	}
	return units, nil
}

func overlapCount(a, b []uint32) int {
	var n, i, j int
	for i < len(a) && j < len(b) {
		switch {
		case a[i] == b[j]:
			n++
			i++
			j++
		case a[i] < b[j]:
			i++
		default:
			j++
		}
	}
	return n
}
