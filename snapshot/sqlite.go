package snapshot

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite" // register pure-Go SQLite driver

	"github.com/viant/sparsemem/memory"
	"github.com/viant/sparsemem/pattern"
)

// ErrNoSnapshot is returned by Latest when the database holds no
// snapshots yet.
var ErrNoSnapshot = errors.New("snapshot: no snapshots stored")

const schema = `
CREATE TABLE IF NOT EXISTS snapshots (
    id         TEXT PRIMARY KEY,
    created_at INTEGER NOT NULL,
    universe   INTEGER NOT NULL,
    k_min      INTEGER NOT NULL,
    k_max      INTEGER NOT NULL,
    capacity   INTEGER NOT NULL
);
CREATE TABLE IF NOT EXISTS records (
    snapshot_id   TEXT NOT NULL,
    id            INTEGER NOT NULL,
    pattern       BLOB NOT NULL,
    payload       BLOB,
    created_at    INTEGER NOT NULL,
    last_accessed INTEGER NOT NULL,
    access_count  INTEGER NOT NULL,
    PRIMARY KEY(snapshot_id, id)
);
`

// Open opens a SQLite database using the modernc.org/sqlite driver.
//
// For file-based databases, pass a path like "./memory.sqlite". For
// in-memory databases, pass ":memory:".
func Open(dsn string) (*sql.DB, error) { return sql.Open("sqlite", dsn) }

// EnsureSchema creates the snapshot tables if they do not already exist.
func EnsureSchema(db *sql.DB) error {
	_, err := db.Exec(schema)
	return err
}

// Save writes every live record of mem plus its structural configuration
// as a new snapshot in a single transaction, and returns the generated
// snapshot id.
func Save[T any](ctx context.Context, db *sql.DB, mem *memory.Memory[T], codec Codec[T]) (string, error) {
	if err := EnsureSchema(db); err != nil {
		return "", err
	}
	cfg := mem.Config()
	recs := mem.Records()
	snapshotID := uuid.NewString()

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return "", err
	}
	defer func() { _ = tx.Rollback() }()

	_, err = tx.ExecContext(ctx,
		`INSERT INTO snapshots(id, created_at, universe, k_min, k_max, capacity) VALUES(?, ?, ?, ?, ?, ?)`,
		snapshotID, time.Now().UnixNano(), cfg.Universe, cfg.KMin, cfg.KMax, cfg.Capacity)
	if err != nil {
		return "", err
	}

	stmt, err := tx.PrepareContext(ctx,
		`INSERT INTO records(snapshot_id, id, pattern, payload, created_at, last_accessed, access_count) VALUES(?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return "", err
	}
	defer stmt.Close()

	for _, rec := range recs {
		payload, err := codec.Marshal(rec.Payload)
		if err != nil {
			return "", fmt.Errorf("snapshot: marshal payload of record %d: %w", rec.ID, err)
		}
		_, err = stmt.ExecContext(ctx,
			snapshotID, rec.ID, rec.Pattern.Encode(), payload,
			rec.CreatedAt.UnixNano(), rec.LastAccessed.UnixNano(), rec.AccessCount)
		if err != nil {
			return "", err
		}
	}

	if err := tx.Commit(); err != nil {
		return "", err
	}
	return snapshotID, nil
}

// Load reconstitutes a Memory from the given snapshot. Structural fields
// of base (Universe, KMin, KMax, Capacity) are taken from the snapshot
// row; behavioral fields (Logger, Clock, Metrics, DuplicatePolicy) are
// taken from base. The inverted index is rebuilt from the records and
// verified before the Memory is returned.
func Load[T any](ctx context.Context, db *sql.DB, snapshotID string, base memory.Config, codec Codec[T]) (*memory.Memory[T], error) {
	row := db.QueryRowContext(ctx,
		`SELECT universe, k_min, k_max, capacity FROM snapshots WHERE id = ?`, snapshotID)
	if err := row.Scan(&base.Universe, &base.KMin, &base.KMax, &base.Capacity); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("snapshot: unknown snapshot id %q", snapshotID)
		}
		return nil, err
	}

	mem, err := memory.New[T](base)
	if err != nil {
		return nil, err
	}

	rows, err := db.QueryContext(ctx,
		`SELECT id, pattern, payload, created_at, last_accessed, access_count FROM records WHERE snapshot_id = ? ORDER BY id`, snapshotID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var recs []memory.Record[T]
	for rows.Next() {
		var (
			rec                   memory.Record[T]
			blob, payload         []byte
			createdAt, lastAccess int64
		)
		if err := rows.Scan(&rec.ID, &blob, &payload, &createdAt, &lastAccess, &rec.AccessCount); err != nil {
			return nil, err
		}
		rec.Pattern, err = pattern.Decode(blob, base.Universe)
		if err != nil {
			return nil, fmt.Errorf("snapshot: record %d: %w", rec.ID, err)
		}
		rec.Payload, err = codec.Unmarshal(payload)
		if err != nil {
			return nil, fmt.Errorf("snapshot: unmarshal payload of record %d: %w", rec.ID, err)
		}
		rec.CreatedAt = time.Unix(0, createdAt)
		rec.LastAccessed = time.Unix(0, lastAccess)
		recs = append(recs, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	if err := mem.Restore(recs); err != nil {
		return nil, err
	}
	if err := mem.CheckConsistency(); err != nil {
		return nil, err
	}
	return mem, nil
}

// Latest returns the id of the most recently written snapshot.
func Latest(ctx context.Context, db *sql.DB) (string, error) {
	row := db.QueryRowContext(ctx,
		`SELECT id FROM snapshots ORDER BY created_at DESC, id DESC LIMIT 1`)
	var id string
	if err := row.Scan(&id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return "", ErrNoSnapshot
		}
		return "", err
	}
	return id, nil
}
