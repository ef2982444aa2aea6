// Package index implements the inverted unit-to-ids structure backing
// retrieval: each active unit maps to an ordered posting list of record
// ids. The structure is pure data, with no locking, no eviction policy,
// and no record ownership, so candidate lookup cost scales with the
// query's active units rather than the universe size or the number of
// stored records.
package index
