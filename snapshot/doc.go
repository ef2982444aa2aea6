// Package snapshot persists the full set of live pattern records to
// SQLite and reconstitutes a Memory from them. Only records are written;
// the inverted index is always rebuilt from records on load, which keeps
// the on-disk format simple and removes any index/store consistency
// hazard across restarts.
package snapshot
