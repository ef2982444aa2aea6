package index

import (
	"sort"

	"github.com/viant/sparsemem/pattern"
)

// Inverted maps each unit to the ordered posting list of record ids whose
// pattern contains that unit. Posting lists hold ids only; record data and
// lifetimes belong to the caller. Inverted is not safe for concurrent use.
type Inverted struct {
	postings map[uint32][]uint64
}

// NewInverted returns an empty inverted index.
func NewInverted() *Inverted {
	return &Inverted{postings: make(map[uint32][]uint64)}
}

// Add appends id to the posting list of every unit in p. Adding the same
// (id, pattern) twice is a no-op: posting lists never hold duplicates.
func (x *Inverted) Add(id uint64, p pattern.Pattern) {
	for _, unit := range p.Units() {
		list := x.postings[unit]
		pos := sort.Search(len(list), func(i int) bool { return list[i] >= id })
		if pos < len(list) && list[pos] == id {
			continue
		}
		list = append(list, 0)
		copy(list[pos+1:], list[pos:])
		list[pos] = id
		x.postings[unit] = list
	}
}

// Remove deletes id from the posting list of every unit in p. Units where
// id is already absent are skipped silently so deletions can be retried.
// Emptied posting lists are dropped from the map.
func (x *Inverted) Remove(id uint64, p pattern.Pattern) {
	for _, unit := range p.Units() {
		list := x.postings[unit]
		pos := sort.Search(len(list), func(i int) bool { return list[i] >= id })
		if pos >= len(list) || list[pos] != id {
			continue
		}
		list = append(list[:pos], list[pos+1:]...)
		if len(list) == 0 {
			delete(x.postings, unit)
		} else {
			x.postings[unit] = list
		}
	}
}

// Candidates accumulates, for every record id reachable from the query's
// active units, the number of units it shares with the query. Cost is the
// sum of the touched posting-list lengths.
func (x *Inverted) Candidates(query pattern.Pattern) map[uint64]int {
	overlap := make(map[uint64]int)
	for _, unit := range query.Units() {
		for _, id := range x.postings[unit] {
			overlap[id]++
		}
	}
	return overlap
}

// Postings returns a copy of the posting list for unit, nil when empty.
func (x *Inverted) Postings(unit uint32) []uint64 {
	list := x.postings[unit]
	if len(list) == 0 {
		return nil
	}
	return append([]uint64(nil), list...)
}

// Units returns the number of units with a non-empty posting list.
func (x *Inverted) Units() int {
	return len(x.postings)
}

// Size returns the total number of (unit, id) posting entries.
func (x *Inverted) Size() int {
	var n int
	for _, list := range x.postings {
		n += len(list)
	}
	return n
}

// Reset drops all posting lists.
func (x *Inverted) Reset() {
	x.postings = make(map[uint32][]uint64)
}
