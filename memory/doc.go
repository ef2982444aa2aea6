// Package memory implements the associative store at the heart of this
// module: pattern records, capacity-bounded insertion with LRU eviction,
// and similarity-ranked retrieval over the inverted index. A Memory is an
// explicit instance owned by the caller; there is no process-wide
// singleton.
//
// Usage:
//
//	mem, _ := memory.New[string](memory.Config{
//		Universe: 1000, KMin: 20, KMax: 20, Capacity: 10_000,
//	})
//	p, _ := pattern.New(units, 1000, 20, 20)
//	id, _ := mem.Insert(p, "payload")
//	matches, _ := mem.Query(p, 5)
//	_ = id
//	_ = matches
package memory
