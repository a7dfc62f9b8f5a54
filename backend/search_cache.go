package main

// searchCache memoises minimax results for a single search. Entries are
// direct-mapped by zobrist key and verified against the full position, so a
// collision only costs a recomputation.
type searchCache struct {
	entries []searchCacheEntry
	mask    uint64
	count   int
}

type searchCacheEntry struct {
	Valid  bool
	Key    uint64
	Board  Board
	ToMove Mark
	Score  int
	Best   Move
}

const defaultSearchCacheSize = 1 << 14

func newSearchCache(size uint64) *searchCache {
	size = nextPowerOfTwo(size)
	if size == 0 {
		size = 1
	}
	return &searchCache{
		entries: make([]searchCacheEntry, size),
		mask:    size - 1,
	}
}

func (c *searchCache) Probe(key uint64, board Board, toMove Mark) (searchCacheEntry, bool) {
	entry := c.entries[key&c.mask]
	if !entry.Valid || entry.Key != key || entry.ToMove != toMove || entry.Board != board {
		return searchCacheEntry{}, false
	}
	return entry, true
}

func (c *searchCache) Store(key uint64, board Board, toMove Mark, score int, best Move) {
	slot := &c.entries[key&c.mask]
	if !slot.Valid {
		c.count++
	}
	*slot = searchCacheEntry{
		Valid:  true,
		Key:    key,
		Board:  board,
		ToMove: toMove,
		Score:  score,
		Best:   best,
	}
}

func (c *searchCache) Count() int {
	return c.count
}

func (c *searchCache) Capacity() int {
	return len(c.entries)
}

func nextPowerOfTwo(v uint64) uint64 {
	if v == 0 {
		return 0
	}
	v--
	v |= v >> 1
	v |= v >> 2
	v |= v >> 4
	v |= v >> 8
	v |= v >> 16
	v |= v >> 32
	return v + 1
}
