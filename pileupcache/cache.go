// Package pileupcache memoizes per-position Pileups for a single BAM,
// backed by indexed region scans. Concurrent misses on the same key
// coalesce into one build; eviction is a bounded LRU sized to keep one
// haplotype window resident (roughly 2x the read length worth of entries),
// consolidating the two cache mechanisms original_source carried across
// revisions (DESIGN.md).
package pileupcache

import (
	"sync"

	"github.com/biogo/store/llrb"

	"github.com/PankratzLab/SuperNovo/bamio"
	"github.com/PankratzLab/SuperNovo/genome"
	"github.com/PankratzLab/SuperNovo/pileup"
)

// DefaultCapacity is the default entry bound: 2x the default haplotype
// search distance's window width, enough to keep one full window resident.
const DefaultCapacity = 2 * 300

// Cache memoizes Pileups for one BAM, keyed by GenomePosition.
type Cache struct {
	provider *bamio.Provider
	contig   genome.ContigOrder
	capacity int

	mu       sync.Mutex
	entries  map[genome.GenomePosition]*entry
	lru      *llrb.Tree // ordered by lastUse, for eviction
	lruClock int64
}

type entry struct {
	pos     genome.GenomePosition
	pileup  *pileup.Pileup
	lastUse int64
	ready   chan struct{} // closed once pileup is populated
}

// lruItem orders cache entries by last-use time for llrb eviction.
type lruItem struct {
	use int64
	e   *entry
}

func (a lruItem) Compare(b llrb.Comparable) int {
	ob := b.(lruItem)
	switch {
	case a.use < ob.use:
		return -1
	case a.use > ob.use:
		return 1
	default:
		return 0
	}
}

// New creates a Cache backed by provider. contigOrder is stored but not
// consulted: eviction is by last use only, so a nil order is fine.
func New(provider *bamio.Provider, contigOrder genome.ContigOrder, capacity int) *Cache {
	if capacity <= 0 {
		capacity = DefaultCapacity
	}
	return &Cache{
		provider: provider,
		contig:   contigOrder,
		capacity: capacity,
		entries:  map[genome.GenomePosition]*entry{},
		lru:      &llrb.Tree{},
	}
}

// Get returns the pileup at pos, building it from a single-position BAM
// scan on a cache miss. Concurrent Get calls for the same pos coalesce
// into a single build rather than each racing the BAM file separately.
func (c *Cache) Get(pos genome.GenomePosition) (*pileup.Pileup, error) {
	e, built, err := c.getOrStartBuild(pos)
	if err != nil {
		return nil, err
	}
	if !built {
		<-e.ready
	}
	return e.pileup, nil
}

// getOrStartBuild returns the entry for pos, starting (and itself
// performing) the build if this call is the first to request pos.
func (c *Cache) getOrStartBuild(pos genome.GenomePosition) (e *entry, builtHere bool, err error) {
	c.mu.Lock()
	if existing, ok := c.entries[pos]; ok {
		c.touch(existing)
		c.mu.Unlock()
		return existing, false, nil
	}
	e = &entry{pos: pos, ready: make(chan struct{})}
	c.entries[pos] = e
	c.mu.Unlock()

	p, err := c.build(pos)
	if err != nil {
		c.mu.Lock()
		delete(c.entries, pos)
		c.mu.Unlock()
		close(e.ready)
		return nil, false, err
	}
	e.pileup = p
	c.publish(e)
	close(e.ready)
	return e, true, nil
}

func (c *Cache) build(pos genome.GenomePosition) (*pileup.Pileup, error) {
	it, err := c.provider.Query(pos.Contig, pos.Position-1, pos.Position)
	if err != nil {
		return nil, err
	}
	b := pileup.NewBuilder(pos)
	for it.Scan() {
		b.AddRecord(it.Record())
	}
	if err := it.Close(); err != nil {
		return nil, err
	}
	return b.Build(), nil
}

func (c *Cache) publish(e *entry) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.touchLocked(e)
	c.evictIfNeededLocked()
}

func (c *Cache) touch(e *entry) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.touchLocked(e)
}

func (c *Cache) touchLocked(e *entry) {
	c.lruClock++
	if e.lastUse != 0 {
		c.lru.Delete(lruItem{use: e.lastUse, e: e})
	}
	e.lastUse = c.lruClock
	c.lru.Insert(lruItem{use: e.lastUse, e: e})
}

func (c *Cache) evictIfNeededLocked() {
	for len(c.entries) > c.capacity {
		min := c.lru.Min()
		if min == nil {
			return
		}
		item := min.(lruItem)
		c.lru.DeleteMin()
		delete(c.entries, item.e.pos)
	}
}

// GetRange returns the pileups for every position in the inclusive window
// [start, stop] on one contig, using at most one overlapping-range BAM
// scan: entries already cached are reused, and only the positions missing
// from the cache are built from the scan. Fails if start and stop are on
// different contigs.
func (c *Cache) GetRange(start, stop genome.GenomePosition) (map[genome.GenomePosition]*pileup.Pileup, error) {
	if start.Contig != stop.Contig {
		return nil, errDifferentContigs(start, stop)
	}

	out := map[genome.GenomePosition]*pileup.Pileup{}
	builders := map[genome.GenomePosition]*pileup.Builder{}

	c.mu.Lock()
	for pos := start.Position; pos <= stop.Position; pos++ {
		gp := genome.GenomePosition{Contig: start.Contig, Position: pos}
		if e, ok := c.entries[gp]; ok && e.pileup != nil {
			c.touchLocked(e)
			out[gp] = e.pileup
			continue
		}
		builders[gp] = pileup.NewBuilder(gp)
	}
	c.mu.Unlock()

	if len(builders) == 0 {
		return out, nil
	}

	it, err := c.provider.Query(start.Contig, start.Position-1, stop.Position)
	if err != nil {
		return nil, err
	}
	for it.Scan() {
		rec := it.Record()
		for _, b := range builders {
			b.AddRecord(rec)
		}
	}
	if err := it.Close(); err != nil {
		return nil, err
	}

	c.mu.Lock()
	for gp, b := range builders {
		p := b.Build()
		e := &entry{pos: gp, pileup: p}
		c.entries[gp] = e
		c.touchLocked(e)
		out[gp] = p
	}
	c.evictIfNeededLocked()
	c.mu.Unlock()

	return out, nil
}

func errDifferentContigs(a, b genome.GenomePosition) error {
	return &differentContigsError{a, b}
}

type differentContigsError struct {
	a, b genome.GenomePosition
}

func (e *differentContigsError) Error() string {
	return "pileupcache: GetRange requires a single contig, got " + e.a.Contig + " and " + e.b.Contig
}
