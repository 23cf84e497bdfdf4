package cache

import (
	"strings"
	"sync"

	"github.com/lucat1/consulns/internal/domain"
	"github.com/lucat1/consulns/internal/store"
)

type indexedZone struct {
	id int
	cz *CachedZone
}

// Cache is the indexed, immutable-per-snapshot authoritative cache built
// once from the store at startup and rebuildable on demand (spec §4.5,
// §9). Reads never touch the backing store; only Reload does.
type Cache struct {
	mu       sync.RWMutex
	byName   map[string]indexedZone // lowercased absolute zone name -> entry
	byID     map[int]*CachedZone
	ordered  []indexedZone
}

// Build constructs a Cache by snapshotting every zone in st.
func Build(st *store.Store) (*Cache, error) {
	c := &Cache{}
	if err := c.Reload(st); err != nil {
		return nil, err
	}
	return c, nil
}

// Reload rebuilds the snapshot from st. This is the explicit reload
// operation spec §9 invites implementers to add; it replaces the
// snapshot atomically under a write lock so concurrent lookups never
// observe a half-rebuilt cache.
func (c *Cache) Reload(st *store.Store) error {
	zones, err := st.Zones()
	if err != nil {
		return err
	}
	byName := make(map[string]indexedZone, len(zones))
	byID := make(map[int]*CachedZone, len(zones))
	ordered := make([]indexedZone, 0, len(zones))
	for i, z := range zones {
		cz, err := BuildCachedZone(z)
		if err != nil {
			return err
		}
		entry := indexedZone{id: i, cz: cz}
		byName[strings.ToLower(z.Name().String())] = entry
		byID[i] = cz
		ordered = append(ordered, entry)
	}

	c.mu.Lock()
	c.byName = byName
	c.byID = byID
	c.ordered = ordered
	c.mu.Unlock()
	return nil
}

// ZoneByID returns the cached zone with the given id, or (nil, false).
func (c *Cache) ZoneByID(id int) (*CachedZone, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	cz, ok := c.byID[id]
	return cz, ok
}

// ZoneByQName performs the longest-suffix zone match (spec §4.5): among
// zones whose name is a suffix of qname (or equal to it, when exact is
// true), returns the one with the most labels. Returns (-1, nil) when
// none matches.
func (c *Cache) ZoneByQName(qname domain.Name, exact bool) (int, *CachedZone) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	bestID := -1
	var best *CachedZone
	bestLabels := -1
	for _, entry := range c.ordered {
		zoneName := entry.cz.Zone()
		match := qname.Equal(zoneName)
		if !exact {
			match = qname.IsSubdomainOf(zoneName)
		}
		if !match {
			continue
		}
		labels := len(zoneName.Labels())
		if labels > bestLabels {
			bestLabels = labels
			best = entry.cz
			bestID = entry.id
		}
	}
	return bestID, best
}

// ZoneEntry pairs a cached zone with the id it was assigned at load time.
type ZoneEntry struct {
	ID   int
	Zone *CachedZone
}

// Zones lists every cached zone with its assigned id, in a stable order.
func (c *Cache) Zones() []ZoneEntry {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make([]ZoneEntry, 0, len(c.ordered))
	for _, e := range c.ordered {
		out = append(out, ZoneEntry{ID: e.id, Zone: e.cz})
	}
	return out
}
