// Package store implements the versioned zone store (spec §4.2–§4.4): the
// stage-then-commit editing discipline over Zone's five Consul-backed
// sub-documents, and the Store façade that enumerates and creates zones.
package store

import (
	"fmt"
	"sort"

	"github.com/lucat1/consulns/internal/domain"
	"github.com/lucat1/consulns/internal/kv"
)

// Store is the façade over the zones index and current-zone pointer
// (spec §4.4). It owns the Zone handles it hands out.
type Store struct {
	kv *kv.Store
}

// New wraps a Consul KV adapter as a zone Store.
func New(kvStore *kv.Store) *Store {
	return &Store{kv: kvStore}
}

func (s *Store) loadZoneNames() (domain.ZoneNames, error) {
	_, names, err := kv.Get[domain.ZoneNames](s.kv, kv.PathZones())
	if err != nil {
		return domain.ZoneNames{}, err
	}
	if names == nil {
		return domain.ZoneNames{}, nil
	}
	return *names, nil
}

// Zones returns every zone named in the zones index, in sorted order for
// determinism (the index itself is an unordered set).
func (s *Store) Zones() ([]*Zone, error) {
	names, err := s.loadZoneNames()
	if err != nil {
		return nil, err
	}
	sorted := append([]string(nil), names.Zones...)
	sort.Strings(sorted)
	zones := make([]*Zone, 0, len(sorted))
	for _, n := range sorted {
		zones = append(zones, newZone(s, domain.NewName(n)))
	}
	return zones, nil
}

// AddZone adds a new zone to the index, writing the index before the
// info document (spec §3): a crash between the two leaves the zone
// indexed with no info, and a subsequent Zone() read materialises info
// defaults, preserving the invariant. Fails with ErrZoneAlreadyExists if
// the name is already indexed.
func (s *Store) AddZone(name domain.Name) (*Zone, error) {
	names, err := s.loadZoneNames()
	if err != nil {
		return nil, err
	}
	for _, n := range names.Zones {
		if domain.NewName(n).Equal(name) {
			return nil, fmt.Errorf("%w: %s", domain.ErrZoneAlreadyExists, name)
		}
	}
	names.Zones = append(names.Zones, name.String())
	if err := kv.Put(s.kv, kv.PathZones(), names); err != nil {
		return nil, err
	}

	z := newZone(s, name)
	info := domain.DefaultZoneInfo()
	z.info = &info
	if err := z.persistInfo(); err != nil {
		return nil, err
	}
	return z, nil
}

// Zone returns a handle for an existing, indexed zone. Fails with
// ErrMissingZone when the name is not in the index.
func (s *Store) Zone(name domain.Name) (*Zone, error) {
	names, err := s.loadZoneNames()
	if err != nil {
		return nil, err
	}
	for _, n := range names.Zones {
		if domain.NewName(n).Equal(name) {
			return newZone(s, domain.NewName(n)), nil
		}
	}
	return nil, fmt.Errorf("%w: %s", domain.ErrMissingZone, name)
}

// CurrentZone returns the zone named by the current-zone pointer, used by
// the administrative CLI's implicit zone context. A dangling pointer (one
// naming a zone no longer in the index) is tolerated as absent, per spec
// §3.
func (s *Store) CurrentZone() (*Zone, error) {
	_, cur, err := kv.Get[domain.CurrentZone](s.kv, kv.PathCurrentZone())
	if err != nil {
		return nil, err
	}
	if cur == nil || cur.Zone == "" {
		return nil, nil
	}
	z, err := s.Zone(domain.NewName(cur.Zone))
	if err != nil {
		return nil, nil // dangling pointer tolerated as absent
	}
	return z, nil
}

// UseZone sets the current-zone pointer to z.
func (s *Store) UseZone(z *Zone) error {
	return kv.Put(s.kv, kv.PathCurrentZone(), domain.CurrentZone{Zone: z.Name().String()})
}
