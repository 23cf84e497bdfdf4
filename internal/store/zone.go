package store

import (
	"fmt"
	"sort"

	"github.com/google/uuid"

	"github.com/lucat1/consulns/internal/domain"
	"github.com/lucat1/consulns/internal/kv"
)

// Zone is a lazy-loaded view of one zone's five sub-documents (spec
// §4.3); every mutator rewrites the affected sub-document in full at once. It carries a non-owning back-reference to its
// Store, used only for KV I/O — Store owns Zones, not the other way
// round. Two Zone handles on the same name hold independent caches and
// must not be mutated concurrently (spec §4.3 concurrency discipline).
type Zone struct {
	store *Store
	name  domain.Name

	info    *domain.ZoneInfo
	records *domain.RecordsDoc
	stage   *Stage
	meta    *domain.MetadataDoc
	keys    *domain.KeysDoc
}

func newZone(s *Store, name domain.Name) *Zone {
	return &Zone{store: s, name: name}
}

// Name returns the zone's fully-qualified name.
func (z *Zone) Name() domain.Name { return z.name }

func (z *Zone) loadInfo() (*domain.ZoneInfo, error) {
	if z.info != nil {
		return z.info, nil
	}
	_, info, err := kv.Get[domain.ZoneInfo](z.store.kv, kv.PathInfo(z.name.String()))
	if err != nil {
		return nil, err
	}
	if info == nil {
		d := domain.DefaultZoneInfo()
		info = &d
	}
	z.info = info
	return z.info, nil
}

func (z *Zone) persistInfo() error {
	return kv.Put(z.store.kv, kv.PathInfo(z.name.String()), *z.info)
}

// Info returns the zone's info sub-document (serial, notified_serial,
// enabled, last_check).
func (z *Zone) Info() (domain.ZoneInfo, error) {
	info, err := z.loadInfo()
	if err != nil {
		return domain.ZoneInfo{}, err
	}
	return *info, nil
}

// Serial returns the current SOA serial.
func (z *Zone) Serial() (uint32, error) {
	info, err := z.loadInfo()
	if err != nil {
		return 0, err
	}
	return info.Serial, nil
}

// SetSerial sets the serial and persists the info document. Monotonicity
// is the caller's responsibility (spec §3): the store never decreases a
// serial on its own.
func (z *Zone) SetSerial(serial uint32) error {
	info, err := z.loadInfo()
	if err != nil {
		return err
	}
	info.Serial = serial
	return z.persistInfo()
}

func (z *Zone) loadRecords() (*domain.RecordsDoc, error) {
	if z.records != nil {
		return z.records, nil
	}
	_, doc, err := kv.Get[domain.RecordsDoc](z.store.kv, kv.PathRecords(z.name.String()))
	if err != nil {
		return nil, err
	}
	if doc == nil {
		doc = &domain.RecordsDoc{Records: map[string]domain.Record{}}
	}
	if doc.Records == nil {
		doc.Records = map[string]domain.Record{}
	}
	z.records = doc
	return z.records, nil
}

func (z *Zone) persistRecords() error {
	return kv.Put(z.store.kv, kv.PathRecords(z.name.String()), *z.records)
}

// Records returns the zone's current record set. Order is unspecified but
// stable within one loaded snapshot.
func (z *Zone) Records() ([]domain.Record, error) {
	doc, err := z.loadRecords()
	if err != nil {
		return nil, err
	}
	out := make([]domain.Record, 0, len(doc.Records))
	for id, r := range doc.Records {
		if r.ID.String() != id {
			return nil, fmt.Errorf("consulns: zone %s: record key %s does not match stored id %s", z.name, id, r.ID)
		}
		out = append(out, r)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID.String() < out[j].ID.String() })
	return out, nil
}

// Record looks up a single record by id; returns (zero, false) if absent.
func (z *Zone) Record(id uuid.UUID) (domain.Record, bool, error) {
	doc, err := z.loadRecords()
	if err != nil {
		return domain.Record{}, false, err
	}
	r, ok := doc.Records[id.String()]
	return r, ok, nil
}

// Stage returns the zone's pending-change set, constructing it on first
// use.
func (z *Zone) Stage() *Stage {
	if z.stage == nil {
		z.stage = newStage(z)
	}
	return z.stage
}

// Commit applies every staged change to the in-memory records map (Add
// inserts/overwrites by id, Del removes by id), persists the records
// document, and only on success clears and persists the stage. If the
// records write fails, the stage is left untouched and the commit is
// replayable (spec §7 crash-recovery contract): because Add overwrites by
// id and Del removes by id, re-applying the same staged changes is
// idempotent.
func (z *Zone) Commit() error {
	changes, err := z.Stage().Changes()
	if err != nil {
		return err
	}
	doc, err := z.loadRecords()
	if err != nil {
		return err
	}
	for _, c := range changes {
		switch c.Kind {
		case domain.ChangeAdd:
			doc.Records[c.Record.ID.String()] = c.Record
		case domain.ChangeDel:
			if _, ok := doc.Records[c.DelID.String()]; !ok {
				return fmt.Errorf("%w: %s", domain.ErrMissingRecord, c.DelID)
			}
			delete(doc.Records, c.DelID.String())
		}
	}
	if err := z.persistRecords(); err != nil {
		return err
	}
	return z.Stage().Clear()
}

func (z *Zone) loadMeta() (*domain.MetadataDoc, error) {
	if z.meta != nil {
		return z.meta, nil
	}
	_, doc, err := kv.Get[domain.MetadataDoc](z.store.kv, kv.PathMetadata(z.name.String()))
	if err != nil {
		return nil, err
	}
	if doc == nil {
		doc = &domain.MetadataDoc{Metadata: map[string][]string{}}
	}
	if doc.Metadata == nil {
		doc.Metadata = map[string][]string{}
	}
	z.meta = doc
	return z.meta, nil
}

func (z *Zone) persistMeta() error {
	return kv.Put(z.store.kv, kv.PathMetadata(z.name.String()), *z.meta)
}

// Metadata returns the whole kind->values mapping.
func (z *Zone) Metadata() (map[string][]string, error) {
	doc, err := z.loadMeta()
	if err != nil {
		return nil, err
	}
	return doc.Metadata, nil
}

// MetadataKind returns the ordered values stored under kind, or an empty
// slice when unset.
func (z *Zone) MetadataKind(kindName string) ([]string, error) {
	doc, err := z.loadMeta()
	if err != nil {
		return nil, err
	}
	return doc.Metadata[kindName], nil
}

// SetMetadata replaces the value list stored under kind.
func (z *Zone) SetMetadata(kindName string, values []string) error {
	doc, err := z.loadMeta()
	if err != nil {
		return err
	}
	doc.Metadata[kindName] = values
	return z.persistMeta()
}

func (z *Zone) loadKeys() (*domain.KeysDoc, error) {
	if z.keys != nil {
		return z.keys, nil
	}
	_, doc, err := kv.Get[domain.KeysDoc](z.store.kv, kv.PathKeys(z.name.String()))
	if err != nil {
		return nil, err
	}
	if doc == nil {
		doc = &domain.KeysDoc{}
	}
	z.keys = doc
	return z.keys, nil
}

func (z *Zone) persistKeys() error {
	return kv.Put(z.store.kv, kv.PathKeys(z.name.String()), *z.keys)
}

// Keys returns the zone's DNSSEC keys in their persisted order.
func (z *Zone) Keys() ([]domain.Key, error) {
	doc, err := z.loadKeys()
	if err != nil {
		return nil, err
	}
	return doc.Keys, nil
}

// AddKey appends a new key, whole-document rewrite.
func (z *Zone) AddKey(k domain.Key) error {
	doc, err := z.loadKeys()
	if err != nil {
		return err
	}
	doc.Keys = append(doc.Keys, k)
	return z.persistKeys()
}

// RemoveKey deletes the key with the given id, whole-document rewrite.
// Reports false when no such key exists.
func (z *Zone) RemoveKey(id int) (bool, error) {
	doc, err := z.loadKeys()
	if err != nil {
		return false, err
	}
	for i, k := range doc.Keys {
		if k.ID == id {
			doc.Keys = append(doc.Keys[:i], doc.Keys[i+1:]...)
			return true, z.persistKeys()
		}
	}
	return false, nil
}

// UpdateKey replaces the key matching k.ID in place, whole-document
// rewrite. Reports false when no such key exists.
func (z *Zone) UpdateKey(k domain.Key) (bool, error) {
	doc, err := z.loadKeys()
	if err != nil {
		return false, err
	}
	for i, existing := range doc.Keys {
		if existing.ID == k.ID {
			doc.Keys[i] = k
			return true, z.persistKeys()
		}
	}
	return false, nil
}
