package store

import (
	"fmt"

	"github.com/lucat1/consulns/internal/domain"
	"github.com/lucat1/consulns/internal/kv"
)

// Stage is a zone's ordered set of pending additions/deletions (spec
// §4.2). It is lazily loaded from, and every mutation eagerly persisted
// to, the zone's staging document.
type Stage struct {
	zone *Zone
	doc  *domain.StageDoc
}

func newStage(z *Zone) *Stage {
	return &Stage{zone: z}
}

func (s *Stage) load() (*domain.StageDoc, error) {
	if s.doc != nil {
		return s.doc, nil
	}
	_, doc, err := kv.Get[domain.StageDoc](s.zone.store.kv, kv.PathStage(s.zone.name.String()))
	if err != nil {
		return nil, err
	}
	if doc == nil {
		doc = &domain.StageDoc{Changes: map[string]domain.Change{}}
	}
	if doc.Changes == nil {
		doc.Changes = map[string]domain.Change{}
	}
	s.doc = doc
	return s.doc, nil
}

func (s *Stage) persist() error {
	return kv.Put(s.zone.store.kv, kv.PathStage(s.zone.name.String()), *s.doc)
}

// Changes returns the pending changes in insertion order.
func (s *Stage) Changes() ([]domain.Change, error) {
	doc, err := s.load()
	if err != nil {
		return nil, err
	}
	changes := make([]domain.Change, 0, len(doc.Order))
	for _, key := range doc.Order {
		if c, ok := doc.Changes[key]; ok {
			changes = append(changes, c)
		}
	}
	return changes, nil
}

// insert adds or overwrites change under its content/id key, appending to
// the order list only the first time the key is seen (an overwrite keeps
// its original position, matching "idempotent add").
func (s *Stage) insert(c domain.Change) error {
	doc, err := s.load()
	if err != nil {
		return err
	}
	key := c.Key()
	if _, exists := doc.Changes[key]; !exists {
		doc.Order = append(doc.Order, key)
	}
	doc.Changes[key] = c
	return s.persist()
}

// AddRecord stages an Add{record}. A change with the same content key is
// overwritten in place (idempotent add).
func (s *Stage) AddRecord(r domain.Record) error {
	return s.insert(domain.NewAddChange(r))
}

// DelRecord stages a Del{record.ID}.
func (s *Stage) DelRecord(r domain.Record) error {
	return s.insert(domain.NewDelChange(r.ID))
}

// Revert removes the i-th change by insertion order.
func (s *Stage) Revert(i int) error {
	doc, err := s.load()
	if err != nil {
		return err
	}
	if i < 0 || i >= len(doc.Order) {
		return fmt.Errorf("%w: index %d", domain.ErrMissingChange, i)
	}
	key := doc.Order[i]
	delete(doc.Changes, key)
	doc.Order = append(doc.Order[:i], doc.Order[i+1:]...)
	return s.persist()
}

// Clear drops all changes and persists the now-empty stage.
func (s *Stage) Clear() error {
	doc, err := s.load()
	if err != nil {
		return err
	}
	doc.Changes = map[string]domain.Change{}
	doc.Order = nil
	return s.persist()
}
