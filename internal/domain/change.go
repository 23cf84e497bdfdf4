package domain

import (
	"encoding/base64"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
)

// ChangeKind discriminates the two staged-edit variants on the wire.
type ChangeKind string

const (
	ChangeAdd ChangeKind = "add"
	ChangeDel ChangeKind = "del"
)

// Change is a pending edit in a zone's stage: either Add{Record} or
// Del{ID}. It is modelled as a tagged sum type with an explicit
// discriminator, not as a Go interface hierarchy, so it serialises to a
// single flat JSON document.
type Change struct {
	Kind   ChangeKind `json:"change_type"`
	Record Record     `json:"record,omitempty"`
	DelID  uuid.UUID  `json:"id,omitempty"`
}

// NewAddChange stages the addition of a fully-formed record.
func NewAddChange(r Record) Change {
	return Change{Kind: ChangeAdd, Record: r}
}

// NewDelChange stages the deletion of the record with the given id.
func NewDelChange(id uuid.UUID) Change {
	return Change{Kind: ChangeDel, DelID: id}
}

// Key is the stable string identity of a staged change: "add." plus the
// record's content key for additions (so two adds of identical content
// collapse to one entry), "del." plus a base64'd id for deletions.
func (c Change) Key() string {
	switch c.Kind {
	case ChangeAdd:
		return "add." + c.Record.ContentKey()
	case ChangeDel:
		return "del." + base64.StdEncoding.EncodeToString([]byte(c.DelID.String()))
	default:
		return ""
	}
}

// MarshalJSON keeps the on-wire shape flat: {"change_type":"add","record":{...}}
// or {"change_type":"del","id":"..."}, matching the discriminated-union
// contract from the data model rather than embedding both variants always.
func (c Change) MarshalJSON() ([]byte, error) {
	switch c.Kind {
	case ChangeAdd:
		return json.Marshal(struct {
			ChangeType ChangeKind `json:"change_type"`
			Record     Record     `json:"record"`
		}{ChangeType: ChangeAdd, Record: c.Record})
	case ChangeDel:
		return json.Marshal(struct {
			ChangeType ChangeKind `json:"change_type"`
			ID         uuid.UUID  `json:"id"`
		}{ChangeType: ChangeDel, ID: c.DelID})
	default:
		return nil, fmt.Errorf("domain: change has unknown kind %q", c.Kind)
	}
}

// UnmarshalJSON restores a Change from its flat discriminated form.
func (c *Change) UnmarshalJSON(data []byte) error {
	var peek struct {
		ChangeType ChangeKind `json:"change_type"`
	}
	if err := json.Unmarshal(data, &peek); err != nil {
		return err
	}
	switch peek.ChangeType {
	case ChangeAdd:
		var v struct {
			Record Record `json:"record"`
		}
		if err := json.Unmarshal(data, &v); err != nil {
			return err
		}
		c.Kind = ChangeAdd
		c.Record = v.Record
		c.DelID = uuid.Nil
	case ChangeDel:
		var v struct {
			ID uuid.UUID `json:"id"`
		}
		if err := json.Unmarshal(data, &v); err != nil {
			return err
		}
		c.Kind = ChangeDel
		c.DelID = v.ID
		c.Record = Record{}
	default:
		return fmt.Errorf("domain: unknown change_type %q", peek.ChangeType)
	}
	return nil
}
