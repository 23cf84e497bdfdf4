package domain

import (
	"encoding/base64"
	"fmt"

	"github.com/google/uuid"
)

// RecordType is the closed set of resource record types this system
// understands. CONSUL is a reserved extension point: it is stored and
// round-tripped but never surfaced through the lookup path.
type RecordType string

const (
	TypeA      RecordType = "A"
	TypeAAAA   RecordType = "AAAA"
	TypeCNAME  RecordType = "CNAME"
	TypeMX     RecordType = "MX"
	TypeNS     RecordType = "NS"
	TypeConsul RecordType = "CONSUL"
)

// ValidRecordType reports whether t is one of the closed set of record
// types this system persists.
func ValidRecordType(t RecordType) bool {
	switch t {
	case TypeA, TypeAAAA, TypeCNAME, TypeMX, TypeNS, TypeConsul:
		return true
	default:
		return false
	}
}

// Record is a single resource record staged or committed under a zone.
// Owner is relative to the zone root: "@" denotes the apex, a leading "*"
// label denotes a wildcard.
type Record struct {
	ID    uuid.UUID  `json:"id"`
	Owner string     `json:"record"`
	Type  RecordType `json:"record_type"`
	Value string     `json:"value"`
	TTL   uint32     `json:"ttl"`
}

// NewRecord builds a Record with a freshly generated v4 UUID. Implementers
// must call this (or otherwise generate per-instance) rather than reuse a
// package-level default: a shared literal id would alias distinct records.
func NewRecord(owner string, typ RecordType, value string, ttl uint32) Record {
	return Record{
		ID:    uuid.New(),
		Owner: owner,
		Type:  typ,
		Value: value,
		TTL:   ttl,
	}
}

// ContentKey is the stable identity of a record's content: two records
// with equal (owner, type, value) always produce equal content keys, which
// is how the stage layer collapses duplicate adds.
func (r Record) ContentKey() string {
	owner := base64.StdEncoding.EncodeToString([]byte(r.Owner))
	rest := base64.StdEncoding.EncodeToString([]byte(fmt.Sprintf("%s.%s", r.Type, r.Value)))
	return owner + "." + rest
}

// PrettyString renders a record the way the administrative CLI lists it.
func (r Record) PrettyString() string {
	return fmt.Sprintf("%s IN %s %d %s", r.Owner, r.Type, r.TTL, r.Value)
}
