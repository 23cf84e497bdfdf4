// Package cache builds and queries the in-memory authoritative snapshot
// used to answer the backend protocol's read operations (spec §4.5). It
// never touches the KV store in its hot path: the whole point of the
// cache is that lookups are pure in-memory operations over a point-in-time
// snapshot built from internal/store.
package cache

import (
	"sort"
	"strconv"
	"strings"

	"github.com/lucat1/consulns/internal/domain"
	"github.com/lucat1/consulns/internal/store"
)

type ownedRecord struct {
	owner domain.Name
	rel   string // owner label(s) relative to the zone root, "@" at the apex
	rec   domain.Record
}

// CachedZone is the derived, read-only projection of one store.Zone: an
// ordered list of (owner, Record) pairs plus an owner->records index
// (spec §3 "CachedZone").
type CachedZone struct {
	zone   domain.Name
	info   domain.ZoneInfo
	all    []ownedRecord
	byName map[string][]domain.Record // absolute owner text (lowercased) -> records
}

// BuildCachedZone snapshots zone's committed records into a CachedZone.
// CONSUL-typed records are excluded from the index: spec §9 treats CONSUL
// as a reserved extension point never surfaced through lookup or listing.
// Records are sorted by (owner, content key) before indexing — this yields
// an order that is arbitrary but, per spec §4.5, stable for the lifetime
// of one snapshot.
func BuildCachedZone(z *store.Zone) (*CachedZone, error) {
	info, err := z.Info()
	if err != nil {
		return nil, err
	}
	records, err := z.Records()
	if err != nil {
		return nil, err
	}
	sort.Slice(records, func(i, j int) bool {
		if records[i].Owner != records[j].Owner {
			return records[i].Owner < records[j].Owner
		}
		return records[i].ContentKey() < records[j].ContentKey()
	})

	cz := &CachedZone{
		zone:   z.Name(),
		info:   info,
		byName: map[string][]domain.Record{},
	}
	for _, r := range records {
		if r.Type == domain.TypeConsul {
			continue
		}
		owner := domain.Concat(r.Owner, z.Name())
		cz.all = append(cz.all, ownedRecord{owner: owner, rel: r.Owner, rec: r})
		key := strings.ToLower(owner.String())
		cz.byName[key] = append(cz.byName[key], r)
	}
	return cz, nil
}

// Zone returns the zone name this snapshot was built from.
func (cz *CachedZone) Zone() domain.Name { return cz.zone }

// Info returns the zone's info sub-document as it stood at snapshot time.
func (cz *CachedZone) Info() domain.ZoneInfo { return cz.info }

// SOA synthesises the zone's Start-of-Authority answer (spec §4.5 step 2).
func (cz *CachedZone) SOA() domain.RecordInfo {
	name := cz.zone.Text()
	return domain.RecordInfo{
		QName:   name,
		QType:   domain.QTypeSOA,
		Content: soaContent(name, cz.info.Serial),
		TTL:     300,
		Auth:    true,
	}
}

func soaContent(zoneName string, serial uint32) string {
	return "ns1." + zoneName + " root." + zoneName + " " + strconv.FormatUint(uint64(serial), 10) + " 7200 3600 1209600 3600"
}

func isWildcardQName(qname domain.Name) bool {
	labels := qname.Labels()
	return len(labels) > 0 && labels[0] == "*"
}

// bucket returns the working set of records for qname: every owned record
// when qname itself is queried with a literal leading "*" label (spec
// §4.5 step 1's literal wildcard-query case), the exact owner bucket when
// one exists, or — falling back to ordinary DNS wildcard resolution — the
// bucket of a same-depth "*" owner under the same parent when no exact
// bucket exists.
func (cz *CachedZone) bucket(qname domain.Name) []domain.Record {
	if isWildcardQName(qname) {
		all := make([]domain.Record, 0, len(cz.all))
		for _, e := range cz.all {
			all = append(all, e.rec)
		}
		return all
	}
	key := strings.ToLower(qname.String())
	if recs, ok := cz.byName[key]; ok {
		return recs
	}
	if wc, ok := cz.wildcardFallback(qname); ok {
		return wc
	}
	return nil
}

// wildcardFallback finds a "*" owner at qname's parent, i.e. an owner
// whose absolute name is "*.<qname's immediate parent>", and returns its
// records. This is the classical DNS wildcard-owner match used to satisfy
// e.g. a record at "*.example.com" answering a lookup for
// "anything.example.com".
func (cz *CachedZone) wildcardFallback(qname domain.Name) ([]domain.Record, bool) {
	labels := qname.Labels()
	if len(labels) == 0 {
		return nil, false
	}
	wcName := domain.NewName(strings.Join(append([]string{"*"}, labels[1:]...), "."))
	key := strings.ToLower(wcName.String())
	recs, ok := cz.byName[key]
	return recs, ok
}

// Lookup answers a single (qtype, qname) query per spec §4.5.
func (cz *CachedZone) Lookup(qtype domain.QType, qname domain.Name) []domain.RecordInfo {
	var out []domain.RecordInfo
	if qname.Equal(cz.zone) && (qtype == domain.QTypeANY || qtype == domain.QTypeSOA) {
		out = append(out, cz.SOA())
	}
	if qtype == domain.QTypeSOA {
		return out
	}
	for _, r := range cz.bucket(qname) {
		if !acceptQType(qtype, r.Type) {
			continue
		}
		out = append(out, domain.RecordInfo{
			QName:   qname.Text(),
			QType:   qtype,
			Content: r.Value,
			TTL:     r.TTL,
			Auth:    true,
		})
	}
	return out
}

func acceptQType(qtype domain.QType, rtype domain.RecordType) bool {
	if qtype == domain.QTypeANY {
		return rtype != domain.TypeConsul
	}
	want, ok := domain.RecordTypeForQType(qtype)
	return ok && rtype == want
}

// All lists the SOA followed by every owned record, answering the
// backend protocol's "list" method.
func (cz *CachedZone) All() []domain.RecordInfo {
	out := make([]domain.RecordInfo, 0, len(cz.all)+1)
	out = append(out, cz.SOA())
	for _, e := range cz.all {
		qtype, ok := qtypeForRecordType(e.rec.Type)
		if !ok {
			continue
		}
		out = append(out, domain.RecordInfo{
			QName:   e.owner.Text(),
			QType:   qtype,
			Content: e.rec.Value,
			TTL:     e.rec.TTL,
			Auth:    true,
		})
	}
	return out
}

func qtypeForRecordType(rt domain.RecordType) (domain.QType, bool) {
	switch rt {
	case domain.TypeA:
		return domain.QTypeA, true
	case domain.TypeAAAA:
		return domain.QTypeAAAA, true
	case domain.TypeCNAME:
		return domain.QTypeCNAME, true
	case domain.TypeMX:
		return domain.QTypeMX, true
	case domain.TypeNS:
		return domain.QTypeNS, true
	default:
		return "", false
	}
}

// BeforeAndAfter implements getBeforeAndAfterNamesAbsolute's NSEC walk
// (spec §4.5): the zone's owned names, relative to the zone root, form a
// cyclic sequence in snapshot iteration order. qname (itself relative) is
// located in that sequence; the predecessor and successor are returned as
// relative names. An empty predecessor is represented as "".
func (cz *CachedZone) BeforeAndAfter(qname string) (before, after string) {
	if len(cz.all) == 0 {
		return "", ""
	}
	n := len(cz.all)
	idx := -1
	for i, e := range cz.all {
		if strings.EqualFold(e.rel, qname) {
			idx = i
			break
		}
	}
	if idx == -1 {
		// qname not present: answer with the cycle's wrap-around pair (the
		// last and the first names); no insertion point is searched for.
		return cz.all[n-1].rel, cz.all[0].rel
	}
	before = cz.all[(idx-1+n)%n].rel
	after = cz.all[(idx+1)%n].rel
	return before, after
}
