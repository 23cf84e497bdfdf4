// Package backend implements the UNIX socket connection server and request
// dispatcher: the daemon side of the protocol codec (spec §4.7).
package backend

import (
	"errors"
	"log/slog"
	"strings"

	"github.com/lucat1/consulns/internal/cache"
	"github.com/lucat1/consulns/internal/domain"
	"github.com/lucat1/consulns/internal/metrics"
	"github.com/lucat1/consulns/internal/protocol"
	"github.com/lucat1/consulns/internal/store"
)

// Handler dispatches decoded queries against a cache snapshot for reads and
// the backing store for metadata/key mutations. A single Handler is shared
// by every connection; the cache it points at may be swapped out wholesale
// by Reload without handlers needing to know.
type Handler struct {
	Store   *store.Store
	Cache   *cache.Cache
	Metrics *metrics.Metrics
}

// NewHandler builds a Handler over st and c.
func NewHandler(st *store.Store, c *cache.Cache, m *metrics.Metrics) *Handler {
	return &Handler{Store: st, Cache: c, Metrics: m}
}

// Dispatch executes q and returns the reply to write back on the wire. It
// never returns a Go error: protocol-level failures are represented as
// protocol.Fail() per spec §4.7/§7, and unexpected panics are recovered by
// the caller (the per-connection handler loop), not here.
func (h *Handler) Dispatch(log *slog.Logger, q protocol.Query) protocol.Response {
	if h.Metrics != nil {
		h.Metrics.ObserveQuery(string(q.Method))
	}
	switch p := q.Params.(type) {
	case protocol.InitializeParams:
		return h.initialize(log, p)
	case protocol.GetAllDomainsParams:
		return h.getAllDomains(p)
	case protocol.GetDomainInfoParams:
		return h.getDomainInfo(p)
	case protocol.LookupParams:
		return h.lookup(p)
	case protocol.ListParams:
		return h.list(p)
	case protocol.GetAllDomainMetadataParams:
		return h.getAllDomainMetadata(log, p)
	case protocol.GetDomainMetadataParams:
		return h.getDomainMetadata(log, p)
	case protocol.SetDomainMetadataParams:
		return h.setDomainMetadata(log, p)
	case protocol.GetDomainKeysParams:
		return h.getDomainKeys(log, p)
	case protocol.AddDomainKeyParams:
		return h.addDomainKey(log, p)
	case protocol.RemoveDomainKeyParams:
		return h.removeDomainKey(log, p)
	case protocol.GetBeforeAndAfterNamesAbsoluteParams:
		return h.beforeAndAfter(p)
	case protocol.TransactionParams:
		// This store has no multi-key atomicity to offer (spec §9): both
		// halves of the pair are acknowledged unconditionally.
		return protocol.Ok(true)
	default:
		log.Warn("dispatch: unrecognised parameter type", "method", q.Method)
		return protocol.Fail()
	}
}

func (h *Handler) initialize(log *slog.Logger, p protocol.InitializeParams) protocol.Response {
	log.Info("initialize", "path", p.Path)
	return protocol.Ok(true)
}

func (h *Handler) getAllDomains(p protocol.GetAllDomainsParams) protocol.Response {
	entries := h.Cache.Zones()
	out := make([]domain.DomainInfo, 0, len(entries))
	for _, e := range entries {
		info := e.Zone.Info()
		if !p.IncludeDisabled && !info.Enabled {
			continue
		}
		out = append(out, toDomainInfo(e.ID, e.Zone.Zone(), info))
	}
	return protocol.Ok(out)
}

func (h *Handler) getDomainInfo(p protocol.GetDomainInfoParams) protocol.Response {
	name := domain.NewName(p.Name)
	id, cz := h.Cache.ZoneByQName(name, true)
	if cz == nil {
		return protocol.Fail()
	}
	return protocol.Ok(toDomainInfo(id, cz.Zone(), cz.Info()))
}

func toDomainInfo(id int, zone domain.Name, info domain.ZoneInfo) domain.DomainInfo {
	return domain.DomainInfo{
		ID:             id,
		Zone:           zone.Text(),
		Serial:         info.Serial,
		NotifiedSerial: info.NotifiedSerial,
		LastCheck:      info.LastCheck.Unix(),
		Kind:           domain.ZoneKindMaster,
	}
}

func (h *Handler) lookup(p protocol.LookupParams) protocol.Response {
	qname := domain.NewName(p.QName)
	var cz *cache.CachedZone
	if id, ok := p.HasZoneID(); ok {
		cz, ok = h.Cache.ZoneByID(id)
		if !ok {
			return protocol.Ok([]domain.RecordInfo{})
		}
	} else {
		_, cz = h.Cache.ZoneByQName(qname, false)
		if cz == nil {
			return protocol.Ok([]domain.RecordInfo{})
		}
	}
	return protocol.Ok(cz.Lookup(p.QType, qname))
}

func (h *Handler) list(p protocol.ListParams) protocol.Response {
	var cz *cache.CachedZone
	if p.DomainID > 0 {
		var ok bool
		cz, ok = h.Cache.ZoneByID(p.DomainID)
		if !ok {
			return protocol.Fail()
		}
	} else {
		_, cz = h.Cache.ZoneByQName(domain.NewName(p.ZoneName), true)
		if cz == nil {
			return protocol.Fail()
		}
	}
	return protocol.Ok(cz.All())
}

// zoneFromStore resolves name to a store.Zone, logging and — for any
// failure that isn't a plain "no such zone" — observing a KV error. It is
// the single chokepoint every handler below funnels its zone resolution
// through, so a genuine Consul outage is never silently indistinguishable
// from an ordinary not-found.
func (h *Handler) zoneFromStore(log *slog.Logger, name string) (*store.Zone, bool) {
	z, err := h.Store.Zone(domain.NewName(name))
	if err != nil {
		if errors.Is(err, domain.ErrMissingZone) {
			log.Warn("zoneFromStore: no such zone", "zone", name)
		} else {
			log.Error("zoneFromStore: backend failure", "zone", name, "error", err)
			h.Metrics.ObserveKVError()
		}
		return nil, false
	}
	return z, true
}

func (h *Handler) getAllDomainMetadata(log *slog.Logger, p protocol.GetAllDomainMetadataParams) protocol.Response {
	z, ok := h.zoneFromStore(log, p.Name)
	if !ok {
		return protocol.Fail()
	}
	meta, err := z.Metadata()
	if err != nil {
		log.Error("getAllDomainMetadata", "zone", p.Name, "error", err)
		h.Metrics.ObserveKVError()
		return protocol.Fail()
	}
	return protocol.Ok(meta)
}

func (h *Handler) getDomainMetadata(log *slog.Logger, p protocol.GetDomainMetadataParams) protocol.Response {
	z, ok := h.zoneFromStore(log, p.Name)
	if !ok {
		return protocol.Fail()
	}
	values, err := z.MetadataKind(p.Kind)
	if err != nil {
		log.Error("getDomainMetadata", "zone", p.Name, "kind", p.Kind, "error", err)
		h.Metrics.ObserveKVError()
		return protocol.Fail()
	}
	return protocol.Ok(values)
}

func (h *Handler) setDomainMetadata(log *slog.Logger, p protocol.SetDomainMetadataParams) protocol.Response {
	z, ok := h.zoneFromStore(log, p.Name)
	if !ok {
		return protocol.Fail()
	}
	if err := z.SetMetadata(p.Kind, p.Value); err != nil {
		log.Error("setDomainMetadata", "zone", p.Name, "kind", p.Kind, "error", err)
		h.Metrics.ObserveKVError()
		return protocol.Fail()
	}
	return protocol.Ok(true)
}

func (h *Handler) getDomainKeys(log *slog.Logger, p protocol.GetDomainKeysParams) protocol.Response {
	z, ok := h.zoneFromStore(log, p.Name)
	if !ok {
		return protocol.Fail()
	}
	keys, err := z.Keys()
	if err != nil {
		log.Error("getDomainKeys", "zone", p.Name, "error", err)
		h.Metrics.ObserveKVError()
		return protocol.Fail()
	}
	return protocol.Ok(keys)
}

func (h *Handler) addDomainKey(log *slog.Logger, p protocol.AddDomainKeyParams) protocol.Response {
	z, ok := h.zoneFromStore(log, p.Name)
	if !ok {
		return protocol.Fail()
	}
	k := p.Key
	if k.ID <= 0 {
		existing, err := z.Keys()
		if err != nil {
			log.Error("addDomainKey", "zone", p.Name, "error", err)
			h.Metrics.ObserveKVError()
			return protocol.Fail()
		}
		k.ID = nextKeyID(existing)
	}
	if err := z.AddKey(k); err != nil {
		log.Error("addDomainKey", "zone", p.Name, "error", err)
		h.Metrics.ObserveKVError()
		return protocol.Fail()
	}
	return protocol.Ok(k.ID)
}

func nextKeyID(existing []domain.Key) int {
	max := 0
	for _, k := range existing {
		if k.ID > max {
			max = k.ID
		}
	}
	return max + 1
}

func (h *Handler) removeDomainKey(log *slog.Logger, p protocol.RemoveDomainKeyParams) protocol.Response {
	z, ok := h.zoneFromStore(log, p.Name)
	if !ok {
		return protocol.Fail()
	}
	removed, err := z.RemoveKey(p.ID)
	if err != nil {
		log.Error("removeDomainKey", "zone", p.Name, "id", p.ID, "error", err)
		h.Metrics.ObserveKVError()
		return protocol.Fail()
	}
	return protocol.Ok(removed)
}

func (h *Handler) beforeAndAfter(p protocol.GetBeforeAndAfterNamesAbsoluteParams) protocol.Response {
	qname := domain.NewName(p.QName)
	_, cz := h.Cache.ZoneByQName(qname, false)
	if cz == nil {
		return protocol.Ok(domain.BeforeAndAfterNames{})
	}
	rel, _ := qname.Relativize(cz.Zone())
	rel = strings.TrimSuffix(rel, ".")
	before, after := cz.BeforeAndAfter(rel)
	return protocol.Ok(domain.BeforeAndAfterNames{Before: before, After: after})
}
