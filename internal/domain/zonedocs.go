package domain

import "time"

// ZoneInfo is the "info" sub-document (spec §3): serial, notified_serial,
// enabled and last_check. Serial is monotonic across successful commits;
// enabled defaults true and last_check defaults to now when the document
// is absent (store.Zone materialises those defaults on first access).
type ZoneInfo struct {
	Serial         uint32    `json:"serial"`
	NotifiedSerial uint32    `json:"notified_serial"`
	Enabled        bool      `json:"enabled"`
	LastCheck      time.Time `json:"last_check"`
}

// DefaultZoneInfo is the default info document materialised when none has
// been persisted yet, per spec §3's table.
func DefaultZoneInfo() ZoneInfo {
	return ZoneInfo{
		Serial:         0,
		NotifiedSerial: 0,
		Enabled:        true,
		LastCheck:      time.Now(),
	}
}

// RecordsDoc is the "records" sub-document: a mapping from record id to
// Record. For every key k, the stored record has ID == k (spec §3
// invariant); store.Zone enforces this on write.
type RecordsDoc struct {
	Records map[string]Record `json:"records"`
}

// StageDoc is the "stage" sub-document: a mapping from change key to
// Change, insertion order tracked separately by store.Stage since Go maps
// do not preserve it.
type StageDoc struct {
	Changes map[string]Change `json:"changes"`
	// Order lists change keys in insertion order; JSON maps have none,
	// so order is carried explicitly alongside Changes.
	Order []string `json:"order"`
}

// MetadataDoc is the "metadata" sub-document: kind name to ordered list of
// string values.
type MetadataDoc struct {
	Metadata map[string][]string `json:"metadata"`
}

// KeysDoc is the "keys" sub-document: an ordered list of DNSSEC keys.
type KeysDoc struct {
	Keys []Key `json:"keys"`
}

// ZoneNames is the top-level "zones" index document.
type ZoneNames struct {
	Zones []string `json:"zones"`
}

// CurrentZone is the top-level "current-zone" pointer document.
type CurrentZone struct {
	Zone string `json:"zone"`
}
