package domain

import "errors"

// Sentinel errors surfaced by the store and stage layers. Callers compare
// with errors.Is; handlers at the protocol boundary map these to {result:
// false} responses or nonzero CLI exit codes (spec §7).
var (
	// ErrZoneAlreadyExists is returned by Store.AddZone when the zone name
	// is already present in the zones index.
	ErrZoneAlreadyExists = errors.New("consulns: zone already exists")
	// ErrMissingZone is returned by Store.Zone when no such zone is indexed.
	ErrMissingZone = errors.New("consulns: missing zone")
	// ErrNoZoneSelected is returned by the CLI's current-zone resolution
	// when no current-zone pointer is set.
	ErrNoZoneSelected = errors.New("consulns: no zone selected")
	// ErrKeyNotInserted is returned when the backing store reports that a
	// put did not succeed; retryable by the caller.
	ErrKeyNotInserted = errors.New("consulns: key not inserted")
	// ErrMissingChange is returned by Stage.Revert when the index is out
	// of range of the staged change set.
	ErrMissingChange = errors.New("consulns: missing staged change")
	// ErrMissingRecord is returned when a commit's Del references an id
	// that is not present in the records document; this indicates
	// corruption of the stage relative to the records document.
	ErrMissingRecord = errors.New("consulns: missing record")
)
