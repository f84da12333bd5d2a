package settings

import (
	"context"
	"errors"
)

// Store is the backend contract behind the cache. Implementations:
// - PostgresStore: upsert defaults, then read back (local strategy).
// - RemoteStore: authenticated HTTP lookup (remote strategy).
//
// Fetch returns ErrNotFound when the backend has no record for the
// community and cannot create one; the cache maps that to "absent".
type Store interface {
	Fetch(ctx context.Context, communityID string) (Record, error)
}

var ErrNotFound = errors.New("settings: not found")
