package core

import (
	"context"
	"time"
)

// SessionStore keeps track of revoked session tokens until they expire on their own.
type SessionStore interface {
	Revoke(ctx context.Context, id string, ttl time.Duration) error
	IsRevoked(ctx context.Context, id string) (bool, error)
	Close() error
}
