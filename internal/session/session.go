// Package session provides the session-scoped key-value area that backs
// client state such as carts. One browser session owns one area; values are
// opaque bytes (JSON documents in practice).
package session

import (
	"context"

	"github.com/google/uuid"
)

// Storage is the minimal get/set surface of one session's storage area.
// GetItem reports found=false for a key that was never set.
type Storage interface {
	GetItem(ctx context.Context, key string) (value []byte, found bool, err error)
	SetItem(ctx context.Context, key string, value []byte) error
}

// Provider hands out the storage area of a session.
type Provider interface {
	Scope(sessionID uuid.UUID) Storage
}

// NewID issues a fresh session id.
func NewID() uuid.UUID {
	return uuid.New()
}

// ParseID parses a session id received from a cookie or flag.
func ParseID(s string) (uuid.UUID, error) {
	return uuid.Parse(s)
}
