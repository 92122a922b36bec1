// package cache provides the volatile key-value store backing tokens,
// OAuth state tickets, and sessions.
package cache

import (
	"context"
	"fmt"
	"time"
)

// Store is the key-value contract the core depends on. Values are
// JSON-serialized records; a zero ttl means no expiry. Delete of an absent
// key is a no-op, not an error.
type Store interface {
	// Get returns the value and whether the key was present and unexpired.
	Get(ctx context.Context, key string) (string, bool, error)

	// Set stores the value, replacing any existing entry and its ttl.
	Set(ctx context.Context, key, value string, ttl time.Duration) error

	// GetDel atomically reads and removes the key. Used to consume
	// single-use OAuth state tickets: a ticket must not be usable twice.
	GetDel(ctx context.Context, key string) (string, bool, error)

	// Delete removes the key if present.
	Delete(ctx context.Context, key string) error

	// Close releases any underlying connection.
	Close() error
}

// Cache key namespaces. All values except the state ticket carry the TTLs
// defined by their owning packages.
func AccessTokenKey(principal string) string { return fmt.Sprintf("token:access:%s", principal) }
func RefreshTokenKey(principal string) string { return fmt.Sprintf("token:refresh:%s", principal) }
func OAuthStateKey(ticket string) string      { return fmt.Sprintf("oauth:state:%s", ticket) }
func SessionKey(id string) string             { return fmt.Sprintf("session:%s", id) }
