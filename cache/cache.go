// Package cache keeps the latest merged transcript of each dictation session
// close at hand so consecutive slices do not have to reread it from the store.
package cache

import (
	"context"
	"fmt"
)

// SessionCache stores the latest merged text per (user, session).
// A miss is reported with ok == false and a nil error.
type SessionCache interface {
	Get(ctx context.Context, userID int64, sessionID string) (text string, ok bool, err error)
	Set(ctx context.Context, userID int64, sessionID, text string) error
	Delete(ctx context.Context, userID int64, sessionID string) error
}

// KeyPrefix prefixes every cache key.
const KeyPrefix = "dictation:"

// Key returns the cache key of a session.
func Key(userID int64, sessionID string) string {
	return fmt.Sprintf("%s%d:%s", KeyPrefix, userID, sessionID)
}
