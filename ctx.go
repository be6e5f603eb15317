package anticair

import (
	"context"

	"github.com/goliatone/go-router"
)

var snapshotCtxKey = &contextKey{"session_snapshot"}

type contextKey struct {
	name string
}

// SessionLocalsKey is the router locals key guards stash the snapshot under.
const SessionLocalsKey = "session"

// WithSessionContext sets the session snapshot in the given context
func WithSessionContext(r context.Context, snap Snapshot) context.Context {
	return context.WithValue(r, snapshotCtxKey, snap)
}

// SessionFromContext finds the session snapshot from the context.
func SessionFromContext(ctx context.Context) (Snapshot, bool) {
	raw, ok := ctx.Value(snapshotCtxKey).(Snapshot)
	return raw, ok
}

// RouterSession extracts the snapshot a guard stashed in the router context.
func RouterSession(ctx router.Context, key string) (Snapshot, bool) {
	if key == "" {
		key = SessionLocalsKey
	}
	raw := ctx.Locals(key)
	if raw == nil {
		return Snapshot{}, false
	}
	snap, ok := raw.(Snapshot)
	return snap, ok
}
