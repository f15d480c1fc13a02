package ports

import (
	"context"
	"time"

	"chartcraft/domain/core"
	"chartcraft/domain/workspace"
)

// SessionStore keeps one workspace per browser session. Implementations
// store values: callers get a private copy from Get and hand ownership of
// the value to Save.
type SessionStore interface {
	// Get returns the workspace for id or a NOT_FOUND error
	Get(ctx context.Context, id core.SessionID) (*workspace.Workspace, error)

	// Save creates or replaces the workspace
	Save(ctx context.Context, ws *workspace.Workspace) error

	// Delete removes the workspace; deleting a missing id is not an error
	Delete(ctx context.Context, id core.SessionID) error

	// Sweep removes workspaces idle for longer than ttl and returns how many
	// were dropped
	Sweep(ctx context.Context, ttl time.Duration) (int, error)
}
