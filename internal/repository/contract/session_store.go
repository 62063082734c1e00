package contract

import (
	"context"

	"resume-ai-helper-be/internal/entity"
)

// SessionStore owns the durable SessionCollection. Implementations must treat
// absent or unreadable data as an empty collection; persistence corruption is
// never surfaced to callers.
type SessionStore interface {
	// Load reads the persisted collection. It never fails: missing or corrupt
	// data yields an empty collection.
	Load(ctx context.Context) entity.SessionCollection

	// Save serializes and writes the full collection, replacing prior content.
	Save(ctx context.Context, collection entity.SessionCollection) error

	// Delete removes the session with the given id and persists the result,
	// returning the updated collection. Deleting an unknown id is a no-op.
	Delete(ctx context.Context, id int64) (entity.SessionCollection, error)
}
