package audit

import "context"

// Repository is append-only: there is no update or delete.
type Repository interface {
	Append(ctx context.Context, entry Entry) (Entry, error)
	ListByEntity(ctx context.Context, entityType EntityType, entityID string, order Order) ([]Entry, error)
}
