package audit

import "context"

// Recorder is what the state machines write through.
type Recorder interface {
	Record(ctx context.Context, entry Entry) error
}

type AuditService interface {
	Recorder
	ListForEntity(ctx context.Context, entityType EntityType, entityID string, order Order) ([]Entry, error)
	Replay(ctx context.Context, entityType EntityType, entityID string) (ReplayResult, error)
}
