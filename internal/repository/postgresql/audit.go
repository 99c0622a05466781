package postgresql

import (
	"context"
	"fmt"

	"github.com/cmlabs-hris/boarding-backend-go/internal/domain/audit"
	"github.com/cmlabs-hris/boarding-backend-go/internal/pkg/database"
	"github.com/jackc/pgx/v5"
)

type auditRepositoryImpl struct {
	db *database.DB
}

func NewAuditRepository(db *database.DB) audit.Repository {
	return &auditRepositoryImpl{db: db}
}

// Append implements audit.Repository. There is no update or delete; the
// table's triggers reject both.
func (a *auditRepositoryImpl) Append(ctx context.Context, e audit.Entry) (audit.Entry, error) {
	q := GetQuerier(ctx, a.db)

	metadata := e.Metadata
	if metadata == nil {
		metadata = map[string]any{}
	}

	query := `
		INSERT INTO audit_entries (entity_type, entity_id, action, from_status, to_status, actor_id, metadata, created_at)
		VALUES ($1, $2, $3, NULLIF($4, ''), NULLIF($5, ''), $6, $7, $8)
		RETURNING id
	`

	err := q.QueryRow(ctx, query,
		e.EntityType, e.EntityID, e.Action, e.FromStatus, e.ToStatus, e.ActorID, metadata, e.CreatedAt,
	).Scan(&e.ID)
	if err != nil {
		return audit.Entry{}, fmt.Errorf("failed to append audit entry: %w", err)
	}
	return e, nil
}

// ListByEntity implements audit.Repository. Insertion order is the sequence
// column, not created_at, so entries written in one transaction keep their
// order.
func (a *auditRepositoryImpl) ListByEntity(ctx context.Context, entityType audit.EntityType, entityID string, order audit.Order) ([]audit.Entry, error) {
	q := GetQuerier(ctx, a.db)

	direction := "DESC"
	if order == audit.OrderAsc {
		direction = "ASC"
	}

	query := fmt.Sprintf(`
		SELECT id, entity_type, entity_id, action, COALESCE(from_status, ''), COALESCE(to_status, ''),
			actor_id, metadata, created_at
		FROM audit_entries
		WHERE entity_type = $1 AND entity_id = $2
		ORDER BY seq %s
	`, direction)

	rows, err := q.Query(ctx, query, entityType, entityID)
	if err != nil {
		return nil, fmt.Errorf("failed to list audit entries: %w", err)
	}

	entries, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (audit.Entry, error) {
		var e audit.Entry
		err := row.Scan(&e.ID, &e.EntityType, &e.EntityID, &e.Action, &e.FromStatus, &e.ToStatus, &e.ActorID, &e.Metadata, &e.CreatedAt)
		return e, err
	})
	if err != nil {
		return nil, fmt.Errorf("failed to scan audit entries: %w", err)
	}
	return entries, nil
}
