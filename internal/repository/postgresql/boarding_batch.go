package postgresql

import (
	"context"
	"errors"
	"fmt"

	"github.com/cmlabs-hris/boarding-backend-go/internal/domain/boarding"
	"github.com/cmlabs-hris/boarding-backend-go/internal/pkg/database"
	"github.com/jackc/pgx/v5"
)

type boardingBatchRepositoryImpl struct {
	db *database.DB
}

func NewBoardingBatchRepository(db *database.DB) boarding.BatchRepository {
	return &boardingBatchRepositoryImpl{db: db}
}

// Create implements boarding.BatchRepository.
func (r *boardingBatchRepositoryImpl) Create(ctx context.Context, b boarding.Batch) (boarding.Batch, error) {
	q := GetQuerier(ctx, r.db)

	query := `
		INSERT INTO boarding_batches (client_id, ticket_id, source, status, item_count, created_by, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING id
	`

	err := q.QueryRow(ctx, query,
		b.ClientID, b.TicketID, b.Source, b.Status, b.ItemCount, b.CreatedBy, b.CreatedAt, b.UpdatedAt,
	).Scan(&b.ID)
	if err != nil {
		return boarding.Batch{}, fmt.Errorf("failed to create boarding batch: %w", err)
	}
	return b, nil
}

// GetByID implements boarding.BatchRepository.
func (r *boardingBatchRepositoryImpl) GetByID(ctx context.Context, id string) (boarding.Batch, error) {
	return r.get(ctx, id, "")
}

// GetForUpdate implements boarding.BatchRepository.
func (r *boardingBatchRepositoryImpl) GetForUpdate(ctx context.Context, id string) (boarding.Batch, error) {
	return r.get(ctx, id, "FOR UPDATE")
}

func (r *boardingBatchRepositoryImpl) get(ctx context.Context, id, lock string) (boarding.Batch, error) {
	q := GetQuerier(ctx, r.db)

	query := `
		SELECT id, client_id, ticket_id, source, status, item_count, created_by, created_at, updated_at
		FROM boarding_batches
		WHERE id = $1 ` + lock

	var b boarding.Batch
	err := q.QueryRow(ctx, query, id).Scan(
		&b.ID, &b.ClientID, &b.TicketID, &b.Source, &b.Status, &b.ItemCount, &b.CreatedBy, &b.CreatedAt, &b.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return boarding.Batch{}, boarding.ErrBatchNotFound
		}
		return boarding.Batch{}, fmt.Errorf("failed to get boarding batch %s: %w", id, err)
	}
	return b, nil
}

// UpdateStatus implements boarding.BatchRepository.
func (r *boardingBatchRepositoryImpl) UpdateStatus(ctx context.Context, b boarding.Batch) error {
	q := GetQuerier(ctx, r.db)

	tag, err := q.Exec(ctx, `UPDATE boarding_batches SET status = $2, updated_at = $3 WHERE id = $1`, b.ID, b.Status, b.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to update boarding batch %s: %w", b.ID, err)
	}
	if tag.RowsAffected() == 0 {
		return boarding.ErrBatchNotFound
	}
	return nil
}
