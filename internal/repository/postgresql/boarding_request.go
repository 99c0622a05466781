package postgresql

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/cmlabs-hris/boarding-backend-go/internal/domain/boarding"
	"github.com/cmlabs-hris/boarding-backend-go/internal/pkg/database"
	"github.com/jackc/pgx/v5"
)

const boardingRequestColumns = `
	id, candidate_id, client_id, ticket_id, pay_grade_id, offer_template_id, batch_id, staff_record_id,
	status, proposed_start_date, offer_sent_at, offer_responded_at, onboarded_at, cancellation_reason,
	created_by, created_at, updated_at`

type boardingRequestRepositoryImpl struct {
	db *database.DB
}

func NewBoardingRequestRepository(db *database.DB) boarding.BoardingRepository {
	return &boardingRequestRepositoryImpl{db: db}
}

func scanBoardingRequest(row pgx.Row) (boarding.BoardingRequest, error) {
	var r boarding.BoardingRequest
	err := row.Scan(
		&r.ID, &r.CandidateID, &r.ClientID, &r.TicketID, &r.PayGradeID, &r.OfferTemplateID, &r.BatchID, &r.StaffRecordID,
		&r.Status, &r.ProposedStartDate, &r.OfferSentAt, &r.OfferRespondedAt, &r.OnboardedAt, &r.CancellationReason,
		&r.CreatedBy, &r.CreatedAt, &r.UpdatedAt,
	)
	return r, err
}

// Create implements boarding.BoardingRepository.
func (b *boardingRequestRepositoryImpl) Create(ctx context.Context, r boarding.BoardingRequest) (boarding.BoardingRequest, error) {
	q := GetQuerier(ctx, b.db)

	query := `
		INSERT INTO boarding_requests (
			candidate_id, client_id, ticket_id, pay_grade_id, offer_template_id, status,
			proposed_start_date, offer_sent_at, created_by, created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $10)
		RETURNING ` + boardingRequestColumns

	created, err := scanBoardingRequest(q.QueryRow(ctx, query,
		r.CandidateID, r.ClientID, r.TicketID, r.PayGradeID, r.OfferTemplateID, r.Status,
		r.ProposedStartDate, r.OfferSentAt, r.CreatedBy, r.CreatedAt,
	))
	if err != nil {
		if name, ok := uniqueViolationOn(err); ok && name == "uq_boarding_requests_active" {
			return boarding.BoardingRequest{}, boarding.ErrDuplicateActive
		}
		return boarding.BoardingRequest{}, fmt.Errorf("failed to create boarding request: %w", err)
	}
	return created, nil
}

// GetByID implements boarding.BoardingRepository.
func (b *boardingRequestRepositoryImpl) GetByID(ctx context.Context, id string) (boarding.BoardingRequest, error) {
	return b.get(ctx, id, "")
}

// GetForUpdate implements boarding.BoardingRepository.
func (b *boardingRequestRepositoryImpl) GetForUpdate(ctx context.Context, id string) (boarding.BoardingRequest, error) {
	return b.get(ctx, id, "FOR UPDATE")
}

func (b *boardingRequestRepositoryImpl) get(ctx context.Context, id, lock string) (boarding.BoardingRequest, error) {
	q := GetQuerier(ctx, b.db)

	query := `SELECT ` + boardingRequestColumns + ` FROM boarding_requests WHERE id = $1 ` + lock

	r, err := scanBoardingRequest(q.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return boarding.BoardingRequest{}, boarding.ErrBoardingRequestNotFound
		}
		return boarding.BoardingRequest{}, fmt.Errorf("failed to get boarding request %s: %w", id, err)
	}
	return r, nil
}

// ExistsActive implements boarding.BoardingRepository.
func (b *boardingRequestRepositoryImpl) ExistsActive(ctx context.Context, candidateID, ticketID string) (bool, error) {
	q := GetQuerier(ctx, b.db)

	query := `
		SELECT EXISTS (
			SELECT 1 FROM boarding_requests
			WHERE candidate_id = $1 AND ticket_id = $2
			  AND status IN ('pending', 'offer_sent', 'offer_accepted', 'onboarded')
		)
	`

	var exists bool
	if err := q.QueryRow(ctx, query, candidateID, ticketID).Scan(&exists); err != nil {
		return false, fmt.Errorf("failed to check active boarding request: %w", err)
	}
	return exists, nil
}

// Update implements boarding.BoardingRepository.
func (b *boardingRequestRepositoryImpl) Update(ctx context.Context, r boarding.BoardingRequest) error {
	q := GetQuerier(ctx, b.db)

	query := `
		UPDATE boarding_requests
		SET status = $2, staff_record_id = $3, offer_sent_at = $4, offer_responded_at = $5,
			onboarded_at = $6, cancellation_reason = $7, batch_id = $8, updated_at = $9
		WHERE id = $1
	`

	tag, err := q.Exec(ctx, query,
		r.ID, r.Status, r.StaffRecordID, r.OfferSentAt, r.OfferRespondedAt,
		r.OnboardedAt, r.CancellationReason, r.BatchID, r.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to update boarding request %s: %w", r.ID, err)
	}
	if tag.RowsAffected() == 0 {
		return boarding.ErrBoardingRequestNotFound
	}
	return nil
}

// List implements boarding.BoardingRepository.
func (b *boardingRequestRepositoryImpl) List(ctx context.Context, filter boarding.ListFilter) ([]boarding.BoardingRequest, error) {
	q := GetQuerier(ctx, b.db)

	whereClauses := []string{"1 = 1"}
	args := []any{}
	argIdx := 1

	if filter.TicketID != "" {
		whereClauses = append(whereClauses, fmt.Sprintf("ticket_id = $%d", argIdx))
		args = append(args, filter.TicketID)
		argIdx++
	}
	if filter.Status != "" {
		whereClauses = append(whereClauses, fmt.Sprintf("status = $%d", argIdx))
		args = append(args, filter.Status)
		argIdx++
	}
	if filter.BatchID != "" {
		whereClauses = append(whereClauses, fmt.Sprintf("batch_id = $%d", argIdx))
		args = append(args, filter.BatchID)
		argIdx++
	}

	query := fmt.Sprintf(`
		SELECT %s FROM boarding_requests
		WHERE %s
		ORDER BY created_at, id
		LIMIT $%d OFFSET $%d
	`, boardingRequestColumns, strings.Join(whereClauses, " AND "), argIdx, argIdx+1)
	args = append(args, filter.Limit, filter.Offset)

	return b.query(ctx, q, query, args...)
}

// ListByBatch implements boarding.BoardingRepository.
func (b *boardingRequestRepositoryImpl) ListByBatch(ctx context.Context, batchID string) ([]boarding.BoardingRequest, error) {
	q := GetQuerier(ctx, b.db)
	query := `SELECT ` + boardingRequestColumns + ` FROM boarding_requests WHERE batch_id = $1 ORDER BY created_at, id`
	return b.query(ctx, q, query, batchID)
}

func (b *boardingRequestRepositoryImpl) query(ctx context.Context, q database.Querier, query string, args ...any) ([]boarding.BoardingRequest, error) {
	rows, err := q.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list boarding requests: %w", err)
	}
	defer rows.Close()

	requests := make([]boarding.BoardingRequest, 0)
	for rows.Next() {
		r, err := scanBoardingRequest(rows)
		if err != nil {
			return nil, err
		}
		requests = append(requests, r)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return requests, nil
}

// AssignBatch implements boarding.BoardingRepository.
func (b *boardingRequestRepositoryImpl) AssignBatch(ctx context.Context, batchID string, ids []string) error {
	q := GetQuerier(ctx, b.db)

	tag, err := q.Exec(ctx, `UPDATE boarding_requests SET batch_id = $1, updated_at = NOW() WHERE id = ANY($2)`, batchID, ids)
	if err != nil {
		return fmt.Errorf("failed to assign batch %s: %w", batchID, err)
	}
	if int(tag.RowsAffected()) != len(ids) {
		return boarding.ErrBoardingRequestNotFound
	}
	return nil
}

// ClearBatch implements boarding.BoardingRepository.
func (b *boardingRequestRepositoryImpl) ClearBatch(ctx context.Context, batchID string) error {
	q := GetQuerier(ctx, b.db)

	if _, err := q.Exec(ctx, `UPDATE boarding_requests SET batch_id = NULL, updated_at = NOW() WHERE batch_id = $1`, batchID); err != nil {
		return fmt.Errorf("failed to clear batch %s: %w", batchID, err)
	}
	return nil
}
