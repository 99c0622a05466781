package postgresql

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/cmlabs-hris/boarding-backend-go/internal/domain/approval"
	"github.com/cmlabs-hris/boarding-backend-go/internal/pkg/database"
	"github.com/jackc/pgx/v5"
)

const approvalColumns = `
	id, approvable_kind, approvable_id, status, current_level, total_levels, approver_ids,
	requested_by, current_approver_id, due_date, priority, comments, rejection_reason,
	escalation_reason, decided_at, created_at, updated_at`

type approvalRepositoryImpl struct {
	db *database.DB
}

func NewApprovalRepository(db *database.DB) approval.ApprovalRepository {
	return &approvalRepositoryImpl{db: db}
}

func scanApproval(row pgx.Row) (approval.ApprovalRequest, error) {
	var r approval.ApprovalRequest
	err := row.Scan(
		&r.ID, &r.Approvable.Kind, &r.Approvable.ID, &r.Status, &r.CurrentLevel, &r.TotalLevels, &r.ApproverIDs,
		&r.RequestedBy, &r.CurrentApproverID, &r.DueDate, &r.Priority, &r.Comments, &r.RejectionReason,
		&r.EscalationReason, &r.DecidedAt, &r.CreatedAt, &r.UpdatedAt,
	)
	return r, err
}

// Create implements approval.ApprovalRepository.
func (a *approvalRepositoryImpl) Create(ctx context.Context, req approval.ApprovalRequest) (approval.ApprovalRequest, error) {
	q := GetQuerier(ctx, a.db)

	query := `
		INSERT INTO approval_requests (
			approvable_kind, approvable_id, status, current_level, total_levels, approver_ids,
			requested_by, current_approver_id, due_date, priority, comments, created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
		RETURNING ` + approvalColumns

	created, err := scanApproval(q.QueryRow(ctx, query,
		req.Approvable.Kind, req.Approvable.ID, req.Status, req.CurrentLevel, req.TotalLevels, req.ApproverIDs,
		req.RequestedBy, req.CurrentApproverID, req.DueDate, req.Priority, req.Comments, req.CreatedAt, req.UpdatedAt,
	))
	if err != nil {
		return approval.ApprovalRequest{}, fmt.Errorf("failed to create approval request: %w", err)
	}
	return created, nil
}

// GetByID implements approval.ApprovalRepository.
func (a *approvalRepositoryImpl) GetByID(ctx context.Context, id string) (approval.ApprovalRequest, error) {
	return a.get(ctx, id, "")
}

// GetForUpdate implements approval.ApprovalRepository.
func (a *approvalRepositoryImpl) GetForUpdate(ctx context.Context, id string) (approval.ApprovalRequest, error) {
	return a.get(ctx, id, "FOR UPDATE")
}

func (a *approvalRepositoryImpl) get(ctx context.Context, id, lock string) (approval.ApprovalRequest, error) {
	q := GetQuerier(ctx, a.db)

	r, err := scanApproval(q.QueryRow(ctx, `SELECT `+approvalColumns+` FROM approval_requests WHERE id = $1 `+lock, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return approval.ApprovalRequest{}, approval.ErrApprovalNotFound
		}
		return approval.ApprovalRequest{}, fmt.Errorf("failed to get approval request %s: %w", id, err)
	}
	return r, nil
}

// Update implements approval.ApprovalRepository.
func (a *approvalRepositoryImpl) Update(ctx context.Context, req approval.ApprovalRequest) error {
	q := GetQuerier(ctx, a.db)

	query := `
		UPDATE approval_requests
		SET status = $2, current_level = $3, approver_ids = $4, current_approver_id = $5,
			rejection_reason = $6, escalation_reason = $7, decided_at = $8, updated_at = $9
		WHERE id = $1
	`

	tag, err := q.Exec(ctx, query,
		req.ID, req.Status, req.CurrentLevel, req.ApproverIDs, req.CurrentApproverID,
		req.RejectionReason, req.EscalationReason, req.DecidedAt, req.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to update approval request %s: %w", req.ID, err)
	}
	if tag.RowsAffected() == 0 {
		return approval.ErrApprovalNotFound
	}
	return nil
}

// ExistsPending implements approval.ApprovalRepository.
func (a *approvalRepositoryImpl) ExistsPending(ctx context.Context, ap approval.Approvable) (bool, error) {
	q := GetQuerier(ctx, a.db)

	var exists bool
	err := q.QueryRow(ctx, `
		SELECT EXISTS (
			SELECT 1 FROM approval_requests
			WHERE approvable_kind = $1 AND approvable_id = $2 AND status = 'pending'
		)
	`, ap.Kind, ap.ID).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("failed to check pending approval: %w", err)
	}
	return exists, nil
}

// FindPendingFor implements approval.ApprovalRepository.
func (a *approvalRepositoryImpl) FindPendingFor(ctx context.Context, approverID string) ([]approval.ApprovalRequest, error) {
	return a.list(ctx, `
		SELECT `+approvalColumns+` FROM approval_requests
		WHERE current_approver_id = $1 AND status = 'pending'
		ORDER BY due_date NULLS LAST, created_at
	`, approverID)
}

// FindSubmittedBy implements approval.ApprovalRepository.
func (a *approvalRepositoryImpl) FindSubmittedBy(ctx context.Context, requesterID string) ([]approval.ApprovalRequest, error) {
	return a.list(ctx, `
		SELECT `+approvalColumns+` FROM approval_requests
		WHERE requested_by = $1
		ORDER BY created_at DESC
	`, requesterID)
}

// FindDelegatedTo implements approval.ApprovalRepository. Requests still
// sitting with their own requester are left out, as are requests the delegate
// submitted.
func (a *approvalRepositoryImpl) FindDelegatedTo(ctx context.Context, delegateID string, at time.Time) ([]approval.ApprovalRequest, error) {
	return a.list(ctx, `
		SELECT `+approvalColumns+` FROM approval_requests r
		WHERE r.status = 'pending'
		  AND r.current_approver_id <> r.requested_by
		  AND r.requested_by <> $1
		  AND EXISTS (
			SELECT 1 FROM approval_delegations d
			WHERE d.delegator_id = r.current_approver_id
			  AND d.delegate_id = $1
			  AND d.active
			  AND d.valid_from <= $2
			  AND (d.valid_until IS NULL OR d.valid_until > $2)
		  )
		ORDER BY r.due_date NULLS LAST, r.created_at
	`, delegateID, at)
}

func (a *approvalRepositoryImpl) list(ctx context.Context, query string, args ...any) ([]approval.ApprovalRequest, error) {
	q := GetQuerier(ctx, a.db)

	rows, err := q.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list approval requests: %w", err)
	}
	requests, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (approval.ApprovalRequest, error) {
		return scanApproval(row)
	})
	if err != nil {
		return nil, fmt.Errorf("failed to scan approval requests: %w", err)
	}
	return requests, nil
}

// AppendHistory implements approval.ApprovalRepository.
func (a *approvalRepositoryImpl) AppendHistory(ctx context.Context, e approval.HistoryEntry) (approval.HistoryEntry, error) {
	q := GetQuerier(ctx, a.db)

	query := `
		INSERT INTO approval_history (approval_request_id, actor_id, action, from_status, to_status, level, comment, reason, created_at)
		VALUES ($1, $2, $3, NULLIF($4, ''), $5, $6, $7, $8, $9)
		RETURNING id
	`

	err := q.QueryRow(ctx, query,
		e.ApprovalRequestID, e.ActorID, e.Action, string(e.FromStatus), e.ToStatus, e.Level, e.Comment, e.Reason, e.CreatedAt,
	).Scan(&e.ID)
	if err != nil {
		return approval.HistoryEntry{}, fmt.Errorf("failed to append approval history: %w", err)
	}
	return e, nil
}

// ListHistory implements approval.ApprovalRepository.
func (a *approvalRepositoryImpl) ListHistory(ctx context.Context, requestID string) ([]approval.HistoryEntry, error) {
	q := GetQuerier(ctx, a.db)

	rows, err := q.Query(ctx, `
		SELECT id, approval_request_id, actor_id, action, COALESCE(from_status, ''), to_status, level, comment, reason, created_at
		FROM approval_history
		WHERE approval_request_id = $1
		ORDER BY created_at, id
	`, requestID)
	if err != nil {
		return nil, fmt.Errorf("failed to list approval history: %w", err)
	}

	history, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (approval.HistoryEntry, error) {
		var e approval.HistoryEntry
		err := row.Scan(&e.ID, &e.ApprovalRequestID, &e.ActorID, &e.Action, &e.FromStatus, &e.ToStatus, &e.Level, &e.Comment, &e.Reason, &e.CreatedAt)
		return e, err
	})
	if err != nil {
		return nil, fmt.Errorf("failed to scan approval history: %w", err)
	}
	return history, nil
}

type delegationRepositoryImpl struct {
	db *database.DB
}

func NewDelegationRepository(db *database.DB) approval.DelegationRepository {
	return &delegationRepositoryImpl{db: db}
}

// Create implements approval.DelegationRepository.
func (d *delegationRepositoryImpl) Create(ctx context.Context, del approval.Delegation) (approval.Delegation, error) {
	q := GetQuerier(ctx, d.db)

	query := `
		INSERT INTO approval_delegations (delegator_id, delegate_id, valid_from, valid_until, active, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id
	`

	err := q.QueryRow(ctx, query, del.DelegatorID, del.DelegateID, del.ValidFrom, del.ValidUntil, del.Active, del.CreatedAt).Scan(&del.ID)
	if err != nil {
		return approval.Delegation{}, fmt.Errorf("failed to create delegation: %w", err)
	}
	return del, nil
}

// GetByID implements approval.DelegationRepository.
func (d *delegationRepositoryImpl) GetByID(ctx context.Context, id string) (approval.Delegation, error) {
	q := GetQuerier(ctx, d.db)

	var del approval.Delegation
	err := q.QueryRow(ctx, `
		SELECT id, delegator_id, delegate_id, valid_from, valid_until, active, created_at
		FROM approval_delegations WHERE id = $1
	`, id).Scan(&del.ID, &del.DelegatorID, &del.DelegateID, &del.ValidFrom, &del.ValidUntil, &del.Active, &del.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return approval.Delegation{}, approval.ErrDelegationNotFound
		}
		return approval.Delegation{}, fmt.Errorf("failed to get delegation %s: %w", id, err)
	}
	return del, nil
}

// Deactivate implements approval.DelegationRepository.
func (d *delegationRepositoryImpl) Deactivate(ctx context.Context, id string) error {
	q := GetQuerier(ctx, d.db)

	tag, err := q.Exec(ctx, `UPDATE approval_delegations SET active = FALSE WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to deactivate delegation %s: %w", id, err)
	}
	if tag.RowsAffected() == 0 {
		return approval.ErrDelegationNotFound
	}
	return nil
}

// IsDelegate implements approval.DelegationRepository.
func (d *delegationRepositoryImpl) IsDelegate(ctx context.Context, delegatorID, delegateID string, at time.Time) (bool, error) {
	q := GetQuerier(ctx, d.db)

	var exists bool
	err := q.QueryRow(ctx, `
		SELECT EXISTS (
			SELECT 1 FROM approval_delegations
			WHERE delegator_id = $1 AND delegate_id = $2 AND active
			  AND valid_from <= $3 AND (valid_until IS NULL OR valid_until > $3)
		)
	`, delegatorID, delegateID, at).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("failed to check delegation: %w", err)
	}
	return exists, nil
}
