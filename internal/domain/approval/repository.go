package approval

import (
	"context"
	"time"
)

type ApprovalRepository interface {
	Create(ctx context.Context, req ApprovalRequest) (ApprovalRequest, error)
	GetByID(ctx context.Context, id string) (ApprovalRequest, error)
	// GetForUpdate locks the row for the rest of the transaction.
	GetForUpdate(ctx context.Context, id string) (ApprovalRequest, error)
	Update(ctx context.Context, req ApprovalRequest) error
	ExistsPending(ctx context.Context, a Approvable) (bool, error)

	FindPendingFor(ctx context.Context, approverID string) ([]ApprovalRequest, error)
	FindSubmittedBy(ctx context.Context, requesterID string) ([]ApprovalRequest, error)
	// FindDelegatedTo returns pending requests whose current approver has
	// granted delegateID a delegation valid at the given time.
	FindDelegatedTo(ctx context.Context, delegateID string, at time.Time) ([]ApprovalRequest, error)

	AppendHistory(ctx context.Context, entry HistoryEntry) (HistoryEntry, error)
	ListHistory(ctx context.Context, requestID string) ([]HistoryEntry, error)
}

type DelegationRepository interface {
	Create(ctx context.Context, d Delegation) (Delegation, error)
	GetByID(ctx context.Context, id string) (Delegation, error)
	Deactivate(ctx context.Context, id string) error
	IsDelegate(ctx context.Context, delegatorID, delegateID string, at time.Time) (bool, error)
}
