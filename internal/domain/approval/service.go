package approval

import (
	"context"

	"github.com/cmlabs-hris/boarding-backend-go/internal/pkg/batch"
)

// Submitter is the part of the engine other components submit through.
type Submitter interface {
	Submit(ctx context.Context, req SubmitRequest) (ApprovalRequest, error)
}

type ApprovalService interface {
	Submitter
	Approve(ctx context.Context, req ApproveRequest) (Decision, error)
	Reject(ctx context.Context, req RejectRequest) (Decision, error)
	Escalate(ctx context.Context, req EscalateRequest) (ApprovalRequest, error)
	AddComment(ctx context.Context, req CommentRequest) (HistoryEntry, error)
	Cancel(ctx context.Context, req CancelRequest) (Decision, error)
	Reassign(ctx context.Context, req ReassignRequest) (ApprovalRequest, error)
	BulkApprove(ctx context.Context, req BulkApproveRequest) (batch.Result[string], error)
	BulkReject(ctx context.Context, req BulkRejectRequest) (batch.Result[string], error)

	Get(ctx context.Context, id string) (RequestDetail, error)
	History(ctx context.Context, id string) ([]HistoryEntry, error)
	ListDelegated(ctx context.Context, actorID string) ([]ApprovalRequest, error)
	Inbox(ctx context.Context, actorID string) (Inbox, error)

	GrantDelegation(ctx context.Context, req GrantDelegationRequest) (Delegation, error)
	RevokeDelegation(ctx context.Context, id, actorID string) error
}
