package approval

import "errors"

var (
	ErrApprovalNotFound     = errors.New("approval request not found")
	ErrInvalidTransition    = errors.New("approval request is not pending")
	ErrUnauthorized         = errors.New("actor is not the current approver or a valid delegate")
	ErrReasonRequired       = errors.New("reason is required")
	ErrTargetRequired       = errors.New("target approver is required")
	ErrCommentRequired      = errors.New("comment is required")
	ErrSameApprover         = errors.New("target is already the current approver")
	ErrInvalidApproverChain = errors.New("approver chain must have one approver per level")
	ErrUnknownAction        = errors.New("unknown approval action")
	ErrUnknownKind          = errors.New("unknown approvable kind")
	ErrDelegationNotFound   = errors.New("delegation not found")
	ErrDuplicateApproval    = errors.New("an approval request for this entity is already pending")
	// ErrDecisionHookFailed marks a failure in the follow-up that runs after
	// a decision has been committed.
	ErrDecisionHookFailed = errors.New("approval decided but follow-up failed")
)
