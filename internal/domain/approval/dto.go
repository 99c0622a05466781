package approval

import (
	"time"

	"github.com/cmlabs-hris/boarding-backend-go/internal/pkg/validator"
)

type SubmitRequest struct {
	Approvable  Approvable `json:"approvable"`
	RequesterID string     `json:"-"`
	TotalLevels int        `json:"total_levels"`
	ApproverIDs []string   `json:"approver_ids"`
	Priority    Priority   `json:"priority,omitempty"`
	DueDate     *string    `json:"due_date,omitempty"`
	Comments    string     `json:"comments,omitempty"`
}

// Validate also returns the parsed due date.
func (r *SubmitRequest) Validate() (*time.Time, error) {
	var errs validator.ValidationErrors

	if r.Approvable.Kind == "" {
		errs.Add("approvable.kind", "approvable.kind is required")
	}
	if !validator.IsValidUUID(r.Approvable.ID) {
		errs.Add("approvable.id", "approvable.id must be a valid UUID")
	}
	if validator.IsEmpty(r.RequesterID) {
		errs.Add("requester_id", "requester_id is required")
	}
	if r.TotalLevels < 1 {
		errs.Add("total_levels", "total_levels must be at least 1")
	}
	if len(r.ApproverIDs) != r.TotalLevels {
		errs.Add("approver_ids", "approver_ids must contain exactly one approver per level")
	}
	for _, id := range r.ApproverIDs {
		if validator.IsEmpty(id) {
			errs.Add("approver_ids", "approver_ids must not contain empty values")
			break
		}
	}
	if r.Priority != "" && !r.Priority.IsValid() {
		errs.Add("priority", "priority must be one of low, normal, high, urgent")
	}
	var due *time.Time
	if r.DueDate != nil {
		d, ok := validator.IsValidDate(*r.DueDate)
		if !ok {
			errs.Add("due_date", "due_date must be in YYYY-MM-DD format")
		} else {
			due = &d
		}
	}

	return due, errs.OrNil()
}

type ApproveRequest struct {
	ID      string `json:"-"`
	ActorID string `json:"-"`
	Comment string `json:"comment,omitempty"`
}

type RejectRequest struct {
	ID      string `json:"-"`
	ActorID string `json:"-"`
	Reason  string `json:"reason"`
	Comment string `json:"comment,omitempty"`
}

func (r *RejectRequest) Validate() error {
	var errs validator.ValidationErrors
	if validator.IsEmpty(r.Reason) {
		errs.Add("reason", "reason is required")
	}
	return errs.OrNil()
}

type EscalateRequest struct {
	ID       string `json:"-"`
	ActorID  string `json:"-"`
	TargetID string `json:"escalate_to"`
	Reason   string `json:"reason"`
}

func (r *EscalateRequest) Validate() error {
	var errs validator.ValidationErrors
	if validator.IsEmpty(r.TargetID) {
		errs.Add("escalate_to", "escalate_to is required")
	}
	if validator.IsEmpty(r.Reason) {
		errs.Add("reason", "reason is required")
	}
	return errs.OrNil()
}

type CommentRequest struct {
	ID      string `json:"-"`
	ActorID string `json:"-"`
	Comment string `json:"comment"`
}

func (r *CommentRequest) Validate() error {
	var errs validator.ValidationErrors
	if validator.IsEmpty(r.Comment) {
		errs.Add("comment", "comment is required")
	}
	return errs.OrNil()
}

type CancelRequest struct {
	ID      string `json:"-"`
	ActorID string `json:"-"`
	Reason  string `json:"reason,omitempty"`
}

type ReassignRequest struct {
	ID       string `json:"-"`
	ActorID  string `json:"-"`
	TargetID string `json:"reassign_to"`
	Reason   string `json:"reason,omitempty"`
}

func (r *ReassignRequest) Validate() error {
	var errs validator.ValidationErrors
	if validator.IsEmpty(r.TargetID) {
		errs.Add("reassign_to", "reassign_to is required")
	}
	return errs.OrNil()
}

type BulkApproveRequest struct {
	IDs     []string `json:"ids"`
	ActorID string   `json:"-"`
	Comment string   `json:"comment,omitempty"`
}

type BulkRejectRequest struct {
	IDs     []string `json:"ids"`
	ActorID string   `json:"-"`
	Reason  string   `json:"reason"`
}

func (r *BulkRejectRequest) Validate() error {
	var errs validator.ValidationErrors
	if validator.IsEmpty(r.Reason) {
		errs.Add("reason", "reason is required")
	}
	return errs.OrNil()
}

type GrantDelegationRequest struct {
	DelegatorID string  `json:"-"`
	DelegateID  string  `json:"delegate_id"`
	ValidFrom   *string `json:"valid_from,omitempty"`
	ValidUntil  *string `json:"valid_until,omitempty"`
}

// Validate also returns the parsed validity window.
func (r *GrantDelegationRequest) Validate(now time.Time) (time.Time, *time.Time, error) {
	var errs validator.ValidationErrors

	if validator.IsEmpty(r.DelegateID) {
		errs.Add("delegate_id", "delegate_id is required")
	} else if r.DelegateID == r.DelegatorID {
		errs.Add("delegate_id", "cannot delegate to yourself")
	}

	from := now
	if r.ValidFrom != nil {
		d, ok := validator.IsValidDate(*r.ValidFrom)
		if !ok {
			errs.Add("valid_from", "valid_from must be in YYYY-MM-DD format")
		}
		from = d
	}

	var until *time.Time
	if r.ValidUntil != nil {
		d, ok := validator.IsValidDate(*r.ValidUntil)
		if !ok {
			errs.Add("valid_until", "valid_until must be in YYYY-MM-DD format")
		} else if !d.After(from) {
			errs.Add("valid_until", "valid_until must be after valid_from")
		}
		until = &d
	}

	return from, until, errs.OrNil()
}

// Decision is the outcome of Approve or Reject.
type Decision struct {
	Request    ApprovalRequest `json:"request"`
	Completion *Completion     `json:"completion,omitempty"`
}

type RequestDetail struct {
	ApprovalRequest
	Summary *Summary `json:"summary,omitempty"`
}

type Inbox struct {
	PendingForMe  []ApprovalRequest `json:"pending_for_me"`
	SubmittedByMe []ApprovalRequest `json:"submitted_by_me"`
	DelegatedToMe []ApprovalRequest `json:"delegated_to_me"`
}
