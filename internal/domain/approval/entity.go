package approval

import (
	"slices"
	"time"
)

type Status string

const (
	StatusPending   Status = "pending"
	StatusApproved  Status = "approved"
	StatusRejected  Status = "rejected"
	StatusEscalated Status = "escalated"
	StatusCancelled Status = "cancelled"
)

// IsFinal reports whether no further action can be taken.
func (s Status) IsFinal() bool {
	return s == StatusApproved || s == StatusRejected || s == StatusCancelled
}

type Action string

const (
	ActionSubmitted  Action = "submitted"
	ActionApproved   Action = "approved"
	ActionRejected   Action = "rejected"
	ActionComment    Action = "comment"
	ActionEscalated  Action = "escalated"
	ActionReassigned Action = "reassigned"
	ActionCancelled  Action = "cancelled"
)

type Priority string

const (
	PriorityLow    Priority = "low"
	PriorityNormal Priority = "normal"
	PriorityHigh   Priority = "high"
	PriorityUrgent Priority = "urgent"
)

func (p Priority) IsValid() bool {
	switch p {
	case PriorityLow, PriorityNormal, PriorityHigh, PriorityUrgent:
		return true
	}
	return false
}

// Kind discriminates what an approval request is about.
type Kind string

const (
	KindBoardingBatch Kind = "boarding_batch"
)

// Approvable is a reference to the entity awaiting approval.
type Approvable struct {
	Kind Kind   `json:"kind"`
	ID   string `json:"id"`
}

type ApprovalRequest struct {
	ID                string     `json:"id"`
	Approvable        Approvable `json:"approvable"`
	Status            Status     `json:"status"`
	CurrentLevel      int        `json:"current_level"`
	TotalLevels       int        `json:"total_levels"`
	ApproverIDs       []string   `json:"approver_ids"`
	RequestedBy       string     `json:"requested_by"`
	CurrentApproverID string     `json:"current_approver_id"`
	DueDate           *time.Time `json:"due_date,omitempty"`
	Priority          Priority   `json:"priority"`
	Comments          *string    `json:"comments,omitempty"`
	RejectionReason   *string    `json:"rejection_reason,omitempty"`
	EscalationReason  *string    `json:"escalation_reason,omitempty"`
	DecidedAt         *time.Time `json:"decided_at,omitempty"`
	CreatedAt         time.Time  `json:"created_at"`
	UpdatedAt         time.Time  `json:"updated_at"`
}

type HistoryEntry struct {
	ID                string    `json:"id"`
	ApprovalRequestID string    `json:"approval_request_id"`
	ActorID           string    `json:"actor_id"`
	Action            Action    `json:"action"`
	FromStatus        Status    `json:"from_status,omitempty"`
	ToStatus          Status    `json:"to_status"`
	Level             int       `json:"level"`
	Comment           *string   `json:"comment,omitempty"`
	Reason            *string   `json:"reason,omitempty"`
	CreatedAt         time.Time `json:"created_at"`
}

// Delegation lets DelegateID act on DelegatorID's pending approvals.
type Delegation struct {
	ID          string     `json:"id"`
	DelegatorID string     `json:"delegator_id"`
	DelegateID  string     `json:"delegate_id"`
	ValidFrom   time.Time  `json:"valid_from"`
	ValidUntil  *time.Time `json:"valid_until,omitempty"`
	Active      bool       `json:"active"`
	CreatedAt   time.Time  `json:"created_at"`
}

func (d Delegation) IsValidAt(t time.Time) bool {
	if !d.Active || t.Before(d.ValidFrom) {
		return false
	}
	return d.ValidUntil == nil || t.Before(*d.ValidUntil)
}

// Event is the input to Apply.
type Event struct {
	Action   Action
	ActorID  string
	Comment  string
	Reason   string
	TargetID string
	At       time.Time
}

// Apply is the only place an ApprovalRequest changes state. On success the
// request is mutated in place and the history entry describing the change is
// returned. On error the request is left untouched.
func (r *ApprovalRequest) Apply(ev Event) (HistoryEntry, error) {
	if ev.At.IsZero() {
		ev.At = time.Now()
	}

	if ev.Action == ActionSubmitted {
		return r.submit(ev)
	}

	if r.Status != StatusPending {
		return HistoryEntry{}, ErrInvalidTransition
	}

	entry := HistoryEntry{
		ApprovalRequestID: r.ID,
		ActorID:           ev.ActorID,
		Action:            ev.Action,
		FromStatus:        r.Status,
		Level:             r.CurrentLevel,
		Comment:           optional(ev.Comment),
		CreatedAt:         ev.At,
	}

	switch ev.Action {
	case ActionApproved:
		if r.CurrentLevel >= r.TotalLevels {
			r.Status = StatusApproved
			r.DecidedAt = &ev.At
		} else {
			r.CurrentLevel++
			r.CurrentApproverID = r.ApproverIDs[r.CurrentLevel-1]
		}

	case ActionRejected:
		if ev.Reason == "" {
			return HistoryEntry{}, ErrReasonRequired
		}
		r.Status = StatusRejected
		r.RejectionReason = optional(ev.Reason)
		r.DecidedAt = &ev.At
		entry.Reason = r.RejectionReason

	case ActionEscalated:
		if ev.Reason == "" {
			return HistoryEntry{}, ErrReasonRequired
		}
		if ev.TargetID == "" {
			return HistoryEntry{}, ErrTargetRequired
		}
		if ev.TargetID == r.CurrentApproverID {
			return HistoryEntry{}, ErrSameApprover
		}
		// Escalation passes through escalated and lands back in pending
		// with the target holding the current level.
		r.Status = StatusEscalated
		r.EscalationReason = optional(ev.Reason)
		r.reassignCurrent(ev.TargetID)
		r.Status = StatusPending
		entry.Reason = r.EscalationReason

	case ActionReassigned:
		if ev.TargetID == "" {
			return HistoryEntry{}, ErrTargetRequired
		}
		if ev.TargetID == r.CurrentApproverID {
			return HistoryEntry{}, ErrSameApprover
		}
		r.reassignCurrent(ev.TargetID)
		entry.Reason = optional(ev.Reason)

	case ActionComment:
		if ev.Comment == "" {
			return HistoryEntry{}, ErrCommentRequired
		}

	case ActionCancelled:
		r.Status = StatusCancelled
		r.DecidedAt = &ev.At
		entry.Reason = optional(ev.Reason)

	default:
		return HistoryEntry{}, ErrUnknownAction
	}

	r.UpdatedAt = ev.At
	entry.ToStatus = r.Status
	return entry, nil
}

func (r *ApprovalRequest) submit(ev Event) (HistoryEntry, error) {
	if r.Status != "" {
		return HistoryEntry{}, ErrInvalidTransition
	}
	if r.TotalLevels < 1 || len(r.ApproverIDs) != r.TotalLevels {
		return HistoryEntry{}, ErrInvalidApproverChain
	}

	r.Status = StatusPending
	r.CurrentLevel = 1
	r.CurrentApproverID = r.ApproverIDs[0]
	if r.Priority == "" {
		r.Priority = PriorityNormal
	}
	if ev.Comment != "" {
		r.Comments = optional(ev.Comment)
	}
	r.CreatedAt = ev.At
	r.UpdatedAt = ev.At

	return HistoryEntry{
		ApprovalRequestID: r.ID,
		ActorID:           ev.ActorID,
		Action:            ActionSubmitted,
		ToStatus:          StatusPending,
		Level:             1,
		Comment:           optional(ev.Comment),
		CreatedAt:         ev.At,
	}, nil
}

func (r *ApprovalRequest) reassignCurrent(target string) {
	r.ApproverIDs = slices.Clone(r.ApproverIDs)
	r.ApproverIDs[r.CurrentLevel-1] = target
	r.CurrentApproverID = target
}

func optional(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
