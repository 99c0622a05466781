package boarding

import (
	"time"

	"github.com/cmlabs-hris/boarding-backend-go/internal/domain/recruitment"
)

type Status string

const (
	StatusPending       Status = "pending"
	StatusOfferSent     Status = "offer_sent"
	StatusOfferAccepted Status = "offer_accepted"
	StatusOnboarded     Status = "onboarded"
	StatusRejected      Status = "rejected"
	StatusCancelled     Status = "cancelled"
)

// IsActive reports whether a request in this status blocks a new offer for
// the same candidate and ticket.
func (s Status) IsActive() bool {
	switch s {
	case StatusPending, StatusOfferSent, StatusOfferAccepted, StatusOnboarded:
		return true
	}
	return false
}

func (s Status) IsValid() bool {
	return s.IsActive() || s == StatusRejected || s == StatusCancelled
}

// transitions is the full state graph. The empty status is a request that
// has not been stored yet.
var transitions = map[Status][]Status{
	"":                  {StatusPending, StatusOfferSent},
	StatusPending:       {StatusOfferSent, StatusRejected, StatusCancelled},
	StatusOfferSent:     {StatusOfferAccepted, StatusRejected, StatusCancelled},
	StatusOfferAccepted: {StatusOnboarded},
}

func CanTransition(from, to Status) bool {
	for _, s := range transitions[from] {
		if s == to {
			return true
		}
	}
	return false
}

type BoardingRequest struct {
	ID                 string     `json:"id"`
	CandidateID        string     `json:"candidate_id"`
	ClientID           string     `json:"client_id"`
	TicketID           string     `json:"ticket_id"`
	PayGradeID         string     `json:"pay_grade_id"`
	OfferTemplateID    string     `json:"offer_template_id"`
	BatchID            *string    `json:"batch_id,omitempty"`
	StaffRecordID      *string    `json:"staff_record_id,omitempty"`
	Status             Status     `json:"status"`
	ProposedStartDate  *time.Time `json:"proposed_start_date,omitempty"`
	OfferSentAt        *time.Time `json:"offer_sent_at,omitempty"`
	OfferRespondedAt   *time.Time `json:"offer_responded_at,omitempty"`
	OnboardedAt        *time.Time `json:"onboarded_at,omitempty"`
	CancellationReason *string    `json:"cancellation_reason,omitempty"`
	CreatedBy          string     `json:"created_by"`
	CreatedAt          time.Time  `json:"created_at"`
	UpdatedAt          time.Time  `json:"updated_at"`
}

func (r BoardingRequest) CanBeBoarded() bool {
	return r.Status == StatusOfferAccepted
}

// TransitionTo moves the request to status to, stamping the matching
// timestamp. It fails with an invalid_state precondition when the move is not
// in the state graph.
func (r *BoardingRequest) TransitionTo(to Status, at time.Time) error {
	if !CanTransition(r.Status, to) {
		return Precondition(ReasonInvalidState, "cannot move from %q to %q", r.Status, to)
	}

	switch to {
	case StatusOfferSent:
		r.OfferSentAt = &at
	case StatusOfferAccepted:
		r.OfferRespondedAt = &at
	case StatusRejected:
		if r.Status == StatusOfferSent {
			r.OfferRespondedAt = &at
		}
	case StatusOnboarded:
		r.OnboardedAt = &at
	}

	r.Status = to
	r.UpdatedAt = at
	return nil
}

type ResponseType string

const (
	ResponseAccepted ResponseType = "accepted"
	ResponseDeclined ResponseType = "declined"
)

// OfferResponse is immutable once stored.
type OfferResponse struct {
	ID                   string                      `json:"id"`
	BoardingRequestID    string                      `json:"boarding_request_id"`
	ResponseType         ResponseType                `json:"response_type"`
	PreferredStartDate   *time.Time                  `json:"preferred_start_date,omitempty"`
	UpdatedCandidateInfo recruitment.CandidateUpdate `json:"updated_candidate_info"`
	CandidateMessage     *string                     `json:"candidate_message,omitempty"`
	RespondedAt          time.Time                   `json:"responded_at"`
}

type BatchStatus string

const (
	BatchAwaitingApproval BatchStatus = "awaiting_approval"
	BatchApproved         BatchStatus = "approved"
	BatchRejected         BatchStatus = "rejected"
	BatchCompleted        BatchStatus = "completed"
)

type BatchSource string

const (
	SourceManual     BatchSource = "manual"
	SourceBulkUpload BatchSource = "bulk_upload"
)

// Batch groups accepted requests that are boarded together once an approval
// request for it is approved.
type Batch struct {
	ID        string      `json:"id"`
	ClientID  string      `json:"client_id"`
	TicketID  string      `json:"ticket_id"`
	Source    BatchSource `json:"source"`
	Status    BatchStatus `json:"status"`
	ItemCount int         `json:"item_count"`
	CreatedBy string      `json:"created_by"`
	CreatedAt time.Time   `json:"created_at"`
	UpdatedAt time.Time   `json:"updated_at"`
}

var batchTransitions = map[BatchStatus][]BatchStatus{
	"":                    {BatchAwaitingApproval},
	BatchAwaitingApproval: {BatchApproved, BatchRejected},
	BatchApproved:         {BatchCompleted},
}

func (b *Batch) TransitionTo(to BatchStatus, at time.Time) error {
	for _, s := range batchTransitions[b.Status] {
		if s == to {
			b.Status = to
			b.UpdatedAt = at
			return nil
		}
	}
	return Precondition(ReasonInvalidState, "batch cannot move from %q to %q", b.Status, to)
}
