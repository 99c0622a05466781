package boarding

import (
	"time"

	"github.com/cmlabs-hris/boarding-backend-go/internal/domain/approval"
	"github.com/cmlabs-hris/boarding-backend-go/internal/domain/recruitment"
	"github.com/cmlabs-hris/boarding-backend-go/internal/domain/staff"
	"github.com/cmlabs-hris/boarding-backend-go/internal/pkg/validator"
)

type IssueOfferRequest struct {
	CandidateID       string  `json:"candidate_id"`
	TicketID          string  `json:"ticket_id"`
	PayGradeID        string  `json:"pay_grade_id"`
	OfferTemplateID   *string `json:"offer_template_id,omitempty"`
	ProposedStartDate *string `json:"proposed_start_date,omitempty"`
	ActorID           string  `json:"-"`
}

// Validate also returns the parsed proposed start date.
func (r *IssueOfferRequest) Validate() (*time.Time, error) {
	var errs validator.ValidationErrors

	if !validator.IsValidUUID(r.CandidateID) {
		errs.Add("candidate_id", "candidate_id must be a valid UUID")
	}
	if !validator.IsValidUUID(r.TicketID) {
		errs.Add("ticket_id", "ticket_id must be a valid UUID")
	}
	if !validator.IsValidUUID(r.PayGradeID) {
		errs.Add("pay_grade_id", "pay_grade_id must be a valid UUID")
	}
	if r.OfferTemplateID != nil && !validator.IsValidUUID(*r.OfferTemplateID) {
		errs.Add("offer_template_id", "offer_template_id must be a valid UUID")
	}
	if validator.IsEmpty(r.ActorID) {
		errs.Add("actor_id", "actor_id is required")
	}

	var start *time.Time
	if r.ProposedStartDate != nil {
		d, ok := validator.IsValidDate(*r.ProposedStartDate)
		if !ok {
			errs.Add("proposed_start_date", "proposed_start_date must be in YYYY-MM-DD format")
		} else {
			start = &d
		}
	}

	return start, errs.OrNil()
}

type BulkIssueOffersRequest struct {
	Offers  []IssueOfferRequest `json:"offers"`
	ActorID string              `json:"-"`
}

// ImportOffersRequest carries rows already mapped to field names by the
// spreadsheet parser. Rows without a ticket_id use TicketID.
type ImportOffersRequest struct {
	TicketID string              `json:"ticket_id"`
	Rows     []map[string]string `json:"rows"`
	ActorID  string              `json:"-"`
}

// ImportRow is one spreadsheet row as reported back in the batch result.
type ImportRow struct {
	Row    int               `json:"row"`
	Fields map[string]string `json:"fields"`
}

type RecordResponseRequest struct {
	ID                   string                      `json:"-"`
	ActorID              string                      `json:"-"`
	ResponseType         ResponseType                `json:"response_type"`
	PreferredStartDate   *string                     `json:"preferred_start_date,omitempty"`
	UpdatedCandidateInfo recruitment.CandidateUpdate `json:"updated_candidate_info"`
	CandidateMessage     *string                     `json:"candidate_message,omitempty"`
}

// Validate also returns the parsed preferred start date.
func (r *RecordResponseRequest) Validate() (*time.Time, error) {
	var errs validator.ValidationErrors

	if r.ResponseType != ResponseAccepted && r.ResponseType != ResponseDeclined {
		errs.Add("response_type", "response_type must be accepted or declined")
	}

	var preferred *time.Time
	if r.PreferredStartDate != nil {
		d, ok := validator.IsValidDate(*r.PreferredStartDate)
		if !ok {
			errs.Add("preferred_start_date", "preferred_start_date must be in YYYY-MM-DD format")
		} else {
			preferred = &d
		}
	}

	if b := r.UpdatedCandidateInfo.Banking; b != nil {
		if validator.IsEmpty(b.BankName) {
			errs.Add("updated_candidate_info.banking.bank_name", "bank_name is required")
		}
		if validator.IsEmpty(b.AccountNumber) {
			errs.Add("updated_candidate_info.banking.account_number", "account_number is required")
		}
		if validator.IsEmpty(b.AccountHolder) {
			errs.Add("updated_candidate_info.banking.account_holder", "account_holder is required")
		}
	}
	for _, id := range r.UpdatedCandidateInfo.LegalIDs {
		if validator.IsEmpty(id.Type) || validator.IsEmpty(id.Number) {
			errs.Add("updated_candidate_info.legal_ids", "every legal id needs a type and a number")
			break
		}
	}

	return preferred, errs.OrNil()
}

type BoardRequest struct {
	ID      string                 `json:"id"`
	ActorID string                 `json:"-"`
	Method  staff.OnboardingMethod `json:"-"`
}

type BulkBoardRequest struct {
	IDs     []string               `json:"ids"`
	ActorID string                 `json:"-"`
	Method  staff.OnboardingMethod `json:"-"`
}

type BoardResult struct {
	Request BoardingRequest `json:"request"`
	Staff   staff.Staff     `json:"staff"`
}

type CancelRequest struct {
	ID      string `json:"-"`
	ActorID string `json:"-"`
	Reason  string `json:"reason"`
}

func (r *CancelRequest) Validate() error {
	var errs validator.ValidationErrors
	if validator.IsEmpty(r.Reason) {
		errs.Add("reason", "reason is required")
	}
	return errs.OrNil()
}

type ListFilter struct {
	TicketID string
	Status   Status
	BatchID  string
	Limit    int
	Offset   int
}

func (f *ListFilter) Normalize() error {
	var errs validator.ValidationErrors
	if f.Status != "" && !f.Status.IsValid() {
		errs.Add("status", "status is invalid")
	}
	if f.Limit <= 0 || f.Limit > 100 {
		f.Limit = 20
	}
	if f.Offset < 0 {
		f.Offset = 0
	}
	return errs.OrNil()
}

type SubmitBatchRequest struct {
	TicketID    string            `json:"ticket_id"`
	RequestIDs  []string          `json:"request_ids"`
	Source      BatchSource       `json:"source,omitempty"`
	ApproverIDs []string          `json:"approver_ids"`
	Priority    approval.Priority `json:"priority,omitempty"`
	DueDate     *string           `json:"due_date,omitempty"`
	Comments    string            `json:"comments,omitempty"`
	ActorID     string            `json:"-"`
}

func (r *SubmitBatchRequest) Validate() error {
	var errs validator.ValidationErrors

	if !validator.IsValidUUID(r.TicketID) {
		errs.Add("ticket_id", "ticket_id must be a valid UUID")
	}
	if len(r.RequestIDs) == 0 {
		errs.Add("request_ids", "at least one request is required")
	} else if validator.HasDuplicates(r.RequestIDs) {
		errs.Add("request_ids", "request_ids must not contain duplicates")
	}
	if len(r.ApproverIDs) == 0 {
		errs.Add("approver_ids", "at least one approver is required")
	}
	if r.Source != "" && r.Source != SourceManual && r.Source != SourceBulkUpload {
		errs.Add("source", "source must be manual or bulk_upload")
	}

	return errs.OrNil()
}

type BatchSubmission struct {
	Batch    Batch                    `json:"batch"`
	Approval approval.ApprovalRequest `json:"approval"`
}
