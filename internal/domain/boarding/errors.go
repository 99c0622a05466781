package boarding

import (
	"errors"
	"fmt"
)

var (
	ErrBoardingRequestNotFound = errors.New("boarding request not found")
	ErrBatchNotFound           = errors.New("boarding batch not found")
	ErrResponseNotFound        = errors.New("offer response not found")
	// ErrDuplicateActive is returned by storage when the active
	// candidate/ticket index rejects an insert.
	ErrDuplicateActive = errors.New("an active boarding request already exists for this candidate and ticket")

	// ErrPreconditionFailed matches every *PreconditionError via errors.Is.
	ErrPreconditionFailed = errors.New("precondition failed")
)

const (
	ReasonDuplicateActiveOffer    = "duplicate_active_offer"
	ReasonNoTemplateFound         = "no_template_found"
	ReasonInvalidState            = "invalid_state"
	ReasonAlreadyStaff            = "already_staff"
	ReasonCodeGenerationExhausted = "code_generation_exhausted"
	ReasonTicketNotFound          = "ticket_not_found"
	ReasonCandidateNotFound       = "candidate_not_found"
	ReasonPayGradeNotFound        = "pay_grade_not_found"
	ReasonRequestNotFound         = "request_not_found"
	ReasonTicketMismatch          = "ticket_mismatch"
	ReasonAlreadyBatched          = "already_batched"
	ReasonAwaitingBatchApproval   = "awaiting_batch_approval"
)

// PreconditionError is a business rule violation with a machine-readable
// reason. Batch results report the reason per item.
type PreconditionError struct {
	Code   string
	Detail string
}

func Precondition(code, format string, args ...any) error {
	return &PreconditionError{Code: code, Detail: fmt.Sprintf(format, args...)}
}

func (e *PreconditionError) Error() string {
	if e.Detail == "" {
		return "precondition failed: " + e.Code
	}
	return "precondition failed: " + e.Code + ": " + e.Detail
}

func (e *PreconditionError) Reason() string {
	return e.Code
}

func (e *PreconditionError) Is(target error) bool {
	return target == ErrPreconditionFailed
}

// ReasonOf returns the precondition code carried by err, or "".
func ReasonOf(err error) string {
	var pe *PreconditionError
	if errors.As(err, &pe) {
		return pe.Code
	}
	return ""
}
