package response

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/cmlabs-hris/boarding-backend-go/internal/domain/approval"
	"github.com/cmlabs-hris/boarding-backend-go/internal/domain/audit"
	"github.com/cmlabs-hris/boarding-backend-go/internal/domain/auth"
	"github.com/cmlabs-hris/boarding-backend-go/internal/domain/boarding"
	"github.com/cmlabs-hris/boarding-backend-go/internal/domain/recruitment"
	"github.com/cmlabs-hris/boarding-backend-go/internal/domain/staff"
	"github.com/cmlabs-hris/boarding-backend-go/internal/pkg/spreadsheet"
	"github.com/cmlabs-hris/boarding-backend-go/internal/pkg/validator"
)

// HandleError maps domain errors to HTTP responses
func HandleError(w http.ResponseWriter, err error) {
	// Check if it's a validation error
	var validationErrs validator.ValidationErrors
	if errors.As(err, &validationErrs) {
		ValidationError(w, validationErrs.ToMap())
		return
	}

	var precondition *boarding.PreconditionError
	if errors.As(err, &precondition) {
		PreconditionFailed(w, precondition.Code, precondition.Error())
		return
	}

	switch {
	// Auth errors
	case errors.Is(err, auth.ErrInvalidToken), errors.Is(err, auth.ErrActorMissing):
		Unauthorized(w, err.Error())
	case errors.Is(err, auth.ErrAdminPrivilegeRequired):
		Forbidden(w, "Admin privilege required")

	// Boarding domain errors
	case errors.Is(err, boarding.ErrBoardingRequestNotFound):
		NotFound(w, "Boarding request not found")
	case errors.Is(err, boarding.ErrBatchNotFound):
		NotFound(w, "Boarding batch not found")
	case errors.Is(err, boarding.ErrDuplicateActive):
		Conflict(w, "An active boarding request already exists for this candidate and ticket")
	case errors.Is(err, staff.ErrAlreadyActive):
		Conflict(w, "Candidate already has an active staff record")
	case errors.Is(err, staff.ErrStaffNotFound):
		NotFound(w, "Staff record not found")

	// Recruitment read models
	case errors.Is(err, recruitment.ErrTicketNotFound):
		NotFound(w, "Recruitment ticket not found")
	case errors.Is(err, recruitment.ErrCandidateNotFound):
		NotFound(w, "Candidate not found")

	// Approval domain errors
	case errors.Is(err, approval.ErrApprovalNotFound):
		NotFound(w, "Approval request not found")
	case errors.Is(err, approval.ErrDelegationNotFound):
		NotFound(w, "Delegation not found")
	case errors.Is(err, approval.ErrUnauthorized):
		Forbidden(w, "You are not the current approver or a valid delegate")
	case errors.Is(err, approval.ErrInvalidTransition):
		Conflict(w, "Approval request is no longer pending")
	case errors.Is(err, approval.ErrDuplicateApproval):
		Conflict(w, "An approval request for this entity is already pending")
	case errors.Is(err, approval.ErrSameApprover):
		Conflict(w, "Target is already the current approver")
	case errors.Is(err, approval.ErrReasonRequired),
		errors.Is(err, approval.ErrTargetRequired),
		errors.Is(err, approval.ErrCommentRequired),
		errors.Is(err, approval.ErrInvalidApproverChain):
		UnprocessableEntity(w, err.Error())
	case errors.Is(err, approval.ErrUnknownKind), errors.Is(err, approval.ErrUnknownAction):
		BadRequest(w, err.Error(), nil)

	// Audit trail
	case errors.Is(err, audit.ErrNoEntries):
		NotFound(w, "No audit entries for this entity")
	case errors.Is(err, audit.ErrInvalidEntityType):
		BadRequest(w, "Invalid entity type", nil)
	case errors.Is(err, audit.ErrBrokenChain):
		Conflict(w, err.Error())

	// Uploads
	case errors.Is(err, spreadsheet.ErrNoData), errors.Is(err, spreadsheet.ErrMissingColumn):
		BadRequest(w, err.Error(), nil)

	// Default
	default:
		slog.Error("Unhandled error", "error", err)
		InternalServerError(w, "An unexpected error occurred")
	}
}
