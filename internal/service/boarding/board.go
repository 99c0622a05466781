package boarding

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/cmlabs-hris/boarding-backend-go/internal/domain/audit"
	"github.com/cmlabs-hris/boarding-backend-go/internal/domain/boarding"
	"github.com/cmlabs-hris/boarding-backend-go/internal/domain/recruitment"
	"github.com/cmlabs-hris/boarding-backend-go/internal/domain/staff"
	"github.com/cmlabs-hris/boarding-backend-go/internal/pkg/batch"
	"github.com/cmlabs-hris/boarding-backend-go/internal/pkg/codegen"
)

// Board implements boarding.BoardingService. The whole conversion runs in one
// transaction; a code collision rolls it back and starts over with fresh
// codes.
func (s *BoardingServiceImpl) Board(ctx context.Context, req boarding.BoardRequest) (boarding.BoardResult, error) {
	if req.Method == "" {
		req.Method = staff.MethodFromCandidate
	}

	var (
		result    boarding.BoardResult
		candidate recruitment.Candidate
	)
	err := codegen.WithRetry(ctx, s.cfg.CodegenMaxAttempts, func(ctx context.Context, attempt int) error {
		return s.Tx.WithinTx(ctx, func(ctx context.Context) error {
			var err error
			result, candidate, err = s.board(ctx, req)
			return err
		})
	})
	if err != nil {
		if errors.Is(err, codegen.ErrAttemptsExhausted) {
			return boarding.BoardResult{}, boarding.Precondition(boarding.ReasonCodeGenerationExhausted, "%v", err)
		}
		return boarding.BoardResult{}, err
	}

	slog.Info("Candidate onboarded",
		"boarding_request_id", result.Request.ID,
		"staff_record_id", result.Staff.ID,
		"employee_code", result.Staff.EmployeeCode,
		"staff_id", result.Staff.StaffID,
	)

	if s.Notifier != nil {
		if err := s.Notifier.Onboarded(ctx, candidate, result.Staff); err != nil {
			slog.Warn("Failed to notify onboarded candidate", "staff_record_id", result.Staff.ID, "error", err)
		}
	}
	return result, nil
}

func (s *BoardingServiceImpl) board(ctx context.Context, req boarding.BoardRequest) (boarding.BoardResult, recruitment.Candidate, error) {
	var none boarding.BoardResult

	r, err := s.Requests.GetForUpdate(ctx, req.ID)
	if err != nil {
		return none, recruitment.Candidate{}, err
	}
	if !r.CanBeBoarded() {
		return none, recruitment.Candidate{}, boarding.Precondition(boarding.ReasonInvalidState, "request is %s, expected %s", r.Status, boarding.StatusOfferAccepted)
	}
	if r.BatchID != nil {
		b, err := s.Batches.GetByID(ctx, *r.BatchID)
		if err != nil {
			return none, recruitment.Candidate{}, fmt.Errorf("failed to load boarding batch: %w", err)
		}
		if b.Status != boarding.BatchApproved && b.Status != boarding.BatchCompleted {
			return none, recruitment.Candidate{}, boarding.Precondition(boarding.ReasonAwaitingBatchApproval, "request is in batch %s which is %s", b.ID, b.Status)
		}
	}

	ticket, err := s.Tickets.GetByID(ctx, r.TicketID)
	if err != nil {
		return none, recruitment.Candidate{}, notFound(err, recruitment.ErrTicketNotFound, boarding.ReasonTicketNotFound, r.TicketID)
	}

	candidate, err := s.Candidates.GetByID(ctx, r.CandidateID)
	if err != nil {
		return none, recruitment.Candidate{}, notFound(err, recruitment.ErrCandidateNotFound, boarding.ReasonCandidateNotFound, r.CandidateID)
	}

	_, err = s.Staff.FindActiveByCandidateAndClient(ctx, r.CandidateID, r.ClientID)
	switch {
	case err == nil:
		return none, candidate, boarding.Precondition(boarding.ReasonAlreadyStaff, "candidate %s is already active staff", r.CandidateID)
	case !errors.Is(err, staff.ErrStaffNotFound):
		return none, candidate, fmt.Errorf("failed to check existing staff record: %w", err)
	}

	accepted, err := s.Responses.LatestAccepted(ctx, r.ID)
	if err != nil && !errors.Is(err, boarding.ErrResponseNotFound) {
		return none, candidate, fmt.Errorf("failed to load offer response: %w", err)
	}

	payGrade, err := s.PayGrades.GetByID(ctx, r.PayGradeID)
	if err != nil {
		return none, candidate, notFound(err, recruitment.ErrPayGradeNotFound, boarding.ReasonPayGradeNotFound, r.PayGradeID)
	}

	location, err := s.serviceLocation(ctx, r, ticket)
	if err != nil {
		return none, candidate, err
	}
	office, err := s.office(ctx, ticket, location)
	if err != nil {
		return none, candidate, err
	}

	now := s.now()
	staffID, err := s.codes.Generate(ctx, codegen.Sequence{
		Field:  codegen.FieldStaffID,
		Prefix: codegen.StaffIDPrefix(ticket.ClientCode, now),
		Scope:  ticket.ClientID,
		Width:  codegen.StaffIDWidth,
	})
	if err != nil {
		return none, candidate, err
	}
	employeeCode, err := s.codes.Generate(ctx, codegen.Sequence{
		Field:  codegen.FieldEmployeeCode,
		Prefix: codegen.EmployeeCodePrefix(now),
		Width:  codegen.EmployeeCodeWidth,
	})
	if err != nil {
		return none, candidate, err
	}

	candidateID := r.CandidateID
	requestID := r.ID
	record, err := s.Staff.Create(ctx, staff.Staff{
		EmployeeCode:      employeeCode,
		StaffID:           staffID,
		CandidateID:       &candidateID,
		ClientID:          r.ClientID,
		JobStructureID:    ticket.JobStructureID,
		PayGradeID:        r.PayGradeID,
		ServiceLocationID: location,
		OfficeID:          office,
		EntryDate:         entryDate(accepted.PreferredStartDate, r.ProposedStartDate, now),
		BaseSalary:        payGrade.BaseSalary,
		Status:            staff.StatusActive,
		OnboardingMethod:  req.Method,
		BoardingRequestID: &requestID,
		CreatedAt:         now,
	})
	if err != nil {
		if errors.Is(err, staff.ErrAlreadyActive) {
			return none, candidate, boarding.Precondition(boarding.ReasonAlreadyStaff, "candidate %s is already active staff", r.CandidateID)
		}
		return none, candidate, fmt.Errorf("failed to create staff record: %w", err)
	}

	if err := s.copyProfile(ctx, record.ID, r.CandidateID, accepted.UpdatedCandidateInfo); err != nil {
		return none, candidate, err
	}

	from := r.Status
	r.StaffRecordID = &record.ID
	if err := r.TransitionTo(boarding.StatusOnboarded, now); err != nil {
		return none, candidate, err
	}
	if err := s.Requests.Update(ctx, r); err != nil {
		return none, candidate, fmt.Errorf("failed to update boarding request: %w", err)
	}

	if err := s.record(ctx, audit.EntityBoardingRequest, r.ID, "onboarded", string(from), string(r.Status), req.ActorID, map[string]any{
		"staff_record_id": record.ID,
	}); err != nil {
		return none, candidate, err
	}
	if err := s.record(ctx, audit.EntityStaffRecord, record.ID, "created", "", string(record.Status), req.ActorID, map[string]any{
		"boarding_request_id": r.ID,
		"employee_code":       record.EmployeeCode,
		"staff_id":            record.StaffID,
		"onboarding_method":   string(record.OnboardingMethod),
	}); err != nil {
		return none, candidate, err
	}

	return boarding.BoardResult{Request: r, Staff: record}, candidate, nil
}

// BulkBoard implements boarding.BoardingService.
func (s *BoardingServiceImpl) BulkBoard(ctx context.Context, req boarding.BulkBoardRequest) (batch.Result[string], error) {
	return batch.Run(ctx, req.IDs, func(ctx context.Context, id string) error {
		_, err := s.Board(ctx, boarding.BoardRequest{ID: id, ActorID: req.ActorID, Method: req.Method})
		if errors.Is(err, boarding.ErrBoardingRequestNotFound) {
			return boarding.Precondition(boarding.ReasonRequestNotFound, "%s", id)
		}
		return err
	})
}

// serviceLocation prefers the location on the candidate's application over
// the ticket default.
func (s *BoardingServiceImpl) serviceLocation(ctx context.Context, r boarding.BoardingRequest, ticket recruitment.Ticket) (*string, error) {
	location, err := s.Candidates.GetApplicationLocation(ctx, r.CandidateID, r.TicketID)
	if err != nil {
		return nil, fmt.Errorf("failed to load application location: %w", err)
	}
	if location != nil {
		return location, nil
	}
	return ticket.DefaultServiceLocationID, nil
}

func (s *BoardingServiceImpl) office(ctx context.Context, ticket recruitment.Ticket, location *string) (*string, error) {
	if ticket.OfficeID != nil {
		return ticket.OfficeID, nil
	}
	if location == nil {
		return nil, nil
	}

	id, err := s.Offices.FindByServiceLocation(ctx, ticket.ClientID, *location)
	if err != nil {
		if errors.Is(err, recruitment.ErrOfficeNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to resolve office: %w", err)
	}
	return &id, nil
}

// copyProfile copies candidate data onto the staff side. A section that is
// already present is left alone, so a rerun after a partial failure does not
// duplicate rows.
func (s *BoardingServiceImpl) copyProfile(ctx context.Context, staffRecordID, candidateID string, update recruitment.CandidateUpdate) error {
	profile, err := s.Candidates.GetProfile(ctx, candidateID)
	if err != nil {
		return notFound(err, recruitment.ErrCandidateNotFound, boarding.ReasonCandidateNotFound, candidateID)
	}

	tasks := []struct {
		section staff.Section
		skip    bool
		save    func() error
	}{
		{staff.SectionPersonalInfo, false, func() error {
			return s.Staff.SavePersonalInfo(ctx, staffRecordID, profile.PersonalInfo)
		}},
		{staff.SectionEmergencyContacts, len(profile.EmergencyContacts) == 0, func() error {
			return s.Staff.SaveEmergencyContacts(ctx, staffRecordID, profile.EmergencyContacts)
		}},
		{staff.SectionExperiences, len(profile.Experiences) == 0, func() error {
			return s.Staff.SaveExperiences(ctx, staffRecordID, profile.Experiences)
		}},
		{staff.SectionEducation, len(profile.Education) == 0, func() error {
			return s.Staff.SaveEducation(ctx, staffRecordID, profile.Education)
		}},
		{staff.SectionBanking, update.Banking == nil, func() error {
			return s.Staff.SaveBanking(ctx, staffRecordID, *update.Banking)
		}},
		{staff.SectionLegalIDs, len(update.LegalIDs) == 0, func() error {
			return s.Staff.SaveLegalIDs(ctx, staffRecordID, update.LegalIDs)
		}},
	}

	for _, t := range tasks {
		if t.skip {
			continue
		}
		done, err := s.Staff.HasProfileData(ctx, staffRecordID, t.section)
		if err != nil {
			return fmt.Errorf("failed to check %s: %w", t.section, err)
		}
		if done {
			continue
		}
		if err := t.save(); err != nil {
			return fmt.Errorf("failed to copy %s: %w", t.section, err)
		}
	}
	return nil
}

// entryDate picks the candidate's preferred date, then the proposed date,
// then today.
func entryDate(preferred, proposed *time.Time, now time.Time) time.Time {
	switch {
	case preferred != nil:
		return *preferred
	case proposed != nil:
		return *proposed
	}
	y, m, d := now.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
