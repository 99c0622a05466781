package boarding

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/cmlabs-hris/boarding-backend-go/internal/domain/approval"
	"github.com/cmlabs-hris/boarding-backend-go/internal/domain/audit"
	"github.com/cmlabs-hris/boarding-backend-go/internal/domain/boarding"
	"github.com/cmlabs-hris/boarding-backend-go/internal/domain/recruitment"
	"github.com/cmlabs-hris/boarding-backend-go/internal/domain/staff"
	"github.com/cmlabs-hris/boarding-backend-go/internal/pkg/batch"
	"github.com/cmlabs-hris/boarding-backend-go/internal/pkg/codegen"
	"github.com/cmlabs-hris/boarding-backend-go/internal/pkg/database"
	"github.com/cmlabs-hris/boarding-backend-go/internal/pkg/validator"
)

type Config struct {
	CodegenMaxAttempts int
}

// Dependencies groups the collaborators of the boarding service.
type Dependencies struct {
	Tx         database.TxManager
	Requests   boarding.BoardingRepository
	Responses  boarding.OfferResponseRepository
	Batches    boarding.BatchRepository
	Staff      staff.StaffRepository
	Tickets    recruitment.TicketRepository
	Candidates recruitment.CandidateRepository
	Templates  recruitment.TemplateRepository
	PayGrades  recruitment.PayGradeRepository
	Offices    recruitment.OfficeRepository
	Approvals  approval.Submitter
	Audit      audit.Recorder
	Notifier   boarding.Notifier
}

type BoardingServiceImpl struct {
	Dependencies
	codes *codegen.Generator
	cfg   Config
	now   func() time.Time
}

func NewBoardingService(deps Dependencies, cfg Config) boarding.BoardingService {
	if cfg.CodegenMaxAttempts < 1 {
		cfg.CodegenMaxAttempts = 5
	}
	return &BoardingServiceImpl{
		Dependencies: deps,
		codes:        codegen.NewGenerator(deps.Staff),
		cfg:          cfg,
		now:          time.Now,
	}
}

// IssueOffer implements boarding.BoardingService. Each offer commits on its
// own; in a bulk call earlier offers stay visible even if later ones fail.
func (s *BoardingServiceImpl) IssueOffer(ctx context.Context, req boarding.IssueOfferRequest) (boarding.BoardingRequest, error) {
	proposed, err := req.Validate()
	if err != nil {
		return boarding.BoardingRequest{}, err
	}

	var (
		created   boarding.BoardingRequest
		candidate recruitment.Candidate
	)
	err = s.Tx.WithinTx(ctx, func(ctx context.Context) error {
		ticket, err := s.Tickets.GetByID(ctx, req.TicketID)
		if err != nil {
			return notFound(err, recruitment.ErrTicketNotFound, boarding.ReasonTicketNotFound, req.TicketID)
		}

		candidate, err = s.Candidates.GetByID(ctx, req.CandidateID)
		if err != nil {
			return notFound(err, recruitment.ErrCandidateNotFound, boarding.ReasonCandidateNotFound, req.CandidateID)
		}

		if _, err := s.PayGrades.GetByID(ctx, req.PayGradeID); err != nil {
			return notFound(err, recruitment.ErrPayGradeNotFound, boarding.ReasonPayGradeNotFound, req.PayGradeID)
		}

		exists, err := s.Requests.ExistsActive(ctx, req.CandidateID, req.TicketID)
		if err != nil {
			return fmt.Errorf("failed to check active boarding request: %w", err)
		}
		if exists {
			return boarding.Precondition(boarding.ReasonDuplicateActiveOffer, "candidate %s already has an active offer on ticket %s", req.CandidateID, req.TicketID)
		}

		tmpl, err := s.Templates.FindActiveTemplate(ctx, ticket.ClientID, ticket.JobStructureID, req.PayGradeID)
		if err != nil {
			if errors.Is(err, recruitment.ErrTemplateNotFound) {
				return boarding.Precondition(boarding.ReasonNoTemplateFound, "no active template for pay grade %s", req.PayGradeID)
			}
			return fmt.Errorf("failed to find offer template: %w", err)
		}
		if req.OfferTemplateID != nil && *req.OfferTemplateID != tmpl.ID {
			return boarding.Precondition(boarding.ReasonNoTemplateFound, "template %s is not the active template", *req.OfferTemplateID)
		}

		now := s.now()
		r := boarding.BoardingRequest{
			CandidateID:       req.CandidateID,
			ClientID:          ticket.ClientID,
			TicketID:          ticket.ID,
			PayGradeID:        req.PayGradeID,
			OfferTemplateID:   tmpl.ID,
			ProposedStartDate: proposed,
			CreatedBy:         req.ActorID,
			CreatedAt:         now,
		}
		if err := r.TransitionTo(boarding.StatusOfferSent, now); err != nil {
			return err
		}

		created, err = s.Requests.Create(ctx, r)
		if err != nil {
			if errors.Is(err, boarding.ErrDuplicateActive) {
				return boarding.Precondition(boarding.ReasonDuplicateActiveOffer, "candidate %s already has an active offer on ticket %s", req.CandidateID, req.TicketID)
			}
			return fmt.Errorf("failed to create boarding request: %w", err)
		}

		return s.record(ctx, audit.EntityBoardingRequest, created.ID, "offer_issued", "", string(created.Status), req.ActorID, map[string]any{
			"candidate_id":      created.CandidateID,
			"ticket_id":         created.TicketID,
			"offer_template_id": created.OfferTemplateID,
		})
	})
	if err != nil {
		return boarding.BoardingRequest{}, err
	}

	slog.Info("Offer issued", "boarding_request_id", created.ID, "candidate_id", created.CandidateID, "ticket_id", created.TicketID)

	if s.Notifier != nil {
		if err := s.Notifier.OfferSent(ctx, candidate, created); err != nil {
			slog.Warn("Failed to notify candidate of offer", "boarding_request_id", created.ID, "error", err)
		}
	}
	return created, nil
}

// BulkIssueOffers implements boarding.BoardingService.
func (s *BoardingServiceImpl) BulkIssueOffers(ctx context.Context, req boarding.BulkIssueOffersRequest) (batch.Result[boarding.IssueOfferRequest], error) {
	return batch.Run(ctx, req.Offers, func(ctx context.Context, offer boarding.IssueOfferRequest) error {
		offer.ActorID = req.ActorID
		_, err := s.IssueOffer(ctx, offer)
		return err
	})
}

// ImportOffers implements boarding.BoardingService. Each row is an
// already-normalized field map from the spreadsheet parser.
func (s *BoardingServiceImpl) ImportOffers(ctx context.Context, req boarding.ImportOffersRequest) (batch.Result[boarding.ImportRow], error) {
	rows := make([]boarding.ImportRow, len(req.Rows))
	for i, fields := range req.Rows {
		// Row numbers are 1-based and skip the header row.
		rows[i] = boarding.ImportRow{Row: i + 2, Fields: fields}
	}

	return batch.Run(ctx, rows, func(ctx context.Context, row boarding.ImportRow) error {
		offer := boarding.IssueOfferRequest{
			CandidateID: row.Fields["candidate_id"],
			TicketID:    row.Fields["ticket_id"],
			PayGradeID:  row.Fields["pay_grade_id"],
			ActorID:     req.ActorID,
		}
		if offer.TicketID == "" {
			offer.TicketID = req.TicketID
		}
		if v := row.Fields["offer_template_id"]; v != "" {
			offer.OfferTemplateID = &v
		}
		if v := row.Fields["proposed_start_date"]; v != "" {
			offer.ProposedStartDate = &v
		}

		_, err := s.IssueOffer(ctx, offer)
		return err
	})
}

// RecordAcceptance implements boarding.BoardingService.
func (s *BoardingServiceImpl) RecordAcceptance(ctx context.Context, req boarding.RecordResponseRequest) (boarding.BoardingRequest, error) {
	return s.recordResponse(ctx, req, boarding.ResponseAccepted, boarding.StatusOfferAccepted, "offer_accepted")
}

// RecordDecline implements boarding.BoardingService.
func (s *BoardingServiceImpl) RecordDecline(ctx context.Context, req boarding.RecordResponseRequest) (boarding.BoardingRequest, error) {
	return s.recordResponse(ctx, req, boarding.ResponseDeclined, boarding.StatusRejected, "offer_declined")
}

// recordResponse stores the response as kind. A request that names a
// different response type is rejected rather than overridden.
func (s *BoardingServiceImpl) recordResponse(ctx context.Context, req boarding.RecordResponseRequest, kind boarding.ResponseType, to boarding.Status, action string) (boarding.BoardingRequest, error) {
	if req.ResponseType == "" {
		req.ResponseType = kind
	}
	preferred, err := req.Validate()
	if err != nil {
		return boarding.BoardingRequest{}, err
	}
	if req.ResponseType != kind {
		var errs validator.ValidationErrors
		errs.Add("response_type", fmt.Sprintf("response_type must be %s", kind))
		return boarding.BoardingRequest{}, errs
	}

	var updated boarding.BoardingRequest
	err = s.Tx.WithinTx(ctx, func(ctx context.Context) error {
		r, err := s.Requests.GetForUpdate(ctx, req.ID)
		if err != nil {
			return err
		}
		if r.Status != boarding.StatusOfferSent {
			return boarding.Precondition(boarding.ReasonInvalidState, "request is %s, expected %s", r.Status, boarding.StatusOfferSent)
		}

		now := s.now()
		from := r.Status
		if err := r.TransitionTo(to, now); err != nil {
			return err
		}

		resp, err := s.Responses.Create(ctx, boarding.OfferResponse{
			BoardingRequestID:    r.ID,
			ResponseType:         req.ResponseType,
			PreferredStartDate:   preferred,
			UpdatedCandidateInfo: req.UpdatedCandidateInfo,
			CandidateMessage:     req.CandidateMessage,
			RespondedAt:          now,
		})
		if err != nil {
			return fmt.Errorf("failed to store offer response: %w", err)
		}

		if err := s.Requests.Update(ctx, r); err != nil {
			return fmt.Errorf("failed to update boarding request: %w", err)
		}

		updated = r
		return s.record(ctx, audit.EntityBoardingRequest, r.ID, action, string(from), string(r.Status), req.ActorID, map[string]any{
			"offer_response_id": resp.ID,
		})
	})
	if err != nil {
		return boarding.BoardingRequest{}, err
	}
	return updated, nil
}

// Cancel implements boarding.BoardingService.
func (s *BoardingServiceImpl) Cancel(ctx context.Context, req boarding.CancelRequest) (boarding.BoardingRequest, error) {
	if err := req.Validate(); err != nil {
		return boarding.BoardingRequest{}, err
	}

	var updated boarding.BoardingRequest
	err := s.Tx.WithinTx(ctx, func(ctx context.Context) error {
		r, err := s.Requests.GetForUpdate(ctx, req.ID)
		if err != nil {
			return err
		}

		from := r.Status
		if err := r.TransitionTo(boarding.StatusCancelled, s.now()); err != nil {
			return err
		}
		r.CancellationReason = &req.Reason

		if err := s.Requests.Update(ctx, r); err != nil {
			return fmt.Errorf("failed to update boarding request: %w", err)
		}

		updated = r
		return s.record(ctx, audit.EntityBoardingRequest, r.ID, "cancelled", string(from), string(r.Status), req.ActorID, map[string]any{
			"reason": req.Reason,
		})
	})
	if err != nil {
		return boarding.BoardingRequest{}, err
	}
	return updated, nil
}

// Get implements boarding.BoardingService.
func (s *BoardingServiceImpl) Get(ctx context.Context, id string) (boarding.BoardingRequest, error) {
	return s.Requests.GetByID(ctx, id)
}

// List implements boarding.BoardingService.
func (s *BoardingServiceImpl) List(ctx context.Context, filter boarding.ListFilter) ([]boarding.BoardingRequest, error) {
	if err := filter.Normalize(); err != nil {
		return nil, err
	}
	return s.Requests.List(ctx, filter)
}

func (s *BoardingServiceImpl) record(ctx context.Context, entityType audit.EntityType, id, action, from, to, actorID string, metadata map[string]any) error {
	entry := audit.Entry{
		EntityType: entityType,
		EntityID:   id,
		Action:     action,
		FromStatus: from,
		ToStatus:   to,
		ActorID:    actorID,
		Metadata:   metadata,
		CreatedAt:  s.now(),
	}
	if err := s.Audit.Record(ctx, entry); err != nil {
		return fmt.Errorf("failed to record audit entry: %w", err)
	}
	return nil
}

// notFound turns a lookup miss into a per-item precondition failure and
// wraps anything else as a storage error.
func notFound(err, sentinel error, reason, id string) error {
	if errors.Is(err, sentinel) {
		return boarding.Precondition(reason, "%s", id)
	}
	return fmt.Errorf("lookup %s: %w", id, err)
}
