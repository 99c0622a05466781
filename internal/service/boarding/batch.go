package boarding

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/cmlabs-hris/boarding-backend-go/internal/domain/approval"
	"github.com/cmlabs-hris/boarding-backend-go/internal/domain/audit"
	"github.com/cmlabs-hris/boarding-backend-go/internal/domain/boarding"
	"github.com/cmlabs-hris/boarding-backend-go/internal/domain/recruitment"
	"github.com/cmlabs-hris/boarding-backend-go/internal/domain/staff"
	"github.com/cmlabs-hris/boarding-backend-go/internal/pkg/batch"
)

// SubmitBatch implements boarding.BoardingService. The batch, its item
// assignment and the approval request commit together.
func (s *BoardingServiceImpl) SubmitBatch(ctx context.Context, req boarding.SubmitBatchRequest) (boarding.BatchSubmission, error) {
	if err := req.Validate(); err != nil {
		return boarding.BatchSubmission{}, err
	}
	if req.Source == "" {
		req.Source = boarding.SourceManual
	}

	var out boarding.BatchSubmission
	err := s.Tx.WithinTx(ctx, func(ctx context.Context) error {
		ticket, err := s.Tickets.GetByID(ctx, req.TicketID)
		if err != nil {
			return notFound(err, recruitment.ErrTicketNotFound, boarding.ReasonTicketNotFound, req.TicketID)
		}

		for _, id := range req.RequestIDs {
			r, err := s.Requests.GetForUpdate(ctx, id)
			if err != nil {
				return notFound(err, boarding.ErrBoardingRequestNotFound, boarding.ReasonRequestNotFound, id)
			}
			if r.TicketID != ticket.ID {
				return boarding.Precondition(boarding.ReasonTicketMismatch, "request %s belongs to ticket %s", id, r.TicketID)
			}
			if r.Status != boarding.StatusOfferAccepted {
				return boarding.Precondition(boarding.ReasonInvalidState, "request %s is %s", id, r.Status)
			}
			if r.BatchID != nil {
				return boarding.Precondition(boarding.ReasonAlreadyBatched, "request %s is already in batch %s", id, *r.BatchID)
			}
		}

		now := s.now()
		b := boarding.Batch{
			ClientID:  ticket.ClientID,
			TicketID:  ticket.ID,
			Source:    req.Source,
			ItemCount: len(req.RequestIDs),
			CreatedBy: req.ActorID,
			CreatedAt: now,
		}
		if err := b.TransitionTo(boarding.BatchAwaitingApproval, now); err != nil {
			return err
		}

		b, err = s.Batches.Create(ctx, b)
		if err != nil {
			return fmt.Errorf("failed to create boarding batch: %w", err)
		}
		if err := s.Requests.AssignBatch(ctx, b.ID, req.RequestIDs); err != nil {
			return fmt.Errorf("failed to assign batch: %w", err)
		}

		apr, err := s.Approvals.Submit(ctx, approval.SubmitRequest{
			Approvable:  approval.Approvable{Kind: approval.KindBoardingBatch, ID: b.ID},
			RequesterID: req.ActorID,
			TotalLevels: len(req.ApproverIDs),
			ApproverIDs: req.ApproverIDs,
			Priority:    req.Priority,
			DueDate:     req.DueDate,
			Comments:    req.Comments,
		})
		if err != nil {
			return err
		}

		out = boarding.BatchSubmission{Batch: b, Approval: apr}
		return s.record(ctx, audit.EntityBoardingBatch, b.ID, "submitted", "", string(b.Status), req.ActorID, map[string]any{
			"approval_request_id": apr.ID,
			"item_count":          b.ItemCount,
		})
	})
	if err != nil {
		return boarding.BatchSubmission{}, err
	}

	slog.Info("Boarding batch submitted", "batch_id", out.Batch.ID, "approval_request_id", out.Approval.ID, "item_count", out.Batch.ItemCount)
	return out, nil
}

// CompleteBatch implements boarding.BoardingService. It boards every request
// in an approved batch and marks the batch completed, whatever the per-item
// outcome. Requests already onboarded by an earlier run count as successes.
func (s *BoardingServiceImpl) CompleteBatch(ctx context.Context, batchID, actorID string) (batch.Result[string], error) {
	b, err := s.Batches.GetByID(ctx, batchID)
	if err != nil {
		return batch.Result[string]{}, err
	}
	if b.Status != boarding.BatchApproved {
		return batch.Result[string]{}, boarding.Precondition(boarding.ReasonInvalidState, "batch is %s, expected %s", b.Status, boarding.BatchApproved)
	}

	requests, err := s.Requests.ListByBatch(ctx, batchID)
	if err != nil {
		return batch.Result[string]{}, fmt.Errorf("failed to list batch requests: %w", err)
	}

	result := batch.Result[string]{Failures: make([]batch.Failure[string], 0)}
	ids := make([]string, 0, len(requests))
	done := 0
	for _, r := range requests {
		if r.Status == boarding.StatusOnboarded {
			done++
			continue
		}
		ids = append(ids, r.ID)
	}
	if len(ids) > 0 {
		method := staff.MethodFromCandidate
		if b.Source == boarding.SourceBulkUpload {
			method = staff.MethodBulkUpload
		}

		result, err = s.BulkBoard(ctx, boarding.BulkBoardRequest{IDs: ids, ActorID: actorID, Method: method})
		if err != nil {
			return batch.Result[string]{}, err
		}
	}
	result.Total += done
	result.SuccessCount += done

	err = s.Tx.WithinTx(ctx, func(ctx context.Context) error {
		b, err := s.Batches.GetForUpdate(ctx, batchID)
		if err != nil {
			return err
		}
		from := b.Status
		if err := b.TransitionTo(boarding.BatchCompleted, s.now()); err != nil {
			return err
		}
		if err := s.Batches.UpdateStatus(ctx, b); err != nil {
			return fmt.Errorf("failed to update batch: %w", err)
		}
		return s.record(ctx, audit.EntityBoardingBatch, b.ID, "completed", string(from), string(b.Status), actorID, map[string]any{
			"success_count": result.SuccessCount,
			"failure_count": result.FailureCount(),
		})
	})
	if err != nil {
		return result, err
	}

	slog.Info("Boarding batch completed", "batch_id", batchID, "success_count", result.SuccessCount, "failure_count", result.FailureCount())
	return result, nil
}
