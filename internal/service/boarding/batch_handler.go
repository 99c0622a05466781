package boarding

import (
	"context"
	"fmt"
	"time"

	"github.com/cmlabs-hris/boarding-backend-go/internal/domain/approval"
	"github.com/cmlabs-hris/boarding-backend-go/internal/domain/audit"
	"github.com/cmlabs-hris/boarding-backend-go/internal/domain/boarding"
	"github.com/cmlabs-hris/boarding-backend-go/internal/pkg/batch"
)

// BatchApprovalHandler resolves boarding batches for the approval engine.
type BatchApprovalHandler struct {
	deps Dependencies
	svc  boarding.BoardingService
	now  func() time.Time
}

func NewBatchApprovalHandler(deps Dependencies, svc boarding.BoardingService) *BatchApprovalHandler {
	return &BatchApprovalHandler{deps: deps, svc: svc, now: time.Now}
}

func (h *BatchApprovalHandler) Load(ctx context.Context, id string) (approval.Summary, error) {
	b, err := h.deps.Batches.GetByID(ctx, id)
	if err != nil {
		return approval.Summary{}, err
	}
	return approval.Summary{
		Kind:  approval.KindBoardingBatch,
		ID:    b.ID,
		Title: fmt.Sprintf("Onboarding batch of %d candidates", b.ItemCount),
		Details: map[string]any{
			"ticket_id":  b.TicketID,
			"client_id":  b.ClientID,
			"source":     b.Source,
			"status":     b.Status,
			"item_count": b.ItemCount,
		},
	}, nil
}

// OnDecision boards the batch on approval. On rejection or cancellation the
// batch is closed and its requests are released for resubmission. Running it
// again for an approved batch that was not completed only retries the
// boarding.
func (h *BatchApprovalHandler) OnDecision(ctx context.Context, req approval.ApprovalRequest, actorID string) (*approval.Completion, error) {
	batchID := req.Approvable.ID

	switch req.Status {
	case approval.StatusApproved:
		b, err := h.deps.Batches.GetByID(ctx, batchID)
		if err != nil {
			return nil, err
		}
		if b.Status != boarding.BatchApproved {
			if err := h.moveBatch(ctx, batchID, actorID, boarding.BatchApproved, "approved", nil); err != nil {
				return nil, err
			}
		}
		result, err := h.svc.CompleteBatch(ctx, batchID, actorID)
		if err != nil {
			return nil, err
		}
		return completionOf(result), nil

	case approval.StatusRejected, approval.StatusCancelled:
		release := func(ctx context.Context, b boarding.Batch) error {
			if err := h.deps.Requests.ClearBatch(ctx, b.ID); err != nil {
				return fmt.Errorf("failed to release batch requests: %w", err)
			}
			return nil
		}
		return nil, h.moveBatch(ctx, batchID, actorID, boarding.BatchRejected, "closed", release)
	}

	return nil, fmt.Errorf("%w: batch decision on %s request", approval.ErrInvalidTransition, req.Status)
}

func (h *BatchApprovalHandler) moveBatch(ctx context.Context, batchID, actorID string, to boarding.BatchStatus, action string, after func(context.Context, boarding.Batch) error) error {
	return h.deps.Tx.WithinTx(ctx, func(ctx context.Context) error {
		b, err := h.deps.Batches.GetForUpdate(ctx, batchID)
		if err != nil {
			return err
		}

		now := h.now()
		from := b.Status
		if err := b.TransitionTo(to, now); err != nil {
			return err
		}
		if err := h.deps.Batches.UpdateStatus(ctx, b); err != nil {
			return fmt.Errorf("failed to update batch: %w", err)
		}
		if after != nil {
			if err := after(ctx, b); err != nil {
				return err
			}
		}

		if err := h.deps.Audit.Record(ctx, audit.Entry{
			EntityType: audit.EntityBoardingBatch,
			EntityID:   b.ID,
			Action:     action,
			FromStatus: string(from),
			ToStatus:   string(b.Status),
			ActorID:    actorID,
			CreatedAt:  now,
		}); err != nil {
			return fmt.Errorf("failed to record audit entry: %w", err)
		}
		return nil
	})
}

func completionOf(r batch.Result[string]) *approval.Completion {
	c := &approval.Completion{
		SuccessCount: r.SuccessCount,
		Failures:     make([]approval.CompletionFailure, 0, len(r.Failures)),
	}
	for _, f := range r.Failures {
		c.Failures = append(c.Failures, approval.CompletionFailure{ItemID: f.Item, Reason: f.Reason})
	}
	return c
}

var _ approval.KindHandler = (*BatchApprovalHandler)(nil)
