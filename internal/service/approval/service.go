package approval

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/cmlabs-hris/boarding-backend-go/internal/domain/approval"
	"github.com/cmlabs-hris/boarding-backend-go/internal/domain/audit"
	"github.com/cmlabs-hris/boarding-backend-go/internal/pkg/batch"
	"github.com/cmlabs-hris/boarding-backend-go/internal/pkg/database"
	"golang.org/x/sync/errgroup"
)

type Config struct {
	DueDays int
}

type ApprovalServiceImpl struct {
	tx          database.TxManager
	repo        approval.ApprovalRepository
	delegations approval.DelegationRepository
	registry    *approval.Registry
	audit       audit.Recorder
	cfg         Config
	now         func() time.Time
}

func NewApprovalService(
	tx database.TxManager,
	repo approval.ApprovalRepository,
	delegations approval.DelegationRepository,
	registry *approval.Registry,
	auditRecorder audit.Recorder,
	cfg Config,
) approval.ApprovalService {
	return &ApprovalServiceImpl{
		tx:          tx,
		repo:        repo,
		delegations: delegations,
		registry:    registry,
		audit:       auditRecorder,
		cfg:         cfg,
		now:         time.Now,
	}
}

// Submit implements approval.ApprovalService.
func (s *ApprovalServiceImpl) Submit(ctx context.Context, req approval.SubmitRequest) (approval.ApprovalRequest, error) {
	due, err := req.Validate()
	if err != nil {
		return approval.ApprovalRequest{}, err
	}
	if _, ok := s.registry.Handler(req.Approvable.Kind); !ok {
		return approval.ApprovalRequest{}, fmt.Errorf("%w: %s", approval.ErrUnknownKind, req.Approvable.Kind)
	}

	now := s.now()
	r := approval.ApprovalRequest{
		Approvable:  req.Approvable,
		TotalLevels: req.TotalLevels,
		ApproverIDs: req.ApproverIDs,
		RequestedBy: req.RequesterID,
		Priority:    req.Priority,
		DueDate:     due,
	}
	if r.DueDate == nil && s.cfg.DueDays > 0 {
		d := now.AddDate(0, 0, s.cfg.DueDays).Truncate(24 * time.Hour)
		r.DueDate = &d
	}

	var created approval.ApprovalRequest
	err = s.tx.WithinTx(ctx, func(ctx context.Context) error {
		exists, err := s.repo.ExistsPending(ctx, req.Approvable)
		if err != nil {
			return fmt.Errorf("failed to check pending approval: %w", err)
		}
		if exists {
			return approval.ErrDuplicateApproval
		}

		entry, err := r.Apply(approval.Event{
			Action:  approval.ActionSubmitted,
			ActorID: req.RequesterID,
			Comment: req.Comments,
			At:      now,
		})
		if err != nil {
			return err
		}

		created, err = s.repo.Create(ctx, r)
		if err != nil {
			return fmt.Errorf("failed to create approval request: %w", err)
		}

		entry.ApprovalRequestID = created.ID
		return s.appendHistory(ctx, entry)
	})
	if err != nil {
		return approval.ApprovalRequest{}, err
	}

	slog.Info("Approval request submitted",
		"approval_id", created.ID,
		"kind", created.Approvable.Kind,
		"approvable_id", created.Approvable.ID,
		"total_levels", created.TotalLevels,
		"approver_id", created.CurrentApproverID,
	)
	return created, nil
}

// Approve implements approval.ApprovalService.
func (s *ApprovalServiceImpl) Approve(ctx context.Context, req approval.ApproveRequest) (approval.Decision, error) {
	updated, err := s.act(ctx, req.ID, approval.Event{
		Action:  approval.ActionApproved,
		ActorID: req.ActorID,
		Comment: req.Comment,
	}, s.authorizeApprover)
	if err != nil {
		return approval.Decision{}, err
	}
	return s.decide(ctx, updated, req.ActorID)
}

// Reject implements approval.ApprovalService.
func (s *ApprovalServiceImpl) Reject(ctx context.Context, req approval.RejectRequest) (approval.Decision, error) {
	if err := req.Validate(); err != nil {
		return approval.Decision{}, err
	}
	updated, err := s.act(ctx, req.ID, approval.Event{
		Action:  approval.ActionRejected,
		ActorID: req.ActorID,
		Reason:  req.Reason,
		Comment: req.Comment,
	}, s.authorizeApprover)
	if err != nil {
		return approval.Decision{}, err
	}
	return s.decide(ctx, updated, req.ActorID)
}

// Escalate implements approval.ApprovalService.
func (s *ApprovalServiceImpl) Escalate(ctx context.Context, req approval.EscalateRequest) (approval.ApprovalRequest, error) {
	if err := req.Validate(); err != nil {
		return approval.ApprovalRequest{}, err
	}
	return s.act(ctx, req.ID, approval.Event{
		Action:   approval.ActionEscalated,
		ActorID:  req.ActorID,
		Reason:   req.Reason,
		TargetID: req.TargetID,
	}, s.authorizeApprover)
}

// AddComment implements approval.ApprovalService. Anyone who may act on the
// request, or its requester, may comment.
func (s *ApprovalServiceImpl) AddComment(ctx context.Context, req approval.CommentRequest) (approval.HistoryEntry, error) {
	if err := req.Validate(); err != nil {
		return approval.HistoryEntry{}, err
	}

	var entry approval.HistoryEntry
	err := s.tx.WithinTx(ctx, func(ctx context.Context) error {
		r, err := s.repo.GetForUpdate(ctx, req.ID)
		if err != nil {
			return err
		}
		if r.Status != approval.StatusPending {
			return approval.ErrInvalidTransition
		}
		if r.RequestedBy != req.ActorID {
			if err := s.authorizeApprover(ctx, r, req.ActorID); err != nil {
				return err
			}
		}

		entry, err = r.Apply(approval.Event{
			Action:  approval.ActionComment,
			ActorID: req.ActorID,
			Comment: req.Comment,
			At:      s.now(),
		})
		if err != nil {
			return err
		}

		entry, err = s.repo.AppendHistory(ctx, entry)
		if err != nil {
			return fmt.Errorf("failed to append approval history: %w", err)
		}
		return nil
	})
	return entry, err
}

// Cancel implements approval.ApprovalService. Only the requester may cancel.
func (s *ApprovalServiceImpl) Cancel(ctx context.Context, req approval.CancelRequest) (approval.Decision, error) {
	updated, err := s.act(ctx, req.ID, approval.Event{
		Action:  approval.ActionCancelled,
		ActorID: req.ActorID,
		Reason:  req.Reason,
	}, func(_ context.Context, r approval.ApprovalRequest, actorID string) error {
		if r.RequestedBy != actorID {
			return approval.ErrUnauthorized
		}
		return nil
	})
	if err != nil {
		return approval.Decision{}, err
	}
	return s.decide(ctx, updated, req.ActorID)
}

// Reassign implements approval.ApprovalService. Callers are expected to have
// checked the actor's administrative role.
func (s *ApprovalServiceImpl) Reassign(ctx context.Context, req approval.ReassignRequest) (approval.ApprovalRequest, error) {
	if err := req.Validate(); err != nil {
		return approval.ApprovalRequest{}, err
	}
	return s.act(ctx, req.ID, approval.Event{
		Action:   approval.ActionReassigned,
		ActorID:  req.ActorID,
		Reason:   req.Reason,
		TargetID: req.TargetID,
	}, func(context.Context, approval.ApprovalRequest, string) error { return nil })
}

// BulkApprove implements approval.ApprovalService. A failing decision hook
// does not count against an item whose approval was committed.
func (s *ApprovalServiceImpl) BulkApprove(ctx context.Context, req approval.BulkApproveRequest) (batch.Result[string], error) {
	return batch.Run(ctx, req.IDs, func(ctx context.Context, id string) error {
		_, err := s.Approve(ctx, approval.ApproveRequest{ID: id, ActorID: req.ActorID, Comment: req.Comment})
		if errors.Is(err, approval.ErrDecisionHookFailed) {
			return nil
		}
		return err
	})
}

// BulkReject implements approval.ApprovalService.
func (s *ApprovalServiceImpl) BulkReject(ctx context.Context, req approval.BulkRejectRequest) (batch.Result[string], error) {
	if err := req.Validate(); err != nil {
		return batch.Result[string]{}, err
	}
	return batch.Run(ctx, req.IDs, func(ctx context.Context, id string) error {
		_, err := s.Reject(ctx, approval.RejectRequest{ID: id, ActorID: req.ActorID, Reason: req.Reason})
		if errors.Is(err, approval.ErrDecisionHookFailed) {
			return nil
		}
		return err
	})
}

// Get implements approval.ApprovalService.
func (s *ApprovalServiceImpl) Get(ctx context.Context, id string) (approval.RequestDetail, error) {
	r, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return approval.RequestDetail{}, err
	}

	detail := approval.RequestDetail{ApprovalRequest: r}
	summary, err := s.registry.Load(ctx, r.Approvable)
	if err != nil {
		slog.Warn("Failed to load approvable summary", "approval_id", id, "kind", r.Approvable.Kind, "error", err)
	} else {
		detail.Summary = &summary
	}
	return detail, nil
}

// History implements approval.ApprovalService.
func (s *ApprovalServiceImpl) History(ctx context.Context, id string) ([]approval.HistoryEntry, error) {
	if _, err := s.repo.GetByID(ctx, id); err != nil {
		return nil, err
	}
	return s.repo.ListHistory(ctx, id)
}

// ListDelegated implements approval.ApprovalService.
func (s *ApprovalServiceImpl) ListDelegated(ctx context.Context, actorID string) ([]approval.ApprovalRequest, error) {
	return s.repo.FindDelegatedTo(ctx, actorID, s.now())
}

// Inbox implements approval.ApprovalService.
func (s *ApprovalServiceImpl) Inbox(ctx context.Context, actorID string) (approval.Inbox, error) {
	var inbox approval.Inbox
	now := s.now()

	g, gCtx := errgroup.WithContext(ctx)

	g.Go(func() error {
		data, err := s.repo.FindPendingFor(gCtx, actorID)
		if err != nil {
			return fmt.Errorf("pending for approver: %w", err)
		}
		inbox.PendingForMe = data
		return nil
	})

	g.Go(func() error {
		data, err := s.repo.FindSubmittedBy(gCtx, actorID)
		if err != nil {
			return fmt.Errorf("submitted by requester: %w", err)
		}
		inbox.SubmittedByMe = data
		return nil
	})

	g.Go(func() error {
		data, err := s.repo.FindDelegatedTo(gCtx, actorID, now)
		if err != nil {
			return fmt.Errorf("delegated to user: %w", err)
		}
		inbox.DelegatedToMe = data
		return nil
	})

	if err := g.Wait(); err != nil {
		return approval.Inbox{}, err
	}
	return inbox, nil
}

// GrantDelegation implements approval.ApprovalService.
func (s *ApprovalServiceImpl) GrantDelegation(ctx context.Context, req approval.GrantDelegationRequest) (approval.Delegation, error) {
	now := s.now()
	from, until, err := req.Validate(now)
	if err != nil {
		return approval.Delegation{}, err
	}

	d, err := s.delegations.Create(ctx, approval.Delegation{
		DelegatorID: req.DelegatorID,
		DelegateID:  req.DelegateID,
		ValidFrom:   from,
		ValidUntil:  until,
		Active:      true,
	})
	if err != nil {
		return approval.Delegation{}, fmt.Errorf("failed to create delegation: %w", err)
	}

	slog.Info("Delegation granted", "delegation_id", d.ID, "delegator_id", d.DelegatorID, "delegate_id", d.DelegateID)
	return d, nil
}

// RevokeDelegation implements approval.ApprovalService. Only the delegator may
// revoke.
func (s *ApprovalServiceImpl) RevokeDelegation(ctx context.Context, id, actorID string) error {
	return s.tx.WithinTx(ctx, func(ctx context.Context) error {
		d, err := s.delegations.GetByID(ctx, id)
		if err != nil {
			return err
		}
		if d.DelegatorID != actorID {
			return approval.ErrUnauthorized
		}
		return s.delegations.Deactivate(ctx, id)
	})
}

type authorizeFunc func(ctx context.Context, r approval.ApprovalRequest, actorID string) error

// act loads and locks the request, authorizes the actor, applies ev and
// stores the result with its history entry in one transaction.
func (s *ApprovalServiceImpl) act(ctx context.Context, id string, ev approval.Event, authorize authorizeFunc) (approval.ApprovalRequest, error) {
	var updated approval.ApprovalRequest
	err := s.tx.WithinTx(ctx, func(ctx context.Context) error {
		r, err := s.repo.GetForUpdate(ctx, id)
		if err != nil {
			return err
		}
		if r.Status != approval.StatusPending {
			return approval.ErrInvalidTransition
		}
		if err := authorize(ctx, r, ev.ActorID); err != nil {
			return err
		}

		ev.At = s.now()
		entry, err := r.Apply(ev)
		if err != nil {
			return err
		}

		if err := s.repo.Update(ctx, r); err != nil {
			return fmt.Errorf("failed to update approval request: %w", err)
		}
		if err := s.appendHistory(ctx, entry); err != nil {
			return err
		}

		updated = r
		return nil
	})
	if err != nil {
		return approval.ApprovalRequest{}, err
	}

	slog.Info("Approval action applied",
		"approval_id", updated.ID,
		"action", ev.Action,
		"actor_id", ev.ActorID,
		"status", updated.Status,
		"level", updated.CurrentLevel,
	)
	return updated, nil
}

// authorizeApprover accepts the current approver or anyone holding a valid
// delegation from them.
func (s *ApprovalServiceImpl) authorizeApprover(ctx context.Context, r approval.ApprovalRequest, actorID string) error {
	if actorID == "" {
		return approval.ErrUnauthorized
	}
	if r.CurrentApproverID == actorID {
		return nil
	}
	ok, err := s.delegations.IsDelegate(ctx, r.CurrentApproverID, actorID, s.now())
	if err != nil {
		return fmt.Errorf("failed to check delegation: %w", err)
	}
	if !ok {
		return approval.ErrUnauthorized
	}
	return nil
}

func (s *ApprovalServiceImpl) appendHistory(ctx context.Context, entry approval.HistoryEntry) error {
	if _, err := s.repo.AppendHistory(ctx, entry); err != nil {
		return fmt.Errorf("failed to append approval history: %w", err)
	}
	return s.audit.Record(ctx, audit.Entry{
		EntityType: audit.EntityApprovalRequest,
		EntityID:   entry.ApprovalRequestID,
		Action:     string(entry.Action),
		FromStatus: string(entry.FromStatus),
		ToStatus:   string(entry.ToStatus),
		ActorID:    entry.ActorID,
		Metadata:   map[string]any{"level": entry.Level},
		CreatedAt:  entry.CreatedAt,
	})
}

// decide runs the approvable's decision hook once the request is final. A
// hook failure does not undo the committed decision; it is returned alongside
// the decided request.
func (s *ApprovalServiceImpl) decide(ctx context.Context, r approval.ApprovalRequest, actorID string) (approval.Decision, error) {
	decision := approval.Decision{Request: r}
	if !r.Status.IsFinal() {
		return decision, nil
	}

	h, ok := s.registry.Handler(r.Approvable.Kind)
	if !ok {
		return decision, nil
	}

	completion, err := h.OnDecision(ctx, r, actorID)
	decision.Completion = completion
	if err != nil {
		slog.Error("Approval decision hook failed",
			"approval_id", r.ID,
			"kind", r.Approvable.Kind,
			"status", r.Status,
			"error", err,
		)
		return decision, errors.Join(approval.ErrDecisionHookFailed, err)
	}
	return decision, nil
}
