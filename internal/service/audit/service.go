package audit

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/cmlabs-hris/boarding-backend-go/internal/domain/audit"
	"github.com/cmlabs-hris/boarding-backend-go/internal/pkg/validator"
)

type AuditServiceImpl struct {
	repo audit.Repository
	now  func() time.Time
}

func NewAuditService(repo audit.Repository) audit.AuditService {
	return &AuditServiceImpl{repo: repo, now: time.Now}
}

// Record implements audit.AuditService.
func (s *AuditServiceImpl) Record(ctx context.Context, entry audit.Entry) error {
	var errs validator.ValidationErrors
	if !entry.EntityType.IsValid() {
		errs.Add("entity_type", "entity_type is invalid")
	}
	if validator.IsEmpty(entry.EntityID) {
		errs.Add("entity_id", "entity_id is required")
	}
	if validator.IsEmpty(entry.Action) {
		errs.Add("action", "action is required")
	}
	if validator.IsEmpty(entry.ActorID) {
		errs.Add("actor_id", "actor_id is required")
	}
	if err := errs.OrNil(); err != nil {
		return err
	}

	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = s.now()
	}

	if _, err := s.repo.Append(ctx, entry); err != nil {
		return fmt.Errorf("failed to append audit entry: %w", err)
	}

	slog.Debug("Audit entry recorded",
		"entity_type", entry.EntityType,
		"entity_id", entry.EntityID,
		"action", entry.Action,
		"from", entry.FromStatus,
		"to", entry.ToStatus,
	)
	return nil
}

// ListForEntity implements audit.AuditService. Display order is newest first.
func (s *AuditServiceImpl) ListForEntity(ctx context.Context, entityType audit.EntityType, entityID string, order audit.Order) ([]audit.Entry, error) {
	if !entityType.IsValid() {
		return nil, audit.ErrInvalidEntityType
	}
	if order != audit.OrderAsc {
		order = audit.OrderDesc
	}

	entries, err := s.repo.ListByEntity(ctx, entityType, entityID, order)
	if err != nil {
		return nil, fmt.Errorf("failed to list audit entries: %w", err)
	}
	return entries, nil
}

// Replay implements audit.AuditService. It walks the entity's transitions in
// the order they were written and checks that each one starts where the
// previous one ended.
func (s *AuditServiceImpl) Replay(ctx context.Context, entityType audit.EntityType, entityID string) (audit.ReplayResult, error) {
	entries, err := s.ListForEntity(ctx, entityType, entityID, audit.OrderAsc)
	if err != nil {
		return audit.ReplayResult{}, err
	}
	if len(entries) == 0 {
		return audit.ReplayResult{}, audit.ErrNoEntries
	}

	result := audit.ReplayResult{
		EntityType: entityType,
		EntityID:   entityID,
		Entries:    len(entries),
	}

	current := ""
	for i, e := range entries {
		if !e.IsTransition() {
			continue
		}
		if e.FromStatus != current {
			return result, fmt.Errorf("%w: entry %d (%s) starts at %q but entity was %q",
				audit.ErrBrokenChain, i, e.Action, e.FromStatus, current)
		}
		current = e.ToStatus
		result.Transitions++
	}

	result.FinalStatus = current
	return result, nil
}
