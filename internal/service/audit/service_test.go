package audit

import (
	"context"
	"fmt"
	"slices"
	"sync"
	"testing"

	"github.com/cmlabs-hris/boarding-backend-go/internal/domain/audit"
	"github.com/cmlabs-hris/boarding-backend-go/internal/pkg/validator"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type memoryRepo struct {
	mu      sync.Mutex
	entries []audit.Entry
}

func (r *memoryRepo) Append(_ context.Context, e audit.Entry) (audit.Entry, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	e.ID = fmt.Sprintf("entry-%d", len(r.entries)+1)
	r.entries = append(r.entries, e)
	return e, nil
}

func (r *memoryRepo) ListByEntity(_ context.Context, t audit.EntityType, id string, order audit.Order) ([]audit.Entry, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []audit.Entry
	for _, e := range r.entries {
		if e.EntityType == t && e.EntityID == id {
			out = append(out, e)
		}
	}
	if order == audit.OrderDesc {
		slices.Reverse(out)
	}
	return out, nil
}

func record(t *testing.T, svc audit.AuditService, action, from, to string) {
	t.Helper()
	require.NoError(t, svc.Record(context.Background(), audit.Entry{
		EntityType: audit.EntityBoardingRequest,
		EntityID:   "req-1",
		Action:     action,
		FromStatus: from,
		ToStatus:   to,
		ActorID:    "user-1",
	}))
}

func TestAuditService_Record_Validation(t *testing.T) {
	svc := NewAuditService(&memoryRepo{})

	err := svc.Record(context.Background(), audit.Entry{EntityType: "invoice"})

	var verrs validator.ValidationErrors
	require.ErrorAs(t, err, &verrs)
	m := verrs.ToMap()
	assert.Contains(t, m, "entity_type")
	assert.Contains(t, m, "entity_id")
	assert.Contains(t, m, "action")
	assert.Contains(t, m, "actor_id")
}

func TestAuditService_ListForEntity_Order(t *testing.T) {
	svc := NewAuditService(&memoryRepo{})
	record(t, svc, "offer_issued", "", "offer_sent")
	record(t, svc, "offer_accepted", "offer_sent", "offer_accepted")

	asc, err := svc.ListForEntity(context.Background(), audit.EntityBoardingRequest, "req-1", audit.OrderAsc)
	require.NoError(t, err)
	require.Len(t, asc, 2)
	assert.Equal(t, "offer_issued", asc[0].Action)

	desc, err := svc.ListForEntity(context.Background(), audit.EntityBoardingRequest, "req-1", "")
	require.NoError(t, err)
	require.Len(t, desc, 2)
	assert.Equal(t, "offer_accepted", desc[0].Action)

	_, err = svc.ListForEntity(context.Background(), "invoice", "req-1", audit.OrderAsc)
	assert.ErrorIs(t, err, audit.ErrInvalidEntityType)
}

func TestAuditService_Replay(t *testing.T) {
	svc := NewAuditService(&memoryRepo{})
	record(t, svc, "offer_issued", "", "offer_sent")
	record(t, svc, "note", "", "")
	record(t, svc, "offer_accepted", "offer_sent", "offer_accepted")
	record(t, svc, "onboarded", "offer_accepted", "onboarded")

	result, err := svc.Replay(context.Background(), audit.EntityBoardingRequest, "req-1")
	require.NoError(t, err)
	assert.Equal(t, 4, result.Entries)
	assert.Equal(t, 3, result.Transitions)
	assert.Equal(t, "onboarded", result.FinalStatus)
}

func TestAuditService_Replay_BrokenChain(t *testing.T) {
	svc := NewAuditService(&memoryRepo{})
	record(t, svc, "offer_issued", "", "offer_sent")
	record(t, svc, "onboarded", "offer_accepted", "onboarded")

	_, err := svc.Replay(context.Background(), audit.EntityBoardingRequest, "req-1")
	assert.ErrorIs(t, err, audit.ErrBrokenChain)
}

func TestAuditService_Replay_NoEntries(t *testing.T) {
	svc := NewAuditService(&memoryRepo{})
	_, err := svc.Replay(context.Background(), audit.EntityApprovalRequest, "missing")
	assert.ErrorIs(t, err, audit.ErrNoEntries)
}
