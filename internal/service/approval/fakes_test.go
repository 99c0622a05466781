package approval

import (
	"cmp"
	"context"
	"fmt"
	"maps"
	"slices"
	"sync"
	"time"

	"github.com/cmlabs-hris/boarding-backend-go/internal/domain/approval"
	"github.com/cmlabs-hris/boarding-backend-go/internal/domain/audit"
)

// store keeps approval state in memory. The fake transaction manager
// snapshots it on entry and restores it when fn fails.
type store struct {
	mu          sync.Mutex
	seq         int
	requests    map[string]approval.ApprovalRequest
	history     []approval.HistoryEntry
	delegations map[string]approval.Delegation
	audit       []audit.Entry
}

func newStore() *store {
	return &store{
		requests:    make(map[string]approval.ApprovalRequest),
		delegations: make(map[string]approval.Delegation),
	}
}

type snapshot struct {
	seq         int
	requests    map[string]approval.ApprovalRequest
	history     []approval.HistoryEntry
	delegations map[string]approval.Delegation
	audit       []audit.Entry
}

func (s *store) snapshot() snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return snapshot{
		seq:         s.seq,
		requests:    maps.Clone(s.requests),
		history:     slices.Clone(s.history),
		delegations: maps.Clone(s.delegations),
		audit:       slices.Clone(s.audit),
	}
}

func (s *store) restore(snap snapshot) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.seq = snap.seq
	s.requests = snap.requests
	s.history = snap.history
	s.delegations = snap.delegations
	s.audit = snap.audit
}

func (s *store) nextID(prefix string) string {
	s.seq++
	return fmt.Sprintf("%s-%d", prefix, s.seq)
}

type fakeTx struct {
	store *store
}

func (f fakeTx) WithinTx(ctx context.Context, fn func(ctx context.Context) error) error {
	snap := f.store.snapshot()
	if err := fn(ctx); err != nil {
		f.store.restore(snap)
		return err
	}
	return nil
}

type approvalRepo struct{ *store }

func (r approvalRepo) Create(_ context.Context, req approval.ApprovalRequest) (approval.ApprovalRequest, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	req.ID = r.nextID("apr")
	req.ApproverIDs = slices.Clone(req.ApproverIDs)
	r.requests[req.ID] = req
	return req, nil
}

func (r approvalRepo) GetByID(_ context.Context, id string) (approval.ApprovalRequest, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	req, ok := r.requests[id]
	if !ok {
		return approval.ApprovalRequest{}, approval.ErrApprovalNotFound
	}
	return req, nil
}

func (r approvalRepo) GetForUpdate(ctx context.Context, id string) (approval.ApprovalRequest, error) {
	return r.GetByID(ctx, id)
}

func (r approvalRepo) Update(_ context.Context, req approval.ApprovalRequest) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.requests[req.ID]; !ok {
		return approval.ErrApprovalNotFound
	}
	r.requests[req.ID] = req
	return nil
}

func (r approvalRepo) ExistsPending(_ context.Context, a approval.Approvable) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, req := range r.requests {
		if req.Approvable == a && req.Status == approval.StatusPending {
			return true, nil
		}
	}
	return false, nil
}

func (r approvalRepo) filter(keep func(approval.ApprovalRequest) bool) []approval.ApprovalRequest {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]approval.ApprovalRequest, 0)
	for _, req := range r.requests {
		if keep(req) {
			out = append(out, req)
		}
	}
	slices.SortFunc(out, func(a, b approval.ApprovalRequest) int { return cmp.Compare(a.ID, b.ID) })
	return out
}

func (r approvalRepo) FindPendingFor(_ context.Context, approverID string) ([]approval.ApprovalRequest, error) {
	return r.filter(func(req approval.ApprovalRequest) bool {
		return req.Status == approval.StatusPending && req.CurrentApproverID == approverID
	}), nil
}

func (r approvalRepo) FindSubmittedBy(_ context.Context, requesterID string) ([]approval.ApprovalRequest, error) {
	return r.filter(func(req approval.ApprovalRequest) bool { return req.RequestedBy == requesterID }), nil
}

func (r approvalRepo) FindDelegatedTo(_ context.Context, delegateID string, at time.Time) ([]approval.ApprovalRequest, error) {
	r.mu.Lock()
	delegators := map[string]bool{}
	for _, d := range r.delegations {
		if d.DelegateID == delegateID && d.IsValidAt(at) {
			delegators[d.DelegatorID] = true
		}
	}
	r.mu.Unlock()

	return r.filter(func(req approval.ApprovalRequest) bool {
		return req.Status == approval.StatusPending &&
			req.CurrentApproverID != req.RequestedBy &&
			req.RequestedBy != delegateID &&
			delegators[req.CurrentApproverID]
	}), nil
}

func (r approvalRepo) AppendHistory(_ context.Context, e approval.HistoryEntry) (approval.HistoryEntry, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	e.ID = r.nextID("hist")
	r.history = append(r.history, e)
	return e, nil
}

func (r approvalRepo) ListHistory(_ context.Context, requestID string) ([]approval.HistoryEntry, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []approval.HistoryEntry
	for _, e := range r.history {
		if e.ApprovalRequestID == requestID {
			out = append(out, e)
		}
	}
	return out, nil
}

type delegationRepo struct{ *store }

func (r delegationRepo) Create(_ context.Context, d approval.Delegation) (approval.Delegation, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	d.ID = r.nextID("del")
	r.delegations[d.ID] = d
	return d, nil
}

func (r delegationRepo) GetByID(_ context.Context, id string) (approval.Delegation, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	d, ok := r.delegations[id]
	if !ok {
		return approval.Delegation{}, approval.ErrDelegationNotFound
	}
	return d, nil
}

func (r delegationRepo) Deactivate(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	d, ok := r.delegations[id]
	if !ok {
		return approval.ErrDelegationNotFound
	}
	d.Active = false
	r.delegations[id] = d
	return nil
}

func (r delegationRepo) IsDelegate(_ context.Context, delegatorID, delegateID string, at time.Time) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, d := range r.delegations {
		if d.DelegatorID == delegatorID && d.DelegateID == delegateID && d.IsValidAt(at) {
			return true, nil
		}
	}
	return false, nil
}

type auditRecorder struct{ *store }

func (r auditRecorder) Record(_ context.Context, e audit.Entry) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.audit = append(r.audit, e)
	return nil
}

// recordingHandler captures decision hook calls.
type recordingHandler struct {
	mu        sync.Mutex
	decisions []approval.ApprovalRequest
	err       error
}

func (h *recordingHandler) Load(_ context.Context, id string) (approval.Summary, error) {
	return approval.Summary{Kind: approval.KindBoardingBatch, ID: id, Title: "Onboarding batch"}, nil
}

func (h *recordingHandler) OnDecision(_ context.Context, req approval.ApprovalRequest, _ string) (*approval.Completion, error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.decisions = append(h.decisions, req)
	return &approval.Completion{SuccessCount: 2}, h.err
}
