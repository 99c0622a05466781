package boarding

import (
	"cmp"
	"context"
	"maps"
	"slices"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/cmlabs-hris/boarding-backend-go/internal/domain/approval"
	"github.com/cmlabs-hris/boarding-backend-go/internal/domain/audit"
	"github.com/cmlabs-hris/boarding-backend-go/internal/domain/boarding"
	"github.com/cmlabs-hris/boarding-backend-go/internal/domain/recruitment"
	"github.com/cmlabs-hris/boarding-backend-go/internal/domain/staff"
	"github.com/cmlabs-hris/boarding-backend-go/internal/pkg/codegen"
	"github.com/google/uuid"
)

// world is an in-memory database. Recruitment data is read-only seed data;
// everything the service writes is snapshotted by fakeTx and restored when
// the transaction function fails.
type world struct {
	mu sync.Mutex

	tickets    map[string]recruitment.Ticket
	candidates map[string]recruitment.Candidate
	profiles   map[string]recruitment.CandidateProfile
	locations  map[string]string
	templates  []recruitment.OfferTemplate
	payGrades  map[string]recruitment.PayGrade
	offices    map[string]string

	requests  map[string]boarding.BoardingRequest
	responses []boarding.OfferResponse
	batches   map[string]boarding.Batch
	staff     map[string]staff.Staff
	sections  map[string]map[staff.Section]bool
	banking   map[string]recruitment.BankingInfo
	audit     []audit.Entry

	// Not rolled back: these model other writers and outside systems.
	conflicts int
	submitted []approval.SubmitRequest
	submitErr error
	notified  []string
	notifyErr error
	listErr   error
}

func newWorld() *world {
	return &world{
		tickets:    make(map[string]recruitment.Ticket),
		candidates: make(map[string]recruitment.Candidate),
		profiles:   make(map[string]recruitment.CandidateProfile),
		locations:  make(map[string]string),
		payGrades:  make(map[string]recruitment.PayGrade),
		offices:    make(map[string]string),
		requests:   make(map[string]boarding.BoardingRequest),
		batches:    make(map[string]boarding.Batch),
		staff:      make(map[string]staff.Staff),
		sections:   make(map[string]map[staff.Section]bool),
		banking:    make(map[string]recruitment.BankingInfo),
	}
}

type worldSnapshot struct {
	requests  map[string]boarding.BoardingRequest
	responses []boarding.OfferResponse
	batches   map[string]boarding.Batch
	staff     map[string]staff.Staff
	sections  map[string]map[staff.Section]bool
	banking   map[string]recruitment.BankingInfo
	audit     []audit.Entry
}

func (w *world) snapshot() worldSnapshot {
	w.mu.Lock()
	defer w.mu.Unlock()
	sections := make(map[string]map[staff.Section]bool, len(w.sections))
	for k, v := range w.sections {
		sections[k] = maps.Clone(v)
	}
	return worldSnapshot{
		requests:  maps.Clone(w.requests),
		responses: slices.Clone(w.responses),
		batches:   maps.Clone(w.batches),
		staff:     maps.Clone(w.staff),
		sections:  sections,
		banking:   maps.Clone(w.banking),
		audit:     slices.Clone(w.audit),
	}
}

func (w *world) restore(s worldSnapshot) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.requests = s.requests
	w.responses = s.responses
	w.batches = s.batches
	w.staff = s.staff
	w.sections = s.sections
	w.banking = s.banking
	w.audit = s.audit
}

type fakeTx struct{ w *world }

func (f fakeTx) WithinTx(ctx context.Context, fn func(ctx context.Context) error) error {
	snap := f.w.snapshot()
	if err := fn(ctx); err != nil {
		f.w.restore(snap)
		return err
	}
	return nil
}

type requestRepo struct{ *world }

func (r requestRepo) Create(_ context.Context, req boarding.BoardingRequest) (boarding.BoardingRequest, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, existing := range r.requests {
		if existing.CandidateID == req.CandidateID && existing.TicketID == req.TicketID && existing.Status.IsActive() {
			return boarding.BoardingRequest{}, boarding.ErrDuplicateActive
		}
	}
	req.ID = uuid.NewString()
	r.requests[req.ID] = req
	return req, nil
}

func (r requestRepo) GetByID(_ context.Context, id string) (boarding.BoardingRequest, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	req, ok := r.requests[id]
	if !ok {
		return boarding.BoardingRequest{}, boarding.ErrBoardingRequestNotFound
	}
	return req, nil
}

func (r requestRepo) GetForUpdate(ctx context.Context, id string) (boarding.BoardingRequest, error) {
	return r.GetByID(ctx, id)
}

func (r requestRepo) ExistsActive(_ context.Context, candidateID, ticketID string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, req := range r.requests {
		if req.CandidateID == candidateID && req.TicketID == ticketID && req.Status.IsActive() {
			return true, nil
		}
	}
	return false, nil
}

func (r requestRepo) Update(_ context.Context, req boarding.BoardingRequest) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.requests[req.ID]; !ok {
		return boarding.ErrBoardingRequestNotFound
	}
	r.requests[req.ID] = req
	return nil
}

func (r requestRepo) List(_ context.Context, f boarding.ListFilter) ([]boarding.BoardingRequest, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]boarding.BoardingRequest, 0)
	for _, req := range r.requests {
		if f.TicketID != "" && req.TicketID != f.TicketID {
			continue
		}
		if f.Status != "" && req.Status != f.Status {
			continue
		}
		if f.BatchID != "" && (req.BatchID == nil || *req.BatchID != f.BatchID) {
			continue
		}
		out = append(out, req)
	}
	slices.SortFunc(out, func(a, b boarding.BoardingRequest) int {
		return cmp.Or(a.CreatedAt.Compare(b.CreatedAt), cmp.Compare(a.ID, b.ID))
	})
	if f.Offset >= len(out) {
		return []boarding.BoardingRequest{}, nil
	}
	out = out[f.Offset:]
	if len(out) > f.Limit {
		out = out[:f.Limit]
	}
	return out, nil
}

func (r requestRepo) ListByBatch(ctx context.Context, batchID string) ([]boarding.BoardingRequest, error) {
	r.mu.Lock()
	err := r.listErr
	r.mu.Unlock()
	if err != nil {
		return nil, err
	}
	return r.List(ctx, boarding.ListFilter{BatchID: batchID, Limit: 1000})
}

func (r requestRepo) AssignBatch(_ context.Context, batchID string, ids []string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, id := range ids {
		req, ok := r.requests[id]
		if !ok {
			return boarding.ErrBoardingRequestNotFound
		}
		b := batchID
		req.BatchID = &b
		r.requests[id] = req
	}
	return nil
}

func (r requestRepo) ClearBatch(_ context.Context, batchID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for id, req := range r.requests {
		if req.BatchID != nil && *req.BatchID == batchID {
			req.BatchID = nil
			r.requests[id] = req
		}
	}
	return nil
}

type responseRepo struct{ *world }

func (r responseRepo) Create(_ context.Context, resp boarding.OfferResponse) (boarding.OfferResponse, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	resp.ID = uuid.NewString()
	r.responses = append(r.responses, resp)
	return resp, nil
}

func (r responseRepo) LatestAccepted(_ context.Context, boardingRequestID string) (boarding.OfferResponse, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, resp := range slices.Backward(r.responses) {
		if resp.BoardingRequestID == boardingRequestID && resp.ResponseType == boarding.ResponseAccepted {
			return resp, nil
		}
	}
	return boarding.OfferResponse{}, boarding.ErrResponseNotFound
}

type batchRepo struct{ *world }

func (r batchRepo) Create(_ context.Context, b boarding.Batch) (boarding.Batch, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	b.ID = uuid.NewString()
	r.batches[b.ID] = b
	return b, nil
}

func (r batchRepo) GetByID(_ context.Context, id string) (boarding.Batch, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	b, ok := r.batches[id]
	if !ok {
		return boarding.Batch{}, boarding.ErrBatchNotFound
	}
	return b, nil
}

func (r batchRepo) GetForUpdate(ctx context.Context, id string) (boarding.Batch, error) {
	return r.GetByID(ctx, id)
}

func (r batchRepo) UpdateStatus(_ context.Context, b boarding.Batch) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.batches[b.ID]; !ok {
		return boarding.ErrBatchNotFound
	}
	r.batches[b.ID] = b
	return nil
}

type staffRepo struct{ *world }

func (r staffRepo) FindMaxCodeWithPrefix(_ context.Context, field codegen.Field, prefix, scope string) (string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	best, bestN := "", uint64(0)
	for _, s := range r.staff {
		code := s.EmployeeCode
		if field == codegen.FieldStaffID {
			code = s.StaffID
		}
		if scope != "" && s.ClientID != scope {
			continue
		}
		suffix, ok := strings.CutPrefix(code, prefix)
		if !ok {
			continue
		}
		n, err := strconv.ParseUint(suffix, 10, 64)
		if err != nil {
			continue
		}
		if best == "" || n > bestN {
			best, bestN = code, n
		}
	}
	return best, nil
}

func (r staffRepo) FindActiveByCandidateAndClient(_ context.Context, candidateID, clientID string) (staff.Staff, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, s := range r.staff {
		if s.CandidateID != nil && *s.CandidateID == candidateID && s.ClientID == clientID && s.Status == staff.StatusActive {
			return s, nil
		}
	}
	return staff.Staff{}, staff.ErrStaffNotFound
}

func (r staffRepo) Create(_ context.Context, s staff.Staff) (staff.Staff, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.conflicts > 0 {
		r.conflicts--
		return staff.Staff{}, codegen.ErrCodeConflict
	}
	for _, existing := range r.staff {
		if existing.EmployeeCode == s.EmployeeCode || existing.StaffID == s.StaffID {
			return staff.Staff{}, codegen.ErrCodeConflict
		}
		if existing.CandidateID != nil && s.CandidateID != nil && *existing.CandidateID == *s.CandidateID &&
			existing.ClientID == s.ClientID && existing.Status == staff.StatusActive {
			return staff.Staff{}, staff.ErrAlreadyActive
		}
	}
	s.ID = uuid.NewString()
	r.staff[s.ID] = s
	return s, nil
}

func (r staffRepo) GetByID(_ context.Context, id string) (staff.Staff, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.staff[id]
	if !ok {
		return staff.Staff{}, staff.ErrStaffNotFound
	}
	return s, nil
}

func (r staffRepo) HasProfileData(_ context.Context, staffRecordID string, section staff.Section) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.sections[staffRecordID][section], nil
}

func (r staffRepo) mark(staffRecordID string, section staff.Section) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.sections[staffRecordID] == nil {
		r.sections[staffRecordID] = make(map[staff.Section]bool)
	}
	r.sections[staffRecordID][section] = true
}

func (r staffRepo) SavePersonalInfo(_ context.Context, id string, _ recruitment.PersonalInfo) error {
	r.mark(id, staff.SectionPersonalInfo)
	return nil
}

func (r staffRepo) SaveEmergencyContacts(_ context.Context, id string, _ []recruitment.EmergencyContact) error {
	r.mark(id, staff.SectionEmergencyContacts)
	return nil
}

func (r staffRepo) SaveExperiences(_ context.Context, id string, _ []recruitment.Experience) error {
	r.mark(id, staff.SectionExperiences)
	return nil
}

func (r staffRepo) SaveEducation(_ context.Context, id string, _ []recruitment.Education) error {
	r.mark(id, staff.SectionEducation)
	return nil
}

func (r staffRepo) SaveBanking(_ context.Context, id string, b recruitment.BankingInfo) error {
	r.mark(id, staff.SectionBanking)
	r.mu.Lock()
	defer r.mu.Unlock()
	r.banking[id] = b
	return nil
}

func (r staffRepo) SaveLegalIDs(_ context.Context, id string, _ []recruitment.LegalID) error {
	r.mark(id, staff.SectionLegalIDs)
	return nil
}

type ticketRepo struct{ *world }

func (r ticketRepo) GetByID(_ context.Context, id string) (recruitment.Ticket, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	t, ok := r.tickets[id]
	if !ok {
		return recruitment.Ticket{}, recruitment.ErrTicketNotFound
	}
	return t, nil
}

type candidateRepo struct{ *world }

func (r candidateRepo) GetByID(_ context.Context, id string) (recruitment.Candidate, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	c, ok := r.candidates[id]
	if !ok {
		return recruitment.Candidate{}, recruitment.ErrCandidateNotFound
	}
	return c, nil
}

func (r candidateRepo) GetProfile(_ context.Context, id string) (recruitment.CandidateProfile, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	c, ok := r.candidates[id]
	if !ok {
		return recruitment.CandidateProfile{}, recruitment.ErrCandidateNotFound
	}
	p, ok := r.profiles[id]
	if !ok {
		p = recruitment.CandidateProfile{PersonalInfo: recruitment.PersonalInfo{FullName: c.FullName, Email: c.Email}}
	}
	return p, nil
}

func (r candidateRepo) GetApplicationLocation(_ context.Context, candidateID, ticketID string) (*string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	loc, ok := r.locations[candidateID+"/"+ticketID]
	if !ok {
		return nil, nil
	}
	return &loc, nil
}

type templateRepo struct{ *world }

func (r templateRepo) FindActiveTemplate(_ context.Context, clientID, jobStructureID, payGradeID string) (recruitment.OfferTemplate, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, t := range r.templates {
		if t.IsActive && t.ClientID == clientID && t.JobStructureID == jobStructureID && t.PayGradeID == payGradeID {
			return t, nil
		}
	}
	return recruitment.OfferTemplate{}, recruitment.ErrTemplateNotFound
}

type payGradeRepo struct{ *world }

func (r payGradeRepo) GetByID(_ context.Context, id string) (recruitment.PayGrade, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.payGrades[id]
	if !ok {
		return recruitment.PayGrade{}, recruitment.ErrPayGradeNotFound
	}
	return p, nil
}

type officeRepo struct{ *world }

func (r officeRepo) FindByServiceLocation(_ context.Context, clientID, locationID string) (string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	id, ok := r.offices[clientID+"/"+locationID]
	if !ok {
		return "", recruitment.ErrOfficeNotFound
	}
	return id, nil
}

type submitter struct{ *world }

func (s submitter) Submit(_ context.Context, req approval.SubmitRequest) (approval.ApprovalRequest, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.submitErr != nil {
		return approval.ApprovalRequest{}, s.submitErr
	}
	s.submitted = append(s.submitted, req)
	return approval.ApprovalRequest{
		ID:                uuid.NewString(),
		Approvable:        req.Approvable,
		Status:            approval.StatusPending,
		CurrentLevel:      1,
		TotalLevels:       req.TotalLevels,
		ApproverIDs:       req.ApproverIDs,
		CurrentApproverID: req.ApproverIDs[0],
		RequestedBy:       req.RequesterID,
	}, nil
}

type auditRecorder struct{ *world }

func (r auditRecorder) Record(_ context.Context, e audit.Entry) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.audit = append(r.audit, e)
	return nil
}

type notifier struct{ *world }

func (n notifier) OfferSent(_ context.Context, c recruitment.Candidate, _ boarding.BoardingRequest) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.notified = append(n.notified, "offer:"+c.ID)
	return n.notifyErr
}

func (n notifier) Onboarded(_ context.Context, c recruitment.Candidate, _ staff.Staff) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.notified = append(n.notified, "onboarded:"+c.ID)
	return n.notifyErr
}

func (w *world) auditFor(entityID string) []audit.Entry {
	w.mu.Lock()
	defer w.mu.Unlock()
	var out []audit.Entry
	for _, e := range w.audit {
		if e.EntityID == entityID {
			out = append(out, e)
		}
	}
	return out
}

func date(s string) *time.Time {
	d, err := time.Parse(time.DateOnly, s)
	if err != nil {
		panic(err)
	}
	return &d
}
