package http

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/cmlabs-hris/boarding-backend-go/internal/config"
	"github.com/cmlabs-hris/boarding-backend-go/internal/domain/approval"
	"github.com/cmlabs-hris/boarding-backend-go/internal/domain/audit"
	"github.com/cmlabs-hris/boarding-backend-go/internal/domain/auth"
	"github.com/cmlabs-hris/boarding-backend-go/internal/domain/boarding"
	"github.com/cmlabs-hris/boarding-backend-go/internal/pkg/batch"
	"github.com/cmlabs-hris/boarding-backend-go/internal/pkg/jwt"
	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

const handlerTestSecret = "test-secret-key-for-jwt"

// Unimplemented methods panic through the nil embedded interface.
type fakeBoardingService struct {
	boarding.BoardingService
	bulkIssue  func(boarding.BulkIssueOffersRequest) (batch.Result[boarding.IssueOfferRequest], error)
	importRows func(boarding.ImportOffersRequest) (batch.Result[boarding.ImportRow], error)
	board      func(boarding.BoardRequest) (boarding.BoardResult, error)
	complete   func(batchID, actorID string) (batch.Result[string], error)
	accepted   []boarding.RecordResponseRequest
	declined   []boarding.RecordResponseRequest
}

func (f *fakeBoardingService) BulkIssueOffers(_ context.Context, req boarding.BulkIssueOffersRequest) (batch.Result[boarding.IssueOfferRequest], error) {
	return f.bulkIssue(req)
}

func (f *fakeBoardingService) ImportOffers(_ context.Context, req boarding.ImportOffersRequest) (batch.Result[boarding.ImportRow], error) {
	return f.importRows(req)
}

func (f *fakeBoardingService) Board(_ context.Context, req boarding.BoardRequest) (boarding.BoardResult, error) {
	return f.board(req)
}

func (f *fakeBoardingService) CompleteBatch(_ context.Context, batchID, actorID string) (batch.Result[string], error) {
	return f.complete(batchID, actorID)
}

func (f *fakeBoardingService) RecordAcceptance(_ context.Context, req boarding.RecordResponseRequest) (boarding.BoardingRequest, error) {
	f.accepted = append(f.accepted, req)
	return boarding.BoardingRequest{ID: req.ID, Status: boarding.StatusOfferAccepted}, nil
}

func (f *fakeBoardingService) RecordDecline(_ context.Context, req boarding.RecordResponseRequest) (boarding.BoardingRequest, error) {
	f.declined = append(f.declined, req)
	return boarding.BoardingRequest{ID: req.ID, Status: boarding.StatusRejected}, nil
}

type fakeApprovalService struct {
	approval.ApprovalService
	approve  func(approval.ApproveRequest) (approval.Decision, error)
	reassign func(approval.ReassignRequest) (approval.ApprovalRequest, error)
}

func (f *fakeApprovalService) Approve(_ context.Context, req approval.ApproveRequest) (approval.Decision, error) {
	return f.approve(req)
}

func (f *fakeApprovalService) Reassign(_ context.Context, req approval.ReassignRequest) (approval.ApprovalRequest, error) {
	return f.reassign(req)
}

type fakeAuditService struct {
	audit.AuditService
	replay func(audit.EntityType, string) (audit.ReplayResult, error)
}

func (f *fakeAuditService) Replay(_ context.Context, entityType audit.EntityType, id string) (audit.ReplayResult, error) {
	return f.replay(entityType, id)
}

type testServer struct {
	router    *chi.Mux
	jwt       jwt.Service
	boarding  *fakeBoardingService
	approvals *fakeApprovalService
	audit     *fakeAuditService
}

func newTestServer() *testServer {
	s := &testServer{
		jwt:       jwt.NewJWTService(handlerTestSecret, "1h"),
		boarding:  &fakeBoardingService{},
		approvals: &fakeApprovalService{},
		audit:     &fakeAuditService{},
	}
	s.router = NewRouter(
		config.AppConfig{Env: "test"},
		s.jwt,
		NewBoardingHandler(s.boarding),
		NewApprovalHandler(s.approvals),
		NewAuditHandler(s.audit),
	)
	return s
}

func (s *testServer) do(t *testing.T, role auth.Role, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()

	var reader *bytes.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	} else {
		reader = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	if role != "" {
		token, _, err := s.jwt.GenerateAccessToken("user-"+string(role), role)
		require.NoError(t, err)
		req.Header.Set("Authorization", "Bearer "+token)
	}

	rec := httptest.NewRecorder()
	s.router.ServeHTTP(rec, req)
	return rec
}

type envelope struct {
	Success bool            `json:"success"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
	Error   *struct {
		Code    string            `json:"code"`
		Message string            `json:"message"`
		Details map[string]string `json:"details"`
	} `json:"error"`
}

func decodeEnvelope(t *testing.T, rec *httptest.ResponseRecorder) envelope {
	t.Helper()
	var env envelope
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &env))
	return env
}

func TestRouter_RequiresToken(t *testing.T) {
	s := newTestServer()

	rec := s.do(t, "", http.MethodGet, "/api/v1/approvals/inbox", nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestRouter_RejectsForeignToken(t *testing.T) {
	s := newTestServer()
	other := jwt.NewJWTService("some-other-secret", "1h")
	token, _, err := other.GenerateAccessToken("intruder", auth.RoleAdmin)
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/approvals/inbox", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rec := httptest.NewRecorder()
	s.router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestIssueOffers_PermissionAndPartialSuccess(t *testing.T) {
	s := newTestServer()
	var got boarding.BulkIssueOffersRequest
	s.boarding.bulkIssue = func(req boarding.BulkIssueOffersRequest) (batch.Result[boarding.IssueOfferRequest], error) {
		got = req
		return batch.Result[boarding.IssueOfferRequest]{
			Total:        2,
			SuccessCount: 1,
			Failures: []batch.Failure[boarding.IssueOfferRequest]{
				{Index: 1, Item: req.Offers[1], Reason: boarding.ReasonDuplicateActiveOffer},
			},
		}, nil
	}

	body := map[string]any{"offers": []map[string]string{
		{"candidate_id": "a", "ticket_id": "t", "pay_grade_id": "p"},
		{"candidate_id": "b", "ticket_id": "t", "pay_grade_id": "p"},
	}}

	rec := s.do(t, auth.RoleApprover, http.MethodPost, "/api/v1/boarding/offers", body)
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec = s.do(t, auth.RoleRecruiter, http.MethodPost, "/api/v1/boarding/offers", body)
	require.Equal(t, http.StatusOK, rec.Code)

	assert.Equal(t, "user-recruiter", got.ActorID)
	for _, offer := range got.Offers {
		assert.Equal(t, "user-recruiter", offer.ActorID)
	}

	env := decodeEnvelope(t, rec)
	var result struct {
		SuccessCount int `json:"success_count"`
		Failures     []struct {
			Index  int    `json:"index"`
			Reason string `json:"reason"`
		} `json:"failures"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &result))
	assert.Equal(t, 1, result.SuccessCount)
	require.Len(t, result.Failures, 1)
	assert.Equal(t, 1, result.Failures[0].Index)
	assert.Equal(t, "duplicate_active_offer", result.Failures[0].Reason)
}

func TestIssueOffers_EmptyBatchIsUnprocessable(t *testing.T) {
	s := newTestServer()
	s.boarding.bulkIssue = func(req boarding.BulkIssueOffersRequest) (batch.Result[boarding.IssueOfferRequest], error) {
		return batch.Run(context.Background(), req.Offers, func(context.Context, boarding.IssueOfferRequest) error { return nil })
	}

	rec := s.do(t, auth.RoleRecruiter, http.MethodPost, "/api/v1/boarding/offers", map[string]any{"offers": []any{}})
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	assert.Equal(t, "VALIDATION_ERROR", decodeEnvelope(t, rec).Error.Code)
}

func TestBoard_PreconditionIsConflictWithReason(t *testing.T) {
	s := newTestServer()
	s.boarding.board = func(req boarding.BoardRequest) (boarding.BoardResult, error) {
		return boarding.BoardResult{}, boarding.Precondition(boarding.ReasonInvalidState, "request %s is offer_sent", req.ID)
	}

	rec := s.do(t, auth.RoleRecruiter, http.MethodPost, "/api/v1/boarding/req-1/board", nil)
	require.Equal(t, http.StatusConflict, rec.Code)

	env := decodeEnvelope(t, rec)
	assert.Equal(t, "PRECONDITION_FAILED", env.Error.Code)
	assert.Equal(t, "invalid_state", env.Error.Details["reason"])
}

func TestRecordResponse_RoutesByType(t *testing.T) {
	s := newTestServer()

	rec := s.do(t, auth.RoleRecruiter, http.MethodPost, "/api/v1/boarding/req-1/responses", map[string]any{"response_type": "declined"})
	require.Equal(t, http.StatusOK, rec.Code)
	rec = s.do(t, auth.RoleRecruiter, http.MethodPost, "/api/v1/boarding/req-2/responses", map[string]any{"response_type": "accepted"})
	require.Equal(t, http.StatusOK, rec.Code)

	require.Len(t, s.boarding.declined, 1)
	assert.Equal(t, "req-1", s.boarding.declined[0].ID)
	require.Len(t, s.boarding.accepted, 1)
	assert.Equal(t, "req-2", s.boarding.accepted[0].ID)
	assert.Equal(t, "user-recruiter", s.boarding.accepted[0].ActorID)
}

func TestRecordResponse_RejectsUnknownType(t *testing.T) {
	s := newTestServer()

	for _, body := range []map[string]any{{"response_type": "declne"}, {}} {
		rec := s.do(t, auth.RoleRecruiter, http.MethodPost, "/api/v1/boarding/req-1/responses", body)
		require.Equal(t, http.StatusUnprocessableEntity, rec.Code)

		env := decodeEnvelope(t, rec)
		assert.Equal(t, "VALIDATION_ERROR", env.Error.Code)
		assert.Contains(t, env.Error.Details, "response_type")
	}

	assert.Empty(t, s.boarding.accepted)
	assert.Empty(t, s.boarding.declined)
}

func TestCompleteBatch_RetriesBoarding(t *testing.T) {
	s := newTestServer()
	var gotBatch, gotActor string
	s.boarding.complete = func(batchID, actorID string) (batch.Result[string], error) {
		gotBatch, gotActor = batchID, actorID
		return batch.Result[string]{Total: 2, SuccessCount: 2, Failures: []batch.Failure[string]{}}, nil
	}

	rec := s.do(t, auth.RoleApprover, http.MethodPost, "/api/v1/boarding/batches/batch-1/complete", nil)
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec = s.do(t, auth.RoleRecruiter, http.MethodPost, "/api/v1/boarding/batches/batch-1/complete", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "batch-1", gotBatch)
	assert.Equal(t, "user-recruiter", gotActor)
	assert.Equal(t, "2 of 2 items succeeded", decodeEnvelope(t, rec).Message)

	s.boarding.complete = func(string, string) (batch.Result[string], error) {
		return batch.Result[string]{}, boarding.Precondition(boarding.ReasonInvalidState, "batch is awaiting_approval, expected approved")
	}
	rec = s.do(t, auth.RoleRecruiter, http.MethodPost, "/api/v1/boarding/batches/batch-1/complete", nil)
	require.Equal(t, http.StatusConflict, rec.Code)
	assert.Equal(t, "invalid_state", decodeEnvelope(t, rec).Error.Details["reason"])
}

func TestImportOffers_ParsesSpreadsheet(t *testing.T) {
	s := newTestServer()
	var got boarding.ImportOffersRequest
	s.boarding.importRows = func(req boarding.ImportOffersRequest) (batch.Result[boarding.ImportRow], error) {
		got = req
		return batch.Result[boarding.ImportRow]{Total: len(req.Rows), SuccessCount: len(req.Rows)}, nil
	}

	f := excelize.NewFile()
	sheet := f.GetSheetName(0)
	require.NoError(t, f.SetSheetRow(sheet, "A1", &[]any{"Candidate ID", "Pay Grade ID"}))
	require.NoError(t, f.SetSheetRow(sheet, "A2", &[]any{"c-1", "pg-1"}))
	xlsx, err := f.WriteToBuffer()
	require.NoError(t, err)

	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	require.NoError(t, mw.WriteField("ticket_id", "ticket-1"))
	part, err := mw.CreateFormFile("file", "offers.xlsx")
	require.NoError(t, err)
	_, err = part.Write(xlsx.Bytes())
	require.NoError(t, err)
	require.NoError(t, mw.Close())

	token, _, err := s.jwt.GenerateAccessToken("recruiter-7", auth.RoleRecruiter)
	require.NoError(t, err)
	req := httptest.NewRequest(http.MethodPost, "/api/v1/boarding/offers/import", &body)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	req.Header.Set("Authorization", "Bearer "+token)
	rec := httptest.NewRecorder()
	s.router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, "ticket-1", got.TicketID)
	assert.Equal(t, "recruiter-7", got.ActorID)
	assert.Equal(t, []map[string]string{{"candidate_id": "c-1", "pay_grade_id": "pg-1"}}, got.Rows)
}

func TestApprove_HookFailureStillReportsDecision(t *testing.T) {
	s := newTestServer()
	s.approvals.approve = func(req approval.ApproveRequest) (approval.Decision, error) {
		d := approval.Decision{Request: approval.ApprovalRequest{ID: req.ID, Status: approval.StatusApproved}}
		return d, fmt.Errorf("%w: batch completion", approval.ErrDecisionHookFailed)
	}

	rec := s.do(t, auth.RoleApprover, http.MethodPost, "/api/v1/approvals/apr-1/approve", nil)
	require.Equal(t, http.StatusAccepted, rec.Code)

	env := decodeEnvelope(t, rec)
	assert.True(t, env.Success)
	var decision approval.Decision
	require.NoError(t, json.Unmarshal(env.Data, &decision))
	assert.Equal(t, approval.StatusApproved, decision.Request.Status)
}

func TestApprove_ErrorMapping(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{"not approver", approval.ErrUnauthorized, http.StatusForbidden},
		{"not pending", approval.ErrInvalidTransition, http.StatusConflict},
		{"missing", approval.ErrApprovalNotFound, http.StatusNotFound},
		{"storage", fmt.Errorf("failed to get approval request: %w", context.DeadlineExceeded), http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := newTestServer()
			s.approvals.approve = func(approval.ApproveRequest) (approval.Decision, error) {
				return approval.Decision{}, tt.err
			}

			rec := s.do(t, auth.RoleApprover, http.MethodPost, "/api/v1/approvals/apr-1/approve", map[string]string{"comment": "ok"})
			assert.Equal(t, tt.want, rec.Code)
		})
	}
}

func TestApprove_RecruiterCannotDecide(t *testing.T) {
	s := newTestServer()

	rec := s.do(t, auth.RoleRecruiter, http.MethodPost, "/api/v1/approvals/apr-1/approve", nil)
	assert.Equal(t, http.StatusForbidden, rec.Code)
}

func TestReassign_AdminOnly(t *testing.T) {
	s := newTestServer()
	s.approvals.reassign = func(req approval.ReassignRequest) (approval.ApprovalRequest, error) {
		return approval.ApprovalRequest{ID: req.ID, CurrentApproverID: req.TargetID}, nil
	}
	body := map[string]string{"reassign_to": "manager-2"}

	rec := s.do(t, auth.RoleApprover, http.MethodPost, "/api/v1/approvals/apr-1/reassign", body)
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec = s.do(t, auth.RoleAdmin, http.MethodPost, "/api/v1/approvals/apr-1/reassign", body)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestAuditReplay(t *testing.T) {
	s := newTestServer()
	s.audit.replay = func(entityType audit.EntityType, id string) (audit.ReplayResult, error) {
		if id == "broken" {
			return audit.ReplayResult{}, fmt.Errorf("%w: entry 2 starts at offer_sent", audit.ErrBrokenChain)
		}
		return audit.ReplayResult{EntityType: entityType, EntityID: id, Entries: 3, Transitions: 3, FinalStatus: "onboarded"}, nil
	}

	rec := s.do(t, auth.RoleApprover, http.MethodGet, "/api/v1/audit/boarding_request/req-1/replay", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var result audit.ReplayResult
	require.NoError(t, json.Unmarshal(decodeEnvelope(t, rec).Data, &result))
	assert.Equal(t, "onboarded", result.FinalStatus)

	rec = s.do(t, auth.RoleApprover, http.MethodGet, "/api/v1/audit/boarding_request/broken/replay", nil)
	assert.Equal(t, http.StatusConflict, rec.Code)
}
