package http

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"

	"github.com/cmlabs-hris/boarding-backend-go/internal/domain/approval"
	"github.com/cmlabs-hris/boarding-backend-go/internal/handler/http/middleware"
	"github.com/cmlabs-hris/boarding-backend-go/internal/handler/http/response"
	"github.com/go-chi/chi/v5"
)

type ApprovalHandler interface {
	Approve(w http.ResponseWriter, r *http.Request)
	Reject(w http.ResponseWriter, r *http.Request)
	Escalate(w http.ResponseWriter, r *http.Request)
	Comment(w http.ResponseWriter, r *http.Request)
	Cancel(w http.ResponseWriter, r *http.Request)
	Reassign(w http.ResponseWriter, r *http.Request)
	BulkApprove(w http.ResponseWriter, r *http.Request)
	BulkReject(w http.ResponseWriter, r *http.Request)

	Get(w http.ResponseWriter, r *http.Request)
	History(w http.ResponseWriter, r *http.Request)
	Inbox(w http.ResponseWriter, r *http.Request)
	Delegated(w http.ResponseWriter, r *http.Request)

	GrantDelegation(w http.ResponseWriter, r *http.Request)
	RevokeDelegation(w http.ResponseWriter, r *http.Request)
}

type ApprovalHandlerImpl struct {
	approvalService approval.ApprovalService
}

func NewApprovalHandler(approvalService approval.ApprovalService) ApprovalHandler {
	return &ApprovalHandlerImpl{approvalService: approvalService}
}

// decode reads an optional JSON body; an empty body leaves v untouched.
func decode(r *http.Request, v any) error {
	if r.Body == nil {
		return nil
	}
	if err := json.NewDecoder(r.Body).Decode(v); err != nil && !errors.Is(err, io.EOF) {
		return err
	}
	return nil
}

// writeDecision reports a committed decision. A failed follow-up still
// reports the decision, with 202 so the caller can retry the follow-up.
func writeDecision(w http.ResponseWriter, message string, decision approval.Decision, err error) {
	if err != nil {
		if errors.Is(err, approval.ErrDecisionHookFailed) {
			slog.Warn("Decision committed but follow-up failed", "approval_id", decision.Request.ID, "error", err)
			response.Accepted(w, err.Error(), decision)
			return
		}
		response.HandleError(w, err)
		return
	}
	response.SuccessWithMessage(w, message, decision)
}

// Approve implements ApprovalHandler.
func (h *ApprovalHandlerImpl) Approve(w http.ResponseWriter, r *http.Request) {
	actorID, _, err := middleware.Actor(r.Context())
	if err != nil {
		response.HandleError(w, err)
		return
	}

	var req approval.ApproveRequest
	if err := decode(r, &req); err != nil {
		slog.Error("Approve decode error", "error", err)
		response.BadRequest(w, "Invalid request format", nil)
		return
	}
	req.ID = chi.URLParam(r, "id")
	req.ActorID = actorID

	decision, err := h.approvalService.Approve(r.Context(), req)
	writeDecision(w, "Approval recorded", decision, err)
}

// Reject implements ApprovalHandler.
func (h *ApprovalHandlerImpl) Reject(w http.ResponseWriter, r *http.Request) {
	actorID, _, err := middleware.Actor(r.Context())
	if err != nil {
		response.HandleError(w, err)
		return
	}

	var req approval.RejectRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		slog.Error("Reject decode error", "error", err)
		response.BadRequest(w, "Invalid request format", nil)
		return
	}
	req.ID = chi.URLParam(r, "id")
	req.ActorID = actorID

	decision, err := h.approvalService.Reject(r.Context(), req)
	writeDecision(w, "Approval request rejected", decision, err)
}

// Escalate implements ApprovalHandler.
func (h *ApprovalHandlerImpl) Escalate(w http.ResponseWriter, r *http.Request) {
	actorID, _, err := middleware.Actor(r.Context())
	if err != nil {
		response.HandleError(w, err)
		return
	}

	var req approval.EscalateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		slog.Error("Escalate decode error", "error", err)
		response.BadRequest(w, "Invalid request format", nil)
		return
	}
	req.ID = chi.URLParam(r, "id")
	req.ActorID = actorID

	escalated, err := h.approvalService.Escalate(r.Context(), req)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.SuccessWithMessage(w, "Approval request escalated", escalated)
}

// Comment implements ApprovalHandler.
func (h *ApprovalHandlerImpl) Comment(w http.ResponseWriter, r *http.Request) {
	actorID, _, err := middleware.Actor(r.Context())
	if err != nil {
		response.HandleError(w, err)
		return
	}

	var req approval.CommentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		slog.Error("Comment decode error", "error", err)
		response.BadRequest(w, "Invalid request format", nil)
		return
	}
	req.ID = chi.URLParam(r, "id")
	req.ActorID = actorID

	entry, err := h.approvalService.AddComment(r.Context(), req)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.Created(w, "Comment added", entry)
}

// Cancel implements ApprovalHandler.
func (h *ApprovalHandlerImpl) Cancel(w http.ResponseWriter, r *http.Request) {
	actorID, _, err := middleware.Actor(r.Context())
	if err != nil {
		response.HandleError(w, err)
		return
	}

	var req approval.CancelRequest
	if err := decode(r, &req); err != nil {
		slog.Error("Cancel decode error", "error", err)
		response.BadRequest(w, "Invalid request format", nil)
		return
	}
	req.ID = chi.URLParam(r, "id")
	req.ActorID = actorID

	decision, err := h.approvalService.Cancel(r.Context(), req)
	writeDecision(w, "Approval request cancelled", decision, err)
}

// Reassign implements ApprovalHandler. Routed behind AdminOnly.
func (h *ApprovalHandlerImpl) Reassign(w http.ResponseWriter, r *http.Request) {
	actorID, _, err := middleware.Actor(r.Context())
	if err != nil {
		response.HandleError(w, err)
		return
	}

	var req approval.ReassignRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		slog.Error("Reassign decode error", "error", err)
		response.BadRequest(w, "Invalid request format", nil)
		return
	}
	req.ID = chi.URLParam(r, "id")
	req.ActorID = actorID

	reassigned, err := h.approvalService.Reassign(r.Context(), req)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.SuccessWithMessage(w, "Approval request reassigned", reassigned)
}

// BulkApprove implements ApprovalHandler.
func (h *ApprovalHandlerImpl) BulkApprove(w http.ResponseWriter, r *http.Request) {
	actorID, _, err := middleware.Actor(r.Context())
	if err != nil {
		response.HandleError(w, err)
		return
	}

	var req approval.BulkApproveRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		slog.Error("BulkApprove decode error", "error", err)
		response.BadRequest(w, "Invalid request format", nil)
		return
	}
	req.ActorID = actorID

	result, err := h.approvalService.BulkApprove(r.Context(), req)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.Batch(w, result)
}

// BulkReject implements ApprovalHandler.
func (h *ApprovalHandlerImpl) BulkReject(w http.ResponseWriter, r *http.Request) {
	actorID, _, err := middleware.Actor(r.Context())
	if err != nil {
		response.HandleError(w, err)
		return
	}

	var req approval.BulkRejectRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		slog.Error("BulkReject decode error", "error", err)
		response.BadRequest(w, "Invalid request format", nil)
		return
	}
	req.ActorID = actorID

	result, err := h.approvalService.BulkReject(r.Context(), req)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.Batch(w, result)
}

// Get implements ApprovalHandler.
func (h *ApprovalHandlerImpl) Get(w http.ResponseWriter, r *http.Request) {
	detail, err := h.approvalService.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.Success(w, detail)
}

// History implements ApprovalHandler.
func (h *ApprovalHandlerImpl) History(w http.ResponseWriter, r *http.Request) {
	history, err := h.approvalService.History(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.Success(w, history)
}

// Inbox implements ApprovalHandler.
func (h *ApprovalHandlerImpl) Inbox(w http.ResponseWriter, r *http.Request) {
	actorID, _, err := middleware.Actor(r.Context())
	if err != nil {
		response.HandleError(w, err)
		return
	}

	inbox, err := h.approvalService.Inbox(r.Context(), actorID)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.Success(w, inbox)
}

// Delegated implements ApprovalHandler.
func (h *ApprovalHandlerImpl) Delegated(w http.ResponseWriter, r *http.Request) {
	actorID, _, err := middleware.Actor(r.Context())
	if err != nil {
		response.HandleError(w, err)
		return
	}

	requests, err := h.approvalService.ListDelegated(r.Context(), actorID)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.Success(w, requests)
}

// GrantDelegation implements ApprovalHandler.
func (h *ApprovalHandlerImpl) GrantDelegation(w http.ResponseWriter, r *http.Request) {
	actorID, _, err := middleware.Actor(r.Context())
	if err != nil {
		response.HandleError(w, err)
		return
	}

	var req approval.GrantDelegationRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		slog.Error("GrantDelegation decode error", "error", err)
		response.BadRequest(w, "Invalid request format", nil)
		return
	}
	req.DelegatorID = actorID

	delegation, err := h.approvalService.GrantDelegation(r.Context(), req)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.Created(w, "Delegation granted", delegation)
}

// RevokeDelegation implements ApprovalHandler.
func (h *ApprovalHandlerImpl) RevokeDelegation(w http.ResponseWriter, r *http.Request) {
	actorID, _, err := middleware.Actor(r.Context())
	if err != nil {
		response.HandleError(w, err)
		return
	}

	if err := h.approvalService.RevokeDelegation(r.Context(), chi.URLParam(r, "id"), actorID); err != nil {
		response.HandleError(w, err)
		return
	}

	response.SuccessWithMessage(w, "Delegation revoked", nil)
}
