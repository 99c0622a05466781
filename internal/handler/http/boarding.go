package http

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/cmlabs-hris/boarding-backend-go/internal/domain/boarding"
	"github.com/cmlabs-hris/boarding-backend-go/internal/handler/http/middleware"
	"github.com/cmlabs-hris/boarding-backend-go/internal/handler/http/response"
	"github.com/cmlabs-hris/boarding-backend-go/internal/pkg/spreadsheet"
	"github.com/go-chi/chi/v5"
)

// maxImportSize caps offer spreadsheet uploads.
const maxImportSize = 10 << 20

type BoardingHandler interface {
	IssueOffers(w http.ResponseWriter, r *http.Request)
	ImportOffers(w http.ResponseWriter, r *http.Request)
	RecordResponse(w http.ResponseWriter, r *http.Request)
	Cancel(w http.ResponseWriter, r *http.Request)

	Board(w http.ResponseWriter, r *http.Request)
	BulkBoard(w http.ResponseWriter, r *http.Request)
	SubmitBatch(w http.ResponseWriter, r *http.Request)
	CompleteBatch(w http.ResponseWriter, r *http.Request)

	Get(w http.ResponseWriter, r *http.Request)
	List(w http.ResponseWriter, r *http.Request)
}

type BoardingHandlerImpl struct {
	boardingService boarding.BoardingService
}

func NewBoardingHandler(boardingService boarding.BoardingService) BoardingHandler {
	return &BoardingHandlerImpl{boardingService: boardingService}
}

// IssueOffers implements BoardingHandler.
func (h *BoardingHandlerImpl) IssueOffers(w http.ResponseWriter, r *http.Request) {
	actorID, _, err := middleware.Actor(r.Context())
	if err != nil {
		response.HandleError(w, err)
		return
	}

	var req boarding.BulkIssueOffersRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		slog.Error("IssueOffers decode error", "error", err)
		response.BadRequest(w, "Invalid request format", nil)
		return
	}
	req.ActorID = actorID
	for i := range req.Offers {
		req.Offers[i].ActorID = actorID
	}

	result, err := h.boardingService.BulkIssueOffers(r.Context(), req)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.Batch(w, result)
}

// ImportOffers implements BoardingHandler. Expects a multipart form with the
// xlsx in "file" and an optional default "ticket_id".
func (h *BoardingHandlerImpl) ImportOffers(w http.ResponseWriter, r *http.Request) {
	actorID, _, err := middleware.Actor(r.Context())
	if err != nil {
		response.HandleError(w, err)
		return
	}

	if err := r.ParseMultipartForm(maxImportSize); err != nil {
		slog.Error("Failed to parse multipart form", "error", err)
		response.BadRequest(w, "Failed to parse form data", nil)
		return
	}

	file, _, err := r.FormFile("file")
	if err != nil {
		response.BadRequest(w, "Field 'file' is required", nil)
		return
	}
	defer file.Close()

	rows, err := spreadsheet.ReadRows(file, "candidate_id", "pay_grade_id")
	if err != nil {
		response.HandleError(w, err)
		return
	}

	result, err := h.boardingService.ImportOffers(r.Context(), boarding.ImportOffersRequest{
		TicketID: r.FormValue("ticket_id"),
		Rows:     rows,
		ActorID:  actorID,
	})
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.Batch(w, result)
}

// RecordResponse implements BoardingHandler.
func (h *BoardingHandlerImpl) RecordResponse(w http.ResponseWriter, r *http.Request) {
	actorID, _, err := middleware.Actor(r.Context())
	if err != nil {
		response.HandleError(w, err)
		return
	}

	var req boarding.RecordResponseRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		slog.Error("RecordResponse decode error", "error", err)
		response.BadRequest(w, "Invalid request format", nil)
		return
	}
	req.ID = chi.URLParam(r, "id")
	req.ActorID = actorID

	var record func(context.Context, boarding.RecordResponseRequest) (boarding.BoardingRequest, error)
	switch req.ResponseType {
	case boarding.ResponseAccepted:
		record = h.boardingService.RecordAcceptance
	case boarding.ResponseDeclined:
		record = h.boardingService.RecordDecline
	default:
		response.ValidationError(w, map[string]string{"response_type": "response_type must be accepted or declined"})
		return
	}

	updated, err := record(r.Context(), req)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.SuccessWithMessage(w, "Offer response recorded", updated)
}

// Cancel implements BoardingHandler.
func (h *BoardingHandlerImpl) Cancel(w http.ResponseWriter, r *http.Request) {
	actorID, _, err := middleware.Actor(r.Context())
	if err != nil {
		response.HandleError(w, err)
		return
	}

	var req boarding.CancelRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		slog.Error("Cancel decode error", "error", err)
		response.BadRequest(w, "Invalid request format", nil)
		return
	}
	req.ID = chi.URLParam(r, "id")
	req.ActorID = actorID

	cancelled, err := h.boardingService.Cancel(r.Context(), req)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.SuccessWithMessage(w, "Boarding request cancelled", cancelled)
}

// Board implements BoardingHandler.
func (h *BoardingHandlerImpl) Board(w http.ResponseWriter, r *http.Request) {
	actorID, _, err := middleware.Actor(r.Context())
	if err != nil {
		response.HandleError(w, err)
		return
	}

	result, err := h.boardingService.Board(r.Context(), boarding.BoardRequest{
		ID:      chi.URLParam(r, "id"),
		ActorID: actorID,
	})
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.Created(w, "Candidate onboarded", result)
}

// BulkBoard implements BoardingHandler.
func (h *BoardingHandlerImpl) BulkBoard(w http.ResponseWriter, r *http.Request) {
	actorID, _, err := middleware.Actor(r.Context())
	if err != nil {
		response.HandleError(w, err)
		return
	}

	var req boarding.BulkBoardRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		slog.Error("BulkBoard decode error", "error", err)
		response.BadRequest(w, "Invalid request format", nil)
		return
	}
	req.ActorID = actorID

	result, err := h.boardingService.BulkBoard(r.Context(), req)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.Batch(w, result)
}

// SubmitBatch implements BoardingHandler.
func (h *BoardingHandlerImpl) SubmitBatch(w http.ResponseWriter, r *http.Request) {
	actorID, _, err := middleware.Actor(r.Context())
	if err != nil {
		response.HandleError(w, err)
		return
	}

	var req boarding.SubmitBatchRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		slog.Error("SubmitBatch decode error", "error", err)
		response.BadRequest(w, "Invalid request format", nil)
		return
	}
	req.ActorID = actorID

	submission, err := h.boardingService.SubmitBatch(r.Context(), req)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.Created(w, "Batch submitted for approval", submission)
}

// CompleteBatch implements BoardingHandler. Boards an approved batch whose
// completion did not run when the approval was decided.
func (h *BoardingHandlerImpl) CompleteBatch(w http.ResponseWriter, r *http.Request) {
	actorID, _, err := middleware.Actor(r.Context())
	if err != nil {
		response.HandleError(w, err)
		return
	}

	result, err := h.boardingService.CompleteBatch(r.Context(), chi.URLParam(r, "id"), actorID)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.Batch(w, result)
}

// Get implements BoardingHandler.
func (h *BoardingHandlerImpl) Get(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if id == "" {
		response.BadRequest(w, "Boarding request ID is required", nil)
		return
	}

	req, err := h.boardingService.Get(r.Context(), id)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.Success(w, req)
}

// List implements BoardingHandler.
func (h *BoardingHandlerImpl) List(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	filter := boarding.ListFilter{
		TicketID: q.Get("ticket_id"),
		Status:   boarding.Status(q.Get("status")),
		BatchID:  q.Get("batch_id"),
	}

	limit, _ := strconv.Atoi(q.Get("limit"))
	offset, _ := strconv.Atoi(q.Get("offset"))
	filter.Limit = limit
	filter.Offset = offset
	if err := filter.Normalize(); err != nil {
		response.HandleError(w, err)
		return
	}

	requests, err := h.boardingService.List(r.Context(), filter)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.SuccessWithMeta(w, requests, &response.Meta{
		Limit:      filter.Limit,
		TotalItems: int64(len(requests)),
	})
}
