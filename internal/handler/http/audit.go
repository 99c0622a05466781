package http

import (
	"net/http"

	"github.com/cmlabs-hris/boarding-backend-go/internal/domain/audit"
	"github.com/cmlabs-hris/boarding-backend-go/internal/handler/http/response"
	"github.com/go-chi/chi/v5"
)

type AuditHandler interface {
	List(w http.ResponseWriter, r *http.Request)
	Replay(w http.ResponseWriter, r *http.Request)
	ForEntity(entityType audit.EntityType) http.HandlerFunc
}

type AuditHandlerImpl struct {
	auditService audit.AuditService
}

func NewAuditHandler(auditService audit.AuditService) AuditHandler {
	return &AuditHandlerImpl{auditService: auditService}
}

// List implements AuditHandler. Newest first unless ?order=asc.
func (h *AuditHandlerImpl) List(w http.ResponseWriter, r *http.Request) {
	h.list(w, r, audit.EntityType(chi.URLParam(r, "entityType")))
}

// ForEntity serves the trail of a fixed entity type keyed by {id}.
func (h *AuditHandlerImpl) ForEntity(entityType audit.EntityType) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		h.list(w, r, entityType)
	}
}

func (h *AuditHandlerImpl) list(w http.ResponseWriter, r *http.Request, entityType audit.EntityType) {
	order := audit.OrderDesc
	if r.URL.Query().Get("order") == "asc" {
		order = audit.OrderAsc
	}

	entries, err := h.auditService.ListForEntity(r.Context(), entityType, chi.URLParam(r, "id"), order)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.Success(w, entries)
}

// Replay implements AuditHandler.
func (h *AuditHandlerImpl) Replay(w http.ResponseWriter, r *http.Request) {
	entityType := audit.EntityType(chi.URLParam(r, "entityType"))

	result, err := h.auditService.Replay(r.Context(), entityType, chi.URLParam(r, "id"))
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.Success(w, result)
}
