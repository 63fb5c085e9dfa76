package loan

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi"
	"github.com/visithran/loan-management/internal/auth"
	"github.com/visithran/loan-management/internal/transport"
	"github.com/visithran/loan-management/pkg/logger"
)

type ServiceAPI interface {
	Submit(dto SubmitLoanDTO, actorEmail string) (*ApplicationResponse, error)
	UpdateStatus(id int64, dto StatusUpdateDTO, actorEmail string) (*ApplicationResponse, error)
	Approve(id int64, actorEmail string) (*ApplicationResponse, error)
	Reject(id int64, reason, actorEmail string) (*ApplicationResponse, error)
	MarkViewed(id int64, actorEmail string) (*ApplicationResponse, error)
	GetByID(id int64) (*ApplicationResponse, error)
	ListByApplicant(email string) ([]*ApplicationResponse, error)
	ListAll(page, size int, search string) (*Page, error)
	ListByStatus(status string) ([]*ApplicationResponse, error)
	ListRejected() ([]*ApplicationResponse, error)
	ArchiveOld(actorEmail string) (*ArchiveResult, error)
	AttachDocument(applicationID int64, dto DocumentDTO, actorEmail string) (*Document, error)
	ListDocuments(applicationID int64) ([]*Document, error)
}

type Handler struct {
	*transport.BaseHandler
	Service ServiceAPI
}

func NewHandler(svc ServiceAPI) *Handler {
	lg := logger.L()
	if lg == nil {
		lg = slog.Default()
	}
	return &Handler{
		BaseHandler: transport.NewBaseHandler(lg),
		Service:     svc,
	}
}

// Submit handles POST /loans. The applicant is always the authenticated
// user; the payload cannot submit on someone else's behalf.
func (h *Handler) Submit(w http.ResponseWriter, r *http.Request) {
	actor, ok := auth.UserFromContext(r.Context())
	if !ok || actor == nil {
		h.WriteError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	var dto SubmitLoanDTO
	if err := json.NewDecoder(r.Body).Decode(&dto); err != nil {
		h.WriteError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	resp, err := h.Service.Submit(dto, actor.Email)
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}

	h.WriteJSON(w, http.StatusCreated, resp)
}

// MyApplications handles GET /loans/my.
func (h *Handler) MyApplications(w http.ResponseWriter, r *http.Request) {
	actor, ok := auth.UserFromContext(r.Context())
	if !ok || actor == nil {
		h.WriteError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	responses, err := h.Service.ListByApplicant(actor.Email)
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}

	h.WriteJSON(w, http.StatusOK, responses)
}

// ListAll handles GET /loans with page, size and search query parameters.
func (h *Handler) ListAll(w http.ResponseWriter, r *http.Request) {
	page := queryInt(r, "page", 0)
	size := queryInt(r, "size", 10)
	search := r.URL.Query().Get("search")

	result, err := h.Service.ListAll(page, size, search)
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}

	h.WriteJSON(w, http.StatusOK, result)
}

func (h *Handler) GetByID(w http.ResponseWriter, r *http.Request) {
	id, ok := h.applicationID(w, r)
	if !ok {
		return
	}

	resp, err := h.Service.GetByID(id)
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}

	h.WriteJSON(w, http.StatusOK, resp)
}

// UpdateStatus handles PUT /loans/{id}.
func (h *Handler) UpdateStatus(w http.ResponseWriter, r *http.Request) {
	actor, ok := auth.UserFromContext(r.Context())
	if !ok || actor == nil {
		h.WriteError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	id, ok := h.applicationID(w, r)
	if !ok {
		return
	}

	var dto StatusUpdateDTO
	if err := json.NewDecoder(r.Body).Decode(&dto); err != nil {
		h.WriteError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	resp, err := h.Service.UpdateStatus(id, dto, actor.Email)
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}

	h.WriteJSON(w, http.StatusOK, resp)
}

// Approve handles PUT /loans/{id}/approve.
func (h *Handler) Approve(w http.ResponseWriter, r *http.Request) {
	actor, ok := auth.UserFromContext(r.Context())
	if !ok || actor == nil {
		h.WriteError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	id, ok := h.applicationID(w, r)
	if !ok {
		return
	}

	resp, err := h.Service.Approve(id, actor.Email)
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}

	h.WriteJSON(w, http.StatusOK, resp)
}

// Reject handles PUT /loans/{id}/reject. The reason travels in the body and
// is mandatory.
func (h *Handler) Reject(w http.ResponseWriter, r *http.Request) {
	actor, ok := auth.UserFromContext(r.Context())
	if !ok || actor == nil {
		h.WriteError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	id, ok := h.applicationID(w, r)
	if !ok {
		return
	}

	var dto RejectLoanDTO
	if err := json.NewDecoder(r.Body).Decode(&dto); err != nil {
		h.WriteError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	resp, err := h.Service.Reject(id, dto.RejectionReason, actor.Email)
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}

	h.WriteJSON(w, http.StatusOK, resp)
}

// MarkViewed handles PUT /loans/{id}/view.
func (h *Handler) MarkViewed(w http.ResponseWriter, r *http.Request) {
	actor, ok := auth.UserFromContext(r.Context())
	if !ok || actor == nil {
		h.WriteError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	id, ok := h.applicationID(w, r)
	if !ok {
		return
	}

	resp, err := h.Service.MarkViewed(id, actor.Email)
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}

	h.WriteJSON(w, http.StatusOK, resp)
}

// RejectedBin handles GET /loans/bin.
func (h *Handler) RejectedBin(w http.ResponseWriter, r *http.Request) {
	responses, err := h.Service.ListRejected()
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}

	h.WriteJSON(w, http.StatusOK, responses)
}

// ListByStatus handles GET /loans/status/{status}.
func (h *Handler) ListByStatus(w http.ResponseWriter, r *http.Request) {
	status := chi.URLParam(r, "status")

	responses, err := h.Service.ListByStatus(status)
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}

	h.WriteJSON(w, http.StatusOK, responses)
}

// Archive handles POST /loans/archive and moves year-old decided
// applications into the archive table.
func (h *Handler) Archive(w http.ResponseWriter, r *http.Request) {
	actor, ok := auth.UserFromContext(r.Context())
	if !ok || actor == nil {
		h.WriteError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	result, err := h.Service.ArchiveOld(actor.Email)
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}

	h.WriteJSON(w, http.StatusOK, result)
}

// AttachDocument handles POST /loans/{id}/documents.
func (h *Handler) AttachDocument(w http.ResponseWriter, r *http.Request) {
	actor, ok := auth.UserFromContext(r.Context())
	if !ok || actor == nil {
		h.WriteError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	id, ok := h.applicationID(w, r)
	if !ok {
		return
	}

	var dto DocumentDTO
	if err := json.NewDecoder(r.Body).Decode(&dto); err != nil {
		h.WriteError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	doc, err := h.Service.AttachDocument(id, dto, actor.Email)
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}

	h.WriteJSON(w, http.StatusCreated, doc)
}

// ListDocuments handles GET /loans/{id}/documents.
func (h *Handler) ListDocuments(w http.ResponseWriter, r *http.Request) {
	id, ok := h.applicationID(w, r)
	if !ok {
		return
	}

	docs, err := h.Service.ListDocuments(id)
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}

	h.WriteJSON(w, http.StatusOK, docs)
}

func (h *Handler) applicationID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	idStr := chi.URLParam(r, "id")
	id, err := strconv.ParseInt(idStr, 10, 64)
	if err != nil {
		h.WriteError(w, http.StatusBadRequest, "invalid application ID")
		return 0, false
	}
	return id, true
}

func queryInt(r *http.Request, key string, fallback int) int {
	raw := r.URL.Query().Get(key)
	if raw == "" {
		return fallback
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return fallback
	}
	return v
}
