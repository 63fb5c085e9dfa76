package bank

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi"
	"github.com/visithran/loan-management/internal/transport"
	"github.com/visithran/loan-management/pkg/logger"
)

type ServiceAPI interface {
	ListActive() ([]*Branch, error)
	GetByID(id int64) (*Branch, error)
	Create(dto BranchDTO) (*Branch, error)
	Update(id int64, dto BranchDTO) (*Branch, error)
	Delete(id int64) error
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

// ListActive handles GET /banks. Only active branches are listed;
// the endpoint backs the branch picker on the submission form.
func (h *Handler) ListActive(w http.ResponseWriter, r *http.Request) {
	branches, err := h.Service.ListActive()
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}

	h.WriteJSON(w, http.StatusOK, branches)
}

func (h *Handler) GetByID(w http.ResponseWriter, r *http.Request) {
	id, ok := h.branchID(w, r)
	if !ok {
		return
	}

	branch, err := h.Service.GetByID(id)
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}

	h.WriteJSON(w, http.StatusOK, branch)
}

func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	var dto BranchDTO
	if err := json.NewDecoder(r.Body).Decode(&dto); err != nil {
		h.WriteError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	branch, err := h.Service.Create(dto)
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}

	h.WriteJSON(w, http.StatusCreated, branch)
}

func (h *Handler) Update(w http.ResponseWriter, r *http.Request) {
	id, ok := h.branchID(w, r)
	if !ok {
		return
	}

	var dto BranchDTO
	if err := json.NewDecoder(r.Body).Decode(&dto); err != nil {
		h.WriteError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	branch, err := h.Service.Update(id, dto)
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}

	h.WriteJSON(w, http.StatusOK, branch)
}

// Delete handles DELETE /banks/{id}; the branch is deactivated, not
// removed, so old applications keep a resolvable branch name.
func (h *Handler) Delete(w http.ResponseWriter, r *http.Request) {
	id, ok := h.branchID(w, r)
	if !ok {
		return
	}

	if err := h.Service.Delete(id); err != nil {
		h.HandleServiceError(w, err)
		return
	}

	h.WriteJSON(w, http.StatusOK, map[string]string{"message": "bank branch deactivated"})
}

func (h *Handler) branchID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	idStr := chi.URLParam(r, "id")
	id, err := strconv.ParseInt(idStr, 10, 64)
	if err != nil {
		h.WriteError(w, http.StatusBadRequest, "invalid branch ID")
		return 0, false
	}
	return id, true
}
