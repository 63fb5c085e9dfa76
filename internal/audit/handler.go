package audit

import (
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi"
	"github.com/visithran/loan-management/internal/transport"
	"github.com/visithran/loan-management/pkg/logger"
)

type ServiceAPI interface {
	ListByApplication(applicationID int64) ([]*Entry, error)
	ListByUser(userID int64) ([]*Entry, error)
	ListByAction(action Action) ([]*Entry, error)
	ListByTimeRange(from, to time.Time) ([]*Entry, error)
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

// ListByApplication handles GET /audit/application/{id}, the per-application
// history in chronological order.
func (h *Handler) ListByApplication(w http.ResponseWriter, r *http.Request) {
	id, ok := h.pathID(w, r, "invalid application ID")
	if !ok {
		return
	}

	entries, err := h.Service.ListByApplication(id)
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}

	h.WriteJSON(w, http.StatusOK, entries)
}

// ListByUser handles GET /audit/user/{id}.
func (h *Handler) ListByUser(w http.ResponseWriter, r *http.Request) {
	id, ok := h.pathID(w, r, "invalid user ID")
	if !ok {
		return
	}

	entries, err := h.Service.ListByUser(id)
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}

	h.WriteJSON(w, http.StatusOK, entries)
}

// ListByAction handles GET /audit/action/{action}.
func (h *Handler) ListByAction(w http.ResponseWriter, r *http.Request) {
	action := chi.URLParam(r, "action")

	entries, err := h.Service.ListByAction(Action(action))
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}

	h.WriteJSON(w, http.StatusOK, entries)
}

// ListByTimeRange handles GET /audit/range?from=...&to=... with RFC 3339
// timestamps. The range is half-open: from inclusive, to exclusive.
func (h *Handler) ListByTimeRange(w http.ResponseWriter, r *http.Request) {
	from, err := time.Parse(time.RFC3339, r.URL.Query().Get("from"))
	if err != nil {
		h.WriteError(w, http.StatusBadRequest, "invalid 'from' timestamp, expected RFC 3339")
		return
	}
	to, err := time.Parse(time.RFC3339, r.URL.Query().Get("to"))
	if err != nil {
		h.WriteError(w, http.StatusBadRequest, "invalid 'to' timestamp, expected RFC 3339")
		return
	}

	entries, err := h.Service.ListByTimeRange(from, to)
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}

	h.WriteJSON(w, http.StatusOK, entries)
}

func (h *Handler) pathID(w http.ResponseWriter, r *http.Request, msg string) (int64, bool) {
	idStr := chi.URLParam(r, "id")
	id, err := strconv.ParseInt(idStr, 10, 64)
	if err != nil {
		h.WriteError(w, http.StatusBadRequest, msg)
		return 0, false
	}
	return id, true
}
