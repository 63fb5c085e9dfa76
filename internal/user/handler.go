package user

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
	GetByID(id int64) (*User, error)
	GetByEmail(email string) (*User, error)
	FindOrCreate(dto LoginDTO) (*User, error)
	Promote(email, newRole string, actor *User) (*User, error)
	ListAll() ([]*User, error)
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

// GetCurrentUser handles GET /users/me
func (h *Handler) GetCurrentUser(w http.ResponseWriter, r *http.Request) {
	u, ok := UserFromContext(r.Context())
	if !ok || u == nil {
		h.WriteError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	h.WriteJSON(w, http.StatusOK, u.ToResponse())
}

// Login handles POST /users/login: find-or-create by email. No credentials
// involved; repeat logins return the stored user unchanged.
func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	var dto LoginDTO
	if err := json.NewDecoder(r.Body).Decode(&dto); err != nil {
		h.WriteError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	u, err := h.Service.FindOrCreate(dto)
	if err != nil {
		h.Logger.Error("find-or-create login failed", "error", err, "email", dto.Email)
		h.HandleServiceError(w, err)
		return
	}

	h.WriteJSON(w, http.StatusOK, u.ToResponse())
}

func (h *Handler) GetByID(w http.ResponseWriter, r *http.Request) {
	idStr := chi.URLParam(r, "id")
	id, err := strconv.ParseInt(idStr, 10, 64)
	if err != nil {
		h.WriteError(w, http.StatusBadRequest, "invalid user ID")
		return
	}

	u, err := h.Service.GetByID(id)
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}

	h.WriteJSON(w, http.StatusOK, u.ToResponse())
}

func (h *Handler) GetByEmail(w http.ResponseWriter, r *http.Request) {
	email := chi.URLParam(r, "email")

	u, err := h.Service.GetByEmail(email)
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}

	h.WriteJSON(w, http.StatusOK, u.ToResponse())
}

// PromoteAdmin handles PUT /users/{email}/promote-admin. The route sits
// behind the admin middleware and the service checks the actor again.
func (h *Handler) PromoteAdmin(w http.ResponseWriter, r *http.Request) {
	actor, ok := UserFromContext(r.Context())
	if !ok || actor == nil {
		h.WriteError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	email := chi.URLParam(r, "email")

	u, err := h.Service.Promote(email, RoleAdmin, actor)
	if err != nil {
		h.Logger.Error("promote failed", "error", err, "email", email, "actor_id", actor.ID)
		h.HandleServiceError(w, err)
		return
	}

	h.Logger.Info("user promoted to admin", "user_id", u.ID, "actor_id", actor.ID)
	h.WriteJSON(w, http.StatusOK, u.ToResponse())
}

// ListTestUsers handles GET /auth/test-users, a development helper that
// lists every account.
func (h *Handler) ListTestUsers(w http.ResponseWriter, r *http.Request) {
	users, err := h.Service.ListAll()
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}

	responses := make([]UserResponse, len(users))
	for i, u := range users {
		responses[i] = u.ToResponse()
	}
	h.WriteJSON(w, http.StatusOK, responses)
}
