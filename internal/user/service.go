package user

import (
	"log/slog"
	"strings"

	"github.com/visithran/loan-management/internal"
	userDatamodel "github.com/visithran/loan-management/internal/core/datamodel/user"
	"golang.org/x/crypto/bcrypt"
)

// RepositoryAPI defines the data access methods for users. Lookups return
// (nil, nil) when no row matches; the service maps that to NotFound.
type RepositoryAPI interface {
	GetByID(id int64) (*userDatamodel.User, error)
	GetByEmail(email string) (*userDatamodel.User, error)
	GetByUsername(username string) (*userDatamodel.User, error)
	GetAll() ([]*userDatamodel.User, error)
	Create(u *userDatamodel.User) error
	UpdateRole(id int64, role string) error
}

type Service struct {
	repo       RepositoryAPI
	bcryptCost int
	logger     *slog.Logger
}

func NewService(repo RepositoryAPI, bcryptCost int, logger *slog.Logger) *Service {
	if bcryptCost == 0 {
		bcryptCost = bcrypt.DefaultCost
	}
	return &Service{
		repo:       repo,
		bcryptCost: bcryptCost,
		logger:     logger,
	}
}

func (s *Service) GetByID(id int64) (*User, error) {
	row, err := s.repo.GetByID(id)
	if err != nil {
		s.logger.Error("failed to get user by id", "error", err, "user_id", id)
		return nil, internal.NewInternalError("failed to get user", err)
	}
	if row == nil {
		return nil, internal.ErrUserNotFound
	}
	return FromDataModel(row), nil
}

func (s *Service) GetByEmail(email string) (*User, error) {
	row, err := s.repo.GetByEmail(normalizeEmail(email))
	if err != nil {
		s.logger.Error("failed to get user by email", "error", err, "email", email)
		return nil, internal.NewInternalError("failed to get user", err)
	}
	if row == nil {
		return nil, internal.ErrUserNotFound
	}
	return FromDataModel(row), nil
}

func (s *Service) GetByUsername(username string) (*User, error) {
	row, err := s.repo.GetByUsername(username)
	if err != nil {
		s.logger.Error("failed to get user by username", "error", err, "username", username)
		return nil, internal.NewInternalError("failed to get user", err)
	}
	if row == nil {
		return nil, internal.ErrUserNotFound
	}
	return FromDataModel(row), nil
}

// FindOrCreate implements the idempotent-login contract: the first call for
// an email inserts a new applicant, every later call returns the stored
// record untouched. The name is deliberately NOT updated on repeat logins.
func (s *Service) FindOrCreate(dto LoginDTO) (*User, error) {
	if err := dto.Validate(); err != nil {
		return nil, err
	}

	email := normalizeEmail(dto.Email)
	existing, err := s.repo.GetByEmail(email)
	if err != nil {
		s.logger.Error("failed to look up user for login", "error", err, "email", email)
		return nil, internal.NewInternalError("failed to look up user", err)
	}
	if existing != nil {
		return FromDataModel(existing), nil
	}

	row := &userDatamodel.User{
		Name:     strings.TrimSpace(dto.Name),
		Email:    email,
		Role:     RoleApplicant,
		IsActive: true,
	}
	if err := s.repo.Create(row); err != nil {
		s.logger.Error("failed to create user on login", "error", err, "email", email)
		return nil, internal.NewInternalError("failed to create user", err)
	}

	s.logger.Info("created user on first login", "user_id", row.ID, "email", email)
	return FromDataModel(row), nil
}

// Register creates a credentialed user. Duplicate username or email is a
// Conflict and performs no write.
func (s *Service) Register(dto RegisterDTO) (*User, error) {
	if err := dto.Validate(); err != nil {
		return nil, err
	}

	email := normalizeEmail(dto.Email)

	byUsername, err := s.repo.GetByUsername(dto.Username)
	if err != nil {
		return nil, internal.NewInternalError("failed to check username", err)
	}
	if byUsername != nil {
		return nil, internal.ErrDuplicateUsername
	}

	byEmail, err := s.repo.GetByEmail(email)
	if err != nil {
		return nil, internal.NewInternalError("failed to check email", err)
	}
	if byEmail != nil {
		return nil, internal.ErrDuplicateEmail
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(dto.Password), s.bcryptCost)
	if err != nil {
		return nil, internal.NewInternalError("failed to hash password", err)
	}

	role := dto.Role
	if role == "" {
		role = RoleApplicant
	}

	row := &userDatamodel.User{
		Name:         dto.Username,
		Email:        email,
		Username:     dto.Username,
		PasswordHash: string(hash),
		Role:         role,
		IsActive:     true,
	}
	if err := s.repo.Create(row); err != nil {
		s.logger.Error("failed to register user", "error", err, "username", dto.Username)
		return nil, internal.NewInternalError("failed to register user", err)
	}

	s.logger.Info("registered user", "user_id", row.ID, "username", dto.Username, "role", role)
	return FromDataModel(row), nil
}

// Promote sets the role of the user identified by email. The acting user is
// an explicit parameter and must hold the ADMIN role; there is no ambient
// authentication state anywhere in the workflow.
func (s *Service) Promote(email, newRole string, actor *User) (*User, error) {
	if actor == nil || !actor.IsAdmin() {
		s.logger.Warn("promote denied: actor lacks admin role", "email", email)
		return nil, internal.ErrAdminRequired
	}
	if !ValidRole(newRole) {
		return nil, internal.NewValidationFieldError("role", "role must be APPLICANT or ADMIN", internal.ErrCodeValidationFailed)
	}

	row, err := s.repo.GetByEmail(normalizeEmail(email))
	if err != nil {
		return nil, internal.NewInternalError("failed to get user", err)
	}
	if row == nil {
		return nil, internal.ErrUserNotFound
	}

	if err := s.repo.UpdateRole(row.ID, newRole); err != nil {
		s.logger.Error("failed to update role", "error", err, "user_id", row.ID)
		return nil, internal.NewInternalError("failed to update role", err)
	}
	row.Role = newRole

	s.logger.Info("user role updated", "user_id", row.ID, "role", newRole, "actor_id", actor.ID)
	return FromDataModel(row), nil
}

func (s *Service) ListAll() ([]*User, error) {
	rows, err := s.repo.GetAll()
	if err != nil {
		s.logger.Error("failed to list users", "error", err)
		return nil, internal.NewInternalError("failed to list users", err)
	}
	users := make([]*User, len(rows))
	for i, row := range rows {
		users[i] = FromDataModel(row)
	}
	return users, nil
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
