package user

import (
	"net/mail"
	"strings"

	"github.com/visithran/loan-management/internal"
)

// LoginDTO is the find-or-create login payload: no password, just a display
// name and an email. Repeat logins must not overwrite the stored name.
type LoginDTO struct {
	Name  string `json:"name"`
	Email string `json:"email"`
}

func (dto LoginDTO) Validate() error {
	if strings.TrimSpace(dto.Name) == "" {
		return internal.NewValidationFieldError("name", "name is required", internal.ErrCodeValidationFailed)
	}
	if strings.TrimSpace(dto.Email) == "" {
		return internal.NewValidationFieldError("email", "email is required", internal.ErrCodeValidationFailed)
	}
	if _, err := mail.ParseAddress(dto.Email); err != nil {
		return internal.NewValidationFieldError("email", "email is not a valid address", internal.ErrCodeValidationFailed)
	}
	return nil
}

type RegisterDTO struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password"`
	Role     string `json:"role,omitempty"`
}

func (dto RegisterDTO) Validate() error {
	if strings.TrimSpace(dto.Username) == "" {
		return internal.NewValidationFieldError("username", "username is required", internal.ErrCodeValidationFailed)
	}
	if strings.TrimSpace(dto.Email) == "" {
		return internal.NewValidationFieldError("email", "email is required", internal.ErrCodeValidationFailed)
	}
	if _, err := mail.ParseAddress(dto.Email); err != nil {
		return internal.NewValidationFieldError("email", "email is not a valid address", internal.ErrCodeValidationFailed)
	}
	if len(dto.Password) < 8 {
		return internal.NewValidationFieldError("password", "password must be at least 8 characters", internal.ErrCodeValidationFailed)
	}
	if dto.Role != "" && !ValidRole(dto.Role) {
		return internal.NewValidationFieldError("role", "role must be APPLICANT or ADMIN", internal.ErrCodeValidationFailed)
	}
	return nil
}

// UserResponse is the public shape of a user; password hash never leaves the service.
type UserResponse struct {
	ID       int64  `json:"id"`
	Name     string `json:"name"`
	Email    string `json:"email"`
	Username string `json:"username,omitempty"`
	Role     string `json:"role"`
}

func (u *User) ToResponse() UserResponse {
	return UserResponse{
		ID:       u.ID,
		Name:     u.Name,
		Email:    u.Email,
		Username: u.Username,
		Role:     u.Role,
	}
}
