package auth

import (
	"errors"
	"log/slog"

	"github.com/visithran/loan-management/internal"
	"github.com/visithran/loan-management/internal/user"
	"golang.org/x/crypto/bcrypt"
)

// UserDirectory is the slice of the user service the auth layer needs.
type UserDirectory interface {
	GetByID(id int64) (*user.User, error)
	GetByUsername(username string) (*user.User, error)
	Register(dto user.RegisterDTO) (*user.User, error)
}

type Service struct {
	users  UserDirectory
	tokens TokenGeneratorAPI
	logger *slog.Logger
}

func NewService(users UserDirectory, tokens TokenGeneratorAPI, logger *slog.Logger) *Service {
	return &Service{
		users:  users,
		tokens: tokens,
		logger: logger,
	}
}

// Authenticate validates credentials and returns tokens plus the public
// user. Unknown username, inactive account and wrong password all collapse
// into the same error so the response never leaks which field was wrong.
func (s *Service) Authenticate(dto LoginDTO) (*AuthResponse, error) {
	if err := dto.Validate(); err != nil {
		return nil, err
	}

	u, err := s.users.GetByUsername(dto.Username)
	if err != nil {
		return nil, internal.ErrInvalidCredentials
	}
	if !u.IsActiveUser() || u.PasswordHash == "" {
		return nil, internal.ErrInvalidCredentials
	}

	if err := bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(dto.Password)); err != nil {
		return nil, internal.ErrInvalidCredentials
	}

	tokens, err := s.issueTokens(u)
	if err != nil {
		return nil, err
	}

	return &AuthResponse{AuthTokens: tokens, User: u.ToResponse()}, nil
}

// Register creates the account through the user directory and logs the new
// user straight in.
func (s *Service) Register(dto user.RegisterDTO) (*AuthResponse, error) {
	u, err := s.users.Register(dto)
	if err != nil {
		return nil, err
	}

	tokens, err := s.issueTokens(u)
	if err != nil {
		return nil, err
	}

	return &AuthResponse{AuthTokens: tokens, User: u.ToResponse()}, nil
}

func (s *Service) RefreshTokens(refreshToken string) (AuthTokens, error) {
	gen, ok := s.tokens.(*JWTTokenGenerator)
	if !ok {
		return AuthTokens{}, errors.New("token generator does not support refresh")
	}

	claims, err := gen.validateRefresh(refreshToken)
	if err != nil || claims == nil {
		return AuthTokens{}, internal.ErrInvalidToken
	}

	u, err := s.users.GetByID(claims.UserID)
	if err != nil {
		return AuthTokens{}, internal.ErrInvalidToken
	}
	if !u.IsActiveUser() {
		return AuthTokens{}, internal.ErrUserInactive
	}

	return s.issueTokens(u)
}

func (s *Service) ValidateAccessToken(tokenString string) (*Claims, error) {
	claims, err := s.tokens.ValidateToken(tokenString)
	if err != nil || claims == nil {
		return nil, internal.ErrInvalidToken
	}
	return claims, nil
}

// ResolveUser loads the full user behind validated claims for the request
// context.
func (s *Service) ResolveUser(claims *Claims) (*user.User, error) {
	u, err := s.users.GetByID(claims.UserID)
	if err != nil {
		return nil, internal.ErrInvalidToken
	}
	if !u.IsActiveUser() {
		return nil, internal.ErrUserInactive
	}
	return u, nil
}

func (s *Service) issueTokens(u *user.User) (AuthTokens, error) {
	access, err := s.tokens.GenerateAccessToken(u.ID, u.Email)
	if err != nil {
		s.logger.Error("failed to generate access token", "error", err, "user_id", u.ID)
		return AuthTokens{}, internal.NewInternalError("failed to generate token", err)
	}

	refresh, err := s.tokens.GenerateRefreshToken(u.ID, u.Email)
	if err != nil {
		s.logger.Error("failed to generate refresh token", "error", err, "user_id", u.ID)
		return AuthTokens{}, internal.NewInternalError("failed to generate token", err)
	}

	return AuthTokens{AccessToken: access, RefreshToken: refresh}, nil
}
