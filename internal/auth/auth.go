package auth

import (
	"context"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/visithran/loan-management/internal/user"
)

type ServiceAPI interface {
	Authenticate(dto LoginDTO) (*AuthResponse, error)
	Register(dto user.RegisterDTO) (*AuthResponse, error)
	ValidateAccessToken(tokenString string) (*Claims, error)
	RefreshTokens(refreshToken string) (AuthTokens, error)
	ResolveUser(claims *Claims) (*user.User, error)
}

type TokenGeneratorAPI interface {
	GenerateAccessToken(userID int64, email string) (string, error)
	GenerateRefreshToken(userID int64, email string) (string, error)
	ValidateToken(tokenString string) (*Claims, error)
}

type Claims struct {
	UserID int64  `json:"uid"`
	Email  string `json:"email"`
	jwt.RegisteredClaims
}

type AuthTokens struct {
	AccessToken  string `json:"token"`
	RefreshToken string `json:"refreshToken"`
}

// AuthResponse is the register/login payload: token plus the public user.
type AuthResponse struct {
	AuthTokens
	User user.UserResponse `json:"user"`
}

func ContextWithUser(ctx context.Context, u *user.User) context.Context {
	return user.ContextWithUser(ctx, u)
}

func UserFromContext(ctx context.Context) (*user.User, bool) {
	return user.UserFromContext(ctx)
}

// JWTTokenGenerator signs HS256 access and refresh tokens with separate
// secrets so a leaked refresh secret cannot mint access tokens.
type JWTTokenGenerator struct {
	AccessTokenSecret  []byte
	RefreshTokenSecret []byte
	AccessTokenTTL     time.Duration
	RefreshTokenTTL    time.Duration
}

func NewJWTTokenGenerator(accessSecret, refreshSecret string, accessTTL, refreshTTL time.Duration) *JWTTokenGenerator {
	if accessTTL <= 0 {
		accessTTL = 15 * time.Minute
	}
	if refreshTTL <= 0 {
		refreshTTL = 7 * 24 * time.Hour
	}
	return &JWTTokenGenerator{
		AccessTokenSecret:  []byte(accessSecret),
		RefreshTokenSecret: []byte(refreshSecret),
		AccessTokenTTL:     accessTTL,
		RefreshTokenTTL:    refreshTTL,
	}
}

func (j *JWTTokenGenerator) GenerateAccessToken(userID int64, email string) (string, error) {
	return j.sign(userID, email, j.AccessTokenTTL, j.AccessTokenSecret)
}

func (j *JWTTokenGenerator) GenerateRefreshToken(userID int64, email string) (string, error) {
	return j.sign(userID, email, j.RefreshTokenTTL, j.RefreshTokenSecret)
}

func (j *JWTTokenGenerator) sign(userID int64, email string, ttl time.Duration, secret []byte) (string, error) {
	now := time.Now()
	claims := &Claims{
		UserID: userID,
		Email:  email,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
			IssuedAt:  jwt.NewNumericDate(now),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(secret)
}

// ValidateToken checks an access token. Refresh tokens are validated by
// validateRefresh inside the service since they use the other secret.
func (j *JWTTokenGenerator) ValidateToken(tokenString string) (*Claims, error) {
	return parseWithSecret(tokenString, j.AccessTokenSecret)
}

func (j *JWTTokenGenerator) validateRefresh(tokenString string) (*Claims, error) {
	return parseWithSecret(tokenString, j.RefreshTokenSecret)
}

func parseWithSecret(tokenString string, secret []byte) (*Claims, error) {
	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, jwt.ErrSignatureInvalid
		}
		return secret, nil
	})
	if err != nil || !token.Valid {
		return nil, err
	}
	return claims, nil
}
