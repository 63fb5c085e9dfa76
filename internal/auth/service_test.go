package auth_test

import (
	"errors"
	"log/slog"
	"os"
	"testing"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"golang.org/x/crypto/bcrypt"

	"github.com/visithran/loan-management/internal"
	"github.com/visithran/loan-management/internal/auth"
	"github.com/visithran/loan-management/internal/user"
)

func TestAuthService(t *testing.T) {
	RegisterFailHandler(Fail)
	RunSpecs(t, "Auth Service Suite")
}

type mockUserDirectory struct {
	byID        map[int64]*user.User
	byUsername  map[string]*user.User
	registered  *user.User
	registerWas user.RegisterDTO
}

func newMockUserDirectory(users ...*user.User) *mockUserDirectory {
	d := &mockUserDirectory{
		byID:       make(map[int64]*user.User),
		byUsername: make(map[string]*user.User),
	}
	for _, u := range users {
		d.byID[u.ID] = u
		d.byUsername[u.Username] = u
	}
	return d
}

func (d *mockUserDirectory) GetByID(id int64) (*user.User, error) {
	if u, ok := d.byID[id]; ok {
		return u, nil
	}
	return nil, internal.ErrUserNotFound
}

func (d *mockUserDirectory) GetByUsername(username string) (*user.User, error) {
	if u, ok := d.byUsername[username]; ok {
		return u, nil
	}
	return nil, internal.ErrUserNotFound
}

func (d *mockUserDirectory) Register(dto user.RegisterDTO) (*user.User, error) {
	d.registerWas = dto
	if d.registered == nil {
		return nil, internal.ErrDuplicateUsername
	}
	return d.registered, nil
}

func hashOf(password string) string {
	hash, _ := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	return string(hash)
}

var _ = Describe("AuthService", func() {
	var (
		svc       *auth.Service
		directory *mockUserDirectory
		tokenGen  *auth.JWTTokenGenerator
		active    *user.User
	)

	BeforeEach(func() {
		active = &user.User{
			ID:           1,
			Name:         "Priya",
			Email:        "priya@mail.com",
			Username:     "priya",
			PasswordHash: hashOf("supersecret"),
			Role:         user.RoleApplicant,
			IsActive:     true,
		}
		directory = newMockUserDirectory(active)
		tokenGen = auth.NewJWTTokenGenerator(
			"0123456789abcdef0123456789abcdef",
			"fedcba9876543210fedcba9876543210",
			15*time.Minute,
			24*time.Hour,
		)
		logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError}))
		svc = auth.NewService(directory, tokenGen, logger)
	})

	Describe("Authenticate", func() {
		It("returns tokens and the public user for valid credentials", func() {
			resp, err := svc.Authenticate(auth.LoginDTO{Username: "priya", Password: "supersecret"})

			Expect(err).ToNot(HaveOccurred())
			Expect(resp.AccessToken).ToNot(BeEmpty())
			Expect(resp.RefreshToken).ToNot(BeEmpty())
			Expect(resp.User.ID).To(Equal(active.ID))
		})

		It("collapses a wrong password into the generic error", func() {
			_, err := svc.Authenticate(auth.LoginDTO{Username: "priya", Password: "wrong"})
			Expect(errors.Is(err, internal.ErrInvalidCredentials)).To(BeTrue())
		})

		It("collapses an unknown username into the same error", func() {
			_, err := svc.Authenticate(auth.LoginDTO{Username: "ghost", Password: "supersecret"})
			Expect(errors.Is(err, internal.ErrInvalidCredentials)).To(BeTrue())
		})

		It("collapses an inactive account into the same error", func() {
			active.IsActive = false
			_, err := svc.Authenticate(auth.LoginDTO{Username: "priya", Password: "supersecret"})
			Expect(errors.Is(err, internal.ErrInvalidCredentials)).To(BeTrue())
		})

		It("never authenticates a find-or-create user with no password", func() {
			passwordless := &user.User{ID: 2, Username: "walkin", IsActive: true}
			directory.byUsername["walkin"] = passwordless

			_, err := svc.Authenticate(auth.LoginDTO{Username: "walkin", Password: ""})
			Expect(err).To(HaveOccurred())

			_, err = svc.Authenticate(auth.LoginDTO{Username: "walkin", Password: "anything"})
			Expect(errors.Is(err, internal.ErrInvalidCredentials)).To(BeTrue())
		})
	})

	Describe("ValidateAccessToken", func() {
		It("round-trips claims through a generated token", func() {
			resp, err := svc.Authenticate(auth.LoginDTO{Username: "priya", Password: "supersecret"})
			Expect(err).ToNot(HaveOccurred())

			claims, err := svc.ValidateAccessToken(resp.AccessToken)

			Expect(err).ToNot(HaveOccurred())
			Expect(claims.UserID).To(Equal(active.ID))
			Expect(claims.Email).To(Equal(active.Email))
		})

		It("rejects garbage tokens", func() {
			_, err := svc.ValidateAccessToken("not.a.token")
			Expect(errors.Is(err, internal.ErrInvalidToken)).To(BeTrue())
		})

		It("rejects a refresh token used as an access token", func() {
			resp, err := svc.Authenticate(auth.LoginDTO{Username: "priya", Password: "supersecret"})
			Expect(err).ToNot(HaveOccurred())

			_, err = svc.ValidateAccessToken(resp.RefreshToken)
			Expect(err).To(HaveOccurred())
		})
	})

	Describe("RefreshTokens", func() {
		It("issues a fresh pair for a valid refresh token", func() {
			resp, err := svc.Authenticate(auth.LoginDTO{Username: "priya", Password: "supersecret"})
			Expect(err).ToNot(HaveOccurred())

			tokens, err := svc.RefreshTokens(resp.RefreshToken)

			Expect(err).ToNot(HaveOccurred())
			Expect(tokens.AccessToken).ToNot(BeEmpty())
			Expect(tokens.RefreshToken).ToNot(BeEmpty())
		})

		It("rejects an access token used for refresh", func() {
			resp, err := svc.Authenticate(auth.LoginDTO{Username: "priya", Password: "supersecret"})
			Expect(err).ToNot(HaveOccurred())

			_, err = svc.RefreshTokens(resp.AccessToken)
			Expect(err).To(HaveOccurred())
		})

		It("refuses refresh for a deactivated user", func() {
			resp, err := svc.Authenticate(auth.LoginDTO{Username: "priya", Password: "supersecret"})
			Expect(err).ToNot(HaveOccurred())

			active.IsActive = false
			_, err = svc.RefreshTokens(resp.RefreshToken)
			Expect(errors.Is(err, internal.ErrUserInactive)).To(BeTrue())
		})
	})

	Describe("ResolveUser", func() {
		It("loads the user behind validated claims", func() {
			resp, err := svc.Authenticate(auth.LoginDTO{Username: "priya", Password: "supersecret"})
			Expect(err).ToNot(HaveOccurred())

			claims, err := svc.ValidateAccessToken(resp.AccessToken)
			Expect(err).ToNot(HaveOccurred())

			u, err := svc.ResolveUser(claims)
			Expect(err).ToNot(HaveOccurred())
			Expect(u.ID).To(Equal(active.ID))
		})
	})
})
