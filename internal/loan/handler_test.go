package loan_test

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"

	"github.com/go-chi/chi"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/visithran/loan-management/internal/auth"
	"github.com/visithran/loan-management/internal/loan"
	"github.com/visithran/loan-management/internal/user"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError}))
}

var _ = Describe("Loan Handler", func() {
	var (
		handler   *loan.Handler
		router    *chi.Mux
		actor     *user.User
		mockRepo  *mockLoanRepository
		directory *mockUserDirectory
	)

	BeforeEach(func() {
		mockRepo = newMockLoanRepository()
		actor = &user.User{ID: 1, Name: "Priya", Email: "priya@mail.com", Role: user.RoleApplicant, IsActive: true}
		directory = newMockUserDirectory(actor)
		registry := &mockBranchRegistry{selectable: map[string]bool{}}
		svc := loan.NewService(mockRepo, directory, registry, testLogger())
		handler = loan.NewHandler(svc)

		router = chi.NewRouter()
		router.Post("/loans", handler.Submit)
		router.Get("/loans/my", handler.MyApplications)
		router.Get("/loans/{id}", handler.GetByID)
	})

	withActor := func(req *http.Request) *http.Request {
		return req.WithContext(auth.ContextWithUser(req.Context(), actor))
	}

	Describe("POST /loans", func() {
		It("submits for the authenticated user", func() {
			body, _ := json.Marshal(loan.SubmitLoanDTO{
				LoanType: string(loan.TypePersonal),
				Amount:   5000,
			})
			req := withActor(httptest.NewRequest(http.MethodPost, "/loans", bytes.NewReader(body)))
			w := httptest.NewRecorder()
			router.ServeHTTP(w, req)

			Expect(w.Code).To(Equal(http.StatusCreated))

			var resp loan.ApplicationResponse
			Expect(json.NewDecoder(w.Body).Decode(&resp)).To(Succeed())
			Expect(resp.Applicant.ID).To(Equal(actor.ID))
			Expect(resp.Status).To(Equal(loan.StatusSubmitted))
		})

		It("rejects an unauthenticated request", func() {
			req := httptest.NewRequest(http.MethodPost, "/loans", bytes.NewReader([]byte(`{}`)))
			w := httptest.NewRecorder()
			router.ServeHTTP(w, req)

			Expect(w.Code).To(Equal(http.StatusUnauthorized))
		})

		It("maps a validation failure to 400", func() {
			body, _ := json.Marshal(loan.SubmitLoanDTO{
				LoanType: string(loan.TypePersonal),
				Amount:   50,
			})
			req := withActor(httptest.NewRequest(http.MethodPost, "/loans", bytes.NewReader(body)))
			w := httptest.NewRecorder()
			router.ServeHTTP(w, req)

			Expect(w.Code).To(Equal(http.StatusBadRequest))
		})
	})

	Describe("GET /loans/{id}", func() {
		It("maps a missing application to 404", func() {
			req := withActor(httptest.NewRequest(http.MethodGet, "/loans/999", nil))
			w := httptest.NewRecorder()
			router.ServeHTTP(w, req)

			Expect(w.Code).To(Equal(http.StatusNotFound))
		})
	})

	Describe("GET /loans/my", func() {
		It("returns only the actor's applications", func() {
			other := &user.User{ID: 2, Email: "other@mail.com", Role: user.RoleApplicant, IsActive: true}
			directory.byID[other.ID] = other
			directory.byEmail[other.Email] = other

			svc := loan.NewService(mockRepo, directory, &mockBranchRegistry{selectable: map[string]bool{}}, testLogger())
			_, err := svc.Submit(loan.SubmitLoanDTO{LoanType: string(loan.TypePersonal), Amount: 1000}, actor.Email)
			Expect(err).ToNot(HaveOccurred())
			_, err = svc.Submit(loan.SubmitLoanDTO{LoanType: string(loan.TypePersonal), Amount: 2000}, other.Email)
			Expect(err).ToNot(HaveOccurred())

			req := withActor(httptest.NewRequest(http.MethodGet, "/loans/my", nil))
			w := httptest.NewRecorder()
			router.ServeHTTP(w, req)

			Expect(w.Code).To(Equal(http.StatusOK))

			var responses []*loan.ApplicationResponse
			Expect(json.NewDecoder(w.Body).Decode(&responses)).To(Succeed())
			Expect(responses).To(HaveLen(1))
			Expect(responses[0].Applicant.ID).To(Equal(actor.ID))
		})
	})
})
