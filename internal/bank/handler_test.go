package bank_test

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"strconv"
	"time"

	"github.com/go-chi/chi"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormLogger "gorm.io/gorm/logger"

	"github.com/visithran/loan-management/internal/bank"
	bankPostgres "github.com/visithran/loan-management/internal/bank/postgres"
)

// SQLite stand-in for the bank_branches row.
type SQLiteBankBranch struct {
	ID            int64     `gorm:"primaryKey"`
	BranchName    string    `gorm:"column:branch_name;not null"`
	Location      string    `gorm:"column:location"`
	ContactNumber string    `gorm:"column:contact_number"`
	Email         string    `gorm:"column:email"`
	Active        bool      `gorm:"column:active"`
	CreatedAt     time.Time `gorm:"column:created_at"`
	UpdatedAt     time.Time `gorm:"column:updated_at"`
}

func (SQLiteBankBranch) TableName() string { return "bank_branches" }

var _ = Describe("Bank Handler Integration", func() {
	var (
		db      *gorm.DB
		service *bank.Service
		handler *bank.Handler
		router  *chi.Mux
	)

	BeforeEach(func() {
		var err error
		db, err = gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
			Logger: gormLogger.Default.LogMode(gormLogger.Silent),
		})
		Expect(err).NotTo(HaveOccurred())

		err = db.AutoMigrate(&SQLiteBankBranch{})
		Expect(err).NotTo(HaveOccurred())

		slogger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError}))
		repo := bankPostgres.NewBankRepository(db)
		service = bank.NewService(repo, slogger)
		handler = bank.NewHandler(service)

		router = chi.NewRouter()
		router.Get("/banks", handler.ListActive)
		router.Get("/banks/{id}", handler.GetByID)
		router.Post("/banks", handler.Create)
		router.Put("/banks/{id}", handler.Update)
		router.Delete("/banks/{id}", handler.Delete)
	})

	AfterEach(func() {
		sqlDB, err := db.DB()
		Expect(err).NotTo(HaveOccurred())
		sqlDB.Close()
	})

	createBranch := func(name string) *bank.Branch {
		branch, err := service.Create(bank.BranchDTO{
			BranchName: name,
			Location:   "Chennai",
		})
		Expect(err).NotTo(HaveOccurred())
		return branch
	}

	Describe("GET /banks", func() {
		It("lists only active branches", func() {
			createBranch("Open Branch")
			doomed := createBranch("Closed Branch")
			Expect(service.Delete(doomed.ID)).To(Succeed())

			req := httptest.NewRequest(http.MethodGet, "/banks", nil)
			w := httptest.NewRecorder()
			router.ServeHTTP(w, req)

			Expect(w.Code).To(Equal(http.StatusOK))

			var branches []*bank.Branch
			Expect(json.NewDecoder(w.Body).Decode(&branches)).To(Succeed())
			Expect(branches).To(HaveLen(1))
			Expect(branches[0].BranchName).To(Equal("Open Branch"))
		})
	})

	Describe("POST /banks", func() {
		It("creates a branch from a valid payload", func() {
			body, _ := json.Marshal(bank.BranchDTO{BranchName: "Madurai East", Location: "Madurai"})
			req := httptest.NewRequest(http.MethodPost, "/banks", bytes.NewReader(body))
			w := httptest.NewRecorder()
			router.ServeHTTP(w, req)

			Expect(w.Code).To(Equal(http.StatusCreated))

			var branch bank.Branch
			Expect(json.NewDecoder(w.Body).Decode(&branch)).To(Succeed())
			Expect(branch.ID).To(BeNumerically(">", 0))
			Expect(branch.Active).To(BeTrue())
		})

		It("rejects a payload without a branch name", func() {
			req := httptest.NewRequest(http.MethodPost, "/banks", bytes.NewReader([]byte(`{"location":"Madurai"}`)))
			w := httptest.NewRecorder()
			router.ServeHTTP(w, req)

			Expect(w.Code).To(Equal(http.StatusBadRequest))
		})
	})

	Describe("GET /banks/{id}", func() {
		It("returns 404 for a missing branch", func() {
			req := httptest.NewRequest(http.MethodGet, "/banks/999", nil)
			w := httptest.NewRecorder()
			router.ServeHTTP(w, req)

			Expect(w.Code).To(Equal(http.StatusNotFound))
		})

		It("returns 400 for a non-numeric id", func() {
			req := httptest.NewRequest(http.MethodGet, "/banks/abc", nil)
			w := httptest.NewRecorder()
			router.ServeHTTP(w, req)

			Expect(w.Code).To(Equal(http.StatusBadRequest))
		})
	})

	Describe("DELETE /banks/{id}", func() {
		It("deactivates instead of deleting", func() {
			branch := createBranch("Doomed Branch")

			req := httptest.NewRequest(http.MethodDelete, "/banks/"+itoa(branch.ID), nil)
			w := httptest.NewRecorder()
			router.ServeHTTP(w, req)

			Expect(w.Code).To(Equal(http.StatusOK))

			still, err := service.GetByID(branch.ID)
			Expect(err).NotTo(HaveOccurred())
			Expect(still.Active).To(BeFalse())
		})
	})
})

func itoa(id int64) string {
	return strconv.FormatInt(id, 10)
}
