package loan_test

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"testing"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/visithran/loan-management/internal"
	"github.com/visithran/loan-management/internal/audit"
	auditDatamodel "github.com/visithran/loan-management/internal/core/datamodel/audit"
	loanDatamodel "github.com/visithran/loan-management/internal/core/datamodel/loan"
	"github.com/visithran/loan-management/internal/loan"
	"github.com/visithran/loan-management/internal/user"
)

func TestLoanService(t *testing.T) {
	RegisterFailHandler(Fail)
	RunSpecs(t, "Loan Service Suite")
}

type mockLoanRepository struct {
	applications map[int64]*loanDatamodel.LoanApplication
	documents    map[int64][]*loanDatamodel.ApplicationDocument
	auditEntries []*auditDatamodel.AuditLog
	archived     []*loanDatamodel.LoanApplication

	archiveCutoff   time.Time
	archiveStatuses []string
	archiveActorID  int64

	createErr error
	nextID    int64
}

func newMockLoanRepository() *mockLoanRepository {
	return &mockLoanRepository{
		applications: make(map[int64]*loanDatamodel.LoanApplication),
		documents:    make(map[int64][]*loanDatamodel.ApplicationDocument),
		nextID:       1,
	}
}

func (m *mockLoanRepository) CreateWithAudit(row *loanDatamodel.LoanApplication, entry *auditDatamodel.AuditLog) error {
	if m.createErr != nil {
		return m.createErr
	}
	row.ID = m.nextID
	m.nextID++
	m.applications[row.ID] = row
	entry.ApplicationID = row.ID
	m.auditEntries = append(m.auditEntries, entry)
	return nil
}

func (m *mockLoanRepository) UpdateWithAudit(row *loanDatamodel.LoanApplication, entry *auditDatamodel.AuditLog) error {
	m.applications[row.ID] = row
	entry.ApplicationID = row.ID
	m.auditEntries = append(m.auditEntries, entry)
	return nil
}

func (m *mockLoanRepository) GetByID(id int64) (*loanDatamodel.LoanApplication, error) {
	return m.applications[id], nil
}

func (m *mockLoanRepository) GetByApplicantID(applicantID int64) ([]*loanDatamodel.LoanApplication, error) {
	var rows []*loanDatamodel.LoanApplication
	for _, row := range m.applications {
		if row.ApplicantID == applicantID {
			rows = append(rows, row)
		}
	}
	return rows, nil
}

func (m *mockLoanRepository) GetByStatus(status string) ([]*loanDatamodel.LoanApplication, error) {
	var rows []*loanDatamodel.LoanApplication
	for _, row := range m.applications {
		if row.Status == status {
			rows = append(rows, row)
		}
	}
	return rows, nil
}

func (m *mockLoanRepository) Search(term string, limit, offset int) ([]*loanDatamodel.LoanApplication, int64, error) {
	var matched []*loanDatamodel.LoanApplication
	for id := int64(1); id < m.nextID; id++ {
		row, ok := m.applications[id]
		if !ok {
			continue
		}
		if term == "" || strings.Contains(fmt.Sprintf("%d", row.ID), term) {
			matched = append(matched, row)
		}
	}

	total := int64(len(matched))
	start := offset
	if start > len(matched) {
		start = len(matched)
	}
	end := start + limit
	if end > len(matched) {
		end = len(matched)
	}
	return matched[start:end], total, nil
}

func (m *mockLoanRepository) ArchiveOlderThan(cutoff time.Time, statuses []string, actorID int64) (int, error) {
	m.archiveCutoff = cutoff
	m.archiveStatuses = statuses
	m.archiveActorID = actorID

	var count int
	for id, row := range m.applications {
		if !row.CreatedAt.Before(cutoff) {
			continue
		}
		for _, status := range statuses {
			if row.Status == status {
				m.archived = append(m.archived, row)
				delete(m.applications, id)
				count++
				break
			}
		}
	}
	return count, nil
}

func (m *mockLoanRepository) AttachDocument(doc *loanDatamodel.ApplicationDocument, entry *auditDatamodel.AuditLog) error {
	m.documents[doc.ApplicationID] = append(m.documents[doc.ApplicationID], doc)
	m.auditEntries = append(m.auditEntries, entry)
	return nil
}

func (m *mockLoanRepository) GetDocuments(applicationID int64) ([]*loanDatamodel.ApplicationDocument, error) {
	return m.documents[applicationID], nil
}

func (m *mockLoanRepository) lastAudit() *auditDatamodel.AuditLog {
	if len(m.auditEntries) == 0 {
		return nil
	}
	return m.auditEntries[len(m.auditEntries)-1]
}

type mockUserDirectory struct {
	byID    map[int64]*user.User
	byEmail map[string]*user.User
}

func newMockUserDirectory(users ...*user.User) *mockUserDirectory {
	d := &mockUserDirectory{
		byID:    make(map[int64]*user.User),
		byEmail: make(map[string]*user.User),
	}
	for _, u := range users {
		d.byID[u.ID] = u
		d.byEmail[u.Email] = u
	}
	return d
}

func (d *mockUserDirectory) GetByID(id int64) (*user.User, error) {
	if u, ok := d.byID[id]; ok {
		return u, nil
	}
	return nil, internal.ErrUserNotFound
}

func (d *mockUserDirectory) GetByEmail(email string) (*user.User, error) {
	if u, ok := d.byEmail[email]; ok {
		return u, nil
	}
	return nil, internal.ErrUserNotFound
}

type mockBranchRegistry struct {
	selectable map[string]bool
}

func (r *mockBranchRegistry) IsSelectable(name string) (bool, error) {
	return r.selectable[name], nil
}

var _ = Describe("LoanService", func() {
	var (
		svc       *loan.Service
		mockRepo  *mockLoanRepository
		directory *mockUserDirectory
		registry  *mockBranchRegistry
		applicant *user.User
		admin     *user.User
	)

	BeforeEach(func() {
		mockRepo = newMockLoanRepository()
		applicant = &user.User{ID: 1, Name: "Priya", Email: "priya@mail.com", Role: user.RoleApplicant, IsActive: true}
		admin = &user.User{ID: 2, Name: "Admin", Email: "admin@mail.com", Role: user.RoleAdmin, IsActive: true}
		directory = newMockUserDirectory(applicant, admin)
		registry = &mockBranchRegistry{selectable: map[string]bool{"Chennai Main": true}}
		logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError}))
		svc = loan.NewService(mockRepo, directory, registry, logger)
	})

	submit := func(amount float64) (*loan.ApplicationResponse, error) {
		return svc.Submit(loan.SubmitLoanDTO{
			LoanType: string(loan.TypePersonal),
			Amount:   amount,
		}, applicant.Email)
	}

	Describe("Submit", func() {
		It("stores the application as SUBMITTED with a CREATED audit entry", func() {
			resp, err := submit(5000)

			Expect(err).ToNot(HaveOccurred())
			Expect(resp.Status).To(Equal(loan.StatusSubmitted))
			Expect(resp.Applicant.ID).To(Equal(applicant.ID))

			entry := mockRepo.lastAudit()
			Expect(entry.Action).To(Equal(string(audit.ActionCreated)))
			Expect(entry.UserID).To(Equal(applicant.ID))
			Expect(entry.ApplicationID).To(Equal(resp.ID))
		})

		It("accepts the minimum amount boundary exactly", func() {
			resp, err := submit(100)

			Expect(err).ToNot(HaveOccurred())
			Expect(resp.Amount).To(Equal(float64(100)))
		})

		It("rejects an amount just below the minimum", func() {
			_, err := submit(99.99)

			Expect(err).To(HaveOccurred())
			appErr, ok := internal.IsAppError(err)
			Expect(ok).To(BeTrue())
			Expect(appErr.Code).To(Equal(internal.ErrCodeInvalidAmount))
			Expect(mockRepo.applications).To(BeEmpty())
		})

		It("rejects a loan type outside the closed set", func() {
			_, err := svc.Submit(loan.SubmitLoanDTO{LoanType: "BOAT_LOAN", Amount: 5000}, applicant.Email)

			appErr, ok := internal.IsAppError(err)
			Expect(ok).To(BeTrue())
			Expect(appErr.Code).To(Equal(internal.ErrCodeInvalidLoanType))
		})

		It("returns NotFound for an unknown applicant", func() {
			_, err := svc.Submit(loan.SubmitLoanDTO{LoanType: string(loan.TypePersonal), Amount: 5000}, "ghost@mail.com")
			Expect(errors.Is(err, internal.ErrUserNotFound)).To(BeTrue())
		})

		It("accepts a selectable bank branch", func() {
			resp, err := svc.Submit(loan.SubmitLoanDTO{
				LoanType:           string(loan.TypeHouse),
				Amount:             250000,
				SelectedBankBranch: "Chennai Main",
			}, applicant.Email)

			Expect(err).ToNot(HaveOccurred())
			Expect(resp.SelectedBankBranch).To(Equal("Chennai Main"))
		})

		It("rejects an unknown or inactive bank branch", func() {
			_, err := svc.Submit(loan.SubmitLoanDTO{
				LoanType:           string(loan.TypeHouse),
				Amount:             250000,
				SelectedBankBranch: "Closed Branch",
			}, applicant.Email)

			Expect(err).To(HaveOccurred())
			Expect(mockRepo.applications).To(BeEmpty())
		})
	})

	Describe("UpdateStatus", func() {
		var id int64

		BeforeEach(func() {
			resp, err := submit(5000)
			Expect(err).ToNot(HaveOccurred())
			id = resp.ID
		})

		It("allows any status to overwrite any other", func() {
			for _, status := range []loan.Status{loan.StatusApproved, loan.StatusSubmitted, loan.StatusViewed, loan.StatusApproved} {
				dto := loan.StatusUpdateDTO{Status: string(status)}
				resp, err := svc.UpdateStatus(id, dto, admin.Email)
				Expect(err).ToNot(HaveOccurred())
				Expect(resp.Status).To(Equal(status))
			}
		})

		It("stores the rejection reason only while rejected", func() {
			resp, err := svc.UpdateStatus(id, loan.StatusUpdateDTO{
				Status:          string(loan.StatusRejected),
				RejectionReason: "insufficient income",
			}, admin.Email)
			Expect(err).ToNot(HaveOccurred())
			Expect(resp.RejectionReason).To(Equal("insufficient income"))

			resp, err = svc.UpdateStatus(id, loan.StatusUpdateDTO{Status: string(loan.StatusApproved)}, admin.Email)
			Expect(err).ToNot(HaveOccurred())
			Expect(resp.RejectionReason).To(BeEmpty())
		})

		It("records the matching audit action per status", func() {
			cases := map[loan.Status]audit.Action{
				loan.StatusApproved:  audit.ActionApproved,
				loan.StatusRejected:  audit.ActionRejected,
				loan.StatusViewed:    audit.ActionViewed,
				loan.StatusSubmitted: audit.ActionUpdated,
			}
			for status, action := range cases {
				dto := loan.StatusUpdateDTO{Status: string(status), RejectionReason: "reason"}
				_, err := svc.UpdateStatus(id, dto, admin.Email)
				Expect(err).ToNot(HaveOccurred())
				Expect(mockRepo.lastAudit().Action).To(Equal(string(action)))
				Expect(mockRepo.lastAudit().UserID).To(Equal(admin.ID))
			}
		})

		It("rejects an unknown status", func() {
			_, err := svc.UpdateStatus(id, loan.StatusUpdateDTO{Status: "LOST"}, admin.Email)

			appErr, ok := internal.IsAppError(err)
			Expect(ok).To(BeTrue())
			Expect(appErr.Code).To(Equal(internal.ErrCodeInvalidStatus))
		})

		It("returns NotFound for a missing application", func() {
			_, err := svc.UpdateStatus(9999, loan.StatusUpdateDTO{Status: string(loan.StatusApproved)}, admin.Email)
			Expect(errors.Is(err, internal.ErrLoanNotFound)).To(BeTrue())
		})
	})

	Describe("Reject", func() {
		It("requires a non-blank reason", func() {
			resp, err := submit(5000)
			Expect(err).ToNot(HaveOccurred())

			_, err = svc.Reject(resp.ID, "   ", admin.Email)
			Expect(err).To(HaveOccurred())

			rejected, err := svc.Reject(resp.ID, "missing documents", admin.Email)
			Expect(err).ToNot(HaveOccurred())
			Expect(rejected.Status).To(Equal(loan.StatusRejected))
			Expect(rejected.RejectionReason).To(Equal("missing documents"))
		})
	})

	Describe("ListAll", func() {
		BeforeEach(func() {
			for i := 0; i < 25; i++ {
				_, err := submit(1000)
				Expect(err).ToNot(HaveOccurred())
			}
		})

		It("pages results and reports totals", func() {
			page, err := svc.ListAll(0, 10, "")

			Expect(err).ToNot(HaveOccurred())
			Expect(page.Content).To(HaveLen(10))
			Expect(page.TotalElements).To(Equal(int64(25)))
			Expect(page.TotalPages).To(Equal(3))
		})

		It("returns the short last page", func() {
			page, err := svc.ListAll(2, 10, "")

			Expect(err).ToNot(HaveOccurred())
			Expect(page.Content).To(HaveLen(5))
			Expect(page.Page).To(Equal(2))
		})

		It("falls back to sane defaults for bad paging input", func() {
			page, err := svc.ListAll(-1, 0, "")

			Expect(err).ToNot(HaveOccurred())
			Expect(page.Page).To(Equal(0))
			Expect(page.Size).To(Equal(10))
		})
	})

	Describe("ListByStatus", func() {
		It("rejects a status outside the closed set", func() {
			_, err := svc.ListByStatus("PENDING")
			Expect(err).To(HaveOccurred())
		})

		It("returns only matching applications", func() {
			first, err := submit(1000)
			Expect(err).ToNot(HaveOccurred())
			_, err = submit(2000)
			Expect(err).ToNot(HaveOccurred())

			_, err = svc.Approve(first.ID, admin.Email)
			Expect(err).ToNot(HaveOccurred())

			approved, err := svc.ListByStatus(string(loan.StatusApproved))
			Expect(err).ToNot(HaveOccurred())
			Expect(approved).To(HaveLen(1))
			Expect(approved[0].ID).To(Equal(first.ID))
		})
	})

	Describe("ArchiveOld", func() {
		It("targets only decided applications older than one year", func() {
			old := time.Now().AddDate(-2, 0, 0)
			mockRepo.applications[100] = &loanDatamodel.LoanApplication{
				ID: 100, ApplicantID: applicant.ID, Status: string(loan.StatusApproved), CreatedAt: old,
			}
			mockRepo.applications[101] = &loanDatamodel.LoanApplication{
				ID: 101, ApplicantID: applicant.ID, Status: string(loan.StatusSubmitted), CreatedAt: old,
			}
			mockRepo.applications[102] = &loanDatamodel.LoanApplication{
				ID: 102, ApplicantID: applicant.ID, Status: string(loan.StatusRejected), CreatedAt: time.Now(),
			}

			result, err := svc.ArchiveOld(admin.Email)

			Expect(err).ToNot(HaveOccurred())
			Expect(result.ArchivedCount).To(Equal(1))
			Expect(mockRepo.applications).ToNot(HaveKey(int64(100)))
			Expect(mockRepo.applications).To(HaveKey(int64(101)))
			Expect(mockRepo.applications).To(HaveKey(int64(102)))

			Expect(mockRepo.archiveStatuses).To(ConsistOf(string(loan.StatusApproved), string(loan.StatusRejected)))
			Expect(mockRepo.archiveActorID).To(Equal(admin.ID))
			Expect(mockRepo.archiveCutoff).To(BeTemporally("~", time.Now().AddDate(-1, 0, 0), time.Minute))
		})
	})

	Describe("Documents", func() {
		It("attaches metadata and records an audit entry", func() {
			resp, err := submit(5000)
			Expect(err).ToNot(HaveOccurred())

			doc, err := svc.AttachDocument(resp.ID, loan.DocumentDTO{
				DocumentName: "payslip.pdf",
				FileURL:      "https://files.local/payslip.pdf",
			}, applicant.Email)

			Expect(err).ToNot(HaveOccurred())
			Expect(doc.DocumentName).To(Equal("payslip.pdf"))
			Expect(mockRepo.lastAudit().Action).To(Equal(string(audit.ActionUpdated)))

			docs, err := svc.ListDocuments(resp.ID)
			Expect(err).ToNot(HaveOccurred())
			Expect(docs).To(HaveLen(1))
		})

		It("returns NotFound when attaching to a missing application", func() {
			_, err := svc.AttachDocument(9999, loan.DocumentDTO{
				DocumentName: "payslip.pdf",
				FileURL:      "https://files.local/payslip.pdf",
			}, applicant.Email)
			Expect(errors.Is(err, internal.ErrLoanNotFound)).To(BeTrue())
		})
	})
})
