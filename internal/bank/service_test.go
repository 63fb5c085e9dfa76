package bank_test

import (
	"errors"
	"log/slog"
	"os"
	"testing"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/visithran/loan-management/internal"
	"github.com/visithran/loan-management/internal/bank"
	bankDatamodel "github.com/visithran/loan-management/internal/core/datamodel/bank"
)

func TestBankService(t *testing.T) {
	RegisterFailHandler(Fail)
	RunSpecs(t, "Bank Service Suite")
}

type mockBankRepository struct {
	branches map[int64]*bankDatamodel.BankBranch
	nextID   int64
}

func newMockBankRepository() *mockBankRepository {
	return &mockBankRepository{
		branches: make(map[int64]*bankDatamodel.BankBranch),
		nextID:   1,
	}
}

func (m *mockBankRepository) GetActive() ([]*bankDatamodel.BankBranch, error) {
	var rows []*bankDatamodel.BankBranch
	for _, b := range m.branches {
		if b.Active {
			rows = append(rows, b)
		}
	}
	return rows, nil
}

func (m *mockBankRepository) GetByID(id int64) (*bankDatamodel.BankBranch, error) {
	return m.branches[id], nil
}

func (m *mockBankRepository) GetByName(name string) (*bankDatamodel.BankBranch, error) {
	for _, b := range m.branches {
		if b.BranchName == name {
			return b, nil
		}
	}
	return nil, nil
}

func (m *mockBankRepository) Create(row *bankDatamodel.BankBranch) error {
	row.ID = m.nextID
	m.nextID++
	m.branches[row.ID] = row
	return nil
}

func (m *mockBankRepository) Update(row *bankDatamodel.BankBranch) error {
	m.branches[row.ID] = row
	return nil
}

func (m *mockBankRepository) Deactivate(id int64) error {
	if b, ok := m.branches[id]; ok {
		b.Active = false
		b.UpdatedAt = time.Now()
	}
	return nil
}

var _ = Describe("BankService", func() {
	var (
		svc      *bank.Service
		mockRepo *mockBankRepository
	)

	BeforeEach(func() {
		mockRepo = newMockBankRepository()
		logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError}))
		svc = bank.NewService(mockRepo, logger)
	})

	seed := func(name string, active bool) int64 {
		row := &bankDatamodel.BankBranch{BranchName: name, Location: "Chennai", Active: active}
		mockRepo.Create(row)
		return row.ID
	}

	Describe("ListActive", func() {
		It("excludes deactivated branches", func() {
			seed("Open Branch", true)
			seed("Closed Branch", false)

			branches, err := svc.ListActive()

			Expect(err).ToNot(HaveOccurred())
			Expect(branches).To(HaveLen(1))
			Expect(branches[0].BranchName).To(Equal("Open Branch"))
		})
	})

	Describe("IsSelectable", func() {
		It("is true only for existing active branches", func() {
			seed("Open Branch", true)
			seed("Closed Branch", false)

			ok, err := svc.IsSelectable("Open Branch")
			Expect(err).ToNot(HaveOccurred())
			Expect(ok).To(BeTrue())

			ok, err = svc.IsSelectable("Closed Branch")
			Expect(err).ToNot(HaveOccurred())
			Expect(ok).To(BeFalse())

			ok, err = svc.IsSelectable("No Such Branch")
			Expect(err).ToNot(HaveOccurred())
			Expect(ok).To(BeFalse())
		})
	})

	Describe("Create", func() {
		It("stores a new active branch", func() {
			branch, err := svc.Create(bank.BranchDTO{
				BranchName:    "Madurai East",
				Location:      "Madurai",
				ContactNumber: "+91-452-234-5678",
				Email:         "madurai@loanapp.local",
			})

			Expect(err).ToNot(HaveOccurred())
			Expect(branch.ID).To(BeNumerically(">", 0))
			Expect(branch.Active).To(BeTrue())
		})

		It("rejects a blank branch name", func() {
			_, err := svc.Create(bank.BranchDTO{Location: "Madurai"})
			Expect(err).To(HaveOccurred())
		})
	})

	Describe("Update", func() {
		It("returns NotFound for a missing branch", func() {
			_, err := svc.Update(42, bank.BranchDTO{BranchName: "Renamed"})
			Expect(errors.Is(err, internal.ErrBranchNotFound)).To(BeTrue())
		})

		It("overwrites the stored fields", func() {
			id := seed("Old Name", true)

			branch, err := svc.Update(id, bank.BranchDTO{BranchName: "New Name", Location: "Salem"})

			Expect(err).ToNot(HaveOccurred())
			Expect(branch.BranchName).To(Equal("New Name"))
			Expect(branch.Location).To(Equal("Salem"))
		})
	})

	Describe("Delete", func() {
		It("soft deletes: the branch drops from listings but keeps its row", func() {
			id := seed("Doomed Branch", true)

			Expect(svc.Delete(id)).To(Succeed())

			branches, err := svc.ListActive()
			Expect(err).ToNot(HaveOccurred())
			Expect(branches).To(BeEmpty())

			still, err := svc.GetByID(id)
			Expect(err).ToNot(HaveOccurred())
			Expect(still.Active).To(BeFalse())
		})

		It("returns NotFound for a missing branch", func() {
			err := svc.Delete(42)
			Expect(errors.Is(err, internal.ErrBranchNotFound)).To(BeTrue())
		})
	})
})
