package bank

import (
	"time"

	bankDatamodel "github.com/visithran/loan-management/internal/core/datamodel/bank"
)

type Branch struct {
	ID            int64     `json:"id"`
	BranchName    string    `json:"branchName"`
	Location      string    `json:"location"`
	ContactNumber string    `json:"contactNumber,omitempty"`
	Email         string    `json:"email,omitempty"`
	Active        bool      `json:"active"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}

func (b *Branch) Deactivate() {
	b.Active = false
	b.UpdatedAt = time.Now()
}

func NewBranch(name, location, contactNumber, email string) *Branch {
	now := time.Now()
	return &Branch{
		BranchName:    name,
		Location:      location,
		ContactNumber: contactNumber,
		Email:         email,
		Active:        true,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
}

func ToDataModel(b *Branch) *bankDatamodel.BankBranch {
	return &bankDatamodel.BankBranch{
		ID:            b.ID,
		BranchName:    b.BranchName,
		Location:      b.Location,
		ContactNumber: b.ContactNumber,
		Email:         b.Email,
		Active:        b.Active,
		CreatedAt:     b.CreatedAt,
		UpdatedAt:     b.UpdatedAt,
	}
}

func FromDataModel(row *bankDatamodel.BankBranch) *Branch {
	return &Branch{
		ID:            row.ID,
		BranchName:    row.BranchName,
		Location:      row.Location,
		ContactNumber: row.ContactNumber,
		Email:         row.Email,
		Active:        row.Active,
		CreatedAt:     row.CreatedAt,
		UpdatedAt:     row.UpdatedAt,
	}
}
