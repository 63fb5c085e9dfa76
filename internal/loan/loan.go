package loan

import (
	"time"

	loanDatamodel "github.com/visithran/loan-management/internal/core/datamodel/loan"
)

// Status is the lifecycle stage of an application. It is a closed set, but
// the state machine is deliberately permissive: any status may overwrite any
// other through UpdateStatus. Staff un-rejecting an application is a
// supported move; every transition is audited instead of restricted.
type Status string

const (
	StatusSubmitted Status = "SUBMITTED"
	StatusApproved  Status = "APPROVED"
	StatusRejected  Status = "REJECTED"
	StatusViewed    Status = "VIEWED"
)

func ValidStatus(s Status) bool {
	switch s {
	case StatusSubmitted, StatusApproved, StatusRejected, StatusViewed:
		return true
	}
	return false
}

type LoanType string

const (
	TypePersonal  LoanType = "PERSONAL_LOAN"
	TypeEducation LoanType = "EDUCATION_LOAN"
	TypeHouse     LoanType = "HOUSE_LOAN"
	TypeJewel     LoanType = "JEWEL_LOAN"
	TypeAuto      LoanType = "AUTO_LOAN"
)

func ValidLoanType(t LoanType) bool {
	switch t {
	case TypePersonal, TypeEducation, TypeHouse, TypeJewel, TypeAuto:
		return true
	}
	return false
}

// MinAmount is the inclusive lower bound for a requested amount.
const MinAmount = 100

type Document struct {
	ID            int64     `json:"id"`
	ApplicationID int64     `json:"application_id"`
	DocumentName  string    `json:"documentName"`
	FileURL       string    `json:"fileUrl"`
	FileType      string    `json:"fileType,omitempty"`
	FileSize      int64     `json:"fileSize,omitempty"`
	CreatedAt     time.Time `json:"created_at"`
}

func DocumentFromDataModel(row *loanDatamodel.ApplicationDocument) *Document {
	return &Document{
		ID:            row.ID,
		ApplicationID: row.ApplicationID,
		DocumentName:  row.DocumentName,
		FileURL:       row.FileURL,
		FileType:      row.FileType,
		FileSize:      row.FileSize,
		CreatedAt:     row.CreatedAt,
	}
}
