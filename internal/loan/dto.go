package loan

import (
	"fmt"
	"strings"
	"time"

	"github.com/visithran/loan-management/internal"
	"github.com/visithran/loan-management/internal/user"
)

type SubmitLoanDTO struct {
	LoanType           string  `json:"loanType"`
	Amount             float64 `json:"amount"`
	Description        string  `json:"description,omitempty"`
	SelectedBankBranch string  `json:"selectedBankBranch,omitempty"`
}

func (dto SubmitLoanDTO) Validate() error {
	if dto.LoanType == "" {
		return internal.NewValidationFieldError("loanType", "loan type is required", internal.ErrCodeValidationFailed)
	}
	if !ValidLoanType(LoanType(dto.LoanType)) {
		return internal.NewValidationFieldError("loanType",
			fmt.Sprintf("unrecognized loan type %q", dto.LoanType), internal.ErrCodeInvalidLoanType)
	}
	if dto.Amount < MinAmount {
		return internal.NewValidationFieldError("amount",
			fmt.Sprintf("amount must be at least %d", MinAmount), internal.ErrCodeInvalidAmount)
	}
	return nil
}

type StatusUpdateDTO struct {
	Status          string `json:"status"`
	RejectionReason string `json:"rejectionReason,omitempty"`
}

func (dto StatusUpdateDTO) Validate() error {
	if dto.Status == "" {
		return internal.NewValidationFieldError("status", "status is required", internal.ErrCodeValidationFailed)
	}
	if !ValidStatus(Status(dto.Status)) {
		return internal.NewValidationFieldError("status",
			fmt.Sprintf("unrecognized status %q", dto.Status), internal.ErrCodeInvalidStatus)
	}
	return nil
}

type RejectLoanDTO struct {
	RejectionReason string `json:"rejectionReason"`
}

func (dto RejectLoanDTO) Validate() error {
	if strings.TrimSpace(dto.RejectionReason) == "" {
		return internal.NewValidationFieldError("rejectionReason", "rejection reason is required", internal.ErrCodeValidationFailed)
	}
	return nil
}

type DocumentDTO struct {
	DocumentName string `json:"documentName"`
	FileURL      string `json:"fileUrl"`
	FileType     string `json:"fileType,omitempty"`
	FileSize     int64  `json:"fileSize,omitempty"`
}

func (dto DocumentDTO) Validate() error {
	if strings.TrimSpace(dto.DocumentName) == "" {
		return internal.NewValidationFieldError("documentName", "document name is required", internal.ErrCodeValidationFailed)
	}
	if strings.TrimSpace(dto.FileURL) == "" {
		return internal.NewValidationFieldError("fileUrl", "file url is required", internal.ErrCodeValidationFailed)
	}
	return nil
}

// ApplicationResponse is the wire shape; the applicant reference is resolved
// into its public form before leaving the service.
type ApplicationResponse struct {
	ID                 int64             `json:"id"`
	Applicant          user.UserResponse `json:"applicant"`
	LoanType           LoanType          `json:"loanType"`
	Amount             float64           `json:"amount"`
	Description        string            `json:"description,omitempty"`
	SelectedBankBranch string            `json:"selectedBankBranch,omitempty"`
	Status             Status            `json:"status"`
	RejectionReason    string            `json:"rejectionReason,omitempty"`
	CreatedAt          time.Time         `json:"createdAt"`
}

// Page carries one page of results plus the total-count metadata the admin
// dashboard paginates on.
type Page struct {
	Content       []*ApplicationResponse `json:"content"`
	Page          int                    `json:"page"`
	Size          int                    `json:"size"`
	TotalElements int64                  `json:"totalElements"`
	TotalPages    int                    `json:"totalPages"`
}

// ArchiveResult reports how many applications the archive pass moved.
type ArchiveResult struct {
	ArchivedCount int    `json:"archivedCount"`
	Message       string `json:"message"`
}
