package bank

import (
	"strings"

	"github.com/visithran/loan-management/internal"
)

type BranchDTO struct {
	BranchName    string `json:"branchName"`
	Location      string `json:"location"`
	ContactNumber string `json:"contactNumber,omitempty"`
	Email         string `json:"email,omitempty"`
	Active        *bool  `json:"active,omitempty"`
}

func (dto BranchDTO) Validate() error {
	if strings.TrimSpace(dto.BranchName) == "" {
		return internal.NewValidationFieldError("branchName", "branch name is required", internal.ErrCodeValidationFailed)
	}
	if strings.TrimSpace(dto.Location) == "" {
		return internal.NewValidationFieldError("location", "location is required", internal.ErrCodeValidationFailed)
	}
	return nil
}
