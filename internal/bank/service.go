package bank

import (
	"log/slog"
	"time"

	"github.com/visithran/loan-management/internal"
	bankDatamodel "github.com/visithran/loan-management/internal/core/datamodel/bank"
)

type RepositoryAPI interface {
	GetActive() ([]*bankDatamodel.BankBranch, error)
	GetByID(id int64) (*bankDatamodel.BankBranch, error)
	GetByName(name string) (*bankDatamodel.BankBranch, error)
	Create(row *bankDatamodel.BankBranch) error
	Update(row *bankDatamodel.BankBranch) error
	Deactivate(id int64) error
}

type Service struct {
	repo   RepositoryAPI
	logger *slog.Logger
}

func NewService(repo RepositoryAPI, logger *slog.Logger) *Service {
	return &Service{
		repo:   repo,
		logger: logger,
	}
}

// ListActive returns branches with active = true only. Deactivated branches
// stay in storage but never show up here.
func (s *Service) ListActive() ([]*Branch, error) {
	rows, err := s.repo.GetActive()
	if err != nil {
		s.logger.Error("failed to list active branches", "error", err)
		return nil, internal.NewInternalError("failed to list branches", err)
	}
	branches := make([]*Branch, len(rows))
	for i, row := range rows {
		branches[i] = FromDataModel(row)
	}
	return branches, nil
}

func (s *Service) GetByID(id int64) (*Branch, error) {
	row, err := s.repo.GetByID(id)
	if err != nil {
		s.logger.Error("failed to get branch", "error", err, "branch_id", id)
		return nil, internal.NewInternalError("failed to get branch", err)
	}
	if row == nil {
		return nil, internal.ErrBranchNotFound
	}
	return FromDataModel(row), nil
}

// IsSelectable reports whether a branch with the given name exists and is
// active; the loan workflow uses it to validate submissions.
func (s *Service) IsSelectable(name string) (bool, error) {
	row, err := s.repo.GetByName(name)
	if err != nil {
		return false, internal.NewInternalError("failed to look up branch", err)
	}
	return row != nil && row.Active, nil
}

func (s *Service) Create(dto BranchDTO) (*Branch, error) {
	if err := dto.Validate(); err != nil {
		return nil, err
	}

	branch := NewBranch(dto.BranchName, dto.Location, dto.ContactNumber, dto.Email)
	if dto.Active != nil {
		branch.Active = *dto.Active
	}

	row := ToDataModel(branch)
	if err := s.repo.Create(row); err != nil {
		s.logger.Error("failed to create branch", "error", err, "name", dto.BranchName)
		return nil, internal.NewInternalError("failed to create branch", err)
	}

	s.logger.Info("bank branch created", "branch_id", row.ID, "name", row.BranchName)
	return FromDataModel(row), nil
}

func (s *Service) Update(id int64, dto BranchDTO) (*Branch, error) {
	if err := dto.Validate(); err != nil {
		return nil, err
	}

	row, err := s.repo.GetByID(id)
	if err != nil {
		return nil, internal.NewInternalError("failed to get branch", err)
	}
	if row == nil {
		return nil, internal.ErrBranchNotFound
	}

	row.BranchName = dto.BranchName
	row.Location = dto.Location
	row.ContactNumber = dto.ContactNumber
	row.Email = dto.Email
	if dto.Active != nil {
		row.Active = *dto.Active
	}
	row.UpdatedAt = time.Now()

	if err := s.repo.Update(row); err != nil {
		s.logger.Error("failed to update branch", "error", err, "branch_id", id)
		return nil, internal.NewInternalError("failed to update branch", err)
	}

	return FromDataModel(row), nil
}

// Delete is a soft delete: the branch is flagged inactive and drops out of
// listings, the row itself is never purged.
func (s *Service) Delete(id int64) error {
	row, err := s.repo.GetByID(id)
	if err != nil {
		return internal.NewInternalError("failed to get branch", err)
	}
	if row == nil {
		return internal.ErrBranchNotFound
	}

	if err := s.repo.Deactivate(id); err != nil {
		s.logger.Error("failed to deactivate branch", "error", err, "branch_id", id)
		return internal.NewInternalError("failed to delete branch", err)
	}

	s.logger.Info("bank branch deactivated", "branch_id", id)
	return nil
}
