package audit

import (
	"log/slog"
	"time"

	"github.com/visithran/loan-management/internal"
	auditDatamodel "github.com/visithran/loan-management/internal/core/datamodel/audit"
)

type RepositoryAPI interface {
	Create(row *auditDatamodel.AuditLog) error
	GetByApplicationID(applicationID int64) ([]*auditDatamodel.AuditLog, error)
	GetByUserID(userID int64) ([]*auditDatamodel.AuditLog, error)
	GetByAction(action string) ([]*auditDatamodel.AuditLog, error)
	GetByTimeRange(from, to time.Time) ([]*auditDatamodel.AuditLog, error)
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

// Record appends one entry with a server-assigned timestamp. It only fails
// when storage is unavailable.
func (s *Service) Record(applicationID, userID int64, action Action, details string) error {
	if !ValidAction(action) {
		return internal.NewValidationFieldError("action", "unrecognized audit action", internal.ErrCodeValidationFailed)
	}

	row := &auditDatamodel.AuditLog{
		ApplicationID: applicationID,
		UserID:        userID,
		Action:        string(action),
		Details:       details,
		Timestamp:     time.Now(),
	}
	if err := s.repo.Create(row); err != nil {
		s.logger.Error("failed to record audit entry",
			"error", err,
			"application_id", applicationID,
			"action", action)
		return internal.NewInternalError("failed to record audit entry", err)
	}
	return nil
}

func (s *Service) ListByApplication(applicationID int64) ([]*Entry, error) {
	rows, err := s.repo.GetByApplicationID(applicationID)
	if err != nil {
		s.logger.Error("failed to list audit entries", "error", err, "application_id", applicationID)
		return nil, internal.NewInternalError("failed to list audit entries", err)
	}
	return FromDataModelSlice(rows), nil
}

func (s *Service) ListByUser(userID int64) ([]*Entry, error) {
	rows, err := s.repo.GetByUserID(userID)
	if err != nil {
		s.logger.Error("failed to list audit entries", "error", err, "user_id", userID)
		return nil, internal.NewInternalError("failed to list audit entries", err)
	}
	return FromDataModelSlice(rows), nil
}

func (s *Service) ListByAction(action Action) ([]*Entry, error) {
	if !ValidAction(action) {
		return nil, internal.NewValidationFieldError("action", "unrecognized audit action", internal.ErrCodeValidationFailed)
	}
	rows, err := s.repo.GetByAction(string(action))
	if err != nil {
		s.logger.Error("failed to list audit entries", "error", err, "action", action)
		return nil, internal.NewInternalError("failed to list audit entries", err)
	}
	return FromDataModelSlice(rows), nil
}

func (s *Service) ListByTimeRange(from, to time.Time) ([]*Entry, error) {
	rows, err := s.repo.GetByTimeRange(from, to)
	if err != nil {
		s.logger.Error("failed to list audit entries", "error", err)
		return nil, internal.NewInternalError("failed to list audit entries", err)
	}
	return FromDataModelSlice(rows), nil
}
