package postgres

import (
	"time"

	"github.com/visithran/loan-management/internal/audit"
	auditDatamodel "github.com/visithran/loan-management/internal/core/datamodel/audit"
	"gorm.io/gorm"
)

type AuditRepository struct {
	db *gorm.DB
}

func NewAuditRepository(db *gorm.DB) audit.RepositoryAPI {
	return &AuditRepository{db: db}
}

func (r *AuditRepository) Create(row *auditDatamodel.AuditLog) error {
	return r.db.Create(row).Error
}

func (r *AuditRepository) GetByApplicationID(applicationID int64) ([]*auditDatamodel.AuditLog, error) {
	var rows []*auditDatamodel.AuditLog
	err := r.db.Where("application_id = ?", applicationID).
		Order("timestamp ASC").
		Find(&rows).Error
	return rows, err
}

func (r *AuditRepository) GetByUserID(userID int64) ([]*auditDatamodel.AuditLog, error) {
	var rows []*auditDatamodel.AuditLog
	err := r.db.Where("user_id = ?", userID).
		Order("timestamp ASC").
		Find(&rows).Error
	return rows, err
}

func (r *AuditRepository) GetByAction(action string) ([]*auditDatamodel.AuditLog, error) {
	var rows []*auditDatamodel.AuditLog
	err := r.db.Where("action = ?", action).
		Order("timestamp ASC").
		Find(&rows).Error
	return rows, err
}

func (r *AuditRepository) GetByTimeRange(from, to time.Time) ([]*auditDatamodel.AuditLog, error) {
	var rows []*auditDatamodel.AuditLog
	err := r.db.Where("timestamp >= ? AND timestamp < ?", from, to).
		Order("timestamp ASC").
		Find(&rows).Error
	return rows, err
}
