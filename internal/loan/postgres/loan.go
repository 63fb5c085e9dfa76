package postgres

import (
	"strings"
	"time"

	"github.com/visithran/loan-management/internal/audit"
	auditDatamodel "github.com/visithran/loan-management/internal/core/datamodel/audit"
	loanDatamodel "github.com/visithran/loan-management/internal/core/datamodel/loan"
	"github.com/visithran/loan-management/internal/loan"
	"gorm.io/gorm"
)

type LoanRepository struct {
	db *gorm.DB
}

func NewLoanRepository(db *gorm.DB) loan.RepositoryAPI {
	return &LoanRepository{db: db}
}

// CreateWithAudit inserts the application and its audit entry in one
// transaction; the entry picks up the generated application id.
func (r *LoanRepository) CreateWithAudit(row *loanDatamodel.LoanApplication, entry *auditDatamodel.AuditLog) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(row).Error; err != nil {
			return err
		}
		entry.ApplicationID = row.ID
		return tx.Create(entry).Error
	})
}

func (r *LoanRepository) UpdateWithAudit(row *loanDatamodel.LoanApplication, entry *auditDatamodel.AuditLog) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Save(row).Error; err != nil {
			return err
		}
		entry.ApplicationID = row.ID
		return tx.Create(entry).Error
	})
}

func (r *LoanRepository) GetByID(id int64) (*loanDatamodel.LoanApplication, error) {
	var row loanDatamodel.LoanApplication
	err := r.db.Where("id = ?", id).First(&row).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, nil
		}
		return nil, err
	}
	return &row, nil
}

func (r *LoanRepository) GetByApplicantID(applicantID int64) ([]*loanDatamodel.LoanApplication, error) {
	var rows []*loanDatamodel.LoanApplication
	err := r.db.Where("applicant_id = ?", applicantID).
		Order("created_at DESC").
		Find(&rows).Error
	return rows, err
}

func (r *LoanRepository) GetByStatus(status string) ([]*loanDatamodel.LoanApplication, error) {
	var rows []*loanDatamodel.LoanApplication
	err := r.db.Where("status = ?", status).
		Order("created_at DESC").
		Find(&rows).Error
	return rows, err
}

// Search pages through applications, optionally filtered by a contains-match
// on applicant username, applicant email or the stringified application id.
// LIKE is case-sensitive on Postgres, which is the documented semantics. The
// term is treated literally: LIKE metacharacters in it are escaped.
func (r *LoanRepository) Search(term string, limit, offset int) ([]*loanDatamodel.LoanApplication, int64, error) {
	base := r.db.Model(&loanDatamodel.LoanApplication{})
	if term != "" {
		pattern := "%" + escapeLike(term) + "%"
		base = base.
			Joins("JOIN users ON users.id = loan_applications.applicant_id").
			Where(`users.username LIKE ? ESCAPE '\' OR users.email LIKE ? ESCAPE '\' OR CAST(loan_applications.id AS TEXT) LIKE ? ESCAPE '\'`,
				pattern, pattern, pattern)
	}

	var total int64
	if err := base.Session(&gorm.Session{}).Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var rows []*loanDatamodel.LoanApplication
	err := base.Session(&gorm.Session{}).
		Order("loan_applications.created_at DESC").
		Limit(limit).
		Offset(offset).
		Find(&rows).Error
	return rows, total, err
}

func escapeLike(term string) string {
	return strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`).Replace(term)
}

// ArchiveOlderThan copies matching applications into the archive table, then
// deletes them with their documents. The audit trail stays: one ARCHIVED entry
// is appended per application and existing entries are left untouched. Each
// batch commits or rolls back as a whole; no live row is ever deleted without
// its copy.
func (r *LoanRepository) ArchiveOlderThan(cutoff time.Time, statuses []string, actorID int64) (int, error) {
	var archived int
	err := r.db.Transaction(func(tx *gorm.DB) error {
		var rows []*loanDatamodel.LoanApplication
		if err := tx.Where("status IN ? AND created_at < ?", statuses, cutoff).
			Find(&rows).Error; err != nil {
			return err
		}
		if len(rows) == 0 {
			return nil
		}

		ids := make([]int64, len(rows))
		copies := make([]*loanDatamodel.ArchivedLoanApplication, len(rows))
		entries := make([]*auditDatamodel.AuditLog, len(rows))
		now := time.Now()
		for i, row := range rows {
			ids[i] = row.ID
			copies[i] = &loanDatamodel.ArchivedLoanApplication{
				ApplicationID:      row.ID,
				ApplicantID:        row.ApplicantID,
				LoanType:           row.LoanType,
				Amount:             row.Amount,
				Description:        row.Description,
				SelectedBankBranch: row.SelectedBankBranch,
				Status:             row.Status,
				RejectionReason:    row.RejectionReason,
				CreatedAt:          row.CreatedAt,
				ArchivedAt:         now,
			}
			entries[i] = &auditDatamodel.AuditLog{
				ApplicationID: row.ID,
				UserID:        actorID,
				Action:        string(audit.ActionArchived),
				Details:       "Loan application archived",
				Timestamp:     now,
			}
		}

		if err := tx.Create(&copies).Error; err != nil {
			return err
		}
		if err := tx.Create(&entries).Error; err != nil {
			return err
		}
		if err := tx.Where("application_id IN ?", ids).
			Delete(&loanDatamodel.ApplicationDocument{}).Error; err != nil {
			return err
		}
		if err := tx.Where("id IN ?", ids).
			Delete(&loanDatamodel.LoanApplication{}).Error; err != nil {
			return err
		}

		archived = len(rows)
		return nil
	})
	return archived, err
}

func (r *LoanRepository) AttachDocument(doc *loanDatamodel.ApplicationDocument, entry *auditDatamodel.AuditLog) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(doc).Error; err != nil {
			return err
		}
		return tx.Create(entry).Error
	})
}

func (r *LoanRepository) GetDocuments(applicationID int64) ([]*loanDatamodel.ApplicationDocument, error) {
	var rows []*loanDatamodel.ApplicationDocument
	err := r.db.Where("application_id = ?", applicationID).
		Order("created_at ASC").
		Find(&rows).Error
	return rows, err
}
