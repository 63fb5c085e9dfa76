package postgres

import (
	"time"

	"github.com/visithran/loan-management/internal/bank"
	bankDatamodel "github.com/visithran/loan-management/internal/core/datamodel/bank"
	"gorm.io/gorm"
)

type BankRepository struct {
	db *gorm.DB
}

func NewBankRepository(db *gorm.DB) bank.RepositoryAPI {
	return &BankRepository{db: db}
}

func (r *BankRepository) GetActive() ([]*bankDatamodel.BankBranch, error) {
	var rows []*bankDatamodel.BankBranch
	err := r.db.Where("active = ?", true).
		Order("branch_name ASC").
		Find(&rows).Error
	return rows, err
}

func (r *BankRepository) GetByID(id int64) (*bankDatamodel.BankBranch, error) {
	var row bankDatamodel.BankBranch
	err := r.db.Where("id = ?", id).First(&row).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, nil
		}
		return nil, err
	}
	return &row, nil
}

func (r *BankRepository) GetByName(name string) (*bankDatamodel.BankBranch, error) {
	var row bankDatamodel.BankBranch
	err := r.db.Where("branch_name = ?", name).First(&row).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, nil
		}
		return nil, err
	}
	return &row, nil
}

func (r *BankRepository) Create(row *bankDatamodel.BankBranch) error {
	return r.db.Create(row).Error
}

func (r *BankRepository) Update(row *bankDatamodel.BankBranch) error {
	return r.db.Save(row).Error
}

func (r *BankRepository) Deactivate(id int64) error {
	return r.db.Model(&bankDatamodel.BankBranch{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"active":     false,
			"updated_at": time.Now(),
		}).Error
}
