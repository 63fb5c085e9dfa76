package bank

import "time"

type BankBranch struct {
	ID            int64     `gorm:"primaryKey"`
	BranchName    string    `gorm:"column:branch_name;not null"`
	Location      string    `gorm:"column:location;not null"`
	ContactNumber string    `gorm:"column:contact_number"`
	Email         string    `gorm:"column:email"`
	Active        bool      `gorm:"column:active;default:true"`
	CreatedAt     time.Time `gorm:"column:created_at;default:now()"`
	UpdatedAt     time.Time `gorm:"column:updated_at;default:now()"`
}

func (BankBranch) TableName() string {
	return "bank_branches"
}
