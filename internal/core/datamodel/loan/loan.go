package loan

import "time"

type LoanApplication struct {
	ID                 int64     `gorm:"primaryKey"`
	ApplicantID        int64     `gorm:"column:applicant_id;not null;index"`
	LoanType           string    `gorm:"column:loan_type;not null"`
	Amount             float64   `gorm:"column:amount;type:decimal(15,2);not null"`
	Description        string    `gorm:"column:description;type:text"`
	SelectedBankBranch string    `gorm:"column:selected_bank_branch"`
	Status             string    `gorm:"column:status;not null;default:SUBMITTED"`
	RejectionReason    string    `gorm:"column:rejection_reason;type:text"`
	CreatedAt          time.Time `gorm:"column:created_at;default:now()"`
	UpdatedAt          time.Time `gorm:"column:updated_at;default:now()"`
}

func (LoanApplication) TableName() string {
	return "loan_applications"
}

// ArchivedLoanApplication is the cold-storage copy written by the archive
// job before the live row is deleted.
type ArchivedLoanApplication struct {
	ID                 int64     `gorm:"primaryKey"`
	ApplicationID      int64     `gorm:"column:application_id;not null;index"`
	ApplicantID        int64     `gorm:"column:applicant_id;not null"`
	LoanType           string    `gorm:"column:loan_type;not null"`
	Amount             float64   `gorm:"column:amount;type:decimal(15,2);not null"`
	Description        string    `gorm:"column:description;type:text"`
	SelectedBankBranch string    `gorm:"column:selected_bank_branch"`
	Status             string    `gorm:"column:status;not null"`
	RejectionReason    string    `gorm:"column:rejection_reason;type:text"`
	CreatedAt          time.Time `gorm:"column:created_at"`
	ArchivedAt         time.Time `gorm:"column:archived_at;default:now()"`
}

func (ArchivedLoanApplication) TableName() string {
	return "archived_loan_applications"
}

type ApplicationDocument struct {
	ID            int64     `gorm:"primaryKey"`
	ApplicationID int64     `gorm:"column:application_id;not null;index"`
	DocumentName  string    `gorm:"column:document_name;not null"`
	FileURL       string    `gorm:"column:file_url;not null"`
	FileType      string    `gorm:"column:file_type"`
	FileSize      int64     `gorm:"column:file_size"`
	CreatedAt     time.Time `gorm:"column:created_at;default:now()"`
}

func (ApplicationDocument) TableName() string {
	return "application_documents"
}
