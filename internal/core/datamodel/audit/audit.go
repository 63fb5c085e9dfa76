package audit

import "time"

type AuditLog struct {
	ID            int64     `gorm:"primaryKey"`
	ApplicationID int64     `gorm:"column:application_id;not null;index"`
	UserID        int64     `gorm:"column:user_id;not null;index"`
	Action        string    `gorm:"column:action;not null;index"`
	Details       string    `gorm:"column:details;type:text"`
	Timestamp     time.Time `gorm:"column:timestamp;not null;default:now()"`
}

func (AuditLog) TableName() string {
	return "audit_logs"
}
