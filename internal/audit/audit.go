package audit

import (
	"time"

	auditDatamodel "github.com/visithran/loan-management/internal/core/datamodel/audit"
)

// Action tags what happened to a loan application. This is a separate
// vocabulary from loan status: VIEWED here records that somebody looked,
// while the status of the same name records the application's stage.
type Action string

const (
	ActionCreated  Action = "CREATED"
	ActionUpdated  Action = "UPDATED"
	ActionApproved Action = "APPROVED"
	ActionRejected Action = "REJECTED"
	ActionArchived Action = "ARCHIVED"
	ActionViewed   Action = "VIEWED"
)

func ValidAction(a Action) bool {
	switch a {
	case ActionCreated, ActionUpdated, ActionApproved, ActionRejected, ActionArchived, ActionViewed:
		return true
	}
	return false
}

// Entry is one immutable audit fact. Entries are never updated or deleted
// once written; they survive even the archiving of their application.
type Entry struct {
	ID            int64     `json:"id"`
	ApplicationID int64     `json:"application_id"`
	UserID        int64     `json:"user_id"`
	Action        Action    `json:"action"`
	Details       string    `json:"details"`
	Timestamp     time.Time `json:"timestamp"`
}

func FromDataModel(row *auditDatamodel.AuditLog) *Entry {
	return &Entry{
		ID:            row.ID,
		ApplicationID: row.ApplicationID,
		UserID:        row.UserID,
		Action:        Action(row.Action),
		Details:       row.Details,
		Timestamp:     row.Timestamp,
	}
}

func FromDataModelSlice(rows []*auditDatamodel.AuditLog) []*Entry {
	entries := make([]*Entry, len(rows))
	for i, row := range rows {
		entries[i] = FromDataModel(row)
	}
	return entries
}
