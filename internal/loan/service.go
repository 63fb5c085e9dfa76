package loan

import (
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/visithran/loan-management/internal"
	"github.com/visithran/loan-management/internal/audit"
	auditDatamodel "github.com/visithran/loan-management/internal/core/datamodel/audit"
	loanDatamodel "github.com/visithran/loan-management/internal/core/datamodel/loan"
	"github.com/visithran/loan-management/internal/user"
)

// RepositoryAPI defines the data access methods for loan applications.
// Writes that change an application always carry the matching audit row so
// the repository can commit both in one transaction; a crash can never leave
// an application updated without its audit entry.
type RepositoryAPI interface {
	CreateWithAudit(row *loanDatamodel.LoanApplication, entry *auditDatamodel.AuditLog) error
	UpdateWithAudit(row *loanDatamodel.LoanApplication, entry *auditDatamodel.AuditLog) error
	GetByID(id int64) (*loanDatamodel.LoanApplication, error)
	GetByApplicantID(applicantID int64) ([]*loanDatamodel.LoanApplication, error)
	GetByStatus(status string) ([]*loanDatamodel.LoanApplication, error)
	Search(term string, limit, offset int) ([]*loanDatamodel.LoanApplication, int64, error)
	ArchiveOlderThan(cutoff time.Time, statuses []string, actorID int64) (int, error)
	AttachDocument(doc *loanDatamodel.ApplicationDocument, entry *auditDatamodel.AuditLog) error
	GetDocuments(applicationID int64) ([]*loanDatamodel.ApplicationDocument, error)
}

// UserDirectory resolves acting users. Actor identity is always an explicit
// parameter threaded through the workflow, never process-wide state.
type UserDirectory interface {
	GetByID(id int64) (*user.User, error)
	GetByEmail(email string) (*user.User, error)
}

// BranchRegistry validates the optional bank branch reference on submission.
type BranchRegistry interface {
	IsSelectable(name string) (bool, error)
}

type Service struct {
	repo     RepositoryAPI
	users    UserDirectory
	branches BranchRegistry
	logger   *slog.Logger
}

func NewService(repo RepositoryAPI, users UserDirectory, branches BranchRegistry, logger *slog.Logger) *Service {
	return &Service{
		repo:     repo,
		users:    users,
		branches: branches,
		logger:   logger,
	}
}

// Submit validates the request, resolves the applicant and persists the new
// application together with its CREATED audit entry.
func (s *Service) Submit(dto SubmitLoanDTO, actorEmail string) (*ApplicationResponse, error) {
	if err := dto.Validate(); err != nil {
		s.logger.Error("loan submission validation failed", "error", err, "actor", actorEmail)
		return nil, err
	}

	applicant, err := s.users.GetByEmail(actorEmail)
	if err != nil {
		return nil, err
	}

	if branch := strings.TrimSpace(dto.SelectedBankBranch); branch != "" {
		ok, err := s.branches.IsSelectable(branch)
		if err != nil {
			return nil, err
		}
		if !ok {
			return nil, internal.NewValidationFieldError("selectedBankBranch",
				fmt.Sprintf("bank branch %q does not exist or is inactive", branch), internal.ErrCodeValidationFailed)
		}
	}

	now := time.Now()
	row := &loanDatamodel.LoanApplication{
		ApplicantID:        applicant.ID,
		LoanType:           dto.LoanType,
		Amount:             dto.Amount,
		Description:        dto.Description,
		SelectedBankBranch: dto.SelectedBankBranch,
		Status:             string(StatusSubmitted),
		CreatedAt:          now,
		UpdatedAt:          now,
	}
	entry := newAuditRow(applicant.ID, audit.ActionCreated, "Loan application submitted")

	if err := s.repo.CreateWithAudit(row, entry); err != nil {
		s.logger.Error("failed to create loan application", "error", err, "applicant_id", applicant.ID)
		return nil, internal.NewInternalError("failed to create loan application", err)
	}

	s.logger.Info("loan application submitted",
		"application_id", row.ID,
		"applicant_id", applicant.ID,
		"loan_type", dto.LoanType,
		"amount", dto.Amount)

	return s.toResponse(row, applicant), nil
}

// UpdateStatus overwrites the status of an application. No transition is
// disallowed; the audit trail is what makes the history accountable. A
// rejection reason is stored only while the application is REJECTED and is
// cleared by any later update to a different status.
func (s *Service) UpdateStatus(id int64, dto StatusUpdateDTO, actorEmail string) (*ApplicationResponse, error) {
	if err := dto.Validate(); err != nil {
		return nil, err
	}

	actor, err := s.users.GetByEmail(actorEmail)
	if err != nil {
		return nil, err
	}

	row, err := s.repo.GetByID(id)
	if err != nil {
		return nil, internal.NewInternalError("failed to get loan application", err)
	}
	if row == nil {
		return nil, internal.ErrLoanNotFound
	}

	newStatus := Status(dto.Status)
	row.Status = string(newStatus)
	if newStatus == StatusRejected {
		row.RejectionReason = dto.RejectionReason
	} else {
		row.RejectionReason = ""
	}
	row.UpdatedAt = time.Now()

	action := actionForStatus(newStatus)
	entry := newAuditRow(actor.ID, action, fmt.Sprintf("Loan application %s", strings.ToLower(string(action))))
	entry.ApplicationID = row.ID

	if err := s.repo.UpdateWithAudit(row, entry); err != nil {
		s.logger.Error("failed to update loan status", "error", err, "application_id", id)
		return nil, internal.NewInternalError("failed to update loan status", err)
	}

	s.logger.Info("loan status updated",
		"application_id", id,
		"status", newStatus,
		"actor_id", actor.ID)

	return s.resolveResponse(row)
}

func (s *Service) Approve(id int64, actorEmail string) (*ApplicationResponse, error) {
	return s.UpdateStatus(id, StatusUpdateDTO{Status: string(StatusApproved)}, actorEmail)
}

func (s *Service) Reject(id int64, reason, actorEmail string) (*ApplicationResponse, error) {
	if err := (RejectLoanDTO{RejectionReason: reason}).Validate(); err != nil {
		return nil, err
	}
	return s.UpdateStatus(id, StatusUpdateDTO{Status: string(StatusRejected), RejectionReason: reason}, actorEmail)
}

func (s *Service) MarkViewed(id int64, actorEmail string) (*ApplicationResponse, error) {
	return s.UpdateStatus(id, StatusUpdateDTO{Status: string(StatusViewed)}, actorEmail)
}

func (s *Service) GetByID(id int64) (*ApplicationResponse, error) {
	row, err := s.repo.GetByID(id)
	if err != nil {
		return nil, internal.NewInternalError("failed to get loan application", err)
	}
	if row == nil {
		return nil, internal.ErrLoanNotFound
	}
	return s.resolveResponse(row)
}

// ListByApplicant returns every application owned by the user behind the
// given email.
func (s *Service) ListByApplicant(email string) ([]*ApplicationResponse, error) {
	applicant, err := s.users.GetByEmail(email)
	if err != nil {
		return nil, err
	}

	rows, err := s.repo.GetByApplicantID(applicant.ID)
	if err != nil {
		s.logger.Error("failed to list applications", "error", err, "applicant_id", applicant.ID)
		return nil, internal.NewInternalError("failed to list applications", err)
	}

	responses := make([]*ApplicationResponse, len(rows))
	for i, row := range rows {
		responses[i] = s.toResponse(row, applicant)
	}
	return responses, nil
}

// ListAll returns one page of applications. When search is non-empty it is
// matched as a contains-substring against applicant username, applicant
// email and the stringified application id.
func (s *Service) ListAll(page, size int, search string) (*Page, error) {
	if page < 0 {
		page = 0
	}
	if size <= 0 {
		size = 10
	}

	rows, total, err := s.repo.Search(search, size, page*size)
	if err != nil {
		s.logger.Error("failed to search applications", "error", err, "search", search)
		return nil, internal.NewInternalError("failed to list applications", err)
	}

	responses, err := s.resolveResponses(rows)
	if err != nil {
		return nil, err
	}

	totalPages := int((total + int64(size) - 1) / int64(size))
	return &Page{
		Content:       responses,
		Page:          page,
		Size:          size,
		TotalElements: total,
		TotalPages:    totalPages,
	}, nil
}

func (s *Service) ListByStatus(status string) ([]*ApplicationResponse, error) {
	if !ValidStatus(Status(status)) {
		return nil, internal.NewValidationFieldError("status",
			fmt.Sprintf("unrecognized status %q", status), internal.ErrCodeInvalidStatus)
	}

	rows, err := s.repo.GetByStatus(status)
	if err != nil {
		s.logger.Error("failed to list applications by status", "error", err, "status", status)
		return nil, internal.NewInternalError("failed to list applications", err)
	}
	return s.resolveResponses(rows)
}

// ListRejected backs the rejected bin view.
func (s *Service) ListRejected() ([]*ApplicationResponse, error) {
	return s.ListByStatus(string(StatusRejected))
}

// ArchiveOld moves every APPROVED or REJECTED application created more than
// a year ago into the archive table and deletes the live rows. Applications
// still SUBMITTED or VIEWED are never touched regardless of age.
func (s *Service) ArchiveOld(actorEmail string) (*ArchiveResult, error) {
	actor, err := s.users.GetByEmail(actorEmail)
	if err != nil {
		return nil, err
	}

	cutoff := time.Now().AddDate(-1, 0, 0)
	count, err := s.repo.ArchiveOlderThan(cutoff, []string{string(StatusApproved), string(StatusRejected)}, actor.ID)
	if err != nil {
		s.logger.Error("archive pass failed", "error", err, "cutoff", cutoff)
		return nil, internal.NewInternalError("failed to archive applications", err)
	}

	s.logger.Info("archived old applications",
		"count", count,
		"cutoff", cutoff,
		"actor_id", actor.ID)

	return &ArchiveResult{
		ArchivedCount: count,
		Message:       fmt.Sprintf("Archived %d old applications", count),
	}, nil
}

// AttachDocument stores file metadata for an application; the file itself
// lives wherever the URL points.
func (s *Service) AttachDocument(applicationID int64, dto DocumentDTO, actorEmail string) (*Document, error) {
	if err := dto.Validate(); err != nil {
		return nil, err
	}

	actor, err := s.users.GetByEmail(actorEmail)
	if err != nil {
		return nil, err
	}

	row, err := s.repo.GetByID(applicationID)
	if err != nil {
		return nil, internal.NewInternalError("failed to get loan application", err)
	}
	if row == nil {
		return nil, internal.ErrLoanNotFound
	}

	doc := &loanDatamodel.ApplicationDocument{
		ApplicationID: applicationID,
		DocumentName:  dto.DocumentName,
		FileURL:       dto.FileURL,
		FileType:      dto.FileType,
		FileSize:      dto.FileSize,
		CreatedAt:     time.Now(),
	}
	entry := newAuditRow(actor.ID, audit.ActionUpdated, fmt.Sprintf("Document %q attached", dto.DocumentName))
	entry.ApplicationID = applicationID

	if err := s.repo.AttachDocument(doc, entry); err != nil {
		s.logger.Error("failed to attach document", "error", err, "application_id", applicationID)
		return nil, internal.NewInternalError("failed to attach document", err)
	}

	return DocumentFromDataModel(doc), nil
}

func (s *Service) ListDocuments(applicationID int64) ([]*Document, error) {
	row, err := s.repo.GetByID(applicationID)
	if err != nil {
		return nil, internal.NewInternalError("failed to get loan application", err)
	}
	if row == nil {
		return nil, internal.ErrLoanNotFound
	}

	docRows, err := s.repo.GetDocuments(applicationID)
	if err != nil {
		return nil, internal.NewInternalError("failed to list documents", err)
	}
	docs := make([]*Document, len(docRows))
	for i, d := range docRows {
		docs[i] = DocumentFromDataModel(d)
	}
	return docs, nil
}

func actionForStatus(status Status) audit.Action {
	switch status {
	case StatusApproved:
		return audit.ActionApproved
	case StatusRejected:
		return audit.ActionRejected
	case StatusViewed:
		return audit.ActionViewed
	default:
		return audit.ActionUpdated
	}
}

func newAuditRow(userID int64, action audit.Action, details string) *auditDatamodel.AuditLog {
	return &auditDatamodel.AuditLog{
		UserID:    userID,
		Action:    string(action),
		Details:   details,
		Timestamp: time.Now(),
	}
}

func (s *Service) toResponse(row *loanDatamodel.LoanApplication, applicant *user.User) *ApplicationResponse {
	return &ApplicationResponse{
		ID:                 row.ID,
		Applicant:          applicant.ToResponse(),
		LoanType:           LoanType(row.LoanType),
		Amount:             row.Amount,
		Description:        row.Description,
		SelectedBankBranch: row.SelectedBankBranch,
		Status:             Status(row.Status),
		RejectionReason:    row.RejectionReason,
		CreatedAt:          row.CreatedAt,
	}
}

func (s *Service) resolveResponse(row *loanDatamodel.LoanApplication) (*ApplicationResponse, error) {
	applicant, err := s.users.GetByID(row.ApplicantID)
	if err != nil {
		return nil, err
	}
	return s.toResponse(row, applicant), nil
}

func (s *Service) resolveResponses(rows []*loanDatamodel.LoanApplication) ([]*ApplicationResponse, error) {
	cache := make(map[int64]*user.User)
	responses := make([]*ApplicationResponse, len(rows))
	for i, row := range rows {
		applicant, ok := cache[row.ApplicantID]
		if !ok {
			var err error
			applicant, err = s.users.GetByID(row.ApplicantID)
			if err != nil {
				return nil, err
			}
			cache[row.ApplicantID] = applicant
		}
		responses[i] = s.toResponse(row, applicant)
	}
	return responses, nil
}
