package entity

import "time"

// Document status constants
const (
	DocumentStatusDraft    = "draft"
	DocumentStatusPending  = "pending"
	DocumentStatusApproved = "approved"
	DocumentStatusRejected = "rejected"
	DocumentStatusRecalled = "recalled"
)

// Line status constants
const (
	LineStatusPending  = "pending"
	LineStatusApproved = "approved"
	LineStatusRejected = "rejected"
	LineStatusSkipped  = "skipped"
)

var documentStatusDescriptions = map[string]string{
	DocumentStatusDraft:    "임시저장",
	DocumentStatusPending:  "결재 진행중",
	DocumentStatusApproved: "승인 완료",
	DocumentStatusRejected: "반려",
	DocumentStatusRecalled: "회수",
}

// DocumentStatusDescription returns the display text for a document status.
func DocumentStatusDescription(status string) string {
	if d, ok := documentStatusDescriptions[status]; ok {
		return d
	}
	return status
}

// ApprovalDocument is the object moving through the approval chain. Mutated
// only by the workflow engine; never physically deleted.
type ApprovalDocument struct {
	ID         string     `json:"id" gorm:"primaryKey;size:36"`
	Title      string     `json:"title" gorm:"size:200;not null"`
	Content    string     `json:"content" gorm:"type:text"`
	Status     string     `json:"status" gorm:"size:20;not null;default:'draft'"`
	TemplateID string     `json:"template_id" gorm:"size:36;not null"`
	CreatedBy  string     `json:"created_by" gorm:"size:36;not null"`
	UpdatedBy  *string    `json:"updated_by" gorm:"size:36"`
	StartDate  *time.Time `json:"start_date"`
	EndDate    *time.Time `json:"end_date"`
	CreatedAt  time.Time  `json:"created_at"`
	UpdatedAt  time.Time  `json:"updated_at"`
	// Version guards concurrent transitions. Every committed transition
	// increments it; a commit against a stale version is rejected.
	Version int `json:"version" gorm:"not null;default:1"`

	Template   *ApprovalTemplate   `json:"template,omitempty" gorm:"foreignKey:TemplateID"`
	Creator    *Employee           `json:"creator,omitempty" gorm:"foreignKey:CreatedBy"`
	Updater    *Employee           `json:"updater,omitempty" gorm:"foreignKey:UpdatedBy"`
	Lines      []ApprovalLine      `json:"lines,omitempty" gorm:"foreignKey:DocumentID"`
	References []ApprovalReference `json:"references,omitempty" gorm:"foreignKey:DocumentID"`
}

func (ApprovalDocument) TableName() string {
	return "approval_documents"
}

// Terminal reports whether the document can no longer transition.
func (d *ApprovalDocument) Terminal() bool {
	switch d.Status {
	case DocumentStatusApproved, DocumentStatusRejected, DocumentStatusRecalled:
		return true
	}
	return false
}

// ApprovalLine is one ordered step of a document's chain, bound to a single
// approver. The line set is frozen once the document leaves draft.
type ApprovalLine struct {
	ID         string     `json:"id" gorm:"primaryKey;size:36"`
	DocumentID string     `json:"document_id" gorm:"size:36;not null;index"`
	Position   int        `json:"position" gorm:"not null"`
	ApproverID string     `json:"approver_id" gorm:"size:36;not null;index"`
	Status     string     `json:"status" gorm:"size:20;not null;default:'pending'"`
	Comment    string     `json:"comment" gorm:"type:text"`
	DecidedAt  *time.Time `json:"decided_at"`
	Version    int        `json:"version" gorm:"not null;default:1"`

	Approver *Employee `json:"approver,omitempty" gorm:"foreignKey:ApproverID"`
}

func (ApprovalLine) TableName() string {
	return "approval_lines"
}

// Decided reports whether the line has reached a terminal status.
func (l *ApprovalLine) Decided() bool {
	return l.Status != LineStatusPending
}

// ApprovalReference is a cc entry: the employee is informed of the document
// but never gates the workflow.
type ApprovalReference struct {
	ID         string    `json:"id" gorm:"primaryKey;size:36"`
	DocumentID string    `json:"document_id" gorm:"size:36;not null;index"`
	EmployeeID string    `json:"employee_id" gorm:"size:36;not null;index"`
	CreatedAt  time.Time `json:"created_at"`

	Employee *Employee `json:"employee,omitempty" gorm:"foreignKey:EmployeeID"`
}

func (ApprovalReference) TableName() string {
	return "approval_references"
}

// ActiveLine returns the line currently eligible to be decided: the
// lowest-position pending line, provided every lower position is approved.
// Returns nil when no line is active. Lines must be sorted by position.
func ActiveLine(lines []ApprovalLine) *ApprovalLine {
	for i := range lines {
		switch lines[i].Status {
		case LineStatusApproved:
			continue
		case LineStatusPending:
			return &lines[i]
		default:
			// rejected or skipped: the chain is closed
			return nil
		}
	}
	return nil
}

// DeriveDocumentStatus computes the workflow status implied by a line set:
// approved iff all lines approved, rejected iff any line rejected, otherwise
// pending. Draft and recalled are entered only by explicit creator actions
// and are never derived from lines.
func DeriveDocumentStatus(lines []ApprovalLine) string {
	if len(lines) == 0 {
		return DocumentStatusPending
	}
	allApproved := true
	for i := range lines {
		switch lines[i].Status {
		case LineStatusRejected:
			return DocumentStatusRejected
		case LineStatusApproved:
		default:
			allApproved = false
		}
	}
	if allApproved {
		return DocumentStatusApproved
	}
	return DocumentStatusPending
}
