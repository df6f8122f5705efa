package entity

import "time"

// Template lifecycle constants. A deleted template stays on record but can no
// longer back new documents.
const (
	TemplateStatusActive  = "active"
	TemplateStatusDeleted = "deleted"
)

// ApprovalTemplate is the form a document is created from. Immutable after
// creation except for the soft delete.
type ApprovalTemplate struct {
	ID        string    `json:"id" gorm:"primaryKey;size:36"`
	Name      string    `json:"name" gorm:"size:200;not null"`
	Content   string    `json:"content" gorm:"type:text"`
	Status    string    `json:"status" gorm:"size:20;not null;default:'active'"`
	CreatedBy string    `json:"created_by" gorm:"size:36;not null"`
	CreatedAt time.Time `json:"created_at"`

	Creator *Employee `json:"creator,omitempty" gorm:"foreignKey:CreatedBy"`
}

func (ApprovalTemplate) TableName() string {
	return "approval_templates"
}

// Usable reports whether new documents may still be created from the template.
func (t *ApprovalTemplate) Usable() bool {
	return t.Status == TemplateStatusActive
}
