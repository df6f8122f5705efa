package repository

import (
	"errors"

	"gorm.io/gorm"
)

// Sentinel errors surfaced to the service layer.
var (
	ErrNotFound        = errors.New("record not found")
	ErrVersionConflict = errors.New("version conflict")
)

// Repositories bundles the suite's repositories.
type Repositories struct {
	Employee  *EmployeeRepository
	Template  *TemplateRepository
	Document  *DocumentRepository
	Reference *ReferenceRepository
}

// NewRepositories creates the repository set.
func NewRepositories(db *gorm.DB) *Repositories {
	return &Repositories{
		Employee:  NewEmployeeRepository(db),
		Template:  NewTemplateRepository(db),
		Document:  NewDocumentRepository(db),
		Reference: NewReferenceRepository(db),
	}
}
