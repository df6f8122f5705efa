package repository

import (
	"context"

	"github.com/khyeongtaek/startup-BE-sub001/internal/approval/entity"
	"gorm.io/gorm"
)

// ReferenceRepository tracks cc entries. Rows are written once during submit
// and never mutated by transitions.
type ReferenceRepository struct {
	db *gorm.DB
}

func NewReferenceRepository(db *gorm.DB) *ReferenceRepository {
	return &ReferenceRepository{db: db}
}

// ListDocumentIDsForEmployee returns ids of documents the employee is cc'd on.
func (r *ReferenceRepository) ListDocumentIDsForEmployee(ctx context.Context, employeeID string) ([]string, error) {
	var ids []string
	err := r.db.WithContext(ctx).
		Model(&entity.ApprovalReference{}).
		Select("document_id").
		Where("employee_id = ?", employeeID).
		Order("created_at DESC").
		Find(&ids).Error
	return ids, err
}
