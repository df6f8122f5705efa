package repository

import (
	"context"
	"errors"

	"github.com/khyeongtaek/startup-BE-sub001/internal/approval/entity"
	"gorm.io/gorm"
)

// TemplateRepository is the read-mostly template catalog.
type TemplateRepository struct {
	db *gorm.DB
}

func NewTemplateRepository(db *gorm.DB) *TemplateRepository {
	return &TemplateRepository{db: db}
}

// Create persists a new template.
func (r *TemplateRepository) Create(ctx context.Context, tpl *entity.ApprovalTemplate) error {
	return r.db.WithContext(ctx).Create(tpl).Error
}

// FindByID returns a template regardless of lifecycle state.
func (r *TemplateRepository) FindByID(ctx context.Context, id string) (*entity.ApprovalTemplate, error) {
	var tpl entity.ApprovalTemplate
	err := r.db.WithContext(ctx).
		Preload("Creator").
		Where("id = ?", id).
		First(&tpl).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &tpl, nil
}

// ListActive returns templates still usable for new documents.
func (r *TemplateRepository) ListActive(ctx context.Context) ([]entity.ApprovalTemplate, error) {
	var tpls []entity.ApprovalTemplate
	err := r.db.WithContext(ctx).
		Where("status = ?", entity.TemplateStatusActive).
		Order("created_at DESC").
		Find(&tpls).Error
	return tpls, err
}

// MarkDeleted soft deletes a template. Already-deleted templates stay deleted.
func (r *TemplateRepository) MarkDeleted(ctx context.Context, id string) error {
	res := r.db.WithContext(ctx).
		Model(&entity.ApprovalTemplate{}).
		Where("id = ? AND status = ?", id, entity.TemplateStatusActive).
		Update("status", entity.TemplateStatusDeleted)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}
