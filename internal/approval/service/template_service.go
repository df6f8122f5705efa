package service

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/khyeongtaek/startup-BE-sub001/internal/approval/entity"
	"github.com/khyeongtaek/startup-BE-sub001/internal/approval/repository"
)

// TemplateService manages the approval template catalog. The workflow engine
// only ever reads from it.
type TemplateService struct {
	repos *repository.Repositories
}

func NewTemplateService(repos *repository.Repositories) *TemplateService {
	return &TemplateService{repos: repos}
}

// CreateTemplateReq is the template creation payload.
type CreateTemplateReq struct {
	Name    string `json:"name" binding:"required"`
	Content string `json:"content"`
}

// Create registers a new template.
func (s *TemplateService) Create(ctx context.Context, req CreateTemplateReq, creatorID string) (*entity.ApprovalTemplate, error) {
	tpl := &entity.ApprovalTemplate{
		ID:        uuid.New().String(),
		Name:      req.Name,
		Content:   req.Content,
		Status:    entity.TemplateStatusActive,
		CreatedBy: creatorID,
		CreatedAt: time.Now(),
	}
	if err := s.repos.Template.Create(ctx, tpl); err != nil {
		return nil, err
	}
	return s.repos.Template.FindByID(ctx, tpl.ID)
}

// List returns all active templates.
func (s *TemplateService) List(ctx context.Context) ([]entity.ApprovalTemplate, error) {
	return s.repos.Template.ListActive(ctx)
}

// Get returns one template, deleted ones included so history stays readable.
func (s *TemplateService) Get(ctx context.Context, id string) (*entity.ApprovalTemplate, error) {
	tpl, err := s.repos.Template.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, notFoundErrorf("template %s does not exist", id)
		}
		return nil, err
	}
	return tpl, nil
}

// Delete soft deletes a template. Documents created from it are untouched.
func (s *TemplateService) Delete(ctx context.Context, id string) error {
	if err := s.repos.Template.MarkDeleted(ctx, id); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return notFoundErrorf("template %s does not exist", id)
		}
		return err
	}
	return nil
}
