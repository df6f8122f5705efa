package repository

import (
	"context"
	"errors"
	"time"

	"github.com/khyeongtaek/startup-BE-sub001/internal/approval/entity"
	"gorm.io/gorm"
)

// DocumentRepository owns persistence of documents and their line sets. All
// workflow transitions go through LoadForTransition / CommitTransition inside
// one transaction so document and lines never diverge.
type DocumentRepository struct {
	db *gorm.DB
}

func NewDocumentRepository(db *gorm.DB) *DocumentRepository {
	return &DocumentRepository{db: db}
}

// Create persists a document together with its lines and references. gorm
// cascades the associations inside a single insert transaction.
func (r *DocumentRepository) Create(ctx context.Context, doc *entity.ApprovalDocument) error {
	return r.db.WithContext(ctx).Create(doc).Error
}

// FindByID loads a document with the full response graph.
func (r *DocumentRepository) FindByID(ctx context.Context, id string) (*entity.ApprovalDocument, error) {
	var doc entity.ApprovalDocument
	err := r.db.WithContext(ctx).
		Preload("Template").
		Preload("Creator").
		Preload("Updater").
		Preload("Lines", func(db *gorm.DB) *gorm.DB {
			return db.Order("position ASC")
		}).
		Preload("Lines.Approver").
		Preload("References").
		Preload("References.Employee").
		Where("id = ?", id).
		First(&doc).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &doc, nil
}

// LoadForTransition reads a document and its full line set inside the given
// transaction, in position order. The snapshot carries the version the later
// commit is conditioned on.
func (r *DocumentRepository) LoadForTransition(ctx context.Context, tx *gorm.DB, id string) (*entity.ApprovalDocument, []entity.ApprovalLine, error) {
	var doc entity.ApprovalDocument
	if err := tx.WithContext(ctx).Where("id = ?", id).First(&doc).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil, ErrNotFound
		}
		return nil, nil, err
	}

	var lines []entity.ApprovalLine
	if err := tx.WithContext(ctx).
		Where("document_id = ?", id).
		Order("position ASC").
		Find(&lines).Error; err != nil {
		return nil, nil, err
	}

	return &doc, lines, nil
}

// CommitTransition writes a transition: the document row plus every touched
// line, each conditioned on the version read by LoadForTransition. A stale
// version on any row yields ErrVersionConflict and the caller must roll back.
func (r *DocumentRepository) CommitTransition(ctx context.Context, tx *gorm.DB, doc *entity.ApprovalDocument, touched []entity.ApprovalLine) error {
	now := time.Now()

	res := tx.WithContext(ctx).
		Model(&entity.ApprovalDocument{}).
		Where("id = ? AND version = ?", doc.ID, doc.Version).
		Updates(map[string]interface{}{
			"status":     doc.Status,
			"updated_by": doc.UpdatedBy,
			"updated_at": now,
			"version":    doc.Version + 1,
		})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrVersionConflict
	}
	doc.Version++
	doc.UpdatedAt = now

	for i := range touched {
		line := &touched[i]
		res := tx.WithContext(ctx).
			Model(&entity.ApprovalLine{}).
			Where("id = ? AND version = ?", line.ID, line.Version).
			Updates(map[string]interface{}{
				"status":     line.Status,
				"comment":    line.Comment,
				"decided_at": line.DecidedAt,
				"version":    line.Version + 1,
			})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return ErrVersionConflict
		}
		line.Version++
	}

	return nil
}

// UpdateDraft rewrites the editable fields of a draft document.
func (r *DocumentRepository) UpdateDraft(ctx context.Context, doc *entity.ApprovalDocument) error {
	res := r.db.WithContext(ctx).
		Model(&entity.ApprovalDocument{}).
		Where("id = ? AND status = ? AND version = ?", doc.ID, entity.DocumentStatusDraft, doc.Version).
		Updates(map[string]interface{}{
			"title":      doc.Title,
			"content":    doc.Content,
			"start_date": doc.StartDate,
			"end_date":   doc.EndDate,
			"updated_by": doc.UpdatedBy,
			"updated_at": time.Now(),
			"version":    doc.Version + 1,
		})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrVersionConflict
	}
	doc.Version++
	return nil
}

// ListByCreator returns documents created by an employee, optionally filtered
// by status, newest first.
func (r *DocumentRepository) ListByCreator(ctx context.Context, creatorID, status string, page, pageSize int) ([]entity.ApprovalDocument, int64, error) {
	query := r.db.WithContext(ctx).
		Model(&entity.ApprovalDocument{}).
		Where("created_by = ?", creatorID)
	if status != "" {
		query = query.Where("status = ?", status)
	}
	return r.page(query, page, pageSize)
}

// ListPendingForApprover returns pending documents where the employee still
// holds an undecided line. Whether that line is the active one is derived by
// the caller.
func (r *DocumentRepository) ListPendingForApprover(ctx context.Context, approverID string, page, pageSize int) ([]entity.ApprovalDocument, int64, error) {
	sub := r.db.Model(&entity.ApprovalLine{}).
		Select("document_id").
		Where("approver_id = ? AND status = ?", approverID, entity.LineStatusPending)

	query := r.db.WithContext(ctx).
		Model(&entity.ApprovalDocument{}).
		Where("id IN (?) AND status = ?", sub, entity.DocumentStatusPending)
	return r.page(query, page, pageSize)
}

// ListByIDs returns documents by id, newest first.
func (r *DocumentRepository) ListByIDs(ctx context.Context, ids []string, page, pageSize int) ([]entity.ApprovalDocument, int64, error) {
	query := r.db.WithContext(ctx).
		Model(&entity.ApprovalDocument{}).
		Where("id IN ?", ids)
	return r.page(query, page, pageSize)
}

func (r *DocumentRepository) page(query *gorm.DB, page, pageSize int) ([]entity.ApprovalDocument, int64, error) {
	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var docs []entity.ApprovalDocument
	err := query.
		Preload("Template").
		Preload("Creator").
		Preload("Lines", func(db *gorm.DB) *gorm.DB {
			return db.Order("position ASC")
		}).
		Preload("Lines.Approver").
		Order("created_at DESC").
		Offset((page - 1) * pageSize).
		Limit(pageSize).
		Find(&docs).Error
	return docs, total, err
}
