package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/khyeongtaek/startup-BE-sub001/internal/approval/entity"
	"github.com/khyeongtaek/startup-BE-sub001/internal/approval/repository"
	"github.com/khyeongtaek/startup-BE-sub001/internal/shared/notify"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// ApprovalService is the workflow engine. Every mutating operation runs as one
// bounded transaction: load document + lines, validate, write, commit. The
// active line is always derived from line statuses at read time, never stored.
type ApprovalService struct {
	db         *gorm.DB
	repos      *repository.Repositories
	dispatcher notify.Dispatcher
	logger     *zap.Logger
}

// NewApprovalService creates the engine.
func NewApprovalService(db *gorm.DB, repos *repository.Repositories, dispatcher notify.Dispatcher, logger *zap.Logger) *ApprovalService {
	return &ApprovalService{db: db, repos: repos, dispatcher: dispatcher, logger: logger}
}

// CreateDocumentReq is the create/submit payload. With Submit unset the
// document is saved as a draft and approvers are optional; with Submit set the
// chain is created and activated in the same call.
type CreateDocumentReq struct {
	Title        string   `json:"title" binding:"required"`
	Content      string   `json:"content"`
	TemplateID   string   `json:"template_id" binding:"required"`
	StartDate    *string  `json:"start_date"`
	EndDate      *string  `json:"end_date"`
	Submit       bool     `json:"submit"`
	ApproverIDs  []string `json:"approver_ids"`
	ReferenceIDs []string `json:"reference_ids"`
}

// UpdateDraftReq rewrites the editable fields of a draft.
type UpdateDraftReq struct {
	Title     string  `json:"title" binding:"required"`
	Content   string  `json:"content"`
	StartDate *string `json:"start_date"`
	EndDate   *string `json:"end_date"`
}

// SubmitReq activates an existing draft.
type SubmitReq struct {
	ApproverIDs  []string `json:"approver_ids" binding:"required"`
	ReferenceIDs []string `json:"reference_ids"`
}

// DecideReq carries the decision comment.
type DecideReq struct {
	Comment string `json:"comment"`
}

// Create creates a document. Draft when req.Submit is false, otherwise the
// document goes straight to pending with its full chain, atomically.
func (s *ApprovalService) Create(ctx context.Context, req CreateDocumentReq, creatorID string) (*entity.ApprovalDocument, error) {
	tpl, err := s.repos.Template.FindByID(ctx, req.TemplateID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, validationErrorf("template %s does not exist", req.TemplateID)
		}
		return nil, err
	}
	if !tpl.Usable() {
		return nil, validationErrorf("template %s has been deleted", req.TemplateID)
	}

	startDate, err := parseDate(req.StartDate)
	if err != nil {
		return nil, validationErrorf("invalid start_date: %v", err)
	}
	endDate, err := parseDate(req.EndDate)
	if err != nil {
		return nil, validationErrorf("invalid end_date: %v", err)
	}

	now := time.Now()
	doc := &entity.ApprovalDocument{
		ID:         uuid.New().String(),
		Title:      req.Title,
		Content:    req.Content,
		Status:     entity.DocumentStatusDraft,
		TemplateID: tpl.ID,
		CreatedBy:  creatorID,
		StartDate:  startDate,
		EndDate:    endDate,
		CreatedAt:  now,
		UpdatedAt:  now,
		Version:    1,
	}

	if req.Submit {
		lines, refs, err := s.buildChain(ctx, doc.ID, req.ApproverIDs, req.ReferenceIDs)
		if err != nil {
			return nil, err
		}
		doc.Status = entity.DocumentStatusPending
		doc.Lines = lines
		doc.References = refs
	} else if len(req.ApproverIDs) > 0 {
		// drafts carry no lines; the chain is fixed at submit time
		return nil, validationErrorf("approvers are only accepted when submitting")
	}

	if err := s.repos.Document.Create(ctx, doc); err != nil {
		return nil, fmt.Errorf("create document: %w", err)
	}

	if doc.Status == entity.DocumentStatusPending {
		s.dispatch(notify.NewEvent(notify.KindLineActivated, doc.ID, doc.Lines[0].ID, doc.Lines[0].ApproverID))
	}

	return s.repos.Document.FindByID(ctx, doc.ID)
}

// UpdateDraft rewrites a draft's fields. Only the creator, only while draft.
func (s *ApprovalService) UpdateDraft(ctx context.Context, docID string, req UpdateDraftReq, actorID string) (*entity.ApprovalDocument, error) {
	doc, err := s.repos.Document.FindByID(ctx, docID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, notFoundErrorf("document %s does not exist", docID)
		}
		return nil, err
	}
	if err := authorize(actorID, doc, nil, actionEdit); err != nil {
		return nil, err
	}
	if doc.Status != entity.DocumentStatusDraft {
		return nil, stateErrorf("document %s is %s, only drafts can be edited", docID, doc.Status)
	}

	startDate, err := parseDate(req.StartDate)
	if err != nil {
		return nil, validationErrorf("invalid start_date: %v", err)
	}
	endDate, err := parseDate(req.EndDate)
	if err != nil {
		return nil, validationErrorf("invalid end_date: %v", err)
	}

	doc.Title = req.Title
	doc.Content = req.Content
	doc.StartDate = startDate
	doc.EndDate = endDate
	doc.UpdatedBy = &actorID

	if err := s.repos.Document.UpdateDraft(ctx, doc); err != nil {
		if errors.Is(err, repository.ErrVersionConflict) {
			return nil, conflictErrorf("document %s was modified concurrently", docID)
		}
		return nil, err
	}

	return s.repos.Document.FindByID(ctx, docID)
}

// Submit activates an existing draft: lines positioned 1..N in the given
// order, references created, status flipped to pending. Atomic.
func (s *ApprovalService) Submit(ctx context.Context, docID string, req SubmitReq, actorID string) (*entity.ApprovalDocument, error) {
	lines, refs, err := s.buildChain(ctx, docID, req.ApproverIDs, req.ReferenceIDs)
	if err != nil {
		return nil, err
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		doc, existing, err := s.repos.Document.LoadForTransition(ctx, tx, docID)
		if err != nil {
			if errors.Is(err, repository.ErrNotFound) {
				return notFoundErrorf("document %s does not exist", docID)
			}
			return err
		}
		if err := authorize(actorID, doc, nil, actionSubmit); err != nil {
			return err
		}
		if doc.Status != entity.DocumentStatusDraft {
			return stateErrorf("document %s is %s, only drafts can be submitted", docID, doc.Status)
		}
		if len(existing) > 0 {
			return stateErrorf("document %s already has an approval chain", docID)
		}

		if err := tx.Create(&lines).Error; err != nil {
			return fmt.Errorf("create approval lines: %w", err)
		}
		if len(refs) > 0 {
			if err := tx.Create(&refs).Error; err != nil {
				return fmt.Errorf("create references: %w", err)
			}
		}

		doc.Status = entity.DocumentStatusPending
		doc.UpdatedBy = &actorID
		if err := s.repos.Document.CommitTransition(ctx, tx, doc, nil); err != nil {
			if errors.Is(err, repository.ErrVersionConflict) {
				return conflictErrorf("document %s was modified concurrently", docID)
			}
			return err
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.dispatch(notify.NewEvent(notify.KindLineActivated, docID, lines[0].ID, lines[0].ApproverID))

	return s.repos.Document.FindByID(ctx, docID)
}

// Approve records an approval on the currently active line. When the last
// position approves, the document becomes approved; otherwise the next line
// becomes active implicitly.
func (s *ApprovalService) Approve(ctx context.Context, docID, lineID, actorID, comment string) (*entity.ApprovalDocument, error) {
	var events []notify.Event

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		doc, lines, err := s.loadPending(ctx, tx, docID)
		if err != nil {
			return err
		}

		active, err := requireActive(lines, lineID)
		if err != nil {
			return err
		}
		if err := authorize(actorID, doc, active, actionDecide); err != nil {
			return err
		}

		now := time.Now()
		active.Status = entity.LineStatusApproved
		active.Comment = comment
		active.DecidedAt = &now

		doc.Status = entity.DeriveDocumentStatus(lines)
		if err := s.repos.Document.CommitTransition(ctx, tx, doc, []entity.ApprovalLine{*active}); err != nil {
			if errors.Is(err, repository.ErrVersionConflict) {
				return conflictErrorf("line %s was decided concurrently", lineID)
			}
			return err
		}

		if doc.Status == entity.DocumentStatusApproved {
			events = append(events, notify.NewEvent(notify.KindDocumentApproved, docID, "", doc.CreatedBy))
		} else if next := entity.ActiveLine(lines); next != nil {
			events = append(events, notify.NewEvent(notify.KindLineActivated, docID, next.ID, next.ApproverID))
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	for _, ev := range events {
		s.dispatch(ev)
	}

	return s.repos.Document.FindByID(ctx, docID)
}

// Reject records a rejection on the currently active line: the line is
// rejected, every higher position is skipped and the document is rejected.
// Irreversible.
func (s *ApprovalService) Reject(ctx context.Context, docID, lineID, actorID, comment string) (*entity.ApprovalDocument, error) {
	var events []notify.Event

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		doc, lines, err := s.loadPending(ctx, tx, docID)
		if err != nil {
			return err
		}

		active, err := requireActive(lines, lineID)
		if err != nil {
			return err
		}
		if err := authorize(actorID, doc, active, actionDecide); err != nil {
			return err
		}

		now := time.Now()
		active.Status = entity.LineStatusRejected
		active.Comment = comment
		active.DecidedAt = &now

		touched := []entity.ApprovalLine{*active}
		for i := range lines {
			if lines[i].Position > active.Position && lines[i].Status == entity.LineStatusPending {
				lines[i].Status = entity.LineStatusSkipped
				touched = append(touched, lines[i])
			}
		}

		doc.Status = entity.DeriveDocumentStatus(lines)
		if err := s.repos.Document.CommitTransition(ctx, tx, doc, touched); err != nil {
			if errors.Is(err, repository.ErrVersionConflict) {
				return conflictErrorf("line %s was decided concurrently", lineID)
			}
			return err
		}

		events = append(events, notify.NewEvent(notify.KindDocumentRejected, docID, active.ID, doc.CreatedBy))
		return nil
	})
	if err != nil {
		return nil, err
	}

	for _, ev := range events {
		s.dispatch(ev)
	}

	return s.repos.Document.FindByID(ctx, docID)
}

// Recall withdraws an undecided document. Creator only, while draft or
// pending, and only before any line has been decided.
func (s *ApprovalService) Recall(ctx context.Context, docID, actorID string) (*entity.ApprovalDocument, error) {
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		doc, lines, err := s.repos.Document.LoadForTransition(ctx, tx, docID)
		if err != nil {
			if errors.Is(err, repository.ErrNotFound) {
				return notFoundErrorf("document %s does not exist", docID)
			}
			return err
		}
		if err := authorize(actorID, doc, nil, actionRecall); err != nil {
			return err
		}
		if doc.Status != entity.DocumentStatusDraft && doc.Status != entity.DocumentStatusPending {
			return stateErrorf("document %s is %s and cannot be recalled", docID, doc.Status)
		}
		for i := range lines {
			if lines[i].Decided() {
				return stateErrorf("document %s already has a decided line and cannot be recalled", docID)
			}
		}

		var touched []entity.ApprovalLine
		for i := range lines {
			lines[i].Status = entity.LineStatusSkipped
			touched = append(touched, lines[i])
		}

		doc.Status = entity.DocumentStatusRecalled
		if err := s.repos.Document.CommitTransition(ctx, tx, doc, touched); err != nil {
			if errors.Is(err, repository.ErrVersionConflict) {
				return conflictErrorf("document %s was modified concurrently", docID)
			}
			return err
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.dispatch(notify.NewEvent(notify.KindDocumentRecalled, docID, "", actorID))

	return s.repos.Document.FindByID(ctx, docID)
}

// Get returns a document with its full graph.
func (s *ApprovalService) Get(ctx context.Context, docID string) (*entity.ApprovalDocument, error) {
	doc, err := s.repos.Document.FindByID(ctx, docID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, notFoundErrorf("document %s does not exist", docID)
		}
		return nil, err
	}
	return doc, nil
}

// Document list boxes.
const (
	BoxDrafted    = "drafted"
	BoxSubmitted  = "submitted"
	BoxPending    = "pending"
	BoxReferenced = "referenced"
)

// ListBox returns the employee's view of one document box.
func (s *ApprovalService) ListBox(ctx context.Context, employeeID, box string, page, pageSize int) ([]entity.ApprovalDocument, int64, error) {
	switch box {
	case BoxDrafted:
		return s.repos.Document.ListByCreator(ctx, employeeID, entity.DocumentStatusDraft, page, pageSize)
	case BoxSubmitted:
		return s.repos.Document.ListByCreator(ctx, employeeID, "", page, pageSize)
	case BoxPending:
		return s.repos.Document.ListPendingForApprover(ctx, employeeID, page, pageSize)
	case BoxReferenced:
		ids, err := s.repos.Reference.ListDocumentIDsForEmployee(ctx, employeeID)
		if err != nil {
			return nil, 0, err
		}
		if len(ids) == 0 {
			return []entity.ApprovalDocument{}, 0, nil
		}
		return s.repos.Document.ListByIDs(ctx, ids, page, pageSize)
	}
	return nil, 0, validationErrorf("unknown box %q", box)
}

// buildChain validates approvers and references and materializes line and
// reference rows. Duplicate approvers are permitted and become independent
// sequential steps.
func (s *ApprovalService) buildChain(ctx context.Context, docID string, approverIDs, referenceIDs []string) ([]entity.ApprovalLine, []entity.ApprovalReference, error) {
	if len(approverIDs) == 0 {
		return nil, nil, validationErrorf("at least one approver is required")
	}

	if _, err := s.repos.Employee.FindByIDs(ctx, approverIDs); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, nil, notFoundErrorf("an approver does not exist")
		}
		return nil, nil, err
	}
	if len(referenceIDs) > 0 {
		if _, err := s.repos.Employee.FindByIDs(ctx, referenceIDs); err != nil {
			if errors.Is(err, repository.ErrNotFound) {
				return nil, nil, notFoundErrorf("a reference employee does not exist")
			}
			return nil, nil, err
		}
	}

	now := time.Now()
	lines := make([]entity.ApprovalLine, 0, len(approverIDs))
	for i, approverID := range approverIDs {
		lines = append(lines, entity.ApprovalLine{
			ID:         uuid.New().String(),
			DocumentID: docID,
			Position:   i + 1,
			ApproverID: approverID,
			Status:     entity.LineStatusPending,
			Version:    1,
		})
	}

	refs := make([]entity.ApprovalReference, 0, len(referenceIDs))
	for _, employeeID := range referenceIDs {
		refs = append(refs, entity.ApprovalReference{
			ID:         uuid.New().String(),
			DocumentID: docID,
			EmployeeID: employeeID,
			CreatedAt:  now,
		})
	}

	return lines, refs, nil
}

// loadPending loads a document for a decision and checks it is still pending.
func (s *ApprovalService) loadPending(ctx context.Context, tx *gorm.DB, docID string) (*entity.ApprovalDocument, []entity.ApprovalLine, error) {
	doc, lines, err := s.repos.Document.LoadForTransition(ctx, tx, docID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, nil, notFoundErrorf("document %s does not exist", docID)
		}
		return nil, nil, err
	}
	if doc.Status != entity.DocumentStatusPending {
		return nil, nil, stateErrorf("document %s is %s, no decision is possible", docID, doc.Status)
	}
	return doc, lines, nil
}

// requireActive checks that lineID names the currently active line.
func requireActive(lines []entity.ApprovalLine, lineID string) (*entity.ApprovalLine, error) {
	var found bool
	for i := range lines {
		if lines[i].ID == lineID {
			found = true
			break
		}
	}
	if !found {
		return nil, notFoundErrorf("line %s does not exist", lineID)
	}

	active := entity.ActiveLine(lines)
	if active == nil || active.ID != lineID {
		return nil, stateErrorf("line %s is not the active line", lineID)
	}
	return active, nil
}

// dispatch pushes an event after a committed transition. Failures are logged
// and never roll back the decision.
func (s *ApprovalService) dispatch(event notify.Event) {
	go func() {
		if err := s.dispatcher.Dispatch(context.Background(), event); err != nil {
			s.logger.Error("Failed to dispatch workflow event",
				zap.String("key", event.Key),
				zap.Error(err),
			)
		}
	}()
}

func parseDate(value *string) (*time.Time, error) {
	if value == nil || *value == "" {
		return nil, nil
	}
	t, err := time.Parse("2006-01-02", *value)
	if err != nil {
		return nil, err
	}
	return &t, nil
}
