package handler

import (
	"time"

	"github.com/khyeongtaek/startup-BE-sub001/internal/approval/entity"
)

// Response shapes for approval documents. The persisted entities are mapped
// onto a stable wire format so storage changes never leak into clients.

type StatusView struct {
	Code        string `json:"code"`
	Description string `json:"description"`
}

type EmployeeView struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

type TemplateRefView struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

type LineView struct {
	ID        string        `json:"id"`
	Position  int           `json:"position"`
	Approver  *EmployeeView `json:"approver"`
	Status    string        `json:"status"`
	Comment   string        `json:"comment,omitempty"`
	DecidedAt *time.Time    `json:"decidedAt"`
}

type ReferenceView struct {
	Employee *EmployeeView `json:"employee"`
}

type DocumentView struct {
	ID         string           `json:"id"`
	Title      string           `json:"title"`
	Content    string           `json:"content"`
	Status     StatusView       `json:"status"`
	Template   *TemplateRefView `json:"template"`
	CreatedAt  time.Time        `json:"createdAt"`
	UpdatedAt  time.Time        `json:"updatedAt"`
	StartDate  *time.Time       `json:"startDate"`
	EndDate    *time.Time       `json:"endDate"`
	Creator    *EmployeeView    `json:"creator"`
	Updater    *EmployeeView    `json:"updater"`
	Lines      []LineView       `json:"lines"`
	References []ReferenceView  `json:"references"`
}

func employeeView(e *entity.Employee) *EmployeeView {
	if e == nil {
		return nil
	}
	return &EmployeeView{ID: e.ID, Name: e.Name}
}

// NewDocumentView maps a loaded document onto the wire format.
func NewDocumentView(doc *entity.ApprovalDocument) DocumentView {
	view := DocumentView{
		ID:      doc.ID,
		Title:   doc.Title,
		Content: doc.Content,
		Status: StatusView{
			Code:        doc.Status,
			Description: entity.DocumentStatusDescription(doc.Status),
		},
		CreatedAt:  doc.CreatedAt,
		UpdatedAt:  doc.UpdatedAt,
		StartDate:  doc.StartDate,
		EndDate:    doc.EndDate,
		Creator:    employeeView(doc.Creator),
		Updater:    employeeView(doc.Updater),
		Lines:      make([]LineView, 0, len(doc.Lines)),
		References: make([]ReferenceView, 0, len(doc.References)),
	}

	if doc.Template != nil {
		view.Template = &TemplateRefView{ID: doc.Template.ID, Name: doc.Template.Name}
	}

	for i := range doc.Lines {
		line := &doc.Lines[i]
		view.Lines = append(view.Lines, LineView{
			ID:        line.ID,
			Position:  line.Position,
			Approver:  employeeView(line.Approver),
			Status:    line.Status,
			Comment:   line.Comment,
			DecidedAt: line.DecidedAt,
		})
	}

	for i := range doc.References {
		view.References = append(view.References, ReferenceView{
			Employee: employeeView(doc.References[i].Employee),
		})
	}

	return view
}

// NewDocumentViews maps a document list.
func NewDocumentViews(docs []entity.ApprovalDocument) []DocumentView {
	views := make([]DocumentView, 0, len(docs))
	for i := range docs {
		views = append(views, NewDocumentView(&docs[i]))
	}
	return views
}
