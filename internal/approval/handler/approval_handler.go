package handler

import (
	"github.com/gin-gonic/gin"
	"github.com/khyeongtaek/startup-BE-sub001/internal/approval/service"
)

// ApprovalHandler exposes the workflow engine over HTTP.
type ApprovalHandler struct {
	svc *service.ApprovalService
}

func NewApprovalHandler(svc *service.ApprovalService) *ApprovalHandler {
	return &ApprovalHandler{svc: svc}
}

// Create creates a draft or creates-and-submits a document.
// POST /api/v1/approval-documents
func (h *ApprovalHandler) Create(c *gin.Context) {
	var req service.CreateDocumentReq
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, "Invalid request body: "+err.Error())
		return
	}

	doc, err := h.svc.Create(c.Request.Context(), req, GetUserID(c))
	if err != nil {
		WriteError(c, err)
		return
	}

	Success(c, NewDocumentView(doc))
}

// Get returns a document with its chain and references.
// GET /api/v1/approval-documents/:id
func (h *ApprovalHandler) Get(c *gin.Context) {
	doc, err := h.svc.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		WriteError(c, err)
		return
	}

	Success(c, NewDocumentView(doc))
}

// List returns one of the caller's document boxes.
// GET /api/v1/approval-documents?box=drafted|submitted|pending|referenced
func (h *ApprovalHandler) List(c *gin.Context) {
	box := c.DefaultQuery("box", service.BoxSubmitted)
	page, pageSize := GetPagination(c)

	docs, total, err := h.svc.ListBox(c.Request.Context(), GetUserID(c), box, page, pageSize)
	if err != nil {
		WriteError(c, err)
		return
	}

	Success(c, gin.H{
		"items": NewDocumentViews(docs),
		"pagination": Pagination{
			Page:     page,
			PageSize: pageSize,
			Total:    total,
		},
	})
}

// Update rewrites a draft.
// PUT /api/v1/approval-documents/:id
func (h *ApprovalHandler) Update(c *gin.Context) {
	var req service.UpdateDraftReq
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, "Invalid request body: "+err.Error())
		return
	}

	doc, err := h.svc.UpdateDraft(c.Request.Context(), c.Param("id"), req, GetUserID(c))
	if err != nil {
		WriteError(c, err)
		return
	}

	Success(c, NewDocumentView(doc))
}

// Submit activates a draft's approval chain.
// POST /api/v1/approval-documents/:id/submit
func (h *ApprovalHandler) Submit(c *gin.Context) {
	var req service.SubmitReq
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, "Invalid request body: "+err.Error())
		return
	}

	doc, err := h.svc.Submit(c.Request.Context(), c.Param("id"), req, GetUserID(c))
	if err != nil {
		WriteError(c, err)
		return
	}

	Success(c, NewDocumentView(doc))
}

// Approve decides the active line positively.
// POST /api/v1/approval-documents/:id/lines/:lineId/approve
func (h *ApprovalHandler) Approve(c *gin.Context) {
	var req service.DecideReq
	c.ShouldBindJSON(&req)

	doc, err := h.svc.Approve(c.Request.Context(), c.Param("id"), c.Param("lineId"), GetUserID(c), req.Comment)
	if err != nil {
		WriteError(c, err)
		return
	}

	Success(c, NewDocumentView(doc))
}

// Reject decides the active line negatively; later lines are skipped.
// POST /api/v1/approval-documents/:id/lines/:lineId/reject
func (h *ApprovalHandler) Reject(c *gin.Context) {
	var req service.DecideReq
	c.ShouldBindJSON(&req)

	doc, err := h.svc.Reject(c.Request.Context(), c.Param("id"), c.Param("lineId"), GetUserID(c), req.Comment)
	if err != nil {
		WriteError(c, err)
		return
	}

	Success(c, NewDocumentView(doc))
}

// Recall withdraws an undecided document.
// POST /api/v1/approval-documents/:id/recall
func (h *ApprovalHandler) Recall(c *gin.Context) {
	doc, err := h.svc.Recall(c.Request.Context(), c.Param("id"), GetUserID(c))
	if err != nil {
		WriteError(c, err)
		return
	}

	Success(c, NewDocumentView(doc))
}
