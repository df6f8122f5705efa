package handler

import (
	"github.com/gin-gonic/gin"
	"github.com/khyeongtaek/startup-BE-sub001/internal/approval/service"
)

// TemplateHandler exposes the approval template catalog.
type TemplateHandler struct {
	svc *service.TemplateService
}

func NewTemplateHandler(svc *service.TemplateService) *TemplateHandler {
	return &TemplateHandler{svc: svc}
}

// List returns all active templates.
// GET /api/v1/approval-templates
func (h *TemplateHandler) List(c *gin.Context) {
	tpls, err := h.svc.List(c.Request.Context())
	if err != nil {
		InternalError(c, err.Error())
		return
	}
	Success(c, gin.H{"items": tpls})
}

// Get returns one template.
// GET /api/v1/approval-templates/:id
func (h *TemplateHandler) Get(c *gin.Context) {
	tpl, err := h.svc.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		WriteError(c, err)
		return
	}
	Success(c, tpl)
}

// Create registers a template.
// POST /api/v1/approval-templates
func (h *TemplateHandler) Create(c *gin.Context) {
	var req service.CreateTemplateReq
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, "Invalid request body: "+err.Error())
		return
	}

	tpl, err := h.svc.Create(c.Request.Context(), req, GetUserID(c))
	if err != nil {
		WriteError(c, err)
		return
	}
	Created(c, tpl)
}

// Delete soft deletes a template.
// DELETE /api/v1/approval-templates/:id
func (h *TemplateHandler) Delete(c *gin.Context) {
	if err := h.svc.Delete(c.Request.Context(), c.Param("id")); err != nil {
		WriteError(c, err)
		return
	}
	Success(c, gin.H{"message": "Template deleted"})
}
