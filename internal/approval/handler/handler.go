package handler

import (
	"errors"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/khyeongtaek/startup-BE-sub001/internal/approval/service"
)

// Handlers bundles the suite's HTTP handlers.
type Handlers struct {
	Approval *ApprovalHandler
	Template *TemplateHandler
}

// NewHandlers creates the handler set.
func NewHandlers(svc *service.Services) *Handlers {
	return &Handlers{
		Approval: NewApprovalHandler(svc.Approval),
		Template: NewTemplateHandler(svc.Template),
	}
}

// Response is the common response envelope.
type Response struct {
	Code    int         `json:"code"`
	Message string      `json:"message"`
	Data    interface{} `json:"data,omitempty"`
}

// Pagination describes one page of a list response.
type Pagination struct {
	Page     int   `json:"page"`
	PageSize int   `json:"page_size"`
	Total    int64 `json:"total"`
}

// Success writes a 200 envelope.
func Success(c *gin.Context, data interface{}) {
	c.JSON(200, Response{
		Code:    0,
		Message: "success",
		Data:    data,
	})
}

// Created writes a 201 envelope.
func Created(c *gin.Context, data interface{}) {
	c.JSON(201, Response{
		Code:    0,
		Message: "success",
		Data:    data,
	})
}

// Error writes an error envelope; the HTTP status is code/100.
func Error(c *gin.Context, code int, message string) {
	statusCode := code / 100
	if statusCode < 100 || statusCode > 599 {
		statusCode = 500
	}
	c.JSON(statusCode, Response{
		Code:    code,
		Message: message,
	})
}

// BadRequest writes a 400 envelope.
func BadRequest(c *gin.Context, message string) {
	Error(c, 40000, message)
}

// NotFound writes a 404 envelope.
func NotFound(c *gin.Context, message string) {
	Error(c, 40400, message)
}

// Forbidden writes a 403 envelope.
func Forbidden(c *gin.Context, message string) {
	Error(c, 40300, message)
}

// UnprocessableEntity writes a 422 envelope.
func UnprocessableEntity(c *gin.Context, message string) {
	Error(c, 42200, message)
}

// Conflict writes a 409 envelope.
func Conflict(c *gin.Context, message string) {
	Error(c, 40900, message)
}

// InternalError writes a 500 envelope.
func InternalError(c *gin.Context, message string) {
	Error(c, 50000, message)
}

// WriteError maps workflow errors onto HTTP status codes.
func WriteError(c *gin.Context, err error) {
	var (
		validation *service.ValidationError
		notFound   *service.NotFoundError
		forbidden  *service.AuthorizationError
		state      *service.StateError
		conflict   *service.ConflictError
	)
	switch {
	case errors.As(err, &validation):
		BadRequest(c, validation.Msg)
	case errors.As(err, &notFound):
		NotFound(c, notFound.Msg)
	case errors.As(err, &forbidden):
		Forbidden(c, forbidden.Msg)
	case errors.As(err, &state):
		UnprocessableEntity(c, state.Msg)
	case errors.As(err, &conflict):
		Conflict(c, conflict.Msg)
	default:
		InternalError(c, err.Error())
	}
}

// GetUserID returns the authenticated employee id from the gin context.
func GetUserID(c *gin.Context) string {
	userID, _ := c.Get("user_id")
	if id, ok := userID.(string); ok {
		return id
	}
	return ""
}

// GetPagination reads page/page_size query parameters.
func GetPagination(c *gin.Context) (page, pageSize int) {
	page = 1
	pageSize = 20

	if p := c.Query("page"); p != "" {
		if v, err := strconv.Atoi(p); err == nil && v > 0 {
			page = v
		}
	}

	if ps := c.Query("page_size"); ps != "" {
		if v, err := strconv.Atoi(ps); err == nil && v > 0 && v <= 100 {
			pageSize = v
		}
	}

	return page, pageSize
}
