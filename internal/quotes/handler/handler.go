package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"cotizador_backend/internal/quotes/service"
	"cotizador_backend/internal/quotes/transport"
	"cotizador_backend/platform/httpkit"
	"cotizador_backend/platform/validator"
)

const (
	contentTypePDF      = "application/pdf"
	msgInvalidQuoteID   = "invalid quote id"
	msgInvalidRequest   = "invalid request"
	msgValidationFailed = "validation failed"
)

// Handler handles HTTP requests for quotes.
type Handler struct {
	svc *service.Service
	val *validator.Validator
}

// New creates a new quotes handler.
func New(svc *service.Service, val *validator.Validator) *Handler {
	return &Handler{svc: svc, val: val}
}

// DownloadPDF serves the public quote document. Stored documents are
// served through a presigned redirect, others are rendered inline.
// GET /api/v1/quotes/:id/pdf
func (h *Handler) DownloadPDF(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidQuoteID, nil)
		return
	}

	download, err := h.svc.GetPDF(c.Request.Context(), id)
	if httpkit.HandleError(c, err) {
		return
	}

	if download.RedirectURL != "" {
		c.Redirect(http.StatusFound, download.RedirectURL)
		return
	}
	servePDFBytes(c, download.QuoteNumber, download.Content)
}

// List returns the quotes of a user.
// GET /api/v1/admin/quotes?userId=
func (h *Handler) List(c *gin.Context) {
	var req transport.ListQuotesRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, nil)
		return
	}
	if err := h.val.Struct(req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgValidationFailed, err.Error())
		return
	}

	result, err := h.svc.ListByUser(c.Request.Context(), req)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, result)
}

// Get returns one quote with its items.
// GET /api/v1/admin/quotes/:id
func (h *Handler) Get(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidQuoteID, nil)
		return
	}

	result, err := h.svc.GetByID(c.Request.Context(), id)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, result)
}
