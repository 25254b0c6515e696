package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"cotizador_backend/internal/catalog/service"
	"cotizador_backend/internal/catalog/transport"
	"cotizador_backend/platform/httpkit"
	"cotizador_backend/platform/validator"
)

// Handler handles HTTP requests for catalog.
type Handler struct {
	svc *service.Service
	val *validator.Validator
}

const (
	msgInvalidRequest   = "invalid request"
	msgValidationFailed = "validation failed"
)

// New creates a new catalog handler.
func New(svc *service.Service, val *validator.Validator) *Handler {
	return &Handler{svc: svc, val: val}
}

// Search runs a word-containment product search.
// GET /api/v1/admin/catalog/search
func (h *Handler) Search(c *gin.Context) {
	var req transport.SearchRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, nil)
		return
	}
	if err := h.val.Struct(req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgValidationFailed, err.Error())
		return
	}

	result, err := h.svc.Search(c.Request.Context(), req)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, result)
}

// GetBySKU retrieves a product by SKU.
// GET /api/v1/admin/catalog/products/:sku
func (h *Handler) GetBySKU(c *gin.Context) {
	result, err := h.svc.GetBySKU(c.Request.Context(), c.Param("sku"))
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, result)
}
