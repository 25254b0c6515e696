package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"cotizador_backend/internal/conversation/service"
	"cotizador_backend/internal/conversation/transport"
	"cotizador_backend/platform/httpkit"
	"cotizador_backend/platform/validator"
)

const (
	msgInvalidConversationID = "invalid conversation id"
	msgInvalidRequest        = "invalid request"
	msgValidationFailed      = "validation failed"
)

// Handler serves the admin conversation views.
type Handler struct {
	svc *service.Service
	val *validator.Validator
}

// New creates a new conversation handler.
func New(svc *service.Service, val *validator.Validator) *Handler {
	return &Handler{svc: svc, val: val}
}

// List returns the conversations of a user.
// GET /api/v1/admin/conversations?userId=
func (h *Handler) List(c *gin.Context) {
	var req transport.ListConversationsRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, nil)
		return
	}
	if err := h.val.Struct(req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgValidationFailed, err.Error())
		return
	}

	userID, err := uuid.Parse(req.UserID)
	if err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgValidationFailed, nil)
		return
	}

	convs, err := h.svc.ListByUser(c.Request.Context(), userID, req.Limit)
	if httpkit.HandleError(c, err) {
		return
	}

	items := make([]transport.ConversationResponse, 0, len(convs))
	for _, conv := range convs {
		items = append(items, transport.ToConversationResponse(conv))
	}
	httpkit.OK(c, transport.ConversationListResponse{Items: items, Total: len(items)})
}

// Get returns one conversation with its state and product list.
// GET /api/v1/admin/conversations/:id
func (h *Handler) Get(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}

	conv, err := h.svc.GetByID(c.Request.Context(), id)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, transport.ToConversationResponse(*conv))
}

// Messages returns the transcript of a conversation.
// GET /api/v1/admin/conversations/:id/messages
func (h *Handler) Messages(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}

	msgs, err := h.svc.Transcript(c.Request.Context(), id)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, transport.TranscriptResponse{ConversationID: id.String(), Messages: msgs})
}

func parseID(c *gin.Context) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidConversationID, nil)
		return uuid.Nil, false
	}
	return id, true
}
