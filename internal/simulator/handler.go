// Package simulator exposes the inbound pipeline over plain JSON for local testing.
package simulator

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	convrepo "cotizador_backend/internal/conversation/repository"
	convsvc "cotizador_backend/internal/conversation/service"
	"cotizador_backend/platform/httpkit"
	"cotizador_backend/platform/validator"
)

// Pipeline is the part of the conversation service the simulator drives.
type Pipeline interface {
	HandleInbound(ctx context.Context, msg convsvc.InboundMessage) (convsvc.InboundResult, error)
	Transcript(ctx context.Context, conversationID uuid.UUID) ([]convrepo.Message, error)
}

// SendRequest is a simulated WhatsApp message.
type SendRequest struct {
	UserPhone string `json:"user_phone" validate:"required,whatsapp_phone"`
	Message   string `json:"message" validate:"required,max=4096"`
}

// UserSummary identifies the authenticated sender.
type UserSummary struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Phone string `json:"phone"`
}

// SendResponse mirrors what the bot would have answered on WhatsApp.
type SendResponse struct {
	Success        bool        `json:"success"`
	User           UserSummary `json:"user"`
	ConversationID string      `json:"conversation_id"`
	CurrentState   string      `json:"current_state"`
	Message        string      `json:"message"`
	Response       string      `json:"response"`
}

// MessagesResponse is a conversation transcript.
type MessagesResponse struct {
	ConversationID string             `json:"conversation_id"`
	Messages       []convrepo.Message `json:"messages"`
	Total          int                `json:"total"`
}

// Handler serves the simulator endpoints.
type Handler struct {
	pipeline Pipeline
	val      *validator.Validator
}

// NewHandler creates the simulator handler.
func NewHandler(pipeline Pipeline, val *validator.Validator) *Handler {
	return &Handler{pipeline: pipeline, val: val}
}

// Send runs one turn as if it arrived through WhatsApp.
// POST /api/v1/chat/send
func (h *Handler) Send(c *gin.Context) {
	var req SendRequest
	if !httpkit.BindAndValidate(c, h.val, &req) {
		return
	}

	result, err := h.pipeline.HandleInbound(c.Request.Context(), convsvc.InboundMessage{
		Phone:  req.UserPhone,
		Text:   req.Message,
		ChatID: "simulator",
	})
	if httpkit.HandleError(c, err) {
		return
	}

	httpkit.OK(c, SendResponse{
		Success: true,
		User: UserSummary{
			ID:    result.User.ID.String(),
			Name:  result.User.Name,
			Phone: result.User.PhoneNumber,
		},
		ConversationID: result.ConversationID.String(),
		CurrentState:   string(result.State),
		Message:        req.Message,
		Response:       result.Reply,
	})
}

// Messages returns the logged transcript of a conversation.
// GET /api/v1/chat/conversations/:id/messages
func (h *Handler) Messages(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		httpkit.Error(c, http.StatusBadRequest, "invalid conversation id", nil)
		return
	}

	msgs, err := h.pipeline.Transcript(c.Request.Context(), id)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, MessagesResponse{ConversationID: id.String(), Messages: msgs, Total: len(msgs)})
}
