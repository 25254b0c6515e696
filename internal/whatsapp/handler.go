package whatsapp

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	convsvc "cotizador_backend/internal/conversation/service"
	usersvc "cotizador_backend/internal/users/service"
	"cotizador_backend/platform/apperr"
	"cotizador_backend/platform/logger"
)

const replyInternalError = "Lo siento, ocurrió un error procesando tu mensaje. Intenta de nuevo en unos momentos."

// InboundHandler runs the conversation pipeline.
type InboundHandler interface {
	HandleInbound(ctx context.Context, msg convsvc.InboundMessage) (convsvc.InboundResult, error)
}

// Sender delivers a reply to a WhatsApp id.
type Sender interface {
	SendMessage(ctx context.Context, to string, message string) error
}

// Handler serves the Cloud API webhook.
type Handler struct {
	pipeline    InboundHandler
	sender      Sender
	verifyToken string
	log         *logger.Logger
}

// NewHandler creates the webhook handler.
func NewHandler(pipeline InboundHandler, sender Sender, verifyToken string, log *logger.Logger) *Handler {
	return &Handler{pipeline: pipeline, sender: sender, verifyToken: verifyToken, log: log}
}

// Verify answers the subscription handshake.
// GET /webhook/whatsapp
func (h *Handler) Verify(c *gin.Context) {
	mode := c.Query("hub.mode")
	token := c.Query("hub.verify_token")
	if mode != "subscribe" || h.verifyToken == "" || token != h.verifyToken {
		h.log.Warn("webhook verification rejected", "mode", mode, "client_ip", c.ClientIP())
		c.String(http.StatusForbidden, "forbidden")
		return
	}
	c.String(http.StatusOK, c.Query("hub.challenge"))
}

// Receive handles a message notification. Every well-formed request is
// acknowledged with 200 so the platform does not redeliver it.
// POST /webhook/whatsapp
func (h *Handler) Receive(c *gin.Context) {
	var payload webhookPayload
	if err := c.ShouldBindJSON(&payload); err != nil {
		h.log.Warn("webhook payload rejected", "error", err)
		c.JSON(http.StatusOK, gin.H{"status": "ignored"})
		return
	}

	msg, ok := payload.firstTextMessage()
	if !ok {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
		return
	}

	ctx := c.Request.Context()
	reply := h.process(ctx, msg)
	if err := h.sender.SendMessage(ctx, msg.From, reply); err != nil {
		h.log.ExternalFailure("whatsapp_send", err)
	}

	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func (h *Handler) process(ctx context.Context, msg incoming) string {
	result, err := h.pipeline.HandleInbound(ctx, convsvc.InboundMessage{
		Phone:             msg.From,
		Text:              msg.Text,
		ChatID:            msg.From,
		WhatsAppMessageID: msg.ID,
	})
	switch {
	case err == nil:
		return result.Reply
	case apperr.Is(err, apperr.KindForbidden):
		h.log.Info("unauthorized whatsapp sender", "message_id", msg.ID)
		return usersvc.UnauthorizedMessage
	default:
		h.log.Error("inbound pipeline failed", "message_id", msg.ID, "error", err)
		return replyInternalError
	}
}
