package transport

import (
	"time"

	"cotizador_backend/internal/conversation/domain"
	"cotizador_backend/internal/conversation/repository"
)

// ListConversationsRequest filters the admin conversation listing.
type ListConversationsRequest struct {
	UserID string `form:"userId" validate:"required,uuid"`
	Limit  int    `form:"limit" validate:"omitempty,min=1,max=100"`
}

// ConversationResponse is the admin view of a conversation.
type ConversationResponse struct {
	ID                 string                      `json:"id"`
	UserID             string                      `json:"userId"`
	WhatsAppChatID     string                      `json:"whatsappChatId,omitempty"`
	Status             string                      `json:"status"`
	CurrentState       string                      `json:"currentState"`
	Context            map[string]any              `json:"context"`
	ProductsInProgress []domain.AccumulationRecord `json:"productsInProgress"`
	TotalMessages      int                         `json:"totalMessages"`
	LastActivity       time.Time                   `json:"lastActivity"`
	CompletedAt        *time.Time                  `json:"completedAt,omitempty"`
	CreatedAt          time.Time                   `json:"createdAt"`
}

// ConversationListResponse wraps a conversation listing.
type ConversationListResponse struct {
	Items []ConversationResponse `json:"items"`
	Total int                    `json:"total"`
}

// TranscriptResponse is the logged message history of a conversation.
type TranscriptResponse struct {
	ConversationID string               `json:"conversationId"`
	Messages       []repository.Message `json:"messages"`
}

// ToConversationResponse maps a domain conversation to its admin view.
func ToConversationResponse(c domain.Conversation) ConversationResponse {
	products := c.ProductsInProgress
	if products == nil {
		products = []domain.AccumulationRecord{}
	}
	ctx := c.Context
	if ctx == nil {
		ctx = map[string]any{}
	}
	return ConversationResponse{
		ID:                 c.ID.String(),
		UserID:             c.UserID.String(),
		WhatsAppChatID:     c.WhatsAppChatID,
		Status:             string(c.Status),
		CurrentState:       string(c.State),
		Context:            ctx,
		ProductsInProgress: products,
		TotalMessages:      c.TotalMessages,
		LastActivity:       c.LastActivity,
		CompletedAt:        c.CompletedAt,
		CreatedAt:          c.CreatedAt,
	}
}
