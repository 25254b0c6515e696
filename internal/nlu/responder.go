package nlu

import (
	"context"

	"google.golang.org/adk/model"

	"cotizador_backend/internal/conversation/domain"
	"cotizador_backend/internal/conversation/engine"
)

// Responder writes conversational replies for turns no rule handles.
type Responder struct {
	agent *agentRunner
}

var _ engine.Responder = (*Responder)(nil)

// NewResponder creates the conversational agent.
func NewResponder(llm model.LLM) (*Responder, error) {
	a, err := newAgentRunner("Responder", "responder",
		"Answers customers of a stationery store in Mexican Spanish.",
		responderInstruction(), llm)
	if err != nil {
		return nil, err
	}
	return &Responder{agent: a}, nil
}

func (r *Responder) Respond(ctx context.Context, text string, conv *domain.Conversation) (string, error) {
	userID := "responder"
	if conv != nil {
		userID = "responder-" + conv.ID.String()
	}
	return r.agent.run(ctx, userID, responderPrompt(text, conv))
}
