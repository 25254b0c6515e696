package nlu

import (
	"context"
	"fmt"
	"strings"

	"google.golang.org/adk/model"

	"cotizador_backend/internal/conversation/domain"
	"cotizador_backend/internal/conversation/engine"
	"cotizador_backend/platform/ai/llmjson"
)

// Extractor pulls normalized product requests out of a message.
type Extractor struct {
	agent *agentRunner
}

var _ engine.Extractor = (*Extractor)(nil)

// NewExtractor creates the product extraction agent.
func NewExtractor(llm model.LLM) (*Extractor, error) {
	a, err := newAgentRunner("ProductExtractor", "product-extractor",
		"Extracts stationery products and quantities from a message.",
		extractorInstruction(), llm)
	if err != nil {
		return nil, err
	}
	return &Extractor{agent: a}, nil
}

// Extract runs the agent and normalizes its answer.
func (e *Extractor) Extract(ctx context.Context, text string) ([]domain.RequestedProduct, error) {
	raw, err := e.agent.run(ctx, "extractor", text)
	if err != nil {
		return nil, err
	}
	return parseProducts(raw)
}

type extractedProduct struct {
	Name        string `json:"name"`
	Quantity    any    `json:"quantity"`
	Unit        string `json:"unit"`
	Description string `json:"description"`
}

// parseProducts drops unnamed items and floors quantities at one.
func parseProducts(raw string) ([]domain.RequestedProduct, error) {
	var payload struct {
		Products []extractedProduct `json:"products"`
	}
	if err := llmjson.Decode(raw, &payload); err != nil {
		return nil, fmt.Errorf("extractor: %w", err)
	}

	out := make([]domain.RequestedProduct, 0, len(payload.Products))
	for _, p := range payload.Products {
		name := strings.TrimSpace(p.Name)
		if name == "" {
			continue
		}
		out = append(out, domain.RequestedProduct{
			Name:        name,
			Quantity:    quantityOf(p.Quantity),
			Unit:        strings.TrimSpace(p.Unit),
			Description: strings.TrimSpace(p.Description),
		})
	}
	return out, nil
}

// quantityOf accepts numbers and numeric strings; anything else is one.
func quantityOf(v any) int {
	var n int
	switch q := v.(type) {
	case float64:
		n = int(q)
	case string:
		if _, err := fmt.Sscanf(strings.TrimSpace(q), "%d", &n); err != nil {
			n = 1
		}
	}
	if n < 1 {
		return 1
	}
	return n
}
