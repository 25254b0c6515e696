package nlu

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"google.golang.org/adk/model"

	"cotizador_backend/internal/conversation/domain"
	"cotizador_backend/internal/conversation/engine"
	"cotizador_backend/platform/ai/llmjson"
)

// Classifier labels user messages with an intent.
type Classifier struct {
	agent *agentRunner
}

var _ engine.Classifier = (*Classifier)(nil)

// NewClassifier creates the intent classification agent.
func NewClassifier(llm model.LLM) (*Classifier, error) {
	a, err := newAgentRunner("IntentClassifier", "intent-classifier",
		"Classifies WhatsApp quoting messages into a closed set of intents.",
		classifierInstruction(), llm)
	if err != nil {
		return nil, err
	}
	return &Classifier{agent: a}, nil
}

// Classify runs the agent and validates its answer.
func (c *Classifier) Classify(ctx context.Context, text string, hint engine.ClassifyHint) (domain.Classification, error) {
	raw, err := c.agent.run(ctx, "classifier", classifierPrompt(text, hint.State, hint.ProductCount))
	if err != nil {
		return domain.Classification{}, err
	}
	return parseClassification(raw)
}

type classificationPayload struct {
	Intent     string   `json:"intent"`
	Confidence *float64 `json:"confidence"`
	Entities   []any    `json:"entities"`
}

// parseClassification rejects unknown intents and confidences outside [0,1].
func parseClassification(raw string) (domain.Classification, error) {
	var payload classificationPayload
	if err := llmjson.Decode(raw, &payload); err != nil {
		return domain.Classification{}, fmt.Errorf("classifier: %w", err)
	}

	intent, err := domain.ParseClassifierIntent(strings.ToUpper(strings.TrimSpace(payload.Intent)))
	if err != nil {
		return domain.Classification{}, fmt.Errorf("classifier: %w", err)
	}
	if payload.Confidence == nil {
		return domain.Classification{}, errors.New("classifier: missing confidence")
	}
	confidence := *payload.Confidence
	if confidence < 0 || confidence > 1 {
		return domain.Classification{}, fmt.Errorf("classifier: confidence %v out of range", confidence)
	}

	entities := make([]string, 0, len(payload.Entities))
	for _, e := range payload.Entities {
		if s, ok := e.(string); ok && strings.TrimSpace(s) != "" {
			entities = append(entities, strings.TrimSpace(s))
		}
	}

	return domain.Classification{Intent: intent, Confidence: confidence, Entities: entities}, nil
}
