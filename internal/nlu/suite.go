package nlu

import (
	"cotizador_backend/platform/ai/openai"
)

// Suite bundles the three agents wired to the engine.
type Suite struct {
	Classifier *Classifier
	Extractor  *Extractor
	Responder  *Responder
}

// NewOpenAISuite builds every agent on its own OpenAI chat model so each can
// carry its own temperature and token budget.
func NewOpenAISuite(cfg openai.Config) (*Suite, error) {
	classifierCfg := cfg
	classifierCfg.Temperature = 0.3
	classifierCfg.MaxTokens = 200

	extractorCfg := cfg
	extractorCfg.Temperature = 0.2
	extractorCfg.MaxTokens = 300

	responderCfg := cfg
	responderCfg.Temperature = 0.7

	classifier, err := NewClassifier(openai.NewModel(classifierCfg))
	if err != nil {
		return nil, err
	}
	extractor, err := NewExtractor(openai.NewModel(extractorCfg))
	if err != nil {
		return nil, err
	}
	responder, err := NewResponder(openai.NewModel(responderCfg))
	if err != nil {
		return nil, err
	}
	return &Suite{Classifier: classifier, Extractor: extractor, Responder: responder}, nil
}
