// Package nlu runs the three language-model agents behind the conversation
// engine: the intent classifier, the product extractor and the free-form
// responder. Answers are validated here so the engine only sees the closed
// vocabularies of the domain package.
package nlu

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"google.golang.org/adk/agent"
	"google.golang.org/adk/agent/llmagent"
	"google.golang.org/adk/model"
	"google.golang.org/adk/runner"
	"google.golang.org/adk/session"
	"google.golang.org/genai"
)

// agentRunner owns one tool-less llmagent and runs single-shot prompts
// through an ephemeral session.
type agentRunner struct {
	name           string
	runner         *runner.Runner
	sessionService session.Service
	appName        string
}

func newAgentRunner(name, appName, description, instruction string, llm model.LLM) (*agentRunner, error) {
	adkAgent, err := llmagent.New(llmagent.Config{
		Name:        name,
		Model:       llm,
		Description: description,
		Instruction: instruction,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create %s agent: %w", appName, err)
	}

	sessionService := session.InMemoryService()
	r, err := runner.New(runner.Config{
		AppName:        appName,
		Agent:          adkAgent,
		SessionService: sessionService,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create %s runner: %w", appName, err)
	}

	return &agentRunner{
		name:           name,
		runner:         r,
		sessionService: sessionService,
		appName:        appName,
	}, nil
}

// run sends prompt as a single user message and returns the concatenated text
// reply. Each call gets its own session, so calls run concurrently.
func (a *agentRunner) run(ctx context.Context, userID, prompt string) (string, error) {
	sessionID := uuid.New().String()
	_, err := a.sessionService.Create(ctx, &session.CreateRequest{
		AppName:   a.appName,
		UserID:    userID,
		SessionID: sessionID,
	})
	if err != nil {
		return "", fmt.Errorf("%s: create session: %w", a.appName, err)
	}
	defer func() {
		_ = a.sessionService.Delete(context.WithoutCancel(ctx), &session.DeleteRequest{
			AppName:   a.appName,
			UserID:    userID,
			SessionID: sessionID,
		})
	}()

	userMessage := &genai.Content{
		Role: "user",
		Parts: []*genai.Part{{
			Text: prompt,
		}},
	}

	runConfig := agent.RunConfig{StreamingMode: agent.StreamingModeNone}

	var outputText strings.Builder
	for event, err := range a.runner.Run(ctx, userID, sessionID, userMessage, runConfig) {
		if err != nil {
			return "", fmt.Errorf("%s: run failed: %w", a.appName, err)
		}
		if event.Content == nil {
			continue
		}
		for _, part := range event.Content.Parts {
			outputText.WriteString(part.Text)
		}
	}

	out := strings.TrimSpace(outputText.String())
	if out == "" {
		return "", fmt.Errorf("%s: empty model output", a.appName)
	}
	return out, nil
}
