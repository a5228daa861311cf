package core

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/generative-ai-go/genai"
	"go.uber.org/zap"
	"google.golang.org/api/option"

	"healthgenie.io/assistant/internal/logging"
)

const defaultGeminiModelName = "gemini-1.5-flash"

// ErrEmptyCompletion is returned when the completion service answers without
// any usable text.
var ErrEmptyCompletion = errors.New("completion service returned no text")

// Completer sends one fully composed prompt to a text-completion service and
// returns the generated text.
type Completer interface {
	Complete(ctx context.Context, prompt string) (string, error)
}

// GeminiCompleter calls Google's Gemini API.
type GeminiCompleter struct {
	client    *genai.Client
	modelName string
}

func NewGeminiCompleter(ctx context.Context, apiKey, modelName string) (*GeminiCompleter, error) {
	client, err := genai.NewClient(ctx, option.WithAPIKey(apiKey))
	if err != nil {
		return nil, fmt.Errorf("failed to create GenAI client: %w", err)
	}
	if modelName == "" {
		modelName = defaultGeminiModelName
	}

	return &GeminiCompleter{
		client:    client,
		modelName: modelName,
	}, nil
}

func (c *GeminiCompleter) Close() {
	if c.client != nil {
		if err := c.client.Close(); err != nil {
			logging.Logger.Warn("Error closing GenAI client", zap.Error(err))
		} else {
			logging.Logger.Info("GenAI client closed.")
		}
	}
}

func (c *GeminiCompleter) Complete(ctx context.Context, prompt string) (string, error) {
	model := c.client.GenerativeModel(c.modelName)

	resp, err := model.GenerateContent(ctx, genai.Text(prompt))
	if err != nil {
		return "", fmt.Errorf("gemini generate content failed: %w", err)
	}

	if resp == nil || len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil || len(resp.Candidates[0].Content.Parts) == 0 {
		return "", ErrEmptyCompletion
	}

	var responseText strings.Builder
	for _, part := range resp.Candidates[0].Content.Parts {
		if txt, ok := part.(genai.Text); ok {
			responseText.WriteString(string(txt))
		} else {
			logging.FromContext(ctx).Debug("Gemini response part was not text", zap.String("type", fmt.Sprintf("%T", part)))
		}
	}

	if responseText.Len() == 0 {
		return "", ErrEmptyCompletion
	}
	return responseText.String(), nil
}
