package core

import (
	"context"
	"errors"
	"fmt"

	openai "github.com/sashabaranov/go-openai"
)

const defaultOpenAIModelName = "gpt-4o-mini"

// OpenAICompleter calls the OpenAI chat completion API with the prompt as a
// single user message.
type OpenAICompleter struct {
	client    *openai.Client
	modelName string
}

func NewOpenAICompleter(apiKey, modelName string) *OpenAICompleter {
	if modelName == "" {
		modelName = defaultOpenAIModelName
	}
	return &OpenAICompleter{
		client:    openai.NewClient(apiKey),
		modelName: modelName,
	}
}

// newOpenAICompleterWithConfig points the client at a custom base URL (tests).
func newOpenAICompleterWithConfig(cfg openai.ClientConfig, modelName string) *OpenAICompleter {
	return &OpenAICompleter{
		client:    openai.NewClientWithConfig(cfg),
		modelName: modelName,
	}
}

func (c *OpenAICompleter) Complete(ctx context.Context, prompt string) (string, error) {
	if c.client == nil {
		return "", errors.New("openai client not initialized")
	}

	resp, err := c.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: c.modelName,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleUser, Content: prompt},
		},
	})
	if err != nil {
		return "", fmt.Errorf("openai chat completion failed: %w", err)
	}
	if len(resp.Choices) == 0 || resp.Choices[0].Message.Content == "" {
		return "", ErrEmptyCompletion
	}
	return resp.Choices[0].Message.Content, nil
}
