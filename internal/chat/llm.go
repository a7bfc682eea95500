package chat

import (
	"context"
	"fmt"

	"github.com/sashabaranov/go-openai"

	"cryptodesk/internal/models"
)

// LLMClient abstracts the chat-completion backend.
type LLMClient interface {
	Chat(ctx context.Context, systemPrompt string, history []models.ChatMessage, userPrompt string) (string, error)
}

// OpenAIClient implements LLMClient using the OpenAI-compatible API.
// A custom base URL points it at alternative providers.
type OpenAIClient struct {
	client *openai.Client
	model  string
}

// NewOpenAIClient creates a new LLM client. baseURL may be empty for the
// default OpenAI endpoint.
func NewOpenAIClient(apiKey, baseURL, model string) *OpenAIClient {
	cfg := openai.DefaultConfig(apiKey)
	if baseURL != "" {
		cfg.BaseURL = baseURL
	}
	return &OpenAIClient{
		client: openai.NewClientWithConfig(cfg),
		model:  model,
	}
}

// Chat sends the system prompt, prior thread messages and the new user
// prompt to the model and returns its response.
func (c *OpenAIClient) Chat(ctx context.Context, systemPrompt string, history []models.ChatMessage, userPrompt string) (string, error) {
	messages := make([]openai.ChatCompletionMessage, 0, len(history)+2)
	messages = append(messages, openai.ChatCompletionMessage{
		Role: openai.ChatMessageRoleSystem, Content: systemPrompt,
	})
	for _, m := range history {
		role := openai.ChatMessageRoleUser
		if m.Role == "assistant" {
			role = openai.ChatMessageRoleAssistant
		}
		messages = append(messages, openai.ChatCompletionMessage{Role: role, Content: m.Content})
	}
	messages = append(messages, openai.ChatCompletionMessage{
		Role: openai.ChatMessageRoleUser, Content: userPrompt,
	})

	resp, err := c.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:    c.model,
		Messages: messages,
	})
	if err != nil {
		return "", fmt.Errorf("chat completion failed: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("no response from llm")
	}
	return resp.Choices[0].Message.Content, nil
}
