// Package openai provides a unified client for OpenAI API access
// with support for both Azure OpenAI (primary) and OpenAI platform (fallback)
package openai

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"maildesk/internal/config"

	"github.com/kaptinlin/jsonrepair"
	"github.com/sashabaranov/go-openai"
)

// Client wraps the OpenAI client with Azure OpenAI support and fallback capability.
// It is constructed once and injected wherever completions are needed.
type Client struct {
	primary      *openai.Client
	fallback     *openai.Client
	useAzure     bool
	gptModel     string
	providerName string
	timeout      time.Duration
}

// NewClient creates a new OpenAI client with Azure as primary and OpenAI as fallback.
// Returns an error when no provider is configured; callers that can degrade to
// deterministic fallbacks should treat a nil client as "capability unavailable".
func NewClient(cfg *config.Config) (*Client, error) {
	client := &Client{
		timeout: time.Duration(cfg.OpenAITimeout) * time.Second,
	}

	// Try Azure OpenAI first (primary)
	if cfg.UseAzureOpenAI() {
		azureConfig := openai.DefaultAzureConfig(cfg.AzureOpenAIKey, cfg.AzureOpenAIEndpoint)
		client.primary = openai.NewClientWithConfig(azureConfig)
		client.useAzure = true
		client.gptModel = cfg.AzureOpenAIGPTDeployment
		client.providerName = "Azure OpenAI"

		fmt.Printf("[OPENAI_CLIENT] Primary provider: Azure OpenAI (endpoint: %s)\n", cfg.AzureOpenAIEndpoint)
	}

	// Setup OpenAI as fallback (or primary if Azure not configured)
	if cfg.HasOpenAIFallback() {
		client.fallback = openai.NewClient(cfg.OpenAIKey)

		if !client.useAzure {
			// Use OpenAI as primary since Azure is not configured
			client.primary = client.fallback
			client.fallback = nil
			client.gptModel = string(openai.GPT4oMini)
			client.providerName = "OpenAI"

			fmt.Printf("[OPENAI_CLIENT] Primary provider: OpenAI (Azure not configured)\n")
		} else {
			fmt.Printf("[OPENAI_CLIENT] Fallback provider: OpenAI\n")
		}
	}

	if client.primary == nil {
		return nil, fmt.Errorf("no OpenAI provider configured: set AZURE_OPENAI_ENDPOINT + AZURE_OPENAI_KEY or OPENAI_API_KEY")
	}

	return client, nil
}

// CompletionJSON runs a chat completion in JSON mode and returns the raw
// content of the first choice. The call is bounded by the configured timeout.
func (c *Client) CompletionJSON(ctx context.Context, systemPrompt, userPrompt string) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	req := openai.ChatCompletionRequest{
		Model: c.gptModel,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: systemPrompt},
			{Role: openai.ChatMessageRoleUser, Content: userPrompt},
		},
		Temperature: 0.3,
		ResponseFormat: &openai.ChatCompletionResponseFormat{
			Type: openai.ChatCompletionResponseFormatTypeJSONObject,
		},
	}

	resp, err := c.primary.CreateChatCompletion(ctx, req)
	if err != nil && c.fallback != nil {
		// Try fallback provider with OpenAI model name
		fmt.Printf("[OPENAI_CLIENT] Primary chat failed, trying fallback: %v\n", err)
		req.Model = string(openai.GPT4oMini)
		resp, err = c.fallback.CreateChatCompletion(ctx, req)
		if err != nil {
			return "", fmt.Errorf("both providers failed: %v", err)
		}
		fmt.Printf("[OPENAI_CLIENT] Fallback chat succeeded\n")
	} else if err != nil {
		return "", err
	}

	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("no choices in completion response")
	}

	return resp.Choices[0].Message.Content, nil
}

// DecodeJSON unmarshals model output into v, repairing malformed JSON first
// when a plain unmarshal fails. Models occasionally emit trailing commas,
// unquoted keys or fenced code blocks even in JSON mode.
func DecodeJSON(content string, v interface{}) error {
	if err := json.Unmarshal([]byte(content), v); err == nil {
		return nil
	}

	repaired, err := jsonrepair.JSONRepair(content)
	if err != nil {
		return fmt.Errorf("failed to repair model JSON: %w", err)
	}

	if err := json.Unmarshal([]byte(repaired), v); err != nil {
		return fmt.Errorf("failed to decode repaired model JSON: %w", err)
	}

	return nil
}

// GetProviderName returns the current primary provider name
func (c *Client) GetProviderName() string {
	return c.providerName
}

// IsUsingAzure returns true if Azure OpenAI is the primary provider
func (c *Client) IsUsingAzure() bool {
	return c.useAzure
}
