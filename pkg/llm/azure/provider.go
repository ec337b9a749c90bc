package azure

import (
	"context"
	"errors"
	"fmt"

	"nova-advisor-be/pkg/llm"

	"github.com/sashabaranov/go-openai"
)

// AzureProvider talks to an Azure OpenAI resource. ChatDeployment and
// EmbeddingDeployment are deployment names, not model names.
type AzureProvider struct {
	ChatDeployment      string
	EmbeddingDeployment string
	Client              *openai.Client
}

// Ensure AzureProvider implements LLMProvider
var _ llm.LLMProvider = &AzureProvider{}

func NewAzureProvider(endpoint, apiKey, apiVersion, chatDeployment, embeddingDeployment string) *AzureProvider {
	cfg := openai.DefaultAzureConfig(apiKey, endpoint)
	if apiVersion != "" {
		cfg.APIVersion = apiVersion
	}

	return &AzureProvider{
		ChatDeployment:      chatDeployment,
		EmbeddingDeployment: embeddingDeployment,
		Client:              openai.NewClientWithConfig(cfg),
	}
}

func (p *AzureProvider) Chat(ctx context.Context, history []llm.Message, opts ...llm.Option) (string, error) {
	options := &llm.Options{
		Temperature: 1.0, // Default
	}
	for _, opt := range opts {
		opt(options)
	}

	messages := make([]openai.ChatCompletionMessage, len(history))
	for i, msg := range history {
		role := msg.Role
		if role == "model" {
			role = openai.ChatMessageRoleAssistant
		}
		messages[i] = openai.ChatCompletionMessage{
			Role:    role,
			Content: msg.Content,
		}
	}

	model := p.ChatDeployment
	if options.Model != "" {
		model = options.Model
	}

	req := openai.ChatCompletionRequest{
		Model:       model,
		Messages:    messages,
		Temperature: float32(options.Temperature),
	}
	if options.MaxTokens > 0 {
		req.MaxTokens = options.MaxTokens
	}

	rsp, err := p.Client.CreateChatCompletion(ctx, req)
	if err != nil {
		return "", fmt.Errorf("azure openai request failed: %w", err)
	}

	if len(rsp.Choices) == 0 {
		return "", errors.New("azure openai returned no choices")
	}

	return rsp.Choices[0].Message.Content, nil
}

func (p *AzureProvider) Generate(ctx context.Context, prompt string, opts ...llm.Option) (string, error) {
	// Reuse Chat for simplicity as most new LLMs are chat-optimized
	return p.Chat(ctx, []llm.Message{{Role: "user", Content: prompt}}, opts...)
}

func (p *AzureProvider) Embed(ctx context.Context, text string) ([]float32, error) {
	rsp, err := p.Client.CreateEmbeddings(ctx, openai.EmbeddingRequest{
		Model: openai.EmbeddingModel(p.EmbeddingDeployment),
		Input: []string{text},
	})
	if err != nil {
		return nil, fmt.Errorf("azure openai embedding failed: %w", err)
	}

	if len(rsp.Data) == 0 {
		return nil, errors.New("azure openai returned no embedding data")
	}

	return rsp.Data[0].Embedding, nil
}
