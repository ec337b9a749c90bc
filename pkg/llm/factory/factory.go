package factory

import (
	"fmt"

	"nova-advisor-be/internal/config"
	"nova-advisor-be/pkg/llm"
	"nova-advisor-be/pkg/llm/azure"
	"nova-advisor-be/pkg/llm/ollama"
)

func NewLLMProvider(cfg config.AIConfig) (llm.LLMProvider, error) {
	switch cfg.Provider {
	case "azure", "":
		if cfg.AzureOpenAIEndpoint == "" || cfg.AzureOpenAIKey == "" {
			return nil, fmt.Errorf("azure provider requires AZURE_OPENAI_ENDPOINT and AZURE_OPENAI_KEY")
		}
		return azure.NewAzureProvider(
			cfg.AzureOpenAIEndpoint,
			cfg.AzureOpenAIKey,
			cfg.AzureOpenAIAPIVersion,
			cfg.ChatDeployment,
			cfg.EmbeddingDeployment,
		), nil
	case "ollama":
		baseURL := cfg.OllamaBaseURL
		if baseURL == "" {
			baseURL = "http://localhost:11434" // Default
		}
		return ollama.NewOllamaProvider(baseURL, cfg.OllamaModel, cfg.OllamaEmbeddingModel), nil
	default:
		return nil, fmt.Errorf("unsupported LLM provider: %s", cfg.Provider)
	}
}
