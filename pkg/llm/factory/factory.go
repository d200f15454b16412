package factory

import (
	"fmt"

	"riverai-be/pkg/llm"
	"riverai-be/pkg/llm/ollama"
	"riverai-be/pkg/llm/openai"
)

func NewLLMProvider(providerType, modelName, baseURL, apiKey string) (llm.LLMProvider, error) {
	switch providerType {
	case "ollama":
		if baseURL == "" {
			baseURL = "http://localhost:11434" // Default
		}
		return ollama.NewOllamaProvider(baseURL, modelName), nil
	case "openai", "deepseek":
		return openai.NewOpenAIProvider(baseURL, apiKey, modelName), nil
	default:
		return nil, fmt.Errorf("unsupported LLM provider: %s", providerType)
	}
}
