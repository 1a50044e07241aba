// Package providers builds the embedding and language model clients named by the config.
package providers

import (
	"context"
	"fmt"

	"github.com/akolanti/docsync/internal/config"
	"github.com/akolanti/docsync/internal/customHttpClient"
	"github.com/akolanti/docsync/internal/rag/embedding"
	"github.com/akolanti/docsync/internal/rag/embedding/googleEmbedding"
	"github.com/akolanti/docsync/internal/rag/embedding/openaiEmbedding"
	"github.com/akolanti/docsync/internal/rag/llm"
	"github.com/akolanti/docsync/internal/rag/llm/gemini"
	"github.com/akolanti/docsync/internal/rag/llm/openaiLLM"
)

func NewEmbedder(ctx context.Context, cfg *config.Config) (embedding.Embedder, error) {
	switch cfg.EmbeddingProvider {
	case config.ProviderOpenAI:
		return openaiEmbedding.New(openaiEmbedding.Options{
			APIKey:     cfg.OpenAIAPIKey,
			BaseURL:    cfg.OpenAIBaseURL,
			Model:      cfg.EmbeddingModel,
			Dimension:  cfg.EmbeddingDimension,
			HTTPClient: customHttpClient.GetClient(),
		})
	case config.ProviderGemini:
		return googleEmbedding.GetGoogleEmbeddingClient(ctx, googleEmbedding.Options{
			APIKey:     cfg.GeminiAPIKey,
			Model:      cfg.EmbeddingModel,
			Dimension:  cfg.EmbeddingDimension,
			HTTPClient: customHttpClient.GetClient(),
		})
	default:
		return nil, fmt.Errorf("unknown embedding provider %q", cfg.EmbeddingProvider)
	}
}

func NewLLM(ctx context.Context, cfg *config.Config) (llm.Provider, error) {
	switch cfg.LLMProvider {
	case config.ProviderOpenAI:
		return openaiLLM.New(openaiLLM.Options{
			APIKey:      cfg.OpenAIAPIKey,
			BaseURL:     cfg.OpenAIBaseURL,
			Model:       cfg.LLMModel,
			Temperature: cfg.Temperature,
			HTTPClient:  customHttpClient.GetClient(),
		})
	case config.ProviderGemini:
		return gemini.New(ctx, gemini.Options{
			APIKey:      cfg.GeminiAPIKey,
			Model:       cfg.LLMModel,
			Temperature: cfg.Temperature,
			HTTPClient:  customHttpClient.GetClient(),
		})
	default:
		return nil, fmt.Errorf("unknown llm provider %q", cfg.LLMProvider)
	}
}
