package gemini

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"google.golang.org/genai"

	"github.com/akolanti/docsync/internal/config"
	"github.com/akolanti/docsync/internal/domain/commonModels"
	"github.com/akolanti/docsync/internal/metrics"
	"github.com/akolanti/docsync/internal/rag/llm"
	"github.com/akolanti/docsync/pkg/logger_i"
)

var logger = logger_i.NewLogger("llm_gemini")

type Options struct {
	APIKey      string
	Model       string
	Temperature float32
	HTTPClient  *http.Client
	BaseURL     string
}

type llmClient struct {
	client      *genai.Client
	modelName   string
	temperature float32
}

var _ llm.Provider = (*llmClient)(nil)

func New(ctx context.Context, opts Options) (llm.Provider, error) {
	cc := &genai.ClientConfig{
		APIKey:     opts.APIKey,
		Backend:    genai.BackendGeminiAPI,
		HTTPClient: opts.HTTPClient,
	}
	if opts.BaseURL != "" {
		cc.HTTPOptions = genai.HTTPOptions{BaseURL: opts.BaseURL}
	}
	c, err := genai.NewClient(ctx, cc)
	if err != nil {
		return nil, commonModels.ServiceError("create gemini client", err)
	}
	logger.Info("Gemini client created", "model", opts.Model)
	return &llmClient{client: c, modelName: opts.Model, temperature: opts.Temperature}, nil
}

func (c *llmClient) Complete(ctx context.Context, prompt string) (string, error) {
	log := logger.WithTrace(ctx, config.TRACE_ID_KEY)

	t := time.Now()
	result, err := c.client.Models.GenerateContent(ctx, c.modelName, genai.Text(prompt), &genai.GenerateContentConfig{
		Temperature: genai.Ptr(c.temperature),
	})
	metrics.CaptureExecutionMetrics("llm_gemini", time.Since(t))
	if err != nil {
		log.Error("Gemini generate failed", "error", err)
		return "", commonModels.ServiceError("gemini generate", err)
	}
	if result == nil || len(result.Candidates) == 0 {
		return "", fmt.Errorf("%w: gemini returned no candidates", commonModels.ErrService)
	}
	return result.Text(), nil
}
