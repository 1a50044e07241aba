package openaiLLM

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"

	"github.com/akolanti/docsync/internal/config"
	"github.com/akolanti/docsync/internal/domain/commonModels"
	"github.com/akolanti/docsync/internal/metrics"
	"github.com/akolanti/docsync/internal/rag/llm"
	"github.com/akolanti/docsync/pkg/logger_i"
)

var logger = logger_i.NewLogger("llm_openai")

type Options struct {
	APIKey      string
	BaseURL     string
	Model       string
	Temperature float32
	HTTPClient  *http.Client
	MaxRetries  int
}

type llmClient struct {
	api         openai.Client
	model       string
	temperature float32
}

var _ llm.Provider = (*llmClient)(nil)

func New(opts Options) (llm.Provider, error) {
	if opts.APIKey == "" {
		return nil, fmt.Errorf("%w: OPENAI_API_KEY is not set", commonModels.ErrService)
	}
	reqOpts := []option.RequestOption{option.WithAPIKey(opts.APIKey)}
	if opts.BaseURL != "" {
		reqOpts = append(reqOpts, option.WithBaseURL(opts.BaseURL))
	}
	if opts.HTTPClient != nil {
		reqOpts = append(reqOpts, option.WithHTTPClient(opts.HTTPClient))
	}
	if opts.MaxRetries > 0 {
		reqOpts = append(reqOpts, option.WithMaxRetries(opts.MaxRetries))
	}
	logger.Info("OpenAI chat client created", "model", opts.Model)
	return &llmClient{api: openai.NewClient(reqOpts...), model: opts.Model, temperature: opts.Temperature}, nil
}

func (c *llmClient) Complete(ctx context.Context, prompt string) (string, error) {
	log := logger.WithTrace(ctx, config.TRACE_ID_KEY)

	t := time.Now()
	resp, err := c.api.Chat.Completions.New(ctx, openai.ChatCompletionNewParams{
		Model:       openai.ChatModel(c.model),
		Messages:    []openai.ChatCompletionMessageParamUnion{openai.UserMessage(prompt)},
		Temperature: openai.Float(float64(c.temperature)),
	})
	metrics.CaptureExecutionMetrics("llm_openai", time.Since(t))
	if err != nil {
		log.Error("OpenAI completion failed", "error", err)
		return "", commonModels.ServiceError("openai chat completion", err)
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("%w: openai returned no choices", commonModels.ErrService)
	}
	return resp.Choices[0].Message.Content, nil
}
