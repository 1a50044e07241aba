package googleEmbedding

import (
	"context"
	"fmt"
	"net/http"
	"sync"
	"time"

	"google.golang.org/genai"

	"github.com/akolanti/docsync/internal/config"
	"github.com/akolanti/docsync/internal/domain/commonModels"
	"github.com/akolanti/docsync/internal/rag/embedding"
	"github.com/akolanti/docsync/pkg/logger_i"
)

var logger = logger_i.NewLogger("google_embedding")
var once sync.Once
var embeddingClient *client
var initErr error

// retryDelay is a var so tests can shorten it.
var retryDelay = 5 * time.Second

type Options struct {
	APIKey     string
	Model      string
	Dimension  int
	HTTPClient *http.Client
	// BaseURL overrides the Gemini endpoint, used by tests.
	BaseURL string
}

type client struct {
	genAi     *genai.Client
	model     string
	dimension int32
}

func newGoogleEmbedder(ctx context.Context, opts Options) (*client, error) {
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
		return nil, commonModels.ServiceError("create google embedding client", err)
	}
	logger.Info("Google Embedding client created", "model", opts.Model)
	return &client{genAi: c, model: opts.Model, dimension: int32(opts.Dimension)}, nil
}

func closeClient(ctx context.Context) {
	<-ctx.Done()
	logger.Info("Closing Google Embedding client")
}

// GetGoogleEmbeddingClient builds the process-wide client once.
func GetGoogleEmbeddingClient(ctx context.Context, opts Options) (embedding.Embedder, error) {
	once.Do(func() {
		embeddingClient, initErr = newGoogleEmbedder(ctx, opts)
		if initErr == nil {
			go closeClient(ctx)
		}
	})
	if initErr != nil {
		return nil, initErr
	}
	return embeddingClient, nil
}

// New builds an unshared client.
func New(ctx context.Context, opts Options) (embedding.Embedder, error) {
	c, err := newGoogleEmbedder(ctx, opts)
	if err != nil {
		return nil, err
	}
	return c, nil
}

func (c *client) Dimension() int {
	return int(c.dimension)
}

func (c *client) GetEmbedding(ctx context.Context, text string) ([]float32, error) {
	res, err := c.doCall(ctx, getContent([]string{text}), "RETRIEVAL_QUERY")
	if err != nil {
		return nil, commonModels.ServiceError("google embed query", err)
	}
	if len(res.Embeddings) == 0 || res.Embeddings[0] == nil {
		return nil, fmt.Errorf("%w: google returned no embedding", commonModels.ErrService)
	}
	return res.Embeddings[0].Values, nil
}

func (c *client) BatchEmbedding(ctx context.Context, texts []string) ([][]float32, error) {
	log := logger.WithTrace(ctx, config.TRACE_ID_KEY)
	if len(texts) == 0 {
		return nil, nil
	}

	res, err := c.doCall(ctx, getContent(texts), "RETRIEVAL_DOCUMENT")
	if err != nil && doRetry(err, log) {
		log.Debug("Retrying after rate limit", "delay", retryDelay)
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(retryDelay):
		}
		res, err = c.doCall(ctx, getContent(texts), "RETRIEVAL_DOCUMENT")
	}
	if err != nil {
		log.Error("Error getting Embeddings from Google", "error", err)
		return nil, commonModels.ServiceError("google embed batch", err)
	}

	vectors := vectorsFrom(res)
	if len(vectors) != len(texts) {
		return nil, fmt.Errorf("%w: google returned %d embeddings for %d texts", commonModels.ErrService, len(vectors), len(texts))
	}
	return vectors, nil
}

func (c *client) doCall(ctx context.Context, content []*genai.Content, task string) (*genai.EmbedContentResponse, error) {
	conf := &genai.EmbedContentConfig{TaskType: task}
	if c.dimension > 0 {
		conf.OutputDimensionality = &c.dimension
	}
	return c.genAi.Models.EmbedContent(ctx, c.model, content, conf)
}
