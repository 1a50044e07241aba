package openaiEmbedding

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/akolanti/docsync/internal/domain/commonModels"
)

type embeddingRequest struct {
	Input      []string `json:"input"`
	Model      string   `json:"model"`
	Dimensions int      `json:"dimensions"`
}

func newServer(t *testing.T, onRequest func(req embeddingRequest) (int, any)) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/embeddings", r.URL.Path)
		assert.Equal(t, "Bearer test-key", r.Header.Get("Authorization"))

		var req embeddingRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		status, body := onRequest(req)
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_ = json.NewEncoder(w).Encode(body)
	}))
	t.Cleanup(srv.Close)
	return srv
}

// reversed answers out of order to check that Index is honoured.
func reversed(req embeddingRequest) (int, any) {
	data := make([]map[string]any, 0, len(req.Input))
	for i := len(req.Input) - 1; i >= 0; i-- {
		data = append(data, map[string]any{
			"object":    "embedding",
			"index":     i,
			"embedding": []float64{float64(len(req.Input[i])), float64(i)},
		})
	}
	return http.StatusOK, map[string]any{
		"object": "list",
		"data":   data,
		"model":  req.Model,
		"usage":  map[string]any{"prompt_tokens": 1, "total_tokens": 1},
	}
}

func TestBatchEmbedding(t *testing.T) {
	var seen embeddingRequest
	srv := newServer(t, func(req embeddingRequest) (int, any) {
		seen = req
		return reversed(req)
	})
	emb, err := New(Options{APIKey: "test-key", BaseURL: srv.URL, Model: "text-embedding-ada-002", Dimension: 2})
	require.NoError(t, err)

	vectors, err := emb.BatchEmbedding(context.Background(), []string{"a", "bbb", "cc"})
	require.NoError(t, err)
	assert.Equal(t, [][]float32{{1, 0}, {3, 1}, {2, 2}}, vectors)
	assert.Equal(t, "text-embedding-ada-002", seen.Model)
	assert.Zero(t, seen.Dimensions, "ada-002 gets no dimensions parameter")
	assert.Equal(t, 2, emb.Dimension())
}

func TestGetEmbedding_SendsDimensionsForV3Models(t *testing.T) {
	var seen embeddingRequest
	srv := newServer(t, func(req embeddingRequest) (int, any) {
		seen = req
		return reversed(req)
	})
	emb, err := New(Options{APIKey: "test-key", BaseURL: srv.URL, Model: "text-embedding-3-small", Dimension: 256})
	require.NoError(t, err)

	vec, err := emb.GetEmbedding(context.Background(), "hello")
	require.NoError(t, err)
	assert.Equal(t, []float32{5, 0}, vec)
	assert.Equal(t, 256, seen.Dimensions)
}

func TestBatchEmbedding_ServiceError(t *testing.T) {
	srv := newServer(t, func(req embeddingRequest) (int, any) {
		return http.StatusBadRequest, map[string]any{"error": map[string]any{"message": "bad input", "type": "invalid_request_error"}}
	})
	emb, err := New(Options{APIKey: "test-key", BaseURL: srv.URL, Model: "text-embedding-ada-002"})
	require.NoError(t, err)

	_, err = emb.BatchEmbedding(context.Background(), []string{"x"})
	assert.True(t, errors.Is(err, commonModels.ErrService), "got %v", err)
}

func TestNew_RequiresKey(t *testing.T) {
	_, err := New(Options{Model: "text-embedding-ada-002"})
	assert.ErrorIs(t, err, commonModels.ErrService)
}
