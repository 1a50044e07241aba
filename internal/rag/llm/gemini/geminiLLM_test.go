package gemini

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/akolanti/docsync/internal/domain/commonModels"
)

func TestComplete(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.True(t, strings.HasSuffix(r.URL.Path, ":generateContent"), r.URL.Path)
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"candidates":[{"content":{"role":"model","parts":[{"text":"alt one\nalt two"}]}}]}`))
	}))
	defer srv.Close()

	p, err := New(context.Background(), Options{APIKey: "k", Model: "gemini-2.5-flash-lite", BaseURL: srv.URL})
	require.NoError(t, err)
	out, err := p.Complete(context.Background(), "question")
	require.NoError(t, err)
	assert.Equal(t, "alt one\nalt two", out)
}

func TestComplete_ServiceError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = w.Write([]byte(`{"error":{"code":500,"message":"boom","status":"INTERNAL"}}`))
	}))
	defer srv.Close()

	p, err := New(context.Background(), Options{APIKey: "k", Model: "gemini-2.5-flash-lite", BaseURL: srv.URL})
	require.NoError(t, err)
	_, err = p.Complete(context.Background(), "question")
	assert.ErrorIs(t, err, commonModels.ErrService)
}
