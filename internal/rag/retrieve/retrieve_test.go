package retrieve

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/akolanti/docsync/internal/domain/commonModels"
	"github.com/akolanti/docsync/internal/rag/vectorDB/memoryDB"
)

type mockLLM struct {
	OnComplete func(ctx context.Context, prompt string) (string, error)
	prompts    []string
}

func (m *mockLLM) Complete(ctx context.Context, prompt string) (string, error) {
	m.prompts = append(m.prompts, prompt)
	return m.OnComplete(ctx, prompt)
}

type mockEmbedder struct {
	OnEmbed func(text string) ([]float32, error)
}

func (m *mockEmbedder) GetEmbedding(ctx context.Context, text string) ([]float32, error) {
	return m.OnEmbed(text)
}

func (m *mockEmbedder) BatchEmbedding(ctx context.Context, texts []string) ([][]float32, error) {
	return nil, errors.New("not used")
}

func (m *mockEmbedder) Dimension() int { return 2 }

// mockStore answers each query vector with a fixed list of matches.
type mockStore struct {
	*memoryDB.Storage
	OnSearch func(query []float32, k int) ([]commonModels.Match, error)
}

func (m *mockStore) SimilaritySearch(ctx context.Context, collection string, query []float32, k int) ([]commonModels.Match, error) {
	return m.OnSearch(query, k)
}

func TestExpand(t *testing.T) {
	tests := []struct {
		name   string
		output string
		want   []string
	}{
		{
			name:   "plain lines",
			output: "How do I make a nether portal?\nWhat blocks does a nether portal need?\nNether portal with oak logs",
			want:   []string{"How do I make a nether portal?", "What blocks does a nether portal need?", "Nether portal with oak logs"},
		},
		{
			name:   "list markers and blanks",
			output: "1. First version\n\n- Second version\n  * Third version  \n",
			want:   []string{"First version", "Second version", "Third version"},
		},
		{
			name:   "duplicates ignore case",
			output: "Portal recipe\nportal   RECIPE\nObsidian source",
			want:   []string{"Portal recipe", "Obsidian source"},
		},
		{
			name:   "empty output keeps the original",
			output: "\n  \n",
			want:   nil,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			llm := &mockLLM{OnComplete: func(ctx context.Context, prompt string) (string, error) {
				return tt.output, nil
			}}
			got, err := NewExpander(llm, 3).Expand(context.Background(), "build a nether portal", "INVENTORY\n- oak_log: 7")
			require.NoError(t, err)

			want := append([]string{"build a nether portal\nINVENTORY\n- oak_log: 7"}, tt.want...)
			assert.Equal(t, want, got)
			require.Len(t, llm.prompts, 1)
			assert.Contains(t, llm.prompts[0], "generate 3 different versions")
			assert.True(t, strings.HasSuffix(llm.prompts[0], "Original question: build a nether portal\nINVENTORY\n- oak_log: 7"))
		})
	}
}

func TestExpand_Errors(t *testing.T) {
	failing := &mockLLM{OnComplete: func(ctx context.Context, prompt string) (string, error) {
		return "", errors.New("timeout")
	}}
	_, err := NewExpander(failing, 3).Expand(context.Background(), "goal", "")
	assert.ErrorIs(t, err, commonModels.ErrService)

	_, err = NewExpander(failing, 3).Expand(context.Background(), "  ", "\n")
	assert.ErrorIs(t, err, commonModels.ErrEmptyInput)
	assert.Len(t, failing.prompts, 1, "empty input never reaches the model")
}

func matchesFor(ids ...int) []commonModels.Match {
	out := make([]commonModels.Match, len(ids))
	for i, id := range ids {
		out[i] = commonModels.Match{ID: fmt.Sprintf("doc_%d", id), Text: fmt.Sprintf("text %d", id)}
	}
	return out
}

func TestRetrieve_Dedup(t *testing.T) {
	// three queries, five hits each, two overlaps
	answers := map[float32][]commonModels.Match{
		0: matchesFor(1, 2, 3, 4, 5),
		1: matchesFor(5, 6, 7, 8, 9),
		2: matchesFor(9, 10, 11, 12, 13),
	}
	store := &mockStore{Storage: memoryDB.NewStorage(), OnSearch: func(q []float32, k int) ([]commonModels.Match, error) {
		assert.Equal(t, 5, k)
		return answers[q[0]], nil
	}}
	queries := []string{"q0", "q1", "q2"}
	emb := &mockEmbedder{OnEmbed: func(text string) ([]float32, error) {
		for i, q := range queries {
			if q == text {
				return []float32{float32(i), 0}, nil
			}
		}
		return nil, errors.New("unknown query")
	}}

	got, err := NewAggregator(store, emb, 5).Retrieve(context.Background(), "knowledge", queries)
	require.NoError(t, err)
	require.Len(t, got, 13)

	seen := map[string]bool{}
	for i, m := range got {
		assert.False(t, seen[m.ID], "duplicate %s", m.ID)
		seen[m.ID] = true
		assert.Equal(t, fmt.Sprintf("doc_%d", i+1), m.ID, "first-seen order")
	}
}

func TestRetrieve_TextFallbackKey(t *testing.T) {
	store := &mockStore{Storage: memoryDB.NewStorage(), OnSearch: func(q []float32, k int) ([]commonModels.Match, error) {
		return []commonModels.Match{{Text: "same  text"}, {Text: " same text "}, {Text: "other"}}, nil
	}}
	emb := &mockEmbedder{OnEmbed: func(string) ([]float32, error) { return []float32{1, 0}, nil }}

	got, err := NewAggregator(store, emb, 0).Retrieve(context.Background(), "knowledge", []string{"a", "b"})
	require.NoError(t, err)
	assert.Len(t, got, 2)
}

func TestRetrieve_Errors(t *testing.T) {
	okStore := &mockStore{Storage: memoryDB.NewStorage(), OnSearch: func([]float32, int) ([]commonModels.Match, error) {
		return matchesFor(1), nil
	}}
	badEmb := &mockEmbedder{OnEmbed: func(string) ([]float32, error) { return nil, errors.New("429") }}
	_, err := NewAggregator(okStore, badEmb, 4).Retrieve(context.Background(), "knowledge", []string{"a"})
	assert.ErrorIs(t, err, commonModels.ErrService)

	badStore := &mockStore{Storage: memoryDB.NewStorage(), OnSearch: func([]float32, int) ([]commonModels.Match, error) {
		return nil, errors.New("connection reset")
	}}
	okEmb := &mockEmbedder{OnEmbed: func(string) ([]float32, error) { return []float32{1}, nil }}
	_, err = NewAggregator(badStore, okEmb, 4).Retrieve(context.Background(), "knowledge", []string{"a"})
	assert.ErrorIs(t, err, commonModels.ErrStore)
}
