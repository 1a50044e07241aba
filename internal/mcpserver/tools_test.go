package mcpserver

import (
	"context"
	"errors"
	"testing"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/akolanti/docsync/internal/data/store"
	"github.com/akolanti/docsync/internal/domain/commonModels"
	"github.com/akolanti/docsync/internal/domain/jobModel"
	"github.com/akolanti/docsync/internal/rag"
	"github.com/akolanti/docsync/internal/rag/ingest"
)

type mockService struct {
	onQuery func(req rag.QueryRequest) (commonModels.QueryResult, error)
	onSync  func(req ingest.SyncRequest) (commonModels.SyncReport, error)
}

func (m *mockService) Sync(ctx context.Context, req ingest.SyncRequest) (commonModels.SyncReport, error) {
	return m.onSync(req)
}

func (m *mockService) Query(ctx context.Context, req rag.QueryRequest) (commonModels.QueryResult, error) {
	return m.onQuery(req)
}

func (m *mockService) ProcessSyncJob(ctx context.Context, j jobModel.Job) jobModel.Job  { return j }
func (m *mockService) ProcessQueryJob(ctx context.Context, j jobModel.Job) jobModel.Job { return j }

var defaults = Defaults{SourceDir: "./knowledge/original_src", Collection: "knowledge", TopK: 4}

func TestNewServer_RequiresService(t *testing.T) {
	_, err := NewServer(nil, nil, defaults)
	assert.ErrorIs(t, err, ErrMissingService)
}

func TestHandleSearch(t *testing.T) {
	ctx := context.Background()

	t.Run("fills defaults and maps chunks", func(t *testing.T) {
		var got rag.QueryRequest
		svc := &mockService{onQuery: func(req rag.QueryRequest) (commonModels.QueryResult, error) {
			got = req
			return commonModels.QueryResult{
				Queries: []string{"build a nether portal\n", "portal frame"},
				Matches: []commonModels.Match{{
					ID:       "portal_0",
					Text:     "needs obsidian",
					Metadata: commonModels.Metadata{commonModels.MetaFilename: "portal"},
					Score:    0.9,
				}},
			}, nil
		}}
		server, err := NewServer(svc, nil, defaults)
		require.NoError(t, err)

		_, output, err := server.handleSearch(ctx, nil, SearchInput{Goal: "build a nether portal"})
		require.NoError(t, err)

		assert.Equal(t, rag.QueryRequest{Collection: "knowledge", Goal: "build a nether portal", TopK: 4}, got)
		assert.Equal(t, 1, output.Count)
		assert.Len(t, output.Queries, 2)
		assert.Equal(t, ChunkOutput{ID: "portal_0", Filename: "portal", Score: 0.9, Content: "needs obsidian"}, output.Chunks[0])
	})

	t.Run("returns error on query failure", func(t *testing.T) {
		svc := &mockService{onQuery: func(rag.QueryRequest) (commonModels.QueryResult, error) {
			return commonModels.QueryResult{}, commonModels.ErrService
		}}
		server, err := NewServer(svc, nil, defaults)
		require.NoError(t, err)

		_, _, err = server.handleSearch(ctx, nil, SearchInput{Goal: "x"})
		assert.ErrorIs(t, err, commonModels.ErrService)
	})
}

func TestHandleSync(t *testing.T) {
	ctx := context.Background()

	t.Run("summarises and records the run", func(t *testing.T) {
		runs := store.InitInMemoryRunStore()
		svc := &mockService{onSync: func(req ingest.SyncRequest) (commonModels.SyncReport, error) {
			assert.Equal(t, defaults.SourceDir, req.SourceDir)
			return commonModels.SyncReport{
				RunID:      "run-1",
				Collection: req.Collection,
				Created:    true,
				Files: []commonModels.FileReport{
					{Outcome: commonModels.OutcomeIngested},
					{Outcome: commonModels.OutcomeUnchanged},
					{Outcome: commonModels.OutcomeSkipped},
				},
			}, nil
		}}
		server, err := NewServer(svc, runs, defaults)
		require.NoError(t, err)

		_, output, err := server.handleSync(ctx, nil, SyncInput{})
		require.NoError(t, err)
		assert.Equal(t, SyncOutput{RunID: "run-1", Created: true, Ingested: 1, Unchanged: 1, Skipped: 1}, output)

		latest, ok := runs.LatestRun(ctx, "knowledge")
		require.True(t, ok)
		assert.Equal(t, "run-1", latest.RunID)
	})

	t.Run("store failure still records the partial run", func(t *testing.T) {
		runs := store.InitInMemoryRunStore()
		svc := &mockService{onSync: func(req ingest.SyncRequest) (commonModels.SyncReport, error) {
			return commonModels.SyncReport{RunID: "run-2", Collection: req.Collection}, commonModels.StoreError("upsert", errors.New("disk full"))
		}}
		server, err := NewServer(svc, runs, defaults)
		require.NoError(t, err)

		_, _, err = server.handleSync(ctx, nil, SyncInput{Collection: "other"})
		assert.ErrorIs(t, err, commonModels.ErrStore)
		_, ok := runs.GetRun(ctx, "run-2")
		assert.True(t, ok)
	})
}

func TestServer_OverInMemoryTransport(t *testing.T) {
	ctx := context.Background()
	svc := &mockService{onQuery: func(req rag.QueryRequest) (commonModels.QueryResult, error) {
		return commonModels.QueryResult{Queries: []string{req.Goal}, Matches: []commonModels.Match{{ID: "a_0", Text: "alpha"}}}, nil
	}}
	server, err := NewServer(svc, nil, defaults)
	require.NoError(t, err)

	serverTransport, clientTransport := mcp.NewInMemoryTransports()
	serverSession, err := server.server.Connect(ctx, serverTransport, nil)
	require.NoError(t, err)
	defer serverSession.Close()

	client := mcp.NewClient(&mcp.Implementation{Name: "test-client", Version: "0.0.1"}, nil)
	session, err := client.Connect(ctx, clientTransport, nil)
	require.NoError(t, err)
	defer session.Close()

	tools, err := session.ListTools(ctx, nil)
	require.NoError(t, err)
	var names []string
	for _, tool := range tools.Tools {
		names = append(names, tool.Name)
	}
	assert.ElementsMatch(t, []string{"search_knowledge", "sync_knowledge"}, names)

	res, err := session.CallTool(ctx, &mcp.CallToolParams{
		Name:      "search_knowledge",
		Arguments: map[string]any{"goal": "mine diamonds"},
	})
	require.NoError(t, err)
	assert.False(t, res.IsError)
	require.NotEmpty(t, res.Content)
	text, ok := res.Content[0].(*mcp.TextContent)
	require.True(t, ok)
	assert.Contains(t, text.Text, "alpha")
}
