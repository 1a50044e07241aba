package mcpserver

import (
	"context"
	"fmt"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/akolanti/docsync/internal/domain/commonModels"
	"github.com/akolanti/docsync/internal/rag"
	"github.com/akolanti/docsync/internal/rag/ingest"
	"github.com/akolanti/docsync/pkg/logger_i"
)

var logger = logger_i.NewLogger("mcp")

type SearchInput struct {
	Goal       string `json:"goal" jsonschema:"what the agent is trying to achieve"`
	State      string `json:"state,omitempty" jsonschema:"free-form snapshot of the agent's current situation"`
	K          int    `json:"k,omitempty" jsonschema:"results per expanded query (default 4)"`
	Collection string `json:"collection,omitempty" jsonschema:"collection to search (default from config)"`
}

type SearchOutput struct {
	Queries []string      `json:"queries"`
	Count   int           `json:"count"`
	Chunks  []ChunkOutput `json:"chunks"`
}

type ChunkOutput struct {
	ID       string  `json:"id"`
	Filename string  `json:"filename,omitempty"`
	Score    float32 `json:"score"`
	Content  string  `json:"content"`
}

type SyncInput struct {
	SourceDir  string `json:"source_dir,omitempty" jsonschema:"directory to sync (default from config)"`
	Collection string `json:"collection,omitempty" jsonschema:"target collection (default from config)"`
}

type SyncOutput struct {
	RunID     string `json:"run_id"`
	Created   bool   `json:"collection_created"`
	Ingested  int    `json:"ingested"`
	Replaced  int    `json:"replaced"`
	Unchanged int    `json:"unchanged"`
	Skipped   int    `json:"skipped"`
	Failed    int    `json:"failed"`
}

func (s *Server) registerTools() {
	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "search_knowledge",
		Description: "Expand a goal and state into several queries and return the unique matching knowledge chunks",
	}, s.handleSearch)

	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "sync_knowledge",
		Description: "Bring the knowledge collection in line with the files of the source directory",
	}, s.handleSync)
}

func (s *Server) handleSearch(ctx context.Context, _ *mcp.CallToolRequest, input SearchInput) (*mcp.CallToolResult, SearchOutput, error) {
	collection := input.Collection
	if collection == "" {
		collection = s.defaults.Collection
	}
	k := input.K
	if k <= 0 {
		k = s.defaults.TopK
	}

	result, err := s.svc.Query(ctx, rag.QueryRequest{
		Collection: collection,
		Goal:       input.Goal,
		State:      input.State,
		TopK:       k,
	})
	if err != nil {
		return nil, SearchOutput{}, err
	}

	output := SearchOutput{
		Queries: result.Queries,
		Count:   len(result.Matches),
		Chunks:  make([]ChunkOutput, len(result.Matches)),
	}
	for i, m := range result.Matches {
		output.Chunks[i] = ChunkOutput{
			ID:       m.ID,
			Filename: m.Metadata[commonModels.MetaFilename],
			Score:    m.Score,
			Content:  m.Text,
		}
	}
	return nil, output, nil
}

func (s *Server) handleSync(ctx context.Context, _ *mcp.CallToolRequest, input SyncInput) (*mcp.CallToolResult, SyncOutput, error) {
	req := ingest.SyncRequest{SourceDir: input.SourceDir, Collection: input.Collection}
	if req.SourceDir == "" {
		req.SourceDir = s.defaults.SourceDir
	}
	if req.Collection == "" {
		req.Collection = s.defaults.Collection
	}

	s.syncMu.Lock()
	report, err := s.svc.Sync(ctx, req)
	s.syncMu.Unlock()

	if s.runs != nil && report.RunID != "" {
		if saveErr := s.runs.SaveRun(ctx, report); saveErr != nil {
			logger.Warn("could not record sync report", "runId", report.RunID, "error", saveErr)
		}
	}
	if err != nil {
		return nil, SyncOutput{}, fmt.Errorf("sync %s: %w", req.SourceDir, err)
	}

	return nil, SyncOutput{
		RunID:     report.RunID,
		Created:   report.Created,
		Ingested:  report.Count(commonModels.OutcomeIngested),
		Replaced:  report.Count(commonModels.OutcomeReplaced),
		Unchanged: report.Count(commonModels.OutcomeUnchanged),
		Skipped:   report.Count(commonModels.OutcomeSkipped),
		Failed:    report.Count(commonModels.OutcomeFailed),
	}, nil
}
