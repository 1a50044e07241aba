// Package mcpserver exposes retrieval and sync as MCP tools over stdio.
package mcpserver

import (
	"context"
	"errors"
	"sync"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/akolanti/docsync/internal/domain/jobModel"
	"github.com/akolanti/docsync/internal/rag"
)

const Version = "0.1.0"

var ErrMissingService = errors.New("mcpserver: rag service is required")

// Defaults fill tool arguments the caller leaves empty.
type Defaults struct {
	SourceDir  string
	Collection string
	TopK       int
}

type Server struct {
	svc      rag.Service
	runs     jobModel.RunStore
	defaults Defaults
	server   *mcp.Server
	// syncMu keeps sync_knowledge calls from overlapping.
	syncMu sync.Mutex
}

// NewServer registers the tools. runs may be nil, in which case sync reports are not recorded.
func NewServer(svc rag.Service, runs jobModel.RunStore, defaults Defaults) (*Server, error) {
	if svc == nil {
		return nil, ErrMissingService
	}
	s := &Server{
		svc:      svc,
		runs:     runs,
		defaults: defaults,
		server:   mcp.NewServer(&mcp.Implementation{Name: "docsync", Version: Version}, nil),
	}
	s.registerTools()
	return s, nil
}

// Run serves over stdio until ctx is cancelled or the client disconnects.
func (s *Server) Run(ctx context.Context) error {
	return s.server.Run(ctx, &mcp.StdioTransport{})
}
