package cli

import (
	"context"
	"errors"

	"github.com/spf13/cobra"

	"github.com/akolanti/docsync/internal/config"
	"github.com/akolanti/docsync/internal/data/redisStore"
	"github.com/akolanti/docsync/internal/data/store"
	"github.com/akolanti/docsync/internal/domain/jobModel"
	"github.com/akolanti/docsync/internal/rag"
	"github.com/akolanti/docsync/internal/rag/embedding"
	"github.com/akolanti/docsync/internal/rag/ingest"
	"github.com/akolanti/docsync/internal/rag/llm"
	"github.com/akolanti/docsync/internal/rag/providers"
	"github.com/akolanti/docsync/internal/rag/vectorDB"
	"github.com/akolanti/docsync/internal/rag/vectorDB/open"
	"github.com/akolanti/docsync/internal/telemetry"
	"github.com/akolanti/docsync/pkg/logger_i"
)

var logger = logger_i.NewLogger("cli")

// Swapped in tests so commands run without network access.
var (
	newEmbedder = providers.NewEmbedder
	newLLM      = providers.NewLLM
	openStore   = func(ctx context.Context, cfg *config.Config) (vectorDB.CollectionStore, error) {
		return open.Open(ctx, open.FromConfig(cfg))
	}
	newRunStore = func(ctx context.Context, cfg *config.Config) jobModel.RunStore {
		return store.NewRunStore(ctx, redisOptions(cfg))
	}
)

// app holds what a command needs once config is resolved.
type app struct {
	cfg      *config.Config
	store    vectorDB.CollectionStore
	embedder embedding.Embedder
	llm      llm.Provider
	svc      rag.Service
	runs     jobModel.RunStore
	closers  []func()
}

func (a *app) Close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		a.closers[i]()
	}
}

func redisOptions(cfg *config.Config) redisStore.Options {
	return redisStore.Options{Addr: cfg.RedisAddr, Password: cfg.RedisPassword}
}

// loadConfig reads env and flags, validates, and sets up logging and telemetry.
func loadConfig(cmd *cobra.Command) (*config.Config, func(), error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, nil, err
	}
	applyFlags(cmd.Flags(), cfg)
	if err := cfg.Validate(); err != nil {
		return nil, nil, err
	}

	logger_i.Init(logger_i.Options{
		Level: logger_i.ParseLevel(cfg.LogLevel),
		JSON:  cfg.LogJSON,
		// stdout belongs to command output and the MCP transport
		Writer: cmd.ErrOrStderr(),
	})

	flush, err := telemetry.Init(telemetry.Config{
		DSN:         cfg.SentryDSN,
		Environment: cfg.Environment,
		Release:     cmd.Root().Version,
	})
	if err != nil {
		return nil, nil, err
	}
	return cfg, flush, nil
}

type needs struct {
	llm  bool
	runs bool
}

// newApp connects the store and providers a command asks for.
func newApp(ctx context.Context, cmd *cobra.Command, n needs) (*app, error) {
	cfg, flush, err := loadConfig(cmd)
	if err != nil {
		return nil, err
	}
	a := &app{cfg: cfg, closers: []func(){flush}}

	if a.embedder, err = newEmbedder(ctx, cfg); err != nil {
		a.Close()
		return nil, err
	}
	if n.llm {
		if a.llm, err = newLLM(ctx, cfg); err != nil {
			a.Close()
			return nil, err
		}
	} else {
		a.llm = unavailableLLM{}
	}

	if a.store, err = openStore(ctx, cfg); err != nil {
		a.Close()
		return nil, err
	}
	a.closers = append(a.closers, func() { _ = a.store.Close() })

	splitter, err := ingest.NewSplitter(cfg.ChunkSize, cfg.ChunkOverlap)
	if err != nil {
		a.Close()
		return nil, err
	}
	a.svc = rag.NewService(a.store, a.llm, a.embedder, rag.Options{
		Splitter:   splitter,
		QueryCount: cfg.QueryCount,
		TopK:       cfg.TopK,
	})

	if n.runs {
		a.runs = newRunStore(ctx, cfg)
	}
	return a, nil
}

var errNoLLM = errors.New("no language model configured for this command")

// unavailableLLM stands in for commands that never expand queries.
type unavailableLLM struct{}

func (unavailableLLM) Complete(context.Context, string) (string, error) {
	return "", errNoLLM
}
