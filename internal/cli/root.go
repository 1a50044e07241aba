// Package cli wires configuration, stores and services into the docsync commands.
package cli

import (
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/akolanti/docsync/internal/config"
)

// NewRootCmd builds the docsync command tree.
func NewRootCmd(version string) *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "docsync",
		Short: "Incremental document ingestion and multi-query retrieval",
		Long: `docsync keeps a vector collection in line with a directory of documents and
answers goal/state questions with multi-query retrieval.

Configuration is read from a .env file and DOCSYNC_* environment variables;
flags override both. API keys are read from OPENAI_API_KEY and GEMINI_API_KEY.`,
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	flags := rootCmd.PersistentFlags()
	flags.String("store", "", "store directory for file-backed backends")
	flags.String("backend", "", "store backend: sqlite, qdrant, chroma, pgvector or memory")
	flags.String("collection", "", "collection name")
	flags.String("log-level", "", "debug, info, warn or error")
	flags.Bool("log-json", false, "log as JSON")

	rootCmd.AddCommand(SyncCmd())
	rootCmd.AddCommand(QueryCmd())
	rootCmd.AddCommand(CrawlCmd())
	rootCmd.AddCommand(ServeCmd())
	rootCmd.AddCommand(MCPCmd())
	rootCmd.AddCommand(RunsCmd())

	return rootCmd
}

// applyFlags copies every flag the user set onto cfg.
func applyFlags(flags *pflag.FlagSet, cfg *config.Config) {
	str := func(name string, dst *string) {
		if flags.Changed(name) {
			*dst, _ = flags.GetString(name)
		}
	}
	num := func(name string, dst *int) {
		if flags.Changed(name) {
			*dst, _ = flags.GetInt(name)
		}
	}
	str("store", &cfg.StoreDir)
	str("backend", &cfg.Backend)
	str("collection", &cfg.Collection)
	str("log-level", &cfg.LogLevel)
	if flags.Changed("log-json") {
		cfg.LogJSON, _ = flags.GetBool("log-json")
	}

	str("source", &cfg.SourceDir)
	num("chunk-size", &cfg.ChunkSize)
	num("chunk-overlap", &cfg.ChunkOverlap)
	str("model", &cfg.LLMModel)
	num("k", &cfg.TopK)
	num("queries", &cfg.QueryCount)
	str("listen", &cfg.ListenAddr)
	if flags.Changed("temperature") {
		cfg.Temperature, _ = flags.GetFloat32("temperature")
	}
}
