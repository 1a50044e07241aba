package cli

import (
	"fmt"
	"io"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/akolanti/docsync/internal/config"
	"github.com/akolanti/docsync/internal/domain/commonModels"
	"github.com/akolanti/docsync/internal/rag"
)

func QueryCmd() *cobra.Command {
	var (
		goal   string
		state  string
		asJSON bool
	)

	cmd := &cobra.Command{
		Use:   "query",
		Short: "Retrieve chunks relevant to a goal and state",
		Long: `Expands the goal and state into several search queries with the language
model, runs each against the collection and prints the merged, de-duplicated
chunks in first-seen order.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			a, err := newApp(ctx, cmd, needs{llm: true})
			if err != nil {
				return err
			}
			defer a.Close()

			result, err := a.svc.Query(ctx, rag.QueryRequest{
				Collection: a.cfg.Collection,
				Goal:       goal,
				State:      state,
			})
			if err != nil {
				return err
			}

			if asJSON {
				return writeJSON(cmd.OutOrStdout(), result)
			}
			printResult(cmd.OutOrStdout(), result)
			return nil
		},
	}

	cmd.Flags().StringVar(&goal, "goal", config.DefaultGoal, "what the agent is trying to do")
	cmd.Flags().StringVar(&state, "state", config.DefaultState, "current agent state")
	cmd.Flags().Int("k", 0, "results per generated query")
	cmd.Flags().Int("queries", 0, "number of generated queries")
	cmd.Flags().String("model", "", "language model used for query expansion")
	cmd.Flags().Float32("temperature", 0, "sampling temperature for query expansion")
	cmd.Flags().BoolVar(&asJSON, "json", false, "print the result as JSON")

	return cmd
}

func printResult(w io.Writer, r commonModels.QueryResult) {
	fmt.Fprintf(w, "%d unique chunks from %d queries\n", len(r.Matches), len(r.Queries))
	fmt.Fprintln(w, "\nqueries:")
	for i, q := range r.Queries {
		fmt.Fprintf(w, "  %d. %s\n", i+1, q)
	}
	for i, m := range r.Matches {
		source := m.Metadata[commonModels.MetaFilename]
		if path := m.Metadata[commonModels.MetaSource]; path != "" {
			source = filepath.Base(path)
		}
		if page := m.Metadata[commonModels.MetaPage]; page != "" {
			source += " p." + page
		}
		fmt.Fprintf(w, "\n[%d] %s (%s, score %.3f)\n%s\n", i+1, m.ID, source, m.Score, m.Text)
	}
}
