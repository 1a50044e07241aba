package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/akolanti/docsync/internal/config"
	"github.com/akolanti/docsync/internal/domain/commonModels"
)

func RunsCmd() *cobra.Command {
	var (
		limit  int
		asJSON bool
	)

	cmd := &cobra.Command{
		Use:   "runs [run-id]",
		Short: "Show recent sync runs of the collection",
		Long: `Lists the most recent sync reports, newest first. With a run id the full
per-file report of that run is printed instead.

History lives in Redis when it is reachable and is otherwise kept only for
the lifetime of a serve or mcp process.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			cfg, flush, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			defer flush()
			runs := newRunStore(ctx, cfg)
			out := cmd.OutOrStdout()

			if len(args) == 1 {
				report, ok := runs.GetRun(ctx, args[0])
				if !ok {
					return fmt.Errorf("run %s not found", args[0])
				}
				if asJSON {
					return writeJSON(out, report)
				}
				printReport(out, report)
				return nil
			}

			reports, err := runs.ListRuns(ctx, cfg.Collection, limit)
			if err != nil {
				return err
			}
			if asJSON {
				return writeJSON(out, reports)
			}
			if len(reports) == 0 {
				fmt.Fprintf(out, "no sync runs recorded for %s\n", cfg.Collection)
				return nil
			}
			printRuns(out, reports)
			return nil
		},
	}

	cmd.Flags().IntVar(&limit, "limit", 10, fmt.Sprintf("number of runs to show (at most %d are kept)", config.RunHistoryLimit))
	cmd.Flags().BoolVar(&asJSON, "json", false, "print as JSON")

	return cmd
}

func printRuns(w io.Writer, reports []commonModels.SyncReport) {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "RUN\tSTARTED\tDURATION\tINGESTED\tREPLACED\tUNCHANGED\tFAILED\tERROR")
	for _, r := range reports {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%d\t%d\t%d\t%d\t%s\n",
			r.RunID,
			r.StartedAt.Local().Format(time.DateTime),
			r.FinishedAt.Sub(r.StartedAt).Round(time.Millisecond),
			r.Count(commonModels.OutcomeIngested),
			r.Count(commonModels.OutcomeReplaced),
			r.Count(commonModels.OutcomeUnchanged),
			r.Count(commonModels.OutcomeFailed),
			r.Err,
		)
	}
	_ = tw.Flush()
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
