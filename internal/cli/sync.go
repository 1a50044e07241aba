package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/akolanti/docsync/internal/domain/commonModels"
	"github.com/akolanti/docsync/internal/rag/ingest"
)

func SyncCmd() *cobra.Command {
	var watch bool

	cmd := &cobra.Command{
		Use:   "sync",
		Short: "Bring the collection in line with the source directory",
		Long: `Ingests new files, replaces changed ones and leaves unchanged ones alone.
Supported formats are .pdf, .docx and .txt; other files are skipped.

With --watch the command keeps running and syncs again whenever a supported
file in the source directory changes.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			a, err := newApp(ctx, cmd, needs{runs: true})
			if err != nil {
				return err
			}
			defer a.Close()

			req := ingest.SyncRequest{SourceDir: a.cfg.SourceDir, Collection: a.cfg.Collection}
			out := cmd.OutOrStdout()

			report, err := a.svc.Sync(ctx, req)
			a.recordRun(ctx, report)
			printReport(out, report)
			if err != nil {
				return fmt.Errorf("sync aborted: %w", err)
			}
			if !watch {
				return nil
			}

			splitter, err := ingest.NewSplitter(a.cfg.ChunkSize, a.cfg.ChunkOverlap)
			if err != nil {
				return err
			}
			w := ingest.NewWatcher(ingest.NewSynchronizer(a.store, a.embedder, splitter), func(r commonModels.SyncReport, err error) {
				a.recordRun(ctx, r)
				printReport(out, r)
				if err != nil {
					fmt.Fprintf(cmd.ErrOrStderr(), "sync failed: %v\n", err)
				}
			})
			return w.Watch(ctx, req)
		},
	}

	cmd.Flags().String("source", "", "directory holding the source documents")
	cmd.Flags().Int("chunk-size", 0, "chunk size in characters")
	cmd.Flags().Int("chunk-overlap", 0, "characters shared by consecutive chunks")
	cmd.Flags().BoolVar(&watch, "watch", false, "keep running and sync on file changes")

	return cmd
}

func (a *app) recordRun(ctx context.Context, report commonModels.SyncReport) {
	if a.runs == nil || report.RunID == "" {
		return
	}
	if err := a.runs.SaveRun(context.WithoutCancel(ctx), report); err != nil {
		logger.Warn("could not record sync run", "run", report.RunID, "error", err)
	}
}

func printReport(w io.Writer, r commonModels.SyncReport) {
	for _, f := range r.Files {
		name := filepath.Base(f.Path)
		switch f.Outcome {
		case commonModels.OutcomeIngested:
			fmt.Fprintf(w, "ingested   %s (%d chunks)\n", name, f.Chunks)
		case commonModels.OutcomeReplaced:
			fmt.Fprintf(w, "replaced   %s (%d removed, %d chunks)\n", name, f.Deleted, f.Chunks)
		case commonModels.OutcomeUnchanged:
			fmt.Fprintf(w, "unchanged  %s\n", name)
		case commonModels.OutcomeSkipped:
			fmt.Fprintf(w, "skipped    %s\n", name)
		case commonModels.OutcomeFailed:
			fmt.Fprintf(w, "failed     %s: %s\n", name, f.Err)
		}
	}
	created := ""
	if r.Created {
		created = " (new collection)"
	}
	fmt.Fprintf(w, "%s%s: %d ingested, %d replaced, %d unchanged, %d skipped, %d failed\n",
		r.Collection, created,
		r.Count(commonModels.OutcomeIngested),
		r.Count(commonModels.OutcomeReplaced),
		r.Count(commonModels.OutcomeUnchanged),
		r.Count(commonModels.OutcomeSkipped),
		r.Count(commonModels.OutcomeFailed),
	)
}
