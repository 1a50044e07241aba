package cli

import (
	"context"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/akolanti/docsync/internal/config"
	"github.com/akolanti/docsync/internal/data/store"
	"github.com/akolanti/docsync/internal/handlers"
	"github.com/akolanti/docsync/internal/job"
	"github.com/akolanti/docsync/internal/middleware"
	"github.com/akolanti/docsync/internal/server"
	"github.com/akolanti/docsync/internal/worker"
)

func ServeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP job API",
		Long: `Serves POST /sync, POST /query, GET /status/{id} and GET /runs. Jobs are
queued and processed by a worker pool; syncs run one at a time.

Every route except /health and /metrics requires the bearer token from
DOCSYNC_AUTH_TOKEN unless DOCSYNC_NO_AUTH is set.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			serviceContext, closeExternalServices := context.WithCancel(cmd.Context())
			defer closeExternalServices()

			a, err := newApp(serviceContext, cmd, needs{llm: true, runs: true})
			if err != nil {
				return err
			}
			defer a.Close()
			if a.cfg.AuthToken == "" && !a.cfg.NoAuthBypass {
				logger.Warn("no auth token configured, every protected route will answer 401")
			}

			service := job.InitJobService(job.ServiceConfig{
				BufferLimit: config.BufferLimit,
				JobStore:    store.NewJobStore(serviceContext, redisOptions(a.cfg)),
				RunStore:    a.runs,
			})
			handlers.InitJobHandler(service, handlers.Defaults{
				SourceDir:  a.cfg.SourceDir,
				Collection: a.cfg.Collection,
				TopK:       a.cfg.TopK,
			})
			middleware.Init(a.cfg.AuthToken, a.cfg.NoAuthBypass)

			var workerWaitGroup sync.WaitGroup
			stopWorkerChannel := make(chan bool, 1)
			worker.InitServices(service, a.svc)
			worker.InitWorkerPool(stopWorkerChannel, &workerWaitGroup)

			gracefulShutdown := make(chan os.Signal, 1)
			signal.Notify(gracefulShutdown, syscall.SIGINT, syscall.SIGTERM)
			defer signal.Stop(gracefulShutdown)
			stopExecution := make(chan bool, 1)

			go server.ShutDownHandler(server.ShutdownParams{
				GracefulShutdown: gracefulShutdown,
				StopExecution:    stopExecution,
				WorkerStop:       stopWorkerChannel,
				Group:            &workerWaitGroup,
				CloseServices:    closeExternalServices,
			})
			go server.CreateServer(a.cfg.ListenAddr)

			<-stopExecution
			logger.Info("Server stopped")
			return nil
		},
	}

	cmd.Flags().String("listen", "", "listen address (default :3000)")

	return cmd
}
