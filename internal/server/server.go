package server

import (
	"context"
	"errors"
	"net/http"
	"os"
	"sync"

	sentryhttp "github.com/getsentry/sentry-go/http"

	"github.com/akolanti/docsync/internal/adapter/utils"
	"github.com/akolanti/docsync/internal/config"
	"github.com/akolanti/docsync/internal/handlers"
	"github.com/akolanti/docsync/internal/middleware"
	"github.com/akolanti/docsync/pkg/logger_i"
)

var (
	server  *http.Server
	_logger = logger_i.NewLogger("server")
)

type ShutdownParams struct {
	GracefulShutdown chan os.Signal
	StopExecution    chan bool
	WorkerStop       chan bool
	Group            *sync.WaitGroup
	CloseServices    context.CancelFunc
}

// Routes builds the HTTP surface. /health and /metrics skip auth.
func Routes() http.Handler {
	r := utils.NewRouter()

	r.Router.Get("/health", handlers.GetHandler)
	r.Router.Post("/sync", middleware.SyncHandler)
	r.Router.Post("/query", middleware.QueryHandler)
	r.Router.Get("/status/{id}", middleware.GetStatusHandler)
	r.Router.Get("/runs", middleware.GetRunsHandler)

	return sentryhttp.New(sentryhttp.Options{Repanic: true}).Handle(r.Router)
}

func CreateServer(listenAddr string) {
	server = &http.Server{
		Addr:         listenAddr,
		Handler:      Routes(),
		ReadTimeout:  config.ReadTimeout,
		WriteTimeout: config.WriteTimeout,
		IdleTimeout:  config.IdleTimeout,
	}

	_logger.Info("Server is listening", "address", listenAddr)
	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		_logger.Error("Server crashed", "error", err, "addr", listenAddr)
	}
}

func ShutDownHandler(shutdownParams ShutdownParams) {
	state := <-shutdownParams.GracefulShutdown
	_logger.Info("Server is shutting down", "signal", state.String())

	ctx, cancel := context.WithTimeout(context.Background(), config.ShutdownContextTimeout)
	defer cancel()

	done := make(chan struct{})

	go func() {
		if server != nil {
			server.SetKeepAlivesEnabled(false)
			if err := server.Shutdown(ctx); err != nil {
				_logger.Error("Could not shutdown gracefully", "error", err)
			}
		}

		//close workers
		close(shutdownParams.WorkerStop)
		shutdownParams.Group.Wait()
		shutdownParams.CloseServices()
		close(shutdownParams.StopExecution)
		close(done)
	}()

	select {
	case <-done:
		_logger.Info("Shut down gracefully")
	case <-ctx.Done():
		_logger.Error("Forced shut down")
		os.Exit(1)
	}
}
