package api

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/docsearch/documenter-mcp/internal/api/middleware"
	"github.com/emicklei/go-restful/v3"
	"github.com/rs/cors"
	"github.com/rs/zerolog"
)

const shutdownTimeout = 10 * time.Second

// NewContainer wires the filters and routes
func NewContainer(handler *Handler, logger *zerolog.Logger) *restful.Container {
	container := restful.NewContainer()
	container.Filter(middleware.Logger(logger))
	container.Filter(middleware.RecoverPanic(logger))
	RegisterRoutes(container, handler)
	return container
}

// NewHTTPHandler wraps the container with CORS
func NewHTTPHandler(container *restful.Container) http.Handler {
	corsHandler := cors.New(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders: []string{"*"},
	})
	return corsHandler.Handler(container)
}

// Serve runs the API on addr until ctx is cancelled, then shuts down gracefully
func Serve(ctx context.Context, addr string, handler http.Handler, logger *zerolog.Logger) error {
	server := &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info().Str("address", addr).Msg("Starting documentation API")
		errCh <- server.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	logger.Info().Msg("Shutting down documentation API...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		return err
	}
	if err := <-errCh; !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
