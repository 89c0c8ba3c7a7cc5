// Package server exposes the catalog linking workflow to the admin UI.
package server

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"airbnb-reconciler/services"
	"airbnb-reconciler/storage"
	"airbnb-reconciler/utils"
)

// Server is the admin API. Nothing reaches the catalog without an explicit
// confirm flag on the request.
type Server struct {
	catalog    storage.Catalog
	candidates storage.CandidateStore
	reconciler *services.Reconciler
	logger     *utils.Logger
	secret     []byte
}

func New(catalog storage.Catalog, candidates storage.CandidateStore, reconciler *services.Reconciler,
	logger *utils.Logger, secret []byte) *Server {
	return &Server{
		catalog:    catalog,
		candidates: candidates,
		reconciler: reconciler,
		logger:     logger,
		secret:     secret,
	}
}

// Router builds the gin engine with every route registered.
func (s *Server) Router() *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery(), requestLogger(s.logger))

	api := r.Group("/api/airbnb", AuthMiddleware(s.secret))
	api.GET("/candidates", s.listCandidates)
	api.GET("/sync", s.listProperties)
	api.POST("/sync", s.sync)

	return r
}

// Run serves on addr until ctx is done, then shuts down gracefully.
func (s *Server) Run(ctx context.Context, addr string) error {
	if len(s.secret) == 0 {
		return utils.ErrEmptySecret
	}

	srv := &http.Server{
		Addr:              addr,
		Handler:           s.Router(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("[api] Listening on %s", addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		s.logger.Info("[api] Shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	}
}
