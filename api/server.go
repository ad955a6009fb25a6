package api

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/pkg/errors"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/icook/tiny-ballot/identity"
	"github.com/icook/tiny-ballot/service"
)

const shutdownTimeout = 5 * time.Second

type APIConfig struct {
	APIEndpoint string
	Metrics     bool
}

// Server wires the ledger registry and identity source into gin routes.
type Server struct {
	registry *service.Registry
	identity identity.Source
	log      *zap.Logger
}

func NewServer(registry *service.Registry, source identity.Source, log *zap.Logger) *Server {
	if log == nil {
		log = zap.NewNop()
	}
	return &Server{registry: registry, identity: source, log: log}
}

// Handler builds the router without starting a listener.
func (s *Server) Handler(cfg APIConfig) http.Handler {
	r := gin.New()
	r.Use(requestLogger(s.log), gin.Recovery())
	registerRoutes(r, s, cfg.Metrics)
	return r
}

// Serve listens on cfg.APIEndpoint until ctx is cancelled, then shuts down
// gracefully.
func (s *Server) Serve(ctx context.Context, cfg APIConfig) error {
	srv := &http.Server{
		Addr:    cfg.APIEndpoint,
		Handler: s.Handler(cfg),
	}

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		s.log.Info("api listening", zap.String("endpoint", cfg.APIEndpoint))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			return errors.Wrap(err, "api server")
		}
		return nil
	})
	g.Go(func() error {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		s.log.Info("api shutting down")
		return srv.Shutdown(shutdownCtx)
	})
	return g.Wait()
}

func requestLogger(log *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		log.Debug("request",
			zap.String("method", c.Request.Method),
			zap.String("path", c.FullPath()),
			zap.Int("status", c.Writer.Status()),
			zap.Duration("took", time.Since(start)),
		)
	}
}
