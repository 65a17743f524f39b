package server

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/pkg/errors"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/umg/product-catalog/config"
	"github.com/umg/product-catalog/internal/logger"
	"github.com/umg/product-catalog/internal/product/handler"
)

const readHeaderTimeout = 5 * time.Second

// Server is the HTTP front of the product facade.
type Server struct {
	router   *chi.Mux
	config   *config.HTTPConfig
	handler  *handler.ProductHandler
	gatherer prometheus.Gatherer
	logger   logger.ZapLogger
	http     *http.Server
}

func NewServer(
	cfg *config.HTTPConfig,
	h *handler.ProductHandler,
	gatherer prometheus.Gatherer,
	log logger.ZapLogger,
) *Server {
	s := &Server{
		router:   chi.NewRouter(),
		config:   cfg,
		handler:  h,
		gatherer: gatherer,
		logger:   log,
	}

	s.setupMiddleware()
	s.setupRoutes()

	s.http = &http.Server{
		Addr:              cfg.Addr,
		Handler:           s.router,
		ReadHeaderTimeout: readHeaderTimeout,
	}
	return s
}

func (s *Server) setupMiddleware() {
	s.router.Use(chimiddleware.RequestID)
	s.router.Use(RequestLogger(s.logger))
	s.router.Use(chimiddleware.Recoverer)
}

func (s *Server) setupRoutes() {
	s.handler.Register(s.router)
	s.router.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(s.gatherer, promhttp.HandlerOpts{}))
}

// Handler exposes the router, mainly for httptest.
func (s *Server) Handler() http.Handler {
	return s.router
}

// Start blocks until the server stops. A graceful Shutdown is not an error.
func (s *Server) Start() error {
	s.logger.Info("Starting HTTP server", zap.String("addr", s.config.Addr))
	if err := s.http.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return errors.Wrap(err, "listen and serve")
	}
	return nil
}

func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info("Shutting down HTTP server")
	return s.http.Shutdown(ctx)
}
