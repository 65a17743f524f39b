package server_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/umg/product-catalog/config"
	"github.com/umg/product-catalog/internal/logger"
	"github.com/umg/product-catalog/internal/metrics"
	"github.com/umg/product-catalog/internal/product/handler"
	"github.com/umg/product-catalog/internal/product/repository"
	"github.com/umg/product-catalog/internal/product/usecase"
	"github.com/umg/product-catalog/internal/server"
)

func newServer(t *testing.T) (*server.Server, *observer.ObservedLogs) {
	t.Helper()
	core, logs := observer.New(zapcore.InfoLevel)
	log := logger.FromZap(zap.New(core))

	reg := prometheus.NewRegistry()
	repo := repository.NewMemoryRepository(log)
	uc := usecase.NewProductUseCase(repo, metrics.New(reg), log)
	h := handler.NewProductHandler(uc, log)

	return server.NewServer(&config.HTTPConfig{Addr: "127.0.0.1:0"}, h, reg, log), logs
}

func TestServer(t *testing.T) {
	t.Run("Metrics_ExposesOperationCounters", func(t *testing.T) {
		srv, _ := newServer(t)

		req := httptest.NewRequest(http.MethodPost, "/products", strings.NewReader(`{"id":1,"name":"Mouse","price":10,"active":"Y"}`))
		rec := httptest.NewRecorder()
		srv.Handler().ServeHTTP(rec, req)
		require.Equal(t, http.StatusCreated, rec.Code)

		rec = httptest.NewRecorder()
		srv.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
		require.Equal(t, http.StatusOK, rec.Code)
		body := rec.Body.String()
		require.Contains(t, body, `product_catalog_operations_total{operation="insert",outcome="ok"} 1`)
		require.Contains(t, body, `product_catalog_operations_total{operation="exists",outcome="ok"} 1`)
	})

	t.Run("RequestLogger_LogsEveryRequest", func(t *testing.T) {
		srv, logs := newServer(t)

		rec := httptest.NewRecorder()
		srv.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))
		require.Equal(t, http.StatusOK, rec.Code)

		entries := logs.FilterMessage("HTTP request").All()
		require.Len(t, entries, 1)
		fields := entries[0].ContextMap()
		require.Equal(t, "/health", fields["path"])
		require.EqualValues(t, http.StatusOK, fields["status"])
		require.NotEmpty(t, fields["request_id"])
	})

	t.Run("UnknownRoute_NotFound", func(t *testing.T) {
		srv, _ := newServer(t)
		rec := httptest.NewRecorder()
		srv.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/nope", nil))
		require.Equal(t, http.StatusNotFound, rec.Code)
	})

	t.Run("Shutdown_BeforeStart", func(t *testing.T) {
		srv, _ := newServer(t)
		require.NoError(t, srv.Shutdown(context.Background()))
	})
}
