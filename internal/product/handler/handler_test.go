package handler_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/require"

	"github.com/umg/product-catalog/internal/logger"
	"github.com/umg/product-catalog/internal/metrics"
	"github.com/umg/product-catalog/internal/model"
	"github.com/umg/product-catalog/internal/product"
	"github.com/umg/product-catalog/internal/product/dto"
	"github.com/umg/product-catalog/internal/product/handler"
	"github.com/umg/product-catalog/internal/product/repository"
	"github.com/umg/product-catalog/internal/product/usecase"
	"github.com/umg/product-catalog/internal/server/response"
)

// failingUseCase fails every call with err.
type failingUseCase struct {
	err error
}

func (f failingUseCase) ListAll(context.Context) ([]*model.Product, error) {
	return nil, f.err
}

func (f failingUseCase) Search(context.Context, string) ([]*model.Product, error) {
	return nil, f.err
}

func (f failingUseCase) Exists(context.Context, int64) (bool, error) {
	return false, f.err
}

func (f failingUseCase) Insert(context.Context, *model.Product) (bool, error) {
	return false, f.err
}

func (f failingUseCase) Update(context.Context, *model.Product) (bool, error) {
	return false, f.err
}

func (f failingUseCase) Delete(context.Context, int64) (bool, error) {
	return false, f.err
}

func (f failingUseCase) NextID(context.Context) (int64, error) {
	return 0, f.err
}

func (f failingUseCase) CheckStore(context.Context) error {
	return f.err
}

func newRouter(uc product.UseCase) http.Handler {
	r := chi.NewRouter()
	handler.NewProductHandler(uc, logger.NewNop()).Register(r)
	return r
}

func newMemoryRouter() http.Handler {
	repo := repository.NewMemoryRepository(logger.NewNop())
	return newRouter(usecase.NewProductUseCase(repo, metrics.NewNop(), logger.NewNop()))
}

func do(t *testing.T, h http.Handler, method, target, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var out T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out))
	return out
}

func TestProductHandler(t *testing.T) {
	t.Run("Create_ThenListAndSearch", func(t *testing.T) {
		h := newMemoryRouter()

		rec := do(t, h, http.MethodPost, "/products", `{"id":500,"name":" Monitor 32 pulgadas ","price":2500,"active":"Y"}`)
		require.Equal(t, http.StatusCreated, rec.Code)
		created := decode[dto.ProductResponse](t, rec)
		require.Equal(t, int64(500), created.ID)
		require.Equal(t, "Monitor 32 pulgadas", created.Name)
		require.Equal(t, "Active", created.Status)

		rec = do(t, h, http.MethodGet, "/products?q=monitor", "")
		require.Equal(t, http.StatusOK, rec.Code)
		found := decode[[]dto.ProductResponse](t, rec)
		require.Len(t, found, 1)
		require.Equal(t, 2500.0, found[0].Price)

		rec = do(t, h, http.MethodGet, "/products", "")
		require.Equal(t, http.StatusOK, rec.Code)
		require.Len(t, decode[[]dto.ProductResponse](t, rec), 1)
	})

	t.Run("Create_WithoutIDUsesNextID", func(t *testing.T) {
		h := newMemoryRouter()

		rec := do(t, h, http.MethodGet, "/products/next-id", "")
		require.Equal(t, http.StatusOK, rec.Code)
		require.Equal(t, int64(1), decode[dto.NextIDResponse](t, rec).NextID)

		rec = do(t, h, http.MethodPost, "/products", `{"id":7,"name":"Seven","price":7,"active":"N"}`)
		require.Equal(t, http.StatusCreated, rec.Code)

		rec = do(t, h, http.MethodPost, "/products", `{"name":"Eight","price":8,"active":"Y"}`)
		require.Equal(t, http.StatusCreated, rec.Code)
		require.Equal(t, int64(8), decode[dto.ProductResponse](t, rec).ID)
	})

	t.Run("Create_DuplicateIsConflict", func(t *testing.T) {
		h := newMemoryRouter()
		body := `{"id":3,"name":"Cable","price":5,"active":"Y"}`
		require.Equal(t, http.StatusCreated, do(t, h, http.MethodPost, "/products", body).Code)

		rec := do(t, h, http.MethodPost, "/products", `{"id":3,"name":"Other","price":1,"active":"N"}`)
		require.Equal(t, http.StatusConflict, rec.Code)
		errResp := decode[response.ErrorResponse](t, rec)
		require.Equal(t, "conflict", errResp.Error)
		require.Equal(t, model.FieldID, errResp.Field)

		rec = do(t, h, http.MethodGet, "/products?q=cable", "")
		require.Len(t, decode[[]dto.ProductResponse](t, rec), 1)
	})

	t.Run("Create_InvalidInputIsBadRequest", func(t *testing.T) {
		h := newMemoryRouter()
		cases := map[string]string{
			`{"id":1,"name":"  ","price":1,"active":"Y"}`: model.FieldName,
			`{"id":1,"name":"x","price":-1,"active":"Y"}`: model.FieldPrice,
			`{"id":1,"name":"x","active":"Y"}`:            model.FieldPrice,
			`{"id":1,"name":"x","price":1,"active":"y"}`:  model.FieldActive,
			`{"id":-4,"name":"x","price":1,"active":"Y"}`: model.FieldID,
		}
		for body, field := range cases {
			rec := do(t, h, http.MethodPost, "/products", body)
			require.Equal(t, http.StatusBadRequest, rec.Code, body)
			require.Equal(t, field, decode[response.ErrorResponse](t, rec).Field, body)
		}

		rec := do(t, h, http.MethodPost, "/products", `{not json`)
		require.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("Update_ExistingAndMissing", func(t *testing.T) {
		h := newMemoryRouter()
		require.Equal(t, http.StatusCreated,
			do(t, h, http.MethodPost, "/products", `{"id":9,"name":"Mouse","price":25,"active":"Y"}`).Code)

		rec := do(t, h, http.MethodPut, "/products/9", `{"name":"Mouse gamer","price":45.5,"active":"N"}`)
		require.Equal(t, http.StatusOK, rec.Code)
		updated := decode[dto.ProductResponse](t, rec)
		require.Equal(t, "Mouse gamer", updated.Name)
		require.Equal(t, "Inactive", updated.Status)

		rec = do(t, h, http.MethodPut, "/products/10", `{"name":"Nothing","price":1,"active":"N"}`)
		require.Equal(t, http.StatusNotFound, rec.Code)

		rec = do(t, h, http.MethodPut, "/products/9", `{"id":10,"name":"Mouse","price":1,"active":"N"}`)
		require.Equal(t, http.StatusBadRequest, rec.Code)
		require.Equal(t, model.FieldID, decode[response.ErrorResponse](t, rec).Field)

		rec = do(t, h, http.MethodPut, "/products/abc", `{"name":"Mouse","price":1,"active":"N"}`)
		require.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("Delete_SecondCallIsNotFound", func(t *testing.T) {
		h := newMemoryRouter()
		require.Equal(t, http.StatusCreated,
			do(t, h, http.MethodPost, "/products", `{"id":500,"name":"Monitor","price":2500,"active":"Y"}`).Code)

		rec := do(t, h, http.MethodGet, "/products/500/exists", "")
		require.Equal(t, http.StatusOK, rec.Code)
		require.True(t, decode[dto.ExistsResponse](t, rec).Exists)

		require.Equal(t, http.StatusNoContent, do(t, h, http.MethodDelete, "/products/500", "").Code)
		require.Equal(t, http.StatusNotFound, do(t, h, http.MethodDelete, "/products/500", "").Code)

		rec = do(t, h, http.MethodGet, "/products/500/exists", "")
		require.False(t, decode[dto.ExistsResponse](t, rec).Exists)

		rec = do(t, h, http.MethodDelete, "/products/0", "")
		require.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("Health_Memory", func(t *testing.T) {
		rec := do(t, newMemoryRouter(), http.MethodGet, "/health", "")
		require.Equal(t, http.StatusOK, rec.Code)
		require.Equal(t, "ok", decode[dto.HealthResponse](t, rec).Status)
	})

	t.Run("StoreErrors_MapToStatus", func(t *testing.T) {
		connectivity := &product.PersistenceError{Op: "find_all", Err: errors.New("dial tcp"), Connectivity: true}
		h := newRouter(failingUseCase{err: connectivity})
		require.Equal(t, http.StatusServiceUnavailable, do(t, h, http.MethodGet, "/products", "").Code)
		require.Equal(t, http.StatusServiceUnavailable, do(t, h, http.MethodGet, "/health", "").Code)

		invalidRow := &product.PersistenceError{
			Op:  "find_all",
			Err: errors.Wrap(&model.ValidationError{Field: model.FieldActive, Reason: "bad"}, "row with product_id 4"),
		}
		h = newRouter(failingUseCase{err: invalidRow})
		rec := do(t, h, http.MethodGet, "/products", "")
		require.Equal(t, http.StatusInternalServerError, rec.Code)
		require.Empty(t, decode[response.ErrorResponse](t, rec).Field)
	})
}
