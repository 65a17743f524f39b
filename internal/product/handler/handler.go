package handler

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/pkg/errors"
	"go.uber.org/zap"

	"github.com/umg/product-catalog/internal/logger"
	"github.com/umg/product-catalog/internal/model"
	"github.com/umg/product-catalog/internal/product"
	"github.com/umg/product-catalog/internal/product/dto"
	"github.com/umg/product-catalog/internal/server/response"
)

var errProductNotFound = errors.New("product not found")

// ErrIDMismatch is returned when a body id disagrees with the path id.
var ErrIDMismatch = errors.New("body id does not match path id")

type ProductHandler struct {
	uc     product.UseCase
	logger logger.ZapLogger
}

func NewProductHandler(uc product.UseCase, log logger.ZapLogger) *ProductHandler {
	return &ProductHandler{
		uc:     uc,
		logger: log,
	}
}

// Register mounts the product routes on r.
func (h *ProductHandler) Register(r chi.Router) {
	r.Route("/products", func(r chi.Router) {
		r.Get("/", h.ListProducts)
		r.Post("/", h.CreateProduct)
		r.Get("/next-id", h.NextID)
		r.Get("/{id}/exists", h.Exists)
		r.Put("/{id}", h.UpdateProduct)
		r.Delete("/{id}", h.DeleteProduct)
	})
	r.Get("/health", h.Health)
}

// ListProducts handles GET /products?q=term. A blank term lists everything.
func (h *ProductHandler) ListProducts(w http.ResponseWriter, r *http.Request) {
	products, err := h.uc.Search(r.Context(), r.URL.Query().Get("q"))
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	response.JSON(w, http.StatusOK, dto.ToProductResponseList(products))
}

// NextID handles GET /products/next-id.
func (h *ProductHandler) NextID(w http.ResponseWriter, r *http.Request) {
	next, err := h.uc.NextID(r.Context())
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	response.JSON(w, http.StatusOK, dto.NextIDResponse{NextID: next})
}

// Exists handles GET /products/{id}/exists.
func (h *ProductHandler) Exists(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	ok, err := h.uc.Exists(r.Context(), id)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	response.JSON(w, http.StatusOK, dto.ExistsResponse{ID: id, Exists: ok})
}

// CreateProduct handles POST /products. The id is checked before the insert
// so the common duplicate case gets a clear answer; a concurrent writer can
// still win the race, in which case the store constraint reports it.
func (h *ProductHandler) CreateProduct(w http.ResponseWriter, r *http.Request) {
	var in dto.ProductInput
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		response.Error(w, http.StatusBadRequest, errors.Wrap(err, "decode request body"))
		return
	}

	ctx := r.Context()
	var id int64
	if in.ID != nil {
		id = *in.ID
	} else {
		next, err := h.uc.NextID(ctx)
		if err != nil {
			h.writeError(w, r, err)
			return
		}
		id = next
	}

	p, err := in.ToProduct(id)
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	exists, err := h.uc.Exists(ctx, p.ID())
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	if exists {
		h.writeError(w, r, &product.DuplicateKeyError{ID: p.ID(), Err: product.ErrDuplicateKey})
		return
	}

	ok, err := h.uc.Insert(ctx, p)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	if !ok {
		h.writeError(w, r, &product.PersistenceError{Op: "insert", Err: errors.New("no row inserted")})
		return
	}
	response.JSON(w, http.StatusCreated, dto.ToProductResponse(p))
}

// UpdateProduct handles PUT /products/{id}.
func (h *ProductHandler) UpdateProduct(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	var in dto.ProductInput
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		response.Error(w, http.StatusBadRequest, errors.Wrap(err, "decode request body"))
		return
	}
	if in.ID != nil && *in.ID != id {
		response.FieldError(w, http.StatusBadRequest, model.FieldID, ErrIDMismatch)
		return
	}

	p, err := in.ToProduct(id)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	ok, err := h.uc.Update(r.Context(), p)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	if !ok {
		response.Error(w, http.StatusNotFound, errProductNotFound)
		return
	}
	response.JSON(w, http.StatusOK, dto.ToProductResponse(p))
}

// DeleteProduct handles DELETE /products/{id}.
func (h *ProductHandler) DeleteProduct(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	ok, err := h.uc.Delete(r.Context(), id)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	if !ok {
		response.Error(w, http.StatusNotFound, errProductNotFound)
		return
	}
	response.NoContent(w)
}

// Health handles GET /health by checking the store.
func (h *ProductHandler) Health(w http.ResponseWriter, r *http.Request) {
	if err := h.uc.CheckStore(r.Context()); err != nil {
		h.writeError(w, r, err)
		return
	}
	response.JSON(w, http.StatusOK, dto.HealthResponse{Status: "ok"})
}

func pathID(r *http.Request) (int64, error) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		return 0, &model.ValidationError{Field: model.FieldID, Reason: "must be an integer"}
	}
	return id, nil
}

// writeError maps the error taxonomy onto status codes. Persistence is
// checked before validation: a stored row that fails validation is a
// persistence failure, not bad input.
func (h *ProductHandler) writeError(w http.ResponseWriter, r *http.Request, err error) {
	var ve *model.ValidationError
	switch {
	case errors.Is(err, product.ErrDuplicateKey):
		response.FieldError(w, http.StatusConflict, model.FieldID, err)
	case errors.Is(err, product.ErrConnectivity):
		h.logError(r, err)
		response.Error(w, http.StatusServiceUnavailable, err)
	case product.IsPersistenceError(err):
		h.logError(r, err)
		response.Error(w, http.StatusInternalServerError, err)
	case errors.As(err, &ve):
		response.FieldError(w, http.StatusBadRequest, ve.Field, err)
	default:
		h.logError(r, err)
		response.Error(w, http.StatusInternalServerError, err)
	}
}

func (h *ProductHandler) logError(r *http.Request, err error) {
	h.logger.Error("request failed",
		zap.String("method", r.Method),
		zap.String("path", r.URL.Path),
		zap.String("request_id", middleware.GetReqID(r.Context())),
		zap.Error(err),
	)
}
