package usecase

import (
	"context"
	"math"
	"strings"
	"time"

	"github.com/pkg/errors"
	"go.uber.org/zap"

	"github.com/umg/product-catalog/internal/logger"
	"github.com/umg/product-catalog/internal/metrics"
	"github.com/umg/product-catalog/internal/model"
	"github.com/umg/product-catalog/internal/product"
)

type productUseCase struct {
	repo    product.Repository
	metrics *metrics.Metrics
	logger  logger.ZapLogger
}

// NewProductUseCase returns the facade. It keeps no state between calls, so
// one instance may be shared by concurrent callers.
func NewProductUseCase(repo product.Repository, m *metrics.Metrics, log logger.ZapLogger) product.UseCase {
	return &productUseCase{
		repo:    repo,
		metrics: m,
		logger:  log,
	}
}

func (uc *productUseCase) ListAll(ctx context.Context) ([]*model.Product, error) {
	start := time.Now()
	products, err := uc.repo.FindAll(ctx)
	uc.record("list_all", start, err)
	if err != nil {
		return nil, err
	}
	return products, nil
}

func (uc *productUseCase) Search(ctx context.Context, term string) ([]*model.Product, error) {
	start := time.Now()

	term = strings.TrimSpace(term)
	var (
		products []*model.Product
		err      error
	)
	if term == "" {
		products, err = uc.repo.FindAll(ctx)
	} else {
		products, err = uc.repo.Search(ctx, term)
	}
	uc.record("search", start, err, zap.String("term", term))
	if err != nil {
		return nil, err
	}
	return products, nil
}

func (uc *productUseCase) Exists(ctx context.Context, id int64) (bool, error) {
	start := time.Now()
	if err := checkID(id); err != nil {
		uc.record("exists", start, err, zap.Int64("product_id", id))
		return false, err
	}

	ok, err := uc.repo.Exists(ctx, id)
	uc.record("exists", start, err, zap.Int64("product_id", id))
	if err != nil {
		return false, err
	}
	return ok, nil
}

func (uc *productUseCase) Insert(ctx context.Context, p *model.Product) (bool, error) {
	start := time.Now()
	if err := p.Validate(); err != nil {
		uc.record("insert", start, err)
		return false, err
	}

	ok, err := uc.repo.Create(ctx, p)
	uc.record("insert", start, err, zap.Int64("product_id", p.ID()))
	if err != nil {
		return false, err
	}
	return ok, nil
}

func (uc *productUseCase) Update(ctx context.Context, p *model.Product) (bool, error) {
	start := time.Now()
	if err := p.Validate(); err != nil {
		uc.record("update", start, err)
		return false, err
	}

	ok, err := uc.repo.Update(ctx, p)
	uc.record("update", start, err, zap.Int64("product_id", p.ID()), zap.Bool("found", ok))
	if err != nil {
		return false, err
	}
	return ok, nil
}

func (uc *productUseCase) Delete(ctx context.Context, id int64) (bool, error) {
	start := time.Now()
	if err := checkID(id); err != nil {
		uc.record("delete", start, err, zap.Int64("product_id", id))
		return false, err
	}

	ok, err := uc.repo.Delete(ctx, id)
	uc.record("delete", start, err, zap.Int64("product_id", id), zap.Bool("found", ok))
	if err != nil {
		return false, err
	}
	return ok, nil
}

func (uc *productUseCase) NextID(ctx context.Context) (int64, error) {
	start := time.Now()
	maxID, err := uc.repo.MaxID(ctx)
	if err == nil && maxID == math.MaxInt64 {
		err = &product.PersistenceError{Op: "next_id", Err: errors.New("product id space exhausted")}
	}
	uc.record("next_id", start, err)
	if err != nil {
		return 0, err
	}
	if maxID < 0 {
		maxID = 0
	}
	return maxID + 1, nil
}

func (uc *productUseCase) CheckStore(ctx context.Context) error {
	start := time.Now()
	err := uc.repo.Ping(ctx)
	uc.record("check_store", start, err)
	return err
}

func checkID(id int64) error {
	if id <= 0 {
		return &model.ValidationError{Field: model.FieldID, Reason: "must be greater than zero"}
	}
	return nil
}

// record feeds metrics and logs failures. Errors are never swallowed here;
// callers return them unchanged.
func (uc *productUseCase) record(op string, start time.Time, err error, fields ...zap.Field) {
	elapsed := time.Since(start)
	outcome := outcomeOf(err)
	uc.metrics.Observe(op, outcome, elapsed)

	fields = append(fields, zap.String("op", op), zap.Duration("elapsed", elapsed))
	switch outcome {
	case metrics.OutcomeOK:
		uc.logger.Debug("product operation done", fields...)
	case metrics.OutcomeInvalid:
		uc.logger.Info("product operation rejected", append(fields, zap.Error(err))...)
	case metrics.OutcomeDuplicate:
		uc.logger.Warn("duplicate product id", append(fields, zap.Error(err))...)
	default:
		uc.logger.Error("product operation failed", append(fields, zap.Error(err))...)
	}
}

func outcomeOf(err error) string {
	switch {
	case err == nil:
		return metrics.OutcomeOK
	case errors.Is(err, product.ErrDuplicateKey):
		return metrics.OutcomeDuplicate
	case product.IsPersistenceError(err):
		return metrics.OutcomeError
	case model.IsValidationError(err):
		return metrics.OutcomeInvalid
	}
	return metrics.OutcomeError
}
