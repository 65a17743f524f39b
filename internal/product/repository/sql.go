package repository

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"
	"go.uber.org/zap"

	"github.com/umg/product-catalog/config"
	"github.com/umg/product-catalog/internal/logger"
	"github.com/umg/product-catalog/internal/model"
	"github.com/umg/product-catalog/internal/product"
)

const selectColumns = `product_id AS product_id, name AS name, price AS price, active AS active`

type productRow struct {
	ID     int64   `db:"product_id"`
	Name   string  `db:"name"`
	Price  float64 `db:"price"`
	Active string  `db:"active"`
}

func (r productRow) toModel() (*model.Product, error) {
	return model.NewProduct(r.ID, r.Name, r.Price, strings.TrimSpace(r.Active))
}

type queries struct {
	findAll string
	search  string
	exists  string
	create  string
	update  string
	delete  string
	maxID   string
	ping    string
}

// SQLRepository runs each operation on its own connection: acquire, prepare
// one statement, map rows, then release rows, statement and connection in
// that order on every path.
type SQLRepository struct {
	DB      *sqlx.DB
	table   string
	dialect dialect
	q       queries
	logger  logger.ZapLogger
}

var _ product.Repository = (*SQLRepository)(nil)

func NewSQLRepository(db *sqlx.DB, table string, log logger.ZapLogger) (*SQLRepository, error) {
	if !config.ValidTableName(table) {
		return nil, errors.Errorf("invalid table name %q", table)
	}
	d := dialectFor(db.DriverName())

	r := &SQLRepository{
		DB:      db,
		table:   table,
		dialect: d,
		logger:  log.With(zap.String("table", table), zap.String("dialect", d.name)),
	}
	r.q = queries{
		findAll: fmt.Sprintf(`SELECT %s FROM %s ORDER BY product_id`, selectColumns, table),
		search: fmt.Sprintf(
			`SELECT %s FROM %s WHERE LOWER(name) LIKE LOWER(?) %s OR CAST(product_id AS %s) LIKE ? %s ORDER BY product_id`,
			selectColumns, table, likeEscapeClauseText, d.textType, likeEscapeClauseText),
		exists: fmt.Sprintf(`SELECT COUNT(*) FROM %s WHERE product_id = ?`, table),
		create: fmt.Sprintf(`INSERT INTO %s (product_id, name, price, active) VALUES (?, ?, ?, ?)`, table),
		update: fmt.Sprintf(`UPDATE %s SET name = ?, price = ?, active = ? WHERE product_id = ?`, table),
		delete: fmt.Sprintf(`DELETE FROM %s WHERE product_id = ?`, table),
		maxID:  fmt.Sprintf(`SELECT COALESCE(MAX(product_id), 0) FROM %s`, table),
		ping:   fmt.Sprintf(`SELECT COUNT(*) FROM %s`, table),
	}
	for _, q := range []*string{&r.q.findAll, &r.q.search, &r.q.exists, &r.q.create, &r.q.update, &r.q.delete, &r.q.maxID, &r.q.ping} {
		*q = db.Rebind(*q)
	}
	return r, nil
}

func (r *SQLRepository) FindAll(ctx context.Context) ([]*model.Product, error) {
	return r.selectProducts(ctx, "find_all", r.q.findAll)
}

func (r *SQLRepository) Search(ctx context.Context, term string) ([]*model.Product, error) {
	pattern := containsPattern(term)
	return r.selectProducts(ctx, "search", r.q.search, pattern, pattern)
}

func (r *SQLRepository) Exists(ctx context.Context, id int64) (bool, error) {
	var count int64
	if err := r.queryScalar(ctx, "exists", r.q.exists, &count, id); err != nil {
		return false, err
	}
	return count > 0, nil
}

func (r *SQLRepository) Create(ctx context.Context, p *model.Product) (bool, error) {
	n, err := r.exec(ctx, "create", r.q.create, p.ID(), p.Name(), p.Price(), string(p.Active()))
	if err != nil {
		var pe *product.PersistenceError
		if errors.As(err, &pe) && !pe.Connectivity && r.dialect.isDuplicate(pe.Err) {
			return false, &product.DuplicateKeyError{ID: p.ID(), Err: pe.Err}
		}
		return false, err
	}
	return n > 0, nil
}

func (r *SQLRepository) Update(ctx context.Context, p *model.Product) (bool, error) {
	n, err := r.exec(ctx, "update", r.q.update, p.Name(), p.Price(), string(p.Active()), p.ID())
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

func (r *SQLRepository) Delete(ctx context.Context, id int64) (bool, error) {
	n, err := r.exec(ctx, "delete", r.q.delete, id)
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

func (r *SQLRepository) MaxID(ctx context.Context) (int64, error) {
	var maxID int64
	if err := r.queryScalar(ctx, "max_id", r.q.maxID, &maxID); err != nil {
		return 0, err
	}
	return maxID, nil
}

func (r *SQLRepository) Ping(ctx context.Context) error {
	var count int64
	return r.queryScalar(ctx, "ping", r.q.ping, &count)
}

func (r *SQLRepository) selectProducts(ctx context.Context, op, query string, args ...interface{}) ([]*model.Product, error) {
	conn, err := r.acquire(ctx, op)
	if err != nil {
		return nil, err
	}
	defer r.release(op, "connection", conn)

	stmt, err := conn.PreparexContext(ctx, query)
	if err != nil {
		return nil, wrap(op, err)
	}
	defer r.release(op, "statement", stmt)

	rows, err := stmt.QueryxContext(ctx, args...)
	if err != nil {
		return nil, wrap(op, err)
	}
	defer r.release(op, "rows", rows)

	products := []*model.Product{}
	for rows.Next() {
		var row productRow
		if err := rows.StructScan(&row); err != nil {
			return nil, wrap(op, err)
		}
		p, err := row.toModel()
		if err != nil {
			return nil, wrap(op, errors.Wrapf(err, "row with product_id %d", row.ID))
		}
		products = append(products, p)
	}
	if err := rows.Err(); err != nil {
		return nil, wrap(op, err)
	}
	return products, nil
}

func (r *SQLRepository) queryScalar(ctx context.Context, op, query string, dest interface{}, args ...interface{}) error {
	conn, err := r.acquire(ctx, op)
	if err != nil {
		return err
	}
	defer r.release(op, "connection", conn)

	stmt, err := conn.PreparexContext(ctx, query)
	if err != nil {
		return wrap(op, err)
	}
	defer r.release(op, "statement", stmt)

	// Row.Scan closes its cursor.
	if err := stmt.QueryRowxContext(ctx, args...).Scan(dest); err != nil {
		return wrap(op, err)
	}
	return nil
}

func (r *SQLRepository) exec(ctx context.Context, op, query string, args ...interface{}) (int64, error) {
	conn, err := r.acquire(ctx, op)
	if err != nil {
		return 0, err
	}
	defer r.release(op, "connection", conn)

	stmt, err := conn.PreparexContext(ctx, query)
	if err != nil {
		return 0, wrap(op, err)
	}
	defer r.release(op, "statement", stmt)

	res, err := stmt.ExecContext(ctx, args...)
	if err != nil {
		return 0, wrap(op, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, wrap(op, err)
	}
	return n, nil
}

func (r *SQLRepository) acquire(ctx context.Context, op string) (*sqlx.Conn, error) {
	conn, err := r.DB.Connx(ctx)
	if err != nil {
		return nil, &product.PersistenceError{Op: op, Err: err, Connectivity: true}
	}
	return conn, nil
}

// release closes c and only logs a failure, so cleanup never masks the
// outcome of the operation.
func (r *SQLRepository) release(op, resource string, c io.Closer) {
	if err := c.Close(); err != nil {
		r.logger.Warn("failed to release "+resource, zap.String("op", op), zap.Error(err))
	}
}

func wrap(op string, err error) error {
	return &product.PersistenceError{Op: op, Err: err}
}
