package database

import (
	"fmt"
	"net"
	"strings"

	"github.com/go-sql-driver/mysql"
	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	"github.com/pkg/errors"

	"github.com/umg/product-catalog/config"
)

const defaultPostgresPort = "5432"

// Open returns a handle that hands out one fresh connection per call. Idle
// connections are never kept, so releasing a connection closes it.
//
// Open does not dial; the first repository call does.
func Open(cfg *config.DatabaseConfig) (*sqlx.DB, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	dsn, err := DSN(cfg)
	if err != nil {
		return nil, err
	}

	db, err := sqlx.Open(cfg.Driver, dsn)
	if err != nil {
		return nil, errors.Wrapf(err, "open %s", cfg.Driver)
	}
	db.SetMaxIdleConns(0)

	return db, nil
}

// DSN builds the driver specific data source name.
func DSN(cfg *config.DatabaseConfig) (string, error) {
	switch cfg.Driver {
	case config.DriverPostgres:
		return postgresDSN(cfg)
	case config.DriverMySQL:
		return mysqlDSN(cfg), nil
	}
	return "", errors.Errorf("unsupported database driver %q", cfg.Driver)
}

func postgresDSN(cfg *config.DatabaseConfig) (string, error) {
	host, port := cfg.Address, defaultPostgresPort
	if strings.Contains(cfg.Address, ":") {
		h, p, err := net.SplitHostPort(cfg.Address)
		if err != nil {
			return "", errors.Wrapf(err, "parse address %q", cfg.Address)
		}
		host, port = h, p
	}

	parts := []string{
		"host=" + quoteValue(host),
		"port=" + quoteValue(port),
		"user=" + quoteValue(cfg.User),
		"password=" + quoteValue(cfg.Password),
	}
	if cfg.Name != "" {
		parts = append(parts, "dbname="+quoteValue(cfg.Name))
	}
	if cfg.SSLMode != "" {
		parts = append(parts, "sslmode="+quoteValue(cfg.SSLMode))
	}
	if secs := int(cfg.ConnectTimeout.Seconds()); secs > 0 {
		parts = append(parts, fmt.Sprintf("connect_timeout=%d", secs))
	}
	return strings.Join(parts, " "), nil
}

func mysqlDSN(cfg *config.DatabaseConfig) string {
	mc := mysql.NewConfig()
	mc.User = cfg.User
	mc.Passwd = cfg.Password
	mc.Net = "tcp"
	mc.Addr = cfg.Address
	mc.DBName = cfg.Name
	mc.Timeout = cfg.ConnectTimeout
	return mc.FormatDSN()
}

// quoteValue quotes a libpq key/value when it is empty or contains
// whitespace, quotes or backslashes.
func quoteValue(v string) string {
	if v != "" && !strings.ContainsAny(v, " \t\n'\\") {
		return v
	}
	v = strings.ReplaceAll(v, `\`, `\\`)
	v = strings.ReplaceAll(v, `'`, `\'`)
	return "'" + v + "'"
}
