package config

import (
	"regexp"
	"time"

	"github.com/kelseyhightower/envconfig"
	"github.com/pkg/errors"
)

const (
	DriverPostgres = "postgres"
	DriverMySQL    = "mysql"
	// DriverMemory keeps products in process memory. For demos and tests.
	DriverMemory = "memory"
)

var tableNamePattern = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*(\.[A-Za-z_][A-Za-z0-9_]*)?$`)

type Config struct {
	App      AppConfig      `envconfig:"APP"`
	Logger   LoggerConfig   `envconfig:"LOGGER"`
	Database DatabaseConfig `envconfig:"DB"`
	HTTP     HTTPConfig     `envconfig:"HTTP"`
}

type AppConfig struct {
	Env string `default:"dev"`
}

type LoggerConfig struct {
	Level             string `default:"debug"`
	Encoding          string `default:"console"`
	DisableCaller     bool   `split_words:"true" default:"false"`
	DisableStacktrace bool   `split_words:"true" default:"true"`
}

// DatabaseConfig carries the store address and credentials. Address, User
// and Password are opaque to the rest of the application.
type DatabaseConfig struct {
	Driver         string        `default:"postgres"`
	Address        string        `default:"localhost:5432"`
	User           string        `default:"umg"`
	Password       string        `default:"umg123"`
	Name           string        `default:"umg"`
	SSLMode        string        `default:"disable"`
	Table          string        `default:"products"`
	ConnectTimeout time.Duration `split_words:"true" default:"5s"`
}

type HTTPConfig struct {
	Addr string `default:":8080"`
}

// LoadEnv reads the configuration from the environment. Callers load any
// .env file beforehand.
func LoadEnv() (*Config, error) {
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, errors.Wrap(err, "process env")
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) IsDevelopment() bool {
	return c.App.Env == "dev" || c.App.Env == "development"
}

func (c *Config) Validate() error {
	return c.Database.Validate()
}

func (d *DatabaseConfig) Validate() error {
	switch d.Driver {
	case DriverPostgres, DriverMySQL:
	case DriverMemory:
		return nil
	default:
		return errors.Errorf("unsupported database driver %q", d.Driver)
	}
	if d.Address == "" {
		return errors.New("database address is required")
	}
	if !ValidTableName(d.Table) {
		return errors.Errorf("invalid table name %q", d.Table)
	}
	if d.ConnectTimeout < 0 {
		return errors.New("connect timeout must not be negative")
	}
	return nil
}

// ValidTableName accepts table or schema.table made of plain identifiers.
func ValidTableName(name string) bool {
	return tableNamePattern.MatchString(name)
}
