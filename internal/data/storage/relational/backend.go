// Package relational realizes the storage contract on SQL databases through GORM.
// Postgres is the production target; SQLite serves embedded use and tests.
package relational

import (
	"context"
	"fmt"
	stdlog "log"
	"os"
	"strings"
	"time"

	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormLogger "gorm.io/gorm/logger"

	"github.com/yungbote/ground-catalog/internal/data/storage"
	"github.com/yungbote/ground-catalog/internal/domain"
	"github.com/yungbote/ground-catalog/internal/platform/logger"
)

const (
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"
)

type Config struct {
	Driver        string
	DSN           string
	MaxOpenConns  int
	SlowThreshold time.Duration
	Silent        bool
}

type Backend struct {
	db     *gorm.DB
	driver string
	log    *logger.Logger
}

var _ storage.Backend = (*Backend)(nil)

// Open connects with the configured driver.
func Open(cfg Config, log *logger.Logger) (*Backend, error) {
	if log == nil {
		return nil, fmt.Errorf("relational: logger required")
	}
	driver := strings.ToLower(strings.TrimSpace(cfg.Driver))
	if cfg.SlowThreshold <= 0 {
		cfg.SlowThreshold = time.Second
	}

	gcfg := &gorm.Config{
		TranslateError:                           true,
		DisableForeignKeyConstraintWhenMigrating: true,
		Logger:                                   newGormLogger(cfg),
	}

	var (
		db  *gorm.DB
		err error
	)
	switch driver {
	case DriverPostgres:
		db, err = gorm.Open(postgres.Open(cfg.DSN), gcfg)
	case DriverSQLite:
		db, err = gorm.Open(sqlite.Open(cfg.DSN), gcfg)
	default:
		return nil, fmt.Errorf("relational: unknown driver %q", cfg.Driver)
	}
	if err != nil {
		return nil, fmt.Errorf("relational: connect %s: %w", driver, err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("relational: pool: %w", err)
	}
	switch {
	case driver == DriverSQLite:
		// one writer at a time; also keeps in-memory databases alive between calls
		sqlDB.SetMaxOpenConns(1)
	case cfg.MaxOpenConns > 0:
		sqlDB.SetMaxOpenConns(cfg.MaxOpenConns)
	}

	return New(db, driver, log), nil
}

// New wraps an existing GORM handle.
func New(db *gorm.DB, driver string, log *logger.Logger) *Backend {
	return &Backend{
		db:     db,
		driver: driver,
		log:    log.With("backend", string(storage.KindRelational), "driver", driver),
	}
}

func (b *Backend) Kind() storage.Kind { return storage.KindRelational }

func (b *Backend) DB() *gorm.DB { return b.db }

func (b *Backend) Begin(ctx context.Context) (storage.Conn, error) {
	tx := b.db.WithContext(ctx).Begin()
	if tx.Error != nil {
		return nil, domain.Wrap(domain.CodeBackendFailure, "relational.Begin", tx.Error)
	}
	return &conn{tx: tx, driver: b.driver, log: b.log}, nil
}

func (b *Backend) Close(ctx context.Context) error {
	sqlDB, err := b.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

func newGormLogger(cfg Config) gormLogger.Interface {
	level := gormLogger.Warn
	if cfg.Silent {
		level = gormLogger.Silent
	}
	return gormLogger.New(
		stdlog.New(os.Stdout, "\r\n", stdlog.LstdFlags),
		gormLogger.Config{
			SlowThreshold:             cfg.SlowThreshold,
			LogLevel:                  level,
			IgnoreRecordNotFoundError: true,
			Colorful:                  false,
		},
	)
}
