package postgres

import (
	"context"
	"embed"
	"fmt"
	"strings"

	"github.com/dom/ridecore/internal/config"
	"github.com/dom/ridecore/internal/repository"
	"github.com/pressly/goose/v3"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

const migrationsDir = "migrations"

func NewConnection(ctx context.Context, cfg config.DatabaseConfig) (*gorm.DB, error) {
	db, err := gorm.Open(postgres.Open(cfg.URL), &gorm.Config{
		Logger: logger.Default.LogMode(gormLogLevel(cfg.LogLevel)),
	})
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("database handle: %w", err)
	}
	sqlDB.SetMaxOpenConns(cfg.MaxOpenConns)
	sqlDB.SetMaxIdleConns(cfg.MaxIdleConns)
	sqlDB.SetConnMaxLifetime(cfg.ConnMaxLifetime)

	if err := sqlDB.PingContext(ctx); err != nil {
		return nil, fmt.Errorf("ping database: %w", err)
	}

	if cfg.AutoMigrate {
		if err := Migrate(ctx, db); err != nil {
			return nil, err
		}
	}
	return db, nil
}

// Migrate applies the embedded goose migrations. The schema carries PostGIS
// columns and partial indexes that gorm's AutoMigrate cannot express.
func Migrate(ctx context.Context, db *gorm.DB) error {
	sqlDB, err := db.DB()
	if err != nil {
		return fmt.Errorf("database handle: %w", err)
	}
	goose.SetBaseFS(migrationsFS)
	if err := goose.SetDialect("postgres"); err != nil {
		return fmt.Errorf("set goose dialect: %w", err)
	}
	if err := goose.UpContext(ctx, sqlDB, migrationsDir); err != nil {
		return fmt.Errorf("goose up: %w", err)
	}
	return nil
}

func Close(db *gorm.DB) error {
	sqlDB, err := db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

func gormLogLevel(level string) logger.LogLevel {
	switch strings.ToLower(level) {
	case "silent":
		return logger.Silent
	case "error":
		return logger.Error
	case "info":
		return logger.Info
	default:
		return logger.Warn
	}
}

func NewRepositories(db *gorm.DB) *repository.Repositories {
	repos := newScopedRepositories(db)
	repos.Tx = &transactor{db: db}
	return repos
}

func newScopedRepositories(db *gorm.DB) *repository.Repositories {
	return &repository.Repositories{
		User:         NewUserRepository(db),
		Session:      NewSessionRepository(db),
		OTP:          NewOTPRepository(db),
		UserInfo:     NewUserInfoRepository(db),
		UserAddress:  NewUserAddressRepository(db),
		UserLocation: NewUserLocationRepository(db),
		Category:     NewCategoryRepository(db),
	}
}

type transactor struct {
	db *gorm.DB
}

func (t *transactor) WithinTransaction(ctx context.Context, fn func(repos *repository.Repositories) error) error {
	err := t.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		repos := newScopedRepositories(tx)
		repos.Tx = &nestedTransactor{repos: repos}
		return fn(repos)
	})
	return translateError(err)
}

// nestedTransactor reuses the repositories already bound to the open
// transaction.
type nestedTransactor struct {
	repos *repository.Repositories
}

func (n *nestedTransactor) WithinTransaction(_ context.Context, fn func(repos *repository.Repositories) error) error {
	return fn(n.repos)
}
