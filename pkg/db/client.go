package db

import (
	"context"
	"fmt"
	"time"

	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/angelmondragon/restock-backend/pkg/config"
)

// Client wraps the gorm handle and owns connection pool settings.
type Client struct {
	gorm *gorm.DB
}

func New(cfg config.DBConfig) (*Client, error) {
	// UseSQLite swaps in an embedded database for local development.
	dialector := gorm.Dialector(postgres.Open(cfg.DSN))
	if cfg.UseSQLite {
		dialector = sqlite.Open(cfg.DSN)
	}

	gormDB, err := gorm.Open(dialector, &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	sqlDB, err := gormDB.DB()
	if err != nil {
		return nil, fmt.Errorf("access sql db: %w", err)
	}
	sqlDB.SetMaxOpenConns(cfg.MaxOpenConns)
	sqlDB.SetMaxIdleConns(cfg.MaxIdleConns)
	sqlDB.SetConnMaxLifetime(cfg.ConnMaxLifetime)

	return &Client{gorm: gormDB}, nil
}

// DB exposes the underlying gorm handle for repositories.
func (c *Client) DB() *gorm.DB {
	return c.gorm
}

func (c *Client) Ping(ctx context.Context) error {
	sqlDB, err := c.gorm.DB()
	if err != nil {
		return err
	}
	pingCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()
	return sqlDB.PingContext(pingCtx)
}

func (c *Client) Close() error {
	sqlDB, err := c.gorm.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// WithTx runs fn inside a transaction. The transaction commits when fn
// returns nil and rolls back otherwise.
func (c *Client) WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error {
	return c.gorm.WithContext(ctx).Transaction(fn)
}
