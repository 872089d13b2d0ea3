package database

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"meal-waste-workers/internal/common/config"

	_ "github.com/lib/pq"
	_ "modernc.org/sqlite"
)

// SQLClient is a database/sql pool tagged with the driver that opened it.
// Driver doubles as the dataset source name.
type SQLClient struct {
	DB     *sql.DB
	Driver string
}

// NewPostgres opens the waste log database. The connection is lazy; call
// Ping to verify it.
func NewPostgres(cfg config.PostgresConfig) (*SQLClient, error) {
	c, err := open(config.SourcePostgres, cfg.GetDSN())
	if err != nil {
		return nil, err
	}
	c.DB.SetMaxOpenConns(cfg.MaxConnections)
	c.DB.SetMaxIdleConns(cfg.MaxIdle)
	c.DB.SetConnMaxLifetime(5 * time.Minute)
	c.DB.SetConnMaxIdleTime(5 * time.Minute)
	return c, nil
}

// NewSQLite opens a local dataset file.
func NewSQLite(cfg config.SQLiteConfig) (*SQLClient, error) {
	if cfg.Path == "" {
		return nil, fmt.Errorf("sqlite path is empty")
	}
	c, err := open(config.SourceSQLite, cfg.Path)
	if err != nil {
		return nil, err
	}
	// a single writer avoids SQLITE_BUSY on the file
	c.DB.SetMaxOpenConns(1)
	return c, nil
}

func open(driver, dsn string) (*SQLClient, error) {
	db, err := sql.Open(driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s: %w", driver, err)
	}
	return &SQLClient{DB: db, Driver: driver}, nil
}

func (c *SQLClient) Ping(ctx context.Context) error {
	if err := c.DB.PingContext(ctx); err != nil {
		return fmt.Errorf("%s ping failed: %w", c.Driver, err)
	}
	return nil
}

func (c *SQLClient) Close() error {
	if c.DB == nil {
		return nil
	}
	return c.DB.Close()
}
