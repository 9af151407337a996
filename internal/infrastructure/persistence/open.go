package persistence

import (
	"context"
	"database/sql"
	"fmt"
	"io"
	"log/slog"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/jmanzanog/trade-journal/internal/domain"
	"github.com/jmanzanog/trade-journal/internal/infrastructure/config"
	"github.com/jmanzanog/trade-journal/internal/infrastructure/persistence/file"
	"github.com/jmanzanog/trade-journal/internal/infrastructure/persistence/gormdb"
	"github.com/jmanzanog/trade-journal/internal/infrastructure/persistence/memory"
	"github.com/jmanzanog/trade-journal/internal/infrastructure/persistence/sqldb"
	_ "github.com/sijms/go-ora/v2"
)

const migrateTimeout = 30 * time.Second

type closerFunc func() error

func (f closerFunc) Close() error { return f() }

var nopCloser = closerFunc(func() error { return nil })

// Open builds the repository selected by cfg.StorageDriver and prepares
// its schema. The returned closer releases any connection the repository
// holds.
func Open(ctx context.Context, cfg *config.Config) (domain.TradeRepository, io.Closer, error) {
	slog.Info("Opening trade storage", "driver", cfg.StorageDriver)

	switch cfg.StorageDriver {
	case config.StorageDriverMemory:
		return memory.NewTradeRepository(), nopCloser, nil
	case config.StorageDriverFile:
		repo, err := file.Open(ctx, cfg.DataFile)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to open journal file: %w", err)
		}
		return repo, nopCloser, nil
	case config.StorageDriverPostgres:
		return openSQL(ctx, "pgx", cfg.DBDSN, &sqldb.PostgresDialect{})
	case config.StorageDriverOracle:
		return openSQL(ctx, "oracle", cfg.DBDSN, &sqldb.OracleDialect{})
	case config.StorageDriverSQLite:
		repo, err := gormdb.OpenSQLite(cfg.DBDSN)
		if err != nil {
			return nil, nil, err
		}
		return repo, repo, nil
	default:
		return nil, nil, fmt.Errorf("unsupported storage driver: %s", cfg.StorageDriver)
	}
}

func openSQL(ctx context.Context, driverName, dsn string, dialect sqldb.Dialect) (domain.TradeRepository, io.Closer, error) {
	db, err := sql.Open(driverName, dsn)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to connect database: %w", err)
	}

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, nil, fmt.Errorf("failed to ping database: %w", err)
	}

	repo := sqldb.NewRepository(sqldb.New(db, dialect))

	migrateCtx, cancel := context.WithTimeout(ctx, migrateTimeout)
	defer cancel()

	if err := repo.AutoMigrate(migrateCtx); err != nil {
		_ = db.Close()
		return nil, nil, fmt.Errorf("failed to migrate database: %w", err)
	}

	return repo, db, nil
}
