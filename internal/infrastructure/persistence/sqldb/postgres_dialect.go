package sqldb

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/jmanzanog/trade-journal/internal/domain"
	"github.com/jmanzanog/trade-journal/internal/infrastructure/persistence/sqldb/migrations"
	"github.com/pressly/goose/v3"
)

type PostgresDialect struct{}

func (d *PostgresDialect) Name() string { return "postgres" }

func (d *PostgresDialect) Migrate(ctx context.Context, db *sql.DB) error {
	goose.SetBaseFS(migrations.PostgresFS)

	if err := goose.SetDialect("postgres"); err != nil {
		return fmt.Errorf("setting dialect: %w", err)
	}

	if err := goose.UpContext(ctx, db, "postgres"); err != nil {
		return fmt.Errorf("running migrations: %w", err)
	}

	return nil
}

func (d *PostgresDialect) UpsertTrade(ctx context.Context, tx *sql.Tx, t *domain.Trade, document string) error {
	query := `
		INSERT INTO trades (id, trade_date, document, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (id) DO UPDATE SET
			trade_date = EXCLUDED.trade_date,
			document = EXCLUDED.document,
			updated_at = EXCLUDED.updated_at
	`
	_, err := tx.ExecContext(ctx, query, t.ID, t.TradeDate, document, t.CreatedAt, t.UpdatedAt)
	return err
}
