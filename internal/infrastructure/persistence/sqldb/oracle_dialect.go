package sqldb

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/jmanzanog/trade-journal/internal/domain"
	"github.com/jmanzanog/trade-journal/internal/infrastructure/persistence/sqldb/migrations"
)

type OracleDialect struct{}

func (d *OracleDialect) Name() string { return "oracle" }

// Migrate executes the embedded script statement by statement. goose has
// no Oracle dialect, so objects that already exist (ORA-00955) are skipped
// to keep the script re-runnable.
func (d *OracleDialect) Migrate(ctx context.Context, db *sql.DB) error {
	content, err := migrations.OracleFS.ReadFile("oracle/20240101000000_init.sql")
	if err != nil {
		return fmt.Errorf("reading migration file: %w", err)
	}

	for _, stmt := range strings.Split(string(content), "/") {
		stmt = strings.TrimSpace(stmt)
		if stmt == "" {
			continue
		}

		if _, err := db.ExecContext(ctx, stmt); err != nil {
			if !strings.Contains(err.Error(), "ORA-00955") {
				return fmt.Errorf("migrating: %s: %w", stmt, err)
			}
		}
	}
	return nil
}

func (d *OracleDialect) UpsertTrade(ctx context.Context, tx *sql.Tx, t *domain.Trade, document string) error {
	query := `MERGE INTO trades t
             USING (SELECT :1 AS id_val FROM dual) s
             ON (t.id = s.id_val)
             WHEN MATCHED THEN
               UPDATE SET trade_date = :2, document = :3, updated_at = :4
             WHEN NOT MATCHED THEN
               INSERT (id, trade_date, document, created_at, updated_at)
               VALUES (:5, :6, :7, :8, :9)`

	_, err := tx.ExecContext(ctx, query,
		t.ID,        // 1 (s.id_val)
		t.TradeDate, // 2 (UPDATE)
		document,    // 3
		t.UpdatedAt, // 4
		t.ID,        // 5 (INSERT)
		t.TradeDate, // 6
		document,    // 7
		t.CreatedAt, // 8
		t.UpdatedAt, // 9
	)
	return err
}
