package sqldb

import (
	"context"
	"database/sql"

	"github.com/jmanzanog/trade-journal/internal/domain"
)

// Dialect isolates the statements that differ between database engines.
// Queries shared by every engine are written with $n placeholders and
// passed through Repository.rebind.
type Dialect interface {
	Name() string
	Migrate(ctx context.Context, db *sql.DB) error
	UpsertTrade(ctx context.Context, tx *sql.Tx, t *domain.Trade, document string) error
}
