package sqldb

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"strings"

	"github.com/jmanzanog/trade-journal/internal/domain"
)

// Repository stores each trade as a JSON document next to the few columns
// needed to key and order it, so the table behaves like a document
// collection regardless of the engine behind it.
type Repository struct {
	db *DB
}

func NewRepository(db *DB) *Repository {
	return &Repository{db: db}
}

// AutoMigrate creates the trades table through the dialect.
func (r *Repository) AutoMigrate(ctx context.Context) error {
	return r.db.Dialect.Migrate(ctx, r.db.DB)
}

func (r *Repository) FindAll(ctx context.Context) ([]domain.Trade, error) {
	query := `SELECT id, document FROM trades ORDER BY trade_date DESC, created_at DESC`

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("querying trades: %w", err)
	}
	defer closeRows(rows)

	trades := []domain.Trade{}
	for rows.Next() {
		var id, document string
		if err := rows.Scan(&id, &document); err != nil {
			return nil, fmt.Errorf("scanning row: %w", err)
		}

		trade, _, err := decodeRow(id, document)
		if err != nil {
			return nil, err
		}
		trades = append(trades, trade)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return trades, nil
}

func (r *Repository) FindByID(ctx context.Context, id string) (*domain.Trade, error) {
	query := r.rebind(`SELECT id, document FROM trades WHERE id = $1`)

	var rowID, document string
	err := r.db.QueryRowContext(ctx, query, id).Scan(&rowID, &document)
	if errors.Is(err, sql.ErrNoRows) {
		slog.Debug("Trade not found", "trade_id", id)
		return nil, domain.ErrTradeNotFound
	}
	if err != nil {
		slog.Error("Failed to find trade", "trade_id", id, "error", err)
		return nil, fmt.Errorf("querying trade: %w", err)
	}

	trade, _, err := decodeRow(rowID, document)
	if err != nil {
		return nil, err
	}
	return &trade, nil
}

func (r *Repository) Insert(ctx context.Context, trade *domain.Trade) error {
	document, err := encodeDocument(trade)
	if err != nil {
		return err
	}

	query := r.rebind(`INSERT INTO trades (id, trade_date, document, created_at, updated_at) VALUES ($1, $2, $3, $4, $5)`)

	return r.db.WithTx(ctx, func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx, query, trade.ID, trade.TradeDate, document, trade.CreatedAt, trade.UpdatedAt); err != nil {
			slog.Error("Failed to insert trade", "trade_id", trade.ID, "error", err)
			return fmt.Errorf("insert trade: %w", err)
		}
		return nil
	})
}

func (r *Repository) Update(ctx context.Context, trade *domain.Trade) error {
	document, err := encodeDocument(trade)
	if err != nil {
		return err
	}

	query := r.rebind(`UPDATE trades SET trade_date = $1, document = $2, updated_at = $3 WHERE id = $4`)

	return r.db.WithTx(ctx, func(tx *sql.Tx) error {
		res, err := tx.ExecContext(ctx, query, trade.TradeDate, document, trade.UpdatedAt, trade.ID)
		if err != nil {
			slog.Error("Failed to update trade", "trade_id", trade.ID, "error", err)
			return fmt.Errorf("update trade: %w", err)
		}
		return requireAffected(res)
	})
}

func (r *Repository) Delete(ctx context.Context, id string) error {
	query := r.rebind(`DELETE FROM trades WHERE id = $1`)

	return r.db.WithTx(ctx, func(tx *sql.Tx) error {
		res, err := tx.ExecContext(ctx, query, id)
		if err != nil {
			return fmt.Errorf("delete trade: %w", err)
		}
		return requireAffected(res)
	})
}

// MigrateLegacy rewrites every stored document that still uses legacy
// field names. The whole pass runs in one transaction.
func (r *Repository) MigrateLegacy(ctx context.Context) (int, error) {
	changed := 0

	err := r.db.WithTx(ctx, func(tx *sql.Tx) error {
		rows, err := tx.QueryContext(ctx, `SELECT id, document FROM trades`)
		if err != nil {
			return fmt.Errorf("querying trades: %w", err)
		}

		var pending []domain.Trade
		for rows.Next() {
			var id, document string
			if err := rows.Scan(&id, &document); err != nil {
				closeRows(rows)
				return fmt.Errorf("scanning row: %w", err)
			}

			trade, dirty, err := decodeRow(id, document)
			if err != nil {
				closeRows(rows)
				return err
			}
			if dirty {
				pending = append(pending, trade)
			}
		}
		if err := rows.Err(); err != nil {
			closeRows(rows)
			return err
		}
		closeRows(rows)

		for i := range pending {
			document, err := encodeDocument(&pending[i])
			if err != nil {
				return err
			}
			if err := r.db.Dialect.UpsertTrade(ctx, tx, &pending[i], document); err != nil {
				slog.Error("Failed to rewrite legacy trade", "trade_id", pending[i].ID, "error", err)
				return fmt.Errorf("upsert trade: %w", err)
			}
		}

		changed = len(pending)
		return nil
	})
	if err != nil {
		return 0, err
	}

	return changed, nil
}

// decodeRow turns a stored document into a Trade, normalizing legacy
// field names on the way. dirty reports whether the stored form differs
// from the canonical one.
func decodeRow(id, document string) (trade domain.Trade, dirty bool, err error) {
	doc, err := domain.DecodeDocument([]byte(document))
	if err != nil {
		return trade, false, fmt.Errorf("trade %s: %w", id, err)
	}

	dirty = domain.NormalizeDocument(doc)
	if _, ok := doc["id"]; !ok {
		doc["id"] = id
		dirty = true
	}

	trade, err = doc.Trade()
	if err != nil {
		return trade, false, fmt.Errorf("trade %s: %w", id, err)
	}
	trade.ID = id
	return trade, dirty, nil
}

func encodeDocument(trade *domain.Trade) (string, error) {
	data, err := json.Marshal(trade)
	if err != nil {
		return "", fmt.Errorf("encoding trade %s: %w", trade.ID, err)
	}
	return string(data), nil
}

func requireAffected(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if n == 0 {
		return domain.ErrTradeNotFound
	}
	return nil
}

func closeRows(rows *sql.Rows) {
	if err := rows.Close(); err != nil {
		slog.Error("Failed to close rows", "error", err)
	}
}

// rebind rewrites $n placeholders into the dialect's bind syntax.
func (r *Repository) rebind(query string) string {
	if r.db.Dialect.Name() != "oracle" {
		return query
	}
	for i := 9; i >= 1; i-- {
		query = strings.ReplaceAll(query, "$"+strconv.Itoa(i), ":"+strconv.Itoa(i))
	}
	return query
}
