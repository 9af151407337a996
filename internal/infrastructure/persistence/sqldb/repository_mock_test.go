package sqldb

import (
	"context"
	"errors"
	"regexp"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jmanzanog/trade-journal/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newMockRepository(t *testing.T, dialect Dialect) (*Repository, sqlmock.Sqlmock) {
	t.Helper()

	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() {
		_ = db.Close()
	})

	return NewRepository(New(db, dialect)), mock
}

const canonicalDocument = `{"id":"a1","instrument":"AAPL","entry_price":150.50,"exit_price":155.75,"trade_date":"2023-05-15","profit_loss":5.25,"notes":"","created_at":"2023-05-15T10:00:00Z","updated_at":"2023-05-15T10:00:00Z"}`

const legacyDocument = `{"_id":"b2","instrument":"MSFT","entryPrice":"300","exitPrice":290,"tradeDate":"2023-06-01T00:00:00.000Z","profitLoss":-10,"createdAt":"2023-06-01T09:00:00Z"}`

func TestRepository_FindAll_DecodesAndNormalizes(t *testing.T) {
	repo, mock := newMockRepository(t, &PostgresDialect{})

	mock.ExpectQuery(regexp.QuoteMeta(`SELECT id, document FROM trades ORDER BY trade_date DESC, created_at DESC`)).
		WillReturnRows(sqlmock.NewRows([]string{"id", "document"}).
			AddRow("b2", legacyDocument).
			AddRow("a1", canonicalDocument))

	trades, err := repo.FindAll(context.Background())
	require.NoError(t, err)
	require.Len(t, trades, 2)

	assert.Equal(t, "b2", trades[0].ID)
	assert.Equal(t, "2023-06-01", trades[0].TradeDate)
	assert.True(t, trades[0].EntryPrice.Equal(domain.NewDecimalFromInt(300)))
	assert.Equal(t, "a1", trades[1].ID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRepository_FindAll_EmptyRows(t *testing.T) {
	repo, mock := newMockRepository(t, &PostgresDialect{})

	mock.ExpectQuery(`SELECT id, document FROM trades`).
		WillReturnRows(sqlmock.NewRows([]string{"id", "document"}))

	trades, err := repo.FindAll(context.Background())
	require.NoError(t, err)
	assert.NotNil(t, trades)
	assert.Empty(t, trades)
}

func TestRepository_FindByID_NotFound(t *testing.T) {
	repo, mock := newMockRepository(t, &PostgresDialect{})

	mock.ExpectQuery(regexp.QuoteMeta(`SELECT id, document FROM trades WHERE id = $1`)).
		WithArgs("missing").
		WillReturnRows(sqlmock.NewRows([]string{"id", "document"}))

	_, err := repo.FindByID(context.Background(), "missing")
	assert.ErrorIs(t, err, domain.ErrTradeNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRepository_FindByID_OracleBinds(t *testing.T) {
	repo, mock := newMockRepository(t, &OracleDialect{})

	mock.ExpectQuery(regexp.QuoteMeta(`SELECT id, document FROM trades WHERE id = :1`)).
		WithArgs("a1").
		WillReturnRows(sqlmock.NewRows([]string{"id", "document"}).AddRow("a1", canonicalDocument))

	trade, err := repo.FindByID(context.Background(), "a1")
	require.NoError(t, err)
	assert.Equal(t, "AAPL", trade.Instrument)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRepository_Insert(t *testing.T) {
	repo, mock := newMockRepository(t, &PostgresDialect{})
	trade := sampleTrade()

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta(`INSERT INTO trades (id, trade_date, document, created_at, updated_at)`)).
		WithArgs(trade.ID, trade.TradeDate, sqlmock.AnyArg(), trade.CreatedAt, trade.UpdatedAt).
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectCommit()

	require.NoError(t, repo.Insert(context.Background(), &trade))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRepository_Insert_Failure(t *testing.T) {
	repo, mock := newMockRepository(t, &PostgresDialect{})
	trade := sampleTrade()

	mock.ExpectBegin()
	mock.ExpectExec(`INSERT INTO trades`).WillReturnError(errors.New("disk full"))
	mock.ExpectRollback()

	err := repo.Insert(context.Background(), &trade)
	assert.ErrorContains(t, err, "disk full")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRepository_Update_NotFound(t *testing.T) {
	repo, mock := newMockRepository(t, &PostgresDialect{})
	trade := sampleTrade()

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta(`UPDATE trades SET trade_date = $1, document = $2, updated_at = $3 WHERE id = $4`)).
		WithArgs(trade.TradeDate, sqlmock.AnyArg(), trade.UpdatedAt, trade.ID).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectRollback()

	err := repo.Update(context.Background(), &trade)
	assert.ErrorIs(t, err, domain.ErrTradeNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRepository_Delete(t *testing.T) {
	repo, mock := newMockRepository(t, &OracleDialect{})

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta(`DELETE FROM trades WHERE id = :1`)).
		WithArgs("a1").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	require.NoError(t, repo.Delete(context.Background(), "a1"))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRepository_MigrateLegacy_RewritesOnlyLegacyDocuments(t *testing.T) {
	repo, mock := newMockRepository(t, &PostgresDialect{})

	mock.ExpectBegin()
	mock.ExpectQuery(`SELECT id, document FROM trades`).
		WillReturnRows(sqlmock.NewRows([]string{"id", "document"}).
			AddRow("a1", canonicalDocument).
			AddRow("b2", legacyDocument))
	mock.ExpectExec(`INSERT INTO trades .* ON CONFLICT`).
		WithArgs("b2", "2023-06-01", sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	n, err := repo.MigrateLegacy(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, n)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRepository_MigrateLegacy_NothingToDo(t *testing.T) {
	repo, mock := newMockRepository(t, &PostgresDialect{})

	mock.ExpectBegin()
	mock.ExpectQuery(`SELECT id, document FROM trades`).
		WillReturnRows(sqlmock.NewRows([]string{"id", "document"}).AddRow("a1", canonicalDocument))
	mock.ExpectCommit()

	n, err := repo.MigrateLegacy(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 0, n)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRepository_Rebind(t *testing.T) {
	oracle := NewRepository(New(nil, &OracleDialect{}))
	postgres := NewRepository(New(nil, &PostgresDialect{}))

	query := `UPDATE trades SET a = $1, b = $2 WHERE id = $3`
	assert.Equal(t, `UPDATE trades SET a = :1, b = :2 WHERE id = :3`, oracle.rebind(query))
	assert.Equal(t, query, postgres.rebind(query))
}
