package gormdb

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/jmanzanog/trade-journal/internal/domain"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// editableColumns are written by Update. id and created_at never change.
var editableColumns = []string{
	"instrument", "entry_price", "exit_price", "trade_date", "profit_loss", "notes", "updated_at",
}

// Repository implements domain.TradeRepository on a typed trades table
// managed by GORM.
type Repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// OpenSQLite opens the SQLite database at dsn and migrates the schema.
func OpenSQLite(dsn string) (*Repository, error) {
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to open sqlite database: %w", err)
	}

	repo := NewRepository(db)
	if err := repo.AutoMigrate(); err != nil {
		return nil, err
	}
	return repo, nil
}

func (r *Repository) AutoMigrate() error {
	if err := r.db.AutoMigrate(&domain.Trade{}); err != nil {
		return fmt.Errorf("failed to migrate trades table: %w", err)
	}
	return nil
}

// Close releases the underlying connection pool.
func (r *Repository) Close() error {
	sqlDB, err := r.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

func (r *Repository) FindAll(ctx context.Context) ([]domain.Trade, error) {
	trades := []domain.Trade{}
	if err := r.db.WithContext(ctx).Order("trade_date DESC").Order("created_at DESC").Find(&trades).Error; err != nil {
		return nil, fmt.Errorf("failed to list trades: %w", err)
	}
	return trades, nil
}

func (r *Repository) FindByID(ctx context.Context, id string) (*domain.Trade, error) {
	var trade domain.Trade
	if err := r.db.WithContext(ctx).First(&trade, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			slog.Debug("Trade not found", "trade_id", id)
			return nil, domain.ErrTradeNotFound
		}
		slog.Error("Failed to find trade", "trade_id", id, "error", err)
		return nil, fmt.Errorf("failed to find trade: %w", err)
	}
	return &trade, nil
}

func (r *Repository) Insert(ctx context.Context, trade *domain.Trade) error {
	if err := r.db.WithContext(ctx).Create(trade).Error; err != nil {
		slog.Error("Failed to insert trade", "trade_id", trade.ID, "error", err)
		return fmt.Errorf("failed to insert trade: %w", err)
	}
	return nil
}

func (r *Repository) Update(ctx context.Context, trade *domain.Trade) error {
	res := r.db.WithContext(ctx).
		Model(&domain.Trade{}).
		Where("id = ?", trade.ID).
		Select(editableColumns).
		Updates(trade)
	if res.Error != nil {
		slog.Error("Failed to update trade", "trade_id", trade.ID, "error", res.Error)
		return fmt.Errorf("failed to update trade: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return domain.ErrTradeNotFound
	}
	return nil
}

func (r *Repository) Delete(ctx context.Context, id string) error {
	res := r.db.WithContext(ctx).Delete(&domain.Trade{}, "id = ?", id)
	if res.Error != nil {
		return fmt.Errorf("failed to delete trade: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return domain.ErrTradeNotFound
	}
	return nil
}
