package domain

import "context"

// TradeRepository defines the interface for trade persistence.
// Every mutating method must have reached durable storage before it
// returns nil. Update and Delete return ErrTradeNotFound for unknown ids.
type TradeRepository interface {
	FindAll(ctx context.Context) ([]Trade, error)
	FindByID(ctx context.Context, id string) (*Trade, error)
	Insert(ctx context.Context, trade *Trade) error
	Update(ctx context.Context, trade *Trade) error
	Delete(ctx context.Context, id string) error
}

// LegacyMigrator is implemented by stores that may hold documents written
// with the old camelCase field names. MigrateLegacy rewrites them in the
// canonical form and reports how many records changed.
type LegacyMigrator interface {
	MigrateLegacy(ctx context.Context) (int, error)
}
