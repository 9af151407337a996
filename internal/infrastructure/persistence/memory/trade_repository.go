package memory

import (
	"context"
	"sync"

	"github.com/jmanzanog/trade-journal/internal/domain"
)

// TradeRepository keeps trades in process memory in insertion order.
// Nothing survives a restart; it backs STORAGE_DRIVER=memory and tests.
type TradeRepository struct {
	mu     sync.RWMutex
	trades map[string]domain.Trade
	order  []string
}

func NewTradeRepository() *TradeRepository {
	return &TradeRepository{
		trades: make(map[string]domain.Trade),
	}
}

func (r *TradeRepository) FindAll(ctx context.Context) ([]domain.Trade, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	trades := make([]domain.Trade, 0, len(r.order))
	for _, id := range r.order {
		trades = append(trades, r.trades[id])
	}

	return trades, nil
}

func (r *TradeRepository) FindByID(ctx context.Context, id string) (*domain.Trade, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	trade, exists := r.trades[id]
	if !exists {
		return nil, domain.ErrTradeNotFound
	}

	return &trade, nil
}

func (r *TradeRepository) Insert(ctx context.Context, trade *domain.Trade) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.trades[trade.ID]; !exists {
		r.order = append(r.order, trade.ID)
	}
	r.trades[trade.ID] = *trade
	return nil
}

func (r *TradeRepository) Update(ctx context.Context, trade *domain.Trade) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.trades[trade.ID]; !exists {
		return domain.ErrTradeNotFound
	}

	r.trades[trade.ID] = *trade
	return nil
}

func (r *TradeRepository) Delete(ctx context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.trades[id]; !exists {
		return domain.ErrTradeNotFound
	}

	delete(r.trades, id)
	for i, existing := range r.order {
		if existing == id {
			r.order = append(r.order[:i], r.order[i+1:]...)
			break
		}
	}
	return nil
}
