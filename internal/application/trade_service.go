package application

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/jmanzanog/trade-journal/internal/domain"
)

type TradeService struct {
	repo domain.TradeRepository
	now  func() time.Time

	// mu serializes the read-modify-persist sequence of every mutation.
	mu sync.Mutex
}

func NewTradeService(repo domain.TradeRepository) *TradeService {
	return &TradeService{
		repo: repo,
		now:  domain.Now,
	}
}

// MigrateLegacy runs the legacy field-name pass when the repository
// supports it. It is safe to call on every startup.
func (s *TradeService) MigrateLegacy(ctx context.Context) (int, error) {
	migrator, ok := s.repo.(domain.LegacyMigrator)
	if !ok {
		return 0, nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	n, err := migrator.MigrateLegacy(ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to migrate legacy trades: %w", err)
	}
	if n > 0 {
		slog.InfoContext(ctx, "Normalized legacy trade records", "count", n)
	}
	return n, nil
}

func (s *TradeService) ListTrades(ctx context.Context) ([]domain.Trade, error) {
	trades, err := s.repo.FindAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list trades: %w", err)
	}
	if trades == nil {
		trades = []domain.Trade{}
	}
	return trades, nil
}

func (s *TradeService) GetTrade(ctx context.Context, id string) (*domain.Trade, error) {
	trade, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to get trade: %w", err)
	}
	return trade, nil
}

func (s *TradeService) CreateTrade(ctx context.Context, raw map[string]any) (*domain.Trade, error) {
	input, errs := domain.ValidateTradeInput(raw)
	if len(errs) > 0 {
		return nil, &domain.ValidationError{Errors: errs}
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	trade := domain.NewTrade(input, s.now())
	if err := s.repo.Insert(ctx, &trade); err != nil {
		return nil, fmt.Errorf("failed to save trade: %w", err)
	}

	slog.DebugContext(ctx, "Trade created", "trade_id", trade.ID, "instrument", trade.Instrument)
	return &trade, nil
}

func (s *TradeService) UpdateTrade(ctx context.Context, id string, raw map[string]any) (*domain.Trade, error) {
	input, errs := domain.ValidateTradeInput(raw)
	if len(errs) > 0 {
		return nil, &domain.ValidationError{Errors: errs}
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	trade, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to get trade: %w", err)
	}

	trade.Apply(input, s.now())
	if err := s.repo.Update(ctx, trade); err != nil {
		return nil, fmt.Errorf("failed to save trade: %w", err)
	}

	slog.DebugContext(ctx, "Trade updated", "trade_id", trade.ID)
	return trade, nil
}

// DeleteTrade removes the trade and returns the state it had before removal.
func (s *TradeService) DeleteTrade(ctx context.Context, id string) (*domain.Trade, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	trade, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to get trade: %w", err)
	}

	if err := s.repo.Delete(ctx, id); err != nil {
		return nil, fmt.Errorf("failed to delete trade: %w", err)
	}

	slog.DebugContext(ctx, "Trade deleted", "trade_id", id)
	return trade, nil
}
