package file

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"slices"
	"sync"

	"github.com/google/renameio/v2"
	"github.com/jmanzanog/trade-journal/internal/domain"
)

const filePerm = 0o644

// Repository mirrors the whole journal in memory and rewrites the JSON
// file on every mutation. The in-memory slice is only replaced after the
// new file has been atomically renamed into place, so a failed write
// leaves both copies at their previous state.
type Repository struct {
	mu     sync.RWMutex
	path   string
	trades []domain.Trade
}

// Open loads the journal at path, creating an empty one if it does not
// exist, and normalizes any legacy records it finds.
func Open(ctx context.Context, path string) (*Repository, error) {
	r := &Repository{path: path}

	if err := r.ensureFile(); err != nil {
		return nil, err
	}

	if _, err := r.MigrateLegacy(ctx); err != nil {
		return nil, err
	}

	return r, nil
}

func (r *Repository) Path() string {
	return r.path
}

func (r *Repository) ensureFile() error {
	_, err := os.Stat(r.path)
	if err == nil {
		return nil
	}
	if !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("stat journal file: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(r.path), 0o755); err != nil {
		return fmt.Errorf("creating journal directory: %w", err)
	}

	slog.Info("Journal file not found, creating an empty one", "path", r.path)
	return r.write([]domain.Trade{})
}

// MigrateLegacy reloads the file from disk, rewrites legacy field names
// and persists the result if anything changed.
func (r *Repository) MigrateLegacy(ctx context.Context) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	data, err := os.ReadFile(r.path)
	if err != nil {
		return 0, fmt.Errorf("reading journal file: %w", err)
	}

	docs, err := domain.DecodeDocuments(data)
	if err != nil {
		return 0, fmt.Errorf("parsing journal file %s: %w", r.path, err)
	}

	changed := domain.NormalizeDocuments(docs)

	trades := make([]domain.Trade, 0, len(docs))
	for i, doc := range docs {
		trade, err := doc.Trade()
		if err != nil {
			return 0, fmt.Errorf("record %d in %s: %w", i, r.path, err)
		}
		trades = append(trades, trade)
	}

	if changed > 0 {
		if err := r.write(trades); err != nil {
			return 0, err
		}
		slog.InfoContext(ctx, "Rewrote journal file with canonical field names", "path", r.path, "changed", changed)
	}

	r.trades = trades
	return changed, nil
}

func (r *Repository) FindAll(ctx context.Context) ([]domain.Trade, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return slices.Clone(r.trades), nil
}

func (r *Repository) FindByID(ctx context.Context, id string) (*domain.Trade, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if i := r.indexOf(id); i >= 0 {
		trade := r.trades[i]
		return &trade, nil
	}
	return nil, domain.ErrTradeNotFound
}

func (r *Repository) Insert(ctx context.Context, trade *domain.Trade) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	next := append(slices.Clone(r.trades), *trade)
	return r.commit(next)
}

func (r *Repository) Update(ctx context.Context, trade *domain.Trade) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	i := r.indexOf(trade.ID)
	if i < 0 {
		return domain.ErrTradeNotFound
	}

	next := slices.Clone(r.trades)
	next[i] = *trade
	return r.commit(next)
}

func (r *Repository) Delete(ctx context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	i := r.indexOf(id)
	if i < 0 {
		return domain.ErrTradeNotFound
	}

	next := slices.Delete(slices.Clone(r.trades), i, i+1)
	return r.commit(next)
}

// commit must be called with r.mu held.
func (r *Repository) commit(next []domain.Trade) error {
	if err := r.write(next); err != nil {
		slog.Error("Failed to write journal file", "path", r.path, "error", err)
		return err
	}
	r.trades = next
	return nil
}

func (r *Repository) write(trades []domain.Trade) error {
	data, err := json.MarshalIndent(trades, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding journal: %w", err)
	}
	data = append(data, '\n')

	if err := renameio.WriteFile(r.path, data, filePerm); err != nil {
		return fmt.Errorf("writing journal file: %w", err)
	}
	return nil
}

func (r *Repository) indexOf(id string) int {
	return slices.IndexFunc(r.trades, func(t domain.Trade) bool { return t.ID == id })
}
