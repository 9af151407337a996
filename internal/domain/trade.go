package domain

import (
	"errors"
	"time"

	"github.com/google/uuid"
)

var ErrTradeNotFound = errors.New("trade not found")

// TimestampPrecision is the resolution of created_at and updated_at.
const TimestampPrecision = time.Millisecond

const DateLayout = "2006-01-02"

type Trade struct {
	ID         string    `json:"id" yaml:"id" gorm:"primaryKey;size:36"`
	Instrument string    `json:"instrument" yaml:"instrument" gorm:"size:50;not null"`
	EntryPrice Decimal   `json:"entry_price" yaml:"entry_price" gorm:"type:text;not null"`
	ExitPrice  Decimal   `json:"exit_price" yaml:"exit_price" gorm:"type:text;not null"`
	TradeDate  string    `json:"trade_date" yaml:"trade_date" gorm:"size:10;not null;index"`
	ProfitLoss Decimal   `json:"profit_loss" yaml:"profit_loss" gorm:"type:text;not null"`
	Notes      string    `json:"notes" yaml:"notes" gorm:"size:500;not null;default:''"`
	CreatedAt  time.Time `json:"created_at" yaml:"created_at" gorm:"autoCreateTime:false"`
	UpdatedAt  time.Time `json:"updated_at" yaml:"updated_at" gorm:"autoUpdateTime:false"`
}

// TradeInput is the normalized form of a request body, produced by
// ValidateTradeInput. It carries every editable field of a Trade.
type TradeInput struct {
	Instrument string
	EntryPrice Decimal
	ExitPrice  Decimal
	TradeDate  string
	ProfitLoss Decimal
	Notes      string
}

// Now returns the current time at the precision trades are stamped with.
func Now() time.Time {
	return time.Now().UTC().Truncate(TimestampPrecision)
}

func NewTrade(input TradeInput, now time.Time) Trade {
	t := Trade{
		ID:        uuid.New().String(),
		CreatedAt: now,
		UpdatedAt: now,
	}
	t.setFields(input)
	return t
}

// Apply replaces every editable field from input and moves UpdatedAt
// forward. UpdatedAt always ends up strictly after its previous value,
// even when the clock has not advanced past it.
func (t *Trade) Apply(input TradeInput, now time.Time) {
	t.setFields(input)
	if !now.After(t.UpdatedAt) {
		now = t.UpdatedAt.Add(TimestampPrecision)
	}
	t.UpdatedAt = now
}

func (t *Trade) setFields(input TradeInput) {
	t.Instrument = input.Instrument
	t.EntryPrice = input.EntryPrice
	t.ExitPrice = input.ExitPrice
	t.TradeDate = input.TradeDate
	t.ProfitLoss = input.ProfitLoss
	t.Notes = input.Notes
}

// Equal compares by value; decimals compare numerically and timestamps
// compare as instants.
func (t Trade) Equal(o Trade) bool {
	return t.ID == o.ID &&
		t.Instrument == o.Instrument &&
		t.EntryPrice.Equal(o.EntryPrice) &&
		t.ExitPrice.Equal(o.ExitPrice) &&
		t.TradeDate == o.TradeDate &&
		t.ProfitLoss.Equal(o.ProfitLoss) &&
		t.Notes == o.Notes &&
		t.CreatedAt.Equal(o.CreatedAt) &&
		t.UpdatedAt.Equal(o.UpdatedAt)
}
