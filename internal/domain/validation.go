package domain

import (
	"encoding/json"
	"fmt"
	"regexp"
	"sort"
	"strings"
	"time"
	"unicode/utf8"
)

const (
	InstrumentMinLength = 2
	InstrumentMaxLength = 50
	NotesMaxLength      = 500
)

// Input field names accepted in request bodies.
const (
	FieldInstrument = "instrument"
	FieldEntryPrice = "entryPrice"
	FieldExitPrice  = "exitPrice"
	FieldTradeDate  = "tradeDate"
	FieldProfitLoss = "profitLoss"
	FieldNotes      = "notes"
)

var (
	decimalPattern = regexp.MustCompile(`^[+-]?\d*\.?\d+$`)
	datePattern    = regexp.MustCompile(`^\d{4}-\d{2}-\d{2}$`)
)

var knownFields = map[string]bool{
	FieldInstrument: true,
	FieldEntryPrice: true,
	FieldExitPrice:  true,
	FieldTradeDate:  true,
	FieldProfitLoss: true,
	FieldNotes:      true,
}

type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// ValidationError carries every violation found in one input.
type ValidationError struct {
	Errors []FieldError
}

func (e *ValidationError) Error() string {
	msgs := make([]string, 0, len(e.Errors))
	for _, fe := range e.Errors {
		msgs = append(msgs, fe.Message)
	}
	return "validation failed: " + strings.Join(msgs, "; ")
}

// ValidateTradeInput checks raw against the trade schema. All fields are
// evaluated; the returned slice holds at most one error per field, in
// schema order followed by unknown keys sorted by name. Numeric strings
// are coerced to decimals and notes defaults to "".
func ValidateTradeInput(raw map[string]any) (TradeInput, []FieldError) {
	var (
		input TradeInput
		errs  []FieldError
	)
	fail := func(field, format string, args ...any) {
		errs = append(errs, FieldError{Field: field, Message: fmt.Sprintf(format, args...)})
	}

	if v, ok := raw[FieldInstrument]; !ok {
		fail(FieldInstrument, "%q is required", FieldInstrument)
	} else if s, isString := v.(string); !isString {
		fail(FieldInstrument, "%q must be a string", FieldInstrument)
	} else {
		switch n := utf8.RuneCountInString(s); {
		case n == 0:
			fail(FieldInstrument, "%q is not allowed to be empty", FieldInstrument)
		case n < InstrumentMinLength:
			fail(FieldInstrument, "%q length must be at least %d characters long", FieldInstrument, InstrumentMinLength)
		case n > InstrumentMaxLength:
			fail(FieldInstrument, "%q length must be less than or equal to %d characters long", FieldInstrument, InstrumentMaxLength)
		default:
			input.Instrument = s
		}
	}

	for _, f := range []struct {
		name string
		dst  *Decimal
	}{
		{FieldEntryPrice, &input.EntryPrice},
		{FieldExitPrice, &input.ExitPrice},
	} {
		if msg := coerceDecimal(raw, f.name, f.dst); msg != "" {
			fail(f.name, "%s", msg)
		}
	}

	if v, ok := raw[FieldTradeDate]; !ok {
		fail(FieldTradeDate, "%q is required", FieldTradeDate)
	} else if s, isString := v.(string); !isString || !isCalendarDate(s) {
		fail(FieldTradeDate, "%q must be in YYYY-MM-DD format", FieldTradeDate)
	} else {
		input.TradeDate = s
	}

	if msg := coerceDecimal(raw, FieldProfitLoss, &input.ProfitLoss); msg != "" {
		fail(FieldProfitLoss, "%s", msg)
	}

	if v, ok := raw[FieldNotes]; ok {
		if s, isString := v.(string); !isString {
			fail(FieldNotes, "%q must be a string", FieldNotes)
		} else if utf8.RuneCountInString(s) > NotesMaxLength {
			fail(FieldNotes, "%q length must be less than or equal to %d characters long", FieldNotes, NotesMaxLength)
		} else {
			input.Notes = s
		}
	}

	var unknown []string
	for key := range raw {
		if !knownFields[key] {
			unknown = append(unknown, key)
		}
	}
	sort.Strings(unknown)
	for _, key := range unknown {
		fail(key, "%q is not allowed", key)
	}

	return input, errs
}

// coerceDecimal reads raw[field] into dst and returns a message when the
// value is missing or not an acceptable number.
func coerceDecimal(raw map[string]any, field string, dst *Decimal) string {
	v, ok := raw[field]
	if !ok {
		return fmt.Sprintf("%q is required", field)
	}

	var (
		d   Decimal
		err error
	)
	switch n := v.(type) {
	case json.Number:
		d, err = NewDecimalFromString(n.String())
	case float64:
		d, err = NewDecimalFromFloat(n)
	case float32:
		d, err = NewDecimalFromFloat(float64(n))
	case int:
		d = NewDecimalFromInt(int64(n))
	case int64:
		d = NewDecimalFromInt(n)
	case int32:
		d = NewDecimalFromInt(int64(n))
	case string:
		if !decimalPattern.MatchString(n) {
			return fmt.Sprintf("%q must be a number", field)
		}
		d, err = NewDecimalFromString(n)
	default:
		return fmt.Sprintf("%q must be a number", field)
	}
	if err != nil {
		return fmt.Sprintf("%q must be a number", field)
	}

	*dst = d
	return ""
}

func isCalendarDate(s string) bool {
	if !datePattern.MatchString(s) {
		return false
	}
	_, err := time.Parse(DateLayout, s)
	return err == nil
}
