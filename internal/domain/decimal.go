package domain

import (
	"database/sql/driver"
	"fmt"
	"strconv"

	"github.com/cockroachdb/apd/v3"
	"gopkg.in/yaml.v3"
)

// Decimal wraps apd.Decimal so prices keep the exact digits they were
// entered with while still being emitted as plain JSON numbers.
type Decimal struct {
	apd.Decimal
}

// NewDecimalFromString parses a finite decimal literal.
func NewDecimalFromString(v string) (Decimal, error) {
	d := Decimal{}
	if _, _, err := d.SetString(v); err != nil {
		return d, fmt.Errorf("invalid decimal string %q: %w", v, err)
	}
	if d.Form != apd.Finite {
		return Decimal{}, fmt.Errorf("invalid decimal string %q: not a finite number", v)
	}
	return d, nil
}

// NewDecimalFromFloat converts a float64 using its shortest round-trip form.
func NewDecimalFromFloat(v float64) (Decimal, error) {
	return NewDecimalFromString(strconv.FormatFloat(v, 'f', -1, 64))
}

func NewDecimalFromInt(v int64) Decimal {
	d := Decimal{}
	d.SetInt64(v)
	return d
}

func MustDecimal(v string) Decimal {
	d, err := NewDecimalFromString(v)
	if err != nil {
		panic(err)
	}
	return d
}

func (d Decimal) String() string {
	return d.Decimal.String()
}

func (d Decimal) Equal(other Decimal) bool {
	return d.Decimal.Cmp(&other.Decimal) == 0
}

func (d Decimal) Cmp(other Decimal) int {
	return d.Decimal.Cmp(&other.Decimal)
}

// Value implements the driver.Valuer interface for database serialization.
func (d Decimal) Value() (driver.Value, error) {
	return d.String(), nil
}

// Scan implements the sql.Scanner interface for database deserialization.
func (d *Decimal) Scan(value interface{}) error {
	if value == nil {
		d.SetInt64(0)
		return nil
	}

	var (
		parsed Decimal
		err    error
	)
	switch v := value.(type) {
	case []byte:
		parsed, err = NewDecimalFromString(string(v))
	case string:
		parsed, err = NewDecimalFromString(v)
	case int64:
		d.SetInt64(v)
		return nil
	case float64:
		parsed, err = NewDecimalFromFloat(v)
	default:
		return fmt.Errorf("unsupported type for Decimal scan: %T", value)
	}
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}

// MarshalJSON writes the decimal as a bare JSON number.
func (d Decimal) MarshalJSON() ([]byte, error) {
	return []byte(d.String()), nil
}

// UnmarshalJSON accepts both numbers and quoted numeric strings, which is
// how older journal files stored prices.
func (d *Decimal) UnmarshalJSON(data []byte) error {
	s := string(data)
	if len(s) > 1 && s[0] == '"' && s[len(s)-1] == '"' {
		s = s[1 : len(s)-1]
	}
	parsed, err := NewDecimalFromString(s)
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}

// MarshalYAML emits the decimal as an untagged float scalar.
func (d Decimal) MarshalYAML() (interface{}, error) {
	return &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!float", Value: d.String()}, nil
}
