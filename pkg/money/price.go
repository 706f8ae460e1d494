// Package money provides the fixed two-decimal price type used by products.
package money

import (
	"database/sql/driver"
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
)

// Scale is the number of fractional digits a price carries.
const Scale = 2

// Max is the largest price the products table can hold (decimal(8,2)).
var Max = decimal.RequireFromString("999999.99")

// ErrInvalid is returned when a JSON price is null or not numeric.
var ErrInvalid = errors.New("money: invalid price")

// Price is a non-negative decimal amount with two fractional digits on the wire.
type Price struct {
	decimal.Decimal
}

// NewPrice parses a decimal string such as "19.99".
func NewPrice(s string) (Price, error) {
	d, err := decimal.NewFromString(s)
	if err != nil {
		return Price{}, fmt.Errorf("money: invalid price %q: %w", s, err)
	}
	return Price{Decimal: d}, nil
}

// MustPrice is like NewPrice but panics on malformed input.
func MustPrice(s string) Price {
	p, err := NewPrice(s)
	if err != nil {
		panic(err)
	}
	return p
}

// FromCents builds a price from an integer amount of cents.
func FromCents(cents int64) Price {
	return Price{Decimal: decimal.New(cents, -Scale)}
}

// HasValidScale reports whether the price has at most two fractional digits.
func (p Price) HasValidScale() bool {
	return p.Decimal.Equal(p.Decimal.Truncate(Scale))
}

// String renders the price with exactly two fractional digits.
func (p Price) String() string {
	return p.Decimal.StringFixed(Scale)
}

// MarshalJSON encodes the price as a quoted fixed-point string, e.g. "19.90".
func (p Price) MarshalJSON() ([]byte, error) {
	return []byte(`"` + p.String() + `"`), nil
}

// UnmarshalJSON accepts both JSON numbers and numeric strings.
func (p *Price) UnmarshalJSON(data []byte) error {
	if string(data) == "null" {
		return fmt.Errorf("%w: must not be null", ErrInvalid)
	}
	if err := p.Decimal.UnmarshalJSON(data); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalid, err)
	}
	return nil
}

// Scan implements sql.Scanner.
func (p *Price) Scan(value interface{}) error {
	return p.Decimal.Scan(value)
}

// Value implements driver.Valuer. The price is stored as a fixed-point string
// so NUMERIC columns never see binary float rounding.
func (p Price) Value() (driver.Value, error) {
	return p.String(), nil
}
