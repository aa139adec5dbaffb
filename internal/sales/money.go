package sales

import (
	"bytes"
	"database/sql/driver"
	"fmt"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"
)

const (
	moneyPlaces = 2

	// maxNumberLength and the exponent window bound the work decimal
	// rescaling can do on untrusted input.
	maxNumberLength = 40
	minExponent     = -20
	maxExponent     = 20
)

// MaxAmount is the largest amount a decimal(12,2) column holds.
var MaxAmount = MoneyFromCents(999_999_999_999)

// parseDecimal parses s and rejects overlong text and exponents outside
// [minExponent, maxExponent].
func parseDecimal(s string) (decimal.Decimal, error) {
	s = strings.TrimSpace(s)
	if len(s) > maxNumberLength {
		return decimal.Decimal{}, fmt.Errorf("number longer than %d characters", maxNumberLength)
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Decimal{}, err
	}
	if !exponentInRange(d) {
		return decimal.Decimal{}, fmt.Errorf("number %q is out of range", s)
	}
	return d, nil
}

func exponentInRange(d decimal.Decimal) bool {
	exp := d.Exponent()
	return exp >= minExponent && exp <= maxExponent
}

// Money is a fixed-point amount with exactly two fractional digits.
// The zero value is 0.00.
type Money struct {
	d decimal.Decimal
}

// NewMoney rounds d half away from zero to two fractional digits.
func NewMoney(d decimal.Decimal) Money {
	return Money{d: d.Round(moneyPlaces)}
}

// MoneyFromCents builds an amount from an integer count of hundredths.
func MoneyFromCents(cents int64) Money {
	return Money{d: decimal.New(cents, -moneyPlaces)}
}

// ParseMoney parses a decimal string such as "12.34".
func ParseMoney(s string) (Money, error) {
	d, err := parseDecimal(s)
	if err != nil {
		return Money{}, fmt.Errorf("invalid monetary amount %q", s)
	}
	return NewMoney(d), nil
}

func (m Money) Decimal() decimal.Decimal { return m.d }

// String returns the canonical form with exactly two fractional digits.
func (m Money) String() string { return m.d.StringFixed(moneyPlaces) }

func (m Money) Equal(other Money) bool { return m.d.Equal(other.d) }

func (m Money) IsPositive() bool { return m.d.IsPositive() }

func (m Money) IsNegative() bool { return m.d.IsNegative() }

func (m Money) GreaterThan(other Money) bool { return m.d.GreaterThan(other.d) }

func (m Money) Add(other Money) Money { return Money{d: m.d.Add(other.d)} }

// Times returns the exact product of m and a quantity.
func (m Money) Times(quantity int) decimal.Decimal {
	return m.d.Mul(decimal.NewFromInt(int64(quantity)))
}

func (m Money) MarshalJSON() ([]byte, error) {
	return []byte(strconv.Quote(m.String())), nil
}

// UnmarshalJSON accepts the canonical string form as well as a bare number.
func (m *Money) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		return nil
	}
	raw := string(data)
	if len(data) > 0 && data[0] == '"' {
		s, err := strconv.Unquote(raw)
		if err != nil {
			return fmt.Errorf("invalid monetary amount %s", raw)
		}
		raw = s
	}
	parsed, err := ParseMoney(raw)
	if err != nil {
		return err
	}
	*m = parsed
	return nil
}

func (m Money) Value() (driver.Value, error) {
	return m.String(), nil
}

func (m *Money) Scan(value interface{}) error {
	switch v := value.(type) {
	case nil:
		*m = Money{}
		return nil
	case string:
		parsed, err := ParseMoney(v)
		if err != nil {
			return err
		}
		*m = parsed
	case []byte:
		parsed, err := ParseMoney(string(v))
		if err != nil {
			return err
		}
		*m = parsed
	case float64:
		*m = NewMoney(decimal.NewFromFloat(v))
	case int64:
		*m = NewMoney(decimal.NewFromInt(v))
	default:
		return fmt.Errorf("cannot scan %T into Money", value)
	}
	return nil
}
