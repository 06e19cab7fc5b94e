/*
money.go - Exact monetary arithmetic in integer cents

PURPOSE:
  All benefit math runs in integer minor units (cents). Percentage and
  ratio operations go through decimal.Decimal and round back to cents
  half-up, so repeated identical evaluations produce identical results
  and no computation drifts by more than one minor unit.

KEY CONCEPTS:
  - Money: an amount in cents (int64). Never a float.
  - Rate: a decimal multiplier (e.g., 0.20 for the earned-income
    deduction, 0.30 for the benefit reduction formula).
  - Rounding: half-up to the cent for rate products; half-up to the
    dollar where a program's allotment rule mandates whole-dollar
    benefits.

USAGE:
  earned := engine.DollarsFromFloat(1500)          // $1,500.00
  ded := earned.MulRate(engine.RateFromFloat(0.2)) // $300.00

SEE ALSO:
  - deductions.go: Rate consumers
  - allotment.go: Benefit reduction and dollar rounding
*/
package engine

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// =============================================================================
// MONEY - Amount in integer cents
// =============================================================================

// Money is a monetary amount in cents. The zero value is $0.00.
type Money struct {
	cents int64
}

// Cents constructs a Money from an exact cent count.
func Cents(n int64) Money { return Money{cents: n} }

// Dollars constructs a Money from a whole dollar count.
func Dollars(n int64) Money { return Money{cents: n * 100} }

// DollarsFromFloat converts a float dollar figure (e.g., from JSON) to
// Money, rounding half-up to the cent.
func DollarsFromFloat(f float64) Money {
	d := decimal.NewFromFloat(f).Shift(2).Round(0)
	return Money{cents: d.IntPart()}
}

// ParseMoney parses a decimal dollar string such as "193.00".
func ParseMoney(s string) (Money, error) {
	d, err := decimal.NewFromString(s)
	if err != nil {
		return Money{}, fmt.Errorf("invalid money value %q: %w", s, err)
	}
	return Money{cents: d.Shift(2).Round(0).IntPart()}, nil
}

// MustMoney parses a decimal dollar string and panics on failure.
// For fixtures and presets only.
func MustMoney(s string) Money {
	m, err := ParseMoney(s)
	if err != nil {
		panic(err)
	}
	return m
}

func (m Money) Cents() int64       { return m.cents }
func (m Money) Add(o Money) Money  { return Money{cents: m.cents + o.cents} }
func (m Money) Sub(o Money) Money  { return Money{cents: m.cents - o.cents} }
func (m Money) Neg() Money         { return Money{cents: -m.cents} }
func (m Money) IsZero() bool       { return m.cents == 0 }
func (m Money) IsNegative() bool   { return m.cents < 0 }
func (m Money) IsPositive() bool   { return m.cents > 0 }
func (m Money) Equal(o Money) bool { return m.cents == o.cents }

func (m Money) GreaterThan(o Money) bool { return m.cents > o.cents }
func (m Money) LessThan(o Money) bool    { return m.cents < o.cents }

func (m Money) Min(o Money) Money {
	if m.LessThan(o) {
		return m
	}
	return o
}

func (m Money) Max(o Money) Money {
	if m.GreaterThan(o) {
		return m
	}
	return o
}

// FloorZero clamps negative amounts to zero. Deductions and benefit
// amounts never go below zero.
func (m Money) FloorZero() Money {
	if m.cents < 0 {
		return Money{}
	}
	return m
}

// MulInt multiplies by an integer count (e.g., per-additional-member
// allotment extension). Exact; no rounding involved.
func (m Money) MulInt(n int) Money { return Money{cents: m.cents * int64(n)} }

// MulRate multiplies by a decimal rate and rounds half-up to the cent.
func (m Money) MulRate(r Rate) Money {
	d := decimal.New(m.cents, 0).Mul(decimal.Decimal(r)).Round(0)
	return Money{cents: d.IntPart()}
}

// Half returns half the amount, rounded half-up to the cent.
func (m Money) Half() Money {
	d := decimal.New(m.cents, 0).Div(decimal.NewFromInt(2)).Round(0)
	return Money{cents: d.IntPart()}
}

// RoundToDollar rounds to the nearest whole dollar, half-up.
func (m Money) RoundToDollar() Money {
	d := decimal.New(m.cents, -2).Round(0)
	return Money{cents: d.IntPart() * 100}
}

// Decimal exposes the amount in dollars as a decimal.Decimal.
func (m Money) Decimal() decimal.Decimal { return decimal.New(m.cents, -2) }

// Float64 returns the dollar amount as a float for JSON serialization.
// Computation never happens on this value.
func (m Money) Float64() float64 {
	f, _ := m.Decimal().Float64()
	return f
}

func (m Money) String() string { return m.Decimal().StringFixed(2) }

// MarshalJSON encodes as a fixed two-decimal dollar string so audit
// records are byte-stable across runs.
func (m Money) MarshalJSON() ([]byte, error) {
	return []byte(`"` + m.Decimal().StringFixed(2) + `"`), nil
}

// UnmarshalJSON accepts either a quoted dollar string or a bare number.
func (m *Money) UnmarshalJSON(b []byte) error {
	s := string(b)
	if len(s) >= 2 && s[0] == '"' && s[len(s)-1] == '"' {
		s = s[1 : len(s)-1]
	}
	parsed, err := ParseMoney(s)
	if err != nil {
		return err
	}
	*m = parsed
	return nil
}

// =============================================================================
// RATE - Decimal multiplier for percentage rules
// =============================================================================

// Rate is a decimal multiplier (0.20 = 20%).
type Rate decimal.Decimal

// RateFromFloat converts a float (e.g., from JSON config) to a Rate.
func RateFromFloat(f float64) Rate { return Rate(decimal.NewFromFloat(f)) }

// ParseRate parses a decimal string such as "0.30".
func ParseRate(s string) (Rate, error) {
	d, err := decimal.NewFromString(s)
	if err != nil {
		return Rate{}, fmt.Errorf("invalid rate value %q: %w", s, err)
	}
	return Rate(d), nil
}

// MustRate parses a decimal string and panics on failure. Fixtures only.
func MustRate(s string) Rate {
	r, err := ParseRate(s)
	if err != nil {
		panic(err)
	}
	return r
}

func (r Rate) IsZero() bool { return decimal.Decimal(r).IsZero() }

func (r Rate) Float64() float64 {
	f, _ := decimal.Decimal(r).Float64()
	return f
}

func (r Rate) String() string { return decimal.Decimal(r).String() }

func (r Rate) MarshalJSON() ([]byte, error) {
	return []byte(`"` + decimal.Decimal(r).String() + `"`), nil
}

func (r *Rate) UnmarshalJSON(b []byte) error {
	s := string(b)
	if len(s) >= 2 && s[0] == '"' && s[len(s)-1] == '"' {
		s = s[1 : len(s)-1]
	}
	parsed, err := ParseRate(s)
	if err != nil {
		return err
	}
	*r = parsed
	return nil
}
