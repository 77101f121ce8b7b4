package money

import (
	"fmt"
	"regexp"

	"github.com/shopspring/decimal"
)

var currencyCodeRe = regexp.MustCompile(`^[A-Z]{3}$`)

// Currency is an ISO 4217 currency code together with the precision rules a
// loan product declares for it: the number of digits kept after the decimal
// point and an optional "in multiples of" step (cash rounding, e.g. 5 rounds
// amounts to the nearest 5 currency units).
type Currency struct {
	code          string
	digits        int32
	inMultiplesOf int64
}

// NewCurrency creates a Currency after validating the code and precision.
func NewCurrency(code string, digits int32, inMultiplesOf int64) (Currency, error) {
	if !currencyCodeRe.MatchString(code) {
		return Currency{}, fmt.Errorf("invalid currency code %q: must be exactly 3 uppercase letters", code)
	}
	if digits < 0 || digits > 6 {
		return Currency{}, fmt.Errorf("invalid digits after decimal %d: must be between 0 and 6", digits)
	}
	if inMultiplesOf < 0 {
		return Currency{}, fmt.Errorf("invalid rounding multiple %d: must not be negative", inMultiplesOf)
	}
	return Currency{code: code, digits: digits, inMultiplesOf: inMultiplesOf}, nil
}

// MustCurrency creates a Currency and panics on error. Intended for
// package-level variable initialization only.
func MustCurrency(code string, digits int32, inMultiplesOf int64) Currency {
	c, err := NewCurrency(code, digits, inMultiplesOf)
	if err != nil {
		panic(err)
	}
	return c
}

// Code returns the ISO 4217 currency code.
func (c Currency) Code() string { return c.code }

// Digits returns the number of digits kept after the decimal point.
func (c Currency) Digits() int32 { return c.digits }

// InMultiplesOf returns the cash-rounding step, or zero when none applies.
func (c Currency) InMultiplesOf() int64 { return c.inMultiplesOf }

// IsZero reports whether the currency has not been initialised.
func (c Currency) IsZero() bool { return c.code == "" }

// String returns the currency code.
func (c Currency) String() string { return c.code }

// Round applies the currency's precision to an amount: half-up rounding to the
// declared digits, then rounding to the nearest declared multiple when one is
// configured. Rounding is applied at the installment-amount level only; callers
// must not round intermediate sub-cent values.
func (c Currency) Round(d decimal.Decimal) decimal.Decimal {
	out := d.Round(c.digits)
	if c.inMultiplesOf > 0 {
		step := decimal.NewFromInt(c.inMultiplesOf)
		out = out.Div(step).Round(0).Mul(step)
	}
	return out
}

// Common currencies with conventional precision.
var (
	USD = MustCurrency("USD", 2, 0)
	EUR = MustCurrency("EUR", 2, 0)
	INR = MustCurrency("INR", 2, 0)
)

// Money represents an immutable monetary amount with currency.
// Fields are unexported to enforce immutability.
type Money struct {
	amount   decimal.Decimal
	currency Currency
}

// New creates a Money value from a decimal amount and currency.
func New(amount decimal.Decimal, currency Currency) Money {
	return Money{amount: amount, currency: currency}
}

// NewFromString parses an amount string into a Money value.
func NewFromString(amount string, currency Currency) (Money, error) {
	d, err := decimal.NewFromString(amount)
	if err != nil {
		return Money{}, fmt.Errorf("invalid amount %q: %w", amount, err)
	}
	return Money{amount: d, currency: currency}, nil
}

// Zero returns a Money value of zero in the given currency.
func Zero(currency Currency) Money {
	return Money{amount: decimal.Zero, currency: currency}
}

// Amount returns the decimal amount.
func (m Money) Amount() decimal.Decimal { return m.amount }

// Currency returns the currency.
func (m Money) Currency() Currency { return m.currency }

// IsZero returns true if the amount is zero.
func (m Money) IsZero() bool { return m.amount.IsZero() }

// IsPositive returns true if the amount is strictly greater than zero.
func (m Money) IsPositive() bool { return m.amount.IsPositive() }

// IsNegative returns true if the amount is strictly less than zero.
func (m Money) IsNegative() bool { return m.amount.IsNegative() }

// Add returns the sum of m and other. Returns an error if the currencies do not match.
func (m Money) Add(other Money) (Money, error) {
	if m.currency.code != other.currency.code {
		return Money{}, fmt.Errorf("currency mismatch: cannot add %s to %s", other.currency, m.currency)
	}
	return Money{amount: m.amount.Add(other.amount), currency: m.currency}, nil
}

// Subtract returns the difference of m minus other. Returns an error if the currencies do not match.
func (m Money) Subtract(other Money) (Money, error) {
	if m.currency.code != other.currency.code {
		return Money{}, fmt.Errorf("currency mismatch: cannot subtract %s from %s", other.currency, m.currency)
	}
	return Money{amount: m.amount.Sub(other.amount), currency: m.currency}, nil
}

// Multiply returns m multiplied by the given factor.
func (m Money) Multiply(factor decimal.Decimal) Money {
	return Money{amount: m.amount.Mul(factor), currency: m.currency}
}

// Rounded returns m with the currency's precision applied.
func (m Money) Rounded() Money {
	return Money{amount: m.currency.Round(m.amount), currency: m.currency}
}

// Negate returns m with the sign of the amount flipped.
func (m Money) Negate() Money {
	return Money{amount: m.amount.Neg(), currency: m.currency}
}

// Equal returns true if both the amount and currency of m and other are equal.
func (m Money) Equal(other Money) bool {
	return m.currency.code == other.currency.code && m.amount.Equal(other.amount)
}

// String formats the Money value as "<amount> <currency>", for example "100.00 USD".
func (m Money) String() string {
	return fmt.Sprintf("%s %s", m.amount.StringFixed(m.currency.digits), m.currency.Code())
}
