// Package money provides currency-safe rendering and arithmetic over the
// integer-cent amounts the import pipeline produces, using ISO-4217
// currency metadata.
package money

import (
	"encoding/json"
	"fmt"

	"github.com/Rhymond/go-money"
	"github.com/shopspring/decimal"
)

// FallbackCurrency is used when a record carries no currency code at all.
const FallbackCurrency = "EUR"

// Money is a monetary value in a currency's minor units.
type Money struct {
	m *money.Money
}

// New creates a Money value from cents (minor units) and a currency code.
// An empty code falls back to FallbackCurrency.
func New(amountCents int64, currencyCode string) *Money {
	if currencyCode == "" {
		currencyCode = FallbackCurrency
	}
	return &Money{m: money.New(amountCents, currencyCode)}
}

// Zero returns a zero value in the given currency.
func Zero(currencyCode string) *Money {
	return New(0, currencyCode)
}

// Amount returns the value in minor units.
func (m *Money) Amount() int64 {
	return m.m.Amount()
}

// Currency returns the ISO-4217 code.
func (m *Money) Currency() string {
	return m.m.Currency().Code
}

// IsNegative reports whether the value is below zero.
func (m *Money) IsNegative() bool {
	return m.m.IsNegative()
}

// Negate returns the value with the opposite sign.
func (m *Money) Negate() *Money {
	return New(-m.Amount(), m.Currency())
}

// Abs returns the absolute value.
func (m *Money) Abs() *Money {
	return &Money{m: m.m.Absolute()}
}

// Add sums two values of the same currency.
func (m *Money) Add(other *Money) (*Money, error) {
	sum, err := m.m.Add(other.m)
	if err != nil {
		return nil, fmt.Errorf("failed to add %s and %s: %w", m.Currency(), other.Currency(), err)
	}
	return &Money{m: sum}, nil
}

// Compare returns -1, 0 or 1. Comparing across currencies is a programming
// error and panics.
func (m *Money) Compare(other *Money) int {
	c, err := m.m.Compare(other.m)
	if err != nil {
		panic(fmt.Sprintf("money: comparing %s with %s", m.Currency(), other.Currency()))
	}
	return c
}

// Display renders the value with its currency symbol, e.g. "-$4.50".
func (m *Money) Display() string {
	return m.m.Display()
}

// String renders the numeric value and code, e.g. "-4.50 CAD".
func (m *Money) String() string {
	return fmt.Sprintf("%s %s", m.ToDecimal().StringFixed(int32(m.m.Currency().Fraction)), m.Currency())
}

// ToDecimal returns the value in major units as a decimal.
func (m *Money) ToDecimal() decimal.Decimal {
	return decimal.New(m.Amount(), -int32(m.m.Currency().Fraction))
}

type moneyJSON struct {
	AmountCents int64  `json:"amount_cents"`
	Currency    string `json:"currency"`
	Display     string `json:"display"`
}

// MarshalJSON emits the raw cents alongside a display string.
func (m *Money) MarshalJSON() ([]byte, error) {
	return json.Marshal(moneyJSON{
		AmountCents: m.Amount(),
		Currency:    m.Currency(),
		Display:     m.Display(),
	})
}

// UnmarshalJSON reads the cents-and-code form; the display field is ignored.
func (m *Money) UnmarshalJSON(data []byte) error {
	var v moneyJSON
	if err := json.Unmarshal(data, &v); err != nil {
		return fmt.Errorf("failed to decode money value: %w", err)
	}
	m.m = New(v.AmountCents, v.Currency).m
	return nil
}
