package money

import (
	"encoding/json"
	"fmt"

	"github.com/shopspring/decimal"

	customError "github.com/segyhp/amortization-engine/pkg/errors"
)

// Money is an immutable amount kept at its currency's decimal places.
type Money struct {
	amount   decimal.Decimal
	currency Currency
}

// New rounds amount half-even to the currency's places.
func New(amount decimal.Decimal, currency Currency) Money {
	return NewRounded(amount, currency, HalfEven)
}

// NewRounded rounds amount to the currency's places with the given mode.
func NewRounded(amount decimal.Decimal, currency Currency, mode RoundingMode) Money {
	return Money{amount: Round(amount, currency.DecimalPlaces, mode), currency: currency}
}

// NewFromString parses an amount for the given currency.
func NewFromString(amount string, currency Currency) (Money, error) {
	d, err := decimal.NewFromString(amount)
	if err != nil {
		return Money{}, fmt.Errorf("invalid amount %q: %w", amount, err)
	}
	return New(d, currency), nil
}

// Zero returns a zero amount of the currency.
func Zero(currency Currency) Money {
	return Money{amount: decimal.Zero, currency: currency}
}

func (m Money) Amount() decimal.Decimal {
	return m.amount
}

func (m Money) Currency() Currency {
	return m.currency
}

func (m Money) IsZero() bool {
	return m.amount.IsZero()
}

func (m Money) IsPositive() bool {
	return m.amount.IsPositive()
}

func (m Money) IsNegative() bool {
	return m.amount.IsNegative()
}

func (m Money) sameCurrency(other Money) error {
	if m.currency.Code != other.currency.Code {
		return customError.WrapCurrencyMismatch(m.currency.Code, other.currency.Code)
	}
	return nil
}

// Add returns m + other. Returns an error if the currencies do not match.
func (m Money) Add(other Money) (Money, error) {
	if err := m.sameCurrency(other); err != nil {
		return Money{}, err
	}
	return Money{amount: m.amount.Add(other.amount), currency: m.currency}, nil
}

// Sub returns m - other. Returns an error if the currencies do not match.
func (m Money) Sub(other Money) (Money, error) {
	if err := m.sameCurrency(other); err != nil {
		return Money{}, err
	}
	return Money{amount: m.amount.Sub(other.amount), currency: m.currency}, nil
}

// Mul multiplies by factor and rounds the product with mode.
func (m Money) Mul(factor decimal.Decimal, mode RoundingMode) Money {
	return NewRounded(m.amount.Mul(factor), m.currency, mode)
}

// Div divides by divisor and rounds the quotient with mode. Division by zero panics,
// matching decimal.Decimal.
func (m Money) Div(divisor decimal.Decimal, mode RoundingMode) Money {
	return NewRounded(m.amount.Div(divisor), m.currency, mode)
}

// RoundToMultiplesOf rounds to the nearest multiple of step, ties up.
func (m Money) RoundToMultiplesOf(step decimal.Decimal) Money {
	return Money{amount: RoundToMultiple(m.amount, step), currency: m.currency}
}

// Cmp compares two amounts of the same currency.
func (m Money) Cmp(other Money) (int, error) {
	if err := m.sameCurrency(other); err != nil {
		return 0, err
	}
	return m.amount.Cmp(other.amount), nil
}

// Equal is true when both currency and amount match.
func (m Money) Equal(other Money) bool {
	return m.currency.Code == other.currency.Code && m.amount.Equal(other.amount)
}

func (m Money) Negate() Money {
	return Money{amount: m.amount.Neg(), currency: m.currency}
}

// String formats as "<amount> <code>", e.g. "100.00 USD".
func (m Money) String() string {
	return fmt.Sprintf("%s %s", m.amount.StringFixed(m.currency.DecimalPlaces), m.currency.Code)
}

type moneyJSON struct {
	Currency      string `json:"currency"`
	DecimalPlaces int32  `json:"decimal_places"`
	Amount        string `json:"amount"`
}

func (m Money) MarshalJSON() ([]byte, error) {
	return json.Marshal(moneyJSON{
		Currency:      m.currency.Code,
		DecimalPlaces: m.currency.DecimalPlaces,
		Amount:        m.amount.StringFixed(m.currency.DecimalPlaces),
	})
}

func (m *Money) UnmarshalJSON(data []byte) error {
	var raw moneyJSON
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	currency, err := NewCurrency(raw.Currency, raw.DecimalPlaces, 0)
	if err != nil {
		return err
	}
	parsed, err := NewFromString(raw.Amount, currency)
	if err != nil {
		return err
	}
	*m = parsed
	return nil
}
