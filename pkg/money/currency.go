package money

import (
	"fmt"
	"regexp"
)

var currencyCodeRe = regexp.MustCompile(`^[A-Z]{3}$`)

const maxDecimalPlaces = 6

// Currency is the metadata a Money value is tied to: ISO 4217 code, number of
// decimal places kept, and an optional rounding increment for installments.
type Currency struct {
	Code          string `json:"code"`
	DecimalPlaces int32  `json:"decimal_places"`
	// InMultiplesOf is the smallest unit installments are rounded to (e.g. 100 for IDR). Zero means unset.
	InMultiplesOf int64 `json:"in_multiples_of,omitempty"`
}

// NewCurrency validates the code and decimal places.
func NewCurrency(code string, decimalPlaces int32, inMultiplesOf int64) (Currency, error) {
	if !currencyCodeRe.MatchString(code) {
		return Currency{}, fmt.Errorf("invalid currency code %q: must be exactly 3 uppercase letters", code)
	}
	if decimalPlaces < 0 || decimalPlaces > maxDecimalPlaces {
		return Currency{}, fmt.Errorf("invalid decimal places %d for %s: must be between 0 and %d", decimalPlaces, code, maxDecimalPlaces)
	}
	if inMultiplesOf < 0 {
		return Currency{}, fmt.Errorf("invalid rounding increment %d for %s", inMultiplesOf, code)
	}
	return Currency{Code: code, DecimalPlaces: decimalPlaces, InMultiplesOf: inMultiplesOf}, nil
}

// MustCurrency panics on invalid input. Intended for package-level variables and tests.
func MustCurrency(code string, decimalPlaces int32) Currency {
	c, err := NewCurrency(code, decimalPlaces, 0)
	if err != nil {
		panic(err)
	}
	return c
}

func (c Currency) String() string {
	return c.Code
}

// Common currencies.
var (
	USD = MustCurrency("USD", 2)
	EUR = MustCurrency("EUR", 2)
	IDR = MustCurrency("IDR", 0)
)
