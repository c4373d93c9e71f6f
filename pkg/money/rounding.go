package money

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

// RoundingMode selects how amounts are brought to a currency's decimal places.
type RoundingMode string

const (
	HalfEven RoundingMode = "HALF_EVEN"
	HalfUp   RoundingMode = "HALF_UP"
	HalfDown RoundingMode = "HALF_DOWN"
	Up       RoundingMode = "UP"
	Down     RoundingMode = "DOWN"
	Ceiling  RoundingMode = "CEILING"
	Floor    RoundingMode = "FLOOR"
)

// ParseRoundingMode accepts the mode names case-insensitively.
func ParseRoundingMode(s string) (RoundingMode, error) {
	mode := RoundingMode(strings.ToUpper(strings.TrimSpace(s)))
	if err := mode.Validate(); err != nil {
		return "", err
	}
	return mode, nil
}

func (m RoundingMode) Validate() error {
	switch m {
	case HalfEven, HalfUp, HalfDown, Up, Down, Ceiling, Floor:
		return nil
	}
	return fmt.Errorf("unknown rounding mode %q", string(m))
}

// Round brings d to places using mode. An unknown mode falls back to HALF_EVEN;
// modes are validated where they enter the system (config, terms).
func Round(d decimal.Decimal, places int32, mode RoundingMode) decimal.Decimal {
	switch mode {
	case HalfUp:
		return d.Round(places)
	case HalfDown:
		truncated := d.Truncate(places)
		half := decimal.New(5, -(places + 1))
		if d.Sub(truncated).Abs().Equal(half) {
			return truncated
		}
		return d.Round(places)
	case Up:
		return d.RoundUp(places)
	case Down:
		return d.RoundDown(places)
	case Ceiling:
		return d.RoundCeil(places)
	case Floor:
		return d.RoundFloor(places)
	default:
		return d.RoundBank(places)
	}
}

// RoundToMultiple rounds d to the nearest multiple of step; ties go up.
func RoundToMultiple(d decimal.Decimal, step decimal.Decimal) decimal.Decimal {
	if !step.IsPositive() {
		return d
	}
	q := d.Div(step)
	floor := q.Floor().Mul(step)
	ceil := q.Ceil().Mul(step)
	if d.Sub(floor).GreaterThanOrEqual(ceil.Sub(d)) {
		return ceil
	}
	return floor
}
