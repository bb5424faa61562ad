package csvimport

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// DateLayout is the ISO date layout used in marketplace exports
const DateLayout = "2006-01-02"

var (
	errInvalidAmount = errors.New("invalid amount")
	errInvalidDate   = errors.New("invalid date")

	// maxAmountCents keeps parsed amounts far from int64 overflow when summed
	maxAmountCents = decimal.New(1, 15)
)

// ParseAmount parses a decimal amount. A comma is accepted as the decimal
// separator when it is the only separator in the value; a leading or trailing
// euro sign is ignored.
func ParseAmount(value string) (decimal.Decimal, error) {
	s := strings.TrimSpace(value)
	s = strings.TrimSpace(strings.TrimSuffix(strings.TrimPrefix(s, "€"), "€"))
	if s == "" {
		return decimal.Zero, fmt.Errorf("%w: empty value", errInvalidAmount)
	}

	hasComma := strings.Contains(s, ",")
	if hasComma {
		if strings.Contains(s, ".") || strings.Count(s, ",") > 1 {
			return decimal.Zero, fmt.Errorf("%w '%s'", errInvalidAmount, value)
		}
		s = strings.Replace(s, ",", ".", 1)
	}
	if strings.ContainsAny(s, "eE") {
		return decimal.Zero, fmt.Errorf("%w '%s'", errInvalidAmount, value)
	}

	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, fmt.Errorf("%w '%s'", errInvalidAmount, value)
	}
	return d, nil
}

// ToCents converts an amount to integer cents, rounding half away from zero
func ToCents(d decimal.Decimal) (int64, error) {
	cents := d.Round(2).Shift(2)
	if cents.Abs().GreaterThan(maxAmountCents) {
		return 0, fmt.Errorf("%w: '%s' is out of range", errInvalidAmount, d.String())
	}
	return cents.IntPart(), nil
}

// ParseCents parses a decimal amount into integer cents
func ParseCents(value string) (int64, error) {
	d, err := ParseAmount(value)
	if err != nil {
		return 0, err
	}
	return ToCents(d)
}

// ParseDate parses an ISO date. RFC 3339 timestamps are accepted and
// truncated to their calendar date. The result is midnight UTC.
func ParseDate(value string) (time.Time, error) {
	s := strings.TrimSpace(value)
	if t, err := time.Parse(DateLayout, s); err == nil {
		return t.UTC(), nil
	}
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC), nil
	}
	return time.Time{}, fmt.Errorf("%w '%s' (expected YYYY-MM-DD)", errInvalidDate, value)
}
