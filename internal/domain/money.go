package domain

import (
	"errors"
	"strings"

	"github.com/shopspring/decimal"
)

// Money is an amount in cents. Stores keep it as an integer column so that
// balance arithmetic in SQL stays exact on every driver.
type Money int64

var ErrBadAmount = errors.New("invalid amount")

func (m Money) Decimal() decimal.Decimal { return decimal.New(int64(m), -2) }

func (m Money) String() string { return m.Decimal().StringFixed(2) }

func (m Money) Times(n int) Money { return m * Money(n) }

// ParseMoney reads a non-negative decimal with at most two fractional digits.
func ParseMoney(s string) (Money, error) {
	d, err := decimal.NewFromString(strings.TrimSpace(s))
	if err != nil {
		return 0, ErrBadAmount
	}
	if d.IsNegative() {
		return 0, ErrBadAmount
	}
	cents := d.Shift(2)
	if !cents.Equal(cents.Truncate(0)) {
		return 0, ErrBadAmount
	}
	return Money(cents.IntPart()), nil
}
