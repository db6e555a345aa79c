// Package valueobject holds decimal helpers shared by amounts and quantities.
package valueobject

import (
	"errors"

	"github.com/shopspring/decimal"
)

// MoneyPlaces is the number of decimal places stored for monetary amounts
const MoneyPlaces = 2

var hundred = decimal.NewFromInt(100)

// RoundMoney rounds an amount half-away-from-zero to cents
func RoundMoney(d decimal.Decimal) decimal.Decimal {
	return d.Round(MoneyPlaces)
}

// Sum adds all values
func Sum(values ...decimal.Decimal) decimal.Decimal {
	total := decimal.Zero
	for _, v := range values {
		total = total.Add(v)
	}
	return total
}

// Allocate divides an amount into n parts of whole cents that sum exactly to the
// original amount. The leftover cents go to the earliest parts.
func Allocate(amount decimal.Decimal, parts int) ([]decimal.Decimal, error) {
	if parts <= 0 {
		return nil, errors.New("parts must be positive")
	}
	amount = RoundMoney(amount)
	if parts == 1 {
		return []decimal.Decimal{amount}, nil
	}

	n := decimal.NewFromInt(int64(parts))
	base := amount.Div(n).Truncate(MoneyPlaces)
	remainderCents := amount.Sub(base.Mul(n)).Mul(hundred).IntPart()
	cent := decimal.New(1, -MoneyPlaces)

	result := make([]decimal.Decimal, parts)
	for i := range parts {
		part := base
		if int64(i) < remainderCents {
			part = part.Add(cent)
		}
		result[i] = part
	}
	return result, nil
}

// SplitProportionally divides total across weights, rounding each share to
// the given places. The last non-zero weight absorbs the rounding difference.
// When every weight is zero the whole total goes to the first slot.
func SplitProportionally(total decimal.Decimal, weights []decimal.Decimal, places int32) []decimal.Decimal {
	result := make([]decimal.Decimal, len(weights))
	if len(weights) == 0 {
		return result
	}
	for i := range result {
		result[i] = decimal.Zero
	}

	weightSum := Sum(weights...)
	if weightSum.IsZero() {
		result[0] = total
		return result
	}

	last := 0
	for i, w := range weights {
		if !w.IsZero() {
			last = i
		}
	}

	allocated := decimal.Zero
	for i, w := range weights {
		if i == last {
			break
		}
		share := total.Mul(w).Div(weightSum).Round(places)
		result[i] = share
		allocated = allocated.Add(share)
	}
	result[last] = total.Sub(allocated)
	return result
}
