package domain

import (
	"sort"

	"github.com/shopspring/decimal"
)

// DiscountPolicy maps a pre-discount subtotal and a number of redeemed tickets
// to the amount due. Implementations must be pure.
type DiscountPolicy func(subtotal decimal.Decimal, ticketsRedeemed int) decimal.Decimal

var hundred = decimal.NewFromInt(100)

// NoDiscount ignores redeemed tickets.
func NoDiscount(subtotal decimal.Decimal, _ int) decimal.Decimal {
	return subtotal
}

// PercentPerTicket returns a policy where every redeemed ticket takes percent
// off the subtotal. The total never drops below zero.
func PercentPerTicket(percent decimal.Decimal) DiscountPolicy {
	return func(subtotal decimal.Decimal, ticketsRedeemed int) decimal.Decimal {
		if ticketsRedeemed <= 0 || !percent.IsPositive() {
			return subtotal
		}
		off := percent.Mul(decimal.NewFromInt(int64(ticketsRedeemed)))
		if off.GreaterThanOrEqual(hundred) {
			return decimal.Zero
		}
		factor := hundred.Sub(off).Div(hundred)
		return subtotal.Mul(factor).Round(2)
	}
}

// AllocateTotal splits total across lines proportionally to their gross
// amounts. Shares are floored to cents and the leftover cents go to the lines
// with the largest fractional parts, earlier lines first on ties, so every
// part is non-negative and the parts sum exactly to total.
func AllocateTotal(lines []CartLine, total decimal.Decimal) []decimal.Decimal {
	parts := make([]decimal.Decimal, len(lines))
	if len(lines) == 0 {
		return parts
	}

	subtotal := decimal.Zero
	for _, l := range lines {
		subtotal = subtotal.Add(l.Gross())
	}
	if subtotal.IsZero() {
		for i := range parts {
			parts[i] = decimal.Zero
		}
		parts[len(parts)-1] = total
		return parts
	}

	type share struct {
		index int
		frac  decimal.Decimal
	}
	cents := total.Shift(2).Round(0)
	shares := make([]share, len(lines))
	allocated := decimal.Zero
	for i, l := range lines {
		exact := cents.Mul(l.Gross()).Div(subtotal)
		floor := exact.Floor()
		parts[i] = floor
		allocated = allocated.Add(floor)
		shares[i] = share{index: i, frac: exact.Sub(floor)}
	}
	sort.SliceStable(shares, func(a, b int) bool {
		return shares[a].frac.GreaterThan(shares[b].frac)
	})

	one := decimal.NewFromInt(1)
	for k := int64(0); k < cents.Sub(allocated).IntPart(); k++ {
		i := shares[k%int64(len(shares))].index
		parts[i] = parts[i].Add(one)
	}
	for i := range parts {
		parts[i] = parts[i].Shift(-2)
	}
	return parts
}
