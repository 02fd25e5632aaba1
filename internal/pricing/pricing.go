package pricing

import "github.com/shopspring/decimal"

// LineItem is the minimal view of a cart or order line needed for pricing.
type LineItem struct {
	UnitPricePaise int
	Quantity       int
}

// Rules carries the configurable pricing knobs. Zero values are valid (no
// free-delivery threshold, no fee, no redemption cap).
type Rules struct {
	FreeDeliveryThresholdPaise int
	DeliveryFeePaise           int
	RedeemCapPercent           int
}

// Subtotal sums unit price times quantity over lines with a positive quantity.
// The result is invariant to item ordering.
func Subtotal(items []LineItem) int {
	total := 0
	for _, item := range items {
		if item.Quantity <= 0 {
			continue
		}
		total += item.UnitPricePaise * item.Quantity
	}
	return total
}

// DeliveryFee waives the fee only when the subtotal STRICTLY exceeds the
// threshold. A subtotal exactly at the threshold still pays the fee.
func (r Rules) DeliveryFee(subtotal int) int {
	if subtotal > r.FreeDeliveryThresholdPaise {
		return 0
	}
	return r.DeliveryFeePaise
}

// DiscountAmount returns subtotal*percentage/100 rounded half-up to the
// nearest paisa.
func DiscountAmount(subtotal, percentage int) int {
	if subtotal <= 0 || percentage <= 0 {
		return 0
	}
	amount := decimal.NewFromInt(int64(subtotal)).
		Mul(decimal.NewFromInt(int64(percentage))).
		Div(decimal.NewFromInt(100)).
		Round(0)
	return int(amount.IntPart())
}

// MaxRedeemablePoints caps redemption at RedeemCapPercent of the subtotal
// (floored) and at the available balance. Points convert 1:1 to paise.
func (r Rules) MaxRedeemablePoints(subtotal, balance int) int {
	if subtotal <= 0 || balance <= 0 {
		return 0
	}
	limit := subtotal * r.RedeemCapPercent / 100
	if balance < limit {
		return balance
	}
	return limit
}

// Total combines the parts of a quote. It never clamps: a heavy discount plus
// maximum redemption can push the result below zero, and rejecting or clamping
// that is the caller's call.
func Total(subtotal, deliveryFee, discountAmount, pointsRedeemed int) int {
	return subtotal + deliveryFee - discountAmount - pointsRedeemed
}
