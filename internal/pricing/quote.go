package pricing

// QuoteInput bundles everything needed to price a cart in one pass.
type QuoteInput struct {
	Items           []LineItem
	DiscountPercent int
	PointsBalance   int
	PointsRequested int
	Rules           Rules
}

// Quote is the full price breakdown returned to storefront callers and
// snapshotted onto orders at checkout.
type Quote struct {
	SubtotalPaise    int `json:"subtotal_paise"`
	DeliveryFeePaise int `json:"delivery_fee_paise"`
	DiscountPaise    int `json:"discount_paise"`
	PointsRedeemed   int `json:"points_redeemed"`
	TotalPaise       int `json:"total_paise"`
}

// Compute prices the cart. Requested points are re-capped against the balance
// and the redemption cap, so callers may pass a stale request safely.
func Compute(input QuoteInput) Quote {
	subtotal := Subtotal(input.Items)
	fee := input.Rules.DeliveryFee(subtotal)
	discount := DiscountAmount(subtotal, input.DiscountPercent)

	points := input.PointsRequested
	if max := input.Rules.MaxRedeemablePoints(subtotal, input.PointsBalance); points > max {
		points = max
	}
	if points < 0 {
		points = 0
	}

	return Quote{
		SubtotalPaise:    subtotal,
		DeliveryFeePaise: fee,
		DiscountPaise:    discount,
		PointsRedeemed:   points,
		TotalPaise:       Total(subtotal, fee, discount, points),
	}
}
