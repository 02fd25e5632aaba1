package orders

import (
	"github.com/google/uuid"

	"github.com/localbasket/localbasket-backend/pkg/enums"
)

// ItemDecision is the shop owner's verdict on one order line during review.
// A nil AdjustedQuantity keeps the quantity placed at checkout.
type ItemDecision struct {
	OrderItemID      uuid.UUID
	Available        bool
	AdjustedQuantity *int
}

// ReviewInput carries a full review of a new order by its shop owner.
type ReviewInput struct {
	OrderID   uuid.UUID
	ShopID    uuid.UUID
	Decisions []ItemDecision
}

// AdvanceInput moves an order along the lifecycle table.
type AdvanceInput struct {
	OrderID uuid.UUID
	ShopID  uuid.UUID
	Target  enums.OrderStatus
}

// CustomerDecision is the customer's answer to a modified order.
type CustomerDecision string

const (
	CustomerDecisionApprove CustomerDecision = "approve"
	CustomerDecisionCancel  CustomerDecision = "cancel"
)

// CustomerDecisionInput carries the approval entry point payload.
type CustomerDecisionInput struct {
	OrderID    uuid.UUID
	CustomerID uuid.UUID
	Decision   CustomerDecision
}

// OrderModifiedEvent is emitted when a review changes the order contents.
type OrderModifiedEvent struct {
	OrderID            uuid.UUID `json:"order_id"`
	CustomerID         uuid.UUID `json:"customer_id"`
	ShopID             uuid.UUID `json:"shop_id"`
	OriginalTotalPaise int       `json:"original_total_paise"`
	ModifiedTotalPaise int       `json:"modified_total_paise"`
	UnavailableItems   int       `json:"unavailable_items"`
}

// OrderStatusChangedEvent is emitted on every successful transition.
type OrderStatusChangedEvent struct {
	OrderID    uuid.UUID         `json:"order_id"`
	CustomerID uuid.UUID         `json:"customer_id"`
	ShopID     uuid.UUID         `json:"shop_id"`
	From       enums.OrderStatus `json:"from"`
	To         enums.OrderStatus `json:"to"`
}
