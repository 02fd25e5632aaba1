package orders

import "github.com/localbasket/localbasket-backend/pkg/enums"

// transitionTable is the single source of truth for legal status moves.
// Anything not listed here, including skips like ready_for_pickup straight to
// delivered, is rejected.
var transitionTable = map[enums.OrderStatus][]enums.OrderStatus{
	enums.OrderStatusNew: {
		enums.OrderStatusRejected,
		enums.OrderStatusPreparing,
		enums.OrderStatusAwaitingApproval,
	},
	enums.OrderStatusAwaitingApproval: {
		enums.OrderStatusPreparing,
		enums.OrderStatusCancelled,
	},
	enums.OrderStatusPreparing: {
		enums.OrderStatusReadyForPickup,
	},
	enums.OrderStatusReadyForPickup: {
		enums.OrderStatusOutForDelivery,
	},
	enums.OrderStatusOutForDelivery: {
		enums.OrderStatusDelivered,
	},
}

// CanTransition reports whether moving from one status to another is legal.
func CanTransition(from, to enums.OrderStatus) bool {
	for _, candidate := range transitionTable[from] {
		if candidate == to {
			return true
		}
	}
	return false
}
