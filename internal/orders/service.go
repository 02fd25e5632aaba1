package orders

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/localbasket/localbasket-backend/internal/pricing"
	"github.com/localbasket/localbasket-backend/pkg/db/models"
	"github.com/localbasket/localbasket-backend/pkg/enums"
	pkgerrors "github.com/localbasket/localbasket-backend/pkg/errors"
	"github.com/localbasket/localbasket-backend/pkg/metrics"
	"github.com/localbasket/localbasket-backend/pkg/outbox"
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type outboxPublisher interface {
	Emit(ctx context.Context, tx *gorm.DB, event outbox.DomainEvent) error
}

type pointsAwarder interface {
	Award(ctx context.Context, tx *gorm.DB, customerID uuid.UUID, amountPaise int) (int, error)
}

// Service is the order lifecycle engine. Every mutation runs inside a
// transaction with the order row locked, so callers get per-order
// serialization without holding locks themselves.
type Service interface {
	Review(ctx context.Context, input ReviewInput) (*models.Order, error)
	AdvanceStatus(ctx context.Context, input AdvanceInput) (*models.Order, error)
	CustomerDecision(ctx context.Context, input CustomerDecisionInput) (*models.Order, error)
}

type service struct {
	repo    Repository
	tx      txRunner
	outbox  outboxPublisher
	points  pointsAwarder
	metrics *metrics.OrderMetrics
	rules   pricing.Rules
}

// NewService builds the lifecycle engine with the required dependencies.
func NewService(repo Repository, tx txRunner, publisher outboxPublisher, points pointsAwarder, m *metrics.OrderMetrics, rules pricing.Rules) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("orders repository required")
	}
	if tx == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	if publisher == nil {
		return nil, fmt.Errorf("outbox publisher required")
	}
	if points == nil {
		return nil, fmt.Errorf("points awarder required")
	}
	return &service{
		repo:    repo,
		tx:      tx,
		outbox:  publisher,
		points:  points,
		metrics: m,
		rules:   rules,
	}, nil
}

func (s *service) Review(ctx context.Context, input ReviewInput) (*models.Order, error) {
	if input.OrderID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "order id required")
	}
	if input.ShopID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "shop id required")
	}

	var result *models.Order
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		order, err := s.loadShopOrder(ctx, repo, input.OrderID, input.ShopID)
		if err != nil {
			return err
		}
		if order.Status != enums.OrderStatusNew {
			return pkgerrors.New(pkgerrors.CodeStateConflict, "order can only be reviewed while new").
				WithDetails(map[string]any{"status": order.Status})
		}

		decisions := make(map[uuid.UUID]ItemDecision, len(input.Decisions))
		for _, decision := range input.Decisions {
			if _, dup := decisions[decision.OrderItemID]; dup {
				return pkgerrors.New(pkgerrors.CodeValidation, "duplicate decision for order item")
			}
			decisions[decision.OrderItemID] = decision
		}

		known := make(map[uuid.UUID]struct{}, len(order.Items))
		for _, item := range order.Items {
			known[item.ID] = struct{}{}
		}
		for id := range decisions {
			if _, ok := known[id]; !ok {
				return pkgerrors.New(pkgerrors.CodeValidation, "decision references unknown order item")
			}
		}

		now := time.Now()
		modified := false
		unavailable := 0
		lines := make([]pricing.LineItem, 0, len(order.Items))

		for i := range order.Items {
			item := &order.Items[i]
			decision, reviewed := decisions[item.ID]
			if !reviewed {
				decision = ItemDecision{OrderItemID: item.ID, Available: true}
			}

			quantity := item.OriginalQuantity
			if decision.AdjustedQuantity != nil {
				if *decision.AdjustedQuantity < 0 {
					return pkgerrors.New(pkgerrors.CodeValidation, "adjusted quantity cannot be negative")
				}
				quantity = *decision.AdjustedQuantity
			}

			if !decision.Available {
				unavailable++
				modified = true
			} else if quantity != item.OriginalQuantity {
				modified = true
			}

			item.Available = decision.Available
			item.Quantity = quantity
			item.ReviewedAt = &now

			if err := repo.UpdateOrderItem(ctx, item.ID, map[string]any{
				"available":   decision.Available,
				"quantity":    quantity,
				"reviewed_at": now,
			}); err != nil {
				return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update order item")
			}

			if decision.Available {
				lines = append(lines, pricing.LineItem{
					UnitPricePaise: item.UnitPricePaise,
					Quantity:       quantity,
				})
			}
		}

		if !modified {
			if err := s.applyTransition(ctx, tx, repo, order, enums.OrderStatusPreparing, shopActor(input.ShopID)); err != nil {
				return err
			}
			result = order
			return nil
		}

		modifiedSubtotal := pricing.Subtotal(lines)
		modifiedTotal := pricing.Total(
			modifiedSubtotal,
			s.rules.DeliveryFee(modifiedSubtotal),
			pricing.DiscountAmount(modifiedSubtotal, order.DiscountPercent),
			order.PointsRedeemed,
		)

		if err := repo.UpdateOrder(ctx, order.ID, map[string]any{
			"status":                     enums.OrderStatusAwaitingApproval,
			"customer_approval_required": true,
			"modified_total_paise":       modifiedTotal,
			"status_changed_at":          now,
		}); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update order")
		}

		from := order.Status
		order.Status = enums.OrderStatusAwaitingApproval
		order.CustomerApprovalRequired = true
		order.ModifiedTotalPaise = modifiedTotal
		order.StatusChangedAt = now
		s.metrics.IncTransition(from.String(), order.Status.String())

		return s.outbox.Emit(ctx, tx, outbox.DomainEvent{
			EventType:     enums.EventOrderModified,
			AggregateType: enums.AggregateOrder,
			AggregateID:   order.ID,
			Version:       1,
			Actor:         shopActor(input.ShopID),
			Data: OrderModifiedEvent{
				OrderID:            order.ID,
				CustomerID:         order.CustomerID,
				ShopID:             order.ShopID,
				OriginalTotalPaise: order.OriginalTotalPaise,
				ModifiedTotalPaise: modifiedTotal,
				UnavailableItems:   unavailable,
			},
		})
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

func (s *service) AdvanceStatus(ctx context.Context, input AdvanceInput) (*models.Order, error) {
	if input.OrderID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "order id required")
	}
	if input.ShopID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "shop id required")
	}
	if !input.Target.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid target status")
	}

	var result *models.Order
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		order, err := s.loadShopOrder(ctx, repo, input.OrderID, input.ShopID)
		if err != nil {
			return err
		}
		if err := s.applyTransition(ctx, tx, repo, order, input.Target, shopActor(input.ShopID)); err != nil {
			return err
		}
		result = order
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

func (s *service) CustomerDecision(ctx context.Context, input CustomerDecisionInput) (*models.Order, error) {
	if input.OrderID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "order id required")
	}
	if input.CustomerID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "customer id required")
	}

	var target enums.OrderStatus
	switch input.Decision {
	case CustomerDecisionApprove:
		target = enums.OrderStatusPreparing
	case CustomerDecisionCancel:
		target = enums.OrderStatusCancelled
	default:
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "decision must be approve or cancel")
	}

	var result *models.Order
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		order, err := repo.FindOrderForUpdate(ctx, input.OrderID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
			}
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load order")
		}
		if order.CustomerID != input.CustomerID {
			return pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
		}
		if order.Status != enums.OrderStatusAwaitingApproval {
			return pkgerrors.New(pkgerrors.CodeStateConflict, "order is not awaiting customer approval").
				WithDetails(map[string]any{"status": order.Status})
		}

		customer := input.CustomerID
		actor := &outbox.ActorRef{CustomerID: &customer, Role: "customer"}
		if err := s.applyTransition(ctx, tx, repo, order, target, actor); err != nil {
			return err
		}
		result = order
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

func (s *service) loadShopOrder(ctx context.Context, repo Repository, orderID, shopID uuid.UUID) (*models.Order, error) {
	order, err := repo.FindOrderForUpdate(ctx, orderID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load order")
	}
	// Orders belonging to other shops look like they do not exist.
	if order.ShopID != shopID {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
	}
	return order, nil
}

func (s *service) applyTransition(ctx context.Context, tx *gorm.DB, repo Repository, order *models.Order, target enums.OrderStatus, actor *outbox.ActorRef) error {
	from := order.Status
	if !CanTransition(from, target) {
		s.metrics.IncIllegalTransition(from.String(), target.String())
		return pkgerrors.New(pkgerrors.CodeStateConflict, "illegal order status transition").
			WithDetails(map[string]any{"from": from, "to": target})
	}

	now := time.Now()
	updates := map[string]any{
		"status":            target,
		"status_changed_at": now,
	}
	if from == enums.OrderStatusAwaitingApproval {
		updates["customer_approval_required"] = false
	}
	if column := timestampColumn(target); column != "" {
		updates[column] = now
	}

	if err := repo.UpdateOrder(ctx, order.ID, updates); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update order status")
	}

	order.Status = target
	order.StatusChangedAt = now
	if from == enums.OrderStatusAwaitingApproval {
		order.CustomerApprovalRequired = false
	}
	applyTimestamp(order, target, now)
	s.metrics.IncTransition(from.String(), target.String())

	// Delivery is the earn moment: points accrue on the amount the customer
	// actually paid.
	if target == enums.OrderStatusDelivered {
		if _, err := s.points.Award(ctx, tx, order.CustomerID, order.ModifiedTotalPaise); err != nil {
			return err
		}
	}

	return s.outbox.Emit(ctx, tx, outbox.DomainEvent{
		EventType:     enums.EventOrderStatusChanged,
		AggregateType: enums.AggregateOrder,
		AggregateID:   order.ID,
		Version:       1,
		Actor:         actor,
		Data: OrderStatusChangedEvent{
			OrderID:    order.ID,
			CustomerID: order.CustomerID,
			ShopID:     order.ShopID,
			From:       from,
			To:         target,
		},
	})
}

func timestampColumn(target enums.OrderStatus) string {
	switch target {
	case enums.OrderStatusPreparing:
		return "accepted_at"
	case enums.OrderStatusReadyForPickup:
		return "ready_at"
	case enums.OrderStatusOutForDelivery:
		return "dispatched_at"
	case enums.OrderStatusDelivered:
		return "delivered_at"
	case enums.OrderStatusCancelled:
		return "cancelled_at"
	case enums.OrderStatusRejected:
		return "rejected_at"
	default:
		return ""
	}
}

func applyTimestamp(order *models.Order, target enums.OrderStatus, at time.Time) {
	switch target {
	case enums.OrderStatusPreparing:
		order.AcceptedAt = &at
	case enums.OrderStatusReadyForPickup:
		order.ReadyAt = &at
	case enums.OrderStatusOutForDelivery:
		order.DispatchedAt = &at
	case enums.OrderStatusDelivered:
		order.DeliveredAt = &at
	case enums.OrderStatusCancelled:
		order.CancelledAt = &at
	case enums.OrderStatusRejected:
		order.RejectedAt = &at
	}
}

func shopActor(shopID uuid.UUID) *outbox.ActorRef {
	shop := shopID
	return &outbox.ActorRef{ShopID: &shop, Role: "shop_owner"}
}
