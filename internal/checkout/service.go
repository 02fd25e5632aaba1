package checkout

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/localbasket/localbasket-backend/internal/cart"
	"github.com/localbasket/localbasket-backend/internal/orders"
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

type discountValidator interface {
	Validate(ctx context.Context, code string, shopID uuid.UUID) (*models.DiscountCode, error)
}

type loyaltyLedger interface {
	GetAccount(ctx context.Context, customerID uuid.UUID) (*models.LoyaltyAccount, error)
	Deduct(ctx context.Context, tx *gorm.DB, customerID uuid.UUID, points int) error
}

// Input identifies the customer whose active cart is being converted.
type Input struct {
	CustomerID uuid.UUID
}

// OrderCreatedEvent is emitted when checkout produces an order.
type OrderCreatedEvent struct {
	OrderID        uuid.UUID `json:"order_id"`
	CustomerID     uuid.UUID `json:"customer_id"`
	ShopID         uuid.UUID `json:"shop_id"`
	TotalPaise     int       `json:"total_paise"`
	PointsRedeemed int       `json:"points_redeemed"`
}

// Service converts a customer's active cart into an order. The whole
// conversion runs in one transaction: price snapshot, point deduction, cart
// conversion and the outbox event commit or roll back together.
type Service interface {
	Execute(ctx context.Context, input Input) (*models.Order, error)
}

type service struct {
	cartRepo   cart.Repository
	ordersRepo orders.Repository
	tx         txRunner
	outbox     outboxPublisher
	discounts  discountValidator
	loyalty    loyaltyLedger
	metrics    *metrics.OrderMetrics
	rules      pricing.Rules
}

// NewService builds the checkout service.
func NewService(
	cartRepo cart.Repository,
	ordersRepo orders.Repository,
	tx txRunner,
	publisher outboxPublisher,
	discounts discountValidator,
	loyalty loyaltyLedger,
	m *metrics.OrderMetrics,
	rules pricing.Rules,
) (Service, error) {
	if cartRepo == nil {
		return nil, fmt.Errorf("cart repository required")
	}
	if ordersRepo == nil {
		return nil, fmt.Errorf("orders repository required")
	}
	if tx == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	if publisher == nil {
		return nil, fmt.Errorf("outbox publisher required")
	}
	if discounts == nil {
		return nil, fmt.Errorf("discount validator required")
	}
	if loyalty == nil {
		return nil, fmt.Errorf("loyalty ledger required")
	}
	return &service{
		cartRepo:   cartRepo,
		ordersRepo: ordersRepo,
		tx:         tx,
		outbox:     publisher,
		discounts:  discounts,
		loyalty:    loyalty,
		metrics:    m,
		rules:      rules,
	}, nil
}

func (s *service) Execute(ctx context.Context, input Input) (*models.Order, error) {
	if input.CustomerID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "customer id required")
	}

	var result *models.Order
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		cartRepo := s.cartRepo.WithTx(tx)
		record, err := cartRepo.FindActiveCartForUpdate(ctx, input.CustomerID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return pkgerrors.New(pkgerrors.CodeNotFound, "active cart not found")
			}
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load cart")
		}

		lines := activeLines(record.Items)
		if len(lines) == 0 {
			return pkgerrors.New(pkgerrors.CodeValidation, "cart is empty")
		}
		if unavailable := unavailableProducts(record.Items); len(unavailable) > 0 {
			return pkgerrors.New(pkgerrors.CodeConflict, "cart contains unavailable items").
				WithDetails(map[string]any{"product_ids": unavailable})
		}
		shopID, err := checkoutShop(lines)
		if err != nil {
			return err
		}

		// The discount is re-validated at execution time so a code revoked or
		// rescoped since it was applied cannot leak into the order.
		discountPercent := 0
		var discountCode *string
		if record.DiscountCode != nil {
			row, err := s.discounts.Validate(ctx, *record.DiscountCode, shopID)
			if err != nil {
				return err
			}
			discountPercent = row.Percentage
			discountCode = &row.Code
		}

		account, err := s.loyalty.GetAccount(ctx, input.CustomerID)
		if err != nil {
			return err
		}

		quote := pricing.Compute(pricing.QuoteInput{
			Items:           linesToPricing(lines),
			DiscountPercent: discountPercent,
			PointsBalance:   account.PointsBalance,
			PointsRequested: record.PointsToRedeem,
			Rules:           s.rules,
		})
		if quote.TotalPaise < 0 {
			return pkgerrors.New(pkgerrors.CodeValidation, "order total cannot be negative").
				WithDetails(map[string]any{"total_paise": quote.TotalPaise})
		}

		if err := s.loyalty.Deduct(ctx, tx, input.CustomerID, quote.PointsRedeemed); err != nil {
			return err
		}

		now := time.Now()
		order := &models.Order{
			CustomerID:         input.CustomerID,
			ShopID:             shopID,
			CartID:             record.ID,
			Status:             enums.OrderStatusNew,
			SubtotalPaise:      quote.SubtotalPaise,
			DeliveryFeePaise:   quote.DeliveryFeePaise,
			DiscountPaise:      quote.DiscountPaise,
			DiscountPercent:    discountPercent,
			DiscountCode:       discountCode,
			PointsRedeemed:     quote.PointsRedeemed,
			OriginalTotalPaise: quote.TotalPaise,
			ModifiedTotalPaise: quote.TotalPaise,
			StatusChangedAt:    now,
		}
		ordersRepo := s.ordersRepo.WithTx(tx)
		if _, err := ordersRepo.CreateOrder(ctx, order); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create order")
		}
		if err := ordersRepo.CreateOrderItems(ctx, snapshotItems(order.ID, lines)); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create order items")
		}
		if err := cartRepo.MarkConverted(ctx, record.ID, now); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "convert cart")
		}

		s.metrics.IncCreated()
		customerID := input.CustomerID
		err = s.outbox.Emit(ctx, tx, outbox.DomainEvent{
			EventType:     enums.EventOrderCreated,
			AggregateType: enums.AggregateOrder,
			AggregateID:   order.ID,
			Version:       1,
			Actor:         &outbox.ActorRef{CustomerID: &customerID, Role: "customer"},
			Data: OrderCreatedEvent{
				OrderID:        order.ID,
				CustomerID:     input.CustomerID,
				ShopID:         shopID,
				TotalPaise:     quote.TotalPaise,
				PointsRedeemed: quote.PointsRedeemed,
			},
		})
		if err != nil {
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

// activeLines drops zero-quantity leftovers.
func activeLines(items []models.CartItem) []models.CartItem {
	lines := make([]models.CartItem, 0, len(items))
	for _, item := range items {
		if item.Quantity > 0 {
			lines = append(lines, item)
		}
	}
	return lines
}

func unavailableProducts(items []models.CartItem) []uuid.UUID {
	var ids []uuid.UUID
	for _, item := range items {
		if item.Quantity > 0 && !item.Available {
			ids = append(ids, item.ProductID)
		}
	}
	return ids
}

// checkoutShop enforces the one-shop-per-order rule.
func checkoutShop(lines []models.CartItem) (uuid.UUID, error) {
	shopID := lines[0].ShopID
	for _, line := range lines[1:] {
		if line.ShopID != shopID {
			return uuid.Nil, pkgerrors.New(pkgerrors.CodeValidation, "cart spans multiple shops; checkout one shop at a time")
		}
	}
	if shopID == uuid.Nil {
		return uuid.Nil, pkgerrors.New(pkgerrors.CodeValidation, "cart items missing shop reference")
	}
	return shopID, nil
}

func linesToPricing(lines []models.CartItem) []pricing.LineItem {
	out := make([]pricing.LineItem, 0, len(lines))
	for _, line := range lines {
		out = append(out, pricing.LineItem{
			UnitPricePaise: line.UnitPricePaise,
			Quantity:       line.Quantity,
		})
	}
	return out
}

func snapshotItems(orderID uuid.UUID, lines []models.CartItem) []models.OrderItem {
	items := make([]models.OrderItem, 0, len(lines))
	for _, line := range lines {
		items = append(items, models.OrderItem{
			OrderID:            orderID,
			ProductID:          line.ProductID,
			ShopID:             line.ShopID,
			Name:               line.Name,
			UnitPricePaise:     line.UnitPricePaise,
			OriginalPricePaise: line.OriginalPricePaise,
			OriginalQuantity:   line.Quantity,
			Quantity:           line.Quantity,
			Available:          true,
		})
	}
	return items
}
