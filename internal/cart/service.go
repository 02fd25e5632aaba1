package cart

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/localbasket/localbasket-backend/internal/pricing"
	"github.com/localbasket/localbasket-backend/pkg/db/models"
	pkgerrors "github.com/localbasket/localbasket-backend/pkg/errors"
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type discountValidator interface {
	Validate(ctx context.Context, code string, shopID uuid.UUID) (*models.DiscountCode, error)
}

type accountLoader interface {
	GetAccount(ctx context.Context, customerID uuid.UUID) (*models.LoyaltyAccount, error)
}

// ItemInput is the product snapshot the storefront sends when a customer adds
// or updates a cart line. Quantity zero removes the line.
type ItemInput struct {
	ProductID          uuid.UUID
	ShopID             uuid.UUID
	Name               string
	UnitPricePaise     int
	OriginalPricePaise *int
	Quantity           int
	Available          bool
}

// ShopGroup is a cart slice belonging to one shop, for per-shop display and
// checkout.
type ShopGroup struct {
	ShopID        uuid.UUID         `json:"shop_id"`
	Items         []models.CartItem `json:"items"`
	SubtotalPaise int               `json:"subtotal_paise"`
}

// Service manages the customer's single active cart.
type Service interface {
	GetActiveCart(ctx context.Context, customerID uuid.UUID) (*models.CartRecord, error)
	UpsertItem(ctx context.Context, customerID uuid.UUID, input ItemInput) (*models.CartRecord, error)
	ApplyDiscount(ctx context.Context, customerID uuid.UUID, code string) (*models.CartRecord, error)
	ClearDiscount(ctx context.Context, customerID uuid.UUID) (*models.CartRecord, error)
	SetPointsToRedeem(ctx context.Context, customerID uuid.UUID, points int) (*models.CartRecord, error)
	Quote(ctx context.Context, customerID uuid.UUID) (*pricing.Quote, error)
}

type service struct {
	repo      Repository
	tx        txRunner
	discounts discountValidator
	loyalty   accountLoader
	rules     pricing.Rules
}

// NewService builds a cart service backed by the provided stack.
func NewService(repo Repository, tx txRunner, discounts discountValidator, loyalty accountLoader, rules pricing.Rules) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("cart repository required")
	}
	if tx == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	if discounts == nil {
		return nil, fmt.Errorf("discount validator required")
	}
	if loyalty == nil {
		return nil, fmt.Errorf("loyalty account loader required")
	}
	return &service{
		repo:      repo,
		tx:        tx,
		discounts: discounts,
		loyalty:   loyalty,
		rules:     rules,
	}, nil
}

// GetActiveCart returns the customer's active cart, creating an empty one on
// first use.
func (s *service) GetActiveCart(ctx context.Context, customerID uuid.UUID) (*models.CartRecord, error) {
	if customerID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "customer id required")
	}
	cart, err := s.repo.FindActiveCart(ctx, customerID)
	if err == nil {
		return cart, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load cart")
	}

	fresh := &models.CartRecord{CustomerID: customerID}
	if err := s.repo.CreateCart(ctx, fresh); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create cart")
	}
	return fresh, nil
}

func (s *service) UpsertItem(ctx context.Context, customerID uuid.UUID, input ItemInput) (*models.CartRecord, error) {
	if input.ProductID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "product id required")
	}
	if input.Quantity < 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "quantity cannot be negative")
	}
	if input.UnitPricePaise < 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "unit price cannot be negative")
	}
	if input.Quantity > 0 && input.ShopID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "shop id required")
	}

	cart, err := s.GetActiveCart(ctx, customerID)
	if err != nil {
		return nil, err
	}

	err = s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		existing, err := repo.FindItem(ctx, cart.ID, input.ProductID)
		if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load cart item")
		}

		if input.Quantity == 0 {
			if existing == nil {
				return nil
			}
			return repo.DeleteItem(ctx, existing.ID)
		}

		if existing == nil {
			return repo.CreateItem(ctx, &models.CartItem{
				CartID:             cart.ID,
				ProductID:          input.ProductID,
				ShopID:             input.ShopID,
				Name:               input.Name,
				UnitPricePaise:     input.UnitPricePaise,
				OriginalPricePaise: input.OriginalPricePaise,
				Quantity:           input.Quantity,
				Available:          input.Available,
			})
		}
		return repo.UpdateItem(ctx, existing.ID, map[string]any{
			"quantity":         input.Quantity,
			"unit_price_paise": input.UnitPricePaise,
			"available":        input.Available,
		})
	})
	if err != nil {
		return nil, err
	}
	return s.reload(ctx, customerID)
}

// ApplyDiscount attaches a code to the cart, replacing any previous one.
func (s *service) ApplyDiscount(ctx context.Context, customerID uuid.UUID, code string) (*models.CartRecord, error) {
	cart, err := s.GetActiveCart(ctx, customerID)
	if err != nil {
		return nil, err
	}

	row, err := s.discounts.Validate(ctx, code, singleShop(cart.Items))
	if err != nil {
		return nil, err
	}

	err = s.repo.UpdateCart(ctx, cart.ID, map[string]any{
		"discount_code":    row.Code,
		"discount_percent": row.Percentage,
	})
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "apply discount")
	}
	return s.reload(ctx, customerID)
}

func (s *service) ClearDiscount(ctx context.Context, customerID uuid.UUID) (*models.CartRecord, error) {
	cart, err := s.GetActiveCart(ctx, customerID)
	if err != nil {
		return nil, err
	}
	err = s.repo.UpdateCart(ctx, cart.ID, map[string]any{
		"discount_code":    nil,
		"discount_percent": 0,
	})
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "clear discount")
	}
	return s.reload(ctx, customerID)
}

// SetPointsToRedeem stores the requested redemption. The amount is re-capped
// against the balance and the cap rule when the quote and checkout run.
func (s *service) SetPointsToRedeem(ctx context.Context, customerID uuid.UUID, points int) (*models.CartRecord, error) {
	if points < 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "points cannot be negative")
	}
	cart, err := s.GetActiveCart(ctx, customerID)
	if err != nil {
		return nil, err
	}
	err = s.repo.UpdateCart(ctx, cart.ID, map[string]any{
		"points_to_redeem": points,
	})
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "set points")
	}
	return s.reload(ctx, customerID)
}

// Quote prices the active cart with the customer's current loyalty balance.
func (s *service) Quote(ctx context.Context, customerID uuid.UUID) (*pricing.Quote, error) {
	cart, err := s.GetActiveCart(ctx, customerID)
	if err != nil {
		return nil, err
	}
	account, err := s.loyalty.GetAccount(ctx, customerID)
	if err != nil {
		return nil, err
	}

	quote := pricing.Compute(pricing.QuoteInput{
		Items:           Lines(cart.Items),
		DiscountPercent: cart.DiscountPercent,
		PointsBalance:   account.PointsBalance,
		PointsRequested: cart.PointsToRedeem,
		Rules:           s.rules,
	})
	return &quote, nil
}

func (s *service) reload(ctx context.Context, customerID uuid.UUID) (*models.CartRecord, error) {
	cart, err := s.repo.FindActiveCart(ctx, customerID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "reload cart")
	}
	return cart, nil
}

// Lines converts cart items into pricing line items.
func Lines(items []models.CartItem) []pricing.LineItem {
	lines := make([]pricing.LineItem, 0, len(items))
	for _, item := range items {
		lines = append(lines, pricing.LineItem{
			UnitPricePaise: item.UnitPricePaise,
			Quantity:       item.Quantity,
		})
	}
	return lines
}

// GroupByShop splits cart items into per-shop slices, preserving item order.
func GroupByShop(cart *models.CartRecord) []ShopGroup {
	if cart == nil {
		return nil
	}
	index := make(map[uuid.UUID]int)
	groups := make([]ShopGroup, 0)
	for _, item := range cart.Items {
		at, ok := index[item.ShopID]
		if !ok {
			at = len(groups)
			index[item.ShopID] = at
			groups = append(groups, ShopGroup{ShopID: item.ShopID})
		}
		groups[at].Items = append(groups[at].Items, item)
		if item.Quantity > 0 {
			groups[at].SubtotalPaise += item.UnitPricePaise * item.Quantity
		}
	}
	return groups
}

// singleShop returns the only shop referenced by the items, or uuid.Nil when
// the cart is empty or spans shops. Shop-scoped codes then fail validation
// until the cart narrows to one shop.
func singleShop(items []models.CartItem) uuid.UUID {
	var shopID uuid.UUID
	for _, item := range items {
		if shopID == uuid.Nil {
			shopID = item.ShopID
			continue
		}
		if item.ShopID != shopID {
			return uuid.Nil
		}
	}
	return shopID
}
