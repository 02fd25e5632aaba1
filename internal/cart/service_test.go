package cart

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/localbasket/localbasket-backend/internal/pricing"
	"github.com/localbasket/localbasket-backend/pkg/db/models"
	"github.com/localbasket/localbasket-backend/pkg/enums"
	pkgerrors "github.com/localbasket/localbasket-backend/pkg/errors"
)

type stubCartRepo struct {
	cart    *models.CartRecord
	created bool
	updates map[string]any
	deleted []uuid.UUID
}

func (s *stubCartRepo) WithTx(tx *gorm.DB) Repository {
	return s
}

func (s *stubCartRepo) FindActiveCart(ctx context.Context, customerID uuid.UUID) (*models.CartRecord, error) {
	if s.cart == nil || s.cart.CustomerID != customerID {
		return nil, gorm.ErrRecordNotFound
	}
	return s.cart, nil
}

func (s *stubCartRepo) FindActiveCartForUpdate(ctx context.Context, customerID uuid.UUID) (*models.CartRecord, error) {
	return s.FindActiveCart(ctx, customerID)
}

func (s *stubCartRepo) CreateCart(ctx context.Context, cart *models.CartRecord) error {
	cart.ID = uuid.New()
	s.cart = cart
	s.created = true
	return nil
}

func (s *stubCartRepo) UpdateCart(ctx context.Context, cartID uuid.UUID, updates map[string]any) error {
	s.updates = updates
	if code, ok := updates["discount_code"]; ok {
		if code == nil {
			s.cart.DiscountCode = nil
			s.cart.DiscountPercent = 0
		} else if v, ok := code.(string); ok {
			s.cart.DiscountCode = &v
			if pct, ok := updates["discount_percent"].(int); ok {
				s.cart.DiscountPercent = pct
			}
		}
	}
	if points, ok := updates["points_to_redeem"].(int); ok {
		s.cart.PointsToRedeem = points
	}
	return nil
}

func (s *stubCartRepo) FindItem(ctx context.Context, cartID, productID uuid.UUID) (*models.CartItem, error) {
	if s.cart == nil {
		return nil, gorm.ErrRecordNotFound
	}
	for i := range s.cart.Items {
		if s.cart.Items[i].ProductID == productID {
			return &s.cart.Items[i], nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (s *stubCartRepo) CreateItem(ctx context.Context, item *models.CartItem) error {
	item.ID = uuid.New()
	s.cart.Items = append(s.cart.Items, *item)
	return nil
}

func (s *stubCartRepo) UpdateItem(ctx context.Context, itemID uuid.UUID, updates map[string]any) error {
	for i := range s.cart.Items {
		if s.cart.Items[i].ID == itemID {
			if qty, ok := updates["quantity"].(int); ok {
				s.cart.Items[i].Quantity = qty
			}
			if price, ok := updates["unit_price_paise"].(int); ok {
				s.cart.Items[i].UnitPricePaise = price
			}
			if available, ok := updates["available"].(bool); ok {
				s.cart.Items[i].Available = available
			}
			return nil
		}
	}
	return gorm.ErrRecordNotFound
}

func (s *stubCartRepo) DeleteItem(ctx context.Context, itemID uuid.UUID) error {
	s.deleted = append(s.deleted, itemID)
	kept := s.cart.Items[:0]
	for _, item := range s.cart.Items {
		if item.ID != itemID {
			kept = append(kept, item)
		}
	}
	s.cart.Items = kept
	return nil
}

func (s *stubCartRepo) MarkConverted(ctx context.Context, cartID uuid.UUID, at time.Time) error {
	s.cart.Status = enums.CartStatusConverted
	s.cart.ConvertedAt = &at
	return nil
}

type stubDiscountValidator struct {
	row        *models.DiscountCode
	err        error
	lastShopID uuid.UUID
}

func (s *stubDiscountValidator) Validate(ctx context.Context, code string, shopID uuid.UUID) (*models.DiscountCode, error) {
	s.lastShopID = shopID
	if s.err != nil {
		return nil, s.err
	}
	return s.row, nil
}

type stubAccountLoader struct {
	balance int
}

func (s *stubAccountLoader) GetAccount(ctx context.Context, customerID uuid.UUID) (*models.LoyaltyAccount, error) {
	return &models.LoyaltyAccount{
		CustomerID:    customerID,
		PointsBalance: s.balance,
		Tier:          enums.LoyaltyTierBronze,
	}, nil
}

type stubTxRunner struct{}

func (stubTxRunner) WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error {
	return fn(nil)
}

func testRules() pricing.Rules {
	return pricing.Rules{
		FreeDeliveryThresholdPaise: 300,
		DeliveryFeePaise:           40,
		RedeemCapPercent:           20,
	}
}

func newCartService(repo *stubCartRepo, discounts *stubDiscountValidator, balance int) Service {
	svc, err := NewService(repo, stubTxRunner{}, discounts, &stubAccountLoader{balance: balance}, testRules())
	if err != nil {
		panic(err)
	}
	return svc
}

func TestGetActiveCartCreatesOnFirstUse(t *testing.T) {
	repo := &stubCartRepo{}
	svc := newCartService(repo, &stubDiscountValidator{}, 0)

	cart, err := svc.GetActiveCart(context.Background(), uuid.New())
	if err != nil {
		t.Fatalf("expected success got %v", err)
	}
	if !repo.created {
		t.Fatal("expected cart creation")
	}
	if len(cart.Items) != 0 {
		t.Fatal("fresh cart must be empty")
	}
}

func TestUpsertItemAddsLine(t *testing.T) {
	customerID := uuid.New()
	repo := &stubCartRepo{}
	svc := newCartService(repo, &stubDiscountValidator{}, 0)

	cart, err := svc.UpsertItem(context.Background(), customerID, ItemInput{
		ProductID:      uuid.New(),
		ShopID:         uuid.New(),
		Name:           "Amul Butter 500g",
		UnitPricePaise: 285,
		Quantity:       2,
		Available:      true,
	})
	if err != nil {
		t.Fatalf("expected success got %v", err)
	}
	if len(cart.Items) != 1 || cart.Items[0].Quantity != 2 {
		t.Fatalf("unexpected cart items %+v", cart.Items)
	}
}

func TestUpsertItemUpdatesExistingLine(t *testing.T) {
	customerID := uuid.New()
	productID := uuid.New()
	shopID := uuid.New()
	repo := &stubCartRepo{cart: &models.CartRecord{
		ID:         uuid.New(),
		CustomerID: customerID,
		Items: []models.CartItem{
			{ID: uuid.New(), ProductID: productID, ShopID: shopID, UnitPricePaise: 100, Quantity: 1, Available: true},
		},
	}}
	svc := newCartService(repo, &stubDiscountValidator{}, 0)

	cart, err := svc.UpsertItem(context.Background(), customerID, ItemInput{
		ProductID:      productID,
		ShopID:         shopID,
		UnitPricePaise: 100,
		Quantity:       5,
		Available:      true,
	})
	if err != nil {
		t.Fatalf("expected success got %v", err)
	}
	if len(cart.Items) != 1 || cart.Items[0].Quantity != 5 {
		t.Fatalf("unexpected cart items %+v", cart.Items)
	}
}

func TestUpsertItemZeroQuantityDeletesLine(t *testing.T) {
	customerID := uuid.New()
	productID := uuid.New()
	itemID := uuid.New()
	repo := &stubCartRepo{cart: &models.CartRecord{
		ID:         uuid.New(),
		CustomerID: customerID,
		Items: []models.CartItem{
			{ID: itemID, ProductID: productID, ShopID: uuid.New(), UnitPricePaise: 100, Quantity: 1},
		},
	}}
	svc := newCartService(repo, &stubDiscountValidator{}, 0)

	cart, err := svc.UpsertItem(context.Background(), customerID, ItemInput{
		ProductID: productID,
		Quantity:  0,
	})
	if err != nil {
		t.Fatalf("expected success got %v", err)
	}
	if len(cart.Items) != 0 {
		t.Fatalf("expected empty cart got %+v", cart.Items)
	}
	if len(repo.deleted) != 1 || repo.deleted[0] != itemID {
		t.Fatalf("expected delete of %s got %v", itemID, repo.deleted)
	}
}

func TestUpsertItemRejectsNegativeQuantity(t *testing.T) {
	svc := newCartService(&stubCartRepo{}, &stubDiscountValidator{}, 0)

	_, err := svc.UpsertItem(context.Background(), uuid.New(), ItemInput{
		ProductID: uuid.New(),
		Quantity:  -1,
	})
	if !pkgerrors.IsCode(err, pkgerrors.CodeValidation) {
		t.Fatalf("expected validation error got %v", err)
	}
}

func TestApplyDiscountReplacesExistingCode(t *testing.T) {
	customerID := uuid.New()
	old := "OLD5"
	repo := &stubCartRepo{cart: &models.CartRecord{
		ID:              uuid.New(),
		CustomerID:      customerID,
		DiscountCode:    &old,
		DiscountPercent: 5,
	}}
	validator := &stubDiscountValidator{row: &models.DiscountCode{Code: "DIWALI10", Percentage: 10, Active: true}}
	svc := newCartService(repo, validator, 0)

	cart, err := svc.ApplyDiscount(context.Background(), customerID, "diwali10")
	if err != nil {
		t.Fatalf("expected success got %v", err)
	}
	if cart.DiscountCode == nil || *cart.DiscountCode != "DIWALI10" {
		t.Fatalf("unexpected code %v", cart.DiscountCode)
	}
	if cart.DiscountPercent != 10 {
		t.Fatalf("expected 10 percent got %d", cart.DiscountPercent)
	}
}

func TestApplyDiscountPassesSingleShopScope(t *testing.T) {
	customerID := uuid.New()
	shopID := uuid.New()
	repo := &stubCartRepo{cart: &models.CartRecord{
		ID:         uuid.New(),
		CustomerID: customerID,
		Items: []models.CartItem{
			{ID: uuid.New(), ProductID: uuid.New(), ShopID: shopID, Quantity: 1},
			{ID: uuid.New(), ProductID: uuid.New(), ShopID: shopID, Quantity: 2},
		},
	}}
	validator := &stubDiscountValidator{row: &models.DiscountCode{Code: "LOCAL5", Percentage: 5, Active: true}}
	svc := newCartService(repo, validator, 0)

	if _, err := svc.ApplyDiscount(context.Background(), customerID, "LOCAL5"); err != nil {
		t.Fatalf("expected success got %v", err)
	}
	if validator.lastShopID != shopID {
		t.Fatalf("expected shop scope %s got %s", shopID, validator.lastShopID)
	}
}

func TestApplyDiscountPropagatesValidationError(t *testing.T) {
	customerID := uuid.New()
	repo := &stubCartRepo{cart: &models.CartRecord{ID: uuid.New(), CustomerID: customerID}}
	validator := &stubDiscountValidator{err: pkgerrors.New(pkgerrors.CodeNotFound, "discount code not found")}
	svc := newCartService(repo, validator, 0)

	_, err := svc.ApplyDiscount(context.Background(), customerID, "NOPE")
	if !pkgerrors.IsCode(err, pkgerrors.CodeNotFound) {
		t.Fatalf("expected not found got %v", err)
	}
	if repo.updates != nil {
		t.Fatal("cart must not change on invalid code")
	}
}

func TestClearDiscount(t *testing.T) {
	customerID := uuid.New()
	code := "DIWALI10"
	repo := &stubCartRepo{cart: &models.CartRecord{
		ID:              uuid.New(),
		CustomerID:      customerID,
		DiscountCode:    &code,
		DiscountPercent: 10,
	}}
	svc := newCartService(repo, &stubDiscountValidator{}, 0)

	cart, err := svc.ClearDiscount(context.Background(), customerID)
	if err != nil {
		t.Fatalf("expected success got %v", err)
	}
	if cart.DiscountCode != nil || cart.DiscountPercent != 0 {
		t.Fatalf("expected cleared discount got %+v", cart)
	}
}

func TestQuoteRecapsRequestedPoints(t *testing.T) {
	customerID := uuid.New()
	repo := &stubCartRepo{cart: &models.CartRecord{
		ID:              uuid.New(),
		CustomerID:      customerID,
		DiscountPercent: 5,
		PointsToRedeem:  500,
		Items: []models.CartItem{
			{ID: uuid.New(), ProductID: uuid.New(), ShopID: uuid.New(), UnitPricePaise: 200, Quantity: 5, Available: true},
		},
	}}
	svc := newCartService(repo, &stubDiscountValidator{}, 1000)

	quote, err := svc.Quote(context.Background(), customerID)
	if err != nil {
		t.Fatalf("expected success got %v", err)
	}
	if quote.SubtotalPaise != 1000 {
		t.Fatalf("expected subtotal 1000 got %d", quote.SubtotalPaise)
	}
	if quote.DeliveryFeePaise != 0 {
		t.Fatalf("expected free delivery got %d", quote.DeliveryFeePaise)
	}
	if quote.DiscountPaise != 50 {
		t.Fatalf("expected discount 50 got %d", quote.DiscountPaise)
	}
	// 20 percent cap on 1000 limits the 500 point request to 200.
	if quote.PointsRedeemed != 200 {
		t.Fatalf("expected 200 points got %d", quote.PointsRedeemed)
	}
	if quote.TotalPaise != 750 {
		t.Fatalf("expected total 750 got %d", quote.TotalPaise)
	}
}

func TestGroupByShop(t *testing.T) {
	shopA := uuid.New()
	shopB := uuid.New()
	cart := &models.CartRecord{Items: []models.CartItem{
		{ShopID: shopA, UnitPricePaise: 100, Quantity: 2},
		{ShopID: shopB, UnitPricePaise: 50, Quantity: 1},
		{ShopID: shopA, UnitPricePaise: 30, Quantity: 3},
	}}

	groups := GroupByShop(cart)
	if len(groups) != 2 {
		t.Fatalf("expected 2 groups got %d", len(groups))
	}
	if groups[0].ShopID != shopA || groups[0].SubtotalPaise != 290 {
		t.Fatalf("unexpected first group %+v", groups[0])
	}
	if groups[1].ShopID != shopB || groups[1].SubtotalPaise != 50 {
		t.Fatalf("unexpected second group %+v", groups[1])
	}
}
