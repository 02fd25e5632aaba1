package controllers

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/google/uuid"

	"github.com/localbasket/localbasket-backend/api/middleware"
	cartsvc "github.com/localbasket/localbasket-backend/internal/cart"
	"github.com/localbasket/localbasket-backend/internal/pricing"
	"github.com/localbasket/localbasket-backend/pkg/db/models"
)

type stubCartService struct {
	customerID uuid.UUID
	itemInput  *cartsvc.ItemInput
	code       string
	points     *int
	record     *models.CartRecord
	quote      *pricing.Quote
	err        error
}

func (s *stubCartService) GetActiveCart(_ context.Context, customerID uuid.UUID) (*models.CartRecord, error) {
	s.customerID = customerID
	return s.record, s.err
}

func (s *stubCartService) UpsertItem(_ context.Context, customerID uuid.UUID, input cartsvc.ItemInput) (*models.CartRecord, error) {
	s.customerID = customerID
	s.itemInput = &input
	return s.record, s.err
}

func (s *stubCartService) ApplyDiscount(_ context.Context, customerID uuid.UUID, code string) (*models.CartRecord, error) {
	s.customerID = customerID
	s.code = code
	return s.record, s.err
}

func (s *stubCartService) ClearDiscount(_ context.Context, customerID uuid.UUID) (*models.CartRecord, error) {
	s.customerID = customerID
	return s.record, s.err
}

func (s *stubCartService) SetPointsToRedeem(_ context.Context, customerID uuid.UUID, points int) (*models.CartRecord, error) {
	s.customerID = customerID
	s.points = &points
	return s.record, s.err
}

func (s *stubCartService) Quote(_ context.Context, customerID uuid.UUID) (*pricing.Quote, error) {
	s.customerID = customerID
	return s.quote, s.err
}

func emptyCart(customerID uuid.UUID) *models.CartRecord {
	return &models.CartRecord{ID: uuid.New(), CustomerID: customerID}
}

func TestCartUpsertItemMapsPayload(t *testing.T) {
	customerID := uuid.New()
	productID := uuid.New()
	shopID := uuid.New()
	svc := &stubCartService{record: emptyCart(customerID)}

	body := `{"product_id":"` + productID.String() + `","shop_id":"` + shopID.String() + `","name":"Basmati Rice 1kg","unit_price_paise":12000,"quantity":2}`
	req := httptest.NewRequest(http.MethodPut, "/api/v1/cart/items", strings.NewReader(body))
	req = req.WithContext(middleware.WithCustomerID(req.Context(), customerID))
	rec := httptest.NewRecorder()
	CartUpsertItem(svc, nil)(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", rec.Code, rec.Body.String())
	}
	if svc.customerID != customerID {
		t.Fatalf("customer id = %s, want %s", svc.customerID, customerID)
	}
	input := svc.itemInput
	if input == nil {
		t.Fatal("service not called")
	}
	if input.ProductID != productID || input.ShopID != shopID {
		t.Fatalf("ids: %+v", input)
	}
	if input.Quantity != 2 || input.UnitPricePaise != 12000 {
		t.Fatalf("quantity/price: %+v", input)
	}
	if !input.Available {
		t.Fatal("available should default to true")
	}
}

func TestCartUpsertItemRejectsNegativeQuantity(t *testing.T) {
	svc := &stubCartService{record: emptyCart(uuid.New())}

	body := `{"product_id":"` + uuid.NewString() + `","quantity":-1}`
	req := httptest.NewRequest(http.MethodPut, "/api/v1/cart/items", strings.NewReader(body))
	rec := httptest.NewRecorder()
	CartUpsertItem(svc, nil)(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rec.Code)
	}
	if svc.itemInput != nil {
		t.Fatal("service should not be called for invalid payload")
	}
}

func TestCartApplyDiscountPassesCode(t *testing.T) {
	customerID := uuid.New()
	svc := &stubCartService{record: emptyCart(customerID)}

	req := httptest.NewRequest(http.MethodPost, "/api/v1/cart/discount", strings.NewReader(`{"code":"fresh10"}`))
	req = req.WithContext(middleware.WithCustomerID(req.Context(), customerID))
	rec := httptest.NewRecorder()
	CartApplyDiscount(svc, nil)(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", rec.Code, rec.Body.String())
	}
	if svc.code != "fresh10" {
		t.Fatalf("code = %q", svc.code)
	}
}

func TestCartQuoteReturnsBreakdown(t *testing.T) {
	customerID := uuid.New()
	svc := &stubCartService{quote: &pricing.Quote{
		SubtotalPaise:    1000,
		DeliveryFeePaise: 0,
		DiscountPaise:    100,
		PointsRedeemed:   50,
		TotalPaise:       850,
	}}

	req := httptest.NewRequest(http.MethodGet, "/api/v1/cart/quote", nil)
	req = req.WithContext(middleware.WithCustomerID(req.Context(), customerID))
	rec := httptest.NewRecorder()
	CartQuote(svc, nil)(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	body := rec.Body.String()
	for _, fragment := range []string{`"subtotal_paise":1000`, `"total_paise":850`, `"points_redeemed":50`} {
		if !strings.Contains(body, fragment) {
			t.Fatalf("body missing %s: %s", fragment, body)
		}
	}
}

func TestCartSetPointsMapsValue(t *testing.T) {
	customerID := uuid.New()
	svc := &stubCartService{record: emptyCart(customerID)}

	req := httptest.NewRequest(http.MethodPost, "/api/v1/cart/points", strings.NewReader(`{"points":120}`))
	req = req.WithContext(middleware.WithCustomerID(req.Context(), customerID))
	rec := httptest.NewRecorder()
	CartSetPoints(svc, nil)(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", rec.Code, rec.Body.String())
	}
	if svc.points == nil || *svc.points != 120 {
		t.Fatalf("points = %v, want 120", svc.points)
	}
}
