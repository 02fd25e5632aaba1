package controllers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/localbasket/localbasket-backend/api/middleware"
	internalorders "github.com/localbasket/localbasket-backend/internal/orders"
	"github.com/localbasket/localbasket-backend/pkg/db/models"
	"github.com/localbasket/localbasket-backend/pkg/enums"
	pkgerrors "github.com/localbasket/localbasket-backend/pkg/errors"
)

type stubOrdersService struct {
	reviewInput   *internalorders.ReviewInput
	advanceInput  *internalorders.AdvanceInput
	decisionInput *internalorders.CustomerDecisionInput
	order         *models.Order
	err           error
}

func (s *stubOrdersService) Review(_ context.Context, input internalorders.ReviewInput) (*models.Order, error) {
	s.reviewInput = &input
	return s.order, s.err
}

func (s *stubOrdersService) AdvanceStatus(_ context.Context, input internalorders.AdvanceInput) (*models.Order, error) {
	s.advanceInput = &input
	return s.order, s.err
}

func (s *stubOrdersService) CustomerDecision(_ context.Context, input internalorders.CustomerDecisionInput) (*models.Order, error) {
	s.decisionInput = &input
	return s.order, s.err
}

func testOrder(customerID, shopID uuid.UUID) *models.Order {
	return &models.Order{
		ID:         uuid.New(),
		CustomerID: customerID,
		ShopID:     shopID,
		Status:     enums.OrderStatusPreparing,
	}
}

func TestCustomerOrderDecisionApprove(t *testing.T) {
	customerID := uuid.New()
	orderID := uuid.New()
	svc := &stubOrdersService{order: testOrder(customerID, uuid.New())}

	r := chi.NewRouter()
	r.Post("/api/v1/orders/{orderId}/decision", CustomerOrderDecision(svc, nil))

	req := httptest.NewRequest(http.MethodPost, "/api/v1/orders/"+orderID.String()+"/decision", strings.NewReader(`{"decision":"approve"}`))
	req = req.WithContext(middleware.WithCustomerID(req.Context(), customerID))
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", rec.Code, rec.Body.String())
	}
	if svc.decisionInput == nil {
		t.Fatal("service not called")
	}
	if svc.decisionInput.OrderID != orderID {
		t.Fatalf("order id = %s, want %s", svc.decisionInput.OrderID, orderID)
	}
	if svc.decisionInput.CustomerID != customerID {
		t.Fatalf("customer id = %s, want %s", svc.decisionInput.CustomerID, customerID)
	}
	if svc.decisionInput.Decision != internalorders.CustomerDecisionApprove {
		t.Fatalf("decision = %s, want approve", svc.decisionInput.Decision)
	}
}

func TestCustomerOrderDecisionRejectsUnknownVerb(t *testing.T) {
	svc := &stubOrdersService{order: testOrder(uuid.New(), uuid.New())}

	r := chi.NewRouter()
	r.Post("/api/v1/orders/{orderId}/decision", CustomerOrderDecision(svc, nil))

	req := httptest.NewRequest(http.MethodPost, "/api/v1/orders/"+uuid.NewString()+"/decision", strings.NewReader(`{"decision":"maybe"}`))
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rec.Code)
	}
	if svc.decisionInput != nil {
		t.Fatal("service should not be called for an invalid decision")
	}
}

func TestShopOrderReviewMapsDecisions(t *testing.T) {
	shopID := uuid.New()
	orderID := uuid.New()
	itemID := uuid.New()
	svc := &stubOrdersService{order: testOrder(uuid.New(), shopID)}

	r := chi.NewRouter()
	r.Post("/api/v1/shop/orders/{orderId}/review", ShopOrderReview(svc, nil))

	body := `{"decisions":[{"order_item_id":"` + itemID.String() + `","available":false},{"order_item_id":"` + uuid.NewString() + `","available":true,"adjusted_quantity":2}]}`
	req := httptest.NewRequest(http.MethodPost, "/api/v1/shop/orders/"+orderID.String()+"/review", strings.NewReader(body))
	req = req.WithContext(middleware.WithShopID(req.Context(), shopID))
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", rec.Code, rec.Body.String())
	}
	input := svc.reviewInput
	if input == nil {
		t.Fatal("service not called")
	}
	if input.ShopID != shopID || input.OrderID != orderID {
		t.Fatalf("unexpected ids: %+v", input)
	}
	if len(input.Decisions) != 2 {
		t.Fatalf("decisions = %d, want 2", len(input.Decisions))
	}
	if input.Decisions[0].OrderItemID != itemID || input.Decisions[0].Available {
		t.Fatalf("first decision = %+v", input.Decisions[0])
	}
	if input.Decisions[1].AdjustedQuantity == nil || *input.Decisions[1].AdjustedQuantity != 2 {
		t.Fatalf("second decision = %+v", input.Decisions[1])
	}
}

func TestShopOrderAdvanceParsesTarget(t *testing.T) {
	shopID := uuid.New()
	orderID := uuid.New()
	svc := &stubOrdersService{order: testOrder(uuid.New(), shopID)}

	r := chi.NewRouter()
	r.Post("/api/v1/shop/orders/{orderId}/advance", ShopOrderAdvance(svc, nil))

	req := httptest.NewRequest(http.MethodPost, "/api/v1/shop/orders/"+orderID.String()+"/advance", strings.NewReader(`{"target":"ready_for_pickup"}`))
	req = req.WithContext(middleware.WithShopID(req.Context(), shopID))
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", rec.Code, rec.Body.String())
	}
	if svc.advanceInput == nil || svc.advanceInput.Target != enums.OrderStatusReadyForPickup {
		t.Fatalf("advance input = %+v", svc.advanceInput)
	}
}

func TestShopOrderAdvanceRejectsUnknownStatus(t *testing.T) {
	svc := &stubOrdersService{order: testOrder(uuid.New(), uuid.New())}

	r := chi.NewRouter()
	r.Post("/api/v1/shop/orders/{orderId}/advance", ShopOrderAdvance(svc, nil))

	req := httptest.NewRequest(http.MethodPost, "/api/v1/shop/orders/"+uuid.NewString()+"/advance", strings.NewReader(`{"target":"teleported"}`))
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rec.Code)
	}
	if svc.advanceInput != nil {
		t.Fatal("service should not be called for an unknown status")
	}
}

func TestCustomerOrderDecisionSurfacesServiceError(t *testing.T) {
	svc := &stubOrdersService{err: pkgerrors.New(pkgerrors.CodeStateConflict, "order is not awaiting customer approval")}

	r := chi.NewRouter()
	r.Post("/api/v1/orders/{orderId}/decision", CustomerOrderDecision(svc, nil))

	req := httptest.NewRequest(http.MethodPost, "/api/v1/orders/"+uuid.NewString()+"/decision", strings.NewReader(`{"decision":"approve"}`))
	req = req.WithContext(middleware.WithCustomerID(req.Context(), uuid.New()))
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	if rec.Code != http.StatusUnprocessableEntity {
		t.Fatalf("status = %d, want 422", rec.Code)
	}
	var envelope struct {
		Error struct {
			Code string `json:"code"`
		} `json:"error"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &envelope); err != nil {
		t.Fatalf("decode body: %v", err)
	}
	if envelope.Error.Code != string(pkgerrors.CodeStateConflict) {
		t.Fatalf("error code = %s", envelope.Error.Code)
	}
}
