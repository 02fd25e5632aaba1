package controllers

import (
	"time"

	"github.com/google/uuid"

	"github.com/localbasket/localbasket-backend/internal/cart"
	"github.com/localbasket/localbasket-backend/pkg/db/models"
	"github.com/localbasket/localbasket-backend/pkg/enums"
)

type cartItemResponse struct {
	ID                 uuid.UUID `json:"id"`
	ProductID          uuid.UUID `json:"product_id"`
	ShopID             uuid.UUID `json:"shop_id"`
	Name               string    `json:"name"`
	UnitPricePaise     int       `json:"unit_price_paise"`
	OriginalPricePaise *int      `json:"original_price_paise,omitempty"`
	Quantity           int       `json:"quantity"`
	Available          bool      `json:"available"`
	LineSubtotalPaise  int       `json:"line_subtotal_paise"`
}

type cartResponse struct {
	ID              uuid.UUID          `json:"id"`
	CustomerID      uuid.UUID          `json:"customer_id"`
	Status          string             `json:"status"`
	DiscountCode    *string            `json:"discount_code,omitempty"`
	DiscountPercent int                `json:"discount_percent"`
	PointsToRedeem  int                `json:"points_to_redeem"`
	Items           []cartItemResponse `json:"items"`
	ShopGroups      []cart.ShopGroup   `json:"shop_groups"`
	CreatedAt       time.Time          `json:"created_at"`
	UpdatedAt       time.Time          `json:"updated_at"`
}

func newCartResponse(record *models.CartRecord) cartResponse {
	items := make([]cartItemResponse, 0, len(record.Items))
	for _, item := range record.Items {
		items = append(items, cartItemResponse{
			ID:                 item.ID,
			ProductID:          item.ProductID,
			ShopID:             item.ShopID,
			Name:               item.Name,
			UnitPricePaise:     item.UnitPricePaise,
			OriginalPricePaise: item.OriginalPricePaise,
			Quantity:           item.Quantity,
			Available:          item.Available,
			LineSubtotalPaise:  item.UnitPricePaise * item.Quantity,
		})
	}

	return cartResponse{
		ID:              record.ID,
		CustomerID:      record.CustomerID,
		Status:          string(record.Status),
		DiscountCode:    record.DiscountCode,
		DiscountPercent: record.DiscountPercent,
		PointsToRedeem:  record.PointsToRedeem,
		Items:           items,
		ShopGroups:      cart.GroupByShop(record),
		CreatedAt:       record.CreatedAt,
		UpdatedAt:       record.UpdatedAt,
	}
}

type orderItemResponse struct {
	ID                 uuid.UUID  `json:"id"`
	ProductID          uuid.UUID  `json:"product_id"`
	Name               string     `json:"name"`
	UnitPricePaise     int        `json:"unit_price_paise"`
	OriginalPricePaise *int       `json:"original_price_paise,omitempty"`
	OriginalQuantity   int        `json:"original_quantity"`
	Quantity           int        `json:"quantity"`
	Available          bool       `json:"available"`
	ReviewedAt         *time.Time `json:"reviewed_at,omitempty"`
}

type orderResponse struct {
	ID                       uuid.UUID           `json:"id"`
	CustomerID               uuid.UUID           `json:"customer_id"`
	ShopID                   uuid.UUID           `json:"shop_id"`
	Status                   enums.OrderStatus   `json:"status"`
	CustomerApprovalRequired bool                `json:"customer_approval_required"`
	SubtotalPaise            int                 `json:"subtotal_paise"`
	DeliveryFeePaise         int                 `json:"delivery_fee_paise"`
	DiscountPaise            int                 `json:"discount_paise"`
	DiscountPercent          int                 `json:"discount_percent"`
	DiscountCode             *string             `json:"discount_code,omitempty"`
	PointsRedeemed           int                 `json:"points_redeemed"`
	OriginalTotalPaise       int                 `json:"original_total_paise"`
	ModifiedTotalPaise       int                 `json:"modified_total_paise"`
	StatusChangedAt          time.Time           `json:"status_changed_at"`
	DeliveredAt              *time.Time          `json:"delivered_at,omitempty"`
	CancelledAt              *time.Time          `json:"cancelled_at,omitempty"`
	RejectedAt               *time.Time          `json:"rejected_at,omitempty"`
	Items                    []orderItemResponse `json:"items"`
	CreatedAt                time.Time           `json:"created_at"`
}

func newOrderResponse(order *models.Order) orderResponse {
	items := make([]orderItemResponse, 0, len(order.Items))
	for _, item := range order.Items {
		items = append(items, orderItemResponse{
			ID:                 item.ID,
			ProductID:          item.ProductID,
			Name:               item.Name,
			UnitPricePaise:     item.UnitPricePaise,
			OriginalPricePaise: item.OriginalPricePaise,
			OriginalQuantity:   item.OriginalQuantity,
			Quantity:           item.Quantity,
			Available:          item.Available,
			ReviewedAt:         item.ReviewedAt,
		})
	}

	return orderResponse{
		ID:                       order.ID,
		CustomerID:               order.CustomerID,
		ShopID:                   order.ShopID,
		Status:                   order.Status,
		CustomerApprovalRequired: order.CustomerApprovalRequired,
		SubtotalPaise:            order.SubtotalPaise,
		DeliveryFeePaise:         order.DeliveryFeePaise,
		DiscountPaise:            order.DiscountPaise,
		DiscountPercent:          order.DiscountPercent,
		DiscountCode:             order.DiscountCode,
		PointsRedeemed:           order.PointsRedeemed,
		OriginalTotalPaise:       order.OriginalTotalPaise,
		ModifiedTotalPaise:       order.ModifiedTotalPaise,
		StatusChangedAt:          order.StatusChangedAt,
		DeliveredAt:              order.DeliveredAt,
		CancelledAt:              order.CancelledAt,
		RejectedAt:               order.RejectedAt,
		Items:                    items,
		CreatedAt:                order.CreatedAt,
	}
}

type orderListResponse struct {
	Orders     []orderResponse `json:"orders"`
	NextCursor string          `json:"next_cursor,omitempty"`
}

func shopResponse(shop *models.Shop) map[string]any {
	return map[string]any{
		"id":         shop.ID,
		"name":       shop.Name,
		"gstin":      shop.GSTIN,
		"address":    shop.Address,
		"is_active":  shop.IsActive,
		"created_at": shop.CreatedAt,
	}
}
