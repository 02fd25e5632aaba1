package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/localbasket/localbasket-backend/pkg/enums"
)

// Order is the immutable price snapshot produced from a cart at checkout plus
// the mutable lifecycle state driven by the shop dashboard. ModifiedTotalPaise
// starts equal to OriginalTotalPaise and is recomputed when the owner reviews
// item availability.
type Order struct {
	ID                       uuid.UUID         `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	CustomerID               uuid.UUID         `gorm:"column:customer_id;type:uuid;not null;index"`
	ShopID                   uuid.UUID         `gorm:"column:shop_id;type:uuid;not null;index"`
	CartID                   uuid.UUID         `gorm:"column:cart_id;type:uuid;not null"`
	Status                   enums.OrderStatus `gorm:"column:status;type:text;not null;default:'new'"`
	CustomerApprovalRequired bool              `gorm:"column:customer_approval_required;not null;default:false"`
	SubtotalPaise            int               `gorm:"column:subtotal_paise;not null"`
	DeliveryFeePaise         int               `gorm:"column:delivery_fee_paise;not null"`
	DiscountPaise            int               `gorm:"column:discount_paise;not null;default:0"`
	DiscountPercent          int               `gorm:"column:discount_percent;not null;default:0"`
	DiscountCode             *string           `gorm:"column:discount_code"`
	PointsRedeemed           int               `gorm:"column:points_redeemed;not null;default:0"`
	OriginalTotalPaise       int               `gorm:"column:original_total_paise;not null"`
	ModifiedTotalPaise       int               `gorm:"column:modified_total_paise;not null"`
	StatusChangedAt          time.Time         `gorm:"column:status_changed_at;not null"`
	AcceptedAt               *time.Time        `gorm:"column:accepted_at"`
	ReadyAt                  *time.Time        `gorm:"column:ready_at"`
	DispatchedAt             *time.Time        `gorm:"column:dispatched_at"`
	DeliveredAt              *time.Time        `gorm:"column:delivered_at"`
	CancelledAt              *time.Time        `gorm:"column:cancelled_at"`
	RejectedAt               *time.Time        `gorm:"column:rejected_at"`
	ArchivedAt               *time.Time        `gorm:"column:archived_at;index"`
	Items                    []OrderItem       `gorm:"foreignKey:OrderID;constraint:OnDelete:CASCADE"`
	CreatedAt                time.Time         `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt                time.Time         `gorm:"column:updated_at;autoUpdateTime"`
}
