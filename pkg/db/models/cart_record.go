package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/localbasket/localbasket-backend/pkg/enums"
)

// CartRecord is the single active cart owned by a customer. At most one
// discount code is attached at a time; applying another replaces it.
type CartRecord struct {
	ID              uuid.UUID        `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	CustomerID      uuid.UUID        `gorm:"column:customer_id;type:uuid;not null;index"`
	Status          enums.CartStatus `gorm:"column:status;type:text;not null;default:'active'"`
	DiscountCode    *string          `gorm:"column:discount_code"`
	DiscountPercent int              `gorm:"column:discount_percent;not null;default:0"`
	PointsToRedeem  int              `gorm:"column:points_to_redeem;not null;default:0"`
	ConvertedAt     *time.Time       `gorm:"column:converted_at"`
	Items           []CartItem       `gorm:"foreignKey:CartID;constraint:OnDelete:CASCADE"`
	CreatedAt       time.Time        `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt       time.Time        `gorm:"column:updated_at;autoUpdateTime"`
}
