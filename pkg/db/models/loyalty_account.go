package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/localbasket/localbasket-backend/pkg/enums"
)

// LoyaltyAccount tracks a customer's redeemable balance and lifetime points.
// One point converts to one paisa at redemption time.
type LoyaltyAccount struct {
	CustomerID     uuid.UUID         `gorm:"column:customer_id;type:uuid;primaryKey"`
	PointsBalance  int               `gorm:"column:points_balance;not null;default:0"`
	LifetimePoints int               `gorm:"column:lifetime_points;not null;default:0"`
	Tier           enums.LoyaltyTier `gorm:"column:tier;type:text;not null;default:'bronze'"`
	CreatedAt      time.Time         `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt      time.Time         `gorm:"column:updated_at;autoUpdateTime"`
}
