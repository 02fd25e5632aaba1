package models

import (
	"time"

	"github.com/google/uuid"
)

// OrderItem is the frozen copy of a cart line taken at checkout. Quantity and
// Available reflect the shop owner's review decisions; the original checkout
// values stay in OriginalQuantity and the price columns.
type OrderItem struct {
	ID                 uuid.UUID  `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	OrderID            uuid.UUID  `gorm:"column:order_id;type:uuid;not null;index"`
	ProductID          uuid.UUID  `gorm:"column:product_id;type:uuid;not null"`
	ShopID             uuid.UUID  `gorm:"column:shop_id;type:uuid;not null"`
	Name               string     `gorm:"column:name;not null"`
	UnitPricePaise     int        `gorm:"column:unit_price_paise;not null"`
	OriginalPricePaise *int       `gorm:"column:original_price_paise"`
	OriginalQuantity   int        `gorm:"column:original_quantity;not null"`
	Quantity           int        `gorm:"column:quantity;not null"`
	Available          bool       `gorm:"column:available;not null;default:true"`
	ReviewedAt         *time.Time `gorm:"column:reviewed_at"`
	CreatedAt          time.Time  `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt          time.Time  `gorm:"column:updated_at;autoUpdateTime"`
}
