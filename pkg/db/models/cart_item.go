package models

import (
	"time"

	"github.com/google/uuid"
)

// CartItem is one product line inside a cart. The (cart_id, product_id) pair
// is unique, so no two lines for the same product coexist. Setting quantity to
// zero removes the line.
type CartItem struct {
	ID                 uuid.UUID `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	CartID             uuid.UUID `gorm:"column:cart_id;type:uuid;not null;uniqueIndex:ux_cart_items_cart_product"`
	ProductID          uuid.UUID `gorm:"column:product_id;type:uuid;not null;uniqueIndex:ux_cart_items_cart_product"`
	ShopID             uuid.UUID `gorm:"column:shop_id;type:uuid;not null;index"`
	Name               string    `gorm:"column:name;not null"`
	UnitPricePaise     int       `gorm:"column:unit_price_paise;not null"`
	OriginalPricePaise *int      `gorm:"column:original_price_paise"`
	Quantity           int       `gorm:"column:quantity;not null"`
	Available          bool      `gorm:"column:available;not null;default:true"`
	CreatedAt          time.Time `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt          time.Time `gorm:"column:updated_at;autoUpdateTime"`
}
