package models

import (
	"time"

	"github.com/lib/pq"
)

// DiscountCode maps an upper-cased code to a percentage discount. ShopIDs
// optionally scopes the code to specific shops; empty means platform-wide.
type DiscountCode struct {
	Code        string         `gorm:"column:code;primaryKey"`
	Percentage  int            `gorm:"column:percentage;not null"`
	Description string         `gorm:"column:description;not null"`
	Active      bool           `gorm:"column:active;not null;default:true"`
	ShopIDs     pq.StringArray `gorm:"column:shop_ids;type:text[]"`
	CreatedAt   time.Time      `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt   time.Time      `gorm:"column:updated_at;autoUpdateTime"`
}
