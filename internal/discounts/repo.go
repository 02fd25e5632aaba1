package discounts

import (
	"context"

	"gorm.io/gorm"

	"github.com/localbasket/localbasket-backend/pkg/db/models"
)

// Repository exposes discount code persistence operations.
type Repository interface {
	FindByCode(ctx context.Context, code string) (*models.DiscountCode, error)
	ListActiveCodes(ctx context.Context) ([]string, error)
}

type repository struct {
	db *gorm.DB
}

// NewRepository builds a discounts repository bound to the provided DB.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) FindByCode(ctx context.Context, code string) (*models.DiscountCode, error) {
	var row models.DiscountCode
	err := r.db.WithContext(ctx).
		Where("code = ?", code).
		First(&row).Error
	if err != nil {
		return nil, err
	}
	return &row, nil
}

func (r *repository) ListActiveCodes(ctx context.Context) ([]string, error) {
	var codes []string
	err := r.db.WithContext(ctx).
		Model(&models.DiscountCode{}).
		Where("active = ?", true).
		Pluck("code", &codes).Error
	return codes, err
}
