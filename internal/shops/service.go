package shops

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/localbasket/localbasket-backend/pkg/db"
	"github.com/localbasket/localbasket-backend/pkg/db/models"
	pkgerrors "github.com/localbasket/localbasket-backend/pkg/errors"
)

// RegisterInput is the shop onboarding payload.
type RegisterInput struct {
	Name    string
	GSTIN   string
	Address *string
}

// Service handles shop onboarding and lookup.
type Service interface {
	Register(ctx context.Context, input RegisterInput) (*models.Shop, error)
	GetShop(ctx context.Context, shopID uuid.UUID) (*models.Shop, error)
	Deactivate(ctx context.Context, shopID uuid.UUID) error
}

type service struct {
	repo Repository
}

// NewService builds the shops service.
func NewService(repo Repository) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("shops repository required")
	}
	return &service{repo: repo}, nil
}

func (s *service) Register(ctx context.Context, input RegisterInput) (*models.Shop, error) {
	name := strings.TrimSpace(input.Name)
	if name == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "shop name required")
	}
	if err := ValidateGSTIN(input.GSTIN); err != nil {
		return nil, err
	}

	shop := &models.Shop{
		Name:     name,
		GSTIN:    NormalizeGSTIN(input.GSTIN),
		Address:  input.Address,
		IsActive: true,
	}
	if err := s.repo.Create(ctx, shop); err != nil {
		if db.IsUniqueViolation(err, "") {
			return nil, pkgerrors.New(pkgerrors.CodeConflict, "gstin already registered")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create shop")
	}
	return shop, nil
}

func (s *service) GetShop(ctx context.Context, shopID uuid.UUID) (*models.Shop, error) {
	if shopID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "shop id required")
	}
	shop, err := s.repo.FindByID(ctx, shopID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "shop not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load shop")
	}
	return shop, nil
}

func (s *service) Deactivate(ctx context.Context, shopID uuid.UUID) error {
	if _, err := s.GetShop(ctx, shopID); err != nil {
		return err
	}
	return s.repo.Update(ctx, shopID, map[string]any{"is_active": false})
}
