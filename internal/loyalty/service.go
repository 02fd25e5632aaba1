package loyalty

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/localbasket/localbasket-backend/pkg/config"
	"github.com/localbasket/localbasket-backend/pkg/db/models"
	"github.com/localbasket/localbasket-backend/pkg/enums"
	pkgerrors "github.com/localbasket/localbasket-backend/pkg/errors"
)

// Service manages loyalty balances. Deduct and Award run inside the caller's
// transaction so point movements commit atomically with the order change that
// caused them.
type Service interface {
	GetAccount(ctx context.Context, customerID uuid.UUID) (*models.LoyaltyAccount, error)
	Deduct(ctx context.Context, tx *gorm.DB, customerID uuid.UUID, points int) error
	Award(ctx context.Context, tx *gorm.DB, customerID uuid.UUID, amountPaise int) (int, error)
}

type service struct {
	repo Repository
	cfg  config.LoyaltyConfig
}

// NewService builds the loyalty service.
func NewService(repo Repository, cfg config.LoyaltyConfig) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("loyalty repository required")
	}
	return &service{repo: repo, cfg: cfg}, nil
}

// GetAccount returns the customer's account. Customers who never earned a
// point get a zero bronze account without a row being written.
func (s *service) GetAccount(ctx context.Context, customerID uuid.UUID) (*models.LoyaltyAccount, error) {
	account, err := s.repo.FindAccount(ctx, customerID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return &models.LoyaltyAccount{
				CustomerID: customerID,
				Tier:       enums.LoyaltyTierBronze,
			}, nil
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load loyalty account")
	}
	return account, nil
}

// Deduct removes redeemed points from the customer's balance.
func (s *service) Deduct(ctx context.Context, tx *gorm.DB, customerID uuid.UUID, points int) error {
	if points < 0 {
		return pkgerrors.New(pkgerrors.CodeValidation, "points to deduct cannot be negative")
	}
	if points == 0 {
		return nil
	}

	repo := s.repo.WithTx(tx)
	account, err := repo.FindAccountForUpdate(ctx, customerID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return pkgerrors.New(pkgerrors.CodeConflict, "insufficient loyalty points")
		}
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load loyalty account")
	}
	if account.PointsBalance < points {
		return pkgerrors.New(pkgerrors.CodeConflict, "insufficient loyalty points").
			WithDetails(map[string]any{"balance": account.PointsBalance, "requested": points})
	}

	return repo.UpdateAccount(ctx, customerID, map[string]any{
		"points_balance": account.PointsBalance - points,
	})
}

// Award credits points for a delivered order and bumps the tier when the new
// lifetime total crosses a threshold. Returns the points earned.
func (s *service) Award(ctx context.Context, tx *gorm.DB, customerID uuid.UUID, amountPaise int) (int, error) {
	if amountPaise <= 0 {
		return 0, nil
	}
	earned := amountPaise / 100 * s.cfg.EarnPerHundredPaise
	if earned == 0 {
		return 0, nil
	}

	repo := s.repo.WithTx(tx)
	account, err := repo.FindAccountForUpdate(ctx, customerID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			account = &models.LoyaltyAccount{
				CustomerID:     customerID,
				PointsBalance:  earned,
				LifetimePoints: earned,
				Tier:           s.TierFor(earned),
			}
			if err := repo.CreateAccount(ctx, account); err != nil {
				return 0, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create loyalty account")
			}
			return earned, nil
		}
		return 0, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load loyalty account")
	}

	lifetime := account.LifetimePoints + earned
	err = repo.UpdateAccount(ctx, customerID, map[string]any{
		"points_balance":  account.PointsBalance + earned,
		"lifetime_points": lifetime,
		"tier":            s.TierFor(lifetime),
	})
	if err != nil {
		return 0, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update loyalty account")
	}
	return earned, nil
}

// TierFor maps lifetime points to a tier using the configured thresholds.
func (s *service) TierFor(lifetimePoints int) enums.LoyaltyTier {
	switch {
	case lifetimePoints >= s.cfg.GoldThreshold:
		return enums.LoyaltyTierGold
	case lifetimePoints >= s.cfg.SilverThreshold:
		return enums.LoyaltyTierSilver
	default:
		return enums.LoyaltyTierBronze
	}
}
