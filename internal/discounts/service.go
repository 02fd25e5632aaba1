package discounts

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/bits-and-blooms/bloom/v3"
	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/localbasket/localbasket-backend/pkg/db/models"
	pkgerrors "github.com/localbasket/localbasket-backend/pkg/errors"
	"github.com/localbasket/localbasket-backend/pkg/logger"
)

const bloomFalsePositiveRate = 0.01

// Service validates discount codes. Lookups are case-insensitive: codes are
// stored upper-cased and input is normalized before matching.
type Service interface {
	// Validate resolves a code for the given shop. It returns CodeNotFound for
	// unknown or inactive codes and CodeValidation when the code exists but is
	// not redeemable at this shop.
	Validate(ctx context.Context, code string, shopID uuid.UUID) (*models.DiscountCode, error)
	// Refresh rebuilds the in-memory filter from the active code set. Codes
	// created after the last refresh are rejected until the next one runs.
	Refresh(ctx context.Context) error
}

type service struct {
	repo Repository
	logg *logger.Logger

	mu     sync.RWMutex
	filter *bloom.BloomFilter
}

// NewService builds the discount validator. Call Refresh before serving
// traffic so the filter reflects the current code set.
func NewService(repo Repository, logg *logger.Logger) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("discounts repository required")
	}
	return &service{repo: repo, logg: logg}, nil
}

// Normalize upper-cases and trims a raw discount code.
func Normalize(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}

func (s *service) Refresh(ctx context.Context) error {
	codes, err := s.repo.ListActiveCodes(ctx)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load active discount codes")
	}

	size := uint(len(codes))
	if size == 0 {
		size = 1
	}
	filter := bloom.NewWithEstimates(size, bloomFalsePositiveRate)
	for _, code := range codes {
		filter.AddString(Normalize(code))
	}

	s.mu.Lock()
	s.filter = filter
	s.mu.Unlock()

	if s.logg != nil {
		s.logg.Info(s.logg.WithFields(ctx, map[string]any{
			"codes": len(codes),
		}), "discount code filter refreshed")
	}
	return nil
}

func (s *service) Validate(ctx context.Context, code string, shopID uuid.UUID) (*models.DiscountCode, error) {
	normalized := Normalize(code)
	if normalized == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "discount code required")
	}

	// The filter answers definite negatives without touching the database.
	s.mu.RLock()
	filter := s.filter
	s.mu.RUnlock()
	if filter != nil && !filter.TestString(normalized) {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "discount code not found")
	}

	row, err := s.repo.FindByCode(ctx, normalized)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "discount code not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load discount code")
	}
	if !row.Active {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "discount code not found")
	}
	if len(row.ShopIDs) > 0 && !containsShop(row.ShopIDs, shopID) {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "discount code not valid for this shop")
	}
	return row, nil
}

func containsShop(shopIDs []string, shopID uuid.UUID) bool {
	want := shopID.String()
	for _, id := range shopIDs {
		if strings.EqualFold(id, want) {
			return true
		}
	}
	return false
}
