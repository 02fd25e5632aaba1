package shops

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/localbasket/localbasket-backend/pkg/db/models"
	pkgerrors "github.com/localbasket/localbasket-backend/pkg/errors"
)

type stubShopsRepo struct {
	shop      *models.Shop
	createErr error
	updates   map[string]any
}

func (s *stubShopsRepo) Create(ctx context.Context, shop *models.Shop) error {
	if s.createErr != nil {
		return s.createErr
	}
	shop.ID = uuid.New()
	s.shop = shop
	return nil
}

func (s *stubShopsRepo) FindByID(ctx context.Context, shopID uuid.UUID) (*models.Shop, error) {
	if s.shop == nil || s.shop.ID != shopID {
		return nil, gorm.ErrRecordNotFound
	}
	return s.shop, nil
}

func (s *stubShopsRepo) Update(ctx context.Context, shopID uuid.UUID, updates map[string]any) error {
	s.updates = updates
	return nil
}

func TestRegisterNormalizesGSTIN(t *testing.T) {
	repo := &stubShopsRepo{}
	svc, err := NewService(repo)
	if err != nil {
		t.Fatalf("service constructor failed: %v", err)
	}

	shop, err := svc.Register(context.Background(), RegisterInput{
		Name:  "Sharma Kirana Store",
		GSTIN: " 27aapfu0939f1zv ",
	})
	if err != nil {
		t.Fatalf("expected success got %v", err)
	}
	if shop.GSTIN != "27AAPFU0939F1ZV" {
		t.Fatalf("expected normalized gstin got %q", shop.GSTIN)
	}
	if !shop.IsActive {
		t.Fatal("new shop must be active")
	}
}

func TestRegisterRejectsInvalidGSTIN(t *testing.T) {
	svc, _ := NewService(&stubShopsRepo{})

	_, err := svc.Register(context.Background(), RegisterInput{
		Name:  "Sharma Kirana Store",
		GSTIN: "27AAPFU0939F1ZZ",
	})
	if !pkgerrors.IsCode(err, pkgerrors.CodeValidation) {
		t.Fatalf("expected validation error got %v", err)
	}
}

func TestRegisterDuplicateGSTIN(t *testing.T) {
	repo := &stubShopsRepo{createErr: errors.New(`duplicate key value violates unique constraint "idx_shops_gstin"`)}
	svc, _ := NewService(repo)

	_, err := svc.Register(context.Background(), RegisterInput{
		Name:  "Sharma Kirana Store",
		GSTIN: "27AAPFU0939F1ZV",
	})
	if !pkgerrors.IsCode(err, pkgerrors.CodeConflict) {
		t.Fatalf("expected conflict got %v", err)
	}
}

func TestGetShopNotFound(t *testing.T) {
	svc, _ := NewService(&stubShopsRepo{})

	_, err := svc.GetShop(context.Background(), uuid.New())
	if !pkgerrors.IsCode(err, pkgerrors.CodeNotFound) {
		t.Fatalf("expected not found got %v", err)
	}
}

func TestDeactivate(t *testing.T) {
	repo := &stubShopsRepo{shop: &models.Shop{ID: uuid.New(), Name: "Sharma Kirana Store", IsActive: true}}
	svc, _ := NewService(repo)

	if err := svc.Deactivate(context.Background(), repo.shop.ID); err != nil {
		t.Fatalf("expected success got %v", err)
	}
	if repo.updates["is_active"] != false {
		t.Fatalf("expected deactivation update got %+v", repo.updates)
	}
}
