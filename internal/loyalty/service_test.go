package loyalty

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/localbasket/localbasket-backend/pkg/config"
	"github.com/localbasket/localbasket-backend/pkg/db/models"
	"github.com/localbasket/localbasket-backend/pkg/enums"
	pkgerrors "github.com/localbasket/localbasket-backend/pkg/errors"
)

type stubLoyaltyRepo struct {
	account *models.LoyaltyAccount
	created *models.LoyaltyAccount
	updates map[string]any
}

func (s *stubLoyaltyRepo) WithTx(tx *gorm.DB) Repository {
	return s
}

func (s *stubLoyaltyRepo) FindAccount(ctx context.Context, customerID uuid.UUID) (*models.LoyaltyAccount, error) {
	return s.FindAccountForUpdate(ctx, customerID)
}

func (s *stubLoyaltyRepo) FindAccountForUpdate(ctx context.Context, customerID uuid.UUID) (*models.LoyaltyAccount, error) {
	if s.account == nil || s.account.CustomerID != customerID {
		return nil, gorm.ErrRecordNotFound
	}
	return s.account, nil
}

func (s *stubLoyaltyRepo) CreateAccount(ctx context.Context, account *models.LoyaltyAccount) error {
	s.created = account
	return nil
}

func (s *stubLoyaltyRepo) UpdateAccount(ctx context.Context, customerID uuid.UUID, updates map[string]any) error {
	s.updates = updates
	return nil
}

func testLoyaltyConfig() config.LoyaltyConfig {
	return config.LoyaltyConfig{
		EarnPerHundredPaise: 2,
		SilverThreshold:     2000,
		GoldThreshold:       10000,
	}
}

func TestGetAccountDefaultsToBronze(t *testing.T) {
	svc, err := NewService(&stubLoyaltyRepo{}, testLoyaltyConfig())
	if err != nil {
		t.Fatalf("service constructor failed: %v", err)
	}

	account, err := svc.GetAccount(context.Background(), uuid.New())
	if err != nil {
		t.Fatalf("expected success got %v", err)
	}
	if account.PointsBalance != 0 || account.Tier != enums.LoyaltyTierBronze {
		t.Fatalf("expected empty bronze account got %+v", account)
	}
}

func TestDeductInsufficientBalance(t *testing.T) {
	customerID := uuid.New()
	repo := &stubLoyaltyRepo{account: &models.LoyaltyAccount{
		CustomerID:    customerID,
		PointsBalance: 50,
	}}
	svc, _ := NewService(repo, testLoyaltyConfig())

	err := svc.Deduct(context.Background(), nil, customerID, 100)
	if !pkgerrors.IsCode(err, pkgerrors.CodeConflict) {
		t.Fatalf("expected conflict got %v", err)
	}
	if repo.updates != nil {
		t.Fatal("balance must not change")
	}
}

func TestDeductUpdatesBalance(t *testing.T) {
	customerID := uuid.New()
	repo := &stubLoyaltyRepo{account: &models.LoyaltyAccount{
		CustomerID:    customerID,
		PointsBalance: 150,
	}}
	svc, _ := NewService(repo, testLoyaltyConfig())

	if err := svc.Deduct(context.Background(), nil, customerID, 100); err != nil {
		t.Fatalf("expected success got %v", err)
	}
	if repo.updates["points_balance"] != 50 {
		t.Fatalf("expected balance 50 got %v", repo.updates["points_balance"])
	}
}

func TestDeductZeroIsNoop(t *testing.T) {
	repo := &stubLoyaltyRepo{}
	svc, _ := NewService(repo, testLoyaltyConfig())

	if err := svc.Deduct(context.Background(), nil, uuid.New(), 0); err != nil {
		t.Fatalf("expected success got %v", err)
	}
	if repo.updates != nil {
		t.Fatal("unexpected update")
	}
}

func TestAwardCreatesAccountOnFirstDelivery(t *testing.T) {
	repo := &stubLoyaltyRepo{}
	svc, _ := NewService(repo, testLoyaltyConfig())

	// 315 paise at 2 points per full hundred -> 6 points.
	earned, err := svc.Award(context.Background(), nil, uuid.New(), 315)
	if err != nil {
		t.Fatalf("expected success got %v", err)
	}
	if earned != 6 {
		t.Fatalf("expected 6 points got %d", earned)
	}
	if repo.created == nil || repo.created.PointsBalance != 6 || repo.created.Tier != enums.LoyaltyTierBronze {
		t.Fatalf("unexpected created account %+v", repo.created)
	}
}

func TestAwardPromotesTier(t *testing.T) {
	customerID := uuid.New()
	repo := &stubLoyaltyRepo{account: &models.LoyaltyAccount{
		CustomerID:     customerID,
		PointsBalance:  100,
		LifetimePoints: 1990,
		Tier:           enums.LoyaltyTierBronze,
	}}
	svc, _ := NewService(repo, testLoyaltyConfig())

	earned, err := svc.Award(context.Background(), nil, customerID, 1000)
	if err != nil {
		t.Fatalf("expected success got %v", err)
	}
	if earned != 20 {
		t.Fatalf("expected 20 points got %d", earned)
	}
	if repo.updates["lifetime_points"] != 2010 {
		t.Fatalf("expected lifetime 2010 got %v", repo.updates["lifetime_points"])
	}
	if repo.updates["tier"] != enums.LoyaltyTierSilver {
		t.Fatalf("expected silver tier got %v", repo.updates["tier"])
	}
}

func TestAwardBelowHundredPaiseEarnsNothing(t *testing.T) {
	repo := &stubLoyaltyRepo{}
	svc, _ := NewService(repo, testLoyaltyConfig())

	earned, err := svc.Award(context.Background(), nil, uuid.New(), 99)
	if err != nil {
		t.Fatalf("expected success got %v", err)
	}
	if earned != 0 {
		t.Fatalf("expected 0 points got %d", earned)
	}
	if repo.created != nil || repo.updates != nil {
		t.Fatal("no account writes expected")
	}
}

func TestTierThresholds(t *testing.T) {
	svc := &service{cfg: testLoyaltyConfig()}
	cases := []struct {
		lifetime int
		want     enums.LoyaltyTier
	}{
		{0, enums.LoyaltyTierBronze},
		{1999, enums.LoyaltyTierBronze},
		{2000, enums.LoyaltyTierSilver},
		{9999, enums.LoyaltyTierSilver},
		{10000, enums.LoyaltyTierGold},
	}
	for _, tc := range cases {
		if got := svc.TierFor(tc.lifetime); got != tc.want {
			t.Fatalf("lifetime %d: expected %s got %s", tc.lifetime, tc.want, got)
		}
	}
}
