package services_test

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/suite"

	"github.com/kalestates/kal_affiliate_app/internal/apperrors"
	"github.com/kalestates/kal_affiliate_app/internal/core/domain"
	"github.com/kalestates/kal_affiliate_app/internal/core/services"
	"github.com/kalestates/kal_affiliate_app/internal/integrity"
	portsrepo "github.com/kalestates/kal_affiliate_app/internal/core/ports/repositories"
)

// MockAffiliateRepository is a mock type for the AffiliateRepositoryFacade interface
type MockAffiliateRepository struct {
	mock.Mock
}

func (m *MockAffiliateRepository) SaveAffiliate(ctx context.Context, affiliate domain.Affiliate) error {
	args := m.Called(ctx, affiliate)
	return args.Error(0)
}

func (m *MockAffiliateRepository) FindAffiliateByID(ctx context.Context, affiliateID string) (*domain.Affiliate, error) {
	args := m.Called(ctx, affiliateID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Affiliate), args.Error(1)
}

func (m *MockAffiliateRepository) FindAffiliateByUserID(ctx context.Context, userID string) (*domain.Affiliate, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Affiliate), args.Error(1)
}

func (m *MockAffiliateRepository) FindAffiliateByReferralCode(ctx context.Context, code string) (*domain.Affiliate, error) {
	args := m.Called(ctx, code)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Affiliate), args.Error(1)
}

func (m *MockAffiliateRepository) ReferralCodeExists(ctx context.Context, code string) (bool, error) {
	args := m.Called(ctx, code)
	return args.Bool(0), args.Error(1)
}

func (m *MockAffiliateRepository) MarkActivated(ctx context.Context, affiliateID string, updatedBy string, now time.Time) error {
	args := m.Called(ctx, affiliateID, updatedBy, now)
	return args.Error(0)
}

func (m *MockAffiliateRepository) ListDownline(ctx context.Context, uplineID string) ([]domain.Affiliate, error) {
	args := m.Called(ctx, uplineID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.Affiliate), args.Error(1)
}

// MockPackageRepository is a mock type for the PackageRepositoryFacade interface
type MockPackageRepository struct {
	mock.Mock
}

func (m *MockPackageRepository) SavePackage(ctx context.Context, pkg domain.AffiliatePackage) error {
	args := m.Called(ctx, pkg)
	return args.Error(0)
}

func (m *MockPackageRepository) FindPackageByID(ctx context.Context, packageID string) (*domain.AffiliatePackage, error) {
	args := m.Called(ctx, packageID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.AffiliatePackage), args.Error(1)
}

func (m *MockPackageRepository) ListPackages(ctx context.Context, publishedOnly bool) ([]domain.AffiliatePackage, error) {
	args := m.Called(ctx, publishedOnly)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.AffiliatePackage), args.Error(1)
}

func (m *MockPackageRepository) UpdatePackage(ctx context.Context, pkg domain.AffiliatePackage) error {
	args := m.Called(ctx, pkg)
	return args.Error(0)
}

func (m *MockPackageRepository) PublishPackage(ctx context.Context, packageID string, updatedBy string, now time.Time) error {
	args := m.Called(ctx, packageID, updatedBy, now)
	return args.Error(0)
}

// MockCommissionRepository is a mock type for the CommissionRepositoryFacade interface
type MockCommissionRepository struct {
	mock.Mock
}

func (m *MockCommissionRepository) SettleDistribution(ctx context.Context, claim portsrepo.DistributionClaim, logs []domain.CommissionLog, balanceChanges map[string]decimal.Decimal, statements []domain.StatementEntry) error {
	args := m.Called(ctx, claim, logs, balanceChanges, statements)
	return args.Error(0)
}

func (m *MockCommissionRepository) FindCommissionByID(ctx context.Context, commissionID string) (*domain.CommissionLog, error) {
	args := m.Called(ctx, commissionID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.CommissionLog), args.Error(1)
}

func (m *MockCommissionRepository) ListCommissionsByRecipient(ctx context.Context, recipientID string, limit int, nextToken *string) ([]domain.CommissionLog, *string, error) {
	args := m.Called(ctx, recipientID, limit, nextToken)
	var entries []domain.CommissionLog
	if args.Get(0) != nil {
		entries = args.Get(0).([]domain.CommissionLog)
	}
	var next *string
	if args.Get(1) != nil {
		next = args.Get(1).(*string)
	}
	return entries, next, args.Error(2)
}

func (m *MockCommissionRepository) SumCommissionsByRecipient(ctx context.Context, recipientID string) (decimal.Decimal, error) {
	args := m.Called(ctx, recipientID)
	return args.Get(0).(decimal.Decimal), args.Error(1)
}

func (m *MockCommissionRepository) DeleteCommission(ctx context.Context, commissionID string) error {
	args := m.Called(ctx, commissionID)
	return args.Error(0)
}

func (m *MockCommissionRepository) Reconcile(ctx context.Context) ([]portsrepo.ReconciliationRow, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]portsrepo.ReconciliationRow), args.Error(1)
}

// --- Test Suite Setup ---

type CommissionServiceTestSuite struct {
	suite.Suite
	mockAffiliateRepo  *MockAffiliateRepository
	mockPackageRepo    *MockPackageRepository
	mockCommissionRepo *MockCommissionRepository
	sealer             *integrity.Sealer
	service            *services.CommissionService
}

func (suite *CommissionServiceTestSuite) SetupTest() {
	suite.mockAffiliateRepo = new(MockAffiliateRepository)
	suite.mockPackageRepo = new(MockPackageRepository)
	suite.mockCommissionRepo = new(MockCommissionRepository)
	sealer, err := integrity.NewSealer("test-seal-secret")
	suite.Require().NoError(err)
	suite.sealer = sealer
	suite.service = services.NewCommissionService(suite.mockAffiliateRepo, suite.mockPackageRepo, suite.mockCommissionRepo, sealer)
}

// --- Helpers ---

func newTestPackage(price int64, maxDepth int, commissions map[string]string) *domain.AffiliatePackage {
	table := make(map[string]decimal.Decimal, len(commissions))
	for gen, pct := range commissions {
		table[gen] = decimal.RequireFromString(pct)
	}
	return &domain.AffiliatePackage{
		PackageID:   uuid.NewString(),
		Name:        "Test Package",
		Price:       decimal.NewFromInt(price),
		MaxDepth:    maxDepth,
		Commissions: table,
		IsPublished: true,
	}
}

func newTestAffiliate(pkg *domain.AffiliatePackage, uplineID *string, active bool) *domain.Affiliate {
	return &domain.Affiliate{
		AffiliateID:  uuid.NewString(),
		UserID:       uuid.NewString(),
		UplineID:     uplineID,
		PackageID:    pkg.PackageID,
		ReferralCode: "KAL-" + uuid.NewString()[:6],
		IsActive:     active,
		Balance:      decimal.Zero,
		JoinedAt:     time.Now().UTC(),
	}
}

func activationClaim(affiliateID string) portsrepo.DistributionClaim {
	return portsrepo.DistributionClaim{Trigger: portsrepo.TriggerActivation, TriggerID: affiliateID}
}

// --- Test Cases ---

// A buys a 50,000 package. A's referrer is B (gen 1, 20%), B's referrer is C
// (gen 2, 10%). Expect two payouts: B gets 10,000, C gets 5,000.
func (suite *CommissionServiceTestSuite) TestDistribute_TwoGenerationChain() {
	ctx := context.Background()
	price := decimal.NewFromInt(50000)

	pkg := newTestPackage(50000, 3, map[string]string{"1": "20", "2": "10", "3": "5"})
	grandUpline := newTestAffiliate(pkg, nil, true)
	upline := newTestAffiliate(pkg, &grandUpline.AffiliateID, true)
	source := newTestAffiliate(pkg, &upline.AffiliateID, false)

	suite.mockAffiliateRepo.On("FindAffiliateByID", ctx, source.AffiliateID).Return(source, nil)
	suite.mockAffiliateRepo.On("FindAffiliateByID", ctx, upline.AffiliateID).Return(upline, nil)
	suite.mockAffiliateRepo.On("FindAffiliateByID", ctx, grandUpline.AffiliateID).Return(grandUpline, nil)
	suite.mockPackageRepo.On("FindPackageByID", ctx, pkg.PackageID).Return(pkg, nil)

	var settledLogs []domain.CommissionLog
	var settledBalances map[string]decimal.Decimal
	var settledStatements []domain.StatementEntry
	suite.mockCommissionRepo.On("SettleDistribution", ctx, activationClaim(source.AffiliateID), mock.Anything, mock.Anything, mock.Anything).
		Run(func(args mock.Arguments) {
			settledLogs = args.Get(2).([]domain.CommissionLog)
			settledBalances = args.Get(3).(map[string]decimal.Decimal)
			settledStatements = args.Get(4).([]domain.StatementEntry)
		}).
		Return(nil).Once()

	logs, err := suite.service.Distribute(ctx, source.AffiliateID, price, activationClaim(source.AffiliateID))

	suite.Require().NoError(err)
	suite.Require().Len(logs, 2)

	suite.Equal(upline.AffiliateID, logs[0].RecipientAffiliateID)
	suite.Equal(1, logs[0].Generation)
	suite.True(logs[0].Amount.Equal(decimal.NewFromInt(10000)), "gen 1 amount was %s", logs[0].Amount)

	suite.Equal(grandUpline.AffiliateID, logs[1].RecipientAffiliateID)
	suite.Equal(2, logs[1].Generation)
	suite.True(logs[1].Amount.Equal(decimal.NewFromInt(5000)), "gen 2 amount was %s", logs[1].Amount)

	// Every entry is sealed at creation and verifiable with the same secret.
	for _, entry := range logs {
		suite.True(suite.sealer.VerifyCommission(entry.RecipientAffiliateID, entry.Amount, entry.Generation, entry.Seal))
		suite.Require().NotNil(entry.SourceAffiliateID)
		suite.Equal(source.AffiliateID, *entry.SourceAffiliateID)
	}

	suite.Equal(settledLogs, logs)
	suite.True(settledBalances[upline.AffiliateID].Equal(decimal.NewFromInt(10000)))
	suite.True(settledBalances[grandUpline.AffiliateID].Equal(decimal.NewFromInt(5000)))

	// two commission rows plus the buyer's own purchase row
	suite.Require().Len(settledStatements, 3)
	purchase := settledStatements[2]
	suite.Equal(domain.StatementPackagePurchase, purchase.EntryType)
	suite.Equal(source.AffiliateID, purchase.AffiliateID)
	suite.True(purchase.Amount.Equal(price))
	// the purchase row never moves a balance
	suite.NotContains(settledBalances, source.AffiliateID)

	suite.mockCommissionRepo.AssertExpectations(suite.T())
}

func (suite *CommissionServiceTestSuite) TestDistribute_StopsAtThreeGenerations() {
	ctx := context.Background()
	pkg := newTestPackage(10000, 3, map[string]string{"1": "10", "2": "10", "3": "10"})

	gen4 := newTestAffiliate(pkg, nil, true)
	gen3 := newTestAffiliate(pkg, &gen4.AffiliateID, true)
	gen2 := newTestAffiliate(pkg, &gen3.AffiliateID, true)
	gen1 := newTestAffiliate(pkg, &gen2.AffiliateID, true)
	source := newTestAffiliate(pkg, &gen1.AffiliateID, false)

	for _, a := range []*domain.Affiliate{source, gen1, gen2, gen3} {
		suite.mockAffiliateRepo.On("FindAffiliateByID", ctx, a.AffiliateID).Return(a, nil)
	}
	suite.mockPackageRepo.On("FindPackageByID", ctx, pkg.PackageID).Return(pkg, nil)
	suite.mockCommissionRepo.On("SettleDistribution", ctx, mock.Anything, mock.Anything, mock.Anything, mock.Anything).Return(nil).Once()

	logs, err := suite.service.Distribute(ctx, source.AffiliateID, pkg.Price, activationClaim(source.AffiliateID))

	suite.Require().NoError(err)
	suite.Require().Len(logs, 3)
	suite.Equal(3, logs[2].Generation)
	// gen4 is never even loaded
	suite.mockAffiliateRepo.AssertNotCalled(suite.T(), "FindAffiliateByID", ctx, gen4.AffiliateID)
}

// An inactive generation-1 upline earns nothing but still occupies its slot:
// the active generation-2 upline is paid at the generation-2 rate, not bumped
// down to generation 1.
func (suite *CommissionServiceTestSuite) TestDistribute_InactiveUplineConsumesSlot() {
	ctx := context.Background()
	pkg := newTestPackage(50000, 3, map[string]string{"1": "20", "2": "10"})

	grandUpline := newTestAffiliate(pkg, nil, true)
	inactiveUpline := newTestAffiliate(pkg, &grandUpline.AffiliateID, false)
	source := newTestAffiliate(pkg, &inactiveUpline.AffiliateID, false)

	suite.mockAffiliateRepo.On("FindAffiliateByID", ctx, source.AffiliateID).Return(source, nil)
	suite.mockAffiliateRepo.On("FindAffiliateByID", ctx, inactiveUpline.AffiliateID).Return(inactiveUpline, nil)
	suite.mockAffiliateRepo.On("FindAffiliateByID", ctx, grandUpline.AffiliateID).Return(grandUpline, nil)
	suite.mockPackageRepo.On("FindPackageByID", ctx, pkg.PackageID).Return(pkg, nil)
	suite.mockCommissionRepo.On("SettleDistribution", ctx, mock.Anything, mock.Anything, mock.Anything, mock.Anything).Return(nil).Once()

	logs, err := suite.service.Distribute(ctx, source.AffiliateID, pkg.Price, activationClaim(source.AffiliateID))

	suite.Require().NoError(err)
	suite.Require().Len(logs, 1)
	suite.Equal(grandUpline.AffiliateID, logs[0].RecipientAffiliateID)
	suite.Equal(2, logs[0].Generation)
	suite.True(logs[0].Amount.Equal(decimal.NewFromInt(5000)), "expected 10%% of 50000, got %s", logs[0].Amount)
}

// A package whose max depth is 1 pays nothing at generation 2 even when the
// commission table has no entry beyond "1".
func (suite *CommissionServiceTestSuite) TestDistribute_UplinePackageDepthCap() {
	ctx := context.Background()
	shallowPkg := newTestPackage(10000, 1, map[string]string{"1": "10"})
	deepPkg := newTestPackage(10000, 3, map[string]string{"1": "10", "2": "10"})

	gen2 := newTestAffiliate(shallowPkg, nil, true)
	gen1 := newTestAffiliate(deepPkg, &gen2.AffiliateID, true)
	source := newTestAffiliate(deepPkg, &gen1.AffiliateID, false)

	suite.mockAffiliateRepo.On("FindAffiliateByID", ctx, source.AffiliateID).Return(source, nil)
	suite.mockAffiliateRepo.On("FindAffiliateByID", ctx, gen1.AffiliateID).Return(gen1, nil)
	suite.mockAffiliateRepo.On("FindAffiliateByID", ctx, gen2.AffiliateID).Return(gen2, nil)
	suite.mockPackageRepo.On("FindPackageByID", ctx, deepPkg.PackageID).Return(deepPkg, nil)
	suite.mockPackageRepo.On("FindPackageByID", ctx, shallowPkg.PackageID).Return(shallowPkg, nil)
	suite.mockCommissionRepo.On("SettleDistribution", ctx, mock.Anything, mock.Anything, mock.Anything, mock.Anything).Return(nil).Once()

	logs, err := suite.service.Distribute(ctx, source.AffiliateID, decimal.NewFromInt(10000), activationClaim(source.AffiliateID))

	suite.Require().NoError(err)
	suite.Require().Len(logs, 1)
	suite.Equal(gen1.AffiliateID, logs[0].RecipientAffiliateID)
}

// No upline: the walk yields nothing, no error, and the idempotency claim is
// still taken so a replay of the same activation is recognized as settled.
// The buyer's purchase row is written even without payouts.
func (suite *CommissionServiceTestSuite) TestDistribute_NoUpline() {
	ctx := context.Background()
	pkg := newTestPackage(25000, 3, map[string]string{"1": "20"})
	source := newTestAffiliate(pkg, nil, false)

	suite.mockAffiliateRepo.On("FindAffiliateByID", ctx, source.AffiliateID).Return(source, nil)

	var settledStatements []domain.StatementEntry
	suite.mockCommissionRepo.On("SettleDistribution", ctx, activationClaim(source.AffiliateID), mock.Anything, mock.Anything, mock.Anything).
		Run(func(args mock.Arguments) {
			settledStatements = args.Get(4).([]domain.StatementEntry)
		}).
		Return(nil).Once()

	logs, err := suite.service.Distribute(ctx, source.AffiliateID, pkg.Price, activationClaim(source.AffiliateID))

	suite.Require().NoError(err)
	suite.Empty(logs)
	suite.Require().Len(settledStatements, 1)
	suite.Equal(domain.StatementPackagePurchase, settledStatements[0].EntryType)
	suite.mockCommissionRepo.AssertExpectations(suite.T())
}

// Sale-triggered settlements carry only commission rows; the purchase row is
// exclusive to activations.
func (suite *CommissionServiceTestSuite) TestDistribute_SaleTriggerWritesNoPurchaseRow() {
	ctx := context.Background()
	pkg := newTestPackage(10000, 3, map[string]string{"1": "10"})
	upline := newTestAffiliate(pkg, nil, true)
	source := newTestAffiliate(pkg, &upline.AffiliateID, true)

	claim := portsrepo.DistributionClaim{Trigger: portsrepo.TriggerSale, TriggerID: "KAL-TX-00000001"}

	suite.mockAffiliateRepo.On("FindAffiliateByID", ctx, source.AffiliateID).Return(source, nil)
	suite.mockAffiliateRepo.On("FindAffiliateByID", ctx, upline.AffiliateID).Return(upline, nil)
	suite.mockPackageRepo.On("FindPackageByID", ctx, pkg.PackageID).Return(pkg, nil)

	var settledStatements []domain.StatementEntry
	suite.mockCommissionRepo.On("SettleDistribution", ctx, claim, mock.Anything, mock.Anything, mock.Anything).
		Run(func(args mock.Arguments) {
			settledStatements = args.Get(4).([]domain.StatementEntry)
		}).
		Return(nil).Once()

	logs, err := suite.service.Distribute(ctx, source.AffiliateID, decimal.NewFromInt(1000000), claim)

	suite.Require().NoError(err)
	suite.Require().Len(logs, 1)
	suite.Require().Len(settledStatements, 1)
	suite.Equal(domain.StatementCommission, settledStatements[0].EntryType)
}

func (suite *CommissionServiceTestSuite) TestDistribute_RejectsNonPositivePrice() {
	ctx := context.Background()

	_, err := suite.service.Distribute(ctx, uuid.NewString(), decimal.Zero, activationClaim("x"))

	suite.Require().ErrorIs(err, apperrors.ErrValidation)
	suite.mockCommissionRepo.AssertNotCalled(suite.T(), "SettleDistribution", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func (suite *CommissionServiceTestSuite) TestDistribute_CycleAborts() {
	ctx := context.Background()
	pkg := newTestPackage(10000, 3, map[string]string{"1": "10"})

	// a -> b -> a: corrupt data that must abort the walk, not loop or pay twice.
	a := newTestAffiliate(pkg, nil, true)
	b := newTestAffiliate(pkg, &a.AffiliateID, true)
	a.UplineID = &b.AffiliateID
	source := newTestAffiliate(pkg, &a.AffiliateID, false)

	suite.mockAffiliateRepo.On("FindAffiliateByID", ctx, source.AffiliateID).Return(source, nil)
	suite.mockAffiliateRepo.On("FindAffiliateByID", ctx, a.AffiliateID).Return(a, nil)
	suite.mockAffiliateRepo.On("FindAffiliateByID", ctx, b.AffiliateID).Return(b, nil)
	suite.mockPackageRepo.On("FindPackageByID", ctx, pkg.PackageID).Return(pkg, nil)

	_, err := suite.service.Distribute(ctx, source.AffiliateID, pkg.Price, activationClaim(source.AffiliateID))

	suite.Require().ErrorIs(err, apperrors.ErrGraphAnomaly)
	suite.mockCommissionRepo.AssertNotCalled(suite.T(), "SettleDistribution", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

// A dangling upline pointer ends the chain quietly instead of failing the
// whole distribution.
func (suite *CommissionServiceTestSuite) TestDistribute_DanglingUplineEndsChain() {
	ctx := context.Background()
	pkg := newTestPackage(10000, 3, map[string]string{"1": "10"})

	missingID := uuid.NewString()
	gen1 := newTestAffiliate(pkg, &missingID, true)
	source := newTestAffiliate(pkg, &gen1.AffiliateID, false)

	suite.mockAffiliateRepo.On("FindAffiliateByID", ctx, source.AffiliateID).Return(source, nil)
	suite.mockAffiliateRepo.On("FindAffiliateByID", ctx, gen1.AffiliateID).Return(gen1, nil)
	suite.mockAffiliateRepo.On("FindAffiliateByID", ctx, missingID).Return(nil, apperrors.ErrNotFound)
	suite.mockPackageRepo.On("FindPackageByID", ctx, pkg.PackageID).Return(pkg, nil)
	suite.mockCommissionRepo.On("SettleDistribution", ctx, mock.Anything, mock.Anything, mock.Anything, mock.Anything).Return(nil).Once()

	logs, err := suite.service.Distribute(ctx, source.AffiliateID, pkg.Price, activationClaim(source.AffiliateID))

	suite.Require().NoError(err)
	suite.Require().Len(logs, 1)
}

func (suite *CommissionServiceTestSuite) TestDistribute_AlreadySettledIsIdempotent() {
	ctx := context.Background()
	pkg := newTestPackage(10000, 3, map[string]string{"1": "10"})
	upline := newTestAffiliate(pkg, nil, true)
	source := newTestAffiliate(pkg, &upline.AffiliateID, false)

	suite.mockAffiliateRepo.On("FindAffiliateByID", ctx, source.AffiliateID).Return(source, nil)
	suite.mockAffiliateRepo.On("FindAffiliateByID", ctx, upline.AffiliateID).Return(upline, nil)
	suite.mockPackageRepo.On("FindPackageByID", ctx, pkg.PackageID).Return(pkg, nil)
	suite.mockCommissionRepo.On("SettleDistribution", ctx, mock.Anything, mock.Anything, mock.Anything, mock.Anything).
		Return(apperrors.ErrAlreadyDistributed).Once()

	logs, err := suite.service.Distribute(ctx, source.AffiliateID, pkg.Price, activationClaim(source.AffiliateID))

	suite.Require().ErrorIs(err, apperrors.ErrAlreadyDistributed)
	suite.Empty(logs)
	// no retry on an already-settled event
	suite.mockCommissionRepo.AssertNumberOfCalls(suite.T(), "SettleDistribution", 1)
}

func (suite *CommissionServiceTestSuite) TestDistribute_RetriesOnConflictThenSucceeds() {
	ctx := context.Background()
	pkg := newTestPackage(10000, 3, map[string]string{"1": "10"})
	upline := newTestAffiliate(pkg, nil, true)
	source := newTestAffiliate(pkg, &upline.AffiliateID, false)

	suite.mockAffiliateRepo.On("FindAffiliateByID", ctx, source.AffiliateID).Return(source, nil)
	suite.mockAffiliateRepo.On("FindAffiliateByID", ctx, upline.AffiliateID).Return(upline, nil)
	suite.mockPackageRepo.On("FindPackageByID", ctx, pkg.PackageID).Return(pkg, nil)
	suite.mockCommissionRepo.On("SettleDistribution", ctx, mock.Anything, mock.Anything, mock.Anything, mock.Anything).
		Return(apperrors.ErrConflict).Once()
	suite.mockCommissionRepo.On("SettleDistribution", ctx, mock.Anything, mock.Anything, mock.Anything, mock.Anything).
		Return(nil).Once()

	logs, err := suite.service.Distribute(ctx, source.AffiliateID, pkg.Price, activationClaim(source.AffiliateID))

	suite.Require().NoError(err)
	suite.Len(logs, 1)
	suite.mockCommissionRepo.AssertNumberOfCalls(suite.T(), "SettleDistribution", 2)
}

func (suite *CommissionServiceTestSuite) TestDistribute_GivesUpAfterMaxAttempts() {
	ctx := context.Background()
	pkg := newTestPackage(10000, 3, map[string]string{"1": "10"})
	upline := newTestAffiliate(pkg, nil, true)
	source := newTestAffiliate(pkg, &upline.AffiliateID, false)

	suite.mockAffiliateRepo.On("FindAffiliateByID", ctx, source.AffiliateID).Return(source, nil)
	suite.mockAffiliateRepo.On("FindAffiliateByID", ctx, upline.AffiliateID).Return(upline, nil)
	suite.mockPackageRepo.On("FindPackageByID", ctx, pkg.PackageID).Return(pkg, nil)
	suite.mockCommissionRepo.On("SettleDistribution", ctx, mock.Anything, mock.Anything, mock.Anything, mock.Anything).
		Return(apperrors.ErrConflict)

	_, err := suite.service.Distribute(ctx, source.AffiliateID, pkg.Price, activationClaim(source.AffiliateID))

	suite.Require().ErrorIs(err, apperrors.ErrConflict)
	suite.mockCommissionRepo.AssertNumberOfCalls(suite.T(), "SettleDistribution", 3)
}

func (suite *CommissionServiceTestSuite) TestDistribute_ZeroPercentGenerationSkipped() {
	ctx := context.Background()
	// commission table has no "2" key: generation 2 pays nothing
	pkg := newTestPackage(10000, 3, map[string]string{"1": "10"})

	gen2 := newTestAffiliate(pkg, nil, true)
	gen1 := newTestAffiliate(pkg, &gen2.AffiliateID, true)
	source := newTestAffiliate(pkg, &gen1.AffiliateID, false)

	suite.mockAffiliateRepo.On("FindAffiliateByID", ctx, source.AffiliateID).Return(source, nil)
	suite.mockAffiliateRepo.On("FindAffiliateByID", ctx, gen1.AffiliateID).Return(gen1, nil)
	suite.mockAffiliateRepo.On("FindAffiliateByID", ctx, gen2.AffiliateID).Return(gen2, nil)
	suite.mockPackageRepo.On("FindPackageByID", ctx, pkg.PackageID).Return(pkg, nil)
	suite.mockCommissionRepo.On("SettleDistribution", ctx, mock.Anything, mock.Anything, mock.Anything, mock.Anything).Return(nil).Once()

	logs, err := suite.service.Distribute(ctx, source.AffiliateID, pkg.Price, activationClaim(source.AffiliateID))

	suite.Require().NoError(err)
	suite.Require().Len(logs, 1)
	suite.Equal(1, logs[0].Generation)
}

func (suite *CommissionServiceTestSuite) TestDistribute_RoundsRewardToTwoDecimals() {
	ctx := context.Background()
	pkg := newTestPackage(0, 3, map[string]string{"1": "12.5"})
	pkg.Price = decimal.RequireFromString("333.33")

	upline := newTestAffiliate(pkg, nil, true)
	source := newTestAffiliate(pkg, &upline.AffiliateID, false)

	suite.mockAffiliateRepo.On("FindAffiliateByID", ctx, source.AffiliateID).Return(source, nil)
	suite.mockAffiliateRepo.On("FindAffiliateByID", ctx, upline.AffiliateID).Return(upline, nil)
	suite.mockPackageRepo.On("FindPackageByID", ctx, pkg.PackageID).Return(pkg, nil)
	suite.mockCommissionRepo.On("SettleDistribution", ctx, mock.Anything, mock.Anything, mock.Anything, mock.Anything).Return(nil).Once()

	logs, err := suite.service.Distribute(ctx, source.AffiliateID, pkg.Price, activationClaim(source.AffiliateID))

	suite.Require().NoError(err)
	suite.Require().Len(logs, 1)
	// 333.33 * 12.5% = 41.66625 -> 41.67 (half up)
	suite.True(logs[0].Amount.Equal(decimal.RequireFromString("41.67")), "got %s", logs[0].Amount)
}

// --- Audit surface ---

func (suite *CommissionServiceTestSuite) TestGetCommission_FlagsTamperedEntry() {
	ctx := context.Background()
	recipientID := uuid.NewString()

	entry := &domain.CommissionLog{
		CommissionID:         uuid.NewString(),
		RecipientAffiliateID: recipientID,
		Generation:           1,
		Amount:               decimal.NewFromInt(10000),
		Seal:                 suite.sealer.SealCommission(recipientID, decimal.NewFromInt(10000), 1),
		CreatedAt:            time.Now().UTC(),
	}
	// someone edited the amount directly in the database
	entry.Amount = decimal.NewFromInt(90000)

	suite.mockCommissionRepo.On("FindCommissionByID", ctx, entry.CommissionID).Return(entry, nil)

	audited, err := suite.service.GetCommission(ctx, entry.CommissionID)

	suite.Require().NoError(err)
	suite.Equal(domain.LedgerEntryTampered, audited.IntegrityState)
}

func (suite *CommissionServiceTestSuite) TestGetCommission_ValidEntry() {
	ctx := context.Background()
	recipientID := uuid.NewString()
	amount := decimal.NewFromInt(5000)

	entry := &domain.CommissionLog{
		CommissionID:         uuid.NewString(),
		RecipientAffiliateID: recipientID,
		Generation:           2,
		Amount:               amount,
		Seal:                 suite.sealer.SealCommission(recipientID, amount, 2),
		CreatedAt:            time.Now().UTC(),
	}

	suite.mockCommissionRepo.On("FindCommissionByID", ctx, entry.CommissionID).Return(entry, nil)

	audited, err := suite.service.GetCommission(ctx, entry.CommissionID)

	suite.Require().NoError(err)
	suite.Equal(domain.LedgerEntryValid, audited.IntegrityState)
}

func (suite *CommissionServiceTestSuite) TestDeleteCommission_DelegatesToRepo() {
	ctx := context.Background()
	commissionID := uuid.NewString()

	suite.mockCommissionRepo.On("DeleteCommission", ctx, commissionID).Return(nil).Once()

	err := suite.service.DeleteCommission(ctx, commissionID, "admin-user")

	suite.Require().NoError(err)
	suite.mockCommissionRepo.AssertExpectations(suite.T())
}

func TestCommissionServiceTestSuite(t *testing.T) {
	suite.Run(t, new(CommissionServiceTestSuite))
}
