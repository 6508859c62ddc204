package services_test

import (
	"context"
	"strings"
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
	portssvc "github.com/kalestates/kal_affiliate_app/internal/core/ports/services"
	"github.com/kalestates/kal_affiliate_app/internal/dto"
)

// MockSaleRepository is a mock type for the SaleRepositoryFacade interface
type MockSaleRepository struct {
	mock.Mock
}

func (m *MockSaleRepository) SaveSale(ctx context.Context, sale domain.PropertySale) error {
	args := m.Called(ctx, sale)
	return args.Error(0)
}

func (m *MockSaleRepository) FindSaleByID(ctx context.Context, saleID string) (*domain.PropertySale, error) {
	args := m.Called(ctx, saleID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.PropertySale), args.Error(1)
}

func (m *MockSaleRepository) ListSalesByAffiliate(ctx context.Context, affiliateID string) ([]domain.PropertySale, error) {
	args := m.Called(ctx, affiliateID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.PropertySale), args.Error(1)
}

func (m *MockSaleRepository) MarkVerified(ctx context.Context, saleID string, verifiedBy string, now time.Time) error {
	args := m.Called(ctx, saleID, verifiedBy, now)
	return args.Error(0)
}

// --- Test Suite Setup ---

type SaleServiceTestSuite struct {
	suite.Suite
	mockSaleRepo      *MockSaleRepository
	mockAffiliateRepo *MockAffiliateRepository
	mockDistributor   *MockCommissionDistributor
	sealer            *integrity.Sealer
	service           portssvc.SaleSvcFacade
}

func (suite *SaleServiceTestSuite) SetupTest() {
	suite.mockSaleRepo = new(MockSaleRepository)
	suite.mockAffiliateRepo = new(MockAffiliateRepository)
	suite.mockDistributor = new(MockCommissionDistributor)
	sealer, err := integrity.NewSealer("test-seal-secret")
	suite.Require().NoError(err)
	suite.sealer = sealer
	suite.service = services.NewSaleService(suite.mockSaleRepo, suite.mockAffiliateRepo, suite.mockDistributor, sealer)
}

func (suite *SaleServiceTestSuite) sealedSale(affiliateID string, amount decimal.Decimal) *domain.PropertySale {
	saleID := "KAL-TX-TEST0001"
	return &domain.PropertySale{
		SaleID:      saleID,
		AffiliateID: affiliateID,
		Amount:      amount,
		SaleType:    domain.SaleTypeSale,
		Description: "3-bedroom duplex, Lekki",
		Seal:        suite.sealer.SealSale(saleID, amount, affiliateID),
	}
}

// --- Test Cases ---

func (suite *SaleServiceTestSuite) TestRecordSale_SealsRecord() {
	ctx := context.Background()
	pkg := newTestPackage(50000, 3, map[string]string{"1": "20"})
	affiliate := newTestAffiliate(pkg, nil, true)
	amount := decimal.NewFromInt(2500000)

	suite.mockAffiliateRepo.On("FindAffiliateByID", ctx, affiliate.AffiliateID).Return(affiliate, nil)

	var saved domain.PropertySale
	suite.mockSaleRepo.On("SaveSale", ctx, mock.AnythingOfType("domain.PropertySale")).
		Run(func(args mock.Arguments) { saved = args.Get(1).(domain.PropertySale) }).
		Return(nil).Once()

	sale, err := suite.service.RecordSale(ctx, dto.RecordSaleRequest{
		AffiliateID: affiliate.AffiliateID,
		Amount:      amount,
		SaleType:    domain.SaleTypeSale,
		Description: "3-bedroom duplex, Lekki",
	}, uuid.NewString())

	suite.Require().NoError(err)
	suite.True(strings.HasPrefix(sale.SaleID, "KAL-TX-"))
	suite.False(sale.IsVerified)
	suite.True(suite.sealer.VerifySale(sale.SaleID, sale.Amount, sale.AffiliateID, sale.Seal))
	suite.Equal(saved.SaleID, sale.SaleID)
}

func (suite *SaleServiceTestSuite) TestRecordSale_RejectsInactiveAffiliate() {
	ctx := context.Background()
	pkg := newTestPackage(50000, 3, map[string]string{"1": "20"})
	affiliate := newTestAffiliate(pkg, nil, false)

	suite.mockAffiliateRepo.On("FindAffiliateByID", ctx, affiliate.AffiliateID).Return(affiliate, nil)

	_, err := suite.service.RecordSale(ctx, dto.RecordSaleRequest{
		AffiliateID: affiliate.AffiliateID,
		Amount:      decimal.NewFromInt(1000000),
		SaleType:    domain.SaleTypeRent,
		Description: "Annual rent",
	}, uuid.NewString())

	suite.Require().ErrorIs(err, apperrors.ErrValidation)
	suite.mockSaleRepo.AssertNotCalled(suite.T(), "SaveSale", mock.Anything, mock.Anything)
}

func (suite *SaleServiceTestSuite) TestRecordSale_RejectsNonPositiveAmount() {
	ctx := context.Background()

	_, err := suite.service.RecordSale(ctx, dto.RecordSaleRequest{
		AffiliateID: uuid.NewString(),
		Amount:      decimal.Zero,
		SaleType:    domain.SaleTypeService,
		Description: "Consultation",
	}, uuid.NewString())

	suite.Require().ErrorIs(err, apperrors.ErrValidation)
}

func (suite *SaleServiceTestSuite) TestVerifySale_DistributesSaleAmount() {
	ctx := context.Background()
	adminID := uuid.NewString()
	affiliateID := uuid.NewString()
	amount := decimal.NewFromInt(2500000)
	sale := suite.sealedSale(affiliateID, amount)

	expectedClaim := portsrepo.DistributionClaim{Trigger: portsrepo.TriggerSale, TriggerID: sale.SaleID}
	expectedLogs := []domain.CommissionLog{{CommissionID: uuid.NewString(), Generation: 1, Amount: decimal.NewFromInt(500000)}}

	suite.mockSaleRepo.On("FindSaleByID", ctx, sale.SaleID).Return(sale, nil)
	suite.mockSaleRepo.On("MarkVerified", ctx, sale.SaleID, adminID, mock.AnythingOfType("time.Time")).Return(nil).Once()
	suite.mockDistributor.On("Distribute", ctx, affiliateID, amount, expectedClaim).Return(expectedLogs, nil).Once()

	logs, err := suite.service.VerifySale(ctx, sale.SaleID, adminID)

	suite.Require().NoError(err)
	suite.Equal(expectedLogs, logs)
	suite.mockDistributor.AssertExpectations(suite.T())
}

// A sale whose stored amount no longer matches its seal must never pay out.
func (suite *SaleServiceTestSuite) TestVerifySale_RefusesTamperedSale() {
	ctx := context.Background()
	affiliateID := uuid.NewString()
	sale := suite.sealedSale(affiliateID, decimal.NewFromInt(2500000))
	sale.Amount = decimal.NewFromInt(9500000)

	suite.mockSaleRepo.On("FindSaleByID", ctx, sale.SaleID).Return(sale, nil)

	_, err := suite.service.VerifySale(ctx, sale.SaleID, uuid.NewString())

	suite.Require().ErrorIs(err, apperrors.ErrValidation)
	suite.mockSaleRepo.AssertNotCalled(suite.T(), "MarkVerified", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	suite.mockDistributor.AssertNotCalled(suite.T(), "Distribute", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

// Re-verifying a sale that is both verified and settled surfaces
// ErrDuplicate; the distribution claim is what proves nothing is still owed.
func (suite *SaleServiceTestSuite) TestVerifySale_AlreadyVerifiedAndSettled() {
	ctx := context.Background()
	adminID := uuid.NewString()
	affiliateID := uuid.NewString()
	amount := decimal.NewFromInt(1000000)
	sale := suite.sealedSale(affiliateID, amount)

	suite.mockSaleRepo.On("FindSaleByID", ctx, sale.SaleID).Return(sale, nil)
	suite.mockSaleRepo.On("MarkVerified", ctx, sale.SaleID, adminID, mock.AnythingOfType("time.Time")).
		Return(apperrors.ErrDuplicate).Once()
	suite.mockDistributor.On("Distribute", ctx, affiliateID, amount, mock.Anything).
		Return(nil, apperrors.ErrAlreadyDistributed).Once()

	_, err := suite.service.VerifySale(ctx, sale.SaleID, adminID)

	suite.Require().ErrorIs(err, apperrors.ErrDuplicate)
	suite.mockDistributor.AssertExpectations(suite.T())
}

// A settlement that fails transiently after the sale flipped verified must
// still pay out on a later verification attempt.
func (suite *SaleServiceTestSuite) TestVerifySale_SettlesOnRetryAfterTransientFailure() {
	ctx := context.Background()
	adminID := uuid.NewString()
	affiliateID := uuid.NewString()
	amount := decimal.NewFromInt(2500000)
	sale := suite.sealedSale(affiliateID, amount)

	expectedLogs := []domain.CommissionLog{{CommissionID: uuid.NewString(), Generation: 1, Amount: decimal.NewFromInt(500000)}}

	suite.mockSaleRepo.On("FindSaleByID", ctx, sale.SaleID).Return(sale, nil)

	// first verification flips the flag but settlement exhausts its retries
	suite.mockSaleRepo.On("MarkVerified", ctx, sale.SaleID, adminID, mock.AnythingOfType("time.Time")).
		Return(nil).Once()
	suite.mockDistributor.On("Distribute", ctx, affiliateID, amount, mock.Anything).
		Return(nil, apperrors.ErrConflict).Once()

	_, err := suite.service.VerifySale(ctx, sale.SaleID, adminID)
	suite.Require().ErrorIs(err, apperrors.ErrConflict)

	// second verification finds the sale already verified yet still settles
	suite.mockSaleRepo.On("MarkVerified", ctx, sale.SaleID, adminID, mock.AnythingOfType("time.Time")).
		Return(apperrors.ErrDuplicate).Once()
	suite.mockDistributor.On("Distribute", ctx, affiliateID, amount, mock.Anything).
		Return(expectedLogs, nil).Once()

	logs, err := suite.service.VerifySale(ctx, sale.SaleID, adminID)

	suite.Require().NoError(err)
	suite.Equal(expectedLogs, logs)
	suite.mockDistributor.AssertExpectations(suite.T())
}

func TestSaleServiceTestSuite(t *testing.T) {
	suite.Run(t, new(SaleServiceTestSuite))
}
