package services_test

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/suite"

	"github.com/kalestates/kal_affiliate_app/internal/apperrors"
	"github.com/kalestates/kal_affiliate_app/internal/core/domain"
	"github.com/kalestates/kal_affiliate_app/internal/core/services"
	portssvc "github.com/kalestates/kal_affiliate_app/internal/core/ports/services"
	"github.com/kalestates/kal_affiliate_app/internal/dto"
)

type PackageServiceTestSuite struct {
	suite.Suite
	mockPackageRepo *MockPackageRepository
	service         portssvc.PackageSvcFacade
}

func (suite *PackageServiceTestSuite) SetupTest() {
	suite.mockPackageRepo = new(MockPackageRepository)
	suite.service = services.NewPackageService(suite.mockPackageRepo)
}

func validCreateRequest() dto.CreatePackageRequest {
	return dto.CreatePackageRequest{
		Name:     "Gold",
		Price:    decimal.NewFromInt(50000),
		MaxDepth: 3,
		Commissions: map[string]decimal.Decimal{
			"1": decimal.NewFromInt(20),
			"2": decimal.NewFromInt(10),
			"3": decimal.NewFromInt(5),
		},
	}
}

// --- Test Cases ---

func (suite *PackageServiceTestSuite) TestCreatePackage_StartsUnpublished() {
	ctx := context.Background()

	var saved domain.AffiliatePackage
	suite.mockPackageRepo.On("SavePackage", ctx, mock.AnythingOfType("domain.AffiliatePackage")).
		Run(func(args mock.Arguments) { saved = args.Get(1).(domain.AffiliatePackage) }).
		Return(nil).Once()

	pkg, err := suite.service.CreatePackage(ctx, validCreateRequest(), uuid.NewString())

	suite.Require().NoError(err)
	suite.False(pkg.IsPublished)
	suite.Equal(pkg.PackageID, saved.PackageID)
}

func (suite *PackageServiceTestSuite) TestCreatePackage_RejectsNonPositivePrice() {
	ctx := context.Background()
	req := validCreateRequest()
	req.Price = decimal.Zero

	_, err := suite.service.CreatePackage(ctx, req, uuid.NewString())

	suite.Require().ErrorIs(err, apperrors.ErrValidation)
	suite.mockPackageRepo.AssertNotCalled(suite.T(), "SavePackage", mock.Anything, mock.Anything)
}

func (suite *PackageServiceTestSuite) TestCreatePackage_RejectsDepthOutOfRange() {
	ctx := context.Background()
	req := validCreateRequest()
	req.MaxDepth = 4

	_, err := suite.service.CreatePackage(ctx, req, uuid.NewString())

	suite.Require().ErrorIs(err, apperrors.ErrValidation)
}

func (suite *PackageServiceTestSuite) TestCreatePackage_RejectsKeyBeyondDepth() {
	ctx := context.Background()
	req := validCreateRequest()
	req.MaxDepth = 2

	_, err := suite.service.CreatePackage(ctx, req, uuid.NewString())

	suite.Require().ErrorIs(err, apperrors.ErrValidation)
}

func (suite *PackageServiceTestSuite) TestCreatePackage_RejectsNonNumericKey() {
	ctx := context.Background()
	req := validCreateRequest()
	req.Commissions = map[string]decimal.Decimal{"first": decimal.NewFromInt(20)}

	_, err := suite.service.CreatePackage(ctx, req, uuid.NewString())

	suite.Require().ErrorIs(err, apperrors.ErrValidation)
}

func (suite *PackageServiceTestSuite) TestCreatePackage_RejectsPercentageOver100() {
	ctx := context.Background()
	req := validCreateRequest()
	req.Commissions["1"] = decimal.NewFromInt(120)

	_, err := suite.service.CreatePackage(ctx, req, uuid.NewString())

	suite.Require().ErrorIs(err, apperrors.ErrValidation)
}

func (suite *PackageServiceTestSuite) TestUpdatePackage_MergesFields() {
	ctx := context.Background()
	existing := newTestPackage(50000, 3, map[string]string{"1": "20", "2": "10"})
	existing.IsPublished = false
	newName := "Gold Plus"
	newPrice := decimal.NewFromInt(75000)

	suite.mockPackageRepo.On("FindPackageByID", ctx, existing.PackageID).Return(existing, nil)

	var updated domain.AffiliatePackage
	suite.mockPackageRepo.On("UpdatePackage", ctx, mock.AnythingOfType("domain.AffiliatePackage")).
		Run(func(args mock.Arguments) { updated = args.Get(1).(domain.AffiliatePackage) }).
		Return(nil).Once()

	pkg, err := suite.service.UpdatePackage(ctx, existing.PackageID, dto.UpdatePackageRequest{
		Name:  &newName,
		Price: &newPrice,
	}, uuid.NewString())

	suite.Require().NoError(err)
	suite.Equal("Gold Plus", pkg.Name)
	suite.True(newPrice.Equal(updated.Price))
	suite.Equal(3, updated.MaxDepth)
}

func (suite *PackageServiceTestSuite) TestUpdatePackage_RejectsPublished() {
	ctx := context.Background()
	existing := newTestPackage(50000, 3, map[string]string{"1": "20"})
	existing.IsPublished = true
	newName := "Renamed"

	suite.mockPackageRepo.On("FindPackageByID", ctx, existing.PackageID).Return(existing, nil)

	_, err := suite.service.UpdatePackage(ctx, existing.PackageID, dto.UpdatePackageRequest{Name: &newName}, uuid.NewString())

	suite.Require().ErrorIs(err, apperrors.ErrValidation)
	suite.mockPackageRepo.AssertNotCalled(suite.T(), "UpdatePackage", mock.Anything, mock.Anything)
}

func (suite *PackageServiceTestSuite) TestPublishPackage_Delegates() {
	ctx := context.Background()
	adminID := uuid.NewString()
	packageID := uuid.NewString()

	suite.mockPackageRepo.On("PublishPackage", ctx, packageID, adminID, mock.AnythingOfType("time.Time")).Return(nil).Once()

	err := suite.service.PublishPackage(ctx, packageID, adminID)

	suite.Require().NoError(err)
	suite.mockPackageRepo.AssertExpectations(suite.T())
}

func TestPackageServiceTestSuite(t *testing.T) {
	suite.Run(t, new(PackageServiceTestSuite))
}
