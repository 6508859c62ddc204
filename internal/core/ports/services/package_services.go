package services

import (
	"context"

	"github.com/kalestates/kal_affiliate_app/internal/core/domain"
	"github.com/kalestates/kal_affiliate_app/internal/dto"
)

// PackageReaderSvc is the catalog surface the engine and handlers read from.
type PackageReaderSvc interface {
	GetPackageByID(ctx context.Context, packageID string) (*domain.AffiliatePackage, error)
	ListPackages(ctx context.Context, publishedOnly bool) ([]domain.AffiliatePackage, error)
}

// PackageAdminSvc defines catalog management; admin only.
type PackageAdminSvc interface {
	CreatePackage(ctx context.Context, req dto.CreatePackageRequest, creatorUserID string) (*domain.AffiliatePackage, error)
	// UpdatePackage modifies an unpublished package; published packages are
	// immutable in price and commission table.
	UpdatePackage(ctx context.Context, packageID string, req dto.UpdatePackageRequest, updaterUserID string) (*domain.AffiliatePackage, error)
	PublishPackage(ctx context.Context, packageID string, updaterUserID string) error
}

// PackageSvcFacade combines catalog read and admin interfaces.
type PackageSvcFacade interface {
	PackageReaderSvc
	PackageAdminSvc
}
