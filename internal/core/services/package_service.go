package services

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/kalestates/kal_affiliate_app/internal/apperrors"
	"github.com/kalestates/kal_affiliate_app/internal/core/domain"
	portsrepo "github.com/kalestates/kal_affiliate_app/internal/core/ports/repositories"
	portssvc "github.com/kalestates/kal_affiliate_app/internal/core/ports/services"
	"github.com/kalestates/kal_affiliate_app/internal/dto"
	"github.com/kalestates/kal_affiliate_app/internal/middleware"
)

type packageService struct {
	packageRepo portsrepo.PackageRepositoryFacade
}

// NewPackageService creates the catalog service.
func NewPackageService(packageRepo portsrepo.PackageRepositoryFacade) portssvc.PackageSvcFacade {
	return &packageService{packageRepo: packageRepo}
}

var _ portssvc.PackageSvcFacade = (*packageService)(nil)

func (s *packageService) GetPackageByID(ctx context.Context, packageID string) (*domain.AffiliatePackage, error) {
	return s.packageRepo.FindPackageByID(ctx, packageID)
}

func (s *packageService) ListPackages(ctx context.Context, publishedOnly bool) ([]domain.AffiliatePackage, error) {
	return s.packageRepo.ListPackages(ctx, publishedOnly)
}

// validateCommissionTable checks price and per-generation percentages before
// a package is created or edited.
func validateCommissionTable(price decimal.Decimal, maxDepth int, commissions map[string]decimal.Decimal) error {
	if price.LessThanOrEqual(decimal.Zero) {
		return fmt.Errorf("%w: package price must be positive", apperrors.ErrValidation)
	}
	if maxDepth < 1 || maxDepth > domain.MaxCommissionGenerations {
		return fmt.Errorf("%w: maxDepth must be between 1 and %d", apperrors.ErrValidation, domain.MaxCommissionGenerations)
	}
	for key, pct := range commissions {
		gen, err := strconv.Atoi(key)
		if err != nil || gen < 1 || gen > domain.MaxCommissionGenerations {
			return fmt.Errorf("%w: commission key %q is not a generation between 1 and %d", apperrors.ErrValidation, key, domain.MaxCommissionGenerations)
		}
		if gen > maxDepth {
			return fmt.Errorf("%w: commission key %q exceeds maxDepth %d", apperrors.ErrValidation, key, maxDepth)
		}
		if pct.LessThan(decimal.Zero) || pct.GreaterThan(decimal.NewFromInt(100)) {
			return fmt.Errorf("%w: commission percentage for generation %q must be between 0 and 100", apperrors.ErrValidation, key)
		}
	}
	return nil
}

// CreatePackage adds an unpublished catalog entry.
func (s *packageService) CreatePackage(ctx context.Context, req dto.CreatePackageRequest, creatorUserID string) (*domain.AffiliatePackage, error) {
	logger := middleware.GetLoggerFromCtx(ctx)

	if err := validateCommissionTable(req.Price, req.MaxDepth, req.Commissions); err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	pkg := domain.AffiliatePackage{
		PackageID:   uuid.NewString(),
		Name:        req.Name,
		Price:       req.Price,
		MaxDepth:    req.MaxDepth,
		Commissions: req.Commissions,
		Spillover:   req.Spillover,
		IsPublished: false,
		AuditFields: domain.AuditFields{
			CreatedAt:     now,
			CreatedBy:     creatorUserID,
			LastUpdatedAt: now,
			LastUpdatedBy: creatorUserID,
		},
	}

	if err := s.packageRepo.SavePackage(ctx, pkg); err != nil {
		return nil, err
	}

	logger.Info("Package created",
		slog.String("package_id", pkg.PackageID),
		slog.String("name", pkg.Name),
	)
	return &pkg, nil
}

// UpdatePackage edits an unpublished package. The repository rejects the
// update once the package is published.
func (s *packageService) UpdatePackage(ctx context.Context, packageID string, req dto.UpdatePackageRequest, updaterUserID string) (*domain.AffiliatePackage, error) {
	pkg, err := s.packageRepo.FindPackageByID(ctx, packageID)
	if err != nil {
		return nil, err
	}
	if pkg.IsPublished {
		return nil, fmt.Errorf("%w: published packages are immutable", apperrors.ErrValidation)
	}

	if req.Name != nil {
		pkg.Name = *req.Name
	}
	if req.Price != nil {
		pkg.Price = *req.Price
	}
	if req.MaxDepth != nil {
		pkg.MaxDepth = *req.MaxDepth
	}
	if req.Commissions != nil {
		pkg.Commissions = *req.Commissions
	}
	if req.Spillover != nil {
		pkg.Spillover = *req.Spillover
	}

	if err := validateCommissionTable(pkg.Price, pkg.MaxDepth, pkg.Commissions); err != nil {
		return nil, err
	}

	pkg.LastUpdatedAt = time.Now().UTC()
	pkg.LastUpdatedBy = updaterUserID

	if err := s.packageRepo.UpdatePackage(ctx, *pkg); err != nil {
		return nil, err
	}
	return pkg, nil
}

// PublishPackage makes a package purchasable and freezes its financial fields.
func (s *packageService) PublishPackage(ctx context.Context, packageID string, updaterUserID string) error {
	logger := middleware.GetLoggerFromCtx(ctx)

	if err := s.packageRepo.PublishPackage(ctx, packageID, updaterUserID, time.Now().UTC()); err != nil {
		return err
	}
	logger.Info("Package published", slog.String("package_id", packageID))
	return nil
}
