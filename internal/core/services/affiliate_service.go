package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/kalestates/kal_affiliate_app/internal/apperrors"
	"github.com/kalestates/kal_affiliate_app/internal/core/domain"
	portsrepo "github.com/kalestates/kal_affiliate_app/internal/core/ports/repositories"
	portssvc "github.com/kalestates/kal_affiliate_app/internal/core/ports/services"
	"github.com/kalestates/kal_affiliate_app/internal/dto"
	"github.com/kalestates/kal_affiliate_app/internal/middleware"
	"github.com/kalestates/kal_affiliate_app/internal/utils"
)

// referralCodeAttempts bounds retries against the unique index when a freshly
// generated code collides with an existing one.
const referralCodeAttempts = 5

type affiliateService struct {
	affiliateRepo portsrepo.AffiliateRepositoryFacade
	packageRepo   portsrepo.PackageRepositoryFacade
	distributor   portssvc.CommissionDistributorSvc
}

// NewAffiliateService creates the membership/referral-graph service.
func NewAffiliateService(
	affiliateRepo portsrepo.AffiliateRepositoryFacade,
	packageRepo portsrepo.PackageRepositoryFacade,
	distributor portssvc.CommissionDistributorSvc,
) portssvc.AffiliateSvcFacade {
	return &affiliateService{
		affiliateRepo: affiliateRepo,
		packageRepo:   packageRepo,
		distributor:   distributor,
	}
}

var _ portssvc.AffiliateSvcFacade = (*affiliateService)(nil)

// RegisterAffiliate creates an inactive membership. The upline is resolved
// from the referral code; the code's owner may not be the registrant.
func (s *affiliateService) RegisterAffiliate(ctx context.Context, req dto.RegisterAffiliateRequest, userID string) (*domain.Affiliate, error) {
	logger := middleware.GetLoggerFromCtx(ctx)

	if existing, err := s.affiliateRepo.FindAffiliateByUserID(ctx, userID); err == nil && existing != nil {
		return nil, fmt.Errorf("%w: user already has a membership", apperrors.ErrDuplicate)
	} else if err != nil && !errors.Is(err, apperrors.ErrNotFound) {
		return nil, err
	}

	pkg, err := s.packageRepo.FindPackageByID(ctx, req.PackageID)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve package: %w", err)
	}
	if !pkg.IsPublished {
		return nil, fmt.Errorf("%w: package %s is not published", apperrors.ErrValidation, pkg.PackageID)
	}

	var uplineID *string
	if req.ReferralCode != "" {
		upline, err := s.affiliateRepo.FindAffiliateByReferralCode(ctx, req.ReferralCode)
		if err != nil {
			if errors.Is(err, apperrors.ErrNotFound) {
				return nil, fmt.Errorf("%w: unknown referral code", apperrors.ErrValidation)
			}
			return nil, err
		}
		if upline.UserID == userID {
			return nil, fmt.Errorf("%w: an affiliate cannot be its own upline", apperrors.ErrValidation)
		}
		uplineID = &upline.AffiliateID
	}

	now := time.Now().UTC()
	affiliate := domain.Affiliate{
		AffiliateID: uuid.NewString(),
		UserID:      userID,
		UplineID:    uplineID,
		PackageID:   pkg.PackageID,
		IsActive:    false,
		Balance:     decimal.Zero,
		JoinedAt:    now,
		AuditFields: domain.AuditFields{
			CreatedAt:     now,
			CreatedBy:     userID,
			LastUpdatedAt: now,
			LastUpdatedBy: userID,
		},
	}

	for attempt := 0; ; attempt++ {
		code, err := utils.NewReferralCode()
		if err != nil {
			return nil, err
		}
		affiliate.ReferralCode = code

		saveErr := s.affiliateRepo.SaveAffiliate(ctx, affiliate)
		if saveErr == nil {
			break
		}
		if errors.Is(saveErr, apperrors.ErrDuplicate) && attempt < referralCodeAttempts {
			exists, checkErr := s.affiliateRepo.ReferralCodeExists(ctx, code)
			if checkErr == nil && exists {
				continue // code collision, regenerate
			}
		}
		return nil, saveErr
	}

	logger.Info("Affiliate registered",
		slog.String("affiliate_id", affiliate.AffiliateID),
		slog.String("package_id", pkg.PackageID),
		slog.Bool("has_upline", uplineID != nil),
	)
	return &affiliate, nil
}

func (s *affiliateService) GetAffiliateByID(ctx context.Context, affiliateID string) (*domain.Affiliate, error) {
	return s.affiliateRepo.FindAffiliateByID(ctx, affiliateID)
}

func (s *affiliateService) GetAffiliateByUserID(ctx context.Context, userID string) (*domain.Affiliate, error) {
	return s.affiliateRepo.FindAffiliateByUserID(ctx, userID)
}

func (s *affiliateService) GetDownline(ctx context.Context, affiliateID string) ([]domain.Affiliate, error) {
	return s.affiliateRepo.ListDownline(ctx, affiliateID)
}

// GetUplineChain walks upline pointers from generation 1 up to maxDepth.
// Inactive uplines are included; each physical generation is one step.
func (s *affiliateService) GetUplineChain(ctx context.Context, affiliateID string, maxDepth int) ([]domain.Affiliate, error) {
	start, err := s.affiliateRepo.FindAffiliateByID(ctx, affiliateID)
	if err != nil {
		return nil, err
	}

	visited := map[string]bool{start.AffiliateID: true}
	var chain []domain.Affiliate

	current := start.UplineID
	for depth := 1; current != nil && *current != "" && (maxDepth <= 0 || depth <= maxDepth); depth++ {
		upline, err := s.affiliateRepo.FindAffiliateByID(ctx, *current)
		if err != nil {
			if errors.Is(err, apperrors.ErrNotFound) {
				break
			}
			return nil, err
		}
		if visited[upline.AffiliateID] {
			return nil, fmt.Errorf("%w: affiliate %s revisited in upline chain", apperrors.ErrGraphAnomaly, upline.AffiliateID)
		}
		visited[upline.AffiliateID] = true
		chain = append(chain, *upline)
		current = upline.UplineID
	}
	return chain, nil
}

// ConfirmActivation is the payment-confirmation entry point. It flips the
// membership active exactly once and distributes commissions against the
// package price. The amount distributed is always the catalog price, never a
// client-supplied figure.
func (s *affiliateService) ConfirmActivation(ctx context.Context, affiliateID string, confirmedBy string) ([]domain.CommissionLog, error) {
	logger := middleware.GetLoggerFromCtx(ctx)

	affiliate, err := s.affiliateRepo.FindAffiliateByID(ctx, affiliateID)
	if err != nil {
		return nil, err
	}

	pkg, err := s.packageRepo.FindPackageByID(ctx, affiliate.PackageID)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve package for activation: %w", err)
	}

	// ErrDuplicate here means the membership is already active. That alone
	// does not prove the payout went out: a previous invocation may have
	// flipped the flag and then failed to settle. Distribution always runs;
	// its persisted claim is what decides whether commissions are still owed.
	activationErr := s.affiliateRepo.MarkActivated(ctx, affiliateID, confirmedBy, time.Now().UTC())
	if activationErr != nil && !errors.Is(activationErr, apperrors.ErrDuplicate) {
		return nil, activationErr
	}

	logs, err := s.distributor.Distribute(ctx, affiliateID, pkg.Price, portsrepo.DistributionClaim{
		Trigger:   portsrepo.TriggerActivation,
		TriggerID: affiliateID,
	})
	if err != nil {
		if errors.Is(err, apperrors.ErrAlreadyDistributed) {
			if activationErr != nil {
				// Already active and already settled: a full replay.
				return nil, activationErr
			}
			return nil, nil
		}
		return nil, err
	}

	logger.Info("Membership activated and commissions distributed",
		slog.String("affiliate_id", affiliateID),
		slog.String("package_id", pkg.PackageID),
		slog.Int("payouts", len(logs)),
	)
	return logs, nil
}
