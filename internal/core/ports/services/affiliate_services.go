package services

import (
	"context"

	"github.com/kalestates/kal_affiliate_app/internal/core/domain"
	"github.com/kalestates/kal_affiliate_app/internal/dto"
)

// AffiliateReaderSvc defines read operations over the referral graph.
type AffiliateReaderSvc interface {
	GetAffiliateByID(ctx context.Context, affiliateID string) (*domain.Affiliate, error)
	GetAffiliateByUserID(ctx context.Context, userID string) (*domain.Affiliate, error)
	GetDownline(ctx context.Context, affiliateID string) ([]domain.Affiliate, error)
	// GetUplineChain walks upline pointers from generation 1 (immediate
	// referrer) up to maxDepth, aborting with ErrGraphAnomaly on a cycle.
	// Inactive uplines are returned in place; they consume a generation slot.
	GetUplineChain(ctx context.Context, affiliateID string, maxDepth int) ([]domain.Affiliate, error)
}

// AffiliateRegistrarSvc defines membership creation.
type AffiliateRegistrarSvc interface {
	// RegisterAffiliate creates an inactive membership under the referrer
	// named by the referral code (empty code means a root affiliate).
	RegisterAffiliate(ctx context.Context, req dto.RegisterAffiliateRequest, userID string) (*domain.Affiliate, error)
}

// AffiliateActivatorSvc is the payment-confirmation entry point.
type AffiliateActivatorSvc interface {
	// ConfirmActivation flips the membership active exactly once and runs
	// commission distribution against the package price. Distribution runs
	// even when the membership is already active, so a settlement that
	// failed on an earlier invocation is completed on retry; the persisted
	// distribution guard prevents double payouts. Re-confirming a
	// membership that is both active and settled returns ErrDuplicate.
	ConfirmActivation(ctx context.Context, affiliateID string, confirmedBy string) ([]domain.CommissionLog, error)
}

// AffiliateSvcFacade combines all affiliate-related service interfaces.
type AffiliateSvcFacade interface {
	AffiliateReaderSvc
	AffiliateRegistrarSvc
	AffiliateActivatorSvc
}
