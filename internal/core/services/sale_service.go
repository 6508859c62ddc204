package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/shopspring/decimal"

	"github.com/kalestates/kal_affiliate_app/internal/apperrors"
	"github.com/kalestates/kal_affiliate_app/internal/core/domain"
	portsrepo "github.com/kalestates/kal_affiliate_app/internal/core/ports/repositories"
	portssvc "github.com/kalestates/kal_affiliate_app/internal/core/ports/services"
	"github.com/kalestates/kal_affiliate_app/internal/dto"
	"github.com/kalestates/kal_affiliate_app/internal/integrity"
	"github.com/kalestates/kal_affiliate_app/internal/middleware"
	"github.com/kalestates/kal_affiliate_app/internal/utils"
)

type saleService struct {
	saleRepo      portsrepo.SaleRepositoryFacade
	affiliateRepo portsrepo.AffiliateRepositoryFacade
	distributor   portssvc.CommissionDistributorSvc
	sealer        *integrity.Sealer
}

// NewSaleService creates the property sale recording/verification service.
func NewSaleService(
	saleRepo portsrepo.SaleRepositoryFacade,
	affiliateRepo portsrepo.AffiliateRepositoryFacade,
	distributor portssvc.CommissionDistributorSvc,
	sealer *integrity.Sealer,
) portssvc.SaleSvcFacade {
	return &saleService{
		saleRepo:      saleRepo,
		affiliateRepo: affiliateRepo,
		distributor:   distributor,
		sealer:        sealer,
	}
}

var _ portssvc.SaleSvcFacade = (*saleService)(nil)

func (s *saleService) GetSaleByID(ctx context.Context, saleID string) (*domain.PropertySale, error) {
	return s.saleRepo.FindSaleByID(ctx, saleID)
}

func (s *saleService) ListSalesByAffiliate(ctx context.Context, affiliateID string) ([]domain.PropertySale, error) {
	return s.saleRepo.ListSalesByAffiliate(ctx, affiliateID)
}

// RecordSale registers an unverified sale for an active affiliate. The record
// is sealed at creation so later edits to the amount are detectable.
func (s *saleService) RecordSale(ctx context.Context, req dto.RecordSaleRequest, recordedBy string) (*domain.PropertySale, error) {
	logger := middleware.GetLoggerFromCtx(ctx)

	if req.Amount.LessThanOrEqual(decimal.Zero) {
		return nil, fmt.Errorf("%w: sale amount must be positive", apperrors.ErrValidation)
	}

	affiliate, err := s.affiliateRepo.FindAffiliateByID(ctx, req.AffiliateID)
	if err != nil {
		return nil, err
	}
	if !affiliate.IsActive {
		return nil, fmt.Errorf("%w: affiliate %s is not active", apperrors.ErrValidation, affiliate.AffiliateID)
	}

	saleID, err := utils.NewSaleID()
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	sale := domain.PropertySale{
		SaleID:      saleID,
		AffiliateID: affiliate.AffiliateID,
		Amount:      req.Amount,
		SaleType:    req.SaleType,
		Description: req.Description,
		IsVerified:  false,
		Seal:        s.sealer.SealSale(saleID, req.Amount, affiliate.AffiliateID),
		AuditFields: domain.AuditFields{
			CreatedAt:     now,
			CreatedBy:     recordedBy,
			LastUpdatedAt: now,
			LastUpdatedBy: recordedBy,
		},
	}

	if err := s.saleRepo.SaveSale(ctx, sale); err != nil {
		return nil, err
	}

	logger.Info("Sale recorded",
		slog.String("sale_id", sale.SaleID),
		slog.String("affiliate_id", sale.AffiliateID),
		slog.String("sale_type", string(sale.SaleType)),
	)
	return &sale, nil
}

// VerifySale marks a sale verified exactly once and distributes commissions
// against the recorded amount. The seal is checked first; a sale whose
// financial fields no longer match its seal never pays out.
func (s *saleService) VerifySale(ctx context.Context, saleID string, adminUserID string) ([]domain.CommissionLog, error) {
	logger := middleware.GetLoggerFromCtx(ctx)

	sale, err := s.saleRepo.FindSaleByID(ctx, saleID)
	if err != nil {
		return nil, err
	}

	if !s.sealer.VerifySale(sale.SaleID, sale.Amount, sale.AffiliateID, sale.Seal) {
		logger.Error("Sale failed integrity verification, refusing to distribute",
			slog.String("sale_id", sale.SaleID),
		)
		return nil, fmt.Errorf("%w: sale %s failed integrity verification", apperrors.ErrValidation, sale.SaleID)
	}

	// ErrDuplicate here means the sale is already verified. A previous
	// invocation may still have failed between the flip and settlement, so
	// distribution always runs; its persisted claim decides whether
	// commissions are still owed.
	verifyErr := s.saleRepo.MarkVerified(ctx, saleID, adminUserID, time.Now().UTC())
	if verifyErr != nil && !errors.Is(verifyErr, apperrors.ErrDuplicate) {
		return nil, verifyErr
	}

	logs, err := s.distributor.Distribute(ctx, sale.AffiliateID, sale.Amount, portsrepo.DistributionClaim{
		Trigger:   portsrepo.TriggerSale,
		TriggerID: sale.SaleID,
	})
	if err != nil {
		if errors.Is(err, apperrors.ErrAlreadyDistributed) {
			if verifyErr != nil {
				// Already verified and already settled: a full replay.
				return nil, verifyErr
			}
			return nil, nil
		}
		return nil, err
	}

	logger.Info("Sale verified and commissions distributed",
		slog.String("sale_id", sale.SaleID),
		slog.String("affiliate_id", sale.AffiliateID),
		slog.Int("payouts", len(logs)),
	)
	return logs, nil
}
