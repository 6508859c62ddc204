package services

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/kalestates/kal_affiliate_app/internal/apperrors"
	"github.com/kalestates/kal_affiliate_app/internal/core/domain"
	portsrepo "github.com/kalestates/kal_affiliate_app/internal/core/ports/repositories"
	portssvc "github.com/kalestates/kal_affiliate_app/internal/core/ports/services"
	"github.com/kalestates/kal_affiliate_app/internal/dto"
	"github.com/kalestates/kal_affiliate_app/internal/middleware"
	"github.com/kalestates/kal_affiliate_app/internal/utils"
)

type withdrawalService struct {
	withdrawalRepo portsrepo.WithdrawalRepositoryFacade
	affiliateRepo  portsrepo.AffiliateRepositoryFacade
	statementRepo  portsrepo.StatementRepositoryFacade
}

// NewWithdrawalService creates the payout request service.
func NewWithdrawalService(
	withdrawalRepo portsrepo.WithdrawalRepositoryFacade,
	affiliateRepo portsrepo.AffiliateRepositoryFacade,
	statementRepo portsrepo.StatementRepositoryFacade,
) portssvc.WithdrawalSvcFacade {
	return &withdrawalService{
		withdrawalRepo: withdrawalRepo,
		affiliateRepo:  affiliateRepo,
		statementRepo:  statementRepo,
	}
}

var _ portssvc.WithdrawalSvcFacade = (*withdrawalService)(nil)

// RequestWithdrawal files a PENDING payout request for the caller's own
// membership. The balance check here is advisory; the authoritative re-check
// happens under row lock when an admin approves.
func (s *withdrawalService) RequestWithdrawal(ctx context.Context, req dto.RequestWithdrawalRequest, userID string) (*domain.Withdrawal, error) {
	logger := middleware.GetLoggerFromCtx(ctx)

	if req.Amount.LessThan(domain.MinWithdrawalAmount) {
		return nil, fmt.Errorf("%w: minimum withdrawal is %s", apperrors.ErrValidation, domain.MinWithdrawalAmount.StringFixed(2))
	}

	affiliate, err := s.affiliateRepo.FindAffiliateByUserID(ctx, userID)
	if err != nil {
		return nil, err
	}
	if !affiliate.IsActive {
		return nil, fmt.Errorf("%w: membership is not active", apperrors.ErrValidation)
	}
	if affiliate.Balance.LessThan(req.Amount) {
		return nil, fmt.Errorf("%w: balance %s is below requested %s",
			apperrors.ErrInsufficientBalance, affiliate.Balance.StringFixed(2), req.Amount.StringFixed(2))
	}

	withdrawalID, err := utils.NewWithdrawalID()
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	withdrawal := domain.Withdrawal{
		WithdrawalID: withdrawalID,
		AffiliateID:  affiliate.AffiliateID,
		Amount:       req.Amount,
		Status:       domain.WithdrawalPending,
		AuditFields: domain.AuditFields{
			CreatedAt:     now,
			CreatedBy:     userID,
			LastUpdatedAt: now,
			LastUpdatedBy: userID,
		},
	}

	if err := s.withdrawalRepo.SaveWithdrawal(ctx, withdrawal); err != nil {
		return nil, err
	}

	logger.Info("Withdrawal requested",
		slog.String("withdrawal_id", withdrawal.WithdrawalID),
		slog.String("affiliate_id", withdrawal.AffiliateID),
	)
	return &withdrawal, nil
}

func (s *withdrawalService) GetWithdrawalByID(ctx context.Context, withdrawalID string) (*domain.Withdrawal, error) {
	return s.withdrawalRepo.FindWithdrawalByID(ctx, withdrawalID)
}

func (s *withdrawalService) ListWithdrawalsByAffiliate(ctx context.Context, affiliateID string) ([]domain.Withdrawal, error) {
	return s.withdrawalRepo.ListWithdrawalsByAffiliate(ctx, affiliateID)
}

// ApproveWithdrawal debits the balance and flips the status in one
// transaction. The repository re-checks funds under row lock so two approvals
// cannot both drain the same balance.
func (s *withdrawalService) ApproveWithdrawal(ctx context.Context, withdrawalID string, adminUserID string) error {
	logger := middleware.GetLoggerFromCtx(ctx)

	if err := s.withdrawalRepo.ApproveWithdrawal(ctx, withdrawalID, adminUserID, time.Now().UTC()); err != nil {
		return err
	}
	logger.Info("Withdrawal approved",
		slog.String("withdrawal_id", withdrawalID),
		slog.String("processed_by", adminUserID),
	)
	return nil
}

func (s *withdrawalService) RejectWithdrawal(ctx context.Context, withdrawalID string, adminUserID string) error {
	logger := middleware.GetLoggerFromCtx(ctx)

	if err := s.withdrawalRepo.RejectWithdrawal(ctx, withdrawalID, adminUserID, time.Now().UTC()); err != nil {
		return err
	}
	logger.Info("Withdrawal rejected",
		slog.String("withdrawal_id", withdrawalID),
		slog.String("processed_by", adminUserID),
	)
	return nil
}

func (s *withdrawalService) GetStatement(ctx context.Context, affiliateID string, limit int, nextToken *string) ([]domain.StatementEntry, *string, error) {
	return s.statementRepo.ListStatementByAffiliate(ctx, affiliateID, limit, nextToken)
}
