package services

import (
	"context"

	"github.com/kalestates/kal_affiliate_app/internal/core/domain"
	"github.com/kalestates/kal_affiliate_app/internal/dto"
)

// WithdrawalSvcFacade defines the balance/withdrawal surface. Debits go
// through the same locking discipline as commission credits.
type WithdrawalSvcFacade interface {
	RequestWithdrawal(ctx context.Context, req dto.RequestWithdrawalRequest, userID string) (*domain.Withdrawal, error)
	GetWithdrawalByID(ctx context.Context, withdrawalID string) (*domain.Withdrawal, error)
	ListWithdrawalsByAffiliate(ctx context.Context, affiliateID string) ([]domain.Withdrawal, error)
	// ApproveWithdrawal debits the balance and flips the status atomically.
	ApproveWithdrawal(ctx context.Context, withdrawalID string, adminUserID string) error
	RejectWithdrawal(ctx context.Context, withdrawalID string, adminUserID string) error
	// GetStatement lists the affiliate's account statement entries.
	GetStatement(ctx context.Context, affiliateID string, limit int, nextToken *string) ([]domain.StatementEntry, *string, error)
}
