package repositories

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"github.com/kalestates/kal_affiliate_app/internal/core/domain"
)

// DistributionTrigger identifies which kind of event a distribution settles
// for, so the idempotency guard can be claimed on the right row.
type DistributionTrigger string

const (
	TriggerActivation DistributionTrigger = "ACTIVATION"
	TriggerSale       DistributionTrigger = "SALE"
)

// DistributionClaim names the persisted idempotency guard for one triggering
// event: the affiliate activation or the verified sale being settled.
// SettleDistribution claims it inside the same transaction as the payouts;
// a second claim for the same event fails with ErrAlreadyDistributed.
type DistributionClaim struct {
	Trigger   DistributionTrigger
	TriggerID string // AffiliateID for activations, SaleID for sales
}

// UserRepositoryFacade defines persistence operations for Users.
type UserRepositoryFacade interface {
	SaveUser(ctx context.Context, user domain.User) error
	FindUserByID(ctx context.Context, userID string) (*domain.User, error)
	FindUserByUsername(ctx context.Context, username string) (*domain.User, error)
}

// AffiliateRepositoryFacade defines persistence operations for the referral
// graph. FindAffiliateByID is the O(1) upline lookup the traversal relies on.
type AffiliateRepositoryFacade interface {
	SaveAffiliate(ctx context.Context, affiliate domain.Affiliate) error
	FindAffiliateByID(ctx context.Context, affiliateID string) (*domain.Affiliate, error)
	FindAffiliateByUserID(ctx context.Context, userID string) (*domain.Affiliate, error)
	FindAffiliateByReferralCode(ctx context.Context, code string) (*domain.Affiliate, error)
	ReferralCodeExists(ctx context.Context, code string) (bool, error)
	// MarkActivated flips is_active exactly once; returns ErrDuplicate when
	// the affiliate is already active.
	MarkActivated(ctx context.Context, affiliateID string, updatedBy string, now time.Time) error
	ListDownline(ctx context.Context, uplineID string) ([]domain.Affiliate, error)
}

// PackageRepositoryFacade defines persistence operations for the catalog.
type PackageRepositoryFacade interface {
	SavePackage(ctx context.Context, pkg domain.AffiliatePackage) error
	FindPackageByID(ctx context.Context, packageID string) (*domain.AffiliatePackage, error)
	ListPackages(ctx context.Context, publishedOnly bool) ([]domain.AffiliatePackage, error)
	// UpdatePackage rejects changes to published packages (ErrValidation).
	UpdatePackage(ctx context.Context, pkg domain.AffiliatePackage) error
	PublishPackage(ctx context.Context, packageID string, updatedBy string, now time.Time) error
}

// ReconciliationRow pairs an affiliate's stored balance with the balance
// reconstructed from its ledger: sum of commission credits minus approved
// withdrawals.
type ReconciliationRow struct {
	AffiliateID     string
	StoredBalance   decimal.Decimal
	ComputedBalance decimal.Decimal
}

// Balanced reports whether the stored and reconstructed balances agree.
func (r ReconciliationRow) Balanced() bool {
	return r.StoredBalance.Equal(r.ComputedBalance)
}

// CommissionRepositoryFacade defines persistence for the commission ledger.
// SettleDistribution is the single write path: one database transaction that
// claims the idempotency guard, locks and credits recipient balances, and
// appends the sealed ledger entries. Everything commits or nothing does.
type CommissionRepositoryFacade interface {
	SettleDistribution(
		ctx context.Context,
		claim DistributionClaim,
		logs []domain.CommissionLog,
		balanceChanges map[string]decimal.Decimal,
		statements []domain.StatementEntry,
	) error
	FindCommissionByID(ctx context.Context, commissionID string) (*domain.CommissionLog, error)
	ListCommissionsByRecipient(ctx context.Context, recipientID string, limit int, nextToken *string) ([]domain.CommissionLog, *string, error)
	SumCommissionsByRecipient(ctx context.Context, recipientID string) (decimal.Decimal, error)
	// DeleteCommission is the admin-only fraud-correction override; normal
	// operation never deletes ledger entries.
	DeleteCommission(ctx context.Context, commissionID string) error
	Reconcile(ctx context.Context) ([]ReconciliationRow, error)
}

// SaleRepositoryFacade defines persistence operations for property sales.
type SaleRepositoryFacade interface {
	SaveSale(ctx context.Context, sale domain.PropertySale) error
	FindSaleByID(ctx context.Context, saleID string) (*domain.PropertySale, error)
	ListSalesByAffiliate(ctx context.Context, affiliateID string) ([]domain.PropertySale, error)
	// MarkVerified records the verifying admin; returns ErrDuplicate when the
	// sale is already verified.
	MarkVerified(ctx context.Context, saleID string, verifiedBy string, now time.Time) error
}

// WithdrawalRepositoryFacade defines persistence operations for withdrawals.
// Approve performs the debit atomically: it locks the affiliate row, re-checks
// available funds, debits the balance, writes the statement entry, and flips
// the status, all in one transaction.
type WithdrawalRepositoryFacade interface {
	SaveWithdrawal(ctx context.Context, withdrawal domain.Withdrawal) error
	FindWithdrawalByID(ctx context.Context, withdrawalID string) (*domain.Withdrawal, error)
	ListWithdrawalsByAffiliate(ctx context.Context, affiliateID string) ([]domain.Withdrawal, error)
	ApproveWithdrawal(ctx context.Context, withdrawalID string, processedBy string, now time.Time) error
	RejectWithdrawal(ctx context.Context, withdrawalID string, processedBy string, now time.Time) error
	SumApprovedByAffiliate(ctx context.Context, affiliateID string) (decimal.Decimal, error)
}

// StatementRepositoryFacade reads the per-affiliate account statement.
// Statement rows are only ever written inside commission settlement and
// withdrawal approval transactions.
type StatementRepositoryFacade interface {
	ListStatementByAffiliate(ctx context.Context, affiliateID string, limit int, nextToken *string) ([]domain.StatementEntry, *string, error)
}

// RepositoryProvider bundles all repository implementations for wiring.
type RepositoryProvider struct {
	UserRepo       UserRepositoryFacade
	AffiliateRepo  AffiliateRepositoryFacade
	PackageRepo    PackageRepositoryFacade
	CommissionRepo CommissionRepositoryFacade
	SaleRepo       SaleRepositoryFacade
	WithdrawalRepo WithdrawalRepositoryFacade
	StatementRepo  StatementRepositoryFacade
}
