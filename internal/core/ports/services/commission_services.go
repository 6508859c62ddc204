package services

import (
	"context"

	"github.com/shopspring/decimal"

	"github.com/kalestates/kal_affiliate_app/internal/core/domain"
	portsrepo "github.com/kalestates/kal_affiliate_app/internal/core/ports/repositories"
	"github.com/kalestates/kal_affiliate_app/internal/dto"
)

// CommissionDistributorSvc is the distribution engine: it walks the referral
// graph upward from a triggering affiliate and atomically records payouts.
// It is consumed by the activation and sale-verification services, never by
// handlers directly.
type CommissionDistributorSvc interface {
	// Distribute runs the generation walk for one triggering event and
	// settles all eligible payouts in a single transaction. The claim names
	// the persisted idempotency guard; a second call for the same claim
	// returns ErrAlreadyDistributed and pays nothing. An affiliate with no
	// upline yields an empty slice and no error.
	Distribute(ctx context.Context, sourceAffiliateID string, price decimal.Decimal, claim portsrepo.DistributionClaim) ([]domain.CommissionLog, error)
}

// CommissionAuditorSvc exposes the ledger to audit/reporting collaborators.
type CommissionAuditorSvc interface {
	// ListForRecipient returns ledger entries with their integrity state
	// (VALID or TAMPERED) recomputed from the seal.
	ListForRecipient(ctx context.Context, recipientID string, limit int, nextToken *string) ([]dto.AuditedCommission, *string, error)
	GetCommission(ctx context.Context, commissionID string) (*dto.AuditedCommission, error)
	// Reconcile cross-checks every stored balance against the ledger.
	Reconcile(ctx context.Context) ([]portsrepo.ReconciliationRow, error)
}

// CommissionAdminSvc holds the highest-privilege override.
type CommissionAdminSvc interface {
	// DeleteCommission removes a fraudulent ledger entry. Logged loudly;
	// reserved for admins correcting fraud.
	DeleteCommission(ctx context.Context, commissionID string, requestedBy string) error
}

// CommissionSvcFacade combines the audit and admin surfaces.
type CommissionSvcFacade interface {
	CommissionAuditorSvc
	CommissionAdminSvc
}
