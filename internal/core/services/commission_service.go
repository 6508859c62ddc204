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
	"github.com/kalestates/kal_affiliate_app/internal/integrity"
	"github.com/kalestates/kal_affiliate_app/internal/middleware"
	"github.com/kalestates/kal_affiliate_app/internal/utils/commission"
)

// maxDistributionAttempts bounds retries when the settlement transaction hits
// lock/serialization contention. Each retry re-walks the chain from scratch;
// the engine never resumes a half-finished traversal.
const maxDistributionAttempts = 3

// CommissionService is the distribution engine plus the ledger audit surface.
type CommissionService struct {
	affiliateRepo  portsrepo.AffiliateRepositoryFacade
	packageRepo    portsrepo.PackageRepositoryFacade
	commissionRepo portsrepo.CommissionRepositoryFacade
	sealer         *integrity.Sealer
}

// NewCommissionService creates the commission engine/audit service.
func NewCommissionService(
	affiliateRepo portsrepo.AffiliateRepositoryFacade,
	packageRepo portsrepo.PackageRepositoryFacade,
	commissionRepo portsrepo.CommissionRepositoryFacade,
	sealer *integrity.Sealer,
) *CommissionService {
	return &CommissionService{
		affiliateRepo:  affiliateRepo,
		packageRepo:    packageRepo,
		commissionRepo: commissionRepo,
		sealer:         sealer,
	}
}

var (
	_ portssvc.CommissionDistributorSvc = (*CommissionService)(nil)
	_ portssvc.CommissionSvcFacade      = (*CommissionService)(nil)
)

// payout is one planned hop of a distribution walk.
type payout struct {
	recipient  domain.Affiliate
	generation int
	amount     decimal.Decimal
}

// Distribute walks the upline chain of the source affiliate and settles all
// eligible payouts in a single transaction. See the port doc for semantics.
func (s *CommissionService) Distribute(ctx context.Context, sourceAffiliateID string, price decimal.Decimal, claim portsrepo.DistributionClaim) ([]domain.CommissionLog, error) {
	logger := middleware.GetLoggerFromCtx(ctx)

	if err := commission.ValidatePrice(price); err != nil {
		return nil, err
	}

	source, err := s.affiliateRepo.FindAffiliateByID(ctx, sourceAffiliateID)
	if err != nil {
		return nil, fmt.Errorf("failed to load triggering affiliate: %w", err)
	}
	if source.PackageID == "" {
		return nil, fmt.Errorf("%w: triggering affiliate has no package", apperrors.ErrValidation)
	}

	var lastErr error
	for attempt := 1; attempt <= maxDistributionAttempts; attempt++ {
		logs, err := s.distributeOnce(ctx, source, price, claim)
		if err == nil {
			return logs, nil
		}
		if errors.Is(err, apperrors.ErrAlreadyDistributed) {
			// Idempotent re-invocation; nothing was paid this time.
			logger.Info("Distribution already settled for event",
				slog.String("trigger", string(claim.Trigger)),
				slog.String("trigger_id", claim.TriggerID),
			)
			return nil, err
		}
		if !errors.Is(err, apperrors.ErrConflict) {
			return nil, err
		}
		lastErr = err
		logger.Warn("Distribution hit contention, retrying full traversal",
			slog.Int("attempt", attempt),
			slog.String("source_affiliate_id", sourceAffiliateID),
		)
	}
	return nil, fmt.Errorf("distribution failed after %d attempts: %w", maxDistributionAttempts, lastErr)
}

// distributeOnce performs one complete walk-and-settle attempt.
func (s *CommissionService) distributeOnce(ctx context.Context, source *domain.Affiliate, price decimal.Decimal, claim portsrepo.DistributionClaim) ([]domain.CommissionLog, error) {
	payouts, err := s.walkUpline(ctx, source, price)
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	sourceID := source.AffiliateID

	logs := make([]domain.CommissionLog, 0, len(payouts))
	statements := make([]domain.StatementEntry, 0, len(payouts))
	balanceChanges := make(map[string]decimal.Decimal, len(payouts))

	for _, p := range payouts {
		entry := domain.CommissionLog{
			CommissionID:         uuid.NewString(),
			RecipientAffiliateID: p.recipient.AffiliateID,
			SourceAffiliateID:    &sourceID,
			Generation:           p.generation,
			Amount:               p.amount,
			Seal:                 s.sealer.SealCommission(p.recipient.AffiliateID, p.amount, p.generation),
			CreatedAt:            now,
		}
		logs = append(logs, entry)

		statements = append(statements, domain.StatementEntry{
			EntryID:     uuid.NewString(),
			AffiliateID: p.recipient.AffiliateID,
			Amount:      p.amount,
			EntryType:   domain.StatementCommission,
			Description: fmt.Sprintf("Generation %d commission from %s", p.generation, source.ReferralCode),
			CreatedAt:   now,
		})

		if existing, ok := balanceChanges[p.recipient.AffiliateID]; ok {
			balanceChanges[p.recipient.AffiliateID] = existing.Add(p.amount)
		} else {
			balanceChanges[p.recipient.AffiliateID] = p.amount
		}
	}

	// An activation also puts the purchase itself on the buyer's statement,
	// in the same transaction as the payouts it funded.
	if claim.Trigger == portsrepo.TriggerActivation {
		statements = append(statements, domain.StatementEntry{
			EntryID:     uuid.NewString(),
			AffiliateID: source.AffiliateID,
			Amount:      price,
			EntryType:   domain.StatementPackagePurchase,
			Description: "Package purchase confirmed on activation",
			CreatedAt:   now,
		})
	}

	// The claim must be taken even when the chain produced no payouts, so a
	// later replay of the same event is still recognized as settled.
	if err := s.commissionRepo.SettleDistribution(ctx, claim, logs, balanceChanges, statements); err != nil {
		return nil, err
	}
	return logs, nil
}

// walkUpline climbs the referral chain from the source, one physical
// generation per step. Inactive uplines and packages that do not pay at this
// depth consume their generation slot without producing a payout; rewards are
// never shifted up to a shallower generation. Revisiting an affiliate aborts
// the whole walk.
func (s *CommissionService) walkUpline(ctx context.Context, source *domain.Affiliate, price decimal.Decimal) ([]payout, error) {
	visited := map[string]bool{source.AffiliateID: true}
	var payouts []payout

	current := source.UplineID
	for generation := 1; current != nil && *current != "" && generation <= domain.MaxCommissionGenerations; generation++ {
		upline, err := s.affiliateRepo.FindAffiliateByID(ctx, *current)
		if err != nil {
			if errors.Is(err, apperrors.ErrNotFound) {
				// Dangling upline pointer; treat the chain as ended here.
				break
			}
			return nil, fmt.Errorf("failed to load upline at generation %d: %w", generation, err)
		}
		if visited[upline.AffiliateID] {
			return nil, fmt.Errorf("%w: affiliate %s revisited at generation %d", apperrors.ErrGraphAnomaly, upline.AffiliateID, generation)
		}
		visited[upline.AffiliateID] = true

		if upline.IsActive {
			pkg, err := s.packageRepo.FindPackageByID(ctx, upline.PackageID)
			if err != nil {
				return nil, fmt.Errorf("failed to load package for upline %s: %w", upline.AffiliateID, err)
			}
			pct := pkg.CommissionPercent(generation)
			if pct.GreaterThan(decimal.Zero) {
				reward := commission.ComputeReward(price, pct)
				if reward.GreaterThan(decimal.Zero) {
					payouts = append(payouts, payout{
						recipient:  *upline,
						generation: generation,
						amount:     reward,
					})
				}
			}
		}

		current = upline.UplineID
	}
	return payouts, nil
}

// ListForRecipient returns ledger entries with their integrity state
// recomputed from the stored seal.
func (s *CommissionService) ListForRecipient(ctx context.Context, recipientID string, limit int, nextToken *string) ([]dto.AuditedCommission, *string, error) {
	entries, next, err := s.commissionRepo.ListCommissionsByRecipient(ctx, recipientID, limit, nextToken)
	if err != nil {
		return nil, nil, err
	}
	audited := make([]dto.AuditedCommission, len(entries))
	for i := range entries {
		audited[i] = s.audit(ctx, &entries[i])
	}
	return audited, next, nil
}

// GetCommission returns one ledger entry with its integrity state.
func (s *CommissionService) GetCommission(ctx context.Context, commissionID string) (*dto.AuditedCommission, error) {
	entry, err := s.commissionRepo.FindCommissionByID(ctx, commissionID)
	if err != nil {
		return nil, err
	}
	audited := s.audit(ctx, entry)
	return &audited, nil
}

// audit recomputes the seal for an entry. A mismatch flags the record as
// TAMPERED and logs it for operators; it never raises an error.
func (s *CommissionService) audit(ctx context.Context, entry *domain.CommissionLog) dto.AuditedCommission {
	state := domain.LedgerEntryValid
	if !s.sealer.VerifyCommission(entry.RecipientAffiliateID, entry.Amount, entry.Generation, entry.Seal) {
		state = domain.LedgerEntryTampered
		middleware.GetLoggerFromCtx(ctx).Error("Commission ledger entry failed integrity verification",
			slog.String("commission_id", entry.CommissionID),
			slog.String("recipient_affiliate_id", entry.RecipientAffiliateID),
		)
	}
	return dto.AuditedCommission{
		CommissionID:         entry.CommissionID,
		RecipientAffiliateID: entry.RecipientAffiliateID,
		SourceAffiliateID:    entry.SourceAffiliateID,
		Generation:           entry.Generation,
		Amount:               entry.Amount,
		CreatedAt:            entry.CreatedAt,
		IntegrityState:       state,
	}
}

// Reconcile cross-checks stored balances against the ledger.
func (s *CommissionService) Reconcile(ctx context.Context) ([]portsrepo.ReconciliationRow, error) {
	return s.commissionRepo.Reconcile(ctx)
}

// DeleteCommission removes a fraudulent ledger entry. This is the only code
// path that ever deletes financial history, and it is always logged.
func (s *CommissionService) DeleteCommission(ctx context.Context, commissionID string, requestedBy string) error {
	middleware.GetLoggerFromCtx(ctx).Warn("Admin override: deleting commission ledger entry",
		slog.String("commission_id", commissionID),
		slog.String("requested_by", requestedBy),
	)
	return s.commissionRepo.DeleteCommission(ctx, commissionID)
}
