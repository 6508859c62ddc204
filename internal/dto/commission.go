package dto

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/kalestates/kal_affiliate_app/internal/core/domain"
)

// AuditedCommission is a ledger entry paired with its recomputed integrity
// state. TAMPERED entries are surfaced as flagged records for operators; they
// never halt reads.
type AuditedCommission struct {
	CommissionID         string                  `json:"commissionID"`
	RecipientAffiliateID string                  `json:"recipientAffiliateID"`
	SourceAffiliateID    *string                 `json:"sourceAffiliateID,omitempty"`
	Generation           int                     `json:"generation"`
	Amount               decimal.Decimal         `json:"amount"`
	CreatedAt            time.Time               `json:"createdAt"`
	IntegrityState       domain.LedgerEntryState `json:"integrityState"`
}

// ListCommissionsResponse wraps a paginated audit listing.
type ListCommissionsResponse struct {
	Commissions []AuditedCommission `json:"commissions"`
	NextToken   *string             `json:"nextToken,omitempty"`
}

// ReconciliationResponse reports balance/ledger agreement per affiliate.
type ReconciliationResponse struct {
	AffiliateID     string          `json:"affiliateID"`
	StoredBalance   decimal.Decimal `json:"storedBalance"`
	ComputedBalance decimal.Decimal `json:"computedBalance"`
	Balanced        bool            `json:"balanced"`
}
