package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// Affiliate is the membership record linking a User to a package and to the
// referral tree. The upline pointer stored here is the single authoritative
// "who referred me" reference; nothing else in the system records lineage.
//
// An affiliate is created inactive and flips to active exactly once, when the
// package payment is confirmed. It is never deactivated afterwards.
type Affiliate struct {
	AffiliateID  string          `json:"affiliateID"`
	UserID       string          `json:"userID"`
	UplineID     *string         `json:"uplineID"` // nil for root affiliates
	PackageID    string          `json:"packageID"`
	ReferralCode string          `json:"referralCode"`
	IsActive     bool            `json:"isActive"`
	Balance      decimal.Decimal `json:"balance"`
	// CommissionsSettledAt is the persisted idempotency guard for the
	// activation payout: set in the same transaction that writes the
	// commission ledger entries, so a second distribution attempt for the
	// same activation finds it non-nil and pays nothing.
	CommissionsSettledAt *time.Time `json:"commissionsSettledAt,omitempty"`
	JoinedAt             time.Time  `json:"joinedAt"`
	AuditFields
}

// HasUpline reports whether this affiliate was referred by someone.
func (a *Affiliate) HasUpline() bool {
	return a.UplineID != nil && *a.UplineID != ""
}
