package domain

import (
	"strconv"

	"github.com/shopspring/decimal"
)

// MaxCommissionGenerations caps how far up the referral tree any single
// triggering event can pay, regardless of package configuration.
const MaxCommissionGenerations = 3

// AffiliatePackage is a catalog entry: a price and a per-generation
// commission percentage table. Once published, price and commission table
// are immutable; editing them would not retroactively alter sealed ledger
// entries either way, but immutability keeps the catalog auditable.
type AffiliatePackage struct {
	PackageID string          `json:"packageID"`
	Name      string          `json:"name"`
	Price     decimal.Decimal `json:"price"`
	// MaxDepth is the deepest generation (1..3) this package pays at.
	MaxDepth int `json:"maxDepth"`
	// Commissions maps generation number ("1".."3") to a percentage of the
	// triggering price. Stored as JSONB; absent keys mean 0.
	Commissions map[string]decimal.Decimal `json:"commissions"`
	// Spillover is a reserved flag: declared in the data model but not
	// consumed by the distribution traversal.
	Spillover   bool `json:"spillover"`
	IsPublished bool `json:"isPublished"`
	AuditFields
}

// CommissionPercent returns the payout percentage for a generation, zero when
// the generation is outside 1..MaxDepth or absent from the table.
func (p *AffiliatePackage) CommissionPercent(generation int) decimal.Decimal {
	if generation < 1 || generation > p.MaxDepth {
		return decimal.Zero
	}
	pct, ok := p.Commissions[strconv.Itoa(generation)]
	if !ok {
		return decimal.Zero
	}
	return pct
}
