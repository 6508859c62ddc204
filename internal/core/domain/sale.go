package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// SaleType classifies a property transaction.
type SaleType string

const (
	SaleTypeSale    SaleType = "SALE"
	SaleTypeRent    SaleType = "RENT"
	SaleTypeService SaleType = "SERVICE"
)

// PropertySale records an actual property sale or service fee credited to an
// affiliate. Commissions are distributed only once the sale is verified by an
// admin, and the verification amount (never a client-supplied figure) is the
// basis for the payout.
type PropertySale struct {
	SaleID      string          `json:"saleID"` // KAL-TX-XXXXXXXX
	AffiliateID string          `json:"affiliateID"`
	Amount      decimal.Decimal `json:"amount"`
	SaleType    SaleType        `json:"saleType"`
	Description string          `json:"description"`

	IsVerified       bool       `json:"isVerified"`
	VerifiedBy       *string    `json:"verifiedBy,omitempty"` // admin UserID
	VerificationDate *time.Time `json:"verificationDate,omitempty"`
	// CommissionsSettledAt guards against distributing twice for one sale.
	CommissionsSettledAt *time.Time `json:"commissionsSettledAt,omitempty"`

	// Seal is the integrity digest over the sale's financial fields,
	// computed at creation so later row edits are detectable.
	Seal string `json:"seal"`
	AuditFields
}
