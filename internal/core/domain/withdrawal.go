package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// WithdrawalStatus tracks the review lifecycle of a payout request.
type WithdrawalStatus string

const (
	WithdrawalPending  WithdrawalStatus = "PENDING"
	WithdrawalApproved WithdrawalStatus = "APPROVED"
	WithdrawalRejected WithdrawalStatus = "REJECTED"
)

// MinWithdrawalAmount is the smallest payout the platform processes.
var MinWithdrawalAmount = decimal.NewFromInt(1000)

// Withdrawal is a request to pay out part of an affiliate's balance.
// The balance is debited only on approval, inside the same transaction that
// flips the status, using the same row-locking discipline as the commission
// engine so approvals never race concurrent credits.
type Withdrawal struct {
	WithdrawalID string           `json:"withdrawalID"` // WTH-XXXXXXXXXXXX
	AffiliateID  string           `json:"affiliateID"`
	Amount       decimal.Decimal  `json:"amount"`
	Status       WithdrawalStatus `json:"status"`
	ProcessedBy  *string          `json:"processedBy,omitempty"` // admin UserID
	ProcessedAt  *time.Time       `json:"processedAt,omitempty"`
	AuditFields
}
