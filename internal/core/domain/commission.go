package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// LedgerEntryState is the audit-time classification of a commission log.
// It is derived by recomputing the integrity seal, never stored.
type LedgerEntryState string

const (
	LedgerEntryValid    LedgerEntryState = "VALID"
	LedgerEntryTampered LedgerEntryState = "TAMPERED"
)

// CommissionLog is an append-only ledger entry recording a single payout.
// Created only by the distribution engine, sealed at write time, and never
// updated afterwards. Deletion is reserved for admin fraud correction and is
// always logged.
type CommissionLog struct {
	CommissionID string `json:"commissionID"`
	// RecipientAffiliateID is the upline credited by this entry.
	RecipientAffiliateID string `json:"recipientAffiliateID"`
	// SourceAffiliateID is the affiliate whose payment triggered the payout.
	// Nil when the source account was later removed; financial history is
	// kept with "source unknown" rather than cascading the delete.
	SourceAffiliateID *string         `json:"sourceAffiliateID"`
	Generation        int             `json:"generation"` // 1..MaxCommissionGenerations
	Amount            decimal.Decimal `json:"amount"`
	Seal              string          `json:"seal"`
	CreatedAt         time.Time       `json:"createdAt"`
}

// StatementEntryType classifies rows on an affiliate's account statement.
type StatementEntryType string

const (
	StatementCommission      StatementEntryType = "COMMISSION"
	StatementWithdrawal      StatementEntryType = "WITHDRAWAL"
	StatementPackagePurchase StatementEntryType = "PACKAGE_PURCHASE"
)

// StatementEntry is a per-affiliate account statement row, written inside the
// same transaction as the event it describes. For COMMISSION and WITHDRAWAL
// rows the amount is the balance delta (positive credit, negative debit);
// PACKAGE_PURCHASE rows record the package price, which is paid outside the
// platform and never moves the balance.
type StatementEntry struct {
	EntryID     string             `json:"entryID"`
	AffiliateID string             `json:"affiliateID"`
	Amount      decimal.Decimal    `json:"amount"`
	EntryType   StatementEntryType `json:"entryType"`
	Description string             `json:"description"`
	CreatedAt   time.Time          `json:"createdAt"`
}
