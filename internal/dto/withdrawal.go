package dto

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/kalestates/kal_affiliate_app/internal/core/domain"
)

// RequestWithdrawalRequest asks to pay out part of the caller's balance.
type RequestWithdrawalRequest struct {
	Amount decimal.Decimal `json:"amount" binding:"required"`
}

// WithdrawalResponse is the public shape of a withdrawal request.
type WithdrawalResponse struct {
	WithdrawalID string                  `json:"withdrawalID"`
	AffiliateID  string                  `json:"affiliateID"`
	Amount       decimal.Decimal         `json:"amount"`
	Status       domain.WithdrawalStatus `json:"status"`
	ProcessedAt  *time.Time              `json:"processedAt,omitempty"`
	CreatedAt    time.Time               `json:"createdAt"`
}

// ToWithdrawalResponse converts a domain.Withdrawal to its response DTO.
func ToWithdrawalResponse(w *domain.Withdrawal) WithdrawalResponse {
	return WithdrawalResponse{
		WithdrawalID: w.WithdrawalID,
		AffiliateID:  w.AffiliateID,
		Amount:       w.Amount,
		Status:       w.Status,
		ProcessedAt:  w.ProcessedAt,
		CreatedAt:    w.CreatedAt,
	}
}

// StatementEntryResponse is one account statement row.
type StatementEntryResponse struct {
	EntryID     string                    `json:"entryID"`
	Amount      decimal.Decimal           `json:"amount"`
	EntryType   domain.StatementEntryType `json:"entryType"`
	Description string                    `json:"description"`
	CreatedAt   time.Time                 `json:"createdAt"`
}
