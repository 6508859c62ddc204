package dto

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/kalestates/kal_affiliate_app/internal/core/domain"
)

// RecordSaleRequest registers an unverified property sale for an affiliate.
type RecordSaleRequest struct {
	AffiliateID string          `json:"affiliateID" binding:"required"`
	Amount      decimal.Decimal `json:"amount" binding:"required"`
	SaleType    domain.SaleType `json:"saleType" binding:"required,oneof=SALE RENT SERVICE"`
	Description string          `json:"description" binding:"required"`
}

// SaleResponse is the public shape of a property sale.
type SaleResponse struct {
	SaleID           string          `json:"saleID"`
	AffiliateID      string          `json:"affiliateID"`
	Amount           decimal.Decimal `json:"amount"`
	SaleType         domain.SaleType `json:"saleType"`
	Description      string          `json:"description"`
	IsVerified       bool            `json:"isVerified"`
	VerificationDate *time.Time      `json:"verificationDate,omitempty"`
	CreatedAt        time.Time       `json:"createdAt"`
}

// ToSaleResponse converts a domain.PropertySale to its response DTO.
func ToSaleResponse(s *domain.PropertySale) SaleResponse {
	return SaleResponse{
		SaleID:           s.SaleID,
		AffiliateID:      s.AffiliateID,
		Amount:           s.Amount,
		SaleType:         s.SaleType,
		Description:      s.Description,
		IsVerified:       s.IsVerified,
		VerificationDate: s.VerificationDate,
		CreatedAt:        s.CreatedAt,
	}
}
