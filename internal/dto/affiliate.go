package dto

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/kalestates/kal_affiliate_app/internal/core/domain"
)

// RegisterAffiliateRequest creates an inactive membership. ReferralCode names
// the referrer; empty means a root affiliate (no upline).
type RegisterAffiliateRequest struct {
	PackageID    string `json:"packageID" binding:"required"`
	ReferralCode string `json:"referralCode"`
}

// AffiliateResponse is the public shape of a membership.
type AffiliateResponse struct {
	AffiliateID  string          `json:"affiliateID"`
	UserID       string          `json:"userID"`
	UplineID     *string         `json:"uplineID,omitempty"`
	PackageID    string          `json:"packageID"`
	ReferralCode string          `json:"referralCode"`
	IsActive     bool            `json:"isActive"`
	Balance      decimal.Decimal `json:"balance"`
	JoinedAt     time.Time       `json:"joinedAt"`
}

// ToAffiliateResponse converts a domain.Affiliate to its response DTO.
func ToAffiliateResponse(a *domain.Affiliate) AffiliateResponse {
	return AffiliateResponse{
		AffiliateID:  a.AffiliateID,
		UserID:       a.UserID,
		UplineID:     a.UplineID,
		PackageID:    a.PackageID,
		ReferralCode: a.ReferralCode,
		IsActive:     a.IsActive,
		Balance:      a.Balance,
		JoinedAt:     a.JoinedAt,
	}
}

// ListAffiliatesResponse wraps a downline listing.
type ListAffiliatesResponse struct {
	Affiliates []AffiliateResponse `json:"affiliates"`
}

// ToListAffiliatesResponse converts a slice of domain affiliates.
func ToListAffiliatesResponse(affiliates []domain.Affiliate) ListAffiliatesResponse {
	out := make([]AffiliateResponse, len(affiliates))
	for i := range affiliates {
		out[i] = ToAffiliateResponse(&affiliates[i])
	}
	return ListAffiliatesResponse{Affiliates: out}
}
