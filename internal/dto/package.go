package dto

import (
	"github.com/shopspring/decimal"

	"github.com/kalestates/kal_affiliate_app/internal/core/domain"
)

// CreatePackageRequest defines a new catalog entry. Commission keys are
// generation numbers "1".."3"; values are percentages of the triggering price.
type CreatePackageRequest struct {
	Name        string                     `json:"name" binding:"required,max=50"`
	Price       decimal.Decimal            `json:"price" binding:"required"`
	MaxDepth    int                        `json:"maxDepth" binding:"required,min=1,max=3"`
	Commissions map[string]decimal.Decimal `json:"commissions" binding:"required"`
	Spillover   bool                       `json:"spillover"`
}

// UpdatePackageRequest modifies an unpublished package. Pointer fields
// distinguish omitted from zero values.
type UpdatePackageRequest struct {
	Name        *string                     `json:"name"`
	Price       *decimal.Decimal            `json:"price"`
	MaxDepth    *int                        `json:"maxDepth"`
	Commissions *map[string]decimal.Decimal `json:"commissions"`
	Spillover   *bool                       `json:"spillover"`
}

// PackageResponse is the public shape of a catalog entry.
type PackageResponse struct {
	PackageID   string                     `json:"packageID"`
	Name        string                     `json:"name"`
	Price       decimal.Decimal            `json:"price"`
	MaxDepth    int                        `json:"maxDepth"`
	Commissions map[string]decimal.Decimal `json:"commissions"`
	Spillover   bool                       `json:"spillover"`
	IsPublished bool                       `json:"isPublished"`
}

// ToPackageResponse converts a domain.AffiliatePackage to its response DTO.
func ToPackageResponse(p *domain.AffiliatePackage) PackageResponse {
	return PackageResponse{
		PackageID:   p.PackageID,
		Name:        p.Name,
		Price:       p.Price,
		MaxDepth:    p.MaxDepth,
		Commissions: p.Commissions,
		Spillover:   p.Spillover,
		IsPublished: p.IsPublished,
	}
}
