package services

import (
	"context"

	"github.com/kalestates/kal_affiliate_app/internal/core/domain"
	"github.com/kalestates/kal_affiliate_app/internal/dto"
)

// SaleReaderSvc defines read operations for property sales.
type SaleReaderSvc interface {
	GetSaleByID(ctx context.Context, saleID string) (*domain.PropertySale, error)
	ListSalesByAffiliate(ctx context.Context, affiliateID string) ([]domain.PropertySale, error)
}

// SaleRecorderSvc records unverified sales.
type SaleRecorderSvc interface {
	RecordSale(ctx context.Context, req dto.RecordSaleRequest, recordedBy string) (*domain.PropertySale, error)
}

// SaleVerifierSvc is the sale-verification collaborator entry point.
type SaleVerifierSvc interface {
	// VerifySale marks a sale verified exactly once and distributes
	// commissions against the recorded sale amount. Distribution runs even
	// when the sale is already verified, so a settlement that failed on an
	// earlier invocation is completed on retry.
	VerifySale(ctx context.Context, saleID string, adminUserID string) ([]domain.CommissionLog, error)
}

// SaleSvcFacade combines all sale-related service interfaces.
type SaleSvcFacade interface {
	SaleReaderSvc
	SaleRecorderSvc
	SaleVerifierSvc
}
