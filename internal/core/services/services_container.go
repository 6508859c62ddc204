package services

import (
	portsrepo "github.com/kalestates/kal_affiliate_app/internal/core/ports/repositories"
	portssvc "github.com/kalestates/kal_affiliate_app/internal/core/ports/services"
	"github.com/kalestates/kal_affiliate_app/internal/integrity"
)

// NewServiceContainer wires all services over the repository provider.
// The commission engine is shared: the affiliate activator and the sale
// verifier both distribute through the same instance.
func NewServiceContainer(repos portsrepo.RepositoryProvider, sealer *integrity.Sealer) *portssvc.ServiceContainer {
	commissionSvc := NewCommissionService(repos.AffiliateRepo, repos.PackageRepo, repos.CommissionRepo, sealer)

	return &portssvc.ServiceContainer{
		User:       NewUserService(repos.UserRepo),
		Affiliate:  NewAffiliateService(repos.AffiliateRepo, repos.PackageRepo, commissionSvc),
		Package:    NewPackageService(repos.PackageRepo),
		Commission: commissionSvc,
		Sale:       NewSaleService(repos.SaleRepo, repos.AffiliateRepo, commissionSvc, sealer),
		Withdrawal: NewWithdrawalService(repos.WithdrawalRepo, repos.AffiliateRepo, repos.StatementRepo),
	}
}
