package pgsql

import (
	"github.com/jackc/pgx/v5/pgxpool"

	portsrepo "github.com/kalestates/kal_affiliate_app/internal/core/ports/repositories"
)

// NewRepositoryProvider wires all pgx repositories over one connection pool.
func NewRepositoryProvider(dbPool *pgxpool.Pool) portsrepo.RepositoryProvider {
	return portsrepo.RepositoryProvider{
		UserRepo:       newPgxUserRepository(dbPool),
		AffiliateRepo:  newPgxAffiliateRepository(dbPool),
		PackageRepo:    newPgxPackageRepository(dbPool),
		CommissionRepo: newPgxCommissionRepository(dbPool),
		SaleRepo:       newPgxSaleRepository(dbPool),
		WithdrawalRepo: newPgxWithdrawalRepository(dbPool),
		StatementRepo:  newPgxStatementRepository(dbPool),
	}
}
