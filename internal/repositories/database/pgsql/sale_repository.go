package pgsql

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/kalestates/kal_affiliate_app/internal/apperrors"
	"github.com/kalestates/kal_affiliate_app/internal/core/domain"
	portsrepo "github.com/kalestates/kal_affiliate_app/internal/core/ports/repositories"
)

type PgxSaleRepository struct {
	BaseRepository
}

func newPgxSaleRepository(pool *pgxpool.Pool) portsrepo.SaleRepositoryFacade {
	return &PgxSaleRepository{BaseRepository: BaseRepository{Pool: pool}}
}

var _ portsrepo.SaleRepositoryFacade = (*PgxSaleRepository)(nil)

const saleColumns = `sale_id, affiliate_id, amount, sale_type, description, is_verified, verified_by, verification_date, commissions_settled_at, seal, created_at, created_by, last_updated_at, last_updated_by`

func (r *PgxSaleRepository) SaveSale(ctx context.Context, sale domain.PropertySale) error {
	query := `
		INSERT INTO property_sales (` + saleColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14);
	`
	_, err := r.Pool.Exec(ctx, query,
		sale.SaleID,
		sale.AffiliateID,
		sale.Amount,
		sale.SaleType,
		sale.Description,
		sale.IsVerified,
		sale.VerifiedBy,
		sale.VerificationDate,
		sale.CommissionsSettledAt,
		sale.Seal,
		sale.CreatedAt,
		sale.CreatedBy,
		sale.LastUpdatedAt,
		sale.LastUpdatedBy,
	)
	if err != nil {
		if classified := classifyPgError(err); errors.Is(classified, apperrors.ErrDuplicate) {
			return apperrors.ErrDuplicate
		}
		return apperrors.NewAppError(500, "failed to insert property sale", err)
	}
	return nil
}

func (r *PgxSaleRepository) FindSaleByID(ctx context.Context, saleID string) (*domain.PropertySale, error) {
	query := `SELECT ` + saleColumns + ` FROM property_sales WHERE sale_id = $1;`
	row := r.Pool.QueryRow(ctx, query, saleID)
	sale, err := scanSale(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrNotFound
		}
		return nil, apperrors.NewAppError(500, "failed to query property sale", err)
	}
	return sale, nil
}

func (r *PgxSaleRepository) ListSalesByAffiliate(ctx context.Context, affiliateID string) ([]domain.PropertySale, error) {
	query := `SELECT ` + saleColumns + ` FROM property_sales WHERE affiliate_id = $1 ORDER BY created_at DESC;`
	rows, err := r.Pool.Query(ctx, query, affiliateID)
	if err != nil {
		return nil, apperrors.NewAppError(500, "failed to list property sales", err)
	}
	defer rows.Close()

	var sales []domain.PropertySale
	for rows.Next() {
		sale, err := scanSale(rows)
		if err != nil {
			return nil, apperrors.NewAppError(500, "failed to scan property sale row", err)
		}
		sales = append(sales, *sale)
	}
	return sales, rows.Err()
}

// MarkVerified records the verifying admin exactly once; verifying an
// already-verified sale reports ErrDuplicate.
func (r *PgxSaleRepository) MarkVerified(ctx context.Context, saleID string, verifiedBy string, now time.Time) error {
	query := `
		UPDATE property_sales
		SET is_verified = TRUE, verified_by = $2, verification_date = $3, last_updated_at = $3, last_updated_by = $2
		WHERE sale_id = $1 AND NOT is_verified;
	`
	ct, err := r.Pool.Exec(ctx, query, saleID, verifiedBy, now)
	if err != nil {
		return apperrors.NewAppError(500, "failed to mark sale verified", err)
	}
	if ct.RowsAffected() == 0 {
		if _, findErr := r.FindSaleByID(ctx, saleID); findErr != nil {
			return findErr
		}
		return apperrors.ErrDuplicate
	}
	return nil
}

func scanSale(row pgx.Row) (*domain.PropertySale, error) {
	var sale domain.PropertySale
	err := row.Scan(
		&sale.SaleID,
		&sale.AffiliateID,
		&sale.Amount,
		&sale.SaleType,
		&sale.Description,
		&sale.IsVerified,
		&sale.VerifiedBy,
		&sale.VerificationDate,
		&sale.CommissionsSettledAt,
		&sale.Seal,
		&sale.CreatedAt,
		&sale.CreatedBy,
		&sale.LastUpdatedAt,
		&sale.LastUpdatedBy,
	)
	if err != nil {
		return nil, err
	}
	return &sale, nil
}
