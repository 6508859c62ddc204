package pgsql

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"github.com/kalestates/kal_affiliate_app/internal/apperrors"
	"github.com/kalestates/kal_affiliate_app/internal/core/domain"
	portsrepo "github.com/kalestates/kal_affiliate_app/internal/core/ports/repositories"
)

type PgxPackageRepository struct {
	BaseRepository
}

func newPgxPackageRepository(pool *pgxpool.Pool) portsrepo.PackageRepositoryFacade {
	return &PgxPackageRepository{BaseRepository: BaseRepository{Pool: pool}}
}

var _ portsrepo.PackageRepositoryFacade = (*PgxPackageRepository)(nil)

const packageColumns = `package_id, name, price, max_depth, commissions, spillover, is_published, created_at, created_by, last_updated_at, last_updated_by`

func (r *PgxPackageRepository) SavePackage(ctx context.Context, pkg domain.AffiliatePackage) error {
	commissionsJSON, err := json.Marshal(pkg.Commissions)
	if err != nil {
		return apperrors.NewAppError(500, "failed to marshal commission table", err)
	}

	query := `
		INSERT INTO affiliate_packages (` + packageColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11);
	`
	_, err = r.Pool.Exec(ctx, query,
		pkg.PackageID,
		pkg.Name,
		pkg.Price,
		pkg.MaxDepth,
		commissionsJSON,
		pkg.Spillover,
		pkg.IsPublished,
		pkg.CreatedAt,
		pkg.CreatedBy,
		pkg.LastUpdatedAt,
		pkg.LastUpdatedBy,
	)
	if err != nil {
		if classified := classifyPgError(err); errors.Is(classified, apperrors.ErrDuplicate) {
			return apperrors.ErrDuplicate
		}
		return apperrors.NewAppError(500, "failed to insert package", err)
	}
	return nil
}

func (r *PgxPackageRepository) FindPackageByID(ctx context.Context, packageID string) (*domain.AffiliatePackage, error) {
	query := `SELECT ` + packageColumns + ` FROM affiliate_packages WHERE package_id = $1;`
	row := r.Pool.QueryRow(ctx, query, packageID)
	pkg, err := scanPackage(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrNotFound
		}
		return nil, apperrors.NewAppError(500, "failed to query package", err)
	}
	return pkg, nil
}

func (r *PgxPackageRepository) ListPackages(ctx context.Context, publishedOnly bool) ([]domain.AffiliatePackage, error) {
	query := `SELECT ` + packageColumns + ` FROM affiliate_packages`
	if publishedOnly {
		query += ` WHERE is_published`
	}
	query += ` ORDER BY price;`

	rows, err := r.Pool.Query(ctx, query)
	if err != nil {
		return nil, apperrors.NewAppError(500, "failed to list packages", err)
	}
	defer rows.Close()

	var packages []domain.AffiliatePackage
	for rows.Next() {
		pkg, err := scanPackage(rows)
		if err != nil {
			return nil, apperrors.NewAppError(500, "failed to scan package row", err)
		}
		packages = append(packages, *pkg)
	}
	return packages, rows.Err()
}

// UpdatePackage rewrites a package's editable fields. Published packages are
// immutable; the WHERE clause enforces that at the database level too.
func (r *PgxPackageRepository) UpdatePackage(ctx context.Context, pkg domain.AffiliatePackage) error {
	commissionsJSON, err := json.Marshal(pkg.Commissions)
	if err != nil {
		return apperrors.NewAppError(500, "failed to marshal commission table", err)
	}

	query := `
		UPDATE affiliate_packages
		SET name = $2, price = $3, max_depth = $4, commissions = $5, spillover = $6,
		    last_updated_at = $7, last_updated_by = $8
		WHERE package_id = $1 AND NOT is_published;
	`
	ct, err := r.Pool.Exec(ctx, query,
		pkg.PackageID,
		pkg.Name,
		pkg.Price,
		pkg.MaxDepth,
		commissionsJSON,
		pkg.Spillover,
		pkg.LastUpdatedAt,
		pkg.LastUpdatedBy,
	)
	if err != nil {
		return apperrors.NewAppError(500, "failed to update package", err)
	}
	if ct.RowsAffected() == 0 {
		return apperrors.ErrValidation
	}
	return nil
}

func (r *PgxPackageRepository) PublishPackage(ctx context.Context, packageID string, updatedBy string, now time.Time) error {
	query := `
		UPDATE affiliate_packages
		SET is_published = TRUE, last_updated_at = $2, last_updated_by = $3
		WHERE package_id = $1 AND NOT is_published;
	`
	ct, err := r.Pool.Exec(ctx, query, packageID, now, updatedBy)
	if err != nil {
		return apperrors.NewAppError(500, "failed to publish package", err)
	}
	if ct.RowsAffected() == 0 {
		return apperrors.ErrDuplicate
	}
	return nil
}

func scanPackage(row pgx.Row) (*domain.AffiliatePackage, error) {
	var pkg domain.AffiliatePackage
	var commissionsJSON []byte
	err := row.Scan(
		&pkg.PackageID,
		&pkg.Name,
		&pkg.Price,
		&pkg.MaxDepth,
		&commissionsJSON,
		&pkg.Spillover,
		&pkg.IsPublished,
		&pkg.CreatedAt,
		&pkg.CreatedBy,
		&pkg.LastUpdatedAt,
		&pkg.LastUpdatedBy,
	)
	if err != nil {
		return nil, err
	}
	pkg.Commissions = make(map[string]decimal.Decimal)
	if len(commissionsJSON) > 0 {
		if err := json.Unmarshal(commissionsJSON, &pkg.Commissions); err != nil {
			return nil, err
		}
	}
	return &pkg, nil
}
