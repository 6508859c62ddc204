package pgsql

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/kalestates/kal_affiliate_app/internal/apperrors"
	"github.com/kalestates/kal_affiliate_app/internal/core/domain"
	portsrepo "github.com/kalestates/kal_affiliate_app/internal/core/ports/repositories"
)

type PgxAffiliateRepository struct {
	BaseRepository
}

func newPgxAffiliateRepository(pool *pgxpool.Pool) portsrepo.AffiliateRepositoryFacade {
	return &PgxAffiliateRepository{BaseRepository: BaseRepository{Pool: pool}}
}

var _ portsrepo.AffiliateRepositoryFacade = (*PgxAffiliateRepository)(nil)

const affiliateColumns = `affiliate_id, user_id, upline_id, package_id, referral_code, is_active, balance, commissions_settled_at, joined_at, created_at, created_by, last_updated_at, last_updated_by`

func (r *PgxAffiliateRepository) SaveAffiliate(ctx context.Context, affiliate domain.Affiliate) error {
	query := `
		INSERT INTO affiliates (` + affiliateColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13);
	`
	_, err := r.Pool.Exec(ctx, query,
		affiliate.AffiliateID,
		affiliate.UserID,
		affiliate.UplineID,
		affiliate.PackageID,
		affiliate.ReferralCode,
		affiliate.IsActive,
		affiliate.Balance,
		affiliate.CommissionsSettledAt,
		affiliate.JoinedAt,
		affiliate.CreatedAt,
		affiliate.CreatedBy,
		affiliate.LastUpdatedAt,
		affiliate.LastUpdatedBy,
	)
	if err != nil {
		if classified := classifyPgError(err); errors.Is(classified, apperrors.ErrDuplicate) {
			return fmt.Errorf("%w: affiliate or referral code already exists", apperrors.ErrDuplicate)
		}
		return apperrors.NewAppError(500, "failed to insert affiliate", err)
	}
	return nil
}

func (r *PgxAffiliateRepository) FindAffiliateByID(ctx context.Context, affiliateID string) (*domain.Affiliate, error) {
	return r.findAffiliate(ctx, "affiliate_id", affiliateID)
}

func (r *PgxAffiliateRepository) FindAffiliateByUserID(ctx context.Context, userID string) (*domain.Affiliate, error) {
	return r.findAffiliate(ctx, "user_id", userID)
}

func (r *PgxAffiliateRepository) FindAffiliateByReferralCode(ctx context.Context, code string) (*domain.Affiliate, error) {
	return r.findAffiliate(ctx, "referral_code", code)
}

func (r *PgxAffiliateRepository) findAffiliate(ctx context.Context, column, value string) (*domain.Affiliate, error) {
	query := fmt.Sprintf(`SELECT %s FROM affiliates WHERE %s = $1;`, affiliateColumns, column)
	row := r.Pool.QueryRow(ctx, query, value)
	affiliate, err := scanAffiliate(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrNotFound
		}
		return nil, apperrors.NewAppError(500, "failed to query affiliate", err)
	}
	return affiliate, nil
}

func (r *PgxAffiliateRepository) ReferralCodeExists(ctx context.Context, code string) (bool, error) {
	var exists bool
	err := r.Pool.QueryRow(ctx, `SELECT EXISTS(SELECT 1 FROM affiliates WHERE referral_code = $1);`, code).Scan(&exists)
	if err != nil {
		return false, apperrors.NewAppError(500, "failed to check referral code", err)
	}
	return exists, nil
}

// MarkActivated flips is_active exactly once. The WHERE clause is the
// activate-once guard: re-confirming an already-active membership affects
// zero rows and reports ErrDuplicate.
func (r *PgxAffiliateRepository) MarkActivated(ctx context.Context, affiliateID string, updatedBy string, now time.Time) error {
	query := `
		UPDATE affiliates
		SET is_active = TRUE, last_updated_at = $2, last_updated_by = $3
		WHERE affiliate_id = $1 AND NOT is_active;
	`
	ct, err := r.Pool.Exec(ctx, query, affiliateID, now, updatedBy)
	if err != nil {
		return apperrors.NewAppError(500, "failed to activate affiliate", err)
	}
	if ct.RowsAffected() == 0 {
		// Either missing or already active; disambiguate for the caller.
		if _, findErr := r.FindAffiliateByID(ctx, affiliateID); findErr != nil {
			return findErr
		}
		return apperrors.ErrDuplicate
	}
	return nil
}

func (r *PgxAffiliateRepository) ListDownline(ctx context.Context, uplineID string) ([]domain.Affiliate, error) {
	query := `SELECT ` + affiliateColumns + ` FROM affiliates WHERE upline_id = $1 ORDER BY joined_at;`
	rows, err := r.Pool.Query(ctx, query, uplineID)
	if err != nil {
		return nil, apperrors.NewAppError(500, "failed to list downline", err)
	}
	defer rows.Close()

	var downline []domain.Affiliate
	for rows.Next() {
		affiliate, err := scanAffiliate(rows)
		if err != nil {
			return nil, apperrors.NewAppError(500, "failed to scan affiliate row", err)
		}
		downline = append(downline, *affiliate)
	}
	return downline, rows.Err()
}

func scanAffiliate(row pgx.Row) (*domain.Affiliate, error) {
	var affiliate domain.Affiliate
	err := row.Scan(
		&affiliate.AffiliateID,
		&affiliate.UserID,
		&affiliate.UplineID,
		&affiliate.PackageID,
		&affiliate.ReferralCode,
		&affiliate.IsActive,
		&affiliate.Balance,
		&affiliate.CommissionsSettledAt,
		&affiliate.JoinedAt,
		&affiliate.CreatedAt,
		&affiliate.CreatedBy,
		&affiliate.LastUpdatedAt,
		&affiliate.LastUpdatedBy,
	)
	if err != nil {
		return nil, err
	}
	return &affiliate, nil
}
