package pgsql

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"github.com/kalestates/kal_affiliate_app/internal/apperrors"
	"github.com/kalestates/kal_affiliate_app/internal/core/domain"
	portsrepo "github.com/kalestates/kal_affiliate_app/internal/core/ports/repositories"
)

type PgxWithdrawalRepository struct {
	BaseRepository
}

func newPgxWithdrawalRepository(pool *pgxpool.Pool) portsrepo.WithdrawalRepositoryFacade {
	return &PgxWithdrawalRepository{BaseRepository: BaseRepository{Pool: pool}}
}

var _ portsrepo.WithdrawalRepositoryFacade = (*PgxWithdrawalRepository)(nil)

const withdrawalColumns = `withdrawal_id, affiliate_id, amount, status, processed_by, processed_at, created_at, created_by, last_updated_at, last_updated_by`

func (r *PgxWithdrawalRepository) SaveWithdrawal(ctx context.Context, withdrawal domain.Withdrawal) error {
	query := `
		INSERT INTO withdrawals (` + withdrawalColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10);
	`
	_, err := r.Pool.Exec(ctx, query,
		withdrawal.WithdrawalID,
		withdrawal.AffiliateID,
		withdrawal.Amount,
		withdrawal.Status,
		withdrawal.ProcessedBy,
		withdrawal.ProcessedAt,
		withdrawal.CreatedAt,
		withdrawal.CreatedBy,
		withdrawal.LastUpdatedAt,
		withdrawal.LastUpdatedBy,
	)
	if err != nil {
		if classified := classifyPgError(err); errors.Is(classified, apperrors.ErrDuplicate) {
			return apperrors.ErrDuplicate
		}
		return apperrors.NewAppError(500, "failed to insert withdrawal", err)
	}
	return nil
}

func (r *PgxWithdrawalRepository) FindWithdrawalByID(ctx context.Context, withdrawalID string) (*domain.Withdrawal, error) {
	query := `SELECT ` + withdrawalColumns + ` FROM withdrawals WHERE withdrawal_id = $1;`
	row := r.Pool.QueryRow(ctx, query, withdrawalID)
	withdrawal, err := scanWithdrawal(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrNotFound
		}
		return nil, apperrors.NewAppError(500, "failed to query withdrawal", err)
	}
	return withdrawal, nil
}

func (r *PgxWithdrawalRepository) ListWithdrawalsByAffiliate(ctx context.Context, affiliateID string) ([]domain.Withdrawal, error) {
	query := `SELECT ` + withdrawalColumns + ` FROM withdrawals WHERE affiliate_id = $1 ORDER BY created_at DESC;`
	rows, err := r.Pool.Query(ctx, query, affiliateID)
	if err != nil {
		return nil, apperrors.NewAppError(500, "failed to list withdrawals", err)
	}
	defer rows.Close()

	var withdrawals []domain.Withdrawal
	for rows.Next() {
		withdrawal, err := scanWithdrawal(rows)
		if err != nil {
			return nil, apperrors.NewAppError(500, "failed to scan withdrawal row", err)
		}
		withdrawals = append(withdrawals, *withdrawal)
	}
	return withdrawals, rows.Err()
}

// ApproveWithdrawal debits the affiliate balance and flips the request to
// APPROVED in one transaction. The affiliate row is locked FOR UPDATE so the
// debit cannot race concurrent commission credits; funds are re-checked under
// the lock.
func (r *PgxWithdrawalRepository) ApproveWithdrawal(ctx context.Context, withdrawalID string, processedBy string, now time.Time) error {
	tx, err := r.Begin(ctx)
	if err != nil {
		return err
	}
	defer r.Rollback(ctx, tx)

	var affiliateID string
	var amount decimal.Decimal
	var status domain.WithdrawalStatus
	err = tx.QueryRow(ctx, `
		SELECT affiliate_id, amount, status FROM withdrawals
		WHERE withdrawal_id = $1
		FOR UPDATE;
	`, withdrawalID).Scan(&affiliateID, &amount, &status)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return apperrors.ErrNotFound
		}
		return classifyOrWrap(err, "failed to lock withdrawal")
	}
	if status != domain.WithdrawalPending {
		return apperrors.ErrDuplicate
	}

	var balance decimal.Decimal
	err = tx.QueryRow(ctx, `
		SELECT balance FROM affiliates
		WHERE affiliate_id = $1
		FOR UPDATE;
	`, affiliateID).Scan(&balance)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return apperrors.ErrNotFound
		}
		return classifyOrWrap(err, "failed to lock affiliate balance")
	}
	if balance.LessThan(amount) {
		return apperrors.ErrInsufficientBalance
	}

	_, err = tx.Exec(ctx, `
		UPDATE affiliates
		SET balance = balance - $2, last_updated_at = $3, last_updated_by = $4
		WHERE affiliate_id = $1;
	`, affiliateID, amount, now, processedBy)
	if err != nil {
		return classifyOrWrap(err, "failed to debit affiliate balance")
	}

	_, err = tx.Exec(ctx, `
		UPDATE withdrawals
		SET status = $2, processed_by = $3, processed_at = $4, last_updated_at = $4, last_updated_by = $3
		WHERE withdrawal_id = $1;
	`, withdrawalID, domain.WithdrawalApproved, processedBy, now)
	if err != nil {
		return classifyOrWrap(err, "failed to update withdrawal status")
	}

	_, err = tx.Exec(ctx, `
		INSERT INTO statement_entries (entry_id, affiliate_id, amount, entry_type, description, created_at)
		VALUES ($1, $2, $3, $4, $5, $6);
	`, uuid.NewString(), affiliateID, amount.Neg(), domain.StatementWithdrawal,
		fmt.Sprintf("Withdrawal %s approved", withdrawalID), now)
	if err != nil {
		return classifyOrWrap(err, "failed to write statement entry")
	}

	return r.Commit(ctx, tx)
}

func (r *PgxWithdrawalRepository) RejectWithdrawal(ctx context.Context, withdrawalID string, processedBy string, now time.Time) error {
	query := `
		UPDATE withdrawals
		SET status = $2, processed_by = $3, processed_at = $4, last_updated_at = $4, last_updated_by = $3
		WHERE withdrawal_id = $1 AND status = $5;
	`
	ct, err := r.Pool.Exec(ctx, query, withdrawalID, domain.WithdrawalRejected, processedBy, now, domain.WithdrawalPending)
	if err != nil {
		return apperrors.NewAppError(500, "failed to reject withdrawal", err)
	}
	if ct.RowsAffected() == 0 {
		if _, findErr := r.FindWithdrawalByID(ctx, withdrawalID); findErr != nil {
			return findErr
		}
		return apperrors.ErrDuplicate
	}
	return nil
}

func (r *PgxWithdrawalRepository) SumApprovedByAffiliate(ctx context.Context, affiliateID string) (decimal.Decimal, error) {
	var sum decimal.Decimal
	query := `SELECT COALESCE(SUM(amount), 0) FROM withdrawals WHERE affiliate_id = $1 AND status = $2;`
	if err := r.Pool.QueryRow(ctx, query, affiliateID, domain.WithdrawalApproved).Scan(&sum); err != nil {
		return decimal.Zero, apperrors.NewAppError(500, "failed to sum withdrawals", err)
	}
	return sum, nil
}

func scanWithdrawal(row pgx.Row) (*domain.Withdrawal, error) {
	var withdrawal domain.Withdrawal
	err := row.Scan(
		&withdrawal.WithdrawalID,
		&withdrawal.AffiliateID,
		&withdrawal.Amount,
		&withdrawal.Status,
		&withdrawal.ProcessedBy,
		&withdrawal.ProcessedAt,
		&withdrawal.CreatedAt,
		&withdrawal.CreatedBy,
		&withdrawal.LastUpdatedAt,
		&withdrawal.LastUpdatedBy,
	)
	if err != nil {
		return nil, err
	}
	return &withdrawal, nil
}
