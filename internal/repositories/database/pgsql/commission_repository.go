package pgsql

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"github.com/kalestates/kal_affiliate_app/internal/apperrors"
	"github.com/kalestates/kal_affiliate_app/internal/core/domain"
	portsrepo "github.com/kalestates/kal_affiliate_app/internal/core/ports/repositories"
	"github.com/kalestates/kal_affiliate_app/internal/utils/pagination"
)

type PgxCommissionRepository struct {
	BaseRepository
}

func newPgxCommissionRepository(pool *pgxpool.Pool) portsrepo.CommissionRepositoryFacade {
	return &PgxCommissionRepository{BaseRepository: BaseRepository{Pool: pool}}
}

var _ portsrepo.CommissionRepositoryFacade = (*PgxCommissionRepository)(nil)

const commissionColumns = `commission_id, recipient_affiliate_id, source_affiliate_id, generation, amount, seal, created_at`

// SettleDistribution records every payout for one triggering event inside a
// single database transaction:
//
//  1. claim the event's idempotency guard (zero rows -> already settled),
//  2. lock recipient balance rows FOR UPDATE in sorted order,
//  3. apply balance increments,
//  4. append the sealed ledger entries and statement rows.
//
// Any failure rolls everything back; partial payouts are never observable.
func (r *PgxCommissionRepository) SettleDistribution(
	ctx context.Context,
	claim portsrepo.DistributionClaim,
	logs []domain.CommissionLog,
	balanceChanges map[string]decimal.Decimal,
	statements []domain.StatementEntry,
) error {
	tx, err := r.Begin(ctx)
	if err != nil {
		return err
	}
	defer r.Rollback(ctx, tx)

	if err := claimDistribution(ctx, tx, claim); err != nil {
		return err
	}

	if err := lockAndApplyBalanceChanges(ctx, tx, balanceChanges); err != nil {
		return err
	}

	batch := &pgx.Batch{}
	logQuery := `
		INSERT INTO commission_logs (` + commissionColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7);
	`
	for _, entry := range logs {
		batch.Queue(logQuery,
			entry.CommissionID,
			entry.RecipientAffiliateID,
			entry.SourceAffiliateID,
			entry.Generation,
			entry.Amount,
			entry.Seal,
			entry.CreatedAt,
		)
	}

	stmtQuery := `
		INSERT INTO statement_entries (entry_id, affiliate_id, amount, entry_type, description, created_at)
		VALUES ($1, $2, $3, $4, $5, $6);
	`
	for _, entry := range statements {
		batch.Queue(stmtQuery,
			entry.EntryID,
			entry.AffiliateID,
			entry.Amount,
			entry.EntryType,
			entry.Description,
			entry.CreatedAt,
		)
	}

	if batch.Len() > 0 {
		br := tx.SendBatch(ctx, batch)
		if err := br.Close(); err != nil {
			return classifyOrWrap(err, "failed to append commission ledger entries")
		}
	}

	return r.Commit(ctx, tx)
}

// claimDistribution marks the triggering event as settled. The conditional
// UPDATE is the idempotency guard: whichever transaction claims the row first
// wins; everyone else sees zero rows affected.
func claimDistribution(ctx context.Context, tx pgx.Tx, claim portsrepo.DistributionClaim) error {
	var query string
	switch claim.Trigger {
	case portsrepo.TriggerActivation:
		query = `
			UPDATE affiliates
			SET commissions_settled_at = now()
			WHERE affiliate_id = $1 AND commissions_settled_at IS NULL;
		`
	case portsrepo.TriggerSale:
		query = `
			UPDATE property_sales
			SET commissions_settled_at = now()
			WHERE sale_id = $1 AND commissions_settled_at IS NULL;
		`
	default:
		return fmt.Errorf("%w: unknown distribution trigger %q", apperrors.ErrValidation, claim.Trigger)
	}

	ct, err := tx.Exec(ctx, query, claim.TriggerID)
	if err != nil {
		return classifyOrWrap(err, "failed to claim distribution guard")
	}
	if ct.RowsAffected() == 0 {
		return apperrors.ErrAlreadyDistributed
	}
	return nil
}

// lockAndApplyBalanceChanges locks each recipient's affiliate row and applies
// its credit. IDs are locked in sorted order so two concurrent distributions
// touching overlapping uplines cannot deadlock each other.
func lockAndApplyBalanceChanges(ctx context.Context, tx pgx.Tx, balanceChanges map[string]decimal.Decimal) error {
	if len(balanceChanges) == 0 {
		return nil
	}

	affiliateIDs := make([]string, 0, len(balanceChanges))
	for id := range balanceChanges {
		affiliateIDs = append(affiliateIDs, id)
	}
	sort.Strings(affiliateIDs)

	lockQuery := `
		SELECT affiliate_id FROM affiliates
		WHERE affiliate_id = ANY($1)
		ORDER BY affiliate_id
		FOR UPDATE;
	`
	rows, err := tx.Query(ctx, lockQuery, affiliateIDs)
	if err != nil {
		return classifyOrWrap(err, "failed to lock recipient balances")
	}
	locked := 0
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			rows.Close()
			return apperrors.NewAppError(500, "failed to scan locked affiliate row", err)
		}
		locked++
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return classifyOrWrap(err, "failed to lock recipient balances")
	}
	if locked != len(affiliateIDs) {
		return fmt.Errorf("%w: recipient affiliate missing during balance lock", apperrors.ErrNotFound)
	}

	updateQuery := `
		UPDATE affiliates
		SET balance = balance + $2, last_updated_at = now()
		WHERE affiliate_id = $1;
	`
	batch := &pgx.Batch{}
	for _, id := range affiliateIDs {
		delta := balanceChanges[id]
		if delta.IsZero() {
			continue
		}
		batch.Queue(updateQuery, id, delta)
	}
	if batch.Len() == 0 {
		return nil
	}
	br := tx.SendBatch(ctx, batch)
	if err := br.Close(); err != nil {
		return classifyOrWrap(err, "failed to apply balance changes")
	}
	return nil
}

func classifyOrWrap(err error, msg string) error {
	classified := classifyPgError(err)
	if errors.Is(classified, apperrors.ErrConflict) || errors.Is(classified, apperrors.ErrDuplicate) {
		return classified
	}
	return apperrors.NewAppError(500, msg, err)
}

func (r *PgxCommissionRepository) FindCommissionByID(ctx context.Context, commissionID string) (*domain.CommissionLog, error) {
	query := `SELECT ` + commissionColumns + ` FROM commission_logs WHERE commission_id = $1;`
	row := r.Pool.QueryRow(ctx, query, commissionID)
	entry, err := scanCommission(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrNotFound
		}
		return nil, apperrors.NewAppError(500, "failed to query commission", err)
	}
	return entry, nil
}

// ListCommissionsByRecipient pages newest-first on (created_at, commission_id).
func (r *PgxCommissionRepository) ListCommissionsByRecipient(ctx context.Context, recipientID string, limit int, nextToken *string) ([]domain.CommissionLog, *string, error) {
	if limit <= 0 {
		limit = 20
	}

	query := `SELECT ` + commissionColumns + ` FROM commission_logs WHERE recipient_affiliate_id = $1`
	args := []any{recipientID}

	if nextToken != nil && *nextToken != "" {
		cursorTime, cursorID, err := pagination.DecodeCursor(*nextToken)
		if err != nil {
			return nil, nil, fmt.Errorf("%w: %v", apperrors.ErrValidation, err)
		}
		query += ` AND (created_at, commission_id) < ($2, $3)`
		args = append(args, cursorTime, cursorID)
	}

	query += fmt.Sprintf(` ORDER BY created_at DESC, commission_id DESC LIMIT %d;`, limit+1)

	rows, err := r.Pool.Query(ctx, query, args...)
	if err != nil {
		return nil, nil, apperrors.NewAppError(500, "failed to list commissions", err)
	}
	defer rows.Close()

	var entries []domain.CommissionLog
	for rows.Next() {
		entry, err := scanCommission(rows)
		if err != nil {
			return nil, nil, apperrors.NewAppError(500, "failed to scan commission row", err)
		}
		entries = append(entries, *entry)
	}
	if err := rows.Err(); err != nil {
		return nil, nil, apperrors.NewAppError(500, "failed to list commissions", err)
	}

	var next *string
	if len(entries) > limit {
		entries = entries[:limit]
		last := entries[len(entries)-1]
		token := pagination.EncodeCursor(last.CreatedAt, last.CommissionID)
		next = &token
	}
	return entries, next, nil
}

func (r *PgxCommissionRepository) SumCommissionsByRecipient(ctx context.Context, recipientID string) (decimal.Decimal, error) {
	var sum decimal.Decimal
	query := `SELECT COALESCE(SUM(amount), 0) FROM commission_logs WHERE recipient_affiliate_id = $1;`
	if err := r.Pool.QueryRow(ctx, query, recipientID).Scan(&sum); err != nil {
		return decimal.Zero, apperrors.NewAppError(500, "failed to sum commissions", err)
	}
	return sum, nil
}

// DeleteCommission hard-deletes a ledger entry. Admin fraud-correction only;
// the service layer logs the override before calling this.
func (r *PgxCommissionRepository) DeleteCommission(ctx context.Context, commissionID string) error {
	ct, err := r.Pool.Exec(ctx, `DELETE FROM commission_logs WHERE commission_id = $1;`, commissionID)
	if err != nil {
		return apperrors.NewAppError(500, "failed to delete commission", err)
	}
	if ct.RowsAffected() == 0 {
		return apperrors.ErrNotFound
	}
	return nil
}

// Reconcile reconstructs each affiliate's balance from the ledger: commission
// credits minus approved withdrawals, compared against the stored balance.
func (r *PgxCommissionRepository) Reconcile(ctx context.Context) ([]portsrepo.ReconciliationRow, error) {
	query := `
		SELECT a.affiliate_id,
		       a.balance,
		       COALESCE(c.total, 0) - COALESCE(w.total, 0) AS computed
		FROM affiliates a
		LEFT JOIN (
			SELECT recipient_affiliate_id, SUM(amount) AS total
			FROM commission_logs GROUP BY recipient_affiliate_id
		) c ON c.recipient_affiliate_id = a.affiliate_id
		LEFT JOIN (
			SELECT affiliate_id, SUM(amount) AS total
			FROM withdrawals WHERE status = 'APPROVED' GROUP BY affiliate_id
		) w ON w.affiliate_id = a.affiliate_id
		ORDER BY a.affiliate_id;
	`
	rows, err := r.Pool.Query(ctx, query)
	if err != nil {
		return nil, apperrors.NewAppError(500, "failed to run reconciliation query", err)
	}
	defer rows.Close()

	var report []portsrepo.ReconciliationRow
	for rows.Next() {
		var row portsrepo.ReconciliationRow
		if err := rows.Scan(&row.AffiliateID, &row.StoredBalance, &row.ComputedBalance); err != nil {
			return nil, apperrors.NewAppError(500, "failed to scan reconciliation row", err)
		}
		report = append(report, row)
	}
	return report, rows.Err()
}

func scanCommission(row pgx.Row) (*domain.CommissionLog, error) {
	var entry domain.CommissionLog
	err := row.Scan(
		&entry.CommissionID,
		&entry.RecipientAffiliateID,
		&entry.SourceAffiliateID,
		&entry.Generation,
		&entry.Amount,
		&entry.Seal,
		&entry.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &entry, nil
}
