package pgsql

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/kalestates/kal_affiliate_app/internal/apperrors"
	"github.com/kalestates/kal_affiliate_app/internal/core/domain"
	portsrepo "github.com/kalestates/kal_affiliate_app/internal/core/ports/repositories"
	"github.com/kalestates/kal_affiliate_app/internal/utils/pagination"
)

// PgxStatementRepository reads account statement rows. Writes happen only
// inside the commission settlement and withdrawal approval transactions.
type PgxStatementRepository struct {
	BaseRepository
}

func newPgxStatementRepository(pool *pgxpool.Pool) portsrepo.StatementRepositoryFacade {
	return &PgxStatementRepository{BaseRepository: BaseRepository{Pool: pool}}
}

var _ portsrepo.StatementRepositoryFacade = (*PgxStatementRepository)(nil)

func (r *PgxStatementRepository) ListStatementByAffiliate(ctx context.Context, affiliateID string, limit int, nextToken *string) ([]domain.StatementEntry, *string, error) {
	if limit <= 0 {
		limit = 20
	}

	query := `
		SELECT entry_id, affiliate_id, amount, entry_type, description, created_at
		FROM statement_entries
		WHERE affiliate_id = $1`
	args := []any{affiliateID}

	if nextToken != nil && *nextToken != "" {
		cursorTime, cursorID, err := pagination.DecodeCursor(*nextToken)
		if err != nil {
			return nil, nil, fmt.Errorf("%w: %v", apperrors.ErrValidation, err)
		}
		query += ` AND (created_at, entry_id) < ($2, $3)`
		args = append(args, cursorTime, cursorID)
	}

	query += fmt.Sprintf(` ORDER BY created_at DESC, entry_id DESC LIMIT %d;`, limit+1)

	rows, err := r.Pool.Query(ctx, query, args...)
	if err != nil {
		return nil, nil, apperrors.NewAppError(500, "failed to list statement entries", err)
	}
	defer rows.Close()

	var entries []domain.StatementEntry
	for rows.Next() {
		var entry domain.StatementEntry
		if err := rows.Scan(
			&entry.EntryID,
			&entry.AffiliateID,
			&entry.Amount,
			&entry.EntryType,
			&entry.Description,
			&entry.CreatedAt,
		); err != nil {
			return nil, nil, apperrors.NewAppError(500, "failed to scan statement row", err)
		}
		entries = append(entries, entry)
	}
	if err := rows.Err(); err != nil {
		return nil, nil, apperrors.NewAppError(500, "failed to list statement entries", err)
	}

	var next *string
	if len(entries) > limit {
		entries = entries[:limit]
		last := entries[len(entries)-1]
		token := pagination.EncodeCursor(last.CreatedAt, last.EntryID)
		next = &token
	}
	return entries, next, nil
}
