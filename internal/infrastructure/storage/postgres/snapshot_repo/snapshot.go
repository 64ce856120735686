// Package snapshot_repo provides the PostgreSQL implementation of the
// period snapshot repository.
package snapshot_repo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/Masterminds/squirrel"
	"github.com/georgysavva/scany/v2/pgxscan"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"grootboek/internal/core/apperror"
	"grootboek/internal/core/id"
	"grootboek/internal/core/types"
	"grootboek/internal/domain/snapshot"
	"grootboek/internal/infrastructure/storage/postgres"
)

const snapshotsTable = "period_snapshots"

// SnapshotRepo implements snapshot.Repository.
type SnapshotRepo struct {
	txManager *postgres.TxManager
	cols      []string
}

var _ snapshot.Repository = (*SnapshotRepo)(nil)

// NewSnapshotRepo creates a new snapshot repository.
func NewSnapshotRepo(txManager *postgres.TxManager) *SnapshotRepo {
	return &SnapshotRepo{
		txManager: txManager,
		cols:      postgres.ExtractDBColumns[snapshot.Snapshot](),
	}
}

// Builder returns a new squirrel builder with PostgreSQL placeholder format.
func (r *SnapshotRepo) Builder() squirrel.StatementBuilderType {
	return squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar)
}

func (r *SnapshotRepo) baseSelect() squirrel.SelectBuilder {
	return r.Builder().
		Select(r.cols...).
		From(snapshotsTable)
}

// Create inserts the snapshot. A unique constraint on (tenant_id,
// period_id) backs the write-once guarantee; a violation surfaces as
// SNAPSHOT_IMMUTABLE.
func (r *SnapshotRepo) Create(ctx context.Context, s *snapshot.Snapshot) error {
	data := postgres.StructToMap(s)

	filteredData := make(map[string]any, len(r.cols))
	for _, col := range r.cols {
		if val, ok := data[col]; ok {
			filteredData[col] = val
		}
	}

	q := r.Builder().
		Insert(snapshotsTable).
		SetMap(filteredData)

	sql, args, err := q.ToSql()
	if err != nil {
		return fmt.Errorf("build insert: %w", err)
	}

	querier := r.txManager.GetQuerier(ctx)
	if _, err = querier.Exec(ctx, sql, args...); err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return apperror.NewSnapshotImmutable(s.PeriodID.String()).WithCause(err)
		}
		return fmt.Errorf("insert snapshot: %w", err)
	}

	return nil
}

func (r *SnapshotRepo) GetByID(ctx context.Context, tenantID, snapshotID id.ID) (*snapshot.Snapshot, error) {
	q := r.baseSelect().
		Where(squirrel.Eq{"tenant_id": tenantID}).
		Where(squirrel.Eq{"id": snapshotID}).
		Limit(1)
	return r.getOne(ctx, q, snapshotID.String())
}

func (r *SnapshotRepo) GetByPeriod(ctx context.Context, tenantID, periodID id.ID) (*snapshot.Snapshot, error) {
	q := r.baseSelect().
		Where(squirrel.Eq{"tenant_id": tenantID}).
		Where(squirrel.Eq{"period_id": periodID}).
		Limit(1)
	return r.getOne(ctx, q, periodID.String())
}

func (r *SnapshotRepo) getOne(ctx context.Context, q squirrel.SelectBuilder, notFoundKey string) (*snapshot.Snapshot, error) {
	sql, args, err := q.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	s := new(snapshot.Snapshot)
	querier := r.txManager.GetQuerier(ctx)
	if err := pgxscan.Get(ctx, querier, s, sql, args...); err != nil {
		if pgxscan.NotFound(err) {
			return nil, apperror.NewNotFound(snapshotsTable, notFoundKey)
		}
		return nil, fmt.Errorf("get snapshot: %w", err)
	}

	return s, nil
}

func (r *SnapshotRepo) ExistsForPeriod(ctx context.Context, tenantID, periodID id.ID) (bool, error) {
	q := r.Builder().
		Select("1").
		From(snapshotsTable).
		Where(squirrel.Eq{"tenant_id": tenantID}).
		Where(squirrel.Eq{"period_id": periodID}).
		Limit(1)

	sql, args, err := q.ToSql()
	if err != nil {
		return false, fmt.Errorf("build query: %w", err)
	}

	querier := r.txManager.GetQuerier(ctx)
	var one int
	err = querier.QueryRow(ctx, sql, args...).Scan(&one)
	if errors.Is(err, pgx.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("exists for period: %w", err)
	}
	return true, nil
}

// TrialBalance aggregates posted journal lines per account for entry
// dates in [from, to).
func (r *SnapshotRepo) TrialBalance(ctx context.Context, tenantID id.ID, from, to time.Time) ([]snapshot.TrialBalanceRow, error) {
	sql := `
		SELECT
			a.id AS account_id,
			a.code AS account_code,
			a.name AS account_name,
			a.account_type,
			COALESCE(SUM(l.debit), 0) AS debit,
			COALESCE(SUM(l.credit), 0) AS credit,
			COALESCE(SUM(l.debit), 0) - COALESCE(SUM(l.credit), 0) AS balance
		FROM journal_lines l
		JOIN journal_entries e ON e.id = l.entry_id
		JOIN accounts a ON a.id = l.account_id
		WHERE e.tenant_id = $1
		  AND e.status IN ('POSTED', 'REVERSED')
		  AND e.entry_date >= $2
		  AND e.entry_date < $3
		GROUP BY a.id, a.code, a.name, a.account_type
		ORDER BY a.code
	`

	var rows []snapshot.TrialBalanceRow
	querier := r.txManager.GetQuerier(ctx)
	if err := pgxscan.Select(ctx, querier, &rows, sql, tenantID, from, to); err != nil {
		return nil, fmt.Errorf("trial balance: %w", err)
	}
	return rows, nil
}

// OpenItems aggregates outstanding per-party balances on asset and
// liability accounts for entry dates in [from, to). Fully settled
// parties (zero balance) drop out via HAVING.
func (r *SnapshotRepo) OpenItems(ctx context.Context, tenantID id.ID, from, to time.Time) ([]snapshot.OpenItem, error) {
	sql := `
		SELECT
			l.party_ref,
			a.code AS account_code,
			a.name AS account_name,
			a.account_type,
			CASE WHEN a.account_type = 'ASSET'
				THEN COALESCE(SUM(l.debit), 0) - COALESCE(SUM(l.credit), 0)
				ELSE COALESCE(SUM(l.credit), 0) - COALESCE(SUM(l.debit), 0)
			END AS amount
		FROM journal_lines l
		JOIN journal_entries e ON e.id = l.entry_id
		JOIN accounts a ON a.id = l.account_id
		WHERE e.tenant_id = $1
		  AND e.status IN ('POSTED', 'REVERSED')
		  AND e.entry_date >= $2
		  AND e.entry_date < $3
		  AND l.party_ref <> ''
		  AND a.account_type IN ('ASSET', 'LIABILITY')
		GROUP BY l.party_ref, a.code, a.name, a.account_type
		HAVING COALESCE(SUM(l.debit), 0) <> COALESCE(SUM(l.credit), 0)
		ORDER BY a.code, l.party_ref
	`

	var items []snapshot.OpenItem
	querier := r.txManager.GetQuerier(ctx)
	if err := pgxscan.Select(ctx, querier, &items, sql, tenantID, from, to); err != nil {
		return nil, fmt.Errorf("open items: %w", err)
	}
	return items, nil
}

// VatPosition sums VAT over the period's lineage, split by box role.
// DEDUCTIBLE rows are receivable, everything else payable; a
// reverse-charge line contributes to both sides and nets to zero.
func (r *SnapshotRepo) VatPosition(ctx context.Context, tenantID, periodID id.ID) (types.Money, types.Money, error) {
	sql := `
		SELECT
			COALESCE(SUM(vat_amount) FILTER (WHERE box_role <> 'DEDUCTIBLE'), 0) AS payable,
			COALESCE(SUM(vat_amount) FILTER (WHERE box_role = 'DEDUCTIBLE'), 0) AS receivable
		FROM vat_box_lineage
		WHERE tenant_id = $1 AND period_id = $2
	`

	var payable, receivable types.Money
	querier := r.txManager.GetQuerier(ctx)
	if err := querier.QueryRow(ctx, sql, tenantID, periodID).Scan(&payable, &receivable); err != nil {
		return types.Zero(), types.Zero(), fmt.Errorf("vat position: %w", err)
	}
	return payable, receivable, nil
}
