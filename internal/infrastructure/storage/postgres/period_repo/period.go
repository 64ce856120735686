// Package period_repo provides the PostgreSQL implementation of the
// accounting period repository.
package period_repo

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
	"grootboek/internal/domain"
	"grootboek/internal/domain/period"
	"grootboek/internal/infrastructure/storage/postgres"
)

const (
	periodsTable  = "accounting_periods"
	auditLogTable = "period_audit_log"
)

// PeriodRepo implements period.Repository.
type PeriodRepo struct {
	txManager  *postgres.TxManager
	periodCols []string
	auditCols  []string
}

var _ period.Repository = (*PeriodRepo)(nil)

// NewPeriodRepo creates a new period repository.
func NewPeriodRepo(txManager *postgres.TxManager) *PeriodRepo {
	return &PeriodRepo{
		txManager:  txManager,
		periodCols: postgres.ExtractDBColumns[period.Period](),
		auditCols:  postgres.ExtractDBColumns[period.AuditRow](),
	}
}

// Builder returns a new squirrel builder with PostgreSQL placeholder format.
func (r *PeriodRepo) Builder() squirrel.StatementBuilderType {
	return squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar)
}

func (r *PeriodRepo) baseSelect() squirrel.SelectBuilder {
	return r.Builder().
		Select(r.periodCols...).
		From(periodsTable)
}

func (r *PeriodRepo) Create(ctx context.Context, p *period.Period) error {
	data := postgres.StructToMap(p)

	filteredData := make(map[string]any, len(r.periodCols))
	for _, col := range r.periodCols {
		if val, ok := data[col]; ok {
			filteredData[col] = val
		}
	}

	q := r.Builder().
		Insert(periodsTable).
		SetMap(filteredData)

	sql, args, err := q.ToSql()
	if err != nil {
		return fmt.Errorf("build insert: %w", err)
	}

	querier := r.txManager.GetQuerier(ctx)
	if _, err = querier.Exec(ctx, sql, args...); err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23P01" {
			return apperror.NewConflict("period overlaps an existing period").WithCause(err)
		}
		return fmt.Errorf("insert period: %w", err)
	}

	return nil
}

func (r *PeriodRepo) GetByID(ctx context.Context, tenantID, periodID id.ID) (*period.Period, error) {
	q := r.baseSelect().
		Where(squirrel.Eq{"tenant_id": tenantID}).
		Where(squirrel.Eq{"id": periodID}).
		Limit(1)
	return r.getOne(ctx, q, periodID.String())
}

// GetForUpdate loads the period with a row lock.
func (r *PeriodRepo) GetForUpdate(ctx context.Context, tenantID, periodID id.ID) (*period.Period, error) {
	q := r.baseSelect().
		Where(squirrel.Eq{"tenant_id": tenantID}).
		Where(squirrel.Eq{"id": periodID}).
		Suffix("FOR UPDATE")
	return r.getOne(ctx, q, periodID.String())
}

// FindByDate resolves the period containing date ([start, end)).
func (r *PeriodRepo) FindByDate(ctx context.Context, tenantID id.ID, date time.Time) (*period.Period, error) {
	q := r.baseSelect().
		Where(squirrel.Eq{"tenant_id": tenantID}).
		Where(squirrel.LtOrEq{"start_date": date}).
		Where(squirrel.Gt{"end_date": date}).
		Limit(1)
	return r.getOne(ctx, q, date.Format("2006-01-02"))
}

// FindByDateForUpdate resolves and locks the period containing date.
func (r *PeriodRepo) FindByDateForUpdate(ctx context.Context, tenantID id.ID, date time.Time) (*period.Period, error) {
	q := r.baseSelect().
		Where(squirrel.Eq{"tenant_id": tenantID}).
		Where(squirrel.LtOrEq{"start_date": date}).
		Where(squirrel.Gt{"end_date": date}).
		Suffix("FOR UPDATE")
	return r.getOne(ctx, q, date.Format("2006-01-02"))
}

func (r *PeriodRepo) getOne(ctx context.Context, q squirrel.SelectBuilder, notFoundKey string) (*period.Period, error) {
	sql, args, err := q.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	p := new(period.Period)
	querier := r.txManager.GetQuerier(ctx)
	if err := pgxscan.Get(ctx, querier, p, sql, args...); err != nil {
		if pgxscan.NotFound(err) {
			return nil, apperror.NewNotFound(periodsTable, notFoundKey)
		}
		return nil, fmt.Errorf("get period: %w", err)
	}

	return p, nil
}

// Update persists status and transition stamps with optimistic locking.
func (r *PeriodRepo) Update(ctx context.Context, p *period.Period) error {
	data := postgres.StructToMap(p)

	filteredData := make(map[string]any, len(r.periodCols))
	for _, col := range r.periodCols {
		if col == "id" || col == "version" {
			continue
		}
		if val, ok := data[col]; ok {
			filteredData[col] = val
		}
	}

	q := r.Builder().
		Update(periodsTable).
		SetMap(filteredData).
		Set("version", squirrel.Expr("version + 1")).
		Where(squirrel.Eq{"id": p.ID}).
		Where(squirrel.Eq{"version": p.Version})

	sql, args, err := q.ToSql()
	if err != nil {
		return fmt.Errorf("build update: %w", err)
	}

	querier := r.txManager.GetQuerier(ctx)
	result, err := querier.Exec(ctx, sql, args...)
	if err != nil {
		return fmt.Errorf("update period: %w", err)
	}

	if result.RowsAffected() == 0 {
		return apperror.NewConcurrentModification(periodsTable, p.ID)
	}

	return nil
}

func (r *PeriodRepo) List(ctx context.Context, tenantID id.ID, filter domain.ListFilter) (domain.ListResult[*period.Period], error) {
	result := domain.ListResult[*period.Period]{
		Limit:  filter.Limit,
		Offset: filter.Offset,
	}

	q := r.baseSelect().
		Where(squirrel.Eq{"tenant_id": tenantID})

	if filter.Search != "" {
		q = q.Where(squirrel.ILike{"name": "%" + filter.Search + "%"})
	}

	countQ := r.Builder().
		Select("COUNT(*)").
		FromSelect(q, "sub")

	countSQL, countArgs, err := countQ.ToSql()
	if err != nil {
		return result, fmt.Errorf("build count query: %w", err)
	}

	querier := r.txManager.GetQuerier(ctx)
	if err := querier.QueryRow(ctx, countSQL, countArgs...).Scan(&result.TotalCount); err != nil {
		return result, fmt.Errorf("count: %w", err)
	}

	q = q.OrderBy("start_date DESC")

	if filter.Limit > 0 {
		q = q.Limit(uint64(filter.Limit))
	}
	if filter.Offset > 0 {
		q = q.Offset(uint64(filter.Offset))
	}

	sql, args, err := q.ToSql()
	if err != nil {
		return result, fmt.Errorf("build query: %w", err)
	}

	if err := pgxscan.Select(ctx, querier, &result.Items, sql, args...); err != nil {
		return result, fmt.Errorf("list periods: %w", err)
	}

	return result, nil
}

// ExistsOverlapping reports whether any period of the tenant overlaps [start, end).
func (r *PeriodRepo) ExistsOverlapping(ctx context.Context, tenantID id.ID, start, end time.Time) (bool, error) {
	q := r.Builder().
		Select("1").
		From(periodsTable).
		Where(squirrel.Eq{"tenant_id": tenantID}).
		Where(squirrel.Lt{"start_date": end}).
		Where(squirrel.Gt{"end_date": start}).
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
		return false, fmt.Errorf("exists overlapping: %w", err)
	}
	return true, nil
}

// AppendAuditRow writes one append-only transition record.
func (r *PeriodRepo) AppendAuditRow(ctx context.Context, row period.AuditRow) error {
	data := postgres.StructToMap(row)

	filteredData := make(map[string]any, len(r.auditCols))
	for _, col := range r.auditCols {
		if val, ok := data[col]; ok {
			filteredData[col] = val
		}
	}

	q := r.Builder().
		Insert(auditLogTable).
		SetMap(filteredData)

	sql, args, err := q.ToSql()
	if err != nil {
		return fmt.Errorf("build insert: %w", err)
	}

	querier := r.txManager.GetQuerier(ctx)
	if _, err = querier.Exec(ctx, sql, args...); err != nil {
		return fmt.Errorf("insert audit row: %w", err)
	}

	return nil
}

func (r *PeriodRepo) ListAuditRows(ctx context.Context, tenantID, periodID id.ID) ([]period.AuditRow, error) {
	q := r.Builder().
		Select(r.auditCols...).
		From(auditLogTable).
		Where(squirrel.Eq{"tenant_id": tenantID}).
		Where(squirrel.Eq{"period_id": periodID}).
		OrderBy("created_at ASC")

	sql, args, err := q.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	var rows []period.AuditRow
	querier := r.txManager.GetQuerier(ctx)
	if err := pgxscan.Select(ctx, querier, &rows, sql, args...); err != nil {
		return nil, fmt.Errorf("list audit rows: %w", err)
	}
	return rows, nil
}
