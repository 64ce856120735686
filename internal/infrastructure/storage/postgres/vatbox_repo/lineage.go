// Package vatbox_repo provides the PostgreSQL implementation of the
// VAT box lineage repository.
package vatbox_repo

import (
	"context"
	"fmt"

	"github.com/Masterminds/squirrel"
	"github.com/georgysavva/scany/v2/pgxscan"

	"grootboek/internal/core/id"
	"grootboek/internal/domain"
	"grootboek/internal/domain/vatbox"
	"grootboek/internal/infrastructure/storage/postgres"
)

const lineageTable = "vat_box_lineage"

// LineageRepo implements vatbox.Repository.
type LineageRepo struct {
	txManager *postgres.TxManager
	inserter  *postgres.BatchInserter
	rowCols   []string
}

var _ vatbox.Repository = (*LineageRepo)(nil)

// NewLineageRepo creates a new lineage repository.
func NewLineageRepo(txManager *postgres.TxManager) *LineageRepo {
	return &LineageRepo{
		txManager: txManager,
		inserter:  postgres.NewBatchInserter(txManager),
		rowCols:   postgres.ExtractDBColumns[vatbox.LineageRow](),
	}
}

// Builder returns a new squirrel builder with PostgreSQL placeholder format.
func (r *LineageRepo) Builder() squirrel.StatementBuilderType {
	return squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar)
}

// ListSources returns every posted line in the period that carries a
// VAT code, with entry context joined in. Reversal entries are included:
// their lines carry swapped sides and cancel the originals out.
func (r *LineageRepo) ListSources(ctx context.Context, tenantID, periodID id.ID) ([]vatbox.SourceLine, error) {
	sql := `
		SELECT
			e.id AS entry_id,
			e.number AS entry_number,
			e.entry_date,
			e.source_type,
			e.document_ref,
			l.id AS line_id,
			l.account_id,
			l.debit,
			l.credit,
			l.vat_code_id,
			l.vat_amount,
			l.vat_base_amount,
			l.party_ref
		FROM journal_lines l
		JOIN journal_entries e ON e.id = l.entry_id
		WHERE e.tenant_id = $1
		  AND e.period_id = $2
		  AND e.status IN ('POSTED', 'REVERSED')
		  AND l.vat_code_id IS NOT NULL
		ORDER BY e.entry_date, e.number, l.line_no
	`

	var sources []vatbox.SourceLine
	querier := r.txManager.GetQuerier(ctx)
	if err := pgxscan.Select(ctx, querier, &sources, sql, tenantID, periodID); err != nil {
		return nil, fmt.Errorf("list lineage sources: %w", err)
	}
	return sources, nil
}

// Replace deletes all lineage rows of (tenant, period) and inserts the
// fresh set via COPY. Requires an active transaction so readers never
// observe a partial set.
func (r *LineageRepo) Replace(ctx context.Context, tenantID, periodID id.ID, rows []vatbox.LineageRow) error {
	delQ := r.Builder().
		Delete(lineageTable).
		Where(squirrel.Eq{"tenant_id": tenantID}).
		Where(squirrel.Eq{"period_id": periodID})

	sql, args, err := delQ.ToSql()
	if err != nil {
		return fmt.Errorf("build delete: %w", err)
	}

	querier := r.txManager.GetQuerier(ctx)
	if _, err = querier.Exec(ctx, sql, args...); err != nil {
		return fmt.Errorf("delete lineage: %w", err)
	}

	if len(rows) == 0 {
		return nil
	}

	copyRows := make([][]any, 0, len(rows))
	for _, row := range rows {
		data := postgres.StructToMap(row)
		values := make([]any, len(r.rowCols))
		for i, col := range r.rowCols {
			values[i] = data[col]
		}
		copyRows = append(copyRows, values)
	}

	if _, err := r.inserter.CopyFromSlice(ctx, lineageTable, r.rowCols, copyRows); err != nil {
		return fmt.Errorf("copy lineage rows: %w", err)
	}

	return nil
}

// Totals aggregates net/vat/line count per box for a period.
func (r *LineageRepo) Totals(ctx context.Context, tenantID, periodID id.ID) (map[string]vatbox.BoxTotal, error) {
	sql := `
		SELECT
			box_code,
			COALESCE(SUM(net_amount), 0) AS net,
			COALESCE(SUM(vat_amount), 0) AS vat,
			COUNT(*) AS line_count
		FROM vat_box_lineage
		WHERE tenant_id = $1 AND period_id = $2
		GROUP BY box_code
	`

	type boxRow struct {
		BoxCode string `db:"box_code"`
		vatbox.BoxTotal
	}

	var rows []boxRow
	querier := r.txManager.GetQuerier(ctx)
	if err := pgxscan.Select(ctx, querier, &rows, sql, tenantID, periodID); err != nil {
		return nil, fmt.Errorf("box totals: %w", err)
	}

	totals := make(map[string]vatbox.BoxTotal, len(rows))
	for _, row := range rows {
		totals[row.BoxCode] = row.BoxTotal
	}
	return totals, nil
}

// Lines pages through one box's lineage rows.
func (r *LineageRepo) Lines(ctx context.Context, tenantID, periodID id.ID, boxCode string, filter vatbox.LineFilter) (domain.ListResult[vatbox.LineageRow], error) {
	result := domain.ListResult[vatbox.LineageRow]{
		Limit:  filter.Limit,
		Offset: filter.Offset,
	}

	q := r.Builder().
		Select(r.rowCols...).
		From(lineageTable).
		Where(squirrel.Eq{"tenant_id": tenantID}).
		Where(squirrel.Eq{"period_id": periodID}).
		Where(squirrel.Eq{"box_code": boxCode})

	if filter.PartyRef != "" {
		q = q.Where(squirrel.Eq{"party_ref": filter.PartyRef})
	}
	if filter.DocumentRef != "" {
		q = q.Where(squirrel.Eq{"document_ref": filter.DocumentRef})
	}
	if filter.EntryNumber != "" {
		q = q.Where(squirrel.Eq{"entry_number": filter.EntryNumber})
	}
	if filter.Search != "" {
		pattern := "%" + filter.Search + "%"
		q = q.Where(squirrel.Or{
			squirrel.ILike{"entry_number": pattern},
			squirrel.ILike{"document_ref": pattern},
			squirrel.ILike{"party_ref": pattern},
		})
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

	q = q.OrderBy("entry_number ASC, line_id ASC")

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
		return result, fmt.Errorf("list box lines: %w", err)
	}

	return result, nil
}
