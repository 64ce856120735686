// Package journal_repo provides the PostgreSQL implementation of the
// journal entry repository.
package journal_repo

import (
	"context"
	"fmt"
	"time"

	"github.com/Masterminds/squirrel"
	"github.com/georgysavva/scany/v2/pgxscan"

	"grootboek/internal/core/apperror"
	"grootboek/internal/core/id"
	"grootboek/internal/domain"
	"grootboek/internal/domain/journal"
	"grootboek/internal/infrastructure/storage/postgres"
)

const (
	entriesTable = "journal_entries"
	linesTable   = "journal_lines"
)

// JournalRepo implements journal.Repository.
type JournalRepo struct {
	txManager *postgres.TxManager
	entryCols []string
	lineCols  []string
}

var _ journal.Repository = (*JournalRepo)(nil)

// NewJournalRepo creates a new journal repository.
func NewJournalRepo(txManager *postgres.TxManager) *JournalRepo {
	return &JournalRepo{
		txManager: txManager,
		entryCols: postgres.ExtractDBColumns[journal.Entry](),
		lineCols:  postgres.ExtractDBColumns[journal.Line](),
	}
}

// Builder returns a new squirrel builder with PostgreSQL placeholder format.
func (r *JournalRepo) Builder() squirrel.StatementBuilderType {
	return squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar)
}

func (r *JournalRepo) baseSelect() squirrel.SelectBuilder {
	return r.Builder().
		Select(r.entryCols...).
		From(entriesTable)
}

// Create inserts a draft entry together with its lines.
func (r *JournalRepo) Create(ctx context.Context, entry *journal.Entry) error {
	data := postgres.StructToMap(entry)

	filteredData := make(map[string]any, len(r.entryCols))
	for _, col := range r.entryCols {
		if val, ok := data[col]; ok {
			filteredData[col] = val
		}
	}

	q := r.Builder().
		Insert(entriesTable).
		SetMap(filteredData)

	sql, args, err := q.ToSql()
	if err != nil {
		return fmt.Errorf("build insert: %w", err)
	}

	querier := r.txManager.GetQuerier(ctx)
	if _, err = querier.Exec(ctx, sql, args...); err != nil {
		return fmt.Errorf("insert entry: %w", err)
	}

	return r.insertLines(ctx, entry.Lines)
}

func (r *JournalRepo) insertLines(ctx context.Context, lines []journal.Line) error {
	if len(lines) == 0 {
		return nil
	}

	q := r.Builder().
		Insert(linesTable).
		Columns(r.lineCols...)

	for _, line := range lines {
		data := postgres.StructToMap(line)
		values := make([]any, len(r.lineCols))
		for i, col := range r.lineCols {
			values[i] = data[col]
		}
		q = q.Values(values...)
	}

	sql, args, err := q.ToSql()
	if err != nil {
		return fmt.Errorf("build insert lines: %w", err)
	}

	querier := r.txManager.GetQuerier(ctx)
	if _, err = querier.Exec(ctx, sql, args...); err != nil {
		return fmt.Errorf("insert lines: %w", err)
	}

	return nil
}

// SaveLines replaces the entry's lines (delete existing + insert new).
func (r *JournalRepo) SaveLines(ctx context.Context, entryID id.ID, lines []journal.Line) error {
	delQ := r.Builder().
		Delete(linesTable).
		Where(squirrel.Eq{"entry_id": entryID})

	sql, args, err := delQ.ToSql()
	if err != nil {
		return fmt.Errorf("build delete lines: %w", err)
	}

	querier := r.txManager.GetQuerier(ctx)
	if _, err = querier.Exec(ctx, sql, args...); err != nil {
		return fmt.Errorf("delete lines: %w", err)
	}

	return r.insertLines(ctx, lines)
}

func (r *JournalRepo) GetByID(ctx context.Context, tenantID, entryID id.ID) (*journal.Entry, error) {
	q := r.baseSelect().
		Where(squirrel.Eq{"tenant_id": tenantID}).
		Where(squirrel.Eq{"id": entryID}).
		Limit(1)
	return r.getEntry(ctx, q, entryID.String())
}

// GetForUpdate loads the entry (with lines) under a row lock.
func (r *JournalRepo) GetForUpdate(ctx context.Context, tenantID, entryID id.ID) (*journal.Entry, error) {
	q := r.baseSelect().
		Where(squirrel.Eq{"tenant_id": tenantID}).
		Where(squirrel.Eq{"id": entryID}).
		Suffix("FOR UPDATE")
	return r.getEntry(ctx, q, entryID.String())
}

func (r *JournalRepo) GetByNumber(ctx context.Context, tenantID id.ID, number string) (*journal.Entry, error) {
	q := r.baseSelect().
		Where(squirrel.Eq{"tenant_id": tenantID}).
		Where(squirrel.Eq{"number": number}).
		Limit(1)
	return r.getEntry(ctx, q, number)
}

func (r *JournalRepo) getEntry(ctx context.Context, q squirrel.SelectBuilder, notFoundKey string) (*journal.Entry, error) {
	sql, args, err := q.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	entry := new(journal.Entry)
	querier := r.txManager.GetQuerier(ctx)
	if err := pgxscan.Get(ctx, querier, entry, sql, args...); err != nil {
		if pgxscan.NotFound(err) {
			return nil, apperror.NewNotFound(entriesTable, notFoundKey)
		}
		return nil, fmt.Errorf("get entry: %w", err)
	}

	if err := r.loadLines(ctx, entry); err != nil {
		return nil, err
	}
	return entry, nil
}

func (r *JournalRepo) loadLines(ctx context.Context, entry *journal.Entry) error {
	q := r.Builder().
		Select(r.lineCols...).
		From(linesTable).
		Where(squirrel.Eq{"entry_id": entry.ID}).
		OrderBy("line_no ASC")

	sql, args, err := q.ToSql()
	if err != nil {
		return fmt.Errorf("build lines query: %w", err)
	}

	querier := r.txManager.GetQuerier(ctx)
	if err := pgxscan.Select(ctx, querier, &entry.Lines, sql, args...); err != nil {
		return fmt.Errorf("load lines: %w", err)
	}
	return nil
}

// Update persists entry fields with optimistic locking.
func (r *JournalRepo) Update(ctx context.Context, entry *journal.Entry) error {
	data := postgres.StructToMap(entry)

	filteredData := make(map[string]any, len(r.entryCols))
	for _, col := range r.entryCols {
		if col == "id" || col == "version" {
			continue
		}
		if val, ok := data[col]; ok {
			filteredData[col] = val
		}
	}

	q := r.Builder().
		Update(entriesTable).
		SetMap(filteredData).
		Set("version", squirrel.Expr("version + 1")).
		Where(squirrel.Eq{"id": entry.ID}).
		Where(squirrel.Eq{"version": entry.Version})

	sql, args, err := q.ToSql()
	if err != nil {
		return fmt.Errorf("build update: %w", err)
	}

	querier := r.txManager.GetQuerier(ctx)
	result, err := querier.Exec(ctx, sql, args...)
	if err != nil {
		return fmt.Errorf("update entry: %w", err)
	}

	if result.RowsAffected() == 0 {
		return apperror.NewConcurrentModification(entriesTable, entry.ID)
	}

	return nil
}

func (r *JournalRepo) List(ctx context.Context, tenantID id.ID, filter journal.ListFilter) (domain.ListResult[*journal.Entry], error) {
	result := domain.ListResult[*journal.Entry]{
		Limit:  filter.Limit,
		Offset: filter.Offset,
	}

	q := r.baseSelect().
		Where(squirrel.Eq{"tenant_id": tenantID})

	if filter.Status != nil {
		q = q.Where(squirrel.Eq{"status": *filter.Status})
	}
	if filter.PeriodID != nil {
		q = q.Where(squirrel.Eq{"period_id": *filter.PeriodID})
	}
	if filter.AccountID != nil {
		q = q.Where(squirrel.Expr(
			"id IN (SELECT entry_id FROM journal_lines WHERE account_id = ?)",
			*filter.AccountID,
		))
	}
	if filter.DateFrom != nil {
		q = q.Where(squirrel.GtOrEq{"entry_date": *filter.DateFrom})
	}
	if filter.DateTo != nil {
		q = q.Where(squirrel.Lt{"entry_date": *filter.DateTo})
	}
	if filter.DocumentRef != "" {
		q = q.Where(squirrel.Eq{"document_ref": filter.DocumentRef})
	}
	if filter.Search != "" {
		pattern := "%" + filter.Search + "%"
		q = q.Where(squirrel.Or{
			squirrel.ILike{"number": pattern},
			squirrel.ILike{"description": pattern},
			squirrel.ILike{"document_ref": pattern},
		})
	}

	// Count total (before pagination)
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

	orderBy := "entry_date DESC, number DESC"
	if filter.OrderBy != "" {
		parsed, err := parseOrderBy(filter.OrderBy, r.entryCols)
		if err != nil {
			return result, err
		}
		orderBy = parsed
	}
	q = q.OrderBy(orderBy)

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
		return result, fmt.Errorf("list entries: %w", err)
	}

	// Listings skip the lines; callers fetch a single entry for detail views.
	return result, nil
}

// ListDraftEntryIDs returns ids of DRAFT entries dated in [from, to).
func (r *JournalRepo) ListDraftEntryIDs(ctx context.Context, tenantID id.ID, from, to time.Time) ([]id.ID, error) {
	q := r.Builder().
		Select("id").
		From(entriesTable).
		Where(squirrel.Eq{"tenant_id": tenantID}).
		Where(squirrel.Eq{"status": journal.StatusDraft}).
		Where(squirrel.GtOrEq{"entry_date": from}).
		Where(squirrel.Lt{"entry_date": to}).
		OrderBy("entry_date ASC, created_at ASC")

	sql, args, err := q.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	var ids []id.ID
	querier := r.txManager.GetQuerier(ctx)
	if err := pgxscan.Select(ctx, querier, &ids, sql, args...); err != nil {
		return nil, fmt.Errorf("list draft entry ids: %w", err)
	}
	return ids, nil
}

// parseOrderBy validates the order expression against a column whitelist.
func parseOrderBy(orderBy string, allowedCols []string) (string, error) {
	allowed := make(map[string]struct{}, len(allowedCols))
	for _, col := range allowedCols {
		allowed[col] = struct{}{}
	}

	direction := "ASC"
	field := orderBy
	if len(orderBy) > 0 && orderBy[0] == '-' {
		direction = "DESC"
		field = orderBy[1:]
	} else if len(orderBy) > 0 && orderBy[0] == '+' {
		field = orderBy[1:]
	}

	if _, ok := allowed[field]; !ok {
		return "", apperror.NewValidation("invalid orderBy").WithDetail("orderBy", orderBy)
	}

	return field + " " + direction, nil
}
