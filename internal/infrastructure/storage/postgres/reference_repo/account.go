package reference_repo

import (
	"context"
	"errors"
	"fmt"

	"github.com/Masterminds/squirrel"
	"github.com/georgysavva/scany/v2/pgxscan"
	"github.com/jackc/pgx/v5"

	"grootboek/internal/core/id"
	"grootboek/internal/domain"
	"grootboek/internal/domain/reference/account"
	"grootboek/internal/infrastructure/storage/postgres"
)

const accountsTable = "accounts"

// AccountRepo implements account.Repository.
type AccountRepo struct {
	baseRepo[account.Account]
}

var _ account.Repository = (*AccountRepo)(nil)

// NewAccountRepo creates a new account repository.
func NewAccountRepo(txManager *postgres.TxManager) *AccountRepo {
	return &AccountRepo{
		baseRepo: newBaseRepo[account.Account](txManager, accountsTable),
	}
}

func (r *AccountRepo) Create(ctx context.Context, acc *account.Account) error {
	return r.insert(ctx, acc)
}

func (r *AccountRepo) Update(ctx context.Context, acc *account.Account) error {
	return r.update(ctx, acc)
}

func (r *AccountRepo) GetByID(ctx context.Context, tenantID, accountID id.ID) (*account.Account, error) {
	q := r.baseSelect().
		Where(squirrel.Eq{"tenant_id": tenantID}).
		Where(squirrel.Eq{"id": accountID}).
		Limit(1)
	return r.getOne(ctx, q, accountID.String())
}

func (r *AccountRepo) GetByIDs(ctx context.Context, tenantID id.ID, accountIDs []id.ID) (map[id.ID]*account.Account, error) {
	result := make(map[id.ID]*account.Account, len(accountIDs))
	if len(accountIDs) == 0 {
		return result, nil
	}

	q := r.baseSelect().
		Where(squirrel.Eq{"tenant_id": tenantID}).
		Where(squirrel.Eq{"id": accountIDs})

	sql, args, err := q.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	var accounts []*account.Account
	querier := r.txManager.GetQuerier(ctx)
	if err := pgxscan.Select(ctx, querier, &accounts, sql, args...); err != nil {
		return nil, fmt.Errorf("get accounts by ids: %w", err)
	}

	for _, acc := range accounts {
		result[acc.ID] = acc
	}
	return result, nil
}

func (r *AccountRepo) GetByCode(ctx context.Context, tenantID id.ID, code string) (*account.Account, error) {
	q := r.baseSelect().
		Where(squirrel.Eq{"tenant_id": tenantID}).
		Where(squirrel.Eq{"code": code}).
		Limit(1)
	return r.getOne(ctx, q, code)
}

func (r *AccountRepo) List(ctx context.Context, tenantID id.ID, filter domain.ListFilter) (domain.ListResult[*account.Account], error) {
	result := domain.ListResult[*account.Account]{
		Limit:  filter.Limit,
		Offset: filter.Offset,
	}

	q := r.baseSelect().
		Where(squirrel.Eq{"tenant_id": tenantID})

	if filter.Search != "" {
		pattern := "%" + filter.Search + "%"
		q = q.Where(squirrel.Or{
			squirrel.ILike{"name": pattern},
			squirrel.ILike{"code": pattern},
		})
	}

	total, err := r.count(ctx, q)
	if err != nil {
		return result, err
	}
	result.TotalCount = total

	orderBy, err := r.parseOrderBy(filter.OrderBy, "code ASC")
	if err != nil {
		return result, err
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

	querier := r.txManager.GetQuerier(ctx)
	if err := pgxscan.Select(ctx, querier, &result.Items, sql, args...); err != nil {
		return result, fmt.Errorf("list accounts: %w", err)
	}

	return result, nil
}

// IsReferenced reports whether any journal line points at the account.
func (r *AccountRepo) IsReferenced(ctx context.Context, tenantID, accountID id.ID) (bool, error) {
	sql := `
		SELECT 1
		FROM journal_lines l
		JOIN journal_entries e ON e.id = l.entry_id
		WHERE e.tenant_id = $1 AND l.account_id = $2
		LIMIT 1
	`

	querier := r.txManager.GetQuerier(ctx)
	var one int
	err := querier.QueryRow(ctx, sql, tenantID, accountID).Scan(&one)
	if errors.Is(err, pgx.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("is referenced: %w", err)
	}
	return true, nil
}

func (r *AccountRepo) ExistsByCode(ctx context.Context, tenantID id.ID, code string) (bool, error) {
	return r.exists(ctx,
		squirrel.Eq{"tenant_id": tenantID},
		squirrel.Eq{"code": code},
	)
}
