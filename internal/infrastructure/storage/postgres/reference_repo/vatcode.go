package reference_repo

import (
	"context"
	"fmt"

	"github.com/Masterminds/squirrel"
	"github.com/georgysavva/scany/v2/pgxscan"

	"grootboek/internal/core/id"
	"grootboek/internal/domain"
	"grootboek/internal/domain/reference/vatcode"
	"grootboek/internal/infrastructure/storage/postgres"
)

const vatCodesTable = "vat_codes"

// VatCodeRepo implements vatcode.Repository.
// The VAT code catalog is platform-wide, so queries carry no tenant filter.
type VatCodeRepo struct {
	baseRepo[vatcode.VatCode]
}

var _ vatcode.Repository = (*VatCodeRepo)(nil)

// NewVatCodeRepo creates a new VAT code repository.
func NewVatCodeRepo(txManager *postgres.TxManager) *VatCodeRepo {
	return &VatCodeRepo{
		baseRepo: newBaseRepo[vatcode.VatCode](txManager, vatCodesTable),
	}
}

func (r *VatCodeRepo) Create(ctx context.Context, code *vatcode.VatCode) error {
	return r.insert(ctx, code)
}

func (r *VatCodeRepo) Update(ctx context.Context, code *vatcode.VatCode) error {
	return r.update(ctx, code)
}

func (r *VatCodeRepo) GetByID(ctx context.Context, codeID id.ID) (*vatcode.VatCode, error) {
	q := r.baseSelect().
		Where(squirrel.Eq{"id": codeID}).
		Limit(1)
	return r.getOne(ctx, q, codeID.String())
}

func (r *VatCodeRepo) GetByIDs(ctx context.Context, codeIDs []id.ID) (map[id.ID]*vatcode.VatCode, error) {
	result := make(map[id.ID]*vatcode.VatCode, len(codeIDs))
	if len(codeIDs) == 0 {
		return result, nil
	}

	q := r.baseSelect().
		Where(squirrel.Eq{"id": codeIDs})

	sql, args, err := q.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	var codes []*vatcode.VatCode
	querier := r.txManager.GetQuerier(ctx)
	if err := pgxscan.Select(ctx, querier, &codes, sql, args...); err != nil {
		return nil, fmt.Errorf("get vat codes by ids: %w", err)
	}

	for _, code := range codes {
		result[code.ID] = code
	}
	return result, nil
}

func (r *VatCodeRepo) GetByCode(ctx context.Context, code string) (*vatcode.VatCode, error) {
	q := r.baseSelect().
		Where(squirrel.Eq{"code": code}).
		Limit(1)
	return r.getOne(ctx, q, code)
}

func (r *VatCodeRepo) List(ctx context.Context, filter domain.ListFilter) (domain.ListResult[*vatcode.VatCode], error) {
	result := domain.ListResult[*vatcode.VatCode]{
		Limit:  filter.Limit,
		Offset: filter.Offset,
	}

	q := r.baseSelect()

	if filter.Search != "" {
		pattern := "%" + filter.Search + "%"
		q = q.Where(squirrel.Or{
			squirrel.ILike{"code": pattern},
			squirrel.ILike{"description": pattern},
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
		return result, fmt.Errorf("list vat codes: %w", err)
	}

	return result, nil
}

func (r *VatCodeRepo) ExistsByCode(ctx context.Context, code string) (bool, error) {
	return r.exists(ctx, squirrel.Eq{"code": code})
}
