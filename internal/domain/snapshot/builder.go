package snapshot

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"time"

	"grootboek/internal/core/apperror"
	"grootboek/internal/core/id"
	"grootboek/internal/core/tenant"
	"grootboek/internal/core/types"
	"grootboek/internal/domain/period"
	"grootboek/internal/domain/reference/account"
	"grootboek/internal/domain/vatbox"
	"grootboek/pkg/logger"
)

// BoxTotalsSource supplies the per-box VAT totals the summary freezes.
// Satisfied by the vatbox repository.
type BoxTotalsSource interface {
	Totals(ctx context.Context, tenantID, periodID id.ID) (map[string]vatbox.BoxTotal, error)
}

// Builder computes and persists period snapshots.
type Builder struct {
	repo Repository
	vat  BoxTotalsSource
}

// NewBuilder creates a snapshot builder.
func NewBuilder(repo Repository, vat BoxTotalsSource) *Builder {
	return &Builder{repo: repo, vat: vat}
}

// BuildForPeriod computes the statement set and inserts the snapshot
// inside the caller's transaction. Finalization calls this after the
// VAT lineage rebuild so the frozen figures match the lineage exactly.
func (b *Builder) BuildForPeriod(ctx context.Context, p *period.Period, actor string) (id.ID, error) {
	exists, err := b.repo.ExistsForPeriod(ctx, p.TenantID, p.ID)
	if err != nil {
		return id.Nil(), fmt.Errorf("check existing snapshot: %w", err)
	}
	if exists {
		return id.Nil(), apperror.NewSnapshotImmutable(p.ID.String())
	}

	tbRows, err := b.repo.TrialBalance(ctx, p.TenantID, p.StartDate, p.EndDate)
	if err != nil {
		return id.Nil(), fmt.Errorf("trial balance: %w", err)
	}
	openItems, err := b.repo.OpenItems(ctx, p.TenantID, p.StartDate, p.EndDate)
	if err != nil {
		return id.Nil(), fmt.Errorf("open items: %w", err)
	}
	boxTotals, err := b.vat.Totals(ctx, p.TenantID, p.ID)
	if err != nil {
		return id.Nil(), fmt.Errorf("vat box totals: %w", err)
	}
	vatPayable, vatReceivable, err := b.repo.VatPosition(ctx, p.TenantID, p.ID)
	if err != nil {
		return id.Nil(), fmt.Errorf("vat position: %w", err)
	}

	bs, pl := buildStatements(p, tbRows)
	vatSummary := buildVatSummary(boxTotals, vatPayable, vatReceivable)
	issues := buildIssues(tbRows)

	s := &Snapshot{
		ID:                 id.New(),
		TenantID:           p.TenantID,
		PeriodID:           p.ID,
		TotalAssets:        bs.TotalAssets,
		TotalLiabilities:   bs.TotalLiabilities,
		TotalEquity:        bs.TotalEquity,
		NetIncome:          pl.NetIncome,
		AccountsReceivable: sumOpenItems(openItems, string(account.TypeAsset)),
		AccountsPayable:    sumOpenItems(openItems, string(account.TypeLiability)),
		VatPayable:         vatPayable,
		VatReceivable:      vatReceivable,
		CreatedAt:          time.Now().UTC(),
		CreatedBy:          actor,
	}

	if s.BalanceSheet, err = json.Marshal(bs); err != nil {
		return id.Nil(), fmt.Errorf("marshal balance sheet: %w", err)
	}
	if s.ProfitLoss, err = json.Marshal(pl); err != nil {
		return id.Nil(), fmt.Errorf("marshal profit and loss: %w", err)
	}
	if s.VatSummary, err = json.Marshal(vatSummary); err != nil {
		return id.Nil(), fmt.Errorf("marshal vat summary: %w", err)
	}
	if s.TrialBalance, err = json.Marshal(tbRows); err != nil {
		return id.Nil(), fmt.Errorf("marshal trial balance: %w", err)
	}
	if s.OpenItems, err = json.Marshal(openItems); err != nil {
		return id.Nil(), fmt.Errorf("marshal open items: %w", err)
	}
	if s.Issues, err = json.Marshal(issues); err != nil {
		return id.Nil(), fmt.Errorf("marshal issues: %w", err)
	}

	if err := b.repo.Create(ctx, s); err != nil {
		return id.Nil(), err
	}

	logger.Info(ctx, "period snapshot created",
		"period_id", p.ID,
		"snapshot_id", s.ID,
		"net_income", pl.NetIncome.String())

	return s.ID, nil
}

// GetSnapshot returns the frozen snapshot of a period.
func (b *Builder) GetSnapshot(ctx context.Context, periodID id.ID) (*Snapshot, error) {
	tenantID, err := tenant.FromContext(ctx)
	if err != nil {
		return nil, apperror.NewInternal(err)
	}
	return b.repo.GetByPeriod(ctx, tenantID, periodID)
}

// GetByID returns one snapshot by its own id.
func (b *Builder) GetByID(ctx context.Context, snapshotID id.ID) (*Snapshot, error) {
	tenantID, err := tenant.FromContext(ctx)
	if err != nil {
		return nil, apperror.NewInternal(err)
	}
	return b.repo.GetByID(ctx, tenantID, snapshotID)
}

// buildStatements classifies trial balance rows into the balance sheet
// and profit and loss. Debit-normal accounts report debit minus credit,
// credit-normal accounts the reverse. The period result rolls into
// total equity so the sheet stays in balance.
func buildStatements(p *period.Period, rows []TrialBalanceRow) (BalanceSheet, ProfitLoss) {
	bs := BalanceSheet{
		AsOf:             p.EndDate,
		Assets:           []StatementLine{},
		Liabilities:      []StatementLine{},
		Equity:           []StatementLine{},
		TotalAssets:      types.Zero(),
		TotalLiabilities: types.Zero(),
		TotalEquity:      types.Zero(),
	}
	pl := ProfitLoss{
		From:          p.StartDate,
		To:            p.EndDate,
		Revenue:       []StatementLine{},
		Expenses:      []StatementLine{},
		TotalRevenue:  types.Zero(),
		TotalExpenses: types.Zero(),
		NetIncome:     types.Zero(),
	}

	for _, row := range rows {
		t := account.Type(row.AccountType)
		var amount types.Money
		if t.IsDebitNormal() {
			amount = row.Debit.Sub(row.Credit)
		} else {
			amount = row.Credit.Sub(row.Debit)
		}
		if amount.IsZero() {
			continue
		}
		line := StatementLine{
			AccountCode: row.AccountCode,
			AccountName: row.AccountName,
			Amount:      amount,
		}
		switch t {
		case account.TypeAsset:
			bs.Assets = append(bs.Assets, line)
			bs.TotalAssets = bs.TotalAssets.Add(amount)
		case account.TypeLiability:
			bs.Liabilities = append(bs.Liabilities, line)
			bs.TotalLiabilities = bs.TotalLiabilities.Add(amount)
		case account.TypeEquity:
			bs.Equity = append(bs.Equity, line)
			bs.TotalEquity = bs.TotalEquity.Add(amount)
		case account.TypeRevenue:
			pl.Revenue = append(pl.Revenue, line)
			pl.TotalRevenue = pl.TotalRevenue.Add(amount)
		case account.TypeExpense:
			pl.Expenses = append(pl.Expenses, line)
			pl.TotalExpenses = pl.TotalExpenses.Add(amount)
		}
	}

	pl.NetIncome = pl.TotalRevenue.Sub(pl.TotalExpenses)
	bs.TotalEquity = bs.TotalEquity.Add(pl.NetIncome)

	return bs, pl
}

func buildVatSummary(totals map[string]vatbox.BoxTotal, payable, receivable types.Money) VatSummaryStatement {
	codes := make([]string, 0, len(totals))
	for code := range totals {
		codes = append(codes, code)
	}
	sort.Strings(codes)

	boxes := make([]VatSummaryBox, 0, len(codes))
	for _, code := range codes {
		t := totals[code]
		boxes = append(boxes, VatSummaryBox{
			BoxCode:   code,
			Net:       t.Net,
			Vat:       t.Vat,
			LineCount: t.LineCount,
		})
	}
	return VatSummaryStatement{
		Boxes:         boxes,
		VatPayable:    payable,
		VatReceivable: receivable,
	}
}

// buildIssues flags bookkeeping anomalies the accountant finalized over.
// Currently: accounts whose closing balance sits on the wrong side for
// their type (a debit-normal account closing in credit, or vice versa).
func buildIssues(rows []TrialBalanceRow) []Issue {
	issues := []Issue{}
	for _, row := range rows {
		t := account.Type(row.AccountType)
		var amount types.Money
		if t.IsDebitNormal() {
			amount = row.Debit.Sub(row.Credit)
		} else {
			amount = row.Credit.Sub(row.Debit)
		}
		if amount.IsNegative() {
			issues = append(issues, Issue{
				Code:        "CONTRA_BALANCE",
				AccountCode: row.AccountCode,
				AccountName: row.AccountName,
				Message:     "account closes on the wrong side for its type",
				Amount:      amount,
			})
		}
	}
	return issues
}

func sumOpenItems(items []OpenItem, accountType string) types.Money {
	total := types.Zero()
	for _, item := range items {
		if item.AccountType == accountType {
			total = total.Add(item.Amount)
		}
	}
	return total
}

var _ period.SnapshotBuilder = (*Builder)(nil)
