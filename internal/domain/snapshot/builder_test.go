package snapshot

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"grootboek/internal/core/apperror"
	"grootboek/internal/core/id"
	"grootboek/internal/core/types"
	"grootboek/internal/domain/period"
	"grootboek/internal/domain/vatbox"
)

// --- test doubles ---

type memSnapshotRepo struct {
	created []*Snapshot
	exists  bool

	trialBalance []TrialBalanceRow
	openItems    []OpenItem
	payable      types.Money
	receivable   types.Money
}

func newMemSnapshotRepo() *memSnapshotRepo {
	return &memSnapshotRepo{
		payable:    types.Zero(),
		receivable: types.Zero(),
	}
}

func (r *memSnapshotRepo) Create(ctx context.Context, s *Snapshot) error {
	r.created = append(r.created, s)
	return nil
}

func (r *memSnapshotRepo) GetByID(ctx context.Context, tenantID, snapshotID id.ID) (*Snapshot, error) {
	for _, s := range r.created {
		if s.ID == snapshotID {
			return s, nil
		}
	}
	return nil, apperror.NewNotFound("snapshot", snapshotID.String())
}

func (r *memSnapshotRepo) GetByPeriod(ctx context.Context, tenantID, periodID id.ID) (*Snapshot, error) {
	for _, s := range r.created {
		if s.PeriodID == periodID {
			return s, nil
		}
	}
	return nil, apperror.NewNotFound("snapshot", periodID.String())
}

func (r *memSnapshotRepo) ExistsForPeriod(ctx context.Context, tenantID, periodID id.ID) (bool, error) {
	return r.exists, nil
}

func (r *memSnapshotRepo) TrialBalance(ctx context.Context, tenantID id.ID, from, to time.Time) ([]TrialBalanceRow, error) {
	return r.trialBalance, nil
}

func (r *memSnapshotRepo) OpenItems(ctx context.Context, tenantID id.ID, from, to time.Time) ([]OpenItem, error) {
	return r.openItems, nil
}

func (r *memSnapshotRepo) VatPosition(ctx context.Context, tenantID, periodID id.ID) (types.Money, types.Money, error) {
	return r.payable, r.receivable, nil
}

type stubBoxTotals struct {
	totals map[string]vatbox.BoxTotal
}

func (s *stubBoxTotals) Totals(ctx context.Context, tenantID, periodID id.ID) (map[string]vatbox.BoxTotal, error) {
	return s.totals, nil
}

// --- fixtures ---

func tbRow(code, name, accountType, debit, credit string) TrialBalanceRow {
	d := types.MustMoney(debit)
	c := types.MustMoney(credit)
	return TrialBalanceRow{
		AccountID:   id.New(),
		AccountCode: code,
		AccountName: name,
		AccountType: accountType,
		Debit:       d,
		Credit:      c,
		Balance:     d.Sub(c),
	}
}

func marchPeriod() *period.Period {
	return period.New(id.New(), "2026-03", "month",
		time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC),
		time.Date(2026, 4, 1, 0, 0, 0, 0, time.UTC))
}

// --- tests ---

func TestBuildStatements(t *testing.T) {
	p := marchPeriod()
	rows := []TrialBalanceRow{
		tbRow("1000", "Cash", "ASSET", "1210.00", "0.00"),
		tbRow("1600", "VAT payable", "LIABILITY", "0.00", "210.00"),
		tbRow("0800", "Share capital", "EQUITY", "0.00", "100.00"),
		tbRow("8000", "Revenue", "REVENUE", "0.00", "1000.00"),
		tbRow("4000", "Office costs", "EXPENSE", "100.00", "0.00"),
	}

	bs, pl := buildStatements(p, rows)

	assert.Equal(t, p.EndDate, bs.AsOf)
	assert.True(t, bs.TotalAssets.Equal(types.MustMoney("1210.00")))
	assert.True(t, bs.TotalLiabilities.Equal(types.MustMoney("210.00")))

	assert.True(t, pl.TotalRevenue.Equal(types.MustMoney("1000.00")))
	assert.True(t, pl.TotalExpenses.Equal(types.MustMoney("100.00")))
	assert.True(t, pl.NetIncome.Equal(types.MustMoney("900.00")))

	// Period result rolls into equity, keeping the sheet in balance.
	assert.True(t, bs.TotalEquity.Equal(types.MustMoney("1000.00")))
	assert.True(t, bs.TotalAssets.Equal(bs.TotalLiabilities.Add(bs.TotalEquity)))
}

func TestBuildStatements_CreditNormalSign(t *testing.T) {
	p := marchPeriod()
	rows := []TrialBalanceRow{
		// Revenue posted on the debit side (credit note) reports negative.
		tbRow("8000", "Revenue", "REVENUE", "50.00", "0.00"),
		// Asset with a credit excess reports negative too.
		tbRow("1000", "Cash", "ASSET", "0.00", "50.00"),
	}

	bs, pl := buildStatements(p, rows)

	require.Len(t, pl.Revenue, 1)
	assert.True(t, pl.Revenue[0].Amount.Equal(types.MustMoney("-50.00")))
	require.Len(t, bs.Assets, 1)
	assert.True(t, bs.Assets[0].Amount.Equal(types.MustMoney("-50.00")))
}

func TestBuildStatements_SkipsZeroBalances(t *testing.T) {
	p := marchPeriod()
	rows := []TrialBalanceRow{
		tbRow("1000", "Cash", "ASSET", "100.00", "100.00"),
	}

	bs, _ := buildStatements(p, rows)
	assert.Empty(t, bs.Assets)
	assert.True(t, bs.TotalAssets.IsZero())
}

func TestBuildVatSummary_SortedByBox(t *testing.T) {
	totals := map[string]vatbox.BoxTotal{
		"5b": {Net: types.Zero(), Vat: types.MustMoney("105.00"), LineCount: 2},
		"1a": {Net: types.MustMoney("1000.00"), Vat: types.MustMoney("210.00"), LineCount: 3},
	}

	summary := buildVatSummary(totals, types.MustMoney("210.00"), types.MustMoney("105.00"))

	require.Len(t, summary.Boxes, 2)
	assert.Equal(t, "1a", summary.Boxes[0].BoxCode)
	assert.Equal(t, "5b", summary.Boxes[1].BoxCode)
	assert.Equal(t, int64(3), summary.Boxes[0].LineCount)
	assert.True(t, summary.VatPayable.Equal(types.MustMoney("210.00")))
	assert.True(t, summary.VatReceivable.Equal(types.MustMoney("105.00")))
}

func TestBuildForPeriod(t *testing.T) {
	t.Run("freezes statements and headline figures", func(t *testing.T) {
		p := marchPeriod()
		repo := newMemSnapshotRepo()
		repo.trialBalance = []TrialBalanceRow{
			tbRow("1000", "Cash", "ASSET", "1210.00", "0.00"),
			tbRow("1600", "VAT payable", "LIABILITY", "0.00", "210.00"),
			tbRow("8000", "Revenue", "REVENUE", "0.00", "1000.00"),
		}
		repo.openItems = []OpenItem{
			{PartyRef: "CUST-7", AccountCode: "1300", AccountName: "Debtors", AccountType: "ASSET", Amount: types.MustMoney("121.00")},
			{PartyRef: "SUP-2", AccountCode: "1500", AccountName: "Creditors", AccountType: "LIABILITY", Amount: types.MustMoney("60.50")},
		}
		repo.payable = types.MustMoney("210.00")
		vat := &stubBoxTotals{totals: map[string]vatbox.BoxTotal{
			"1a": {Net: types.MustMoney("1000.00"), Vat: types.MustMoney("210.00"), LineCount: 1},
		}}

		builder := NewBuilder(repo, vat)

		snapshotID, err := builder.BuildForPeriod(context.Background(), p, "alice")
		require.NoError(t, err)
		require.Len(t, repo.created, 1)

		s := repo.created[0]
		assert.Equal(t, snapshotID, s.ID)
		assert.Equal(t, p.TenantID, s.TenantID)
		assert.Equal(t, p.ID, s.PeriodID)
		assert.Equal(t, "alice", s.CreatedBy)

		assert.True(t, s.TotalAssets.Equal(types.MustMoney("1210.00")))
		assert.True(t, s.NetIncome.Equal(types.MustMoney("1000.00")))
		assert.True(t, s.AccountsReceivable.Equal(types.MustMoney("121.00")))
		assert.True(t, s.AccountsPayable.Equal(types.MustMoney("60.50")))
		assert.True(t, s.VatPayable.Equal(types.MustMoney("210.00")))
		assert.True(t, s.VatReceivable.IsZero())

		var bs BalanceSheet
		require.NoError(t, json.Unmarshal(s.BalanceSheet, &bs))
		assert.True(t, bs.TotalAssets.Equal(types.MustMoney("1210.00")))

		var vatSummary VatSummaryStatement
		require.NoError(t, json.Unmarshal(s.VatSummary, &vatSummary))
		require.Len(t, vatSummary.Boxes, 1)
		assert.Equal(t, "1a", vatSummary.Boxes[0].BoxCode)

		require.NotEmpty(t, s.ProfitLoss)
		require.NotEmpty(t, s.TrialBalance)
		require.NotEmpty(t, s.OpenItems)

		var issues []Issue
		require.NoError(t, json.Unmarshal(s.Issues, &issues))
		assert.Empty(t, issues)
	})

	t.Run("freezes acknowledged anomalies", func(t *testing.T) {
		p := marchPeriod()
		repo := newMemSnapshotRepo()
		repo.trialBalance = []TrialBalanceRow{
			// Cash overdrawn: a debit-normal account closing in credit.
			tbRow("1000", "Cash", "ASSET", "0.00", "250.00"),
			tbRow("8000", "Revenue", "REVENUE", "0.00", "250.00"),
		}
		builder := NewBuilder(repo, &stubBoxTotals{})

		_, err := builder.BuildForPeriod(context.Background(), p, "alice")
		require.NoError(t, err)
		require.Len(t, repo.created, 1)

		var issues []Issue
		require.NoError(t, json.Unmarshal(repo.created[0].Issues, &issues))
		require.Len(t, issues, 1)
		assert.Equal(t, "CONTRA_BALANCE", issues[0].Code)
		assert.Equal(t, "1000", issues[0].AccountCode)
		assert.True(t, issues[0].Amount.Equal(types.MustMoney("-250.00")))
	})

	t.Run("second snapshot for a period is refused", func(t *testing.T) {
		p := marchPeriod()
		repo := newMemSnapshotRepo()
		repo.exists = true
		builder := NewBuilder(repo, &stubBoxTotals{})

		_, err := builder.BuildForPeriod(context.Background(), p, "alice")
		require.Error(t, err)
		appErr, ok := apperror.AsAppError(err)
		require.True(t, ok)
		assert.Equal(t, apperror.CodeSnapshotImmutable, appErr.Code)
		assert.Empty(t, repo.created)
	})
}
