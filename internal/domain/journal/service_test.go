package journal

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"grootboek/internal/core/apperror"
	appctx "grootboek/internal/core/context"
	"grootboek/internal/core/id"
	"grootboek/internal/core/numerator"
	"grootboek/internal/core/tenant"
	"grootboek/internal/core/types"
	"grootboek/internal/domain"
	"grootboek/internal/domain/audit"
	"grootboek/internal/domain/period"
	"grootboek/internal/domain/reference/account"
)

// --- test doubles ---

type stubTx struct{}

func (stubTx) RunInTransaction(ctx context.Context, fn func(context.Context) error) error {
	return fn(ctx)
}

func (stubTx) RunSerializable(ctx context.Context, fn func(context.Context) error) error {
	return fn(ctx)
}

type memJournalRepo struct {
	entries map[id.ID]*Entry
}

func newMemJournalRepo() *memJournalRepo {
	return &memJournalRepo{entries: make(map[id.ID]*Entry)}
}

func (r *memJournalRepo) Create(ctx context.Context, entry *Entry) error {
	r.entries[entry.ID] = entry
	return nil
}

func (r *memJournalRepo) GetByID(ctx context.Context, tenantID, entryID id.ID) (*Entry, error) {
	e, ok := r.entries[entryID]
	if !ok || e.TenantID != tenantID {
		return nil, apperror.NewNotFound("journal entry", entryID.String())
	}
	return e, nil
}

func (r *memJournalRepo) GetForUpdate(ctx context.Context, tenantID, entryID id.ID) (*Entry, error) {
	return r.GetByID(ctx, tenantID, entryID)
}

func (r *memJournalRepo) GetByNumber(ctx context.Context, tenantID id.ID, number string) (*Entry, error) {
	for _, e := range r.entries {
		if e.TenantID == tenantID && e.Number == number {
			return e, nil
		}
	}
	return nil, apperror.NewNotFound("journal entry", number)
}

func (r *memJournalRepo) Update(ctx context.Context, entry *Entry) error {
	r.entries[entry.ID] = entry
	return nil
}

func (r *memJournalRepo) SaveLines(ctx context.Context, entryID id.ID, lines []Line) error {
	return nil
}

func (r *memJournalRepo) List(ctx context.Context, tenantID id.ID, filter ListFilter) (domain.ListResult[*Entry], error) {
	return domain.ListResult[*Entry]{}, nil
}

func (r *memJournalRepo) ListDraftEntryIDs(ctx context.Context, tenantID id.ID, from, to time.Time) ([]id.ID, error) {
	var ids []id.ID
	for _, e := range r.entries {
		if e.TenantID == tenantID && e.Status == StatusDraft &&
			!e.EntryDate.Before(from) && e.EntryDate.Before(to) {
			ids = append(ids, e.ID)
		}
	}
	return ids, nil
}

type memAccountRepo struct {
	accounts map[id.ID]*account.Account
}

func (r *memAccountRepo) Create(ctx context.Context, acc *account.Account) error { return nil }
func (r *memAccountRepo) Update(ctx context.Context, acc *account.Account) error { return nil }

func (r *memAccountRepo) GetByID(ctx context.Context, tenantID, accountID id.ID) (*account.Account, error) {
	return nil, apperror.NewNotFound("account", accountID.String())
}

func (r *memAccountRepo) GetByIDs(ctx context.Context, tenantID id.ID, accountIDs []id.ID) (map[id.ID]*account.Account, error) {
	out := make(map[id.ID]*account.Account)
	for _, accID := range accountIDs {
		if acc, ok := r.accounts[accID]; ok && acc.TenantID == tenantID {
			out[accID] = acc
		}
	}
	return out, nil
}

func (r *memAccountRepo) GetByCode(ctx context.Context, tenantID id.ID, code string) (*account.Account, error) {
	return nil, apperror.NewNotFound("account", code)
}

func (r *memAccountRepo) List(ctx context.Context, tenantID id.ID, filter domain.ListFilter) (domain.ListResult[*account.Account], error) {
	return domain.ListResult[*account.Account]{}, nil
}

func (r *memAccountRepo) IsReferenced(ctx context.Context, tenantID, accountID id.ID) (bool, error) {
	return false, nil
}

func (r *memAccountRepo) ExistsByCode(ctx context.Context, tenantID id.ID, code string) (bool, error) {
	return false, nil
}

type memPeriodRepo struct {
	periods []*period.Period
}

func (r *memPeriodRepo) Create(ctx context.Context, p *period.Period) error { return nil }
func (r *memPeriodRepo) Update(ctx context.Context, p *period.Period) error { return nil }

func (r *memPeriodRepo) GetByID(ctx context.Context, tenantID, periodID id.ID) (*period.Period, error) {
	for _, p := range r.periods {
		if p.ID == periodID {
			return p, nil
		}
	}
	return nil, apperror.NewNotFound("period", periodID.String())
}

func (r *memPeriodRepo) GetForUpdate(ctx context.Context, tenantID, periodID id.ID) (*period.Period, error) {
	return r.GetByID(ctx, tenantID, periodID)
}

func (r *memPeriodRepo) FindByDate(ctx context.Context, tenantID id.ID, date time.Time) (*period.Period, error) {
	for _, p := range r.periods {
		if p.TenantID == tenantID && p.Contains(date) {
			return p, nil
		}
	}
	return nil, apperror.NewNotFound("period", date.Format("2006-01-02"))
}

func (r *memPeriodRepo) FindByDateForUpdate(ctx context.Context, tenantID id.ID, date time.Time) (*period.Period, error) {
	return r.FindByDate(ctx, tenantID, date)
}

func (r *memPeriodRepo) List(ctx context.Context, tenantID id.ID, filter domain.ListFilter) (domain.ListResult[*period.Period], error) {
	return domain.ListResult[*period.Period]{}, nil
}

func (r *memPeriodRepo) ExistsOverlapping(ctx context.Context, tenantID id.ID, start, end time.Time) (bool, error) {
	for _, p := range r.periods {
		if p.TenantID == tenantID && p.StartDate.Before(end) && p.EndDate.After(start) {
			return true, nil
		}
	}
	return false, nil
}

func (r *memPeriodRepo) AppendAuditRow(ctx context.Context, row period.AuditRow) error { return nil }

func (r *memPeriodRepo) ListAuditRows(ctx context.Context, tenantID, periodID id.ID) ([]period.AuditRow, error) {
	return nil, nil
}

// --- fixture ---

type journalFixture struct {
	tenantID id.ID
	ctx      context.Context
	service  *Service
	repo     *memJournalRepo
	accounts *memAccountRepo
	periods  *memPeriodRepo
	cash     *account.Account
	revenue  *account.Account
	period   *period.Period
}

func newJournalFixture(t *testing.T) *journalFixture {
	t.Helper()

	tenantID := id.New()
	ctx := tenant.WithTenant(context.Background(), tenantID)
	ctx = appctx.WithActor(ctx, &appctx.Actor{UserID: "alice", TenantID: tenantID.String()})

	cash := account.New(tenantID, "1000", "Cash", account.TypeAsset)
	revenue := account.New(tenantID, "8000", "Revenue", account.TypeRevenue)

	p := period.New(tenantID, "2026-03", "month",
		time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC),
		time.Date(2026, 4, 1, 0, 0, 0, 0, time.UTC))

	repo := newMemJournalRepo()
	accounts := &memAccountRepo{accounts: map[id.ID]*account.Account{
		cash.ID:    cash,
		revenue.ID: revenue,
	}}
	periods := &memPeriodRepo{periods: []*period.Period{p}}

	service := NewService(repo, accounts, periods, &numerator.MockGenerator{}, stubTx{}, audit.NopRecorder{})

	return &journalFixture{
		tenantID: tenantID,
		ctx:      ctx,
		service:  service,
		repo:     repo,
		accounts: accounts,
		periods:  periods,
		cash:     cash,
		revenue:  revenue,
		period:   p,
	}
}

func (f *journalFixture) balancedInput() CreateDraftInput {
	return CreateDraftInput{
		EntryDate:   time.Date(2026, 3, 15, 0, 0, 0, 0, time.UTC),
		Description: "sales invoice 42",
		DocumentRef: "INV-42",
		Lines: []DraftLine{
			{AccountID: f.cash.ID, Debit: types.MustMoney("121.00"), PartyRef: "CUST-1"},
			{AccountID: f.revenue.ID, Credit: types.MustMoney("121.00")},
		},
	}
}

// --- tests ---

func TestCreateDraft(t *testing.T) {
	t.Run("creates draft without number", func(t *testing.T) {
		f := newJournalFixture(t)

		entry, err := f.service.CreateDraft(f.ctx, f.balancedInput())
		require.NoError(t, err)

		assert.Equal(t, StatusDraft, entry.Status)
		assert.Empty(t, entry.Number)
		assert.Nil(t, entry.PeriodID)
		assert.Equal(t, "alice", entry.CreatedBy)
		assert.Equal(t, f.tenantID, entry.TenantID)
		assert.Contains(t, f.repo.entries, entry.ID)
	})

	t.Run("unbalanced draft is accepted", func(t *testing.T) {
		f := newJournalFixture(t)
		input := f.balancedInput()
		input.Lines = input.Lines[:1]

		entry, err := f.service.CreateDraft(f.ctx, input)
		require.NoError(t, err)
		assert.False(t, entry.IsBalanced())
	})

	t.Run("rejects empty lines", func(t *testing.T) {
		f := newJournalFixture(t)
		input := f.balancedInput()
		input.Lines = nil

		_, err := f.service.CreateDraft(f.ctx, input)
		requireCode(t, err, apperror.CodeValidation)
	})

	t.Run("rejects account of another tenant", func(t *testing.T) {
		f := newJournalFixture(t)
		foreign := account.New(id.New(), "1000", "Foreign cash", account.TypeAsset)
		f.accounts.accounts[foreign.ID] = foreign

		input := f.balancedInput()
		input.Lines[0].AccountID = foreign.ID

		_, err := f.service.CreateDraft(f.ctx, input)
		requireCode(t, err, apperror.CodeValidation)
	})

	t.Run("rejects inactive account", func(t *testing.T) {
		f := newJournalFixture(t)
		f.cash.Active = false

		_, err := f.service.CreateDraft(f.ctx, f.balancedInput())
		requireCode(t, err, apperror.CodeValidation)
	})

	t.Run("requires tenant in context", func(t *testing.T) {
		f := newJournalFixture(t)
		_, err := f.service.CreateDraft(context.Background(), f.balancedInput())
		require.Error(t, err)
	})
}

func TestUpdateDraft(t *testing.T) {
	t.Run("replaces lines and header", func(t *testing.T) {
		f := newJournalFixture(t)
		entry, err := f.service.CreateDraft(f.ctx, f.balancedInput())
		require.NoError(t, err)

		input := f.balancedInput()
		input.Description = "corrected invoice"
		input.Lines[0].Debit = types.MustMoney("242.00")
		input.Lines[1].Credit = types.MustMoney("242.00")

		updated, err := f.service.UpdateDraft(f.ctx, entry.ID, input)
		require.NoError(t, err)
		assert.Equal(t, "corrected invoice", updated.Description)
		assert.True(t, updated.TotalDebit.Equal(types.MustMoney("242.00")))
		assert.Equal(t, 2, updated.Version)
	})

	t.Run("rejects posted entry", func(t *testing.T) {
		f := newJournalFixture(t)
		entry, err := f.service.CreateDraft(f.ctx, f.balancedInput())
		require.NoError(t, err)
		_, err = f.service.Post(f.ctx, entry.ID)
		require.NoError(t, err)

		_, err = f.service.UpdateDraft(f.ctx, entry.ID, f.balancedInput())
		requireCode(t, err, apperror.CodeAlreadyPosted)
	})
}

func TestPost(t *testing.T) {
	t.Run("assigns sequential tenant-year number", func(t *testing.T) {
		f := newJournalFixture(t)

		first, err := f.service.CreateDraft(f.ctx, f.balancedInput())
		require.NoError(t, err)
		second, err := f.service.CreateDraft(f.ctx, f.balancedInput())
		require.NoError(t, err)

		posted, err := f.service.Post(f.ctx, first.ID)
		require.NoError(t, err)
		assert.Equal(t, "JE-2026-00001", posted.Number)
		assert.Equal(t, StatusPosted, posted.Status)
		require.NotNil(t, posted.PeriodID)
		assert.Equal(t, f.period.ID, *posted.PeriodID)
		assert.Equal(t, "alice", posted.PostedBy)
		require.NotNil(t, posted.PostedAt)

		posted2, err := f.service.Post(f.ctx, second.ID)
		require.NoError(t, err)
		assert.Equal(t, "JE-2026-00002", posted2.Number)
	})

	t.Run("unbalanced entry stays draft", func(t *testing.T) {
		f := newJournalFixture(t)
		input := f.balancedInput()
		input.Lines[1].Credit = types.MustMoney("120.99")

		entry, err := f.service.CreateDraft(f.ctx, input)
		require.NoError(t, err)

		_, err = f.service.Post(f.ctx, entry.ID)
		requireCode(t, err, apperror.CodeNotBalanced)

		stored := f.repo.entries[entry.ID]
		assert.Equal(t, StatusDraft, stored.Status)
		assert.Empty(t, stored.Number)
	})

	t.Run("posting twice fails", func(t *testing.T) {
		f := newJournalFixture(t)
		entry, err := f.service.CreateDraft(f.ctx, f.balancedInput())
		require.NoError(t, err)

		_, err = f.service.Post(f.ctx, entry.ID)
		require.NoError(t, err)

		_, err = f.service.Post(f.ctx, entry.ID)
		requireCode(t, err, apperror.CodeAlreadyPosted)
	})

	t.Run("finalized period rejects posting", func(t *testing.T) {
		f := newJournalFixture(t)
		entry, err := f.service.CreateDraft(f.ctx, f.balancedInput())
		require.NoError(t, err)

		f.period.Status = period.StatusFinalized

		_, err = f.service.Post(f.ctx, entry.ID)
		requireCode(t, err, apperror.CodePeriodLocked)
	})

	t.Run("period in review accepts posting", func(t *testing.T) {
		f := newJournalFixture(t)
		entry, err := f.service.CreateDraft(f.ctx, f.balancedInput())
		require.NoError(t, err)

		f.period.Status = period.StatusReview

		_, err = f.service.Post(f.ctx, entry.ID)
		require.NoError(t, err)
	})

	t.Run("no period covers entry date", func(t *testing.T) {
		f := newJournalFixture(t)
		input := f.balancedInput()
		input.EntryDate = time.Date(2026, 7, 1, 0, 0, 0, 0, time.UTC)

		entry, err := f.service.CreateDraft(f.ctx, input)
		require.NoError(t, err)

		_, err = f.service.Post(f.ctx, entry.ID)
		requireCode(t, err, apperror.CodeValidation)
	})
}

func TestReverse(t *testing.T) {
	currentPeriod := func(tenantID id.ID) *period.Period {
		now := time.Now().UTC()
		return period.New(tenantID, "current", "month",
			now.AddDate(0, -1, 0), now.AddDate(0, 1, 0))
	}

	t.Run("creates posted counter entry and links both ways", func(t *testing.T) {
		f := newJournalFixture(t)
		f.periods.periods = append(f.periods.periods, currentPeriod(f.tenantID))

		entry, err := f.service.CreateDraft(f.ctx, f.balancedInput())
		require.NoError(t, err)
		posted, err := f.service.Post(f.ctx, entry.ID)
		require.NoError(t, err)

		reversal, err := f.service.Reverse(f.ctx, posted.ID, "bob")
		require.NoError(t, err)

		assert.Equal(t, StatusPosted, reversal.Status)
		assert.Equal(t, "JE-2026-00002", reversal.Number)
		require.NotNil(t, reversal.ReversesID)
		assert.Equal(t, posted.ID, *reversal.ReversesID)

		// Sides swapped.
		assert.True(t, reversal.Lines[0].Credit.Equal(types.MustMoney("121.00")))
		assert.True(t, reversal.Lines[1].Debit.Equal(types.MustMoney("121.00")))

		original := f.repo.entries[posted.ID]
		assert.Equal(t, StatusReversed, original.Status)
		require.NotNil(t, original.ReversedByID)
		assert.Equal(t, reversal.ID, *original.ReversedByID)
	})

	t.Run("draft cannot be reversed", func(t *testing.T) {
		f := newJournalFixture(t)
		entry, err := f.service.CreateDraft(f.ctx, f.balancedInput())
		require.NoError(t, err)

		_, err = f.service.Reverse(f.ctx, entry.ID, "bob")
		requireCode(t, err, apperror.CodeValidation)
	})

	t.Run("double reversal is rejected", func(t *testing.T) {
		f := newJournalFixture(t)
		f.periods.periods = append(f.periods.periods, currentPeriod(f.tenantID))

		entry, err := f.service.CreateDraft(f.ctx, f.balancedInput())
		require.NoError(t, err)
		posted, err := f.service.Post(f.ctx, entry.ID)
		require.NoError(t, err)

		_, err = f.service.Reverse(f.ctx, posted.ID, "bob")
		require.NoError(t, err)

		_, err = f.service.Reverse(f.ctx, posted.ID, "bob")
		requireCode(t, err, apperror.CodeConflict)
	})
}

func requireCode(t *testing.T, err error, code string) {
	t.Helper()
	require.Error(t, err)
	appErr, ok := apperror.AsAppError(err)
	require.True(t, ok, "expected AppError, got %v", err)
	assert.Equal(t, code, appErr.Code)
}
