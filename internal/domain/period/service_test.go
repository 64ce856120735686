package period

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"grootboek/internal/core/apperror"
	appctx "grootboek/internal/core/context"
	"grootboek/internal/core/id"
	"grootboek/internal/core/tenant"
	"grootboek/internal/domain"
	"grootboek/internal/domain/audit"
)

// --- test doubles ---

type stubTx struct {
	serializableCalls int
	active            bool
}

func (s *stubTx) RunInTransaction(ctx context.Context, fn func(context.Context) error) error {
	s.active = true
	defer func() { s.active = false }()
	return fn(ctx)
}

func (s *stubTx) RunSerializable(ctx context.Context, fn func(context.Context) error) error {
	s.serializableCalls++
	s.active = true
	defer func() { s.active = false }()
	return fn(ctx)
}

type memPeriodRepo struct {
	periods   map[id.ID]*Period
	auditRows []AuditRow

	tx          *stubTx
	overlapInTx bool
}

func newMemPeriodRepo() *memPeriodRepo {
	return &memPeriodRepo{periods: make(map[id.ID]*Period)}
}

func (r *memPeriodRepo) Create(ctx context.Context, p *Period) error {
	r.periods[p.ID] = p
	return nil
}

func (r *memPeriodRepo) GetByID(ctx context.Context, tenantID, periodID id.ID) (*Period, error) {
	p, ok := r.periods[periodID]
	if !ok || p.TenantID != tenantID {
		return nil, apperror.NewNotFound("period", periodID.String())
	}
	return p, nil
}

func (r *memPeriodRepo) GetForUpdate(ctx context.Context, tenantID, periodID id.ID) (*Period, error) {
	return r.GetByID(ctx, tenantID, periodID)
}

func (r *memPeriodRepo) FindByDate(ctx context.Context, tenantID id.ID, date time.Time) (*Period, error) {
	for _, p := range r.periods {
		if p.TenantID == tenantID && p.Contains(date) {
			return p, nil
		}
	}
	return nil, apperror.NewNotFound("period", date.Format("2006-01-02"))
}

func (r *memPeriodRepo) FindByDateForUpdate(ctx context.Context, tenantID id.ID, date time.Time) (*Period, error) {
	return r.FindByDate(ctx, tenantID, date)
}

func (r *memPeriodRepo) Update(ctx context.Context, p *Period) error {
	r.periods[p.ID] = p
	return nil
}

func (r *memPeriodRepo) List(ctx context.Context, tenantID id.ID, filter domain.ListFilter) (domain.ListResult[*Period], error) {
	return domain.ListResult[*Period]{}, nil
}

func (r *memPeriodRepo) ExistsOverlapping(ctx context.Context, tenantID id.ID, start, end time.Time) (bool, error) {
	if r.tx != nil {
		r.overlapInTx = r.tx.active
	}
	for _, p := range r.periods {
		if p.TenantID == tenantID && p.StartDate.Before(end) && p.EndDate.After(start) {
			return true, nil
		}
	}
	return false, nil
}

func (r *memPeriodRepo) AppendAuditRow(ctx context.Context, row AuditRow) error {
	r.auditRows = append(r.auditRows, row)
	return nil
}

func (r *memPeriodRepo) ListAuditRows(ctx context.Context, tenantID, periodID id.ID) ([]AuditRow, error) {
	var rows []AuditRow
	for _, row := range r.auditRows {
		if row.TenantID == tenantID && row.PeriodID == periodID {
			rows = append(rows, row)
		}
	}
	return rows, nil
}

type stubDraftSource struct {
	draftIDs []id.ID
}

func (s *stubDraftSource) ListDraftEntryIDs(ctx context.Context, tenantID id.ID, from, to time.Time) ([]id.ID, error) {
	return s.draftIDs, nil
}

type stubLineage struct {
	rebuilt []id.ID
}

func (s *stubLineage) RebuildInTx(ctx context.Context, tenantID, periodID id.ID) error {
	s.rebuilt = append(s.rebuilt, periodID)
	return nil
}

type stubSnapshots struct {
	built      []id.ID
	snapshotID id.ID
	err        error
}

func (s *stubSnapshots) BuildForPeriod(ctx context.Context, p *Period, actor string) (id.ID, error) {
	if s.err != nil {
		return id.Nil(), s.err
	}
	s.built = append(s.built, p.ID)
	return s.snapshotID, nil
}

// --- fixture ---

type periodFixture struct {
	tenantID  id.ID
	ctx       context.Context
	service   *Service
	repo      *memPeriodRepo
	tx        *stubTx
	drafts    *stubDraftSource
	lineage   *stubLineage
	snapshots *stubSnapshots
	period    *Period
}

func newPeriodFixture(t *testing.T) *periodFixture {
	t.Helper()

	tenantID := id.New()
	ctx := tenant.WithTenant(context.Background(), tenantID)
	ctx = appctx.WithActor(ctx, &appctx.Actor{UserID: "alice", TenantID: tenantID.String()})

	p := New(tenantID, "2026-03", "month",
		time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC),
		time.Date(2026, 4, 1, 0, 0, 0, 0, time.UTC))

	repo := newMemPeriodRepo()
	repo.periods[p.ID] = p

	tx := &stubTx{}
	repo.tx = tx
	drafts := &stubDraftSource{}
	lineage := &stubLineage{}
	snapshots := &stubSnapshots{snapshotID: id.New()}

	service := NewService(repo, drafts, lineage, snapshots, tx, audit.NopRecorder{})

	return &periodFixture{
		tenantID:  tenantID,
		ctx:       ctx,
		service:   service,
		repo:      repo,
		tx:        tx,
		drafts:    drafts,
		lineage:   lineage,
		snapshots: snapshots,
		period:    p,
	}
}

func requireCode(t *testing.T, err error, code string) {
	t.Helper()
	require.Error(t, err)
	appErr, ok := apperror.AsAppError(err)
	require.True(t, ok, "expected AppError, got %v", err)
	assert.Equal(t, code, appErr.Code)
}

// --- tests ---

func TestCreate(t *testing.T) {
	t.Run("rejects overlapping period", func(t *testing.T) {
		f := newPeriodFixture(t)

		overlap := New(f.tenantID, "2026-03-overlap", "month",
			time.Date(2026, 3, 15, 0, 0, 0, 0, time.UTC),
			time.Date(2026, 4, 15, 0, 0, 0, 0, time.UTC))

		err := f.service.Create(f.ctx, overlap)
		requireCode(t, err, apperror.CodeConflict)
	})

	t.Run("adjacent period is allowed", func(t *testing.T) {
		f := newPeriodFixture(t)

		next := New(f.tenantID, "2026-04", "month",
			time.Date(2026, 4, 1, 0, 0, 0, 0, time.UTC),
			time.Date(2026, 5, 1, 0, 0, 0, 0, time.UTC))

		require.NoError(t, f.service.Create(f.ctx, next))
		assert.Contains(t, f.repo.periods, next.ID)
	})

	t.Run("overlap check and insert share one serialized transaction", func(t *testing.T) {
		f := newPeriodFixture(t)

		next := New(f.tenantID, "2026-04", "month",
			time.Date(2026, 4, 1, 0, 0, 0, 0, time.UTC),
			time.Date(2026, 5, 1, 0, 0, 0, 0, time.UTC))

		require.NoError(t, f.service.Create(f.ctx, next))
		assert.Equal(t, 1, f.tx.serializableCalls)
		assert.True(t, f.repo.overlapInTx,
			"overlap check must run inside the create transaction")
	})
}

func TestStartReview(t *testing.T) {
	t.Run("open to review with audit row", func(t *testing.T) {
		f := newPeriodFixture(t)

		require.NoError(t, f.service.StartReview(f.ctx, f.period.ID, "alice"))

		assert.Equal(t, StatusReview, f.period.Status)
		assert.Equal(t, "alice", f.period.ReviewStartedBy)
		require.NotNil(t, f.period.ReviewStartedAt)

		require.Len(t, f.repo.auditRows, 1)
		row := f.repo.auditRows[0]
		assert.Equal(t, StatusOpen, row.FromStatus)
		assert.Equal(t, StatusReview, row.ToStatus)
		assert.Equal(t, "alice", row.Actor)
	})

	t.Run("idempotent on period already in review", func(t *testing.T) {
		f := newPeriodFixture(t)

		require.NoError(t, f.service.StartReview(f.ctx, f.period.ID, "alice"))
		require.NoError(t, f.service.StartReview(f.ctx, f.period.ID, "alice"))

		// The no-op repeat leaves no second audit row.
		assert.Len(t, f.repo.auditRows, 1)
	})

	t.Run("finalized period rejects review", func(t *testing.T) {
		f := newPeriodFixture(t)
		f.period.Status = StatusFinalized

		err := f.service.StartReview(f.ctx, f.period.ID, "alice")
		requireCode(t, err, apperror.CodeInvalidTransition)
	})
}

func TestFinalize(t *testing.T) {
	t.Run("rebuilds lineage, freezes snapshot, flips status", func(t *testing.T) {
		f := newPeriodFixture(t)

		require.NoError(t, f.service.Finalize(f.ctx, f.period.ID, "alice"))

		assert.Equal(t, StatusFinalized, f.period.Status)
		assert.Equal(t, "alice", f.period.FinalizedBy)
		assert.Equal(t, []id.ID{f.period.ID}, f.lineage.rebuilt)
		assert.Equal(t, []id.ID{f.period.ID}, f.snapshots.built)

		require.Len(t, f.repo.auditRows, 1)
		row := f.repo.auditRows[0]
		assert.Equal(t, StatusFinalized, row.ToStatus)
		require.NotNil(t, row.SnapshotID)
		assert.Equal(t, f.snapshots.snapshotID, *row.SnapshotID)
	})

	t.Run("works from review as well", func(t *testing.T) {
		f := newPeriodFixture(t)
		require.NoError(t, f.service.StartReview(f.ctx, f.period.ID, "alice"))

		require.NoError(t, f.service.Finalize(f.ctx, f.period.ID, "alice"))
		assert.Equal(t, StatusFinalized, f.period.Status)
	})

	t.Run("lists blocking draft ids", func(t *testing.T) {
		f := newPeriodFixture(t)
		draft1, draft2 := id.New(), id.New()
		f.drafts.draftIDs = []id.ID{draft1, draft2}

		err := f.service.Finalize(f.ctx, f.period.ID, "alice")
		requireCode(t, err, apperror.CodePeriodHasDrafts)

		appErr, _ := apperror.AsAppError(err)
		assert.ElementsMatch(t,
			[]string{draft1.String(), draft2.String()},
			appErr.Details["draft_entry_ids"])

		// Nothing was rebuilt or frozen.
		assert.Empty(t, f.lineage.rebuilt)
		assert.Empty(t, f.snapshots.built)
		assert.Equal(t, StatusOpen, f.period.Status)
	})

	t.Run("finalizing twice fails", func(t *testing.T) {
		f := newPeriodFixture(t)
		require.NoError(t, f.service.Finalize(f.ctx, f.period.ID, "alice"))

		err := f.service.Finalize(f.ctx, f.period.ID, "alice")
		requireCode(t, err, apperror.CodeInvalidTransition)
	})

	t.Run("snapshot failure aborts the transition", func(t *testing.T) {
		f := newPeriodFixture(t)
		f.snapshots.err = apperror.NewSnapshotImmutable(f.period.ID.String())

		err := f.service.Finalize(f.ctx, f.period.ID, "alice")
		require.Error(t, err)
		assert.Empty(t, f.repo.auditRows)
	})
}

func TestLock(t *testing.T) {
	t.Run("only finalized periods can be locked", func(t *testing.T) {
		f := newPeriodFixture(t)

		err := f.service.Lock(f.ctx, f.period.ID, "alice")
		requireCode(t, err, apperror.CodeInvalidTransition)
	})

	t.Run("finalized to locked with audit row", func(t *testing.T) {
		f := newPeriodFixture(t)
		require.NoError(t, f.service.Finalize(f.ctx, f.period.ID, "alice"))

		require.NoError(t, f.service.Lock(f.ctx, f.period.ID, "bob"))

		assert.Equal(t, StatusLocked, f.period.Status)
		assert.Equal(t, "bob", f.period.LockedBy)
		assert.True(t, f.period.IsImmutable())

		require.Len(t, f.repo.auditRows, 2)
		assert.Equal(t, StatusLocked, f.repo.auditRows[1].ToStatus)
		assert.Nil(t, f.repo.auditRows[1].SnapshotID)
	})

	t.Run("locked is terminal", func(t *testing.T) {
		f := newPeriodFixture(t)
		require.NoError(t, f.service.Finalize(f.ctx, f.period.ID, "alice"))
		require.NoError(t, f.service.Lock(f.ctx, f.period.ID, "alice"))

		err := f.service.Lock(f.ctx, f.period.ID, "alice")
		requireCode(t, err, apperror.CodeInvalidTransition)

		err = f.service.StartReview(f.ctx, f.period.ID, "alice")
		requireCode(t, err, apperror.CodeInvalidTransition)
	})
}

func TestService_CanAcceptPostings(t *testing.T) {
	f := newPeriodFixture(t)
	inPeriod := time.Date(2026, 3, 10, 0, 0, 0, 0, time.UTC)

	accepts, err := f.service.CanAcceptPostings(f.ctx, inPeriod)
	require.NoError(t, err)
	assert.True(t, accepts)

	// No period covers the date: not an error, just a no.
	accepts, err = f.service.CanAcceptPostings(f.ctx, time.Date(2027, 1, 1, 0, 0, 0, 0, time.UTC))
	require.NoError(t, err)
	assert.False(t, accepts)

	f.period.Status = StatusLocked
	accepts, err = f.service.CanAcceptPostings(f.ctx, inPeriod)
	require.NoError(t, err)
	assert.False(t, accepts)
}

func TestHistory(t *testing.T) {
	f := newPeriodFixture(t)
	require.NoError(t, f.service.StartReview(f.ctx, f.period.ID, "alice"))
	require.NoError(t, f.service.Finalize(f.ctx, f.period.ID, "bob"))
	require.NoError(t, f.service.Lock(f.ctx, f.period.ID, "carol"))

	rows, err := f.service.History(f.ctx, f.period.ID)
	require.NoError(t, err)
	require.Len(t, rows, 3)

	assert.Equal(t, StatusReview, rows[0].ToStatus)
	assert.Equal(t, StatusFinalized, rows[1].ToStatus)
	assert.Equal(t, StatusLocked, rows[2].ToStatus)
	assert.Equal(t, "carol", rows[2].Actor)
}
