package journal

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"grootboek/internal/core/id"
	"grootboek/internal/core/types"
)

func testEntry(lines ...Line) *Entry {
	e := NewEntry(id.New(), time.Date(2026, 3, 15, 0, 0, 0, 0, time.UTC), "test entry")
	e.SetLines(lines)
	return e
}

func TestSetLines_AssignsLineNumbersAndTotals(t *testing.T) {
	e := testEntry(
		Line{AccountID: id.New(), Debit: types.MustMoney("121.00"), Credit: types.Zero()},
		Line{AccountID: id.New(), Debit: types.Zero(), Credit: types.MustMoney("100.00")},
		Line{AccountID: id.New(), Debit: types.Zero(), Credit: types.MustMoney("21.00")},
	)

	require.Len(t, e.Lines, 3)
	for i, line := range e.Lines {
		assert.Equal(t, i+1, line.LineNo)
		assert.Equal(t, e.ID, line.EntryID)
		assert.False(t, id.IsNil(line.ID))
	}

	assert.True(t, e.TotalDebit.Equal(types.MustMoney("121.00")))
	assert.True(t, e.TotalCredit.Equal(types.MustMoney("121.00")))
	assert.True(t, e.IsBalanced())
}

func TestIsBalanced_ExactDecimalEquality(t *testing.T) {
	e := testEntry(
		Line{AccountID: id.New(), Debit: types.MustMoney("100.00")},
		Line{AccountID: id.New(), Credit: types.MustMoney("99.99")},
	)
	assert.False(t, e.IsBalanced())

	// One cent is one cent.
	e.Lines[1].Credit = types.MustMoney("100.00")
	e.recalculateTotals()
	assert.True(t, e.IsBalanced())
}

func TestValidate(t *testing.T) {
	ctx := context.Background()

	t.Run("no lines", func(t *testing.T) {
		e := NewEntry(id.New(), time.Now(), "empty")
		err := e.Validate(ctx)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "at least one line")
	})

	t.Run("negative amount", func(t *testing.T) {
		e := testEntry(
			Line{AccountID: id.New(), Debit: types.MustMoney("-5.00")},
			Line{AccountID: id.New(), Credit: types.MustMoney("-5.00")},
		)
		err := e.Validate(ctx)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "negative")
	})

	t.Run("missing account", func(t *testing.T) {
		e := testEntry(Line{Debit: types.MustMoney("10.00")})
		require.Error(t, e.Validate(ctx))
	})

	t.Run("valid unbalanced draft passes", func(t *testing.T) {
		// Balance is enforced at posting time, not on drafts.
		e := testEntry(Line{AccountID: id.New(), Debit: types.MustMoney("10.00")})
		require.NoError(t, e.Validate(ctx))
	})
}

func TestCanModify(t *testing.T) {
	e := testEntry(Line{AccountID: id.New(), Debit: types.MustMoney("10.00")})
	require.NoError(t, e.CanModify())

	e.MarkPosted("JE-2026-00001", id.New(), "u1")
	err := e.CanModify()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "ALREADY_POSTED")
}

func TestMarkPosted(t *testing.T) {
	e := testEntry(
		Line{AccountID: id.New(), Debit: types.MustMoney("50.00")},
		Line{AccountID: id.New(), Credit: types.MustMoney("50.00")},
	)
	periodID := id.New()

	e.MarkPosted("JE-2026-00042", periodID, "alice")

	assert.Equal(t, StatusPosted, e.Status)
	assert.Equal(t, "JE-2026-00042", e.Number)
	require.NotNil(t, e.PeriodID)
	assert.Equal(t, periodID, *e.PeriodID)
	assert.Equal(t, "alice", e.PostedBy)
	require.NotNil(t, e.PostedAt)
	assert.Equal(t, 2, e.Version)
}

func TestReversalLines_SwapsSides(t *testing.T) {
	vatCodeID := id.New()
	e := testEntry(
		Line{
			AccountID:     id.New(),
			Debit:         types.MustMoney("121.00"),
			PartyRef:      "CUST-1",
			VatCodeID:     &vatCodeID,
			VatAmount:     types.MustMoney("21.00"),
			VatBaseAmount: types.MustMoney("100.00"),
		},
		Line{AccountID: id.New(), Credit: types.MustMoney("121.00")},
	)

	rev := e.ReversalLines()
	require.Len(t, rev, 2)

	assert.True(t, rev[0].Debit.IsZero())
	assert.True(t, rev[0].Credit.Equal(types.MustMoney("121.00")))
	assert.True(t, rev[1].Debit.Equal(types.MustMoney("121.00")))
	assert.True(t, rev[1].Credit.IsZero())

	// VAT magnitudes and traceability carry over unchanged.
	assert.Equal(t, &vatCodeID, rev[0].VatCodeID)
	assert.True(t, rev[0].VatAmount.Equal(types.MustMoney("21.00")))
	assert.Equal(t, "CUST-1", rev[0].PartyRef)

	// Fresh line ids, original untouched.
	assert.NotEqual(t, e.Lines[0].ID, rev[0].ID)
	assert.True(t, e.Lines[0].Debit.Equal(types.MustMoney("121.00")))
}
