package vatbox

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"grootboek/internal/core/id"
	"grootboek/internal/core/types"
	"grootboek/internal/domain/reference/vatcode"
)

func salesCode() *vatcode.VatCode {
	c := vatcode.New("VH", types.MustRate("21"), vatcode.CategorySales)
	c.TurnoverBox = "1a"
	c.VatBox = "1a"
	return c
}

func purchaseCode() *vatcode.VatCode {
	c := vatcode.New("VA", types.MustRate("21"), vatcode.CategoryPurchases)
	c.DeductibleBox = "5b"
	return c
}

func sourceLine(code *vatcode.VatCode) SourceLine {
	return SourceLine{
		EntryID:     id.New(),
		EntryNumber: "JE-2026-00001",
		SourceType:  "sales_invoice",
		DocumentRef: "INV-42",
		LineID:      id.New(),
		AccountID:   id.New(),
		VatCodeID:   code.ID,
		PartyRef:    "CUST-7",
	}
}

func codeMap(codes ...*vatcode.VatCode) map[id.ID]*vatcode.VatCode {
	m := make(map[id.ID]*vatcode.VatCode, len(codes))
	for _, c := range codes {
		m[c.ID] = c
	}
	return m
}

func TestBuildRows_CreditSideStaysPositive(t *testing.T) {
	code := salesCode()
	src := sourceLine(code)
	src.Credit = types.MustMoney("1000.00")
	src.VatAmount = types.MustMoney("210.00")

	rows, _ := BuildRows(id.New(), id.New(), []SourceLine{src}, codeMap(code))

	require.Len(t, rows, 1)
	assert.Equal(t, "1a", rows[0].BoxCode)
	assert.True(t, rows[0].NetAmount.Equal(types.MustMoney("1000.00")))
	assert.True(t, rows[0].VatAmount.Equal(types.MustMoney("210.00")))
}

func TestBuildRows_DebitSideNegatesSalesAmounts(t *testing.T) {
	// A credit note posts revenue on the debit side; its contribution
	// reduces the box totals.
	code := salesCode()
	src := sourceLine(code)
	src.Debit = types.MustMoney("100.00")
	src.VatAmount = types.MustMoney("21.00")

	rows, _ := BuildRows(id.New(), id.New(), []SourceLine{src}, codeMap(code))

	require.Len(t, rows, 1)
	assert.True(t, rows[0].NetAmount.Equal(types.MustMoney("-100.00")))
	assert.True(t, rows[0].VatAmount.Equal(types.MustMoney("-21.00")))
}

func TestBuildRows_PurchaseDebitStaysPositive(t *testing.T) {
	code := purchaseCode()
	src := sourceLine(code)
	src.Debit = types.MustMoney("500.00")
	src.VatAmount = types.MustMoney("105.00")

	rows, _ := BuildRows(id.New(), id.New(), []SourceLine{src}, codeMap(code))

	require.Len(t, rows, 1)
	assert.Equal(t, "5b", rows[0].BoxCode)
	assert.True(t, rows[0].NetAmount.IsZero())
	assert.True(t, rows[0].VatAmount.Equal(types.MustMoney("105.00")))
}

func TestBuildRows_VatBasePreferredOverSideAmount(t *testing.T) {
	// The line amount is the gross; the recorded VAT base wins.
	code := salesCode()
	src := sourceLine(code)
	src.Credit = types.MustMoney("1210.00")
	src.VatBase = types.MustMoney("1000.00")
	src.VatAmount = types.MustMoney("210.00")

	rows, _ := BuildRows(id.New(), id.New(), []SourceLine{src}, codeMap(code))

	require.Len(t, rows, 1)
	assert.True(t, rows[0].NetAmount.Equal(types.MustMoney("1000.00")))
}

func TestBuildRows_FanOutMergesSameBox(t *testing.T) {
	// Reverse charge: turnover and output VAT under 4a, deductible
	// input VAT under 5b. Turnover and VAT shares of box 4a merge
	// into a single row.
	code := vatcode.New("RC", types.MustRate("21"), vatcode.CategoryReverseCharge)
	code.TurnoverBox = "4a"
	code.VatBox = "4a"
	code.DeductibleBox = "5b"

	src := sourceLine(code)
	src.Credit = types.MustMoney("1000.00")
	src.VatAmount = types.MustMoney("210.00")

	rows, _ := BuildRows(id.New(), id.New(), []SourceLine{src}, codeMap(code))

	require.Len(t, rows, 2)
	assert.Equal(t, "4a", rows[0].BoxCode)
	assert.Equal(t, RoleVat, rows[0].BoxRole)
	assert.True(t, rows[0].NetAmount.Equal(types.MustMoney("1000.00")))
	assert.True(t, rows[0].VatAmount.Equal(types.MustMoney("210.00")))

	assert.Equal(t, "5b", rows[1].BoxCode)
	assert.Equal(t, RoleDeductible, rows[1].BoxRole)
	assert.True(t, rows[1].NetAmount.IsZero())
	assert.True(t, rows[1].VatAmount.Equal(types.MustMoney("210.00")))
}

func TestBuildRows_BoxRolesSplitVatPosition(t *testing.T) {
	// The frozen VAT position counts DEDUCTIBLE rows as receivable and
	// the rest as payable. A reverse-charge line must land its 210.00
	// once on each side, never twice on the payable side.
	code := vatcode.New("RC", types.MustRate("21"), vatcode.CategoryReverseCharge)
	code.TurnoverBox = "4a"
	code.VatBox = "4a"
	code.DeductibleBox = "5b"

	src := sourceLine(code)
	src.Credit = types.MustMoney("1000.00")
	src.VatAmount = types.MustMoney("210.00")

	rows, _ := BuildRows(id.New(), id.New(), []SourceLine{src}, codeMap(code))

	payable, receivable := types.Zero(), types.Zero()
	for _, row := range rows {
		if row.BoxRole == RoleDeductible {
			receivable = receivable.Add(row.VatAmount)
		} else {
			payable = payable.Add(row.VatAmount)
		}
	}
	assert.True(t, payable.Equal(types.MustMoney("210.00")))
	assert.True(t, receivable.Equal(types.MustMoney("210.00")))

	// Purchases report deductible even through the fallback box.
	unmapped := vatcode.New("VA0", types.MustRate("21"), vatcode.CategoryPurchases)
	src2 := sourceLine(unmapped)
	src2.Debit = types.MustMoney("500.00")
	src2.VatAmount = types.MustMoney("105.00")

	rows, _ = BuildRows(id.New(), id.New(), []SourceLine{src2}, codeMap(unmapped))
	require.Len(t, rows, 1)
	assert.Equal(t, RoleDeductible, rows[0].BoxRole)
}

func TestBuildRows_ReportsVatResolvingToNoBox(t *testing.T) {
	// Only a turnover box configured: the net lands, the VAT has
	// nowhere to go and must be reported back to the caller.
	code := vatcode.New("VT", types.MustRate("21"), vatcode.CategorySales)
	code.TurnoverBox = "1a"

	src := sourceLine(code)
	src.Credit = types.MustMoney("100.00")
	src.VatAmount = types.MustMoney("21.00")

	rows, droppedVat := BuildRows(id.New(), id.New(), []SourceLine{src}, codeMap(code))

	require.Len(t, rows, 1)
	assert.Equal(t, "1a", rows[0].BoxCode)
	assert.True(t, rows[0].VatAmount.IsZero())

	require.Len(t, droppedVat, 1)
	assert.Equal(t, src.LineID, droppedVat[0].LineID)

	// A line without VAT is not flagged.
	noVat := sourceLine(code)
	noVat.Credit = types.MustMoney("100.00")

	_, droppedVat = BuildRows(id.New(), id.New(), []SourceLine{noVat}, codeMap(code))
	assert.Empty(t, droppedVat)
}

func TestBuildRows_FallbackOnlyWhenMappingEmpty(t *testing.T) {
	unmapped := vatcode.New("VL", types.MustRate("9"), vatcode.CategorySales)
	src := sourceLine(unmapped)
	src.Credit = types.MustMoney("200.00")
	src.VatAmount = types.MustMoney("18.00")

	rows, _ := BuildRows(id.New(), id.New(), []SourceLine{src}, codeMap(unmapped))

	require.Len(t, rows, 1)
	assert.Equal(t, "1b", rows[0].BoxCode)
	assert.True(t, rows[0].NetAmount.Equal(types.MustMoney("200.00")))
	assert.True(t, rows[0].VatAmount.Equal(types.MustMoney("18.00")))

	// A partial mapping suppresses the fallback entirely.
	partial := vatcode.New("VP", types.MustRate("9"), vatcode.CategorySales)
	partial.VatBox = "1b"
	src2 := sourceLine(partial)
	src2.Credit = types.MustMoney("200.00")
	src2.VatAmount = types.MustMoney("18.00")

	rows, _ = BuildRows(id.New(), id.New(), []SourceLine{src2}, codeMap(partial))

	require.Len(t, rows, 1)
	assert.Equal(t, "1b", rows[0].BoxCode)
	assert.True(t, rows[0].NetAmount.IsZero(), "unmapped turnover share is dropped, not defaulted")
}

func TestBuildRows_UnknownCodeSkipped(t *testing.T) {
	code := salesCode()
	known := sourceLine(code)
	known.Credit = types.MustMoney("100.00")
	known.VatAmount = types.MustMoney("21.00")

	orphan := sourceLine(code)
	orphan.VatCodeID = id.New() // not in the catalog map
	orphan.Credit = types.MustMoney("999.00")

	rows, _ := BuildRows(id.New(), id.New(), []SourceLine{known, orphan}, codeMap(code))

	require.Len(t, rows, 1)
	assert.Equal(t, known.LineID, rows[0].LineID)
}

func TestBuildRows_CarriesTraceability(t *testing.T) {
	tenantID, periodID := id.New(), id.New()
	code := salesCode()
	src := sourceLine(code)
	src.Credit = types.MustMoney("100.00")
	src.VatAmount = types.MustMoney("21.00")

	rows, _ := BuildRows(tenantID, periodID, []SourceLine{src}, codeMap(code))

	require.Len(t, rows, 1)
	row := rows[0]
	assert.Equal(t, tenantID, row.TenantID)
	assert.Equal(t, periodID, row.PeriodID)
	assert.Equal(t, src.EntryID, row.EntryID)
	assert.Equal(t, "JE-2026-00001", row.EntryNumber)
	assert.Equal(t, src.LineID, row.LineID)
	assert.Equal(t, code.ID, row.VatCodeID)
	assert.Equal(t, "VH", row.VatCode)
	assert.Equal(t, "INV-42", row.DocumentRef)
	assert.Equal(t, "sales_invoice", row.SourceType)
	assert.Equal(t, "CUST-7", row.PartyRef)
	assert.False(t, row.ID == src.LineID)
}

func TestBuildRows_DeterministicOrdering(t *testing.T) {
	code := vatcode.New("RC", types.MustRate("21"), vatcode.CategoryReverseCharge)
	code.TurnoverBox = "2a"
	code.VatBox = "2a"
	code.DeductibleBox = "5b"

	src := sourceLine(code)
	src.Credit = types.MustMoney("300.00")
	src.VatAmount = types.MustMoney("63.00")

	first, _ := BuildRows(id.New(), id.New(), []SourceLine{src}, codeMap(code))
	second, _ := BuildRows(id.New(), id.New(), []SourceLine{src}, codeMap(code))

	require.Len(t, first, 2)
	require.Len(t, second, 2)
	for i := range first {
		assert.Equal(t, first[i].BoxCode, second[i].BoxCode)
		assert.True(t, first[i].NetAmount.Equal(second[i].NetAmount))
		assert.True(t, first[i].VatAmount.Equal(second[i].VatAmount))
	}
}
