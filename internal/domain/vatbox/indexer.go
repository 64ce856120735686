package vatbox

import (
	"context"
	"fmt"
	"time"

	"grootboek/internal/core/apperror"
	"grootboek/internal/core/id"
	"grootboek/internal/core/tenant"
	"grootboek/internal/core/tx"
	"grootboek/internal/core/types"
	"grootboek/internal/domain"
	"grootboek/internal/domain/reference/vatcode"
	"grootboek/pkg/logger"
)

// Indexer derives VAT box lineage from posted journal lines.
type Indexer struct {
	repo      Repository
	vatCodes  vatcode.Repository
	txManager tx.Manager
}

// NewIndexer creates a new VAT box indexer.
func NewIndexer(repo Repository, vatCodes vatcode.Repository, txManager tx.Manager) *Indexer {
	return &Indexer{
		repo:      repo,
		vatCodes:  vatCodes,
		txManager: txManager,
	}
}

// Rebuild regenerates the lineage for a period in its own transaction.
func (ix *Indexer) Rebuild(ctx context.Context, periodID id.ID) error {
	tenantID, err := tenant.FromContext(ctx)
	if err != nil {
		return apperror.NewInternal(err)
	}
	return ix.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		return ix.RebuildInTx(ctx, tenantID, periodID)
	})
}

// RebuildInTx regenerates the lineage inside the caller's transaction.
// Period finalization calls this so the lineage, the snapshot and the
// status flip commit together. Delete and reinsert happen in one unit;
// concurrent readers see either the fully-old or the fully-new set.
func (ix *Indexer) RebuildInTx(ctx context.Context, tenantID, periodID id.ID) error {
	sources, err := ix.repo.ListSources(ctx, tenantID, periodID)
	if err != nil {
		return fmt.Errorf("list source lines: %w", err)
	}

	codeIDs := make([]id.ID, 0, len(sources))
	seen := make(map[id.ID]bool)
	for _, src := range sources {
		if !seen[src.VatCodeID] {
			seen[src.VatCodeID] = true
			codeIDs = append(codeIDs, src.VatCodeID)
		}
	}
	codes, err := ix.vatCodes.GetByIDs(ctx, codeIDs)
	if err != nil {
		return fmt.Errorf("load vat codes: %w", err)
	}
	for _, codeID := range codeIDs {
		if _, ok := codes[codeID]; !ok {
			logger.Warn(ctx, "vat code referenced by posted line is missing from catalog",
				"vat_code_id", codeID)
		}
	}

	rows, droppedVat := BuildRows(tenantID, periodID, sources, codes)
	for _, src := range droppedVat {
		logger.Warn(ctx, "vat amount resolved to no box",
			"line_id", src.LineID,
			"entry_number", src.EntryNumber,
			"vat_code_id", src.VatCodeID,
			"vat_amount", src.VatAmount)
	}

	if err := ix.repo.Replace(ctx, tenantID, periodID, rows); err != nil {
		return fmt.Errorf("replace lineage: %w", err)
	}

	logger.Info(ctx, "vat box lineage rebuilt",
		"period_id", periodID,
		"source_lines", len(sources),
		"lineage_rows", len(rows))

	return nil
}

// BoxTotals returns per-box aggregates for a period.
func (ix *Indexer) BoxTotals(ctx context.Context, periodID id.ID) (map[string]BoxTotal, error) {
	tenantID, err := tenant.FromContext(ctx)
	if err != nil {
		return nil, apperror.NewInternal(err)
	}
	return ix.repo.Totals(ctx, tenantID, periodID)
}

// BoxLines pages through the drilldown rows of one box.
func (ix *Indexer) BoxLines(ctx context.Context, periodID id.ID, boxCode string, filter LineFilter) (domain.ListResult[LineageRow], error) {
	tenantID, err := tenant.FromContext(ctx)
	if err != nil {
		return domain.ListResult[LineageRow]{}, apperror.NewInternal(err)
	}
	return ix.repo.Lines(ctx, tenantID, periodID, boxCode, filter)
}

// boxShare is one box's share of a single source line.
type boxShare struct {
	box  string
	role Role
	net  types.Money
	vat  types.Money
}

// BuildRows computes the lineage rows for a set of source lines.
// Pure function: same sources and codes always yield the same rows
// (modulo generated ids and timestamps), which makes regeneration
// deterministic. The second result lists lines whose nonzero VAT
// amount resolved to no box at all, so callers can surface them.
//
// Per line:
//  1. base = vat_base_amount, else the line's own amount, else 0
//  2. credit-side amounts stay positive; debit-side amounts are negated
//     unless the code's category is PURCHASES (purchase VAT is
//     conventionally recorded positive on the debit side)
//  3. the configured box mapping fans the amounts out over 1-3 boxes;
//     shares landing in the same box merge into one row
//  4. with no mapping at all, the (category, rate) fallback box receives
//     both net and VAT
func BuildRows(tenantID, periodID id.ID, sources []SourceLine, codes map[id.ID]*vatcode.VatCode) ([]LineageRow, []SourceLine) {
	now := time.Now().UTC()
	var rows []LineageRow
	var droppedVat []SourceLine

	for _, src := range sources {
		code, ok := codes[src.VatCodeID]
		if !ok {
			continue
		}

		creditSide := src.Credit.GreaterThanOrEqual(src.Debit)

		base := src.VatBase
		if base.IsZero() {
			if creditSide {
				base = src.Credit
			} else {
				base = src.Debit
			}
		}
		vat := src.VatAmount

		if !creditSide && code.Category != vatcode.CategoryPurchases {
			base = base.Neg()
			vat = vat.Neg()
		}

		vatLanded := false
		for _, share := range resolveBoxes(code, base, vat) {
			if !share.vat.IsZero() {
				vatLanded = true
			}
			rows = append(rows, LineageRow{
				ID:          id.New(),
				TenantID:    tenantID,
				PeriodID:    periodID,
				BoxCode:     share.box,
				BoxRole:     share.role,
				NetAmount:   share.net,
				VatAmount:   share.vat,
				SourceType:  src.SourceType,
				DocumentRef: src.DocumentRef,
				EntryID:     src.EntryID,
				EntryNumber: src.EntryNumber,
				LineID:      src.LineID,
				VatCodeID:   code.ID,
				VatCode:     code.Code,
				PartyRef:    src.PartyRef,
				CreatedAt:   now,
			})
		}
		if !vat.IsZero() && !vatLanded {
			droppedVat = append(droppedVat, src)
		}
	}

	return rows, droppedVat
}

// resolveBoxes fans a line's amounts out over the code's mapped boxes.
// The configured mapping takes precedence; the fallback table applies
// only when no box is mapped at all.
func resolveBoxes(code *vatcode.VatCode, base, vat types.Money) []boxShare {
	if code.BoxMapping.IsEmpty() {
		if box, ok := vatcode.DefaultBox(code.Category, code.Rate); ok {
			role := RoleVat
			if code.Category == vatcode.CategoryPurchases {
				role = RoleDeductible
			}
			return []boxShare{{box: box, role: role, net: base, vat: vat}}
		}
		return nil
	}

	// Ordered so regeneration emits rows deterministically. When shares
	// merge into one box, a VAT-bearing role wins over TURNOVER.
	var shares []boxShare
	add := func(box string, role Role, net, vatAmt types.Money) {
		for i := range shares {
			if shares[i].box == box {
				shares[i].net = shares[i].net.Add(net)
				shares[i].vat = shares[i].vat.Add(vatAmt)
				if shares[i].role == RoleTurnover {
					shares[i].role = role
				}
				return
			}
		}
		shares = append(shares, boxShare{box: box, role: role, net: net, vat: vatAmt})
	}

	if code.TurnoverBox != "" {
		add(code.TurnoverBox, RoleTurnover, base, types.Zero())
	}
	if code.VatBox != "" {
		add(code.VatBox, RoleVat, types.Zero(), vat)
	}
	if code.DeductibleBox != "" {
		// Deductible VAT reports the tax only; net stays zero.
		add(code.DeductibleBox, RoleDeductible, types.Zero(), vat)
	}
	return shares
}
