package journal

import (
	"context"
	"fmt"
	"time"

	"grootboek/internal/core/apperror"
	appctx "grootboek/internal/core/context"
	"grootboek/internal/core/id"
	"grootboek/internal/core/numerator"
	"grootboek/internal/core/tenant"
	"grootboek/internal/core/tx"
	"grootboek/internal/core/types"
	"grootboek/internal/domain"
	"grootboek/internal/domain/audit"
	"grootboek/internal/domain/period"
	"grootboek/internal/domain/reference/account"
	"grootboek/pkg/logger"
)

// DraftLine is the shape collaborators (document intake, bank
// reconciliation, decision engine) submit to CreateDraft.
type DraftLine struct {
	AccountID     id.ID
	Debit         types.Money
	Credit        types.Money
	VatCodeID     *id.ID
	VatAmount     types.Money
	VatBaseAmount types.Money
	VatCountry    string
	ReverseCharge bool
	PartyRef      string
	Description   string
}

// CreateDraftInput carries everything needed to create a draft entry.
type CreateDraftInput struct {
	EntryDate   time.Time
	Description string
	DocumentRef string
	SourceType  string
	Lines       []DraftLine
}

// Service provides the journal engine operations.
//
// Post and Reverse run serializable with the resolved period row locked,
// so the balance/status check and the write commit or fail as one unit.
type Service struct {
	repo      Repository
	accounts  account.Repository
	periods   period.Repository
	numbers   numerator.Generator
	txManager tx.Manager
	recorder  audit.Recorder
}

// NewService creates a new journal service.
func NewService(
	repo Repository,
	accounts account.Repository,
	periods period.Repository,
	numbers numerator.Generator,
	txManager tx.Manager,
	recorder audit.Recorder,
) *Service {
	return &Service{
		repo:      repo,
		accounts:  accounts,
		periods:   periods,
		numbers:   numbers,
		txManager: txManager,
		recorder:  recorder,
	}
}

// CreateDraft validates and stores a draft entry. Every referenced account
// must exist, be active and belong to the tenant. Line numbers are assigned
// sequentially from 1; totals are computed, never supplied.
func (s *Service) CreateDraft(ctx context.Context, input CreateDraftInput) (*Entry, error) {
	tenantID, err := tenant.FromContext(ctx)
	if err != nil {
		return nil, apperror.NewInternal(err)
	}

	entry := NewEntry(tenantID, input.EntryDate, input.Description)
	entry.DocumentRef = input.DocumentRef
	entry.SourceType = input.SourceType
	entry.CreatedBy = appctx.GetActorID(ctx)
	entry.SetLines(draftLinesToLines(input.Lines))

	if err := entry.Validate(ctx); err != nil {
		return nil, err
	}
	if err := s.checkAccounts(ctx, tenantID, entry); err != nil {
		return nil, err
	}

	err = s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		return s.repo.Create(ctx, entry)
	})
	if err != nil {
		return nil, err
	}

	s.record(ctx, entry.ID, audit.ActionCreate, map[string]any{
		"status":       entry.Status,
		"total_debit":  entry.TotalDebit.String(),
		"total_credit": entry.TotalCredit.String(),
		"document_ref": entry.DocumentRef,
	})

	return entry, nil
}

// UpdateDraft replaces a draft's lines and header fields.
// Posted entries are immutable; attempting to edit one fails.
func (s *Service) UpdateDraft(ctx context.Context, entryID id.ID, input CreateDraftInput) (*Entry, error) {
	tenantID, err := tenant.FromContext(ctx)
	if err != nil {
		return nil, apperror.NewInternal(err)
	}

	var entry *Entry
	err = s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		entry, err = s.repo.GetForUpdate(ctx, tenantID, entryID)
		if err != nil {
			return err
		}
		if err := entry.CanModify(); err != nil {
			return err
		}

		entry.EntryDate = input.EntryDate
		entry.Description = input.Description
		entry.DocumentRef = input.DocumentRef
		entry.SetLines(draftLinesToLines(input.Lines))

		if err := entry.Validate(ctx); err != nil {
			return err
		}
		if err := s.checkAccounts(ctx, tenantID, entry); err != nil {
			return err
		}

		entry.Touch()
		if err := s.repo.Update(ctx, entry); err != nil {
			return err
		}
		return s.repo.SaveLines(ctx, entry.ID, entry.Lines)
	})
	if err != nil {
		return nil, err
	}

	s.record(ctx, entry.ID, audit.ActionUpdate, map[string]any{
		"total_debit":  entry.TotalDebit.String(),
		"total_credit": entry.TotalCredit.String(),
	})

	return entry, nil
}

// Post makes a draft entry final. In one serializable transaction it
// verifies the entry is an unposted balanced draft, resolves and locks the
// accounting period covering the entry date, allocates the entry number
// from the tenant+year counter, and stamps the posting fields.
func (s *Service) Post(ctx context.Context, entryID id.ID) (*Entry, error) {
	tenantID, err := tenant.FromContext(ctx)
	if err != nil {
		return nil, apperror.NewInternal(err)
	}
	actor := appctx.GetActorID(ctx)

	var entry *Entry
	err = s.txManager.RunSerializable(ctx, func(ctx context.Context) error {
		entry, err = s.repo.GetForUpdate(ctx, tenantID, entryID)
		if err != nil {
			return err
		}

		if entry.Status != StatusDraft {
			return apperror.NewAlreadyPosted(entry.ID.String(), string(entry.Status))
		}
		if len(entry.Lines) == 0 {
			return apperror.NewValidation("cannot post entry without lines").
				WithDetail("entry_id", entry.ID.String())
		}
		if !entry.IsBalanced() {
			return apperror.NewNotBalanced(entry.ID.String(),
				entry.TotalDebit.String(), entry.TotalCredit.String())
		}

		p, err := s.resolvePeriodForUpdate(ctx, tenantID, entry.EntryDate)
		if err != nil {
			return err
		}
		if !p.CanAcceptPostings() {
			return apperror.NewPeriodLocked(p.ID.String(), string(p.Status))
		}

		number, err := s.numbers.GetNextNumber(ctx, numerator.JournalEntryConfig(), nil, entry.EntryDate)
		if err != nil {
			return fmt.Errorf("allocate entry number: %w", err)
		}

		entry.MarkPosted(number, p.ID, actor)
		return s.repo.Update(ctx, entry)
	})
	if err != nil {
		return nil, err
	}

	s.record(ctx, entry.ID, audit.ActionPost, map[string]any{
		"number":    entry.Number,
		"period_id": entry.PeriodID.String(),
	})

	logger.Info(ctx, "journal entry posted",
		"entry_id", entry.ID,
		"number", entry.Number)

	return entry, nil
}

// Reverse counters a POSTED entry with a new balanced entry whose lines
// have debit and credit swapped. The reversal is dated in the current open
// period (never inside a finalized or locked one), posted immediately, and
// linked both directions. The original is never mutated beyond its status
// and reversal pointer.
func (s *Service) Reverse(ctx context.Context, entryID id.ID, actor string) (*Entry, error) {
	tenantID, err := tenant.FromContext(ctx)
	if err != nil {
		return nil, apperror.NewInternal(err)
	}
	if actor == "" {
		actor = appctx.GetActorID(ctx)
	}

	var reversal *Entry
	err = s.txManager.RunSerializable(ctx, func(ctx context.Context) error {
		original, err := s.repo.GetForUpdate(ctx, tenantID, entryID)
		if err != nil {
			return err
		}

		if original.Status == StatusReversed || original.ReversedByID != nil {
			e := apperror.NewConflict("entry is already reversed").
				WithDetail("entry_id", original.ID.String())
			if original.ReversedByID != nil {
				e = e.WithDetail("reversed_by", original.ReversedByID.String())
			}
			return e
		}
		if original.Status != StatusPosted {
			return apperror.NewValidation("only posted entries can be reversed").
				WithDetail("entry_id", original.ID.String()).
				WithDetail("status", string(original.Status))
		}

		reversalDate := time.Now().UTC()
		p, err := s.resolvePeriodForUpdate(ctx, tenantID, reversalDate)
		if err != nil {
			return err
		}
		if !p.CanAcceptPostings() {
			return apperror.NewPeriodLocked(p.ID.String(), string(p.Status))
		}

		reversal = NewEntry(tenantID, reversalDate, "Reversal of "+original.Number)
		reversal.DocumentRef = original.DocumentRef
		reversal.SourceType = original.SourceType
		reversal.CreatedBy = actor
		reversal.ReversesID = &original.ID
		reversal.SetLines(original.ReversalLines())

		number, err := s.numbers.GetNextNumber(ctx, numerator.JournalEntryConfig(), nil, reversalDate)
		if err != nil {
			return fmt.Errorf("allocate entry number: %w", err)
		}
		reversal.MarkPosted(number, p.ID, actor)

		if err := s.repo.Create(ctx, reversal); err != nil {
			return err
		}

		original.Status = StatusReversed
		original.ReversedByID = &reversal.ID
		original.Touch()
		return s.repo.Update(ctx, original)
	})
	if err != nil {
		return nil, err
	}

	s.record(ctx, entryID, audit.ActionReverse, map[string]any{
		"reversed_by": reversal.ID.String(),
		"number":      reversal.Number,
	})

	logger.Info(ctx, "journal entry reversed",
		"entry_id", entryID,
		"reversal_id", reversal.ID,
		"reversal_number", reversal.Number)

	return reversal, nil
}

// GetByID retrieves an entry with its lines.
func (s *Service) GetByID(ctx context.Context, entryID id.ID) (*Entry, error) {
	tenantID, err := tenant.FromContext(ctx)
	if err != nil {
		return nil, apperror.NewInternal(err)
	}
	return s.repo.GetByID(ctx, tenantID, entryID)
}

// List retrieves entries with filtering.
func (s *Service) List(ctx context.Context, filter ListFilter) (domain.ListResult[*Entry], error) {
	tenantID, err := tenant.FromContext(ctx)
	if err != nil {
		return domain.ListResult[*Entry]{}, apperror.NewInternal(err)
	}
	return s.repo.List(ctx, tenantID, filter)
}

// resolvePeriodForUpdate locks the period covering date.
func (s *Service) resolvePeriodForUpdate(ctx context.Context, tenantID id.ID, date time.Time) (*period.Period, error) {
	p, err := s.periods.FindByDateForUpdate(ctx, tenantID, date)
	if err != nil {
		if apperror.IsNotFound(err) {
			return nil, apperror.NewValidation("no accounting period covers the entry date").
				WithDetail("entry_date", date.Format("2006-01-02"))
		}
		return nil, err
	}
	return p, nil
}

// checkAccounts verifies every line's account exists, is active and
// belongs to the tenant.
func (s *Service) checkAccounts(ctx context.Context, tenantID id.ID, entry *Entry) error {
	accountIDs := make([]id.ID, 0, len(entry.Lines))
	seen := make(map[id.ID]bool, len(entry.Lines))
	for _, line := range entry.Lines {
		if !seen[line.AccountID] {
			seen[line.AccountID] = true
			accountIDs = append(accountIDs, line.AccountID)
		}
	}

	accounts, err := s.accounts.GetByIDs(ctx, tenantID, accountIDs)
	if err != nil {
		return fmt.Errorf("load accounts: %w", err)
	}

	for _, line := range entry.Lines {
		acc, ok := accounts[line.AccountID]
		if !ok {
			return apperror.NewValidation("account does not exist or belongs to another tenant").
				WithDetail("account_id", line.AccountID.String()).
				WithDetail("line_no", line.LineNo)
		}
		if !acc.Active {
			return apperror.NewValidation("account is inactive").
				WithDetail("account_id", line.AccountID.String()).
				WithDetail("account_code", acc.Code).
				WithDetail("line_no", line.LineNo)
		}
	}
	return nil
}

func draftLinesToLines(drafts []DraftLine) []Line {
	lines := make([]Line, len(drafts))
	for i, d := range drafts {
		lines[i] = Line{
			AccountID:     d.AccountID,
			Debit:         d.Debit,
			Credit:        d.Credit,
			VatCodeID:     d.VatCodeID,
			VatAmount:     d.VatAmount,
			VatBaseAmount: d.VatBaseAmount,
			VatCountry:    d.VatCountry,
			ReverseCharge: d.ReverseCharge,
			PartyRef:      d.PartyRef,
			Description:   d.Description,
		}
	}
	return lines
}

func (s *Service) record(ctx context.Context, entryID id.ID, action audit.Action, changes map[string]any) {
	err := s.recorder.Record(ctx, audit.Event{
		EntityType: "JournalEntry",
		EntityID:   entryID,
		Action:     action,
		Actor:      appctx.GetActorID(ctx),
		Changes:    changes,
	})
	if err != nil {
		logger.Warn(ctx, "audit record failed",
			"entity_type", "JournalEntry",
			"entity_id", entryID,
			"error", err)
	}
}
