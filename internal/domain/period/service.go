package period

import (
	"context"
	"fmt"
	"time"

	"grootboek/internal/core/apperror"
	appctx "grootboek/internal/core/context"
	"grootboek/internal/core/id"
	"grootboek/internal/core/tenant"
	"grootboek/internal/core/tx"
	"grootboek/internal/domain"
	"grootboek/internal/domain/audit"
	"grootboek/pkg/logger"
)

// Service drives the accounting-period state machine.
//
// Finalize and Lock are check-then-act sequences; both take the period row
// lock and run serializable so they cannot race a concurrent posting.
type Service struct {
	repo      Repository
	drafts    DraftSource
	lineage   LineageRebuilder
	snapshots SnapshotBuilder
	txManager tx.Manager
	recorder  audit.Recorder
}

// NewService creates a new period service.
func NewService(
	repo Repository,
	drafts DraftSource,
	lineage LineageRebuilder,
	snapshots SnapshotBuilder,
	txManager tx.Manager,
	recorder audit.Recorder,
) *Service {
	return &Service{
		repo:      repo,
		drafts:    drafts,
		lineage:   lineage,
		snapshots: snapshots,
		txManager: txManager,
		recorder:  recorder,
	}
}

// Create opens a new accounting period at tenant rollover.
// Periods of one tenant may never overlap.
func (s *Service) Create(ctx context.Context, p *Period) error {
	tenantID, err := tenant.FromContext(ctx)
	if err != nil {
		return apperror.NewInternal(err)
	}
	p.TenantID = tenantID

	if err := p.Validate(ctx); err != nil {
		return err
	}

	// Check-then-insert must serialize: two concurrent creates could
	// otherwise both pass the overlap check and commit. An exclusion
	// constraint on the table backstops this.
	return s.txManager.RunSerializable(ctx, func(ctx context.Context) error {
		overlaps, err := s.repo.ExistsOverlapping(ctx, tenantID, p.StartDate, p.EndDate)
		if err != nil {
			return fmt.Errorf("check overlap: %w", err)
		}
		if overlaps {
			return apperror.NewConflict("period overlaps an existing period").
				WithDetail("start", p.StartDate).
				WithDetail("end", p.EndDate)
		}
		return s.repo.Create(ctx, p)
	})
}

// StartReview moves an OPEN period to REVIEW. Calling it on a period
// already in REVIEW is an idempotent no-op.
func (s *Service) StartReview(ctx context.Context, periodID id.ID, actor string) error {
	tenantID, err := tenant.FromContext(ctx)
	if err != nil {
		return apperror.NewInternal(err)
	}

	var transitioned bool
	err = s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		p, err := s.repo.GetForUpdate(ctx, tenantID, periodID)
		if err != nil {
			return err
		}

		if p.Status == StatusReview {
			return nil // idempotent
		}
		if !p.Status.CanTransitionTo(StatusReview) {
			return apperror.NewInvalidTransition(p.ID.String(), string(p.Status), string(StatusReview))
		}

		from := p.Status
		now := time.Now().UTC()
		p.Status = StatusReview
		p.ReviewStartedAt = &now
		p.ReviewStartedBy = actor
		p.Touch()

		if err := s.repo.Update(ctx, p); err != nil {
			return err
		}
		if err := s.repo.AppendAuditRow(ctx, NewAuditRow(p, from, StatusReview, actor, nil)); err != nil {
			return fmt.Errorf("append audit row: %w", err)
		}
		transitioned = true
		return nil
	})
	if err != nil {
		return err
	}

	if transitioned {
		s.record(ctx, periodID, audit.ActionReview, actor, map[string]any{"status": StatusReview})
	}
	return nil
}

// Finalize closes a period: verifies no drafts remain inside it, rebuilds
// the VAT box lineage, freezes the financial statements into exactly one
// snapshot, and flips the status - all in one transaction.
func (s *Service) Finalize(ctx context.Context, periodID id.ID, actor string) error {
	tenantID, err := tenant.FromContext(ctx)
	if err != nil {
		return apperror.NewInternal(err)
	}

	var snapshotID id.ID
	err = s.txManager.RunSerializable(ctx, func(ctx context.Context) error {
		p, err := s.repo.GetForUpdate(ctx, tenantID, periodID)
		if err != nil {
			return err
		}

		if !p.Status.CanTransitionTo(StatusFinalized) {
			return apperror.NewInvalidTransition(p.ID.String(), string(p.Status), string(StatusFinalized))
		}

		draftIDs, err := s.drafts.ListDraftEntryIDs(ctx, tenantID, p.StartDate, p.EndDate)
		if err != nil {
			return fmt.Errorf("list drafts: %w", err)
		}
		if len(draftIDs) > 0 {
			ids := make([]string, len(draftIDs))
			for i, entryID := range draftIDs {
				ids[i] = entryID.String()
			}
			return apperror.NewPeriodHasDrafts(p.ID.String(), ids)
		}

		if err := s.lineage.RebuildInTx(ctx, tenantID, p.ID); err != nil {
			return fmt.Errorf("rebuild vat lineage: %w", err)
		}

		snapshotID, err = s.snapshots.BuildForPeriod(ctx, p, actor)
		if err != nil {
			return fmt.Errorf("build snapshot: %w", err)
		}

		from := p.Status
		now := time.Now().UTC()
		p.Status = StatusFinalized
		p.FinalizedAt = &now
		p.FinalizedBy = actor
		p.Touch()

		if err := s.repo.Update(ctx, p); err != nil {
			return err
		}
		return s.repo.AppendAuditRow(ctx, NewAuditRow(p, from, StatusFinalized, actor, &snapshotID))
	})
	if err != nil {
		return err
	}

	s.record(ctx, periodID, audit.ActionFinalize, actor, map[string]any{
		"status":      StatusFinalized,
		"snapshot_id": snapshotID.String(),
	})

	logger.Info(ctx, "period finalized",
		"period_id", periodID,
		"snapshot_id", snapshotID)

	return nil
}

// Lock hard-freezes a FINALIZED period. LOCKED is terminal; reversals of
// its entries must land in a later open period.
func (s *Service) Lock(ctx context.Context, periodID id.ID, actor string) error {
	tenantID, err := tenant.FromContext(ctx)
	if err != nil {
		return apperror.NewInternal(err)
	}

	err = s.txManager.RunSerializable(ctx, func(ctx context.Context) error {
		p, err := s.repo.GetForUpdate(ctx, tenantID, periodID)
		if err != nil {
			return err
		}

		if !p.Status.CanTransitionTo(StatusLocked) {
			return apperror.NewInvalidTransition(p.ID.String(), string(p.Status), string(StatusLocked))
		}

		from := p.Status
		now := time.Now().UTC()
		p.Status = StatusLocked
		p.LockedAt = &now
		p.LockedBy = actor
		p.Touch()

		if err := s.repo.Update(ctx, p); err != nil {
			return err
		}
		return s.repo.AppendAuditRow(ctx, NewAuditRow(p, from, StatusLocked, actor, nil))
	})
	if err != nil {
		return err
	}

	s.record(ctx, periodID, audit.ActionLock, actor, map[string]any{"status": StatusLocked})
	return nil
}

// CanAcceptPostings reports whether the period containing date accepts
// new postings.
func (s *Service) CanAcceptPostings(ctx context.Context, date time.Time) (bool, error) {
	tenantID, err := tenant.FromContext(ctx)
	if err != nil {
		return false, apperror.NewInternal(err)
	}

	p, err := s.repo.FindByDate(ctx, tenantID, date)
	if err != nil {
		if apperror.IsNotFound(err) {
			return false, nil
		}
		return false, err
	}
	return p.CanAcceptPostings(), nil
}

// GetByID retrieves a period.
func (s *Service) GetByID(ctx context.Context, periodID id.ID) (*Period, error) {
	tenantID, err := tenant.FromContext(ctx)
	if err != nil {
		return nil, apperror.NewInternal(err)
	}
	return s.repo.GetByID(ctx, tenantID, periodID)
}

// List retrieves periods with filtering.
func (s *Service) List(ctx context.Context, filter domain.ListFilter) (domain.ListResult[*Period], error) {
	tenantID, err := tenant.FromContext(ctx)
	if err != nil {
		return domain.ListResult[*Period]{}, apperror.NewInternal(err)
	}
	return s.repo.List(ctx, tenantID, filter)
}

// History returns the append-only transition trail of a period.
func (s *Service) History(ctx context.Context, periodID id.ID) ([]AuditRow, error) {
	tenantID, err := tenant.FromContext(ctx)
	if err != nil {
		return nil, apperror.NewInternal(err)
	}
	return s.repo.ListAuditRows(ctx, tenantID, periodID)
}

func (s *Service) record(ctx context.Context, periodID id.ID, action audit.Action, actor string, changes map[string]any) {
	if actor == "" {
		actor = appctx.GetActorID(ctx)
	}
	err := s.recorder.Record(ctx, audit.Event{
		EntityType: "AccountingPeriod",
		EntityID:   periodID,
		Action:     action,
		Actor:      actor,
		Changes:    changes,
	})
	if err != nil {
		logger.Warn(ctx, "audit record failed",
			"entity_type", "AccountingPeriod",
			"entity_id", periodID,
			"error", err)
	}
}
