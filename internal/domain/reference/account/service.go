// Package account provides the Chart of Accounts service.
package account

import (
	"context"
	"fmt"

	"grootboek/internal/core/apperror"
	appctx "grootboek/internal/core/context"
	"grootboek/internal/core/id"
	"grootboek/internal/core/tenant"
	"grootboek/internal/core/tx"
	"grootboek/internal/domain"
	"grootboek/internal/domain/audit"
	"grootboek/pkg/logger"
)

// Service provides business operations for the chart of accounts.
type Service struct {
	repo      Repository
	txManager tx.Manager
	recorder  audit.Recorder
}

// NewService creates a new account service.
func NewService(repo Repository, txManager tx.Manager, recorder audit.Recorder) *Service {
	return &Service{
		repo:      repo,
		txManager: txManager,
		recorder:  recorder,
	}
}

// Create adds an account to the tenant's chart.
func (s *Service) Create(ctx context.Context, acc *Account) error {
	tenantID, err := tenant.FromContext(ctx)
	if err != nil {
		return apperror.NewInternal(err)
	}
	acc.TenantID = tenantID

	if err := acc.Validate(ctx); err != nil {
		return err
	}

	exists, err := s.repo.ExistsByCode(ctx, tenantID, acc.Code)
	if err != nil {
		return fmt.Errorf("check code: %w", err)
	}
	if exists {
		return apperror.NewDuplicate("account", "code", acc.Code)
	}

	err = s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		return s.repo.Create(ctx, acc)
	})
	if err != nil {
		return err
	}

	s.record(ctx, audit.Event{
		EntityType: "Account",
		EntityID:   acc.ID,
		Action:     audit.ActionCreate,
		Changes:    map[string]any{"code": acc.Code, "name": acc.Name, "type": acc.Type},
	})

	return nil
}

// Update modifies an account. Once the account is referenced by a posted
// line only the name may change; code, type, parent and active flag are
// frozen.
func (s *Service) Update(ctx context.Context, acc *Account) error {
	tenantID, err := tenant.FromContext(ctx)
	if err != nil {
		return apperror.NewInternal(err)
	}

	if err := acc.Validate(ctx); err != nil {
		return err
	}

	current, err := s.repo.GetByID(ctx, tenantID, acc.ID)
	if err != nil {
		return err
	}

	referenced, err := s.repo.IsReferenced(ctx, tenantID, acc.ID)
	if err != nil {
		return fmt.Errorf("check references: %w", err)
	}
	if referenced && !renameOnly(current, acc) {
		return apperror.NewAccountReferenced(acc.ID.String())
	}

	err = s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		return s.repo.Update(ctx, acc)
	})
	if err != nil {
		return err
	}

	s.record(ctx, audit.Event{
		EntityType: "Account",
		EntityID:   acc.ID,
		Action:     audit.ActionUpdate,
		Changes:    map[string]any{"name": map[string]any{"old": current.Name, "new": acc.Name}},
	})

	return nil
}

// renameOnly reports whether new differs from old in name alone.
func renameOnly(old, new *Account) bool {
	if old.Code != new.Code || old.Type != new.Type || old.Active != new.Active {
		return false
	}
	if (old.ParentID == nil) != (new.ParentID == nil) {
		return false
	}
	if old.ParentID != nil && *old.ParentID != *new.ParentID {
		return false
	}
	return true
}

// GetByID retrieves an account.
func (s *Service) GetByID(ctx context.Context, accountID id.ID) (*Account, error) {
	tenantID, err := tenant.FromContext(ctx)
	if err != nil {
		return nil, apperror.NewInternal(err)
	}
	return s.repo.GetByID(ctx, tenantID, accountID)
}

// GetByCode retrieves an account by its chart code.
func (s *Service) GetByCode(ctx context.Context, code string) (*Account, error) {
	tenantID, err := tenant.FromContext(ctx)
	if err != nil {
		return nil, apperror.NewInternal(err)
	}
	return s.repo.GetByCode(ctx, tenantID, code)
}

// List retrieves accounts with filtering.
func (s *Service) List(ctx context.Context, filter domain.ListFilter) (domain.ListResult[*Account], error) {
	tenantID, err := tenant.FromContext(ctx)
	if err != nil {
		return domain.ListResult[*Account]{}, apperror.NewInternal(err)
	}
	return s.repo.List(ctx, tenantID, filter)
}

func (s *Service) record(ctx context.Context, event audit.Event) {
	event.Actor = appctx.GetActorID(ctx)
	if err := s.recorder.Record(ctx, event); err != nil {
		logger.Warn(ctx, "audit record failed",
			"entity_type", event.EntityType,
			"entity_id", event.EntityID,
			"error", err)
	}
}
