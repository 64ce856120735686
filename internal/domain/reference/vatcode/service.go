package vatcode

import (
	"context"
	"fmt"

	"grootboek/internal/core/apperror"
	appctx "grootboek/internal/core/context"
	"grootboek/internal/core/id"
	"grootboek/internal/core/tx"
	"grootboek/internal/domain"
	"grootboek/internal/domain/audit"
	"grootboek/pkg/logger"
)

// Service provides business operations for the VAT code catalog.
type Service struct {
	repo      Repository
	txManager tx.Manager
	recorder  audit.Recorder
}

// NewService creates a new VAT code service.
func NewService(repo Repository, txManager tx.Manager, recorder audit.Recorder) *Service {
	return &Service{
		repo:      repo,
		txManager: txManager,
		recorder:  recorder,
	}
}

// Create adds a VAT code to the catalog.
func (s *Service) Create(ctx context.Context, code *VatCode) error {
	if err := code.Validate(ctx); err != nil {
		return err
	}

	exists, err := s.repo.ExistsByCode(ctx, code.Code)
	if err != nil {
		return fmt.Errorf("check code: %w", err)
	}
	if exists {
		return apperror.NewDuplicate("vat code", "code", code.Code)
	}

	err = s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		return s.repo.Create(ctx, code)
	})
	if err != nil {
		return err
	}

	s.record(ctx, audit.Event{
		EntityType: "VatCode",
		EntityID:   code.ID,
		Action:     audit.ActionCreate,
		Changes:    map[string]any{"code": code.Code, "rate": code.Rate.String(), "category": code.Category},
	})

	return nil
}

// Update modifies a VAT code.
func (s *Service) Update(ctx context.Context, code *VatCode) error {
	if err := code.Validate(ctx); err != nil {
		return err
	}

	err := s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		return s.repo.Update(ctx, code)
	})
	if err != nil {
		return err
	}

	s.record(ctx, audit.Event{
		EntityType: "VatCode",
		EntityID:   code.ID,
		Action:     audit.ActionUpdate,
		Changes:    map[string]any{"code": code.Code},
	})

	return nil
}

// GetByID retrieves a VAT code.
func (s *Service) GetByID(ctx context.Context, codeID id.ID) (*VatCode, error) {
	return s.repo.GetByID(ctx, codeID)
}

// GetByCode retrieves a VAT code by its catalog code.
func (s *Service) GetByCode(ctx context.Context, code string) (*VatCode, error) {
	return s.repo.GetByCode(ctx, code)
}

// List retrieves VAT codes with filtering.
func (s *Service) List(ctx context.Context, filter domain.ListFilter) (domain.ListResult[*VatCode], error) {
	return s.repo.List(ctx, filter)
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
