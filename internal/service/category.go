package service

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/BeyzaNurKeskinn/Trinity-Password-Manager/internal/domain"
	"github.com/BeyzaNurKeskinn/Trinity-Password-Manager/internal/repository"
	apperrors "github.com/BeyzaNurKeskinn/Trinity-Password-Manager/pkg/errors"
)

// CategoryService manages credential categories.
type CategoryService struct {
	categories repository.CategoryRepository
	audit      auditor
	now        func() time.Time
	logger     *slog.Logger
}

// NewCategoryService creates a category service.
func NewCategoryService(categories repository.CategoryRepository, auditLogs repository.AuditLogRepository, logger *slog.Logger, opts ...Option) *CategoryService {
	o := buildOptions(opts)
	return &CategoryService{
		categories: categories,
		audit:      auditor{repo: auditLogs, now: o.now, logger: logger},
		now:        o.now,
		logger:     logger,
	}
}

// CategoryInput holds the fields an administrator sets on a category. An
// empty Status means ACTIVE.
type CategoryInput struct {
	Name        string
	Description string
	Status      domain.Status
}

func categoryStatus(s domain.Status) (domain.Status, error) {
	switch s {
	case "":
		return domain.StatusActive, nil
	case domain.StatusActive, domain.StatusInactive:
		return s, nil
	}
	return "", apperrors.InvalidInput("status must be ACTIVE or INACTIVE")
}

// ListActive returns the categories users can file credentials under.
func (s *CategoryService) ListActive(ctx context.Context) ([]domain.Category, error) {
	cats, err := s.categories.ListByStatus(ctx, domain.StatusActive)
	if err != nil {
		return nil, fmt.Errorf("list active categories: %w", err)
	}
	return cats, nil
}

// List returns every category.
func (s *CategoryService) List(ctx context.Context) ([]domain.Category, error) {
	cats, err := s.categories.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list categories: %w", err)
	}
	return cats, nil
}

// Create adds a category. Names are unique.
func (s *CategoryService) Create(ctx context.Context, actor string, input CategoryInput) (*domain.Category, error) {
	status, err := categoryStatus(input.Status)
	if err != nil {
		return nil, err
	}

	now := s.now().UTC()
	cat := &domain.Category{
		ID:          uuid.New(),
		Name:        strings.TrimSpace(input.Name),
		Description: input.Description,
		Status:      status,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := s.categories.Create(ctx, cat); err != nil {
		return nil, fmt.Errorf("create category: %w", err)
	}

	s.audit.record(ctx, actor, "category created: "+cat.Name)
	return cat, nil
}

// Update rewrites a category.
func (s *CategoryService) Update(ctx context.Context, actor string, id uuid.UUID, input CategoryInput) (*domain.Category, error) {
	status, err := categoryStatus(input.Status)
	if err != nil {
		return nil, err
	}
	cat, err := s.categories.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	cat.Name = strings.TrimSpace(input.Name)
	cat.Description = input.Description
	cat.Status = status
	cat.UpdatedAt = s.now().UTC()
	if err := s.categories.Update(ctx, cat); err != nil {
		return nil, fmt.Errorf("update category: %w", err)
	}

	s.audit.record(ctx, actor, "category updated: "+cat.Name)
	return cat, nil
}

// Delete marks a category INACTIVE. Credentials filed under it keep their
// reference.
func (s *CategoryService) Delete(ctx context.Context, actor string, id uuid.UUID) error {
	cat, err := s.categories.GetByID(ctx, id)
	if err != nil {
		return err
	}

	cat.Status = domain.StatusInactive
	cat.UpdatedAt = s.now().UTC()
	if err := s.categories.Update(ctx, cat); err != nil {
		return fmt.Errorf("delete category: %w", err)
	}

	s.audit.record(ctx, actor, "category deleted: "+cat.Name)
	return nil
}
