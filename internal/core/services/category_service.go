package services

import (
	"context"
	"fmt"
	"strings"

	"github.com/vncsmyrnk/fintrack/internal/core/domain"
	"github.com/vncsmyrnk/fintrack/internal/core/ports"
)

type CategoryService struct {
	repo ports.CategoryRepository
}

func NewCategoryService(repo ports.CategoryRepository) *CategoryService {
	return &CategoryService{repo: repo}
}

func (s *CategoryService) List(ctx context.Context, userID int64) ([]*domain.Category, error) {
	categories, err := s.repo.ListByUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list categories: %w", err)
	}
	return categories, nil
}

func (s *CategoryService) Create(ctx context.Context, userID int64, input ports.CreateCategoryInput) (*domain.Category, error) {
	category := &domain.Category{
		Name:   strings.TrimSpace(input.Name),
		Color:  input.Color,
		UserID: userID,
	}
	if err := s.repo.Create(ctx, category); err != nil {
		return nil, fmt.Errorf("failed to create category: %w", err)
	}
	return category, nil
}

func (s *CategoryService) Delete(ctx context.Context, userID, id int64) error {
	n, err := s.repo.Delete(ctx, userID, id)
	if err != nil {
		return fmt.Errorf("failed to delete category: %w", err)
	}
	if n == 0 {
		return domain.ErrCategoryNotFound
	}
	return nil
}

type PaymentMethodService struct {
	repo ports.PaymentMethodRepository
}

func NewPaymentMethodService(repo ports.PaymentMethodRepository) *PaymentMethodService {
	return &PaymentMethodService{repo: repo}
}

func (s *PaymentMethodService) List(ctx context.Context, userID int64) ([]*domain.PaymentMethod, error) {
	methods, err := s.repo.ListByUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list payment methods: %w", err)
	}
	return methods, nil
}

func (s *PaymentMethodService) Create(ctx context.Context, userID int64, name string) (*domain.PaymentMethod, error) {
	method := &domain.PaymentMethod{
		Name:   strings.TrimSpace(name),
		UserID: userID,
	}
	if err := s.repo.Create(ctx, method); err != nil {
		return nil, fmt.Errorf("failed to create payment method: %w", err)
	}
	return method, nil
}

func (s *PaymentMethodService) Delete(ctx context.Context, userID, id int64) error {
	n, err := s.repo.Delete(ctx, userID, id)
	if err != nil {
		return fmt.Errorf("failed to delete payment method: %w", err)
	}
	if n == 0 {
		return domain.ErrPaymentMethodNotFound
	}
	return nil
}
