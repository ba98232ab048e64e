package services

import (
	"context"
	"fmt"
	"strings"

	"github.com/vncsmyrnk/fintrack/internal/core/domain"
	"github.com/vncsmyrnk/fintrack/internal/core/ports"
)

type TransactionService struct {
	repo       ports.TransactionRepository
	categories ports.CategoryRepository
	methods    ports.PaymentMethodRepository
}

func NewTransactionService(repo ports.TransactionRepository, categories ports.CategoryRepository, methods ports.PaymentMethodRepository) *TransactionService {
	return &TransactionService{
		repo:       repo,
		categories: categories,
		methods:    methods,
	}
}

func (s *TransactionService) List(ctx context.Context, userID int64) ([]*domain.Transaction, error) {
	txs, err := s.repo.ListByUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list transactions: %w", err)
	}
	return txs, nil
}

// Create records a transaction. The category and payment method must both
// belong to userID.
func (s *TransactionService) Create(ctx context.Context, userID int64, input ports.CreateTransactionInput) (*domain.Transaction, error) {
	category, err := s.categories.GetByID(ctx, userID, input.CategoryID)
	if err != nil {
		return nil, fmt.Errorf("failed to get category: %w", err)
	}
	if category == nil {
		return nil, domain.ErrCategoryNotFound
	}

	method, err := s.methods.GetByID(ctx, userID, input.PaymentMethodID)
	if err != nil {
		return nil, fmt.Errorf("failed to get payment method: %w", err)
	}
	if method == nil {
		return nil, domain.ErrPaymentMethodNotFound
	}

	tx := &domain.Transaction{
		Description:     strings.TrimSpace(input.Description),
		Amount:          input.Amount,
		Date:            input.Date,
		CategoryID:      category.ID,
		PaymentMethodID: method.ID,
		UserID:          userID,
		Category:        &domain.Reference{ID: category.ID, Name: category.Name},
		PaymentMethod:   &domain.Reference{ID: method.ID, Name: method.Name},
	}
	if err := s.repo.Create(ctx, tx); err != nil {
		return nil, fmt.Errorf("failed to create transaction: %w", err)
	}
	return tx, nil
}

func (s *TransactionService) Delete(ctx context.Context, userID, id int64) error {
	n, err := s.repo.Delete(ctx, userID, id)
	if err != nil {
		return fmt.Errorf("failed to delete transaction: %w", err)
	}
	if n == 0 {
		return domain.ErrTransactionNotFound
	}
	return nil
}

func (s *TransactionService) Summary(ctx context.Context, userID int64) (*domain.Summary, error) {
	summary, err := s.repo.Summarize(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to summarize transactions: %w", err)
	}
	return summary, nil
}
