package ports

import (
	"context"
	"time"

	"github.com/vncsmyrnk/fintrack/internal/core/domain"
)

type CategoryRepository interface {
	ListByUser(ctx context.Context, userID int64) ([]*domain.Category, error)
	GetByID(ctx context.Context, userID, id int64) (*domain.Category, error)
	Create(ctx context.Context, category *domain.Category) error
	Delete(ctx context.Context, userID, id int64) (int64, error)
}

type CreateCategoryInput struct {
	Name  string
	Color string
}

type CategoryService interface {
	List(ctx context.Context, userID int64) ([]*domain.Category, error)
	Create(ctx context.Context, userID int64, input CreateCategoryInput) (*domain.Category, error)
	Delete(ctx context.Context, userID, id int64) error
}

type PaymentMethodRepository interface {
	ListByUser(ctx context.Context, userID int64) ([]*domain.PaymentMethod, error)
	GetByID(ctx context.Context, userID, id int64) (*domain.PaymentMethod, error)
	Create(ctx context.Context, method *domain.PaymentMethod) error
	Delete(ctx context.Context, userID, id int64) (int64, error)
}

type PaymentMethodService interface {
	List(ctx context.Context, userID int64) ([]*domain.PaymentMethod, error)
	Create(ctx context.Context, userID int64, name string) (*domain.PaymentMethod, error)
	Delete(ctx context.Context, userID, id int64) error
}

type TransactionRepository interface {
	ListByUser(ctx context.Context, userID int64) ([]*domain.Transaction, error)
	Create(ctx context.Context, tx *domain.Transaction) error
	Delete(ctx context.Context, userID, id int64) (int64, error)
	Summarize(ctx context.Context, userID int64) (*domain.Summary, error)
}

type CreateTransactionInput struct {
	Description     string
	Amount          float64
	Date            time.Time
	CategoryID      int64
	PaymentMethodID int64
}

type TransactionService interface {
	List(ctx context.Context, userID int64) ([]*domain.Transaction, error)
	Create(ctx context.Context, userID int64, input CreateTransactionInput) (*domain.Transaction, error)
	Delete(ctx context.Context, userID, id int64) error
	Summary(ctx context.Context, userID int64) (*domain.Summary, error)
}
