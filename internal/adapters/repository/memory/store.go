// Package memory is an in-process record store implementing the repository
// ports. It backs local development without Postgres and the service and
// handler tests.
package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/vncsmyrnk/fintrack/internal/core/domain"
)

// Store holds every table behind one lock, so multi-table reads (transactions
// joined with categories) see a consistent snapshot.
type Store struct {
	mu sync.RWMutex

	users          map[int64]domain.User
	sessions       map[uuid.UUID]domain.RefreshSession
	categories     map[int64]domain.Category
	paymentMethods map[int64]domain.PaymentMethod
	transactions   map[int64]domain.Transaction

	nextID int64
}

func NewStore() *Store {
	return &Store{
		users:          make(map[int64]domain.User),
		sessions:       make(map[uuid.UUID]domain.RefreshSession),
		categories:     make(map[int64]domain.Category),
		paymentMethods: make(map[int64]domain.PaymentMethod),
		transactions:   make(map[int64]domain.Transaction),
	}
}

func (s *Store) id() int64 {
	s.nextID++
	return s.nextID
}

func (s *Store) Users() *UserRepository                   { return &UserRepository{s} }
func (s *Store) Sessions() *SessionRepository             { return &SessionRepository{s} }
func (s *Store) Categories() *CategoryRepository          { return &CategoryRepository{s} }
func (s *Store) PaymentMethods() *PaymentMethodRepository { return &PaymentMethodRepository{s} }
func (s *Store) Transactions() *TransactionRepository     { return &TransactionRepository{s} }

type UserRepository struct{ s *Store }

func (r *UserRepository) GetByEmail(_ context.Context, email string) (*domain.User, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	for _, u := range r.s.users {
		if u.Email == email {
			return &u, nil
		}
	}
	return nil, nil
}

func (r *UserRepository) GetByID(_ context.Context, id int64) (*domain.User, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	u, ok := r.s.users[id]
	if !ok {
		return nil, nil
	}
	return &u, nil
}

func (r *UserRepository) Create(_ context.Context, user *domain.User) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, u := range r.s.users {
		if u.Email == user.Email {
			return domain.ErrDuplicateEmail
		}
	}
	user.ID = r.s.id()
	user.CreatedAt = time.Now()
	r.s.users[user.ID] = *user
	return nil
}

type SessionRepository struct{ s *Store }

func (r *SessionRepository) Replace(_ context.Context, session *domain.RefreshSession) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for id, existing := range r.s.sessions {
		if existing.UserID == session.UserID {
			delete(r.s.sessions, id)
		}
	}
	r.s.sessions[session.ID] = *session
	return nil
}

func (r *SessionRepository) GetByID(_ context.Context, id uuid.UUID) (*domain.RefreshSession, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	session, ok := r.s.sessions[id]
	if !ok {
		return nil, nil
	}
	return &session, nil
}

func (r *SessionRepository) Rotate(_ context.Context, oldID, newID uuid.UUID) (*domain.RefreshSession, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	session, ok := r.s.sessions[oldID]
	if !ok {
		return nil, domain.ErrSessionNotFound
	}
	delete(r.s.sessions, oldID)
	session.ID = newID
	r.s.sessions[newID] = session
	return &session, nil
}

func (r *SessionRepository) Delete(_ context.Context, id uuid.UUID) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	delete(r.s.sessions, id)
	return nil
}

func (r *SessionRepository) DeleteExpired(_ context.Context, now int64) (int64, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var n int64
	for id, session := range r.s.sessions {
		if now > session.ExpiresIn {
			delete(r.s.sessions, id)
			n++
		}
	}
	return n, nil
}

// Count returns the number of stored sessions for userID.
func (r *SessionRepository) Count(userID int64) int {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	n := 0
	for _, session := range r.s.sessions {
		if session.UserID == userID {
			n++
		}
	}
	return n
}

type CategoryRepository struct{ s *Store }

func (r *CategoryRepository) ListByUser(_ context.Context, userID int64) ([]*domain.Category, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	out := []*domain.Category{}
	for _, c := range r.s.categories {
		if c.UserID == userID {
			c := c
			out = append(out, &c)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (r *CategoryRepository) GetByID(_ context.Context, userID, id int64) (*domain.Category, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	c, ok := r.s.categories[id]
	if !ok || c.UserID != userID {
		return nil, nil
	}
	return &c, nil
}

func (r *CategoryRepository) Create(_ context.Context, category *domain.Category) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	category.ID = r.s.id()
	category.CreatedAt = time.Now()
	r.s.categories[category.ID] = *category
	return nil
}

func (r *CategoryRepository) Delete(_ context.Context, userID, id int64) (int64, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	c, ok := r.s.categories[id]
	if !ok || c.UserID != userID {
		return 0, nil
	}
	delete(r.s.categories, id)
	return 1, nil
}

type PaymentMethodRepository struct{ s *Store }

func (r *PaymentMethodRepository) ListByUser(_ context.Context, userID int64) ([]*domain.PaymentMethod, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	out := []*domain.PaymentMethod{}
	for _, m := range r.s.paymentMethods {
		if m.UserID == userID {
			m := m
			out = append(out, &m)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (r *PaymentMethodRepository) GetByID(_ context.Context, userID, id int64) (*domain.PaymentMethod, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	m, ok := r.s.paymentMethods[id]
	if !ok || m.UserID != userID {
		return nil, nil
	}
	return &m, nil
}

func (r *PaymentMethodRepository) Create(_ context.Context, method *domain.PaymentMethod) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	method.ID = r.s.id()
	method.CreatedAt = time.Now()
	r.s.paymentMethods[method.ID] = *method
	return nil
}

func (r *PaymentMethodRepository) Delete(_ context.Context, userID, id int64) (int64, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	m, ok := r.s.paymentMethods[id]
	if !ok || m.UserID != userID {
		return 0, nil
	}
	delete(r.s.paymentMethods, id)
	return 1, nil
}

type TransactionRepository struct{ s *Store }

func (r *TransactionRepository) ListByUser(_ context.Context, userID int64) ([]*domain.Transaction, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	out := []*domain.Transaction{}
	for _, t := range r.s.transactions {
		if t.UserID != userID {
			continue
		}
		t := t
		if c, ok := r.s.categories[t.CategoryID]; ok {
			t.Category = &domain.Reference{ID: c.ID, Name: c.Name}
		}
		if m, ok := r.s.paymentMethods[t.PaymentMethodID]; ok {
			t.PaymentMethod = &domain.Reference{ID: m.ID, Name: m.Name}
		}
		out = append(out, &t)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Date.After(out[j].Date) })
	return out, nil
}

func (r *TransactionRepository) Create(_ context.Context, tx *domain.Transaction) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	tx.ID = r.s.id()
	tx.CreatedAt = time.Now()
	stored := *tx
	stored.Category, stored.PaymentMethod = nil, nil
	r.s.transactions[tx.ID] = stored
	return nil
}

func (r *TransactionRepository) Delete(_ context.Context, userID, id int64) (int64, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	t, ok := r.s.transactions[id]
	if !ok || t.UserID != userID {
		return 0, nil
	}
	delete(r.s.transactions, id)
	return 1, nil
}

func (r *TransactionRepository) Summarize(_ context.Context, userID int64) (*domain.Summary, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	summary := &domain.Summary{}
	for _, t := range r.s.transactions {
		if t.UserID != userID {
			continue
		}
		summary.Count++
		summary.Balance += t.Amount
		switch {
		case t.Amount > 0:
			summary.Income += t.Amount
		case t.Amount < 0:
			summary.Expense += t.Amount
		}
	}
	return summary, nil
}
