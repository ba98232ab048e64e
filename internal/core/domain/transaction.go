package domain

import "time"

type Transaction struct {
	ID              int64      `json:"id"`
	Description     string     `json:"description"`
	Amount          float64    `json:"amount"`
	Date            time.Time  `json:"date"`
	CategoryID      int64      `json:"categoryId"`
	PaymentMethodID int64      `json:"paymentMethodId"`
	UserID          int64      `json:"userId"`
	Category        *Reference `json:"category,omitempty"`
	PaymentMethod   *Reference `json:"paymentMethod,omitempty"`
	CreatedAt       time.Time  `json:"createdAt"`
}

// Reference is the id/name projection of a related record.
type Reference struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}

// Summary aggregates a user's transactions. Expense is the (negative) sum of
// all negative amounts.
type Summary struct {
	Balance float64 `json:"balance"`
	Count   int64   `json:"count"`
	Income  float64 `json:"income"`
	Expense float64 `json:"expense"`
}
