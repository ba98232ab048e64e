package http

import (
	"errors"
	"net/http"
	"time"

	"github.com/vncsmyrnk/fintrack/internal/core/domain"
	"github.com/vncsmyrnk/fintrack/internal/core/ports"
	"github.com/vncsmyrnk/fintrack/internal/logging"
)

type TransactionHandler struct {
	service ports.TransactionService
	log     logging.Logger
}

func NewTransactionHandler(service ports.TransactionService, log logging.Logger) *TransactionHandler {
	return &TransactionHandler{service: service, log: log}
}

type createTransactionRequest struct {
	Description     string   `json:"description" validate:"required,min=3"`
	Amount          *float64 `json:"amount" validate:"required"`
	Date            string   `json:"date" validate:"required"`
	CategoryID      int64    `json:"categoryId" validate:"required,gt=0"`
	PaymentMethodID int64    `json:"paymentMethodId" validate:"required,gt=0"`
}

// parseDate accepts RFC 3339 timestamps and plain calendar dates.
func parseDate(s string) (time.Time, bool) {
	for _, layout := range []string{time.RFC3339Nano, time.DateOnly} {
		if t, err := time.Parse(layout, s); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

// List godoc
// @Summary      Lists the user's transactions
// @Description  Newest first, each with its category and payment method.
// @Tags         transactions
// @Produce      json
// @Security     BearerAuth
// @Success      200  {array}  domain.Transaction
// @Router       /transactions [get]
func (h *TransactionHandler) List(w http.ResponseWriter, r *http.Request) {
	userID, _ := userIDFrom(r)

	txs, err := h.service.List(r.Context(), userID)
	if err != nil {
		internalError(w, r, h.log, err)
		return
	}
	writeJSON(w, http.StatusOK, txs)
}

// Summary godoc
// @Summary      Summarizes the user's transactions
// @Tags         transactions
// @Produce      json
// @Security     BearerAuth
// @Success      200  {object}  domain.Summary
// @Router       /transactions/summary [get]
func (h *TransactionHandler) Summary(w http.ResponseWriter, r *http.Request) {
	userID, _ := userIDFrom(r)

	summary, err := h.service.Summary(r.Context(), userID)
	if err != nil {
		internalError(w, r, h.log, err)
		return
	}
	writeJSON(w, http.StatusOK, summary)
}

// Create godoc
// @Summary      Records a transaction
// @Description  Negative amounts are expenses. The category and payment method must belong to the user.
// @Tags         transactions
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        body  body      createTransactionRequest  true  "Transaction"
// @Success      201   {object}  domain.Transaction
// @Failure      400   {object}  errorResponse
// @Router       /transactions [post]
func (h *TransactionHandler) Create(w http.ResponseWriter, r *http.Request) {
	userID, _ := userIDFrom(r)

	var req createTransactionRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}

	date, ok := parseDate(req.Date)
	if !ok {
		writeJSON(w, http.StatusBadRequest, errorResponse{
			Message: "date must be a valid date",
			Errors:  []string{"date must be a valid date"},
		})
		return
	}

	tx, err := h.service.Create(r.Context(), userID, ports.CreateTransactionInput{
		Description:     req.Description,
		Amount:          *req.Amount,
		Date:            date,
		CategoryID:      req.CategoryID,
		PaymentMethodID: req.PaymentMethodID,
	})
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrCategoryNotFound):
			writeMessage(w, http.StatusBadRequest, "Category not found")
		case errors.Is(err, domain.ErrPaymentMethodNotFound):
			writeMessage(w, http.StatusBadRequest, "Payment method not found")
		default:
			internalError(w, r, h.log, err)
		}
		return
	}
	writeJSON(w, http.StatusCreated, tx)
}

// Delete godoc
// @Summary      Deletes a transaction
// @Tags         transactions
// @Security     BearerAuth
// @Param        id  path  int  true  "Transaction ID"
// @Success      204
// @Failure      404  {object}  errorResponse
// @Router       /transactions/{id} [delete]
func (h *TransactionHandler) Delete(w http.ResponseWriter, r *http.Request) {
	userID, _ := userIDFrom(r)

	id, ok := pathID(w, r)
	if !ok {
		return
	}

	if err := h.service.Delete(r.Context(), userID, id); err != nil {
		if errors.Is(err, domain.ErrTransactionNotFound) {
			writeMessage(w, http.StatusNotFound, "Transaction not found")
			return
		}
		internalError(w, r, h.log, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
