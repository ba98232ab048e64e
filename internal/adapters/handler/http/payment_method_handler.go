package http

import (
	"errors"
	"net/http"

	"github.com/vncsmyrnk/fintrack/internal/core/domain"
	"github.com/vncsmyrnk/fintrack/internal/core/ports"
	"github.com/vncsmyrnk/fintrack/internal/logging"
)

type PaymentMethodHandler struct {
	service ports.PaymentMethodService
	log     logging.Logger
}

func NewPaymentMethodHandler(service ports.PaymentMethodService, log logging.Logger) *PaymentMethodHandler {
	return &PaymentMethodHandler{service: service, log: log}
}

type createPaymentMethodRequest struct {
	Name string `json:"name" validate:"required,min=1,max=80"`
}

// List godoc
// @Summary      Lists the user's payment methods
// @Tags         payment-methods
// @Produce      json
// @Security     BearerAuth
// @Success      200  {array}  domain.PaymentMethod
// @Router       /payment-methods [get]
func (h *PaymentMethodHandler) List(w http.ResponseWriter, r *http.Request) {
	userID, _ := userIDFrom(r)

	methods, err := h.service.List(r.Context(), userID)
	if err != nil {
		internalError(w, r, h.log, err)
		return
	}
	writeJSON(w, http.StatusOK, methods)
}

// Create godoc
// @Summary      Creates a payment method
// @Tags         payment-methods
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        body  body      createPaymentMethodRequest  true  "Payment method"
// @Success      201   {object}  domain.PaymentMethod
// @Failure      400   {object}  errorResponse
// @Router       /payment-methods [post]
func (h *PaymentMethodHandler) Create(w http.ResponseWriter, r *http.Request) {
	userID, _ := userIDFrom(r)

	var req createPaymentMethodRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}

	method, err := h.service.Create(r.Context(), userID, req.Name)
	if err != nil {
		internalError(w, r, h.log, err)
		return
	}
	writeJSON(w, http.StatusCreated, method)
}

// Delete godoc
// @Summary      Deletes a payment method
// @Tags         payment-methods
// @Security     BearerAuth
// @Param        id  path  int  true  "Payment method ID"
// @Success      204
// @Failure      404  {object}  errorResponse
// @Router       /payment-methods/{id} [delete]
func (h *PaymentMethodHandler) Delete(w http.ResponseWriter, r *http.Request) {
	userID, _ := userIDFrom(r)

	id, ok := pathID(w, r)
	if !ok {
		return
	}

	if err := h.service.Delete(r.Context(), userID, id); err != nil {
		if errors.Is(err, domain.ErrPaymentMethodNotFound) {
			writeMessage(w, http.StatusNotFound, "Payment method not found")
			return
		}
		internalError(w, r, h.log, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
