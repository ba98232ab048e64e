package http

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/vncsmyrnk/fintrack/internal/core/domain"
	"github.com/vncsmyrnk/fintrack/internal/core/ports"
	"github.com/vncsmyrnk/fintrack/internal/logging"
)

type CategoryHandler struct {
	service ports.CategoryService
	log     logging.Logger
}

func NewCategoryHandler(service ports.CategoryService, log logging.Logger) *CategoryHandler {
	return &CategoryHandler{service: service, log: log}
}

type createCategoryRequest struct {
	Name  string `json:"name" validate:"required,min=1,max=80"`
	Color string `json:"color" validate:"omitempty,hexcolor"`
}

// List godoc
// @Summary      Lists the user's categories
// @Tags         categories
// @Produce      json
// @Security     BearerAuth
// @Success      200  {array}   domain.Category
// @Failure      401  {object}  errorResponse
// @Router       /categories [get]
func (h *CategoryHandler) List(w http.ResponseWriter, r *http.Request) {
	userID, _ := userIDFrom(r)

	categories, err := h.service.List(r.Context(), userID)
	if err != nil {
		internalError(w, r, h.log, err)
		return
	}
	writeJSON(w, http.StatusOK, categories)
}

// Create godoc
// @Summary      Creates a category
// @Tags         categories
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        body  body      createCategoryRequest  true  "Category"
// @Success      201   {object}  domain.Category
// @Failure      400   {object}  errorResponse
// @Router       /categories [post]
func (h *CategoryHandler) Create(w http.ResponseWriter, r *http.Request) {
	userID, _ := userIDFrom(r)

	var req createCategoryRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}

	category, err := h.service.Create(r.Context(), userID, ports.CreateCategoryInput{Name: req.Name, Color: req.Color})
	if err != nil {
		internalError(w, r, h.log, err)
		return
	}
	writeJSON(w, http.StatusCreated, category)
}

// Delete godoc
// @Summary      Deletes a category
// @Description  Transactions of the category are deleted with it.
// @Tags         categories
// @Security     BearerAuth
// @Param        id  path  int  true  "Category ID"
// @Success      204
// @Failure      404  {object}  errorResponse
// @Router       /categories/{id} [delete]
func (h *CategoryHandler) Delete(w http.ResponseWriter, r *http.Request) {
	userID, _ := userIDFrom(r)

	id, ok := pathID(w, r)
	if !ok {
		return
	}

	if err := h.service.Delete(r.Context(), userID, id); err != nil {
		if errors.Is(err, domain.ErrCategoryNotFound) {
			writeMessage(w, http.StatusNotFound, "Category not found")
			return
		}
		internalError(w, r, h.log, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func pathID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil || id <= 0 {
		writeMessage(w, http.StatusBadRequest, "Invalid id")
		return 0, false
	}
	return id, true
}
