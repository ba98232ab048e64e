package http

import (
	"errors"
	"net/http"

	"github.com/vncsmyrnk/fintrack/internal/core/domain"
	"github.com/vncsmyrnk/fintrack/internal/core/ports"
	"github.com/vncsmyrnk/fintrack/internal/logging"
	"github.com/vncsmyrnk/fintrack/internal/metrics"
)

type UserHandler struct {
	service ports.UserService
	cookies SessionCookie
	log     logging.Logger
}

func NewUserHandler(service ports.UserService, cookies SessionCookie, log logging.Logger) *UserHandler {
	return &UserHandler{
		service: service,
		cookies: cookies,
		log:     log,
	}
}

type registerRequest struct {
	Name     string `json:"name" validate:"required,min=3"`
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=8,maxbytes=72"`
}

type loginRequest struct {
	Email      string `json:"email" validate:"required,email"`
	Password   string `json:"password" validate:"required"`
	RememberMe bool   `json:"rememberMe"`
}

type loginResponse struct {
	User  *domain.User `json:"user"`
	Token string       `json:"token"`
}

// Register godoc
// @Summary      Creates a user
// @Tags         users
// @Accept       json
// @Produce      json
// @Param        body  body      registerRequest  true  "New user"
// @Success      201   {object}  domain.User
// @Failure      400   {object}  errorResponse
// @Failure      409   {object}  errorResponse
// @Router       /users [post]
func (h *UserHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}

	user, err := h.service.Register(r.Context(), ports.RegisterInput{
		Name:     req.Name,
		Email:    req.Email,
		Password: req.Password,
	})
	if err != nil {
		if errors.Is(err, domain.ErrDuplicateEmail) {
			writeMessage(w, http.StatusConflict, "Email already in use.")
			return
		}
		if errors.Is(err, domain.ErrPasswordTooLong) {
			writeMessage(w, http.StatusBadRequest, "password must be at most 72 bytes")
			return
		}
		internalError(w, r, h.log, err)
		return
	}

	writeJSON(w, http.StatusCreated, user)
}

// Login godoc
// @Summary      Logs a user in
// @Description  Returns an access token and sets the `refreshToken` cookie. With `rememberMe` the cookie persists for 30 days, otherwise it lasts for the browser session.
// @Tags         users
// @Accept       json
// @Produce      json
// @Param        body  body      loginRequest  true  "Credentials"
// @Success      200   {object}  loginResponse
// @Failure      401   {object}  errorResponse
// @Router       /users/login [post]
func (h *UserHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}

	result, err := h.service.Login(r.Context(), ports.LoginInput{
		Email:    req.Email,
		Password: req.Password,
	})
	if err != nil {
		if errors.Is(err, domain.ErrInvalidCredentials) {
			metrics.LoginAttempts.WithLabelValues("invalid").Inc()
			writeMessage(w, http.StatusUnauthorized, "Invalid email or password.")
			return
		}
		metrics.LoginAttempts.WithLabelValues("error").Inc()
		internalError(w, r, h.log, err)
		return
	}

	metrics.LoginAttempts.WithLabelValues("success").Inc()
	h.cookies.Set(w, result.Session.ID.String(), req.RememberMe)
	writeJSON(w, http.StatusOK, loginResponse{User: result.User, Token: result.Token})
}

// Me godoc
// @Summary      Returns the authenticated user
// @Tags         users
// @Produce      json
// @Security     BearerAuth
// @Success      200  {object}  domain.User
// @Failure      401  {object}  errorResponse
// @Failure      404  {object}  errorResponse
// @Router       /users/me [get]
func (h *UserHandler) Me(w http.ResponseWriter, r *http.Request) {
	userID, ok := userIDFrom(r)
	if !ok {
		writeMessage(w, http.StatusUnauthorized, msgTokenAbsent)
		return
	}

	user, err := h.service.GetByID(r.Context(), userID)
	if err != nil {
		if errors.Is(err, domain.ErrUserNotFound) {
			writeMessage(w, http.StatusNotFound, "User not found")
			return
		}
		internalError(w, r, h.log, err)
		return
	}

	writeJSON(w, http.StatusOK, user)
}
