package http

import (
	"errors"
	"net/http"
	"time"

	"github.com/vncsmyrnk/fintrack/internal/core/domain"
	"github.com/vncsmyrnk/fintrack/internal/core/ports"
	"github.com/vncsmyrnk/fintrack/internal/logging"
	"github.com/vncsmyrnk/fintrack/internal/metrics"
)

const refreshCookieName = "refreshToken"

// SessionCookie writes the refreshToken cookie. The API and its web client
// live on different sites, hence SameSite=None. Insecure cookies fall back
// to SameSite=Lax, since browsers drop SameSite=None without Secure.
type SessionCookie struct {
	MaxAge   time.Duration
	Insecure bool
}

// Set writes the session id. Without remember the cookie has no MaxAge and
// ends with the browser session.
func (c SessionCookie) Set(w http.ResponseWriter, sessionID string, remember bool) {
	cookie := c.base(sessionID)
	if remember {
		cookie.MaxAge = int(c.MaxAge.Seconds())
	}
	http.SetCookie(w, cookie)
}

// SetUntil writes the session id with an absolute expiry.
func (c SessionCookie) SetUntil(w http.ResponseWriter, sessionID string, expires time.Time) {
	cookie := c.base(sessionID)
	cookie.Expires = expires
	http.SetCookie(w, cookie)
}

func (c SessionCookie) Expire(w http.ResponseWriter) {
	cookie := c.base("")
	cookie.MaxAge = -1
	http.SetCookie(w, cookie)
}

func (c SessionCookie) base(value string) *http.Cookie {
	return &http.Cookie{
		Name:     refreshCookieName,
		Value:    value,
		Path:     "/",
		HttpOnly: true,
		Secure:   !c.Insecure,
		SameSite: c.sameSite(),
	}
}

func (c SessionCookie) sameSite() http.SameSite {
	if c.Insecure {
		return http.SameSiteLaxMode
	}
	return http.SameSiteNoneMode
}

type AuthHandler struct {
	sessions       ports.SessionService
	cookies        SessionCookie
	revokeOnLogout bool
	log            logging.Logger
}

func NewAuthHandler(sessions ports.SessionService, cookies SessionCookie, revokeOnLogout bool, log logging.Logger) *AuthHandler {
	return &AuthHandler{
		sessions:       sessions,
		cookies:        cookies,
		revokeOnLogout: revokeOnLogout,
		log:            log,
	}
}

type refreshResponse struct {
	Token string `json:"token"`
}

// RefreshToken godoc
// @Summary      Issues a new access token
// @Description  Exchanges the `refreshToken` cookie for a new access token. The refresh session itself is not extended.
// @Tags         users
// @Produce      json
// @Success      200  {object}  refreshResponse
// @Failure      401  {object}  errorResponse
// @Router       /users/refresh-token [post]
func (h *AuthHandler) RefreshToken(w http.ResponseWriter, r *http.Request) {
	cookie, err := r.Cookie(refreshCookieName)
	if err != nil || cookie.Value == "" {
		metrics.RefreshAttempts.WithLabelValues("missing").Inc()
		writeMessage(w, http.StatusUnauthorized, "Refresh token missing")
		return
	}

	result, err := h.sessions.Refresh(r.Context(), cookie.Value)
	if err != nil {
		if errors.Is(err, domain.ErrSessionNotFound) || errors.Is(err, domain.ErrSessionExpired) {
			metrics.RefreshAttempts.WithLabelValues("expired").Inc()
			writeMessage(w, http.StatusUnauthorized, "Refresh token expired")
			return
		}
		metrics.RefreshAttempts.WithLabelValues("error").Inc()
		internalError(w, r, h.log, err)
		return
	}

	if id := result.Session.ID.String(); id != cookie.Value {
		h.cookies.SetUntil(w, id, time.Unix(result.Session.ExpiresIn, 0))
	}

	metrics.RefreshAttempts.WithLabelValues("success").Inc()
	writeJSON(w, http.StatusOK, refreshResponse{Token: result.Token})
}

// Logout godoc
// @Summary      Logs the user out
// @Description  Clears the `refreshToken` cookie. The server-side session is deleted only when revocation on logout is enabled.
// @Tags         users
// @Success      204
// @Router       /users/logout [post]
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	if h.revokeOnLogout {
		if cookie, err := r.Cookie(refreshCookieName); err == nil && cookie.Value != "" {
			if err := h.sessions.Revoke(r.Context(), cookie.Value); err != nil {
				h.log.Warn(r.Context(), "failed to revoke session on logout", "error", err)
			}
		}
	}

	h.cookies.Expire(w)
	w.WriteHeader(http.StatusNoContent)
}
