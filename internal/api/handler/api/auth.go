// internal/api/handler/api/auth.go
package api

import (
	"context"
	"net/http"
	"time"

	"github.com/newthinker/folio/internal/api/response"
	"github.com/newthinker/folio/internal/auth"
)

// AuthService defines the interface needed from the auth service.
type AuthService interface {
	SignIn(ctx context.Context, email string) error
	Verify(ctx context.Context, token, email string) (*auth.SessionInfo, error)
	Session(ctx context.Context, id string) (*auth.SessionInfo, error)
	SignOut(ctx context.Context, id string) error
}

// AuthHandler handles email-link sign-in requests.
type AuthHandler struct {
	svc          AuthService
	secureCookie bool
}

// NewAuthHandler creates a new auth handler. secureCookie marks the session
// cookie HTTPS-only.
func NewAuthHandler(svc AuthService, secureCookie bool) *AuthHandler {
	return &AuthHandler{svc: svc, secureCookie: secureCookie}
}

// SignInRequest is the request body for requesting a sign-in link.
type SignInRequest struct {
	Email string `json:"email"`
}

// SignIn mails a sign-in link.
func (h *AuthHandler) SignIn(w http.ResponseWriter, r *http.Request) {
	var req SignInRequest
	if err := decodeBody(w, r, &req); err != nil {
		response.Fail(w, err)
		return
	}

	if err := h.svc.SignIn(r.Context(), req.Email); err != nil {
		response.Fail(w, err)
		return
	}

	response.JSON(w, http.StatusAccepted, map[string]any{
		"sent": true,
	})
}

// Verify consumes the link's token and sets the session cookie.
func (h *AuthHandler) Verify(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	info, err := h.svc.Verify(r.Context(), q.Get("token"), q.Get("email"))
	if err != nil {
		response.Fail(w, err)
		return
	}

	http.SetCookie(w, h.cookie(info.Session.ID, info.Session.Expires))
	response.JSON(w, http.StatusOK, info)
}

// Session returns the caller's session and user.
func (h *AuthHandler) Session(w http.ResponseWriter, r *http.Request) {
	info, err := h.svc.Session(r.Context(), sessionID(r))
	if err != nil {
		response.Fail(w, err)
		return
	}
	response.JSON(w, http.StatusOK, info)
}

// SignOut ends the caller's session and clears the cookie.
func (h *AuthHandler) SignOut(w http.ResponseWriter, r *http.Request) {
	if err := h.svc.SignOut(r.Context(), sessionID(r)); err != nil {
		response.Fail(w, err)
		return
	}

	c := h.cookie("", time.Unix(0, 0))
	c.MaxAge = -1
	http.SetCookie(w, c)
	response.JSON(w, http.StatusOK, map[string]any{
		"signed_out": true,
	})
}

func (h *AuthHandler) cookie(value string, expires time.Time) *http.Cookie {
	return &http.Cookie{
		Name:     auth.CookieName,
		Value:    value,
		Path:     "/",
		Expires:  expires,
		HttpOnly: true,
		Secure:   h.secureCookie,
		SameSite: http.SameSiteLaxMode,
	}
}

func sessionID(r *http.Request) string {
	c, err := r.Cookie(auth.CookieName)
	if err != nil {
		return ""
	}
	return c.Value
}
